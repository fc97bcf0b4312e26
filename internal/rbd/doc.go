// Package rbd provides the rigid-body model collaborator consumed by the
// simulation engine: kinematic-tree placements, forward/inverse dynamics
// (ABA/RNEA), configuration-manifold integration, and a sensor registry.
//
// Two concrete models are provided:
//
//   - [FreeBody]: a single 6-DOF rigid body, configuration parameterized as
//     position plus unit quaternion (nq=7), velocity as a body-frame spatial
//     twist (nv=6).
//   - [PlanarChain]: an N-link planar revolute chain (nq=nv=N), used for
//     pendulum, double-pendulum, and cartpole-style systems.
//
// Model loading (URDF or otherwise) is outside this package's concern; a
// model is built directly via [NewFreeBody] or [NewPlanarChain].
package rbd
