// Package engine implements the time-stepping orchestrator that sits on top
// of an internal/rbd.Model: adaptive-step ODE integration, the controller
// and sensor sampling schedule, ground contact and joint-limit force models,
// composition of internal and external generalized forces into the forward
// dynamics right-hand side, and telemetry snapshotting.
//
// It is deliberately a single package, mirroring the original engine's C++
// core/ library, which keeps the stepper, the dynamics right-hand side, and
// the telemetry recorder together rather than splitting them across module
// boundaries: they share the StepperState scratch on every call.
package engine
