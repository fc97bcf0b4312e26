package rbd

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// LinkSpec describes one revolute link of a [PlanarChain], measured from its
// proximal joint to its distal joint.
type LinkSpec struct {
	Length      float64 // m, proximal joint to distal joint
	Mass        float64 // kg, lumped at the link's center of mass
	COMFraction float64 // fraction of Length from the proximal joint to the COM, (0,1]
	Inertia     float64 // kg*m^2, about the link's own COM
	Motorized   bool
	EffortLimit float64 // N*m, only meaningful if Motorized
	PosMin      float64 // rad
	PosMax      float64 // rad
}

type planarFrame struct {
	name       string
	linkIdx    int     // joint this frame is rigidly attached to
	offset     float64 // distance along the link from its proximal joint
	isContact  bool
}

// PlanarChain is a serial chain of N revolute joints lying in the XY plane,
// angle q[i] measured absolute from the +X axis (not relative to the parent
// link), matching the convention used for the forward/inverse-dynamics
// recursions below. nq == nv == len(links).
type PlanarChain struct {
	sensorRegistry

	links    []LinkSpec
	frames   []planarFrame
	gravity  [6]float64
	init     bool

	// scratch set by ForwardKinematics / FramesForwardKinematics
	q, v       []float64
	jointPos   [][2]float64 // world position of joint i's distal end
	jointVel   [][2]float64
	linkAngVel []float64
}

// NewPlanarChain builds a chain from proximal (index 0) to distal joint.
func NewPlanarChain(links []LinkSpec) *PlanarChain {
	c := &PlanarChain{
		sensorRegistry: newSensorRegistry(),
		links:          links,
		gravity:        [6]float64{0, 0, -9.81, 0, 0, 0},
		init:           true,
	}
	for i := range links {
		c.frames = append(c.frames, planarFrame{name: jointFrameName(i), linkIdx: i, offset: links[i].Length})
	}
	return c
}

func jointFrameName(i int) string { return "joint_" + strconv.Itoa(i) }

// AddFrame attaches a named frame rigidly to link linkIdx at the given
// distance from that link's proximal joint, optionally marking it a contact
// frame, and returns its frame index.
func (c *PlanarChain) AddFrame(name string, linkIdx int, offset float64, contact bool) int {
	c.frames = append(c.frames, planarFrame{name: name, linkIdx: linkIdx, offset: offset, isContact: contact})
	return len(c.frames) - 1
}

func (c *PlanarChain) FrameIndexByName(name string) (int, bool) {
	for i, f := range c.frames {
		if f.name == name {
			return i, true
		}
	}
	return 0, false
}

func (c *PlanarChain) NQ() int  { return len(c.links) }
func (c *PlanarChain) NV() int  { return len(c.links) }
func (c *PlanarChain) NX() int  { return 2 * len(c.links) }
func (c *PlanarChain) NumJoints() int { return len(c.links) }

func (c *PlanarChain) NumFrames() int { return len(c.frames) }

func (c *PlanarChain) MotorVelocityIndices() []int {
	var out []int
	for i, l := range c.links {
		if l.Motorized {
			out = append(out, i)
		}
	}
	return out
}

func (c *PlanarChain) MotorPositionIndices() []int { return c.MotorVelocityIndices() }

func (c *PlanarChain) ContactFrameIndices() []int {
	var out []int
	for i, f := range c.frames {
		if f.isContact {
			out = append(out, i)
		}
	}
	return out
}

func (c *PlanarChain) EffortLimit(velocityIdx int) float64 {
	if velocityIdx < 0 || velocityIdx >= len(c.links) {
		return 0
	}
	return c.links[velocityIdx].EffortLimit
}

func (c *PlanarChain) PositionBounds(configIdx int) (float64, float64) {
	if configIdx < 0 || configIdx >= len(c.links) {
		return math.Inf(-1), math.Inf(1)
	}
	return c.links[configIdx].PosMin, c.links[configIdx].PosMax
}

func (c *PlanarChain) SetGravity(g [6]float64) { c.gravity = g }
func (c *PlanarChain) Reset()                  {}
func (c *PlanarChain) IsInitialized() bool      { return c.init }

func (c *PlanarChain) ParentJoint(frameIdx int) int {
	return c.frames[frameIdx].linkIdx
}

func (c *PlanarChain) FrameOffsetInParentJoint(frameIdx int) [3]float64 {
	f := c.frames[frameIdx]
	return [3]float64{f.offset - c.links[f.linkIdx].Length, 0, 0}
}

func (c *PlanarChain) FrameRotationParentJoint(frameIdx int) [3][3]float64 {
	return identity3()
}

// ForwardKinematics caches joint/COM world positions and velocities for the
// current q, v, used by FramePlacement and the dynamics recursions.
func (c *PlanarChain) ForwardKinematics(q, v []float64) {
	n := len(c.links)
	c.q, c.v = q, v
	c.jointPos = make([][2]float64, n)
	c.jointVel = make([][2]float64, n)
	c.linkAngVel = make([]float64, n)

	var prevPos [2]float64
	var prevVel [2]float64
	var prevW float64

	for i := 0; i < n; i++ {
		phi := q[i]
		w := v[i]
		ca, sa := math.Cos(phi), math.Sin(phi)
		e := [2]float64{ca, sa} // link i direction from its proximal joint
		L := c.links[i].Length

		distalPos := [2]float64{prevPos[0] + L*e[0], prevPos[1] + L*e[1]}
		// v_distal = v_proximal + w_i x (L*e), planar cross gives perpendicular
		perp := [2]float64{-L * sa, L * ca}
		distalVel := [2]float64{
			prevVel[0] + w*perp[0],
			prevVel[1] + w*perp[1],
		}

		c.jointPos[i] = distalPos
		c.jointVel[i] = distalVel
		c.linkAngVel[i] = w

		prevPos, prevVel, prevW = distalPos, distalVel, w
		_ = prevW
	}
}

func (c *PlanarChain) FramesForwardKinematics() {}

// pointOnLink returns the world position/velocity of a point offset from
// link linkIdx's proximal joint.
func (c *PlanarChain) pointOnLink(linkIdx int, offset float64) (pos, vel [2]float64) {
	var proxPos, proxVel [2]float64
	if linkIdx > 0 {
		proxPos = c.jointPos[linkIdx-1]
		proxVel = c.jointVel[linkIdx-1]
	}
	phi := c.q[linkIdx]
	w := c.v[linkIdx]
	ca, sa := math.Cos(phi), math.Sin(phi)
	r := [2]float64{offset * ca, offset * sa}
	perp := [2]float64{-offset * sa, offset * ca}
	pos = [2]float64{proxPos[0] + r[0], proxPos[1] + r[1]}
	vel = [2]float64{proxVel[0] + w*perp[0], proxVel[1] + w*perp[1]}
	return
}

func (c *PlanarChain) FramePlacement(frameIdx int) Placement {
	f := c.frames[frameIdx]
	pos, _ := c.pointOnLink(f.linkIdx, f.offset)
	phi := c.q[f.linkIdx]
	ca, sa := math.Cos(phi), math.Sin(phi)
	return Placement{
		Position: [3]float64{pos[0], pos[1], 0},
		Rotation: [3][3]float64{
			{ca, -sa, 0},
			{sa, ca, 0},
			{0, 0, 1},
		},
	}
}

func (c *PlanarChain) FrameLinearVelocityWorld(frameIdx int) [3]float64 {
	f := c.frames[frameIdx]
	_, vel := c.pointOnLink(f.linkIdx, f.offset)
	return [3]float64{vel[0], vel[1], 0}
}

// comOf returns the world position, velocity, and angular velocity of link
// i's center of mass.
func (c *PlanarChain) comOf(i int) (pos, vel [2]float64, w float64) {
	pos, vel = c.pointOnLink(i, c.links[i].Length*c.links[i].COMFraction)
	w = c.v[i]
	return
}

// inverseDynamics is the RNEA recursion: given q, qd, qdd and an optional
// per-link external wrench (expressed in world, applied at that link's
// distal joint — the same point fExt uses in [PlanarChain.ABA]), returns the
// generalized torque required to realize qdd.
func (c *PlanarChain) inverseDynamics(q, qd, qdd []float64, extWorld []Wrench) []float64 {
	n := len(c.links)
	c.ForwardKinematics(q, qd)

	// Forward pass: absolute angular velocity/acceleration and COM linear
	// acceleration of every link, expressed in the world frame.
	type comKin struct {
		accel [2]float64
	}
	coms := make([]comKin, n)

	var proxAccel [2]float64
	for i := 0; i < n; i++ {
		phi, w, alpha := q[i], qd[i], qdd[i]
		ca, sa := math.Cos(phi), math.Sin(phi)
		lc := c.links[i].Length * c.links[i].COMFraction
		rc := [2]float64{lc * ca, lc * sa}
		// a_com = a_proximal + alpha x rc + w x (w x rc)
		centrip := [2]float64{-w * w * rc[0], -w * w * rc[1]}
		tangential := [2]float64{-alpha * rc[1], alpha * rc[0]}
		coms[i].accel = [2]float64{
			proxAccel[0] + tangential[0] + centrip[0],
			proxAccel[1] + tangential[1] + centrip[1],
		}

		L := c.links[i].Length
		rNext := [2]float64{L * ca, L * sa}
		centripNext := [2]float64{-w * w * rNext[0], -w * w * rNext[1]}
		tangentialNext := [2]float64{-alpha * rNext[1], alpha * rNext[0]}
		proxAccel = [2]float64{
			proxAccel[0] + tangentialNext[0] + centripNext[0],
			proxAccel[1] + tangentialNext[1] + centripNext[1],
		}
	}

	// Backward pass: propagate joint reaction force/moment from the distal
	// tip back to the base, reading off tau[i] as the required generalized
	// torque at each joint. An external wrench on link i and the reaction
	// carried in from link i+1 are both applied at link i's distal joint,
	// so they share the same rNext lever arm in the moment balance.
	var fNextVec [2]float64
	var mNext float64
	tau := make([]float64, n)

	for i := n - 1; i >= 0; i-- {
		m := c.links[i].Mass
		I := c.links[i].Inertia
		alpha := qdd[i]

		// D'Alembert force/moment of link i alone, about its own COM.
		force := [2]float64{m * coms[i].accel[0], m * coms[i].accel[1]}
		force[0] -= m * c.gravity[0]
		force[1] -= m * c.gravity[1]
		moment := I * alpha

		var extForce [2]float64
		var extMoment float64
		if len(extWorld) > i {
			extForce = [2]float64{extWorld[i][0], extWorld[i][1]}
			extMoment = extWorld[i][5]
		}

		phi := q[i]
		ca, sa := math.Cos(phi), math.Sin(phi)
		lc := c.links[i].Length * c.links[i].COMFraction
		rc := [2]float64{lc * ca, lc * sa}
		L := c.links[i].Length
		rNext := [2]float64{L * ca, L * sa}

		// Net force/moment acting at the distal joint: the reaction from
		// link i+1 minus the external wrench (the wrench is a known load,
		// not a reaction, so it enters with the opposite sign).
		distalForce := [2]float64{fNextVec[0] - extForce[0], fNextVec[1] - extForce[1]}

		totalForce := [2]float64{force[0] + distalForce[0], force[1] + distalForce[1]}
		totalMoment := moment + mNext + cross2(rc, force) + cross2(rNext, distalForce) - extMoment
		tau[i] = totalMoment

		fNextVec, mNext = totalForce, totalMoment
	}

	return tau
}

func cross2(a, b [2]float64) float64 { return a[0]*b[1] - a[1]*b[0] }

// RNEA is the public inverse-dynamics entry point (no external wrenches).
func (c *PlanarChain) RNEA(q, v, a []float64) []float64 {
	return c.inverseDynamics(q, v, a, nil)
}

// ABA computes forward dynamics via composite mass-matrix assembly: the
// bias term is the zero-acceleration torque, and each mass-matrix column is
// recovered by differencing inverse dynamics at a unit acceleration basis
// vector, solved with gonum for the resulting acceleration.
func (c *PlanarChain) ABA(q, v, tau []float64, fExt []Wrench) []float64 {
	n := len(c.links)
	zero := make([]float64, n)

	extWorld := make([]Wrench, n)
	for i, w := range fExt {
		if i < n {
			extWorld[i] = w
		}
	}

	bias := c.inverseDynamics(q, v, zero, nil)
	biasExt := c.inverseDynamics(q, v, zero, extWorld)

	M := mat.NewDense(n, n, nil)
	basis := make([]float64, n)
	for k := 0; k < n; k++ {
		for i := range basis {
			basis[i] = 0
		}
		basis[k] = 1
		col := c.inverseDynamics(q, v, basis, nil)
		for i := 0; i < n; i++ {
			M.Set(i, k, col[i]-bias[i])
		}
	}

	rhs := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		rhs.SetVec(i, tau[i]-biasExt[i])
	}

	var qdd mat.VecDense
	if err := qdd.SolveVec(M, rhs); err != nil {
		// Singular mass matrix should not happen for positive-mass links;
		// fall back to zero acceleration rather than propagate NaNs.
		return zero
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = qdd.AtVec(i)
	}
	return out
}

func (c *PlanarChain) Integrate(q []float64, vTimesDt []float64) []float64 {
	out := make([]float64, len(q))
	for i := range q {
		out[i] = q[i] + vTimesDt[i]
	}
	return out
}

func (c *PlanarChain) KineticEnergy(q, v []float64) float64 {
	c.ForwardKinematics(q, v)
	ke := 0.0
	for i := range c.links {
		_, vel, w := c.comOf(i)
		speed2 := vel[0]*vel[0] + vel[1]*vel[1]
		ke += 0.5*c.links[i].Mass*speed2 + 0.5*c.links[i].Inertia*w*w
	}
	return ke
}

func (c *PlanarChain) PotentialEnergy(q []float64) float64 {
	v := make([]float64, len(q))
	c.ForwardKinematics(q, v)
	pe := 0.0
	gx, gy := c.gravity[0], c.gravity[1]
	gmag := math.Sqrt(gx*gx + gy*gy)
	for i := range c.links {
		pos, _, _ := c.comOf(i)
		if gmag == 0 {
			continue
		}
		// height is the projection onto the "up" direction opposite gravity.
		upX, upY := -gx/gmag, -gy/gmag
		height := pos[0]*upX + pos[1]*upY
		pe += c.links[i].Mass * gmag * height
	}
	return pe
}

func identity3() [3][3]float64 {
	return [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}
