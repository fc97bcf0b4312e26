package rbd

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// FreeBody is a single unconstrained rigid body: configuration is world
// position plus unit quaternion (nq=7), velocity is a body-frame spatial
// twist, linear followed by angular (nv=6). It is the model used for
// free-fall and rest-on-ground scenarios.
type FreeBody struct {
	sensorRegistry

	mass    float64
	inertia mgl64.Mat3 // body-frame inertia tensor about the COM
	invI    mgl64.Mat3

	gravity [6]float64
	init    bool

	frames []freeFrame

	// scratch set by ForwardKinematics
	pos    mgl64.Vec3
	quat   mgl64.Quat
	linVel mgl64.Vec3
	angVel mgl64.Vec3
}

type freeFrame struct {
	name      string
	offset    mgl64.Vec3 // in body frame
	isContact bool
}

// NewFreeBody builds a free body of the given mass with a diagonal inertia
// tensor about its own center of mass.
func NewFreeBody(mass float64, ixx, iyy, izz float64) *FreeBody {
	I := mgl64.Mat3{ixx, 0, 0, 0, iyy, 0, 0, 0, izz}
	return &FreeBody{
		sensorRegistry: newSensorRegistry(),
		mass:           mass,
		inertia:        I,
		invI:           mgl64.Mat3{1 / ixx, 0, 0, 0, 1 / iyy, 0, 0, 0, 1 / izz},
		gravity:        [6]float64{0, 0, -9.81, 0, 0, 0},
		init:           true,
	}
}

// AddFrame attaches a named frame rigidly to the body at a body-frame
// offset, optionally marking it a contact frame, and returns its index.
func (b *FreeBody) AddFrame(name string, offset mgl64.Vec3, contact bool) int {
	b.frames = append(b.frames, freeFrame{name: name, offset: offset, isContact: contact})
	return len(b.frames) - 1
}

func (b *FreeBody) FrameIndexByName(name string) (int, bool) {
	for i, f := range b.frames {
		if f.name == name {
			return i, true
		}
	}
	return 0, false
}

func (b *FreeBody) NQ() int { return 7 }
func (b *FreeBody) NV() int { return 6 }
func (b *FreeBody) NX() int { return 13 }

func (b *FreeBody) NumJoints() int { return 1 }

func (b *FreeBody) NumFrames() int { return len(b.frames) }

// MotorVelocityIndices is empty: a free body has no actuated joints.
func (b *FreeBody) MotorVelocityIndices() []int { return nil }
func (b *FreeBody) MotorPositionIndices() []int { return nil }

func (b *FreeBody) ContactFrameIndices() []int {
	var out []int
	for i, f := range b.frames {
		if f.isContact {
			out = append(out, i)
		}
	}
	return out
}

func (b *FreeBody) EffortLimit(velocityIdx int) float64 { return 0 }

func (b *FreeBody) PositionBounds(configIdx int) (float64, float64) {
	return math.Inf(-1), math.Inf(1)
}

func (b *FreeBody) SetGravity(g [6]float64) { b.gravity = g }
func (b *FreeBody) Reset()                  {}
func (b *FreeBody) IsInitialized() bool     { return b.init }

func (b *FreeBody) ParentJoint(frameIdx int) int { return 0 }

func (b *FreeBody) FrameOffsetInParentJoint(frameIdx int) [3]float64 {
	o := b.frames[frameIdx].offset
	return [3]float64{o.X(), o.Y(), o.Z()}
}

func (b *FreeBody) FrameRotationParentJoint(frameIdx int) [3][3]float64 {
	return identity3()
}

// ForwardKinematics unpacks q=[x,y,z,qw,qx,qy,qz], v=[vx,vy,vz,wx,wy,wz] (v
// expressed in the body frame) into the cached pose used by the frame and
// dynamics queries below.
func (b *FreeBody) ForwardKinematics(q, v []float64) {
	b.pos = mgl64.Vec3{q[0], q[1], q[2]}
	b.quat = mgl64.Quat{W: q[3], V: mgl64.Vec3{q[4], q[5], q[6]}}
	b.quat = b.quat.Normalize()
	b.linVel = mgl64.Vec3{v[0], v[1], v[2]}
	b.angVel = mgl64.Vec3{v[3], v[4], v[5]}
}

func (b *FreeBody) FramesForwardKinematics() {}

func (b *FreeBody) FramePlacement(frameIdx int) Placement {
	f := b.frames[frameIdx]
	worldOffset := b.quat.Rotate(f.offset)
	p := b.pos.Add(worldOffset)
	return Placement{
		Position: [3]float64{p.X(), p.Y(), p.Z()},
		Rotation: quatToMat3(b.quat),
	}
}

func (b *FreeBody) FrameLinearVelocityWorld(frameIdx int) [3]float64 {
	f := b.frames[frameIdx]
	worldOffset := b.quat.Rotate(f.offset)
	worldAngVel := b.quat.Rotate(b.angVel)
	worldLinVel := b.quat.Rotate(b.linVel)
	v := worldLinVel.Add(worldAngVel.Cross(worldOffset))
	return [3]float64{v.X(), v.Y(), v.Z()}
}

// RNEA returns the spatial force (world-referenced, linear then angular)
// required to realize the requested body-frame acceleration a=[dv, dw],
// via Newton-Euler for a single rigid body: f = m*dv - m*g (D'Alembert),
// and tau = I*dw + w x (I*w) for the rotational half (Euler's equation).
func (b *FreeBody) RNEA(q, v, a []float64) []float64 {
	dv := mgl64.Vec3{a[0], a[1], a[2]}
	dw := mgl64.Vec3{a[3], a[4], a[5]}
	w := mgl64.Vec3{v[3], v[4], v[5]}
	g := mgl64.Vec3{b.gravity[0], b.gravity[1], b.gravity[2]}

	f := dv.Sub(g).Mul(b.mass)
	Iw := b.inertia.Mul3x1(w)
	tau := b.inertia.Mul3x1(dw).Add(w.Cross(Iw))

	return []float64{f.X(), f.Y(), f.Z(), tau.X(), tau.Y(), tau.Z()}
}

// ABA solves Euler's equations for acceleration given an applied spatial
// force tau=[f,m] and an optional external wrench at the body frame's
// origin: dv = f/m + g, dw = I^-1 * (m - w x (I*w)).
func (b *FreeBody) ABA(q, v, tau []float64, fExt []Wrench) []float64 {
	f := mgl64.Vec3{tau[0], tau[1], tau[2]}
	m := mgl64.Vec3{tau[3], tau[4], tau[5]}
	for _, ext := range fExt {
		f = f.Add(mgl64.Vec3{ext[0], ext[1], ext[2]})
		m = m.Add(mgl64.Vec3{ext[3], ext[4], ext[5]})
	}
	w := mgl64.Vec3{v[3], v[4], v[5]}
	g := mgl64.Vec3{b.gravity[0], b.gravity[1], b.gravity[2]}

	dv := f.Mul(1 / b.mass).Add(g)
	Iw := b.inertia.Mul3x1(w)
	dw := b.invI.Mul3x1(m.Sub(w.Cross(Iw)))

	return []float64{dv.X(), dv.Y(), dv.Z(), dw.X(), dw.Y(), dw.Z()}
}

// Integrate retracts the configuration manifold: position advances by the
// ordinary integral of linear velocity, while the quaternion advances by a
// finite increment built from the angular-velocity-scaled pure-vector
// quaternion exponential, then is renormalized. This is the unit-norm
// preserving retraction that a naive per-component dq/dt=v would violate.
func (b *FreeBody) Integrate(q []float64, vTimesDt []float64) []float64 {
	pos := mgl64.Vec3{q[0], q[1], q[2]}
	dPos := mgl64.Vec3{vTimesDt[0], vTimesDt[1], vTimesDt[2]}
	newPos := pos.Add(dPos)

	quat := mgl64.Quat{W: q[3], V: mgl64.Vec3{q[4], q[5], q[6]}}
	omega := mgl64.Vec3{vTimesDt[3], vTimesDt[4], vTimesDt[5]}
	dq := quatExp(omega)
	newQuat := quat.Mul(dq).Normalize()

	return []float64{
		newPos.X(), newPos.Y(), newPos.Z(),
		newQuat.W, newQuat.V.X(), newQuat.V.Y(), newQuat.V.Z(),
	}
}

// quatExp builds the unit quaternion corresponding to a rotation vector
// (axis scaled by angle), the standard so(3) -> SO(3) exponential used to
// turn an angular-velocity*dt increment into a multiplicative update.
func quatExp(omega mgl64.Vec3) mgl64.Quat {
	theta := omega.Len()
	if theta < 1e-12 {
		return mgl64.Quat{W: 1, V: omega.Mul(0.5)}.Normalize()
	}
	half := theta / 2
	axis := omega.Mul(1 / theta)
	return mgl64.Quat{W: math.Cos(half), V: axis.Mul(math.Sin(half))}
}

func (b *FreeBody) KineticEnergy(q, v []float64) float64 {
	b.ForwardKinematics(q, v)
	linear := 0.5 * b.mass * b.linVel.Dot(b.linVel)
	Iw := b.inertia.Mul3x1(b.angVel)
	angular := 0.5 * b.angVel.Dot(Iw)
	return linear + angular
}

func (b *FreeBody) PotentialEnergy(q []float64) float64 {
	pos := mgl64.Vec3{q[0], q[1], q[2]}
	g := mgl64.Vec3{b.gravity[0], b.gravity[1], b.gravity[2]}
	gmag := g.Len()
	if gmag == 0 {
		return 0
	}
	up := g.Mul(-1 / gmag)
	height := pos.Dot(up)
	return b.mass * gmag * height
}

// quatToMat3 expands a unit quaternion into its equivalent rotation matrix.
func quatToMat3(q mgl64.Quat) [3][3]float64 {
	w, x, y, z := q.W, q.V.X(), q.V.Y(), q.V.Z()
	return [3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
	}
}
