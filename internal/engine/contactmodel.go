package engine

import (
	"math"

	"github.com/san-kum/dynsim/internal/rbd"
)

// HeightMap supplies the ground height and outward normal under a world-
// frame XY position, letting a non-flat map be substituted without
// touching ContactModel. FlatGround implements z=0.
type HeightMap interface {
	HeightAndNormal(x, y float64) (height float64, normal [3]float64)
}

type FlatGround struct{}

func (FlatGround) HeightAndNormal(x, y float64) (float64, [3]float64) {
	return 0, [3]float64{0, 0, 1}
}

// ContactModel computes a per-contact-frame compliant ground reaction
// wrench, expressed in the contact frame's parent joint frame, following
// spec.md §4.1: a stiffness/damping normal force, a velocity-regularized
// dry/viscous friction blend in the tangent plane, and a tanh smoothing
// factor that ramps the whole wrench in over the first ε_t of penetration
// to avoid step-rejection storms at contact onset.
type ContactModel struct {
	Ground HeightMap
	Opts   ContactOptions
}

func NewContactModel(opts ContactOptions) *ContactModel {
	return &ContactModel{Ground: FlatGround{}, Opts: opts}
}

// Wrench returns the contact wrench for frame frameIdx, zero if the frame is
// above ground, expressed in the frame's parent joint.
func (c *ContactModel) Wrench(m rbd.Model, frameIdx int) rbd.Wrench {
	placement := m.FramePlacement(frameIdx)
	height, normal := c.Ground.HeightAndNormal(placement.Position[0], placement.Position[1])
	z := placement.Position[2] - height
	if z >= 0 {
		return rbd.Wrench{}
	}

	vWorld := m.FrameLinearVelocityWorld(frameIdx)
	vz := vWorld[0]*normal[0] + vWorld[1]*normal[1] + vWorld[2]*normal[2]

	k, cDamp := c.Opts.Stiffness, c.Opts.Damping
	fN := -k * z
	if vz < 0 {
		fN += -cDamp * vz
	}
	if fN < 0 {
		fN = 0
	}

	vTx, vTy := vWorld[0]-vz*normal[0], vWorld[1]-vz*normal[1]
	vT := math.Hypot(vTx, vTy)

	mu := frictionCoefficient(vT, c.Opts.FrictionDry, c.Opts.FrictionViscous, c.Opts.DryFrictionVelEps)

	fTx := clamp(-vTx*mu*fN, -1e5, 1e5)
	fTy := clamp(-vTy*mu*fN, -1e5, 1e5)

	worldForce := [3]float64{
		fTx + fN*normal[0],
		fTy + fN*normal[1],
		fN * normal[2],
	}

	rot := m.FrameRotationParentJoint(frameIdx)
	offset := m.FrameOffsetInParentJoint(frameIdx)
	w := rbd.Wrench{worldForce[0], worldForce[1], worldForce[2], 0, 0, 0}
	w = rotateWrench(rot, w)
	w = addLeverArmMoment(w, offset)

	blend := math.Tanh(2 * (-z) / c.Opts.TransitionEps)
	return w.Scale(blend)
}

// frictionCoefficient blends dry and viscous friction across a small
// velocity window to keep the contact law Lipschitz near vT=0.
func frictionCoefficient(vT, muD, muV, eps float64) float64 {
	switch {
	case vT <= eps:
		return vT * muD / eps
	case vT <= 1.5*eps:
		return -2*vT*(muD-muV)/eps + 3*muD - 2*muV
	default:
		return muV
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
