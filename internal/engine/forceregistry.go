package engine

import (
	"fmt"

	"github.com/san-kum/dynsim/internal/rbd"
)

// ForceSource is the tagged-union member of a ForceRegistry entry: either an
// impulse active over a fixed window, or a time-varying profile active for
// all t. Both variants are evaluated on every RHS call (the Open Question in
// spec.md §9 resolved this way, documented in DESIGN.md).
type ForceSource interface {
	frameIndex() int
	evaluate(t float64, x []float64) (rbd.Wrench, bool)
}

type impulseSource struct {
	frame      int
	t0, dur    float64
	wrench     rbd.Wrench
}

func (s *impulseSource) frameIndex() int { return s.frame }

func (s *impulseSource) evaluate(t float64, _ []float64) (rbd.Wrench, bool) {
	if t < s.t0 || t >= s.t0+s.dur {
		return rbd.Wrench{}, false
	}
	return s.wrench, true
}

type ProfileFunc func(t float64, x []float64) [3]float64

type profileSource struct {
	frame int
	f     ProfileFunc
}

func (s *profileSource) frameIndex() int { return s.frame }

func (s *profileSource) evaluate(t float64, x []float64) (rbd.Wrench, bool) {
	lin := s.f(t, x)
	return rbd.Wrench{lin[0], lin[1], lin[2], 0, 0, 0}, true
}

// ForceRegistry holds external impulses and time-varying force profiles
// applied at named frames, registered in order and evaluated in that same
// order on every RHS call.
type ForceRegistry struct {
	model   rbd.Model
	sources []ForceSource
}

func NewForceRegistry(m rbd.Model) *ForceRegistry {
	return &ForceRegistry{model: m}
}

// RegisterImpulse validates frameIdx against the model's frame count and
// appends an impulse source, per spec.md §4.6/§7's requirement that an
// unknown frame fail registration with a bad-input error rather than panic
// later inside Accumulate.
func (r *ForceRegistry) RegisterImpulse(frameIdx int, t0, duration float64, wrench rbd.Wrench) error {
	if err := r.checkFrame(frameIdx); err != nil {
		return err
	}
	r.sources = append(r.sources, &impulseSource{frame: frameIdx, t0: t0, dur: duration, wrench: wrench})
	return nil
}

func (r *ForceRegistry) RegisterProfile(frameIdx int, f ProfileFunc) error {
	if err := r.checkFrame(frameIdx); err != nil {
		return err
	}
	r.sources = append(r.sources, &profileSource{frame: frameIdx, f: f})
	return nil
}

func (r *ForceRegistry) checkFrame(frameIdx int) error {
	if frameIdx < 0 || frameIdx >= r.model.NumFrames() {
		return errBadInput(fmt.Sprintf("force registration references unknown frame index %d (model has %d frames)", frameIdx, r.model.NumFrames()))
	}
	return nil
}

func (r *ForceRegistry) Clear() {
	r.sources = nil
}

// Accumulate evaluates every registered source at (t, x) and adds each
// active wrench, rotated into its contact frame's parent-joint frame and
// corrected for the frame's lever arm about that joint, into fExternal
// indexed by parent joint.
func (r *ForceRegistry) Accumulate(t float64, x []float64, fExternal []rbd.Wrench) {
	for _, src := range r.sources {
		w, active := src.evaluate(t, x)
		if !active {
			continue
		}
		frameIdx := src.frameIndex()
		joint := r.model.ParentJoint(frameIdx)
		rot := r.model.FrameRotationParentJoint(frameIdx)
		offset := r.model.FrameOffsetInParentJoint(frameIdx)

		rotated := rotateWrench(rot, w)
		withLeverArm := addLeverArmMoment(rotated, offset)

		fExternal[joint] = fExternal[joint].Add(withLeverArm)
	}
}

func rotateWrench(rot [3][3]float64, w rbd.Wrench) rbd.Wrench {
	f := [3]float64{w[0], w[1], w[2]}
	m := [3]float64{w[3], w[4], w[5]}
	return rbd.Wrench{
		rot[0][0]*f[0] + rot[0][1]*f[1] + rot[0][2]*f[2],
		rot[1][0]*f[0] + rot[1][1]*f[1] + rot[1][2]*f[2],
		rot[2][0]*f[0] + rot[2][1]*f[1] + rot[2][2]*f[2],
		rot[0][0]*m[0] + rot[0][1]*m[1] + rot[0][2]*m[2],
		rot[1][0]*m[0] + rot[1][1]*m[1] + rot[1][2]*m[2],
		rot[2][0]*m[0] + rot[2][1]*m[1] + rot[2][2]*m[2],
	}
}

// addLeverArmMoment adds r x f to a wrench's moment block, where r is the
// frame's offset within its parent joint.
func addLeverArmMoment(w rbd.Wrench, r [3]float64) rbd.Wrench {
	f := [3]float64{w[0], w[1], w[2]}
	cross := [3]float64{
		r[1]*f[2] - r[2]*f[1],
		r[2]*f[0] - r[0]*f[2],
		r[0]*f[1] - r[1]*f[0],
	}
	out := w
	out[3] += cross[0]
	out[4] += cross[1]
	out[5] += cross[2]
	return out
}
