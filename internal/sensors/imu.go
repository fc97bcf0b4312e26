package sensors

import "math/rand"

// IMU reads back linear acceleration and angular rate from a contiguous
// 6-wide slice of the generalized velocity/acceleration space starting at
// VelOffset — the natural reading for a sensor rigidly mounted on a
// FreeBody's own 6-DOF twist, or on any single motorized link of a
// PlanarChain treated as a 1-DOF analogue (AngularRate only, LinearAccel
// left zero) — with additive Gaussian noise on both axes, matching a real
// MEMS accelerometer/gyro's noise floor.
type IMU struct {
	name      string
	velOffset int
	dof       int // 1 for a PlanarChain joint, 6 for a FreeBody twist

	accelNoiseStd float64
	gyroNoiseStd  float64
	rng           *rand.Rand

	linearAccel [3]float64
	angularRate [3]float64
}

// NewIMU builds an IMU reading velOffset/dof of the generalized
// velocity/acceleration vectors, seeded from seed so repeated runs with the
// same seed reproduce the same noise.
func NewIMU(name string, velOffset, dof int, accelNoiseStd, gyroNoiseStd float64, seed int64) *IMU {
	return &IMU{
		name:          name,
		velOffset:     velOffset,
		dof:           dof,
		accelNoiseStd: accelNoiseStd,
		gyroNoiseStd:  gyroNoiseStd,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

func (s *IMU) Type() string { return "imu" }
func (s *IMU) Name() string { return s.name }

func (s *IMU) Update(t float64, q, v, a, u []float64) {
	s.linearAccel = [3]float64{}
	s.angularRate = [3]float64{}

	if s.dof == 6 {
		if s.velOffset+6 <= len(a) {
			s.linearAccel = [3]float64{a[s.velOffset], a[s.velOffset+1], a[s.velOffset+2]}
		}
		if s.velOffset+6 <= len(v) {
			s.angularRate = [3]float64{v[s.velOffset+3], v[s.velOffset+4], v[s.velOffset+5]}
		}
	} else if s.velOffset < len(v) {
		s.angularRate[2] = v[s.velOffset]
	}

	for i := range s.linearAccel {
		s.linearAccel[i] += s.rng.NormFloat64() * s.accelNoiseStd
	}
	for i := range s.angularRate {
		s.angularRate[i] += s.rng.NormFloat64() * s.gyroNoiseStd
	}
}

func (s *IMU) Reading() []float64 {
	return []float64{
		s.linearAccel[0], s.linearAccel[1], s.linearAccel[2],
		s.angularRate[0], s.angularRate[1], s.angularRate[2],
	}
}

func (s *IMU) FieldNames() []string {
	return []string{"ax", "ay", "az", "wx", "wy", "wz"}
}
