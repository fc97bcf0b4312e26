// Package sensors provides concrete rbd.Sensor implementations: Encoder
// (joint position/velocity read-back) and IMU (linear acceleration and
// angular rate at a frame), registered on a model's sensor registry via
// Model.AddSensor.
package sensors
