package rbd

import "fmt"

func errDuplicateSensor(sensorType, name string) error {
	return fmt.Errorf("rbd: sensor %q of type %q already registered", name, sensorType)
}

func errUnknownSensor(sensorType, name string) error {
	return fmt.Errorf("rbd: sensor %q of type %q not registered", name, sensorType)
}

func errUnknownFrame(name string) error {
	return fmt.Errorf("rbd: unknown frame %q", name)
}
