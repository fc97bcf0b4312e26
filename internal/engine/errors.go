package engine

import (
	"errors"
	"fmt"
)

// Sentinel error kinds surfaced by the engine. Wrap with fmt.Errorf("%w: ...")
// so callers can errors.Is against the kind while still getting a readable
// message.
var (
	ErrInitFailed    = errors.New("engine: initialization failed")
	ErrBadInput      = errors.New("engine: bad input")
	ErrStepperFailed = errors.New("engine: stepper failed")
	ErrGeneric       = errors.New("engine: generic failure")
)

func errInit(detail string) error {
	return fmt.Errorf("%w: %s", ErrInitFailed, detail)
}

func errBadInput(detail string) error {
	return fmt.Errorf("%w: %s", ErrBadInput, detail)
}

func errStepper(detail string) error {
	return fmt.Errorf("%w: %s", ErrStepperFailed, detail)
}

func errGeneric(detail string) error {
	return fmt.Errorf("%w: %s", ErrGeneric, detail)
}
