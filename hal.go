package main

// This file defines the hardware abstraction layer (HAL) the controller talks
// to.  The Raspberry Pi build (hal_rpi.go) backs it with periph.io drivers;
// hal_sim.go provides a console simulator so the controller can be run and
// tested on a desktop machine without any hardware attached.

import (
	"errors"
	"io"
)

// TagReader reads card UIDs.  ReadUID returns (nil, nil) when no card is in
// the field.  Halt ends the session with the card last read.
type TagReader interface {
	ReadUID() ([]byte, error)
	Halt() error
}

// Display is a character display addressed by column and row.
type Display interface {
	Clear() error
	SetCursor(col, row int) error
	Print(text string) error
}

// Indicator is a binary output such as an LED.
type Indicator interface {
	Set(on bool) error
}

// Actuator moves the gate arm to an angle in degrees.
type Actuator interface {
	MoveTo(angle int) error
}

// Button reports whether the mode button is currently asserted.
type Button interface {
	Pressed() bool
}

// Hardware bundles the peripherals of one gate.
type Hardware struct {
	Reader  TagReader
	Display Display
	Green   Indicator
	Red     Indicator
	Gate    Actuator
	Button  Button

	closers []io.Closer
}

// Close releases buses opened for the hardware.
func (h *Hardware) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
