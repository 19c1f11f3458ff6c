//go:build !linux || !(arm || arm64) || disablegpio

package main

import (
	"errors"
	"time"
)

// openHardware is unavailable off the Pi.  Run with --simulate instead.
func openHardware(HardwareConfig, time.Duration) (*Hardware, error) {
	return nil, errors.New("gpio hardware is not available in this build, run with --simulate")
}
