//go:build linux && (arm || arm64) && !disablegpio

// This file provides the Raspberry Pi implementation of the HAL using the
// periph.io library.  When cross-compiling for other platforms or when the
// build tag "disablegpio" is specified, hal_stub.go is used instead and only
// the simulator is available.

package main

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/mfrc522"
	"periph.io/x/host/v3"
)

// rfidReader adapts the MFRC522 driver to TagReader.
type rfidReader struct {
	dev     *mfrc522.Dev
	timeout time.Duration
}

// ReadUID waits up to the configured timeout for a card.  The driver reports
// an empty field as an error, which is mapped to "no card".
func (r *rfidReader) ReadUID() ([]byte, error) {
	uid, err := r.dev.ReadUID(r.timeout)
	if err != nil {
		return nil, nil
	}
	return uid, nil
}

func (r *rfidReader) Halt() error {
	return r.dev.Halt()
}

// openHardware initialises periph host state and opens every peripheral
// named in the hardware configuration.
func openHardware(hc HardwareConfig, readTimeout time.Duration) (*Hardware, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	hw := &Hardware{}

	pin := func(name string) (gpio.PinIO, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("gpio pin %q not found", name)
		}
		return p, nil
	}

	port, err := spireg.Open(hc.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", hc.SPIPort, err)
	}
	hw.closers = append(hw.closers, port)
	reset, err := pin(hc.ReaderResetPin)
	if err != nil {
		hw.Close()
		return nil, err
	}
	irq, err := pin(hc.ReaderIRQPin)
	if err != nil {
		hw.Close()
		return nil, err
	}
	dev, err := mfrc522.NewSPI(port, reset, irq)
	if err != nil {
		hw.Close()
		return nil, fmt.Errorf("mfrc522: %w", err)
	}
	hw.Reader = &rfidReader{dev: dev, timeout: readTimeout}

	bus, err := i2creg.Open(hc.I2CBus)
	if err != nil {
		hw.Close()
		return nil, fmt.Errorf("open i2c bus %q: %w", hc.I2CBus, err)
	}
	hw.closers = append(hw.closers, bus)
	display := newLCD(&i2c.Dev{Bus: bus, Addr: hc.LCDAddress}, hc.LCDColumns, hc.LCDRows)
	if err := display.Init(); err != nil {
		hw.Close()
		return nil, err
	}
	hw.Display = display

	green, err := pin(hc.GreenLEDPin)
	if err != nil {
		hw.Close()
		return nil, err
	}
	red, err := pin(hc.RedLEDPin)
	if err != nil {
		hw.Close()
		return nil, err
	}
	servo, err := pin(hc.ServoPin)
	if err != nil {
		hw.Close()
		return nil, err
	}
	btn, err := pin(hc.ButtonPin)
	if err != nil {
		hw.Close()
		return nil, err
	}
	button, err := openButton(btn, hc.ButtonActiveLow)
	if err != nil {
		hw.Close()
		return nil, err
	}
	hw.Green = ledPin{pin: green}
	hw.Red = ledPin{pin: red}
	hw.Gate = servoPin{pin: servo}
	hw.Button = button
	return hw, nil
}
