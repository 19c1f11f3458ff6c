package main

// Drivers for the gate peripherals written against periph.io conn interfaces.
// They only need a gpio pin or an I2C connection, so they build on every
// platform and are exercised in tests with periph's gpiotest and i2ctest fakes.

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// ledPin drives an LED on a GPIO output.
type ledPin struct {
	pin gpio.PinOut
}

func (l ledPin) Set(on bool) error {
	if on {
		return l.pin.Out(gpio.High)
	}
	return l.pin.Out(gpio.Low)
}

// Hobby servos expect a 50Hz frame with a pulse between 0.5ms (0 degrees) and
// 2.5ms (180 degrees).
const (
	servoFrequency  = 50 * physic.Hertz
	servoPeriod     = 20 * time.Millisecond
	servoMinPulse   = 500 * time.Microsecond
	servoMaxPulse   = 2500 * time.Microsecond
	servoRangeAngle = 180
)

// servoPin positions a servo through PWM on a GPIO pin.
type servoPin struct {
	pin gpio.PinOut
}

func (s servoPin) MoveTo(angle int) error {
	if angle < 0 || angle > servoRangeAngle {
		return fmt.Errorf("servo angle %d out of range 0..%d", angle, servoRangeAngle)
	}
	return s.pin.PWM(servoDuty(angle), servoFrequency)
}

// servoDuty converts an angle into the PWM duty cycle of a 50Hz frame.
func servoDuty(angle int) gpio.Duty {
	pulse := servoMinPulse + time.Duration(angle)*(servoMaxPulse-servoMinPulse)/servoRangeAngle
	return gpio.Duty(int64(gpio.DutyMax) * int64(pulse) / int64(servoPeriod))
}

// buttonPin reads the mode button.  The pull-up is enabled when the pin is
// opened, see openButton.
type buttonPin struct {
	pin       gpio.PinIn
	activeLow bool
}

func (b buttonPin) Pressed() bool {
	return buttonAsserted(b.pin.Read(), b.activeLow)
}

func openButton(pin gpio.PinIn, activeLow bool) (buttonPin, error) {
	pull := gpio.PullUp
	if !activeLow {
		pull = gpio.PullDown
	}
	if err := pin.In(pull, gpio.NoEdge); err != nil {
		return buttonPin{}, fmt.Errorf("button %s: %w", pin, err)
	}
	return buttonPin{pin: pin, activeLow: activeLow}, nil
}

// PCF8574 backpack bit assignment for an HD44780 character LCD.
const (
	lcdRS        byte = 0x01
	lcdEnable    byte = 0x04
	lcdBacklight byte = 0x08

	lcdCmdClear       byte = 0x01
	lcdCmdEntryMode   byte = 0x06 // increment, no shift
	lcdCmdDisplayOn   byte = 0x0C // display on, cursor off, blink off
	lcdCmdFunction4x2 byte = 0x28 // 4-bit bus, 2 lines, 5x8 font
	lcdCmdSetDDRAM    byte = 0x80
)

var lcdRowOffsets = [...]byte{0x00, 0x40, 0x14, 0x54}

// lcd is an HD44780 display behind a PCF8574 I2C expander, the common
// "LCD1602 I2C" module.
type lcd struct {
	c    conn.Conn
	cols int
	rows int
	col  int

	// sleep is replaced in tests.
	sleep func(time.Duration)
}

func newLCD(c conn.Conn, cols, rows int) *lcd {
	return &lcd{c: c, cols: cols, rows: rows, sleep: time.Sleep}
}

// Init puts the controller into 4-bit mode from any state, then clears the
// display and switches it on.
func (d *lcd) Init() error {
	d.sleep(50 * time.Millisecond)
	for _, wait := range []time.Duration{4500 * time.Microsecond, 4500 * time.Microsecond, 150 * time.Microsecond} {
		if err := d.writeNibble(0x30); err != nil {
			return fmt.Errorf("lcd init: %w", err)
		}
		d.sleep(wait)
	}
	if err := d.writeNibble(0x20); err != nil {
		return fmt.Errorf("lcd init: %w", err)
	}
	for _, cmd := range []byte{lcdCmdFunction4x2, lcdCmdDisplayOn, lcdCmdEntryMode} {
		if err := d.command(cmd); err != nil {
			return fmt.Errorf("lcd init: %w", err)
		}
	}
	return d.Clear()
}

func (d *lcd) Clear() error {
	if err := d.command(lcdCmdClear); err != nil {
		return err
	}
	d.col = 0
	d.sleep(2 * time.Millisecond)
	return nil
}

func (d *lcd) SetCursor(col, row int) error {
	if row < 0 || row >= d.rows || row >= len(lcdRowOffsets) || col < 0 || col >= d.cols {
		return fmt.Errorf("lcd cursor %d,%d outside %dx%d", col, row, d.cols, d.rows)
	}
	d.col = col
	return d.command(lcdCmdSetDDRAM | (byte(col) + lcdRowOffsets[row]))
}

// Print writes text at the cursor.  Characters past the right edge are
// dropped and anything outside printable ASCII is shown as '?'.
func (d *lcd) Print(text string) error {
	for _, r := range text {
		if d.col >= d.cols {
			return nil
		}
		ch := byte('?')
		if r >= 0x20 && r < 0x7F {
			ch = byte(r)
		}
		if err := d.send(ch, lcdRS); err != nil {
			return err
		}
		d.col++
	}
	return nil
}

func (d *lcd) command(cmd byte) error {
	return d.send(cmd, 0)
}

func (d *lcd) send(value, mode byte) error {
	if err := d.writeNibble(value&0xF0 | mode); err != nil {
		return err
	}
	return d.writeNibble(value<<4 | mode)
}

// writeNibble latches the upper four bits by pulsing the enable line.  Both
// edges go out in one I2C transfer.
func (d *lcd) writeNibble(b byte) error {
	b |= lcdBacklight
	return d.c.Tx([]byte{b | lcdEnable, b &^ lcdEnable}, nil)
}
