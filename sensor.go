package main

import "periph.io/x/conn/v3/gpio"

// buttonAsserted interprets the raw level of the mode button.  The button is
// wired to ground with the internal pull-up enabled, so a low level means the
// button is pressed.  Boards wired the other way set activeLow to false and
// a high level indicates a press.
func buttonAsserted(level gpio.Level, activeLow bool) bool {
	if activeLow {
		return level == gpio.Low
	}
	return level == gpio.High
}
