package main

import (
	"errors"

	"github.com/shopspring/decimal"
)

// screen is what the controller shows on the two-line display.
type screen struct {
	title  string
	detail string
}

var (
	screenIdle         = screen{"Vehicle Gate", "Scan RFID Card"}
	screenRegisterMode = screen{"Register Mode On", ""}
	screenRosterFull   = screen{"No Space for New", "Vehicle"}
)

func screenRegistered(balance decimal.Decimal) screen {
	return screen{"Tag Registered", "Balance: Rs." + balance.String()}
}

func screenGranted(balance decimal.Decimal) screen {
	return screen{"Access Granted", "Bal: Rs." + balance.StringFixed(2)}
}

func screenDenied(reason error) screen {
	return screen{"Access Denied", denyReason(reason)}
}

// denyReason is the second display line for a denial.  The LCD drops
// anything past the last column, so "Insufficient Bal." loses its period.
func denyReason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownTag):
		return "Unknown Vehicle"
	case errors.Is(err, ErrInsufficientBalance):
		return "Insufficient Bal."
	case errors.Is(err, ErrBlacklisted):
		return "Blacklisted"
	default:
		return "Error"
	}
}

// render clears the display and writes both lines.
func (s screen) render(d Display) error {
	if err := d.Clear(); err != nil {
		return err
	}
	if err := d.SetCursor(0, 0); err != nil {
		return err
	}
	if err := d.Print(s.title); err != nil {
		return err
	}
	if s.detail == "" {
		return nil
	}
	if err := d.SetCursor(0, 1); err != nil {
		return err
	}
	return d.Print(s.detail)
}
