package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	testingclock "k8s.io/utils/clock/testing"
)

// scripted returns a console whose input has already been read.
func scripted(lines ...string) *simConsole {
	ch := make(chan string, len(lines))
	for _, l := range lines {
		ch <- l
	}
	close(ch)
	return &simConsole{lines: ch, log: zap.NewNop()}
}

func TestSimConsole(t *testing.T) {
	s := scripted("press", "aabbccdd", "nonsense", "12345678")

	if uid, _ := s.ReadUID(); uid != nil {
		t.Errorf("ReadUID consumed a button press: %x", uid)
	}
	if !s.Pressed() {
		t.Fatal("press not seen")
	}
	if s.Pressed() {
		t.Error("press seen twice")
	}
	uid, err := s.ReadUID()
	if err != nil || !bytes.Equal(uid, []byte{0xAA, 0xBB, 0xCC, 0xDD}) {
		t.Errorf("ReadUID = %x, %v", uid, err)
	}
	if uid, _ := s.ReadUID(); uid != nil {
		t.Errorf("invalid line read as %x", uid)
	}
	if uid, _ := s.ReadUID(); !bytes.Equal(uid, []byte{0x12, 0x34, 0x56, 0x78}) {
		t.Errorf("ReadUID = %x", uid)
	}
	if uid, _ := s.ReadUID(); uid != nil {
		t.Errorf("ReadUID after end of input = %x", uid)
	}
}

func TestSimDisplay(t *testing.T) {
	d := newSimDisplay(16, 2, zap.NewNop())
	if err := screenDenied(ErrInsufficientBalance).render(d); err != nil {
		t.Fatal(err)
	}
	if got := string(d.rows[0]); got != "Access Denied   " {
		t.Errorf("row 0 = %q", got)
	}
	if got := string(d.rows[1]); got != "Insufficient Bal" {
		t.Errorf("row 1 = %q", got)
	}
}

func TestSimulatorDrivesController(t *testing.T) {
	hc := DefaultConfig().Hardware
	hw := newSimHardware(strings.NewReader("12345678\n"), hc, zap.NewNop())
	roster, _ := NewRoster(vehicle(t, "12345678", "150"))
	c := NewController(testSettings(), roster, hw, testingclock.NewFakeClock(time.Now()), zap.NewNop())
	c.Start()

	// The scanner goroutine delivers the line asynchronously.
	deadline := time.Now().Add(time.Second)
	for {
		res := c.PollInputs(context.Background())
		if res.Outcome == OutcomeGranted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("scripted tag never reached the controller")
		}
		time.Sleep(time.Millisecond)
	}
	rec, _ := roster.Get(0)
	if !rec.Balance.Equal(decimal.NewFromInt(50)) {
		t.Errorf("balance = %s, want 50", rec.Balance)
	}
}
