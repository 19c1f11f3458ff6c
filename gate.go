package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
)

const (
	gateClosed = "closed"
	gateOpen   = "open"

	eventRaise = "raise"
	eventLower = "lower"
)

// Gate is the barrier arm together with the two indicator LEDs.  Raising it
// switches red off and green on; lowering it switches green off again.
type Gate struct {
	FSM *fsm.FSM

	servo      Actuator
	green, red Indicator
	openAngle  int
	closeAngle int
}

// NewGate returns a gate in the closed state.  Call Reset to bring the
// hardware in line with that state.
func NewGate(servo Actuator, green, red Indicator, openAngle, closeAngle int) *Gate {
	g := &Gate{
		servo:      servo,
		green:      green,
		red:        red,
		openAngle:  openAngle,
		closeAngle: closeAngle,
	}
	g.FSM = fsm.NewFSM(
		gateClosed,
		fsm.Events{
			{Name: eventRaise, Src: []string{gateClosed}, Dst: gateOpen},
			{Name: eventLower, Src: []string{gateOpen}, Dst: gateClosed},
		},
		fsm.Callbacks{
			"enter_" + gateOpen:   wrapEvent(g.enterOpen),
			"enter_" + gateClosed: wrapEvent(g.enterClosed),
		},
	)
	return g
}

// wrapEvent lets a callback report a failure through the event.
func wrapEvent(fn func(ctx context.Context, e *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, e *fsm.Event) {
		if err := fn(ctx, e); err != nil {
			e.Err = err
		}
	}
}

func (g *Gate) enterOpen(_ context.Context, _ *fsm.Event) error {
	return errors.Join(
		g.red.Set(false),
		g.green.Set(true),
		g.servo.MoveTo(g.openAngle),
	)
}

func (g *Gate) enterClosed(_ context.Context, _ *fsm.Event) error {
	return errors.Join(
		g.servo.MoveTo(g.closeAngle),
		g.green.Set(false),
	)
}

// Raise opens the gate.
func (g *Gate) Raise(ctx context.Context) error {
	if err := g.FSM.Event(ctx, eventRaise); err != nil {
		return fmt.Errorf("raise gate: %w", err)
	}
	return nil
}

// Lower closes the gate.
func (g *Gate) Lower(ctx context.Context) error {
	if err := g.FSM.Event(ctx, eventLower); err != nil {
		return fmt.Errorf("lower gate: %w", err)
	}
	return nil
}

// IsOpen reports whether the gate is raised.
func (g *Gate) IsOpen() bool {
	return g.FSM.Is(gateOpen)
}

// Reset drives the arm to the closed position and switches both LEDs off
// without going through the state machine.  Used at start-up and shutdown.
func (g *Gate) Reset() error {
	g.FSM.SetState(gateClosed)
	return errors.Join(
		g.servo.MoveTo(g.closeAngle),
		g.green.Set(false),
		g.red.Set(false),
	)
}
