package main

// This file defines the pluggable handlers that observe every user-visible
// transition of the controller.

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EventKind names a user-visible transition.
type EventKind string

const (
	EventIdle             EventKind = "idle"
	EventRegistrationMode EventKind = "registration_mode"
	EventAccessGranted    EventKind = "access_granted"
	EventAccessDenied     EventKind = "access_denied"
	EventTagRegistered    EventKind = "tag_registered"
	EventRosterFull       EventKind = "roster_full"
	EventGateClosed       EventKind = "gate_closed"
)

// Event describes one transition.  ScanID ties together the events caused by
// a single tag scan and is uuid.Nil otherwise.  Slot is -1 when no roster
// entry is involved.  Charged is the toll deducted by a granted access.
type Event struct {
	Kind       EventKind
	Time       time.Time
	ScanID     uuid.UUID
	Tag        TagID
	Slot       int
	Balance    decimal.Decimal
	Charged    decimal.Decimal
	Reason     error
	RosterSize int
}

// EventHandler receives every event.  If an error is returned the controller
// logs it and carries on.
type EventHandler interface {
	Name() string
	Handle(ev Event) error
}

// LogHandler mirrors events into the diagnostic log.
type LogHandler struct {
	log *zap.Logger
}

// NewLogHandler returns a handler writing to log.
func NewLogHandler(log *zap.Logger) LogHandler {
	return LogHandler{log: log.Named("events")}
}

// Name returns the type name of the handler.
func (LogHandler) Name() string { return "log" }

var eventMessages = map[EventKind]string{
	EventIdle:             "Welcome message displayed",
	EventRegistrationMode: "Register mode activated",
	EventAccessGranted:    "Access granted",
	EventAccessDenied:     "Access denied",
	EventTagRegistered:    "New tag registered",
	EventRosterFull:       "No space for new vehicle",
	EventGateClosed:       "Gate closed",
}

// Handle writes one line per event.
func (h LogHandler) Handle(ev Event) error {
	fields := []zap.Field{zap.String("event", string(ev.Kind))}
	if ev.ScanID != uuid.Nil {
		fields = append(fields, zap.Stringer("scan_id", ev.ScanID), zap.Stringer("tag", ev.Tag))
	}
	if ev.Slot >= 0 {
		fields = append(fields, zap.Int("slot", ev.Slot))
	}
	switch ev.Kind {
	case EventAccessGranted, EventTagRegistered:
		fields = append(fields, zap.String("balance", ev.Balance.StringFixed(2)))
	case EventAccessDenied, EventRosterFull:
		fields = append(fields, zap.NamedError("reason", ev.Reason))
	}

	msg, ok := eventMessages[ev.Kind]
	if !ok {
		msg = string(ev.Kind)
	}
	if ev.Kind == EventAccessDenied || ev.Kind == EventRosterFull {
		h.log.Warn(msg, fields...)
		return nil
	}
	h.log.Info(msg, fields...)
	return nil
}
