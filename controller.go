package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"k8s.io/utils/clock"
)

// Settings are the parsed operating parameters of a Controller.
type Settings struct {
	Tariff           Tariff
	EnforceBlacklist bool
	Timing           TimingConfig
	OpenAngle        int
	ClosedAngle      int
}

// Outcome is the result of one controller step.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeGranted
	OutcomeDenied
	OutcomeRegistered
	OutcomeRosterFull
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGranted:
		return "granted"
	case OutcomeDenied:
		return "denied"
	case OutcomeRegistered:
		return "registered"
	case OutcomeRosterFull:
		return "roster_full"
	default:
		return "none"
	}
}

// Result reports what a scan led to.  Err carries the denial reason
// (ErrUnknownTag, ErrInsufficientBalance, ErrBlacklisted) or ErrRosterFull.
type Result struct {
	Outcome Outcome
	Tag     TagID
	Slot    int
	Balance decimal.Decimal
	Err     error
}

// hold is a screen or gate position that stays in place until a deadline.
// No input is read while a hold is pending.
type hold struct {
	until   time.Time
	release func(ctx context.Context)
}

// Controller is the gate access controller.  It owns the roster and the
// registration mode flag and is driven from a single goroutine: Run calls
// Tick on every poll interval, tests call Tick or OnTagScanned directly.
type Controller struct {
	settings Settings
	hw       *Hardware
	roster   *Roster
	gate     *Gate
	clock    clock.WithTicker
	log      *zap.Logger
	handlers []EventHandler

	registrationMode bool
	hold             *hold
}

// NewController wires a controller to its hardware.  The gate and display
// are not touched until Start or Run.
func NewController(s Settings, roster *Roster, hw *Hardware, clk clock.WithTicker, log *zap.Logger, handlers ...EventHandler) *Controller {
	return &Controller{
		settings: s,
		hw:       hw,
		roster:   roster,
		gate:     NewGate(hw.Gate, hw.Green, hw.Red, s.OpenAngle, s.ClosedAngle),
		clock:    clk,
		log:      log.Named("controller"),
		handlers: handlers,
	}
}

// Roster returns the controller's roster.
func (c *Controller) Roster() *Roster { return c.roster }

// Gate returns the gate state machine.
func (c *Controller) Gate() *Gate { return c.gate }

// RegistrationMode reports whether the next scan registers a tag.
func (c *Controller) RegistrationMode() bool { return c.registrationMode }

// Holding reports whether an output is being held and inputs are ignored.
func (c *Controller) Holding() bool { return c.hold != nil }

// Start closes the gate, switches the LEDs off and shows the welcome screen.
func (c *Controller) Start() {
	if err := c.gate.Reset(); err != nil {
		c.log.Error("Failed to reset gate", zap.Error(err))
	}
	c.showIdle()
}

// Run polls the inputs until ctx is cancelled.  On return the gate is closed
// and the display cleared.
func (c *Controller) Run(ctx context.Context) error {
	c.log.Info("Controller started",
		zap.Int("vehicles", c.roster.Len()),
		zap.String("toll", c.settings.Tariff.Toll.StringFixed(2)),
		zap.Duration("poll_interval", c.settings.Timing.PollInterval))
	c.Start()

	ticker := c.clock.NewTicker(c.settings.Timing.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case <-ticker.C():
			c.Tick(ctx)
		}
	}
}

func (c *Controller) shutdown() {
	c.hold = nil
	if err := c.gate.Reset(); err != nil {
		c.log.Error("Failed to reset gate", zap.Error(err))
	}
	if err := c.hw.Display.Clear(); err != nil {
		c.log.Error("Failed to clear display", zap.Error(err))
	}
	c.log.Info("Controller stopped")
}

// Tick runs one pass of the control loop: release an expired hold, then poll
// the inputs.  While a hold is pending nothing is read, so scans presented
// during that window are dropped.
func (c *Controller) Tick(ctx context.Context) Result {
	if c.hold != nil {
		if c.clock.Now().Before(c.hold.until) {
			return Result{Slot: -1}
		}
		h := c.hold
		c.hold = nil
		if h.release != nil {
			h.release(ctx)
		}
	}
	return c.PollInputs(ctx)
}

// PollInputs reads the mode button and then the tag reader.  A button press
// arms registration mode and shows a notice; the reader is polled again
// once the notice hold has passed.
func (c *Controller) PollInputs(ctx context.Context) Result {
	if c.hw.Button.Pressed() {
		c.registrationMode = true
		c.show(screenRegisterMode)
		c.emit(Event{Kind: EventRegistrationMode, Slot: -1})
		c.startHold(c.settings.Timing.NoticeHold, nil)
		return Result{Slot: -1}
	}

	uid, err := c.hw.Reader.ReadUID()
	if err != nil {
		c.log.Debug("Tag read failed", zap.Error(err))
		return Result{Slot: -1}
	}
	if uid == nil {
		return Result{Slot: -1}
	}
	tag, ok := tagFromUID(uid)
	if !ok {
		c.log.Warn("Ignoring short UID", zap.Binary("uid", uid))
		return Result{Slot: -1}
	}
	return c.OnTagScanned(ctx, tag)
}

// OnTagScanned handles a tag read.  In registration mode the tag is
// registered and the mode cleared whatever the outcome; otherwise access is
// evaluated.
func (c *Controller) OnTagScanned(ctx context.Context, tag TagID) Result {
	scan := uuid.New()
	if c.registrationMode {
		c.log.Info("Registering new tag", zap.Stringer("tag", tag), zap.Stringer("scan_id", scan))
		defer func() { c.registrationMode = false }()
		return c.registerTag(scan, tag)
	}
	c.log.Debug("Handling tag", zap.Stringer("tag", tag), zap.Stringer("scan_id", scan))
	return c.evaluateAccess(ctx, scan, tag)
}

func (c *Controller) registerTag(scan uuid.UUID, tag TagID) Result {
	if existing, ok := c.roster.Find(tag); ok {
		c.log.Warn("Tag already registered, adding another entry",
			zap.Stringer("tag", tag), zap.Int("existing_slot", existing))
	}

	balance := c.settings.Tariff.DefaultBalance
	slot, err := c.roster.Register(tag, balance)
	if err != nil {
		c.show(screenRosterFull)
		c.emit(Event{Kind: EventRosterFull, ScanID: scan, Tag: tag, Slot: -1, Reason: err})
		c.startHold(c.settings.Timing.RegisterHold, c.releaseToIdle)
		return Result{Outcome: OutcomeRosterFull, Tag: tag, Slot: -1, Err: err}
	}

	c.show(screenRegistered(balance))
	c.emit(Event{Kind: EventTagRegistered, ScanID: scan, Tag: tag, Slot: slot, Balance: balance})
	c.startHold(c.settings.Timing.RegisterHold, c.releaseToIdle)
	return Result{Outcome: OutcomeRegistered, Tag: tag, Slot: slot, Balance: balance}
}

func (c *Controller) evaluateAccess(ctx context.Context, scan uuid.UUID, tag TagID) Result {
	slot, ok := c.roster.Find(tag)
	if !ok {
		return c.denyAccess(scan, tag, -1, ErrUnknownTag)
	}
	rec, _ := c.roster.Get(slot)
	if c.settings.EnforceBlacklist && rec.Blacklisted {
		return c.denyAccess(scan, tag, slot, ErrBlacklisted)
	}
	rec, err := c.roster.Debit(slot, c.settings.Tariff.Toll)
	if err != nil {
		return c.denyAccess(scan, tag, slot, err)
	}
	return c.grantAccess(ctx, scan, slot, rec)
}

// grantAccess raises the gate and holds it open for the gate dwell time.
func (c *Controller) grantAccess(ctx context.Context, scan uuid.UUID, slot int, rec VehicleRecord) Result {
	c.show(screenGranted(rec.Balance))
	if err := c.gate.Raise(ctx); err != nil {
		c.log.Error("Failed to open gate", zap.Error(err))
	}
	c.emit(Event{
		Kind:    EventAccessGranted,
		ScanID:  scan,
		Tag:     rec.Tag,
		Slot:    slot,
		Balance: rec.Balance,
		Charged: c.settings.Tariff.Toll,
	})
	if err := c.hw.Reader.Halt(); err != nil {
		c.log.Debug("Failed to halt card", zap.Error(err))
	}

	c.startHold(c.settings.Timing.GateHold, func(ctx context.Context) {
		if err := c.gate.Lower(ctx); err != nil {
			c.log.Error("Failed to close gate", zap.Error(err))
		}
		c.emit(Event{Kind: EventGateClosed, ScanID: scan, Tag: rec.Tag, Slot: slot})
		c.showIdle()
	})
	return Result{Outcome: OutcomeGranted, Tag: rec.Tag, Slot: slot, Balance: rec.Balance}
}

// denyAccess lights the red LED and shows the reason for the deny hold.
// The roster is not touched.
func (c *Controller) denyAccess(scan uuid.UUID, tag TagID, slot int, reason error) Result {
	if err := c.hw.Red.Set(true); err != nil {
		c.log.Error("Failed to switch red LED on", zap.Error(err))
	}
	c.show(screenDenied(reason))

	ev := Event{Kind: EventAccessDenied, ScanID: scan, Tag: tag, Slot: slot, Reason: reason}
	res := Result{Outcome: OutcomeDenied, Tag: tag, Slot: slot, Err: reason}
	if rec, ok := c.roster.Get(slot); ok {
		ev.Balance = rec.Balance
		res.Balance = rec.Balance
	}
	c.emit(ev)

	c.startHold(c.settings.Timing.DenyHold, func(context.Context) {
		if err := c.hw.Red.Set(false); err != nil {
			c.log.Error("Failed to switch red LED off", zap.Error(err))
		}
		c.showIdle()
	})
	return res
}

func (c *Controller) startHold(d time.Duration, release func(ctx context.Context)) {
	c.hold = &hold{until: c.clock.Now().Add(d), release: release}
}

func (c *Controller) releaseToIdle(context.Context) {
	c.showIdle()
}

func (c *Controller) showIdle() {
	c.show(screenIdle)
	c.emit(Event{Kind: EventIdle, Slot: -1})
}

func (c *Controller) show(s screen) {
	if err := s.render(c.hw.Display); err != nil {
		c.log.Error("Failed to update display", zap.Error(err), zap.String("title", s.title))
	}
}

func (c *Controller) emit(ev Event) {
	ev.Time = c.clock.Now()
	ev.RosterSize = c.roster.Len()
	for _, h := range c.handlers {
		if err := h.Handle(ev); err != nil {
			c.log.Error("Event handler failed", zap.String("handler", h.Name()), zap.Error(err))
		}
	}
}
