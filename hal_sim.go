package main

import (
	"bufio"
	"io"
	"strings"

	"go.uber.org/zap"
)

// simConsole turns a line-oriented script (usually stdin) into button presses
// and tag scans.  "press" asserts the mode button for one poll, a line of 8
// hex digits presents that tag, anything else is ignored.  Lines are read on
// a separate goroutine so an idle terminal never stalls the control loop.
type simConsole struct {
	lines   chan string
	pending string
	log     *zap.Logger
}

func newSimConsole(in io.Reader, log *zap.Logger) *simConsole {
	s := &simConsole{lines: make(chan string, 16), log: log}
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				s.lines <- line
			}
		}
		close(s.lines)
	}()
	return s
}

// peek returns the next unconsumed line without blocking.
func (s *simConsole) peek() string {
	if s.pending != "" {
		return s.pending
	}
	select {
	case line, ok := <-s.lines:
		if ok {
			s.pending = line
		}
	default:
	}
	return s.pending
}

func (s *simConsole) Pressed() bool {
	if strings.EqualFold(s.peek(), "press") {
		s.pending = ""
		return true
	}
	return false
}

func (s *simConsole) ReadUID() ([]byte, error) {
	line := s.peek()
	if line == "" || strings.EqualFold(line, "press") {
		return nil, nil
	}
	s.pending = ""
	tag, err := ParseTagID(line)
	if err != nil {
		s.log.Warn("Ignoring simulator input", zap.String("line", line), zap.Error(err))
		return nil, nil
	}
	return tag[:], nil
}

func (s *simConsole) Halt() error { return nil }

// simDisplay keeps a character buffer and logs every row it changes.
type simDisplay struct {
	rows     [][]byte
	col, row int
	log      *zap.Logger
}

func newSimDisplay(cols, rows int, log *zap.Logger) *simDisplay {
	d := &simDisplay{log: log, rows: make([][]byte, rows)}
	for i := range d.rows {
		d.rows[i] = []byte(strings.Repeat(" ", cols))
	}
	return d
}

func (d *simDisplay) Clear() error {
	for i := range d.rows {
		for j := range d.rows[i] {
			d.rows[i][j] = ' '
		}
	}
	d.col, d.row = 0, 0
	return nil
}

func (d *simDisplay) SetCursor(col, row int) error {
	d.col, d.row = col, row
	return nil
}

func (d *simDisplay) Print(text string) error {
	if d.row < 0 || d.row >= len(d.rows) {
		return nil
	}
	line := d.rows[d.row]
	for i := 0; i < len(text) && d.col < len(line); i++ {
		line[d.col] = text[i]
		d.col++
	}
	d.log.Info("lcd", zap.Int("row", d.row), zap.String("text", "|"+string(line)+"|"))
	return nil
}

type simIndicator struct {
	name string
	log  *zap.Logger
}

func (i simIndicator) Set(on bool) error {
	i.log.Debug("led", zap.String("led", i.name), zap.Bool("on", on))
	return nil
}

type simServo struct {
	log *zap.Logger
}

func (s simServo) MoveTo(angle int) error {
	s.log.Info("servo", zap.Int("angle", angle))
	return nil
}

// newSimHardware wires the simulator peripherals to a script and a logger.
func newSimHardware(in io.Reader, hc HardwareConfig, log *zap.Logger) *Hardware {
	log = log.Named("sim")
	console := newSimConsole(in, log)
	return &Hardware{
		Reader:  console,
		Button:  console,
		Display: newSimDisplay(hc.LCDColumns, hc.LCDRows, log),
		Green:   simIndicator{name: "green", log: log},
		Red:     simIndicator{name: "red", log: log},
		Gate:    simServo{log: log},
	}
}
