package main

import (
	"bytes"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestServoDuty(t *testing.T) {
	tests := []struct {
		angle int
		want  gpio.Duty
	}{
		{0, gpio.Duty(int64(gpio.DutyMax) / 40)},      // 0.5ms of 20ms
		{90, gpio.Duty(int64(gpio.DutyMax) * 3 / 40)}, // 1.5ms
		{180, gpio.DutyMax / 8},                       // 2.5ms
	}
	for _, tt := range tests {
		if got := servoDuty(tt.angle); got != tt.want {
			t.Errorf("servoDuty(%d) = %d, want %d", tt.angle, got, tt.want)
		}
	}
}

func TestServoPin(t *testing.T) {
	p := &gpiotest.Pin{N: "GPIO18", Num: 18}
	s := servoPin{pin: p}

	if err := s.MoveTo(90); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	if p.D != servoDuty(90) || p.F != servoFrequency {
		t.Errorf("pwm = %d @ %s, want %d @ %s", p.D, p.F, servoDuty(90), servoFrequency)
	}
	if err := s.MoveTo(181); err == nil {
		t.Error("MoveTo(181) succeeded")
	}
}

func TestLEDPin(t *testing.T) {
	p := &gpiotest.Pin{N: "GPIO17", Num: 17}
	led := ledPin{pin: p}

	if err := led.Set(true); err != nil {
		t.Fatal(err)
	}
	if p.Read() != gpio.High {
		t.Error("LED pin not high")
	}
	if err := led.Set(false); err != nil {
		t.Fatal(err)
	}
	if p.Read() != gpio.Low {
		t.Error("LED pin not low")
	}
}

func TestButtonPin(t *testing.T) {
	p := &gpiotest.Pin{N: "GPIO23", Num: 23, L: gpio.High}
	b, err := openButton(p, true)
	if err != nil {
		t.Fatalf("openButton: %v", err)
	}
	if p.P != gpio.PullUp {
		t.Errorf("pull = %s, want up", p.P)
	}
	if b.Pressed() {
		t.Error("released button reads as pressed")
	}
	p.L = gpio.Low
	if !b.Pressed() {
		t.Error("pressed button reads as released")
	}
}

func TestButtonAsserted(t *testing.T) {
	tests := []struct {
		level     gpio.Level
		activeLow bool
		want      bool
	}{
		{gpio.Low, true, true},
		{gpio.High, true, false},
		{gpio.High, false, true},
		{gpio.Low, false, false},
	}
	for _, tt := range tests {
		if got := buttonAsserted(tt.level, tt.activeLow); got != tt.want {
			t.Errorf("buttonAsserted(%s, %v) = %v", tt.level, tt.activeLow, got)
		}
	}
}

func newTestLCD() (*lcd, *i2ctest.Record) {
	bus := &i2ctest.Record{}
	d := newLCD(&i2c.Dev{Bus: bus, Addr: 0x27}, 16, 2)
	d.sleep = func(time.Duration) {}
	return d, bus
}

// lcdBytes returns what a byte written with the given mode puts on the bus.
func lcdBytes(value, mode byte) [][]byte {
	hi := value&0xF0 | mode | lcdBacklight
	lo := value<<4 | mode | lcdBacklight
	return [][]byte{{hi | lcdEnable, hi}, {lo | lcdEnable, lo}}
}

func writes(bus *i2ctest.Record) [][]byte {
	var out [][]byte
	for _, op := range bus.Ops {
		out = append(out, op.W)
	}
	return out
}

func equalWrites(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func TestLCDPrint(t *testing.T) {
	d, bus := newTestLCD()
	if err := d.Print("A"); err != nil {
		t.Fatal(err)
	}
	if want := lcdBytes('A', lcdRS); !equalWrites(writes(bus), want) {
		t.Errorf("writes = %x, want %x", writes(bus), want)
	}
	for _, op := range bus.Ops {
		if op.Addr != 0x27 {
			t.Errorf("write to address %#x", op.Addr)
		}
	}
}

func TestLCDPrintTruncatesAtRightEdge(t *testing.T) {
	d, bus := newTestLCD()
	if err := d.SetCursor(10, 0); err != nil {
		t.Fatal(err)
	}
	bus.Ops = nil
	if err := d.Print("Insufficient Bal."); err != nil {
		t.Fatal(err)
	}
	if got := len(bus.Ops); got != 6*2 {
		t.Errorf("%d nibble writes, want %d", got, 6*2)
	}
}

func TestLCDNonASCII(t *testing.T) {
	d, bus := newTestLCD()
	if err := d.Print("₹"); err != nil {
		t.Fatal(err)
	}
	if want := lcdBytes('?', lcdRS); !equalWrites(writes(bus), want) {
		t.Errorf("writes = %x, want %x", writes(bus), want)
	}
}

func TestLCDSetCursor(t *testing.T) {
	d, bus := newTestLCD()
	if err := d.SetCursor(0, 1); err != nil {
		t.Fatal(err)
	}
	if want := lcdBytes(0xC0, 0); !equalWrites(writes(bus), want) {
		t.Errorf("writes = %x, want %x", writes(bus), want)
	}
	for _, pos := range [][2]int{{16, 0}, {0, 2}, {-1, 0}} {
		if err := d.SetCursor(pos[0], pos[1]); err == nil {
			t.Errorf("SetCursor(%d, %d) succeeded", pos[0], pos[1])
		}
	}
}

func TestLCDInit(t *testing.T) {
	d, bus := newTestLCD()
	var slept time.Duration
	d.sleep = func(dur time.Duration) { slept += dur }
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	var want [][]byte
	for _, n := range []byte{0x30, 0x30, 0x30, 0x20} {
		b := n | lcdBacklight
		want = append(want, []byte{b | lcdEnable, b})
	}
	for _, cmd := range []byte{lcdCmdFunction4x2, lcdCmdDisplayOn, lcdCmdEntryMode, lcdCmdClear} {
		want = append(want, lcdBytes(cmd, 0)...)
	}
	if !equalWrites(writes(bus), want) {
		t.Errorf("init writes = %x, want %x", writes(bus), want)
	}
	if slept < 50*time.Millisecond {
		t.Errorf("slept %s during init, want at least 50ms", slept)
	}
}

func TestScreenRenderOnLCD(t *testing.T) {
	d, bus := newTestLCD()
	if err := screenIdle.render(d); err != nil {
		t.Fatal(err)
	}
	// clear, cursor, 12 chars, cursor, 14 chars; two nibbles each
	if got, want := len(bus.Ops), 2*(1+1+len("Vehicle Gate")+1+len("Scan RFID Card")); got != want {
		t.Errorf("%d writes, want %d", got, want)
	}
}
