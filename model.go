package main

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TagID is the 4-byte identifier read from a proximity credential.  Tags are
// compared by exact byte equality.
type TagID [4]byte

// String renders the tag as upper-case hex, e.g. "AABBCCDD".
func (t TagID) String() string {
	return strings.ToUpper(hex.EncodeToString(t[:]))
}

// ParseTagID parses 8 hex digits into a tag.  Separators (":" or "-" or
// spaces) between bytes are accepted so that "AA:BB:CC:DD" also works.
func ParseTagID(s string) (TagID, error) {
	var t TagID
	clean := strings.NewReplacer(":", "", "-", "", " ", "").Replace(strings.TrimSpace(s))
	if len(clean) != 2*len(t) {
		return t, fmt.Errorf("tag %q: want %d hex digits", s, 2*len(t))
	}
	if _, err := hex.Decode(t[:], []byte(clean)); err != nil {
		return t, fmt.Errorf("tag %q: %w", s, err)
	}
	return t, nil
}

// tagFromUID converts a card UID into a tag.  Cards with 7 or 10 byte UIDs
// are identified by their first four bytes.
func tagFromUID(uid []byte) (TagID, bool) {
	var t TagID
	if len(uid) < len(t) {
		return t, false
	}
	copy(t[:], uid)
	return t, true
}

// VehicleRecord is one roster entry.  Balance is kept in fixed point so that
// repeated toll deductions never drift.
type VehicleRecord struct {
	Tag         TagID
	Balance     decimal.Decimal
	Blacklisted bool
}

// VehicleSeed is the configuration form of a VehicleRecord.
type VehicleSeed struct {
	Tag         string `yaml:"tag" mapstructure:"tag"`
	Balance     string `yaml:"balance" mapstructure:"balance"`
	Blacklisted bool   `yaml:"blacklisted,omitempty" mapstructure:"blacklisted"`
}

// HardwareConfig names the peripherals.  Pin names follow the periph.io
// registry (BCM numbering, e.g. "GPIO17").  Empty bus names select the first
// bus found.
type HardwareConfig struct {
	SPIPort          string `yaml:"spi_port" mapstructure:"spi_port"`
	ReaderResetPin   string `yaml:"reader_reset_pin" mapstructure:"reader_reset_pin"`
	ReaderIRQPin     string `yaml:"reader_irq_pin" mapstructure:"reader_irq_pin"`
	I2CBus           string `yaml:"i2c_bus" mapstructure:"i2c_bus"`
	LCDAddress       uint16 `yaml:"lcd_address" mapstructure:"lcd_address"`
	LCDColumns       int    `yaml:"lcd_columns" mapstructure:"lcd_columns"`
	LCDRows          int    `yaml:"lcd_rows" mapstructure:"lcd_rows"`
	GreenLEDPin      string `yaml:"green_led_pin" mapstructure:"green_led_pin"`
	RedLEDPin        string `yaml:"red_led_pin" mapstructure:"red_led_pin"`
	ServoPin         string `yaml:"servo_pin" mapstructure:"servo_pin"`
	ServoOpenAngle   int    `yaml:"servo_open_angle" mapstructure:"servo_open_angle"`
	ServoClosedAngle int    `yaml:"servo_closed_angle" mapstructure:"servo_closed_angle"`
	ButtonPin        string `yaml:"button_pin" mapstructure:"button_pin"`
	ButtonActiveLow  bool   `yaml:"button_active_low" mapstructure:"button_active_low"`
}

// TimingConfig holds the poll interval and how long each screen is held.
// Inputs are not observed while a screen is held.
type TimingConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	GateHold     time.Duration `yaml:"gate_hold" mapstructure:"gate_hold"`
	DenyHold     time.Duration `yaml:"deny_hold" mapstructure:"deny_hold"`
	NoticeHold   time.Duration `yaml:"notice_hold" mapstructure:"notice_hold"`
	RegisterHold time.Duration `yaml:"register_hold" mapstructure:"register_hold"`
}

// TariffConfig holds monetary amounts as decimal strings ("100.00").
type TariffConfig struct {
	Toll           string `yaml:"toll" mapstructure:"toll"`
	DefaultBalance string `yaml:"default_balance" mapstructure:"default_balance"`
}

// PolicyConfig switches optional access rules.
type PolicyConfig struct {
	// EnforceBlacklist denies blacklisted vehicles even when their balance
	// covers the toll.  Off by default: the flag is carried but not acted on.
	EnforceBlacklist bool `yaml:"enforce_blacklist" mapstructure:"enforce_blacklist"`
}

// Config is the top-level structure serialized to the configuration file.
// Roster entries listed here seed the in-memory roster at every start; the
// roster itself is never written back.
type Config struct {
	Hardware    HardwareConfig `yaml:"hardware" mapstructure:"hardware"`
	Timing      TimingConfig   `yaml:"timing" mapstructure:"timing"`
	Tariff      TariffConfig   `yaml:"tariff" mapstructure:"tariff"`
	Policy      PolicyConfig   `yaml:"policy" mapstructure:"policy"`
	Roster      []VehicleSeed  `yaml:"roster" mapstructure:"roster"`
	LogFile     string         `yaml:"log_file" mapstructure:"log_file"`
	MetricsFile string         `yaml:"metrics_file" mapstructure:"metrics_file"`
}

// Tariff is the parsed form of TariffConfig.
type Tariff struct {
	Toll           decimal.Decimal
	DefaultBalance decimal.Decimal
}
