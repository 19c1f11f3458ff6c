package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// defaultConfigPath is the default filename for the configuration.
const defaultConfigPath = "gatekeeper.yaml"

// envPrefix lets any setting be overridden from the environment, e.g.
// GATEKEEPER_POLICY_ENFORCE_BLACKLIST=true.
const envPrefix = "GATEKEEPER"

// DefaultConfig returns the configuration written on first start.  The pins
// match the reference wiring: MFRC522 on SPI0 with reset on GPIO25 and IRQ on
// GPIO24, the LCD backpack on I2C1 at 0x27, servo on the PWM capable GPIO18.
func DefaultConfig() Config {
	return Config{
		Hardware: HardwareConfig{
			ReaderResetPin:   "GPIO25",
			ReaderIRQPin:     "GPIO24",
			LCDAddress:       0x27,
			LCDColumns:       16,
			LCDRows:          2,
			GreenLEDPin:      "GPIO17",
			RedLEDPin:        "GPIO27",
			ServoPin:         "GPIO18",
			ServoOpenAngle:   90,
			ServoClosedAngle: 0,
			ButtonPin:        "GPIO23",
			ButtonActiveLow:  true,
		},
		Timing: TimingConfig{
			PollInterval: 100 * time.Millisecond,
			ReadTimeout:  50 * time.Millisecond,
			GateHold:     5 * time.Second,
			DenyHold:     3 * time.Second,
			NoticeHold:   2 * time.Second,
			RegisterHold: 3 * time.Second,
		},
		Tariff: TariffConfig{
			Toll:           "100.00",
			DefaultBalance: "1000",
		},
		Roster: []VehicleSeed{
			{Tag: "12345678", Balance: "500.00"},
			{Tag: "98765432", Balance: "500.00"},
			{Tag: "DEADBEEF", Balance: "500.00", Blacklisted: true},
		},
		LogFile: "events.log",
	}
}

// ConfigManager wraps the loaded configuration.  The configuration is read
// once at start-up; nothing writes it back except the first-run default.
type ConfigManager struct {
	path   string
	cfg    Config
	loaded bool
}

// Load reads configuration from path.  If the file does not exist a default
// configuration is written there first.  Environment variables prefixed with
// GATEKEEPER_ override file values.
func (cm *ConfigManager) Load(path string) error {
	if cm.loaded {
		return nil
	}
	if path == "" {
		path = defaultConfigPath
	}
	cm.path = path

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := writeConfig(path, DefaultConfig()); err != nil {
			return fmt.Errorf("unable to write default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("unable to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("invalid %s: %w", filepath.Base(path), err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid %s: %w", filepath.Base(path), err)
	}
	cm.cfg = cfg
	cm.loaded = true
	return nil
}

// Get returns a copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	return cm.cfg
}

// Path returns the file the configuration was loaded from.
func (cm *ConfigManager) Path() string {
	return cm.path
}

// setDefaults registers scalar defaults so that keys missing from an older
// file, and keys only given through the environment, still resolve.  The
// roster is not defaulted: an empty roster in the file stays empty.
func setDefaults(v *viper.Viper, d Config) {
	h := d.Hardware
	v.SetDefault("hardware.spi_port", h.SPIPort)
	v.SetDefault("hardware.reader_reset_pin", h.ReaderResetPin)
	v.SetDefault("hardware.reader_irq_pin", h.ReaderIRQPin)
	v.SetDefault("hardware.i2c_bus", h.I2CBus)
	v.SetDefault("hardware.lcd_address", h.LCDAddress)
	v.SetDefault("hardware.lcd_columns", h.LCDColumns)
	v.SetDefault("hardware.lcd_rows", h.LCDRows)
	v.SetDefault("hardware.green_led_pin", h.GreenLEDPin)
	v.SetDefault("hardware.red_led_pin", h.RedLEDPin)
	v.SetDefault("hardware.servo_pin", h.ServoPin)
	v.SetDefault("hardware.servo_open_angle", h.ServoOpenAngle)
	v.SetDefault("hardware.servo_closed_angle", h.ServoClosedAngle)
	v.SetDefault("hardware.button_pin", h.ButtonPin)
	v.SetDefault("hardware.button_active_low", h.ButtonActiveLow)

	t := d.Timing
	v.SetDefault("timing.poll_interval", t.PollInterval)
	v.SetDefault("timing.read_timeout", t.ReadTimeout)
	v.SetDefault("timing.gate_hold", t.GateHold)
	v.SetDefault("timing.deny_hold", t.DenyHold)
	v.SetDefault("timing.notice_hold", t.NoticeHold)
	v.SetDefault("timing.register_hold", t.RegisterHold)

	v.SetDefault("tariff.toll", d.Tariff.Toll)
	v.SetDefault("tariff.default_balance", d.Tariff.DefaultBalance)
	v.SetDefault("policy.enforce_blacklist", d.Policy.EnforceBlacklist)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("metrics_file", d.MetricsFile)
}

// writeConfig serializes cfg as YAML through a temporary file.
func writeConfig(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// Validate checks the configuration and reports every problem found.
func (c Config) Validate() error {
	var errs []error

	if _, err := c.ParseTariff(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.SeedRecords(); err != nil {
		errs = append(errs, err)
	}

	t := c.Timing
	for name, d := range map[string]time.Duration{
		"poll_interval": t.PollInterval,
		"read_timeout":  t.ReadTimeout,
		"gate_hold":     t.GateHold,
		"deny_hold":     t.DenyHold,
		"notice_hold":   t.NoticeHold,
		"register_hold": t.RegisterHold,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("timing.%s must be positive, got %s", name, d))
		}
	}

	h := c.Hardware
	if h.LCDColumns <= 0 || h.LCDRows < 2 || h.LCDRows > len(lcdRowOffsets) {
		errs = append(errs, fmt.Errorf("lcd must be at least 1x2 and at most %d rows, got %dx%d",
			len(lcdRowOffsets), h.LCDColumns, h.LCDRows))
	}
	for name, angle := range map[string]int{"servo_open_angle": h.ServoOpenAngle, "servo_closed_angle": h.ServoClosedAngle} {
		if angle < 0 || angle > servoRangeAngle {
			errs = append(errs, fmt.Errorf("hardware.%s must be within 0..%d, got %d", name, servoRangeAngle, angle))
		}
	}
	return utilerrors.NewAggregate(errs)
}

// ParseTariff converts the tariff strings into decimals.
func (c Config) ParseTariff() (Tariff, error) {
	toll, err := decimal.NewFromString(c.Tariff.Toll)
	if err != nil {
		return Tariff{}, fmt.Errorf("tariff.toll %q: %w", c.Tariff.Toll, err)
	}
	if !toll.IsPositive() {
		return Tariff{}, fmt.Errorf("tariff.toll must be positive, got %s", toll)
	}
	balance, err := decimal.NewFromString(c.Tariff.DefaultBalance)
	if err != nil {
		return Tariff{}, fmt.Errorf("tariff.default_balance %q: %w", c.Tariff.DefaultBalance, err)
	}
	if balance.IsNegative() {
		return Tariff{}, fmt.Errorf("tariff.default_balance must not be negative, got %s", balance)
	}
	return Tariff{Toll: toll, DefaultBalance: balance}, nil
}

// SeedRecords converts the configured roster into vehicle records.
func (c Config) SeedRecords() ([]VehicleRecord, error) {
	if len(c.Roster) > RosterCapacity {
		return nil, fmt.Errorf("roster lists %d vehicles, capacity is %d", len(c.Roster), RosterCapacity)
	}
	var errs []error
	seen := make(map[TagID]int, len(c.Roster))
	records := make([]VehicleRecord, 0, len(c.Roster))
	for i, s := range c.Roster {
		tag, err := ParseTagID(s.Tag)
		if err != nil {
			errs = append(errs, fmt.Errorf("roster[%d]: %w", i, err))
			continue
		}
		if prev, dup := seen[tag]; dup {
			errs = append(errs, fmt.Errorf("roster[%d]: tag %s already listed at roster[%d]", i, tag, prev))
			continue
		}
		seen[tag] = i
		balance, err := decimal.NewFromString(s.Balance)
		if err != nil {
			errs = append(errs, fmt.Errorf("roster[%d]: balance %q: %w", i, s.Balance, err))
			continue
		}
		if balance.IsNegative() {
			errs = append(errs, fmt.Errorf("roster[%d]: balance must not be negative, got %s", i, balance))
			continue
		}
		records = append(records, VehicleRecord{Tag: tag, Balance: balance, Blacklisted: s.Blacklisted})
	}
	if len(errs) > 0 {
		return nil, utilerrors.NewAggregate(errs)
	}
	return records, nil
}

// Settings derives the controller settings.  Call Validate first.
func (c Config) Settings() (Settings, error) {
	tariff, err := c.ParseTariff()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Tariff:           tariff,
		EnforceBlacklist: c.Policy.EnforceBlacklist,
		Timing:           c.Timing,
		OpenAngle:        c.Hardware.ServoOpenAngle,
		ClosedAngle:      c.Hardware.ServoClosedAngle,
	}, nil
}
