package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"k8s.io/utils/clock"
)

const (
	commandName = "gatekeeper"
	commandDesc = `gatekeeper runs a vehicle toll gate: it reads RFID tags, charges a
fixed toll from the vehicle's prepaid balance and raises the gate when the
balance covers it. Pressing the mode button registers the next tag scanned.`
)

func newRootCommand() *cobra.Command {
	opts := NewOptions()
	cmd := &cobra.Command{
		Use:          commandName,
		Short:        "Run the RFID toll gate controller",
		Long:         commandDesc,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, cmd.InOrStdin())
		},
	}
	opts.AddFlags(cmd.PersistentFlags())
	cmd.AddCommand(newRosterCommand(opts))
	return cmd
}

func run(ctx context.Context, opts *Options, stdin io.Reader) error {
	var cfgMgr ConfigManager
	if err := cfgMgr.Load(opts.ConfigPath); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := cfgMgr.Get()

	logger, err := newLogger(opts.Log, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	seed, err := cfg.SeedRecords()
	if err != nil {
		return err
	}
	roster, err := NewRoster(seed...)
	if err != nil {
		return err
	}

	var hw *Hardware
	if opts.Simulate {
		logger.Info("Running in simulator mode: type 'press' or an 8 digit hex tag")
		hw = newSimHardware(stdin, cfg.Hardware, logger)
	} else {
		hw, err = openHardware(cfg.Hardware, cfg.Timing.ReadTimeout)
		if err != nil {
			return fmt.Errorf("initialisation error: %w", err)
		}
	}
	defer func() {
		if err := hw.Close(); err != nil {
			logger.Error("Failed to release hardware", zap.Error(err))
		}
	}()

	logger.Info("Starting gatekeeper",
		zap.String("config", cfgMgr.Path()),
		zap.Bool("simulate", opts.Simulate),
		zap.Bool("enforce_blacklist", settings.EnforceBlacklist))

	handlers := []EventHandler{NewLogHandler(logger), NewMetricsHandler(cfg.MetricsFile)}
	ctrl := NewController(settings, roster, hw, clock.RealClock{}, logger, handlers...)
	return ctrl.Run(ctx)
}

func newRosterCommand(opts *Options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Print the roster the controller starts with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			var cfgMgr ConfigManager
			if err := cfgMgr.Load(opts.ConfigPath); err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			seed, err := cfgMgr.Get().SeedRecords()
			if err != nil {
				return err
			}
			roster, err := NewRoster(seed...)
			if err != nil {
				return err
			}
			return printRoster(cmd.OutOrStdout(), roster, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table or yaml.")
	return cmd
}

// rosterEntry is the printable form of an occupied slot.
type rosterEntry struct {
	Slot        int    `yaml:"slot"`
	Tag         string `yaml:"tag"`
	Balance     string `yaml:"balance"`
	Blacklisted bool   `yaml:"blacklisted"`
}

func printRoster(w io.Writer, r *Roster, format string) error {
	slots := r.Occupied()
	entries := make([]rosterEntry, 0, len(slots))
	for _, s := range slots {
		entries = append(entries, rosterEntry{
			Slot:        s.Index,
			Tag:         s.Record.Tag.String(),
			Balance:     s.Record.Balance.StringFixed(2),
			Blacklisted: s.Record.Blacklisted,
		})
	}

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		table := uitable.New()
		table.MaxColWidth = 40
		table.AddRow("SLOT", "TAG", "BALANCE", "BLACKLISTED")
		for _, e := range entries {
			table.AddRow(e.Slot, e.Tag, e.Balance, e.Blacklisted)
		}
		_, err := fmt.Fprintf(w, "%s\n%d/%d slots used\n", table, len(entries), RosterCapacity)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
