package main

import (
	"errors"

	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// Options are the command-line options shared by all commands.
type Options struct {
	ConfigPath string
	Simulate   bool
	Log        *LogOptions
}

// NewOptions returns options with defaults filled in.
func NewOptions() *Options {
	return &Options{
		ConfigPath: defaultConfigPath,
		Log:        NewLogOptions(),
	}
}

// AddFlags binds the options to fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigPath, "config", "c", o.ConfigPath, "Path to the YAML configuration file. Created with defaults if missing.")
	fs.BoolVar(&o.Simulate, "simulate", o.Simulate, "Drive the controller from stdin instead of GPIO hardware.")
	o.Log.AddFlags(fs)
}

// Validate checks all options.
func (o *Options) Validate() error {
	var errs []error
	if o.ConfigPath == "" {
		errs = append(errs, errors.New("--config must not be empty"))
	}
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}
