package config

import (
	"flag"
	"fmt"
	"strings"
)

// Flags are the command-line overrides shared by every subcommand.
type Flags struct {
	config  *string
	debug   *bool
	workers *int
	strict  *bool
	color   *string
	logFile *string
	assets  *string
}

// BindFlags registers the shared flags on fs. Call before fs.Parse.
func BindFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:  fs.String("config", "", "Path to config file (.yaml or .toml)"),
		debug:   fs.Bool("debug", false, "Enable debug logging"),
		workers: fs.Int("workers", 0, "Concurrent mesh/material workers (0 = GOMAXPROCS)"),
		strict:  fs.Bool("strict", false, "Fail the import when any primitive is skipped"),
		color:   fs.String("color", "", "Default color for unset factors: white or black"),
		logFile: fs.String("log", "", "Also write logs to this file"),
		assets:  fs.String("assets", "", "Comma-separated extra asset search paths"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) error {
	if f == nil {
		return nil
	}
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.workers > 0 {
		cfg.Import.Workers = *f.workers
	}
	if *f.strict {
		cfg.Import.Strict = true
	}
	if *f.color != "" {
		switch c := strings.ToLower(*f.color); c {
		case "white", "black":
			cfg.Import.DefaultColor = c
		default:
			return fmt.Errorf("invalid -color %q: want white or black", *f.color)
		}
	}
	if *f.logFile != "" {
		cfg.Logging.LogFile = *f.logFile
	}
	if *f.assets != "" {
		for _, p := range strings.Split(*f.assets, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Assets.SearchPaths = append(cfg.Assets.SearchPaths, p)
			}
		}
	}
	return nil
}
