package cli

import (
	"encoding/json"
	"fmt"
	"logsink/internal/daemon"
	"logsink/internal/global"
	"logsink/pkg/schema"
	"os"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"
)

// Reads a JSON config file; comments and trailing commas are allowed
func LoadConfig(path string) (cfg global.Config, err error) {
	configFile, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed to read config file: %w", err)
		return
	}

	err = json.Unmarshal(jsonc.ToJSON(configFile), &cfg)
	if err != nil {
		err = fmt.Errorf("invalid config syntax in '%s': %w", path, err)
		return
	}
	return
}

// Fills every option that was not set on the command line from the config file
func (opts *Options) Merge(fs *pflag.FlagSet, cfg global.Config) (err error) {
	levels := []struct {
		flag   string
		key    string
		value  string
		target *schema.Level
	}{
		{flagConsoleLevel, "console.level", cfg.Console.Level, &opts.ConsoleLevel},
		{flagFileLevel, "file.level", cfg.File.Level, &opts.FileLevel},
		{flagBeatsLevel, "beats.level", cfg.Beats.Level, &opts.BeatsLevel},
		{flagJournalLevel, "journal.level", cfg.Journal.Level, &opts.JournalLevel},
	}
	for _, level := range levels {
		if fs.Changed(level.flag) || level.value == "" {
			continue
		}
		*level.target, err = schema.ParseLevel(level.value)
		if err != nil {
			err = fmt.Errorf("config field %s: %w", level.key, err)
			return
		}
	}

	mergeString(fs, flagFilePath, cfg.File.Path, &opts.FilePath)
	mergeString(fs, flagFileFormat, cfg.File.Format, &opts.FileFormat)
	mergeString(fs, flagBeatsEndpoint, cfg.Beats.Endpoint, &opts.BeatsEndpoint)
	mergeString(fs, flagJournalURL, cfg.Journal.Endpoint, &opts.JournalURL)

	mergeInt(fs, flagConsoleWidth, cfg.Console.Width, &opts.ConsoleWidth)
	mergeInt(fs, flagMaxLine, cfg.Receivers.MaxLineLength, &opts.MaxLineLength)
	mergeInt(fs, flagBufferSize, cfg.Bus.BufferSize, &opts.BufferSize)
	if cfg.Logging.Verbosity != nil {
		mergeInt(fs, flagVerbosity, *cfg.Logging.Verbosity, &opts.Verbosity)
	}

	mergeBool(fs, flagListenFifo, cfg.Receivers.Fifo, &opts.ListenFifo)
	mergeBool(fs, flagListenStdin, cfg.Receivers.Stdin, &opts.ListenStdin)
	mergeBool(fs, flagBackground, cfg.Receivers.Background, &opts.Background)
	return
}

func mergeString(fs *pflag.FlagSet, name string, value string, target *string) {
	if !fs.Changed(name) && value != "" {
		*target = value
	}
}

func mergeInt(fs *pflag.FlagSet, name string, value int, target *int) {
	if !fs.Changed(name) && value != 0 {
		*target = value
	}
}

func mergeBool(fs *pflag.FlagSet, name string, value bool, target *bool) {
	if !fs.Changed(name) && value {
		*target = value
	}
}

// Rejects option combinations no component could start with
func (opts *Options) Validate() (err error) {
	if opts.Verbosity < global.VerbosityNone || opts.Verbosity > global.VerbosityDebug {
		err = fmt.Errorf("verbosity must be between %d and %d, got %d", global.VerbosityNone, global.VerbosityDebug, opts.Verbosity)
		return
	}
	if opts.FileFormat != global.FileFormatText && opts.FileFormat != global.FileFormatJSON {
		err = fmt.Errorf("unknown log file format '%s' (expected %s or %s)", opts.FileFormat, global.FileFormatText, global.FileFormatJSON)
		return
	}
	if opts.ConsoleWidth < 0 {
		err = fmt.Errorf("console width cannot be negative")
		return
	}
	if opts.MaxLineLength <= 0 {
		err = fmt.Errorf("max line length must be positive, got %d", opts.MaxLineLength)
		return
	}
	if opts.BufferSize <= 0 {
		err = fmt.Errorf("buffer size must be positive, got %d", opts.BufferSize)
		return
	}
	return
}

// Settings for the daemon half of the program
func (opts *Options) DaemonConfig() (cfg daemon.Config) {
	cfg = daemon.Config{
		ConsoleEnabled: true,
		ConsoleLevel:   opts.ConsoleLevel,
		ConsoleWidth:   opts.ConsoleWidth,
		FilePath:       opts.FilePath,
		FileFormat:     opts.FileFormat,
		FileLevel:      opts.FileLevel,
		BeatsEndpoint:  opts.BeatsEndpoint,
		BeatsLevel:     opts.BeatsLevel,
		JournalURL:     opts.JournalURL,
		JournalLevel:   opts.JournalLevel,
		BufferSize:     opts.BufferSize,
	}
	return
}
