package cli

import (
	"logsink/internal/global"
	"logsink/pkg/schema"

	"github.com/spf13/pflag"
)

// Flag names, also used to look up which flags were set explicitly
const (
	flagConsoleLevel  string = "console-level"
	flagConsoleWidth  string = "console-width"
	flagFilePath      string = "log-file"
	flagFileLevel     string = "log-file-level"
	flagFileFormat    string = "log-file-format"
	flagBeatsEndpoint string = "beats-endpoint"
	flagBeatsLevel    string = "beats-level"
	flagJournalURL    string = "journal-url"
	flagJournalLevel  string = "journal-level"
	flagListenFifo    string = "listen-fifo"
	flagListenStdin   string = "listen-stdin"
	flagBackground    string = "background"
	flagMaxLine       string = "max-line-length"
	flagBufferSize    string = "buffer-size"
	flagConfig        string = "config"
	flagVerbosity     string = "verbosity"
	flagVersion       string = "version"
	flagHelp          string = "help"
)

// Everything the command line can set
type Options struct {
	ConsoleLevel  schema.Level
	ConsoleWidth  int
	FilePath      string
	FileLevel     schema.Level
	FileFormat    string
	BeatsEndpoint string
	BeatsLevel    schema.Level
	JournalURL    string
	JournalLevel  schema.Level
	ListenFifo    bool
	ListenStdin   bool
	Background    bool
	MaxLineLength int
	BufferSize    int
	ConfigPath    string
	Verbosity     int
	Version       bool
	Help          bool
}

// Registers all program flags on fs with their defaults
func DefineFlags(fs *pflag.FlagSet) (opts *Options) {
	opts = &Options{
		ConsoleLevel: mustLevel(global.DefaultConsoleLevel),
		FileLevel:    mustLevel(global.DefaultFileLevel),
		BeatsLevel:   mustLevel(global.DefaultRemoteLevel),
		JournalLevel: mustLevel(global.DefaultRemoteLevel),
	}

	fs.VarP(&opts.ConsoleLevel, flagConsoleLevel, "L", "Lowest level printed to the console (name, short code or 0-255)")
	fs.IntVar(&opts.ConsoleWidth, flagConsoleWidth, 0, "Width of the console level column <3|5|8> (0 picks from the terminal)")

	fs.StringVar(&opts.FilePath, flagFilePath, "", "Append records to this file (a .zst suffix compresses it)")
	fs.Var(&opts.FileLevel, flagFileLevel, "Lowest level written to the log file")
	fs.StringVar(&opts.FileFormat, flagFileFormat, global.FileFormatText, "Log file format <text|json>")

	fs.StringVar(&opts.BeatsEndpoint, flagBeatsEndpoint, "", "Forward records to a beats (lumberjack v2) listener at host:port")
	fs.Var(&opts.BeatsLevel, flagBeatsLevel, "Lowest level forwarded to the beats listener")

	fs.StringVar(&opts.JournalURL, flagJournalURL, "", "Forward records to a systemd-journal-remote URL")
	fs.Var(&opts.JournalLevel, flagJournalLevel, "Lowest level forwarded to the journal")

	fs.BoolVar(&opts.ListenFifo, flagListenFifo, false, "Receive records on a named pipe")
	fs.BoolVar(&opts.ListenStdin, flagListenStdin, false, "Receive records on standard input")
	fs.BoolVar(&opts.Background, flagBackground, false, "Print connection info then keep receiving in a background process")
	fs.IntVar(&opts.MaxLineLength, flagMaxLine, global.DefaultMaxLineLength, "Longest accepted input line in bytes")
	fs.IntVar(&opts.BufferSize, flagBufferSize, global.DefaultBufferSize, "Records buffered per output before the oldest are dropped")

	fs.StringVarP(&opts.ConfigPath, flagConfig, "c", "", "Path to the configuration file (JSON with comments)")
	fs.IntVarP(&opts.Verbosity, flagVerbosity, "v", global.VerbosityStandard, "Increase detailed progress messages (Higher is more verbose) <0...5>")
	fs.BoolVar(&opts.Version, flagVersion, false, "Show version and exit")
	fs.BoolVarP(&opts.Help, flagHelp, "h", false, "Show this help menu")
	return
}

func mustLevel(text string) (level schema.Level) {
	level, err := schema.ParseLevel(text)
	if err != nil {
		panic(err)
	}
	return
}
