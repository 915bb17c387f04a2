package cli

import (
	"fmt"
	"io"
	"logsink/internal/global"
	"sort"
	"strings"

	"github.com/spf13/pflag"
)

const (
	usageOption     string = "[options]"
	menuDescription string = "Collect JSON log records from local programs and fan them out to outputs."
	menuDetail      string = `Records arrive one JSON object per line on standard input and/or a named pipe.
The named pipe path is printed as a single JSON object on standard output
before any record is read.`
	helpMenuTrailer string = `
Config file values apply to every option not given on the command line.
`
)

// Full standardized help menu (wraps option printer as well)
func PrintHelpMenu(out io.Writer, fs *pflag.FlagSet, progName string) {
	const baseIndentSpaces = 2

	fmt.Fprintf(out, "Usage: %s %s\n\n", progName, usageOption)
	fmt.Fprintln(out, menuDescription)
	fmt.Fprintln(out, menuDetail)
	fmt.Fprintln(out)

	printFlagOptions(out, fs, baseIndentSpaces)

	fmt.Fprint(out, helpMenuTrailer)
}

// Custom printer to align short/long names and indent automatically
func printFlagOptions(out io.Writer, fs *pflag.FlagSet, baseIndentSpaces int) {
	const shortArgPrefix string = "-"      // like "  [-]t, --test  Some usage text"
	const shortLongArgJoiner string = ", " // like "  -t[, ]--test  Some usage text"
	const longArgPrefix string = "--"      // like "  -t, [--]test  Some usage text"
	const argToUsageSpaces int = 2         // like "  -t, --test[  ]Some usage text"

	type optInfo struct {
		names      []string
		valueType  string
		usage      string
		defaultVal string
		hasShort   bool
	}

	opts := []*optInfo{}
	fs.VisitAll(func(arg *pflag.Flag) {
		if arg.Hidden {
			return
		}

		opt := &optInfo{
			usage:      arg.Usage,
			defaultVal: arg.DefValue,
		}
		if arg.Shorthand != "" {
			opt.names = append(opt.names, shortArgPrefix+arg.Shorthand)
			opt.hasShort = true
		}
		opt.names = append(opt.names, longArgPrefix+arg.Name)

		// Booleans take no value
		if arg.Value.Type() != "bool" {
			opt.valueType = " " + arg.Value.Type()
		}
		opts = append(opts, opt)
	})

	// Sort list by long name
	sort.Slice(opts, func(indexA, indexB int) bool {
		flagA := opts[indexA]
		flagB := opts[indexB]

		lastNameA := strings.ToLower(flagA.names[len(flagA.names)-1])
		lastNameB := strings.ToLower(flagB.names[len(flagB.names)-1])

		return lastNameA < lastNameB
	})

	// accounts for short arg prefix length, short arg default len (1), and joiner length
	longShortArgOffset := len(shortLongArgJoiner) + len(shortArgPrefix) + 1

	// Calculate max length flags for alignment
	maxLen := 0
	for _, opt := range opts {
		leftLen := len(strings.Join(opt.names, shortLongArgJoiner)) + len(opt.valueType)
		if !opt.hasShort {
			leftLen += longShortArgOffset
		}
		if leftLen > maxLen {
			maxLen = leftLen
		}
	}

	// Print option list
	fmt.Fprintf(out, "%sOptions:\n", strings.Repeat(" ", baseIndentSpaces))
	for _, opt := range opts {
		left := strings.Join(opt.names, shortLongArgJoiner) + opt.valueType

		// Indent based on short/long
		indentSpaces := baseIndentSpaces
		leftLen := len(left)
		if !opt.hasShort {
			indentSpaces += longShortArgOffset
			leftLen += longShortArgOffset
		}
		indent := strings.Repeat(" ", indentSpaces)

		// Padding for this line to offset usage text
		paddingSpaces := maxLen - leftLen + argToUsageSpaces
		if paddingSpaces < argToUsageSpaces {
			paddingSpaces = argToUsageSpaces
		}
		padding := strings.Repeat(" ", paddingSpaces)

		// Skip printing any "empty" defaults
		desc := opt.usage
		if opt.defaultVal != "" && opt.defaultVal != "false" && opt.defaultVal != "0" {
			desc += fmt.Sprintf(" [default: %s]", opt.defaultVal)
		}

		fmt.Fprintf(out, "%s%s%s%s\n", indent, left, padding, desc)
	}
}

// Version line, plus build details at higher verbosity
func printVersion(out io.Writer, verbosity int, buildInfo string) {
	fmt.Fprintf(out, "%s %s\n", global.ProgBaseName, global.ProgVersion)
	if verbosity > global.VerbosityStandard {
		fmt.Fprintln(out, buildInfo)
	}
}
