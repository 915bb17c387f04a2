package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Parses a bare integer ordinal or a case-insensitive level name
func ParseLevel(text string) (level Level, err error) {
	token := strings.TrimSpace(text)
	if token == "" {
		err = &ParseError{Input: text}
		return
	}

	if token[0] >= '0' && token[0] <= '9' {
		var ordinal uint64
		ordinal, err = strconv.ParseUint(token, 10, 8)
		if err != nil {
			err = &ParseError{Input: text, Err: err}
			return
		}
		level = Level(ordinal)
		return
	}

	token = strings.ToLower(token)
	for _, named := range namedLevels {
		if token == strings.ToLower(named.full) || token == strings.ToLower(named.short) {
			level = named.level
			return
		}
	}

	level, ok := levelAliases[token]
	if !ok {
		err = &ParseError{Input: text}
	}
	return
}

// Canonical name, only when the ordinal is exactly a named level
func (level Level) Named() (name string, ok bool) {
	named, ok := level.exact()
	if ok {
		name = named.full
	}
	return
}

// Name of the nearest named level not exceeding the ordinal.
// Ordinals below Trace resolve to Trace.
func (level Level) ApproxName() (name string) {
	name = level.nearest().full
	return
}

// Ordinal of the level ApproxName resolves to
func (level Level) Approx() (approx Level) {
	approx = level.nearest().level
	return
}

func (level Level) String() string {
	return level.ApproxName()
}

// Renders the approximate level name for a display column of the given width.
//
//	width <= 0 or >= 8: full name (variable length)
//	5..7: medium, exactly 5 characters
//	1..4: short, exactly 3 characters
func (level Level) Render(width int, upper bool) (text string) {
	named := level.nearest()

	switch {
	case width <= 0 || width >= fullWidth:
		text = named.full
	case width >= mediumWidth:
		text = named.medium
	default:
		text = named.short
	}

	if upper {
		text = strings.ToUpper(text)
	}
	return
}

// Lets config files and flags carry either names or ordinals
func (level *Level) UnmarshalText(text []byte) (err error) {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return
	}
	*level = parsed
	return
}

func (level Level) MarshalText() (text []byte, err error) {
	if name, ok := level.Named(); ok {
		text = []byte(strings.ToLower(name))
		return
	}
	text = []byte(strconv.Itoa(int(level)))
	return
}

// Set and Type satisfy pflag.Value
func (level *Level) Set(text string) (err error) {
	err = level.UnmarshalText([]byte(text))
	return
}

func (level *Level) Type() string {
	return "level"
}

func (level Level) exact() (named namedLevel, ok bool) {
	for _, candidate := range namedLevels {
		if candidate.level == level {
			named = candidate
			ok = true
			return
		}
	}
	return
}

func (level Level) nearest() (named namedLevel) {
	named = namedLevels[0]
	for _, candidate := range namedLevels[1:] {
		if candidate.level > level {
			break
		}
		named = candidate
	}
	return
}

type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid log level %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("invalid log level %q", e.Input)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
