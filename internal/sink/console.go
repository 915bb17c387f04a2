package sink

import (
	"context"
	"fmt"
	"io"
	"logsink/internal/bus"
	"logsink/internal/global"
	"os"

	"golang.org/x/term"
)

// Terminal columns needed before a wider level column is used
const (
	wideTerminal   = 120
	narrowTerminal = 60
)

// Creates a console sink. A width of zero picks one from the terminal size.
func NewConsole(namespace []string, out io.Writer, width int) (module *Console) {
	if width <= 0 {
		width = levelWidthFor(out)
	}

	module = &Console{
		Namespace:  append(append([]string(nil), namespace...), global.NSoConsole),
		out:        out,
		levelWidth: width,
	}
	return
}

// Level column width for the attached terminal, medium when not a terminal
func levelWidthFor(out io.Writer) (width int) {
	width = 5

	file, ok := out.(*os.File)
	if !ok {
		return
	}
	fd := int(file.Fd())
	if !term.IsTerminal(fd) {
		return
	}

	columns, _, err := term.GetSize(fd)
	if err != nil {
		return
	}
	switch {
	case columns >= wideTerminal:
		width = 8
	case columns < narrowTerminal:
		width = 3
	}
	return
}

func (mod *Console) Write(ctx context.Context, delivery bus.Delivery) (err error) {
	if mod == nil {
		return
	}

	mod.mu.Lock()
	defer mod.mu.Unlock()

	if delivery.Dropped > 0 {
		_, err = fmt.Fprintln(mod.out, formatGap(delivery.Dropped))
		if err != nil {
			return
		}
	}
	_, err = fmt.Fprintln(mod.out, FormatConsole(delivery.Record, mod.levelWidth))
	return
}

// Nothing to release, the writer belongs to the caller
func (mod *Console) Close() (err error) {
	return
}
