package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/service"
)

// terminalConfirmer asks on out and reads one line from in.  Only a yes
// ("y", "yes", "s", "sim", any case) counts as consent; EOF is a refusal.
type terminalConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newConfirmer(assumeYes bool, in io.Reader, out io.Writer) service.Confirmer {
	if assumeYes {
		return service.AlwaysConfirm
	}
	return &terminalConfirmer{in: bufio.NewReader(in), out: out}
}

func (c *terminalConfirmer) Confirm(ctx context.Context, message string) bool {
	if ctx.Err() != nil {
		return false
	}
	fmt.Fprintf(c.out, "%s [y/N]: ", message)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(c.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "s", "sim":
		return true
	default:
		return false
	}
}
