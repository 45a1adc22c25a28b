// Package logging builds the slog logger the CLI hands to the ledger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
)

// New returns a slog logger backed by a charmbracelet handler writing to w
// at the named level. An empty level means info.
func New(w io.Writer, level string) (*slog.Logger, error) {
	if strings.TrimSpace(level) == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	h := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          "moneyvault",
		ReportTimestamp: true,
	})
	return slog.New(h), nil
}
