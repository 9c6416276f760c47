package infra

import (
	"fmt"
	"io"
	"strings"
)

const (
	colorReset = "\033[0m"
	colorCyan  = "\033[36m"
)

// PrintBanner writes the startup summary: mode, version, pairs and feed.
func PrintBanner(w io.Writer, cfg *Config) {
	feed := "off"
	if cfg.Feed.Enabled {
		feed = fmt.Sprintf("%s (%d symbols)", cfg.Feed.InstType, len(cfg.Feed.Symbols))
	}

	lines := []string{
		cfg.App.Name,
		"",
		"MODE:    " + strings.ToUpper(cfg.Trading.Mode),
		"VERSION: " + cfg.App.Version,
		fmt.Sprintf("PAIRS:   %d", len(cfg.Pairs)),
		"FEED:    " + feed,
	}

	border := strings.Repeat("#", 59)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s%s%s\n", colorCyan, border, colorReset)
	for _, l := range lines {
		fmt.Fprintf(w, "%s#   %-53s #%s\n", colorCyan, l, colorReset)
	}
	fmt.Fprintf(w, "%s%s%s\n", colorCyan, border, colorReset)
	fmt.Fprintln(w)
}
