package cli

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/amp-labs/keyed-array/envutil"
	"github.com/amp-labs/keyed-array/keyed"
)

const (
	boxTopLeft     = "╒"
	boxBottomLeft  = "└"
	boxTopRight    = "╕"
	boxBottomRight = "┘"
	boxSide        = "│"
	boxTop         = "═"
	boxBottom      = "─"
	dividerLeft    = "┠"
	dividerMiddle  = "─"
	dividerRight   = "┨"
	ellipsis       = "…"
)

const (
	AlignLeft = iota
	AlignCenter
	AlignRight

	bannerPadding   = 2
	dividerPadding  = 2
	truncateReserve = 1
	halfDivisor     = 2
)

// DefaultTerminalWidth is used when COLUMNS is unset or invalid.
const DefaultTerminalWidth = 80

func suppressBanner() bool {
	return envutil.Bool("KEYEDARRAY_NO_BANNER", envutil.Default(false)).ValueOrElse(false)
}

// TerminalWidth reads COLUMNS, falling back to DefaultTerminalWidth.
func TerminalWidth() int {
	width := envutil.Int("COLUMNS", envutil.Default(DefaultTerminalWidth)).ValueOrElse(DefaultTerminalWidth)
	if width <= dividerPadding {
		return DefaultTerminalWidth
	}

	return width
}

// Divider returns a horizontal rule width runes wide.
func Divider(width int) string {
	return fmt.Sprintf("%s%s%s\n", dividerLeft, strings.Repeat(dividerMiddle, width-dividerPadding), dividerRight)
}

// Banner draws a box around s. Lines longer than the box are truncated.
func Banner(s string, width int, alignment int) string {
	if suppressBanner() {
		return s + "\n"
	}

	lines := getLines(s)
	if len(lines) == 0 || width <= bannerPadding {
		return ""
	}

	dividerTop := fmt.Sprintf("%s%s%s", boxTopLeft, strings.Repeat(boxTop, width-bannerPadding), boxTopRight)
	parts := []string{dividerTop}

	for _, l := range lines {
		var line string

		switch alignment {
		case AlignCenter:
			line = padCenter(l, width-bannerPadding)
		case AlignLeft:
			line = padLeft(l, width-bannerPadding)
		case AlignRight:
			line = padRight(l, width-bannerPadding)
		default:
			return ""
		}

		parts = append(parts, fmt.Sprintf("%s%s%s", boxSide, line, boxSide))
	}

	dividerBottom := fmt.Sprintf("%s%s%s", boxBottomLeft, strings.Repeat(boxBottom, width-bannerPadding), boxBottomRight)
	parts = append(parts, dividerBottom)

	return strings.Join(parts, "\n") + "\n"
}

// RenderReport writes a replay report: the steps, the owner's final pairs and
// the state of each replica.
func RenderReport(w io.Writer, r *Report, width int) error {
	header := fmt.Sprintf("%s\ncompression %s, %d replicas", r.Scenario, r.Compression, len(r.Replicas))
	if _, err := io.WriteString(w, Banner(header, width, AlignCenter)); err != nil {
		return err
	}

	var body strings.Builder

	for _, step := range r.Steps {
		fmt.Fprintf(&body, "%3d  %s (replicas changed: %d)\n", step.Step, step.Result, step.Changed)
	}

	body.WriteString(Divider(width))
	body.WriteString(RenderPairs(r.Pairs))
	body.WriteString(Divider(width))

	for _, rep := range r.Replicas {
		status := "ok"
		if !rep.Consistent {
			status = "DIVERGED: " + rep.Err.Error()
		}

		fmt.Fprintf(&body, "%s: %s\n", rep.Name, status)
	}

	_, err := io.WriteString(w, body.String())

	return err
}

// RenderPairs lists pairs one per line with their positions.
func RenderPairs[K comparable, V any](pairs []keyed.Pair[K, V]) string {
	if len(pairs) == 0 {
		return "(empty)\n"
	}

	var out strings.Builder

	for i, p := range pairs {
		fmt.Fprintf(&out, "%3d  %v = %v\n", i, p.Key, p.Value)
	}

	return out.String()
}

func getLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")

	return strings.Split(s, "\n")
}

func countGraphic(s string) int {
	count := 0

	for _, r := range s {
		if unicode.IsGraphic(r) {
			count++
		}
	}

	return count
}

func truncateGraphic(s string, n int) (string, int) {
	var out strings.Builder

	count := 0

	for _, r := range s {
		if unicode.IsGraphic(r) {
			count++
		}

		if count >= n {
			break
		}

		out.WriteRune(r)
	}

	return out.String(), count
}

func fit(text string, width int) (string, int) {
	length := countGraphic(text)
	if length <= width {
		return text, length
	}

	str, length := truncateGraphic(text, width-truncateReserve)

	return str + ellipsis, length
}

func padCenter(text string, width int) string {
	str, length := fit(text, width)
	diff := width - length
	leftPad := diff / halfDivisor

	return strings.Repeat(" ", leftPad) + str + strings.Repeat(" ", diff-leftPad)
}

func padLeft(text string, width int) string {
	str, length := fit(text, width)

	return str + strings.Repeat(" ", width-length)
}

func padRight(text string, width int) string {
	str, length := fit(text, width)

	return strings.Repeat(" ", width-length) + str
}
