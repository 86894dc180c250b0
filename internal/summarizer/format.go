package summarizer

import (
	"regexp"
	"strings"
)

var (
	boldMarkers  = regexp.MustCompile(`\*\*|__`)
	bulletGlyph  = regexp.MustCompile(`(?m)^[ \t]*(?:[•*·–—]|-)[ \t]+`)
	labelNewline = regexp.MustCompile(`(?m)^(\S[^\n]*?):[ \t]*\n(?:- )?`)
)

// Format post-processes raw model output for the given mode.
func Format(mode Mode, raw string) string {
	out := boldMarkers.ReplaceAllString(raw, "")
	switch mode {
	case ModeBullets:
		out = bulletGlyph.ReplaceAllString(out, "- ")
		out = labelNewline.ReplaceAllString(out, "$1\n- ")
	default:
		out = bulletGlyph.ReplaceAllString(out, "")
	}
	return strings.TrimSpace(out)
}
