package termcolor

import (
	"fmt"
	"strings"
)

// Style is an SGR foreground color; a nil FGBasic means plain text.
type Style struct {
	FGBasic *int
}

// Red is the style used for matched spans.
var Red = func() Style {
	c := 1
	return Style{FGBasic: &c}
}()

func Apply(s Style, text string, enabled bool) string {
	if !enabled || text == "" {
		return text
	}
	codes := sgrCodes(s)
	if len(codes) == 0 {
		return text
	}
	return "\x1b[" + strings.Join(codes, ";") + "m" + text + "\x1b[0m"
}

func sgrCodes(s Style) []string {
	codes := make([]string, 0, 1)
	if s.FGBasic != nil {
		codes = append(codes, fmt.Sprintf("3%d", *s.FGBasic))
	}
	return codes
}
