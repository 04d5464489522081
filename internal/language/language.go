package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Describe returns a human-readable English name for a BCP 47 language code,
// for use on the cover sheet. Empty input yields "None"; unparseable input is
// returned as-is.
func Describe(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "None"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}
