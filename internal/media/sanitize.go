package media

import "strings"

// titleReplacer replaces filesystem-unsafe characters with safe alternatives.
var titleReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\x00", "",
)

// SanitizeTitle converts a product name into a string safe to use as a
// filename. Slashes, backslashes, colons, and asterisks become dashes; other
// unsafe characters are removed, runs of whitespace collapse to single
// spaces, and the result is trimmed. An empty result falls back to "product".
func SanitizeTitle(name string) string {
	name = titleReplacer.Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	name = strings.Trim(name, ". ")
	if name == "" {
		return "product"
	}
	return name
}
