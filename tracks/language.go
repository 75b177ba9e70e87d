package tracks

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// specialLanguageCodes covers the ISO 639 collective and special-purpose codes that have no
// useful display name.
var specialLanguageCodes = map[string]string{
	"mul": "Multiple Languages",
	"und": "Default",
	"zxx": "Not applicable",
	"mis": "Miscellaneous",
	"art": "Constructed",
	"sgn": "Sign Languages",
	"cpe": "English-based Creoles and Pidgins",
	"cpf": "French-based Creoles and Pidgins",
	"cpp": "Portuguese-based Creoles and Pidgins",
}

// LanguageName converts a language code into an English display name. Collective codes get
// fixed names, the qaa..qtz private-use range is called out as such, and anything that does
// not parse is rendered as unrecognized while preserving the raw code.
func LanguageName(code string) string {
	if code == "" {
		return ""
	}
	lower := strings.ToLower(code)

	if name, ok := specialLanguageCodes[lower]; ok {
		return name
	}
	if len(lower) == 3 && lower[0] == 'q' && lower[1] >= 'a' && lower[1] <= 't' {
		return "Reserved for local use"
	}

	tag, err := language.Parse(code)
	if err != nil {
		return fmt.Sprintf("Unrecognized (%s)", code)
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return fmt.Sprintf("Unrecognized (%s)", code)
	}
	return capitalize(name)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
