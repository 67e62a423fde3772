package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// footnoteRefRegex matches inline footnote references like "[1]" or "[note 2]"
// left behind after their anchor elements are dropped.
var footnoteRefRegex = regexp.MustCompile(`\[(?:note )?\d+\]`)

// quoteReplacer maps typographic punctuation to plain ASCII. Every
// replacement produces characters outside the replacer's own domain, which
// keeps Clean idempotent.
var quoteReplacer = strings.NewReplacer(
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"–", "-", // en dash
	"—", "-", // em dash
	"…", "...", // ellipsis
	" ", " ", // non-breaking space
)

// mathReplacer maps mathematical Unicode to ASCII the PDF core fonts can
// render. Only applied on the table path, prose keeps its symbols.
var mathReplacer = strings.NewReplacer(
	"−", "-", // minus sign
	"×", "x", // multiplication sign
	"÷", "/", // division sign
	"≤", "<=",
	"≥", ">=",
	"≠", "!=",
	"≈", "~",
	"±", "+/-",
)

func stripSymbols(s string) string {
	out := strings.Builder{}
	out.Grow(len(s))
	for _, c := range s {
		if unicode.In(c, unicode.So, unicode.Sk, unicode.Cf) {
			continue
		}
		if !unicode.IsPrint(c) && !unicode.IsSpace(c) {
			continue
		}
		out.WriteRune(c)
	}
	return out.String()
}

// Clean normalizes extracted prose: typographic quotes and dashes to ASCII,
// emoji and other symbol runes dropped, whitespace collapsed. Idempotent.
func Clean(s string) string {
	s = quoteReplacer.Replace(s)
	s = stripSymbols(s)
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CleanTable is Clean plus math-symbol substitution for table cells.
func CleanTable(s string) string {
	return mathReplacer.Replace(Clean(s))
}

// StripFootnoteRefs removes bracketed footnote references. Standalone
// markers not wrapped in any element (a bare asterisk in running text) are
// left alone, stripping those would eat legitimate emphasis.
func StripFootnoteRefs(s string) string {
	return footnoteRefRegex.ReplaceAllString(s, "")
}

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

var unsafeFilenameRegex = regexp.MustCompile(`[\\/:*?"<>|[:cntrl:]]+`)

// SanitizeFilename derives a filesystem-safe name from a page title.
func SanitizeFilename(name string) string {
	name = Clean(name)
	name = unsafeFilenameRegex.ReplaceAllString(name, "_")
	name = strings.Trim(name, " ._")
	if len(name) > 120 {
		name = name[:120]
	}
	if name == "" {
		return "untitled"
	}
	return name
}
