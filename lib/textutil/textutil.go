package textutil

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)
var digitRunRegex = regexp.MustCompile(`[0-9]+`)
var numberRegex = regexp.MustCompile(`-?[0-9]+(\.[0-9]+)?`)

func NormalizeLabel(label string) string {
	label = strings.Trim(label, " \n\t")
	label = whitespaceRegex.ReplaceAllString(label, "")
	// the portal renders punctuation inconsistently between views
	label = strings.NewReplacer("：", "", ":", "", "　", "").Replace(label)
	return label
}

// MatchLabel reports whether a rendered label refers to target,
// tolerating whitespace, punctuation and the occasional one-glyph
// rendering glitch.
func MatchLabel(label, target string) bool {
	label = NormalizeLabel(label)
	target = NormalizeLabel(target)
	if label == "" || target == "" {
		return false
	}
	if strings.Contains(label, target) {
		return true
	}
	return matchr.DamerauLevenshtein(label, target) <= 1
}

func DigitRuns(s string) []string {
	return digitRunRegex.FindAllString(s, -1)
}

// TrailingDigits extracts the last run of digits in s, which is how
// account numbers are embedded in dropdown labels ("户号2: 1234567890").
func TrailingDigits(s string) string {
	runs := DigitRuns(s)
	if len(runs) == 0 {
		return ""
	}
	return runs[len(runs)-1]
}

// LeadingDigits extracts the first run of digits in s.
func LeadingDigits(s string) string {
	runs := DigitRuns(s)
	if len(runs) == 0 {
		return ""
	}
	return runs[0]
}

// ExtractNumber pulls the first decimal number out of a rendered cell,
// ignoring units and surrounding decoration ("320.5元" -> "320.5").
func ExtractNumber(s string) string {
	s = strings.ReplaceAll(s, ",", "")
	return numberRegex.FindString(s)
}

// ParseNumber is ExtractNumber plus the parse, reporting whether the
// cell held a number at all.
func ParseNumber(s string) (float64, bool) {
	extracted := ExtractNumber(s)
	if extracted == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(extracted, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
