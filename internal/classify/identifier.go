// Package classify maps raw PO/Job candidate strings from the vision
// collaborator onto exactly one identifier kind. Classification is a
// pure, total function: every input lands in one of the four kinds,
// with Remark as the catch-all.
package classify

import (
	"regexp"
	"strings"

	"github.com/coastalmech/apflow/internal/model"
)

var (
	poHashRe    = regexp.MustCompile(`(?i)PO\s+#(\d+)`)
	tokenSep    = regexp.MustCompile(`[\n,:;\-]+`)
	digitsRe    = regexp.MustCompile(`^\d{4,6}$`)
	decimalRe   = regexp.MustCompile(`^\d{2}\.\d{2,3}$`)
	alphaNumRe  = regexp.MustCompile(`^[A-Z0-9\- ]{3,}$`)
	poDigitsRe  = regexp.MustCompile(`^\d{4}$`)
	woDigitsRe  = regexp.MustCompile(`^\d{5}$`)
	jobNumberRe = regexp.MustCompile(`^(\d{2})[.\-,\s]{1,3}(\d{2,3})([\s\-–]*[A-Za-z].*)?$`)

	labelPrefixes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bPO\s*NUMBER\s*[:\-]?\s*`),
		regexp.MustCompile(`(?i)\bCUSTOMER\s*PO\s*[:\-]?\s*`),
		regexp.MustCompile(`(?i)\bPURCHASE\s*ORDER\s*[:\-]?\s*`),
		regexp.MustCompile(`(?i)\bCUSTOMER\s*ORDER\s*NUMBER\s*[:\-]?\s*`),
	}
)

// skipWords are header words the vision model sometimes returns instead
// of an identifier.
var skipWords = map[string]struct{}{
	"description": {},
	"amount":      {},
	"invoice":     {},
	"sales":       {},
	"total":       {},
	"terms":       {},
	"date":        {},
}

// Classify strips label noise from a raw candidate string and assigns
// it to exactly one identifier kind. It never errors; an input with no
// usable identifier yields an empty Remark token.
func Classify(raw string) model.IdentifierToken {
	cleaned := CleanCandidate(raw)
	token := model.IdentifierToken{Raw: raw}

	switch {
	case poDigitsRe.MatchString(cleaned):
		token.Kind = model.KindPONumber
		token.Value = cleaned
	case woDigitsRe.MatchString(cleaned):
		token.Kind = model.KindWONumber
		token.Value = cleaned
	default:
		if m := jobNumberRe.FindStringSubmatch(cleaned); m != nil {
			// Normalize the separator to a dot and drop any free-text
			// suffix ("24-60", "24.09 - Joey Restaurant" -> "24.60",
			// "24.09").
			token.Kind = model.KindJobNumber
			token.Value = m[1] + "." + m[2]
		} else {
			token.Kind = model.KindRemark
			token.Value = cleaned
		}
	}
	return token
}

// CleanCandidate removes label prefixes, tokenizes the remainder, and
// keeps the first token that looks like an identifier. If nothing
// validates the whole cleaned string gets one last chance; failing
// that, the result is empty ("no identifier found").
func CleanCandidate(raw string) string {
	text := strings.ToUpper(strings.TrimSpace(raw))
	if text == "" || text == "NOT FOUND" || text == "NOT VISIBLE" {
		return ""
	}

	// "PO #1234" keeps only the number.
	if m := poHashRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}

	for _, re := range labelPrefixes {
		text = re.ReplaceAllString(text, "")
	}
	text = strings.TrimSpace(text)

	// Job numbers can carry the same characters the tokenizer splits
	// on ("24-60", "24,01"); test the whole string first so the
	// separators survive.
	if jobNumberRe.MatchString(text) {
		return text
	}

	for _, tok := range tokenSep.Split(text, -1) {
		tok = strings.TrimSpace(tok)
		if isValidIdentifier(tok) {
			return tok
		}
	}
	if isValidIdentifier(strings.TrimSpace(text)) {
		return strings.TrimSpace(text)
	}
	return ""
}

// isValidIdentifier is the validity predicate applied to each token:
// known header words are rejected; digit runs, NN.NN[N] decimals, and
// alphanumeric strings of length >= 3 are accepted.
func isValidIdentifier(tok string) bool {
	if tok == "" {
		return false
	}
	if _, skip := skipWords[strings.ToLower(tok)]; skip {
		return false
	}
	return digitsRe.MatchString(tok) ||
		decimalRe.MatchString(tok) ||
		alphaNumRe.MatchString(tok)
}
