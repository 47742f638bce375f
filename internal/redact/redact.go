// Package redact scrubs personal identifiers out of free-form transaction
// text. Text keeps merchant names, dates and amounts and replaces emails,
// account numbers, phone numbers, addresses and named payees with Token.
// Label additionally removes dates.
package redact

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Token replaces every redacted span.
const Token = "[REDACTED]"

type rule struct {
	name string
	re   *regexp.Regexp
	repl string
}

// Order matters: structured identifiers go first so that the looser name
// and address patterns never see half of an account number.
var rules = []rule{
	{"email", regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`), Token},
	{"iban", regexp.MustCompile(`\b[A-Z]{2}\d{2}[\s\-]?[\dA-Z]{4}[\s\-]?[\dA-Z]{4}[\s\-]?[\dA-Z]{4}(?:[\s\-]?[\dA-Z]{4}){0,5}(?:[\s\-]?[\dA-Z]{1,4})?\b`), Token},
	{"account_dashed", regexp.MustCompile(`\b\d{2}-\d{4}-\d{7,8}(?:-\d{2,3})?\b`), Token},
	{"bsb_keyword", regexp.MustCompile(`(?i)\bBSB[\s:]*\d{3}[\-\s]?\d{3}\b`), Token},
	{"bsb", regexp.MustCompile(`\b\d{3}-\d{3}\b`), Token},
	{"card_masked", regexp.MustCompile(`(?i)(?:\*{2,}|\bX{2,})[\s\-]?\d{4}\b`), Token},
	{"reference", regexp.MustCompile(`(?i)\bREF(?:ERENCE)?(?:\s*(?:No|Number|ID|#))?\s*[:#.\-\s]\s*[A-Za-z0-9\-]{3,20}\b`), Token},
	{"payee", regexp.MustCompile(`(?i)\b` + longTriggers + `[\s:]*` + personName), Token},
	// TO and FROM must stand alone so "Town" or "Fromage" never trigger.
	{"payee_short", regexp.MustCompile(`(?i)(^|\s)(?:TO|FROM)[\s:]+` + personName), "${1}" + Token},
	{"po_box", regexp.MustCompile(`(?i)\bP\.?O\.?\s*Box\s+\d+\b`), Token},
	{"street", regexp.MustCompile(`(?i)\b\d{1,5}\s+(?:[A-Z][a-z]+\s+){0,4}(?:St(?:reet)?|Rd|Road|Ave(?:nue)?|Blvd|Boulevard|Dr(?:ive)?|Ct|Court|Ln|Lane|Way|Pl(?:ace)?|Cres(?:cent)?|Tce|Terrace|Pde|Parade|Hwy|Highway|Cir(?:cle)?|Loop|Run|Trail|Pass|Pike|Row)\b(?:\s*,?\s*(?:Suite|Ste|Apt|Unit|#)\s*\w+)?`), Token},
	{"uk_postcode", regexp.MustCompile(`(?i)\b[A-Z]{1,2}\d[A-Z\d]?\s*\d[A-Z]{2}\b`), Token},
	{"phone", regexp.MustCompile(`\+\d{1,4}[\s\-]?\d{1,5}[\s\-]?\d{2,4}[\s\-]?\d{3,4}(?:[\s\-]?\d{1,4})?|\(\d{2,5}\)[\s\-]?\d{3,4}[\s\-]?\d{3,4}|\b04\d{2}[\s\-]?\d{3}[\s\-]?\d{3}\b`), Token},
}

const (
	longTriggers = `(?:PAYEE|PAYER|BENEFICIARY|RECIPIENT|SENDER|A/C NAME|ACCOUNT NAME|NAME|PAID TO|PAID BY|PAYMENT TO|PAYMENT FROM|TRANSFER TO|TRANSFER FROM|TFR TO|TFR FROM)`
	personName   = `[A-Z][a-z]+(?:\s+[A-Z]\.?)?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?\b`
)

var (
	longDigits = regexp.MustCompile(`\b\d(?:[\s\-]?\d){7,16}\b`)
	dateLike   = regexp.MustCompile(`\b\d{4}[\-/]\d{1,2}[\-/]\d{1,2}\b|\b\d{1,2}[\-/]\d{1,2}[\-/]\d{2,4}\b`)
	dateAtHead = regexp.MustCompile(`^(?:\d{4}[\-/]\d{1,2}[\-/]\d{1,2}\b|\d{1,2}[\-/]\d{1,2}[\-/]\d{2,4}\b)`)
	yearMonth  = regexp.MustCompile(`\b\d{4}[\-/](?:0?[1-9]|1[0-2])\b`)
	repeated   = regexp.MustCompile(`(?:\[REDACTED\]\s*){2,}`)
)

const currencySymbols = "$£€₹"

// minDigits is the shortest digit run treated as an account number.
const minDigits = 6

// Text returns s with personal identifiers replaced by Token.
func Text(s string) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	out := s
	for _, r := range rules {
		out = r.re.ReplaceAllString(out, r.repl)
	}
	out = redactDigitRuns(out)
	out = repeated.ReplaceAllString(out, Token+" ")
	return strings.TrimSpace(out)
}

// Label is Text for values that leave the process: dates and year-month
// stamps are replaced by Token as well.
func Label(s string) string {
	out := Text(s)
	out = dateLike.ReplaceAllString(out, Token)
	out = yearMonth.ReplaceAllString(out, Token)
	out = repeated.ReplaceAllString(out, Token+" ")
	return strings.TrimSpace(out)
}

// redactDigitRuns removes long digit sequences that are not amounts or
// dates. Context is inspected around each match, so this runs after the
// pattern rules.
func redactDigitRuns(s string) string {
	matches := longDigits.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if keepDigitRun(s, start, end) {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(Token)
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

func keepDigitRun(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if strings.ContainsRune(currencySymbols, r) {
			return true
		}
	}
	if dateAtHead.MatchString(s[start:end]) {
		return true
	}
	if dateLike.MatchString(s[max(0, start-5):min(len(s), end+5)]) {
		return true
	}
	digits := 0
	for _, r := range s[start:end] {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < minDigits {
		return true
	}
	tail := s[start:min(len(s), end+3)]
	if strings.Contains(tail, ".") {
		around := s[max(0, start-1):min(len(s), end+3)]
		if strings.ContainsAny(around, currencySymbols) {
			return true
		}
	}
	return false
}
