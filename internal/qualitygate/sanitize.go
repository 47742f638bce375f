package qualitygate

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"unicode"
)

const (
	maxNotesRunes   = 200
	maxBullets      = 5
	maxBulletRunes  = 200
	maxChecks       = 20
	maxRuleRunes    = 64
	maxDetailRunes  = 200
	maxOmitSections = 6
)

// ErrMalformedQa is returned when an advisory response cannot be trusted
// at all.
var ErrMalformedQa = errors.New("advisory response was not a valid QA result")

// SanitizeQaResult rebuilds a QaResult from an untrusted JSON body. Only
// "pass" is mandatory; every other field is checked on its own and
// replaced by its empty value when it does not conform. Section names
// outside OmittableSections are dropped.
func SanitizeQaResult(body []byte) (QaResult, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return QaResult{}, ErrMalformedQa
	}
	var pass bool
	switch string(bytes.TrimSpace(raw["pass"])) {
	case "true":
		pass = true
	case "false":
	default:
		return QaResult{}, ErrMalformedQa
	}

	return QaResult{
		Pass:             pass,
		Severity:         sanitizeSeverity(raw["severity"]),
		OmitSections:     sanitizeOmit(raw["omitSections"]),
		NotesForUser:     sanitizeText(stringField(raw["notesForUser"]), maxNotesRunes),
		NarrativeBullets: sanitizeBullets(raw["narrativeBullets"]),
		Checks:           sanitizeChecks(raw["checks"]),
	}, nil
}

func stringField(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

func sanitizeSeverity(raw json.RawMessage) Severity {
	switch sev := Severity(strings.ToLower(strings.TrimSpace(stringField(raw)))); sev {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return sev
	default:
		return SeverityLow
	}
}

func sanitizeOmit(raw json.RawMessage) []string {
	out := []string{}
	for _, name := range stringList(raw) {
		name = strings.TrimSpace(name)
		if !isOmittable(name) || slices.Contains(out, name) {
			continue
		}
		out = append(out, name)
		if len(out) == maxOmitSections {
			break
		}
	}
	return out
}

func sanitizeBullets(raw json.RawMessage) []string {
	out := []string{}
	for _, b := range stringList(raw) {
		b = sanitizeText(b, maxBulletRunes)
		if b == "" {
			continue
		}
		out = append(out, b)
		if len(out) == maxBullets {
			break
		}
	}
	return out
}

func sanitizeChecks(raw json.RawMessage) []Check {
	out := []Check{}
	if len(raw) == 0 {
		return out
	}
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return out
	}
	for _, elem := range items {
		var item map[string]json.RawMessage
		if json.Unmarshal(elem, &item) != nil || item == nil {
			continue
		}
		rule := sanitizeText(stringField(item["rule"]), maxRuleRunes)
		if rule == "" {
			continue
		}
		result := strings.ToLower(strings.TrimSpace(stringField(item["result"])))
		switch result {
		case CheckOK, CheckWarn, CheckFail:
		default:
			result = CheckWarn
		}
		out = append(out, Check{
			Rule:   rule,
			Result: result,
			Detail: sanitizeText(stringField(item["detail"]), maxDetailRunes),
		})
		if len(out) == maxChecks {
			break
		}
	}
	return out
}

// sanitizeText drops control characters, collapses whitespace and cuts the
// result to n runes.
func sanitizeText(s string, n int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	runes := []rune(cleaned)
	if len(runes) > n {
		cleaned = strings.TrimSpace(string(runes[:n]))
	}
	return cleaned
}
