package sensitivity

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

type rule struct {
	keyword string
	pattern *regexp.Regexp
}

func keywords(words ...string) []rule {
	rules := make([]rule, len(words))
	for i, w := range words {
		rules[i] = rule{
			keyword: w,
			pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`),
		}
	}
	return rules
}

var (
	redKeywords = keywords(
		"credit card", "card number", "cvv", "cvc", "pan", "pancard",
		"aadhaar", "aadhar", "ssn", "passport", "bank account",
		"account number", "pin", "atm", "upi",
	)

	yellowKeywords = keywords(
		"invoice", "loan", "balance", "account summary", "payment",
		"transaction", "salary", "payslip", "profit", "revenue",
		"client", "employee", "confidential", "internal", "statement",
	)

	greenKeywords = keywords(
		"rbi", "policy", "guideline", "announcement", "public",
		"press release", "faq", "terms and conditions",
	)

	// Digit shapes accept any decimal digit script and any space separator,
	// so full-width or Devanagari numbers and NBSP-joined groups still match.
	// Go's \b is ASCII-only, so the run boundary is spelled out as "not a
	// letter, digit or underscore".
	cardPattern     = regexp.MustCompile(`(?:\p{Nd}{4}[-\s\p{Zs}]?){3}\p{Nd}{4}`)
	digitSeqPattern = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])\p{Nd}{12,19}(?:[^\p{L}\p{N}_]|$)`)
)

// stripDigitNoise removes whitespace of any script and hyphens.
func stripDigitNoise(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return r
	}, s)
}

// Rules applies the deterministic rule stage. The boolean is false when no
// rule matched and the model stage should decide.
func Rules(query string) (Result, bool) {
	if r, ok := match(query, redKeywords); ok {
		return Result{
			Label:      Red,
			Confidence: 1.0,
			Reason:     fmt.Sprintf("Matched sensitive keyword '%s'", r.keyword),
			Stage:      StageRules,
		}, true
	}

	if cardPattern.MatchString(query) || digitSeqPattern.MatchString(stripDigitNoise(query)) {
		return Result{
			Label:      Red,
			Confidence: 0.99,
			Reason:     "Detected credit-card-like digit sequence",
			Stage:      StageRules,
		}, true
	}

	if r, ok := match(query, yellowKeywords); ok {
		return Result{
			Label:      Yellow,
			Confidence: 0.8,
			Reason:     fmt.Sprintf("Matched business-related keyword '%s'", r.keyword),
			Stage:      StageRules,
		}, true
	}

	if r, ok := match(query, greenKeywords); ok {
		return Result{
			Label:      Green,
			Confidence: 0.9,
			Reason:     fmt.Sprintf("Matched public keyword '%s'", r.keyword),
			Stage:      StageRules,
		}, true
	}

	return Result{}, false
}

func match(query string, rules []rule) (rule, bool) {
	for _, r := range rules {
		if r.pattern.MatchString(query) {
			return r, true
		}
	}
	return rule{}, false
}
