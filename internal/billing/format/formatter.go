// Package format renders invoice numbers from an operator supplied template.
package format

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	tokenRe  = regexp.MustCompile(`\{[^{}]*\}`)
	seqPadRe = regexp.MustCompile(`^\{SEQ(\d+)\}$`)

	ErrEmptyTemplate   = errors.New("invoice number template is empty")
	ErrMissingSequence = errors.New("invoice number template has no sequence token")
	ErrInvalidSequence = errors.New("invoice sequence must be positive")
)

// Template is a parsed invoice number template. Supported tokens are {YYYY},
// {YY}, {MM}, {DD}, {SEQ} and {SEQn} where n is the zero padded width.
type Template struct {
	raw string
}

// Parse checks that every token is known and that a sequence token is present,
// so that two invoices of the same year never render the same number.
func Parse(raw string) (Template, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Template{}, ErrEmptyTemplate
	}

	hasSeq := false
	for _, token := range tokenRe.FindAllString(raw, -1) {
		switch {
		case token == "{YYYY}", token == "{YY}", token == "{MM}", token == "{DD}":
		case token == "{SEQ}":
			hasSeq = true
		case seqPadRe.MatchString(token):
			width, err := strconv.Atoi(seqPadRe.FindStringSubmatch(token)[1])
			if err != nil || width <= 0 || width > 12 {
				return Template{}, fmt.Errorf("invalid sequence width in %s", token)
			}
			hasSeq = true
		default:
			return Template{}, fmt.Errorf("unknown token %s in invoice number template", token)
		}
	}
	if !hasSeq {
		return Template{}, ErrMissingSequence
	}

	stripped := tokenRe.ReplaceAllString(raw, "")
	if strings.ContainsAny(stripped, "{}") {
		return Template{}, fmt.Errorf("unbalanced braces in invoice number template %q", raw)
	}
	return Template{raw: raw}, nil
}

// Format renders the number of the seq-th invoice issued at issuedAt.
func (t Template) Format(issuedAt time.Time, seq int64) (string, error) {
	if seq <= 0 {
		return "", ErrInvalidSequence
	}

	return tokenRe.ReplaceAllStringFunc(t.raw, func(token string) string {
		switch token {
		case "{YYYY}":
			return issuedAt.Format("2006")
		case "{YY}":
			return issuedAt.Format("06")
		case "{MM}":
			return issuedAt.Format("01")
		case "{DD}":
			return issuedAt.Format("02")
		case "{SEQ}":
			return strconv.FormatInt(seq, 10)
		}
		width, _ := strconv.Atoi(seqPadRe.FindStringSubmatch(token)[1])
		return fmt.Sprintf("%0*d", width, seq)
	}), nil
}

func (t Template) String() string { return t.raw }
