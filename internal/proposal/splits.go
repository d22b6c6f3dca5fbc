package proposal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrMalformedSplits is returned when a split payload cannot be understood.
var ErrMalformedSplits = errors.New("malformed split rule")

// Form records which shape a stored split payload had.
type Form int

const (
	// FormEmpty is an absent or null payload.
	FormEmpty Form = iota
	// FormArray is the legacy bare [{userId, amount}] array.
	FormArray
	// FormObject is the normalized {"splits": [...]} object.
	FormObject
)

func (f Form) String() string {
	switch f {
	case FormArray:
		return "array"
	case FormObject:
		return "object"
	default:
		return "empty"
	}
}

// Split is one member's share of a proposal. Amount accepts JSON numbers and
// strings and is written back as a string.
type Split struct {
	UserID string          `json:"userId"`
	Amount decimal.Decimal `json:"amount"`
}

// SplitRule is a split payload normalized from either stored form.
type SplitRule struct {
	Form   Form
	Splits []Split
}

// Total sums the split amounts.
func (r SplitRule) Total() decimal.Decimal {
	total := decimal.Zero
	for _, s := range r.Splits {
		total = total.Add(s.Amount)
	}
	return total
}

// ParseSplitRule decodes a stored split payload in either supported form.
//
// Every entry must carry a userId and a positive amount; one bad entry makes
// the whole payload malformed. An empty payload, a null, or an empty array
// yields a rule with no splits and no error.
func ParseSplitRule(raw json.RawMessage) (SplitRule, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return SplitRule{Form: FormEmpty}, nil
	}

	var (
		rule    SplitRule
		entries []Split
	)
	switch trimmed[0] {
	case '[':
		rule.Form = FormArray
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return SplitRule{}, fmt.Errorf("%w: %v", ErrMalformedSplits, err)
		}
	case '{':
		rule.Form = FormObject
		var obj struct {
			Splits *[]Split `json:"splits"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return SplitRule{}, fmt.Errorf("%w: %v", ErrMalformedSplits, err)
		}
		if obj.Splits == nil {
			return SplitRule{}, fmt.Errorf("%w: object has no splits array", ErrMalformedSplits)
		}
		entries = *obj.Splits
	default:
		return SplitRule{}, fmt.Errorf("%w: expected array or object", ErrMalformedSplits)
	}

	for i, s := range entries {
		if s.UserID == "" {
			return SplitRule{}, fmt.Errorf("%w: entry %d has no userId", ErrMalformedSplits, i)
		}
		if !s.Amount.IsPositive() {
			return SplitRule{}, fmt.Errorf("%w: entry %d amount %s is not positive", ErrMalformedSplits, i, s.Amount)
		}
	}
	rule.Splits = entries
	return rule, nil
}

// EncodeSplitRule writes splits in the normalized object form.
func EncodeSplitRule(splits []Split) (json.RawMessage, error) {
	if splits == nil {
		splits = []Split{}
	}
	raw, err := json.Marshal(struct {
		Splits []Split `json:"splits"`
	}{Splits: splits})
	if err != nil {
		return nil, fmt.Errorf("failed to encode split rule: %w", err)
	}
	return raw, nil
}
