package domain

import (
	"sort"
	"strings"

	"github.com/smallbiznis/rentalops/internal/validation"
)

// ResyncField names a frozen line attribute that can be refreshed from the catalog.
type ResyncField string

const (
	ResyncName             ResyncField = "name"
	ResyncReference        ResyncField = "reference"
	ResyncUnitPrice        ResyncField = "unit_price"
	ResyncDegressiveRate   ResyncField = "degressive_rate"
	ResyncTaxes            ResyncField = "taxes"
	ResyncReplacementPrice ResyncField = "replacement_price"
	ResyncIsDiscountable   ResyncField = "is_discountable"
	ResyncIsHiddenOnBill   ResyncField = "is_hidden_on_bill"
)

var knownResyncFields = map[ResyncField]bool{
	ResyncName:             true,
	ResyncReference:        true,
	ResyncUnitPrice:        true,
	ResyncDegressiveRate:   true,
	ResyncTaxes:            true,
	ResyncReplacementPrice: true,
	ResyncIsDiscountable:   true,
	ResyncIsHiddenOnBill:   true,
}

// ResyncFields is the set of attributes a resync overwrites.
type ResyncFields map[ResyncField]struct{}

// ParseResyncFields validates identifiers; unknown ones are reported as fields.<i>.
func ParseResyncFields(raw []string) (ResyncFields, error) {
	var errs validation.Errors
	if len(raw) == 0 {
		errs.Add("fields", validation.CodeRequired, "at least one field is required")
		return nil, errs
	}

	fields := make(ResyncFields, len(raw))
	for i, r := range raw {
		f := ResyncField(strings.TrimSpace(r))
		if !knownResyncFields[f] {
			errs.Add(validation.Join("fields", i), validation.CodeInvalid, "unknown field "+string(f))
			continue
		}
		fields[f] = struct{}{}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return fields, nil
}

func (f ResyncFields) Has(field ResyncField) bool {
	_, ok := f[field]
	return ok
}

// Names returns the identifiers in a stable order.
func (f ResyncFields) Names() []string {
	out := make([]string, 0, len(f))
	for field := range f {
		out = append(out, string(field))
	}
	sort.Strings(out)
	return out
}
