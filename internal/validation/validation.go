package validation

import (
	"fmt"
	"strings"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
)

// MaxPriceKeys bounds the number of keys in one price lookup.
const MaxPriceKeys = 100

// NormalizeCurrency upper-cases and validates an optional currency code.
// An empty string is valid and stays empty.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", nil
	}
	if len(code) != 3 {
		return "", fmt.Errorf("%w: %s", apperrors.ErrInvalidCurrency, code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: %s", apperrors.ErrInvalidCurrency, code)
		}
	}
	return code, nil
}

// PriceQuery is a validated price lookup.
type PriceQuery struct {
	Class    model.InstrumentClass
	Keys     []string
	Currency string
}

// ValidatePriceQuery checks the class, keys and currency of a price lookup.
// Blank keys are dropped and duplicates removed, keeping first occurrence order.
func ValidatePriceQuery(class string, keys []string, currency string) (PriceQuery, error) {
	errors := make(map[string]string)
	query := PriceQuery{Class: model.InstrumentClass(strings.ToLower(strings.TrimSpace(class)))}

	if query.Class == "" {
		errors["class"] = "class is required"
	} else if !query.Class.Valid() {
		errors["class"] = fmt.Sprintf("class must be one of %s, %s, %s", model.ClassMutualFund, model.ClassStock, model.ClassCrypto)
	}

	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		query.Keys = append(query.Keys, k)
	}
	switch {
	case len(query.Keys) == 0:
		errors["key"] = apperrors.ErrMissingKey.Error()
	case len(query.Keys) > MaxPriceKeys:
		errors["key"] = fmt.Sprintf("at most %d keys are allowed", MaxPriceKeys)
	}

	normalized, err := NormalizeCurrency(currency)
	if err != nil {
		errors["currency"] = "currency must be a 3-letter code"
	}
	query.Currency = normalized

	if len(errors) > 0 {
		return PriceQuery{}, &Error{Fields: errors}
	}
	return query, nil
}

// ValidateFundName checks the name parameter of a fund match request.
func ValidateFundName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &Error{Fields: map[string]string{"name": apperrors.ErrMissingName.Error()}}
	}
	if len(name) > 200 {
		return "", &Error{Fields: map[string]string{"name": "name must be 200 characters or less"}}
	}
	return name, nil
}
