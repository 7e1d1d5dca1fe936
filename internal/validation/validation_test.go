package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
)

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"usd", "USD", false},
		{" inr ", "INR", false},
		{"", "", false},
		{"US", "", true},
		{"EURO", "", true},
		{"U$D", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeCurrency(tt.input)
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrInvalidCurrency) {
					t.Errorf("Expected ErrInvalidCurrency, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("NormalizeCurrency(%q) = %q, %v; want %q", tt.input, got, err, tt.want)
			}
		})
	}
}

func TestValidatePriceQuery(t *testing.T) {
	t.Run("normalizes and dedupes keys", func(t *testing.T) {
		q, err := ValidatePriceQuery("Stock", []string{"AAPL", " ", "MSFT", "AAPL"}, "usd")
		if err != nil {
			t.Fatalf("ValidatePriceQuery() returned unexpected error: %v", err)
		}
		if q.Class != model.ClassStock || q.Currency != "USD" {
			t.Errorf("Unexpected query %+v", q)
		}
		if strings.Join(q.Keys, ",") != "AAPL,MSFT" {
			t.Errorf("Expected AAPL,MSFT, got %v", q.Keys)
		}
	})

	t.Run("collects every invalid field", func(t *testing.T) {
		_, err := ValidatePriceQuery("bond", nil, "dollars")

		var verr *Error
		if !errors.As(err, &verr) {
			t.Fatalf("Expected *Error, got %v", err)
		}
		for _, field := range []string{"class", "key", "currency"} {
			if _, ok := verr.Fields[field]; !ok {
				t.Errorf("Expected %s field error, got %v", field, verr.Fields)
			}
		}
	})

	t.Run("missing class", func(t *testing.T) {
		_, err := ValidatePriceQuery("", []string{"AAPL"}, "")

		var verr *Error
		if !errors.As(err, &verr) || verr.Fields["class"] != "class is required" {
			t.Errorf("Expected class required error, got %v", err)
		}
	})
}

func TestValidateFundName(t *testing.T) {
	if got, err := ValidateFundName("  HDFC Top 100 "); err != nil || got != "HDFC Top 100" {
		t.Errorf("Expected trimmed name, got %q, %v", got, err)
	}
	if _, err := ValidateFundName("   "); err == nil {
		t.Error("Expected error for blank name")
	}
	if _, err := ValidateFundName(strings.Repeat("x", 201)); err == nil {
		t.Error("Expected error for overlong name")
	}
}
