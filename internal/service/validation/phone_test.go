package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/validation-api/internal/model"
)

var (
	nzCountry = &model.Country{ID: 2, Code: "NZ", PhonePrefix: "+64", TrunkPrefix: "0"}
	ukCountry = &model.Country{ID: 3, Code: "GB", PhonePrefix: "+44", TrunkPrefix: "0"}
	usCountry = &model.Country{ID: 4, Code: "US", PhonePrefix: "+1", TrunkPrefix: ""}
)

func TestCleanPhone(t *testing.T) {
	assert.Equal(t, "0412345678", CleanPhone(" 0412 345-678 "))
	assert.Equal(t, "+61412345678", CleanPhone("+61 (4) 12.345.678"))
}

func TestToCanonical(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name    string
		local   string
		country *model.Country
		want    string
	}{
		{"AU trunk prefix replaced", "0412345678", auCountry, "+61412345678"},
		{"NZ trunk prefix replaced", "0211234567", nzCountry, "+64211234567"},
		{"UK trunk prefix replaced", "07911123456", ukCountry, "+447911123456"},
		{"NANP has no trunk digit", "2125551234", usCountry, "+12125551234"},
		{"already international passes through", "+61412345678", auCountry, "+61412345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.ToCanonical(tt.local, tt.country))
		})
	}
}

func TestToDisplay_StripPrefixOff(t *testing.T) {
	n := NewNormalizer()
	rule := &model.ValidationRule{StripPrefix: false}

	// The stored international form already is the local convention.
	assert.Equal(t, "+447911123456", n.ToDisplay("+447911123456", rule, ukCountry))
}

func TestToDisplay_StripPrefixOn(t *testing.T) {
	n := NewNormalizer()
	rule := &model.ValidationRule{StripPrefix: true}

	assert.Equal(t, "0412345678", n.ToDisplay("+61412345678", rule, auCountry))
	assert.Equal(t, "2125551234", n.ToDisplay("+12125551234", rule, usCountry))
}

func TestToDisplay_SpacingPattern(t *testing.T) {
	n := NewNormalizer()
	rule := &model.ValidationRule{StripPrefix: true, SpacingPattern: "#### ### ###"}

	assert.Equal(t, "0412 345 678", n.ToDisplay("+61412345678", rule, auCountry))
}

// Display derivation must be the exact inverse of canonicalization for
// every supported country's local convention.
func TestPhoneRoundTrip(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name    string
		local   string
		country *model.Country
		spacing string
	}{
		{"AU mobile", "0412345678", auCountry, ""},
		{"AU mobile with grouping", "0412 345 678", auCountry, "#### ### ###"},
		{"NZ mobile", "0211234567", nzCountry, ""},
		{"UK mobile", "07911123456", ukCountry, ""},
		{"US number", "2125551234", usCountry, ""},
		{"US number with grouping", "212 555 1234", usCountry, "### ### ####"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := &model.ValidationRule{StripPrefix: true, SpacingPattern: tt.spacing}
			canonical := n.ToCanonical(CleanPhone(tt.local), tt.country)
			assert.Equal(t, tt.local, n.ToDisplay(canonical, rule, tt.country))
		})
	}
}

func TestApplySpacing(t *testing.T) {
	assert.Equal(t, "0412 345 678", applySpacing("0412345678", "#### ### ###"))
	assert.Equal(t, "0412345678", applySpacing("0412345678", ""))
	// Input longer than the pattern keeps its tail.
	assert.Equal(t, "0412 345678999", applySpacing("0412345678999", "#### "))
	// Short input never panics.
	assert.Equal(t, "041", applySpacing("041", "#### ### ###"))
}
