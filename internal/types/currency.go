package types

import (
	"strings"

	ierr "github.com/flexprice/billingcore/internal/errors"
)

// CURRENCY_CODES_SYMBOLS is a map of 3 digit ISO currency codes to their symbols
var CURRENCY_CODES_SYMBOLS = map[string]string{
	"usd": "$",
	"eur": "€",
	"gbp": "£",
	"aud": "AU$",
	"cad": "CA$",
	"chf": "CHF",
	"sek": "kr",
	"nzd": "NZ$",
	"hkd": "HK$",
	"sgd": "S$",
	"jpy": "¥",
	"cny": "¥",
	"inr": "₹",
	"brl": "R$",
	"mxn": "MX$",
	"krw": "₩",
	"zar": "R",
}

// currencyPrecision lists currencies whose minor unit is not 1/100 of the major unit
var currencyPrecision = map[string]int32{
	"jpy": 0,
	"krw": 0,
	"clp": 0,
	"vnd": 0,
	"bhd": 3,
	"kwd": 3,
	"omr": 3,
}

// GetCurrencySymbol returns the symbol for a given currency code
// if the code is not found, it returns the code itself
func GetCurrencySymbol(code string) string {
	if symbol, ok := CURRENCY_CODES_SYMBOLS[NormalizeCurrency(code)]; ok {
		return symbol
	}
	return code
}

// GetCurrencyPrecision returns the number of decimal places of the currency's minor unit
func GetCurrencyPrecision(code string) int32 {
	if p, ok := currencyPrecision[NormalizeCurrency(code)]; ok {
		return p
	}
	return 2
}

// NormalizeCurrency lowercases and trims a currency code. All currency
// comparisons in the billing engines go through this function.
func NormalizeCurrency(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// ValidateCurrencyCode checks the code is a 3 letter ISO code
func ValidateCurrencyCode(code string) error {
	c := NormalizeCurrency(code)
	if len(c) != 3 {
		return ierr.NewError("invalid currency code").
			WithHint("Currency must be a 3 letter ISO code").
			WithReportableDetails(map[string]any{
				"currency": code,
			}).
			Mark(ierr.ErrValidation)
	}
	for _, r := range c {
		if r < 'a' || r > 'z' {
			return ierr.NewError("invalid currency code").
				WithHint("Currency must be a 3 letter ISO code").
				WithReportableDetails(map[string]any{
					"currency": code,
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// IsMatchingCurrency checks if two currencies are the same
func IsMatchingCurrency(a, b string) bool {
	return NormalizeCurrency(a) == NormalizeCurrency(b)
}
