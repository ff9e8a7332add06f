// Package currency converts donation amounts between INR and the PayPal
// settlement currency.
package currency

import (
	"fmt"
	"math"
)

// ratesPerUSD maps currency codes to the number of local currency units per
// 1 USD. INR is the only corridor the site needs; the rate is a fixed
// operational constant, not a live feed.
var ratesPerUSD = map[string]float64{
	"USD": 1.0,
	"INR": 83.0,
}

// Convert converts amount from one currency to another, rounding half-up to
// 2 decimal places. Identical from/to returns the amount unchanged. The
// amount is assumed positive and validated upstream.
func Convert(amount float64, from, to string) (float64, error) {
	if from == to {
		return amount, nil
	}
	fromRate, ok := ratesPerUSD[from]
	if !ok {
		return 0, fmt.Errorf("unsupported currency: %s", from)
	}
	toRate, ok := ratesPerUSD[to]
	if !ok {
		return 0, fmt.Errorf("unsupported currency: %s", to)
	}
	return round2(amount / fromRate * toRate), nil
}

// Rate returns the exchange rate for a currency (units per 1 USD).
func Rate(currency string) (float64, error) {
	rate, ok := ratesPerUSD[currency]
	if !ok {
		return 0, fmt.Errorf("unsupported currency: %s", currency)
	}
	return rate, nil
}

func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
