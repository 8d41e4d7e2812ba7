// README: Common money value object used across modules.
package types

// DefaultCurrency is applied to fares recorded without a currency.
const DefaultCurrency = "INR"

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func Fare(amount int64) Money {
	return Money{Amount: amount, Currency: DefaultCurrency}
}
