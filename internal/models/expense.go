package models

import "time"

// Currency is the currency an expense was paid in
type Currency string

const (
	CurrencyKRW Currency = "KRW"
	CurrencyJPY Currency = "JPY"
	CurrencyUSD Currency = "USD"
	CurrencyCNY Currency = "CNY"
)

// Valid reports whether c is a supported currency
func (c Currency) Valid() bool {
	switch c {
	case CurrencyKRW, CurrencyJPY, CurrencyUSD, CurrencyCNY:
		return true
	}
	return false
}

// Symbol returns the display symbol for the currency
func (c Currency) Symbol() string {
	switch c {
	case CurrencyJPY, CurrencyCNY:
		return "¥"
	case CurrencyUSD:
		return "$"
	default:
		return "₩"
	}
}

// Expense is a shared cost stored at trips/{tripId}/expenses/{id}.
// Payer, SplitWith and Settled hold participant uids.
type Expense struct {
	ID        string    `firestore:"-" json:"id"`
	Item      string    `firestore:"item" json:"item"`
	Amount    float64   `firestore:"amount" json:"amount"`
	Currency  Currency  `firestore:"currency" json:"currency"`
	AmountKRW float64   `firestore:"amountKRW" json:"amount_krw"` // settlement currency
	Payer     string    `firestore:"payer" json:"payer"`
	SplitWith []string  `firestore:"splitWith" json:"split_with"`
	Settled   []string  `firestore:"settled" json:"settled"`
	Date      time.Time `firestore:"date" json:"date"`
	Revision  int64     `firestore:"revision" json:"revision"`
}

// CanonicalAmount returns the amount used for settlement math
func (e Expense) CanonicalAmount() float64 {
	if e.AmountKRW != 0 {
		return e.AmountKRW
	}
	return e.Amount
}
