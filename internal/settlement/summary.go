package settlement

import (
	"strings"

	"github.com/shopspring/decimal"

	"tripmate/internal/models"
)

type BalanceStatus string

const (
	StatusReceive BalanceStatus = "receive"
	StatusSend    BalanceStatus = "send"
	StatusSettled BalanceStatus = "settled"
)

var half = decimal.NewFromFloat(0.5)

// Balance is a participant's net position over the whole trip. Unlike Stats,
// ShouldPay includes the participant's own share of expenses they paid for.
type Balance struct {
	Participant models.Participant `json:"participant"`
	Paid        decimal.Decimal    `json:"paid"`
	ShouldPay   decimal.Decimal    `json:"should_pay"`
	Net         decimal.Decimal    `json:"net"` // whole won, positive means owed money
	Status      BalanceStatus      `json:"status"`
}

// roundWon rounds half up to whole won
func roundWon(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}

// Summarize computes p's paid/should-pay/net balance across expenses
func Summarize(p models.Participant, expenses []models.Expense) Balance {
	uid := strings.TrimSpace(p.UID)
	paid := decimal.Zero
	shouldPay := decimal.Zero

	for _, e := range expenses {
		amount := decimal.NewFromFloat(e.CanonicalAmount())
		if strings.TrimSpace(e.Payer) == uid {
			paid = paid.Add(amount)
		}
		if len(e.SplitWith) > 0 && containsTrimmed(e.SplitWith, uid) {
			shouldPay = shouldPay.Add(amount.Div(decimal.NewFromInt(int64(len(e.SplitWith)))))
		}
	}

	net := roundWon(paid.Sub(shouldPay))
	status := StatusSettled
	switch {
	case net.GreaterThanOrEqual(decimal.NewFromInt(1)):
		status = StatusReceive
	case net.LessThanOrEqual(decimal.NewFromInt(-1)):
		status = StatusSend
	}

	return Balance{
		Participant: p,
		Paid:        paid,
		ShouldPay:   roundWon(shouldPay),
		Net:         net,
		Status:      status,
	}
}

// SummarizeAll returns one Balance per participant, in participant order
func SummarizeAll(participants []models.Participant, expenses []models.Expense) []Balance {
	balances := make([]Balance, len(participants))
	for i, p := range participants {
		balances[i] = Summarize(p, expenses)
	}
	return balances
}
