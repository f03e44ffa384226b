package ledger

import (
	"time"

	"debtbook/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PaidAmount возвращает сумму, фактически погашенную по всем платежам
func PaidAmount(d models.Debt) decimal.Decimal {
	paid := decimal.Zero
	for _, inst := range d.Installments {
		paid = paid.Add(inst.PaidAmount)
	}
	return paid
}

// RemainingBalance считает остаток по текущему состоянию графика, а не по
// исходной сумме: увеличения долга меняют суммы платежей.
func RemainingBalance(d models.Debt) decimal.Decimal {
	remaining := decimal.Zero
	for _, inst := range d.Installments {
		remaining = remaining.Add(inst.Outstanding())
	}
	return remaining
}

// Principal возвращает текущий основной долг с учетом увеличений
func Principal(d models.Debt) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range d.Installments {
		total = total.Add(inst.Amount)
	}
	return total
}

// Progress возвращает процент погашения, 0..100
func Progress(d models.Debt) int {
	paid := PaidAmount(d)
	total := paid.Add(RemainingBalance(d))
	if total.IsZero() {
		return 100
	}
	return int(paid.Div(total).Mul(hundred).Round(0).IntPart())
}

// PaidCount возвращает количество полностью оплаченных платежей
func PaidCount(d models.Debt) int {
	count := 0
	for _, inst := range d.Installments {
		if inst.Paid {
			count++
		}
	}
	return count
}

// NextInstallment возвращает первый неоплаченный платеж или nil
func NextInstallment(d models.Debt) *models.Installment {
	for i := range d.Installments {
		if !d.Installments[i].Paid {
			inst := d.Installments[i]
			return &inst
		}
	}
	return nil
}

// IsOverdue сообщает, есть ли неоплаченный платеж со сроком раньше now
func IsOverdue(d models.Debt, now time.Time) bool {
	for _, inst := range d.Installments {
		if !inst.Paid && inst.DueDate.Before(now) {
			return true
		}
	}
	return false
}

// IsSettled сообщает, погашен ли долг полностью
func IsSettled(d models.Debt) bool {
	return !RemainingBalance(d).IsPositive()
}
