package ledger

import (
	"fmt"
	"strings"
	"time"

	"debtbook/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdjustAmount увеличивает долг на extra и раскладывает увеличение поровну
// на неоплаченные платежи; остаток от округления получает последний из них.
// Оплаченные платежи не меняются. Если неоплаченных платежей нет, в конец
// графика добавляется новый платеж на всю сумму через месяц после последнего.
func AdjustAmount(d models.Debt, extra decimal.Decimal, reason string, now time.Time) (models.Debt, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return d, fmt.Errorf("%w: adjustment reason is required", ErrInvalidArgument)
	}
	scale := Scale(d.Type)
	extra = extra.Round(scale)
	if !extra.IsPositive() {
		return d, fmt.Errorf("%w: adjustment amount must be positive", ErrInvalidArgument)
	}

	out := d.Clone()

	var unpaid []int
	for i := range out.Installments {
		if !out.Installments[i].Paid {
			unpaid = append(unpaid, i)
		}
	}

	if len(unpaid) == 0 {
		n := len(out.Installments)
		out.Installments = append(out.Installments, models.Installment{
			ID:         uuid.NewString(),
			DebtID:     out.ID,
			Seq:        n + 1,
			DueDate:    AddMonths(out.StartDate, n),
			Amount:     extra,
			PaidAmount: decimal.Zero,
		})
		out.MonthsCount = len(out.Installments)
	} else {
		share := extra.Div(decimal.NewFromInt(int64(len(unpaid)))).Truncate(scale)
		rest := extra.Sub(share.Mul(decimal.NewFromInt(int64(len(unpaid) - 1))))
		for k, i := range unpaid {
			add := share
			if k == len(unpaid)-1 {
				add = rest
			}
			out.Installments[i].Amount = out.Installments[i].Amount.Add(add)
		}
	}

	out.History = append(out.History, models.PaymentRecord{
		ID:     uuid.NewString(),
		DebtID: out.ID,
		Date:   now,
		Amount: extra,
		Type:   models.RecordTypeIncrease,
		Note:   reason,
	})

	return out, nil
}
