package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"debtbook/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApplyPayment распределяет платеж по графику, начиная с самого раннего
// неоплаченного платежа. Остаток переходит на следующий платеж; то, что
// превышает весь долг, не учитывается. В историю добавляется одна запись
// PAYMENT на полную сумму платежа.
func ApplyPayment(d models.Debt, amount decimal.Decimal, now time.Time) (models.Debt, error) {
	amount = amount.Round(Scale(d.Type))
	if !amount.IsPositive() {
		return d, fmt.Errorf("%w: payment amount must be positive", ErrInvalidArgument)
	}

	out := d.Clone()
	left := amount
	var settled []int
	partialSeq := 0
	partialAmount := decimal.Zero

	for i := range out.Installments {
		if !left.IsPositive() {
			break
		}
		inst := &out.Installments[i]
		if inst.Paid {
			continue
		}

		due := inst.Outstanding()
		if !due.IsPositive() {
			markPaid(inst, now)
			continue
		}

		applied := decimal.Min(left, due)
		inst.PaidAmount = inst.PaidAmount.Add(applied)
		left = left.Sub(applied)

		if applied.Equal(due) {
			markPaid(inst, now)
			settled = append(settled, i+1)
		} else {
			partialSeq = i + 1
			partialAmount = applied
		}
	}

	out.History = append(out.History, models.PaymentRecord{
		ID:     uuid.NewString(),
		DebtID: out.ID,
		Date:   now,
		Amount: amount,
		Type:   models.RecordTypePayment,
		Note:   paymentNote(settled, partialSeq, partialAmount),
	})

	return out, nil
}

func markPaid(inst *models.Installment, now time.Time) {
	paidAt := now
	inst.Paid = true
	inst.PaymentDate = &paidAt
}

func paymentNote(settled []int, partialSeq int, partialAmount decimal.Decimal) string {
	var parts []string
	if len(settled) == 1 {
		parts = append(parts, "installment "+strconv.Itoa(settled[0])+" settled")
	} else if len(settled) > 1 {
		nums := make([]string, len(settled))
		for i, n := range settled {
			nums[i] = strconv.Itoa(n)
		}
		parts = append(parts, "installments "+strings.Join(nums, ", ")+" settled")
	}
	if partialSeq > 0 {
		parts = append(parts, fmt.Sprintf("installment %d partially paid (%s)", partialSeq, partialAmount.String()))
	}
	if len(parts) == 0 {
		return "Payment recorded, no outstanding installments"
	}
	return "Payment: " + strings.Join(parts, "; ")
}
