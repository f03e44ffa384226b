package ledger

import (
	"fmt"
	"time"

	"debtbook/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ToggleInstallment отмечает один платеж оплаченным или снимает отметку.
// Переноса на соседние платежи нет. При отметке в историю добавляется запись
// со ссылкой на платеж, при снятии отметки такие записи удаляются.
func ToggleInstallment(d models.Debt, installmentID string, now time.Time) (models.Debt, error) {
	idx := -1
	for i := range d.Installments {
		if d.Installments[i].ID == installmentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return d, fmt.Errorf("%w: %s", ErrInstallmentNotFound, installmentID)
	}

	out := d.Clone()
	inst := &out.Installments[idx]

	if !inst.Paid {
		inst.PaidAmount = inst.Amount
		markPaid(inst, now)
		out.History = append(out.History, models.PaymentRecord{
			ID:        uuid.NewString(),
			DebtID:    out.ID,
			Date:      now,
			Amount:    inst.Amount,
			Type:      models.RecordTypePayment,
			Note:      toggleNote(out, idx),
			RelatedID: installmentID,
		})
		return out, nil
	}

	inst.Paid = false
	inst.PaidAmount = decimal.Zero
	inst.PaymentDate = nil

	history := make([]models.PaymentRecord, 0, len(out.History))
	for _, rec := range out.History {
		if rec.RelatedID != installmentID {
			history = append(history, rec)
		}
	}
	out.History = history

	return out, nil
}

func toggleNote(d models.Debt, idx int) string {
	inst := d.Installments[idx]
	if d.IsGold() && d.GoldPriceAtRegistration != nil {
		cash := inst.Amount.Mul(*d.GoldPriceAtRegistration).Round(CurrencyScale)
		return fmt.Sprintf("Installment #%d paid (cash value %s EGP)", idx+1, cash.StringFixed(CurrencyScale))
	}
	return fmt.Sprintf("Installment #%d paid", idx+1)
}
