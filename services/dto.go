package services

import (
	"time"

	"debtbook/ledger"
	"debtbook/models"
	"debtbook/utils"

	"github.com/shopspring/decimal"
)

// CreateDebtDTO представляет данные для регистрации долга
type CreateDebtDTO struct {
	Label     string          `json:"label" validate:"max=100"`
	Amount    float64         `json:"amount" validate:"required,gt=0"`
	Type      models.DebtType `json:"type" validate:"required,oneof=CASH GOLD"`
	Months    int             `json:"months" validate:"required,oneof=3 6 9 12 18 24 36"`
	StartDate *time.Time      `json:"start_date,omitempty"`
	GoldPrice *float64        `json:"gold_price,omitempty" validate:"omitempty,gt=0"`
}

// CreateCustomerDTO представляет данные для создания клиента вместе с первым долгом
type CreateCustomerDTO struct {
	Name  string        `json:"name" validate:"required,notblank,max=100"`
	Phone string        `json:"phone" validate:"required,notblank,max=20"`
	Debt  CreateDebtDTO `json:"debt"`
}

// RenameDebtDTO представляет новую подпись долга
type RenameDebtDTO struct {
	Label string `json:"label" validate:"max=100"`
}

// PaymentDTO представляет данные платежа.
// InCash означает, что сумма введена в валюте; для золотого долга она
// переводится в граммы по цене регистрации.
type PaymentDTO struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	InCash bool    `json:"in_cash"`
}

// AdjustmentDTO представляет данные увеличения долга
type AdjustmentDTO struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Reason string  `json:"reason" validate:"required,notblank,max=255"`
}

// ListFilter параметры списка клиентов
type ListFilter struct {
	Query  string `validate:"max=100"`
	Tab    string `validate:"omitempty,oneof=active archived"`
	Status string `validate:"omitempty,oneof=all overdue has_balance fully_paid"`
	Type   string `validate:"omitempty,oneof=all cash gold"`
	Sort   string `validate:"omitempty,oneof=newest oldest name debt_desc"`
}

// InstallmentDTO представляет платеж графика
type InstallmentDTO struct {
	ID          string          `json:"id"`
	Seq         int             `json:"seq"`
	DueDate     time.Time       `json:"due_date"`
	Amount      decimal.Decimal `json:"amount"`
	Paid        bool            `json:"paid"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Outstanding decimal.Decimal `json:"outstanding"`
	PaymentDate *time.Time      `json:"payment_date,omitempty"`
	IsOverdue   bool            `json:"is_overdue"`
}

// DebtResponseDTO представляет долг вместе с расчетными показателями
type DebtResponseDTO struct {
	ID                      string                 `json:"id"`
	CustomerID              string                 `json:"customer_id"`
	Label                   string                 `json:"label"`
	Type                    models.DebtType        `json:"type"`
	AmountInEGP             decimal.Decimal        `json:"amount_in_egp"`
	GoldPriceAtRegistration *decimal.Decimal       `json:"gold_price_at_registration,omitempty"`
	GoldGrams               *decimal.Decimal       `json:"gold_grams,omitempty"`
	MonthsCount             int                    `json:"months_count"`
	StartDate               time.Time              `json:"start_date"`
	Paid                    decimal.Decimal        `json:"paid"`
	Remaining               decimal.Decimal        `json:"remaining"`
	Principal               decimal.Decimal        `json:"principal"`
	RemainingCashValue      decimal.Decimal        `json:"remaining_cash_value"`
	RemainingText           string                 `json:"remaining_text"`
	Progress                int                    `json:"progress"`
	PaidCount               int                    `json:"paid_count"`
	TotalInstallments       int                    `json:"total_installments"`
	IsOverdue               bool                   `json:"is_overdue"`
	IsSettled               bool                   `json:"is_settled"`
	NextInstallment         *InstallmentDTO        `json:"next_installment,omitempty"`
	Installments            []InstallmentDTO       `json:"installments"`
	History                 []models.PaymentRecord `json:"history"`
	Images                  []models.DebtImage     `json:"images"`
}

// CustomerSummaryDTO представляет строку списка клиентов
type CustomerSummaryDTO struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	IsArchived     bool            `json:"is_archived"`
	CreatedAt      time.Time       `json:"created_at"`
	DebtsCount     int             `json:"debts_count"`
	RemainingCash  decimal.Decimal `json:"remaining_cash"`
	RemainingGrams decimal.Decimal `json:"remaining_grams"`
	IsOverdue      bool            `json:"is_overdue"`
}

// CustomerResponseDTO представляет клиента со всеми долгами
type CustomerResponseDTO struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Phone      string            `json:"phone"`
	IsArchived bool              `json:"is_archived"`
	CreatedAt  time.Time         `json:"created_at"`
	Debts      []DebtResponseDTO `json:"debts"`
}

// PaymentPreviewDTO показывает, что спишет платеж до его проведения
type PaymentPreviewDTO struct {
	Amount         decimal.Decimal `json:"amount"` // списание в единицах долга
	AmountText     string          `json:"amount_text"`
	CashValue      decimal.Decimal `json:"cash_value"`
	CashText       string          `json:"cash_text"`
	RemainingAfter decimal.Decimal `json:"remaining_after"`
}

// MessageLinkDTO представляет готовое сообщение WhatsApp
type MessageLinkDTO struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// CashValue переводит количество в валюту по цене регистрации
func CashValue(d models.Debt, amount decimal.Decimal) decimal.Decimal {
	if d.Type != models.DebtTypeGold {
		return amount
	}
	if d.GoldPriceAtRegistration == nil {
		return decimal.Zero
	}
	return amount.Mul(*d.GoldPriceAtRegistration).Round(ledger.CurrencyScale)
}

// GramsForCash переводит сумму в валюте в граммы по цене регистрации
func GramsForCash(d models.Debt, cash decimal.Decimal) (decimal.Decimal, error) {
	if d.GoldPriceAtRegistration == nil || !d.GoldPriceAtRegistration.IsPositive() {
		return decimal.Zero, ledger.ErrGoldPriceRequired
	}
	return cash.Div(*d.GoldPriceAtRegistration).Round(ledger.GramScale), nil
}

// paymentAmount возвращает сумму платежа в единицах долга
func paymentAmount(d models.Debt, dto PaymentDTO) (decimal.Decimal, error) {
	amount := decimal.NewFromFloat(dto.Amount)
	if dto.InCash && d.Type == models.DebtTypeGold {
		return GramsForCash(d, amount.Round(ledger.CurrencyScale))
	}
	return amount, nil
}

func toInstallmentDTO(inst models.Installment, now time.Time) InstallmentDTO {
	return InstallmentDTO{
		ID:          inst.ID,
		Seq:         inst.Seq,
		DueDate:     inst.DueDate,
		Amount:      inst.Amount,
		Paid:        inst.Paid,
		PaidAmount:  inst.PaidAmount,
		Outstanding: inst.Outstanding(),
		PaymentDate: inst.PaymentDate,
		IsOverdue:   !inst.Paid && inst.DueDate.Before(now),
	}
}

// toDebtResponseDTO конвертирует модель Debt в DTO
func toDebtResponseDTO(d models.Debt, now time.Time) DebtResponseDTO {
	remaining := ledger.RemainingBalance(d)

	installments := make([]InstallmentDTO, len(d.Installments))
	for i, inst := range d.Installments {
		installments[i] = toInstallmentDTO(inst, now)
	}

	var next *InstallmentDTO
	if inst := ledger.NextInstallment(d); inst != nil {
		dto := toInstallmentDTO(*inst, now)
		next = &dto
	}

	history := d.History
	if history == nil {
		history = []models.PaymentRecord{}
	}
	images := d.Images
	if images == nil {
		images = []models.DebtImage{}
	}

	return DebtResponseDTO{
		ID:                      d.ID,
		CustomerID:              d.CustomerID,
		Label:                   d.Label,
		Type:                    d.Type,
		AmountInEGP:             d.AmountInEGP,
		GoldPriceAtRegistration: d.GoldPriceAtRegistration,
		GoldGrams:               d.GoldGrams,
		MonthsCount:             d.MonthsCount,
		StartDate:               d.StartDate,
		Paid:                    ledger.PaidAmount(d),
		Remaining:               remaining,
		Principal:               ledger.Principal(d),
		RemainingCashValue:      CashValue(d, remaining),
		RemainingText:           utils.FormatAmount(d.Type, remaining),
		Progress:                ledger.Progress(d),
		PaidCount:               ledger.PaidCount(d),
		TotalInstallments:       len(d.Installments),
		IsOverdue:               ledger.IsOverdue(d, now),
		IsSettled:               ledger.IsSettled(d),
		NextInstallment:         next,
		Installments:            installments,
		History:                 history,
		Images:                  images,
	}
}

// toCustomerResponseDTO конвертирует модель Customer в DTO
func toCustomerResponseDTO(c models.Customer, now time.Time) CustomerResponseDTO {
	debts := make([]DebtResponseDTO, len(c.Debts))
	for i, d := range c.Debts {
		debts[i] = toDebtResponseDTO(d, now)
	}
	return CustomerResponseDTO{
		ID:         c.ID,
		Name:       c.Name,
		Phone:      c.Phone,
		IsArchived: c.IsArchived,
		CreatedAt:  c.CreatedAt,
		Debts:      debts,
	}
}

// summarize считает итоги клиента для списка
func summarize(c models.Customer, now time.Time) CustomerSummaryDTO {
	summary := CustomerSummaryDTO{
		ID:             c.ID,
		Name:           c.Name,
		Phone:          c.Phone,
		IsArchived:     c.IsArchived,
		CreatedAt:      c.CreatedAt,
		DebtsCount:     len(c.Debts),
		RemainingCash:  decimal.Zero,
		RemainingGrams: decimal.Zero,
	}
	for _, d := range c.Debts {
		remaining := ledger.RemainingBalance(d)
		if d.Type == models.DebtTypeGold {
			summary.RemainingGrams = summary.RemainingGrams.Add(remaining)
		} else {
			summary.RemainingCash = summary.RemainingCash.Add(remaining)
		}
		if ledger.IsOverdue(d, now) {
			summary.IsOverdue = true
		}
	}
	return summary
}
