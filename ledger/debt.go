package ledger

import (
	"fmt"
	"strings"
	"time"

	"debtbook/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultDebtLabel подпись долга, если пользователь ее не задал
const DefaultDebtLabel = "First invoice"

// NewDebtParams параметры регистрации нового долга
type NewDebtParams struct {
	CustomerID string
	Label      string
	Amount     decimal.Decimal // сумма в валюте
	Type       models.DebtType
	GoldPrice  *decimal.Decimal // цена грамма на момент регистрации, только для GOLD
	Months     int
	StartDate  time.Time
}

// NewDebt регистрирует долг и строит его график. Цена золота фиксируется
// один раз и дальше не пересчитывается.
func NewDebt(p NewDebtParams, now time.Time) (models.Debt, error) {
	if !p.Amount.IsPositive() {
		return models.Debt{}, fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	}

	amount := p.Amount.Round(CurrencyScale)
	startDate := p.StartDate
	if startDate.IsZero() {
		startDate = now
	}
	label := strings.TrimSpace(p.Label)
	if label == "" {
		label = DefaultDebtLabel
	}

	debt := models.Debt{
		ID:          uuid.NewString(),
		CustomerID:  p.CustomerID,
		Label:       label,
		AmountInEGP: amount,
		Type:        p.Type,
		MonthsCount: p.Months,
		StartDate:   startDate,
		History:     []models.PaymentRecord{},
		Images:      []models.DebtImage{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if p.Type == models.DebtTypeGold {
		if p.GoldPrice == nil || !p.GoldPrice.IsPositive() {
			return models.Debt{}, fmt.Errorf("%w: no registered price for gold debt", ErrGoldPriceRequired)
		}
		price := p.GoldPrice.Round(CurrencyScale)
		grams := amount.Div(price).Round(GramScale)
		if !grams.IsPositive() {
			return models.Debt{}, fmt.Errorf("%w: amount is below one milligram of gold", ErrInvalidArgument)
		}
		debt.GoldPriceAtRegistration = &price
		debt.GoldGrams = &grams
	}

	installments, err := GenerateInstallments(amount, p.Months, p.Type, debt.GoldGrams, startDate)
	if err != nil {
		return models.Debt{}, err
	}
	for i := range installments {
		installments[i].DebtID = debt.ID
	}
	debt.Installments = installments

	return debt, nil
}
