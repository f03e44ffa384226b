package ledger

import (
	"fmt"
	"time"

	"debtbook/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// CurrencyScale число знаков после запятой для денежных сумм
	CurrencyScale int32 = 2
	// GramScale число знаков после запятой для граммов золота
	GramScale int32 = 3
)

// AllowedMonths допустимые сроки рассрочки
var AllowedMonths = []int{3, 6, 9, 12, 18, 24, 36}

// IsAllowedMonths проверяет, что срок входит в допустимый набор
func IsAllowedMonths(months int) bool {
	for _, m := range AllowedMonths {
		if m == months {
			return true
		}
	}
	return false
}

// Scale возвращает точность единицы учета для типа долга
func Scale(t models.DebtType) int32 {
	if t == models.DebtTypeGold {
		return GramScale
	}
	return CurrencyScale
}

// GenerateInstallments строит график из months ежемесячных платежей.
// Базовая сумма усекается до точности единицы учета, остаток от округления
// уходит в последний платеж, поэтому сумма графика всегда равна основному долгу.
func GenerateInstallments(principal decimal.Decimal, months int, t models.DebtType, goldGrams *decimal.Decimal, startDate time.Time) ([]models.Installment, error) {
	if !IsAllowedMonths(months) {
		return nil, fmt.Errorf("%w: months must be one of %v, got %d", ErrInvalidArgument, AllowedMonths, months)
	}
	if !principal.IsPositive() {
		return nil, fmt.Errorf("%w: principal must be positive", ErrInvalidArgument)
	}

	var native decimal.Decimal
	switch t {
	case models.DebtTypeCash:
		native = principal
	case models.DebtTypeGold:
		if goldGrams == nil || !goldGrams.IsPositive() {
			return nil, fmt.Errorf("%w: gold debt has no grams", ErrGoldPriceRequired)
		}
		native = *goldGrams
	default:
		return nil, fmt.Errorf("%w: unknown debt type %q", ErrInvalidArgument, t)
	}

	scale := Scale(t)
	native = native.Round(scale)
	count := decimal.NewFromInt(int64(months))
	base := native.Div(count).Truncate(scale)
	last := native.Sub(base.Mul(decimal.NewFromInt(int64(months - 1))))

	installments := make([]models.Installment, months)
	for i := 0; i < months; i++ {
		amount := base
		if i == months-1 {
			amount = last
		}
		installments[i] = models.Installment{
			ID:         uuid.NewString(),
			Seq:        i + 1,
			DueDate:    AddMonths(startDate, i),
			Amount:     amount,
			Paid:       false,
			PaidAmount: decimal.Zero,
		}
	}

	return installments, nil
}
