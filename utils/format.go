package utils

import (
	"strings"

	"debtbook/models"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencyCode код валюты, в которой ведется учет
const CurrencyCode = "EGP"

var printer = message.NewPrinter(language.English)

// FormatCurrency форматирует сумму в валюте: "1,234.50 EGP"
func FormatCurrency(v decimal.Decimal) string {
	return printer.Sprintf("%.2f", v.Round(2).InexactFloat64()) + " " + CurrencyCode
}

// FormatGrams форматирует вес золота: "6.500 g"
func FormatGrams(v decimal.Decimal) string {
	return printer.Sprintf("%.3f", v.Round(3).InexactFloat64()) + " g"
}

// FormatAmount форматирует значение в единицах учета долга
func FormatAmount(t models.DebtType, v decimal.Decimal) string {
	if t == models.DebtTypeGold {
		return FormatGrams(v) + " (24K)"
	}
	return FormatCurrency(v)
}

// ParseAmount разбирает сумму, введенную пользователем, допуская
// пробелы и разделители тысяч
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", " ", "", " ", "").Replace(strings.TrimSpace(raw))
	return decimal.NewFromString(cleaned)
}
