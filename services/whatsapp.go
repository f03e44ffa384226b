package services

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"debtbook/ledger"
	"debtbook/models"
	"debtbook/utils"
)

// countryCode код страны, подставляется вместо ведущего нуля
const countryCode = "2"

// NormalizePhone оставляет только цифры и заменяет ведущий 0 кодом страны
func NormalizePhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	if strings.HasPrefix(digits, "0") {
		return countryCode + digits
	}
	return digits
}

// WhatsAppLink собирает ссылку wa.me с готовым текстом
func WhatsAppLink(phone, text string) MessageLinkDTO {
	normalized := NormalizePhone(phone)
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return MessageLinkDTO{
		Phone: normalized,
		Text:  text,
		URL:   fmt.Sprintf("https://wa.me/%s?text=%s", normalized, escaped),
	}
}

// ReceiptMessage текст квитанции по записи истории
func ReceiptMessage(customer models.Customer, debt models.Debt, record models.PaymentRecord) string {
	kind := "payment"
	if record.Type == models.RecordTypeIncrease {
		kind = "debt increase"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", customer.Name)
	fmt.Fprintf(&b, "A %s of *%s* was recorded on %s.\n", kind, utils.FormatAmount(debt.Type, record.Amount), record.Date.Format("02/01/2006"))
	if record.Note != "" {
		fmt.Fprintf(&b, "Note: %s\n", record.Note)
	}
	fmt.Fprintf(&b, "\nTotal debt: %s\n", utils.FormatAmount(debt.Type, ledger.Principal(debt)))
	fmt.Fprintf(&b, "Remaining: *%s*\n\n", utils.FormatAmount(debt.Type, ledger.RemainingBalance(debt)))
	b.WriteString("Thank you for dealing with us.")
	return b.String()
}

// ReminderMessage текст напоминания о платеже графика
func ReminderMessage(customer models.Customer, debt models.Debt, inst models.Installment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", customer.Name)
	fmt.Fprintf(&b, "This is a reminder that the installment for *%s* is due.\n", inst.DueDate.Format("January 2006"))
	fmt.Fprintf(&b, "Amount due: *%s*\n\n", utils.FormatAmount(debt.Type, inst.Outstanding()))
	b.WriteString("Please settle it on time to keep your account in good standing. Thank you for your cooperation.")
	return b.String()
}
