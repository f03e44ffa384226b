package services

import (
	"fmt"
	"html"
	"strings"
	"time"

	"debtbook/config"
	"debtbook/ledger"
	"debtbook/models"
	"debtbook/utils"

	"gopkg.in/gomail.v2"
)

// Notifier уведомляет владельца о событиях по долгам
type Notifier interface {
	NotifyRecord(customer models.Customer, debt models.Debt, record models.PaymentRecord) error
	NotifySettled(customer models.Customer, debt models.Debt) error
	NotifyOverdue(items []OverdueItem) error
}

// mailSender отправляет сообщения; реализуется gomail.Dialer
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailService предоставляет методы для отправки email
type EmailService struct {
	dialer mailSender
	from   string
	owner  string
}

// NewEmailService создает новый экземпляр EmailService
func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &EmailService{
		dialer: dialer,
		from:   cfg.SMTP.From,
		owner:  cfg.SMTP.OwnerEmail,
	}
}

// Enabled сообщает, настроен ли адрес владельца
func (s *EmailService) Enabled() bool {
	return s.owner != "" && s.from != ""
}

// SendEmail отправляет email
func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("ошибка отправки email: %v", err)
	}

	return nil
}

// NotifyRecord отправляет владельцу квитанцию по записи истории
func (s *EmailService) NotifyRecord(customer models.Customer, debt models.Debt, record models.PaymentRecord) error {
	if !s.Enabled() {
		return nil
	}

	kind := "Payment"
	if record.Type == models.RecordTypeIncrease {
		kind = "Debt increase"
	}
	subject := fmt.Sprintf("%s recorded for %s", kind, customer.Name)
	body := fmt.Sprintf(`
		<h2>%s</h2>
		<p>Customer: %s (%s)</p>
		<p>Debt: %s</p>
		<p>Amount: %s</p>
		<p>Note: %s</p>
		<p>Remaining: %s</p>
		<p>Date: %s</p>
	`,
		kind,
		html.EscapeString(customer.Name), html.EscapeString(customer.Phone),
		html.EscapeString(debt.Label),
		utils.FormatAmount(debt.Type, record.Amount),
		html.EscapeString(record.Note),
		utils.FormatAmount(debt.Type, ledger.RemainingBalance(debt)),
		record.Date.Format("02.01.2006 15:04:05"),
	)

	return s.SendEmail(s.owner, subject, body)
}

// NotifySettled отправляет уведомление о полном погашении долга
func (s *EmailService) NotifySettled(customer models.Customer, debt models.Debt) error {
	if !s.Enabled() {
		return nil
	}

	subject := fmt.Sprintf("Debt settled: %s", customer.Name)
	body := fmt.Sprintf(`
		<h2>Debt fully settled</h2>
		<p>%s has paid off "%s".</p>
		<p>Total paid: %s</p>
		<p>Date: %s</p>
	`,
		html.EscapeString(customer.Name),
		html.EscapeString(debt.Label),
		utils.FormatAmount(debt.Type, ledger.PaidAmount(debt)),
		time.Now().Format("02.01.2006 15:04:05"),
	)

	return s.SendEmail(s.owner, subject, body)
}

// NotifyOverdue отправляет сводку просроченных платежей
func (s *EmailService) NotifyOverdue(items []OverdueItem) error {
	if !s.Enabled() || len(items) == 0 {
		return nil
	}

	var rows strings.Builder
	for _, item := range items {
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%s</td><td>%s</td><td>#%d</td><td>%s</td><td>%s</td></tr>\n",
			html.EscapeString(item.CustomerName),
			html.EscapeString(item.Phone),
			html.EscapeString(item.DebtLabel),
			item.Seq,
			item.DueDate.Format("02.01.2006"),
			utils.FormatAmount(item.Type, item.Outstanding),
		)
	}

	subject := fmt.Sprintf("%d overdue installments", len(items))
	body := fmt.Sprintf(`
		<h2>Overdue installments</h2>
		<table>
		<tr><th>Customer</th><th>Phone</th><th>Debt</th><th>Installment</th><th>Due</th><th>Outstanding</th></tr>
		%s
		</table>
	`, rows.String())

	return s.SendEmail(s.owner, subject, body)
}
