package services

import (
	"context"
	"fmt"
	"time"

	"debtbook/clock"
	"debtbook/database"
	"debtbook/ledger"
	"debtbook/models"
	"debtbook/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DebtService применяет операции движка к сохраненным долгам
type DebtService struct {
	db        *database.Database
	notifier  Notifier
	clock     clock.Clock
	metrics   *utils.Metrics
	validator *validator.Validate
	dispatch  func(func())
}

// NewDebtService создает новый экземпляр DebtService
func NewDebtService(db *database.Database, notifier Notifier, clk clock.Clock, metrics *utils.Metrics) *DebtService {
	return &DebtService{
		db:        db,
		notifier:  notifier,
		clock:     clk,
		metrics:   metrics,
		validator: newValidator(),
		dispatch:  func(f func()) { go f() },
	}
}

// ledgerOp операция движка над одним долгом
type ledgerOp func(d models.Debt, now time.Time) (models.Debt, error)

// operationResult результат операции для уведомлений
type operationResult struct {
	customer   models.Customer
	debt       models.Debt
	wasSettled bool
	record     *models.PaymentRecord
}

// apply загружает клиента, применяет операцию к долгу и сохраняет документ целиком
func (s *DebtService) apply(ctx context.Context, name, metric, customerID, debtID string, op ledgerOp) (*operationResult, error) {
	start := time.Now()
	now := s.clock.Now()
	result := &operationResult{}

	customer, err := s.db.UpdateCustomer(ctx, customerID, func(c *models.Customer) error {
		idx := c.FindDebt(debtID)
		if idx < 0 {
			return ErrDebtNotFound
		}
		before := c.Debts[idx]
		after, err := op(before, now)
		if err != nil {
			return err
		}
		after.UpdatedAt = now
		c.Debts[idx] = after
		c.UpdatedAt = now

		result.wasSettled = ledger.IsSettled(before)
		result.debt = after
		if len(after.History) > len(before.History) {
			rec := after.History[len(after.History)-1]
			result.record = &rec
		}
		return nil
	})
	err = mapNotFound(err)
	utils.LogOperation(name, start, err, zap.String("customer_id", customerID), zap.String("debt_id", debtID))
	s.metrics.RecordLedgerOperation(metric, err)
	if err != nil {
		return nil, err
	}

	result.customer = *customer
	if idx := customer.FindDebt(debtID); idx >= 0 {
		result.debt = customer.Debts[idx]
	}
	s.notify(result)
	return result, nil
}

// notify учитывает погашение и отправляет уведомления асинхронно; ошибки отправки только логируются
func (s *DebtService) notify(result *operationResult) {
	settled := !result.wasSettled && ledger.IsSettled(result.debt)
	if settled {
		s.metrics.RecordLedgerOperation(utils.OpDebtSettled, nil)
	}
	if s.notifier == nil {
		return
	}

	customer, debt, record := result.customer, result.debt, result.record
	s.dispatch(func() {
		if record != nil {
			if err := s.notifier.NotifyRecord(customer, debt, *record); err != nil {
				s.metrics.RecordError(err)
				utils.LogError("Ошибка при отправке квитанции: %v", err)
			}
		}
		if settled {
			if err := s.notifier.NotifySettled(customer, debt); err != nil {
				s.metrics.RecordError(err)
				utils.LogError("Ошибка при отправке уведомления о погашении: %v", err)
			}
		}
	})
}

// Get возвращает долг клиента с расчетными показателями
func (s *DebtService) Get(ctx context.Context, customerID, debtID string) (*DebtResponseDTO, error) {
	_, debt, err := s.find(ctx, customerID, debtID)
	if err != nil {
		return nil, err
	}
	response := toDebtResponseDTO(*debt, s.clock.Now())
	return &response, nil
}

// Pay распределяет платеж по графику
func (s *DebtService) Pay(ctx context.Context, customerID, debtID string, dto PaymentDTO) (*DebtResponseDTO, error) {
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}
	result, err := s.apply(ctx, "apply_payment", utils.OpPaymentApplied, customerID, debtID,
		func(d models.Debt, now time.Time) (models.Debt, error) {
			amount, err := paymentAmount(d, dto)
			if err != nil {
				return d, err
			}
			return ledger.ApplyPayment(d, amount, now)
		})
	if err != nil {
		return nil, err
	}
	response := toDebtResponseDTO(result.debt, s.clock.Now())
	return &response, nil
}

// Adjust увеличивает долг, распределяя сумму по неоплаченным платежам
func (s *DebtService) Adjust(ctx context.Context, customerID, debtID string, dto AdjustmentDTO) (*DebtResponseDTO, error) {
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}
	extra := decimal.NewFromFloat(dto.Amount)

	result, err := s.apply(ctx, "adjust_amount", utils.OpAdjustmentApplied, customerID, debtID,
		func(d models.Debt, now time.Time) (models.Debt, error) {
			return ledger.AdjustAmount(d, extra, dto.Reason, now)
		})
	if err != nil {
		return nil, err
	}
	response := toDebtResponseDTO(result.debt, s.clock.Now())
	return &response, nil
}

// ToggleInstallment отмечает платеж оплаченным или снимает отметку
func (s *DebtService) ToggleInstallment(ctx context.Context, customerID, debtID, installmentID string) (*DebtResponseDTO, error) {
	result, err := s.apply(ctx, "toggle_installment", utils.OpInstallmentToggle, customerID, debtID,
		func(d models.Debt, now time.Time) (models.Debt, error) {
			return ledger.ToggleInstallment(d, installmentID, now)
		})
	if err != nil {
		return nil, err
	}
	response := toDebtResponseDTO(result.debt, s.clock.Now())
	return &response, nil
}

// PreviewPayment показывает, сколько спишет платеж. Для золотого долга
// сумма в валюте переводится в граммы, сумма в граммах оценивается в валюте.
func (s *DebtService) PreviewPayment(ctx context.Context, customerID, debtID string, dto PaymentDTO) (*PaymentPreviewDTO, error) {
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}
	_, debt, err := s.find(ctx, customerID, debtID)
	if err != nil {
		return nil, err
	}

	amount, err := paymentAmount(*debt, dto)
	if err != nil {
		return nil, err
	}
	amount = amount.Round(ledger.Scale(debt.Type))
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", ledger.ErrInvalidArgument)
	}

	cash := CashValue(*debt, amount)
	if dto.InCash {
		cash = decimal.NewFromFloat(dto.Amount).Round(ledger.CurrencyScale)
	}
	remaining := ledger.RemainingBalance(*debt)

	return &PaymentPreviewDTO{
		Amount:         amount,
		AmountText:     utils.FormatAmount(debt.Type, amount),
		CashValue:      cash,
		CashText:       utils.FormatCurrency(cash),
		RemainingAfter: remaining.Sub(decimal.Min(amount, remaining)),
	}, nil
}

// ReceiptLink готовит квитанцию WhatsApp по записи истории
func (s *DebtService) ReceiptLink(ctx context.Context, customerID, debtID, recordID string) (*MessageLinkDTO, error) {
	customer, debt, err := s.find(ctx, customerID, debtID)
	if err != nil {
		return nil, err
	}
	for _, rec := range debt.History {
		if rec.ID == recordID {
			link := WhatsAppLink(customer.Phone, ReceiptMessage(*customer, *debt, rec))
			return &link, nil
		}
	}
	return nil, ErrRecordNotFound
}

// ReminderLink готовит напоминание WhatsApp о платеже графика
func (s *DebtService) ReminderLink(ctx context.Context, customerID, debtID, installmentID string) (*MessageLinkDTO, error) {
	customer, debt, err := s.find(ctx, customerID, debtID)
	if err != nil {
		return nil, err
	}
	for _, inst := range debt.Installments {
		if inst.ID == installmentID {
			link := WhatsAppLink(customer.Phone, ReminderMessage(*customer, *debt, inst))
			return &link, nil
		}
	}
	return nil, ledger.ErrInstallmentNotFound
}

func (s *DebtService) find(ctx context.Context, customerID, debtID string) (*models.Customer, *models.Debt, error) {
	customer, err := s.db.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, nil, mapNotFound(err)
	}
	idx := customer.FindDebt(debtID)
	if idx < 0 {
		return nil, nil, ErrDebtNotFound
	}
	return customer, &customer.Debts[idx], nil
}
