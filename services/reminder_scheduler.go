package services

import (
	"context"
	"sort"
	"time"

	"debtbook/clock"
	"debtbook/database"
	"debtbook/models"
	"debtbook/utils"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultReminderSpec расписание проверки просрочек по умолчанию
const DefaultReminderSpec = "@every 8h"

// OverdueItem просроченный платеж для сводки владельцу
type OverdueItem struct {
	CustomerID   string
	CustomerName string
	Phone        string
	DebtID       string
	DebtLabel    string
	Seq          int
	DueDate      time.Time
	Type         models.DebtType
	Outstanding  decimal.Decimal
}

// ReminderScheduler периодически ищет просроченные платежи и уведомляет владельца
type ReminderScheduler struct {
	db       *database.Database
	notifier Notifier
	clock    clock.Clock
	spec     string
	cron     *cron.Cron
}

// NewReminderScheduler создает новый экземпляр ReminderScheduler
func NewReminderScheduler(db *database.Database, notifier Notifier, clk clock.Clock, spec string) *ReminderScheduler {
	if spec == "" {
		spec = DefaultReminderSpec
	}
	logger := cron.PrintfLogger(zap.NewStdLog(utils.Logger()))
	return &ReminderScheduler{
		db:       db,
		notifier: notifier,
		clock:    clk,
		spec:     spec,
		cron:     cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger))),
	}
}

// Start запускает планировщик
func (s *ReminderScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			utils.LogError("Ошибка при проверке просроченных платежей: %v", err)
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	utils.LogInfo("Планировщик напоминаний запущен (%s)", s.spec)
	return nil
}

// Stop останавливает планировщик и ждет завершения текущего запуска
func (s *ReminderScheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce собирает просрочки и отправляет сводку
func (s *ReminderScheduler) RunOnce(ctx context.Context) error {
	start := time.Now()
	items, err := s.CollectOverdue(ctx, s.clock.Now())
	if err == nil && s.notifier != nil {
		err = s.notifier.NotifyOverdue(items)
	}
	utils.LogOperation("overdue_reminders", start, err, zap.Int("items", len(items)))
	return err
}

// CollectOverdue возвращает неоплаченные платежи со сроком раньше now.
// Архивные клиенты не учитываются.
func (s *ReminderScheduler) CollectOverdue(ctx context.Context, now time.Time) ([]OverdueItem, error) {
	customers, err := s.db.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}

	var items []OverdueItem
	for _, c := range customers {
		if c.IsArchived {
			continue
		}
		for _, d := range c.Debts {
			for _, inst := range d.Installments {
				if inst.Paid || !inst.DueDate.Before(now) {
					continue
				}
				items = append(items, OverdueItem{
					CustomerID:   c.ID,
					CustomerName: c.Name,
					Phone:        c.Phone,
					DebtID:       d.ID,
					DebtLabel:    d.Label,
					Seq:          inst.Seq,
					DueDate:      inst.DueDate,
					Type:         d.Type,
					Outstanding:  inst.Outstanding(),
				})
			}
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DueDate.Before(items[j].DueDate)
	})
	return items, nil
}
