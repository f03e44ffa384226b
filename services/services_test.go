package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"debtbook/clock"
	"debtbook/database"
	"debtbook/database/dbtest"
	"debtbook/goldprice"
	"debtbook/ledger"
	"debtbook/models"
	"debtbook/storage"
	"debtbook/utils"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
)

var (
	testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testNow   = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
)

type stubGold struct {
	price decimal.Decimal
	err   error
	calls int
}

func (s *stubGold) Current(_ context.Context, _ bool) (goldprice.Quote, error) {
	s.calls++
	if s.err != nil {
		return goldprice.Quote{}, s.err
	}
	return goldprice.Quote{Price: s.price, FetchedAt: testNow}, nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	records []models.PaymentRecord
	settled []string
	overdue []OverdueItem
}

func (n *fakeNotifier) NotifyRecord(_ models.Customer, _ models.Debt, record models.PaymentRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.records = append(n.records, record)
	return nil
}

func (n *fakeNotifier) NotifySettled(_ models.Customer, debt models.Debt) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.settled = append(n.settled, debt.ID)
	return nil
}

func (n *fakeNotifier) NotifyOverdue(items []OverdueItem) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.overdue = append(n.overdue, items...)
	return nil
}

type testEnv struct {
	db        *database.Database
	clock     *clock.FixedClock
	gold      *stubGold
	notifier  *fakeNotifier
	metrics   *utils.Metrics
	customers *CustomerService
	debts     *DebtService
	images    *ImageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	clk := clock.NewFixedClock(testNow)
	attachments := storage.NewAttachmentSync(
		storage.NewMetadataStore(db.DB),
		storage.NewBlobStore(afero.NewMemMapFs(), "/blobs"),
		storage.Options{HMACKey: []byte("test"), Now: clk.Now},
	)
	env := &testEnv{
		db:       db,
		clock:    clk,
		gold:     &stubGold{price: decimal.NewFromInt(4000)},
		notifier: &fakeNotifier{},
		metrics:  utils.NewMetrics(),
	}
	env.customers = NewCustomerService(db, attachments, env.gold, clk, env.metrics)
	env.debts = NewDebtService(db, env.notifier, clk, env.metrics)
	env.debts.dispatch = func(f func()) { f() }
	env.images = NewImageService(db, attachments)
	return env
}

func cashDebt(amount float64, months int) CreateDebtDTO {
	start := testStart
	return CreateDebtDTO{Amount: amount, Type: models.DebtTypeCash, Months: months, StartDate: &start}
}

func (e *testEnv) createCustomer(t *testing.T, name, phone string, debt CreateDebtDTO) *CustomerResponseDTO {
	t.Helper()
	customer, err := e.customers.Create(context.Background(), CreateCustomerDTO{Name: name, Phone: phone, Debt: debt})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return customer
}

func TestCreateCustomerWithCashDebt(t *testing.T) {
	env := newTestEnv(t)
	customer := env.createCustomer(t, "Ahmed", "01012345678", cashDebt(1200, 12))

	if len(customer.Debts) != 1 {
		t.Fatalf("expected 1 debt, got %d", len(customer.Debts))
	}
	debt := customer.Debts[0]
	if debt.Label != ledger.DefaultDebtLabel {
		t.Fatalf("unexpected label %q", debt.Label)
	}
	if len(debt.Installments) != 12 || !debt.Remaining.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("unexpected schedule: %d installments, remaining %s", len(debt.Installments), debt.Remaining)
	}
	if debt.RemainingText != "1,200.00 EGP" {
		t.Fatalf("unexpected remaining text %q", debt.RemainingText)
	}

	stored, err := env.customers.Get(context.Background(), customer.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Debts[0].Installments) != 12 {
		t.Fatalf("installments not persisted: %d", len(stored.Debts[0].Installments))
	}
	if !stored.Debts[0].Installments[1].DueDate.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected due date %v", stored.Debts[0].Installments[1].DueDate)
	}
	if env.metrics.DebtsCreated != 1 {
		t.Fatalf("expected DebtsCreated=1, got %d", env.metrics.DebtsCreated)
	}
}

func TestCreateCustomerValidation(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		dto  CreateCustomerDTO
	}{
		{"blank name", CreateCustomerDTO{Name: "   ", Phone: "0100", Debt: cashDebt(100, 3)}},
		{"missing phone", CreateCustomerDTO{Name: "Ali", Debt: cashDebt(100, 3)}},
		{"bad months", CreateCustomerDTO{Name: "Ali", Phone: "0100", Debt: cashDebt(100, 5)}},
		{"zero amount", CreateCustomerDTO{Name: "Ali", Phone: "0100", Debt: cashDebt(0, 3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.customers.Create(context.Background(), tt.dto)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestCreateGoldDebtUsesCurrentPrice(t *testing.T) {
	env := newTestEnv(t)
	start := testStart
	customer := env.createCustomer(t, "Mona", "0111", CreateDebtDTO{
		Amount: 24000, Type: models.DebtTypeGold, Months: 12, StartDate: &start,
	})

	debt := customer.Debts[0]
	if env.gold.calls != 1 {
		t.Fatalf("expected one price lookup, got %d", env.gold.calls)
	}
	if debt.GoldGrams == nil || !debt.GoldGrams.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("unexpected grams %v", debt.GoldGrams)
	}
	if !debt.RemainingCashValue.Equal(decimal.NewFromInt(24000)) {
		t.Fatalf("unexpected cash value %s", debt.RemainingCashValue)
	}
}

func TestCreateGoldDebtWithoutPrice(t *testing.T) {
	env := newTestEnv(t)
	env.gold.err = goldprice.ErrPriceUnavailable
	start := testStart

	_, err := env.customers.Create(context.Background(), CreateCustomerDTO{
		Name: "Mona", Phone: "0111",
		Debt: CreateDebtDTO{Amount: 24000, Type: models.DebtTypeGold, Months: 12, StartDate: &start},
	})
	if !errors.Is(err, ledger.ErrGoldPriceRequired) {
		t.Fatalf("expected ErrGoldPriceRequired, got %v", err)
	}
}

func TestPayPersistsAndNotifies(t *testing.T) {
	env := newTestEnv(t)
	customer := env.createCustomer(t, "Ahmed", "0100", cashDebt(1200, 12))
	debtID := customer.Debts[0].ID

	debt, err := env.debts.Pay(context.Background(), customer.ID, debtID, PaymentDTO{Amount: 250})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if !debt.Remaining.Equal(decimal.NewFromInt(950)) || debt.PaidCount != 2 {
		t.Fatalf("unexpected result: remaining %s, paid %d", debt.Remaining, debt.PaidCount)
	}

	stored, err := env.debts.Get(context.Background(), customer.ID, debtID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.Paid.Equal(decimal.NewFromInt(250)) || len(stored.History) != 1 {
		t.Fatalf("payment not persisted: paid %s, history %d", stored.Paid, len(stored.History))
	}
	if len(env.notifier.records) != 1 || env.notifier.records[0].Type != models.RecordTypePayment {
		t.Fatalf("expected one payment notification, got %+v", env.notifier.records)
	}
	if env.metrics.PaymentsApplied != 1 {
		t.Fatalf("expected PaymentsApplied=1, got %d", env.metrics.PaymentsApplied)
	}
}

func TestPaySettlesDebtOnce(t *testing.T) {
	env := newTestEnv(t)
	customer := env.createCustomer(t, "Ahmed", "0100", cashDebt(300, 3))
	debtID := customer.Debts[0].ID

	debt, err := env.debts.Pay(context.Background(), customer.ID, debtID, PaymentDTO{Amount: 300})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if !debt.IsSettled || debt.Progress != 100 {
		t.Fatalf("expected settled debt, got settled=%t progress=%d", debt.IsSettled, debt.Progress)
	}
	if _, err := env.debts.Pay(context.Background(), customer.ID, debtID, PaymentDTO{Amount: 10}); err != nil {
		t.Fatalf("second pay: %v", err)
	}
	if len(env.notifier.settled) != 1 {
		t.Fatalf("expected one settled notification, got %d", len(env.notifier.settled))
	}
	if env.metrics.DebtsSettled != 1 {
		t.Fatalf("expected DebtsSettled=1, got %d", env.metrics.DebtsSettled)
	}
}

func TestAdjustAndToggle(t *testing.T) {
	env := newTestEnv(t)
	customer := env.createCustomer(t, "Ahmed", "0100", cashDebt(300, 3))
	debtID := customer.Debts[0].ID

	debt, err := env.debts.Adjust(context.Background(), customer.ID, debtID, AdjustmentDTO{Amount: 90, Reason: "fees"})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if !debt.Principal.Equal(decimal.NewFromInt(390)) {
		t.Fatalf("unexpected principal %s", debt.Principal)
	}

	first := debt.Installments[0].ID
	debt, err = env.debts.ToggleInstallment(context.Background(), customer.ID, debtID, first)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !debt.Installments[0].Paid || len(debt.History) != 2 {
		t.Fatalf("expected paid installment and 2 records, got paid=%t history=%d", debt.Installments[0].Paid, len(debt.History))
	}

	debt, err = env.debts.ToggleInstallment(context.Background(), customer.ID, debtID, first)
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if debt.Installments[0].Paid || len(debt.History) != 1 {
		t.Fatalf("expected unpaid installment and 1 record, got paid=%t history=%d", debt.Installments[0].Paid, len(debt.History))
	}
}

func TestAdjustRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	customer := env.createCustomer(t, "Ahmed", "0100", cashDebt(300, 3))

	_, err := env.debts.Adjust(context.Background(), customer.ID, customer.Debts[0].ID, AdjustmentDTO{Amount: 10, Reason: " "})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestOperationsOnMissingDocuments(t *testing.T) {
	env := newTestEnv(t)
	customer := env.createCustomer(t, "Ahmed", "0100", cashDebt(300, 3))

	if _, err := env.debts.Pay(context.Background(), "missing", "x", PaymentDTO{Amount: 10}); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
	if _, err := env.debts.Pay(context.Background(), customer.ID, "missing", PaymentDTO{Amount: 10}); !errors.Is(err, ErrDebtNotFound) {
		t.Fatalf("expected ErrDebtNotFound, got %v", err)
	}
	if _, err := env.debts.ToggleInstallment(context.Background(), customer.ID, customer.Debts[0].ID, "missing"); !errors.Is(err, ledger.ErrInstallmentNotFound) {
		t.Fatalf("expected ErrInstallmentNotFound, got %v", err)
	}
	if env.metrics.ErrorCount == 0 {
		t.Fatalf("expected failed operations to be counted")
	}
}

func TestListFiltersAndSorts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createCustomer(t, "Zed", "0101", cashDebt(300, 3))
	env.clock.Advance(time.Minute)
	env.createCustomer(t, "amr", "0102", cashDebt(900, 3))
	env.clock.Advance(time.Minute)
	paid := env.createCustomer(t, "Basma", "0103", cashDebt(300, 3))
	if _, err := env.debts.Pay(ctx, paid.ID, paid.Debts[0].ID, PaymentDTO{Amount: 300}); err != nil {
		t.Fatalf("pay: %v", err)
	}
	env.clock.Advance(time.Minute)
	archived := env.createCustomer(t, "Old", "0104", cashDebt(300, 3))
	if _, err := env.customers.ToggleArchive(ctx, archived.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}

	names := func(items []CustomerSummaryDTO) string {
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.Name
		}
		return strings.Join(out, ",")
	}

	tests := []struct {
		filter ListFilter
		want   string
	}{
		{ListFilter{}, "Basma,amr,Zed"},
		{ListFilter{Sort: "oldest"}, "Zed,amr,Basma"},
		{ListFilter{Sort: "name"}, "amr,Basma,Zed"},
		{ListFilter{Sort: "debt_desc"}, "amr,Zed,Basma"},
		{ListFilter{Tab: "archived"}, "Old"},
		{ListFilter{Status: "fully_paid"}, "Basma"},
		{ListFilter{Status: "has_balance", Sort: "oldest"}, "Zed,amr"},
		{ListFilter{Query: "AM"}, "amr"},
		{ListFilter{Query: "0101"}, "Zed"},
		{ListFilter{Type: "gold"}, ""},
	}

	for _, tt := range tests {
		items, err := env.customers.List(ctx, tt.filter)
		if err != nil {
			t.Fatalf("list %+v: %v", tt.filter, err)
		}
		if got := names(items); got != tt.want {
			t.Fatalf("list %+v: expected %q, got %q", tt.filter, tt.want, got)
		}
	}

	if _, err := env.customers.List(ctx, ListFilter{Sort: "random"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown sort, got %v", err)
	}
}

func TestAddRenameAndDeleteDebt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.createCustomer(t, "Ahmed", "0100", cashDebt(300, 3))

	added, err := env.customers.AddDebt(ctx, customer.ID, cashDebt(600, 6))
	if err != nil {
		t.Fatalf("add debt: %v", err)
	}
	renamed, err := env.customers.RenameDebt(ctx, customer.ID, added.ID, RenameDebtDTO{Label: "Fridge"})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.Label != "Fridge" {
		t.Fatalf("unexpected label %q", renamed.Label)
	}

	if err := env.customers.DeleteDebt(ctx, customer.ID, customer.Debts[0].ID); err != nil {
		t.Fatalf("delete debt: %v", err)
	}
	stored, err := env.customers.Get(ctx, customer.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Debts) != 1 || stored.Debts[0].Label != "Fridge" {
		t.Fatalf("unexpected debts after delete: %+v", stored.Debts)
	}

	if err := env.customers.Delete(ctx, customer.ID); err != nil {
		t.Fatalf("delete customer: %v", err)
	}
	if _, err := env.customers.Get(ctx, customer.ID); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestReceiptAndReminderLinks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.createCustomer(t, "Ahmed", "010 1234 5678", cashDebt(300, 3))
	debtID := customer.Debts[0].ID

	debt, err := env.debts.Pay(ctx, customer.ID, debtID, PaymentDTO{Amount: 100})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}

	receipt, err := env.debts.ReceiptLink(ctx, customer.ID, debtID, debt.History[0].ID)
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}
	if !strings.HasPrefix(receipt.URL, "https://wa.me/201012345678?text=") {
		t.Fatalf("unexpected url %q", receipt.URL)
	}
	if !strings.Contains(receipt.Text, "Remaining: *200.00 EGP*") {
		t.Fatalf("unexpected receipt text %q", receipt.Text)
	}

	reminder, err := env.debts.ReminderLink(ctx, customer.ID, debtID, debt.Installments[1].ID)
	if err != nil {
		t.Fatalf("reminder: %v", err)
	}
	if !strings.Contains(reminder.Text, "February 2024") {
		t.Fatalf("unexpected reminder text %q", reminder.Text)
	}

	if _, err := env.debts.ReceiptLink(ctx, customer.ID, debtID, "missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if _, err := env.debts.ReminderLink(ctx, customer.ID, debtID, "missing"); !errors.Is(err, ledger.ErrInstallmentNotFound) {
		t.Fatalf("expected ErrInstallmentNotFound, got %v", err)
	}
}

func TestCollectOverdueSkipsArchived(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	active := env.createCustomer(t, "Ahmed", "0100", cashDebt(300, 6))
	if _, err := env.debts.Pay(ctx, active.ID, active.Debts[0].ID, PaymentDTO{Amount: 50}); err != nil {
		t.Fatalf("pay: %v", err)
	}
	archived := env.createCustomer(t, "Old", "0101", cashDebt(300, 3))
	if _, err := env.customers.ToggleArchive(ctx, archived.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}

	scheduler := NewReminderScheduler(env.db, env.notifier, env.clock, "")
	if err := scheduler.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}

	items := env.notifier.overdue
	// январь оплачен, апрель еще впереди
	if len(items) != 2 {
		t.Fatalf("expected 2 overdue installments, got %d", len(items))
	}
	if items[0].Seq != 2 || !items[0].Outstanding.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	for _, item := range items {
		if item.CustomerID != active.ID {
			t.Fatalf("archived customer included: %+v", item)
		}
	}
}

func TestPreviewGoldPayment(t *testing.T) {
	env := newTestEnv(t)
	start := testStart
	price := 4000.0
	customer := env.createCustomer(t, "Mona", "0111", CreateDebtDTO{
		Amount: 24000, Type: models.DebtTypeGold, Months: 12, StartDate: &start, GoldPrice: &price,
	})

	preview, err := env.debts.PreviewPayment(context.Background(), customer.ID, customer.Debts[0].ID, PaymentDTO{Amount: 0.5})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !preview.CashValue.Equal(decimal.NewFromInt(2000)) || preview.CashText != "2,000.00 EGP" {
		t.Fatalf("unexpected cash value %s (%s)", preview.CashValue, preview.CashText)
	}
	if !preview.RemainingAfter.Equal(decimal.RequireFromString("5.5")) {
		t.Fatalf("unexpected remaining %s", preview.RemainingAfter)
	}
	if env.gold.calls != 0 {
		t.Fatalf("explicit price must not query the gold source")
	}

	if _, err := env.debts.PreviewPayment(context.Background(), customer.ID, customer.Debts[0].ID, PaymentDTO{Amount: 0.0001}); !errors.Is(err, ledger.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestReminderSchedulerRejectsBadSpec(t *testing.T) {
	env := newTestEnv(t)
	scheduler := NewReminderScheduler(env.db, nil, env.clock, "every now and then")
	if err := scheduler.Start(); err == nil {
		t.Fatalf("expected invalid cron spec to fail")
	}
}

type failingNotifier struct {
	fakeNotifier
}

func (n *failingNotifier) NotifyRecord(_ models.Customer, _ models.Debt, _ models.PaymentRecord) error {
	return errors.New("smtp down")
}

func TestPayGoldDebtInCash(t *testing.T) {
	env := newTestEnv(t)
	start := testStart
	price := 4000.0
	customer := env.createCustomer(t, "Mona", "0111", CreateDebtDTO{
		Amount: 24000, Type: models.DebtTypeGold, Months: 12, StartDate: &start, GoldPrice: &price,
	})
	debtID := customer.Debts[0].ID

	preview, err := env.debts.PreviewPayment(context.Background(), customer.ID, debtID, PaymentDTO{Amount: 2000, InCash: true})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !preview.Amount.Equal(decimal.RequireFromString("0.5")) || !preview.CashValue.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("unexpected preview: %s g for %s", preview.Amount, preview.CashValue)
	}
	if !preview.RemainingAfter.Equal(decimal.RequireFromString("5.5")) {
		t.Fatalf("unexpected remaining after preview %s", preview.RemainingAfter)
	}

	debt, err := env.debts.Pay(context.Background(), customer.ID, debtID, PaymentDTO{Amount: 2000, InCash: true})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if debt.IsSettled {
		t.Fatalf("cash payment must not settle the gold debt")
	}
	if !debt.Remaining.Equal(decimal.RequireFromString("5.5")) {
		t.Fatalf("unexpected remaining %s", debt.Remaining)
	}

	stored, err := env.debts.Get(context.Background(), customer.ID, debtID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.Paid.Equal(decimal.RequireFromString("0.5")) || len(stored.History) != 1 {
		t.Fatalf("payment not persisted in grams: paid %s, history %d", stored.Paid, len(stored.History))
	}
	if !stored.History[0].Amount.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("history must record grams, got %s", stored.History[0].Amount)
	}
}

func TestPayCashDebtIgnoresInCashFlag(t *testing.T) {
	env := newTestEnv(t)
	customer := env.createCustomer(t, "Ahmed", "0100", cashDebt(1200, 12))

	debt, err := env.debts.Pay(context.Background(), customer.ID, customer.Debts[0].ID, PaymentDTO{Amount: 250, InCash: true})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if !debt.Remaining.Equal(decimal.NewFromInt(950)) {
		t.Fatalf("unexpected remaining %s", debt.Remaining)
	}
}

func TestPaySettlementCountedWithoutNotifier(t *testing.T) {
	env := newTestEnv(t)
	env.debts.notifier = nil
	customer := env.createCustomer(t, "Ahmed", "0100", cashDebt(300, 3))

	debt, err := env.debts.Pay(context.Background(), customer.ID, customer.Debts[0].ID, PaymentDTO{Amount: 300})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if !debt.IsSettled {
		t.Fatalf("expected settled debt")
	}
	if env.metrics.DebtsSettled != 1 {
		t.Fatalf("expected DebtsSettled=1, got %d", env.metrics.DebtsSettled)
	}
}

func TestPaySucceedsWhenNotificationFails(t *testing.T) {
	env := newTestEnv(t)
	env.debts.notifier = &failingNotifier{}
	customer := env.createCustomer(t, "Ahmed", "0100", cashDebt(1200, 12))

	if _, err := env.debts.Pay(context.Background(), customer.ID, customer.Debts[0].ID, PaymentDTO{Amount: 100}); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if env.metrics.PaymentsApplied != 1 {
		t.Fatalf("expected PaymentsApplied=1, got %d", env.metrics.PaymentsApplied)
	}
	if env.metrics.ErrorCount != 1 || env.metrics.ErrorTypes["smtp down"] != 1 {
		t.Fatalf("expected the notification error to be counted, got %d %v", env.metrics.ErrorCount, env.metrics.ErrorTypes)
	}
}
