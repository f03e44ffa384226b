package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"debtbook/clock"
	"debtbook/database"
	"debtbook/goldprice"
	"debtbook/ledger"
	"debtbook/models"
	"debtbook/storage"
	"debtbook/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CustomerService предоставляет методы для работы с клиентами и их долгами
type CustomerService struct {
	db          *database.Database
	attachments *storage.AttachmentSync
	gold        goldprice.Source
	clock       clock.Clock
	metrics     *utils.Metrics
	validator   *validator.Validate
}

// NewCustomerService создает новый экземпляр CustomerService
func NewCustomerService(db *database.Database, attachments *storage.AttachmentSync, gold goldprice.Source, clk clock.Clock, metrics *utils.Metrics) *CustomerService {
	return &CustomerService{
		db:          db,
		attachments: attachments,
		gold:        gold,
		clock:       clk,
		metrics:     metrics,
		validator:   newValidator(),
	}
}

// Create создает клиента вместе с первым долгом
func (s *CustomerService) Create(ctx context.Context, dto CreateCustomerDTO) (*CustomerResponseDTO, error) {
	start := time.Now()
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	customer := &models.Customer{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(dto.Name),
		Phone:     strings.TrimSpace(dto.Phone),
		CreatedAt: now,
		UpdatedAt: now,
	}

	debt, err := s.buildDebt(ctx, customer.ID, dto.Debt, now)
	if err != nil {
		return nil, err
	}
	customer.Debts = []models.Debt{debt}

	err = s.db.SaveCustomer(ctx, customer)
	utils.LogOperation("create_customer", start, err, zap.String("customer_id", customer.ID))
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLedgerOperation(utils.OpDebtCreated, nil)

	response := toCustomerResponseDTO(*customer, now)
	return &response, nil
}

// AddDebt регистрирует еще один долг существующего клиента
func (s *CustomerService) AddDebt(ctx context.Context, customerID string, dto CreateDebtDTO) (*DebtResponseDTO, error) {
	start := time.Now()
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	debt, err := s.buildDebt(ctx, customerID, dto, now)
	if err != nil {
		return nil, err
	}

	_, err = s.db.UpdateCustomer(ctx, customerID, func(c *models.Customer) error {
		c.Debts = append(c.Debts, debt)
		c.UpdatedAt = now
		return nil
	})
	err = mapNotFound(err)
	utils.LogOperation("add_debt", start, err, zap.String("customer_id", customerID), zap.String("debt_id", debt.ID))
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLedgerOperation(utils.OpDebtCreated, nil)

	response := toDebtResponseDTO(debt, now)
	return &response, nil
}

// buildDebt строит долг из DTO; для золота без явной цены берется текущая котировка
func (s *CustomerService) buildDebt(ctx context.Context, customerID string, dto CreateDebtDTO, now time.Time) (models.Debt, error) {
	params := ledger.NewDebtParams{
		CustomerID: customerID,
		Label:      dto.Label,
		Amount:     decimal.NewFromFloat(dto.Amount),
		Type:       dto.Type,
		Months:     dto.Months,
	}
	if dto.StartDate != nil {
		params.StartDate = *dto.StartDate
	}

	if dto.Type == models.DebtTypeGold {
		if dto.GoldPrice != nil {
			price := decimal.NewFromFloat(*dto.GoldPrice)
			params.GoldPrice = &price
		} else {
			quote, err := s.gold.Current(ctx, false)
			if err != nil {
				return models.Debt{}, fmt.Errorf("%w: %v", ledger.ErrGoldPriceRequired, err)
			}
			params.GoldPrice = &quote.Price
		}
	}

	debt, err := ledger.NewDebt(params, now)
	if err != nil {
		s.metrics.RecordLedgerOperation(utils.OpDebtCreated, err)
		return models.Debt{}, err
	}
	return debt, nil
}

// Get возвращает клиента со всеми долгами и вложениями
func (s *CustomerService) Get(ctx context.Context, id string) (*CustomerResponseDTO, error) {
	customer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	response := toCustomerResponseDTO(*customer, s.clock.Now())
	return &response, nil
}

// load читает клиента и подставляет вложения долгов
func (s *CustomerService) load(ctx context.Context, id string) (*models.Customer, error) {
	customer, err := s.db.GetCustomer(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if err := s.attachments.Hydrate(ctx, customer.Debts); err != nil {
		return nil, err
	}
	return customer, nil
}

// List возвращает клиентов с учетом поиска, вкладки, фильтров и сортировки
func (s *CustomerService) List(ctx context.Context, filter ListFilter) ([]CustomerSummaryDTO, error) {
	if err := validateStruct(s.validator, filter); err != nil {
		return nil, err
	}

	customers, err := s.db.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	archived := filter.Tab == "archived"

	result := make([]CustomerSummaryDTO, 0, len(customers))
	values := make(map[string]decimal.Decimal, len(customers))
	for _, c := range customers {
		if query != "" && !strings.Contains(strings.ToLower(c.Name), query) && !strings.Contains(c.Phone, query) {
			continue
		}
		if c.IsArchived != archived {
			continue
		}

		summary := summarize(c, now)
		hasBalance := summary.RemainingCash.IsPositive() || summary.RemainingGrams.IsPositive()
		switch filter.Status {
		case "overdue":
			if !summary.IsOverdue {
				continue
			}
		case "has_balance":
			if !hasBalance {
				continue
			}
		case "fully_paid":
			if hasBalance {
				continue
			}
		}

		if filter.Type == "cash" && !hasDebtOfType(c, models.DebtTypeCash) {
			continue
		}
		if filter.Type == "gold" && !hasDebtOfType(c, models.DebtTypeGold) {
			continue
		}

		values[c.ID] = debtValue(c)
		result = append(result, summary)
	}

	sortSummaries(result, filter.Sort, values)
	return result, nil
}

func hasDebtOfType(c models.Customer, t models.DebtType) bool {
	for _, d := range c.Debts {
		if d.Type == t {
			return true
		}
	}
	return false
}

// debtValue оценивает остаток клиента в валюте; граммы считаются по цене регистрации
func debtValue(c models.Customer) decimal.Decimal {
	total := decimal.Zero
	for _, d := range c.Debts {
		total = total.Add(CashValue(d, ledger.RemainingBalance(d)))
	}
	return total
}

var nameCollator = collate.New(language.Arabic, collate.IgnoreCase)

func sortSummaries(items []CustomerSummaryDTO, by string, values map[string]decimal.Decimal) {
	switch by {
	case "oldest":
		sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	case "name":
		sort.SliceStable(items, func(i, j int) bool {
			return nameCollator.CompareString(items[i].Name, items[j].Name) < 0
		})
	case "debt_desc":
		sort.SliceStable(items, func(i, j int) bool {
			return values[items[i].ID].GreaterThan(values[items[j].ID])
		})
	default:
		sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	}
}

// ToggleArchive переключает признак архива клиента
func (s *CustomerService) ToggleArchive(ctx context.Context, id string) (*CustomerResponseDTO, error) {
	now := s.clock.Now()
	customer, err := s.db.UpdateCustomer(ctx, id, func(c *models.Customer) error {
		c.IsArchived = !c.IsArchived
		c.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, mapNotFound(err)
	}
	utils.LogInfo("Клиент %s: архив=%t", id, customer.IsArchived)

	response := toCustomerResponseDTO(*customer, now)
	return &response, nil
}

// Delete удаляет клиента вместе с вложениями всех его долгов
func (s *CustomerService) Delete(ctx context.Context, id string) error {
	start := time.Now()
	customer, err := s.db.GetCustomer(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}

	err = s.db.DeleteCustomer(ctx, id)
	utils.LogOperation("delete_customer", start, err, zap.String("customer_id", id))
	if err != nil {
		return mapNotFound(err)
	}

	debtIDs := make([]string, len(customer.Debts))
	for i, d := range customer.Debts {
		debtIDs[i] = d.ID
		s.metrics.RecordLedgerOperation(utils.OpDebtDeleted, nil)
	}
	if err := s.attachments.Purge(ctx, debtIDs...); err != nil {
		utils.LogError("Ошибка удаления вложений клиента %s: %v", id, err)
	}
	return nil
}

// RenameDebt меняет подпись долга; пустая подпись оставляет прежнюю
func (s *CustomerService) RenameDebt(ctx context.Context, customerID, debtID string, dto RenameDebtDTO) (*DebtResponseDTO, error) {
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var renamed models.Debt
	_, err := s.db.UpdateCustomer(ctx, customerID, func(c *models.Customer) error {
		idx := c.FindDebt(debtID)
		if idx < 0 {
			return ErrDebtNotFound
		}
		if label := strings.TrimSpace(dto.Label); label != "" {
			c.Debts[idx].Label = label
			c.Debts[idx].UpdatedAt = now
		}
		renamed = c.Debts[idx]
		return nil
	})
	if err != nil {
		return nil, mapNotFound(err)
	}

	response := toDebtResponseDTO(renamed, now)
	return &response, nil
}

// DeleteDebt удаляет долг вместе с историей и вложениями
func (s *CustomerService) DeleteDebt(ctx context.Context, customerID, debtID string) error {
	start := time.Now()
	_, err := s.db.UpdateCustomer(ctx, customerID, func(c *models.Customer) error {
		idx := c.FindDebt(debtID)
		if idx < 0 {
			return ErrDebtNotFound
		}
		c.Debts = append(c.Debts[:idx], c.Debts[idx+1:]...)
		c.UpdatedAt = s.clock.Now()
		return nil
	})
	err = mapNotFound(err)
	utils.LogOperation("delete_debt", start, err, zap.String("customer_id", customerID), zap.String("debt_id", debtID))
	if err != nil {
		return err
	}
	s.metrics.RecordLedgerOperation(utils.OpDebtDeleted, nil)

	if err := s.attachments.Purge(ctx, debtID); err != nil {
		utils.LogError("Ошибка удаления вложений долга %s: %v", debtID, err)
	}
	return nil
}

// mapNotFound переводит ошибку базы в ошибку сервиса
func mapNotFound(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return ErrCustomerNotFound
	}
	return err
}
