package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"debtbook/config"
	"debtbook/models"
	"debtbook/utils"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrNotFound возвращается, когда клиент не найден
var ErrNotFound = errors.New("record not found")

// Database представляет подключение к базе данных
type Database struct {
	DB *gorm.DB
}

// New оборачивает уже открытое подключение
func New(db *gorm.DB) *Database {
	return &Database{DB: db}
}

// NewDatabase устанавливает соединение с базой данных и выполняет миграции
func NewDatabase(cfg *config.Config) (*Database, error) {
	db, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// GetDB возвращает экземпляр GORM
func (d *Database) GetDB() *gorm.DB {
	return d.DB
}

// Close закрывает подключение к базе данных
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Connect устанавливает соединение с базой данных и выполняет миграции
func Connect(cfg *config.Config) (*gorm.DB, error) {
	// Формируем строку подключения
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.DBName,
	)

	// Логи gorm идут в общий zap-логгер
	newLogger := logger.New(
		zap.NewStdLog(utils.Logger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	// Устанавливаем соединение
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %v", err)
	}

	// Настраиваем пул соединений
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пула соединений: %v", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Выполняем SQL миграции
	if err := runMigrations(cfg); err != nil {
		return nil, fmt.Errorf("ошибка выполнения SQL миграций: %v", err)
	}

	return db, nil
}

// runMigrations выполняет SQL миграции
func runMigrations(cfg *config.Config) error {
	// Формируем URL для миграций
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.DBName,
	)

	// Создаем экземпляр миграции
	m, err := migrate.New(
		"file://migrations",
		dsn,
	)
	if err != nil {
		return fmt.Errorf("ошибка создания миграции: %v", err)
	}
	defer m.Close()

	// Выполняем миграции
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("ошибка выполнения миграций: %v", err)
	}

	return nil
}

// AutoMigrate создает схему по моделям, используется в тестах на sqlite
func (d *Database) AutoMigrate() error {
	err := d.DB.AutoMigrate(
		&models.Customer{},
		&models.Debt{},
		&models.Installment{},
		&models.PaymentRecord{},
		&models.DebtImage{},
	)
	if err != nil {
		return fmt.Errorf("ошибка автоматической миграции: %v", err)
	}

	return nil
}

// preloadDocument подгружает долги клиента в порядке хранения
func preloadDocument(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Debts", func(db *gorm.DB) *gorm.DB {
			return db.Order("debts.position ASC")
		}).
		Preload("Debts.Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("installments.seq ASC")
		}).
		Preload("Debts.History", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_records.seq ASC")
		})
}

// ListCustomers возвращает всех клиентов вместе с долгами, новые первыми
func (d *Database) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	if err := preloadDocument(d.DB.WithContext(ctx)).
		Order("customers.created_at DESC").
		Find(&customers).Error; err != nil {
		return nil, fmt.Errorf("ошибка получения списка клиентов: %w", err)
	}
	for i := range customers {
		ensureSlices(&customers[i])
	}
	return customers, nil
}

// GetCustomer возвращает клиента со всеми долгами, графиками и историей
func (d *Database) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	return getCustomer(d.DB.WithContext(ctx), id)
}

func getCustomer(db *gorm.DB, id string) (*models.Customer, error) {
	var customer models.Customer
	if err := preloadDocument(db).First(&customer, "customers.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения клиента: %w", err)
	}
	ensureSlices(&customer)
	return &customer, nil
}

// SaveCustomer сохраняет документ клиента целиком: долги, графики и
// история перезаписываются (последняя запись выигрывает)
func (d *Database) SaveCustomer(ctx context.Context, customer *models.Customer) error {
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveCustomer(tx, customer)
	})
}

// UpdateCustomer загружает клиента, применяет fn и сохраняет результат в одной транзакции
func (d *Database) UpdateCustomer(ctx context.Context, id string, fn func(*models.Customer) error) (*models.Customer, error) {
	// Начинаем транзакцию
	tx := d.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("ошибка при начале транзакции: %w", tx.Error)
	}

	customer, err := getCustomer(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := fn(customer); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := saveCustomer(tx, customer); err != nil {
		tx.Rollback()
		return nil, err
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("ошибка при подтверждении транзакции: %w", err)
	}

	return customer, nil
}

// DeleteCustomer удаляет клиента и все его долги
func (d *Database) DeleteCustomer(ctx context.Context, id string) error {
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteDebts(tx, id); err != nil {
			return err
		}
		result := tx.Delete(&models.Customer{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("ошибка удаления клиента: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func saveCustomer(tx *gorm.DB, customer *models.Customer) error {
	normalize(customer)

	if err := deleteDebts(tx, customer.ID); err != nil {
		return err
	}

	if err := tx.Omit(clause.Associations).Save(customer).Error; err != nil {
		return fmt.Errorf("ошибка сохранения клиента: %w", err)
	}

	for i := range customer.Debts {
		debt := &customer.Debts[i]
		if err := tx.Omit(clause.Associations).Create(debt).Error; err != nil {
			return fmt.Errorf("ошибка сохранения долга: %w", err)
		}
		if len(debt.Installments) > 0 {
			if err := tx.Create(&debt.Installments).Error; err != nil {
				return fmt.Errorf("ошибка сохранения графика платежей: %w", err)
			}
		}
		if len(debt.History) > 0 {
			if err := tx.Create(&debt.History).Error; err != nil {
				return fmt.Errorf("ошибка сохранения истории: %w", err)
			}
		}
	}

	return nil
}

// deleteDebts удаляет долги клиента вместе с графиками и историей.
// Вложения удаляются отдельно через хранилище.
func deleteDebts(tx *gorm.DB, customerID string) error {
	debtIDs := tx.Model(&models.Debt{}).Select("id").Where("customer_id = ?", customerID)

	if err := tx.Where("debt_id IN (?)", debtIDs).Delete(&models.Installment{}).Error; err != nil {
		return fmt.Errorf("ошибка удаления графика платежей: %w", err)
	}
	if err := tx.Where("debt_id IN (?)", debtIDs).Delete(&models.PaymentRecord{}).Error; err != nil {
		return fmt.Errorf("ошибка удаления истории: %w", err)
	}
	if err := tx.Where("customer_id = ?", customerID).Delete(&models.Debt{}).Error; err != nil {
		return fmt.Errorf("ошибка удаления долгов: %w", err)
	}
	return nil
}

// normalize проставляет ссылки и порядковые номера перед записью
func normalize(customer *models.Customer) {
	for i := range customer.Debts {
		debt := &customer.Debts[i]
		debt.CustomerID = customer.ID
		debt.Position = i
		for j := range debt.Installments {
			debt.Installments[j].DebtID = debt.ID
			debt.Installments[j].Seq = j + 1
		}
		for j := range debt.History {
			debt.History[j].DebtID = debt.ID
			debt.History[j].Seq = j + 1
		}
	}
}

func ensureSlices(customer *models.Customer) {
	if customer.Debts == nil {
		customer.Debts = []models.Debt{}
	}
	for i := range customer.Debts {
		debt := &customer.Debts[i]
		if debt.Installments == nil {
			debt.Installments = []models.Installment{}
		}
		if debt.History == nil {
			debt.History = []models.PaymentRecord{}
		}
		if debt.Images == nil {
			debt.Images = []models.DebtImage{}
		}
	}
}
