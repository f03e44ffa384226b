package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordType представляет тип записи в истории долга
type RecordType string

const (
	RecordTypePayment  RecordType = "PAYMENT"  // Погашение
	RecordTypeIncrease RecordType = "INCREASE" // Увеличение долга
)

// PaymentRecord представляет запись в истории операций по долгу.
// Записи только добавляются; удаление возможно лишь по RelatedID при отмене отметки платежа.
type PaymentRecord struct {
	ID        string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	DebtID    string          `gorm:"type:varchar(36);not null;index" json:"debt_id"`
	Seq       int             `gorm:"not null" json:"-"`
	Date      time.Time       `gorm:"not null" json:"date"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,3);not null" json:"amount"`
	Type      RecordType      `gorm:"type:varchar(20);not null" json:"type"`
	Note      string          `gorm:"size:255" json:"note"`
	RelatedID string          `gorm:"type:varchar(36);index" json:"related_id,omitempty"`
}

// TableName возвращает имя таблицы для модели PaymentRecord
func (PaymentRecord) TableName() string {
	return "payment_records"
}
