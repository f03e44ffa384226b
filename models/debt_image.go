package models

import "time"

// DebtImage представляет вложение (фото документа) к долгу.
// Содержимое хранится только в локальном хранилище, в базе лежат метаданные.
type DebtImage struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	DebtID      string    `gorm:"type:varchar(36);not null;index" json:"debt_id"`
	Position    int       `gorm:"not null;default:0" json:"-"`
	ContentType string    `gorm:"size:50;not null" json:"content_type"`
	Size        int64     `gorm:"not null" json:"size"`
	Checksum    string    `gorm:"size:128;not null" json:"checksum"`
	AddedAt     time.Time `gorm:"not null" json:"added_at"`
	Content     []byte    `gorm:"-" json:"-"`
}

// TableName возвращает имя таблицы для модели DebtImage
func (DebtImage) TableName() string {
	return "debt_images"
}
