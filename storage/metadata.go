package storage

import (
	"context"
	"fmt"

	"debtbook/models"

	"gorm.io/gorm"
)

// MetadataStore хранит метаданные вложений в базе, без содержимого
type MetadataStore struct {
	db *gorm.DB
}

// NewMetadataStore создает новый экземпляр MetadataStore
func NewMetadataStore(db *gorm.DB) *MetadataStore {
	return &MetadataStore{db: db}
}

// Save заменяет метаданные вложений долга
func (s *MetadataStore) Save(ctx context.Context, debtID string, images []models.DebtImage) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("debt_id = ?", debtID).Delete(&models.DebtImage{}).Error; err != nil {
			return fmt.Errorf("ошибка удаления метаданных вложений: %w", err)
		}
		if len(images) == 0 {
			return nil
		}

		rows := make([]models.DebtImage, len(images))
		for i, img := range images {
			rows[i] = img
			rows[i].DebtID = debtID
			rows[i].Position = i
			rows[i].Content = nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("ошибка сохранения метаданных вложений: %w", err)
		}
		return nil
	})
}

// Load возвращает метаданные вложений долга
func (s *MetadataStore) Load(ctx context.Context, debtID string) ([]models.DebtImage, error) {
	images := []models.DebtImage{}
	if err := s.db.WithContext(ctx).
		Where("debt_id = ?", debtID).
		Order("position ASC").
		Find(&images).Error; err != nil {
		return nil, fmt.Errorf("ошибка получения метаданных вложений: %w", err)
	}
	return images, nil
}

// Delete удаляет метаданные вложений долга
func (s *MetadataStore) Delete(ctx context.Context, debtID string) error {
	if err := s.db.WithContext(ctx).Where("debt_id = ?", debtID).Delete(&models.DebtImage{}).Error; err != nil {
		return fmt.Errorf("ошибка удаления метаданных вложений: %w", err)
	}
	return nil
}
