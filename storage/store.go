package storage

import (
	"context"

	"debtbook/models"
)

// AttachmentStore хранит вложения одного долга целиком
type AttachmentStore interface {
	// Save заменяет набор вложений долга
	Save(ctx context.Context, debtID string, images []models.DebtImage) error
	// Load возвращает вложения долга в порядке добавления
	Load(ctx context.Context, debtID string) ([]models.DebtImage, error)
	// Delete удаляет все вложения долга
	Delete(ctx context.Context, debtID string) error
}
