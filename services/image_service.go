package services

import (
	"context"
	"time"

	"debtbook/database"
	"debtbook/models"
	"debtbook/storage"
	"debtbook/utils"

	"go.uber.org/zap"
)

// ImageService управляет вложениями долгов
type ImageService struct {
	db          *database.Database
	attachments *storage.AttachmentSync
}

// NewImageService создает новый экземпляр ImageService
func NewImageService(db *database.Database, attachments *storage.AttachmentSync) *ImageService {
	return &ImageService{db: db, attachments: attachments}
}

// ensureDebt проверяет, что долг принадлежит клиенту
func (s *ImageService) ensureDebt(ctx context.Context, customerID, debtID string) error {
	customer, err := s.db.GetCustomer(ctx, customerID)
	if err != nil {
		return mapNotFound(err)
	}
	if customer.FindDebt(debtID) < 0 {
		return ErrDebtNotFound
	}
	return nil
}

// List возвращает метаданные вложений долга
func (s *ImageService) List(ctx context.Context, customerID, debtID string) ([]models.DebtImage, error) {
	if err := s.ensureDebt(ctx, customerID, debtID); err != nil {
		return nil, err
	}
	return s.attachments.List(ctx, debtID)
}

// Add добавляет изображение к долгу
func (s *ImageService) Add(ctx context.Context, customerID, debtID string, raw []byte) (*models.DebtImage, error) {
	start := time.Now()
	if err := s.ensureDebt(ctx, customerID, debtID); err != nil {
		return nil, err
	}
	img, err := s.attachments.Add(ctx, debtID, raw)
	utils.LogOperation("add_image", start, err, zap.String("debt_id", debtID))
	return img, err
}

// Replace заменяет содержимое изображения
func (s *ImageService) Replace(ctx context.Context, customerID, debtID, imageID string, raw []byte) (*models.DebtImage, error) {
	start := time.Now()
	if err := s.ensureDebt(ctx, customerID, debtID); err != nil {
		return nil, err
	}
	img, err := s.attachments.Replace(ctx, debtID, imageID, raw)
	utils.LogOperation("replace_image", start, err, zap.String("debt_id", debtID), zap.String("image_id", imageID))
	return img, err
}

// Remove удаляет изображение
func (s *ImageService) Remove(ctx context.Context, customerID, debtID, imageID string) error {
	if err := s.ensureDebt(ctx, customerID, debtID); err != nil {
		return err
	}
	return s.attachments.Remove(ctx, debtID, imageID)
}

// Content возвращает изображение вместе с содержимым
func (s *ImageService) Content(ctx context.Context, customerID, debtID, imageID string) (*models.DebtImage, error) {
	if err := s.ensureDebt(ctx, customerID, debtID); err != nil {
		return nil, err
	}
	return s.attachments.Content(ctx, debtID, imageID)
}
