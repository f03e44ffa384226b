package storage

import (
	"context"
	"fmt"
	"time"

	"debtbook/models"
	"debtbook/utils"

	"github.com/google/uuid"
)

// DefaultMaxImages максимальное число вложений у одного долга
const DefaultMaxImages = 20

// AttachmentSync связывает метаданные в базе и содержимое на диске.
// Содержимое никогда не попадает в базу.
type AttachmentSync struct {
	meta     AttachmentStore
	blobs    *BlobStore
	key      []byte
	maxCount int
	maxEdge  int
	now      func() time.Time
}

// Options параметры AttachmentSync
type Options struct {
	HMACKey   []byte
	MaxImages int
	MaxEdge   int
	Now       func() time.Time
}

// NewAttachmentSync создает новый экземпляр AttachmentSync
func NewAttachmentSync(meta AttachmentStore, blobs *BlobStore, opts Options) *AttachmentSync {
	if opts.MaxImages <= 0 {
		opts.MaxImages = DefaultMaxImages
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AttachmentSync{
		meta:     meta,
		blobs:    blobs,
		key:      opts.HMACKey,
		maxCount: opts.MaxImages,
		maxEdge:  opts.MaxEdge,
		now:      opts.Now,
	}
}

// Push сохраняет вложения долга: сначала содержимое локально, затем метаданные
func (s *AttachmentSync) Push(ctx context.Context, debtID string, images []models.DebtImage) error {
	if len(images) > s.maxCount {
		return fmt.Errorf("%w: %d > %d", ErrTooManyImages, len(images), s.maxCount)
	}
	for i := range images {
		if images[i].Content != nil {
			images[i].Size = int64(len(images[i].Content))
			images[i].Checksum = utils.GenerateHMAC(images[i].Content, s.key)
		}
	}
	if err := s.blobs.Save(ctx, debtID, images); err != nil {
		return err
	}
	return s.meta.Save(ctx, debtID, images)
}

// Hydrate подставляет в долги их вложения. Содержимое с неверной
// контрольной суммой не подставляется.
func (s *AttachmentSync) Hydrate(ctx context.Context, debts []models.Debt) error {
	for i := range debts {
		images, err := s.meta.Load(ctx, debts[i].ID)
		if err != nil {
			return err
		}
		blobs, err := s.blobs.Load(ctx, debts[i].ID)
		if err != nil {
			return err
		}
		content := make(map[string][]byte, len(blobs))
		for _, b := range blobs {
			content[b.ID] = b.Content
		}
		for j := range images {
			data, ok := content[images[j].ID]
			if !ok {
				continue
			}
			if !utils.ValidateHMAC(data, images[j].Checksum, s.key) {
				utils.LogError("Вложение %s долга %s не прошло проверку контрольной суммы", images[j].ID, debts[i].ID)
				continue
			}
			images[j].Content = data
		}
		debts[i].Images = images
	}
	return nil
}

// Purge удаляет вложения долгов из базы и с диска
func (s *AttachmentSync) Purge(ctx context.Context, debtIDs ...string) error {
	for _, id := range debtIDs {
		if err := s.meta.Delete(ctx, id); err != nil {
			return err
		}
		if err := s.blobs.Delete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// List возвращает метаданные вложений долга
func (s *AttachmentSync) List(ctx context.Context, debtID string) ([]models.DebtImage, error) {
	return s.meta.Load(ctx, debtID)
}

// Add нормализует изображение и добавляет его к долгу
func (s *AttachmentSync) Add(ctx context.Context, debtID string, raw []byte) (*models.DebtImage, error) {
	images, err := s.meta.Load(ctx, debtID)
	if err != nil {
		return nil, err
	}
	if len(images) >= s.maxCount {
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManyImages, s.maxCount)
	}

	content, err := NormalizeImage(raw, s.maxEdge)
	if err != nil {
		return nil, err
	}

	img := models.DebtImage{
		ID:          uuid.NewString(),
		DebtID:      debtID,
		ContentType: ContentTypeJPEG,
		AddedAt:     s.now(),
		Content:     content,
	}
	images = append(images, img)
	if err := s.Push(ctx, debtID, images); err != nil {
		return nil, err
	}

	added := images[len(images)-1]
	return &added, nil
}

// Replace заменяет содержимое вложения, время добавления обновляется
func (s *AttachmentSync) Replace(ctx context.Context, debtID, imageID string, raw []byte) (*models.DebtImage, error) {
	images, err := s.meta.Load(ctx, debtID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(images, imageID)
	if idx < 0 {
		return nil, ErrImageNotFound
	}

	content, err := NormalizeImage(raw, s.maxEdge)
	if err != nil {
		return nil, err
	}

	images[idx].Content = content
	images[idx].ContentType = ContentTypeJPEG
	images[idx].AddedAt = s.now()
	if err := s.Push(ctx, debtID, images); err != nil {
		return nil, err
	}

	replaced := images[idx]
	return &replaced, nil
}

// Remove удаляет одно вложение долга
func (s *AttachmentSync) Remove(ctx context.Context, debtID, imageID string) error {
	images, err := s.meta.Load(ctx, debtID)
	if err != nil {
		return err
	}
	idx := indexOf(images, imageID)
	if idx < 0 {
		return ErrImageNotFound
	}
	images = append(images[:idx], images[idx+1:]...)
	return s.Push(ctx, debtID, images)
}

// Content возвращает проверенное содержимое вложения
func (s *AttachmentSync) Content(ctx context.Context, debtID, imageID string) (*models.DebtImage, error) {
	images, err := s.meta.Load(ctx, debtID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(images, imageID)
	if idx < 0 {
		return nil, ErrImageNotFound
	}

	data, err := s.blobs.Open(debtID, imageID)
	if err != nil {
		return nil, err
	}
	if !utils.ValidateHMAC(data, images[idx].Checksum, s.key) {
		return nil, ErrChecksumMismatch
	}

	img := images[idx]
	img.Content = data
	return &img, nil
}

func indexOf(images []models.DebtImage, id string) int {
	for i := range images {
		if images[i].ID == id {
			return i
		}
	}
	return -1
}
