package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"debtbook/models"

	"github.com/spf13/afero"
)

const blobExt = ".jpg"

// BlobStore хранит содержимое вложений в локальной файловой системе:
// по каталогу на долг, по файлу на изображение
type BlobStore struct {
	fs   afero.Fs
	root string
}

// NewBlobStore создает хранилище в каталоге root
func NewBlobStore(fs afero.Fs, root string) *BlobStore {
	return &BlobStore{fs: fs, root: root}
}

// NewOsBlobStore создает хранилище на диске
func NewOsBlobStore(root string) *BlobStore {
	return NewBlobStore(afero.NewOsFs(), root)
}

func (s *BlobStore) dir(debtID string) string {
	return filepath.Join(s.root, filepath.Base(debtID))
}

func (s *BlobStore) path(debtID, imageID string) string {
	return filepath.Join(s.dir(debtID), filepath.Base(imageID)+blobExt)
}

// Save записывает содержимое вложений и удаляет файлы, которых нет в наборе.
// Изображения без содержимого не трогаются.
func (s *BlobStore) Save(ctx context.Context, debtID string, images []models.DebtImage) error {
	if err := s.fs.MkdirAll(s.dir(debtID), 0o755); err != nil {
		return fmt.Errorf("ошибка создания каталога вложений: %w", err)
	}

	keep := make(map[string]bool, len(images))
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return err
		}
		keep[img.ID+blobExt] = true
		if img.Content == nil {
			continue
		}
		if err := afero.WriteFile(s.fs, s.path(debtID, img.ID), img.Content, 0o644); err != nil {
			return fmt.Errorf("ошибка записи вложения %s: %w", img.ID, err)
		}
	}

	entries, err := afero.ReadDir(s.fs, s.dir(debtID))
	if err != nil {
		return fmt.Errorf("ошибка чтения каталога вложений: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || keep[entry.Name()] {
			continue
		}
		if err := s.fs.Remove(filepath.Join(s.dir(debtID), entry.Name())); err != nil {
			return fmt.Errorf("ошибка удаления вложения %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// Load читает все вложения долга, порядок не гарантируется
func (s *BlobStore) Load(ctx context.Context, debtID string) ([]models.DebtImage, error) {
	entries, err := afero.ReadDir(s.fs, s.dir(debtID))
	if err != nil {
		if os.IsNotExist(err) {
			return []models.DebtImage{}, nil
		}
		return nil, fmt.Errorf("ошибка чтения каталога вложений: %w", err)
	}

	images := make([]models.DebtImage, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), blobExt) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := strings.TrimSuffix(entry.Name(), blobExt)
		content, err := s.Open(debtID, id)
		if err != nil {
			return nil, err
		}
		images = append(images, models.DebtImage{
			ID:      id,
			DebtID:  debtID,
			Size:    int64(len(content)),
			Content: content,
		})
	}
	return images, nil
}

// Open читает содержимое одного вложения
func (s *BlobStore) Open(debtID, imageID string) ([]byte, error) {
	content, err := afero.ReadFile(s.fs, s.path(debtID, imageID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("ошибка чтения вложения %s: %w", imageID, err)
	}
	return content, nil
}

// Delete удаляет каталог долга со всеми вложениями
func (s *BlobStore) Delete(ctx context.Context, debtID string) error {
	if err := s.fs.RemoveAll(s.dir(debtID)); err != nil {
		return fmt.Errorf("ошибка удаления вложений: %w", err)
	}
	return nil
}
