package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"debtbook/services"
	"debtbook/storage"

	"github.com/gorilla/mux"
)

// maxUploadSize предельный размер загружаемого файла
const maxUploadSize = 10 << 20

// ImageController обрабатывает вложения долгов
type ImageController struct {
	images *services.ImageService
}

// NewImageController создает новый экземпляр ImageController
func NewImageController(images *services.ImageService) *ImageController {
	return &ImageController{images: images}
}

// readUpload читает изображение из multipart-поля file или из JSON {"data_url": ...}
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", storage.ErrInvalidImage, err)
		}
		defer file.Close()
		return io.ReadAll(file)
	}

	var body struct {
		DataURL string `json:"data_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidImage, err)
	}
	return storage.DecodeDataURL(body.DataURL)
}

// ListImages возвращает вложения долга
func (c *ImageController) ListImages(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	images, err := c.images.List(r.Context(), vars["id"], vars["debtId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

// AddImage добавляет изображение
func (c *ImageController) AddImage(w http.ResponseWriter, r *http.Request) {
	raw, err := readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	vars := mux.Vars(r)
	img, err := c.images.Add(r.Context(), vars["id"], vars["debtId"], raw)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, img)
}

// ReplaceImage заменяет изображение
func (c *ImageController) ReplaceImage(w http.ResponseWriter, r *http.Request) {
	raw, err := readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	vars := mux.Vars(r)
	img, err := c.images.Replace(r.Context(), vars["id"], vars["debtId"], vars["imageId"], raw)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, img)
}

// RemoveImage удаляет изображение
func (c *ImageController) RemoveImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := c.images.Remove(r.Context(), vars["id"], vars["debtId"], vars["imageId"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImageContent отдает содержимое изображения
func (c *ImageController) ImageContent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	img, err := c.images.Content(r.Context(), vars["id"], vars["debtId"], vars["imageId"])
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Content)))
	w.Header().Set("ETag", strconv.Quote(img.Checksum))
	w.WriteHeader(http.StatusOK)
	w.Write(img.Content)
}
