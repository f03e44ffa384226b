package services

import (
	"errors"

	"debtbook/storage"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrDebtNotFound       = errors.New("debt not found")
	ErrRecordNotFound     = errors.New("history record not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Ошибки вложений определены в storage
	ErrImageNotFound = storage.ErrImageNotFound
	ErrTooManyImages = storage.ErrTooManyImages
)
