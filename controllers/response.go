package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"debtbook/goldprice"
	"debtbook/ledger"
	"debtbook/services"
	"debtbook/storage"
	"debtbook/utils"
)

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.LogError("Ошибка кодирования ответа: %v", err)
	}
}

// statusFor сопоставляет ошибку сервиса с кодом ответа
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, ledger.ErrInvalidArgument),
		errors.Is(err, storage.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrCustomerNotFound),
		errors.Is(err, services.ErrDebtNotFound),
		errors.Is(err, services.ErrRecordNotFound),
		errors.Is(err, ledger.ErrInstallmentNotFound),
		errors.Is(err, storage.ErrImageNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrGoldPriceRequired),
		errors.Is(err, goldprice.ErrPriceUnavailable),
		errors.Is(err, storage.ErrTooManyImages):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError отвечает ошибкой; внутренние ошибки не раскрываются клиенту
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		utils.LogError("Внутренняя ошибка: %v", err)
		message = "Internal server error"
	}
	writeJSON(w, status, ErrorResponse{Error: message})
}

// decodeJSON читает тело запроса
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}
