package controllers

import (
	"net/http"
	"strconv"

	"debtbook/services"

	"github.com/gorilla/mux"
)

// DebtController обрабатывает операции над графиком долга
type DebtController struct {
	debts *services.DebtService
}

// NewDebtController создает новый экземпляр DebtController
func NewDebtController(debts *services.DebtService) *DebtController {
	return &DebtController{debts: debts}
}

// GetDebt возвращает долг с расчетными показателями
func (c *DebtController) GetDebt(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	debt, err := c.debts.Get(r.Context(), vars["id"], vars["debtId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, debt)
}

// Pay обрабатывает платеж
func (c *DebtController) Pay(w http.ResponseWriter, r *http.Request) {
	var dto services.PaymentDTO
	if !decodeJSON(w, r, &dto) {
		return
	}

	vars := mux.Vars(r)
	debt, err := c.debts.Pay(r.Context(), vars["id"], vars["debtId"], dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, debt)
}

// PreviewPayment показывает списание платежа; ?amount= и необязательный ?in_cash=true
func (c *DebtController) PreviewPayment(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid amount"})
		return
	}
	inCash, _ := strconv.ParseBool(q.Get("in_cash"))

	vars := mux.Vars(r)
	preview, err := c.debts.PreviewPayment(r.Context(), vars["id"], vars["debtId"], services.PaymentDTO{Amount: amount, InCash: inCash})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// Adjust обрабатывает увеличение долга
func (c *DebtController) Adjust(w http.ResponseWriter, r *http.Request) {
	var dto services.AdjustmentDTO
	if !decodeJSON(w, r, &dto) {
		return
	}

	vars := mux.Vars(r)
	debt, err := c.debts.Adjust(r.Context(), vars["id"], vars["debtId"], dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, debt)
}

// ToggleInstallment переключает отметку оплаты платежа
func (c *DebtController) ToggleInstallment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	debt, err := c.debts.ToggleInstallment(r.Context(), vars["id"], vars["debtId"], vars["instId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, debt)
}

// Reminder возвращает ссылку WhatsApp с напоминанием о платеже
func (c *DebtController) Reminder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	link, err := c.debts.ReminderLink(r.Context(), vars["id"], vars["debtId"], vars["instId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// Receipt возвращает ссылку WhatsApp с квитанцией
func (c *DebtController) Receipt(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	link, err := c.debts.ReceiptLink(r.Context(), vars["id"], vars["debtId"], vars["recordId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}
