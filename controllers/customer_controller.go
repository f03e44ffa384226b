package controllers

import (
	"net/http"

	"debtbook/services"

	"github.com/gorilla/mux"
)

// CustomerController обрабатывает запросы по клиентам и их долгам
type CustomerController struct {
	customers *services.CustomerService
}

// NewCustomerController создает новый экземпляр CustomerController
func NewCustomerController(customers *services.CustomerService) *CustomerController {
	return &CustomerController{customers: customers}
}

// ListCustomers возвращает список клиентов
func (c *CustomerController) ListCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.ListFilter{
		Query:  q.Get("q"),
		Tab:    q.Get("tab"),
		Status: q.Get("status"),
		Type:   q.Get("type"),
		Sort:   q.Get("sort"),
	}

	customers, err := c.customers.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

// CreateCustomer создает клиента с первым долгом
func (c *CustomerController) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var dto services.CreateCustomerDTO
	if !decodeJSON(w, r, &dto) {
		return
	}

	customer, err := c.customers.Create(r.Context(), dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

// GetCustomer возвращает клиента со всеми долгами
func (c *CustomerController) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := c.customers.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// DeleteCustomer удаляет клиента
func (c *CustomerController) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := c.customers.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleArchive переносит клиента в архив или обратно
func (c *CustomerController) ToggleArchive(w http.ResponseWriter, r *http.Request) {
	customer, err := c.customers.ToggleArchive(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// AddDebt регистрирует новый долг клиента
func (c *CustomerController) AddDebt(w http.ResponseWriter, r *http.Request) {
	var dto services.CreateDebtDTO
	if !decodeJSON(w, r, &dto) {
		return
	}

	debt, err := c.customers.AddDebt(r.Context(), mux.Vars(r)["id"], dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, debt)
}

// RenameDebt меняет подпись долга
func (c *CustomerController) RenameDebt(w http.ResponseWriter, r *http.Request) {
	var dto services.RenameDebtDTO
	if !decodeJSON(w, r, &dto) {
		return
	}

	vars := mux.Vars(r)
	debt, err := c.customers.RenameDebt(r.Context(), vars["id"], vars["debtId"], dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, debt)
}

// DeleteDebt удаляет долг
func (c *CustomerController) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := c.customers.DeleteDebt(r.Context(), vars["id"], vars["debtId"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
