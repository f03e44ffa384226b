package controllers

import (
	"net/http"

	"debtbook/middleware"
	"debtbook/utils"

	"github.com/gorilla/mux"
)

// Router набор контроллеров и зависимостей middleware
type Router struct {
	Auth        *AuthController
	Customers   *CustomerController
	Debts       *DebtController
	Images      *ImageController
	System      *SystemController
	TokenParser middleware.TokenParser
	SignInLimit *utils.RateLimiter
	Metrics     *utils.Metrics
}

// Handler собирает маршруты API
func (rt *Router) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.Logger(rt.Metrics))
	router.Use(middleware.Recovery(rt.Metrics))

	// Публичные маршруты для аутентификации
	signIn := router.PathPrefix("/api/auth").Subrouter()
	signIn.Use(middleware.RateLimit(rt.SignInLimit))
	signIn.HandleFunc("/signIn", rt.Auth.SignIn).Methods(http.MethodPost)

	// Защищенные маршруты
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.AuthMiddleware(rt.TokenParser))

	protected.HandleFunc("/gold-price", rt.System.GoldPrice).Methods(http.MethodGet)
	protected.HandleFunc("/metrics", rt.System.Metrics).Methods(http.MethodGet)

	// Маршруты для работы с клиентами
	protected.HandleFunc("/customers", rt.Customers.ListCustomers).Methods(http.MethodGet)
	protected.HandleFunc("/customers", rt.Customers.CreateCustomer).Methods(http.MethodPost)
	protected.HandleFunc("/customers/{id}", rt.Customers.GetCustomer).Methods(http.MethodGet)
	protected.HandleFunc("/customers/{id}", rt.Customers.DeleteCustomer).Methods(http.MethodDelete)
	protected.HandleFunc("/customers/{id}/archive", rt.Customers.ToggleArchive).Methods(http.MethodPost)

	// Маршруты для работы с долгами
	protected.HandleFunc("/customers/{id}/debts", rt.Customers.AddDebt).Methods(http.MethodPost)
	protected.HandleFunc("/customers/{id}/debts/{debtId}", rt.Debts.GetDebt).Methods(http.MethodGet)
	protected.HandleFunc("/customers/{id}/debts/{debtId}", rt.Customers.RenameDebt).Methods(http.MethodPatch)
	protected.HandleFunc("/customers/{id}/debts/{debtId}", rt.Customers.DeleteDebt).Methods(http.MethodDelete)
	protected.HandleFunc("/customers/{id}/debts/{debtId}/payments", rt.Debts.Pay).Methods(http.MethodPost)
	protected.HandleFunc("/customers/{id}/debts/{debtId}/payments/preview", rt.Debts.PreviewPayment).Methods(http.MethodGet)
	protected.HandleFunc("/customers/{id}/debts/{debtId}/adjustments", rt.Debts.Adjust).Methods(http.MethodPost)
	protected.HandleFunc("/customers/{id}/debts/{debtId}/installments/{instId}/toggle", rt.Debts.ToggleInstallment).Methods(http.MethodPost)
	protected.HandleFunc("/customers/{id}/debts/{debtId}/installments/{instId}/reminder", rt.Debts.Reminder).Methods(http.MethodGet)
	protected.HandleFunc("/customers/{id}/debts/{debtId}/history/{recordId}/receipt", rt.Debts.Receipt).Methods(http.MethodGet)

	// Маршруты для работы с вложениями
	protected.HandleFunc("/customers/{id}/debts/{debtId}/images", rt.Images.ListImages).Methods(http.MethodGet)
	protected.HandleFunc("/customers/{id}/debts/{debtId}/images", rt.Images.AddImage).Methods(http.MethodPost)
	protected.HandleFunc("/customers/{id}/debts/{debtId}/images/{imageId}", rt.Images.ReplaceImage).Methods(http.MethodPut)
	protected.HandleFunc("/customers/{id}/debts/{debtId}/images/{imageId}", rt.Images.RemoveImage).Methods(http.MethodDelete)
	protected.HandleFunc("/customers/{id}/debts/{debtId}/images/{imageId}/content", rt.Images.ImageContent).Methods(http.MethodGet)

	// CORS снаружи роутера, чтобы preflight не отсекался по методу
	return middleware.CORS(router)
}
