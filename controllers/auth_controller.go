package controllers

import (
	"net/http"

	"debtbook/services"
	"debtbook/utils"
)

// AuthController обрабатывает вход владельца
type AuthController struct {
	auth *services.AuthService
}

// NewAuthController создает новый экземпляр AuthController
func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// SignIn обрабатывает вход владельца
func (c *AuthController) SignIn(w http.ResponseWriter, r *http.Request) {
	var req services.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	response, err := c.auth.SignIn(req)
	if err != nil {
		utils.LogInfo("Неудачная попытка входа")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}
