package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/aegis-response/aegis_console/internal/staff"
)

// Handler exposes auth endpoints for login/refresh/logout.
type Handler struct {
	accounts *staff.Service
	svc      *Service
}

// NewHandler constructs the auth HTTP handler.
func NewHandler(accounts *staff.Service, svc *Service) *Handler {
	return &Handler{accounts: accounts, svc: svc}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccountID    string `json:"account_id"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Login validates credentials and returns a token pair.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	account, err := h.accounts.Authenticate(c.UserContext(), staff.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}
	pair, err := h.svc.Login(account)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(loginResponse{
		AccountID:    account.ID,
		Name:         account.Name,
		Role:         account.Role,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh issues a new access token using a valid refresh token.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	token, exp, err := h.svc.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"access_token": token, "expires_in": exp})
}

// Logout invalidates existing tokens by bumping the token version.
func (h *Handler) Logout(c *fiber.Ctx) error {
	accountID, _ := c.Locals("account_id").(string)
	if accountID == "" {
		return fiber.NewError(http.StatusUnauthorized, "missing session")
	}
	if err := h.svc.Logout(c.UserContext(), accountID); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "logged_out"})
}
