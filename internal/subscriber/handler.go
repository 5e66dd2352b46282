package subscriber

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the subscriber CRUD endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a subscriber HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List returns the whole collection as {"users": [...]}.
func (h *Handler) List(c *fiber.Ctx) error {
	records, err := h.service.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	if records == nil {
		records = []Record{}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"users": records})
}

// Create stores a candidate record and returns the server-assigned row.
func (h *Handler) Create(c *fiber.Ctx) error {
	var candidate Record
	if err := c.BodyParser(&candidate); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.service.Create(c.UserContext(), candidate)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"user": rec})
}

type updateRequest struct {
	ID   string `json:"id"`
	Data Patch  `json:"data"`
}

// Update applies a partial update to an existing record.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.ID == "" {
		return fiber.NewError(http.StatusBadRequest, "id required")
	}
	rec, err := h.service.Update(c.UserContext(), req.ID, req.Data)
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"user": rec})
}

type deleteRequest struct {
	ID string `json:"id"`
}

// Delete removes a record by id.
func (h *Handler) Delete(c *fiber.Ctx) error {
	var req deleteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.ID == "" {
		return fiber.NewError(http.StatusBadRequest, "id required")
	}
	err := h.service.Delete(c.UserContext(), req.ID)
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"ok": true})
}
