package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aegis-response/aegis_console/internal/subscriber"
)

// RegisterUserRoutes wires the subscriber record CRUD surface. All four verbs
// share the collection path; PATCH and DELETE carry the target id in the body.
func RegisterUserRoutes(r fiber.Router, h *subscriber.Handler) {
	r.Get("/users", h.List)
	r.Post("/users", h.Create)
	r.Patch("/users", h.Update)
	r.Delete("/users", h.Delete)
}
