package routes

import (
	"formhive-backend/src/controllers"
	"formhive-backend/src/middleware"

	"github.com/gofiber/fiber/v2"
)

// formRoutes wires form management endpoints. All require a builder token.
func formRoutes(router fiber.Router) {
	forms := router.Group("/forms", middleware.AuthJWT)

	forms.Post("/", controllers.CreateForm)
	forms.Get("/", controllers.GetForms)
	forms.Get("/:id", controllers.GetFormByID)
	forms.Put("/:id", controllers.UpdateForm)
	forms.Patch("/:id", controllers.UpdateForm)
	forms.Delete("/:id", controllers.DeleteForm)

	forms.Post("/:id/publish", controllers.PublishForm)
	forms.Post("/:id/archive", controllers.ArchiveForm)
	forms.Post("/:id/duplicate", controllers.DuplicateForm)
}
