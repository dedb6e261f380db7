package routes

import (
	"formhive-backend/src/controllers"
	"formhive-backend/src/middleware"

	"github.com/gofiber/fiber/v2"
)

func submissionRoutes(router fiber.Router) {
	// respondent-facing: published forms are filled without auth
	public := router.Group("/forms/:formId")
	public.Post("/submissions", controllers.SubmitForm)
	public.Post("/submissions/draft", controllers.SaveDraft)

	// builder-facing
	managed := router.Group("/forms/:formId", middleware.AuthJWT)
	managed.Get("/submissions", controllers.GetSubmissionsByForm)
	managed.Get("/submissions/export", controllers.ExportSubmissions)
	managed.Get("/analytics", controllers.GetFieldAnalytics)

	submissions := router.Group("/submissions", middleware.AuthJWT)
	submissions.Get("/:id", controllers.GetSubmission)
	submissions.Delete("/:id", controllers.DeleteSubmission)
}
