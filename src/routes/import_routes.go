package routes

import (
	"formhive-backend/src/controllers"
	"formhive-backend/src/middleware"

	"github.com/gofiber/fiber/v2"
)

func importRoutes(router fiber.Router) {
	imports := router.Group("/imports", middleware.AuthJWT)

	imports.Post("/analyze", controllers.AnalyzeImportFile)
	imports.Post("/", controllers.StartImport)
	imports.Get("/", controllers.ListImportJobs)
	imports.Get("/:id", controllers.GetImportJob)
	imports.Get("/:id/progress", controllers.GetImportProgress)
	imports.Get("/:id/errors", controllers.DownloadImportErrors)
	imports.Post("/:id/cancel", controllers.CancelImport)
}
