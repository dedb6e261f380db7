package main

import (
	"fmt"
	"log"
	"net/url"
	"os"

	"formhive-backend/src/database"
	"formhive-backend/src/jobs"
	"formhive-backend/src/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
)

func main() {

	err := database.ConnectMongoDB()
	if err != nil {
		log.Fatalf("Error connecting to the database: %v", err)
	}

	// Redis and the job queue are optional in development; imports fall
	// back to running in-process when they are absent.
	database.InitRedis()
	database.InitAsynq()
	go jobs.StartWorker()

	app := fiber.New(fiber.Config{
		BodyLimit: 12 * 1024 * 1024, // uploads are capped at 10MB, leave headroom
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)

	routes.InitRoutes(app)

	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		appPort = "8888"
	}

	log.Println("Server is running on port " + appPort)
	err = app.Listen(fmt.Sprintf(":%s", url.PathEscape(appPort)))
	if err != nil {
		log.Fatal(err)
	}
}
