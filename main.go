package main

import (
	"fmt"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"github.com/lojadigital/storefront/app/repository"
	"github.com/lojadigital/storefront/internal/pkg/cache"
	"github.com/lojadigital/storefront/internal/pkg/database"
	"github.com/lojadigital/storefront/internal/pkg/env"
	"github.com/lojadigital/storefront/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if env.IsDev() {
		log.SetLevel(log.DebugLevel)
	}

	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	app := fiber.New(fiber.Config{
		AppName: "storefront-payments",
	})
	app.Use(recover.New())
	app.Use(logger.New())

	// OPENAPI DOCS
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}))

	// ROUTER
	router.InstallRouter(app)

	return app
}
