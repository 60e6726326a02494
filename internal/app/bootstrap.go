package app

import (
	"fmt"
	"strings"

	"funda-scraper/internal/delivery/http/handler"
	"funda-scraper/internal/delivery/http/middleware"
	"funda-scraper/internal/delivery/http/routes"
	"funda-scraper/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber *fiber.App
}

func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c)
	registerRoutes(f, c)

	return &App{Fiber: f}
}

func registerGlobalMiddleware(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(c.Logger).Middleware())
	app.Use(middleware.NewErrorMiddleware(c.Logger).Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	limits := handler.PageLimits{Default: c.Config.Scraper.DefaultPages, Max: c.Config.Scraper.MaxPages}
	routes.NewRegistry(
		handler.NewScrapeHandler(c.Runner, limits, c.Logger),
		handler.NewJobHandler(c.Manager, limits),
		ws.NewHandler(c.Hub, c.Logger),
		middleware.NewAuthMiddleware(c.JWT),
	).Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
