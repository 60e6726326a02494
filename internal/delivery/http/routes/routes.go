package routes

import (
	"funda-scraper/internal/delivery/http/handler"
	"funda-scraper/internal/delivery/http/middleware"
	"funda-scraper/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	health *handler.HealthHandler
	scrape *handler.ScrapeHandler
	jobs   *handler.JobHandler
	ws     *ws.Handler
	auth   *middleware.AuthMiddleware
}

func NewRegistry(scrape *handler.ScrapeHandler, jobs *handler.JobHandler, wsHandler *ws.Handler, auth *middleware.AuthMiddleware) *Registry {
	return &Registry{
		health: handler.NewHealthHandler(),
		scrape: scrape,
		jobs:   jobs,
		ws:     wsHandler,
		auth:   auth,
	}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.health.RegisterRoutes(app)
	r.registerScrape(app)
	if r.ws != nil {
		r.ws.RegisterRoutes(app)
	}
}

func (r *Registry) registerScrape(app *fiber.App) {
	g := app.Group("/scrape", r.auth.Middleware())

	if r.scrape != nil {
		g.Get("", r.scrape.HandleScrape)
	}
	if r.jobs != nil {
		g.Get("/start", r.jobs.HandleStart)
		g.Get("/status/:job_id", r.jobs.HandleStatus)
		g.Get("/result/:job_id", r.jobs.HandleResult)
		g.Get("/jobs", r.jobs.HandleList)
	}
}
