package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abhigyan-p512/subscription-management/internal/pkg/config"
)

// Router installs a group of routes on the fiber app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter registers every route of the service.
func InstallRouter(app *fiber.App, cfg *config.Config) {
	setup(app, NewApiRouter(cfg))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
