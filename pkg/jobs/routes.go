package jobs

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutes(g *echo.Group, db *bun.DB) {
	h := &handler{
		jobService: NewService(db),
	}

	g.GET("/jobs", h.list)
	g.GET("/jobs/:id", h.retrieve)
}
