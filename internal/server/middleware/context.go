package middleware

import (
	"context"

	"kgrag/pkg/graph"
	"kgrag/pkg/query"

	"github.com/labstack/echo/v4"
)

// Ingester runs the ingestion flow unless a run is already in progress.
type Ingester interface {
	TryRun(ctx context.Context) (graph.ProcessStats, error)
}

type App struct {
	Query  query.GraphQueryClient
	Ingest Ingester
	APIKey string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
