package routes

import (
	"context"
	"errors"
	"net/http"

	"kgrag/internal/bootstrap"
	"kgrag/internal/server/middleware"
	"kgrag/pkg/graph"
	"kgrag/pkg/logger"

	"github.com/labstack/echo/v4"
)

// IngestHandler runs the ingestion flow over the configured source and
// reports its statistics. The run outlives a client that disconnects.
func IngestHandler(c echo.Context) error {
	type ingestResponse struct {
		Message string              `json:"message"`
		Stats   *graph.ProcessStats `json:"stats,omitempty"`
	}

	ingester := c.(*middleware.AppContext).App.Ingest
	stats, err := ingester.TryRun(context.WithoutCancel(c.Request().Context()))
	if errors.Is(err, bootstrap.ErrIngestRunning) {
		return c.JSON(http.StatusConflict, ingestResponse{
			Message: "Ingestion already running",
		})
	}
	if err != nil {
		logger.Error("Ingestion failed", "err", err)
		return c.JSON(http.StatusInternalServerError, ingestResponse{
			Message: err.Error(),
			Stats:   &stats,
		})
	}

	return c.JSON(http.StatusOK, ingestResponse{
		Message: "Ingestion finished",
		Stats:   &stats,
	})
}
