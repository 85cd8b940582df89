package routes

import (
	"errors"
	"net/http"

	"kgrag/internal/metrics"
	"kgrag/internal/server/middleware"
	"kgrag/pkg/logger"
	"kgrag/pkg/query"
	"kgrag/pkg/store"

	"github.com/labstack/echo/v4"
)

// QueryHandler answers one question against the graph.
func QueryHandler(c echo.Context) error {
	type queryBody struct {
		Question string `json:"question" validate:"required"`
	}

	type queryResponse struct {
		Message string           `json:"message,omitempty"`
		Cypher  string           `json:"cypher,omitempty"`
		Records []map[string]any `json:"records,omitempty"`
		Answer  string           `json:"answer,omitempty"`
	}

	data := new(queryBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}

	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}

	client := c.(*middleware.AppContext).App.Query
	res, err := client.Answer(c.Request().Context(), data.Question)
	metrics.ObserveQuery(err)
	if err != nil {
		logger.Error("Failed to answer question", "question", data.Question, "err", err)

		status := http.StatusInternalServerError
		if errors.Is(err, query.ErrEmptyCypher) || errors.Is(err, store.ErrQueryUnsupported) {
			status = http.StatusUnprocessableEntity
		}
		return c.JSON(status, queryResponse{
			Message: err.Error(),
			Cypher:  res.Cypher,
		})
	}

	return c.JSON(http.StatusOK, queryResponse{
		Cypher:  res.Cypher,
		Records: res.Records,
		Answer:  res.Answer,
	})
}
