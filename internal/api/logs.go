package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/docscan/internal/api/models"
	"github.com/smazurov/docscan/internal/logging"
)

// registerLogRoutes exposes the in-memory log ring buffer.
func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent Logs",
		Description: "Most recent log entries from the in-memory ring buffer",
		Tags:        []string{"logs"},
	}, func(ctx context.Context, input *models.LogsRequest) (*models.LogsResponse, error) {
		entries := []logging.LogEntry{}
		if buffer := logging.GetBuffer(); buffer != nil {
			if tail := buffer.Tail(input.Limit); tail != nil {
				entries = tail
			}
		}
		return &models.LogsResponse{
			Body: models.LogsData{Entries: entries, Count: len(entries)},
		}, nil
	})
}
