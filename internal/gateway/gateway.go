// Package gateway is the client side of the document-intelligence backend's
// REST API. Components depend on the Gateway interface; Client is the HTTP
// implementation.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hong9883/ai-drug-approval-test/internal/models"
)

// Gateway is every backend operation the client performs.
type Gateway interface {
	Ask(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error)
	Upload(ctx context.Context, req UploadRequest) (*models.DocumentSummary, error)
	ListDocuments(ctx context.Context, page, size int) (*models.Page[models.DocumentSummary], error)
	SearchDocuments(ctx context.Context, keyword string, page, size int) (*models.Page[models.DocumentSummary], error)
	GetDocument(ctx context.Context, id int64) (*models.DocumentSummary, error)
	DownloadDocument(ctx context.Context, id int64) ([]byte, error)
	DeleteDocument(ctx context.Context, id int64) error
	GetStatistics(ctx context.Context) (*models.StatisticsSnapshot, error)
	QueryHistory(ctx context.Context, page, size int) (*models.Page[models.QueryHistoryEntry], error)
	UserQueryHistory(ctx context.Context, userName string, page, size int) (*models.Page[models.QueryHistoryEntry], error)
	QueryDetail(ctx context.Context, id int64) (*models.QueryResponse, error)
}

// UploadRequest is the multipart form of POST /documents.
type UploadRequest struct {
	FileName    string
	Content     io.Reader
	UploadedBy  string
	Description string
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	// Message is the server supplied "message" field, empty when absent.
	Message string
	Op      string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: backend returned %d", e.Op, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// UserMessage turns any gateway error into text safe to show a user: the
// server's message when it sent one, the fallback otherwise.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return fallback
}
