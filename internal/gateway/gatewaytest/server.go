// Package gatewaytest runs an in-memory imitation of the backend REST API on
// an httptest.Server, for exercising gateway.Client end to end.
package gatewaytest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hong9883/ai-drug-approval-test/internal/models"
)

// Upload is a multipart submission the server received.
type Upload struct {
	FileName    string
	ContentType string
	Content     []byte
	UploadedBy  string
	Description string
}

type failure struct {
	status  int
	message string
}

// Server is the fake backend. Seed it with the exported helpers before use.
type Server struct {
	srv *httptest.Server

	mu        sync.Mutex
	docs      []models.DocumentSummary
	files     map[int64][]byte
	stats     *models.StatisticsSnapshot
	history   []models.QueryHistoryEntry
	uploads   []Upload
	queries   []models.QueryRequest
	failures  map[string]failure
	lastQuery map[string]string
	nextID    int64

	// Answer builds the reply to POST /queries. The default echoes the question.
	Answer func(models.QueryRequest) models.QueryResponse
}

// New starts a server and registers its shutdown with t.Cleanup.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		files:     make(map[int64][]byte),
		failures:  make(map[string]failure),
		lastQuery: make(map[string]string),
		nextID:    1,
	}
	s.srv = httptest.NewServer(s.routes())
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the API root, equivalent to http://localhost:8080/api.
func (s *Server) URL() string {
	return s.srv.URL + "/api"
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/queries", s.guard("POST /queries", s.handleAsk))
		r.Get("/queries/history", s.guard("GET /queries/history", s.handleHistory))
		r.Get("/queries/history/user/{userName}", s.guard("GET /queries/history/user", s.handleHistory))
		r.Get("/queries/history/{id}", s.guard("GET /queries/history/{id}", s.handleQueryDetail))

		r.Post("/documents", s.guard("POST /documents", s.handleUpload))
		r.Get("/documents", s.guard("GET /documents", s.handleList))
		r.Get("/documents/search", s.guard("GET /documents/search", s.handleList))
		r.Get("/documents/{id}", s.guard("GET /documents/{id}", s.handleGet))
		r.Get("/documents/{id}/download", s.guard("GET /documents/{id}/download", s.handleDownload))
		r.Delete("/documents/{id}", s.guard("DELETE /documents/{id}", s.handleDelete))

		r.Get("/statistics", s.guard("GET /statistics", s.handleStatistics))
	})
	return r
}

// Fail makes route answer with status and an error body carrying message.
// An empty message sends a body without the field. Route keys look like
// "GET /documents/{id}".
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

// AddDocument stores doc, assigning an id when it has none, and returns the id.
func (s *Server) AddDocument(doc models.DocumentSummary, content []byte) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ID == 0 {
		doc.ID = s.nextID
	}
	if doc.ID >= s.nextID {
		s.nextID = doc.ID + 1
	}
	s.docs = append(s.docs, doc)
	if content != nil {
		s.files[doc.ID] = content
	}
	return doc.ID
}

func (s *Server) SetStatistics(snap models.StatisticsSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = &snap
}

func (s *Server) AddHistory(entries ...models.QueryHistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, entries...)
}

// Uploads returns every multipart submission received so far.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// Queries returns every query request received so far.
func (s *Server) Queries() []models.QueryRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.QueryRequest(nil), s.queries...)
}

// LastQuery returns the raw query string of the latest request to route.
func (s *Server) LastQuery(route string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery[route]
}

func (s *Server) guard(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.lastQuery[route] = r.URL.RawQuery
		f, failing := s.failures[route]
		s.mu.Unlock()

		if failing {
			body := map[string]any{"status": f.status, "error": http.StatusText(f.status)}
			if f.message != "" {
				body["message"] = f.message
			}
			writeJSON(w, f.status, body)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	s.mu.Lock()
	s.queries = append(s.queries, req)
	id := int64(len(s.queries))
	answer := s.Answer
	s.mu.Unlock()

	var resp models.QueryResponse
	if answer != nil {
		resp = answer(req)
	} else {
		resp = models.QueryResponse{Answer: "echo: " + req.Question, ResponseTimeMs: 10}
	}
	if resp.ID == 0 {
		resp.ID = id
	}
	resp.Question = req.Question
	if resp.PromptType == "" {
		resp.PromptType = req.PromptType
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "userName")
	page, size := pageParams(r)

	s.mu.Lock()
	var matched []models.QueryHistoryEntry
	for _, h := range s.history {
		if user == "" || h.UserName == user {
			matched = append(matched, h)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, paginate(matched, page, size))
}

func (s *Server) handleQueryDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.history {
		if h.ID == id {
			writeJSON(w, http.StatusOK, models.QueryResponse{
				ID:             h.ID,
				Question:       h.Question,
				Answer:         h.Answer,
				PromptType:     h.PromptType,
				ResponseTimeMs: h.ResponseTimeMs,
				CreatedAt:      h.CreatedAt,
			})
			return
		}
	}
	notFound(w, "질문 이력을 찾을 수 없습니다.")
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid multipart body"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "file is required"})
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
		return
	}

	up := Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
		UploadedBy:  r.FormValue("uploadedBy"),
		Description: r.FormValue("description"),
	}

	s.mu.Lock()
	s.uploads = append(s.uploads, up)
	doc := models.DocumentSummary{
		ID:               s.nextID,
		FileName:         fmt.Sprintf("%d_%s", s.nextID, up.FileName),
		OriginalFileName: up.FileName,
		SizeBytes:        int64(len(content)),
		MimeType:         up.ContentType,
		Description:      up.Description,
		UploadedBy:       up.UploadedBy,
		Status:           models.DocUploading,
		CreatedAt:        models.LocalTime{Time: time.Now().Truncate(time.Second)},
	}
	s.nextID++
	s.docs = append(s.docs, doc)
	s.files[doc.ID] = content
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	keyword := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("keyword")))

	s.mu.Lock()
	var matched []models.DocumentSummary
	for _, d := range s.docs {
		if keyword == "" ||
			strings.Contains(strings.ToLower(d.OriginalFileName), keyword) ||
			strings.Contains(strings.ToLower(d.Description), keyword) {
			matched = append(matched, d)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, paginate(matched, page, size))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.docs {
		if d.ID == id {
			writeJSON(w, http.StatusOK, d)
			return
		}
	}
	notFound(w, "문서를 찾을 수 없습니다.")
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	content, found := s.files[id]
	s.mu.Unlock()
	if !found {
		notFound(w, "문서 파일을 찾을 수 없습니다.")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%d.pdf"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range s.docs {
		if d.ID == id {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			delete(s.files, id)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	notFound(w, "문서를 찾을 수 없습니다.")
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap := s.stats
	s.mu.Unlock()
	if snap == nil {
		snap = &models.StatisticsSnapshot{}
	}
	writeJSON(w, http.StatusOK, snap)
}

func paginate[T any](items []T, page, size int) models.Page[T] {
	total := len(items)
	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	content := append([]T{}, items[start:end]...)
	return models.Page[T]{
		Content:       content,
		TotalElements: int64(total),
		TotalPages:    pages,
		Number:        page,
		Size:          size,
	}
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	return page, size
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid id"})
		return 0, false
	}
	return id, true
}

func notFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, map[string]any{"status": http.StatusNotFound, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
