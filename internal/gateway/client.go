package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/hong9883/ai-drug-approval-test/internal/models"
)

const (
	DefaultTimeout = 2 * time.Minute
	userAgent      = "reviewdesk/1.0"
	// Error bodies past this size are not worth decoding.
	maxErrorBody = 64 << 10
)

// Options configures a Client. Zero values fall back to sane defaults.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	// Limiter throttles outgoing requests; nil disables throttling.
	Limiter *rate.Limiter
	Metrics *Metrics
	Logger  logrus.FieldLogger
}

// Client talks to the backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *Metrics
	log        logrus.FieldLogger
}

var _ Gateway = (*Client)(nil)

// NewClient creates a backend client rooted at opts.BaseURL, e.g.
// http://localhost:8080/api.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: scheme must be http or https", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
			Timeout: timeout,
		}
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		limiter:    opts.Limiter,
		metrics:    opts.Metrics,
		log:        log.WithField("component", "gateway"),
	}, nil
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Ask(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("ask: encode request: %w", err)
	}
	var resp models.QueryResponse
	if err := c.doJSON(ctx, "ask", http.MethodPost, "/queries", nil, bytes.NewReader(body), "application/json", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Upload(ctx context.Context, req UploadRequest) (*models.DocumentSummary, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	// The transport closes pr when the request ends early, which unblocks this writer.
	go func() {
		pw.CloseWithError(writeUploadForm(mw, req))
	}()

	var doc models.DocumentSummary
	if err := c.doJSON(ctx, "upload", http.MethodPost, "/documents", nil, pr, mw.FormDataContentType(), &doc); err != nil {
		pr.CloseWithError(err)
		return nil, err
	}
	return &doc, nil
}

func writeUploadForm(mw *multipart.Writer, req UploadRequest) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(req.FileName)))
	h.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, req.Content); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	if err := mw.WriteField("uploadedBy", req.UploadedBy); err != nil {
		return err
	}
	if req.Description != "" {
		if err := mw.WriteField("description", req.Description); err != nil {
			return err
		}
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func (c *Client) ListDocuments(ctx context.Context, page, size int) (*models.Page[models.DocumentSummary], error) {
	var out models.Page[models.DocumentSummary]
	if err := c.doJSON(ctx, "list_documents", http.MethodGet, "/documents", pageQuery(page, size), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchDocuments(ctx context.Context, keyword string, page, size int) (*models.Page[models.DocumentSummary], error) {
	q := pageQuery(page, size)
	q.Set("keyword", keyword)
	var out models.Page[models.DocumentSummary]
	if err := c.doJSON(ctx, "search_documents", http.MethodGet, "/documents/search", q, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetDocument(ctx context.Context, id int64) (*models.DocumentSummary, error) {
	var doc models.DocumentSummary
	if err := c.doJSON(ctx, "get_document", http.MethodGet, documentPath(id), nil, nil, "", &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) DownloadDocument(ctx context.Context, id int64) ([]byte, error) {
	resp, err := c.send(ctx, "download_document", http.MethodGet, documentPath(id)+"/download", nil, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.fail("download_document", "read")
		return nil, fmt.Errorf("download_document: read body: %w", err)
	}
	return data, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id int64) error {
	resp, err := c.send(ctx, "delete_document", http.MethodDelete, documentPath(id), nil, nil, "")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *Client) GetStatistics(ctx context.Context) (*models.StatisticsSnapshot, error) {
	var snap models.StatisticsSnapshot
	if err := c.doJSON(ctx, "get_statistics", http.MethodGet, "/statistics", nil, nil, "", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) QueryHistory(ctx context.Context, page, size int) (*models.Page[models.QueryHistoryEntry], error) {
	var out models.Page[models.QueryHistoryEntry]
	if err := c.doJSON(ctx, "query_history", http.MethodGet, "/queries/history", historyQuery(page, size), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UserQueryHistory(ctx context.Context, userName string, page, size int) (*models.Page[models.QueryHistoryEntry], error) {
	var out models.Page[models.QueryHistoryEntry]
	path := "/queries/history/user/" + url.PathEscape(userName)
	if err := c.doJSON(ctx, "user_query_history", http.MethodGet, path, historyQuery(page, size), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) QueryDetail(ctx context.Context, id int64) (*models.QueryResponse, error) {
	var resp models.QueryResponse
	path := "/queries/history/" + strconv.FormatInt(id, 10)
	if err := c.doJSON(ctx, "query_detail", http.MethodGet, path, nil, nil, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func documentPath(id int64) string {
	return "/documents/" + strconv.FormatInt(id, 10)
}

func pageQuery(page, size int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return q
}

// History is shown newest first.
func historyQuery(page, size int) url.Values {
	q := pageQuery(page, size)
	q.Set("sort", "createdAt,desc")
	return q
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	resp, err := c.send(ctx, op, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.fail(op, "decode")
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// send performs one request and maps non-2xx responses to *APIError. On
// success the caller owns resp.Body.
func (c *Client) send(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.observe(op, "transport", elapsed.Seconds())
		c.metrics.fail(op, "transport")
		c.log.WithFields(logrus.Fields{"op": op, "elapsed": elapsed}).WithError(err).Debug("backend request failed")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.metrics.observe(op, strconv.Itoa(resp.StatusCode), elapsed.Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		apiErr := &APIError{StatusCode: resp.StatusCode, Op: op, Message: readErrorMessage(resp.Body)}
		c.metrics.fail(op, "status")
		c.log.WithFields(logrus.Fields{"op": op, "status": resp.StatusCode}).Debug("backend returned error")
		return nil, apiErr
	}
	return resp, nil
}

func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}
