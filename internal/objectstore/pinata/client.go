// Package pinata implements objectstore.Store against the Pinata v3 REST API.
//
// Uploads go to the uploads host, groups and listings to the API host. All
// objects are published on the public network so gateway URLs resolve.
package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"

	"owndrob/internal/objectstore"
	"owndrob/pkg/platform/circuit"
)

const (
	DefaultAPIURL     = "https://api.pinata.cloud"
	DefaultUploadsURL = "https://uploads.pinata.cloud"

	listPageSize = 1000
	maxBodyBytes = 4 << 20
)

// Client talks to Pinata. Construct with New.
type Client struct {
	httpClient *http.Client
	jwt        string
	apiURL     string
	uploadsURL string
	breaker    *circuit.Breaker
	logger     *slog.Logger
	metrics    *Metrics
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

func WithAPIURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.apiURL = u
		}
	}
}

func WithUploadsURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.uploadsURL = u
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New builds a client authenticated with a Pinata JWT.
func New(jwt string, opts ...Option) (*Client, error) {
	if jwt == "" {
		return nil, errors.New("pinata jwt is required")
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		jwt:        jwt,
		apiURL:     DefaultAPIURL,
		uploadsURL: DefaultUploadsURL,
		breaker:    circuit.New("pinata", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2), circuit.WithCooldown(10*time.Second)),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type fileData struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CID       string    `json:"cid"`
	Size      int64     `json:"size"`
	GroupID   string    `json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
}

type groupData struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type listData struct {
	Files         []fileData `json:"files"`
	NextPageToken string     `json:"next_page_token"`
}

func (c *Client) Upload(ctx context.Context, name string, body []byte) (objectstore.Upload, error) {
	var buf bytes.Buffer
	contentType, err := writeUploadForm(&buf, name, body)
	if err != nil {
		return objectstore.Upload{}, objectstore.NewError(objectstore.ErrorInternal, objectstore.OpUpload, "build form", err)
	}

	var out envelope[fileData]
	err = c.do(ctx, objectstore.OpUpload, http.MethodPost, c.uploadsURL+"/v3/files", contentType, &buf, &out)
	if err != nil {
		return objectstore.Upload{}, err
	}
	if out.Data.CID == "" || out.Data.ID == "" {
		return objectstore.Upload{}, objectstore.NewError(objectstore.ErrorBadData, objectstore.OpUpload, "response missing cid or id", nil)
	}
	return objectstore.Upload{
		CID:        out.Data.CID,
		FileHandle: out.Data.ID,
		Name:       out.Data.Name,
		Size:       out.Data.Size,
		CreatedAt:  out.Data.CreatedAt,
	}, nil
}

// writeUploadForm encodes the metadata document and its form fields into w
// and returns the multipart content type.
func writeUploadForm(w io.Writer, name string, body []byte) (string, error) {
	mw := multipart.NewWriter(w)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name+".json"))
	header.Set("Content-Type", "application/json")
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(body); err != nil {
		return "", fmt.Errorf("write file part: %w", err)
	}
	if err := mw.WriteField("network", "public"); err != nil {
		return "", fmt.Errorf("write network field: %w", err)
	}
	if err := mw.WriteField("name", name); err != nil {
		return "", fmt.Errorf("write name field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}
	return mw.FormDataContentType(), nil
}

func (c *Client) CreateGroup(ctx context.Context, name string) (objectstore.Group, error) {
	payload, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return objectstore.Group{}, objectstore.NewError(objectstore.ErrorInternal, objectstore.OpCreateGroup, "encode request", err)
	}
	var out envelope[groupData]
	err = c.do(ctx, objectstore.OpCreateGroup, http.MethodPost, c.apiURL+"/v3/groups/public", "application/json", bytes.NewReader(payload), &out)
	if err != nil {
		return objectstore.Group{}, err
	}
	if out.Data.ID == "" {
		return objectstore.Group{}, objectstore.NewError(objectstore.ErrorBadData, objectstore.OpCreateGroup, "response missing group id", nil)
	}
	return objectstore.Group{ID: out.Data.ID, Name: out.Data.Name, CreatedAt: out.Data.CreatedAt}, nil
}

// AddFilesToGroup attaches each handle with its own request. The first
// transport failure aborts the batch.
func (c *Client) AddFilesToGroup(ctx context.Context, groupID string, fileHandles []string) ([]objectstore.AddResult, error) {
	results := make([]objectstore.AddResult, 0, len(fileHandles))
	for _, handle := range fileHandles {
		endpoint := fmt.Sprintf("%s/v3/groups/public/%s/ids/%s", c.apiURL, url.PathEscape(groupID), url.PathEscape(handle))
		if err := c.do(ctx, objectstore.OpAddFiles, http.MethodPut, endpoint, "", nil, nil); err != nil {
			return results, err
		}
		results = append(results, objectstore.AddResult{FileHandle: handle, Status: objectstore.StatusOK})
	}
	return results, nil
}

func (c *Client) ListGroupFiles(ctx context.Context, groupID string) ([]objectstore.File, error) {
	var files []objectstore.File
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("group", groupID)
		q.Set("limit", strconv.Itoa(listPageSize))
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		var out envelope[listData]
		if err := c.do(ctx, objectstore.OpListFiles, http.MethodGet, c.apiURL+"/v3/files/public?"+q.Encode(), "", nil, &out); err != nil {
			return nil, err
		}
		for _, f := range out.Data.Files {
			files = append(files, objectstore.File{
				FileHandle: f.ID,
				Name:       f.Name,
				CID:        f.CID,
				SizeBytes:  f.Size,
				GroupID:    f.GroupID,
				CreatedAt:  f.CreatedAt,
			})
		}
		if out.Data.NextPageToken == "" || len(out.Data.Files) == 0 {
			return files, nil
		}
		pageToken = out.Data.NextPageToken
	}
}

func (c *Client) do(ctx context.Context, op, method, endpoint, contentType string, body io.Reader, out any) (err error) {
	if !c.breaker.Allow() {
		return objectstore.NewError(objectstore.ErrorCircuitOpen, op, "circuit open", nil)
	}
	start := time.Now()
	defer func() {
		c.metrics.observe(op, start, err)
		c.record(ctx, op, err)
	}()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return objectstore.NewError(objectstore.ErrorInternal, op, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.jwt)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return objectstore.NewError(objectstore.ErrorTimeout, op, "request timed out", err)
		}
		return objectstore.NewError(objectstore.ErrorOutage, op, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return objectstore.NewError(objectstore.ErrorOutage, op, "read response", err)
	}
	if resp.StatusCode >= 300 {
		return statusError(op, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return objectstore.NewError(objectstore.ErrorBadData, op, "decode response", err)
	}
	return nil
}

// record feeds the breaker. Only retryable failures count against it.
func (c *Client) record(ctx context.Context, op string, err error) {
	if err == nil {
		if _, change := c.breaker.RecordSuccess(); change.Closed {
			c.metrics.setBreakerOpen(false)
			c.logger.InfoContext(ctx, "object store circuit closed", "op", op)
		}
		return
	}
	if !objectstore.IsRetryable(err) {
		return
	}
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.metrics.setBreakerOpen(true)
		c.logger.WarnContext(ctx, "object store circuit opened", "op", op, "error", err)
	}
}

func statusError(op string, status int, body []byte) error {
	msg := fmt.Sprintf("status %d", status)
	if len(body) > 0 {
		snippet := body
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		msg = fmt.Sprintf("%s: %s", msg, bytes.TrimSpace(snippet))
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return objectstore.NewError(objectstore.ErrorAuthentication, op, msg, nil)
	case status == http.StatusNotFound:
		return objectstore.NewError(objectstore.ErrorNotFound, op, msg, nil)
	case status == http.StatusTooManyRequests:
		return objectstore.NewError(objectstore.ErrorRateLimited, op, msg, nil)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return objectstore.NewError(objectstore.ErrorTimeout, op, msg, nil)
	case status >= 500:
		return objectstore.NewError(objectstore.ErrorOutage, op, msg, nil)
	default:
		return objectstore.NewError(objectstore.ErrorBadData, op, msg, nil)
	}
}
