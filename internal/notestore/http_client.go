package notestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.notes.example.com"

	rateLimitErrorCode = "RATE_LIMIT_REACHED"
)

type HTTPClientOptions struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	UserAgent  string
	// RequestsPerSecond paces outgoing calls on the client side. Zero disables pacing.
	RequestsPerSecond float64
}

// HTTPClient talks to the note store over HTTP/JSON. It never retries: a
// rate-limit response surfaces as *RateLimitError for RateLimited to handle.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
}

func NewHTTPClient(opts HTTPClientOptions) *HTTPClient {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return &HTTPClient{
		baseURL:    baseURL,
		token:      strings.TrimSpace(opts.Token),
		httpClient: httpClient,
		userAgent:  strings.TrimSpace(opts.UserAgent),
		limiter:    limiter,
	}
}

func (c *HTTPClient) FindNotesMetadata(ctx context.Context, req NotesMetadataRequest) (NotesMetadataList, error) {
	var out NotesMetadataList
	err := c.doJSON(ctx, "/v1/notestore/findNotesMetadata", req, &out)
	return out, err
}

func (c *HTTPClient) GetSyncState(ctx context.Context) (SyncState, error) {
	var out SyncState
	err := c.doJSON(ctx, "/v1/notestore/getSyncState", struct{}{}, &out)
	return out, err
}

func (c *HTTPClient) doJSON(ctx context.Context, requestPath string, body any, out any) error {
	if c.token == "" {
		return fmt.Errorf("note store token is empty")
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+requestPath, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-Id", correlationID())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	payloadBytes, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		if out == nil || len(payloadBytes) == 0 {
			return nil
		}
		return json.Unmarshal(payloadBytes, out)
	}

	var errPayload struct {
		Code              string `json:"code"`
		ErrorCode         string `json:"errorCode"`
		Message           string `json:"message"`
		RateLimitDuration *int   `json:"rateLimitDuration"`
	}
	_ = json.Unmarshal(payloadBytes, &errPayload)
	if resp.StatusCode == http.StatusTooManyRequests || errPayload.ErrorCode == rateLimitErrorCode {
		wait := parseRetryAfter(resp.Header.Get("Retry-After"))
		if errPayload.RateLimitDuration != nil && *errPayload.RateLimitDuration >= 0 {
			wait = time.Duration(*errPayload.RateLimitDuration) * time.Second
		}
		return &RateLimitError{Duration: wait}
	}
	code := errPayload.Code
	if code == "" {
		code = errPayload.ErrorCode
	}
	message := errPayload.Message
	if message == "" {
		message = strings.TrimSpace(string(payloadBytes))
	}
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Code:       code,
		Message:    message,
	}
}

func correlationID() string {
	return "notecheck_" + uuid.NewString()
}

func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if ts, err := time.Parse(time.RFC1123, header); err == nil {
		delta := time.Until(ts)
		if delta > 0 {
			return delta
		}
	}
	return 0
}
