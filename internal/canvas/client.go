package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/canvasai/canvas-ai/internal/debug"
)

// NewClient creates a Canvas API client for the given instance.
func NewClient(baseURL, token string) *Client {
	return &Client{
		Token:   token,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithHTTPClient returns a new client with a custom HTTP client.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	return &Client{
		Token:      c.Token,
		BaseURL:    c.BaseURL,
		HTTPClient: httpClient,
	}
}

// WithBaseURL returns a new client pointed at a different base URL (used by
// tests and self-hosted instances).
func (c *Client) WithBaseURL(baseURL string) *Client {
	return &Client{
		Token:      c.Token,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: c.HTTPClient,
	}
}

// buildURL constructs a full API URL under /api/v1.
func (c *Client) buildURL(path string, params url.Values) string {
	u := c.BaseURL + "/api/v1/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// get performs a GET with up to maxAttempts tries. Between attempts it waits
// 400ms then 1s, unless the server sent a longer Retry-After.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	urlStr := c.buildURL(path, params)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialRetryDelay
	bo.Multiplier = retryMultiplier
	bo.RandomizationFactor = 0
	bo.Reset()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, retryAfter, err := c.doOnce(ctx, urlStr, path)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(err) || attempt == maxAttempts {
			return nil, err
		}

		delay := bo.NextBackOff()
		if retryAfter > delay {
			delay = retryAfter
		}
		debug.Logf("canvas: attempt %d/%d for %s failed (%v), retrying in %v", attempt, maxAttempts, path, err, delay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

// doOnce performs a single request. retryAfter is non-zero when the server
// sent a parseable Retry-After header with a retryable status.
func (c *Client) doOnce(ctx context.Context, urlStr, endpoint string) (body []byte, retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, 0, err
		}
		return nil, 0, classifyTransport(err, urlStr, endpoint)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, 0, classifyTransport(err, urlStr, endpoint)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if retryableStatus[resp.StatusCode] {
			if header := resp.Header.Get("Retry-After"); header != "" {
				if seconds, convErr := strconv.Atoi(header); convErr == nil && seconds > 0 {
					retryAfter = time.Duration(seconds) * time.Second
				}
			}
		}
		return nil, retryAfter, &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Kind:       kindHTTP,
			URL:        urlStr,
		}
	}
	return body, 0, nil
}

func classifyTransport(err error, urlStr, endpoint string) error {
	kind := kindNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = kindTimeout
	}
	return &APIError{Endpoint: endpoint, Kind: kind, URL: urlStr}
}

func retryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Kind == kindTimeout || apiErr.Kind == kindNetwork {
		return true
	}
	return retryableStatus[apiErr.StatusCode]
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	body, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return nil
}

// ListCourses retrieves the user's active courses.
func (c *Client) ListCourses(ctx context.Context) ([]Course, error) {
	params := url.Values{"enrollment_state": {"active"}}
	var courses []Course
	if err := c.getJSON(ctx, "courses", params, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// ListAssignmentsDue retrieves upcoming assignments across every active
// course with a due date at or before until. Courses are fetched with bounded
// concurrency; results keep course order.
func (c *Client) ListAssignmentsDue(ctx context.Context, until time.Time) ([]Assignment, error) {
	courses, err := c.ListCourses(ctx)
	if err != nil {
		return nil, err
	}

	results := make([][]Assignment, len(courses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dueFanOutLimit)
	for i, course := range courses {
		g.Go(func() error {
			items, err := c.courseAssignments(gctx, course.ID, until)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Assignment
	for _, items := range results {
		all = append(all, items...)
	}
	return all, nil
}

func (c *Client) courseAssignments(ctx context.Context, courseID int64, until time.Time) ([]Assignment, error) {
	params := url.Values{
		"bucket":   {"upcoming"},
		"end_date": {until.UTC().Format(time.RFC3339)},
	}
	var items []Assignment
	path := fmt.Sprintf("courses/%d/assignments", courseID)
	if err := c.getJSON(ctx, path, params, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetAssignment retrieves a single assignment, including its rubric when
// the assignment has one.
func (c *Client) GetAssignment(ctx context.Context, assignmentID int64) (*Assignment, error) {
	var item Assignment
	path := fmt.Sprintf("assignments/%d", assignmentID)
	if err := c.getJSON(ctx, path, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetUserProfile retrieves the authenticated user's profile. Used to verify
// credentials during auth login.
func (c *Client) GetUserProfile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.getJSON(ctx, "users/self/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListAccounts retrieves accounts visible to the user.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := c.getJSON(ctx, "accounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetBrandingTheme retrieves the instance branding payload.
func (c *Client) GetBrandingTheme(ctx context.Context) (*BrandTheme, error) {
	var theme BrandTheme
	if err := c.getJSON(ctx, "accounts/self/theme", nil, &theme); err != nil {
		return nil, err
	}
	return &theme, nil
}

// SubmitAssignment records submission intent without calling the API. The
// real Canvas flow needs a file upload plus a submission POST; until that
// lands every confirmed submit returns this stub.
func (c *Client) SubmitAssignment(ctx context.Context, assignmentID int64, filePath string) (*SubmissionStub, error) {
	return &SubmissionStub{
		Status:       "stubbed",
		AssignmentID: assignmentID,
		File:         filePath,
		Message:      "Submission flow placeholder. Human-confirmed execution only.",
	}, nil
}
