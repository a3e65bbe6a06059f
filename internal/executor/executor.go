package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/spritewire/internal/automation"
	"github.com/nerrad567/spritewire/internal/rules"
)

// ErrMissingCredential indicates the gateway token is not configured.
// Execution fails closed without attempting the call.
var ErrMissingCredential = errors.New("executor: missing gateway credential")

// maxErrorBody caps how much of a failed response is carried into the
// execution result. Gateway errors are short; anything longer is noise.
const maxErrorBody = 4 * 1024

// Logger is the minimal logging interface the executor needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config holds the gateway connection settings.
type Config struct {
	// URL is the sprite gateway base URL, e.g. "https://gateway.local:8443".
	URL string

	// Token is the bearer credential presented on every call. An empty
	// token fails every execution closed rather than sending an
	// unauthenticated request.
	Token string

	// Timeout bounds each outbound call. Zero means the client default.
	Timeout time.Duration
}

// Client executes automations against the sprite gateway.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     Logger
}

// New creates a gateway execution client.
func New(cfg Config, logger Logger) *Client {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Execute renders one automation's instruction and delivers it to the
// target sprite. The payload may be nil for time-triggered automations,
// in which case only sprite.* template fields resolve.
//
// Any failure is captured in the result rather than returned: a missing
// credential, a transport error, or a non-2xx gateway status all produce
// Success=false with a diagnostic error string.
func (c *Client) Execute(ctx context.Context, auto automation.Automation, payload any) automation.ExecutionResult {
	if c.token == "" {
		c.logger.Error("execution failed closed", "automation_id", auto.ID, "error", ErrMissingCredential)
		return failure(auto.ID, ErrMissingCredential.Error())
	}

	instruction := rules.Render(auto.Run, rules.Context{
		Payload: payload,
		Sprite:  auto.Sprite.TemplateMeta(),
	})

	req, err := c.buildRequest(ctx, auto, instruction)
	if err != nil {
		c.logger.Error("building gateway request", "automation_id", auto.ID, "error", err)
		return failure(auto.ID, err.Error())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("gateway call failed",
			"automation_id", auto.ID,
			"sprite", auto.Sprite.Name,
			"error", err,
		)
		return failure(auto.ID, fmt.Sprintf("gateway call: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		detail := strings.TrimSpace(string(body))
		if detail == "" {
			detail = resp.Status
		}
		c.logger.Warn("gateway rejected execution",
			"automation_id", auto.ID,
			"sprite", auto.Sprite.Name,
			"status", resp.StatusCode,
		)
		return failure(auto.ID, fmt.Sprintf("gateway status %d: %s", resp.StatusCode, detail))
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	c.logger.Info("instruction dispatched",
		"automation_id", auto.ID,
		"sprite", auto.Sprite.Name,
	)
	return automation.ExecutionResult{AutomationID: auto.ID, Success: true}
}

// ExecuteAll dispatches every automation concurrently and waits for all of
// them to complete. There is no early abort: one failing call never stops
// its siblings, and every automation gets a result.
func (c *Client) ExecuteAll(ctx context.Context, autos []automation.Automation, payload any) []automation.ExecutionResult {
	if len(autos) == 0 {
		return nil
	}

	var (
		mu      sync.Mutex
		results []automation.ExecutionResult
		wg      sync.WaitGroup
	)

	for _, auto := range autos {
		wg.Add(1)
		go func(a automation.Automation) {
			defer wg.Done()

			result := c.Execute(ctx, a, payload)

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(auto)
	}

	wg.Wait()
	return results
}

// buildRequest assembles the gateway exec call: instruction in the body,
// sprite invocation details as query parameters.
func (c *Client) buildRequest(ctx context.Context, auto automation.Automation, instruction string) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/sprites/%s/exec", c.baseURL, url.PathEscape(auto.Sprite.Name))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(instruction))
	if err != nil {
		return nil, fmt.Errorf("executor: build request: %w", err)
	}

	query := req.URL.Query()
	query.Set("path", auto.Sprite.Path)
	if auto.Sprite.Cmd != nil && *auto.Sprite.Cmd != "" {
		query.Set("cmd", *auto.Sprite.Cmd)
	}
	if auto.Sprite.Workdir != nil && *auto.Sprite.Workdir != "" {
		query.Set("workdir", *auto.Sprite.Workdir)
	}
	query.Set("stdin", "true")
	req.URL.RawQuery = query.Encode()

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	return req, nil
}

func failure(automationID, detail string) automation.ExecutionResult {
	return automation.ExecutionResult{
		AutomationID: automationID,
		Success:      false,
		Error:        &detail,
	}
}
