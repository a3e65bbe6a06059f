package dispatch

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/spritewire/internal/automation"
	"github.com/nerrad567/spritewire/internal/source"
)

const githubSecret = "gh-secret"

type stubSecrets map[string]string

func (s stubSecrets) SourceSecret(name string) (string, bool) {
	secret, ok := s[name]
	return secret, ok
}

type stubCatalog struct {
	automations []automation.Automation
	err         error
	listCalls   int
}

func (s *stubCatalog) GetByID(context.Context, string) (*automation.Automation, error) {
	return nil, automation.ErrNotFound
}

func (s *stubCatalog) List(context.Context) ([]automation.Automation, error) {
	s.listCalls++
	return s.automations, s.err
}

func (s *stubCatalog) Create(context.Context, *automation.Automation) error { return nil }
func (s *stubCatalog) Update(context.Context, *automation.Automation) error { return nil }
func (s *stubCatalog) Delete(context.Context, string) error                 { return nil }

// fakeExecutor succeeds or fails per automation id.
type fakeExecutor struct {
	failIDs  map[string]bool
	executed [][]automation.Automation
}

func (f *fakeExecutor) ExecuteAll(_ context.Context, autos []automation.Automation, _ any) []automation.ExecutionResult {
	f.executed = append(f.executed, autos)
	results := make([]automation.ExecutionResult, 0, len(autos))
	for _, auto := range autos {
		if f.failIDs[auto.ID] {
			detail := "gateway status 500: exec refused"
			results = append(results, automation.ExecutionResult{
				AutomationID: auto.ID,
				Success:      false,
				Error:        &detail,
			})
			continue
		}
		results = append(results, automation.ExecutionResult{AutomationID: auto.ID, Success: true})
	}
	return results
}

func githubRequest(body string) source.Request {
	mac := hmac.New(sha256.New, []byte(githubSecret))
	mac.Write([]byte(body))

	header := http.Header{}
	header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	header.Set("X-GitHub-Event", "ping")
	return source.Request{Header: header, Body: []byte(body)}
}

func githubAutomation(id, event string, match []string) automation.Automation {
	return automation.Automation{
		ID: id,
		Sprite: automation.Sprite{
			Name: "builder",
			Path: "/opt/sprites/build.sh",
		},
		Source: automation.Source{Type: "github", Events: []string{event}},
		Match:  match,
		Run:    "build {{payload.repository.name}}",
	}
}

func newDispatcher(catalog *stubCatalog, exec *fakeExecutor, secrets stubSecrets) *Dispatcher {
	if secrets == nil {
		secrets = stubSecrets{"github": githubSecret}
	}
	return New(source.NewRegistry(), secrets, catalog, exec, nil)
}

func TestDispatchRejections(t *testing.T) {
	t.Run("unknown source never touches the catalog", func(t *testing.T) {
		catalog := &stubCatalog{}
		d := newDispatcher(catalog, &fakeExecutor{}, nil)

		_, err := d.Dispatch(context.Background(), "gitlab", githubRequest("{}"))

		require.ErrorIs(t, err, ErrUnknownSource)
		assert.Zero(t, catalog.listCalls)
	})

	t.Run("unknown source names share one metric series", func(t *testing.T) {
		d := newDispatcher(&stubCatalog{}, &fakeExecutor{}, nil)

		before, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "spritewire_dispatch_total")
		require.NoError(t, err)

		for i := 0; i < 50; i++ {
			name := fmt.Sprintf("attacker-%d", i)
			_, dispatchErr := d.Dispatch(context.Background(), name, githubRequest("{}"))
			require.ErrorIs(t, dispatchErr, ErrUnknownSource)
		}

		after, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "spritewire_dispatch_total")
		require.NoError(t, err)

		// All 50 rejections land on the fixed "unknown" source label, so
		// the family grows by at most one series.
		assert.LessOrEqual(t, after-before, 1)
	})

	t.Run("missing secret fails closed", func(t *testing.T) {
		catalog := &stubCatalog{}
		d := newDispatcher(catalog, &fakeExecutor{}, stubSecrets{})

		_, err := d.Dispatch(context.Background(), "github", githubRequest("{}"))

		require.ErrorIs(t, err, ErrMissingSecret)
		assert.Zero(t, catalog.listCalls)
	})

	t.Run("invalid signature rejects before catalog access", func(t *testing.T) {
		catalog := &stubCatalog{}
		exec := &fakeExecutor{}
		d := newDispatcher(catalog, exec, nil)

		req := githubRequest(`{"zen":"speak like a human"}`)
		req.Body = []byte(`{"zen":"tampered"}`)

		_, err := d.Dispatch(context.Background(), "github", req)

		require.ErrorIs(t, err, ErrValidationFailed)
		assert.Zero(t, catalog.listCalls)
		assert.Empty(t, exec.executed)
	})

	t.Run("valid signature over unparseable body", func(t *testing.T) {
		d := newDispatcher(&stubCatalog{}, &fakeExecutor{}, nil)

		_, err := d.Dispatch(context.Background(), "github", githubRequest("not json"))

		require.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("catalog failure aborts the dispatch", func(t *testing.T) {
		catalog := &stubCatalog{err: errors.New("store unreachable")}
		exec := &fakeExecutor{}
		d := newDispatcher(catalog, exec, nil)

		_, err := d.Dispatch(context.Background(), "github", githubRequest("{}"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "load catalog")
		assert.Empty(t, exec.executed)
	})
}

func TestDispatchFiltering(t *testing.T) {
	t.Run("event label gates the match", func(t *testing.T) {
		catalog := &stubCatalog{automations: []automation.Automation{
			githubAutomation("on-ping", "ping", nil),
		}}
		exec := &fakeExecutor{}
		d := newDispatcher(catalog, exec, nil)

		outcome, err := d.Dispatch(context.Background(), "github", githubRequest("{}"))
		require.NoError(t, err)
		require.Len(t, outcome.Results, 1)
		assert.Equal(t, "ping", outcome.Event)
		assert.True(t, outcome.Success())

		pong := githubRequest("{}")
		pong.Header.Set("X-GitHub-Event", "pong")
		outcome, err = d.Dispatch(context.Background(), "github", pong)
		require.NoError(t, err)
		assert.Empty(t, outcome.Results)
		assert.True(t, outcome.Success())
		assert.Len(t, exec.executed, 1)
	})

	t.Run("predicates gate the match", func(t *testing.T) {
		catalog := &stubCatalog{automations: []automation.Automation{
			githubAutomation("on-open", "pull_request", []string{`payload.action == "opened"`}),
		}}
		exec := &fakeExecutor{}
		d := newDispatcher(catalog, exec, nil)

		opened := githubRequest(`{"action":"opened"}`)
		opened.Header.Set("X-GitHub-Event", "pull_request")
		outcome, err := d.Dispatch(context.Background(), "github", opened)
		require.NoError(t, err)
		assert.Len(t, outcome.Results, 1)

		closed := githubRequest(`{"action":"closed"}`)
		closed.Header.Set("X-GitHub-Event", "pull_request")
		outcome, err = d.Dispatch(context.Background(), "github", closed)
		require.NoError(t, err)
		assert.Empty(t, outcome.Results)
	})

	t.Run("cron automations never match webhooks", func(t *testing.T) {
		catalog := &stubCatalog{automations: []automation.Automation{
			{
				ID:     "nightly",
				Sprite: automation.Sprite{Name: "janitor", Path: "/opt/sweep.sh"},
				Source: automation.Source{Type: automation.SourceTypeCron, Schedule: "0 2 * * *"},
				Run:    "sweep",
			},
		}}
		exec := &fakeExecutor{}
		d := newDispatcher(catalog, exec, nil)

		outcome, err := d.Dispatch(context.Background(), "github", githubRequest("{}"))

		require.NoError(t, err)
		assert.Empty(t, outcome.Results)
		assert.Empty(t, exec.executed)
	})

	t.Run("other sources' automations are skipped", func(t *testing.T) {
		auto := githubAutomation("on-ping", "ping", nil)
		auto.Source.Type = "linear"
		catalog := &stubCatalog{automations: []automation.Automation{auto}}
		d := newDispatcher(catalog, &fakeExecutor{}, nil)

		outcome, err := d.Dispatch(context.Background(), "github", githubRequest("{}"))

		require.NoError(t, err)
		assert.Empty(t, outcome.Results)
	})
}

func TestDispatchAggregation(t *testing.T) {
	t.Run("partial failure reports overall failure with both results", func(t *testing.T) {
		catalog := &stubCatalog{automations: []automation.Automation{
			githubAutomation("deploy", "push", nil),
			githubAutomation("notify", "push", nil),
		}}
		exec := &fakeExecutor{failIDs: map[string]bool{"notify": true}}
		d := newDispatcher(catalog, exec, nil)

		push := githubRequest(`{"ref":"refs/heads/main"}`)
		push.Header.Set("X-GitHub-Event", "push")

		outcome, err := d.Dispatch(context.Background(), "github", push)

		require.NoError(t, err)
		require.Len(t, outcome.Results, 2)
		assert.False(t, outcome.Success())

		byID := make(map[string]automation.ExecutionResult)
		for _, r := range outcome.Results {
			byID[r.AutomationID] = r
		}
		assert.True(t, byID["deploy"].Success)
		assert.False(t, byID["notify"].Success)
		require.NotNil(t, byID["notify"].Error)
	})
}

func TestDispatchHandshake(t *testing.T) {
	t.Run("slack url_verification echoes the challenge without matching", func(t *testing.T) {
		catalog := &stubCatalog{automations: []automation.Automation{
			{
				ID:     "catch-all",
				Sprite: automation.Sprite{Name: "builder", Path: "/opt/build.sh"},
				Source: automation.Source{Type: "slack", Events: []string{"url_verification"}},
				Run:    "build",
			},
		}}
		exec := &fakeExecutor{}
		secrets := stubSecrets{"slack": "slack-secret"}
		d := newDispatcher(catalog, exec, secrets)

		body := `{"type":"url_verification","challenge":"tok-123"}`
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		mac := hmac.New(sha256.New, []byte("slack-secret"))
		mac.Write([]byte("v0:" + timestamp + ":" + body))
		header := http.Header{}
		header.Set("X-Slack-Request-Timestamp", timestamp)
		header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))

		outcome, err := d.Dispatch(context.Background(), "slack", source.Request{
			Header: header,
			Body:   []byte(body),
		})

		require.NoError(t, err)
		assert.True(t, outcome.Handshake)
		assert.Equal(t, "tok-123", outcome.Challenge)
		assert.Empty(t, outcome.Results)
		assert.Empty(t, exec.executed)
		assert.Zero(t, catalog.listCalls)
	})
}
