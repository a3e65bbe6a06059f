package dispatch

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/nerrad567/spritewire/internal/automation"
	"github.com/nerrad567/spritewire/internal/observability"
	"github.com/nerrad567/spritewire/internal/rules"
	"github.com/nerrad567/spritewire/internal/source"
)

var (
	// ErrUnknownSource indicates the request named a source with no
	// registered adapter.
	ErrUnknownSource = errors.New("dispatch: unknown source")

	// ErrMissingSecret indicates no validation secret is configured for
	// the source. The dispatch fails closed.
	ErrMissingSecret = errors.New("dispatch: no secret configured for source")

	// ErrValidationFailed indicates the request failed authenticity
	// validation. Nothing downstream of the adapter ran.
	ErrValidationFailed = errors.New("dispatch: signature validation failed")

	// ErrMalformedPayload indicates the body could not be parsed after
	// a valid signature.
	ErrMalformedPayload = errors.New("dispatch: malformed payload")
)

// SecretProvider resolves the per-source validation secret.
type SecretProvider interface {
	SourceSecret(name string) (string, bool)
}

// Executor fans matched automations out for execution.
type Executor interface {
	ExecuteAll(ctx context.Context, autos []automation.Automation, payload any) []automation.ExecutionResult
}

// Logger is the minimal logging interface the dispatcher needs.
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

// Outcome is the aggregate of one dispatch cycle.
type Outcome struct {
	// Event is the classified event-type label. Empty for handshakes.
	Event string

	// Handshake is set when the adapter recognised a transport-level
	// handshake; Challenge carries the token to echo back and no
	// matching or execution took place.
	Handshake bool
	Challenge string

	// Results holds one entry per matched automation. Empty when
	// nothing matched.
	Results []automation.ExecutionResult
}

// Success reports whether every matched execution succeeded. Zero
// matches counts as success.
func (o *Outcome) Success() bool {
	for _, r := range o.Results {
		if !r.Success {
			return false
		}
	}
	return true
}

// Dispatcher wires the adapter registry, secrets, catalog and executor
// into the webhook handling pipeline.
type Dispatcher struct {
	registry *source.Registry
	secrets  SecretProvider
	repo     automation.Repository
	exec     Executor
	logger   Logger
}

func New(registry *source.Registry, secrets SecretProvider, repo automation.Repository, exec Executor, logger Logger) *Dispatcher {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Dispatcher{
		registry: registry,
		secrets:  secrets,
		repo:     repo,
		exec:     exec,
		logger:   logger,
	}
}

// Dispatch handles one inbound webhook named by sourceName. Authenticity
// errors are returned as sentinels for the transport layer to map.
// Execution failures are not errors: they live in the Outcome's result
// list with Success() false.
func (d *Dispatcher) Dispatch(ctx context.Context, sourceName string, req source.Request) (*Outcome, error) {
	adapter, ok := d.registry.Get(sourceName)
	if !ok {
		// The source name is an attacker-controlled path segment here;
		// record it under a fixed label so unknown names cannot mint
		// unbounded metric series. Registered adapter names are a
		// closed set and safe to label from this point on.
		observability.RecordDispatch(observability.SourceUnknown, observability.OutcomeRejected)
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, sourceName)
	}

	secret, ok := d.secrets.SourceSecret(sourceName)
	if !ok || secret == "" {
		observability.RecordDispatch(sourceName, observability.OutcomeError)
		d.logger.Error("dispatch failed closed", "source", sourceName, "error", ErrMissingSecret)
		return nil, fmt.Errorf("%w: %q", ErrMissingSecret, sourceName)
	}

	if !adapter.Validate(req, secret) {
		observability.RecordDispatch(sourceName, observability.OutcomeRejected)
		d.logger.Warn("webhook rejected", "source", sourceName)
		return nil, fmt.Errorf("%w: source %q", ErrValidationFailed, sourceName)
	}

	payload, err := adapter.Parse(req)
	if err != nil {
		observability.RecordDispatch(sourceName, observability.OutcomeRejected)
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if shaker, ok := adapter.(source.Handshaker); ok {
		if challenge, isHandshake := shaker.Handshake(payload); isHandshake {
			observability.RecordDispatch(sourceName, observability.OutcomeHandshake)
			d.logger.Info("handshake answered", "source", sourceName)
			return &Outcome{Handshake: true, Challenge: challenge}, nil
		}
	}

	event := adapter.EventType(req, payload)

	catalog, err := d.repo.List(ctx)
	if err != nil {
		observability.RecordDispatch(sourceName, observability.OutcomeError)
		return nil, fmt.Errorf("dispatch: load catalog: %w", err)
	}

	matched := d.filter(catalog, sourceName, event, payload)
	if len(matched) == 0 {
		observability.RecordDispatch(sourceName, observability.OutcomeNoMatch)
		d.logger.Debug("no automations matched", "source", sourceName, "event", event)
		return &Outcome{Event: event}, nil
	}

	d.logger.Info("dispatching matched automations",
		"source", sourceName,
		"event", event,
		"matched", len(matched),
	)

	outcome := &Outcome{
		Event:   event,
		Results: d.exec.ExecuteAll(ctx, matched, payload),
	}

	for _, result := range outcome.Results {
		observability.RecordExecution(result.Success)
	}
	if outcome.Success() {
		observability.RecordDispatch(sourceName, observability.OutcomeSucceeded)
	} else {
		observability.RecordDispatch(sourceName, observability.OutcomeFailed)
	}
	return outcome, nil
}

// filter selects the webhook automations subscribed to this source and
// event whose predicates hold against the payload.
func (d *Dispatcher) filter(catalog []automation.Automation, sourceName, event string, payload map[string]any) []automation.Automation {
	var matched []automation.Automation
	for _, auto := range catalog {
		if auto.Source.IsCron() || auto.Source.Type != sourceName {
			continue
		}
		if !slices.Contains(auto.Source.Events, event) {
			continue
		}
		if !rules.Matches(auto.Match, payload, d.logger) {
			continue
		}
		matched = append(matched, auto)
	}
	return matched
}
