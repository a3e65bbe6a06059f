package automation

import (
	"errors"
	"strings"
	"testing"
)

// validAutomation returns a minimal valid webhook automation for tests.
func validAutomation() *Automation {
	return &Automation{
		ID: "auto-1",
		Sprite: Sprite{
			Name: "reviewer",
			Path: "/usr/local/bin/claude",
		},
		Source: Source{
			Type:   "github",
			Events: []string{"pull_request"},
		},
		Match: []string{`payload.action == "opened"`},
		Run:   "review {{payload.pull_request.url}}",
	}
}

func TestValidateAutomation_Valid(t *testing.T) {
	if err := ValidateAutomation(validAutomation()); err != nil {
		t.Fatalf("ValidateAutomation() error = %v, want nil", err)
	}
}

func TestValidateAutomation_ValidCron(t *testing.T) {
	a := validAutomation()
	a.Source = Source{Type: SourceTypeCron, Schedule: "0 9 * * 1-5"}
	a.Match = nil

	if err := ValidateAutomation(a); err != nil {
		t.Fatalf("ValidateAutomation() error = %v, want nil", err)
	}
}

func TestValidateAutomation_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Automation)
		wantErr error
	}{
		{
			"nil automation handled by caller",
			nil,
			ErrInvalid,
		},
		{
			"missing sprite name",
			func(a *Automation) { a.Sprite.Name = "" },
			ErrInvalidSprite,
		},
		{
			"whitespace sprite name",
			func(a *Automation) { a.Sprite.Name = "   " },
			ErrInvalidSprite,
		},
		{
			"missing sprite path",
			func(a *Automation) { a.Sprite.Path = "" },
			ErrInvalidSprite,
		},
		{
			"missing source type",
			func(a *Automation) { a.Source.Type = "" },
			ErrInvalidSource,
		},
		{
			"uppercase source type",
			func(a *Automation) { a.Source.Type = "GitHub" },
			ErrInvalidSource,
		},
		{
			"webhook without events",
			func(a *Automation) { a.Source.Events = nil },
			ErrInvalidSource,
		},
		{
			"webhook with empty event label",
			func(a *Automation) { a.Source.Events = []string{"push", " "} },
			ErrInvalidSource,
		},
		{
			"webhook with schedule",
			func(a *Automation) { a.Source.Schedule = "* * * * *" },
			ErrInvalidSource,
		},
		{
			"cron without schedule",
			func(a *Automation) { a.Source = Source{Type: SourceTypeCron} },
			ErrInvalidSource,
		},
		{
			"cron with events",
			func(a *Automation) {
				a.Source = Source{Type: SourceTypeCron, Schedule: "* * * * *", Events: []string{"x"}}
			},
			ErrInvalidSource,
		},
		{
			"cron with bad schedule",
			func(a *Automation) { a.Source = Source{Type: SourceTypeCron, Schedule: "not a cron"} },
			ErrInvalidSource,
		},
		{
			"cron with six fields",
			func(a *Automation) { a.Source = Source{Type: SourceTypeCron, Schedule: "0 0 9 * * 1"} },
			ErrInvalidSource,
		},
		{
			"predicate without operator",
			func(a *Automation) { a.Match = []string{"payload.action equals opened"} },
			ErrInvalidMatch,
		},
		{
			"predicate outside payload root",
			func(a *Automation) { a.Match = []string{`sprite.name == "x"`} },
			ErrInvalidMatch,
		},
		{
			"missing run",
			func(a *Automation) { a.Run = "" },
			ErrInvalid,
		},
		{
			"oversized run",
			func(a *Automation) { a.Run = strings.Repeat("x", maxRunLength+1) },
			ErrInvalid,
		},
		{
			"oversized id",
			func(a *Automation) { a.ID = strings.Repeat("a", maxIDLength+1) },
			ErrInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a *Automation
			if tt.mutate != nil {
				a = validAutomation()
				tt.mutate(a)
			}

			err := ValidateAutomation(a)
			if err == nil {
				t.Fatal("ValidateAutomation() error = nil, want error")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAutomation() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePredicate(t *testing.T) {
	valid := []string{
		`payload.action == "opened"`,
		`payload.a.b.c != 42`,
		`payload == "whole"`,
		`payload.msg != "x==y"`,
	}
	for _, p := range valid {
		if err := ValidatePredicate(p); err != nil {
			t.Errorf("ValidatePredicate(%q) error = %v, want nil", p, err)
		}
	}

	invalid := []string{
		"no operator",
		`other.path == "x"`,
		`payloadish.a == "x"`,
		// != in the literal of an == predicate misparses at evaluation
		// time: the != split runs first and leaves `payload.msg == "a!`
		// as the path, so the predicate would hold for every payload.
		`payload.msg == "a!=b"`,
		`payload.msg == "a=b!=c"`,
	}
	for _, p := range invalid {
		if err := ValidatePredicate(p); err == nil {
			t.Errorf("ValidatePredicate(%q) error = nil, want error", p)
		}
	}
}

func TestSourceIsCron(t *testing.T) {
	if !(Source{Type: "cron", Schedule: "* * * * *"}).IsCron() {
		t.Error("cron source should report IsCron")
	}
	if (Source{Type: "github", Events: []string{"push"}}).IsCron() {
		t.Error("webhook source should not report IsCron")
	}
}

func TestDeepCopy_Isolation(t *testing.T) {
	original := validAutomation()
	cmd := "--verbose"
	original.Sprite.Cmd = &cmd

	cpy := original.DeepCopy()
	cpy.Source.Events[0] = "mutated"
	cpy.Match[0] = "mutated"
	*cpy.Sprite.Cmd = "mutated"

	if original.Source.Events[0] != "pull_request" {
		t.Error("DeepCopy shares the events slice")
	}
	if original.Match[0] != `payload.action == "opened"` {
		t.Error("DeepCopy shares the match slice")
	}
	if *original.Sprite.Cmd != "--verbose" {
		t.Error("DeepCopy shares the cmd pointer")
	}
}

func TestGenerateID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateID()
		if seen[id] {
			t.Fatalf("GenerateID produced duplicate %q", id)
		}
		seen[id] = true
	}
}
