package automation

import "time"

// SourceTypeCron is the source type discriminator for time-triggered
// automations. Every other source type names a webhook adapter.
const SourceTypeCron = "cron"

// Automation binds an event source and match predicates to a rendered
// instruction and a target sprite. It is the unit of configuration:
// created and updated through the admin API, read-only everywhere else.
type Automation struct {
	// Identity
	ID          string  `json:"id"`
	Description *string `json:"description,omitempty"`

	// Target sprite
	Sprite Sprite `json:"sprite"`

	// Trigger: webhook events or a cron schedule, never both
	Source Source `json:"source"`

	// Match predicates (conjunction; empty always matches)
	Match []string `json:"match,omitempty"`

	// Run is the instruction template sent to the sprite
	Run string `json:"run"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sprite describes the remote execution environment an automation targets.
type Sprite struct {
	// Name addresses the sprite on the gateway
	Name string `json:"name"`

	// Path is the executable run inside the sprite
	Path string `json:"path"`

	// Cmd holds optional arguments for the executable
	Cmd *string `json:"cmd,omitempty"`

	// Workdir is the optional working directory
	Workdir *string `json:"workdir,omitempty"`
}

// Source is a tagged union of exactly two variants, discriminated solely
// by Type. A webhook variant carries the adapter name in Type and a
// non-empty Events list; the time variant carries Type == "cron" and a
// cron-syntax Schedule. An automation is never both.
type Source struct {
	Type     string   `json:"type"`
	Events   []string `json:"events,omitempty"`
	Schedule string   `json:"schedule,omitempty"`
}

// IsCron reports whether the source is the time variant.
func (s Source) IsCron() bool {
	return s.Type == SourceTypeCron
}

// ExecutionResult records the outcome of dispatching one automation.
// Success means only that the sprite gateway accepted the request, not
// that the instruction finished running.
type ExecutionResult struct {
	AutomationID string  `json:"automation_id"`
	Success      bool    `json:"success"`
	Error        *string `json:"error,omitempty"`
}

// TemplateMeta returns the sprite metadata tree exposed to the template
// renderer as {{sprite.*}}.
func (s Sprite) TemplateMeta() map[string]any {
	meta := map[string]any{
		"name": s.Name,
		"path": s.Path,
	}
	if s.Cmd != nil {
		meta["cmd"] = *s.Cmd
	}
	if s.Workdir != nil {
		meta["workdir"] = *s.Workdir
	}
	return meta
}

// DeepCopy creates a complete independent copy of the Automation.
// Slice and pointer fields are cloned so modifications to the copy do
// not affect the original.
func (a *Automation) DeepCopy() *Automation {
	if a == nil {
		return nil
	}

	cpy := *a
	cpy.Description = cloneStringPtr(a.Description)
	cpy.Sprite.Cmd = cloneStringPtr(a.Sprite.Cmd)
	cpy.Sprite.Workdir = cloneStringPtr(a.Sprite.Workdir)

	if a.Source.Events != nil {
		cpy.Source.Events = make([]string, len(a.Source.Events))
		copy(cpy.Source.Events, a.Source.Events)
	}
	if a.Match != nil {
		cpy.Match = make([]string, len(a.Match))
		copy(cpy.Match, a.Match)
	}

	return &cpy
}

// cloneStringPtr creates an independent copy of a *string.
func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
