package automation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Validation constants.
const (
	maxIDLength       = 64
	maxDescriptionLen = 500
	maxEvents         = 50
	maxPredicates     = 50
	maxPredicateLen   = 500
	maxRunLength      = 10000
	sourceTypePattern = `^[a-z0-9]+(?:[-_][a-z0-9]+)*$`
)

var sourceTypeRegex = regexp.MustCompile(sourceTypePattern)

// scheduleParser validates cron expressions using the standard five-field
// syntax (minute, hour, day of month, month, day of week). The same
// parser is used by the scheduler, so an automation that passes
// validation is guaranteed to register.
var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// ValidateAutomation performs comprehensive validation on an automation.
// Returns an error describing the first validation failure found.
func ValidateAutomation(a *Automation) error {
	if a == nil {
		return ErrInvalid
	}

	if len(a.ID) > maxIDLength {
		return fmt.Errorf("%w: id exceeds %d characters", ErrInvalid, maxIDLength)
	}
	if a.Description != nil && len(*a.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalid, maxDescriptionLen)
	}

	if err := ValidateSprite(a.Sprite); err != nil {
		return err
	}
	if err := ValidateSource(a.Source); err != nil {
		return err
	}

	if len(a.Match) > maxPredicates {
		return fmt.Errorf("%w: exceeds maximum of %d predicates", ErrInvalidMatch, maxPredicates)
	}
	for i, predicate := range a.Match {
		if err := ValidatePredicate(predicate); err != nil {
			return fmt.Errorf("match[%d]: %w", i, err)
		}
	}

	if strings.TrimSpace(a.Run) == "" {
		return fmt.Errorf("%w: run is required", ErrInvalid)
	}
	if len(a.Run) > maxRunLength {
		return fmt.Errorf("%w: run exceeds %d characters", ErrInvalid, maxRunLength)
	}

	return nil
}

// ValidateSprite checks the sprite descriptor.
func ValidateSprite(s Sprite) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSprite)
	}
	if strings.TrimSpace(s.Path) == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidSprite)
	}
	return nil
}

// ValidateSource checks the source tagged union invariant: the variant is
// determined solely by Type, and an automation is never both webhook and
// time triggered.
func ValidateSource(s Source) error {
	if s.Type == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidSource)
	}
	if !sourceTypeRegex.MatchString(s.Type) {
		return fmt.Errorf("%w: type %q is not a valid source name", ErrInvalidSource, s.Type)
	}

	if s.IsCron() {
		if len(s.Events) > 0 {
			return fmt.Errorf("%w: cron source cannot declare events", ErrInvalidSource)
		}
		if s.Schedule == "" {
			return fmt.Errorf("%w: cron source requires a schedule", ErrInvalidSource)
		}
		if err := ValidateSchedule(s.Schedule); err != nil {
			return err
		}
		return nil
	}

	if s.Schedule != "" {
		return fmt.Errorf("%w: webhook source cannot declare a schedule", ErrInvalidSource)
	}
	if len(s.Events) == 0 {
		return fmt.Errorf("%w: webhook source requires at least one event", ErrInvalidSource)
	}
	if len(s.Events) > maxEvents {
		return fmt.Errorf("%w: exceeds maximum of %d events", ErrInvalidSource, maxEvents)
	}
	for _, event := range s.Events {
		if strings.TrimSpace(event) == "" {
			return fmt.Errorf("%w: event labels cannot be empty", ErrInvalidSource)
		}
	}
	return nil
}

// ValidateSchedule checks a cron expression against the standard
// five-field parser.
func ValidateSchedule(schedule string) error {
	if _, err := scheduleParser.Parse(schedule); err != nil {
		return fmt.Errorf("%w: schedule %q: %v", ErrInvalidSource, schedule, err)
	}
	return nil
}

// ValidatePredicate lints a single match predicate at the admin boundary.
// A predicate must contain == or != and address a payload.* path. The
// evaluator still fails closed at dispatch time, so this is a usability
// check rather than a safety one.
func ValidatePredicate(predicate string) error {
	if len(predicate) > maxPredicateLen {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidMatch, maxPredicateLen)
	}

	var path string
	switch {
	case strings.Contains(predicate, "!="):
		path = strings.SplitN(predicate, "!=", 2)[0]
	case strings.Contains(predicate, "=="):
		path = strings.SplitN(predicate, "==", 2)[0]
	default:
		return fmt.Errorf("%w: %q has no == or != operator", ErrInvalidMatch, predicate)
	}

	path = strings.TrimSpace(path)
	// The evaluator splits on != before ==, so a quoted literal
	// containing an operator leaves operator fragments in the extracted
	// path and the predicate silently misparses. Reject it here.
	if strings.Contains(path, "=") {
		return fmt.Errorf("%w: %q literal cannot contain == or !=", ErrInvalidMatch, predicate)
	}
	if path != "payload" && !strings.HasPrefix(path, "payload.") {
		return fmt.Errorf("%w: %q must address a payload.* path", ErrInvalidMatch, predicate)
	}
	return nil
}

// GenerateID creates a new UUID for an automation.
func GenerateID() string {
	return uuid.New().String()
}
