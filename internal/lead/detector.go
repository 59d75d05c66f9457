// Package lead provides lead-signal detection and lead capture.
package lead

import "strings"

// defaultTriggers is the fixed lead-capture vocabulary. Any single match in
// the raw user message flags the conversation for lead capture. Intentionally
// a coarse heuristic, independent of the retrieval and generation outcome.
var defaultTriggers = []string{
	"contact", "appointment", "schedule", "meeting", "consultation",
	"quote", "pricing", "interested", "help", "project",
}

// Detector decides whether a conversation should transition into
// lead-capture mode.
type Detector struct {
	triggers []string
}

// NewDetector creates a detector with the default vocabulary plus any extra
// triggers from configuration.
func NewDetector(extra ...string) *Detector {
	triggers := make([]string, 0, len(defaultTriggers)+len(extra))
	for _, t := range defaultTriggers {
		triggers = append(triggers, strings.ToLower(t))
	}
	for _, t := range extra {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			triggers = append(triggers, t)
		}
	}
	return &Detector{triggers: triggers}
}

// ShouldCaptureLead reports whether the raw message contains any trigger,
// case-insensitively. Runs even when generation fails.
func (d *Detector) ShouldCaptureLead(message string) bool {
	lower := strings.ToLower(message)
	for _, trigger := range d.triggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}
