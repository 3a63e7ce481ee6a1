// internal/tracker/tracker.go
package tracker

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Rule configures abort tracking for a single trigger phrase.
type Rule struct {
	Count   int           // occurrences required to fire
	Timeout time.Duration // sliding window the occurrences must fall within
	Sleep   time.Duration // cooldown imposed after firing
}

// Config maps trigger phrases to their rules. Matching is case-insensitive
// substring matching against process output.
type Config map[string]Rule

// Merge combines two configs. On a phrase collision the override wins.
func Merge(base, override Config) Config {
	merged := make(Config, len(base)+len(override))
	for phrase, rule := range base {
		merged[phrase] = rule
	}
	for phrase, rule := range override {
		merged[phrase] = rule
	}
	return merged
}

// Signal is the outcome of one evaluation pass. It is not persisted; the
// caller acts on it immediately.
type Signal struct {
	Fired  bool
	Phrase string
	Sleep  time.Duration
}

// InvalidRuleError reports a malformed trigger rule at construction time.
type InvalidRuleError struct {
	Phrase string
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid trigger rule for %q: %s", e.Phrase, e.Reason)
}

type entry struct {
	phrase  string
	lowered string
	rule    Rule
}

// state tracks occurrences of one phrase. count == 0 exactly when expiresAt
// is the zero time.
type state struct {
	count     int
	expiresAt time.Time
}

// Tracker scans output text for configured trigger phrases and decides when a
// transfer should be aborted. Each orchestrator owns its own instance; the
// state map is not safe for concurrent use.
type Tracker struct {
	entries []entry
	states  map[string]*state
	logger  *slog.Logger
}

// New validates the config and builds a tracker. Phrases are evaluated in
// sorted order so behavior is stable across runs.
func New(cfg Config, logger *slog.Logger) (*Tracker, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries := make([]entry, 0, len(cfg))
	for phrase, rule := range cfg {
		if phrase == "" {
			return nil, &InvalidRuleError{Phrase: phrase, Reason: "phrase must not be empty"}
		}
		if rule.Count <= 0 {
			return nil, &InvalidRuleError{Phrase: phrase, Reason: fmt.Sprintf("count must be positive, got %d", rule.Count)}
		}
		if rule.Timeout <= 0 {
			return nil, &InvalidRuleError{Phrase: phrase, Reason: fmt.Sprintf("timeout must be positive, got %s", rule.Timeout)}
		}
		entries = append(entries, entry{
			phrase:  phrase,
			lowered: strings.ToLower(phrase),
			rule:    rule,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].phrase < entries[j].phrase })

	return &Tracker{
		entries: entries,
		states:  make(map[string]*state),
		logger:  logger,
	}, nil
}

// Evaluate scans one chunk of output text at the given time. It returns a
// fired signal for the first phrase whose threshold is reached and skips the
// remaining phrases in that pass. Evaluation never fails; text that matches
// nothing leaves all state untouched.
func (t *Tracker) Evaluate(text string, now time.Time) Signal {
	lowered := strings.ToLower(text)

	for i := range t.entries {
		e := &t.entries[i]
		st := t.states[e.phrase]

		// Lazy expiry: a lapsed window resets before matching.
		if st != nil && !st.expiresAt.IsZero() && !now.Before(st.expiresAt) {
			t.logger.Warn("tracking of trigger expired, resetting occurrence count",
				"trigger", e.phrase,
				"count_discarded", st.count,
			)
			st.count = 0
			st.expiresAt = time.Time{}
		}

		if !strings.Contains(lowered, e.lowered) {
			continue
		}

		if st == nil {
			st = &state{}
			t.states[e.phrase] = st
		}

		if st.count == 0 {
			st.count = 1
			st.expiresAt = now.Add(e.rule.Timeout)
			t.logger.Warn("tracked first occurrence of trigger",
				"trigger", e.phrase,
				"window", e.rule.Timeout,
				"expires_at", st.expiresAt.Format(time.RFC3339),
			)
		} else {
			st.count++
			t.logger.Warn("tracked repeat occurrence of trigger",
				"trigger", e.phrase,
				"count", st.count,
				"required", e.rule.Count,
				"window", e.rule.Timeout,
			)
		}

		if st.count >= e.rule.Count {
			t.logger.Warn("trigger reached its occurrence limit, aborting transfer",
				"trigger", e.phrase,
				"limit", e.rule.Count,
				"window", e.rule.Timeout,
				"sleep", e.rule.Sleep,
			)
			// State is intentionally left as-is; only expiry or Reset clears it.
			return Signal{Fired: true, Phrase: e.phrase, Sleep: e.rule.Sleep}
		}
	}

	return Signal{}
}

// Reset forgets all tracked occurrences. Used when an orchestrator restarts.
func (t *Tracker) Reset() {
	t.states = make(map[string]*state)
}

// Phrases returns the configured trigger phrases in evaluation order.
func (t *Tracker) Phrases() []string {
	phrases := make([]string, len(t.entries))
	for i, e := range t.entries {
		phrases[i] = e.phrase
	}
	return phrases
}
