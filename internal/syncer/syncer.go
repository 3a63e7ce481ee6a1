// internal/syncer/syncer.go
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/upliftd/uplift/internal/config"
	"github.com/upliftd/uplift/internal/executor"
	"github.com/upliftd/uplift/internal/logging"
	"github.com/upliftd/uplift/internal/rclone"
	"github.com/upliftd/uplift/internal/security"
	"github.com/upliftd/uplift/internal/template"
	"github.com/upliftd/uplift/internal/tracker"
)

// Additional result states beyond the executor's.
const (
	StateAborted = "aborted"
	StateSkipped = "skipped"
)

// RunFunc executes a binary and streams its output. Matches executor.Run;
// injectable so tests never spawn processes.
type RunFunc func(ctx context.Context, binary string, args []string, onLine executor.LineFunc) (*executor.Result, error)

// Result is the outcome of one sync attempt.
type Result struct {
	State        string
	AbortTrigger string
	Cooldown     time.Duration
	Stats        rclone.Stats
	Output       string
	Error        string
	Duration     time.Duration
}

// Syncer runs transfers for one configured remote. It owns its own trigger
// tracker and cooldown clock; concurrent syncers never share tracking state.
type Syncer struct {
	name      string
	remote    *config.Remote
	rcloneCfg config.RcloneConfig
	tracker   *tracker.Tracker
	logger    *slog.Logger
	run       RunFunc
	now       func() time.Time

	mu            sync.Mutex
	cooldownUntil time.Time
}

// New builds a syncer for a remote. The abort trigger set is merged from the
// global defaults, then the source endpoint, then the dest endpoint; later
// sources win on a phrase collision. Malformed trigger rules fail here, not
// during a transfer.
func New(remote *config.Remote, global *config.Global, logger *slog.Logger) (*Syncer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithRemote(logger, remote.Name)

	rcloneCfg := config.MergeRclone(global.RcloneDefaults, remote.Rclone)
	if remote.DryRun {
		rcloneCfg.DryRun = true
	}

	triggers := tracker.Merge(
		trackerConfig(global.SleepTriggers),
		tracker.Merge(
			trackerConfig(remote.Source.SleepTriggers),
			trackerConfig(remote.Dest.SleepTriggers),
		),
	)
	tr, err := tracker.New(triggers, logger)
	if err != nil {
		return nil, fmt.Errorf("building trigger tracker for remote %s: %w", remote.Name, err)
	}

	return &Syncer{
		name:      remote.Name,
		remote:    remote,
		rcloneCfg: rcloneCfg,
		tracker:   tr,
		logger:    logger,
		run:       executor.Run,
		now:       time.Now,
	}, nil
}

// trackerConfig converts YAML second-based trigger rules to tracker rules.
func trackerConfig(rules map[string]config.TriggerRule) tracker.Config {
	cfg := make(tracker.Config, len(rules))
	for phrase, rule := range rules {
		cfg[phrase] = tracker.Rule{
			Count:   rule.Count,
			Timeout: time.Duration(rule.TimeoutSeconds) * time.Second,
			Sleep:   time.Duration(rule.SleepSeconds) * time.Second,
		}
	}
	return cfg
}

// Name returns the remote's name.
func (s *Syncer) Name() string {
	return s.name
}

// InCooldown reports whether a previous abort still parks this remote, and
// until when.
func (s *Syncer) InCooldown(now time.Time) (bool, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Before(s.cooldownUntil), s.cooldownUntil
}

// ResetTracking forgets all tracked trigger occurrences and clears the
// cooldown. Used when the remote's definition is reloaded.
func (s *Syncer) ResetTracking() {
	s.mu.Lock()
	s.cooldownUntil = time.Time{}
	s.mu.Unlock()
	s.tracker.Reset()
}

// Sync runs one transfer attempt, feeding every output line through the
// trigger tracker. A fired trigger kills the in-flight process, records the
// cooldown, and yields an aborted result.
func (s *Syncer) Sync(ctx context.Context, eventData map[string]any) (*Result, error) {
	now := s.now()
	if parked, until := s.InCooldown(now); parked {
		s.logger.Info("skipping sync, remote is in cooldown",
			"resume_at", until.Format(time.RFC3339),
		)
		return &Result{State: StateSkipped, Cooldown: until.Sub(now)}, nil
	}

	dest := template.Expand(s.remote.Dest.Path, template.PathData(s.name, now, sanitizeEventData(eventData)))
	args := rclone.MoveArgs(s.remote.Source.Path, dest, s.rcloneCfg)

	s.logger.Info("starting transfer",
		"source", s.remote.Source.Path,
		"dest", dest,
		"dry_run", s.rcloneCfg.DryRun,
	)
	s.logger.Debug("rclone command", "binary", s.rcloneCfg.Binary, "args", args)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// abort is written by the output callback and read only after run
	// returns; the executor joins its reader goroutine before returning.
	var abort tracker.Signal
	result, err := s.run(runCtx, s.rcloneCfg.Binary, args, func(line string) {
		if abort.Fired {
			return // draining remaining output after the kill
		}
		if sig := s.tracker.Evaluate(line, s.now()); sig.Fired {
			abort = sig
			cancel()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("running transfer for remote %s: %w", s.name, err)
	}

	res := &Result{
		State:    result.State,
		Stats:    rclone.ParseStats(result.Output),
		Output:   result.Output,
		Error:    result.Error,
		Duration: result.Duration,
	}

	if abort.Fired {
		until := s.now().Add(abort.Sleep)
		s.mu.Lock()
		s.cooldownUntil = until
		s.mu.Unlock()

		res.State = StateAborted
		res.AbortTrigger = abort.Phrase
		res.Cooldown = abort.Sleep

		s.logger.Warn("transfer aborted by trigger",
			"trigger", abort.Phrase,
			"cooldown", abort.Sleep,
			"resume_at", until.Format(time.RFC3339),
		)
		return res, nil
	}

	s.logger.Info("transfer finished",
		"state", res.State,
		"transferred", res.Stats.TransferredBytes,
		"duration", res.Duration,
	)
	return res, nil
}

func sanitizeEventData(data map[string]any) map[string]any {
	if len(data) == 0 {
		return nil
	}
	sanitized := make(map[string]any, len(data))
	for k, v := range data {
		if s, ok := v.(string); ok {
			sanitized[k] = security.SanitizeValue(s)
		} else {
			sanitized[k] = v
		}
	}
	return sanitized
}
