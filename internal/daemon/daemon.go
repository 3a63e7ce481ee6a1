// internal/daemon/daemon.go
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/upliftd/uplift/internal/config"
	"github.com/upliftd/uplift/internal/executor"
	"github.com/upliftd/uplift/internal/logging"
	"github.com/upliftd/uplift/internal/security"
	"github.com/upliftd/uplift/internal/state"
	"github.com/upliftd/uplift/internal/syncer"
	"github.com/upliftd/uplift/internal/trigger"
)

const (
	defaultLogDir     = "/var/log/uplift"
	defaultStateDB    = "/var/lib/uplift/history.db"
	defaultSyncWindow = 6 * time.Hour // max runtime for a single transfer
)

// Daemon is the main offload daemon
type Daemon struct {
	configPath string
	remotesDir string
	config     *config.Global
	remotes    map[string]*config.Remote
	syncers    map[string]*syncer.Syncer
	triggers   map[string]trigger.Trigger
	events     chan trigger.Event
	logger     *slog.Logger
	webhooks   map[string]*trigger.Webhook
	httpServer *http.Server
	lastState  map[string]string // last transfer state per remote name
	stateDB    *state.DB
	startTime  time.Time
	mu         sync.RWMutex
	sem        chan struct{}  // concurrency limiter
	wg         sync.WaitGroup // tracks in-flight event handlers
}

// New creates a new daemon instance
func New(configPath, remotesDir string) *Daemon {
	return &Daemon{
		configPath: configPath,
		remotesDir: remotesDir,
		remotes:    make(map[string]*config.Remote),
		syncers:    make(map[string]*syncer.Syncer),
		triggers:   make(map[string]trigger.Trigger),
		events:     make(chan trigger.Event, 100),
		webhooks:   make(map[string]*trigger.Webhook),
		lastState:  make(map[string]string),
	}
}

// Run starts the daemon and blocks until context is cancelled
func (d *Daemon) Run(ctx context.Context) error {
	d.startTime = time.Now()

	if err := d.loadConfig(); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logWriter, err := d.initLogWriter()
	if err != nil {
		d.logger = logging.NewLogger(d.config.Logging.Format, d.config.Daemon.LogLevel, os.Stdout)
		d.logger.Warn("failed to initialize rotating log writer, using stdout", "error", err)
	} else {
		d.logger = logging.NewLogger(d.config.Logging.Format, d.config.Daemon.LogLevel, logWriter)
	}

	d.logger.Info("starting daemon", "config", d.configPath, "remotes_dir", d.remotesDir)

	if err := d.initStateDB(); err != nil {
		d.logger.Warn("failed to initialize state database, history will not be recorded", "error", err)
	}

	if err := security.ValidateDirectoryPermissions(d.remotesDir); err != nil {
		d.logger.Error("CRITICAL: remotes directory has unsafe permissions", "error", err, "path", d.remotesDir)
		// Log critical but continue, the operator should fix permissions
	}

	if err := d.loadRemotes(); err != nil {
		return fmt.Errorf("loading remotes: %w", err)
	}

	d.initLastStateFromDB()

	if err := d.initTriggers(ctx); err != nil {
		return fmt.Errorf("initializing triggers: %w", err)
	}

	go d.startHTTPServer(ctx)
	go d.startHotReload(ctx)

	d.fireLifecycleEvent("daemon_started")

	d.logger.Info("daemon started", "remotes_loaded", len(d.remotes))

	d.sem = make(chan struct{}, d.config.Sync.MaxConcurrent)

	for {
		select {
		case event := <-d.events:
			d.sem <- struct{}{} // acquire semaphore
			d.wg.Add(1)
			go func() {
				defer func() {
					<-d.sem
					d.wg.Done()
				}()
				d.handleEvent(ctx, event)
			}()
		case <-ctx.Done():
			d.logger.Info("daemon stopping, waiting for in-flight transfers")
			d.wg.Wait()
			// Fresh context for shutdown lifecycle events since parent is cancelled
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			d.handleLifecycleShutdown(shutdownCtx)
			shutdownCancel()
			return d.shutdown()
		}
	}
}

func (d *Daemon) initLogWriter() (*logging.RotatingWriter, error) {
	if err := os.MkdirAll(defaultLogDir, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	logPath := filepath.Join(defaultLogDir, "upliftd.log")
	return logging.NewRotatingWriter(logPath, 50*1024*1024) // 50MB
}

func (d *Daemon) initStateDB() error {
	db, err := state.Open(defaultStateDB)
	if err != nil {
		return fmt.Errorf("opening state database: %w", err)
	}
	d.stateDB = db

	retention := d.config.Sync.HistoryRetention
	go func() {
		if deleted, err := db.Cleanup(retention); err != nil {
			d.logger.Warn("state cleanup failed", "error", err)
		} else if deleted > 0 {
			d.logger.Info("cleaned up old transfer records", "deleted", deleted)
		}
	}()

	return nil
}

func (d *Daemon) loadConfig() error {
	cfg, err := config.LoadGlobal(d.configPath)
	if err != nil {
		return err
	}
	d.config = cfg
	return nil
}

func (d *Daemon) loadRemotes() error {
	remotes, err := config.LoadRemotesDir(d.remotesDir)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, remote := range remotes {
		if err := config.ValidateRemote(remote); err != nil {
			if d.logger != nil {
				d.logger.Error("invalid remote definition, skipping", "remote", remote.Name, "error", err)
			}
			continue
		}
		d.remotes[remote.Name] = remote
	}

	for _, remote := range d.remotes {
		warnings := config.ValidateRemoteWithGlobal(remote, d.config, d.remotes)
		for _, w := range warnings {
			if d.logger != nil {
				d.logger.Warn(w)
			}
		}
	}

	return nil
}

// initSyncer builds the per-remote syncer. Each remote owns its trigger
// tracker; a reload replaces the syncer and therefore resets tracking.
func (d *Daemon) initSyncer(remote *config.Remote) error {
	s, err := syncer.New(remote, d.config, d.logger)
	if err != nil {
		return err
	}
	d.syncers[remote.Name] = s
	return nil
}

func (d *Daemon) initTriggers(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, remote := range d.remotes {
		if !remote.Enabled {
			d.logger.Debug("skipping disabled remote", "remote", remote.Name)
			continue
		}

		if err := d.initSyncer(remote); err != nil {
			d.logger.Error("failed to build syncer", "remote", remote.Name, "error", err)
			continue
		}

		t, err := trigger.New(remote.Name, remote.Trigger, remote.Source.Path)
		if err != nil {
			d.logger.Error("failed to create trigger", "remote", remote.Name, "error", err)
			continue
		}

		d.triggers[remote.Name] = t

		// Track webhook triggers separately for HTTP routing
		if wh, ok := t.(*trigger.Webhook); ok {
			d.webhooks[wh.ListenPath()] = wh
		}

		go func(t trigger.Trigger) {
			if err := t.Start(ctx, d.events); err != nil && err != context.Canceled {
				d.logger.Error("trigger error", "remote", t.RemoteName(), "error", err)
			}
		}(t)
	}

	return nil
}

// startHTTPServer starts the HTTP server with health, API, and webhook endpoints.
func (d *Daemon) startHTTPServer(ctx context.Context) {
	addr := fmt.Sprintf("%s:%d",
		d.config.Daemon.ListenAddress,
		d.config.Daemon.ListenPort,
	)

	mux := http.NewServeMux()

	mux.HandleFunc("/health", rateLimitHandler(60, d.handleHealth))
	mux.HandleFunc("/api/remotes", rateLimitHandler(30, d.handleAPIRemotes))
	mux.HandleFunc("/api/history", rateLimitHandler(30, d.handleAPIHistory))

	// Webhook handler (catch-all)
	mux.HandleFunc("/", rateLimitHandler(10, func(w http.ResponseWriter, r *http.Request) {
		d.mu.RLock()
		wh, ok := d.webhooks[r.URL.Path]
		d.mu.RUnlock()

		if !ok {
			http.NotFound(w, r)
			return
		}

		if wh.HandleRequest(r, d.events) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		} else {
			http.Error(w, "Forbidden", http.StatusForbidden)
		}
	}))

	d.httpServer = &http.Server{Addr: addr, Handler: mux}

	d.logger.Info("starting HTTP server", "address", addr)

	go func() {
		if err := d.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			d.logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	d.httpServer.Shutdown(shutdownCtx)
}

// handleHealth returns daemon health status.
func (d *Daemon) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	now := time.Now()
	d.mu.RLock()
	remotesLoaded := len(d.remotes)
	remotesEnabled := 0
	for _, remote := range d.remotes {
		if remote.Enabled {
			remotesEnabled++
		}
	}
	inCooldown := 0
	for _, s := range d.syncers {
		if parked, _ := s.InCooldown(now); parked {
			inCooldown++
		}
	}
	d.mu.RUnlock()

	uptime := time.Since(d.startTime).Truncate(time.Second).String()
	resp := map[string]any{
		"status":          "ok",
		"uptime":          uptime,
		"remotes_loaded":  remotesLoaded,
		"remotes_enabled": remotesEnabled,
		"in_cooldown":     inCooldown,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleAPIRemotes returns all remotes with their current state.
func (d *Daemon) handleAPIRemotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	now := time.Now()
	d.mu.RLock()
	defer d.mu.RUnlock()

	type remoteStatus struct {
		Name          string `json:"name"`
		Enabled       bool   `json:"enabled"`
		DryRun        bool   `json:"dry_run"`
		LastState     string `json:"last_state,omitempty"`
		InCooldown    bool   `json:"in_cooldown"`
		CooldownUntil string `json:"cooldown_until,omitempty"`
	}

	var remotes []remoteStatus
	for _, remote := range d.remotes {
		rs := remoteStatus{
			Name:    remote.Name,
			Enabled: remote.Enabled,
			DryRun:  remote.DryRun,
		}
		if st, ok := d.lastState[remote.Name]; ok {
			rs.LastState = st
		}
		if s, ok := d.syncers[remote.Name]; ok {
			if parked, until := s.InCooldown(now); parked {
				rs.InCooldown = true
				rs.CooldownUntil = until.Format(time.RFC3339)
			}
		}
		remotes = append(remotes, rs)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(remotes)
}

// handleAPIHistory returns transfer history from the state DB.
func (d *Daemon) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if d.stateDB == nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]any{})
		return
	}

	remoteName := r.URL.Query().Get("remote")
	stateFilter := r.URL.Query().Get("state")
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
	}
	if limit > 500 {
		limit = 500
	}

	records, err := d.stateDB.GetHistory(remoteName, stateFilter, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("querying history: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// rateLimitHandler wraps an HTTP handler with a simple token-bucket rate limiter.
func rateLimitHandler(requestsPerMinute int, handler http.HandlerFunc) http.HandlerFunc {
	var mu sync.Mutex
	tokens := requestsPerMinute
	lastRefill := time.Now()

	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		now := time.Now()
		elapsed := now.Sub(lastRefill)
		refill := int(elapsed.Minutes() * float64(requestsPerMinute))
		if refill > 0 {
			tokens += refill
			if tokens > requestsPerMinute {
				tokens = requestsPerMinute
			}
			lastRefill = now
		}

		if tokens <= 0 {
			mu.Unlock()
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		tokens--
		mu.Unlock()

		handler(w, r)
	}
}

func (d *Daemon) fireLifecycleEvent(eventType string) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, t := range d.triggers {
		if lt, ok := t.(*trigger.Lifecycle); ok {
			lt.Fire(eventType, d.events)
		}
	}
}

// handleLifecycleShutdown directly handles daemon_stopped events with the given
// context, bypassing the event channel which is no longer being read after ctx
// cancellation.
func (d *Daemon) handleLifecycleShutdown(ctx context.Context) {
	d.mu.RLock()
	var lifecycleRemotes []string
	for _, t := range d.triggers {
		if lt, ok := t.(*trigger.Lifecycle); ok && lt.ShouldFireOn("daemon_stopped") {
			lifecycleRemotes = append(lifecycleRemotes, lt.RemoteName())
		}
	}
	d.mu.RUnlock()

	for _, remoteName := range lifecycleRemotes {
		event := trigger.Event{
			RemoteName: remoteName,
			Type:       "daemon_stopped",
			Timestamp:  time.Now(),
			Data:       map[string]any{},
		}
		d.handleEvent(ctx, event)
	}
}

func (d *Daemon) handleEvent(ctx context.Context, event trigger.Event) {
	d.mu.RLock()
	remote, ok := d.remotes[event.RemoteName]
	s := d.syncers[event.RemoteName]
	d.mu.RUnlock()

	if !ok {
		d.logger.Error("remote not found for event", "remote", event.RemoteName)
		return
	}
	if s == nil {
		d.logger.Error("no syncer for remote", "remote", event.RemoteName)
		return
	}

	logger := logging.WithRemote(d.logger, remote.Name)
	logger.Info("handling event", "type", event.Type)

	// Don't burn a concurrency slot on a remote that is parked
	if parked, until := s.InCooldown(time.Now()); parked {
		logger.Info("remote in cooldown, skipping event",
			"type", event.Type,
			"resume_at", until.Format(time.RFC3339),
		)
		return
	}

	if event.Data == nil {
		event.Data = map[string]any{}
	}
	if _, ok := event.Data["event_type"]; !ok {
		event.Data["event_type"] = event.Type
	}
	if _, ok := event.Data["timestamp"]; !ok {
		event.Data["timestamp"] = event.Timestamp.Format(time.RFC3339)
	}

	startedAt := time.Now()

	result, err := d.executeSync(ctx, remote, s, event)
	if err != nil {
		logger.Error("sync error", "error", err)
		d.recordTransfer(remote, event, &syncer.Result{State: executor.StateFailure, Error: err.Error()}, startedAt, 0)
		d.handleFailure(ctx, remote, s, event, err)
		return
	}

	logger.Info("sync complete",
		"state", result.State,
		"transferred", result.Stats.TransferredBytes,
		"duration", result.Duration,
	)

	d.recordTransfer(remote, event, result, startedAt, 0)
	d.recordLastState(remote.Name, result.State)

	switch result.State {
	case executor.StateSuccess, syncer.StateSkipped:
	case syncer.StateAborted:
		// The syncer already parked the remote; retries would only feed the
		// same trigger again.
		logger.Warn("transfer aborted, remote parked",
			"trigger", result.AbortTrigger,
			"cooldown", result.Cooldown,
		)
	case executor.StateCancelled:
		logger.Info("transfer cancelled (shutdown)")
	default:
		d.handleFailure(ctx, remote, s, event, fmt.Errorf("transfer failed: %s", result.Error))
	}
}

// executeSync runs one transfer with the remote's timeout cap.
func (d *Daemon) executeSync(ctx context.Context, remote *config.Remote, s *syncer.Syncer, event trigger.Event) (*syncer.Result, error) {
	timeout := defaultSyncWindow
	if remote.MaxTimeoutSeconds > 0 {
		timeout = time.Duration(remote.MaxTimeoutSeconds) * time.Second
	}
	syncCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return s.Sync(syncCtx, event.Data)
}

func (d *Daemon) handleFailure(ctx context.Context, remote *config.Remote, s *syncer.Syncer, event trigger.Event, err error) {
	logger := logging.WithRemote(d.logger, remote.Name)

	if !remote.OnFailure.Retry {
		logger.Error("transfer failed, no retry configured", "error", err)
		return
	}

	maxAttempts := remote.OnFailure.RetryAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	delay := time.Duration(remote.OnFailure.RetryDelaySeconds) * time.Second
	if delay <= 0 {
		delay = 30 * time.Second
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		logger.Warn("retrying transfer",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"delay", delay,
			"previous_error", err,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			logger.Info("retry cancelled (shutdown)", "attempt", attempt)
			return
		}

		startedAt := time.Now()
		result, execErr := d.executeSync(ctx, remote, s, event)
		if execErr != nil {
			err = execErr
			continue
		}
		d.recordTransfer(remote, event, result, startedAt, attempt)

		switch result.State {
		case executor.StateSuccess:
			logger.Info("retry succeeded", "attempt", attempt)
			d.recordLastState(remote.Name, executor.StateSuccess)
			return
		case syncer.StateAborted, syncer.StateSkipped:
			// Parked mid-retry; the cooldown clock owns the next attempt
			logger.Warn("retry aborted by trigger", "attempt", attempt, "trigger", result.AbortTrigger)
			d.recordLastState(remote.Name, result.State)
			return
		case executor.StateCancelled:
			logger.Info("retry cancelled (shutdown)", "attempt", attempt)
			return
		}
		err = fmt.Errorf("transfer failed: %s", result.Error)
	}

	logger.Error("transfer failed after all retries",
		"attempts", maxAttempts,
		"last_error", err,
	)
	d.recordLastState(remote.Name, executor.StateFailure)
}

// recordLastState tracks the last transfer state for a remote.
func (d *Daemon) recordLastState(remoteName, state string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastState[remoteName] = state
}

// recordTransfer stores a transfer record in the state DB.
func (d *Daemon) recordTransfer(remote *config.Remote, event trigger.Event, result *syncer.Result, startedAt time.Time, retryAttempt int) {
	if d.stateDB == nil || result.State == syncer.StateSkipped {
		return
	}

	output := security.ScrubOutput(result.Output)
	if len(output) > 10240 {
		output = output[:10240]
	}

	rec := state.TransferRecord{
		RemoteName:       remote.Name,
		TriggerType:      event.Type,
		State:            result.State,
		StartedAt:        startedAt,
		FinishedAt:       time.Now(),
		DurationMs:       time.Since(startedAt).Milliseconds(),
		RetryAttempt:     retryAttempt,
		AbortTrigger:     result.AbortTrigger,
		CooldownSeconds:  int64(result.Cooldown / time.Second),
		TransferredBytes: result.Stats.TransferredBytes,
		Error:            result.Error,
		Output:           output,
		DryRun:           remote.DryRun,
	}

	if _, err := d.stateDB.RecordTransfer(rec); err != nil {
		if d.logger != nil {
			d.logger.Warn("failed to record transfer", "remote", remote.Name, "error", err)
		}
	}
}

// initLastStateFromDB populates lastState from the state DB on startup.
func (d *Daemon) initLastStateFromDB() {
	if d.stateDB == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	records, err := d.stateDB.GetHistory("", "", 100)
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("could not load state from DB", "error", err)
		}
		return
	}

	// Records are ordered newest-first; only keep the most recent per remote
	for _, rec := range records {
		if _, ok := d.lastState[rec.RemoteName]; !ok {
			d.lastState[rec.RemoteName] = rec.State
		}
	}
}

// startHotReload watches the remotes directory for changes and reloads remotes.
func (d *Daemon) startHotReload(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		d.logger.Error("could not create remotes watcher", "error", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(d.remotesDir); err != nil {
		d.logger.Error("could not watch remotes directory", "error", err, "dir", d.remotesDir)
		return
	}

	d.logger.Info("hot-reload watcher started", "dir", d.remotesDir)

	// Debounce: wait 1 second after last event before reloading
	var debounceTimer *time.Timer
	debounceCh := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			ext := filepath.Ext(event.Name)
			if ext != ".yaml" && ext != ".yml" {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(1*time.Second, func() {
				select {
				case debounceCh <- struct{}{}:
				default:
				}
			})

		case <-debounceCh:
			d.logger.Info("reloading remotes (hot-reload)")
			d.reloadRemotes(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			d.logger.Error("remotes watcher error", "error", err)

		case <-ctx.Done():
			return
		}
	}
}

// reloadRemotes re-validates and reloads remotes from the remotes directory.
func (d *Daemon) reloadRemotes(ctx context.Context) {
	if err := security.ValidateDirectoryPermissions(d.remotesDir); err != nil {
		d.logger.Error("CRITICAL: remotes directory has unsafe permissions during reload", "error", err)
		return
	}

	remotes, err := config.LoadRemotesDir(d.remotesDir)
	if err != nil {
		d.logger.Error("failed to reload remotes", "error", err)
		return
	}

	newRemotes := make(map[string]*config.Remote)
	for _, remote := range remotes {
		if err := config.ValidateRemote(remote); err != nil {
			d.logger.Error("invalid remote definition during reload, skipping", "remote", remote.Name, "error", err)
			continue
		}
		newRemotes[remote.Name] = remote
	}

	d.mu.Lock()
	// Stop triggers for removed remotes
	for name, t := range d.triggers {
		if _, exists := newRemotes[name]; !exists {
			d.logger.Info("stopping trigger for removed remote", "remote", name)
			t.Stop()
			delete(d.triggers, name)
			delete(d.remotes, name)
			delete(d.syncers, name)
		}
	}

	for name, remote := range newRemotes {
		oldRemote, existed := d.remotes[name]
		d.remotes[name] = remote

		if !remote.Enabled {
			if t, ok := d.triggers[name]; ok {
				t.Stop()
				delete(d.triggers, name)
			}
			delete(d.syncers, name)
			continue
		}

		// If the remote is new or changed, rebuild its syncer and trigger.
		// A rebuilt syncer starts with fresh trigger tracking and no cooldown.
		needsRestart := !existed || oldRemote == nil
		if !needsRestart {
			needsRestart = oldRemote.Trigger.Type != remote.Trigger.Type ||
				oldRemote.Trigger.CronExpression != remote.Trigger.CronExpression ||
				oldRemote.Trigger.RunEvery != remote.Trigger.RunEvery ||
				oldRemote.Trigger.RunAt != remote.Trigger.RunAt ||
				oldRemote.Source.Path != remote.Source.Path ||
				oldRemote.Dest.Path != remote.Dest.Path ||
				!sliceEqual(oldRemote.Trigger.WatchPaths, remote.Trigger.WatchPaths) ||
				!sliceEqual(oldRemote.Trigger.OnEvents, remote.Trigger.OnEvents)
		}

		if needsRestart {
			if t, ok := d.triggers[name]; ok {
				t.Stop()
				delete(d.triggers, name)
			}

			if err := d.initSyncer(remote); err != nil {
				d.logger.Error("failed to rebuild syncer during reload", "remote", remote.Name, "error", err)
				continue
			}

			t, err := trigger.New(remote.Name, remote.Trigger, remote.Source.Path)
			if err != nil {
				d.logger.Error("failed to create trigger during reload", "remote", remote.Name, "error", err)
				continue
			}
			d.triggers[name] = t

			if wh, ok := t.(*trigger.Webhook); ok {
				d.webhooks[wh.ListenPath()] = wh
			}

			go func(t trigger.Trigger) {
				if err := t.Start(ctx, d.events); err != nil && err != context.Canceled {
					d.logger.Error("trigger error after reload", "remote", t.RemoteName(), "error", err)
				}
			}(t)

			d.logger.Info("reloaded trigger", "remote", name)
		}
	}
	d.mu.Unlock()

	d.logger.Info("remotes reloaded", "remotes_loaded", len(newRemotes))
}

// sliceEqual compares two string slices for equality.
func sliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (d *Daemon) shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, t := range d.triggers {
		t.Stop()
	}

	if d.stateDB != nil {
		d.stateDB.Close()
	}

	return nil
}

// RunRemote manually runs a single remote's transfer (for CLI use). dryRun
// forces rclone's --dry-run regardless of the remote's configuration.
func (d *Daemon) RunRemote(ctx context.Context, remoteName string, data map[string]any, dryRun bool) (*syncer.Result, error) {
	if err := d.loadConfig(); err != nil {
		return nil, err
	}

	d.logger = logging.NewLogger(d.config.Logging.Format, d.config.Daemon.LogLevel, os.Stdout)

	if err := d.loadRemotes(); err != nil {
		return nil, err
	}

	remote, ok := d.remotes[remoteName]
	if !ok {
		return nil, fmt.Errorf("remote not found: %s", remoteName)
	}
	if dryRun {
		remote.DryRun = true
	}

	s, err := syncer.New(remote, d.config, d.logger)
	if err != nil {
		return nil, err
	}

	timeout := defaultSyncWindow
	if remote.MaxTimeoutSeconds > 0 {
		timeout = time.Duration(remote.MaxTimeoutSeconds) * time.Second
	}
	syncCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if data == nil {
		data = map[string]any{}
	}
	result, err := s.Sync(syncCtx, data)
	if err != nil {
		return nil, err
	}

	startedAt := time.Now().Add(-result.Duration)
	event := trigger.Event{RemoteName: remoteName, Type: "manual", Timestamp: startedAt, Data: data}
	d.recordTransfer(remote, event, result, startedAt, 0)

	return result, nil
}
