// cmd/uplift/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/upliftd/uplift/internal/config"
	"github.com/upliftd/uplift/internal/daemon"
	"github.com/upliftd/uplift/internal/executor"
	"github.com/upliftd/uplift/internal/rclone"
	"github.com/upliftd/uplift/internal/state"
	"github.com/upliftd/uplift/internal/syncer"
	"github.com/upliftd/uplift/internal/template"
)

const (
	defaultConfigDir = "/etc/uplift"
	defaultLogsDir   = "/var/log/uplift"
	defaultStateDB   = "/var/lib/uplift/history.db"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "init":
		err = cmdInit()
	case "status":
		err = cmdStatus()
	case "list":
		err = cmdList()
	case "validate":
		err = cmdValidate(args)
	case "run":
		err = cmdRun(args)
	case "rm":
		err = cmdRemove(args)
	case "history":
		err = cmdHistory(args)
	case "logs":
		err = cmdLogs(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`uplift - rclone offload daemon

Usage: uplift <command> [options]

Commands:
  init              Initialize configuration directories
  status            Show daemon status
  list              List all remotes
  validate [name]   Validate remote definitions
  run <name>        Manually run a remote's transfer
  rm <name> <path>  Delete a file or folder from a remote's destination
  history [name]    Show transfer history
  logs              View daemon logs`)
}

func configPath() string {
	if p := os.Getenv("UPLIFT_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(defaultConfigDir, "config.yaml")
}

func remotesDir() string {
	if p := os.Getenv("UPLIFT_REMOTES_DIR"); p != "" {
		return p
	}
	return filepath.Join(defaultConfigDir, "remotes")
}

func cmdInit() error {
	dirs := []string{
		defaultConfigDir,
		remotesDir(),
		defaultLogsDir,
		filepath.Dir(defaultStateDB),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
		fmt.Printf("Created %s\n", dir)
	}

	// Remote definitions may embed webhook secrets; lock the directory down
	if err := os.Chmod(remotesDir(), 0700); err != nil {
		return fmt.Errorf("setting remotes directory permissions: %w", err)
	}

	path := configPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		defaultConfig := config.Global{
			Daemon: config.DaemonConfig{
				LogLevel:      "info",
				ListenPort:    9811,
				ListenAddress: "127.0.0.1",
			},
			Logging: config.LoggingConfig{
				Format: "json",
				Debug:  false,
			},
			Sync: config.SyncConfig{
				MaxConcurrent:    2,
				HistoryRetention: 90,
			},
			RcloneDefaults: config.RcloneConfig{
				Binary: "rclone",
			},
		}

		data, err := yaml.Marshal(defaultConfig)
		if err != nil {
			return err
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}
		fmt.Printf("Created %s\n", path)
	}

	fmt.Println("\nInitialization complete. Add remote definitions to:", remotesDir())
	return nil
}

func cmdStatus() error {
	cfg, err := config.LoadGlobal(configPath())
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s:%d/health", cfg.Daemon.ListenAddress, cfg.Daemon.ListenPort)
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Println("Daemon is not running")
		return nil
	}
	defer resp.Body.Close()

	var health struct {
		Status         string `json:"status"`
		Uptime         string `json:"uptime"`
		RemotesLoaded  int    `json:"remotes_loaded"`
		RemotesEnabled int    `json:"remotes_enabled"`
		InCooldown     int    `json:"in_cooldown"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decoding health response: %w", err)
	}

	fmt.Printf("Daemon is running (uptime %s)\n", health.Uptime)
	fmt.Printf("Remotes: %d loaded, %d enabled, %d in cooldown\n",
		health.RemotesLoaded, health.RemotesEnabled, health.InCooldown)
	return nil
}

func cmdList() error {
	remotes, err := config.LoadRemotesDir(remotesDir())
	if err != nil {
		return err
	}

	if len(remotes) == 0 {
		fmt.Println("No remotes found")
		return nil
	}

	fmt.Printf("%-20s %-10s %-12s %-30s %s\n", "NAME", "ENABLED", "TRIGGER", "SOURCE", "DESCRIPTION")
	fmt.Println(strings.Repeat("-", 90))

	for _, remote := range remotes {
		enabled := "yes"
		if !remote.Enabled {
			enabled = "no"
		}
		desc := remote.Description
		if len(desc) > 30 {
			desc = desc[:27] + "..."
		}
		source := remote.Source.Path
		if len(source) > 30 {
			source = "..." + source[len(source)-27:]
		}
		fmt.Printf("%-20s %-10s %-12s %-30s %s\n", remote.Name, enabled, remote.Trigger.Type, source, desc)
	}

	return nil
}

func cmdValidate(args []string) error {
	dir := remotesDir()

	if len(args) > 0 {
		remotePath := filepath.Join(dir, args[0]+".yaml")
		remote, err := config.LoadRemote(remotePath)
		if err != nil {
			return fmt.Errorf("invalid remote %s: %w", args[0], err)
		}
		if err := config.ValidateRemote(remote); err != nil {
			return fmt.Errorf("invalid remote %s: %w", args[0], err)
		}
		fmt.Printf("Remote '%s' is valid\n", args[0])
		return nil
	}

	remotes, err := config.LoadRemotesDir(dir)
	if err != nil {
		return err
	}
	for _, remote := range remotes {
		if err := config.ValidateRemote(remote); err != nil {
			return fmt.Errorf("invalid remote %s: %w", remote.Name, err)
		}
	}

	fmt.Printf("Validated %d remotes\n", len(remotes))
	return nil
}

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "show what would be transferred without moving files")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: uplift run [--dry-run] <remote-name>")
	}
	remoteName := fs.Arg(0)

	d := daemon.New(configPath(), remotesDir())

	result, err := d.RunRemote(context.Background(), remoteName, map[string]any{}, *dryRun)
	if err != nil {
		return err
	}

	switch result.State {
	case executor.StateSuccess:
		fmt.Printf("Transfer complete: %s moved in %s\n",
			humanize.Bytes(result.Stats.TransferredBytes),
			result.Duration.Truncate(time.Second),
		)
	case syncer.StateAborted:
		fmt.Printf("Transfer aborted by trigger %q, cooling down for %s\n",
			result.AbortTrigger, result.Cooldown)
	case syncer.StateSkipped:
		fmt.Printf("Transfer skipped: remote is in cooldown for another %s\n",
			result.Cooldown.Truncate(time.Second))
	default:
		return fmt.Errorf("transfer %s: %s", result.State, result.Error)
	}
	return nil
}

func cmdRemove(args []string) error {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	dir := fs.Bool("dir", false, "remove a directory instead of a file")
	dryRun := fs.Bool("dry-run", false, "show what would be deleted without deleting")
	fs.Parse(args)

	if fs.NArg() < 2 {
		return fmt.Errorf("usage: uplift rm [--dir] [--dry-run] <remote-name> <path>")
	}
	remoteName := fs.Arg(0)
	target := fs.Arg(1)

	global, err := config.LoadGlobal(configPath())
	if err != nil {
		return err
	}
	def, err := config.LoadRemote(filepath.Join(remotesDir(), remoteName+".yaml"))
	if err != nil {
		return err
	}

	rcloneCfg := config.MergeRclone(global.RcloneDefaults, def.Rclone)
	if *dryRun {
		rcloneCfg.DryRun = true
	}

	dest := template.Expand(def.Dest.Path, template.PathData(remoteName, time.Now(), nil))
	fullPath := strings.TrimSuffix(dest, "/") + "/" + strings.TrimPrefix(target, "/")
	r := rclone.NewRemote(remoteName, rcloneCfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if *dir {
		if err := r.DeleteFolder(ctx, fullPath); err != nil {
			return err
		}
	} else {
		if err := r.DeleteFile(ctx, fullPath); err != nil {
			return err
		}
	}

	fmt.Printf("Deleted %s\n", fullPath)
	return nil
}

func cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("n", 20, "number of records to show")
	stateFilter := fs.String("state", "", "filter by state (success, failure, aborted, ...)")
	fs.Parse(args)

	remoteName := ""
	if fs.NArg() > 0 {
		remoteName = fs.Arg(0)
	}

	dbPath := defaultStateDB
	if p := os.Getenv("UPLIFT_STATE_DB"); p != "" {
		dbPath = p
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.GetHistory(remoteName, *stateFilter, *limit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No transfer history")
		return nil
	}

	fmt.Printf("%-20s %-10s %-10s %-12s %-10s %s\n", "REMOTE", "TRIGGER", "STATE", "TRANSFERRED", "DURATION", "STARTED")
	fmt.Println(strings.Repeat("-", 90))
	for _, rec := range records {
		stateCol := rec.State
		if rec.State == "aborted" && rec.AbortTrigger != "" {
			stateCol = "aborted*"
		}
		fmt.Printf("%-20s %-10s %-10s %-12s %-10s %s\n",
			rec.RemoteName,
			rec.TriggerType,
			stateCol,
			humanize.Bytes(rec.TransferredBytes),
			(time.Duration(rec.DurationMs) * time.Millisecond).Truncate(time.Second),
			rec.StartedAt.Local().Format("2006-01-02 15:04"),
		)
	}

	if remoteName != "" {
		summary, err := db.Summarize(remoteName)
		if err == nil && summary.Transfers > 0 {
			fmt.Printf("\n%d transfers, %d aborts, %d failures, %s moved total\n",
				summary.Transfers, summary.Aborts, summary.Failures,
				humanize.Bytes(summary.TransferredBytes))
		}
	}
	return nil
}

func cmdLogs(args []string) error {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	follow := fs.Bool("f", false, "follow logs")
	fs.BoolVar(follow, "follow", false, "follow logs")
	fs.Parse(args)

	logPath := filepath.Join(defaultLogsDir, "upliftd.log")
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logPath)
	}

	tailArgs := []string{"-n", "50"}
	if *follow {
		tailArgs = append(tailArgs, "-f")
	}
	tailArgs = append(tailArgs, logPath)

	cmd := exec.Command("tail", tailArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
