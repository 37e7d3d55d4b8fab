package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ayushimehta23/nextwave-tui/internal/api"
	"github.com/ayushimehta23/nextwave-tui/internal/config"
	"github.com/ayushimehta23/nextwave-tui/internal/logging"
	"github.com/ayushimehta23/nextwave-tui/internal/session"
	"github.com/ayushimehta23/nextwave-tui/internal/state"
	"github.com/ayushimehta23/nextwave-tui/internal/ui"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("nextwave %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	dataDir, err := session.DataDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error locating data directory: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(filepath.Join(dataDir, "config.yaml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(dataDir, "nextwave.log")
	}

	logger, err := logging.New(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sessions, err := session.Open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening session storage: %v\n", err)
		os.Exit(1)
	}
	defer sessions.Close()

	client := api.NewClient(cfg.API.BaseURL, cfg.Timeout(), logger)
	store := state.New(client, logger)

	// Reuse a persisted token unless it has already expired.
	if token, err := sessions.Token(); err == nil && session.TokenUsable(token, time.Now()) {
		store.RestoreSession(token)
	}

	app := ui.NewApp(store, sessions, logger)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		os.Exit(1)
	}
}
