package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mlefebre/askdesk/internal/api"
	"github.com/mlefebre/askdesk/internal/config"
	"github.com/mlefebre/askdesk/internal/logging"
	"github.com/mlefebre/askdesk/internal/session"
	"github.com/mlefebre/askdesk/internal/tui"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		endpoint    string
		logFile     string
		noAltScreen bool
	)

	cmd := &cobra.Command{
		Use:   "askdesk",
		Short: "Terminal client for the questionnaire assistant",
		Long:  "AskDesk chats with the questionnaire-answering backend, uploads Excel/CSV questionnaires, and submits answer corrections.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if endpoint != "" {
				cfg.Backend.BaseURL = endpoint
			}
			if logFile != "" {
				cfg.Log.File = logFile
			}

			log := logging.Init(cfg.Log.Level, cfg.Log.File)
			client := api.NewHTTPClient(api.Config{
				BaseURL: cfg.Backend.BaseURL,
				Timeout: cfg.Backend.Timeout,
				Logger:  log,
			})
			coordinator := session.NewCoordinator(client, session.WithLogger(log))

			opts := []tea.ProgramOption{}
			if !noAltScreen {
				opts = append(opts, tea.WithAltScreen())
			}
			program := tea.NewProgram(
				tui.New(tui.Config{
					Coordinator:  coordinator,
					DownloadsDir: cfg.Downloads.Dir,
				}),
				opts...,
			)
			log.WithField("backend", cfg.Backend.BaseURL).Info("starting askdesk")
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("program error: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file (default ~/.askdesk.yaml)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "backend base URL (overrides config)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "debug log destination (overrides config)")
	cmd.Flags().BoolVar(&noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "askdesk %s (commit: %s)\n", Version, Commit)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
