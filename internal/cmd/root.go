package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/evfalk/refund-helper/claims/api"
	. "github.com/evfalk/refund-helper/internal/cmd/globals"
	"github.com/evfalk/refund-helper/internal/cmd/scan"
	"github.com/evfalk/refund-helper/internal/tui"
	"github.com/evfalk/refund-helper/profile"
)

var (
	rootCmd = cobra.Command{
		Use:               "refund-helper",
		Version:           "devel",
		Short:             "Track a transit ticket and submit train delay refund claims from the terminal",
		PersistentPreRunE: preRun,
		RunE:              run,
	}

	verbose     *bool
	profilePath *string
	serverURL   *string
	logFile     *string
)

func init() {
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		rootCmd.Version = buildInfo.Main.Version
	}

	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enables logging of debug level logs by the utility")
	profilePath = rootCmd.PersistentFlags().StringP("profile", "p", "", "Specifies the profile file holding ticket holders and ticket details (.json, .yaml, or .yml)")
	serverURL = rootCmd.PersistentFlags().StringP("server", "s", "", "Specifies the refund backend base URL (also REFUND_HELPER_SERVER)")
	logFile = rootCmd.PersistentFlags().String("log-file", "", "Writes logs to the given file instead of stderr (recommended while the UI is open)")

	rootCmd.AddCommand(scan.ScanCmd)
}

func preRun(_ *cobra.Command, _ []string) error {
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if len(*logFile) > 0 {
		dst, err := os.OpenFile(*logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}

		Logger = zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = dst
			w.NoColor = true
			w.TimeFormat = time.RFC3339
		})).With().Timestamp().Logger()
	}

	path := *profilePath
	if len(path) == 0 {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("locate home directory for profile: %w", err)
		}

		path = filepath.Join(home, ".refund-helper", "profile.json")
	}

	server := *serverURL
	if len(server) == 0 {
		server = os.Getenv("REFUND_HELPER_SERVER")
	}

	Store = profile.NewFileStore(path)
	Client = api.NewClient(server)

	return nil
}

func run(cmd *cobra.Command, _ []string) error {
	Logger.Info().Msg("Loading profile")
	state, err := Store.Load()
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	model := tui.NewModel(tui.Config{
		Store:   Store,
		Client:  Client,
		Logger:  Logger,
		Initial: state,
	})

	// When logs still go to stderr they would tear the alternate
	// screen, so silence everything below errors for the UI's lifetime
	if len(*logFile) == 0 && !*verbose {
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	}

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}

	return nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		Logger.Fatal().Err(err).Msg("Utility encountered a fatal error")
	}
}
