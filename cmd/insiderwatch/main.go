// insiderwatch — SEC Form 4 insider-trading monitor
//
// Main CLI entrypoint using cobra command framework. The monitor is a batch
// job: an external scheduler invokes `insiderwatch run` periodically, and a
// non-zero exit reports a fatal run.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/insiderwatch/internal/config"
	"github.com/seenimoa/insiderwatch/internal/edgar"
	"github.com/seenimoa/insiderwatch/internal/logging"
	"github.com/seenimoa/insiderwatch/internal/monitor"
	"github.com/seenimoa/insiderwatch/internal/notify"
	"github.com/seenimoa/insiderwatch/internal/screener"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "insiderwatch",
	Short: "insiderwatch — SEC Form 4 insider-trading monitor",
	Long: `insiderwatch ingests SEC Form 4 insider-trading disclosures from the
EDGAR full-index archive (one-time backfill) and the EDGAR Atom feed
(recurring poll), deduplicates them across runs, appends structured trade
records to a local log, and sends mail alerts for filings matching the
configured rule.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(screenerCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("insiderwatch %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Run Command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one monitor invocation (backfill if needed, then live poll)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		defer logger.Sync()

		client := edgar.NewClient(cfg.Edgar.UserAgent,
			time.Duration(cfg.Monitor.RequestDelayMs)*time.Millisecond)
		store := monitor.NewStateStore(cfg.Monitor.StatePath)
		filingLog := monitor.NewFilingLog(cfg.Monitor.LogPath)

		var notifier monitor.Notifier
		if cfg.Notify.Enabled {
			notifier = notify.NewMailer(cfg.Notify)
		}

		m, err := monitor.New(cfg, client, store, filingLog, notifier, logger)
		if err != nil {
			return err
		}
		return m.Run(context.Background())
	},
}

// --- Screener Command (legacy) ---

var screenerCmd = &cobra.Command{
	Use:   "screener",
	Short: "Run one pass of the legacy OpenInsider CSV watcher (deprecated)",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		defer logger.Sync()

		w := screener.NewWatcher(cfg.Screener, logger)
		res, err := w.Run(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("rows read: %d | new: %d\n", res.RowsRead, res.NewRows)
		return nil
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and persisted state summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  insiderwatch — Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Feed URL:       %s\n", orUnset(cfg.Edgar.FeedURL))
		fmt.Printf("    User-Agent:     %s\n", orUnset(cfg.Edgar.UserAgent))
		fmt.Printf("    State file:     %s\n", cfg.Monitor.StatePath)
		fmt.Printf("    Filing log:     %s\n", cfg.Monitor.LogPath)
		fmt.Printf("    Seen policy:    %s\n", cfg.Monitor.SeenPolicy)
		fmt.Printf("    Alerting:       %v (code=%s, min=$%.2f)\n",
			cfg.Alert.Enabled, cfg.Alert.TransactionCode, cfg.Alert.MinValueUSD)
		fmt.Printf("    Notifications:  %v\n", cfg.Notify.Enabled)
		fmt.Println()

		fmt.Println("  Credentials:")
		for _, k := range config.CheckCredentials(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-15s %s\n", k.Name+":", status)
		}
		fmt.Println()

		st, err := monitor.NewStateStore(cfg.Monitor.StatePath).Load()
		if err != nil {
			return err
		}
		fmt.Println("  State:")
		fmt.Printf("    Bootstrap done:  %v\n", st.BootstrapDone)
		if st.BootstrapCompletedAt != nil {
			fmt.Printf("    Completed at:    %s\n", st.BootstrapCompletedAt.Format(time.RFC3339))
		}
		if st.BootstrapError != "" {
			fmt.Printf("    Bootstrap error: %s\n", st.BootstrapError)
		}
		fmt.Printf("    History seen:    %d filenames\n", len(st.HistorySeenFilenames))
		fmt.Printf("    Live seen:       %d feed ids\n", len(st.SeenLiveIDs))
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
