// Package main provides the daylab CLI application entry point.
// daylab is a daily AI-experiment runner: it hands a small self-contained
// coding task to an external AI assistant, verifies the result and keeps an
// append-only log of every attempt.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"daylab/internal/assistant"
	"daylab/internal/config"
	"daylab/internal/logger"
	"daylab/internal/output"
	"daylab/internal/runlog"
	"daylab/internal/runner"
	"daylab/internal/version"
)

var (
	logLevel   string
	logFile    string
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "daylab",
	Short: "daylab - daily AI experiment runner",
	Long: `daylab generates one small coding experiment per run: it picks an idea,
computes the next experiment directory name, asks an external AI coding
assistant to build it, verifies the result and records the outcome in an
append-only run log.`,
	RunE: runOnce, // Default behavior is a single experiment run
}

// runCmd represents the run command (explicit version of default behavior)
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate one experiment",
	Long:  `Perform a single experiment-generation run and exit.`,
	RunE:  runOnce,
}

// daemonCmd runs experiment generation on a fixed interval
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run experiment generation on an interval",
	Long: `Run one experiment immediately and then another on every interval tick,
until interrupted. Failed runs are logged and do not stop the loop.`,
	RunE: runDaemon,
}

// listCmd lists the experiments found on disk
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List existing experiments",
	RunE:  runList,
}

// logCmd shows recent run-log entries
var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent run log entries",
	RunE:  runLog,
}

// showCmd renders an experiment's README
var showCmd = &cobra.Command{
	Use:   "show <experiment>",
	Short: "Show an experiment's README",
	Long:  `Render the README.md of an experiment directory, e.g. 'daylab show day_3_cli_tool'.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

// doctorCmd checks that the environment is ready for a run
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check assistant availability and configuration",
	RunE:  runDoctor,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version.Get().String())
	},
}

var logTail int

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file [default: ~/.daylab/config.yaml]")

	logCmd.Flags().IntVarP(&logTail, "tail", "n", 10, "Number of entries to show")

	// Bind flags to viper
	if err := viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-level flag: %v\n", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-file flag: %v\n", err)
		os.Exit(1)
	}

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)

	// Configure logger before any command execution
	cobra.OnInitialize(initLogging)
}

func initLogging() {
	if err := logger.Configure(logLevel, logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runOnce(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	r, err := runner.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	printer := output.NewPrinter()
	outcome, err := r.Run(ctx)
	if err != nil {
		printer.Error(fmt.Sprintf("Run %s failed: %v", outcome.RunID, err))
		return err
	}

	printer.Success(fmt.Sprintf("Created %s", outcome.Identifier.DirName()))
	printer.Info(fmt.Sprintf("Idea: %s", outcome.Idea.Text))
	printer.Info(fmt.Sprintf("Path: %s", outcome.Path))
	if outcome.Detail != "" {
		printer.Info(outcome.Detail)
	}
	return nil
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	r, err := runner.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	if err := r.RunForever(ctx, cfg.DaemonInterval); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	r, err := runner.New(cfg)
	if err != nil {
		return err
	}

	records, err := r.Store().Scan()
	if err != nil {
		return err
	}

	printer := output.NewPrinter()
	if len(records) == 0 {
		printer.Info(fmt.Sprintf("No experiments found in %s", cfg.ExperimentsDir))
		return nil
	}

	printer.Heading(fmt.Sprintf("%d experiments in %s", len(records), cfg.ExperimentsDir))
	for _, rec := range records {
		printer.Println(fmt.Sprintf("  %s  %s", rec.ModTime.Format("2006-01-02 15:04"), rec.Name))
	}
	return nil
}

func runLog(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	entries, err := runlog.New(cfg.RunLogPath).Tail(logTail)
	if err != nil {
		return err
	}

	printer := output.NewPrinter()
	if len(entries) == 0 {
		printer.Info("Run log is empty")
		return nil
	}

	for _, entry := range entries {
		marker := "ok  "
		if entry.Status == runlog.StatusFailed {
			marker = "fail"
		}
		name := entry.Identifier
		if name == "" {
			name = "-"
		}
		line := fmt.Sprintf("%s  %s  %-30s  %s",
			entry.Timestamp.Format("2006-01-02 15:04"), marker, name, entry.Idea)
		if entry.Status == runlog.StatusFailed {
			printer.Error(line)
			if entry.Detail != "" {
				printer.Dim(fmt.Sprintf("      %s", entry.Detail))
			}
		} else {
			printer.Println(line)
		}
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	readme := filepath.Join(cfg.ExperimentsDir, args[0], "README.md")
	data, err := os.ReadFile(readme)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", readme, err)
	}

	rendered, err := output.RenderMarkdown(string(data))
	if err != nil {
		return err
	}
	fmt.Print(rendered)
	return nil
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	printer := output.NewPrinter()
	printer.Heading(version.Get().String())

	cfg, err := loadConfig()
	if err != nil {
		printer.Error(fmt.Sprintf("Configuration: %v", err))
		return err
	}
	printer.Success(fmt.Sprintf("Configuration loaded (experiments dir: %s)", cfg.ExperimentsDir))

	invoker := assistant.NewInvoker(cfg.AssistantCommand, cfg.AssistantModel, cfg.AssistantMinVersion, cfg.AssistantTimeout)
	if err := invoker.Check(); err != nil {
		printer.Error(fmt.Sprintf("Assistant: %v", err))
		return err
	}
	printer.Success(fmt.Sprintf("Assistant command %q is available", cfg.AssistantCommand))

	switch cfg.IdeaMode {
	case "ai", "structured_ai":
		if config.APIKeyFor(cfg.IdeaProvider) == "" {
			printer.Warning(fmt.Sprintf("Idea mode %q configured but no API key set for provider %q; will fall back to catalog ideas", cfg.IdeaMode, cfg.IdeaProvider))
		} else {
			printer.Success(fmt.Sprintf("Idea provider %q has an API key", cfg.IdeaProvider))
		}
	default:
		printer.Info(fmt.Sprintf("Idea mode %q uses the built-in catalog", cfg.IdeaMode))
	}

	printer.Success("Everything looks ready")
	return nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
