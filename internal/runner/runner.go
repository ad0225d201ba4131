// Package runner orchestrates one experiment-generation run: scan the
// store, choose an idea, compute the next identifier, hand the task to the
// external assistant, verify the result and record the outcome. The runner
// holds no state between invocations; everything is re-derived from the
// filesystem.
package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"daylab/internal/assistant"
	"daylab/internal/config"
	"daylab/internal/experiment"
	"daylab/internal/ideas"
	"daylab/internal/llm"
	"daylab/internal/logger"
	"daylab/internal/prompt"
	"daylab/internal/runlog"
	"daylab/internal/verify"
)

// Phase names for the run lifecycle, used in logs.
const (
	PhaseIdle       = "idle"
	PhaseScanning   = "scanning"
	PhaseInvoking   = "invoking"
	PhaseVerifying  = "verifying"
	PhaseLogged     = "logged"
	PhaseTerminated = "terminated"
)

// Invoker is the assistant surface the runner needs. Satisfied by
// *assistant.Invoker.
type Invoker interface {
	Check() error
	Invoke(ctx context.Context, promptText, dir string) (*assistant.Result, error)
}

// Outcome summarizes one completed run.
type Outcome struct {
	RunID      string
	Identifier experiment.Identifier
	Idea       ideas.Idea
	Status     runlog.Status
	Detail     string
	Duration   time.Duration
	Path       string
}

// Runner executes single-shot experiment-generation runs.
type Runner struct {
	cfg       *config.Config
	store     *experiment.Store
	generator *ideas.Generator
	invoker   Invoker
	runLog    *runlog.Log
	logger    *log.Logger

	// Overridable for tests.
	now      func() time.Time
	newRunID func() string
	verifyFn func(dir string, grace time.Duration) verify.Result
}

// New wires a runner from configuration.
func New(cfg *config.Config) (*Runner, error) {
	mode, err := ideas.ParseMode(cfg.IdeaMode)
	if err != nil {
		return nil, err
	}
	if _, err := prompt.ParseLevel(cfg.ImplementationLevel); err != nil {
		return nil, err
	}

	catalog := ideas.DefaultCatalog()
	if cfg.IdeaCatalogPath != "" {
		catalog, err = ideas.LoadCatalog(cfg.IdeaCatalogPath)
		if err != nil {
			return nil, err
		}
	}

	opts := []ideas.Option{}
	if mode == ideas.ModeAI || mode == ideas.ModeStructuredAI {
		client, err := llm.NewClient(cfg.IdeaProvider, config.APIKeyFor(cfg.IdeaProvider), cfg.IdeaModel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ideas.WithClient(client))
	}

	return &Runner{
		cfg:       cfg,
		store:     experiment.NewStore(cfg.ExperimentsDir),
		generator: ideas.NewGenerator(mode, catalog, opts...),
		invoker:   assistant.NewInvoker(cfg.AssistantCommand, cfg.AssistantModel, cfg.AssistantMinVersion, cfg.AssistantTimeout),
		runLog:    runlog.New(cfg.RunLogPath),
		logger:    logger.NewStyledLogger("Runner"),
		now:       time.Now,
		newRunID:  func() string { return uuid.New().String() },
		verifyFn:  verify.RunScript,
	}, nil
}

// Store returns the experiments store.
func (r *Runner) Store() *experiment.Store {
	return r.store
}

// RunLog returns the run log.
func (r *Runner) RunLog() *runlog.Log {
	return r.runLog
}

// Run performs exactly one experiment-generation attempt. The returned
// Outcome is always non-nil and a run-log entry is always appended; the
// error is non-nil whenever the run did not end in success, so failures are
// never silent.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	start := r.now()
	outcome := &Outcome{RunID: r.newRunID(), Status: runlog.StatusFailed}

	err := r.run(ctx, outcome)
	outcome.Duration = r.now().Sub(start)
	if err != nil {
		outcome.Detail = err.Error()
		r.logger.Error("Run failed", "run_id", outcome.RunID, "error", err)
	}

	if logErr := r.appendLogEntry(outcome, start); logErr != nil {
		// A run that cannot be recorded is a failure in its own right.
		r.logger.Error("Failed to append run log entry", "error", logErr)
		if err == nil {
			err = logErr
		}
	}
	logger.Phase(PhaseTerminated, "run_id", outcome.RunID, "status", outcome.Status)

	return outcome, err
}

func (r *Runner) run(ctx context.Context, outcome *Outcome) error {
	logger.Phase(PhaseScanning, "run_id", outcome.RunID)

	idea, err := r.generator.Next(ctx)
	if err != nil {
		return fmt.Errorf("idea generation failed: %w", err)
	}
	outcome.Idea = idea

	id, err := r.store.NextIdentifier(r.cfg.NamingScheme, experiment.Slugify(idea.Text), r.now())
	if err != nil {
		return err
	}
	outcome.Identifier = id

	r.logger.Info("Starting experiment", "experiment", id.DirName(), "idea", idea.Text)

	if err := r.invoker.Check(); err != nil {
		return err
	}

	dir, err := r.store.Create(id)
	if err != nil {
		return err
	}
	outcome.Path = dir

	absDir, absErr := filepath.Abs(dir)
	if absErr != nil {
		absDir = dir
	}

	level := prompt.Level(r.cfg.ImplementationLevel)
	task := prompt.Build(idea.Text, level, absDir)

	var result *assistant.Result
	var invokeErr error
	verified := false
	detail := ""

	attempts := 1
	if r.cfg.RetryOnFailure {
		attempts = 2
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			r.logger.Warn("Retrying after failed attempt", "experiment", id.DirName(), "error", err)
			task = prompt.BuildRetry(err.Error(), idea.Text, level, absDir)
		}

		logger.Phase(PhaseInvoking, "run_id", outcome.RunID, "experiment", id.DirName(), "attempt", attempt)
		result, invokeErr = r.invoker.Invoke(ctx, task, absDir)

		if result != nil && result.Output != "" {
			if saveErr := saveAssistantOutput(dir, result.Output); saveErr != nil {
				r.logger.Warn("Could not save assistant output", "error", saveErr)
			}
		}

		err = nil
		switch {
		case invokeErr != nil:
			err = invokeErr
		case !r.store.IsPopulated(id):
			err = fmt.Errorf("assistant produced no files in %s", id.DirName())
		case r.cfg.SkipVerify:
			verified = true
			detail = "verification skipped"
		default:
			logger.Phase(PhaseVerifying, "run_id", outcome.RunID, "experiment", id.DirName())
			vr := r.verifyFn(dir, r.cfg.VerifyGrace)
			verified = vr.OK
			detail = vr.Detail
			if !vr.OK {
				err = fmt.Errorf("verification failed: %s", vr.Detail)
			}
		}

		// Retry only when the assistant ran but its output did not hold
		// up; invocation errors (missing binary, timeout) would just repeat.
		if err == nil || invokeErr != nil {
			break
		}
	}

	meta := Metadata{
		RunID:       outcome.RunID,
		Identifier:  id.DirName(),
		Idea:        idea,
		Level:       r.cfg.ImplementationLevel,
		Timestamp:   r.now(),
		Verified:    verified,
		Detail:      detail,
		Environment: relevantEnvVars(),
	}
	if result != nil {
		meta.Duration = result.Duration
		meta.ExitCode = result.ExitCode
	}
	if metaErr := saveMetadata(dir, meta); metaErr != nil {
		r.logger.Warn("Could not save metadata", "error", metaErr)
	}

	if err != nil {
		return err
	}

	outcome.Status = runlog.StatusSuccess
	outcome.Detail = detail
	r.logger.Info("Experiment created", "experiment", id.DirName(), "detail", detail)
	return nil
}

func (r *Runner) appendLogEntry(outcome *Outcome, start time.Time) error {
	entry := runlog.Entry{
		RunID:     outcome.RunID,
		Timestamp: start,
		Slug:      outcome.Identifier.Slug,
		Idea:      outcome.Idea.Text,
		Status:    outcome.Status,
		Detail:    outcome.Detail,
		Duration:  outcome.Duration,
	}
	if outcome.Identifier != (experiment.Identifier{}) {
		entry.Identifier = outcome.Identifier.DirName()
	}
	if err := r.runLog.Append(entry); err != nil {
		return err
	}
	logger.Phase(PhaseLogged, "run_id", outcome.RunID)
	return nil
}

// RunForever runs once immediately and then on every interval tick, until
// the context is canceled. Failed runs are logged and do not stop the loop;
// the next attempt happens at the next interval.
func (r *Runner) RunForever(ctx context.Context, interval time.Duration) error {
	r.logger.Info("Starting daemon loop", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.Run(ctx); err != nil {
			r.logger.Error("Run failed, waiting for next interval", "error", err)
		}

		select {
		case <-ctx.Done():
			r.logger.Info("Daemon loop stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
