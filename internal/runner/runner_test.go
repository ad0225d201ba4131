package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daylab/internal/assistant"
	"daylab/internal/config"
	"daylab/internal/runlog"
	"daylab/internal/verify"
)

// fakeInvoker implements Invoker. populate controls whether it drops files
// into the target directory, as a well-behaved assistant would;
// populateFrom delays that until the Nth call to exercise retries.
type fakeInvoker struct {
	checkErr     error
	invokeErr    error
	populate     bool
	populateFrom int
	output       string
	calls        int
	lastDir      string
}

func (f *fakeInvoker) Check() error { return f.checkErr }

func (f *fakeInvoker) Invoke(_ context.Context, _ string, dir string) (*assistant.Result, error) {
	f.calls++
	f.lastDir = dir
	if f.populate || (f.populateFrom > 0 && f.calls >= f.populateFrom) {
		script := "#!/bin/bash\necho experiment\n"
		if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Experiment\n"), 0644); err != nil {
			return nil, err
		}
	}
	result := &assistant.Result{Output: f.output, Duration: time.Second}
	if f.invokeErr != nil {
		result.ExitCode = 1
		return result, f.invokeErr
	}
	return result, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		ExperimentsDir:      filepath.Join(dir, "experiments"),
		RunLogPath:          filepath.Join(dir, "experiments", "runs.jsonl"),
		NamingScheme:        config.SchemeDay,
		AssistantCommand:    "claude",
		AssistantMinVersion: "1.0.0",
		AssistantTimeout:    time.Minute,
		IdeaMode:            "random",
		ImplementationLevel: "mvp",
		VerifyGrace:         time.Second,
		DaemonInterval:      24 * time.Hour,
	}
}

func newTestRunner(t *testing.T, cfg *config.Config, invoker Invoker) *Runner {
	t.Helper()
	r, err := New(cfg)
	require.NoError(t, err)
	r.invoker = invoker
	r.verifyFn = func(string, time.Duration) verify.Result {
		return verify.Result{OK: true, Detail: "run.sh executed successfully"}
	}
	counter := 0
	r.newRunID = func() string {
		counter++
		return fmt.Sprintf("test-run-%d", counter)
	}
	return r
}

func TestRunSuccess(t *testing.T) {
	cfg := testConfig(t)
	invoker := &fakeInvoker{populate: true, output: "built it"}
	r := newTestRunner(t, cfg, invoker)

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, runlog.StatusSuccess, outcome.Status)
	assert.Equal(t, 1, outcome.Identifier.Day)
	assert.True(t, strings.HasPrefix(outcome.Identifier.DirName(), "day_1_"))
	assert.DirExists(t, outcome.Path)
	assert.Equal(t, outcome.Path, invoker.lastDir)
	assert.FileExists(t, filepath.Join(outcome.Path, "run.sh"))
	assert.FileExists(t, filepath.Join(outcome.Path, "claude_output.txt"))
	assert.FileExists(t, filepath.Join(outcome.Path, "metadata.json"))

	entries, err := r.RunLog().Read()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, runlog.StatusSuccess, entries[0].Status)
	assert.Equal(t, outcome.Identifier.DirName(), entries[0].Identifier)
	assert.Equal(t, "test-run-1", entries[0].RunID)
}

func TestRunAssistantFailure(t *testing.T) {
	cfg := testConfig(t)
	invoker := &fakeInvoker{
		invokeErr: &assistant.Error{Kind: assistant.KindExit, Err: fmt.Errorf("exit status 1")},
	}
	r := newTestRunner(t, cfg, invoker)

	outcome, err := r.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, runlog.StatusFailed, outcome.Status)
	assert.Contains(t, outcome.Detail, "exit status 1")

	// Exactly one failed entry, never a silent loss.
	entries, readErr := r.RunLog().Read()
	require.NoError(t, readErr)
	require.Len(t, entries, 1)
	assert.Equal(t, runlog.StatusFailed, entries[0].Status)
}

func TestRunEmptyDirectoryIsFailure(t *testing.T) {
	cfg := testConfig(t)
	// Assistant claims success but writes nothing.
	invoker := &fakeInvoker{populate: false}
	r := newTestRunner(t, cfg, invoker)

	outcome, err := r.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, runlog.StatusFailed, outcome.Status)
	assert.Contains(t, outcome.Detail, "no files")
}

func TestRunCheckFailureCreatesNoDirectory(t *testing.T) {
	cfg := testConfig(t)
	invoker := &fakeInvoker{
		checkErr: &assistant.Error{Kind: assistant.KindNotInstalled, Err: fmt.Errorf("not found")},
	}
	r := newTestRunner(t, cfg, invoker)

	_, err := r.Run(context.Background())
	require.Error(t, err)

	// Nothing was created; the store scan is still empty.
	records, scanErr := r.Store().Scan()
	require.NoError(t, scanErr)
	assert.Empty(t, records)
	assert.Equal(t, 0, invoker.calls)

	entries, readErr := r.RunLog().Read()
	require.NoError(t, readErr)
	require.Len(t, entries, 1)
	assert.Equal(t, runlog.StatusFailed, entries[0].Status)
}

func TestRunVerificationFailure(t *testing.T) {
	cfg := testConfig(t)
	invoker := &fakeInvoker{populate: true}
	r := newTestRunner(t, cfg, invoker)
	r.verifyFn = func(string, time.Duration) verify.Result {
		return verify.Result{OK: false, Detail: "run.sh failed: exit status 2"}
	}

	outcome, err := r.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, runlog.StatusFailed, outcome.Status)
	assert.Contains(t, outcome.Detail, "verification failed")

	entries, readErr := r.RunLog().Read()
	require.NoError(t, readErr)
	require.Len(t, entries, 1)
	assert.Equal(t, runlog.StatusFailed, entries[0].Status)
}

func TestRunSkipVerify(t *testing.T) {
	cfg := testConfig(t)
	cfg.SkipVerify = true
	invoker := &fakeInvoker{populate: true}
	r := newTestRunner(t, cfg, invoker)
	r.verifyFn = func(string, time.Duration) verify.Result {
		t.Fatal("verify must not be called when skipped")
		return verify.Result{}
	}

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runlog.StatusSuccess, outcome.Status)
	assert.Equal(t, "verification skipped", outcome.Detail)
}

func TestSequentialRunsIncrementIdentifier(t *testing.T) {
	cfg := testConfig(t)
	invoker := &fakeInvoker{populate: true}
	r := newTestRunner(t, cfg, invoker)

	first, err := r.Run(context.Background())
	require.NoError(t, err)
	second, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, first.Identifier.Day)
	assert.Equal(t, 2, second.Identifier.Day)
	assert.NotEqual(t, first.Identifier.DirName(), second.Identifier.DirName())

	entries, err := r.RunLog().Read()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRunContinuesFromExistingExperiments(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.ExperimentsDir, "day_1_foo"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.ExperimentsDir, "day_2_bar"), 0755))
	// Noise that must not affect numbering.
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.ExperimentsDir, "scratch"), 0755))

	invoker := &fakeInvoker{populate: true}
	r := newTestRunner(t, cfg, invoker)

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.Identifier.Day)
	assert.True(t, strings.HasPrefix(outcome.Identifier.DirName(), "day_3_"))
}

func TestRunFailureLeavesExistingExperimentsUntouched(t *testing.T) {
	cfg := testConfig(t)
	existing := filepath.Join(cfg.ExperimentsDir, "day_1_keep")
	require.NoError(t, os.MkdirAll(existing, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(existing, "main.py"), []byte("print()"), 0644))

	invoker := &fakeInvoker{invokeErr: &assistant.Error{Kind: assistant.KindTimeout, Err: fmt.Errorf("timed out")}}
	r := newTestRunner(t, cfg, invoker)

	_, err := r.Run(context.Background())
	require.Error(t, err)

	assert.FileExists(t, filepath.Join(existing, "main.py"))
}

func TestRunRetriesOnceWhenOutputIsBad(t *testing.T) {
	cfg := testConfig(t)
	cfg.RetryOnFailure = true
	// First call writes nothing, second produces a proper experiment.
	invoker := &fakeInvoker{populateFrom: 2}
	r := newTestRunner(t, cfg, invoker)

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, invoker.calls)
	assert.Equal(t, runlog.StatusSuccess, outcome.Status)

	entries, readErr := r.RunLog().Read()
	require.NoError(t, readErr)
	require.Len(t, entries, 1)
	assert.Equal(t, runlog.StatusSuccess, entries[0].Status)
}

func TestRunDoesNotRetryInvocationErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.RetryOnFailure = true
	invoker := &fakeInvoker{invokeErr: &assistant.Error{Kind: assistant.KindTimeout, Err: fmt.Errorf("timed out")}}
	r := newTestRunner(t, cfg, invoker)

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, invoker.calls)
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.IdeaMode = "psychic"
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.ImplementationLevel = "enterprise"
	_, err = New(cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.IdeaMode = "ai"
	cfg.IdeaProvider = "watson"
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestRunForeverStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	invoker := &fakeInvoker{populate: true}
	r := newTestRunner(t, cfg, invoker)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.RunForever(ctx, time.Hour)
	}()

	// The first run happens immediately; give it a moment, then cancel.
	require.Eventually(t, func() bool { return invoker.calls >= 1 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon loop did not stop after cancel")
	}

	assert.Equal(t, 1, invoker.calls)
}
