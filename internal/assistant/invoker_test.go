package assistant

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvoker() *Invoker {
	return NewInvoker("claude", "", "1.0.0", time.Minute)
}

func TestCheckNotInstalled(t *testing.T) {
	inv := newTestInvoker()
	inv.lookPath = func(string) (string, error) {
		return "", fmt.Errorf("executable file not found in $PATH")
	}

	err := inv.Check()
	require.Error(t, err)
	assert.Equal(t, KindNotInstalled, KindOf(err))
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		minVersion string
		wantKind   ErrorKind
	}{
		{"new enough", "1.2.3 (Claude Code)", "1.0.0", ""},
		{"exactly minimum", "1.0.0", "1.0.0", ""},
		{"too old", "0.9.0", "1.0.0", KindVersion},
		{"unparseable tolerated", "development build", "1.0.0", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := NewInvoker("claude", "", tt.minVersion, time.Minute)
			inv.lookPath = func(string) (string, error) { return "/usr/bin/claude", nil }
			inv.versionOutput = func() (string, error) { return tt.output, nil }

			err := inv.Check()
			if tt.wantKind == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, KindOf(err))
			}
		})
	}
}

func TestCheckVersionCommandFails(t *testing.T) {
	inv := newTestInvoker()
	inv.lookPath = func(string) (string, error) { return "/usr/bin/claude", nil }
	inv.versionOutput = func() (string, error) { return "", fmt.Errorf("boom") }

	err := inv.Check()
	require.Error(t, err)
	assert.Equal(t, KindVersion, KindOf(err))
}

func TestInvokeSuccess(t *testing.T) {
	inv := newTestInvoker()
	var gotPrompt, gotDir string
	inv.runCommand = func(_ context.Context, prompt, dir string) (string, string, int, error) {
		gotPrompt = prompt
		gotDir = dir
		return "created the experiment\n", "", 0, nil
	}

	result, err := inv.Invoke(context.Background(), "build something", "/lab/day_1_foo")
	require.NoError(t, err)

	assert.Equal(t, "build something", gotPrompt)
	assert.Equal(t, "/lab/day_1_foo", gotDir)
	assert.Equal(t, "created the experiment\n", result.Output)
	assert.Equal(t, 0, result.ExitCode)
	assert.Greater(t, result.Duration, time.Duration(0))
}

func TestInvokeStripsANSI(t *testing.T) {
	inv := newTestInvoker()
	inv.runCommand = func(_ context.Context, _, _ string) (string, string, int, error) {
		return "\x1b[32mdone\x1b[0m", "\x1b[31moops\x1b[0m", 0, nil
	}

	result, err := inv.Invoke(context.Background(), "p", "/d")
	require.NoError(t, err)
	assert.Equal(t, "done", result.Output)
	assert.Equal(t, "oops", result.Stderr)
}

func TestInvokeNonZeroExit(t *testing.T) {
	inv := newTestInvoker()
	inv.runCommand = func(_ context.Context, _, _ string) (string, string, int, error) {
		return "partial", "something broke\nmore detail", 2, fmt.Errorf("exit status 2")
	}

	result, err := inv.Invoke(context.Background(), "p", "/d")
	require.Error(t, err)

	assert.Equal(t, KindExit, KindOf(err))
	assert.Contains(t, err.Error(), "something broke")
	// Output is still returned for bookkeeping.
	require.NotNil(t, result)
	assert.Equal(t, "partial", result.Output)
	assert.Equal(t, 2, result.ExitCode)
}

func TestInvokeTimeout(t *testing.T) {
	inv := NewInvoker("claude", "", "1.0.0", 20*time.Millisecond)
	inv.runCommand = func(ctx context.Context, _, _ string) (string, string, int, error) {
		<-ctx.Done()
		return "", "", -1, ctx.Err()
	}

	result, err := inv.Invoke(context.Background(), "p", "/d")
	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
	require.NotNil(t, result)
}

func TestInvokePassesModelFlag(t *testing.T) {
	// The default runner builds args internally; here we only verify the
	// invoker carries the model through construction.
	inv := NewInvoker("claude", "claude-sonnet-4-0", "1.0.0", time.Minute)
	assert.Equal(t, "claude-sonnet-4-0", inv.model)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(fmt.Errorf("plain")))
	assert.Equal(t, KindExit, KindOf(&Error{Kind: KindExit, Err: fmt.Errorf("x")}))
}
