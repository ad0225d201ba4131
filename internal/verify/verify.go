// Package verify performs the only check the runner applies to generated
// experiments: that a run.sh exists and starts. Content and correctness of
// the generated program stay out of scope.
package verify

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// Result is the outcome of verifying one experiment directory.
type Result struct {
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

// RunScript checks that the experiment directory contains a run.sh and that
// it starts cleanly. A script still running after the grace period counts as
// a pass (long-running experiments are expected); a non-zero exit is a fail.
func RunScript(dir string, grace time.Duration) Result {
	script := filepath.Join(dir, "run.sh")
	if _, err := os.Stat(script); err != nil {
		return Result{OK: false, Detail: "no run.sh found"}
	}

	if err := os.Chmod(script, 0755); err != nil {
		return Result{OK: false, Detail: fmt.Sprintf("could not make run.sh executable: %v", err)}
	}

	cmd := exec.Command("bash", "run.sh")
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// The script gets its own process group so stopping it also stops any
	// children it spawned; otherwise Wait blocks on the stderr pipe the
	// children inherited. WaitDelay covers processes that left the group.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.WaitDelay = time.Second

	if err := cmd.Start(); err != nil {
		return Result{OK: false, Detail: fmt.Sprintf("error starting run.sh: %v", err)}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err == nil {
			return Result{OK: true, Detail: "run.sh completed successfully"}
		}
		detail := fmt.Sprintf("run.sh failed: %v", err)
		if msg := truncate(stderr.String(), 200); msg != "" {
			detail = fmt.Sprintf("%s: %s", detail, msg)
		}
		return Result{OK: false, Detail: detail}
	case <-time.After(grace):
		// Still running after the grace period: treat as a healthy
		// long-running experiment and stop the whole process group.
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		<-done
		return Result{OK: true, Detail: "run.sh executed successfully"}
	}
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
