package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"daylab/internal/ideas"
)

// Metadata is the bookkeeping record written into each experiment directory.
type Metadata struct {
	RunID       string            `json:"run_id"`
	Identifier  string            `json:"identifier"`
	Idea        ideas.Idea        `json:"idea"`
	Level       string            `json:"level"`
	Timestamp   time.Time         `json:"timestamp"`
	Duration    time.Duration     `json:"duration"`
	ExitCode    int               `json:"exit_code"`
	Verified    bool              `json:"verified"`
	Detail      string            `json:"detail,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
}

// saveMetadata writes metadata.json into the experiment directory.
func saveMetadata(dir string, meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	path := filepath.Join(dir, "metadata.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	return nil
}

// saveAssistantOutput writes the captured assistant transcript into the
// experiment directory.
func saveAssistantOutput(dir, output string) error {
	path := filepath.Join(dir, "claude_output.txt")
	if err := os.WriteFile(path, []byte(output), 0644); err != nil {
		return fmt.Errorf("failed to write assistant output: %w", err)
	}
	return nil
}

// relevantEnvVars returns environment variables worth recording with a run.
// API keys are redacted, never stored.
func relevantEnvVars() map[string]string {
	relevant := []string{
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GOOGLE_API_KEY",
		"DAYLAB_LOG_LEVEL", "DAYLAB_CONFIG_DIR",
	}

	envMap := make(map[string]string)
	for _, name := range relevant {
		if value := os.Getenv(name); value != "" {
			if strings.Contains(name, "API_KEY") {
				envMap[name] = "***REDACTED***"
			} else {
				envMap[name] = value
			}
		}
	}
	return envMap
}
