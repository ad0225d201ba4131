// Package prompt constructs the task descriptions handed to the external
// coding assistant. The assistant is treated as an opaque generator; the
// prompt only pins down where the experiment must live and how it must be
// runnable.
package prompt

import (
	"fmt"
	"strings"
)

// Level selects how ambitious the requested implementation should be.
type Level string

// Supported implementation levels.
const (
	LevelSimpleTest   Level = "simple_test"
	LevelMVP          Level = "mvp"
	LevelFullScenario Level = "full_scenario"
)

// ParseLevel validates a level string.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelSimpleTest, LevelMVP, LevelFullScenario:
		return Level(s), nil
	default:
		return "", fmt.Errorf("unsupported implementation level %q", s)
	}
}

// baseRequirements apply to every experiment regardless of level.
const baseRequirements = `Requirements:
1. Create all files inside %s
2. Create a README.md explaining the project
3. Create a run.sh script that starts the project (make it executable)
4. Make the project self-contained: it must run with "bash run.sh"`

// Build produces the full task prompt for one experiment.
func Build(idea string, level Level, targetDir string) string {
	requirements := fmt.Sprintf(baseRequirements, targetDir)

	switch level {
	case LevelSimpleTest:
		return fmt.Sprintf(`Create a simple proof-of-concept for: %s

Focus on:
- Minimal working implementation
- Basic functionality demonstration
- Simple command-line interface
- No external dependencies if possible
- Clear code comments explaining the approach

%s`, idea, requirements)

	case LevelFullScenario:
		return fmt.Sprintf(`Create a complete implementation for: %s

Focus on:
- Full user scenario with multiple use cases
- Well-thought-out UI/UX (even if CLI-based)
- Proper error handling and edge cases
- Configuration options
- Help documentation
- Example usage scenarios

%s`, idea, requirements)

	default:
		return fmt.Sprintf(`Create an MVP (Minimum Viable Product) for: %s

Focus on:
- Core essential features only
- Clean, well-structured code
- Basic error handling
- Simple but functional UI (CLI or web)
- Minimal dependencies
- Clear documentation of features

%s`, idea, requirements)
	}
}

// levelHints steer a retry after a failed verification.
var levelHints = map[Level]string{
	LevelSimpleTest:   "Keep it extremely simple - just make it work!",
	LevelMVP:          "Focus on getting the core functionality working.",
	LevelFullScenario: "Ensure all components work together properly.",
}

// BuildRetry produces a follow-up prompt after a failed attempt, carrying
// the failure context so the assistant can fix the issue.
func BuildRetry(errorContext, idea string, level Level, targetDir string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Previous attempt failed with error: %s\n\n", errorContext)
	fmt.Fprintf(&b, "Please fix the issue and create a working implementation of: %s\n\n", idea)
	if hint, ok := levelHints[level]; ok {
		b.WriteString(hint)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, baseRequirements, targetDir)
	return b.String()
}
