// Package ideas chooses what each day's experiment should be. Ideas come
// from a curated pool, a framework-structured pool, or an LLM provider,
// depending on the configured mode.
package ideas

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"daylab/internal/logger"

	"github.com/charmbracelet/log"
)

// Mode selects how ideas are produced.
type Mode string

// Supported generation modes.
const (
	ModeRandom       Mode = "random"
	ModeStructured   Mode = "structured"
	ModeAI           Mode = "ai"
	ModeStructuredAI Mode = "structured_ai"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeRandom, ModeStructured, ModeAI, ModeStructuredAI:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unsupported idea mode %q", s)
	}
}

// Idea is one chosen experiment idea.
type Idea struct {
	Text      string `json:"text"`
	Framework string `json:"framework,omitempty"`
	Direction string `json:"direction,omitempty"`
	Source    string `json:"source"` // catalog|provider
}

// Client generates idea text from an LLM provider. Implemented by the
// clients in internal/llm.
type Client interface {
	ProviderName() string
	IsConfigured() bool
	GenerateIdea(ctx context.Context, direction string) (string, error)
}

// Generator draws ideas according to its mode.
type Generator struct {
	mode    Mode
	catalog *Catalog
	client  Client
	rng     *rand.Rand
	logger  *log.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes the generator deterministic, for tests.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// WithClient attaches an LLM client for the AI modes.
func WithClient(client Client) Option {
	return func(g *Generator) {
		g.client = client
	}
}

// NewGenerator creates a generator. catalog may be nil, in which case the
// built-in pools are used.
func NewGenerator(mode Mode, catalog *Catalog, opts ...Option) *Generator {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	g := &Generator{
		mode:    mode,
		catalog: catalog,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:  logger.NewStyledLogger("Ideas"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next produces the next idea. The AI modes fall back to the catalog when no
// configured provider client is available, with a warning.
func (g *Generator) Next(ctx context.Context) (Idea, error) {
	switch g.mode {
	case ModeStructured:
		return g.nextStructured()
	case ModeAI:
		return g.nextAI(ctx, "")
	case ModeStructuredAI:
		direction := g.pick(g.catalog.Directions)
		return g.nextAI(ctx, direction)
	default:
		return g.nextRandom()
	}
}

func (g *Generator) nextRandom() (Idea, error) {
	if len(g.catalog.Ideas) == 0 {
		return Idea{}, fmt.Errorf("idea catalog is empty")
	}
	return Idea{Text: g.pick(g.catalog.Ideas), Source: "catalog"}, nil
}

func (g *Generator) nextStructured() (Idea, error) {
	if len(g.catalog.Structured) == 0 {
		return Idea{}, fmt.Errorf("structured idea catalog is empty")
	}

	frameworks := make([]string, 0, len(g.catalog.Structured))
	for framework := range g.catalog.Structured {
		frameworks = append(frameworks, framework)
	}
	sort.Strings(frameworks)

	framework := g.pick(frameworks)
	idea := g.pick(g.catalog.Structured[framework])

	return Idea{
		Text:      fmt.Sprintf("%s (using %s)", idea, framework),
		Framework: framework,
		Source:    "catalog",
	}, nil
}

func (g *Generator) nextAI(ctx context.Context, direction string) (Idea, error) {
	if g.client == nil || !g.client.IsConfigured() {
		g.logger.Warn("No configured idea provider, falling back to catalog")
		idea, err := g.nextRandom()
		idea.Direction = direction
		return idea, err
	}

	text, err := g.client.GenerateIdea(ctx, direction)
	if err != nil {
		return Idea{}, fmt.Errorf("idea provider %s failed: %w", g.client.ProviderName(), err)
	}

	text = sanitizeIdeaText(text)
	if text == "" {
		return Idea{}, fmt.Errorf("idea provider %s returned empty idea", g.client.ProviderName())
	}

	g.logger.Debug("Generated idea", "provider", g.client.ProviderName(), "idea", text)
	return Idea{Text: text, Direction: direction, Source: "provider"}, nil
}

func (g *Generator) pick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[g.rng.Intn(len(pool))]
}

// sanitizeIdeaText reduces a provider response to one clean idea line.
func sanitizeIdeaText(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = strings.Trim(text, "\"'` ")
	const maxIdeaLen = 200
	if len(text) > maxIdeaLen {
		text = strings.TrimSpace(text[:maxIdeaLen])
	}
	return text
}
