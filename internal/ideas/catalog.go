package ideas

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog holds the pools the generator draws from. A catalog file can
// override any of the three pools; empty fields fall back to the built-ins.
type Catalog struct {
	Ideas      []string            `yaml:"ideas"`
	Structured map[string][]string `yaml:"structured"`
	Directions []string            `yaml:"directions"`
}

// defaultIdeas is the curated pool of self-contained experiment ideas.
var defaultIdeas = []string{
	// Developer tools
	"Git commit message generator using AI",
	"Code snippet organizer with tags",
	"Terminal dashboard for system monitoring",
	"Markdown preview server with hot reload",
	"Project scaffolding generator",

	// Data processing
	"CSV to JSON/YAML converter with schemas",
	"Log file analyzer with pattern detection",
	"File deduplication tool",
	"CSV data analyzer",

	// Games and entertainment
	"Conway's Game of Life with patterns",
	"ASCII art generator from images",
	"Terminal-based music player",
	"Mini text-based adventure game",

	// Web
	"Personal link shortener",
	"Pastebin clone with syntax highlighting",
	"Static site generator from markdown",
	"Web scraper for news headlines",

	// Automation
	"Desktop notifier for various events",
	"Batch file renamer with patterns",
	"Automated backup tool",
	"CLI tool for file organization",
	"Pomodoro timer with notifications",

	// Visualization
	"Visualization of sorting algorithms",
	"Folder size treemap generator",
	"CPU/Memory usage plotter",

	// APIs and services
	"Weather API aggregator",
	"Currency converter with caching",
	"URL health checker service",
	"RSS feed aggregator with filters",
	"Password strength checker",
	"Image metadata extractor",
	"Markdown to HTML converter",
}

// defaultStructured pairs a framework context with ideas suited to it.
var defaultStructured = map[string][]string{
	"Python + FastAPI": {
		"REST API for todo management with SQLite",
		"URL shortener with analytics",
		"Simple authentication service",
		"Rate limiter middleware",
	},
	"Python + Click": {
		"Database migration tool",
		"Project template generator",
		"File organizer by type/date",
		"Bulk image resizer",
	},
	"Go + net/http": {
		"Markdown blog engine",
		"WebSocket chat server",
		"API mock server",
		"File sharing service",
	},
	"JavaScript + Node": {
		"Task scheduler service",
		"Static site preview server",
		"JSON API playground",
	},
}

// defaultDirections steer AI-generated ideas.
var defaultDirections = []string{
	"Create a tool that helps developers be more productive",
	"Build something that processes or transforms data",
	"Design a utility for organizing digital content",
	"Develop a visualization tool for complex information",
	"Create an automation tool for repetitive tasks",
	"Build a learning tool or educational game",
	"Design a communication or collaboration tool",
	"Create a monitoring or analytics tool",
	"Build a creative tool for content generation",
	"Develop a security or privacy tool",
}

// DefaultCatalog returns the built-in idea pools.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Ideas:      defaultIdeas,
		Structured: defaultStructured,
		Directions: defaultDirections,
	}
}

// LoadCatalog reads a YAML catalog file and merges it over the built-in
// pools. Only non-empty fields override.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read idea catalog %s: %w", path, err)
	}

	var loaded Catalog
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse idea catalog %s: %w", path, err)
	}

	catalog := DefaultCatalog()
	if len(loaded.Ideas) > 0 {
		catalog.Ideas = loaded.Ideas
	}
	if len(loaded.Structured) > 0 {
		catalog.Structured = loaded.Structured
	}
	if len(loaded.Directions) > 0 {
		catalog.Directions = loaded.Directions
	}

	return catalog, nil
}
