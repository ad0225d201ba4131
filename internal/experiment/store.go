package experiment

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"daylab/internal/logger"

	"github.com/charmbracelet/log"
)

// Sentinel errors for the store.
var (
	// ErrScan indicates the experiments directory could not be read.
	ErrScan = errors.New("experiments store scan failed")

	// ErrNamingConflict indicates a computed identifier already names an
	// existing directory. Under correct sequential use this is defensive only.
	ErrNamingConflict = errors.New("experiment identifier already exists")
)

// Record describes one existing experiment directory.
type Record struct {
	ID      Identifier
	Name    string
	Path    string
	ModTime time.Time
}

// Store provides access to the experiments directory tree. It holds no state
// beyond the root path; the set of existing experiments is re-derived by
// scanning the filesystem on every call.
type Store struct {
	root   string
	logger *log.Logger
}

// NewStore creates a store rooted at the given directory. The directory does
// not need to exist yet; it is created on the first Create call.
func NewStore(root string) *Store {
	return &Store{
		root:   root,
		logger: logger.NewStyledLogger("Store"),
	}
}

// Root returns the experiments root directory.
func (s *Store) Root() string {
	return s.root
}

// Scan lists all experiment directories whose names match a known scheme,
// sorted by identifier. Entries with unparseable names are skipped.
func (s *Store) Scan() ([]Record, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrScan, s.root, err)
	}

	var records []Record
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, ok := ParseDirName(entry.Name())
		if !ok {
			s.logger.Debug("Skipping directory with unrecognized name", "name", entry.Name())
			continue
		}
		record := Record{
			ID:   id,
			Name: entry.Name(),
			Path: filepath.Join(s.root, entry.Name()),
		}
		if info, err := entry.Info(); err == nil {
			record.ModTime = info.ModTime()
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ID.Less(records[j].ID)
	})

	return records, nil
}

// NextIdentifier computes the next free identifier for the given scheme and
// slug. For the day scheme this is max(existing day numbers)+1; for the date
// scheme it is today's date, which conflicts if a directory for today already
// exists.
func (s *Store) NextIdentifier(scheme, slug string, now time.Time) (Identifier, error) {
	records, err := s.Scan()
	if err != nil {
		return Identifier{}, err
	}

	switch scheme {
	case SchemeDate:
		// Local calendar day, not the UTC epoch Truncate would give.
		date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		id := Identifier{Scheme: SchemeDate, Date: date, Slug: slug}
		today := date.Format(dateLayout)
		for _, r := range records {
			if r.ID.Scheme == SchemeDate && r.ID.Date.Format(dateLayout) == today {
				return Identifier{}, fmt.Errorf("%w: a %s experiment already exists (%s)", ErrNamingConflict, today, r.Name)
			}
		}
		return id, nil
	default:
		maxDay := 0
		for _, r := range records {
			if r.ID.Scheme == SchemeDay && r.ID.Day > maxDay {
				maxDay = r.ID.Day
			}
		}
		return Identifier{Scheme: SchemeDay, Day: maxDay + 1, Slug: slug}, nil
	}
}

// Create makes the directory for the given identifier. Creation is atomic:
// an already-existing directory is a naming conflict, never overwritten.
func (s *Store) Create(id Identifier) (string, error) {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return "", fmt.Errorf("failed to create experiments root %s: %w", s.root, err)
	}

	path := filepath.Join(s.root, id.DirName())
	if err := os.Mkdir(path, 0755); err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNamingConflict, id.DirName())
		}
		return "", fmt.Errorf("failed to create experiment directory %s: %w", path, err)
	}

	s.logger.Debug("Created experiment directory", "experiment", id.DirName())
	return path, nil
}

// Path returns the directory path an identifier maps to, whether or not it exists.
func (s *Store) Path(id Identifier) string {
	return filepath.Join(s.root, id.DirName())
}

// IsPopulated reports whether the experiment directory exists and contains at
// least one file besides the runner's own bookkeeping output.
func (s *Store) IsPopulated(id Identifier) bool {
	entries, err := os.ReadDir(s.Path(id))
	if err != nil {
		return false
	}
	for _, entry := range entries {
		switch entry.Name() {
		case "claude_output.txt", "metadata.json":
			continue
		}
		return true
	}
	return false
}
