// Package experiment manages the experiments store: the directory tree that
// holds one self-contained generated program per run, plus the naming scheme
// used to keep identifiers unique and monotonically increasing.
package experiment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Naming schemes for experiment directories.
const (
	SchemeDay  = "day"
	SchemeDate = "date"
)

const dateLayout = "2006-01-02"

// maxSlugLen bounds directory name length; longer idea texts are truncated.
const maxSlugLen = 30

var (
	dayDirPattern  = regexp.MustCompile(`^day_(\d+)_([a-z0-9][a-z0-9_-]*)$`)
	dateDirPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})_([a-z0-9][a-z0-9_-]*)$`)
	slugCleaner    = regexp.MustCompile(`[^a-z0-9_-]+`)
)

// Identifier names one experiment directory. Exactly one of Day or Date is
// meaningful, depending on Scheme.
type Identifier struct {
	Scheme string
	Day    int
	Date   time.Time
	Slug   string
}

// DirName renders the identifier as a directory name.
func (id Identifier) DirName() string {
	switch id.Scheme {
	case SchemeDate:
		return fmt.Sprintf("%s_%s", id.Date.Format(dateLayout), id.Slug)
	default:
		return fmt.Sprintf("day_%d_%s", id.Day, id.Slug)
	}
}

// String returns the directory name; identifiers are referred to by it everywhere.
func (id Identifier) String() string {
	return id.DirName()
}

// Less orders identifiers within the same scheme.
func (id Identifier) Less(other Identifier) bool {
	if id.Scheme != other.Scheme {
		return id.Scheme < other.Scheme
	}
	if id.Scheme == SchemeDate {
		return id.Date.Before(other.Date)
	}
	return id.Day < other.Day
}

// ParseDirName parses a directory name into an Identifier. The second return
// value is false for names that do not match any known scheme; such
// directories are ignored by the store scan.
func ParseDirName(name string) (Identifier, bool) {
	if m := dayDirPattern.FindStringSubmatch(name); m != nil {
		day, err := strconv.Atoi(m[1])
		if err != nil || day < 1 {
			return Identifier{}, false
		}
		return Identifier{Scheme: SchemeDay, Day: day, Slug: m[2]}, true
	}
	if m := dateDirPattern.FindStringSubmatch(name); m != nil {
		date, err := time.Parse(dateLayout, m[1])
		if err != nil {
			return Identifier{}, false
		}
		return Identifier{Scheme: SchemeDate, Date: date, Slug: m[2]}, true
	}
	return Identifier{}, false
}

// Slugify turns free idea text into a short directory-safe slug.
func Slugify(text string) string {
	slug := strings.ToLower(strings.TrimSpace(text))
	slug = strings.ReplaceAll(slug, " ", "_")
	slug = slugCleaner.ReplaceAllString(slug, "")
	slug = strings.Trim(slug, "_-")
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
		slug = strings.Trim(slug, "_-")
	}
	if slug == "" {
		slug = "experiment"
	}
	return slug
}
