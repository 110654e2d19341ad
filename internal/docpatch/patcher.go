// Package docpatch rewrites the embedded badge references of a documentation
// file in place. Each badge kind has its own label-scoped pattern, so the
// substitutions are independent and the whole patch is idempotent: applying
// it twice with the same badge set yields identical text.
package docpatch

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/harrison/badgeforge/internal/filelock"
	"github.com/harrison/badgeforge/internal/logger"
	"github.com/harrison/badgeforge/internal/models"
)

// ErrNoDocument indicates the documentation file does not exist. Callers
// treat this as a skip, not a failure.
var ErrNoDocument = errors.New("docpatch: documentation file not found")

// badgeLabels maps each badge name to the markdown link text its reference
// carries in the document.
var badgeLabels = map[string]string{
	models.BadgeVersion:  "Version",
	models.BadgeBuild:    "Build Status",
	models.BadgeTests:    "Tests",
	models.BadgeCoverage: "Coverage",
}

// badgePatterns holds one compiled pattern per badge label. A pattern matches
// a markdown image link whose alt text is the label and whose image URL and
// link target are arbitrary, e.g. [![Coverage](https://old)](#).
var badgePatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(badgeLabels))
	for name, label := range badgeLabels {
		patterns[name] = regexp.MustCompile(`\[!\[` + regexp.QuoteMeta(label) + `\].*?\]\([^)]*\)`)
	}
	return patterns
}()

// Metrics captures contextual data about one patch application.
type Metrics struct {
	Path         string
	Replaced     int
	Linked       int
	BytesRead    int
	BytesWritten int
	Duration     time.Duration
	Err          error
}

// Monitor receives metrics describing each patch attempt.
type Monitor func(Metrics)

type options struct {
	monitor Monitor
}

// Option configures behaviour of PatchFile.
type Option func(*options)

// WithMonitor registers a callback that receives metrics after each patch.
func WithMonitor(m Monitor) Option {
	return func(o *options) {
		o.monitor = m
	}
}

// Apply rewrites every matching badge reference in content to point at the
// badge set's freshly rendered URLs, resetting each link destination to the
// "#" placeholder anchor. Content without a given marker is left untouched.
// Returns the patched text and the number of badge kinds replaced.
//
// Replacement is literal, so URL contents can never be reinterpreted as
// pattern syntax; a second application reproduces the same text exactly.
func Apply(content string, badges models.BadgeSet) (string, int) {
	replaced := 0
	for name, pattern := range badgePatterns {
		url, ok := badges[name]
		if !ok {
			continue
		}
		replacement := fmt.Sprintf("[![%s](%s)](#)", badgeLabels[name], url)

		if !pattern.MatchString(content) {
			continue
		}
		content = pattern.ReplaceAllLiteralString(content, replacement)
		replaced++
	}
	return content, replaced
}

// PatchFile applies the badge set to the documentation file at path, writing
// the result back atomically under a file lock. A missing file returns
// ErrNoDocument so the caller can warn and continue.
func PatchFile(path string, badges models.BadgeSet, log logger.Logger, opts ...Option) error {
	if log == nil {
		log = logger.Nop()
	}
	config := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&config)
		}
	}

	metrics := Metrics{Path: path}
	start := time.Now()
	defer func() {
		metrics.Duration = time.Since(start)
		if config.monitor != nil {
			config.monitor(metrics)
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			metrics.Err = ErrNoDocument
			return ErrNoDocument
		}
		metrics.Err = err
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	metrics.BytesRead = len(data)

	patched, replaced := Apply(string(data), badges)
	metrics.Replaced = replaced

	if err := filelock.LockAndWrite(path, []byte(patched)); err != nil {
		metrics.Err = err
		return err
	}
	metrics.BytesWritten = len(patched)

	metrics.Linked = CountBadgeImages([]byte(patched))
	log.LogInfo(fmt.Sprintf("patched %d badge reference(s) in %s (%d of %d linked)",
		replaced, path, metrics.Linked, len(badgeLabels)))
	return nil
}

// CountBadgeImages parses the document and counts image nodes whose alt text
// is one of the known badge labels. Used to verify the patched document still
// references every badge; it never fails the run.
func CountBadgeImages(source []byte) int {
	known := make(map[string]bool, len(badgeLabels))
	for _, label := range badgeLabels {
		known[label] = true
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	seen := make(map[string]bool)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if img, ok := n.(*ast.Image); ok {
			alt := extractText(img, source)
			if known[alt] {
				seen[alt] = true
			}
		}
		return ast.WalkContinue, nil
	})
	return len(seen)
}

// extractText collects the literal text of a node's direct children.
func extractText(n ast.Node, source []byte) string {
	var buf []byte
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf = append(buf, t.Segment.Value(source)...)
		}
	}
	return string(buf)
}
