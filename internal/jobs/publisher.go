// Package jobs runs the background work of the scheduler: periodically
// writing every venue's calendar feed to disk.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/venue-scheduler/internal/calendar"
)

// FeedSource renders the calendar feed of every venue.
type FeedSource interface {
	RenderFeeds(ctx context.Context) ([]calendar.Feed, error)
}

// Publisher writes rendered feeds as <venue id>.ics files into a directory.
type Publisher struct {
	source FeedSource
	dir    string
	logger *slog.Logger
}

// NewPublisher constructs a Publisher. The directory is created on first publish.
func NewPublisher(source FeedSource, dir string, logger *slog.Logger) (*Publisher, error) {
	if source == nil {
		return nil, errors.New("jobs: feed source is required")
	}
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("jobs: calendar directory is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{source: source, dir: dir, logger: logger.With("component", "feed_publisher")}, nil
}

// Publish renders all feeds and writes them out, returning how many files
// were written. A failed file does not stop the remaining ones; the errors
// are joined.
func (p *Publisher) Publish(ctx context.Context) (int, error) {
	feeds, err := p.source.RenderFeeds(ctx)
	if err != nil {
		return 0, fmt.Errorf("render feeds: %w", err)
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return 0, fmt.Errorf("create calendar directory: %w", err)
	}

	var (
		written int
		errs    []error
	)
	for _, feed := range feeds {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		name, err := feedFileName(feed.VenueID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := writeFileAtomic(filepath.Join(p.dir, name), feed.Body); err != nil {
			p.logger.Error("failed to write feed", "venue_id", feed.VenueID, "error", err)
			errs = append(errs, fmt.Errorf("write feed %s: %w", feed.VenueID, err))
			continue
		}
		written++
	}

	p.logger.Info("feeds published", "dir", p.dir, "written", written, "venues", len(feeds))
	return written, errors.Join(errs...)
}

func feedFileName(venueID string) (string, error) {
	id := strings.TrimSpace(venueID)
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return "", fmt.Errorf("jobs: unusable venue id %q", venueID)
	}
	return id + ".ics", nil
}

// writeFileAtomic writes to a temp file in the same directory and renames it
// over path so readers never observe a partial feed.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".feed-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
