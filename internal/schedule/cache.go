package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Fetcher reads all records of a worksheet.
type Fetcher interface {
	Records(ctx context.Context, sheet string) ([]Record, error)
}

// Options ...
type Options struct {
	ScheduleSheet string
	ExamsSheet    string
	Groups        []string
	Location      *time.Location
}

// Cache keeps the last successfully parsed snapshot. Readers never block on
// a refresh in progress.
type Cache struct {
	fetcher Fetcher
	opts    Options
	logger  logrus.FieldLogger
	now     func() time.Time

	refreshMu sync.Mutex
	current   atomic.Pointer[Snapshot]
}

// NewCache ...
func NewCache(fetcher Fetcher, opts Options, logger logrus.FieldLogger) *Cache {
	if opts.ScheduleSheet == "" {
		opts.ScheduleSheet = "schedule"
	}
	if opts.ExamsSheet == "" {
		opts.ExamsSheet = "exams"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Cache{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// Refresh reads both sheets and swaps in the new snapshot. On a fetch error
// it returns a *FetchError and the cache keeps serving the old snapshot.
func (c *Cache) Refresh(ctx context.Context) (*Snapshot, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	started := c.now()
	lessons, err := c.fetcher.Records(ctx, c.opts.ScheduleSheet)
	if err != nil {
		return nil, &FetchError{Sheet: c.opts.ScheduleSheet, Err: err}
	}
	exams, err := c.fetcher.Records(ctx, c.opts.ExamsSheet)
	if err != nil {
		return nil, &FetchError{Sheet: c.opts.ExamsSheet, Err: err}
	}

	snap := Parse(lessons, exams, c.opts.Groups, c.opts.Location)
	snap.FetchedAt = c.now().In(c.opts.Location)
	c.current.Store(snap)

	c.logger.WithFields(logrus.Fields{
		"schedule_rows": snap.ScheduleRows,
		"exam_rows":     snap.ExamRows,
		"skipped":       snap.Skipped,
		"took":          c.now().Sub(started).String(),
	}).Debug("schedule refreshed")
	return snap, nil
}

// Loaded reports whether at least one refresh succeeded.
func (c *Cache) Loaded() bool {
	return c.current.Load() != nil
}

// Snapshot returns the current snapshot, or an empty one before the first
// successful refresh.
func (c *Cache) Snapshot() *Snapshot {
	if snap := c.current.Load(); snap != nil {
		return snap
	}
	return NewSnapshot()
}

// Location is the timezone dates are interpreted in.
func (c *Cache) Location() *time.Location {
	return c.opts.Location
}

// Groups returns the configured group names.
func (c *Cache) Groups() []string {
	return append([]string(nil), c.opts.Groups...)
}

// Lookup returns the entry of group for day. It never fails; unknown days
// give an empty entry.
func (c *Cache) Lookup(group string, day time.Time) Entry {
	return c.Snapshot().Lookup(group, day.In(c.opts.Location))
}

// LookupWeek returns the working days of the week containing anchor.
func (c *Cache) LookupWeek(group string, anchor time.Time) []Entry {
	return c.Snapshot().LookupWeek(group, anchor.In(c.opts.Location))
}

// Exams returns exams of group dated from..to inclusive.
func (c *Cache) Exams(group string, from, to time.Time) []Exam {
	return c.Snapshot().ExamsBetween(group, from.In(c.opts.Location), to.In(c.opts.Location))
}
