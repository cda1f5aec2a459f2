package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"staycal/internal/config"
	"staycal/internal/datemath"
	appLog "staycal/internal/log"
	"staycal/internal/model"
)

// Refresher runs the fetch → parse → expand pipeline for every configured
// listing and publishes the result to a Store.
type Refresher struct {
	listings []config.ListingConfig
	fetcher  *Fetcher
	store    *Store
	loc      *time.Location
	horizon  int
	now      func() time.Time
}

// NewRefresher wires a refresher from configuration. loc is the display
// zone; nil means time.Local.
func NewRefresher(cfg *config.Config, fetcher *Fetcher, store *Store, loc *time.Location) *Refresher {
	if loc == nil {
		loc = time.Local
	}
	return &Refresher{
		listings: cfg.Listings,
		fetcher:  fetcher,
		store:    store,
		loc:      loc,
		horizon:  cfg.HorizonDays,
		now:      time.Now,
	}
}

// Listings converts configured listings into timeline rows, in config order.
func Listings(cfg []config.ListingConfig) []model.Listing {
	out := make([]model.Listing, 0, len(cfg))
	for _, l := range cfg {
		out = append(out, model.Listing{ID: l.ID, Name: l.Name})
	}
	return out
}

// Refresh fetches all feeds once and publishes a new snapshot. Individual
// feed failures are recorded on the snapshot and do not fail the refresh.
func (r *Refresher) Refresh(ctx context.Context) (*Snapshot, error) {
	started := time.Now()
	now := r.now().In(r.loc)

	sources := make([]Source, 0)
	for _, l := range r.listings {
		for _, u := range l.Feeds {
			sources = append(sources, Source{ListingID: l.ID, URL: u})
		}
	}

	results, fetchErrs := r.fetcher.FetchAll(ctx, sources)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var problems []string
	for _, err := range fetchErrs {
		problems = append(problems, err.Error())
	}

	events := make([]ParsedEvent, 0)
	for _, res := range results {
		evs, err := ParseICS(res.Source, res.Body, r.loc)
		if err != nil {
			problems = append(problems, fmt.Sprintf("listing %s: parse: %v", res.Source.ListingID, err))
			continue
		}
		events = append(events, evs...)
	}

	today := datemath.StartOfDay(now)
	expanded, err := Expand(events, ExpandConfig{
		DisplayLocation: r.loc,
		RangeStart:      datemath.AddDays(today, -r.horizon),
		RangeEnd:        datemath.AddDays(today, r.horizon),
	})
	if err != nil {
		return nil, fmt.Errorf("feed: expand: %w", err)
	}

	snap := NewSnapshot(Listings(r.listings), expanded.Bookings, now)
	snap.Errors = problems
	r.store.Publish(snap)

	appLog.Info("feed refresh completed",
		"listings", len(r.listings),
		"sources", len(sources),
		"bookings", len(snap.Bookings),
		"errors", len(problems),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return snap, nil
}

// Schedule refreshes on a standard 5-field cron spec until ctx is done.
func (r *Refresher) Schedule(ctx context.Context, spec string) error {
	c := cron.New(cron.WithLocation(r.loc))
	_, err := c.AddFunc(spec, func() {
		if _, err := r.Refresh(ctx); err != nil {
			appLog.Error("scheduled feed refresh failed", err)
		}
	})
	if err != nil {
		return fmt.Errorf("feed: invalid refresh schedule %q: %w", spec, err)
	}

	c.Start()
	appLog.Info("feed refresh scheduled", "spec", spec)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		appLog.Info("feed refresh scheduler stopped")
	}()
	return nil
}
