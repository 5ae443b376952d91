/*
Package run orchestrates one scraping run: it resolves the dates, skips what
is cached, searches the portal, parses and reconciles the entries, fetches
missing details and persists one record per date.
*/
package run

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shanehull/regscraper/internal/cache"
	"github.com/shanehull/regscraper/internal/config"
	"github.com/shanehull/regscraper/internal/dates"
	"github.com/shanehull/regscraper/internal/logger"
	"github.com/shanehull/regscraper/internal/merge"
	"github.com/shanehull/regscraper/internal/parser"
	"github.com/shanehull/regscraper/internal/portal"
	"github.com/shanehull/regscraper/internal/types"
	"github.com/shanehull/regscraper/internal/version"
)

// Source lists the announcements the portal publishes for a date range.
type Source interface {
	Search(ctx context.Context, start, end time.Time) (*types.SearchResult, error)
	Screenshot(ctx context.Context, dir string) (string, error)
}

// DetailFetcher retrieves the full text of one announcement.
type DetailFetcher interface {
	Fetch(ctx context.Context, dateToken, id string, session types.Session) (string, error)
}

// Report is the outcome of a run. It is returned even when the run fails.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Stats    Stats
	// Announcements holds every announcement persisted by this run.
	Announcements []types.Announcement
}

// Runner executes runs. Every dependency is required except Now.
type Runner struct {
	cfg     config.RunConfig
	source  Source
	store   cache.Store
	fetcher DetailFetcher
	base    logger.Interface
	log     logger.Interface
	now     func() time.Time
	state   State
}

// New creates a Runner. A nil clock defaults to time.Now.
func New(cfg config.RunConfig, source Source, store cache.Store, fetcher DetailFetcher, log logger.Interface, now func() time.Time) *Runner {
	if now == nil {
		now = time.Now
	}
	return &Runner{
		cfg:     cfg,
		source:  source,
		store:   store,
		fetcher: fetcher,
		base:    log,
		log:     log,
		now:     now,
	}
}

// Run processes every date the configuration selects.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:   uuid.NewString(),
		Started: r.now(),
		Stats:   NewStats(),
	}
	r.log = r.base.With("run_id", report.RunID)
	r.state = StateIdle
	defer func() {
		report.Finished = r.now()
		r.transition(StateReporting)
	}()

	r.transition(StateResolving)
	days, err := dates.NewResolver(r.now).Resolve(ctx, r.cfg.Dates, r.store)
	if err != nil {
		return report, err
	}
	report.Stats.TotalDates = len(days)

	r.transition(StateSkippingCached)
	todo, err := r.pending(ctx, days, &report.Stats)
	if err != nil {
		return report, err
	}
	if len(todo) == 0 {
		report.Stats.NothingToDo = true
		r.log.Info("All data for the requested dates is already cached, use --reload to download it again")
		return report, nil
	}
	r.log.Debug("Dates to download", "dates", formatDays(todo))

	r.transition(StateFetchingPerDate)
	result, err := r.source.Search(ctx, todo[0], todo[len(todo)-1])
	if err != nil {
		r.captureScreenshot(ctx, err)
		return report, fmt.Errorf("failed to search announcements: %w", err)
	}

	byDate := make(map[string][]types.RawEntry, len(result.Days))
	for _, d := range result.Days {
		key := d.Date.Format(types.DateLayout)
		byDate[key] = append(byDate[key], d.Entries...)
	}

	for _, day := range todo {
		anns, err := r.processDay(ctx, day, byDate[day.Format(types.DateLayout)], result.Session, &report.Stats)
		if err != nil {
			return report, err
		}
		report.Announcements = append(report.Announcements, anns...)
	}

	return report, nil
}

// pending returns the days that need work and counts the skipped ones.
func (r *Runner) pending(ctx context.Context, days []time.Time, stats *Stats) ([]time.Time, error) {
	var todo []time.Time
	for _, day := range days {
		if r.cfg.Reload || r.cfg.Merge {
			todo = append(todo, day)
			continue
		}

		exists, err := r.store.Exists(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("failed to check cache for %s: %w", day.Format(types.DateLayout), err)
		}
		if exists {
			r.log.Debug("Data already cached, skipping", "date", day.Format(types.DateLayout))
			stats.Skipped++
			continue
		}
		todo = append(todo, day)
	}
	return todo, nil
}

func (r *Runner) processDay(ctx context.Context, day time.Time, entries []types.RawEntry, session types.Session, stats *Stats) ([]types.Announcement, error) {
	date := day.Format(types.DateLayout)
	log := r.log.With("date", date)
	dayStats := DayStats{Date: date}

	anns := make([]types.Announcement, 0, len(entries))
	tokens := make([]parser.Interaction, 0, len(entries))
	for i, entry := range entries {
		log.Debug("Processing announcement", "index", i+1, "of", len(entries))

		ann, err := parser.Parse(entry.Lines, entry.Interaction)
		if err != nil {
			return nil, fmt.Errorf("failed to parse announcement %d on %s: %w", i+1, date, err)
		}
		ann.Date = date
		if !ann.IsSpecial() && ann.Amtsgericht == "" {
			log.Debug("Register line not recognised, keeping original text only", "id", ann.ID)
		}

		token, _ := parser.ParseInteraction(entry.Interaction)
		anns = append(anns, ann)
		tokens = append(tokens, token)
	}

	pending := allIndices(len(anns))
	if r.cfg.Merge {
		r.transition(StateMerging)
		existing, err := r.existing(ctx, day)
		if err != nil {
			return nil, err
		}
		res := merge.Reconcile(existing, anns)
		anns, pending = res.Announcements, res.Pending
		dayStats.Reused = res.Reused
	}

	r.transition(StateFetchingDetails)
	for _, i := range pending {
		token := tokens[i]
		if token.ID == "" {
			log.Warn("Failed to find link for announcement details", "index", i+1, "onclick", entries[i].Interaction)
			continue
		}

		text, err := r.fetcher.Fetch(ctx, token.DateToken, token.ID, session)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn("Failed to fetch announcement details", "id", token.ID, "error", err)
			dayStats.Failed++
			continue
		}
		if text == "" {
			log.Warn("Failed to extract announcement details", "id", token.ID, "text", anns[i].OriginalText)
			dayStats.Failed++
			continue
		}

		anns[i].Details = text
		dayStats.Fetched++
	}

	r.transition(StatePersisting)
	SortByID(anns)
	rec := types.NewDailyRecord(day, r.now(), version.Version, anns)
	if err := r.store.Write(ctx, day, rec); err != nil {
		return nil, fmt.Errorf("failed to save announcements for %s: %w", date, err)
	}
	log.Debug("Saved announcements", "count", len(anns))

	dayStats.Announcements = len(anns)
	stats.AddDay(dayStats, anns)

	return anns, nil
}

// existing returns the cached announcements of day, or nil when none are
// cached. An unreadable record is logged and treated as absent.
func (r *Runner) existing(ctx context.Context, day time.Time) ([]types.Announcement, error) {
	rec, err := r.store.Read(ctx, day)
	switch {
	case err == nil:
		return rec.Announcements, nil
	case errors.Is(err, cache.ErrNotFound):
		return nil, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		r.log.Warn("Failed to read cached record, merging against nothing", "date", day.Format(types.DateLayout), "error", err)
		return nil, nil
	}
}

func (r *Runner) captureScreenshot(ctx context.Context, err error) {
	var navErr *portal.NavigationTimeoutError
	if !errors.As(err, &navErr) {
		return
	}

	path, serr := r.source.Screenshot(context.WithoutCancel(ctx), r.cfg.ScreenshotDir)
	if serr != nil {
		r.log.Warn("Failed to capture screenshot", "error", serr)
		return
	}
	r.log.Error("Navigation timed out, screenshot saved", "path", path, "step", navErr.Step)
}

func (r *Runner) transition(s State) {
	r.log.Debug("State changed", "from", r.state.String(), "to", s.String())
	r.state = s
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func formatDays(days []time.Time) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Format("2006-01-02 (Mon)")
	}
	return out
}
