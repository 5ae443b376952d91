package run

import (
	"sort"
	"strconv"

	"github.com/shanehull/regscraper/internal/types"
)

// State is a step of the run state machine.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateSkippingCached
	StateFetchingPerDate
	StateMerging
	StateFetchingDetails
	StatePersisting
	StateReporting
)

var stateNames = [...]string{
	StateIdle:            "idle",
	StateResolving:       "resolving",
	StateSkippingCached:  "skipping-cached",
	StateFetchingPerDate: "fetching-per-date",
	StateMerging:         "merging",
	StateFetchingDetails: "fetching-details",
	StatePersisting:      "persisting",
	StateReporting:       "reporting",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// DayStats describes the work done for one date.
type DayStats struct {
	Date          string
	Announcements int
	Fetched       int
	Reused        int
	Failed        int
}

// TypeCount is one row of the announcement type breakdown.
type TypeCount struct {
	Type  string
	Count int
}

// Stats accumulates the counters printed after a run.
type Stats struct {
	TotalDates    int
	Processed     int
	Skipped       int
	Announcements int
	Fetched       int
	Reused        int
	Failed        int
	NothingToDo   bool
	Days          []DayStats

	byType map[string]int
}

// NewStats returns empty statistics.
func NewStats() Stats {
	return Stats{byType: make(map[string]int)}
}

// AddDay records a persisted date and its announcements.
func (s *Stats) AddDay(d DayStats, anns []types.Announcement) {
	if s.byType == nil {
		s.byType = make(map[string]int)
	}

	s.Processed++
	s.Announcements += d.Announcements
	s.Fetched += d.Fetched
	s.Reused += d.Reused
	s.Failed += d.Failed
	s.Days = append(s.Days, d)

	for _, a := range anns {
		s.byType[a.Type]++
	}
}

// Types returns the per-type counts, most frequent first, ties by name.
func (s Stats) Types() []TypeCount {
	out := make([]TypeCount, 0, len(s.byType))
	for t, c := range s.byType {
		out = append(out, TypeCount{Type: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// SortByID orders announcements by id. Numeric ids compare numerically and
// sort before other ids, which compare lexically; empty ids go last. Equal
// ids keep their order.
func SortByID(anns []types.Announcement) {
	sort.SliceStable(anns, func(i, j int) bool {
		return lessID(anns[i].ID, anns[j].ID)
	})
}

func lessID(a, b string) bool {
	if a == "" || b == "" {
		return a != "" && b == ""
	}

	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
