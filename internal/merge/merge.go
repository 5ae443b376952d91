/*
Package merge reconciles freshly scraped announcements with a previously
cached snapshot of the same date so that detail text is not fetched twice.
*/
package merge

import "github.com/shanehull/regscraper/internal/types"

// Result is the outcome of Reconcile.
type Result struct {
	// Announcements holds the fresh announcements in input order, with
	// Details copied from their cached counterpart where one was found.
	Announcements []types.Announcement
	// Pending lists the indices into Announcements that still need a fetch.
	Pending []int
	// Reused counts announcements whose details came from the cache.
	Reused int
}

// Reconcile matches every fresh announcement against existing. A cached entry
// is a candidate when its id is empty or equal to the fresh id, and type,
// court and register number are equal. Details are reused only when exactly
// one candidate exists; otherwise the announcement is pending.
func Reconcile(existing, fresh []types.Announcement) Result {
	res := Result{Announcements: make([]types.Announcement, len(fresh))}

	for i, ann := range fresh {
		res.Announcements[i] = ann

		if match, ok := uniqueMatch(existing, ann); ok {
			res.Announcements[i].Details = match.Details
			res.Reused++
			continue
		}
		res.Pending = append(res.Pending, i)
	}

	return res
}

func uniqueMatch(existing []types.Announcement, ann types.Announcement) (types.Announcement, bool) {
	var (
		found types.Announcement
		count int
	)

	for _, cached := range existing {
		if !matches(cached, ann) {
			continue
		}
		count++
		if count > 1 {
			return types.Announcement{}, false
		}
		found = cached
	}

	return found, count == 1
}

func matches(cached, fresh types.Announcement) bool {
	return (cached.ID == "" || cached.ID == fresh.ID) &&
		cached.Type == fresh.Type &&
		cached.Amtsgericht == fresh.Amtsgericht &&
		cached.Registernummer() == fresh.Registernummer()
}
