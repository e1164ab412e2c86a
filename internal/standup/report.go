package standup

import (
	"sort"
	"time"

	"standup-bot/internal/messages"
	"standup-bot/internal/models"
)

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// SubmittedToday returns the group's entries dated on now's UTC day.
func SubmittedToday(g *models.GroupRecord, now time.Time) []models.UpdateEntry {
	var out []models.UpdateEntry
	for _, e := range g.StandUpLogs {
		if sameDay(e.Date, now) {
			out = append(out, e)
		}
	}
	return out
}

// ExpectedMembers lists every configured member once, in category order.
func ExpectedMembers(g *models.GroupRecord) []string {
	seen := map[string]bool{}
	var out []string
	for _, name := range categoryNames(g) {
		for _, m := range g.MemberCategories[name] {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

func categoryNames(g *models.GroupRecord) []string {
	names := make([]string, 0, len(g.MemberCategories))
	for name := range g.MemberCategories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func submitted(entries []models.UpdateEntry, member string) bool {
	for _, e := range entries {
		if MatchesMember(e.User, member) {
			return true
		}
	}
	return false
}

// MissingMembers returns configured members without an update dated today.
func MissingMembers(g *models.GroupRecord, now time.Time) []string {
	today := SubmittedToday(g, now)
	var out []string
	for _, m := range ExpectedMembers(g) {
		if !submitted(today, m) {
			out = append(out, m)
		}
	}
	return out
}

// Report is the data behind /showStandup and /missing.
type Report struct {
	Blocks    []messages.CategoryUpdates
	Pending   []string
	Missing   []messages.MissingMember
	Submitted int
	Total     int
	Empty     bool
}

// BuildReport groups today's entries by category. Entries of users outside
// every category come last under Uncategorized.
func BuildReport(g *models.GroupRecord, now time.Time) Report {
	today := SubmittedToday(g, now)
	r := Report{Empty: len(today) == 0}

	for _, name := range categoryNames(g) {
		block := messages.CategoryUpdates{Category: name}
		for _, e := range today {
			for _, m := range g.MemberCategories[name] {
				if MatchesMember(e.User, m) {
					block.Entries = append(block.Entries, e)
					break
				}
			}
		}
		if len(block.Entries) > 0 {
			r.Blocks = append(r.Blocks, block)
		}
	}
	uncategorized := messages.CategoryUpdates{Category: Uncategorized}
	for _, e := range today {
		if len(CategoriesOf(g, e.User)) == 0 {
			uncategorized.Entries = append(uncategorized.Entries, e)
		}
	}
	if len(uncategorized.Entries) > 0 {
		r.Blocks = append(r.Blocks, uncategorized)
	}

	for _, m := range ExpectedMembers(g) {
		r.Total++
		if submitted(today, m) {
			r.Submitted++
			continue
		}
		r.Pending = append(r.Pending, m)
		r.Missing = append(r.Missing, messages.MissingMember{User: m, Categories: CategoriesOf(g, m)})
	}
	return r
}

// Report builds the report for a group, creating its record if needed.
func (s *Service) Report(groupID int64) Report {
	return BuildReport(s.store.Group(groupID), s.Now())
}
