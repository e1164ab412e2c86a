package standup

import (
	"fmt"
	"sort"
	"strings"

	"standup-bot/internal/models"
)

// Uncategorized is the category label of users outside every category.
const Uncategorized = "Uncategorized"

// MatchesMember reports whether an update author is the configured member.
// Drafted updates are authored as "Display Name (@handle)", single-shot ones
// by the bare handle.
func MatchesMember(author, member string) bool {
	member = strings.TrimPrefix(strings.TrimSpace(member), "@")
	if member == "" {
		return false
	}
	author = strings.TrimSpace(author)
	if strings.EqualFold(strings.TrimPrefix(author, "@"), member) {
		return true
	}
	return strings.HasSuffix(strings.ToLower(author), "(@"+strings.ToLower(member)+")")
}

// CategoriesOf returns the sorted categories whose members include user.
func CategoriesOf(g *models.GroupRecord, user string) []string {
	var out []string
	for name, members := range g.MemberCategories {
		for _, m := range members {
			if MatchesMember(user, m) {
				out = append(out, name)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// AddResult reports what /addMember changed.
type AddResult struct {
	Category string
	Added    []string
	Already  []string
}

// RemoveResult reports what /removeMember changed.
type RemoveResult struct {
	Removed           []string
	NotFound          []string
	EmptiedCategories []string
}

// AddMembers adds users to category in the group. Category names are
// lower-cased.
func (s *Service) AddMembers(groupID int64, category string, users []string) (AddResult, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" || len(users) == 0 {
		return AddResult{}, fmt.Errorf("%w: category and at least one username required", ErrInvalidFormat)
	}

	g := s.store.Group(groupID)
	res := AddResult{Category: category}
	members := g.MemberCategories[category]
	for _, u := range users {
		if contains(members, u) {
			res.Already = append(res.Already, u)
			continue
		}
		members = append(members, u)
		res.Added = append(res.Added, u)
	}
	g.MemberCategories[category] = members
	s.store.Persist()
	return res, nil
}

// RemoveMembers removes users from every category and drops categories left
// empty.
func (s *Service) RemoveMembers(groupID int64, users []string) (RemoveResult, error) {
	if len(users) == 0 {
		return RemoveResult{}, fmt.Errorf("%w: at least one username required", ErrInvalidFormat)
	}

	g := s.store.Group(groupID)
	var res RemoveResult
	for _, u := range users {
		found := false
		for name, members := range g.MemberCategories {
			kept := members[:0]
			for _, m := range members {
				if m == u {
					found = true
					continue
				}
				kept = append(kept, m)
			}
			g.MemberCategories[name] = kept
		}
		if found {
			res.Removed = append(res.Removed, u)
		} else {
			res.NotFound = append(res.NotFound, u)
		}
	}
	for name, members := range g.MemberCategories {
		if len(members) == 0 {
			delete(g.MemberCategories, name)
			res.EmptiedCategories = append(res.EmptiedCategories, name)
		}
	}
	sort.Strings(res.EmptiedCategories)
	s.store.Persist()
	return res, nil
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// ParseAddMember splits an /addMember payload into a category and usernames.
// A category containing spaces must be quoted: `"Sales Team" alice, bob`.
func ParseAddMember(payload string) (string, []string, error) {
	payload = strings.TrimSpace(payload)
	var category, rest string
	if strings.HasPrefix(payload, `"`) {
		end := strings.Index(payload[1:], `"`)
		if end < 0 {
			return "", nil, fmt.Errorf("%w: unterminated category quote", ErrInvalidFormat)
		}
		category, rest = payload[1:end+1], payload[end+2:]
	} else {
		var ok bool
		category, rest, ok = strings.Cut(payload, " ")
		if !ok {
			return "", nil, fmt.Errorf("%w: usage /addMember [category] [usernames]", ErrInvalidFormat)
		}
	}
	category = strings.TrimSpace(category)
	users := ParseUsernames(rest)
	if category == "" || len(users) == 0 {
		return "", nil, fmt.Errorf("%w: usage /addMember [category] [usernames]", ErrInvalidFormat)
	}
	return category, users, nil
}

// ParseUsernames splits a comma separated list, stripping whitespace and '@'.
func ParseUsernames(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimPrefix(strings.TrimSpace(part), "@")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
