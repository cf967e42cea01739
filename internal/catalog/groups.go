package catalog

import (
	"sort"
	"strings"
)

// WildcardTag matches every item regardless of its declared tags.
const WildcardTag = "any"

// GroupIndex maps a tag to the ids of the items carrying it.
// Tags are matched case-insensitively. It is rebuilt wholesale on catalog load.
type GroupIndex struct {
	groups map[string]map[ItemID]struct{}
}

// NormalizeTag returns the index key for a tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func buildGroupIndex(items []Item) GroupIndex {
	groups := map[string]map[ItemID]struct{}{
		WildcardTag: make(map[ItemID]struct{}, len(items)),
	}
	for _, it := range items {
		groups[WildcardTag][it.ID] = struct{}{}
		for _, tag := range it.Tags {
			key := NormalizeTag(tag)
			if key == "" || key == WildcardTag {
				continue
			}
			if groups[key] == nil {
				groups[key] = make(map[ItemID]struct{})
			}
			groups[key][it.ID] = struct{}{}
		}
	}
	return GroupIndex{groups: groups}
}

// GroupsFor returns the union of the id sets for tags. The result is empty
// when none of the tags are known.
func (g GroupIndex) GroupsFor(tags []string) map[ItemID]struct{} {
	out := make(map[ItemID]struct{})
	for _, tag := range tags {
		for id := range g.groups[NormalizeTag(tag)] {
			out[id] = struct{}{}
		}
	}
	return out
}

// Tags returns every known tag except the wildcard, sorted.
func (g GroupIndex) Tags() []string {
	tags := make([]string, 0, len(g.groups))
	for tag := range g.groups {
		if tag != WildcardTag {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}

// Has reports whether tag names a group.
func (g GroupIndex) Has(tag string) bool {
	_, ok := g.groups[NormalizeTag(tag)]
	return ok
}
