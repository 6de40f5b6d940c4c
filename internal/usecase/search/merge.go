package search

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/index"
)

// minTitleTokenRunes keeps one- and two-letter query words (articles,
// prepositions) from marking every name a title hit.
const minTitleTokenRunes = 3

// mergeRecords joins the two legs: annotates title hits from the original
// query, deduplicates across sources, and ranks. The caller truncates after.
func mergeRecords(remote, local []domain.Record, query string) []domain.Record {
	annotateTitleHits(remote, query)
	annotateTitleHits(local, query)

	merged := dedupRecords(local, remote)
	rankRecords(merged)
	return merged
}

// annotateTitleHits ORs TitleHit in when the record name contains a word of
// the original user query. Refined rewrites never feed this.
func annotateTitleHits(records []domain.Record, query string) {
	tokens := titleTokens(query)
	if len(tokens) == 0 {
		return
	}
	for i := range records {
		if records[i].TitleHit {
			continue
		}
		name := strings.ToLower(records[i].Name)
		for _, tok := range tokens {
			if strings.Contains(name, tok) {
				records[i].TitleHit = true
				break
			}
		}
	}
}

func titleTokens(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, `.,;:!?"'()[]`)
		if len([]rune(f)) >= minTitleTokenRunes {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// dedupRecords collapses records describing the same document. Semantic
// records come first so the scored copy is the one kept; the remote twin
// fills in whatever the kept copy is missing (link, mime, size, time).
//
// Two records are the same document when their ids are equal, or when their
// normalized names are equal and the ids cannot conflict — a loader-derived
// id identifies an artifact row, not a remote file, so it never conflicts;
// two differing provider ids always do.
func dedupRecords(local, remote []domain.Record) []domain.Record {
	out := make([]domain.Record, 0, len(local)+len(remote))
	byID := make(map[string]int, len(local))
	byName := make(map[string]int, len(local))

	for _, r := range local {
		out = append(out, r)
		i := len(out) - 1
		if r.ID != "" {
			byID[r.ID] = i
		}
		if name := r.NormalizedName(); name != "" {
			if _, ok := byName[name]; !ok {
				byName[name] = i
			}
		}
	}

	for _, r := range remote {
		if r.ID != "" {
			if i, ok := byID[r.ID]; ok {
				out[i].FillFrom(r)
				continue
			}
		}
		if i, ok := byName[r.NormalizedName()]; ok {
			kept := &out[i]
			if idsCompatible(kept.ID, r.ID) {
				kept.FillFrom(r)
				continue
			}
		}
		out = append(out, r)
	}

	return out
}

func idsCompatible(a, b string) bool {
	if a == "" || b == "" || a == b {
		return true
	}
	return index.IsDerivedID(a) || index.IsDerivedID(b)
}

// rankRecords orders the merged set: title hits first, then score descending
// with score-less records after all scored ones, then modification time
// descending with absent after present, then id ascending and source for a
// total order.
func rankRecords(records []domain.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return lessRecord(records[i], records[j])
	})
}

func lessRecord(a, b domain.Record) bool {
	if a.TitleHit != b.TitleHit {
		return a.TitleHit
	}

	switch {
	case a.Score != nil && b.Score != nil:
		if *a.Score != *b.Score {
			return *a.Score > *b.Score
		}
	case a.Score != nil:
		return true
	case b.Score != nil:
		return false
	}

	switch {
	case a.ModifiedTime != nil && b.ModifiedTime != nil:
		if !a.ModifiedTime.Equal(*b.ModifiedTime) {
			return a.ModifiedTime.After(*b.ModifiedTime)
		}
	case a.ModifiedTime != nil:
		return true
	case b.ModifiedTime != nil:
		return false
	}

	if a.ID != b.ID {
		return a.ID < b.ID
	}
	return a.Source < b.Source
}
