package search

import (
	"testing"
	"time"

	"github.com/kailas-cloud/docdex/internal/domain"
)

func scorePtr(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

// --- annotateTitleHits tests ---

func TestAnnotateTitleHits(t *testing.T) {
	records := []domain.Record{
		{Name: "Factura-Martie-2024.pdf"},
		{Name: "Contract cadru.docx"},
		{Name: "notes.txt"},
	}

	annotateTitleHits(records, "factura pe martie")

	if !records[0].TitleHit {
		t.Error("name containing a query word should be a title hit")
	}
	if records[1].TitleHit || records[2].TitleHit {
		t.Error("unrelated names should not be title hits")
	}
}

func TestAnnotateTitleHits_ShortTokensIgnored(t *testing.T) {
	records := []domain.Record{{Name: "de-report.pdf"}}

	annotateTitleHits(records, "de la")

	if records[0].TitleHit {
		t.Error("one- and two-letter query words should not mark hits")
	}
}

func TestAnnotateTitleHits_PreservesExistingHit(t *testing.T) {
	records := []domain.Record{{Name: "misc.bin", TitleHit: true}}

	annotateTitleHits(records, "unrelated")

	if !records[0].TitleHit {
		t.Error("an already-set hit must survive re-annotation")
	}
}

// --- dedupRecords tests ---

func TestDedup_SameID(t *testing.T) {
	local := []domain.Record{
		{ID: "f1", Source: domain.SourceLocal, Name: "Invoice March", Score: scorePtr(0.9), Snippet: "total 42"},
	}
	remote := []domain.Record{
		{ID: "f1", Source: domain.SourceRemote, Name: "Invoice March", Link: "https://drive/f1", MimeType: "application/pdf"},
	}

	out := dedupRecords(local, remote)

	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	r := out[0]
	if r.Score == nil || *r.Score != 0.9 {
		t.Error("merged record must keep the semantic score")
	}
	if r.Link != "https://drive/f1" {
		t.Error("merged record must gain the remote link")
	}
	if r.Snippet != "total 42" {
		t.Error("merged record must keep the semantic snippet")
	}
	if r.Source != domain.SourceLocal {
		t.Error("the semantic copy is the one kept")
	}
}

func TestDedup_NameMatchWithDerivedID(t *testing.T) {
	local := []domain.Record{
		{ID: "idx-a1b2c3d4e5f60708", Source: domain.SourceLocal, Name: "  Invoice March  ", Score: scorePtr(0.8)},
	}
	remote := []domain.Record{
		{ID: "drv-999", Source: domain.SourceRemote, Name: "invoice march", Link: "https://drive/999"},
	}

	out := dedupRecords(local, remote)

	if len(out) != 1 {
		t.Fatalf("derived local id must not block a name merge, got %d records", len(out))
	}
	if out[0].Link != "https://drive/999" {
		t.Error("merged record must gain the remote link")
	}
}

func TestDedup_ConflictingProviderIDsStaySeparate(t *testing.T) {
	local := []domain.Record{
		{ID: "drv-1", Source: domain.SourceLocal, Name: "report.pdf", Score: scorePtr(0.7)},
	}
	remote := []domain.Record{
		{ID: "drv-2", Source: domain.SourceRemote, Name: "report.pdf"},
	}

	out := dedupRecords(local, remote)

	if len(out) != 2 {
		t.Fatalf("two files sharing a name with different provider ids are distinct, got %d records", len(out))
	}
}

func TestDedup_NoMatchesAppendsAll(t *testing.T) {
	local := []domain.Record{{ID: "a", Name: "alpha"}}
	remote := []domain.Record{{ID: "b", Name: "beta"}, {ID: "c", Name: "gamma"}}

	out := dedupRecords(local, remote)
	if len(out) != 3 {
		t.Fatalf("expected 3 records, got %d", len(out))
	}
}

// --- ranking tests ---

func TestRank_TitleHitBeatsScore(t *testing.T) {
	records := []domain.Record{
		{ID: "high", Score: scorePtr(0.95)},
		{ID: "hit", Score: scorePtr(0.5), TitleHit: true},
	}

	rankRecords(records)

	if records[0].ID != "hit" {
		t.Errorf("title hit must outrank a higher score, got %q first", records[0].ID)
	}
}

func TestRank_ScorelessAfterScored(t *testing.T) {
	records := []domain.Record{
		{ID: "remote", ModifiedTime: timePtr(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))},
		{ID: "low", Score: scorePtr(0.01)},
	}

	rankRecords(records)

	if records[0].ID != "low" {
		t.Error("any scored record ranks above score-less ones")
	}
}

func TestRank_ModifiedTimeDescending(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	records := []domain.Record{
		{ID: "older", ModifiedTime: &older},
		{ID: "newer", ModifiedTime: &newer},
		{ID: "undated"},
	}

	rankRecords(records)

	if records[0].ID != "newer" || records[1].ID != "older" || records[2].ID != "undated" {
		t.Errorf("unexpected order: %s, %s, %s", records[0].ID, records[1].ID, records[2].ID)
	}
}

func TestRank_IDTiebreak(t *testing.T) {
	records := []domain.Record{
		{ID: "b", Score: scorePtr(0.5)},
		{ID: "a", Score: scorePtr(0.5)},
	}

	rankRecords(records)

	if records[0].ID != "a" {
		t.Error("equal scores break ties by ascending id")
	}
}

func TestRank_ZeroScoreIsNotScoreless(t *testing.T) {
	records := []domain.Record{
		{ID: "undated-unscored"},
		{ID: "zero", Score: scorePtr(0)},
	}

	rankRecords(records)

	if records[0].ID != "zero" {
		t.Error("an explicit zero score still ranks above a missing score")
	}
}

// --- mergeRecords tests ---

func TestMergeRecords_TitleBoostScenario(t *testing.T) {
	remote := []domain.Record{
		{ID: "r1", Source: domain.SourceRemote, Name: "factura-curent.pdf"},
	}
	local := []domain.Record{
		{ID: "l1", Source: domain.SourceLocal, Name: "contract.pdf", Score: scorePtr(0.92)},
	}

	out := mergeRecords(remote, local, "factura")

	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].ID != "r1" {
		t.Errorf("title-matching record must rank first, got %q", out[0].ID)
	}
}

func TestMergeRecords_Deterministic(t *testing.T) {
	mk := func() ([]domain.Record, []domain.Record) {
		remote := []domain.Record{
			{ID: "r1", Source: domain.SourceRemote, Name: "b.pdf"},
			{ID: "r2", Source: domain.SourceRemote, Name: "a.pdf"},
		}
		local := []domain.Record{
			{ID: "l1", Source: domain.SourceLocal, Name: "c.pdf", Score: scorePtr(0.4)},
			{ID: "l2", Source: domain.SourceLocal, Name: "d.pdf", Score: scorePtr(0.4)},
		}
		return remote, local
	}

	r1, l1 := mk()
	r2, l2 := mk()
	first := mergeRecords(r1, l1, "query")
	second := mergeRecords(r2, l2, "query")

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("order differs at %d: %q vs %q", i, first[i].ID, second[i].ID)
		}
	}
}
