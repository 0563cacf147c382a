package store

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sesgocero/crawler/internal/types"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func oid(b byte) primitive.ObjectID {
	var id primitive.ObjectID
	id[11] = b
	return id
}

func TestClassifyUpsert(t *testing.T) {
	cases := []struct {
		name                        string
		matched, modified, upserted int64
		want                        Outcome
	}{
		{"fresh insert", 0, 0, 1, OutcomeInserted},
		{"content changed", 1, 1, 0, OutcomeUpdated},
		{"identical resubmission", 1, 0, 0, OutcomeUnchanged},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyUpsert(tc.matched, tc.modified, tc.upserted); got != tc.want {
				t.Errorf("classifyUpsert(%d,%d,%d) = %v, want %v", tc.matched, tc.modified, tc.upserted, got, tc.want)
			}
		})
	}
}

func TestUpsertUpdateShape(t *testing.T) {
	a := &types.Article{
		Title:                "Titular",
		Subtitle:             "Bajada",
		Content:              "cuerpo",
		URL:                  "https://example.com/a",
		Source:               "Test",
		PoliticalOrientation: "unknown",
		Date:                 datePtr(2024, time.March, 15),
	}

	update := upsertUpdate(a)

	set, ok := update["$set"].(bson.M)
	if !ok {
		t.Fatal("missing $set")
	}
	for _, field := range []string{"title", "subtitle", "content", "source", "date"} {
		if _, ok := set[field]; !ok {
			t.Errorf("$set missing %q", field)
		}
	}
	// Identity and downstream flags must never ride $set: a re-crawl
	// of a cleaned article would otherwise reset the flag.
	for _, field := range []string{"url", "cleaned", "political_orientation"} {
		if _, ok := set[field]; ok {
			t.Errorf("$set must not contain %q", field)
		}
	}

	onInsert, ok := update["$setOnInsert"].(bson.M)
	if !ok {
		t.Fatal("missing $setOnInsert")
	}
	if cleaned, ok := onInsert["cleaned"].(bool); !ok || cleaned {
		t.Errorf("cleaned default = %v, want false", onInsert["cleaned"])
	}
	if onInsert["political_orientation"] != "unknown" {
		t.Errorf("political_orientation = %v", onInsert["political_orientation"])
	}
}

func TestPickSurvivorMostRecentDate(t *testing.T) {
	// Stored order: 2024-01-01, null, 2024-02-01. With the null
	// sorting as minimum, the 2024-02-01 member survives.
	docs := []duplicateDoc{
		{ID: oid(1), Date: datePtr(2024, time.January, 1)},
		{ID: oid(2), Date: nil},
		{ID: oid(3), Date: datePtr(2024, time.February, 1)},
	}
	if got := pickSurvivor(docs); got != 2 {
		t.Errorf("survivor = %d, want 2", got)
	}

	// Most recent in the middle.
	docs = []duplicateDoc{
		{ID: oid(1), Date: datePtr(2024, time.January, 1)},
		{ID: oid(2), Date: datePtr(2024, time.March, 1)},
		{ID: oid(3), Date: datePtr(2024, time.February, 1)},
	}
	if got := pickSurvivor(docs); got != 1 {
		t.Errorf("survivor = %d, want 1", got)
	}
}

func TestPickSurvivorTieBreak(t *testing.T) {
	// All dates missing: the earliest-stored member survives.
	docs := []duplicateDoc{
		{ID: oid(1)}, {ID: oid(2)}, {ID: oid(3)},
	}
	if got := pickSurvivor(docs); got != 0 {
		t.Errorf("survivor = %d, want 0 (earliest stored)", got)
	}

	// Equal dates: same rule.
	docs = []duplicateDoc{
		{ID: oid(1), Date: datePtr(2024, time.May, 1)},
		{ID: oid(2), Date: datePtr(2024, time.May, 1)},
	}
	if got := pickSurvivor(docs); got != 0 {
		t.Errorf("survivor = %d, want 0 for equal dates", got)
	}
}

func TestOutcomeString(t *testing.T) {
	if OutcomeInserted.String() != "inserted" ||
		OutcomeUpdated.String() != "updated" ||
		OutcomeUnchanged.String() != "unchanged" {
		t.Error("unexpected outcome strings")
	}
}
