package store

import (
	"testing"

	"github.com/dukerupert/footprint/internal/model"
)

func TestTipListActiveByCategory(t *testing.T) {
	ts := NewTipStore(setupTestDB(t))

	tips := []model.ReductionTip{
		{Title: "A", Category: "energy", PotentialSavings: 200, Active: true},
		{Title: "B", Category: "energy", PotentialSavings: 800, Active: true},
		{Title: "C", Category: "energy", PotentialSavings: 3000, Active: false},
		{Title: "D", Category: "energy", PotentialSavings: 300, Active: true},
		{Title: "E", Category: "energy", PotentialSavings: 150, Active: true},
		{Title: "F", Category: "diet", PotentialSavings: 999, Active: true},
	}
	for _, tip := range tips {
		if _, err := ts.Create(tip); err != nil {
			t.Fatalf("create tip %s: %v", tip.Title, err)
		}
	}

	got, err := ts.ListActiveByCategory("energy", 3)
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	want := []string{"B", "D", "A"}
	if len(got) != len(want) {
		t.Fatalf("tips = %d, want %d", len(got), len(want))
	}
	for i, title := range want {
		if got[i].Title != title {
			t.Errorf("tips[%d] = %q, want %q", i, got[i].Title, title)
		}
	}
}

func TestTipCreateDefaultsDifficulty(t *testing.T) {
	ts := NewTipStore(setupTestDB(t))

	tip, err := ts.Create(model.ReductionTip{Title: "LEDs", Category: "energy", Active: true})
	if err != nil {
		t.Fatalf("create tip: %v", err)
	}
	if tip.Difficulty != "easy" {
		t.Errorf("difficulty = %q, want %q", tip.Difficulty, "easy")
	}
	if !tip.Active {
		t.Error("expected tip to be active")
	}
}

func TestTipSeedIdempotent(t *testing.T) {
	ts := NewTipStore(setupTestDB(t))

	catalog := []model.ReductionTip{
		{Title: "One", Category: "energy", Difficulty: "easy", PotentialSavings: 1},
		{Title: "Two", Category: "diet", Difficulty: "medium", PotentialSavings: 2},
	}

	n, err := ts.Seed(catalog)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 2 {
		t.Errorf("added = %d, want 2", n)
	}

	n, err = ts.Seed(catalog)
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if n != 0 {
		t.Errorf("added on reseed = %d, want 0", n)
	}

	all, err := ts.ListActive()
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("tips = %d, want 2", len(all))
	}
}

func TestTipSetActive(t *testing.T) {
	ts := NewTipStore(setupTestDB(t))

	tip, err := ts.Create(model.ReductionTip{Title: "Solar", Category: "energy", PotentialSavings: 3000, Active: true})
	if err != nil {
		t.Fatalf("create tip: %v", err)
	}
	if err := ts.SetActive(tip.ID, false); err != nil {
		t.Fatalf("set active: %v", err)
	}

	got, err := ts.ListActiveByCategory("energy", 3)
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("active tips = %d, want 0", len(got))
	}
}
