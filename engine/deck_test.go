package engine

import (
	"fmt"
	"testing"
)

// testCatalogCards builds n archive-eligible catalog cards with ids c1..cn.
func testCatalogCards(n int) []HistoricalCard {
	cards := make([]HistoricalCard, n)
	for i := range cards {
		cards[i] = HistoricalCard{
			ID:             fmt.Sprintf("c%d", i+1),
			SequenceNumber: i + 1,
			SourceType:     SourceLetter,
			IsArchive:      true,
		}
	}
	return cards
}

// TestBuildInstancesExactSize verifies the pool is exactly targetSize even
// when the catalog is smaller or larger than the target.
func TestBuildInstancesExactSize(t *testing.T) {
	for _, catalogSize := range []int{1, 3, 20, 150} {
		instances := buildInstances(testCatalogCards(catalogSize), 110)
		if len(instances) != 110 {
			t.Errorf("catalog %d: got %d instances, want 110", catalogSize, len(instances))
		}
	}
}

// TestBuildInstancesDistinctIDs verifies every instance id is unique while
// catalog ids repeat by cycling.
func TestBuildInstancesDistinctIDs(t *testing.T) {
	instances := buildInstances(testCatalogCards(4), 110)

	seen := make(map[string]bool)
	perCard := make(map[string]int)
	for _, inst := range instances {
		if seen[inst.InstanceID] {
			t.Errorf("duplicate instance id %q", inst.InstanceID)
		}
		seen[inst.InstanceID] = true
		perCard[inst.CardID]++
	}
	// 110 copies over 4 cards cycling from the start: first two cards get
	// 28 copies, the rest 27.
	if perCard["c1"] != 28 || perCard["c3"] != 27 {
		t.Errorf("copy distribution = %v, want cycling from the start", perCard)
	}
}

// TestBuildInstancesSkipsNonArchive verifies non-archive cards never enter
// the pool.
func TestBuildInstancesSkipsNonArchive(t *testing.T) {
	cards := testCatalogCards(3)
	cards[1].IsArchive = false
	for _, inst := range buildInstances(cards, 30) {
		if inst.CardID == "c2" {
			t.Fatalf("non-archive card c2 appeared in pool")
		}
	}
}

// TestBuildInstancesEmptyCatalog verifies an empty (or fully ineligible)
// catalog yields no pool instead of looping.
func TestBuildInstancesEmptyCatalog(t *testing.T) {
	if got := buildInstances(nil, 110); got != nil {
		t.Errorf("nil catalog: got %d instances, want none", len(got))
	}
	cards := testCatalogCards(2)
	cards[0].IsArchive = false
	cards[1].IsArchive = false
	if got := buildInstances(cards, 110); got != nil {
		t.Errorf("ineligible catalog: got %d instances, want none", len(got))
	}
}

// TestShuffleZonePermutation verifies shuffling preserves the multiset of
// ids.
func TestShuffleZonePermutation(t *testing.T) {
	s := Session{RNG: 42}
	zone := make([]string, 50)
	for i := range zone {
		zone[i] = fmt.Sprintf("id%d", i)
	}
	before := make(map[string]int)
	for _, id := range zone {
		before[id]++
	}

	s.shuffleZone(zone)

	after := make(map[string]int)
	for _, id := range zone {
		after[id]++
	}
	if len(after) != len(before) {
		t.Fatalf("shuffle changed id set: %d vs %d", len(after), len(before))
	}
	for id, n := range before {
		if after[id] != n {
			t.Errorf("id %q count = %d, want %d", id, after[id], n)
		}
	}
}

// TestShuffleZoneDeterministic verifies the same RNG state produces the
// same permutation.
func TestShuffleZoneDeterministic(t *testing.T) {
	mk := func() []string {
		zone := make([]string, 20)
		for i := range zone {
			zone[i] = fmt.Sprintf("id%d", i)
		}
		return zone
	}
	s1 := Session{RNG: 99}
	s2 := Session{RNG: 99}
	z1, z2 := mk(), mk()
	s1.shuffleZone(z1)
	s2.shuffleZone(z2)
	for i := range z1 {
		if z1[i] != z2[i] {
			t.Fatalf("position %d differs: %q vs %q", i, z1[i], z2[i])
		}
	}
	if s1.RNG != s2.RNG {
		t.Errorf("RNG state diverged: %d vs %d", s1.RNG, s2.RNG)
	}
}

// TestRemoveOne verifies first-occurrence removal and the not-found path.
func TestRemoveOne(t *testing.T) {
	zone := []string{"a", "b", "a", "c"}

	out, ok := removeOne(zone, "a")
	if !ok {
		t.Fatal("removeOne(a) failed")
	}
	want := []string{"b", "a", "c"}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out = %v, want %v", out, want)
		}
	}

	if _, ok := removeOne(zone, "z"); ok {
		t.Error("removeOne(z) succeeded on absent id")
	}
}
