package internaldefs

import (
	"strings"
	"testing"
)

func TestCounterDefsUniqueAndPrefixed(t *testing.T) {
	seenID := map[uint16]bool{}
	seenName := map[string]bool{}
	for _, def := range CounterDefs {
		if seenID[uint16(def.ID)] {
			t.Fatalf("duplicate metric id %d", def.ID)
		}
		if seenName[def.Name] {
			t.Fatalf("duplicate metric name %s", def.Name)
		}
		seenID[uint16(def.ID)] = true
		seenName[def.Name] = true
		if !strings.HasPrefix(def.Name, "guardian_") || !strings.HasSuffix(def.Name, "_total") {
			t.Fatalf("unexpected counter name %q", def.Name)
		}
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [BucketCount]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("CumulativeBuckets = %v, want %v", got, want)
	}
}

func TestHistogramBoundsSeconds(t *testing.T) {
	bounds := HistogramBounds()
	if len(bounds) != BucketCount-1 {
		t.Fatalf("len(bounds) = %d", len(bounds))
	}
	if bounds[0] != 0.005 || bounds[len(bounds)-1] != 0.5 {
		t.Fatalf("bounds = %v", bounds)
	}
}
