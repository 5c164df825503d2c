package slots

import (
	"sort"
	"testing"
)

func TestGenerate(t *testing.T) {
	cases := []struct {
		step  Step
		count int
		last  string
	}{
		{HalfHour, 48, "23:30:00"},
		{Hour, 24, "23:00:00"},
	}
	for _, tc := range cases {
		got := Generate(tc.step)
		if len(got) != tc.count {
			t.Fatalf("step %d: expected %d slots, got %d", tc.step.Minutes(), tc.count, len(got))
		}
		if got[0] != "00:00:00" || got[len(got)-1] != tc.last {
			t.Fatalf("step %d: unexpected bounds %s..%s", tc.step.Minutes(), got[0], got[len(got)-1])
		}
		if !sort.StringsAreSorted(got) {
			t.Fatalf("step %d: slots are not ascending", tc.step.Minutes())
		}
	}
}

func TestGenerateIsFreshEachCall(t *testing.T) {
	a := Generate(Hour)
	a[0] = "mutated"
	if b := Generate(Hour); b[0] != "00:00:00" {
		t.Fatalf("expected independent slices, got %s", b[0])
	}
}

func TestParseStep(t *testing.T) {
	if s, err := ParseStep(30); err != nil || s != HalfHour {
		t.Fatalf("expected half hour, got %v (%v)", s, err)
	}
	if s, err := ParseStep(60); err != nil || s != Hour {
		t.Fatalf("expected hour, got %v (%v)", s, err)
	}
	for _, bad := range []int{0, 15, 45, 90} {
		if _, err := ParseStep(bad); err == nil {
			t.Fatalf("expected error for %d", bad)
		}
	}
}
