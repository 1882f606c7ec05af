package ledger

import (
	"reflect"
	"testing"
)

func TestToggleDate_CreatesSelectionForNewDate(t *testing.T) {
	t.Parallel()

	updated := ToggleDate(nil, "2025-03-10", "alice")

	want := []DateSelection{{Date: "2025-03-10", ParticipantIDs: []string{"alice"}}}
	if !reflect.DeepEqual(updated, want) {
		t.Fatalf("unexpected selections: %#v", updated)
	}
}

func TestToggleDate_AppendsSecondParticipant(t *testing.T) {
	t.Parallel()

	selections := ToggleDate(nil, "2025-03-10", "alice")
	selections = ToggleDate(selections, "2025-03-10", "bob")

	want := []string{"alice", "bob"}
	if got := MarkedParticipants(selections, "2025-03-10"); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected participants %v, got %v", want, got)
	}
}

func TestToggleDate_RemovesParticipantKeepingOthers(t *testing.T) {
	t.Parallel()

	selections := ToggleDate(nil, "2025-03-10", "alice")
	selections = ToggleDate(selections, "2025-03-10", "bob")
	selections = ToggleDate(selections, "2025-03-10", "alice")

	want := []string{"bob"}
	if got := MarkedParticipants(selections, "2025-03-10"); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected participants %v, got %v", want, got)
	}
}

func TestToggleDate_PrunesEmptySelection(t *testing.T) {
	t.Parallel()

	selections := ToggleDate(nil, "2025-03-10", "alice")
	selections = ToggleDate(selections, "2025-03-10", "alice")

	if len(selections) != 0 {
		t.Fatalf("expected empty selection to be pruned, got %#v", selections)
	}
}

func TestToggleDate_PairwiseIdempotence(t *testing.T) {
	t.Parallel()

	initial := []DateSelection{
		{Date: "2025-03-10", ParticipantIDs: []string{"alice", "bob"}},
		{Date: "2025-03-11", ParticipantIDs: []string{"carol"}},
	}

	cases := []struct {
		name        string
		date        string
		participant string
	}{
		{name: "existing member of shared date", date: "2025-03-10", participant: "alice"},
		{name: "non-member of existing date", date: "2025-03-10", participant: "carol"},
		{name: "new date", date: "2025-03-12", participant: "bob"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			once := ToggleDate(initial, tc.date, tc.participant)
			twice := ToggleDate(once, tc.date, tc.participant)

			if !selectionsEquivalent(initial, twice) {
				t.Fatalf("double toggle did not restore state: before %#v after %#v", initial, twice)
			}
		})
	}
}

func TestToggleDate_NeverRetainsEmptySelections(t *testing.T) {
	t.Parallel()

	var selections []DateSelection
	steps := []struct{ date, participant string }{
		{"2025-03-10", "alice"},
		{"2025-03-10", "bob"},
		{"2025-03-11", "alice"},
		{"2025-03-10", "alice"},
		{"2025-03-10", "bob"},
		{"2025-03-11", "alice"},
		{"2025-03-11", "bob"},
	}

	for _, step := range steps {
		selections = ToggleDate(selections, step.date, step.participant)
		for _, selection := range selections {
			if len(selection.ParticipantIDs) == 0 {
				t.Fatalf("empty selection retained for %s after toggling %v", selection.Date, step)
			}
		}
	}
}

func TestToggleDate_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	original := []DateSelection{{Date: "2025-03-10", ParticipantIDs: []string{"alice"}}}
	snapshot := cloneSelections(original)

	ToggleDate(original, "2025-03-10", "bob")
	ToggleDate(original, "2025-03-10", "alice")

	if !reflect.DeepEqual(original, snapshot) {
		t.Fatalf("input slice was mutated: %#v", original)
	}
}

func TestAddOption_StartsWithEmptyVotes(t *testing.T) {
	t.Parallel()

	options := AddOption(nil, "opt-1", "18:00~19:00")

	if len(options) != 1 {
		t.Fatalf("expected one option, got %d", len(options))
	}
	if options[0].Time != "18:00~19:00" {
		t.Fatalf("unexpected label %q", options[0].Time)
	}
	if len(options[0].Votes) != 0 {
		t.Fatalf("expected empty vote set, got %v", options[0].Votes)
	}
}

func TestToggleVote_AddsAndRemovesVote(t *testing.T) {
	t.Parallel()

	options := AddOption(nil, "opt-1", "18:00~19:00")

	options, ok := ToggleVote(options, "opt-1", "alice")
	if !ok {
		t.Fatal("expected option to be found")
	}
	if want := []string{"alice"}; !reflect.DeepEqual(options[0].Votes, want) {
		t.Fatalf("expected votes %v, got %v", want, options[0].Votes)
	}

	options, _ = ToggleVote(options, "opt-1", "alice")
	if len(options[0].Votes) != 0 {
		t.Fatalf("expected vote removed, got %v", options[0].Votes)
	}
}

func TestToggleVote_RetainsZeroVoteOption(t *testing.T) {
	t.Parallel()

	options := AddOption(nil, "opt-1", "18:00~19:00")
	options, _ = ToggleVote(options, "opt-1", "alice")
	options, _ = ToggleVote(options, "opt-1", "alice")

	if len(options) != 1 {
		t.Fatalf("zero-vote option must be retained, got %#v", options)
	}
}

func TestToggleVote_NeverDuplicatesVotes(t *testing.T) {
	t.Parallel()

	options := AddOption(nil, "opt-1", "18:00~19:00")
	steps := []string{"alice", "bob", "alice", "alice", "bob", "bob", "alice"}

	for _, participant := range steps {
		options, _ = ToggleVote(options, "opt-1", participant)
		seen := make(map[string]int)
		for _, vote := range options[0].Votes {
			seen[vote]++
			if seen[vote] > 1 {
				t.Fatalf("duplicate vote for %s: %v", vote, options[0].Votes)
			}
		}
	}
}

func TestToggleVote_UnknownOptionLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	options := AddOption(nil, "opt-1", "18:00~19:00")

	updated, ok := ToggleVote(options, "missing", "alice")
	if ok {
		t.Fatal("expected unknown option to report not found")
	}
	if !reflect.DeepEqual(updated, options) {
		t.Fatalf("unexpected change: %#v", updated)
	}
}

func TestRemoveOption_IsIdempotent(t *testing.T) {
	t.Parallel()

	options := AddOption(nil, "opt-1", "18:00~19:00")
	options = AddOption(options, "opt-2", "19:00~20:00")

	options, removed := RemoveOption(options, "opt-1")
	if !removed {
		t.Fatal("expected option to be removed")
	}
	if len(options) != 1 || options[0].ID != "opt-2" {
		t.Fatalf("unexpected remaining options %#v", options)
	}

	options, removed = RemoveOption(options, "opt-1")
	if removed {
		t.Fatal("second removal must be a no-op")
	}
	if len(options) != 1 {
		t.Fatalf("unexpected options after repeated removal %#v", options)
	}
}

func TestColorAt_CyclesThroughPalette(t *testing.T) {
	t.Parallel()

	for i := 0; i < len(ParticipantColors)+1; i++ {
		want := ParticipantColors[i%len(ParticipantColors)]
		if got := ColorAt(i); got != want {
			t.Fatalf("participant %d: expected %s, got %s", i, want, got)
		}
	}

	// The ninth participant in an eight-color palette wraps to the first color.
	if got := ColorAt(8); got != ParticipantColors[0] {
		t.Fatalf("expected wraparound to first color, got %s", got)
	}
}

// selectionsEquivalent compares selections ignoring the order of the outer
// slice, since a pruned and recreated date may land at a different position.
func selectionsEquivalent(a, b []DateSelection) bool {
	if len(a) != len(b) {
		return false
	}
	byDate := make(map[string][]string, len(a))
	for _, selection := range a {
		byDate[selection.Date] = selection.ParticipantIDs
	}
	for _, selection := range b {
		participants, ok := byDate[selection.Date]
		if !ok || len(participants) != len(selection.ParticipantIDs) {
			return false
		}
		members := make(map[string]struct{}, len(participants))
		for _, id := range participants {
			members[id] = struct{}{}
		}
		for _, id := range selection.ParticipantIDs {
			if _, ok := members[id]; !ok {
				return false
			}
		}
	}
	return true
}
