// Package ledger implements the pure reconciliation rules for shared group
// schedule state: per-date availability marks and per-option vote sets.
//
// All functions are side effect free and never mutate their arguments; they
// return fresh slices so callers can keep the previous state for comparison.
// Ordering inside participant and vote sets is insertion order. It carries no
// semantic meaning beyond deterministic rendering: the first participant to
// mark a date determines the leftmost color band in a calendar aggregation.
package ledger

// DateSelection records the participants who marked a calendar date as
// available. Date is an ISO calendar date (YYYY-MM-DD). A selection with an
// empty participant set must never be stored; ToggleDate prunes them.
type DateSelection struct {
	Date           string
	ParticipantIDs []string
}

// TimeOption is a proposed time slot participants vote on. Unlike date
// selections, an option with zero votes is retained: the option itself is a
// standing proposal, not a derived aggregation.
type TimeOption struct {
	ID    string
	Time  string
	Votes []string
}

// ToggleDate flips the availability mark of participantID on date.
//
//  1. When no selection exists for the date, a new one is appended holding
//     only participantID.
//  2. When a selection exists and the participant is a member, the
//     participant is removed; a selection left empty is deleted.
//  3. When a selection exists and the participant is not a member, the
//     participant is appended.
//
// Toggling twice with the same arguments restores the original state, up to
// the position of a freshly recreated selection in the outer slice.
func ToggleDate(selections []DateSelection, date, participantID string) []DateSelection {
	idx := indexOfSelection(selections, date)
	if idx < 0 {
		updated := cloneSelections(selections)
		return append(updated, DateSelection{
			Date:           date,
			ParticipantIDs: []string{participantID},
		})
	}

	selection := selections[idx]
	if containsString(selection.ParticipantIDs, participantID) {
		remaining := removeString(selection.ParticipantIDs, participantID)
		if len(remaining) == 0 {
			updated := make([]DateSelection, 0, len(selections)-1)
			for i, existing := range selections {
				if i == idx {
					continue
				}
				updated = append(updated, cloneSelection(existing))
			}
			return updated
		}
		updated := cloneSelections(selections)
		updated[idx].ParticipantIDs = remaining
		return updated
	}

	updated := cloneSelections(selections)
	updated[idx].ParticipantIDs = append(updated[idx].ParticipantIDs, participantID)
	return updated
}

// MarkedParticipants returns the participants who marked the given date, in
// insertion order, or nil when the date has no selection.
func MarkedParticipants(selections []DateSelection, date string) []string {
	idx := indexOfSelection(selections, date)
	if idx < 0 {
		return nil
	}
	return append([]string(nil), selections[idx].ParticipantIDs...)
}

// AddOption appends a standing time option with an empty vote set.
func AddOption(options []TimeOption, id, timeLabel string) []TimeOption {
	updated := cloneOptions(options)
	return append(updated, TimeOption{ID: id, Time: timeLabel, Votes: []string{}})
}

// ToggleVote flips participantID's vote on the identified option. The second
// return value reports whether the option was found; an unknown option leaves
// the slice unchanged.
func ToggleVote(options []TimeOption, optionID, participantID string) ([]TimeOption, bool) {
	idx := indexOfOption(options, optionID)
	if idx < 0 {
		return options, false
	}

	updated := cloneOptions(options)
	votes := updated[idx].Votes
	if containsString(votes, participantID) {
		updated[idx].Votes = removeString(votes, participantID)
	} else {
		updated[idx].Votes = append(votes, participantID)
	}
	return updated, true
}

// RemoveOption deletes the identified option unconditionally. Removing an
// unknown option is a no-op; the second return value reports whether anything
// was removed.
func RemoveOption(options []TimeOption, optionID string) ([]TimeOption, bool) {
	idx := indexOfOption(options, optionID)
	if idx < 0 {
		return options, false
	}

	updated := make([]TimeOption, 0, len(options)-1)
	for i, option := range options {
		if i == idx {
			continue
		}
		updated = append(updated, cloneOption(option))
	}
	return updated, true
}

func indexOfSelection(selections []DateSelection, date string) int {
	for i, selection := range selections {
		if selection.Date == date {
			return i
		}
	}
	return -1
}

func indexOfOption(options []TimeOption, id string) int {
	for i, option := range options {
		if option.ID == id {
			return i
		}
	}
	return -1
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

func removeString(values []string, target string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value == target {
			continue
		}
		result = append(result, value)
	}
	return result
}

func cloneSelection(selection DateSelection) DateSelection {
	return DateSelection{
		Date:           selection.Date,
		ParticipantIDs: append([]string(nil), selection.ParticipantIDs...),
	}
}

func cloneSelections(selections []DateSelection) []DateSelection {
	out := make([]DateSelection, 0, len(selections)+1)
	for _, selection := range selections {
		out = append(out, cloneSelection(selection))
	}
	return out
}

func cloneOption(option TimeOption) TimeOption {
	return TimeOption{
		ID:    option.ID,
		Time:  option.Time,
		Votes: append([]string(nil), option.Votes...),
	}
}

func cloneOptions(options []TimeOption) []TimeOption {
	out := make([]TimeOption, 0, len(options)+1)
	for _, option := range options {
		out = append(out, cloneOption(option))
	}
	return out
}
