package ledger

// ParticipantColors is the fixed palette cycled through as participants join
// a schedule. The tokens are HSL color values consumed by the presentation
// layer as-is.
var ParticipantColors = []string{
	"hsl(14 100% 57%)",
	"hsl(142 71% 45%)",
	"hsl(221 83% 53%)",
	"hsl(280 100% 70%)",
	"hsl(45 93% 47%)",
	"hsl(339 90% 51%)",
	"hsl(173 80% 40%)",
	"hsl(25 95% 53%)",
}

// ColorAt returns the palette entry assigned to a participant joining a
// schedule that already has participantCount members. Colors are a pure
// function of the count at join time and are never reassigned, so collisions
// are possible after removals.
func ColorAt(participantCount int) string {
	if participantCount < 0 {
		participantCount = 0
	}
	return ParticipantColors[participantCount%len(ParticipantColors)]
}
