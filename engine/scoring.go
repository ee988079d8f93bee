package engine

// Point values for matching a conclusion's argument tag, keyed by letter.
// A single major tag (C, or E on the sub-argument axis) outweighs three
// minor ones.
var (
	argumentPoints    = map[Argument]int{ArgumentC: 6, ArgumentA: 3, ArgumentB: 1}
	subArgumentPoints = map[SubArgument]int{SubArgumentE: 6, SubArgumentP: 3, SubArgumentS: 1}
)

// contextBonusPoints is awarded per corroborated attribute: three or more
// evidence cards sharing a source type, author, or location.
const contextBonusPoints = 5

// ScoreBreakdown is the prestige awarded by one publication, itemized.
type ScoreBreakdown struct {
	Base     int `json:"base"`
	Bonus    int `json:"bonus"`
	Argument int `json:"argument"`
	Total    int `json:"total"`
}

// Score computes the prestige breakdown for publishing the given evidence
// cards under the given conclusion. It is a pure function: live previews
// and final scoring call it with identical inputs and get identical
// results. Pass prestigeBonus 0 for previews; the permanent per-publication
// bonus applies only at commit time.
//
// Empty evidence or a nil conclusion scores zero across the board.
func Score(cards []HistoricalCard, conclusion *Conclusion, prestigeBonus int) ScoreBreakdown {
	if len(cards) == 0 || conclusion == nil {
		return ScoreBreakdown{}
	}

	var b ScoreBreakdown

	// Base rewards volume; book-length publications earn double per card.
	basePerCard := 1
	if len(cards) >= BookLengthThreshold {
		basePerCard = 2
	}
	b.Base = len(cards) * basePerCard

	// Context bonus: each attribute fires independently when any single
	// non-empty value occurs on three or more cards.
	sourceTypes := make([]string, 0, len(cards))
	authors := make([]string, 0, len(cards))
	locations := make([]string, 0, len(cards))
	for _, c := range cards {
		if c.SourceType != "" {
			sourceTypes = append(sourceTypes, string(c.SourceType))
		}
		if c.Author != "" {
			authors = append(authors, c.Author)
		}
		if c.Location != "" {
			locations = append(locations, c.Location)
		}
	}
	if hasThreePlusMatches(sourceTypes) {
		b.Bonus += contextBonusPoints
	}
	if hasThreePlusMatches(authors) {
		b.Bonus += contextBonusPoints
	}
	if hasThreePlusMatches(locations) {
		b.Bonus += contextBonusPoints
	}

	// Argument bonus: per card, each axis matched against the conclusion
	// independently.
	for _, c := range cards {
		if conclusion.Argument != "" && c.Argument == conclusion.Argument {
			b.Argument += argumentPoints[c.Argument]
		}
		if conclusion.SubArgument != "" && c.SubArgument == conclusion.SubArgument {
			b.Argument += subArgumentPoints[c.SubArgument]
		}
	}

	b.Total = b.Base + b.Bonus + b.Argument + prestigeBonus
	return b
}

// hasThreePlusMatches reports whether any single value occurs at least
// three times in vals.
func hasThreePlusMatches(vals []string) bool {
	if len(vals) < 3 {
		return false
	}
	counts := make(map[string]int, len(vals))
	for _, v := range vals {
		counts[v]++
		if counts[v] >= 3 {
			return true
		}
	}
	return false
}
