// Package engine implements the Playing With the Past game rules.
//
// The engine is pure: a Session is a value snapshot, and every operation
// takes the current snapshot and returns a replacement snapshot. Shuffles
// draw from an xorshift64 state embedded in the session, so two identical
// snapshots always produce identical successors. All I/O (persistence,
// transport, logging) lives above this package.
package engine

// SourceType classifies a historical document.
type SourceType string

const (
	SourceLetter    SourceType = "letter"
	SourceNewspaper SourceType = "newspaper"
	SourceBook      SourceType = "book"
)

// Argument is a top-level thesis tag carried by cards and conclusions.
type Argument string

const (
	ArgumentA Argument = "A"
	ArgumentB Argument = "B"
	ArgumentC Argument = "C"
)

// SubArgument is a secondary thesis tag (economic, political, social).
type SubArgument string

const (
	SubArgumentE SubArgument = "E"
	SubArgumentP SubArgument = "P"
	SubArgumentS SubArgument = "S"
)

// HistoricalCard is an immutable catalog entry describing one primary
// source. Zones reference copies of a card through instance ids, never the
// catalog id directly.
type HistoricalCard struct {
	ID             string      `json:"id"`
	Title          string      `json:"title,omitempty"`
	SequenceNumber int         `json:"sequence_number,omitempty"`
	SourceType     SourceType  `json:"source_type,omitempty"`
	Author         string      `json:"author,omitempty"`
	Location       string      `json:"location,omitempty"`
	Date           string      `json:"date,omitempty"`
	Content        string      `json:"content,omitempty"`
	Significance   string      `json:"significance,omitempty"`
	ImageURL       string      `json:"image_url,omitempty"`
	Argument       Argument    `json:"argument,omitempty"`
	SubArgument    SubArgument `json:"sub_argument,omitempty"`
	IsArchive      bool        `json:"is_archive"`
}

// Conclusion is a thesis tile. BonusCriteria is an authoring hint shown to
// players; the scoring engine never consults it.
type Conclusion struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description,omitempty"`
	BonusCriteria string      `json:"bonus_criteria,omitempty"`
	Argument      Argument    `json:"argument,omitempty"`
	SubArgument   SubArgument `json:"sub_argument,omitempty"`
}

// Catalog is the read-only card and conclusion data a session plays
// against. It is shared state and must not be mutated during play.
type Catalog struct {
	Cards       map[string]HistoricalCard
	Conclusions map[string]Conclusion
}

// Card resolves an instance id to its catalog entry via the session's
// instance table. ok is false for unknown instances.
func (c Catalog) Card(s *Session, instanceID string) (HistoricalCard, bool) {
	cardID, ok := s.Instances[instanceID]
	if !ok {
		return HistoricalCard{}, false
	}
	card, ok := c.Cards[cardID]
	return card, ok
}

// ProjectSpace holds evidence card instances plus at most one conclusion
// tile. Spaces are addressed by 1-based number at the API boundary.
type ProjectSpace struct {
	Cards        []string `json:"cards"`
	ConclusionID string   `json:"conclusion_id,omitempty"`
}

// Default economy values and upgrade caps.
const (
	DefaultTransferAmount  = 5
	UpgradedTransferAmount = 10
	DefaultDrawAmount      = 3
	UpgradedDrawAmount     = 5
	DefaultSpaceCount      = 2
	UpgradedSpaceCount     = 3
	PrestigeBonusStep      = 2

	// ArchiveSize and NotebookSeedSize are the initial zone sizes. The
	// instance pool is built to their sum and split front-first.
	ArchiveSize      = 100
	NotebookSeedSize = 10

	// BookLengthThreshold is the card count at which a publication earns
	// doubled base points and counts as book-length.
	BookLengthThreshold = 5
)

// Session is the mutable aggregate root: one player's career in progress.
// It is a plain value; operations copy it rather than mutating in place.
type Session struct {
	ID         string `json:"id"`
	PlayerName string `json:"player_name"`

	// Instances maps generated card instance ids to catalog card ids.
	// The archive holds duplicates by value but every instance id is
	// distinct, so a card copy lives in exactly one zone at a time.
	Instances map[string]string `json:"instances"`

	ArchiveDeck      []string       `json:"archive_deck"`
	ResearchNotebook []string       `json:"research_notebook"`
	HandCards        []string       `json:"hand_cards"`
	ProjectSpaces    []ProjectSpace `json:"project_spaces"`

	ResearchTransferAmount int `json:"research_transfer_amount"`
	NotebookDrawAmount     int `json:"notebook_draw_amount"`
	PrestigeBonus          int `json:"prestige_bonus"`

	PrestigeScore          int         `json:"prestige_score"`
	CurrentTurn            int         `json:"current_turn"`
	CareerStage            CareerStage `json:"career_stage"`
	PublicationsCount      int         `json:"publications_count"`
	BookLengthPublications int         `json:"book_length_publications"`
	WarningsShown          []string    `json:"warnings_shown"`

	// RNG is the xorshift64 shuffle state. Never zero.
	RNG uint64 `json:"rng"`
}

// SpaceCount returns the number of unlocked project spaces.
func (s *Session) SpaceCount() int { return len(s.ProjectSpaces) }

// space returns the 1-based project space, or nil when out of range.
func (s *Session) space(n int) *ProjectSpace {
	if n < 1 || n > len(s.ProjectSpaces) {
		return nil
	}
	return &s.ProjectSpaces[n-1]
}

// nextRand advances the embedded xorshift64 state.
func (s *Session) nextRand() uint64 {
	x := s.RNG
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	s.RNG = x
	return x
}

// randN returns a random number in [0, n).
func (s *Session) randN(n uint64) uint64 {
	return s.nextRand() % n
}

// Clone returns a deep copy of the session. Operations clone first and
// mutate the copy, so a failed operation never disturbs the input snapshot.
func (s Session) Clone() Session {
	out := s
	out.Instances = make(map[string]string, len(s.Instances))
	for k, v := range s.Instances {
		out.Instances[k] = v
	}
	out.ArchiveDeck = append([]string(nil), s.ArchiveDeck...)
	out.ResearchNotebook = append([]string(nil), s.ResearchNotebook...)
	out.HandCards = append([]string(nil), s.HandCards...)
	out.WarningsShown = append([]string(nil), s.WarningsShown...)
	out.ProjectSpaces = make([]ProjectSpace, len(s.ProjectSpaces))
	for i, ps := range s.ProjectSpaces {
		out.ProjectSpaces[i] = ProjectSpace{
			Cards:        append([]string(nil), ps.Cards...),
			ConclusionID: ps.ConclusionID,
		}
	}
	return out
}

// Normalize backfills zero-valued progress fields on sessions loaded from
// storage: turn floors at 1, the stage is recomputed from the turn, and nil
// collections become empty. The stage recompute self-heals any stored
// inconsistency.
func (s Session) Normalize() Session {
	out := s.Clone()
	if out.CurrentTurn < 1 {
		out.CurrentTurn = 1
	}
	out.CareerStage = StageFor(out.CurrentTurn)
	if out.ResearchTransferAmount == 0 {
		out.ResearchTransferAmount = DefaultTransferAmount
	}
	if out.NotebookDrawAmount == 0 {
		out.NotebookDrawAmount = DefaultDrawAmount
	}
	if out.WarningsShown == nil {
		out.WarningsShown = []string{}
	}
	if out.RNG == 0 {
		out.RNG = 1
	}
	return out
}
