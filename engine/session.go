package engine

// Session operations. Each one takes the current snapshot by value and
// returns a complete replacement snapshot; the declined variants return the
// input unchanged with ok=false. Turn-consuming operations (transfer, draw,
// publish) advance the turn exactly once, after their own mutation; moving
// cards, assigning conclusions, and acquiring upgrades cost no time.

// UpgradeKind names a permanent upgrade acquired after publishing.
type UpgradeKind string

const (
	UpgradeResearchDraw UpgradeKind = "research_draw"
	UpgradeNotebookDraw UpgradeKind = "notebook_draw"
	UpgradeProjectSpace UpgradeKind = "project_space"
	UpgradePrestige     UpgradeKind = "prestige"
)

// NewSession builds a fresh session for the named player. The instance pool
// is built to ArchiveSize+NotebookSeedSize copies of the archive-eligible
// catalog cards, shuffled once, and split front-first into the archive deck
// and the research notebook. A short pool (empty catalog) simply yields
// shorter zones.
func NewSession(id, playerName string, cards []HistoricalCard, seed uint64) Session {
	s := Session{
		ID:                     id,
		PlayerName:             playerName,
		Instances:              make(map[string]string),
		HandCards:              []string{},
		ProjectSpaces:          make([]ProjectSpace, DefaultSpaceCount),
		ResearchTransferAmount: DefaultTransferAmount,
		NotebookDrawAmount:     DefaultDrawAmount,
		CurrentTurn:            1,
		CareerStage:            StageFor(1),
		WarningsShown:          []string{},
		RNG:                    seed,
	}
	if s.RNG == 0 {
		s.RNG = 1 // xorshift can't start at 0
	}
	for i := range s.ProjectSpaces {
		s.ProjectSpaces[i].Cards = []string{}
	}

	instances := buildInstances(cards, ArchiveSize+NotebookSeedSize)
	pool := make([]string, len(instances))
	for i, inst := range instances {
		pool[i] = inst.InstanceID
		s.Instances[inst.InstanceID] = inst.CardID
	}
	s.shuffleZone(pool)

	split := ArchiveSize
	if split > len(pool) {
		split = len(pool)
	}
	s.ArchiveDeck = append([]string{}, pool[:split]...)
	s.ResearchNotebook = append([]string{}, pool[split:]...)
	return s
}

// TransferToResearch moves the top ResearchTransferAmount cards from the
// archive deck into the research notebook and re-shuffles the notebook as a
// whole. Declines without mutation (and without consuming a turn) when the
// archive holds fewer cards than the transfer amount.
func (s Session) TransferToResearch() (Session, TurnResult, bool) {
	amount := s.ResearchTransferAmount
	if len(s.ArchiveDeck) < amount {
		return s, TurnResult{}, false
	}
	out := s.Clone()
	taken, rest := takeFront(out.ArchiveDeck, amount)
	out.ArchiveDeck = rest
	out.ResearchNotebook = append(out.ResearchNotebook, taken...)
	out.shuffleZone(out.ResearchNotebook)
	res := out.advanceTurn()
	return out, res, true
}

// DrawToHand moves the top NotebookDrawAmount cards from the research
// notebook into the hand. The hand has no ordering semantics, so the drawn
// cards are appended without a shuffle. Declines when the notebook is
// short.
func (s Session) DrawToHand() (Session, TurnResult, bool) {
	amount := s.NotebookDrawAmount
	if len(s.ResearchNotebook) < amount {
		return s, TurnResult{}, false
	}
	out := s.Clone()
	taken, rest := takeFront(out.ResearchNotebook, amount)
	out.ResearchNotebook = rest
	out.HandCards = append(out.HandCards, taken...)
	res := out.advanceTurn()
	return out, res, true
}

// MoveCardToProject moves one card instance from the hand into project
// space n. Declines when the instance is not in hand or the space number is
// out of range. Costs no time.
func (s Session) MoveCardToProject(instanceID string, n int) (Session, bool) {
	if s.space(n) == nil {
		return s, false
	}
	out := s.Clone()
	rest, found := removeOne(out.HandCards, instanceID)
	if !found {
		return s, false
	}
	out.HandCards = rest
	sp := out.space(n)
	sp.Cards = append(sp.Cards, instanceID)
	return out, true
}

// RemoveCardFromProject moves one card instance from project space n back
// into the hand. Costs no time.
func (s Session) RemoveCardFromProject(instanceID string, n int) (Session, bool) {
	if s.space(n) == nil {
		return s, false
	}
	out := s.Clone()
	sp := out.space(n)
	rest, found := removeOne(sp.Cards, instanceID)
	if !found {
		return s, false
	}
	sp.Cards = rest
	out.HandCards = append(out.HandCards, instanceID)
	return out, true
}

// AssignConclusion places a conclusion tile on project space n, replacing
// any previous assignment. Costs no time.
func (s Session) AssignConclusion(conclusionID string, n int) (Session, bool) {
	if s.space(n) == nil {
		return s, false
	}
	out := s.Clone()
	out.space(n).ConclusionID = conclusionID
	return out, true
}

// ClearConclusion removes the conclusion tile from project space n.
func (s Session) ClearConclusion(n int) (Session, bool) {
	if s.space(n) == nil {
		return s, false
	}
	out := s.Clone()
	out.space(n).ConclusionID = ""
	return out, true
}

// resolveEvidence maps a space's instance ids to catalog cards, dropping
// ids that no longer resolve (a catalog card deleted mid-session).
func resolveEvidence(s *Session, catalog Catalog, instanceIDs []string) []HistoricalCard {
	cards := make([]HistoricalCard, 0, len(instanceIDs))
	for _, id := range instanceIDs {
		if card, ok := catalog.Card(s, id); ok {
			cards = append(cards, card)
		}
	}
	return cards
}

// PreviewScore computes the live score breakdown for project space n
// without committing anything and without the permanent prestige bonus.
// An empty space or missing conclusion yields the zero breakdown.
func (s Session) PreviewScore(catalog Catalog, n int) ScoreBreakdown {
	sp := s.space(n)
	if sp == nil {
		return ScoreBreakdown{}
	}
	var conclusion *Conclusion
	if sp.ConclusionID != "" {
		if c, ok := catalog.Conclusions[sp.ConclusionID]; ok {
			conclusion = &c
		}
	}
	return Score(resolveEvidence(&s, catalog, sp.Cards), conclusion, 0)
}

// Publish commits project space n: it scores the evidence under the
// assigned conclusion (including the permanent prestige bonus), adds the
// total to the prestige score, bumps the publication counters, atomically
// clears the space and its conclusion, and consumes a turn.
//
// Declines without mutation when the space is empty, has no conclusion
// assigned, or the assigned conclusion no longer exists.
func (s Session) Publish(catalog Catalog, n int) (Session, ScoreBreakdown, TurnResult, bool) {
	sp := s.space(n)
	if sp == nil || len(sp.Cards) == 0 || sp.ConclusionID == "" {
		return s, ScoreBreakdown{}, TurnResult{}, false
	}
	conclusion, ok := catalog.Conclusions[sp.ConclusionID]
	if !ok {
		return s, ScoreBreakdown{}, TurnResult{}, false
	}

	evidence := resolveEvidence(&s, catalog, sp.Cards)
	breakdown := Score(evidence, &conclusion, s.PrestigeBonus)

	out := s.Clone()
	out.PrestigeScore += breakdown.Total
	out.PublicationsCount++
	if len(evidence) >= BookLengthThreshold {
		out.BookLengthPublications++
	}
	osp := out.space(n)
	osp.Cards = []string{}
	osp.ConclusionID = ""
	res := out.advanceTurn()
	return out, breakdown, res, true
}

// AcquireUpgrade applies a permanent upgrade. The first three kinds are
// one-shot caps (re-applying is a no-op that still succeeds); the prestige
// bonus is cumulative and unbounded. Costs no time.
func (s Session) AcquireUpgrade(kind UpgradeKind) (Session, bool) {
	out := s.Clone()
	switch kind {
	case UpgradeResearchDraw:
		out.ResearchTransferAmount = UpgradedTransferAmount
	case UpgradeNotebookDraw:
		out.NotebookDrawAmount = UpgradedDrawAmount
	case UpgradeProjectSpace:
		for len(out.ProjectSpaces) < UpgradedSpaceCount {
			out.ProjectSpaces = append(out.ProjectSpaces, ProjectSpace{Cards: []string{}})
		}
	case UpgradePrestige:
		out.PrestigeBonus += PrestigeBonusStep
	default:
		return s, false
	}
	return out, true
}
