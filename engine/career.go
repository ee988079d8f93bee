package engine

// CareerStage is the academic rank derived from the current turn.
type CareerStage string

const (
	StageGraduateStudent    CareerStage = "graduate_student"
	StagePostdoc            CareerStage = "postdoc"
	StageAssistantProfessor CareerStage = "assistant_professor"
	StageAssociateProfessor CareerStage = "associate_professor"
	StageFullProfessor      CareerStage = "full_professor"
	StageEmeritus           CareerStage = "emeritus"
)

// CareerLength is the number of turns in a full career; play may continue
// past it into the emeritus years.
const CareerLength = 25

// StageFor maps a turn number to its career stage. It is total over all
// positive turns; emeritus is terminal and absorbing. Callers re-derive the
// stage on every turn change instead of transitioning incrementally, so a
// stored inconsistency heals itself.
func StageFor(turn int) CareerStage {
	switch {
	case turn <= 5:
		return StageGraduateStudent
	case turn <= 10:
		return StagePostdoc
	case turn <= 15:
		return StageAssistantProfessor
	case turn <= 20:
		return StageAssociateProfessor
	case turn <= CareerLength:
		return StageFullProfessor
	default:
		return StageEmeritus
	}
}

// StageName returns the display name for a stage.
func StageName(stage CareerStage) string {
	switch stage {
	case StageGraduateStudent:
		return "Graduate Student"
	case StagePostdoc:
		return "Postdoctoral Researcher"
	case StageAssistantProfessor:
		return "Assistant Professor"
	case StageAssociateProfessor:
		return "Associate Professor"
	case StageFullProfessor:
		return "Full Professor"
	case StageEmeritus:
		return "Professor Emeritus"
	default:
		return string(stage)
	}
}

// WarningKind tags a one-shot career milestone warning.
type WarningKind string

const (
	WarningGraduation   WarningKind = "graduation"
	WarningTenureTrack  WarningKind = "tenure_track"
	WarningTenureCrisis WarningKind = "tenure_crisis"
)

// warningMessages is the advisory text shown for each milestone. The
// threats of forced termination are flavor only; nothing in the engine ends
// a career.
var warningMessages = map[WarningKind]string{
	WarningGraduation: "Graduation Approaching!\n\nYou're about to graduate with no publications! " +
		"You need to publish at least one argument to prove your commitment to the academic field, " +
		"or you'll be forced out of the profession.",
	WarningTenureTrack: "Tenure Track Warning!\n\nTo secure tenure, you need to publish a book-length " +
		"work (5+ evidence cards). You have until turn 15 to publish substantial research or your " +
		"academic career may be in jeopardy.",
	WarningTenureCrisis: "Tenure Crisis!\n\nYou've failed to publish a book-length work by the deadline. " +
		"Your tenure application is in serious jeopardy. Publish substantial research immediately or " +
		"face career consequences.",
}

// WarningMessage returns the display text for a warning kind.
func WarningMessage(kind WarningKind) string { return warningMessages[kind] }

// TurnResult reports what a turn-consuming operation triggered beyond its
// own state change.
type TurnResult struct {
	// Warnings holds milestone warnings fired by this turn advance, in
	// firing order. Each kind fires at most once per session.
	Warnings []WarningKind `json:"warnings,omitempty"`
	// CareerComplete is set once the turn reaches the full career length;
	// the session remains playable into emeritus years.
	CareerComplete bool `json:"career_complete,omitempty"`
}

// hasWarning reports whether the session already fired the given warning.
func (s *Session) hasWarning(kind WarningKind) bool {
	for _, w := range s.WarningsShown {
		if w == string(kind) {
			return true
		}
	}
	return false
}

// advanceTurn consumes one turn: it increments the counter, re-derives the
// career stage, and evaluates the one-shot warning triggers against the
// post-increment turn. The session is mutated in place; callers pass a
// clone.
func (s *Session) advanceTurn() TurnResult {
	s.CurrentTurn++
	s.CareerStage = StageFor(s.CurrentTurn)

	var res TurnResult
	fire := func(kind WarningKind) {
		s.WarningsShown = append(s.WarningsShown, string(kind))
		res.Warnings = append(res.Warnings, kind)
	}

	if s.CurrentTurn == 5 && s.PublicationsCount == 0 && !s.hasWarning(WarningGraduation) {
		fire(WarningGraduation)
	}
	if s.CurrentTurn == 10 && s.BookLengthPublications == 0 && !s.hasWarning(WarningTenureTrack) {
		fire(WarningTenureTrack)
	}
	if s.CurrentTurn == 15 && s.BookLengthPublications == 0 && !s.hasWarning(WarningTenureCrisis) {
		fire(WarningTenureCrisis)
	}

	res.CareerComplete = s.CurrentTurn >= CareerLength
	return res
}

// CareerSummary is the one-line advisory blurb for the turn bar.
func (s *Session) CareerSummary() string {
	turn := s.CurrentTurn
	switch {
	case turn <= 5:
		return "Focus on dissertation research"
	case turn <= 10:
		if s.PublicationsCount > 0 {
			return "Building publication record"
		}
		return "Need to publish soon!"
	case turn <= 15:
		if s.BookLengthPublications > 0 {
			return "On track for tenure"
		}
		return "Book publication required!"
	case turn <= 20:
		return "Approaching tenure decision"
	case turn <= CareerLength:
		return "Final years before retirement"
	default:
		return "Extended career - keep researching!"
	}
}
