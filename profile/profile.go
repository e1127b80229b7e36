package profile

import (
	"time"
)

// LearningStyle is the student's preferred way of absorbing material.
type LearningStyle string

const (
	StyleVisual         LearningStyle = "visual"
	StyleAuditory       LearningStyle = "auditory"
	StyleKinesthetic    LearningStyle = "kinesthetic"
	StyleReadingWriting LearningStyle = "reading_writing"
	StyleMultimodal     LearningStyle = "multimodal"
)

// Pace is the student's preferred learning speed.
type Pace string

const (
	PaceSlow     Pace = "slow"
	PaceModerate Pace = "moderate"
	PaceFast     Pace = "fast"
	PaceAdaptive Pace = "adaptive"
)

// Preferences captures how a student likes to be taught.
type Preferences struct {
	LearningStyle LearningStyle `json:"learning_style"`
	Pace          Pace          `json:"learning_pace"`

	PreferredSessionMinutes int `json:"preferred_session_length"`
	MaxSessionMinutes       int `json:"max_session_length"`

	HintsEnabled        bool `json:"hints_enabled"`
	ExplanationsEnabled bool `json:"explanations_enabled"`
	ExamplesEnabled     bool `json:"examples_enabled"`
}

// DefaultPreferences returns the baseline preference set for new profiles.
func DefaultPreferences() Preferences {
	return Preferences{
		LearningStyle:           StyleMultimodal,
		Pace:                    PaceAdaptive,
		PreferredSessionMinutes: 30,
		MaxSessionMinutes:       60,
		HintsEnabled:            true,
		ExplanationsEnabled:     true,
		ExamplesEnabled:         true,
	}
}

// Goals captures what the student is working toward.
type Goals struct {
	TargetConcepts     []string `json:"target_concepts"`
	TargetMasteryLevel float64  `json:"target_mastery_level"`
	DailyTimeGoal      int      `json:"daily_time_goal"`
	WeeklyConceptGoal  int      `json:"weekly_concept_goal"`
	SubjectFocusAreas  []string `json:"subject_focus_areas"`
}

// DefaultGoals returns the baseline goal set for new profiles.
func DefaultGoals() Goals {
	return Goals{
		TargetMasteryLevel: 0.8,
		DailyTimeGoal:      30,
		WeeklyConceptGoal:  2,
	}
}

// StudentProfile is the persistent learning profile of one student.
type StudentProfile struct {
	StudentID  string `json:"student_id"`
	Name       string `json:"name,omitempty"`
	GradeLevel string `json:"grade_level,omitempty"`

	Preferences Preferences `json:"preferences"`
	Goals       Goals       `json:"goals"`

	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
	LastActive  time.Time `json:"last_active,omitzero"`

	// Adaptive learning state
	CurrentDifficulty float64 `json:"current_difficulty_level"`
	EngagementLevel   float64 `json:"engagement_level"`

	// Performance summary
	ConceptsAttempted   int     `json:"total_concepts_attempted"`
	ConceptsMastered    int     `json:"total_concepts_mastered"`
	LearningTimeMinutes int     `json:"total_learning_time"`
	AverageAccuracy     float64 `json:"average_accuracy"`

	StrengthAreas  []string `json:"strength_areas,omitempty"`
	ChallengeAreas []string `json:"challenge_areas,omitempty"`
}

// New builds a profile with default preferences, goals and adaptive state.
func New(studentID string, now time.Time) *StudentProfile {
	return &StudentProfile{
		StudentID:         studentID,
		Preferences:       DefaultPreferences(),
		Goals:             DefaultGoals(),
		CreatedAt:         now,
		LastUpdated:       now,
		CurrentDifficulty: 0.5,
		EngagementLevel:   0.5,
	}
}

// MasteryRate is the share of attempted concepts the student has mastered.
func (p *StudentProfile) MasteryRate() float64 {
	if p.ConceptsAttempted == 0 {
		return 0
	}
	return float64(p.ConceptsMastered) / float64(p.ConceptsAttempted)
}

// LearningEfficiency is mastered concepts per hour of learning time.
func (p *StudentProfile) LearningEfficiency() float64 {
	if p.LearningTimeMinutes == 0 {
		return 0
	}
	return float64(p.ConceptsMastered) / (float64(p.LearningTimeMinutes) / 60)
}

// ActiveSince reports whether the student was active at or after the cutoff.
func (p *StudentProfile) ActiveSince(cutoff time.Time) bool {
	return !p.LastActive.IsZero() && !p.LastActive.Before(cutoff)
}

// AddStrengthArea records a strength area once.
func (p *StudentProfile) AddStrengthArea(area string) {
	p.StrengthAreas = appendUnique(p.StrengthAreas, area)
}

// AddChallengeArea records a challenge area once.
func (p *StudentProfile) AddChallengeArea(area string) {
	p.ChallengeAreas = appendUnique(p.ChallengeAreas, area)
}

// Clone returns a deep copy so callers can hand out snapshots safely.
func (p *StudentProfile) Clone() *StudentProfile {
	clone := *p
	clone.Goals.TargetConcepts = append([]string(nil), p.Goals.TargetConcepts...)
	clone.Goals.SubjectFocusAreas = append([]string(nil), p.Goals.SubjectFocusAreas...)
	clone.StrengthAreas = append([]string(nil), p.StrengthAreas...)
	clone.ChallengeAreas = append([]string(nil), p.ChallengeAreas...)
	return &clone
}

func appendUnique(items []string, item string) []string {
	for _, existing := range items {
		if existing == item {
			return items
		}
	}
	return append(items, item)
}

// PerformanceRecord tracks a student's progress on a single concept.
type PerformanceRecord struct {
	Attempts     int       `json:"attempts"`
	Correct      int       `json:"correct"`
	MasteryLevel float64   `json:"mastery_level"`
	LastUpdated  time.Time `json:"last_updated"`
}

// Accuracy is the share of correct attempts.
func (r PerformanceRecord) Accuracy() float64 {
	if r.Attempts == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Attempts)
}
