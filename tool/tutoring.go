package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/extract"
	"github.com/hupe1980/tutormesh/logging"
	"github.com/hupe1980/tutormesh/model"
)

// Request types accepted by Chat.
const (
	RequestExplanation   = "explanation"
	RequestStepByStep    = "step_by_step"
	RequestAlternative   = "alternative"
	RequestClarification = "clarification"
	RequestPractice      = "practice"
)

// Session state keys used by the tutoring service. The store itself never
// interprets them.
const (
	tutorStateSubject       = "subject"
	tutorStateObjectives    = "learning_objectives"
	tutorStateTopic         = "current_topic"
	tutorStateHistory       = "history"
	tutorStateUnderstanding = "understanding_level"
	tutorStateStyle         = "explanation_style"
	tutorStateDifficulty    = "difficulty_preference"
)

// Interaction is one question/answer exchange recorded in a tutoring session.
type Interaction struct {
	Timestamp          time.Time `json:"timestamp"`
	Query              string    `json:"query"`
	Response           string    `json:"response"`
	Type               string    `json:"type"`
	UnderstandingLevel float64   `json:"understanding_level"`
}

// TutorService implements multi-turn AI tutoring with per-session context:
// conversation history, current topic, the student's understanding level and
// explanation-style preference all live in session state and feed every
// prompt.
type TutorService struct {
	gen      model.TextGenerator
	sessions core.SessionStore
	logger   logging.Logger
}

// TutorServiceOptions configures a TutorService.
type TutorServiceOptions struct {
	Logger logging.Logger
}

// NewTutorService wires a tutoring service to a generator and a session store.
func NewTutorService(gen model.TextGenerator, sessions core.SessionStore, optFns ...func(o *TutorServiceOptions)) *TutorService {
	opts := TutorServiceOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &TutorService{gen: gen, sessions: sessions, logger: opts.Logger}
}

// StartSessionResult is returned by StartSession. Welcome carries the parsed
// model payload (welcome_message, suggested_topics, session_guidelines);
// when extraction fails, Welcome is nil and Raw preserves the model output
// so the caller can still show something.
type StartSessionResult struct {
	SessionID string         `json:"session_id"`
	StudentID string         `json:"student_id"`
	Subject   string         `json:"subject"`
	CreatedAt time.Time      `json:"created_at"`
	Welcome   map[string]any `json:"welcome,omitempty"`
	Raw       string         `json:"raw,omitempty"`
}

// StartSession creates a tutoring session for the student and asks the model
// for a welcome payload. The session exists even if the welcome generation
// fails; only the LLM call error is fatal.
func (s *TutorService) StartSession(ctx context.Context, studentID, subject string, objectives []string) (*StartSessionResult, error) {
	if subject == "" {
		subject = "general"
	}

	sess, err := s.sessions.Create(studentID, map[string]any{
		tutorStateSubject:       subject,
		tutorStateObjectives:    objectives,
		tutorStateHistory:       []Interaction{},
		tutorStateUnderstanding: 0.5,
		tutorStateStyle:         "detailed",
		tutorStateDifficulty:    0.5,
	})
	if err != nil {
		return nil, err
	}

	objectiveText := "To be determined based on student needs"
	if len(objectives) > 0 {
		objectiveText = strings.Join(objectives, ", ")
	}

	prompt := fmt.Sprintf(`You are an expert AI tutor starting a new tutoring session.

Student ID: %s
Subject: %s
Learning Objectives: %s

Generate a welcoming introduction that:
1. Welcomes the student warmly
2. Explains your role as their AI tutor
3. Asks about their current understanding or what they'd like to learn
4. Sets expectations for the tutoring session

Return a JSON object with:
- "welcome_message": friendly welcome text
- "suggested_topics": list of 3-5 topics they might want to explore
- "session_guidelines": brief explanation of how the tutoring works`, studentID, subject, objectiveText)

	raw, err := s.generate(ctx, sess.ID, prompt, model.WithTemperature(0.7))
	if err != nil {
		return nil, fmt.Errorf("start tutoring session: %w", err)
	}

	result := &StartSessionResult{
		SessionID: sess.ID,
		StudentID: studentID,
		Subject:   subject,
		CreatedAt: sess.CreatedAt,
	}
	result.Welcome, result.Raw = s.salvageObject(sess.ID, raw)

	return result, nil
}

// ChatResult is the outcome of one tutoring exchange.
type ChatResult struct {
	SessionID   string         `json:"session_id"`
	RequestType string         `json:"request_type"`
	Analysis    map[string]any `json:"analysis,omitempty"`
	Response    map[string]any `json:"response,omitempty"`
	Raw         string         `json:"raw,omitempty"`
	Stats       SessionStats   `json:"session_stats"`
}

// SessionStats summarizes a tutoring session's progress.
type SessionStats struct {
	SessionID          string    `json:"session_id"`
	StudentID          string    `json:"student_id"`
	Subject            string    `json:"subject"`
	CurrentTopic       string    `json:"current_topic"`
	UnderstandingLevel float64   `json:"understanding_level"`
	Interactions       int       `json:"interactions_count"`
	CreatedAt          time.Time `json:"created_at"`
	LastActivityAt     time.Time `json:"last_activity_at"`
}

// Chat processes a student query with session context. It runs two model
// calls: a cool-tempered analysis of the query, then the tutoring response
// shaped by requestType. An unparsable analysis is advisory and dropped; an
// unparsable response degrades to the raw text in ChatResult.Raw.
func (s *TutorService) Chat(ctx context.Context, sessionID, studentQuery, requestType string) (*ChatResult, error) {
	if requestType == "" {
		requestType = RequestExplanation
	}

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	summary := contextSummary(sess)

	analysisPrompt := fmt.Sprintf(`Analyze this student query in the context of their tutoring session:

%s

Student Query: "%s"
Request Type: %s

Analyze and return JSON with:
- "topic_identified": main topic/concept the student is asking about
- "difficulty_level": estimated difficulty (0.0 to 1.0)
- "understanding_gaps": potential areas where student might be confused
- "prerequisite_concepts": concepts student should know first
- "confidence_level": how confident the student seems (0.0 to 1.0)`, summary, studentQuery, requestType)

	analysisRaw, err := s.generate(ctx, sessionID, analysisPrompt, model.WithTemperature(0.3))
	if err != nil {
		return nil, fmt.Errorf("tutor chat analysis: %w", err)
	}
	analysis, _ := s.salvageObject(sessionID, analysisRaw)

	if analysis != nil {
		if _, err := s.sessions.Mutate(sessionID, func(state map[string]any) {
			if topic, ok := analysis["topic_identified"].(string); ok && topic != "" {
				state[tutorStateTopic] = topic
			}
			if level, ok := analysis["difficulty_level"].(float64); ok {
				state[tutorStateDifficulty] = level
			}
		}); err != nil {
			return nil, err
		}
	}

	responseRaw, err := s.generate(ctx, sessionID, responsePrompt(summary, studentQuery, requestType), model.WithTemperature(0.7))
	if err != nil {
		return nil, fmt.Errorf("tutor chat response: %w", err)
	}
	response, rawText := s.salvageObject(sessionID, responseRaw)

	recorded := rawText
	if response != nil {
		if main, ok := response["main_explanation"].(string); ok {
			recorded = main
		} else {
			recorded = fmt.Sprintf("%v", response)
		}
	}

	updated, err := s.sessions.Mutate(sessionID, func(state map[string]any) {
		level, _ := state[tutorStateUnderstanding].(float64)
		history, _ := state[tutorStateHistory].([]Interaction)
		state[tutorStateHistory] = append(history, Interaction{
			Timestamp:          time.Now(),
			Query:              studentQuery,
			Response:           recorded,
			Type:               requestType,
			UnderstandingLevel: level,
		})
	})
	if err != nil {
		return nil, err
	}

	return &ChatResult{
		SessionID:   sessionID,
		RequestType: requestType,
		Analysis:    analysis,
		Response:    response,
		Raw:         rawText,
		Stats:       statsOf(updated),
	}, nil
}

// GuidanceResult carries step-by-step guidance for a concept.
type GuidanceResult struct {
	SessionID   string         `json:"session_id"`
	Concept     string         `json:"concept"`
	CurrentStep int            `json:"current_step"`
	Guidance    map[string]any `json:"guidance,omitempty"`
	Raw         string         `json:"raw,omitempty"`
}

// StepGuidance produces a structured learning path for a concept, focused on
// the step the student is currently on (1-based).
func (s *TutorService) StepGuidance(ctx context.Context, sessionID, concept string, currentStep int) (*GuidanceResult, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if currentStep < 1 {
		currentStep = 1
	}

	prompt := fmt.Sprintf(`%s

Provide comprehensive step-by-step guidance for learning: "%s"
Current step: %d

Create a structured learning path that:
1. Breaks the concept into logical, sequential steps
2. Provides clear explanations for each step
3. Includes practice exercises for each step
4. Offers multiple ways to understand each step
5. Includes checkpoints to verify understanding

Return JSON with:
- "total_steps": total number of steps needed
- "current_step_details": detailed information about the current step
- "step_explanation": clear explanation of the current step
- "practice_exercises": 2-3 practice problems for this step
- "key_points": important points to remember
- "common_mistakes": common mistakes students make at this step
- "next_step_preview": brief preview of what comes next
- "prerequisite_check": what student should know before this step
- "mastery_indicators": how to know if student has mastered this step`, contextSummary(sess), concept, currentStep)

	raw, err := s.generate(ctx, sessionID, prompt, model.WithTemperature(0.6))
	if err != nil {
		return nil, fmt.Errorf("step guidance: %w", err)
	}

	result := &GuidanceResult{SessionID: sessionID, Concept: concept, CurrentStep: currentStep}
	result.Guidance, result.Raw = s.salvageObject(sessionID, raw)
	return result, nil
}

// ExplanationsResult carries alternative explanations of a concept.
type ExplanationsResult struct {
	SessionID    string         `json:"session_id"`
	Concept      string         `json:"concept"`
	Kinds        []string       `json:"explanation_types"`
	Explanations map[string]any `json:"explanations,omitempty"`
	Raw          string         `json:"raw,omitempty"`
}

// AlternativeExplanations generates several differently-styled explanations
// of the same concept so the student can pick the one that lands.
func (s *TutorService) AlternativeExplanations(ctx context.Context, sessionID, concept string, kinds []string) (*ExplanationsResult, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if len(kinds) == 0 {
		kinds = []string{"visual", "analogy", "real_world", "simplified", "technical"}
	}

	prompt := fmt.Sprintf(`%s

Generate multiple alternative explanations for: "%s"

Create explanations using these approaches: %s

For each explanation type, provide:
1. A complete explanation using that approach
2. Key benefits of this explanation style
3. When this explanation works best
4. Supporting examples or analogies

Return JSON with:
- "visual_explanation": explanation using visual/spatial concepts and imagery
- "analogy_explanation": explanation using familiar analogies and metaphors
- "real_world_explanation": explanation showing real-world applications
- "simplified_explanation": very simple, basic explanation
- "technical_explanation": detailed, technical explanation
- "recommendation": which explanation might work best for this student`, contextSummary(sess), concept, strings.Join(kinds, ", "))

	raw, err := s.generate(ctx, sessionID, prompt, model.WithTemperature(0.7))
	if err != nil {
		return nil, fmt.Errorf("alternative explanations: %w", err)
	}

	result := &ExplanationsResult{SessionID: sessionID, Concept: concept, Kinds: kinds}
	result.Explanations, result.Raw = s.salvageObject(sessionID, raw)
	return result, nil
}

// UpdateUnderstanding records the student's self- or system-assessed
// understanding of a concept (clamped to [0,1]) and adapts the session's
// difficulty preference toward it.
func (s *TutorService) UpdateUnderstanding(sessionID, concept string, level float64) (*SessionStats, error) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}

	updated, err := s.sessions.Mutate(sessionID, func(state map[string]any) {
		state[tutorStateUnderstanding] = level
		state[tutorStateTopic] = concept
		// Nudge difficulty halfway toward the new understanding level.
		if current, ok := state[tutorStateDifficulty].(float64); ok {
			state[tutorStateDifficulty] = (current + level) / 2
		}
	})
	if err != nil {
		return nil, err
	}

	stats := statsOf(updated)
	return &stats, nil
}

// SessionStatus returns a snapshot of a tutoring session without touching
// its activity timestamp.
func (s *TutorService) SessionStatus(sessionID string) (*SessionStats, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	stats := statsOf(sess)
	return &stats, nil
}

// EndSession destroys the session, reporting whether it existed.
func (s *TutorService) EndSession(sessionID string) bool {
	return s.sessions.Destroy(sessionID)
}

// generate wraps the model call with latency logging.
func (s *TutorService) generate(ctx context.Context, sessionID, prompt string, optFns ...func(*model.GenerateOptions)) (string, error) {
	start := time.Now()
	out, err := s.gen.GenerateText(ctx, prompt, optFns...)
	if err != nil {
		s.logger.Error("model call failed", "session_id", sessionID, "model", s.gen.Info().Name, "duration", time.Since(start), "error", err.Error())
		return "", err
	}
	s.logger.Debug("model call completed", "session_id", sessionID, "model", s.gen.Info().Name, "duration", time.Since(start))
	return out, nil
}

// salvageObject extracts a JSON object from raw model output. On success it
// returns the object and an empty raw string; on failure it logs the parse
// error and hands the raw text back for the caller to surface.
func (s *TutorService) salvageObject(sessionID, raw string) (map[string]any, string) {
	value, err := extract.JSON(raw)
	if err != nil {
		s.logger.Warn("model output failed extraction", "session_id", sessionID, "error", err.Error())
		return nil, raw
	}
	if obj, ok := value.(map[string]any); ok {
		return obj, ""
	}
	s.logger.Warn("model output was not a JSON object", "session_id", sessionID)
	return nil, raw
}

// responsePrompt selects the tutoring response template for the request type.
func responsePrompt(summary, query, requestType string) string {
	switch requestType {
	case RequestStepByStep:
		return fmt.Sprintf(`%s

The student asked: "%s"

Provide a detailed step-by-step explanation that:
1. Breaks down the concept into manageable steps
2. Uses simple, clear language appropriate for their level
3. Includes examples for each step
4. Checks understanding at key points
5. Provides encouragement and support

Return JSON with:
- "step_by_step_explanation": detailed step-by-step guide
- "key_steps": list of main steps with brief descriptions
- "examples": relevant examples for each step
- "check_points": questions to verify understanding
- "encouragement": supportive message`, summary, query)
	case RequestAlternative:
		return fmt.Sprintf(`%s

The student asked: "%s"

Provide alternative explanations using different approaches:
1. Visual/spatial explanation
2. Analogy-based explanation
3. Real-world application
4. Simplified version

Return JSON with:
- "visual_explanation": explanation using visual/spatial concepts
- "analogy_explanation": explanation using familiar analogies
- "real_world_application": how this applies in real life
- "simplified_version": very simple explanation
- "which_works_best": question asking which explanation resonates`, summary, query)
	default:
		return fmt.Sprintf(`%s

The student asked: "%s"

Provide a comprehensive, personalized explanation that:
1. Addresses their specific question directly
2. Builds on their current understanding level
3. Uses their preferred explanation style
4. Includes relevant examples
5. Suggests next steps for learning

Return JSON with:
- "main_explanation": comprehensive answer to their question
- "key_concepts": important concepts to remember
- "examples": relevant examples
- "next_steps": suggested follow-up activities
- "related_topics": topics they might want to explore next`, summary, query)
	}
}

// contextSummary renders the session context block included in every prompt:
// identity, preferences and the last five exchanges (responses truncated).
func contextSummary(sess *core.Session) string {
	subject, _ := sess.State[tutorStateSubject].(string)
	topic, _ := sess.State[tutorStateTopic].(string)
	if topic == "" {
		topic = "Not specified"
	}
	understanding, _ := sess.State[tutorStateUnderstanding].(float64)
	style, _ := sess.State[tutorStateStyle].(string)
	history, _ := sess.State[tutorStateHistory].([]Interaction)

	var sb strings.Builder
	fmt.Fprintf(&sb, `Session Context:
- Student ID: %s
- Subject: %s
- Current Topic: %s
- Understanding Level: %.2f/1.0
- Preferred Style: %s
- Session Duration: %.1f minutes

Recent Conversation:
`, sess.OwnerID, subject, topic, understanding, style, time.Since(sess.CreatedAt).Minutes())

	recent := history
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	for _, in := range recent {
		resp := in.Response
		if len(resp) > 100 {
			resp = resp[:100] + "..."
		}
		fmt.Fprintf(&sb, "\nStudent: %s\nTutor: %s\n", in.Query, resp)
	}

	return sb.String()
}

func statsOf(sess *core.Session) SessionStats {
	subject, _ := sess.State[tutorStateSubject].(string)
	topic, _ := sess.State[tutorStateTopic].(string)
	understanding, _ := sess.State[tutorStateUnderstanding].(float64)
	history, _ := sess.State[tutorStateHistory].([]Interaction)

	return SessionStats{
		SessionID:          sess.ID,
		StudentID:          sess.OwnerID,
		Subject:            subject,
		CurrentTopic:       topic,
		UnderstandingLevel: understanding,
		Interactions:       len(history),
		CreatedAt:          sess.CreatedAt,
		LastActivityAt:     sess.LastActivityAt,
	}
}
