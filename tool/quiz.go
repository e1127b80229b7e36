package tool

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/extract"
	"github.com/hupe1980/tutormesh/logging"
	"github.com/hupe1980/tutormesh/model"
)

// Difficulty levels accepted by GenerateQuiz.
var validDifficulties = []string{"easy", "medium", "hard"}

// ErrQuizCompleted is returned when an answer is submitted to a quiz session
// that already ran through all of its questions.
var ErrQuizCompleted = fmt.Errorf("quiz already completed")

// Quiz is the structured payload recovered from model output.
type Quiz struct {
	QuizID     string     `json:"quiz_id"`
	QuizTitle  string     `json:"quiz_title"`
	Concept    string     `json:"concept"`
	Difficulty string     `json:"difficulty"`
	Questions  []Question `json:"questions"`
}

// Question is a single multiple-choice question with grading metadata. The
// grading fields (CorrectAnswer, Explanation, Hint) are withheld from
// QuestionView until the student answers.
type Question struct {
	QuestionID    string   `json:"question_id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Hint          string   `json:"hint"`
}

// QuestionView is the answer-free projection of a question shown to the
// student.
type QuestionView struct {
	QuestionID     string   `json:"question_id"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	QuestionNumber int      `json:"question_number"`
}

func viewOf(q Question, number int) *QuestionView {
	return &QuestionView{
		QuestionID:     q.QuestionID,
		Question:       q.Question,
		Options:        q.Options,
		QuestionNumber: number,
	}
}

// Session state keys used by the quiz service.
const (
	quizStateQuiz      = "quiz"
	quizStateCurrent   = "current_question"
	quizStateAnswers   = "answers"
	quizStateScore     = "score"
	quizStateCompleted = "completed"
)

// AnswerRecord captures one graded answer.
type AnswerRecord struct {
	Selected  string    `json:"selected"`
	Correct   string    `json:"correct"`
	IsCorrect bool      `json:"is_correct"`
	Timestamp time.Time `json:"timestamp"`
}

// QuizService generates quizzes through a model.TextGenerator and drives
// interactive quiz sessions through a core.SessionStore.
type QuizService struct {
	gen      model.TextGenerator
	sessions core.SessionStore
	logger   logging.Logger
}

// QuizServiceOptions configures a QuizService.
type QuizServiceOptions struct {
	Logger logging.Logger
}

// NewQuizService wires a quiz service to a generator and a session store.
func NewQuizService(gen model.TextGenerator, sessions core.SessionStore, optFns ...func(o *QuizServiceOptions)) *QuizService {
	opts := QuizServiceOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &QuizService{gen: gen, sessions: sessions, logger: opts.Logger}
}

// GeneratedQuiz is the result of GenerateQuiz. Exactly one of Quiz and Raw
// is populated: Raw carries the unparsable model output so the caller can
// surface it instead of dropping the generation.
type GeneratedQuiz struct {
	Quiz *Quiz  `json:"quiz,omitempty"`
	Raw  string `json:"llm_raw,omitempty"`
}

// GenerateQuiz asks the model for a multiple-choice quiz on the concept.
// Missing quiz and question ids are backfilled. Invalid arguments fail
// loudly; an unparsable model response degrades to GeneratedQuiz.Raw.
func (s *QuizService) GenerateQuiz(ctx context.Context, concept, difficulty string) (*GeneratedQuiz, error) {
	if strings.TrimSpace(concept) == "" {
		return nil, fmt.Errorf("concept must be a non-empty string")
	}
	difficulty = strings.ToLower(difficulty)
	if difficulty == "" {
		difficulty = "medium"
	}
	if !difficultyValid(difficulty) {
		return nil, fmt.Errorf("difficulty must be one of %v", validDifficulties)
	}

	prompt := fmt.Sprintf(`Generate a %[1]s quiz on the concept '%[2]s'.
Return a JSON object with the following structure:
{
  "quiz_id": "unique_quiz_id",
  "quiz_title": "Quiz about %[2]s",
  "concept": "%[2]s",
  "difficulty": "%[1]s",
  "questions": [
    {
      "question_id": "q1",
      "question": "...",
      "options": ["A) ...", "B) ...", "C) ...", "D) ..."],
      "correct_answer": "A) ...",
      "explanation": "Detailed explanation of why this is correct and why others are wrong",
      "hint": "A helpful hint for struggling students"
    }
  ]
}

Generate 3-5 questions appropriate for %[1]s difficulty level.`, difficulty, concept)

	start := time.Now()
	raw, err := s.gen.GenerateText(ctx, prompt, model.WithTemperature(0.7))
	if err != nil {
		s.logger.Error("quiz generation failed", "concept", concept, "model", s.gen.Info().Name, "duration", time.Since(start), "error", err.Error())
		return nil, fmt.Errorf("generate quiz: %w", err)
	}
	s.logger.Debug("quiz generation completed", "concept", concept, "duration", time.Since(start))

	var quiz Quiz
	if err := extract.Into(raw, &quiz); err != nil {
		s.logger.Warn("quiz output failed extraction", "concept", concept, "error", err.Error())
		return &GeneratedQuiz{Raw: raw}, nil
	}

	if quiz.QuizID == "" {
		quiz.QuizID = uuid.NewString()
	}
	if quiz.Concept == "" {
		quiz.Concept = concept
	}
	if quiz.Difficulty == "" {
		quiz.Difficulty = difficulty
	}
	for i := range quiz.Questions {
		if quiz.Questions[i].QuestionID == "" {
			quiz.Questions[i].QuestionID = fmt.Sprintf("q%d", i+1)
		}
	}

	return &GeneratedQuiz{Quiz: &quiz}, nil
}

// QuizTurn is the state handed to the student when a quiz session starts.
type QuizTurn struct {
	SessionID      string        `json:"session_id"`
	QuizTitle      string        `json:"quiz_title"`
	TotalQuestions int           `json:"total_questions"`
	Question       *QuestionView `json:"question"`
}

// StartInteractiveQuiz opens a session for the student and returns the first
// question. The quiz value is treated as immutable for the session lifetime.
func (s *QuizService) StartInteractiveQuiz(quiz *Quiz, studentID string) (*QuizTurn, error) {
	if quiz == nil || len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("invalid quiz data: no questions")
	}
	if studentID == "" {
		studentID = "anonymous"
	}

	sess, err := s.sessions.Create(studentID, map[string]any{
		quizStateQuiz:      quiz,
		quizStateCurrent:   0,
		quizStateAnswers:   map[string]AnswerRecord{},
		quizStateScore:     0,
		quizStateCompleted: false,
	})
	if err != nil {
		return nil, err
	}

	title := quiz.QuizTitle
	if title == "" {
		title = "Quiz"
	}

	return &QuizTurn{
		SessionID:      sess.ID,
		QuizTitle:      title,
		TotalQuestions: len(quiz.Questions),
		Question:       viewOf(quiz.Questions[0], 1),
	}, nil
}

// AnswerFeedback is the immediate grading result for a submitted answer.
type AnswerFeedback struct {
	QuestionID     string        `json:"question_id"`
	SelectedAnswer string        `json:"selected_answer"`
	CorrectAnswer  string        `json:"correct_answer"`
	IsCorrect      bool          `json:"is_correct"`
	Explanation    string        `json:"explanation"`
	Score          int           `json:"score"`
	TotalQuestions int           `json:"total_questions"`
	QuizCompleted  bool          `json:"quiz_completed"`
	FinalScore     int           `json:"final_score,omitempty"`
	Percentage     float64       `json:"percentage,omitempty"`
	NextQuestion   *QuestionView `json:"next_question,omitempty"`
}

// currentQuestion resolves the question a submission for questionID must
// grade against, or reports why the submission is invalid.
func currentQuestion(state map[string]any, questionID string) (*Quiz, int, error) {
	quiz, _ := state[quizStateQuiz].(*Quiz)
	if quiz == nil {
		return nil, 0, fmt.Errorf("session holds no quiz")
	}
	if completed, _ := state[quizStateCompleted].(bool); completed {
		return nil, 0, ErrQuizCompleted
	}
	idx, _ := state[quizStateCurrent].(int)
	if idx >= len(quiz.Questions) {
		return nil, 0, fmt.Errorf("no more questions available")
	}
	if q := quiz.Questions[idx]; q.QuestionID != questionID {
		return nil, 0, fmt.Errorf("question id mismatch: expected %s", q.QuestionID)
	}
	return quiz, idx, nil
}

// SubmitAnswer grades the answer for the current question, records it,
// advances the session and returns feedback including the next question or
// the final score. Grading, recording and advancing happen as one atomic
// mutation, so concurrent submissions on the same session cannot double
// count. Invalid submissions (completed quiz, wrong question id) are
// rejected against a snapshot first so they never bump the session's
// activity timestamp and keep an idle session alive.
func (s *QuizService) SubmitAnswer(sessionID, questionID, selectedAnswer string) (*AnswerFeedback, error) {
	snap, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if _, _, err := currentQuestion(snap.State, questionID); err != nil {
		return nil, err
	}

	var (
		feedback *AnswerFeedback
		stepErr  error
	)

	_, err = s.sessions.Mutate(sessionID, func(state map[string]any) {
		// Re-checked under the session lock: a concurrent submission may
		// have advanced or completed the quiz since the snapshot.
		quiz, idx, err := currentQuestion(state, questionID)
		if err != nil {
			stepErr = err
			return
		}

		current := quiz.Questions[idx]
		isCorrect := strings.TrimSpace(selectedAnswer) == strings.TrimSpace(current.CorrectAnswer)

		// Copy-on-write so snapshots handed out earlier stay race-free.
		prev, _ := state[quizStateAnswers].(map[string]AnswerRecord)
		answers := make(map[string]AnswerRecord, len(prev)+1)
		for k, v := range prev {
			answers[k] = v
		}
		answers[questionID] = AnswerRecord{
			Selected:  selectedAnswer,
			Correct:   current.CorrectAnswer,
			IsCorrect: isCorrect,
			Timestamp: time.Now(),
		}
		state[quizStateAnswers] = answers

		score, _ := state[quizStateScore].(int)
		if isCorrect {
			score++
			state[quizStateScore] = score
		}

		state[quizStateCurrent] = idx + 1

		feedback = &AnswerFeedback{
			QuestionID:     questionID,
			SelectedAnswer: selectedAnswer,
			CorrectAnswer:  current.CorrectAnswer,
			IsCorrect:      isCorrect,
			Explanation:    current.Explanation,
			Score:          score,
			TotalQuestions: len(quiz.Questions),
		}

		if idx+1 >= len(quiz.Questions) {
			state[quizStateCompleted] = true
			feedback.QuizCompleted = true
			feedback.FinalScore = score
			feedback.Percentage = math.Round(float64(score)/float64(len(quiz.Questions))*1000) / 10
		} else {
			feedback.NextQuestion = viewOf(quiz.Questions[idx+1], idx+2)
		}
	})
	if err != nil {
		return nil, err
	}
	if stepErr != nil {
		return nil, stepErr
	}

	return feedback, nil
}

// Hint returns the hint for a question in the session's quiz, or a default
// message when the question carries none.
func (s *QuizService) Hint(sessionID, questionID string) (string, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}

	quiz, _ := sess.State[quizStateQuiz].(*Quiz)
	if quiz == nil {
		return "", fmt.Errorf("session holds no quiz")
	}
	for _, q := range quiz.Questions {
		if q.QuestionID == questionID {
			if q.Hint == "" {
				return "No hint available for this question.", nil
			}
			return q.Hint, nil
		}
	}
	return "", fmt.Errorf("question not found: %s", questionID)
}

// QuizStatus summarizes an interactive quiz session.
type QuizStatus struct {
	SessionID       string    `json:"session_id"`
	StudentID       string    `json:"student_id"`
	QuizTitle       string    `json:"quiz_title"`
	CurrentQuestion int       `json:"current_question"`
	TotalQuestions  int       `json:"total_questions"`
	Answered        int       `json:"answered"`
	Score           int       `json:"score"`
	Completed       bool      `json:"completed"`
	StartedAt       time.Time `json:"started_at"`
}

// SessionStatus returns the current progress of a quiz session without
// touching its activity timestamp.
func (s *QuizService) SessionStatus(sessionID string) (*QuizStatus, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	quiz, _ := sess.State[quizStateQuiz].(*Quiz)
	if quiz == nil {
		return nil, fmt.Errorf("session holds no quiz")
	}
	idx, _ := sess.State[quizStateCurrent].(int)
	answers, _ := sess.State[quizStateAnswers].(map[string]AnswerRecord)
	score, _ := sess.State[quizStateScore].(int)
	completed, _ := sess.State[quizStateCompleted].(bool)

	return &QuizStatus{
		SessionID:       sess.ID,
		StudentID:       sess.OwnerID,
		QuizTitle:       quiz.QuizTitle,
		CurrentQuestion: idx,
		TotalQuestions:  len(quiz.Questions),
		Answered:        len(answers),
		Score:           score,
		Completed:       completed,
		StartedAt:       sess.CreatedAt,
	}, nil
}

// EndSession destroys the quiz session, reporting whether it existed.
func (s *QuizService) EndSession(sessionID string) bool {
	return s.sessions.Destroy(sessionID)
}

func difficultyValid(d string) bool {
	for _, v := range validDifficulties {
		if d == v {
			return true
		}
	}
	return false
}
