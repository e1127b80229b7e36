package tool

import (
	"context"
	"fmt"
)

// generateQuizArgs is the argument container for the generate_quiz tool.
type generateQuizArgs struct {
	Concept    string `json:"concept" description:"The concept to generate a quiz for"`
	Difficulty string `json:"difficulty,omitempty" description:"Quiz difficulty level" enum:"easy,medium,hard"`
}

// submitAnswerArgs is the argument container for the submit_quiz_answer tool.
type submitAnswerArgs struct {
	SessionID      string `json:"session_id" description:"Interactive quiz session id"`
	QuestionID     string `json:"question_id" description:"Id of the question being answered"`
	SelectedAnswer string `json:"selected_answer" description:"The answer option selected by the student"`
}

// Tools exposes the quiz operations as schema-described function tools.
func (s *QuizService) Tools() []Tool {
	return []Tool{
		NewFunctionToolFromStruct(
			"generate_quiz",
			"Generate a multiple-choice quiz on a concept at a given difficulty",
			generateQuizArgs{},
			func(ctx context.Context, args map[string]any) (any, error) {
				concept, _ := args["concept"].(string)
				difficulty, _ := args["difficulty"].(string)
				return s.GenerateQuiz(ctx, concept, difficulty)
			},
		),
		NewFunctionToolFromStruct(
			"submit_quiz_answer",
			"Submit an answer for the current question of an interactive quiz session",
			submitAnswerArgs{},
			func(ctx context.Context, args map[string]any) (any, error) {
				sessionID, _ := args["session_id"].(string)
				questionID, _ := args["question_id"].(string)
				answer, _ := args["selected_answer"].(string)
				return s.SubmitAnswer(sessionID, questionID, answer)
			},
		),
		NewFunctionTool(
			"get_quiz_hint",
			"Get a hint for a question in an interactive quiz session",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"session_id":  map[string]any{"type": "string", "description": "Interactive quiz session id"},
					"question_id": map[string]any{"type": "string", "description": "Id of the question to get a hint for"},
				},
				"required": []any{"session_id", "question_id"},
			},
			func(ctx context.Context, args map[string]any) (any, error) {
				sessionID, _ := args["session_id"].(string)
				questionID, _ := args["question_id"].(string)
				hint, err := s.Hint(sessionID, questionID)
				if err != nil {
					return nil, err
				}
				return map[string]any{"question_id": questionID, "hint": hint}, nil
			},
		),
		NewFunctionTool(
			"get_quiz_session_status",
			"Get the progress of an interactive quiz session",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"session_id": map[string]any{"type": "string", "description": "Interactive quiz session id"},
				},
				"required": []any{"session_id"},
			},
			func(ctx context.Context, args map[string]any) (any, error) {
				sessionID, _ := args["session_id"].(string)
				return s.SessionStatus(sessionID)
			},
		),
	}
}

// startTutoringArgs is the argument container for the start_tutoring_session
// tool.
type startTutoringArgs struct {
	StudentID string `json:"student_id" description:"Identifier of the student"`
	Subject   string `json:"subject,omitempty" description:"Subject area for the session"`
}

// tutorChatArgs is the argument container for the tutoring_chat tool.
type tutorChatArgs struct {
	SessionID   string `json:"session_id" description:"Tutoring session id"`
	Query       string `json:"query" description:"The student's question"`
	RequestType string `json:"request_type,omitempty" description:"Kind of help requested" enum:"explanation,step_by_step,alternative,clarification,practice"`
}

// Tools exposes the tutoring operations as schema-described function tools.
func (s *TutorService) Tools() []Tool {
	return []Tool{
		NewFunctionToolFromStruct(
			"start_tutoring_session",
			"Start a personalized tutoring session for a student",
			startTutoringArgs{},
			func(ctx context.Context, args map[string]any) (any, error) {
				studentID, _ := args["student_id"].(string)
				subject, _ := args["subject"].(string)
				return s.StartSession(ctx, studentID, subject, nil)
			},
		),
		NewFunctionToolFromStruct(
			"tutoring_chat",
			"Ask the tutor a question within an active tutoring session",
			tutorChatArgs{},
			func(ctx context.Context, args map[string]any) (any, error) {
				sessionID, _ := args["session_id"].(string)
				query, _ := args["query"].(string)
				requestType, _ := args["request_type"].(string)
				return s.Chat(ctx, sessionID, query, requestType)
			},
		),
		NewFunctionTool(
			"get_step_guidance",
			"Get step-by-step guidance for learning a concept",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"session_id":   map[string]any{"type": "string", "description": "Tutoring session id"},
					"concept":      map[string]any{"type": "string", "description": "The concept to break into steps"},
					"current_step": map[string]any{"type": "integer", "description": "Step the student is on (1-based)"},
				},
				"required": []any{"session_id", "concept"},
			},
			func(ctx context.Context, args map[string]any) (any, error) {
				sessionID, _ := args["session_id"].(string)
				concept, _ := args["concept"].(string)
				step := 1
				switch v := args["current_step"].(type) {
				case int:
					step = v
				case float64:
					step = int(v)
				}
				return s.StepGuidance(ctx, sessionID, concept, step)
			},
		),
		NewFunctionTool(
			"update_understanding",
			"Record the student's understanding level for a concept",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"session_id": map[string]any{"type": "string", "description": "Tutoring session id"},
					"concept":    map[string]any{"type": "string", "description": "The concept being assessed"},
					"level":      map[string]any{"type": "number", "description": "Understanding level from 0.0 to 1.0"},
				},
				"required": []any{"session_id", "concept", "level"},
			},
			func(ctx context.Context, args map[string]any) (any, error) {
				sessionID, _ := args["session_id"].(string)
				concept, _ := args["concept"].(string)
				level, ok := args["level"].(float64)
				if !ok {
					if n, isInt := args["level"].(int); isInt {
						level = float64(n)
					} else {
						return nil, fmt.Errorf("level must be a number")
					}
				}
				return s.UpdateUnderstanding(sessionID, concept, level)
			},
		),
	}
}
