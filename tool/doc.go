// Package tool implements the tutoring-facing operations of TutorMesh: the
// TutorService (multi-turn tutoring chat with per-session context) and the
// QuizService (LLM-generated quizzes driven through interactive sessions).
// Both services follow the same shape: build a prompt, send it to a
// model.TextGenerator, salvage structure from the raw output via the extract
// package, and read/write session state through a core.SessionStore.
//
// Each service can also expose its operations as schema-described function
// tools (Tool, FunctionTool) so a surrounding transport layer (MCP server,
// HTTP handlers) can register them without knowing the service types.
package tool
