// Package tutormesh provides a high-level façade over the tutoring services
// (sessions, profiles, model adapters & logging) enabling rapid construction
// of LLM-backed tutoring backends. Most applications interact with this
// package by:
//  1. Creating a TutorMesh via New() with a model.TextGenerator (optionally
//     overriding default in-memory stores)
//  2. Starting the session janitor (StartJanitor) for TTL cleanup
//  3. Driving the Tutor and Quiz services directly, or registering Tools()
//     with a transport layer (MCP, HTTP, gRPC)
//
// All defaults are safe for local development and testing; production
// deployments typically supply durable store implementations and a
// structured logger.
package tutormesh

import (
	"context"
	"time"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/logging"
	"github.com/hupe1980/tutormesh/model"
	"github.com/hupe1980/tutormesh/profile"
	"github.com/hupe1980/tutormesh/session"
	"github.com/hupe1980/tutormesh/tool"
)

// Options configures the TutorMesh instance.
type Options struct {
	// Stores (default to in-memory implementations if not provided)
	SessionStore core.SessionStore
	ProfileStore *profile.InMemoryStore

	// SessionTTL is how long an idle session survives before the janitor
	// destroys it.
	SessionTTL time.Duration

	// SweepInterval is how often the janitor checks for idle sessions.
	SweepInterval time.Duration

	// MaxModelCalls caps the number of model calls made through this
	// instance. 0 means unlimited.
	MaxModelCalls int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// TutorMesh is the high-level façade aggregating the tutoring and quiz
// services over shared session, profile and model infrastructure.
type TutorMesh struct {
	opts     Options
	gen      model.TextGenerator
	sessions core.SessionStore
	profiles *profile.InMemoryStore
	tutor    *tool.TutorService
	quiz     *tool.QuizService
}

// New creates a TutorMesh instance backed by the given generator. Any unset
// store is initialized with an in-memory implementation.
func New(gen model.TextGenerator, optFns ...func(o *Options)) *TutorMesh {
	opts := Options{
		SessionStore:  session.NewInMemoryStore(),
		ProfileStore:  profile.NewInMemoryStore(),
		SessionTTL:    time.Hour,
		SweepInterval: time.Minute,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxModelCalls > 0 {
		gen = model.NewLimitedGenerator(gen, opts.MaxModelCalls)
	}

	withLogger := func(l logging.Logger) func(o *tool.TutorServiceOptions) {
		return func(o *tool.TutorServiceOptions) { o.Logger = l }
	}

	return &TutorMesh{
		opts:     opts,
		gen:      gen,
		sessions: opts.SessionStore,
		profiles: opts.ProfileStore,
		tutor:    tool.NewTutorService(gen, opts.SessionStore, withLogger(opts.Logger)),
		quiz: tool.NewQuizService(gen, opts.SessionStore, func(o *tool.QuizServiceOptions) {
			o.Logger = opts.Logger
		}),
	}
}

// Tutor returns the tutoring service.
func (m *TutorMesh) Tutor() *tool.TutorService { return m.tutor }

// Quiz returns the quiz service.
func (m *TutorMesh) Quiz() *tool.QuizService { return m.quiz }

// Sessions returns the underlying session store.
func (m *TutorMesh) Sessions() core.SessionStore { return m.sessions }

// Profiles returns the underlying profile store.
func (m *TutorMesh) Profiles() *profile.InMemoryStore { return m.profiles }

// Generator returns the text generator in use, including any call-limit
// decoration.
func (m *TutorMesh) Generator() model.TextGenerator { return m.gen }

// Tools returns every tutoring and quiz operation as a schema-described tool
// for registration with a transport layer.
func (m *TutorMesh) Tools() []tool.Tool {
	return append(m.tutor.Tools(), m.quiz.Tools()...)
}

// StartJanitor launches the background TTL sweep for idle sessions. It
// returns immediately; the sweep stops when ctx is canceled.
func (m *TutorMesh) StartJanitor(ctx context.Context) {
	go session.RunJanitor(ctx, m.sessions, m.opts.SweepInterval, m.opts.SessionTTL, m.opts.Logger)
}

// ListSessions returns snapshots of all live sessions owned by the student.
func (m *TutorMesh) ListSessions(studentID string) []*core.Session {
	return m.sessions.ListByOwner(studentID)
}
