package grading

import (
	"context"
	"sync"
	"time"

	"github.com/quangvd/barem/core"
	"github.com/quangvd/barem/core/exam"
)

// QuestionSource provides the rubric tree for an exam.
type QuestionSource interface {
	Questions(ctx context.Context, examID int) ([]exam.Question, error)
}

// Manager keeps at most one live Session per operator: moving to another
// student closes the previous session so its pending timers never outlive
// the view they belong to.
type Manager struct {
	api       API
	questions QuestionSource
	logger    core.Logger
	debounce  time.Duration

	mu        sync.Mutex
	current   *Session
	currentID int
}

func NewManager(api API, questions QuestionSource, logger core.Logger, debounce time.Duration) *Manager {
	return &Manager{api: api, questions: questions, logger: logger, debounce: debounce}
}

// Session returns the live session for examStudentID, creating it (and
// tearing down any session for another student) as needed.
func (m *Manager) Session(ctx context.Context, examID, examStudentID int) (*Session, error) {
	m.mu.Lock()
	if m.current != nil && m.currentID == examStudentID {
		s := m.current
		m.mu.Unlock()
		return s, nil
	}
	prev := m.current
	m.current, m.currentID = nil, 0
	m.mu.Unlock()

	if prev != nil {
		prev.Close()
	}

	questions, err := m.questions.Questions(ctx, examID)
	if err != nil {
		return nil, err
	}
	s, err := NewSession(ctx, m.api, m.logger, examStudentID, questions, m.debounce)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.current, m.currentID = s, examStudentID
	m.mu.Unlock()
	return s, nil
}

// Current returns the live session for examStudentID, or nil.
func (m *Manager) Current(examStudentID int) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.currentID == examStudentID {
		return m.current
	}
	return nil
}

// Close tears down the live session, if any.
func (m *Manager) Close() {
	m.mu.Lock()
	s := m.current
	m.current, m.currentID = nil, 0
	m.mu.Unlock()
	if s != nil {
		s.Close()
	}
}
