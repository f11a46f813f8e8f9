package grading

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/quangvd/barem/core"
	"github.com/quangvd/barem/core/exam"
)

var (
	ErrUnknownRubric = errors.New("unknown rubric")
	ErrDetailMissing = errors.New("no grade detail exists for this rubric")
	ErrNoGrade       = errors.New("no grade record")

	scoreOutOfRangeText = "score must lie between 0 and the rubric max"
)

// autosaveTimeout bounds the background per-field persistence calls; they
// are detached from any request context.
const autosaveTimeout = 10 * time.Second

// API is the slice of the remote grading backend owning Grade and
// GradeDetail records.
type API interface {
	GradeHistory(ctx context.Context, examStudentID int) ([]Grade, error)
	GradeWithDetails(ctx context.Context, gradeID int) (Grade, []GradeDetail, error)
	CreateGrade(ctx context.Context, g Grade) (Grade, error)
	UpdateGrade(ctx context.Context, g Grade) error
	UpdateGradeDetail(ctx context.Context, detailID int, d GradeDetail) error
}

// Session drives score entry for one student against a fixed rubric tree.
// A grade record is guaranteed to exist before any field becomes editable;
// per-field edits persist with a debounce keyed by rubric so that edits to
// one criterion never reset a pending save for another.
type Session struct {
	api           API
	logger        core.Logger
	examStudentID int
	questions     []exam.Question
	rubrics       map[int]exam.Rubric

	mu        sync.Mutex
	scores    map[int]float64
	comment   string
	detailIDs map[int]int // rubricID -> gradeDetailID
	current   Grade
	history   []Grade

	deb *core.Debouncer
}

// NewSession loads the student's grade history (oldest first; last element
// is current) and the current attempt's detail rows. When no history
// exists a draft grade is created up front so every rubric has a concrete
// detail handle.
func NewSession(ctx context.Context, api API, logger core.Logger, examStudentID int, questions []exam.Question, debounce time.Duration) (*Session, error) {
	s := &Session{
		api:           api,
		logger:        logger,
		examStudentID: examStudentID,
		questions:     questions,
		rubrics:       make(map[int]exam.Rubric),
		scores:        make(map[int]float64),
		detailIDs:     make(map[int]int),
		deb:           core.NewDebouncer(debounce),
	}
	for _, q := range questions {
		for _, r := range q.Rubrics {
			s.rubrics[r.ID] = r
		}
	}

	history, err := api.GradeHistory(ctx, examStudentID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		draft, err := api.CreateGrade(ctx, Grade{
			ExamStudentID: examStudentID,
			GradedAt:      time.Now().UTC(),
			Attempt:       1,
			Status:        GradeStatusDraft,
		})
		if err != nil {
			return nil, errors.Wrap(err, "grading: creating draft grade")
		}
		history = []Grade{draft}
	}
	s.history = history
	s.current = history[len(history)-1]

	if err := s.loadDetails(ctx, s.current.ID); err != nil {
		return nil, err
	}
	return s, nil
}

// loadDetails seeds the score map and the rubric->detail-id map from one
// attempt's detail rows. Caller holds no lock.
func (s *Session) loadDetails(ctx context.Context, gradeID int) error {
	grade, details, err := s.api.GradeWithDetails(ctx, gradeID)
	if err != nil {
		return errors.Wrap(err, "grading: loading grade details")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comment = grade.Comment
	s.scores = make(map[int]float64, len(details))
	s.detailIDs = make(map[int]int, len(details))
	for _, d := range details {
		s.detailIDs[d.RubricID] = d.ID
		s.scores[d.RubricID] = d.Score
	}
	return nil
}

func (s *Session) ExamStudentID() int { return s.examStudentID }

func (s *Session) Questions() []exam.Question { return s.questions }

// GradeID returns the attempt currently receiving edits.
func (s *Session) GradeID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.ID
}

// Scores returns a copy of the current per-rubric inputs.
func (s *Session) Scores() map[int]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]float64, len(s.scores))
	for k, v := range s.scores {
		out[k] = v
	}
	return out
}

func (s *Session) Comment() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.comment
}

func (s *Session) SetComment(comment string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comment = comment
}

func (s *Session) History() []Grade {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Grade, len(s.history))
	copy(out, s.history)
	return out
}

// Total is the aggregate score: the sum of current rubric inputs,
// recomputed on every call, never cached.
func (s *Session) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

func (s *Session) totalLocked() float64 {
	var total float64
	for _, q := range s.questions {
		for _, r := range q.Rubrics {
			total += s.scores[r.ID]
		}
	}
	return total
}

// SetScore updates one rubric input. A value outside [0, rubric max] is
// rejected and never enters state. The accepted value renders immediately
// and persists after the debounce quiet period; a failed autosave is
// logged, not surfaced.
func (s *Session) SetScore(ctx context.Context, rubricID int, score float64) error {
	rubric, ok := s.rubrics[rubricID]
	if !ok {
		return ErrUnknownRubric
	}
	if score < 0 || score > rubric.MaxScore {
		return core.NewValidationError(
			errors.Errorf("score for rubric %d out of range", rubricID),
			core.FieldError{Field: "score", Error: scoreOutOfRangeText},
		)
	}

	s.mu.Lock()
	detailID, haveDetail := s.detailIDs[rubricID]
	gradeID := s.current.ID
	s.mu.Unlock()

	if !haveDetail {
		// detail rows can lag a freshly created grade; refresh once
		if err := s.loadDetails(ctx, gradeID); err != nil {
			return err
		}
		s.mu.Lock()
		detailID, haveDetail = s.detailIDs[rubricID]
		s.mu.Unlock()
		if !haveDetail {
			return ErrDetailMissing
		}
	}

	s.mu.Lock()
	s.scores[rubricID] = score
	s.mu.Unlock()

	s.deb.Schedule(rubricID, func() {
		ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
		defer cancel()
		detail := GradeDetail{GradeID: gradeID, RubricID: rubricID, Score: score}
		if err := s.api.UpdateGradeDetail(ctx, detailID, detail); err != nil {
			s.logger.Error(fmt.Sprintf("grading: autosave rubric %d: %v", rubricID, err), err)
		}
	})
	return nil
}

// Save records the grading attempt: aggregate score, comment, timestamp.
// A draft (never explicitly saved) attempt is finalized in place; saving
// over an already-graded attempt records a new one. The two are distinct
// transitions against distinct endpoints, not an upsert.
func (s *Session) Save(ctx context.Context) (Grade, error) {
	s.deb.Flush()

	s.mu.Lock()
	record := Grade{
		ID:            s.current.ID,
		ExamStudentID: s.examStudentID,
		TotalScore:    s.totalLocked(),
		Comment:       s.comment,
		GradedAt:      time.Now().UTC(),
		Attempt:       s.current.Attempt,
		Status:        GradeStatusGraded,
	}
	regrade := s.current.Status == GradeStatusGraded
	attempts := len(s.history)
	s.mu.Unlock()

	if regrade {
		record.ID = 0
		record.Attempt = attempts + 1
		if _, err := s.api.CreateGrade(ctx, record); err != nil {
			return Grade{}, err
		}
	} else {
		if err := s.api.UpdateGrade(ctx, record); err != nil {
			return Grade{}, err
		}
	}

	history, err := s.api.GradeHistory(ctx, s.examStudentID)
	if err != nil {
		return Grade{}, err
	}
	if len(history) == 0 {
		return Grade{}, ErrNoGrade
	}
	s.mu.Lock()
	s.history = history
	s.current = history[len(history)-1]
	current := s.current
	s.mu.Unlock()

	if err := s.loadDetails(ctx, current.ID); err != nil {
		return Grade{}, err
	}
	return current, nil
}

// ReloadHistory refreshes the attempt list (the history modal).
func (s *Session) ReloadHistory(ctx context.Context) ([]Grade, error) {
	history, err := s.api.GradeHistory(ctx, s.examStudentID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.history = history
	if len(history) > 0 {
		s.current = history[len(history)-1]
	}
	s.mu.Unlock()
	return s.History(), nil
}

// LoadAttempt points the inputs at an older attempt; subsequent edits
// target that attempt's detail rows.
func (s *Session) LoadAttempt(ctx context.Context, gradeID int) error {
	var target Grade
	var found bool
	s.mu.Lock()
	for _, g := range s.history {
		if g.ID == gradeID {
			target, found = g, true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return ErrNoGrade
	}
	if err := s.loadDetails(ctx, gradeID); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = target
	s.mu.Unlock()
	return nil
}

// Close cancels every pending autosave. A response already in flight lands
// harmlessly: it only touches the remote record.
func (s *Session) Close() {
	s.deb.Close()
}
