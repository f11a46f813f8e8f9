package grading

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/quangvd/barem/core"
	"github.com/quangvd/barem/core/exam"
)

const testDebounce = 20 * time.Millisecond

func settle() { time.Sleep(5 * testDebounce) }

var testQuestions = []exam.Question{
	{ID: 1, QuestionNumber: 1, MaxScore: 5, Rubrics: []exam.Rubric{
		{ID: 11, MaxScore: 2, OrderIndex: 1},
		{ID: 12, MaxScore: 3, OrderIndex: 2},
	}},
	{ID: 2, QuestionNumber: 2, MaxScore: 4, Rubrics: []exam.Rubric{
		{ID: 21, MaxScore: 4, OrderIndex: 1},
	}},
}

// fakeGradeAPI is an in-memory grade store recording every mutation.
type fakeGradeAPI struct {
	mu      sync.Mutex
	nextID  int
	grades  []Grade
	details map[int][]GradeDetail // gradeID -> rows

	detailUpdates []GradeDetail
	updateErr     error
}

func newFakeGradeAPI() *fakeGradeAPI {
	return &fakeGradeAPI{nextID: 100, details: make(map[int][]GradeDetail)}
}

// seed installs an existing attempt with fully populated detail rows.
func (f *fakeGradeAPI) seed(g Grade, scores map[int]float64) Grade {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	g.ID = f.nextID
	f.grades = append(f.grades, g)
	f.seedDetailsLocked(g.ID, scores)
	return g
}

func (f *fakeGradeAPI) seedDetailsLocked(gradeID int, scores map[int]float64) {
	var rows []GradeDetail
	for _, q := range testQuestions {
		for _, r := range q.Rubrics {
			f.nextID++
			rows = append(rows, GradeDetail{ID: f.nextID, GradeID: gradeID, RubricID: r.ID, Score: scores[r.ID]})
		}
	}
	f.details[gradeID] = rows
}

func (f *fakeGradeAPI) GradeHistory(ctx context.Context, examStudentID int) ([]Grade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Grade, 0, len(f.grades))
	for _, g := range f.grades {
		if g.ExamStudentID == examStudentID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGradeAPI) GradeWithDetails(ctx context.Context, gradeID int) (Grade, []GradeDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.grades {
		if g.ID == gradeID {
			return g, f.details[gradeID], nil
		}
	}
	return Grade{}, nil, errors.New("grade not found")
}

// CreateGrade materializes detail rows immediately, as the backend does.
func (f *fakeGradeAPI) CreateGrade(ctx context.Context, g Grade) (Grade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	g.ID = f.nextID
	f.grades = append(f.grades, g)
	f.seedDetailsLocked(g.ID, nil)
	return g, nil
}

func (f *fakeGradeAPI) UpdateGrade(ctx context.Context, g Grade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.grades {
		if f.grades[i].ID == g.ID {
			f.grades[i] = g
			return nil
		}
	}
	return errors.New("grade not found")
}

func (f *fakeGradeAPI) UpdateGradeDetail(ctx context.Context, detailID int, d GradeDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	d.ID = detailID
	f.detailUpdates = append(f.detailUpdates, d)
	for _, rows := range f.details {
		for i := range rows {
			if rows[i].ID == detailID {
				rows[i].Score = d.Score
			}
		}
	}
	return nil
}

func (f *fakeGradeAPI) updates() []GradeDetail {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]GradeDetail, len(f.detailUpdates))
	copy(out, f.detailUpdates)
	return out
}

type captureLogger struct {
	core.NopLogger
	mu   sync.Mutex
	errs []string
}

func (l *captureLogger) Error(msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, msg)
}

func (l *captureLogger) errored() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.errs))
	copy(out, l.errs)
	return out
}

func newTestSession(t *testing.T, api API) *Session {
	s, err := NewSession(context.Background(), api, core.NopLogger{}, 42, testQuestions, testDebounce)
	if err != nil {
		t.Fatalf("NewSession() failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestSession_createsDraftWhenNoHistory(t *testing.T) {
	api := newFakeGradeAPI()
	s := newTestSession(t, api)

	history := s.History()
	assert.Len(t, history, 1)
	assert.Equal(t, GradeStatusDraft, history[0].Status)
	assert.Equal(t, 1, history[0].Attempt)
	assert.Equal(t, 42, history[0].ExamStudentID)
	assert.Equal(t, history[0].ID, s.GradeID())
}

func TestSession_seedsFromLatestAttempt(t *testing.T) {
	api := newFakeGradeAPI()
	api.seed(Grade{ExamStudentID: 42, Attempt: 1, Status: GradeStatusGraded}, map[int]float64{11: 1})
	latest := api.seed(Grade{ExamStudentID: 42, Attempt: 2, Status: GradeStatusGraded, Comment: "resubmitted"},
		map[int]float64{11: 2, 12: 1.5, 21: 3})
	s := newTestSession(t, api)

	assert.Equal(t, latest.ID, s.GradeID())
	assert.Equal(t, "resubmitted", s.Comment())
	assert.Equal(t, map[int]float64{11: 2, 12: 1.5, 21: 3}, s.Scores())
	assert.Equal(t, 6.5, s.Total())
}

func TestSession_SetScore_bounds(t *testing.T) {
	api := newFakeGradeAPI()
	s := newTestSession(t, api)
	ctx := context.Background()

	assert.Equal(t, ErrUnknownRubric, s.SetScore(ctx, 999, 1))

	var vErr *core.ValidationError
	assert.ErrorAs(t, s.SetScore(ctx, 11, -0.5), &vErr)
	assert.ErrorAs(t, s.SetScore(ctx, 11, 2.01), &vErr)
	assert.Zero(t, s.Scores()[11]) // rejected values never enter state

	assert.NoError(t, s.SetScore(ctx, 11, 0)) // bounds themselves are valid
	assert.NoError(t, s.SetScore(ctx, 11, 2))
	assert.Equal(t, 2.0, s.Scores()[11])
}

func TestSession_totalRecomputes(t *testing.T) {
	api := newFakeGradeAPI()
	s := newTestSession(t, api)
	ctx := context.Background()

	assert.Zero(t, s.Total())
	assert.NoError(t, s.SetScore(ctx, 11, 1.5))
	assert.NoError(t, s.SetScore(ctx, 21, 4))
	assert.Equal(t, 5.5, s.Total())
	assert.NoError(t, s.SetScore(ctx, 21, 2))
	assert.Equal(t, 3.5, s.Total())
}

func TestSession_autosaveDebounces(t *testing.T) {
	api := newFakeGradeAPI()
	s := newTestSession(t, api)
	ctx := context.Background()

	// rapid edits to one rubric collapse into one save of the latest value
	assert.NoError(t, s.SetScore(ctx, 12, 1))
	assert.NoError(t, s.SetScore(ctx, 12, 2))
	assert.NoError(t, s.SetScore(ctx, 12, 2.5))
	settle()

	updates := api.updates()
	assert.Len(t, updates, 1)
	assert.Equal(t, 12, updates[0].RubricID)
	assert.Equal(t, 2.5, updates[0].Score)
}

func TestSession_autosavePerRubric(t *testing.T) {
	api := newFakeGradeAPI()
	s := newTestSession(t, api)
	ctx := context.Background()

	// edits to different rubrics never reset each other's pending save
	assert.NoError(t, s.SetScore(ctx, 11, 1))
	assert.NoError(t, s.SetScore(ctx, 21, 3))
	settle()

	updates := api.updates()
	assert.Len(t, updates, 2)
	byRubric := map[int]float64{}
	for _, u := range updates {
		byRubric[u.RubricID] = u.Score
	}
	assert.Equal(t, map[int]float64{11: 1, 21: 3}, byRubric)
}

func TestSession_autosaveFailureIsLoggedNotSurfaced(t *testing.T) {
	api := newFakeGradeAPI()
	logger := &captureLogger{}
	s, err := NewSession(context.Background(), api, logger, 42, testQuestions, testDebounce)
	assert.NoError(t, err)
	defer s.Close()

	api.mu.Lock()
	api.updateErr = errors.New("backend down")
	api.mu.Unlock()

	assert.NoError(t, s.SetScore(context.Background(), 11, 1)) // accepted locally
	settle()

	assert.Equal(t, 1.0, s.Scores()[11])
	assert.NotEmpty(t, logger.errored())
}

func TestSession_saveFinalizesDraft(t *testing.T) {
	api := newFakeGradeAPI()
	s := newTestSession(t, api)
	ctx := context.Background()

	assert.NoError(t, s.SetScore(ctx, 11, 2))
	assert.NoError(t, s.SetScore(ctx, 12, 3))
	s.SetComment("solid work")

	saved, err := s.Save(ctx)
	assert.NoError(t, err)
	assert.Equal(t, GradeStatusGraded, saved.Status)
	assert.Equal(t, 1, saved.Attempt) // draft finalized in place, no new attempt
	assert.Equal(t, 5.0, saved.TotalScore)
	assert.Equal(t, "solid work", saved.Comment)
	assert.Len(t, s.History(), 1)

	// pending autosaves were flushed before the aggregate was computed
	assert.NotEmpty(t, api.updates())
}

func TestSession_saveOverGradedCreatesNewAttempt(t *testing.T) {
	api := newFakeGradeAPI()
	api.seed(Grade{ExamStudentID: 42, Attempt: 1, Status: GradeStatusGraded, TotalScore: 4},
		map[int]float64{11: 1, 12: 3})
	s := newTestSession(t, api)
	ctx := context.Background()

	assert.NoError(t, s.SetScore(ctx, 21, 4))
	saved, err := s.Save(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, saved.Attempt)
	assert.Equal(t, GradeStatusGraded, saved.Status)
	assert.Equal(t, 8.0, saved.TotalScore)

	history := s.History()
	assert.Len(t, history, 2)
	assert.Equal(t, saved.ID, s.GradeID())
}

func TestSession_loadAttempt(t *testing.T) {
	api := newFakeGradeAPI()
	first := api.seed(Grade{ExamStudentID: 42, Attempt: 1, Status: GradeStatusGraded, Comment: "first pass"},
		map[int]float64{11: 1})
	api.seed(Grade{ExamStudentID: 42, Attempt: 2, Status: GradeStatusGraded}, map[int]float64{11: 2})
	s := newTestSession(t, api)

	assert.Equal(t, ErrNoGrade, s.LoadAttempt(context.Background(), 9999))

	assert.NoError(t, s.LoadAttempt(context.Background(), first.ID))
	assert.Equal(t, first.ID, s.GradeID())
	assert.Equal(t, "first pass", s.Comment())
	assert.Equal(t, 1.0, s.Scores()[11])
}

func TestManager_oneLiveSession(t *testing.T) {
	api := newFakeGradeAPI()
	questions := questionSourceFunc(func(ctx context.Context, examID int) ([]exam.Question, error) {
		return testQuestions, nil
	})
	m := NewManager(api, questions, core.NopLogger{}, testDebounce)
	defer m.Close()
	ctx := context.Background()

	s1, err := m.Session(ctx, 1, 42)
	assert.NoError(t, err)
	again, err := m.Session(ctx, 1, 42)
	assert.NoError(t, err)
	assert.Same(t, s1, again)
	assert.Same(t, s1, m.Current(42))

	s2, err := m.Session(ctx, 1, 43)
	assert.NoError(t, err)
	assert.NotSame(t, s1, s2)
	assert.Nil(t, m.Current(42))
	assert.Same(t, s2, m.Current(43))
}

type questionSourceFunc func(ctx context.Context, examID int) ([]exam.Question, error)

func (f questionSourceFunc) Questions(ctx context.Context, examID int) ([]exam.Question, error) {
	return f(ctx, examID)
}
