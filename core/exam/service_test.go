package exam

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quangvd/barem/core"
)

// fakeAPI implements API with overridable behaviors; unset ones are no-ops.
type fakeAPI struct {
	examsFunc     func(ctx context.Context, filter ListFilter) (ExamPage, error)
	createFunc    func(ctx context.Context, ne NewExam) (Exam, error)
	studentsFunc  func(ctx context.Context, examID int, filter StudentFilter) (StudentPage, error)
	questionsFunc func(ctx context.Context, examID int) ([]Question, error)
	zipStatusFunc func(ctx context.Context, zipID int) (ZipStatus, error)
}

func (f *fakeAPI) Exams(ctx context.Context, filter ListFilter) (ExamPage, error) {
	if f.examsFunc != nil {
		return f.examsFunc(ctx, filter)
	}
	return ExamPage{}, nil
}

func (f *fakeAPI) MyExams(ctx context.Context, filter ListFilter) (ExamPage, error) {
	return f.Exams(ctx, filter)
}

func (f *fakeAPI) Exam(ctx context.Context, id int) (Exam, error) { return Exam{ID: id}, nil }

func (f *fakeAPI) CreateExam(ctx context.Context, ne NewExam) (Exam, error) {
	if f.createFunc != nil {
		return f.createFunc(ctx, ne)
	}
	return Exam{}, nil
}

func (f *fakeAPI) DeleteExam(ctx context.Context, id int) error { return nil }

func (f *fakeAPI) Students(ctx context.Context, examID int, filter StudentFilter) (StudentPage, error) {
	if f.studentsFunc != nil {
		return f.studentsFunc(ctx, examID, filter)
	}
	return StudentPage{}, nil
}

func (f *fakeAPI) Questions(ctx context.Context, examID int) ([]Question, error) {
	if f.questionsFunc != nil {
		return f.questionsFunc(ctx, examID)
	}
	return nil, nil
}

func (f *fakeAPI) ZipHistory(ctx context.Context, examID int, filter ListFilter) ([]ExamZip, error) {
	return nil, nil
}

func (f *fakeAPI) ZipStatus(ctx context.Context, zipID int) (ZipStatus, error) {
	if f.zipStatusFunc != nil {
		return f.zipStatusFunc(ctx, zipID)
	}
	return ZipStatus{}, nil
}

func (f *fakeAPI) UploadDescription(ctx context.Context, examID int, file io.Reader, filename string, size int64, progress ProgressFunc) error {
	return nil
}

func (f *fakeAPI) UploadRoster(ctx context.Context, examID int, file io.Reader, filename string, size int64, progress ProgressFunc) error {
	return nil
}

func (f *fakeAPI) UploadZip(ctx context.Context, examID int, file io.Reader, filename string, size int64, progress ProgressFunc) (int, error) {
	return 0, nil
}

var _ API = (*fakeAPI)(nil)

func TestService_Create_validates(t *testing.T) {
	svc := NewService(&fakeAPI{}, core.NopLogger{})

	_, err := svc.Create(context.Background(), NewExam{Title: "Final"})
	assert.Error(t, err) // examCode required

	api := &fakeAPI{createFunc: func(ctx context.Context, ne NewExam) (Exam, error) {
		return Exam{ID: 7, ExamCode: ne.ExamCode, Title: ne.Title}, nil
	}}
	svc = NewService(api, core.NopLogger{})
	created, err := svc.Create(context.Background(), NewExam{ExamCode: " PE_PRN231 ", Title: " Final "})
	assert.NoError(t, err)
	assert.Equal(t, "PE_PRN231", created.ExamCode)
	assert.Equal(t, "Final", created.Title)
}

func TestService_Students_statusFilter(t *testing.T) {
	var gotFilter StudentFilter
	api := &fakeAPI{studentsFunc: func(ctx context.Context, examID int, filter StudentFilter) (StudentPage, error) {
		gotFilter = filter
		return StudentPage{}, nil
	}}
	svc := NewService(api, core.NopLogger{})

	// empty status defaults to ALL
	_, err := svc.Students(context.Background(), 1, StudentFilter{Page: 1, Size: 12})
	assert.NoError(t, err)
	assert.Equal(t, StudentStatusAll, gotFilter.Status)

	_, err = svc.Students(context.Background(), 1, StudentFilter{Status: StudentStatusNotFound})
	assert.NoError(t, err)
	assert.Equal(t, StudentStatusNotFound, gotFilter.Status)

	_, err = svc.Students(context.Background(), 1, StudentFilter{Status: "BOGUS"})
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestService_Questions_sorted(t *testing.T) {
	api := &fakeAPI{questionsFunc: func(ctx context.Context, examID int) ([]Question, error) {
		return []Question{
			{ID: 20, QuestionNumber: 2, Rubrics: []Rubric{
				{ID: 202, OrderIndex: 2},
				{ID: 201, OrderIndex: 1},
			}},
			{ID: 10, QuestionNumber: 1, Rubrics: []Rubric{
				{ID: 103, OrderIndex: 3},
				{ID: 101, OrderIndex: 1},
				{ID: 102, OrderIndex: 2},
			}},
		}, nil
	}}
	svc := NewService(api, core.NopLogger{})

	questions, err := svc.Questions(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, []int{10, 20}, []int{questions[0].ID, questions[1].ID})
	assert.Equal(t, []Rubric{
		{ID: 101, OrderIndex: 1},
		{ID: 102, OrderIndex: 2},
		{ID: 103, OrderIndex: 3},
	}, questions[0].Rubrics)
}

func TestService_Gradable(t *testing.T) {
	students := []ExamStudent{
		{ExamStudentID: 1, Status: StudentStatusParsed, DocFiles: []DocFile{{DocFileID: 11}}},
		{ExamStudentID: 2, Status: StudentStatusNotFound},
		{ExamStudentID: 3, Status: StudentStatusGraded, DocFiles: []DocFile{{DocFileID: 31}}},
		{ExamStudentID: 4, Status: StudentStatusParsed}, // no submission
	}
	api := &fakeAPI{studentsFunc: func(ctx context.Context, examID int, filter StudentFilter) (StudentPage, error) {
		return StudentPage{Students: students}, nil
	}}
	svc := NewService(api, core.NopLogger{})

	gradable, err := svc.Gradable(context.Background(), 1)
	assert.NoError(t, err)
	ids := make([]int, 0, len(gradable))
	for _, s := range gradable {
		ids = append(ids, s.ExamStudentID)
	}
	assert.Equal(t, []int{1, 3}, ids)
}

func TestExamStudent_LatestDoc(t *testing.T) {
	s := ExamStudent{}
	_, ok := s.LatestDoc()
	assert.False(t, ok)

	s.DocFiles = []DocFile{{DocFileID: 1}, {DocFileID: 2}, {DocFileID: 3}}
	doc, ok := s.LatestDoc()
	assert.True(t, ok)
	assert.Equal(t, 3, doc.DocFileID)
}
