package exam

import (
	"context"
	"errors"
	"io"
	"sort"

	"github.com/quangvd/barem/core"
)

var (
	ErrNotFound      = errors.New("exam not found")
	ErrInvalidStatus = errors.New("invalid student status filter")
)

// ProgressFunc reports upload progress in bytes. total may be 0 when the
// size is unknown.
type ProgressFunc func(sent, total int64)

type (
	// API is the slice of the remote grading backend serving exam turns,
	// enrollments and archive uploads.
	API interface {
		Exams(ctx context.Context, filter ListFilter) (ExamPage, error)
		MyExams(ctx context.Context, filter ListFilter) (ExamPage, error)
		Exam(ctx context.Context, id int) (Exam, error)
		CreateExam(ctx context.Context, ne NewExam) (Exam, error)
		DeleteExam(ctx context.Context, id int) error
		Students(ctx context.Context, examID int, filter StudentFilter) (StudentPage, error)
		Questions(ctx context.Context, examID int) ([]Question, error)
		ZipHistory(ctx context.Context, examID int, filter ListFilter) ([]ExamZip, error)
		ZipStatus(ctx context.Context, zipID int) (ZipStatus, error)
		UploadDescription(ctx context.Context, examID int, file io.Reader, filename string, size int64, progress ProgressFunc) error
		UploadRoster(ctx context.Context, examID int, file io.Reader, filename string, size int64, progress ProgressFunc) error
		UploadZip(ctx context.Context, examID int, file io.Reader, filename string, size int64, progress ProgressFunc) (zipID int, err error)
	}

	Service struct {
		api    API
		logger core.Logger
	}
)

func NewService(api API, logger core.Logger) *Service {
	return &Service{api: api, logger: logger}
}

func (svc *Service) Exams(ctx context.Context, filter ListFilter) (ExamPage, error) {
	filter.Search = core.CleanString(filter.Search)
	return svc.api.Exams(ctx, filter)
}

func (svc *Service) MyExams(ctx context.Context, filter ListFilter) (ExamPage, error) {
	filter.Search = core.CleanString(filter.Search)
	return svc.api.MyExams(ctx, filter)
}

func (svc *Service) Exam(ctx context.Context, id int) (Exam, error) {
	return svc.api.Exam(ctx, id)
}

func (svc *Service) Create(ctx context.Context, ne NewExam) (Exam, error) {
	ne.ExamCode = core.CleanString(ne.ExamCode)
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	if err := core.Validate.Struct(ne); err != nil {
		return Exam{}, err
	}
	return svc.api.CreateExam(ctx, ne)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.api.DeleteExam(ctx, id)
}

func (svc *Service) Students(ctx context.Context, examID int, filter StudentFilter) (StudentPage, error) {
	if filter.Status == "" {
		filter.Status = StudentStatusAll
	}
	if !ValidStudentStatus(filter.Status) {
		return StudentPage{}, core.NewValidationError(ErrInvalidStatus,
			core.FieldError{Field: "status", Error: ErrInvalidStatus.Error()})
	}
	filter.Search = core.CleanString(filter.Search)
	return svc.api.Students(ctx, examID, filter)
}

// Gradable returns every student that may be navigated into the grading
// view, in list order.
func (svc *Service) Gradable(ctx context.Context, examID int) ([]ExamStudent, error) {
	page, err := svc.api.Students(ctx, examID, StudentFilter{Page: 1, Size: 1000, Status: StudentStatusAll})
	if err != nil {
		return nil, err
	}
	gradable := make([]ExamStudent, 0, len(page.Students))
	for _, s := range page.Students {
		if s.Gradable() {
			gradable = append(gradable, s)
		}
	}
	return gradable, nil
}

// Questions returns the rubric tree ordered for display: questions by
// number, criteria by order index.
func (svc *Service) Questions(ctx context.Context, examID int) ([]Question, error) {
	questions, err := svc.api.Questions(ctx, examID)
	if err != nil {
		return nil, err
	}
	sort.Slice(questions, func(i, j int) bool {
		return questions[i].QuestionNumber < questions[j].QuestionNumber
	})
	for i := range questions {
		rubrics := questions[i].Rubrics
		sort.Slice(rubrics, func(a, b int) bool {
			return rubrics[a].OrderIndex < rubrics[b].OrderIndex
		})
	}
	return questions, nil
}

func (svc *Service) ZipHistory(ctx context.Context, examID int, filter ListFilter) ([]ExamZip, error) {
	return svc.api.ZipHistory(ctx, examID, filter)
}

func (svc *Service) ZipStatus(ctx context.Context, zipID int) (ZipStatus, error) {
	return svc.api.ZipStatus(ctx, zipID)
}

func (svc *Service) UploadDescription(ctx context.Context, examID int, file io.Reader, filename string, size int64, progress ProgressFunc) error {
	return svc.api.UploadDescription(ctx, examID, file, filename, size, progress)
}

func (svc *Service) UploadRoster(ctx context.Context, examID int, file io.Reader, filename string, size int64, progress ProgressFunc) error {
	return svc.api.UploadRoster(ctx, examID, file, filename, size, progress)
}

func (svc *Service) UploadZip(ctx context.Context, examID int, file io.Reader, filename string, size int64, progress ProgressFunc) (int, error) {
	return svc.api.UploadZip(ctx, examID, file, filename, size, progress)
}
