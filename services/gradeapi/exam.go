package gradeapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/quangvd/barem/core/exam"
)

var _ exam.API = (*Client)(nil)

// ErrMissingZipID means the archive upload was accepted but the response
// carried no record id to poll on.
var ErrMissingZipID = errors.New("no examZipId in upload response")

func (c *Client) Exams(ctx context.Context, filter exam.ListFilter) (exam.ExamPage, error) {
	return c.examList(ctx, "/exams", filter)
}

func (c *Client) MyExams(ctx context.Context, filter exam.ListFilter) (exam.ExamPage, error) {
	return c.examList(ctx, "/me/exams", filter)
}

func (c *Client) examList(ctx context.Context, path string, filter exam.ListFilter) (exam.ExamPage, error) {
	q := pageQuery(filter.Page, filter.Size)
	if filter.Search != "" {
		q.Set("Search", filter.Search)
	}
	var page exam.ExamPage
	if err := c.do(ctx, http.MethodGet, path, q, nil, &page); err != nil {
		return exam.ExamPage{}, err
	}
	return page, nil
}

func (c *Client) Exam(ctx context.Context, id int) (exam.Exam, error) {
	var e exam.Exam
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/exams/%d", id), nil, nil, &e); err != nil {
		return exam.Exam{}, err
	}
	return e, nil
}

func (c *Client) CreateExam(ctx context.Context, ne exam.NewExam) (exam.Exam, error) {
	var e exam.Exam
	if err := c.do(ctx, http.MethodPost, "/exams", nil, ne, &e); err != nil {
		return exam.Exam{}, err
	}
	return e, nil
}

func (c *Client) DeleteExam(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/exams/%d", id), nil, nil, nil)
}

func (c *Client) Students(ctx context.Context, examID int, filter exam.StudentFilter) (exam.StudentPage, error) {
	q := pageQuery(filter.Page, filter.Size)
	if filter.Status != "" && filter.Status != exam.StudentStatusAll {
		q.Set("Status", string(filter.Status))
	}
	if filter.Search != "" {
		q.Set("Search", filter.Search)
	}
	var page exam.StudentPage
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/exams/%d/students", examID), q, nil, &page); err != nil {
		return exam.StudentPage{}, err
	}
	return page, nil
}

func (c *Client) Questions(ctx context.Context, examID int) ([]exam.Question, error) {
	var out struct {
		Questions []exam.Question `json:"questions"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/exams/%d/questions", examID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

func (c *Client) ZipHistory(ctx context.Context, examID int, filter exam.ListFilter) ([]exam.ExamZip, error) {
	q := pageQuery(filter.Page, filter.Size)
	q.Set("ExamId", strconv.Itoa(examID))
	var out struct {
		Result []exam.ExamZip `json:"result"`
	}
	if err := c.do(ctx, http.MethodGet, "/exam-zips", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

func (c *Client) ZipStatus(ctx context.Context, zipID int) (exam.ZipStatus, error) {
	var status exam.ZipStatus
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/exam-zips/%d/check-status", zipID), nil, nil, &status); err != nil {
		return exam.ZipStatus{}, err
	}
	return status, nil
}

func (c *Client) UploadDescription(ctx context.Context, examID int, file io.Reader, filename string, size int64, progress exam.ProgressFunc) error {
	return c.doMultipart(ctx, http.MethodPut, fmt.Sprintf("/exams/%d/description", examID), file, filename, size, progress, nil)
}

func (c *Client) UploadRoster(ctx context.Context, examID int, file io.Reader, filename string, size int64, progress exam.ProgressFunc) error {
	return c.doMultipart(ctx, http.MethodPost, fmt.Sprintf("/exams/%d/details", examID), file, filename, size, progress, nil)
}

func (c *Client) UploadZip(ctx context.Context, examID int, file io.Reader, filename string, size int64, progress exam.ProgressFunc) (int, error) {
	var out struct {
		ExamZipID int `json:"examZipId"`
	}
	if err := c.doMultipart(ctx, http.MethodPost, fmt.Sprintf("/exams/%d/upload-zip", examID), file, filename, size, progress, &out); err != nil {
		return 0, err
	}
	if out.ExamZipID == 0 {
		return 0, ErrMissingZipID
	}
	return out.ExamZipID, nil
}
