package gradeapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/quangvd/barem/core/grading"
)

var _ grading.API = (*Client)(nil)

// historyPageSize is large enough that a student's full attempt list fits
// one page; the attempt counter depends on seeing all of it.
const historyPageSize = 100

func (c *Client) GradeHistory(ctx context.Context, examStudentID int) ([]grading.Grade, error) {
	q := make(url.Values)
	q.Set("PageIndex", "1")
	q.Set("PageSize", fmt.Sprint(historyPageSize))
	var out struct {
		Result []grading.Grade `json:"result"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/Grade/GetByExamStudentId/%d", examStudentID), q, nil, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

func (c *Client) GradeWithDetails(ctx context.Context, gradeID int) (grading.Grade, []grading.GradeDetail, error) {
	var out struct {
		grading.Grade
		Details []grading.GradeDetail `json:"details"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/Grade/%d", gradeID), nil, nil, &out); err != nil {
		return grading.Grade{}, nil, err
	}
	return out.Grade, out.Details, nil
}

func (c *Client) CreateGrade(ctx context.Context, g grading.Grade) (grading.Grade, error) {
	var created grading.Grade
	if err := c.do(ctx, http.MethodPost, "/Grade", nil, g, &created); err != nil {
		return grading.Grade{}, err
	}
	if created.ID == 0 {
		// some deployments answer creation with an empty body; the record
		// is still the last history entry
		history, err := c.GradeHistory(ctx, g.ExamStudentID)
		if err != nil {
			return grading.Grade{}, err
		}
		if len(history) > 0 {
			created = history[len(history)-1]
		}
	}
	return created, nil
}

func (c *Client) UpdateGrade(ctx context.Context, g grading.Grade) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/Grade/%d", g.ID), nil, g, nil)
}

func (c *Client) UpdateGradeDetail(ctx context.Context, detailID int, d grading.GradeDetail) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/GradeDetail/%d", detailID), nil, d, nil)
}
