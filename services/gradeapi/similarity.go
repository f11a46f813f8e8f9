package gradeapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/quangvd/barem/core/similarity"
)

var _ similarity.API = (*Client)(nil)

func (c *Client) Check(ctx context.Context, docFileID int, threshold float64) (similarity.Result, error) {
	body := map[string]float64{"threshold": threshold}
	var res similarity.Result
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/docfile/%d/similarity-check", docFileID), nil, body, &res); err != nil {
		return similarity.Result{}, err
	}
	return res, nil
}

func (c *Client) VerifyWithAI(ctx context.Context, similarityResultID int) (similarity.AIVerification, error) {
	var v similarity.AIVerification
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/docfile/%d/verify-with-ai", similarityResultID), nil, nil, &v); err != nil {
		return similarity.AIVerification{}, err
	}
	return v, nil
}

func (c *Client) TeacherReverify(ctx context.Context, similarityResultID int, isSimilar bool, notes string) error {
	body := map[string]interface{}{
		"isSimilar": isSimilar,
		"notes":     notes,
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/docfile/%d/teacher-reverify", similarityResultID), nil, body, nil)
}
