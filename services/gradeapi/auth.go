package gradeapi

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/quangvd/barem/core"
)

var ErrMissingToken = errors.New("no token in login response")

func (c *Client) Login(ctx context.Context, creds core.Credentials) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, creds, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", ErrMissingToken
	}
	return out.Token, nil
}

func (c *Client) Register(ctx context.Context, acc core.NewAccount) error {
	return c.do(ctx, http.MethodPost, "/auth/register", nil, acc, nil)
}
