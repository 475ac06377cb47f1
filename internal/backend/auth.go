package backend

import (
	"context"
	"fmt"
	"net/http"

	"storefront/internal/model"
)

// VerifyToken handles GET /verifyToken → {user} using token instead of the
// session token.
func (c *Client) VerifyToken(ctx context.Context, token string) (*model.User, error) {
	var resp struct {
		User *model.User `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/verifyToken", nil, &resp, requestOptions{token: token}); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, fmt.Errorf("GET /verifyToken: response carries no user")
	}
	return resp.User, nil
}
