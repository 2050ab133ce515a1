package remote

import (
	"context"
	"errors"
	"net/url"

	"loans-service/internal/domain/loan"
)

// UsersClient reads users from the user-management service.
type UsersClient struct{ c *client }

func NewUsersClient(baseURL string, opts ...Option) *UsersClient {
	return &UsersClient{c: newClient(baseURL, opts...)}
}

func (u *UsersClient) GetUser(ctx context.Context, userID string) (*loan.User, error) {
	var out loan.User
	if err := u.c.getJSON(ctx, "/api/users/"+url.PathEscape(userID), &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		out.ID = userID
	}
	return &out, nil
}

func (u *UsersClient) GetActiveLoanCount(ctx context.Context, userID string) (int, error) {
	var out activeLoanCount
	path := "/api/users/" + url.PathEscape(userID) + "/loans/count?status=active"
	if err := u.c.getJSON(ctx, path, &out); err != nil {
		return 0, err
	}
	return *out.Count, nil
}

var errMissingCount = errors.New(`missing "count"`)

type activeLoanCount struct {
	Count *int `json:"count"`
}

// A missing count must not read as zero loans.
func (a *activeLoanCount) check() error {
	if a.Count == nil {
		return errMissingCount
	}
	return nil
}
