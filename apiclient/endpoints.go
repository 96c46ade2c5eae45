package apiclient

import (
	"context"
	"net/url"

	"github.com/quantfold/tradekit/internal/apierrors"
)

// Backend routes, relative to the versioned API root.
const (
	routeLogin                = "/auth/login"
	routeSignup               = "/auth/signup"
	routeLogout               = "/auth/logout"
	routeRequestPasswordReset = "/auth/request-password-reset"
	routeConfirmPasswordReset = "/auth/confirm-password-reset"
	routeCurrentUser          = "/users/me"
)

// TokenGrant is the strict schema for login and signup responses. The wire
// format tolerates both key spellings the backend has shipped; a missing
// access token is a decode failure, never an empty session.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	Email        string
}

func decodeTokenGrant(env Envelope) (*TokenGrant, error) {
	grant := &TokenGrant{
		AccessToken:  env.StrAny("access_token", "token"),
		RefreshToken: env.Str("refresh_token"),
		UserID:       env.StrAny("id", "user_id"),
		Email:        env.Str("email"),
	}
	if grant.AccessToken == "" {
		return nil, apierrors.Wrapf(apierrors.ErrDecode, "[decodeTokenGrant] response has no access token")
	}
	return grant, nil
}

// SignupRequest carries the signup form. FullName and Currency are optional.
type SignupRequest struct {
	Email    string
	Password string
	FullName string
	Currency string
}

// Login exchanges credentials for a token grant.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenGrant, error) {
	env, err := c.Post(ctx, routeLogin, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return decodeTokenGrant(env)
}

// Signup registers a new account and returns its token grant.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*TokenGrant, error) {
	body := map[string]string{
		"email":    req.Email,
		"password": req.Password,
	}
	if req.FullName != "" {
		body["full_name"] = req.FullName
	}
	if req.Currency != "" {
		body["currency"] = req.Currency
	}

	env, err := c.Post(ctx, routeSignup, body)
	if err != nil {
		return nil, err
	}
	return decodeTokenGrant(env)
}

// Logout asks the backend to revoke the refresh token.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	_, err := c.Post(ctx, routeLogout, map[string]string{"refresh_token": refreshToken})
	return err
}

// RequestPasswordReset starts the reset flow for email.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	_, err := c.Post(ctx, routeRequestPasswordReset, map[string]string{"email": email})
	return err
}

// ConfirmPasswordReset completes the reset flow with the emailed token.
func (c *Client) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	_, err := c.Post(ctx, routeConfirmPasswordReset, map[string]string{
		"token":    token,
		"password": password,
	})
	return err
}

// CurrentUser fetches the profile of whoever owns the access token.
func (c *Client) CurrentUser(ctx context.Context) (Envelope, error) {
	return c.Get(ctx, routeCurrentUser, nil)
}

// UserByID fetches a profile by its cached id.
func (c *Client) UserByID(ctx context.Context, id string) (Envelope, error) {
	return c.Get(ctx, "/users/"+url.PathEscape(id), nil)
}
