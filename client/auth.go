package client

import (
	"context"
	"net/http"
	"strings"
)

// LoginResult is the outcome of a password login. When the account has
// the second factor enabled the session is not yet established and the
// caller must complete VerifyOTP.
type LoginResult struct {
	OTPRequired bool
	Session     Session
}

type loginResponse struct {
	OTPRequired bool `json:"otp_required"`
	User        struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (r loginResponse) session() Session {
	return Session{
		Token:        r.AccessToken,
		RefreshToken: r.RefreshToken,
		Email:        r.User.Email,
		FirstName:    r.User.FirstName,
		LastName:     r.User.LastName,
	}
}

// Login authenticates with email and password. Blank fields fail
// locally without a request.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, &ValidationError{Reason: "email and password must not be blank"}
	}

	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.OTPRequired {
		return &LoginResult{OTPRequired: true}, nil
	}
	session := resp.session()
	c.SetSession(session)
	return &LoginResult{Session: session}, nil
}

// SendOTP requests a fresh one-time code for the email. The server
// responds identically whether or not the account exists.
func (c *Client) SendOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Reason: "email must not be blank"}
	}
	return c.do(ctx, http.MethodPost, "/api/auth/send-otp", map[string]string{
		"email": email,
	}, nil)
}

// VerifyOTP completes a second-factor login and establishes the session.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (Session, error) {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return Session{}, &ValidationError{Reason: "email and code must not be blank"}
	}

	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/verify-otp", map[string]string{
		"email": email,
		"otp":   code,
	}, &resp)
	if err != nil {
		return Session{}, err
	}
	session := resp.session()
	c.SetSession(session)
	return session, nil
}

// Register creates an account. It does not log the user in; the usual
// flow continues with Login.
func (c *Client) Register(ctx context.Context, email, password, firstName, lastName string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return &ValidationError{Reason: "email and password must not be blank"}
	}
	return c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"email":      email,
		"password":   password,
		"first_name": firstName,
		"last_name":  lastName,
	}, nil)
}

// RefreshSession exchanges the refresh token for a new access token
// and updates the stored session.
func (c *Client) RefreshSession(ctx context.Context) error {
	session := c.Session()
	if session.RefreshToken == "" {
		return &ValidationError{Reason: "no refresh token in session"}
	}

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": session.RefreshToken,
	}, &resp)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.session.Token = resp.AccessToken
	c.mu.Unlock()
	return nil
}

// ProfileField names one editable profile attribute.
type ProfileField string

const (
	FieldName   ProfileField = "name"
	FieldEmail  ProfileField = "email"
	FieldSchool ProfileField = "school"
)

// UpdateProfileField changes a single profile attribute. An empty
// value is rejected locally.
func (c *Client) UpdateProfileField(ctx context.Context, field ProfileField, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return &ValidationError{Reason: "value must not be blank"}
	}
	err := c.do(ctx, http.MethodPatch, "/updateUserInfo", map[string]string{
		"field": string(field),
		"value": value,
	}, nil)
	if err != nil {
		return err
	}

	// Keep the session's display identity in step with the server.
	c.mu.Lock()
	defer c.mu.Unlock()
	switch field {
	case FieldEmail:
		c.session.Email = strings.ToLower(value)
	case FieldName:
		first, last, _ := strings.Cut(value, " ")
		c.session.FirstName = first
		c.session.LastName = strings.TrimSpace(last)
	}
	return nil
}
