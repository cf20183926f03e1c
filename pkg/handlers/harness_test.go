package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"private-spaces-backend/pkg/config"
	"private-spaces-backend/pkg/database"
	"private-spaces-backend/pkg/models"
	"private-spaces-backend/pkg/router"
	"private-spaces-backend/pkg/utils"

	"go.uber.org/zap"
)

// env wires the full router against the in-memory database so tests
// exercise the same middleware chain production requests go through.
type env struct {
	t   *testing.T
	cfg *config.Config
	db  *database.MemoryDatabase
	jwt *utils.JWTService
	srv http.Handler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cfg := &config.Config{
		Environment:      "test",
		Port:             "0",
		UseMemoryDB:      true,
		JWTSecret:        "test-secret",
		OTPEnabled:       false,
		OTPExpiry:        5 * time.Minute,
		InvitationExpiry: 14 * 24 * time.Hour,
		AllowedOrigins:   []string{"*"},
	}
	db := database.NewMemoryDatabase()
	return &env{
		t:   t,
		cfg: cfg,
		db:  db,
		jwt: utils.NewJWTService(cfg.JWTSecret),
		srv: router.New(cfg, db, zap.NewNop()),
	}
}

// addUser seeds a user directly; auth endpoints are tested separately.
func (e *env) addUser(email, firstName, lastName string) *models.User {
	e.t.Helper()
	u := &models.User{
		Email:     email,
		Password:  "irrelevant",
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := e.db.CreateUser(u); err != nil {
		e.t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func (e *env) token(u *models.User) string {
	e.t.Helper()
	tok, _, err := e.jwt.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		e.t.Fatalf("generate token for %s: %v", u.Email, err)
	}
	return tok
}

func (e *env) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("encode body: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Message string `json:"message"`
	}
	decode(t, rec, &resp)
	return resp.Message
}

// createSpace creates a space through the API and returns it.
func (e *env) createSpace(token, name string) models.SpaceWithRole {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/createPrivateSpace", token, map[string]string{"name": name})
	wantStatus(e.t, rec, http.StatusCreated)
	var space models.SpaceWithRole
	decode(e.t, rec, &space)
	return space
}

// join makes the user a member of the space directly.
func (e *env) join(spaceID, email string, role models.MemberRole) {
	e.t.Helper()
	err := e.db.AddMembership(&models.Membership{SpaceID: spaceID, Email: email, Role: role})
	if err != nil {
		e.t.Fatalf("seed membership %s in %s: %v", email, spaceID, err)
	}
}
