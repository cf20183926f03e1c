package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"private-spaces-backend/client"
)

func TestCreateSpaceValidatesLocally(t *testing.T) {
	srv, requested := stubServer(t, http.StatusCreated, `{}`)
	c := client.New(srv.URL, testSession())

	_, err := c.CreateSpace(context.Background(), "   ", "", "")
	var vErr *client.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %T, want *ValidationError", err)
	}
	if *requested {
		t.Error("request was sent despite local validation failure")
	}
}

func TestDissolveSpacePrunesCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.Write([]byte(`{"message":"Private space dissolved"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"spaces": []map[string]string{
				{"space_id": "s1", "name": "Chess", "user_role": "admin"},
				{"space_id": "s2", "name": "Debate", "user_role": "member"},
			},
		})
	}))
	defer srv.Close()

	c := client.New(srv.URL, testSession())
	spaces, err := c.Spaces(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(spaces) != 2 {
		t.Fatalf("spaces = %d, want 2", len(spaces))
	}

	if err := c.DissolveSpace(context.Background(), "s1"); err != nil {
		t.Fatal(err)
	}

	cached := c.CachedSpaces()
	if len(cached) != 1 || cached[0].ID != "s2" {
		t.Errorf("cached spaces after dissolve = %+v, want only s2", cached)
	}
}

func TestDissolveSpaceKeepsCacheOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"message":"Admin privileges required"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"spaces": []map[string]string{{"space_id": "s1", "name": "Chess", "user_role": "member"}},
		})
	}))
	defer srv.Close()

	c := client.New(srv.URL, testSession())
	if _, err := c.Spaces(context.Background()); err != nil {
		t.Fatal(err)
	}

	err := c.DissolveSpace(context.Background(), "s1")
	var authErr *client.AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %T, want *AuthorizationError", err)
	}
	if len(c.CachedSpaces()) != 1 {
		t.Error("cache pruned despite server rejection")
	}
}

func TestSpaceDetailsMergesRole(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"space":{"space_id":"s1","name":"Chess","member_count":3},"user_role":"member"}`))
	}))
	defer srv.Close()

	c := client.New(srv.URL, testSession())
	space, err := c.SpaceDetails(context.Background(), "s1")
	if err != nil {
		t.Fatal(err)
	}
	if space.UserRole != client.RoleMember {
		t.Errorf("user_role = %q, want member", space.UserRole)
	}
	if space.MemberCount != 3 {
		t.Errorf("member_count = %d, want 3", space.MemberCount)
	}
}

func TestInviteUserValidatesLocally(t *testing.T) {
	srv, requested := stubServer(t, http.StatusOK, `{}`)
	c := client.New(srv.URL, testSession())

	err := c.InviteUser(context.Background(), "s1", "  ")
	var vErr *client.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %T, want *ValidationError", err)
	}
	if *requested {
		t.Error("request was sent despite local validation failure")
	}
}
