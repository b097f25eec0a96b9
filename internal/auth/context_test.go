package auth

import (
	"context"
	"testing"

	"github.com/dukerupert/dealfinder/internal/model"
)

func TestWithAuthAndFromContext(t *testing.T) {
	ac := AuthContext{
		User:         model.PublicUser{ID: 1, Username: "alice", Email: "alice@x.com", EmailVerified: true},
		SessionToken: "tok",
	}

	ctx := WithAuth(context.Background(), ac)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got.User.ID != 1 {
		t.Errorf("User.ID = %d, want 1", got.User.ID)
	}
	if got.User.Username != "alice" {
		t.Errorf("User.Username = %q, want %q", got.User.Username, "alice")
	}
	if got.SessionToken != "tok" {
		t.Errorf("SessionToken = %q, want %q", got.SessionToken, "tok")
	}
	if UserID(ctx) != 1 {
		t.Errorf("UserID = %d, want 1", UserID(ctx))
	}
}

func TestFromContextEmpty(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected no AuthContext in empty context")
	}
	if UserID(context.Background()) != 0 {
		t.Error("UserID on empty context should be 0")
	}
}
