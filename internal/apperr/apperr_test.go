package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Conflict("dup"), http.StatusConflict},
		{Auth("who"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{Internal("boom", errors.New("disk")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("update deal: %w", Forbidden("You can only edit your own deals"))
	if KindOf(err) != KindForbidden {
		t.Errorf("KindOf = %v, want %v", KindOf(err), KindForbidden)
	}
	if !Is(err, KindForbidden) {
		t.Error("Is(err, KindForbidden) = false, want true")
	}
	if got := PublicMessage(err); got != "You can only edit your own deals" {
		t.Errorf("PublicMessage = %q", got)
	}
}

func TestInternalMessageHidden(t *testing.T) {
	cause := errors.New("database is locked")
	err := Internal("get deal", cause)

	if got := PublicMessage(err); got != "Internal server error" {
		t.Errorf("PublicMessage = %q, want generic message", got)
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable with errors.Is")
	}
	if got := PublicMessage(errors.New("raw")); got != "Internal server error" {
		t.Errorf("PublicMessage(raw) = %q, want generic message", got)
	}
}

func TestIsNil(t *testing.T) {
	if Is(nil, KindInternal) {
		t.Error("Is(nil, ...) = true, want false")
	}
}
