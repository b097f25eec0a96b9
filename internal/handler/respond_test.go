package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/dealfinder/internal/apperr"
	"github.com/dukerupert/dealfinder/internal/model"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"title":"Mouse","price":29.99}`, ""},
		{"empty body", ``, ""},
		{"malformed", `{"title":`, "Invalid JSON"},
		{"unsupported value", `{"price":true}`, "Invalid JSON"},
		{"too large", `{"title":"` + strings.Repeat("a", maxBodyBytes) + `"}`, "Request body too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			var f model.DealFields
			err := decodeJSON(httptest.NewRecorder(), req, &f)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("error = %v, want validation", err)
			}
			if got := apperr.PublicMessage(err); got != tt.wantErr {
				t.Errorf("message = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestParseIDParam(t *testing.T) {
	tests := []struct {
		raw    string
		want   int64
		wantOK bool
	}{
		{"1", 1, true},
		{"42", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", tt.raw)
		req := httptest.NewRequest("GET", "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		got, err := parseIDParam(req, "id", "Invalid deal ID")
		if tt.wantOK {
			if err != nil || got != tt.want {
				t.Errorf("parseIDParam(%q) = %d, %v; want %d", tt.raw, got, err, tt.want)
			}
			continue
		}
		if apperr.PublicMessage(err) != "Invalid deal ID" {
			t.Errorf("parseIDParam(%q) error = %v", tt.raw, err)
		}
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/deals", nil)
	writeError(rec, req, discardLogger(), apperr.Internal("list deals", context.DeadlineExceeded))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "Internal server error") || strings.Contains(body, "deadline") {
		t.Errorf("body = %q", body)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
