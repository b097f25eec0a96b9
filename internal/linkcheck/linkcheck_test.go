package linkcheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"testing"
	"time"
)

func TestCheckValid(t *testing.T) {
	var gotMethod, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	res, err := New(AllowPrivateNetworks()).Check(context.Background(), server.URL+"/item")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Valid {
		t.Errorf("valid = false, want true (%s)", res.Message)
	}
	if res.StatusCode == nil || *res.StatusCode != http.StatusOK {
		t.Errorf("status = %v, want 200", res.StatusCode)
	}
	if gotMethod != http.MethodHead {
		t.Errorf("method = %q, want HEAD", gotMethod)
	}
	if gotUA != userAgent {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestCheckFallsBackToGet(t *testing.T) {
	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	res, err := New(AllowPrivateNetworks()).Check(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Valid {
		t.Errorf("valid = false, want true")
	}
	if len(methods) != 2 || methods[1] != http.MethodGet {
		t.Errorf("methods = %v, want [HEAD GET]", methods)
	}
}

func TestCheckFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {})
	server := httptest.NewServer(mux)
	defer server.Close()

	res, err := New(AllowPrivateNetworks()).Check(context.Background(), server.URL+"/old")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.FinalURL != server.URL+"/new" {
		t.Errorf("final url = %q, want %q", res.FinalURL, server.URL+"/new")
	}
}

func TestCheckNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	res, err := New(AllowPrivateNetworks()).Check(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Valid {
		t.Error("valid = true, want false")
	}
	if res.Message != "Link returned status code 404" {
		t.Errorf("message = %q", res.Message)
	}
}

func TestCheckTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := New(WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	res, err := c.Check(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Valid || res.StatusCode != nil {
		t.Errorf("got %+v, want invalid without status", res)
	}
	if res.Message != "Link verification timed out" {
		t.Errorf("message = %q", res.Message)
	}
}

func TestCheckInvalidURL(t *testing.T) {
	for _, raw := range []string{"not-a-url", "ftp://example.com/x", "https://", ""} {
		if _, err := New().Check(context.Background(), raw); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Check(%q) err = %v, want ErrInvalidURL", raw, err)
		}
	}
}

func TestCheckRefusesLocalAddresses(t *testing.T) {
	hit := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer server.Close()

	res, err := New().Check(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Valid || res.StatusCode != nil {
		t.Errorf("got %+v, want invalid without status", res)
	}
	if res.Message != "Link points to a private or local address" {
		t.Errorf("message = %q", res.Message)
	}
	if hit {
		t.Error("request reached the local server")
	}
}

func TestCheckRefusesHostnameResolvingLocal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}

	res, err := New().Check(context.Background(), "http://localhost:"+u.Port()+"/")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Message != "Link points to a private or local address" {
		t.Errorf("message = %q", res.Message)
	}
}

func TestBlocked(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"192.168.1.1", true},
		{"169.254.169.254", true},
		{"fe80::1", true},
		{"fd00::1", true},
		{"0.0.0.0", true},
		{"100.64.0.1", true},
		{"::ffff:127.0.0.1", true},
		{"93.184.216.34", false},
		{"2606:4700::1111", false},
	}
	for _, tt := range tests {
		if got := blocked(netip.MustParseAddr(tt.addr)); got != tt.want {
			t.Errorf("blocked(%s) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}
