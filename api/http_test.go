package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCallInjectsTenantHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, StaticTenant{OrganizationID: "org-1", BranchID: "branch-9", Token: "secret"}, srv.Client())

	var out struct {
		OK bool `json:"ok"`
	}
	if err := client.Call(context.Background(), http.MethodGet, "/ping", nil, &out); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !out.OK {
		t.Errorf("Expected decoded response")
	}

	testCases := map[string]string{
		HeaderOrganizationID: "org-1",
		HeaderBranchID:       "branch-9",
		"Authorization":      "Bearer secret",
	}
	for header, want := range testCases {
		if got.Get(header) != want {
			t.Errorf("Expected %s=%q, got %q", header, want, got.Get(header))
		}
	}
}

func TestCallOmitsMissingTenantFields(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	client := NewClient(srv.URL, StaticTenant{Token: "secret"}, srv.Client())
	if err := client.Call(context.Background(), http.MethodGet, "/ping", nil, nil, WithoutAuth()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, header := range []string{HeaderOrganizationID, HeaderBranchID, "Authorization"} {
		if got.Get(header) != "" {
			t.Errorf("Expected %s to be absent, got %q", header, got.Get(header))
		}
	}
}

func TestCallReturnsAPIErrorWithMessage(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		message string
	}{
		{name: "message field", body: `{"message":"setting not found"}`, message: "setting not found"},
		{name: "error string", body: `{"error":"unauthorized"}`, message: "unauthorized"},
		{name: "error object", body: `{"error":{"message":"bad branch"}}`, message: "bad branch"},
		{name: "no body", body: ``, message: "unexpected status code: 404"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, nil, srv.Client())
			err := client.Call(context.Background(), http.MethodGet, "/x", nil, nil)

			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *Error, got %v", err)
			}
			if apiErr.StatusCode != http.StatusNotFound {
				t.Errorf("Expected status 404, got %d", apiErr.StatusCode)
			}
			if apiErr.Error() != tc.message {
				t.Errorf("Expected message %q, got %q", tc.message, apiErr.Error())
			}
		})
	}
}

func TestTenantFuncIsReadPerCall(t *testing.T) {
	branch := "b1"
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get(HeaderBranchID))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, TenantFunc(func() Tenant { return Tenant{BranchID: branch} }), srv.Client())
	client.Call(context.Background(), http.MethodGet, "/a", nil, nil)
	branch = "b2"
	client.Call(context.Background(), http.MethodGet, "/b", nil, nil)

	if len(seen) != 2 || seen[0] != "b1" || seen[1] != "b2" {
		t.Errorf("Expected [b1 b2], got %v", seen)
	}
}
