package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestConnectStatusPaths(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.Write([]byte(`{"status":"CONNECTING","qrCode":"data:image/png;base64,AAAA","message":"scan"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, srv.Client())
	ctx := context.Background()

	resp, err := client.Connect(ctx, "set-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.Status != "CONNECTING" || resp.QRCode == "" || resp.Message != "scan" {
		t.Errorf("Unexpected connect response: %+v", resp)
	}
	client.Restart(ctx, "set-1")
	client.Status(ctx, "set-1")

	expected := []string{
		"POST /channel/settings/set-1/connect",
		"POST /channel/settings/set-1/restart",
		"GET /channel/settings/set-1/status",
	}
	for i, want := range expected {
		if paths[i] != want {
			t.Errorf("Expected %q, got %q", want, paths[i])
		}
	}
}

func TestMessagesDecodesHistoryPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/c1/messages" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "5" || r.URL.Query().Get("offset") != "10" {
			t.Errorf("Unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{
			"success": true,
			"data": {
				"messages": [
					{"id":"m1","conversationId":"c1","content":"hi","type":"user","createdAt":"2024-01-01T10:00:00Z"},
					{"conversationId":"c1","message":"hello","type":"assistant","createdAt":"2024-01-01T10:00:01Z"}
				],
				"chatRoom": {"id":"c1","autoReply":true},
				"pagination": {"limit":5,"offset":10,"hasMore":true}
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, srv.Client())
	resp, err := client.Messages(context.Background(), "c1", 5, 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(resp.Data.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(resp.Data.Messages))
	}
	if resp.Data.Messages[1].Message != "hello" {
		t.Errorf("Expected assistant text 'hello', got %q", resp.Data.Messages[1].Message)
	}
	if resp.Data.ChatRoom == nil || resp.Data.ChatRoom.AutoReply == nil || !*resp.Data.ChatRoom.AutoReply {
		t.Errorf("Expected chat room autoReply=true")
	}
	if !resp.Data.Pagination.HasMore {
		t.Errorf("Expected hasMore=true")
	}
}

func TestUnsuccessfulEnvelopeIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"assistant offline"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, srv.Client())
	_, err := client.Send(context.Background(), SendRequest{AssistantID: "a1", Message: "hi"})
	if err == nil || err.Error() != "assistant offline" {
		t.Errorf("Expected 'assistant offline' error, got %v", err)
	}
}

func TestSetAutoReplyConfirmedValue(t *testing.T) {
	testCases := []struct {
		name      string
		body      string
		requested bool
		expected  bool
	}{
		{name: "data envelope", body: `{"success":true,"data":{"autoReply":false}}`, requested: true, expected: false},
		{name: "top level", body: `{"autoReply":true}`, requested: false, expected: true},
		{name: "no echo", body: `{"success":true}`, requested: true, expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPut || r.URL.Path != "/chat/c1/auto-reply" {
					t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
				}
				var body AutoReplyRequest
				json.NewDecoder(r.Body).Decode(&body)
				if body.AutoReply != tc.requested {
					t.Errorf("Expected requested %v in body, got %v", tc.requested, body.AutoReply)
				}
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, nil, srv.Client())
			got, err := client.SetAutoReply(context.Background(), "c1", tc.requested)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestConversationsAcceptsBothShapes(t *testing.T) {
	bodies := []string{
		`{"success":true,"data":[{"id":"c1","phoneNumber":"+1"}]}`,
		`{"success":true,"data":{"conversations":[{"id":"c1","phoneNumber":"+1"}]}}`,
	}

	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		client := NewClient(srv.URL, nil, srv.Client())
		convs, err := client.Conversations(context.Background(), "a1")
		srv.Close()

		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(convs) != 1 || convs[0].ID != "c1" {
			t.Errorf("Expected one conversation c1, got %+v", convs)
		}
	}
}
