package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/NextMind-AI/dashsync/api"
	"github.com/NextMind-AI/dashsync/chat"
	"github.com/NextMind-AI/dashsync/clock"
	"github.com/NextMind-AI/dashsync/connection"
	"github.com/NextMind-AI/dashsync/notify"
)

type stubEndpoint struct {
	mu       sync.Mutex
	restarts int
}

func (e *stubEndpoint) Connect(ctx context.Context, settingID string) (*api.ConnectResponse, error) {
	return &api.ConnectResponse{Status: "CONNECTING", QRCode: "data:image/png;base64,aGVsbG8="}, nil
}

func (e *stubEndpoint) Restart(ctx context.Context, settingID string) (*api.ConnectResponse, error) {
	e.mu.Lock()
	e.restarts++
	e.mu.Unlock()
	return &api.ConnectResponse{Status: "CONNECTING"}, nil
}

func (e *stubEndpoint) Status(ctx context.Context, settingID string) (*api.StatusResponse, error) {
	return &api.StatusResponse{Status: "READY"}, nil
}

type stubChannel struct{}

func (stubChannel) FetchHistory(ctx context.Context, req chat.HistoryRequest) (chat.HistoryPage, error) {
	return chat.HistoryPage{}, nil
}

// countingChannel serves a fixed history and counts fetches.
type countingChannel struct {
	stubChannel
	mu      sync.Mutex
	total   int
	fetches int
}

func (c *countingChannel) FetchHistory(ctx context.Context, req chat.HistoryRequest) (chat.HistoryPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetches++

	var page chat.HistoryPage
	end := c.total - req.Offset
	for i := end - 1; i >= 0 && i >= end-req.Limit; i-- {
		page.Messages = append(page.Messages, chat.Message{ID: fmt.Sprintf("m%d", i), Content: "hello"})
	}
	page.HasMore = end-req.Limit > 0
	return page, nil
}

func (c *countingChannel) fetchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}

func (stubChannel) SendTurn(ctx context.Context, req chat.TurnRequest) (chat.TurnResult, error) {
	return chat.TurnResult{
		Reply:          chat.Message{ID: "r1", Content: "echo: " + req.Text},
		ConversationID: "c1",
	}, nil
}

func newTestServer(t *testing.T) (*Server, *stubEndpoint) {
	t.Helper()

	fake := clock.NewFake(time.Now())
	notices := notify.NewRecorder()
	endpoint := &stubEndpoint{}
	registry := connection.NewRegistry(endpoint, connection.Options{Clock: fake, Notifier: notices})

	s := New(Deps{
		Connections: registry,
		Channels:    map[string]chat.Channel{"assistant": stubChannel{}},
		ChatOptions: chat.Options{Clock: fake, Notifier: notices},
		Notices:     notices,
	})
	t.Cleanup(func() {
		registry.CancelAll()
		s.playgrounds.closeAll()
	})
	return s, endpoint
}

func doRequest(t *testing.T, s *Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer(t)

	resp, _ := doRequest(t, s, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestConnectionLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	resp, body := doRequest(t, s, http.MethodPost, "/connections/set-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}
	var session ConnectionResponse
	json.Unmarshal(body, &session)
	if session.Status != connection.StatusConnecting || !session.IsPolling {
		t.Errorf("Expected polling CONNECTING session, got %+v", session)
	}

	_, body = doRequest(t, s, http.MethodGet, "/connections/set-1", nil)
	json.Unmarshal(body, &session)
	if session.SettingID != "set-1" || !session.IsPolling {
		t.Errorf("Unexpected session %+v", session)
	}

	_, body = doRequest(t, s, http.MethodDelete, "/connections/set-1", nil)
	json.Unmarshal(body, &session)
	if session.IsPolling {
		t.Errorf("Expected polling to stop after delete")
	}
	if session.Status != connection.StatusInactive || session.QRCode != "" {
		t.Errorf("Expected cleared INACTIVE session after delete, got %+v", session)
	}

	resp, _ = doRequest(t, s, http.MethodDelete, "/connections/unknown", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestConnectionRestartMode(t *testing.T) {
	s, endpoint := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/connections/set-1?mode=restart", nil)
	if endpoint.restarts != 1 {
		t.Errorf("Expected 1 restart call, got %d", endpoint.restarts)
	}
}

func TestPlaygroundFlow(t *testing.T) {
	s, _ := newTestServer(t)

	resp, body := doRequest(t, s, http.MethodPost, "/playgrounds", CreatePlaygroundRequest{AssistantID: "a1"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", resp.StatusCode, body)
	}
	var pg PlaygroundResponse
	json.Unmarshal(body, &pg)
	if pg.ID == "" || pg.Channel != "assistant" || pg.AssistantID != "a1" {
		t.Fatalf("Unexpected playground %+v", pg)
	}

	resp, body = doRequest(t, s, http.MethodPost, "/playgrounds/"+pg.ID+"/messages", SendMessageRequest{Text: "hi"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}
	json.Unmarshal(body, &pg)
	if len(pg.Messages) != 2 || pg.Messages[1].Content != "echo: hi" {
		t.Errorf("Expected user turn and echo, got %+v", pg.Messages)
	}
	if pg.ConversationID != "c1" {
		t.Errorf("Expected created conversation c1, got %q", pg.ConversationID)
	}

	resp, _ = doRequest(t, s, http.MethodPost, "/playgrounds/"+pg.ID+"/messages", SendMessageRequest{Text: ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty text, got %d", resp.StatusCode)
	}

	resp, _ = doRequest(t, s, http.MethodPut, "/playgrounds/"+pg.ID+"/auto-reply", AutoReplyRequest{Enabled: true})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for unsupported auto-reply, got %d", resp.StatusCode)
	}

	resp, body = doRequest(t, s, http.MethodPut, "/playgrounds/"+pg.ID+"/draft", DraftRequest{Text: "typing"})
	json.Unmarshal(body, &pg)
	if pg.Status != chat.StatusListening {
		t.Errorf("Expected listening status, got %s", pg.Status)
	}

	_, body = doRequest(t, s, http.MethodPut, "/playgrounds/"+pg.ID+"/refresh", RefreshRequest{Enabled: false})
	json.Unmarshal(body, &pg)
	if pg.Refreshing {
		t.Errorf("Expected refresh to be stopped")
	}
	_, body = doRequest(t, s, http.MethodPut, "/playgrounds/"+pg.ID+"/refresh", RefreshRequest{Enabled: true})
	json.Unmarshal(body, &pg)
	if !pg.Refreshing {
		t.Errorf("Expected refresh to be running again")
	}

	resp, _ = doRequest(t, s, http.MethodGet, "/playgrounds/"+pg.ID+"/conversations", nil)
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("Expected 501, got %d", resp.StatusCode)
	}

	resp, _ = doRequest(t, s, http.MethodDelete, "/playgrounds/"+pg.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", resp.StatusCode)
	}
	resp, _ = doRequest(t, s, http.MethodGet, "/playgrounds/"+pg.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestPlaygroundUnknownChannel(t *testing.T) {
	s, _ := newTestServer(t)

	resp, _ := doRequest(t, s, http.MethodPost, "/playgrounds", CreatePlaygroundRequest{Channel: "fax"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestNoticesAreDrained(t *testing.T) {
	s, _ := newTestServer(t)

	_, body := doRequest(t, s, http.MethodPost, "/playgrounds", CreatePlaygroundRequest{})
	var pg PlaygroundResponse
	json.Unmarshal(body, &pg)
	doRequest(t, s, http.MethodPost, "/playgrounds/"+pg.ID+"/messages", SendMessageRequest{Text: "hi"})

	_, body = doRequest(t, s, http.MethodGet, "/notices", nil)
	var notices []notify.Notice
	json.Unmarshal(body, &notices)
	if len(notices) != 1 || notices[0].Kind != notify.KindWarning {
		t.Errorf("Expected one warning about the missing assistant, got %+v", notices)
	}

	_, body = doRequest(t, s, http.MethodGet, "/notices", nil)
	json.Unmarshal(body, &notices)
	if len(notices) != 0 {
		t.Errorf("Expected notices to be drained, got %d", len(notices))
	}
}

type stubPublisher struct {
	uploads int
	err     error
}

func (p *stubPublisher) UploadQRCode(ctx context.Context, settingID, dataURI string) (string, error) {
	p.uploads++
	if p.err != nil {
		return "", p.err
	}
	return "https://bucket.s3.amazonaws.com/" + settingID + ".png", nil
}

func TestQRTrackerPublishesOnce(t *testing.T) {
	publisher := &stubPublisher{}
	tracker := NewQRTracker(publisher)

	if !tracker.claim("set-1", "data:a") {
		t.Fatalf("Expected first claim to succeed")
	}
	tracker.publish("set-1", "data:a")
	if tracker.claim("set-1", "data:a") {
		t.Errorf("Expected the same code not to be claimed twice")
	}

	if got := tracker.URL("set-1", "data:a"); got != "https://bucket.s3.amazonaws.com/set-1.png" {
		t.Errorf("Unexpected URL %q", got)
	}
	if got := tracker.URL("set-1", "data:b"); got != "" {
		t.Errorf("Expected no URL for a different code, got %q", got)
	}
	if publisher.uploads != 1 {
		t.Errorf("Expected 1 upload, got %d", publisher.uploads)
	}
}

func TestQRTrackerFailedUploadHasNoURL(t *testing.T) {
	tracker := NewQRTracker(&stubPublisher{err: errors.New("denied")})

	tracker.claim("set-1", "data:a")
	tracker.publish("set-1", "data:a")
	if got := tracker.URL("set-1", "data:a"); got != "" {
		t.Errorf("Expected no URL after a failed upload, got %q", got)
	}
}

func TestLoadOlderStopsAtEndOfHistory(t *testing.T) {
	s, _ := newTestServer(t)
	channel := &countingChannel{total: 3}
	s.channels["counting"] = channel

	_, body := doRequest(t, s, http.MethodPost, "/playgrounds", CreatePlaygroundRequest{
		Channel:        "counting",
		AssistantID:    "a1",
		ConversationID: "c1",
	})
	var pg PlaygroundResponse
	json.Unmarshal(body, &pg)
	if len(pg.Messages) != 3 || pg.Cursor.HasMore {
		t.Fatalf("Expected full 3-message history, got %+v", pg.Snapshot)
	}

	doRequest(t, s, http.MethodPost, "/playgrounds/"+pg.ID+"/older", nil)
	doRequest(t, s, http.MethodPost, "/playgrounds/"+pg.ID+"/older", nil)

	if channel.fetchCount() != 1 {
		t.Errorf("Expected only the initial fetch, got %d", channel.fetchCount())
	}
}

func TestIdlePlaygroundsAreClosed(t *testing.T) {
	s, _ := newTestServer(t)

	now := time.Now()
	s.playgrounds.now = func() time.Time { return now }

	var idle, active PlaygroundResponse
	_, body := doRequest(t, s, http.MethodPost, "/playgrounds", CreatePlaygroundRequest{AssistantID: "a1"})
	json.Unmarshal(body, &idle)
	_, body = doRequest(t, s, http.MethodPost, "/playgrounds", CreatePlaygroundRequest{AssistantID: "a1"})
	json.Unmarshal(body, &active)

	now = now.Add(8 * time.Minute)
	doRequest(t, s, http.MethodGet, "/playgrounds/"+active.ID, nil)
	now = now.Add(5 * time.Minute)

	closed := s.playgrounds.closeIdle(10 * time.Minute)
	if len(closed) != 1 || closed[0] != idle.ID {
		t.Errorf("Expected only %s to be closed, got %v", idle.ID, closed)
	}

	resp, _ := doRequest(t, s, http.MethodGet, "/playgrounds/"+idle.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for closed playground, got %d", resp.StatusCode)
	}
	resp, _ = doRequest(t, s, http.MethodGet, "/playgrounds/"+active.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected active playground to remain, got %d", resp.StatusCode)
	}
}
