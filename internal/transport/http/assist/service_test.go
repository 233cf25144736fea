package assist

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"flickai-server-go/internal/app/services"
	"flickai-server-go/internal/domain/chat"
	domainimage "flickai-server-go/internal/domain/image"
	"flickai-server-go/internal/domain/vision"
	"flickai-server-go/internal/platform/config"
	"flickai-server-go/internal/platform/storage"
	platformtesting "flickai-server-go/internal/platform/testing"
	httptransport "flickai-server-go/internal/transport/http"
)

type scriptedChat struct {
	fragments []string
	err       error
}

func (s *scriptedChat) Send(ctx context.Context, conversation []chat.Message, onDelta chat.OnDelta, visionContext vision.Context) (string, error) {
	var full strings.Builder
	for _, fragment := range s.fragments {
		if onDelta != nil {
			onDelta(fragment)
		}
		full.WriteString(fragment)
	}
	return full.String(), s.err
}

type staticVision struct {
	resolved vision.Context
}

func (s *staticVision) Resolve(ctx context.Context, captured domainimage.CapturedImage) vision.Context {
	return s.resolved
}

func newTestServer(t *testing.T, sender services.ChatSender, resolver services.VisionResolver) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := platformtesting.SetupTestLogger(t)
	store, err := storage.Open(filepath.Join(t.TempDir(), "transcripts.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	assistant, err := services.NewAssistantService(services.AssistantConfig{
		Chat:   sender,
		Vision: resolver,
		Store:  store,
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("assistant: %v", err)
	}

	router, err := httptransport.Build(httptransport.Options{
		Config: &config.Config{Log: config.LogConfig{Level: "info"}},
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	service, err := NewService(assistant, store, logger, 0)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if err := service.Register(context.Background(), router.API); err != nil {
		t.Fatalf("register: %v", err)
	}

	server := httptest.NewServer(router.Engine)
	t.Cleanup(server.Close)
	return server
}

func readStream(t *testing.T, body *bufio.Scanner) []streamEvent {
	t.Helper()
	var events []streamEvent
	for body.Scan() {
		line := body.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event streamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			t.Fatalf("bad frame %q: %v", line, err)
		}
		events = append(events, event)
	}
	return events
}

func TestAssistEndpoint_StreamsDeltas(t *testing.T) {
	server := newTestServer(t, &scriptedChat{fragments: []string{"Hel", "lo"}}, &staticVision{})

	resp, err := http.Post(server.URL+"/api/assist", "application/json",
		strings.NewReader(`{"message":"hi there"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("content type = %q", ct)
	}

	events := readStream(t, bufio.NewScanner(resp.Body))
	if len(events) != 4 {
		t.Fatalf("got %d events: %+v", len(events), events)
	}
	if events[0].SessionID == "" {
		t.Error("first frame must announce the session id")
	}
	if events[1].Delta != "Hel" || events[2].Delta != "lo" {
		t.Errorf("delta frames out of order: %+v", events[1:3])
	}
	final := events[3]
	if !final.Done || final.Text != "Hello" || final.Interrupted {
		t.Errorf("unexpected final frame: %+v", final)
	}
}

func TestAssistEndpoint_InterruptionFlagged(t *testing.T) {
	server := newTestServer(t,
		&scriptedChat{fragments: []string{"Par", "tial"}, err: chat.ErrStreamInterrupted},
		&staticVision{})

	resp, err := http.Post(server.URL+"/api/assist", "application/json",
		strings.NewReader(`{"message":"hi"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	events := readStream(t, bufio.NewScanner(resp.Body))
	final := events[len(events)-1]
	if !final.Done || !final.Interrupted || final.Text != "Partial" {
		t.Errorf("unexpected final frame: %+v", final)
	}
}

func TestAssistEndpoint_EmptyMessageRejected(t *testing.T) {
	server := newTestServer(t, &scriptedChat{}, &staticVision{})

	resp, err := http.Post(server.URL+"/api/assist", "application/json",
		strings.NewReader(`{"message":"  "}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestVisionEndpoint_DataURI(t *testing.T) {
	resolver := &staticVision{resolved: vision.Context{
		Text:       "A terminal with a failing test.",
		Provenance: vision.ProvenanceModel,
	}}
	server := newTestServer(t, &scriptedChat{}, resolver)

	resp, err := http.Post(server.URL+"/api/vision", "application/json",
		strings.NewReader(`{"image":"data:image/png;base64,aGVsbG8="}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var envelope struct {
		Success bool       `json:"success"`
		Data    VisionData `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !envelope.Success {
		t.Error("expected success envelope")
	}
	if envelope.Data.Provenance != "model" || !envelope.Data.Usable {
		t.Errorf("unexpected vision data: %+v", envelope.Data)
	}
	if envelope.Data.SessionID == "" {
		t.Error("a session id must be allocated for the capture")
	}
}

func TestVisionEndpoint_MissingImage(t *testing.T) {
	server := newTestServer(t, &scriptedChat{}, &staticVision{})

	resp, err := http.Post(server.URL+"/api/vision", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSessionLifecycle(t *testing.T) {
	server := newTestServer(t, &scriptedChat{fragments: []string{"ok"}}, &staticVision{})

	resp, err := http.Post(server.URL+"/api/sessions", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	var created struct {
		Data SessionData `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || created.Data.SessionID == "" {
		t.Fatalf("create failed: status=%d data=%+v", resp.StatusCode, created.Data)
	}

	assistBody := `{"session_id":"` + created.Data.SessionID + `","message":"hello"}`
	resp, err = http.Post(server.URL+"/api/assist", "application/json", strings.NewReader(assistBody))
	if err != nil {
		t.Fatalf("assist: %v", err)
	}
	readStream(t, bufio.NewScanner(resp.Body))
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/api/sessions/" + created.Data.SessionID + "/messages")
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	var transcript struct {
		Data []TranscriptTurn `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&transcript); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	resp.Body.Close()
	if len(transcript.Data) != 2 {
		t.Fatalf("transcript turns = %d, want 2", len(transcript.Data))
	}
	if transcript.Data[0].Role != "user" || transcript.Data[1].Role != "assistant" {
		t.Errorf("unexpected transcript order: %+v", transcript.Data)
	}

	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/api/sessions/"+created.Data.SessionID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
}
