package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"flickai-server-go/internal/domain/chat"
	"flickai-server-go/internal/domain/eventbus"
	domainimage "flickai-server-go/internal/domain/image"
	"flickai-server-go/internal/domain/vision"
	platformerrors "flickai-server-go/internal/platform/errors"
	"flickai-server-go/internal/platform/logging"
	"flickai-server-go/internal/platform/storage"
)

// ChatSender issues one completion turn. Satisfied by *chat.Orchestrator.
type ChatSender interface {
	Send(ctx context.Context, conversation []chat.Message, onDelta chat.OnDelta, visionContext vision.Context) (string, error)
}

// VisionResolver derives screen context from a capture. Satisfied by
// *vision.Pipeline.
type VisionResolver interface {
	Resolve(ctx context.Context, captured domainimage.CapturedImage) vision.Context
}

// sessionState is the per-session mutable state. Turns within one session
// are serialized on mu; different sessions proceed independently.
type sessionState struct {
	mu      sync.Mutex
	history []chat.Message
	pending vision.Context
}

// AssistantService owns the conversation sessions and drives a full assist
// turn: attach screen context, classify and send, stream back, persist the
// transcript. Transcript persistence is best effort and never fails a turn.
type AssistantService struct {
	chat    ChatSender
	vision  VisionResolver
	store   *storage.TranscriptStore
	bus     *eventbus.Bus
	logger  *logging.Logger

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// AssistantConfig wires the service. Store and Bus are optional.
type AssistantConfig struct {
	Chat   ChatSender
	Vision VisionResolver
	Store  *storage.TranscriptStore
	Bus    *eventbus.Bus
	Logger *logging.Logger
}

func NewAssistantService(cfg AssistantConfig) (*AssistantService, error) {
	if cfg.Chat == nil {
		return nil, platformerrors.New(platformerrors.KindBootstrap, "services.assistant", "chat sender is required")
	}
	if cfg.Vision == nil {
		return nil, platformerrors.New(platformerrors.KindBootstrap, "services.assistant", "vision resolver is required")
	}
	if cfg.Logger == nil {
		return nil, platformerrors.New(platformerrors.KindBootstrap, "services.assistant", "logger is required")
	}

	return &AssistantService{
		chat:     cfg.Chat,
		vision:   cfg.Vision,
		store:    cfg.Store,
		bus:      cfg.Bus,
		logger:   cfg.Logger,
		sessions: make(map[string]*sessionState),
	}, nil
}

// NewSession allocates a fresh conversation session and returns its ID.
func (s *AssistantService) NewSession() string {
	id := uuid.NewString()
	s.session(id)
	return id
}

// session returns the state for the ID, creating it on first use so that
// clients may bring their own session identifiers.
func (s *AssistantService) session(id string) *sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.sessions[id]
	if !ok {
		state = &sessionState{}
		s.sessions[id] = state
	}
	return state
}

// AttachVision resolves a capture into screen context and parks it on the
// session. The context rides along with exactly the next assist turn.
func (s *AssistantService) AttachVision(ctx context.Context, sessionID string, captured domainimage.CapturedImage) vision.Context {
	resolved := s.vision.Resolve(ctx, captured)

	state := s.session(sessionID)
	state.mu.Lock()
	state.pending = resolved
	state.mu.Unlock()

	if s.bus != nil {
		s.bus.PublishAsync(eventbus.TopicVisionResolved, sessionID, string(resolved.Provenance))
	}
	return resolved
}

// Assist runs one conversation turn for the session. Deltas stream through
// onDelta in arrival order; the returned string is the full reply. Any
// pending vision context is consumed by this turn, usable or not.
func (s *AssistantService) Assist(ctx context.Context, sessionID, userText string, onDelta chat.OnDelta) (string, error) {
	if userText == "" {
		return "", platformerrors.New(platformerrors.KindDomain, "services.assist", "user message is empty")
	}

	state := s.session(sessionID)
	state.mu.Lock()
	defer state.mu.Unlock()

	visionContext := state.pending
	state.pending = vision.Context{}

	state.history = append(state.history, chat.UserText(userText))
	s.persist(sessionID, chat.RoleUser, userText, visionContext.Provenance, false)

	reply, err := s.chat.Send(ctx, state.history, onDelta, visionContext)

	switch {
	case err == nil:
		state.history = append(state.history, chat.Message{Role: chat.RoleAssistant, Content: reply})
		s.persist(sessionID, chat.RoleAssistant, reply, "", false)
		if s.bus != nil {
			s.bus.PublishAsync(eventbus.TopicChatCompleted, sessionID, len(reply))
		}
		return reply, nil

	case errors.Is(err, chat.ErrStreamInterrupted):
		// Keep what the user already saw so the next turn has the same
		// view of the conversation the user does.
		if reply != "" {
			state.history = append(state.history, chat.Message{Role: chat.RoleAssistant, Content: reply})
			s.persist(sessionID, chat.RoleAssistant, reply, "", true)
		}
		if s.bus != nil {
			s.bus.PublishAsync(eventbus.TopicChatFailed, sessionID, "stream interrupted")
		}
		return reply, err

	default:
		if s.bus != nil {
			s.bus.PublishAsync(eventbus.TopicChatFailed, sessionID, err.Error())
		}
		return "", err
	}
}

// History returns a copy of the session's conversation so far.
func (s *AssistantService) History(sessionID string) []chat.Message {
	state := s.session(sessionID)
	state.mu.Lock()
	defer state.mu.Unlock()
	out := make([]chat.Message, len(state.history))
	copy(out, state.history)
	return out
}

// ClearSession drops the in-memory conversation. Persisted transcripts are
// kept.
func (s *AssistantService) ClearSession(sessionID string) {
	state := s.session(sessionID)
	state.mu.Lock()
	state.history = nil
	state.pending = vision.Context{}
	state.mu.Unlock()
}

func (s *AssistantService) persist(sessionID, role, content string, provenance vision.Provenance, interrupted bool) {
	if s.store == nil {
		return
	}
	err := s.store.Append(&storage.TranscriptMessage{
		SessionID:   sessionID,
		Role:        role,
		Content:     content,
		Provenance:  string(provenance),
		Interrupted: interrupted,
	})
	if err != nil {
		s.logger.WarnTag("Assistant", "transcript write failed for session %s: %v", sessionID, err)
	}
}
