package assist

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"flickai-server-go/internal/app/services"
	"flickai-server-go/internal/domain/chat"
	domainimage "flickai-server-go/internal/domain/image"
	platformerrors "flickai-server-go/internal/platform/errors"
	"flickai-server-go/internal/platform/logging"
	"flickai-server-go/internal/platform/storage"
	httptransport "flickai-server-go/internal/transport/http"
)

// Service is the HTTP surface of the assistant: screenshot intake, the
// streaming assist endpoint, and session management.
type Service struct {
	assistant *services.AssistantService
	store     *storage.TranscriptStore
	logger    *logging.Logger
	maxUpload int64
}

func NewService(
	assistant *services.AssistantService,
	store *storage.TranscriptStore,
	logger *logging.Logger,
	maxUpload int64,
) (*Service, error) {
	if assistant == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "assist.new", "assistant service is required")
	}
	if logger == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "assist.new", "logger is required")
	}
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	return &Service{
		assistant: assistant,
		store:     store,
		logger:    logger,
		maxUpload: maxUpload,
	}, nil
}

// Register mounts the assist routes on the API group.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.GET("/assist", s.handleStatus)
	router.POST("/assist", s.handleAssist)
	router.POST("/vision", s.handleVision)
	router.POST("/sessions", s.handleNewSession)
	router.DELETE("/sessions/:id", s.handleClearSession)
	if s.store != nil {
		router.GET("/sessions", s.handleListSessions)
		router.GET("/sessions/:id/messages", s.handleTranscript)
	}

	s.logger.InfoTag("HTTP", "assist routes registered")
	return nil
}

func (s *Service) handleStatus(c *gin.Context) {
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{"status": "ready"}, "assist endpoint running")
}

// handleAssist runs one conversation turn and streams the reply as SSE
// frames. Every frame is a JSON streamEvent on a data: line; the terminal
// frame has Done set.
func (s *Service) handleAssist(c *gin.Context) {
	var req AssistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		httptransport.RespondError(c, http.StatusBadRequest, "message is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = s.assistant.NewSession()
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		httptransport.RespondError(c, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	writeEvent := func(event streamEvent) {
		payload, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
		flusher.Flush()
	}

	writeEvent(streamEvent{SessionID: req.SessionID})

	text, err := s.assistant.Assist(c.Request.Context(), req.SessionID, req.Message, func(delta string) {
		writeEvent(streamEvent{Delta: delta})
	})

	switch {
	case err == nil:
		writeEvent(streamEvent{Done: true, Text: text})
	case errors.Is(err, chat.ErrStreamInterrupted):
		writeEvent(streamEvent{Done: true, Text: text, Interrupted: true})
	default:
		s.logger.WarnTag("Assist", "turn failed for session %s: %v", req.SessionID, err)
		writeEvent(streamEvent{Done: true, Error: err.Error()})
	}
}

// handleVision accepts a screenshot, resolves screen context for the
// session, and reports the resolution. The endpoint itself never fails on
// vision trouble; an unusable context is a valid outcome.
func (s *Service) handleVision(c *gin.Context) {
	captured, sessionID, err := s.parseVisionRequest(c)
	if err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if sessionID == "" {
		sessionID = s.assistant.NewSession()
	}

	resolved := s.assistant.AttachVision(c.Request.Context(), sessionID, captured)

	httptransport.RespondSuccess(c, http.StatusOK, VisionData{
		SessionID:  sessionID,
		Text:       resolved.Text,
		Provenance: string(resolved.Provenance),
		Usable:     resolved.Usable(),
	}, "screen context resolved")
}

// parseVisionRequest accepts either a JSON body carrying a data URI or a
// multipart form with a file field.
func (s *Service) parseVisionRequest(c *gin.Context) (domainimage.CapturedImage, string, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.Request.ParseMultipartForm(s.maxUpload); err != nil {
			return domainimage.CapturedImage{}, "", fmt.Errorf("parse multipart form: %w", err)
		}
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			return domainimage.CapturedImage{}, "", fmt.Errorf("file field is required")
		}
		defer file.Close()
		if header.Size > s.maxUpload {
			return domainimage.CapturedImage{}, "", fmt.Errorf("file exceeds %d bytes", s.maxUpload)
		}

		data, err := io.ReadAll(io.LimitReader(file, s.maxUpload))
		if err != nil {
			return domainimage.CapturedImage{}, "", fmt.Errorf("read upload: %w", err)
		}

		captured := domainimage.CapturedImage{
			Data:   base64.StdEncoding.EncodeToString(data),
			Format: formatFromFilename(header.Filename),
		}
		return captured, c.Request.FormValue("session_id"), nil
	}

	var req VisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return domainimage.CapturedImage{}, "", fmt.Errorf("invalid request body")
	}
	if req.Image == "" {
		return domainimage.CapturedImage{}, "", fmt.Errorf("image is required")
	}

	captured, err := domainimage.ParseDataURI(req.Image)
	if err != nil {
		return domainimage.CapturedImage{}, "", fmt.Errorf("decode image: %w", err)
	}
	return captured, req.SessionID, nil
}

func (s *Service) handleNewSession(c *gin.Context) {
	httptransport.RespondSuccess(c, http.StatusCreated,
		SessionData{SessionID: s.assistant.NewSession()}, "session created")
}

func (s *Service) handleClearSession(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid session id")
		return
	}
	s.assistant.ClearSession(id)
	httptransport.RespondSuccess(c, http.StatusOK, SessionData{SessionID: id}, "session cleared")
}

func (s *Service) handleListSessions(c *gin.Context) {
	sessions, err := s.store.Sessions()
	if err != nil {
		httptransport.RespondError(c, http.StatusInternalServerError, "list sessions failed")
		return
	}
	out := make([]SessionData, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, SessionData{SessionID: session.ID})
	}
	httptransport.RespondSuccess(c, http.StatusOK, out, "")
}

func (s *Service) handleTranscript(c *gin.Context) {
	messages, err := s.store.Messages(c.Param("id"))
	if err != nil {
		httptransport.RespondError(c, http.StatusInternalServerError, "read transcript failed")
		return
	}
	out := make([]TranscriptTurn, 0, len(messages))
	for _, msg := range messages {
		out = append(out, TranscriptTurn{
			Role:        msg.Role,
			Content:     msg.Content,
			Provenance:  msg.Provenance,
			Interrupted: msg.Interrupted,
		})
	}
	httptransport.RespondSuccess(c, http.StatusOK, out, "")
}

func formatFromFilename(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "png"
	case strings.HasSuffix(lower, ".gif"):
		return "gif"
	case strings.HasSuffix(lower, ".bmp"):
		return "bmp"
	case strings.HasSuffix(lower, ".webp"):
		return "webp"
	default:
		return "jpeg"
	}
}
