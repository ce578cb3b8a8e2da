// Package mockapi serves a local OpenAI-compatible completions endpoint backed by canned replies.
package mockapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/iksnae/agrichat/internal"
	"github.com/iksnae/agrichat/internal/transport"
)

// Server is the mock completions HTTP server.
type Server struct {
	echo      *echo.Echo
	responder internal.Responder
	now       func() time.Time
}

// NewServer creates a server answering with responder.
func NewServer(responder internal.Responder) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			internal.LogDebug("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	s := &Server{
		echo:      e,
		responder: responder,
		now:       time.Now,
	}

	e.GET("/health", s.handleHealth)
	e.POST("/v1/chat/completions", s.ChatCompletions)

	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// ChatCompletions answers the last user message of the request.
// POST /v1/chat/completions
func (s *Server) ChatCompletions(c echo.Context) error {
	var req transport.ChatCompletionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body", "")
	}
	if req.Model == "" {
		return badRequest(c, "model is required", "model")
	}

	prompt, ok := lastUserMessage(req.Messages)
	if !ok {
		return badRequest(c, "messages must contain a user message", "messages")
	}

	reply, err := s.responder.Reply(c.Request().Context(), prompt)
	if err != nil {
		internal.LogError("Reply failed: %v", err)
		return c.JSON(http.StatusBadGateway, transport.ErrorResponse{
			Error: &transport.APIError{
				Message: err.Error(),
				Type:    "upstream_error",
			},
		})
	}

	return c.JSON(http.StatusOK, transport.ChatCompletionResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: s.now().Unix(),
		Model:   req.Model,
		Choices: []transport.Choice{{
			Index:        0,
			Message:      &transport.ChatMessage{Role: "assistant", Content: reply},
			FinishReason: "stop",
		}},
	})
}

func lastUserMessage(messages []transport.ChatMessage) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content, true
		}
	}
	return "", false
}

func badRequest(c echo.Context, message, param string) error {
	return c.JSON(http.StatusBadRequest, transport.ErrorResponse{
		Error: &transport.APIError{
			Message: message,
			Type:    "invalid_request_error",
			Param:   param,
		},
	})
}
