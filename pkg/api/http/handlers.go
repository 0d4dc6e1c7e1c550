package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aescanero/stargazer/internal/application/pages"
	"github.com/aescanero/stargazer/pkg/adapters/upstream"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const htmlContentType = "text/html; charset=utf-8"

// User-facing error messages. Details only go to the log.
const (
	messageNotFound         = "The page you were looking for does not exist."
	messageMethodNotAllowed = "This page cannot be requested that way."
	messageUnavailable      = "The upstream service is unavailable right now. Please try again later."
	messageInternal         = "Something went wrong while building this page."
)

// handleIndex renders the home page with the current server time
func (s *Server) handleIndex(c *gin.Context) {
	s.renderPage(c, pages.Index.Name, s.pages.Index())
}

// handleAdvice renders a piece of advice fetched from the advice API
func (s *Server) handleAdvice(c *gin.Context) {
	data, err := s.pages.Advice(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	s.renderPage(c, pages.Advice.Name, data)
}

// handleAPOD renders NASA's astronomy picture of the day
func (s *Server) handleAPOD(c *gin.Context) {
	data, err := s.pages.APOD(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	s.renderPage(c, pages.APOD.Name, data)
}

// handleParams echoes the optional name query parameter
func (s *Server) handleParams(c *gin.Context) {
	s.renderPage(c, pages.Params.Name, s.pages.Params(c.Query("name")))
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{}

	for name, check := range s.checks {
		if err := check(); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":    state,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleNotFound handles unmatched routes and missing static files
func (s *Server) handleNotFound(c *gin.Context) {
	s.renderError(c, http.StatusNotFound, messageNotFound)
}

// handleMethodNotAllowed handles known routes requested with an unsupported method
func (s *Server) handleMethodNotAllowed(c *gin.Context) {
	s.renderError(c, http.StatusMethodNotAllowed, messageMethodNotAllowed)
}

// handlePanic turns a recovered panic into an error page
func (s *Server) handlePanic(c *gin.Context, recovered any) {
	s.logger.Error("panic while handling request",
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Any("panic", recovered))
	s.renderError(c, http.StatusInternalServerError, messageInternal)
	c.Abort()
}

// renderPage renders a declared page, deferring failures to errorHandler
func (s *Server) renderPage(c *gin.Context, name string, data map[string]any) {
	html, err := s.renderer.Render(name, data)
	if err != nil {
		s.metrics.IncRenderFailures(name)
		_ = c.Error(err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, []byte(html))
}

// renderError renders the error page, falling back to plain text when the
// error page itself cannot be rendered
func (s *Server) renderError(c *gin.Context, status int, message string) {
	html, err := s.renderer.Render(pages.Error.Name, map[string]any{
		"status":  status,
		"message": message,
	})
	if err != nil {
		s.metrics.IncRenderFailures(pages.Error.Name)
		s.logger.Error("failed to render error page", zap.Error(err))
		c.String(status, "%d %s", status, message)
		return
	}
	c.Data(status, htmlContentType, []byte(html))
}

// errorHandler maps handler errors to error pages. Handlers never recover
// locally; they record the error with c.Error and return.
func (s *Server) errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, message := classifyError(err)

		s.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))

		s.renderError(c, status, message)
	}
}

// classifyError picks the response status for a handler error
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, upstream.ErrUnavailable), errors.Is(err, upstream.ErrClosed):
		return http.StatusBadGateway, messageUnavailable
	default:
		return http.StatusInternalServerError, messageInternal
	}
}
