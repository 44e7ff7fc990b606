// Package server exposes the on-demand trigger surface. Draft generation
// and manual rotation require a verified caller with an admin claim; the
// check runs before any core logic.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gmtfrombc/ai-daily-feed/internal/agent/producer"
	"github.com/gmtfrombc/ai-daily-feed/internal/agent/rotator"
	"github.com/gmtfrombc/ai-daily-feed/internal/config"
	"github.com/gmtfrombc/ai-daily-feed/internal/selector"
	"github.com/gmtfrombc/ai-daily-feed/pkg/logger"
)

// DraftRunner runs one draft-generation invocation
type DraftRunner interface {
	Run(ctx context.Context) (*producer.RunResult, error)
}

// RotateRunner runs one feed-rotation invocation
type RotateRunner interface {
	Run(ctx context.Context) (*rotator.RunResult, error)
}

// Server hosts the trigger endpoints
type Server struct {
	echo      *echo.Echo
	addr      string
	jwtSecret []byte
	producer  DraftRunner
	rotator   RotateRunner
	log       *logger.Logger
}

// New creates a new trigger server
func New(cfg config.ServerConfig, draftRunner DraftRunner, rotateRunner RotateRunner, log *logger.Logger) *Server {
	s := &Server{
		echo:      echo.New(),
		addr:      cfg.Addr,
		jwtSecret: []byte(cfg.JWTSecret),
		producer:  draftRunner,
		rotator:   rotateRunner,
		log:       log.WithComponent("server"),
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())

	s.echo.GET("/health", s.handleHealth)

	admin := s.echo.Group("/api/admin", s.requireAdmin)
	admin.POST("/drafts/generate", s.handleGenerate)
	admin.POST("/feed/rotate", s.handleRotate)

	return s
}

// Start blocks serving HTTP until Shutdown is called
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.addr).Msg("Trigger server starting")
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// requireAdmin verifies the bearer token and its admin claim
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		if admin, _ := claims["admin"].(bool); !admin {
			return echo.NewHTTPError(http.StatusForbidden, "admin privilege required")
		}

		return next(c)
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleGenerate(c echo.Context) error {
	result, err := s.producer.Run(c.Request().Context())
	if err != nil {
		if errors.Is(err, selector.ErrNoTopics) {
			return echo.NewHTTPError(http.StatusConflict, "no topics available")
		}
		s.log.Error().Err(err).Msg("Draft generation failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "draft generation failed")
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleRotate(c echo.Context) error {
	result, err := s.rotator.Run(c.Request().Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Feed rotation failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "feed rotation failed")
	}
	return c.JSON(http.StatusOK, result)
}
