// Package api serves evaluation results over HTTP: the leaderboard, model
// run history, and persisted report files.
package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stellarlinkco/memory-bench/internal/config"
	"github.com/stellarlinkco/memory-bench/internal/leaderboard"
)

type Server struct {
	router     *gin.Engine
	config     *config.Config
	lbStore    *leaderboard.Store
	reportsDir string
}

func NewServer(cfg *config.Config, lbStore *leaderboard.Store, reportsDir string) (*Server, error) {
	r := gin.New()
	s := &Server{
		router:     r,
		config:     cfg,
		lbStore:    lbStore,
		reportsDir: strings.TrimSpace(reportsDir),
	}
	if s.reportsDir == "" {
		s.reportsDir = "reports"
	}
	s.registerMiddleware()
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}
