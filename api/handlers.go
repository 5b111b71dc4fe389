package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGetLeaderboard(c *gin.Context) {
	if s == nil || s.lbStore == nil {
		respondError(c, http.StatusInternalServerError, errors.New("leaderboard store not configured"))
		return
	}

	dataset := strings.TrimSpace(c.Query("dataset"))
	if dataset == "" {
		respondError(c, http.StatusBadRequest, errors.New("dataset is required"))
		return
	}

	limit, err := parseLimitParam(c.Query("limit"), 20)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	entries, err := s.lbStore.GetLeaderboard(c.Request.Context(), dataset, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (s *Server) handleGetModelHistory(c *gin.Context) {
	if s == nil || s.lbStore == nil {
		respondError(c, http.StatusInternalServerError, errors.New("leaderboard store not configured"))
		return
	}

	model := strings.TrimSpace(c.Query("model"))
	dataset := strings.TrimSpace(c.Query("dataset"))
	if model == "" || dataset == "" {
		respondError(c, http.StatusBadRequest, errors.New("model and dataset are required"))
		return
	}

	entries, err := s.lbStore.GetModelHistory(c.Request.Context(), model, dataset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (s *Server) handleListReports(c *gin.Context) {
	entries, err := os.ReadDir(s.reportsDir)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusOK, gin.H{"reports": []string{}})
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	c.JSON(http.StatusOK, gin.H{"reports": names})
}

func (s *Server) handleGetReport(c *gin.Context) {
	name, err := sanitizeReportName(c.Param("name"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	path := filepath.Join(s.reportsDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			respondError(c, http.StatusNotFound, fmt.Errorf("report %q not found", name))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.Data(http.StatusOK, "application/json", data)
}

// sanitizeReportName rejects anything that could escape the reports dir.
func sanitizeReportName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", errors.New("missing report name")
	}
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid report name %q", raw)
	}
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	return name, nil
}

func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		c.Status(status)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseLimitParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if v > 100 {
		v = 100
	}
	return v, nil
}
