package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/sandbench/internal/runner"
	"github.com/stellarlinkco/sandbench/internal/sandbox"
	"github.com/stellarlinkco/sandbench/internal/store"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	limit, err := parseLimitParam(c.Query("limit"), 20)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	since, err := parseTimeParam(c.Query("since"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	until, err := parseTimeParam(c.Query("until"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	filter := store.Filter{
		Domain:  strings.TrimSpace(c.Query("domain")),
		Model:   strings.TrimSpace(c.Query("model")),
		Variant: strings.TrimSpace(c.Query("variant")),
		Since:   since,
		Until:   until,
		Limit:   limit,
	}

	records, err := s.store.ListRecords(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

func (s *Server) handleGetRun(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing run id"))
		return
	}

	rec, err := s.store.GetRecord(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, fmt.Errorf("run %q not found", id))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleGetRunOutcomes(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing run id"))
		return
	}

	rec, err := s.store.GetRecord(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, fmt.Errorf("run %q not found", id))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	outcomes := rec.Outcomes
	if outcomes == nil {
		outcomes = []store.OutcomeRecord{}
	}
	c.JSON(http.StatusOK, outcomes)
}

func (s *Server) handleGetHistory(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	domain, variant, err := parseBoardParams(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	model := strings.TrimSpace(c.Query("model"))
	if model == "" {
		respondError(c, http.StatusBadRequest, errors.New("model is required"))
		return
	}

	limit, err := parseLimitParam(c.Query("limit"), 20)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	records, err := s.store.GetHistory(c.Request.Context(), domain, model, variant, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

func (s *Server) handleCompareModels(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	domain, variant, err := parseBoardParams(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	modelA := strings.TrimSpace(c.Query("model_a"))
	modelB := strings.TrimSpace(c.Query("model_b"))
	if modelA == "" || modelB == "" {
		respondError(c, http.StatusBadRequest, errors.New("model_a and model_b are required"))
		return
	}

	cmp, err := s.store.GetModelComparison(c.Request.Context(), domain, variant, modelA, modelB)
	if err != nil {
		if strings.Contains(err.Error(), "no runs") {
			respondError(c, http.StatusNotFound, err)
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, cmp)
}

// parseBoardParams validates the domain/variant pair shared by the history,
// compare, and leaderboard endpoints. Variant defaults to restricted.
func parseBoardParams(c *gin.Context) (string, string, error) {
	domain, err := sandbox.ParseDomain(c.Query("domain"))
	if err != nil {
		return "", "", err
	}

	raw := strings.TrimSpace(c.Query("variant"))
	if raw == "" {
		return string(domain), string(runner.VariantRestricted), nil
	}
	variant, err := runner.ParseVariant(raw)
	if err != nil {
		return "", "", err
	}
	return string(domain), string(variant), nil
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
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if v <= 0 {
		return 0, fmt.Errorf("limit must be > 0")
	}
	return v, nil
}

func parseTimeParam(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	layouts := []string{time.RFC3339, "2006-01-02"}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (expected RFC3339 or YYYY-MM-DD)", raw)
}
