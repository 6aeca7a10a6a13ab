package api

import (
	"errors"
	"os"
	"strings"
)

func (s *Server) registerRoutes() error {
	if s == nil || s.router == nil {
		return nil
	}

	api := s.router.Group("/api")
	apiKey := strings.TrimSpace(os.Getenv("SANDBENCH_API_KEY"))
	if apiKey != "" {
		api.Use(apiKeyAuthMiddleware(apiKey))
	} else if strings.EqualFold(strings.TrimSpace(os.Getenv("SANDBENCH_DISABLE_AUTH")), "true") {
		// Explicitly allow unauthenticated access.
	} else {
		return errors.New("api: missing auth configuration: set SANDBENCH_API_KEY or set SANDBENCH_DISABLE_AUTH=true")
	}

	api.GET("/health", s.handleHealth)

	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/:id", s.handleGetRun)
	api.GET("/runs/:id/outcomes", s.handleGetRunOutcomes)

	api.GET("/history", s.handleGetHistory)
	api.GET("/compare", s.handleCompareModels)

	api.GET("/leaderboard", s.handleGetLeaderboard)

	return nil
}
