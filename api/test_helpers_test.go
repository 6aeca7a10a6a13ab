package api

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/sandbench/internal/config"
	"github.com/stellarlinkco/sandbench/internal/store"
)

type fakeStore struct {
	SaveRecordFunc         func(ctx context.Context, rec *store.Record) error
	GetRecordFunc          func(ctx context.Context, runID string) (*store.Record, error)
	ListRecordsFunc        func(ctx context.Context, filter store.Filter) ([]*store.Record, error)
	GetHistoryFunc         func(ctx context.Context, domain, model, variant string, limit int) ([]*store.Record, error)
	GetModelComparisonFunc func(ctx context.Context, domain, variant, modelA, modelB string) (*store.ModelComparison, error)
	CloseFunc              func() error
}

func (s *fakeStore) SaveRecord(ctx context.Context, rec *store.Record) error {
	if s.SaveRecordFunc != nil {
		return s.SaveRecordFunc(ctx, rec)
	}
	return nil
}

func (s *fakeStore) GetRecord(ctx context.Context, runID string) (*store.Record, error) {
	if s.GetRecordFunc != nil {
		return s.GetRecordFunc(ctx, runID)
	}
	return nil, nil
}

func (s *fakeStore) ListRecords(ctx context.Context, filter store.Filter) ([]*store.Record, error) {
	if s.ListRecordsFunc != nil {
		return s.ListRecordsFunc(ctx, filter)
	}
	return nil, nil
}

func (s *fakeStore) GetHistory(ctx context.Context, domain, model, variant string, limit int) ([]*store.Record, error) {
	if s.GetHistoryFunc != nil {
		return s.GetHistoryFunc(ctx, domain, model, variant, limit)
	}
	return nil, nil
}

func (s *fakeStore) GetModelComparison(ctx context.Context, domain, variant, modelA, modelB string) (*store.ModelComparison, error) {
	if s.GetModelComparisonFunc != nil {
		return s.GetModelComparisonFunc(ctx, domain, variant, modelA, modelB)
	}
	return nil, nil
}

func (s *fakeStore) Close() error {
	if s.CloseFunc != nil {
		return s.CloseFunc()
	}
	return nil
}

func newTestServer(t *testing.T, st store.Store) *Server {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("SANDBENCH_API_KEY", "")
	t.Setenv("SANDBENCH_DISABLE_AUTH", "true")

	srv, err := NewServer(config.Default(), st)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func doRequest(srv *Server, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	srv.router.ServeHTTP(w, req)
	return w
}

func doRequestWithHeader(srv *Server, method, target, header, value string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	srv.router.ServeHTTP(w, req)
	return w
}
