package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quashMarket/internal/app"
	"quashMarket/internal/config"
	"quashMarket/internal/middleware"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const secret = "test-secret"

type AppTestSuite struct {
	suite.Suite
	app    *app.App
	server *httptest.Server
	tokens *middleware.TokenVerifier
}

func (s *AppTestSuite) SetupTest() {
	dir := s.T().TempDir()
	seedFile := filepath.Join(dir, "categories.yml")
	s.Require().NoError(os.WriteFile(seedFile, []byte("categories:\n  - title: Ремонт\n  - title: Уборка\n"), 0o600))

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            "0",
			ShutdownTimeout: time.Second,
			CorsOrigins:     []string{"*"},
			RateLimit:       1000,
		},
		Repository:  config.RepositoryConfig{Type: "inmemory"},
		Auth:        config.AuthConfig{JWTSecret: secret},
		Attachments: config.AttachmentsConfig{Dir: filepath.Join(dir, "attachments"), MaxUploadSize: 1 << 20},
		Audit:       config.AuditConfig{Buffer: 16},
		Worker:      config.WorkerConfig{Interval: time.Hour, BatchSize: 10},
		Categories:  config.CategoriesConfig{SeedFile: seedFile},
	}

	s.app = app.New(cfg)
	s.Require().NoError(s.app.Init(context.Background()))
	s.server = httptest.NewServer(s.app.Handler())
	s.tokens = middleware.NewTokenVerifier(secret)
}

func (s *AppTestSuite) TearDownTest() {
	s.server.Close()
	s.app.Close()
}

func (s *AppTestSuite) call(method, path string, user uuid.UUID, body any) (int, map[string]any) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != uuid.Nil {
		token, err := s.tokens.Sign(user, nil)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func data(body map[string]any) map[string]any {
	d, _ := body["data"].(map[string]any)
	return d
}

func (s *AppTestSuite) TestHealthAndCategories() {
	status, body := s.call(http.MethodGet, "/health", uuid.Nil, nil)
	s.Equal(http.StatusOK, status)
	s.Equal("ok", body["status"])

	status, body = s.call(http.MethodGet, "/task-categories", uuid.Nil, nil)
	s.Equal(http.StatusOK, status)
	s.Len(body["data"], 2)
}

func (s *AppTestSuite) TestAuthRequired() {
	status, body := s.call(http.MethodGet, "/tasks", uuid.Nil, nil)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal("UNAUTHORIZED", body["error"])
}

func (s *AppTestSuite) TestAcceptScenario() {
	owner, alice, bob := uuid.New(), uuid.New(), uuid.New()

	_, body := s.call(http.MethodGet, "/task-categories", uuid.Nil, nil)
	categoryID := body["data"].([]any)[0].(map[string]any)["id"].(string)

	status, body := s.call(http.MethodPost, "/tasks", owner, map[string]any{
		"title":    "Повесить полку",
		"category": categoryID,
		"range":    []any{500, 100},
		"reward":   "100",
		"deadLine": "2030-01-01T10:00:00Z",
	})
	s.Require().Equal(http.StatusCreated, status, body)
	created := data(body)
	taskID := created["id"].(string)
	s.Equal("open", created["status"])
	s.Equal(map[string]any{"min": float64(100), "max": float64(500)}, created["range"])

	status, body = s.call(http.MethodPost, "/offers", owner, map[string]any{
		"taskId": taskID, "amount": 90, "deadLine": "2030-01-01T10:00:00Z",
	})
	s.Equal(http.StatusForbidden, status)

	status, body = s.call(http.MethodPost, "/offers", alice, map[string]any{
		"taskId": taskID, "amount": 100, "deadLine": "2030-01-01T10:00:00Z",
	})
	s.Require().Equal(http.StatusCreated, status, body)
	offerA := data(body)["id"].(string)

	status, _ = s.call(http.MethodPost, "/offers", alice, map[string]any{
		"taskId": taskID, "amount": 110, "deadLine": "2030-01-01T10:00:00Z",
	})
	s.Equal(http.StatusConflict, status)

	status, body = s.call(http.MethodPost, "/offers", bob, map[string]any{
		"taskId": taskID, "amount": 150, "deadLine": "2030-01-01T10:00:00Z",
	})
	s.Require().Equal(http.StatusCreated, status, body)
	offerB := data(body)["id"].(string)

	status, _ = s.call(http.MethodPut, "/offers/"+offerA+"/accept", bob, nil)
	s.Equal(http.StatusForbidden, status)

	status, body = s.call(http.MethodPut, "/offers/"+offerA+"/accept", owner, nil)
	s.Require().Equal(http.StatusOK, status, body)
	s.Equal("accepted", data(body)["status"])

	status, body = s.call(http.MethodGet, "/tasks/"+taskID, owner, nil)
	s.Require().Equal(http.StatusOK, status)
	details := data(body)
	s.Equal("inProgress", details["status"])
	s.Equal(offerA, details["acceptedOfferId"])
	s.Equal(float64(2), details["offersCount"])

	status, body = s.call(http.MethodGet, "/offers/task/"+taskID, owner, nil)
	s.Require().Equal(http.StatusOK, status)
	for _, raw := range body["data"].([]any) {
		o := raw.(map[string]any)
		if o["id"] == offerB {
			s.Equal("rejected", o["status"])
		}
	}

	status, _ = s.call(http.MethodPut, "/offers/"+offerB+"/accept", owner, nil)
	s.Equal(http.StatusBadRequest, status)

	status, body = s.call(http.MethodGet, "/tasks/quashed", alice, nil)
	s.Equal(http.StatusOK, status)
	s.Len(body["data"], 1)

	status, body = s.call(http.MethodPut, "/tasks/"+taskID, alice, map[string]any{"status": "conflict"})
	s.Equal(http.StatusOK, status, body)
	s.Equal("conflict", data(body)["status"])

	status, _ = s.call(http.MethodPut, "/tasks/"+taskID, bob, map[string]any{"status": "completed"})
	s.Equal(http.StatusForbidden, status)
}

func (s *AppTestSuite) TestSkills() {
	owner := uuid.New()

	status, body := s.call(http.MethodPost, "/skills", owner, map[string]any{
		"title":    "Сантехника",
		"range":    "[100, 700]",
		"reward":   300,
		"deadLine": "2030-01-01T10:00:00Z",
	})
	s.Require().Equal(http.StatusCreated, status, body)
	skillID := data(body)["id"].(string)
	s.Equal(float64(700), data(body)["range"])

	status, _ = s.call(http.MethodGet, "/skills/"+skillID, uuid.New(), nil)
	s.Equal(http.StatusNotFound, status)

	status, _ = s.call(http.MethodDelete, "/skills/"+skillID, owner, nil)
	s.Equal(http.StatusOK, status)
}

func TestAppTestSuite(t *testing.T) {
	suite.Run(t, new(AppTestSuite))
}

func TestInit_UnknownSeedFile(t *testing.T) {
	cfg := &config.Config{
		Repository:  config.RepositoryConfig{Type: "inmemory"},
		Auth:        config.AuthConfig{JWTSecret: secret},
		Attachments: config.AttachmentsConfig{Dir: filepath.Join(t.TempDir(), "a")},
		Categories:  config.CategoriesConfig{SeedFile: filepath.Join(t.TempDir(), "missing.yml")},
	}
	a := app.New(cfg)
	err := a.Init(context.Background())
	a.Close()
	assert.Error(t, err)
	require.NotPanics(t, a.Close)
}
