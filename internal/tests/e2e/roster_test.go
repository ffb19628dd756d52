//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dutyroster/apiserver/config"
	"github.com/dutyroster/apiserver/internal/db"
	"github.com/dutyroster/apiserver/internal/server"
	"github.com/dutyroster/apiserver/internal/store"
	"github.com/dutyroster/apiserver/types"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	baseURL string
	dbConn  *sqlx.DB
)

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	pool, err := dockertest.NewPool("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to docker: %v\n", err)
		return 1
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=roster",
			"POSTGRES_PASSWORD=password",
			"POSTGRES_DB=roster_test",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres: %v\n", err)
		return 1
	}
	defer func() { _ = pool.Purge(resource) }()
	_ = resource.Expire(180)

	port, _ := strconv.Atoi(resource.GetPort("5432/tcp"))
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:          "e2e-secret",
			TokenExpireMinutes: 30,
			BcryptCost:         bcrypt.MinCost,
		},
		Database: config.DatabaseConfig{
			Host:     "localhost",
			Port:     port,
			User:     "roster",
			Password: "password",
			DBName:   "roster_test",
		},
	}

	pool.MaxWait = 2 * time.Minute
	if err := pool.Retry(func() error {
		conn, err := db.Open(context.Background(), cfg)
		if err != nil {
			return err
		}
		dbConn = conn
		return nil
	}); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		return 1
	}
	defer dbConn.Close()

	if err := db.MigrateUp(cfg.Database.URL()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		return 1
	}

	log := zap.NewNop()
	svc := server.NewServices(cfg, server.NewTransactor(store.New(dbConn)), nil, log)
	if _, _, err := svc.Accounts.SeedAdmin(context.Background(), types.NewAccount{
		Name:     "管理员",
		Login:    "admin",
		Password: "admin123",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed admin: %v\n", err)
		return 1
	}

	srv := httptest.NewServer(server.NewRouter(svc, []string{"*"}, log))
	defer srv.Close()
	baseURL = srv.URL

	return m.Run()
}

func TestRosterLifecycle(t *testing.T) {
	adminToken := login(t, "admin", "admin123")
	suffix := strconv.FormatInt(time.Now().UnixNano(), 36)

	status, body := call(t, http.MethodPost, "/students", adminToken, map[string]any{
		"name": "Alice", "username": "alice_" + suffix, "password": "initial-pw",
	})
	require.Equal(t, http.StatusCreated, status, body)
	aliceID := int(body["id"].(float64))

	status, body = call(t, http.MethodPost, "/students", adminToken, map[string]any{
		"name": "Alice Again", "username": "alice_" + suffix, "password": "x",
	})
	assert.Equal(t, http.StatusConflict, status, body)

	aliceToken := login(t, "alice_"+suffix, "initial-pw")

	status, body = call(t, http.MethodPost, "/schedules", adminToken, map[string]any{
		"date": "2024-02-29", "student_id": aliceID, "time_slot": "morning", "location": "Lab 1",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "Alice", body["student_name"])

	status, body = call(t, http.MethodPost, "/work-records", aliceToken, map[string]any{
		"date": "2024-02-29", "student_id": aliceID, "content": "opened the lab",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "pending", body["status"])

	status, body = call(t, http.MethodPost, "/todos", adminToken, map[string]any{
		"title": "restock paper", "assigned_to": aliceID, "priority": "high",
	})
	require.Equal(t, http.StatusCreated, status, body)
	todoPath := fmt.Sprintf("/todos/%d", int(body["id"].(float64)))

	status, body = call(t, http.MethodPost, todoPath+"/complete", aliceToken, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["is_completed"])

	days := callList(t, "/schedules/calendar/2024/2", aliceToken)
	require.Len(t, days, 29)

	status, body = call(t, http.MethodDelete, fmt.Sprintf("/students/%d", aliceID), adminToken, nil)
	require.Equal(t, http.StatusOK, status, body)
	removed := body["removed"].(map[string]any)
	assert.EqualValues(t, 1, removed["schedules"])
	assert.EqualValues(t, 1, removed["work_records"])
	assert.EqualValues(t, 1, removed["todos"])

	var remaining int
	require.NoError(t, dbConn.Get(&remaining, "SELECT COUNT(*) FROM schedules WHERE student_id = $1", aliceID))
	assert.Zero(t, remaining)
}

func login(t *testing.T, username, password string) string {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	resp, err := http.PostForm(baseURL+"/auth/login", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", username, resp.StatusCode, readBody(resp))
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.NotEmpty(t, parsed.AccessToken)
	return parsed.AccessToken
}

func call(t *testing.T, method, path, token string, payload any) (int, map[string]any) {
	t.Helper()
	resp := send(t, method, path, token, payload)
	defer resp.Body.Close()

	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func callList(t *testing.T, path, token string) []map[string]any {
	t.Helper()
	resp := send(t, http.MethodGet, path, token, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func send(t *testing.T, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, baseURL+path, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func readBody(resp *http.Response) string {
	data, _ := io.ReadAll(resp.Body)
	return strings.TrimSpace(string(data))
}
