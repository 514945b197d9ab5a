package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/db"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	cfg, err := config.Parse([]byte("auth:\n  jwt_secret: test-secret\n"))
	if err != nil {
		panic(err)
	}
	return cfg
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gormDB, err := db.Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	cfg := testConfig()
	router := gin.New()
	registerRoutes(router, gormDB, cfg)
	return router, gormDB, cfg
}

// do sends a JSON request and decodes the JSON response body into out (when
// out is non-nil).
func do(t *testing.T, router *gin.Engine, method, path, token string, body, out interface{}) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if out != nil && w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w.Code
}

// registerAndLogin creates a user through the API and returns a session token.
func registerAndLogin(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()

	code := do(t, router, http.MethodPost, "/api/register", "", map[string]string{
		"username": username, "password": "s3cret",
	}, nil)
	if code != http.StatusCreated {
		t.Fatalf("register %q: status = %d, want 201", username, code)
	}

	var login struct {
		Token string `json:"token"`
	}
	code = do(t, router, http.MethodPost, "/api/login", "", map[string]string{
		"username": username, "password": "s3cret",
	}, &login)
	if code != http.StatusOK {
		t.Fatalf("login %q: status = %d, want 200", username, code)
	}
	if login.Token == "" {
		t.Fatal("login returned empty token")
	}
	return login.Token
}

func TestAuthFlow(t *testing.T) {
	router, _, _ := newTestRouter(t)

	var reg struct {
		Role string `json:"role"`
	}
	code := do(t, router, http.MethodPost, "/api/register", "", map[string]string{
		"username": "alice", "password": "s3cret",
	}, &reg)
	if code != http.StatusCreated {
		t.Fatalf("register: status = %d, want 201", code)
	}
	if reg.Role != "Admin" {
		t.Errorf("first user role = %q, want Admin", reg.Role)
	}

	// Duplicate username conflicts.
	code = do(t, router, http.MethodPost, "/api/register", "", map[string]string{
		"username": "alice", "password": "other",
	}, nil)
	if code != http.StatusConflict {
		t.Errorf("duplicate register: status = %d, want 409", code)
	}

	// Wrong password is unauthorized.
	code = do(t, router, http.MethodPost, "/api/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	}, nil)
	if code != http.StatusUnauthorized {
		t.Errorf("bad login: status = %d, want 401", code)
	}
}

func TestRequireAuth(t *testing.T) {
	router, _, _ := newTestRouter(t)

	if code := do(t, router, http.MethodGet, "/api/projects", "", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", code)
	}
	if code := do(t, router, http.MethodGet, "/api/projects", "garbage", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", code)
	}
}

func TestProjectAndTaskFlow(t *testing.T) {
	router, _, _ := newTestRouter(t)
	token := registerAndLogin(t, router, "alice")

	var proj struct {
		ID uint `json:"ID"`
	}
	code := do(t, router, http.MethodPost, "/api/projects", token, map[string]interface{}{
		"name": "Launch", "budget": 1000.0,
	}, &proj)
	if code != http.StatusCreated {
		t.Fatalf("create project: status = %d, want 201", code)
	}

	var blocker, dependent struct {
		ID     uint   `json:"ID"`
		Status string `json:"Status"`
	}
	code = do(t, router, http.MethodPost, "/api/tasks", token, map[string]interface{}{
		"project_id": proj.ID, "title": "Write code",
	}, &blocker)
	if code != http.StatusCreated {
		t.Fatalf("create blocker: status = %d, want 201", code)
	}
	code = do(t, router, http.MethodPost, "/api/tasks", token, map[string]interface{}{
		"project_id": proj.ID, "title": "Ship it",
	}, &dependent)
	if code != http.StatusCreated {
		t.Fatalf("create dependent: status = %d, want 201", code)
	}
	if dependent.Status != "Pending" {
		t.Errorf("new task status = %q, want Pending", dependent.Status)
	}

	code = do(t, router, http.MethodPost, fmt.Sprintf("/api/tasks/%d/deps", dependent.ID), token,
		map[string]uint{"depends_on": blocker.ID}, nil)
	if code != http.StatusCreated {
		t.Fatalf("add dep: status = %d, want 201", code)
	}

	// Completing the dependent while the blocker is open conflicts.
	code = do(t, router, http.MethodPost, fmt.Sprintf("/api/tasks/%d/status", dependent.ID), token,
		map[string]string{"status": "Completed"}, nil)
	if code != http.StatusConflict {
		t.Fatalf("gated complete: status = %d, want 409", code)
	}

	// Complete the blocker, then the dependent.
	code = do(t, router, http.MethodPost, fmt.Sprintf("/api/tasks/%d/status", blocker.ID), token,
		map[string]string{"status": "Completed"}, nil)
	if code != http.StatusOK {
		t.Fatalf("complete blocker: status = %d, want 200", code)
	}
	var result struct {
		Task struct {
			Status string `json:"Status"`
		} `json:"task"`
	}
	code = do(t, router, http.MethodPost, fmt.Sprintf("/api/tasks/%d/status", dependent.ID), token,
		map[string]string{"status": "Completed"}, &result)
	if code != http.StatusOK {
		t.Fatalf("complete dependent: status = %d, want 200", code)
	}
	if result.Task.Status != "Completed" {
		t.Errorf("dependent status = %q, want Completed", result.Task.Status)
	}
}

func TestTaskCostsEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)
	token := registerAndLogin(t, router, "alice")

	var proj struct {
		ID uint `json:"ID"`
	}
	do(t, router, http.MethodPost, "/api/projects", token, map[string]string{"name": "Budgeted"}, &proj)

	var created struct {
		ID uint `json:"ID"`
	}
	do(t, router, http.MethodPost, "/api/tasks", token, map[string]interface{}{
		"project_id": proj.ID, "title": "Costly",
	}, &created)

	var updated struct {
		Budget         *float64 `json:"Budget"`
		ActualCost     *float64 `json:"ActualCost"`
		BudgetVariance *float64 `json:"BudgetVariance"`
	}
	code := do(t, router, http.MethodPost, fmt.Sprintf("/api/tasks/%d/costs", created.ID), token,
		map[string]float64{"budget": 500, "actual_cost": 120}, &updated)
	if code != http.StatusOK {
		t.Fatalf("set costs: status = %d, want 200", code)
	}
	if updated.BudgetVariance == nil || *updated.BudgetVariance != 380 {
		t.Errorf("BudgetVariance = %v, want 380", updated.BudgetVariance)
	}
}

func TestRemindersEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)
	token := registerAndLogin(t, router, "alice")

	var proj struct {
		ID uint `json:"ID"`
	}
	do(t, router, http.MethodPost, "/api/projects", token, map[string]string{"name": "Dated"}, &proj)
	code := do(t, router, http.MethodPost, "/api/tasks", token, map[string]interface{}{
		"project_id": proj.ID, "title": "Ancient", "deadline": "2020-01-01",
	}, nil)
	if code != http.StatusCreated {
		t.Fatalf("create task: status = %d, want 201", code)
	}

	var feed struct {
		Overdue  []json.RawMessage `json:"overdue"`
		Upcoming []json.RawMessage `json:"upcoming"`
	}
	code = do(t, router, http.MethodGet, "/api/reminders", token, nil, &feed)
	if code != http.StatusOK {
		t.Fatalf("reminders: status = %d, want 200", code)
	}
	if len(feed.Overdue) != 1 {
		t.Errorf("overdue = %d, want 1", len(feed.Overdue))
	}

	if code := do(t, router, http.MethodGet, "/api/reminders?days=bogus", token, nil, nil); code != http.StatusBadRequest {
		t.Errorf("bad days param: status = %d, want 400", code)
	}
}

func TestProjectDelete_AdminOnly(t *testing.T) {
	router, _, _ := newTestRouter(t)
	adminToken := registerAndLogin(t, router, "alice") // first user: Admin
	userToken := registerAndLogin(t, router, "bob")

	var proj struct {
		ID uint `json:"ID"`
	}
	do(t, router, http.MethodPost, "/api/projects", userToken, map[string]string{"name": "Bob's"}, &proj)

	code := do(t, router, http.MethodDelete, fmt.Sprintf("/api/projects/%d", proj.ID), userToken, nil, nil)
	if code != http.StatusForbidden {
		t.Errorf("owner delete: status = %d, want 403", code)
	}
	code = do(t, router, http.MethodDelete, fmt.Sprintf("/api/projects/%d", proj.ID), adminToken, nil, nil)
	if code != http.StatusNoContent {
		t.Errorf("admin delete: status = %d, want 204", code)
	}
}

func TestProjectVisibility(t *testing.T) {
	router, _, _ := newTestRouter(t)
	registerAndLogin(t, router, "alice") // burn the admin slot
	bobToken := registerAndLogin(t, router, "bob")
	carolToken := registerAndLogin(t, router, "carol")

	var proj struct {
		ID uint `json:"ID"`
	}
	do(t, router, http.MethodPost, "/api/projects", bobToken, map[string]string{"name": "Private"}, &proj)

	code := do(t, router, http.MethodGet, fmt.Sprintf("/api/projects/%d", proj.ID), carolToken, nil, nil)
	if code != http.StatusForbidden {
		t.Errorf("outsider get: status = %d, want 403", code)
	}

	var visible []json.RawMessage
	code = do(t, router, http.MethodGet, "/api/projects", carolToken, nil, &visible)
	if code != http.StatusOK {
		t.Fatalf("list: status = %d, want 200", code)
	}
	if len(visible) != 0 {
		t.Errorf("outsider sees %d projects, want 0", len(visible))
	}
}

func TestStart_Validation(t *testing.T) {
	err := Start(context.Background(), StartOpts{})
	if err == nil {
		t.Fatal("expected error for missing db")
	}
	if !strings.Contains(err.Error(), "db is required") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "db is required")
	}
}

func TestNextCronDuration(t *testing.T) {
	if d := nextCronDuration("*/5 * * * *"); d <= 0 {
		t.Errorf("duration = %v, want > 0", d)
	}
	if d := nextCronDuration("not a cron expr"); d != 0 {
		t.Errorf("invalid expression duration = %v, want 0", d)
	}
}
