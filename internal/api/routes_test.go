package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suryatejathodupunuri/LangCentrix/internal/db/models"
	"github.com/suryatejathodupunuri/LangCentrix/internal/notify"
	"github.com/suryatejathodupunuri/LangCentrix/internal/services"
	"github.com/suryatejathodupunuri/LangCentrix/internal/utils"
	"github.com/suryatejathodupunuri/LangCentrix/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testApp struct {
	router *Router
	db     *gorm.DB
	t      *testing.T
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(
		&models.User{},
		&models.SignupRequest{},
		&models.Client{},
		&models.Project{},
		&models.ClientProject{},
		&models.Task{},
	))

	logger := zap.NewNop()
	metricsCollector := metrics.NewMetricsCollector()

	sessionService := services.NewSessionService(time.Hour, logger, metricsCollector)
	t.Cleanup(sessionService.Close)

	userService := services.NewUserService(database, logger, metricsCollector, 8)
	taskService := services.NewTaskService(database, logger, metricsCollector)
	registryService := services.NewRegistryService(database, logger)
	notifyQueue := notify.NewQueue()

	router := NewRouter(logger, metricsCollector, userService, taskService, registryService, sessionService, notifyQueue, database)
	router.SetupRoutes()

	return &testApp{router: router, db: database, t: t}
}

func (a *testApp) createUser(email string, role models.UserRole) {
	a.t.Helper()
	hash, err := utils.EncryptPassword("Passw0rdX")
	require.NoError(a.t, err)
	user := models.User{Name: "Test " + string(role), Email: email, PasswordHash: hash, Role: role, IsActive: true}
	require.NoError(a.t, a.db.Create(&user).Error)
}

func (a *testApp) login(email string) *http.Cookie {
	a.t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": "Passw0rdX"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	a.router.GetEngine().ServeHTTP(w, req)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "session_token" {
			return cookie
		}
	}
	a.t.Fatal("no session cookie in login response")
	return nil
}

func (a *testApp) do(method, path string, body io.Reader, contentType string, cookie *http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	a.router.GetEngine().ServeHTTP(w, req)
	return w
}

func (a *testApp) doJSON(method, path string, payload interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(a.t, err)
		body = bytes.NewReader(raw)
	}
	return a.do(method, path, body, "application/json", cookie)
}

func taskForm(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for field, content := range files {
		part, err := writer.CreateFormFile(field, field+".txt")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/health", nil, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodGet, "/metrics", nil, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginFlow(t *testing.T) {
	app := newTestApp(t)
	app.createUser("manager@example.com", models.RoleManager)

	t.Run("bad credentials", func(t *testing.T) {
		w := app.doJSON(http.MethodPost, "/api/auth/login", map[string]string{
			"email": "manager@example.com", "password": "wrong",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := app.doJSON(http.MethodPost, "/api/auth/login", map[string]string{"email": "manager@example.com"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("success returns role resources", func(t *testing.T) {
		w := app.doJSON(http.MethodPost, "/api/auth/login", map[string]string{
			"email": "manager@example.com", "password": "Passw0rdX",
		}, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			User struct {
				Email string `json:"email"`
				Role  string `json:"role"`
			} `json:"user"`
			Resources []string `json:"resources"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Manager", resp.User.Role)
		assert.Contains(t, resp.Resources, "tasks.write")
		assert.NotContains(t, resp.Resources, "users.manage")
	})
}

func TestLogoutInvalidatesSession(t *testing.T) {
	app := newTestApp(t)
	app.createUser("manager@example.com", models.RoleManager)
	cookie := app.login("manager@example.com")

	w := app.do(http.MethodGet, "/api/tasks", nil, "", cookie)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodPost, "/api/auth/logout", nil, "", cookie)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodGet, "/api/tasks", nil, "", cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnauthenticatedRequests(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/tasks", "/api/users", "/api/clients", "/api/notifications"} {
		w := app.do(http.MethodGet, path, nil, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	app.createUser("manager@example.com", models.RoleManager)
	app.createUser("editor@example.com", models.RoleEditor)
	manager := app.login("manager@example.com")
	editor := app.login("editor@example.com")

	// Editors may not create tasks.
	body, contentType := taskForm(t, map[string]string{
		"taskType": "NER", "description": "tag entities",
	}, map[string]string{"sourceFile": "source text"})
	w := app.do(http.MethodPost, "/api/tasks", body, contentType, editor)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Manager creates an unassigned task.
	body, contentType = taskForm(t, map[string]string{
		"taskType": "NER", "description": "tag entities", "priority": "High",
	}, map[string]string{"sourceFile": "source text"})
	w = app.do(http.MethodPost, "/api/tasks", body, contentType, manager)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID            uint   `json:"id"`
		TaskID        string `json:"taskId"`
		CurrentStatus string `json:"currentStatus"`
		SourceContent string `json:"sourceContent"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Assigned", created.CurrentStatus)
	assert.Equal(t, "source text", created.SourceContent)
	assert.Regexp(t, `^\d+-\d{14}$`, created.TaskID)

	// Manager assigns it to the editor.
	w = app.doJSON(http.MethodPatch, fmt.Sprintf("/api/tasks?id=%d", created.ID), map[string]string{
		"assignTo": "editor@example.com",
	}, manager)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The editor sees it in their assigned list.
	w = app.do(http.MethodGet, "/api/tasks/assigned", nil, "", editor)
	require.Equal(t, http.StatusOK, w.Code)
	var assigned struct {
		Tasks []json.RawMessage `json:"tasks"`
		Total int               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &assigned))
	assert.Equal(t, 1, assigned.Total)

	// The editor moves it through the editing flow.
	w = app.doJSON(http.MethodPatch, fmt.Sprintf("/api/tasks?id=%d", created.ID), map[string]string{
		"currentStatus": "Under editing", "editedContent": "tagged text",
	}, editor)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Skipping straight from the start to Finished is not possible anymore,
	// but Finished from Under editing is.
	w = app.doJSON(http.MethodPatch, fmt.Sprintf("/api/tasks?id=%d", created.ID), map[string]string{
		"currentStatus": "Finished",
	}, editor)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The editor cannot touch metadata.
	w = app.doJSON(http.MethodPatch, fmt.Sprintf("/api/tasks?id=%d", created.ID), map[string]string{
		"taskLabel": "sneaky",
	}, editor)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestEditorCannotPatchForeignTask(t *testing.T) {
	app := newTestApp(t)
	app.createUser("manager@example.com", models.RoleManager)
	app.createUser("editor@example.com", models.RoleEditor)
	app.createUser("other@example.com", models.RoleEditor)
	manager := app.login("manager@example.com")
	other := app.login("other@example.com")

	body, contentType := taskForm(t, map[string]string{
		"taskType": "NER", "description": "d", "assignTo": "editor@example.com",
	}, map[string]string{"sourceFile": "text"})
	w := app.do(http.MethodPost, "/api/tasks", body, contentType, manager)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = app.doJSON(http.MethodPatch, fmt.Sprintf("/api/tasks?id=%d", created.ID), map[string]string{
		"currentStatus": "Under editing",
	}, other)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInvalidTransitionOverHTTP(t *testing.T) {
	app := newTestApp(t)
	app.createUser("manager@example.com", models.RoleManager)
	manager := app.login("manager@example.com")

	body, contentType := taskForm(t, map[string]string{
		"taskType": "NER", "description": "d",
	}, map[string]string{"sourceFile": "text"})
	w := app.do(http.MethodPost, "/api/tasks", body, contentType, manager)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = app.doJSON(http.MethodPatch, fmt.Sprintf("/api/tasks?id=%d", created.ID), map[string]string{
		"currentStatus": "Finished",
	}, manager)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeletedTaskFlow(t *testing.T) {
	app := newTestApp(t)
	app.createUser("manager@example.com", models.RoleManager)
	app.createUser("editor@example.com", models.RoleEditor)
	manager := app.login("manager@example.com")
	editor := app.login("editor@example.com")

	body, contentType := taskForm(t, map[string]string{
		"taskType": "Headline", "description": "d",
	}, map[string]string{"sourceFile": "text"})
	w := app.do(http.MethodPost, "/api/tasks", body, contentType, manager)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = app.do(http.MethodDelete, fmt.Sprintf("/api/tasks?id=%d", created.ID), nil, "", manager)
	require.Equal(t, http.StatusOK, w.Code)

	// Gone from the active list, present in view-deleted.
	w = app.do(http.MethodGet, "/api/tasks", nil, "", manager)
	var listing struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Equal(t, 0, listing.Total)

	w = app.do(http.MethodGet, "/api/tasks/view-deleted", nil, "", manager)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Equal(t, 1, listing.Total)

	// Editors have no access to the deleted view.
	w = app.do(http.MethodGet, "/api/tasks/view-deleted", nil, "", editor)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Restore, then permanently delete.
	w = app.doJSON(http.MethodPatch, fmt.Sprintf("/api/tasks/view-deleted?id=%d", created.ID), nil, manager)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodDelete, fmt.Sprintf("/api/tasks?id=%d", created.ID), nil, "", manager)
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(http.MethodDelete, fmt.Sprintf("/api/tasks/view-deleted?id=%d", created.ID), nil, "", manager)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodDelete, fmt.Sprintf("/api/tasks/view-deleted?id=%d", created.ID), nil, "", manager)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTranslationRequiresSecondFile(t *testing.T) {
	app := newTestApp(t)
	app.createUser("manager@example.com", models.RoleManager)
	manager := app.login("manager@example.com")

	body, contentType := taskForm(t, map[string]string{
		"taskType": "Translation", "description": "translate this",
	}, map[string]string{"sourceFile": "text"})
	w := app.do(http.MethodPost, "/api/tasks", body, contentType, manager)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, contentType = taskForm(t, map[string]string{
		"taskType": "Translation", "description": "translate this",
	}, map[string]string{"sourceFile": "text", "secondFile": "reference"})
	w = app.do(http.MethodPost, "/api/tasks", body, contentType, manager)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestSignupApprovalFlow(t *testing.T) {
	app := newTestApp(t)
	app.createUser("admin@example.com", models.RoleAdmin)
	app.createUser("manager@example.com", models.RoleManager)
	admin := app.login("admin@example.com")
	manager := app.login("manager@example.com")

	w := app.doJSON(http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Applicant", "email": "new@example.com", "password": "Passw0rdX",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var signup struct {
		Request struct {
			ID uint `json:"id"`
		} `json:"request"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signup))

	// The applicant cannot log in before approval.
	w = app.doJSON(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "new@example.com", "password": "Passw0rdX",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Managers cannot handle signups.
	w = app.do(http.MethodGet, "/api/admin/signuprequests", nil, "", manager)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodGet, "/api/admin/signuprequests", nil, "", admin)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.doJSON(http.MethodPost, "/api/admin/signuprequests/approve", map[string]uint{"id": signup.Request.ID}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The approved user logs in as Editor.
	w = app.doJSON(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "new@example.com", "password": "Passw0rdX",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		User struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Editor", resp.User.Role)

	// Approving the consumed request again is a 404.
	w = app.doJSON(http.MethodPost, "/api/admin/signuprequests/approve", map[string]uint{"id": signup.Request.ID}, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserManagementRoutes(t *testing.T) {
	app := newTestApp(t)
	app.createUser("admin@example.com", models.RoleAdmin)
	app.createUser("manager@example.com", models.RoleManager)
	admin := app.login("admin@example.com")
	manager := app.login("manager@example.com")

	// Only admins list or register users.
	w := app.do(http.MethodGet, "/api/users", nil, "", manager)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.doJSON(http.MethodPost, "/api/register", map[string]string{
		"name": "Reviewer", "email": "reviewer@example.com",
		"password": "Passw0rdX", "confirmPassword": "Passw0rdX", "role": "Reviewer",
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID   uint   `json:"id"`
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Reviewer", created.Role)

	w = app.doJSON(http.MethodPut, fmt.Sprintf("/api/users/%d/role", created.ID), map[string]string{"role": "Manager"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Task-write roles can read the assignment pickers.
	w = app.do(http.MethodGet, "/api/users/managers", nil, "", manager)
	assert.Equal(t, http.StatusOK, w.Code)
	w = app.do(http.MethodGet, "/api/users/emails", nil, "", manager)
	assert.Equal(t, http.StatusOK, w.Code)

	// Password change is self-service only.
	w = app.doJSON(http.MethodPut, fmt.Sprintf("/api/users/%d/change-password", created.ID), map[string]string{
		"currentPassword": "Passw0rdX", "newPassword": "NewPassw0rd1", "reenterNewPassword": "NewPassw0rd1",
	}, admin)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", created.ID), nil, "", admin)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClientAndProjectRoutes(t *testing.T) {
	app := newTestApp(t)
	app.createUser("manager@example.com", models.RoleManager)
	app.createUser("editor@example.com", models.RoleEditor)
	manager := app.login("manager@example.com")
	editor := app.login("editor@example.com")

	w := app.do(http.MethodGet, "/api/clients", nil, "", editor)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.doJSON(http.MethodPost, "/api/clients", map[string]string{"name": "Acme"}, manager)
	require.Equal(t, http.StatusCreated, w.Code)

	var client struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &client))

	w = app.doJSON(http.MethodPost, "/api/projects", map[string]interface{}{
		"name": "Corpus 2025", "startDate": "2025-03-01", "endDate": "2025-06-30",
		"clientIds": []uint{client.ID},
	}, manager)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var project struct {
		ID       uint   `json:"id"`
		Duration string `json:"duration"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &project))
	assert.Equal(t, "2025-03-01 - 2025-06-30", project.Duration)

	w = app.do(http.MethodGet, "/api/projects", nil, "", manager)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodDelete, fmt.Sprintf("/api/projects/%d", project.ID), nil, "", manager)
	assert.Equal(t, http.StatusOK, w.Code)
	w = app.do(http.MethodDelete, fmt.Sprintf("/api/clients/%d", client.ID), nil, "", manager)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNotificationsDrain(t *testing.T) {
	app := newTestApp(t)
	app.createUser("manager@example.com", models.RoleManager)
	manager := app.login("manager@example.com")

	body, contentType := taskForm(t, map[string]string{
		"taskType": "NER", "description": "d",
	}, map[string]string{"sourceFile": "text"})
	w := app.do(http.MethodPost, "/api/tasks", body, contentType, manager)
	require.Equal(t, http.StatusCreated, w.Code)

	w = app.do(http.MethodGet, "/api/notifications", nil, "", manager)
	require.Equal(t, http.StatusOK, w.Code)

	var drained struct {
		Notifications []struct {
			Message string `json:"message"`
			Kind    string `json:"kind"`
		} `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &drained))
	require.Len(t, drained.Notifications, 1)
	assert.Equal(t, "success", drained.Notifications[0].Kind)

	// Second drain is empty.
	w = app.do(http.MethodGet, "/api/notifications", nil, "", manager)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &drained))
	assert.Empty(t, drained.Notifications)
}
