package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suryatejathodupunuri/LangCentrix/internal/authz"
	"github.com/suryatejathodupunuri/LangCentrix/internal/db/models"
	"github.com/suryatejathodupunuri/LangCentrix/internal/notify"
	"github.com/suryatejathodupunuri/LangCentrix/internal/services"
	"go.uber.org/zap"
)

type TaskHandler struct {
	tasks  *services.TaskService
	notify *notify.Queue
	logger *zap.Logger
}

func NewTaskHandler(tasks *services.TaskService, notifyQueue *notify.Queue, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		tasks:  tasks,
		notify: notifyQueue,
		logger: logger.With(zap.String("handler", "task")),
	}
}

// taskView is the wire shape of a task: the stored file bytes are exposed as
// UTF-8 text for the annotation editor.
type taskView struct {
	models.Task
	SourceContent string `json:"sourceContent"`
	EditedContent string `json:"editedContent"`
}

func toView(t models.Task) taskView {
	edited := t.EditedContent
	if edited == "" && len(t.SecondFileContent) > 0 {
		edited = string(t.SecondFileContent)
	}
	return taskView{
		Task:          t,
		SourceContent: string(t.SourceFileContent),
		EditedContent: edited,
	}
}

func toViews(tasks []models.Task) []taskView {
	views := make([]taskView, len(tasks))
	for i, t := range tasks {
		views[i] = toView(t)
	}
	return views
}

func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		limit = 10
	}
	return page, limit
}

func idParam(c *gin.Context) (uint, bool) {
	raw := c.Query("id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task ID is required"})
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return 0, false
	}
	return uint(id), true
}

func (h *TaskHandler) List(c *gin.Context) {
	page, limit := pageParams(c)

	tasks, total, err := h.tasks.List(c.Request.Context(), page, limit, false)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": toViews(tasks), "total": total})
}

func readUpload(header *multipart.FileHeader) (string, []byte, error) {
	f, err := header.Open()
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, content, nil
}

func (h *TaskHandler) Create(c *gin.Context) {
	in := services.CreateTaskInput{
		TaskType:    models.TaskType(c.PostForm("taskType")),
		AssignTo:    c.PostForm("assignTo"),
		TaskLabel:   c.PostForm("taskLabel"),
		Priority:    models.TaskPriority(c.PostForm("priority")),
		SourceLang:  c.PostForm("sourceLang"),
		TargetLang:  c.PostForm("targetLang"),
		Description: c.PostForm("description"),
		Domain:      c.PostForm("domain"),
	}

	if raw := c.PostForm("projectId"); raw != "" {
		projectID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			h.logger.Warn("Invalid projectId format, ignoring", zap.String("projectId", raw))
		} else {
			id := uint(projectID)
			in.ProjectID = &id
		}
	}

	if raw := c.PostForm("expectedFinishDate"); raw != "" {
		finish, err := time.Parse("2006-01-02", raw)
		if err == nil {
			in.ExpectedFinish = &finish
		}
	}

	if header, err := c.FormFile("sourceFile"); err == nil {
		name, content, err := readUpload(header)
		if err != nil {
			h.logger.Error("Failed to read source file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read uploaded file"})
			return
		}
		in.SourceFileName = name
		in.SourceFileContent = content
	}

	if header, err := c.FormFile("secondFile"); err == nil {
		name, content, err := readUpload(header)
		if err != nil {
			h.logger.Error("Failed to read second file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read uploaded file"})
			return
		}
		in.SecondFileName = name
		in.SecondFileContent = content
	}

	createdBy := c.GetString("userEmail")
	role, _ := c.MustGet("role").(models.UserRole)

	task, err := h.tasks.Create(c.Request.Context(), in, createdBy, string(role))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.notify.Push(createdBy, notify.Notice{
		Message: "Task " + task.TaskID + " created",
		Kind:    notify.KindSuccess,
	})

	c.JSON(http.StatusCreated, toView(*task))
}

type patchTaskRequest struct {
	TaskType       *string `json:"taskType"`
	ProjectID      *uint   `json:"projectId"`
	AssignTo       *string `json:"assignTo"`
	TaskLabel      *string `json:"taskLabel"`
	Priority       *string `json:"priority"`
	SourceLang     *string `json:"sourceLang"`
	TargetLang     *string `json:"targetLang"`
	Description    *string `json:"description"`
	Domain         *string `json:"domain"`
	ExpectedFinish *string `json:"expectedFinishDate"`
	EditedContent  *string `json:"editedContent"`
	CurrentStatus  *string `json:"currentStatus"`
}

func (r *patchTaskRequest) touchesMetadata() bool {
	return r.TaskType != nil || r.ProjectID != nil || r.AssignTo != nil ||
		r.TaskLabel != nil || r.Priority != nil || r.SourceLang != nil ||
		r.TargetLang != nil || r.Description != nil || r.Domain != nil ||
		r.ExpectedFinish != nil
}

// Patch serves two callers: managers/admins updating task fields, and the
// assignee's annotation editor writing content and status. Editors may only
// touch their own task's lifecycle fields.
func (h *TaskHandler) Patch(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req patchTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad request"})
		return
	}

	role, _ := c.MustGet("role").(models.UserRole)
	email := c.GetString("userEmail")

	if !authz.CanAccess(role, authz.TasksWrite) {
		if !authz.CanAccess(role, authz.TasksAnnotate) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		task, err := h.tasks.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		if task.AssignTo != email || req.touchesMetadata() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
	}

	in := services.PatchTaskInput{
		AssignTo:      req.AssignTo,
		TaskLabel:     req.TaskLabel,
		SourceLang:    req.SourceLang,
		TargetLang:    req.TargetLang,
		Description:   req.Description,
		Domain:        req.Domain,
		ProjectID:     req.ProjectID,
		EditedContent: req.EditedContent,
	}
	if req.TaskType != nil {
		taskType := models.TaskType(*req.TaskType)
		in.TaskType = &taskType
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		in.Priority = &priority
	}
	if req.CurrentStatus != nil {
		status := models.TaskStatus(*req.CurrentStatus)
		in.CurrentStatus = &status
	}
	if req.ExpectedFinish != nil {
		finish, err := time.Parse("2006-01-02", *req.ExpectedFinish)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expectedFinishDate"})
			return
		}
		in.ExpectedFinish = &finish
	}

	task, err := h.tasks.Patch(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, toView(*task))
}

func (h *TaskHandler) SoftDelete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.tasks.SoftDelete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.notify.Push(c.GetString("userEmail"), notify.Notice{
		Message: "Task moved to deleted tasks",
		Kind:    notify.KindInfo,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func (h *TaskHandler) ListAssigned(c *gin.Context) {
	page, limit := pageParams(c)
	email := c.GetString("userEmail")

	tasks, total, err := h.tasks.ListAssigned(c.Request.Context(), email, page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": toViews(tasks), "total": total})
}

func (h *TaskHandler) ListDeleted(c *gin.Context) {
	page, limit := pageParams(c)

	tasks, total, err := h.tasks.List(c.Request.Context(), page, limit, true)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": toViews(tasks), "total": total})
}

func (h *TaskHandler) Restore(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	task, err := h.tasks.Restore(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.notify.Push(c.GetString("userEmail"), notify.Notice{
		Message: "Task " + task.TaskID + " restored",
		Kind:    notify.KindSuccess,
	})

	c.JSON(http.StatusOK, toView(*task))
}

func (h *TaskHandler) PermanentDelete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.tasks.PermanentDelete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task permanently deleted"})
}
