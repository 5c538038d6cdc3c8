package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/suryatejathodupunuri/LangCentrix/internal/db/models"
	"github.com/suryatejathodupunuri/LangCentrix/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaskService owns the task lifecycle: creation, listing, status transitions,
// and soft-delete/restore semantics. All state changes go through here.
type TaskService struct {
	db      *gorm.DB
	logger  *zap.Logger
	metrics *metrics.MetricsCollector
}

func NewTaskService(db *gorm.DB, logger *zap.Logger, metricsCollector *metrics.MetricsCollector) *TaskService {
	return &TaskService{
		db:      db,
		logger:  logger.With(zap.String("service", "task_service")),
		metrics: metricsCollector,
	}
}

// transitions is the allowed forward graph. Writing the same status again is a
// no-op and always permitted; soft delete is out of band and not part of the
// graph.
var transitions = map[models.TaskStatus]map[models.TaskStatus]bool{
	models.StatusAssigned:     {models.StatusUnderEditing: true},
	models.StatusUnderEditing: {models.StatusFinished: true},
	models.StatusFinished:     {},
}

func transitionAllowed(from, to models.TaskStatus) bool {
	if from == to {
		return true
	}
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	return allowed[to]
}

type CreateTaskInput struct {
	TaskType          models.TaskType
	ProjectID         *uint
	AssignTo          string
	TaskLabel         string
	Priority          models.TaskPriority
	SourceLang        string
	TargetLang        string
	Description       string
	Domain            string
	ExpectedFinish    *time.Time
	SourceFileName    string
	SourceFileContent []byte
	SecondFileName    string
	SecondFileContent []byte
}

// GenerateTaskID builds the human-readable task identifier from the current
// row count plus a timestamp. The count read is not atomic with the insert, so
// concurrent creations can share a numeric prefix; the timestamp suffix still
// differentiates rows and the ordinal is not treated as a reliable sequence.
func (ts *TaskService) GenerateTaskID(ctx context.Context) (string, error) {
	var count int64
	if err := ts.db.WithContext(ctx).Model(&models.Task{}).Count(&count).Error; err != nil {
		return "", errors.Wrap(err, "failed to count tasks")
	}
	return fmt.Sprintf("%d-%s", count+1, time.Now().Format("20060102150405")), nil
}

func (ts *TaskService) Create(ctx context.Context, in CreateTaskInput, createdBy, createdByRole string) (*models.Task, error) {
	if in.Description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if len(in.SourceFileContent) == 0 || in.SourceFileName == "" {
		return nil, fmt.Errorf("%w: source file is required", ErrValidation)
	}
	if !in.TaskType.Valid() {
		return nil, fmt.Errorf("%w: unknown task type %q", ErrValidation, in.TaskType)
	}
	if in.TaskType == models.TypeTranslation && len(in.SecondFileContent) == 0 {
		return nil, fmt.Errorf("%w: second file is required for translation tasks", ErrValidation)
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, in.Priority)
	}

	taskID, err := ts.GenerateTaskID(ctx)
	if err != nil {
		return nil, err
	}

	task := models.Task{
		TaskID:            taskID,
		TaskType:          in.TaskType,
		ProjectID:         in.ProjectID,
		AssignTo:          in.AssignTo,
		TaskLabel:         in.TaskLabel,
		Priority:          in.Priority,
		SourceLang:        in.SourceLang,
		TargetLang:        in.TargetLang,
		Description:       in.Description,
		Domain:            in.Domain,
		ExpectedFinish:    in.ExpectedFinish,
		SourceFileName:    in.SourceFileName,
		SourceFileContent: in.SourceFileContent,
		SecondFileName:    in.SecondFileName,
		SecondFileContent: in.SecondFileContent,
		CurrentStatus:     models.StatusAssigned,
		CreatedBy:         createdBy,
		CreatedByRole:     createdByRole,
		DeleteFlag:        false,
	}

	if err := ts.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, errors.Wrap(err, "failed to create task")
	}

	ts.metrics.IncrementCounter("tasks.created", map[string]string{"type": string(in.TaskType)})
	ts.logger.Info("Task created",
		zap.String("task_id", task.TaskID),
		zap.String("assign_to", task.AssignTo),
		zap.String("created_by", createdBy))

	return &task, nil
}

// List returns one page of tasks plus the total matching count, which is
// independent of the page window. Soft-deleted tasks appear only when
// includeDeleted is set.
func (ts *TaskService) List(ctx context.Context, page, limit int, includeDeleted bool) ([]models.Task, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	tx := ts.db.WithContext(ctx).Model(&models.Task{}).Where("delete_flag = ?", includeDeleted)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, errors.WithStack(err)
	}

	var tasks []models.Task
	err := tx.Preload("Project").
		Order("updated_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return tasks, total, nil
}

// ListAssigned returns the caller's active tasks. The caller must resolve the
// session to a user first; a vanished user is reported as ErrNotFound.
func (ts *TaskService) ListAssigned(ctx context.Context, userEmail string, page, limit int) ([]models.Task, int64, error) {
	var user models.User
	if err := ts.db.WithContext(ctx).Where("email = ?", userEmail).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, errors.WithStack(err)
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	tx := ts.db.WithContext(ctx).Model(&models.Task{}).
		Where("assign_to = ? AND delete_flag = ?", user.Email, false)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, errors.WithStack(err)
	}

	var tasks []models.Task
	err := tx.Order("updated_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return tasks, total, nil
}

func (ts *TaskService) Get(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	if err := ts.db.WithContext(ctx).Preload("Project").First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.WithStack(err)
	}
	return &task, nil
}

type PatchTaskInput struct {
	// Metadata, only writable while the task is unassigned.
	TaskType       *models.TaskType
	ProjectID      *uint
	AssignTo       *string
	TaskLabel      *string
	Priority       *models.TaskPriority
	SourceLang     *string
	TargetLang     *string
	Description    *string
	Domain         *string
	ExpectedFinish *time.Time

	// Lifecycle fields, writable at any point.
	EditedContent *string
	CurrentStatus *models.TaskStatus
}

func (in *PatchTaskInput) touchesMetadata() bool {
	return in.TaskType != nil || in.ProjectID != nil || in.AssignTo != nil ||
		in.TaskLabel != nil || in.Priority != nil || in.SourceLang != nil ||
		in.TargetLang != nil || in.Description != nil || in.Domain != nil ||
		in.ExpectedFinish != nil
}

// Patch applies a partial update. Status changes must follow the transition
// graph; any status or content change refreshes statusUpdatedAt and updatedAt.
func (ts *TaskService) Patch(ctx context.Context, id uint, in PatchTaskInput) (*models.Task, error) {
	var task models.Task
	if err := ts.db.WithContext(ctx).First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.WithStack(err)
	}

	if in.touchesMetadata() && task.AssignTo != "" {
		return nil, fmt.Errorf("%w: task is already assigned, only status and content may change", ErrConflict)
	}

	updates := map[string]interface{}{}

	if in.TaskType != nil {
		if !in.TaskType.Valid() {
			return nil, fmt.Errorf("%w: unknown task type %q", ErrValidation, *in.TaskType)
		}
		updates["task_type"] = *in.TaskType
	}
	if in.ProjectID != nil {
		updates["project_id"] = *in.ProjectID
	}
	if in.AssignTo != nil {
		updates["assign_to"] = *in.AssignTo
	}
	if in.TaskLabel != nil {
		updates["task_label"] = *in.TaskLabel
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, *in.Priority)
		}
		updates["priority"] = *in.Priority
	}
	if in.SourceLang != nil {
		updates["source_lang"] = *in.SourceLang
	}
	if in.TargetLang != nil {
		updates["target_lang"] = *in.TargetLang
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Domain != nil {
		updates["domain"] = *in.Domain
	}
	if in.ExpectedFinish != nil {
		updates["expected_finish_date"] = *in.ExpectedFinish
	}

	lifecycleChanged := false

	if in.EditedContent != nil {
		updates["edited_content"] = *in.EditedContent
		lifecycleChanged = true
	}

	if in.CurrentStatus != nil {
		next := in.CurrentStatus.Normalize()
		if !next.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *in.CurrentStatus)
		}
		current := task.CurrentStatus.Normalize()
		if !transitionAllowed(current, next) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
		}
		updates["current_status"] = next
		lifecycleChanged = true
	}

	if len(updates) == 0 {
		return &task, nil
	}

	now := time.Now()
	if lifecycleChanged {
		updates["status_updated_at"] = now
	}
	updates["updated_at"] = now

	if err := ts.db.WithContext(ctx).Model(&task).Updates(updates).Error; err != nil {
		return nil, errors.Wrap(err, "failed to update task")
	}

	if err := ts.db.WithContext(ctx).Preload("Project").First(&task, id).Error; err != nil {
		return nil, errors.WithStack(err)
	}

	return &task, nil
}

// SoftDelete marks a task deleted. Deleting an already-deleted task is a
// no-op success.
func (ts *TaskService) SoftDelete(ctx context.Context, id uint) error {
	var task models.Task
	if err := ts.db.WithContext(ctx).First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return errors.WithStack(err)
	}

	if task.DeleteFlag {
		return nil
	}

	if err := ts.db.WithContext(ctx).Model(&task).Update("delete_flag", true).Error; err != nil {
		return errors.Wrap(err, "failed to soft delete task")
	}

	ts.metrics.IncrementCounter("tasks.soft_deleted", nil)
	ts.logger.Info("Task soft deleted", zap.Uint("id", id), zap.String("task_id", task.TaskID))
	return nil
}

// Restore clears the delete flag and refreshes updatedAt. The status is not
// rolled back.
func (ts *TaskService) Restore(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	if err := ts.db.WithContext(ctx).First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.WithStack(err)
	}

	updates := map[string]interface{}{
		"delete_flag": false,
		"updated_at":  time.Now(),
	}
	if err := ts.db.WithContext(ctx).Model(&task).Updates(updates).Error; err != nil {
		return nil, errors.Wrap(err, "failed to restore task")
	}

	ts.metrics.IncrementCounter("tasks.restored", nil)
	ts.logger.Info("Task restored", zap.Uint("id", id), zap.String("task_id", task.TaskID))

	if err := ts.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return &task, nil
}

// PermanentDelete hard-removes the row. Irreversible.
func (ts *TaskService) PermanentDelete(ctx context.Context, id uint) error {
	res := ts.db.WithContext(ctx).Delete(&models.Task{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to delete task")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	ts.metrics.IncrementCounter("tasks.permanently_deleted", nil)
	ts.logger.Info("Task permanently deleted", zap.Uint("id", id))
	return nil
}
