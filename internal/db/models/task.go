package models

import "time"

type TaskStatus string

const (
	StatusAssigned     TaskStatus = "Assigned"
	StatusUnderEditing TaskStatus = "Under editing"
	StatusFinished     TaskStatus = "Finished"

	// Deprecated labels still accepted on input and normalized on write.
	StatusCreated TaskStatus = "Created"
	StatusEditing TaskStatus = "Editing"
)

// Normalize maps the deprecated status labels onto the canonical vocabulary.
func (s TaskStatus) Normalize() TaskStatus {
	switch s {
	case StatusCreated:
		return StatusAssigned
	case StatusEditing:
		return StatusUnderEditing
	}
	return s
}

func (s TaskStatus) Valid() bool {
	switch s.Normalize() {
	case StatusAssigned, StatusUnderEditing, StatusFinished:
		return true
	}
	return false
}

type TaskType string

const (
	TypeTranslation TaskType = "Translation"
	TypeNER         TaskType = "NER"
	TypeHeadline    TaskType = "Headline"
)

func (t TaskType) Valid() bool {
	switch t {
	case TypeTranslation, TypeNER, TypeHeadline:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityHigh   TaskPriority = "High"
	PriorityMedium TaskPriority = "Medium"
	PriorityLow    TaskPriority = "Low"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Task is the unit of assignable translation/annotation work. Uploaded file
// bytes are stored inline on the row, not in external object storage.
type Task struct {
	ID                uint         `gorm:"primaryKey" json:"id"`
	TaskID            string       `gorm:"column:task_id;unique;not null" json:"taskId"`
	TaskType          TaskType     `gorm:"not null" json:"taskType"`
	ProjectID         *uint        `gorm:"index" json:"projectId"`
	Project           *Project     `json:"project,omitempty"`
	AssignTo          string       `gorm:"index" json:"assignTo"`
	TaskLabel         string       `json:"taskLabel"`
	Priority          TaskPriority `json:"priority"`
	SourceLang        string       `json:"sourceLang"`
	TargetLang        string       `json:"targetLang"`
	Description       string       `gorm:"not null" json:"description"`
	Domain            string       `json:"domain"`
	SourceFileName    string       `json:"sourceFileName"`
	SourceFileContent []byte       `gorm:"type:bytea" json:"-"`
	SecondFileName    string       `json:"secondFileName"`
	SecondFileContent []byte       `gorm:"type:bytea" json:"-"`
	EditedContent     string       `json:"editedContent"`
	CurrentStatus     TaskStatus   `gorm:"not null;default:'Assigned'" json:"currentStatus"`
	CreatedBy         string       `json:"createdBy"`
	CreatedByRole     string       `json:"createdByRole"`
	ExpectedFinish    *time.Time   `gorm:"column:expected_finish_date" json:"expectedFinishDate"`
	DeleteFlag        bool         `gorm:"column:delete_flag;not null;default:false;index" json:"Delete_Flag"`
	StatusUpdatedAt   *time.Time   `json:"statusUpdatedAt"`
	CreatedAt         time.Time    `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time    `gorm:"autoUpdateTime;index" json:"updatedAt"`
}
