package models

import "time"

type Client struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"not null" json:"name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	Address   string          `json:"address"`
	Projects  []ClientProject `json:"projects,omitempty"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

type Project struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	Description string     `json:"description"`
	ManagerName string     `json:"managerName"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Tasks       []Task     `json:"tasks,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

// Duration renders the project window for display; it is derived, never stored.
func (p *Project) Duration() string {
	if p.StartDate == nil || p.EndDate == nil {
		return ""
	}
	return p.StartDate.Format("2006-01-02") + " - " + p.EndDate.Format("2006-01-02")
}

// ClientProject is the explicit join row between clients and projects.
type ClientProject struct {
	ClientID  uint    `gorm:"primaryKey" json:"clientId"`
	ProjectID uint    `gorm:"primaryKey" json:"projectId"`
	Project   Project `json:"project"`
}
