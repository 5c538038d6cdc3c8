// Package authz is the single decision point for role-based access. Handlers
// and middleware consult CanAccess; UI-level hiding is never the enforcement
// point.
package authz

import "github.com/suryatejathodupunuri/LangCentrix/internal/db/models"

type Resource string

const (
	TasksRead     Resource = "tasks.read"
	TasksWrite    Resource = "tasks.write"
	TasksDeleted  Resource = "tasks.deleted"
	TasksAssigned Resource = "tasks.assigned"
	TasksAnnotate Resource = "tasks.annotate"
	ClientsManage Resource = "clients.manage"
	ProjectsRead  Resource = "projects.read"
	ProjectsWrite Resource = "projects.write"
	UsersManage   Resource = "users.manage"
	SignupsManage Resource = "signups.manage"
)

var policy = map[models.UserRole]map[Resource]bool{
	models.RoleAdmin: {
		TasksRead:     true,
		TasksWrite:    true,
		TasksDeleted:  true,
		TasksAssigned: true,
		TasksAnnotate: true,
		ClientsManage: true,
		ProjectsRead:  true,
		ProjectsWrite: true,
		UsersManage:   true,
		SignupsManage: true,
	},
	models.RoleManager: {
		TasksRead:     true,
		TasksWrite:    true,
		TasksDeleted:  true,
		ClientsManage: true,
		ProjectsRead:  true,
		ProjectsWrite: true,
	},
	models.RoleEditor: {
		TasksAssigned: true,
		TasksAnnotate: true,
	},
	models.RoleReviewer: {
		TasksRead: true,
	},
}

func CanAccess(role models.UserRole, resource Resource) bool {
	grants, ok := policy[role]
	if !ok {
		return false
	}
	return grants[resource]
}

// Resources returns the allowed resource set for a role, for navigation
// rendering by the client.
func Resources(role models.UserRole) []Resource {
	grants := policy[role]
	resources := make([]Resource, 0, len(grants))
	for r, allowed := range grants {
		if allowed {
			resources = append(resources, r)
		}
	}
	return resources
}
