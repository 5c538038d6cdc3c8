package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suryatejathodupunuri/LangCentrix/internal/db/models"
	"github.com/suryatejathodupunuri/LangCentrix/internal/services"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	registry *services.RegistryService
	logger   *zap.Logger
}

func NewProjectHandler(registry *services.RegistryService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		registry: registry,
		logger:   logger.With(zap.String("handler", "project")),
	}
}

type projectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ManagerName string `json:"managerName"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	ClientIDs   []uint `json:"clientIds"`
}

type projectView struct {
	models.Project
	Duration string `json:"duration"`
}

func projectViews(projects []models.Project) []projectView {
	views := make([]projectView, len(projects))
	for i := range projects {
		views[i] = projectView{Project: projects[i], Duration: projects[i].Duration()}
	}
	return views
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.registry.ListProjects(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projectViews(projects)})
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Project name is required"})
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid startDate"})
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid endDate"})
		return
	}

	project, err := h.registry.CreateProject(c.Request.Context(), services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		ManagerName: req.ManagerName,
		StartDate:   start,
		EndDate:     end,
		ClientIDs:   req.ClientIDs,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, projectView{Project: *project, Duration: project.Duration()})
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	if err := h.registry.DeleteProject(c.Request.Context(), uint(id)); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}
