package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/suryatejathodupunuri/LangCentrix/internal/db/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegistryService manages the client/project registry and the explicit join
// rows between them.
type RegistryService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewRegistryService(db *gorm.DB, logger *zap.Logger) *RegistryService {
	return &RegistryService{
		db:     db,
		logger: logger.With(zap.String("service", "registry_service")),
	}
}

func (rs *RegistryService) ListClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	err := rs.db.WithContext(ctx).Preload("Projects.Project").Find(&clients).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return clients, nil
}

func (rs *RegistryService) CreateClient(ctx context.Context, client models.Client) (*models.Client, error) {
	if client.Name == "" {
		return nil, fmt.Errorf("%w: client name is required", ErrValidation)
	}
	if err := rs.db.WithContext(ctx).Create(&client).Error; err != nil {
		return nil, errors.Wrap(err, "failed to create client")
	}
	rs.logger.Info("Client created", zap.Uint("id", client.ID), zap.String("name", client.Name))
	return &client, nil
}

func (rs *RegistryService) UpdateClient(ctx context.Context, id uint, fields models.Client) (*models.Client, error) {
	var client models.Client
	if err := rs.db.WithContext(ctx).First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.WithStack(err)
	}

	updates := map[string]interface{}{
		"name":    fields.Name,
		"email":   fields.Email,
		"phone":   fields.Phone,
		"address": fields.Address,
	}
	if err := rs.db.WithContext(ctx).Model(&client).Updates(updates).Error; err != nil {
		return nil, errors.Wrap(err, "failed to update client")
	}
	if err := rs.db.WithContext(ctx).First(&client, id).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return &client, nil
}

func (rs *RegistryService) DeleteClient(ctx context.Context, id uint) error {
	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("client_id = ?", id).Delete(&models.ClientProject{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Client{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "failed to delete client")
	}
	return nil
}

type CreateProjectInput struct {
	Name        string
	Description string
	ManagerName string
	StartDate   *time.Time
	EndDate     *time.Time
	ClientIDs   []uint
}

func (rs *RegistryService) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := rs.db.WithContext(ctx).Find(&projects).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return projects, nil
}

func (rs *RegistryService) CreateProject(ctx context.Context, in CreateProjectInput) (*models.Project, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrValidation)
	}

	project := models.Project{
		Name:        in.Name,
		Description: in.Description,
		ManagerName: in.ManagerName,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
	}

	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		for _, clientID := range in.ClientIDs {
			join := models.ClientProject{ClientID: clientID, ProjectID: project.ID}
			if err := tx.Create(&join).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create project")
	}

	rs.logger.Info("Project created", zap.Uint("id", project.ID), zap.String("name", project.Name))
	return &project, nil
}

// DeleteProject removes the join rows first, then the project itself.
func (rs *RegistryService) DeleteProject(ctx context.Context, id uint) error {
	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ClientProject{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Project{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "failed to delete project")
	}
	return nil
}
