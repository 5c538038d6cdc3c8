package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/suryatejathodupunuri/LangCentrix/internal/db/models"
	"github.com/suryatejathodupunuri/LangCentrix/internal/utils"
	"github.com/suryatejathodupunuri/LangCentrix/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService covers the user directory and the signup/approval workflow.
type UserService struct {
	db                *gorm.DB
	logger            *zap.Logger
	metrics           *metrics.MetricsCollector
	passwordMinLength int
}

func NewUserService(db *gorm.DB, logger *zap.Logger, metricsCollector *metrics.MetricsCollector, passwordMinLength int) *UserService {
	return &UserService{
		db:                db,
		logger:            logger.With(zap.String("service", "user_service")),
		metrics:           metricsCollector,
		passwordMinLength: passwordMinLength,
	}
}

// Authenticate checks credentials against an active user and records the
// login time. Failures are reported uniformly so callers cannot distinguish a
// missing account from a bad password.
func (us *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := us.db.WithContext(ctx).Where("email = ? AND is_active = ?", email, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, errors.WithStack(err)
	}

	if ok, err := utils.VerifyPassword(user.PasswordHash, password); !ok || err != nil {
		us.logger.Warn("Invalid password", zap.String("email", email))
		return nil, ErrUnauthorized
	}

	now := time.Now()
	if err := us.db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		return nil, errors.Wrap(err, "failed to record login")
	}
	user.LastLogin = &now

	us.metrics.IncrementCounter("users.logins", nil)
	return &user, nil
}

// Signup files a SignupRequest pending admin approval.
func (us *UserService) Signup(ctx context.Context, name, email, password string) (*models.SignupRequest, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email, and password are required", ErrValidation)
	}
	if !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if !utils.IsValidPassword(password, us.passwordMinLength) {
		return nil, fmt.Errorf("%w: password must be at least %d characters with an uppercase letter, a lowercase letter, and a number",
			ErrValidation, us.passwordMinLength)
	}

	var existing models.User
	if err := us.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("%w: an account with this email already exists", ErrConflict)
	}
	var pending models.SignupRequest
	if err := us.db.WithContext(ctx).Where("email = ?", email).First(&pending).Error; err == nil {
		return nil, fmt.Errorf("%w: a signup request for this email is already pending", ErrConflict)
	}

	hash, err := utils.EncryptPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	request := models.SignupRequest{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := us.db.WithContext(ctx).Create(&request).Error; err != nil {
		return nil, errors.Wrap(err, "failed to create signup request")
	}

	us.metrics.IncrementCounter("signups.requested", nil)
	us.logger.Info("Signup request filed", zap.String("email", email))
	return &request, nil
}

func (us *UserService) ListSignupRequests(ctx context.Context) ([]models.SignupRequest, error) {
	var requests []models.SignupRequest
	if err := us.db.WithContext(ctx).Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return requests, nil
}

// ApproveSignup promotes a request to a User and consumes the request. If a
// user with the email already exists the request is left intact for manual
// reconciliation and ErrConflict is returned.
func (us *UserService) ApproveSignup(ctx context.Context, id uint) (*models.User, error) {
	var request models.SignupRequest
	if err := us.db.WithContext(ctx).First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.WithStack(err)
	}

	var existing models.User
	if err := us.db.WithContext(ctx).Where("email = ?", request.Email).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("%w: user already exists", ErrConflict)
	}

	user := models.User{
		Name:         request.Name,
		Email:        request.Email,
		PasswordHash: request.PasswordHash,
		Role:         models.RoleEditor,
		IsActive:     true,
	}

	err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Delete(&models.SignupRequest{}, id).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to approve signup request")
	}

	us.metrics.IncrementCounter("signups.approved", nil)
	us.logger.Info("Signup request approved", zap.String("email", user.Email), zap.Uint("user_id", user.ID))
	return &user, nil
}

// RejectSignup deletes the request with no side effect.
func (us *UserService) RejectSignup(ctx context.Context, id uint) error {
	res := us.db.WithContext(ctx).Delete(&models.SignupRequest{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to reject signup request")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	us.metrics.IncrementCounter("signups.rejected", nil)
	return nil
}

// CreateUser is the direct admin creation path; unlike signup, the role is
// chosen by the caller.
func (us *UserService) CreateUser(ctx context.Context, name, email, password, confirmPassword string, role models.UserRole) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" || email == "" || password == "" || confirmPassword == "" || role == "" {
		return nil, fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if password != confirmPassword {
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	var existing models.User
	if err := us.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("%w: email already exists", ErrConflict)
	}

	hash, err := utils.EncryptPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := us.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, errors.Wrap(err, "failed to create user")
	}

	us.logger.Info("User created", zap.String("email", email), zap.String("role", string(role)))
	return &user, nil
}

func (us *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := us.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return users, nil
}

func (us *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := us.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.WithStack(err)
	}
	return &user, nil
}

// UpdateRole changes a user's role. Admin rows have a fixed role.
func (us *UserService) UpdateRole(ctx context.Context, id uint, role models.UserRole) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	user, err := us.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return nil, fmt.Errorf("%w: admin role is fixed", ErrForbidden)
	}

	if err := us.db.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, errors.Wrap(err, "failed to update role")
	}
	user.Role = role
	return user, nil
}

func (us *UserService) SetActive(ctx context.Context, id uint, active bool) (*models.User, error) {
	user, err := us.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := us.db.WithContext(ctx).Model(user).Update("is_active", active).Error; err != nil {
		return nil, errors.Wrap(err, "failed to update activation flag")
	}
	user.IsActive = active
	return user, nil
}

func (us *UserService) ChangePassword(ctx context.Context, id uint, currentPassword, newPassword, reenterNewPassword string) error {
	if currentPassword == "" || newPassword == "" || reenterNewPassword == "" {
		return fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if newPassword != reenterNewPassword {
		return fmt.Errorf("%w: new passwords do not match", ErrValidation)
	}
	if !utils.IsValidPassword(newPassword, us.passwordMinLength) {
		return fmt.Errorf("%w: password must be at least %d characters with an uppercase letter, a lowercase letter, and a number",
			ErrValidation, us.passwordMinLength)
	}

	user, err := us.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if ok, err := utils.VerifyPassword(user.PasswordHash, currentPassword); !ok || err != nil {
		return fmt.Errorf("%w: current password is incorrect", ErrUnauthorized)
	}

	hash, err := utils.EncryptPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	if err := us.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error; err != nil {
		return errors.Wrap(err, "failed to change password")
	}

	us.logger.Info("Password changed", zap.Uint("user_id", id))
	return nil
}

// DeleteUser hard-deletes the row; only admin action reaches this.
func (us *UserService) DeleteUser(ctx context.Context, id uint) error {
	res := us.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to delete user")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ManagerEmails lists active managers, used to populate project forms.
func (us *UserService) ManagerEmails(ctx context.Context) ([]string, error) {
	return us.emails(ctx, us.db.Where("is_active = ? AND role = ?", true, models.RoleManager))
}

// AssignableEmails lists active non-admin users, used to populate the task
// assignment picker.
func (us *UserService) AssignableEmails(ctx context.Context) ([]string, error) {
	return us.emails(ctx, us.db.Where("is_active = ? AND role <> ?", true, models.RoleAdmin))
}

func (us *UserService) emails(ctx context.Context, tx *gorm.DB) ([]string, error) {
	var emails []string
	if err := tx.WithContext(ctx).Model(&models.User{}).Pluck("email", &emails).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return emails, nil
}
