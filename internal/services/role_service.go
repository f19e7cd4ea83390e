package services

import (
	"context"

	"roboclub/clubhouse/internal/apperr"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/db/repositories"
	"roboclub/clubhouse/internal/logging"
	models "roboclub/clubhouse/internal/models/gorm"
)

// RoleService is the admin surface over role assignments. All writes go
// through RoleRepository, which keeps at least one admin in place.
type RoleService struct {
	roles *repositories.RoleRepository
}

func NewRoleService(roles *repositories.RoleRepository) *RoleService {
	return &RoleService{roles: roles}
}

// List returns assignments for userID, or every assignment when userID is
// empty.
func (s *RoleService) List(ctx context.Context, userID string) ([]models.UserRole, error) {
	return s.roles.ListAssignments(ctx, userID)
}

func (s *RoleService) Assign(ctx context.Context, userID, role string) error {
	r, err := parseRole("RoleService.Assign", role)
	if err != nil {
		return err
	}
	if err := s.roles.Assign(ctx, userID, r); err != nil {
		return err
	}
	logging.Info("Role assigned", "user_id", userID, "role", r)
	return nil
}

func (s *RoleService) Change(ctx context.Context, assignmentID, role string) error {
	r, err := parseRole("RoleService.Change", role)
	if err != nil {
		return err
	}
	if err := s.roles.ChangeRole(ctx, assignmentID, r); err != nil {
		return err
	}
	logging.Info("Role changed", "assignment_id", assignmentID, "role", r)
	return nil
}

func (s *RoleService) Delete(ctx context.Context, assignmentID string) error {
	if err := s.roles.Delete(ctx, assignmentID); err != nil {
		return err
	}
	logging.Info("Role removed", "assignment_id", assignmentID)
	return nil
}

func parseRole(op, role string) (constants.Role, error) {
	r, err := constants.ParseRole(role)
	if err != nil {
		return "", apperr.New(apperr.KindValidation, op, err.Error())
	}
	return r, nil
}
