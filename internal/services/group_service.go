package services

import (
	"context"
	"strings"

	"roboclub/clubhouse/internal/apperr"
	"roboclub/clubhouse/internal/db"
	"roboclub/clubhouse/internal/db/repositories"
	models "roboclub/clubhouse/internal/models/gorm"
)

type GroupService struct {
	tx     db.TransactionManager
	groups *repositories.GroupRepository
	roles  *repositories.RoleRepository
}

func NewGroupService(tx db.TransactionManager, groups *repositories.GroupRepository, roles *repositories.RoleRepository) *GroupService {
	return &GroupService{tx: tx, groups: groups, roles: roles}
}

func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	return s.groups.List(ctx)
}

func (s *GroupService) ListForUser(ctx context.Context, userID string) ([]models.Group, error) {
	return s.groups.ListForUser(ctx, userID)
}

func (s *GroupService) Create(ctx context.Context, name string, description *string) (*models.Group, error) {
	g := &models.Group{Name: strings.TrimSpace(name), Description: description}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *GroupService) Delete(ctx context.Context, id string) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.groups.Delete(ctx, id)
	})
}

// AddMember only accepts approved users, that is users holding a role.
func (s *GroupService) AddMember(ctx context.Context, groupID, userID string) error {
	const op = "GroupService.AddMember"

	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return err
	}
	held, err := s.roles.CountForUser(ctx, userID)
	if err != nil {
		return err
	}
	if held == 0 {
		return apperr.New(apperr.KindValidation, op, "only approved members can join a group")
	}
	return s.groups.AddMember(ctx, groupID, userID)
}

func (s *GroupService) RemoveMember(ctx context.Context, groupID, userID string) error {
	return s.groups.RemoveMember(ctx, groupID, userID)
}
