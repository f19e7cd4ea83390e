package repositories

import (
	"context"

	"roboclub/clubhouse/internal/db"
	models "roboclub/clubhouse/internal/models/gorm"

	"gorm.io/gorm"
)

// GroupRepository manages groups and their memberships
type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(gdb *gorm.DB) *GroupRepository {
	return &GroupRepository{db: gdb}
}

// List returns every group with its members preloaded.
func (r *GroupRepository) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group

	err := db.Conn(ctx, r.db).Preload("Members").Order("name ASC").Find(&groups).Error
	if err != nil {
		return nil, storeErr("GroupRepository.List", "failed to list groups", err)
	}
	return groups, nil
}

func (r *GroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group

	err := db.Conn(ctx, r.db).Preload("Members").Where("id = ?", id).First(&group).Error
	if err != nil {
		return nil, storeErr("GroupRepository.GetByID", "failed to fetch group", err)
	}
	return &group, nil
}

// ListForUser returns the groups userID belongs to.
func (r *GroupRepository) ListForUser(ctx context.Context, userID string) ([]models.Group, error) {
	var groups []models.Group

	err := db.Conn(ctx, r.db).
		Joins("JOIN group_members gm ON gm.group_id = groups.id").
		Where("gm.user_id = ?", userID).
		Order("groups.name ASC").
		Find(&groups).Error
	if err != nil {
		return nil, storeErr("GroupRepository.ListForUser", "failed to list user groups", err)
	}
	return groups, nil
}

func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	err := db.Conn(ctx, r.db).Omit("Members").Create(group).Error
	return storeErr("GroupRepository.Create", "failed to create group", err)
}

// Delete removes the group and its memberships.
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	conn := db.Conn(ctx, r.db)
	if err := conn.Where("group_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
		return storeErr("GroupRepository.Delete", "failed to delete group members", err)
	}

	res := conn.Where("id = ?", id).Delete(&models.Group{})
	if res.Error != nil {
		return storeErr("GroupRepository.Delete", "failed to delete group", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("GroupRepository.Delete", "group")
	}
	return nil
}

// AddMember inserts a membership. A duplicate pair is a conflict.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID string) error {
	member := &models.GroupMember{GroupID: groupID, UserID: userID}
	err := db.Conn(ctx, r.db).Create(member).Error
	return storeErr("GroupRepository.AddMember", "failed to add group member", err)
}

func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	err := db.Conn(ctx, r.db).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{}).Error
	return storeErr("GroupRepository.RemoveMember", "failed to remove group member", err)
}

// DeleteMembershipsForUser removes userID from every group.
func (r *GroupRepository) DeleteMembershipsForUser(ctx context.Context, userID string) error {
	err := db.Conn(ctx, r.db).Where("user_id = ?", userID).Delete(&models.GroupMember{}).Error
	return storeErr("GroupRepository.DeleteMembershipsForUser", "failed to delete group memberships", err)
}

func (r *GroupRepository) CountMembershipsForUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := db.Conn(ctx, r.db).Model(&models.GroupMember{}).Where("user_id = ?", userID).Count(&n).Error
	if err != nil {
		return 0, storeErr("GroupRepository.CountMembershipsForUser", "failed to count group memberships", err)
	}
	return n, nil
}
