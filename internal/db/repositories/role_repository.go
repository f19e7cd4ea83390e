package repositories

import (
	"context"

	"roboclub/clubhouse/internal/apperr"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/db"
	models "roboclub/clubhouse/internal/models/gorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoleRepository is the only writer of user_roles. Every mutation runs in a
// transaction and refuses to take the system from one admin to none.
type RoleRepository struct {
	db *gorm.DB
	tx db.TransactionManager
}

func NewRoleRepository(gdb *gorm.DB, tx db.TransactionManager) *RoleRepository {
	return &RoleRepository{db: gdb, tx: tx}
}

// ListForUser returns the roles a user holds.
func (r *RoleRepository) ListForUser(ctx context.Context, userID string) ([]constants.Role, error) {
	var rows []models.UserRole

	err := db.Conn(ctx, r.db).Where("user_id = ?", userID).Order("created_at ASC").Find(&rows).Error
	if err != nil {
		return nil, storeErr("RoleRepository.ListForUser", "failed to fetch user roles", err)
	}

	out := make([]constants.Role, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Role)
	}
	return out, nil
}

// ListAssignments returns every role row, optionally limited to one user.
func (r *RoleRepository) ListAssignments(ctx context.Context, userID string) ([]models.UserRole, error) {
	var rows []models.UserRole

	q := db.Conn(ctx, r.db)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	err := q.Order("created_at ASC").Find(&rows).Error
	if err != nil {
		return nil, storeErr("RoleRepository.ListAssignments", "failed to list role assignments", err)
	}
	return rows, nil
}

// RolesByUser maps user id to held roles for every user with at least one.
func (r *RoleRepository) RolesByUser(ctx context.Context) (map[string][]constants.Role, error) {
	rows, err := r.ListAssignments(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make(map[string][]constants.Role)
	for _, row := range rows {
		out[row.UserID] = append(out[row.UserID], row.Role)
	}
	return out, nil
}

func (r *RoleRepository) CountForUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := db.Conn(ctx, r.db).Model(&models.UserRole{}).Where("user_id = ?", userID).Count(&n).Error
	if err != nil {
		return 0, storeErr("RoleRepository.CountForUser", "failed to count user roles", err)
	}
	return n, nil
}

func (r *RoleRepository) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := db.Conn(ctx, r.db).Model(&models.UserRole{}).Where("role = ?", constants.RoleAdmin).Count(&n).Error
	if err != nil {
		return 0, storeErr("RoleRepository.CountAdmins", "failed to count admins", err)
	}
	return n, nil
}

// Assign grants role to userID. Granting a role the user already holds is
// a no-op.
func (r *RoleRepository) Assign(ctx context.Context, userID string, role constants.Role) error {
	const op = "RoleRepository.Assign"
	if !role.Valid() {
		return apperr.New(apperr.KindValidation, op, "invalid role "+role.String())
	}

	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		row := &models.UserRole{UserID: userID, Role: role}
		err := db.Conn(ctx, r.db).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "role"}},
				DoNothing: true,
			}).
			Create(row).Error
		return storeErr(op, "failed to assign role", err)
	})
}

// ChangeRole rewrites one assignment to newRole.
func (r *RoleRepository) ChangeRole(ctx context.Context, assignmentID string, newRole constants.Role) error {
	const op = "RoleRepository.ChangeRole"
	if !newRole.Valid() {
		return apperr.New(apperr.KindValidation, op, "invalid role "+newRole.String())
	}

	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		row, err := r.getAssignment(ctx, op, assignmentID)
		if err != nil {
			return err
		}
		if row.Role == newRole {
			return nil
		}
		if row.Role == constants.RoleAdmin {
			if err := r.guardLastAdmin(ctx, op, 1); err != nil {
				return err
			}
		}

		// A user already holding newRole keeps that row and loses this one.
		var held int64
		err = db.Conn(ctx, r.db).Model(&models.UserRole{}).
			Where("user_id = ? AND role = ?", row.UserID, newRole).
			Count(&held).Error
		if err != nil {
			return storeErr(op, "failed to check held roles", err)
		}
		if held > 0 {
			err = db.Conn(ctx, r.db).Where("id = ?", assignmentID).Delete(&models.UserRole{}).Error
			return storeErr(op, "failed to change role", err)
		}

		err = db.Conn(ctx, r.db).Model(&models.UserRole{}).
			Where("id = ?", assignmentID).
			Update("role", newRole).Error
		return storeErr(op, "failed to change role", err)
	})
}

// Delete removes one assignment.
func (r *RoleRepository) Delete(ctx context.Context, assignmentID string) error {
	const op = "RoleRepository.Delete"

	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		row, err := r.getAssignment(ctx, op, assignmentID)
		if err != nil {
			return err
		}
		if row.Role == constants.RoleAdmin {
			if err := r.guardLastAdmin(ctx, op, 1); err != nil {
				return err
			}
		}

		err = db.Conn(ctx, r.db).Where("id = ?", assignmentID).Delete(&models.UserRole{}).Error
		return storeErr(op, "failed to delete role", err)
	})
}

// DeleteAllForUser removes every assignment a user holds.
func (r *RoleRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	const op = "RoleRepository.DeleteAllForUser"

	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		var adminRows int64
		err := db.Conn(ctx, r.db).Model(&models.UserRole{}).
			Where("user_id = ? AND role = ?", userID, constants.RoleAdmin).
			Count(&adminRows).Error
		if err != nil {
			return storeErr(op, "failed to count user admin roles", err)
		}
		if adminRows > 0 {
			if err := r.guardLastAdmin(ctx, op, adminRows); err != nil {
				return err
			}
		}

		err = db.Conn(ctx, r.db).Where("user_id = ?", userID).Delete(&models.UserRole{}).Error
		return storeErr(op, "failed to delete user roles", err)
	})
}

func (r *RoleRepository) getAssignment(ctx context.Context, op, id string) (*models.UserRole, error) {
	var row models.UserRole
	err := db.Conn(ctx, r.db).Where("id = ?", id).First(&row).Error
	if err != nil {
		return nil, storeErr(op, "failed to fetch role assignment", err)
	}
	return &row, nil
}

// guardLastAdmin fails when removing `removing` admin rows would leave
// zero admins. On Postgres the admin rows are locked first so concurrent
// removals serialize.
func (r *RoleRepository) guardLastAdmin(ctx context.Context, op string, removing int64) error {
	conn := db.Conn(ctx, r.db)
	if conn.Dialector.Name() == "postgres" {
		var locked []models.UserRole
		err := conn.Clauses(lockForUpdate).
			Where("role = ?", constants.RoleAdmin).
			Find(&locked).Error
		if err != nil {
			return storeErr(op, "failed to lock admin roles", err)
		}
	}

	admins, err := r.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if admins-removing < 1 {
		return apperr.New(apperr.KindLastAdmin, op, constants.MsgLastAdmin)
	}
	return nil
}
