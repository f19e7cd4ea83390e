package repositories

import (
	"context"

	"roboclub/clubhouse/internal/db"
	models "roboclub/clubhouse/internal/models/gorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemberRecordsRepository manages the per-member dashboard rows: tasks,
// certificates and weekly presence.
type MemberRecordsRepository struct {
	db *gorm.DB
}

func NewMemberRecordsRepository(gdb *gorm.DB) *MemberRecordsRepository {
	return &MemberRecordsRepository{db: gdb}
}

/* ---------- tasks ---------- */

func (r *MemberRecordsRepository) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	var tasks []models.Task
	err := db.Conn(ctx, r.db).Where("user_id = ?", userID).Order("created_at ASC").Find(&tasks).Error
	if err != nil {
		return nil, storeErr("MemberRecordsRepository.ListTasks", "failed to list tasks", err)
	}
	return tasks, nil
}

func (r *MemberRecordsRepository) CreateTask(ctx context.Context, task *models.Task) error {
	err := db.Conn(ctx, r.db).Create(task).Error
	return storeErr("MemberRecordsRepository.CreateTask", "failed to create task", err)
}

// SetTaskCompleted toggles a task. A non-empty ownerID restricts the update
// to that user's tasks.
func (r *MemberRecordsRepository) SetTaskCompleted(ctx context.Context, id, ownerID string, completed bool) error {
	q := db.Conn(ctx, r.db).Model(&models.Task{}).Where("id = ?", id)
	if ownerID != "" {
		q = q.Where("user_id = ?", ownerID)
	}
	res := q.Update("completed", completed)
	if res.Error != nil {
		return storeErr("MemberRecordsRepository.SetTaskCompleted", "failed to update task", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("MemberRecordsRepository.SetTaskCompleted", "task")
	}
	return nil
}

func (r *MemberRecordsRepository) DeleteTask(ctx context.Context, id string) error {
	err := db.Conn(ctx, r.db).Where("id = ?", id).Delete(&models.Task{}).Error
	return storeErr("MemberRecordsRepository.DeleteTask", "failed to delete task", err)
}

/* ---------- certificates ---------- */

func (r *MemberRecordsRepository) ListCertificates(ctx context.Context, userID string) ([]models.Certificate, error) {
	var certs []models.Certificate
	err := db.Conn(ctx, r.db).Where("user_id = ?", userID).Order("issued_at DESC").Find(&certs).Error
	if err != nil {
		return nil, storeErr("MemberRecordsRepository.ListCertificates", "failed to list certificates", err)
	}
	return certs, nil
}

func (r *MemberRecordsRepository) CreateCertificate(ctx context.Context, cert *models.Certificate) error {
	err := db.Conn(ctx, r.db).Create(cert).Error
	return storeErr("MemberRecordsRepository.CreateCertificate", "failed to create certificate", err)
}

func (r *MemberRecordsRepository) DeleteCertificate(ctx context.Context, id string) error {
	err := db.Conn(ctx, r.db).Where("id = ?", id).Delete(&models.Certificate{}).Error
	return storeErr("MemberRecordsRepository.DeleteCertificate", "failed to delete certificate", err)
}

/* ---------- presence ---------- */

func (r *MemberRecordsRepository) ListPresence(ctx context.Context, userID string) ([]models.Presence, error) {
	var rows []models.Presence
	err := db.Conn(ctx, r.db).Where("user_id = ?", userID).Order("week_date DESC").Find(&rows).Error
	if err != nil {
		return nil, storeErr("MemberRecordsRepository.ListPresence", "failed to list presence", err)
	}
	return rows, nil
}

// UpsertPresence records attendance keyed by (user_id, week_date).
func (r *MemberRecordsRepository) UpsertPresence(ctx context.Context, row *models.Presence) error {
	err := db.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "week_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"present", "updated_at"}),
		}).
		Create(row).Error
	return storeErr("MemberRecordsRepository.UpsertPresence", "failed to save presence", err)
}
