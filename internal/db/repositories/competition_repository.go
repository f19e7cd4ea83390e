package repositories

import (
	"context"

	"roboclub/clubhouse/internal/db"
	models "roboclub/clubhouse/internal/models/gorm"

	"gorm.io/gorm"
)

// CompetitionRepository manages robots and their signups
type CompetitionRepository struct {
	db *gorm.DB
}

func NewCompetitionRepository(gdb *gorm.DB) *CompetitionRepository {
	return &CompetitionRepository{db: gdb}
}

func (r *CompetitionRepository) ListRobots(ctx context.Context) ([]models.CompetitionRobot, error) {
	var robots []models.CompetitionRobot
	err := db.Conn(ctx, r.db).Order("name ASC").Find(&robots).Error
	if err != nil {
		return nil, storeErr("CompetitionRepository.ListRobots", "failed to list robots", err)
	}
	return robots, nil
}

func (r *CompetitionRepository) GetRobot(ctx context.Context, id string) (*models.CompetitionRobot, error) {
	var robot models.CompetitionRobot
	err := db.Conn(ctx, r.db).Where("id = ?", id).First(&robot).Error
	if err != nil {
		return nil, storeErr("CompetitionRepository.GetRobot", "failed to fetch robot", err)
	}
	return &robot, nil
}

func (r *CompetitionRepository) CreateRobot(ctx context.Context, robot *models.CompetitionRobot) error {
	err := db.Conn(ctx, r.db).Create(robot).Error
	return storeErr("CompetitionRepository.CreateRobot", "failed to create robot", err)
}

// DeleteRobot removes the robot and its signups.
func (r *CompetitionRepository) DeleteRobot(ctx context.Context, id string) error {
	conn := db.Conn(ctx, r.db)
	if err := conn.Where("robot_id = ?", id).Delete(&models.CompetitionSignup{}).Error; err != nil {
		return storeErr("CompetitionRepository.DeleteRobot", "failed to delete signups", err)
	}
	res := conn.Where("id = ?", id).Delete(&models.CompetitionRobot{})
	if res.Error != nil {
		return storeErr("CompetitionRepository.DeleteRobot", "failed to delete robot", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("CompetitionRepository.DeleteRobot", "robot")
	}
	return nil
}

func (r *CompetitionRepository) CountSignups(ctx context.Context, robotID string) (int64, error) {
	var n int64
	err := db.Conn(ctx, r.db).Model(&models.CompetitionSignup{}).Where("robot_id = ?", robotID).Count(&n).Error
	if err != nil {
		return 0, storeErr("CompetitionRepository.CountSignups", "failed to count signups", err)
	}
	return n, nil
}

// SignupCounts maps robot id to its signup count.
func (r *CompetitionRepository) SignupCounts(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		RobotID string
		Total   int64
	}
	err := db.Conn(ctx, r.db).Model(&models.CompetitionSignup{}).
		Select("robot_id, COUNT(*) AS total").
		Group("robot_id").
		Scan(&rows).Error
	if err != nil {
		return nil, storeErr("CompetitionRepository.SignupCounts", "failed to count signups", err)
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.RobotID] = row.Total
	}
	return out, nil
}

func (r *CompetitionRepository) HasSignup(ctx context.Context, robotID, userID string) (bool, error) {
	var n int64
	err := db.Conn(ctx, r.db).Model(&models.CompetitionSignup{}).
		Where("robot_id = ? AND user_id = ?", robotID, userID).
		Count(&n).Error
	if err != nil {
		return false, storeErr("CompetitionRepository.HasSignup", "failed to check signup", err)
	}
	return n > 0, nil
}

func (r *CompetitionRepository) CreateSignup(ctx context.Context, signup *models.CompetitionSignup) error {
	err := db.Conn(ctx, r.db).Create(signup).Error
	return storeErr("CompetitionRepository.CreateSignup", "failed to create signup", err)
}

func (r *CompetitionRepository) DeleteSignup(ctx context.Context, robotID, userID string) error {
	res := db.Conn(ctx, r.db).
		Where("robot_id = ? AND user_id = ?", robotID, userID).
		Delete(&models.CompetitionSignup{})
	if res.Error != nil {
		return storeErr("CompetitionRepository.DeleteSignup", "failed to delete signup", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("CompetitionRepository.DeleteSignup", "signup")
	}
	return nil
}

func (r *CompetitionRepository) ListSignupsForUser(ctx context.Context, userID string) ([]models.CompetitionSignup, error) {
	var rows []models.CompetitionSignup
	err := db.Conn(ctx, r.db).Where("user_id = ?", userID).Find(&rows).Error
	if err != nil {
		return nil, storeErr("CompetitionRepository.ListSignupsForUser", "failed to list signups", err)
	}
	return rows, nil
}

// LockRobot takes a row lock on the robot on Postgres so concurrent signups
// against the same robot serialize inside their transactions.
func (r *CompetitionRepository) LockRobot(ctx context.Context, robotID string) error {
	conn := db.Conn(ctx, r.db)
	if conn.Dialector.Name() != "postgres" {
		return nil
	}
	var robot models.CompetitionRobot
	err := conn.Clauses(lockForUpdate).Where("id = ?", robotID).First(&robot).Error
	return storeErr("CompetitionRepository.LockRobot", "failed to lock robot", err)
}
