package services

import (
	"context"
	"strings"

	"roboclub/clubhouse/internal/apperr"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/db"
	"roboclub/clubhouse/internal/db/repositories"
	"roboclub/clubhouse/internal/logging"
	"roboclub/clubhouse/internal/metrics"
	models "roboclub/clubhouse/internal/models/gorm"
)

// RobotListing is a robot with its current occupancy.
type RobotListing struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Slots       int     `json:"slots"`
	Taken       int64   `json:"taken"`
	Remaining   int64   `json:"remaining"`
	SignedUp    bool    `json:"signed_up"`
}

type CompetitionService struct {
	tx      db.TransactionManager
	repo    *repositories.CompetitionRepository
	metrics *metrics.MetricsRegistry
}

func NewCompetitionService(tx db.TransactionManager, repo *repositories.CompetitionRepository, m *metrics.MetricsRegistry) *CompetitionService {
	return &CompetitionService{tx: tx, repo: repo, metrics: m}
}

// List returns every robot with remaining slots. userID marks the robots
// the caller already signed up for and may be empty.
func (s *CompetitionService) List(ctx context.Context, userID string) ([]RobotListing, error) {
	robots, err := s.repo.ListRobots(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.SignupCounts(ctx)
	if err != nil {
		return nil, err
	}

	mine := map[string]bool{}
	if userID != "" {
		signups, err := s.repo.ListSignupsForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, su := range signups {
			mine[su.RobotID] = true
		}
	}

	out := make([]RobotListing, 0, len(robots))
	for _, r := range robots {
		taken := counts[r.ID]
		remaining := int64(r.Slots) - taken
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, RobotListing{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Slots:       r.Slots,
			Taken:       taken,
			Remaining:   remaining,
			SignedUp:    mine[r.ID],
		})
	}
	return out, nil
}

// Signup adds userID to the robot's team. A full team or a repeated
// signup is refused and the signup count does not change.
func (s *CompetitionService) Signup(ctx context.Context, robotID, userID string) (err error) {
	const op = "CompetitionService.Signup"
	defer func() {
		if s.metrics != nil {
			s.metrics.CompetitionSignupsTotal.WithLabelValues(signupOutcome(err)).Inc()
		}
	}()

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockRobot(ctx, robotID); err != nil {
			return err
		}
		robot, err := s.repo.GetRobot(ctx, robotID)
		if err != nil {
			return err
		}

		already, err := s.repo.HasSignup(ctx, robotID, userID)
		if err != nil {
			return err
		}
		if already {
			return apperr.New(apperr.KindConflict, op, constants.MsgAlreadySignedUp)
		}

		taken, err := s.repo.CountSignups(ctx, robotID)
		if err != nil {
			return err
		}
		if taken >= int64(robot.Slots) {
			return apperr.New(apperr.KindTeamFull, op, constants.MsgTeamFull)
		}

		if err := s.repo.CreateSignup(ctx, &models.CompetitionSignup{RobotID: robotID, UserID: userID}); err != nil {
			return err
		}
		logging.Info("Competition signup", "robot_id", robotID, "user_id", userID)
		return nil
	})
}

func (s *CompetitionService) Withdraw(ctx context.Context, robotID, userID string) error {
	return s.repo.DeleteSignup(ctx, robotID, userID)
}

func (s *CompetitionService) CreateRobot(ctx context.Context, name string, description *string, slots int) (*models.CompetitionRobot, error) {
	if slots < 1 {
		return nil, apperr.New(apperr.KindValidation, "CompetitionService.CreateRobot", "slots must be at least 1")
	}
	robot := &models.CompetitionRobot{Name: strings.TrimSpace(name), Description: description, Slots: slots}
	if err := s.repo.CreateRobot(ctx, robot); err != nil {
		return nil, err
	}
	return robot, nil
}

func (s *CompetitionService) DeleteRobot(ctx context.Context, id string) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.repo.DeleteRobot(ctx, id)
	})
}

func signupOutcome(err error) string {
	switch apperr.KindOf(err) {
	case "":
		return "ok"
	case apperr.KindTeamFull:
		return "team_full"
	case apperr.KindConflict:
		return "duplicate"
	}
	return "error"
}
