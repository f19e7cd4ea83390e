package services

import (
	"context"
	"strings"
	"time"

	"roboclub/clubhouse/internal/apperr"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/db"
	"roboclub/clubhouse/internal/db/repositories"
	"roboclub/clubhouse/internal/identity"
	"roboclub/clubhouse/internal/logging"
	"roboclub/clubhouse/internal/models/dtos/requests"
	models "roboclub/clubhouse/internal/models/gorm"
	"roboclub/clubhouse/internal/roles"

	"golang.org/x/sync/errgroup"
)

// MemberDashboard is everything the member page shows for one user.
type MemberDashboard struct {
	Profile      *models.Profile            `json:"profile"`
	Roles        []constants.Role           `json:"roles"`
	PrimaryRole  constants.Role             `json:"primary_role"`
	Tasks        []models.Task              `json:"tasks"`
	Certificates []models.Certificate       `json:"certificates"`
	Presence     []models.Presence          `json:"presence"`
	Groups       []models.Group             `json:"groups"`
	Signups      []models.CompetitionSignup `json:"signups"`
}

// MemberSummary is one row of the admin member list.
type MemberSummary struct {
	Profile     models.Profile   `json:"profile"`
	Roles       []constants.Role `json:"roles"`
	PrimaryRole constants.Role   `json:"primary_role"`
}

type MemberService struct {
	tx          db.TransactionManager
	provider    identity.Provider
	profiles    *repositories.ProfileRepository
	roles       *repositories.RoleRepository
	records     *repositories.MemberRecordsRepository
	groups      *repositories.GroupRepository
	competition *repositories.CompetitionRepository
}

func NewMemberService(
	tx db.TransactionManager,
	provider identity.Provider,
	profiles *repositories.ProfileRepository,
	roleRepo *repositories.RoleRepository,
	records *repositories.MemberRecordsRepository,
	groups *repositories.GroupRepository,
	competition *repositories.CompetitionRepository,
) *MemberService {
	return &MemberService{
		tx:          tx,
		provider:    provider,
		profiles:    profiles,
		roles:       roleRepo,
		records:     records,
		groups:      groups,
		competition: competition,
	}
}

// Dashboard loads the member page in parallel. Internal application notes
// are stripped from the profile.
func (s *MemberService) Dashboard(ctx context.Context, userID string) (*MemberDashboard, error) {
	out := &MemberDashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.profiles.GetByID(gctx, userID)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return nil
			}
			return err
		}
		p.ApplicationNotes = nil
		out.Profile = p
		return nil
	})
	g.Go(func() (err error) {
		out.Roles, err = s.roles.ListForUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.Tasks, err = s.records.ListTasks(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.Certificates, err = s.records.ListCertificates(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.Presence, err = s.records.ListPresence(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.Groups, err = s.groups.ListForUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.Signups, err = s.competition.ListSignupsForUser(gctx, userID)
		return err
	})

	if err := g.Wait(); err != nil {
		logging.Error("Failed to load member dashboard", "user_id", userID, "error", err)
		return nil, err
	}
	out.PrimaryRole = roles.PrimaryRole(out.Roles)
	return out, nil
}

// UpdateProfile writes the fields the member supplied. Application and
// status columns are not editable here.
func (s *MemberService) UpdateProfile(ctx context.Context, userID string, req requests.UpdateProfileRequest) (*models.Profile, error) {
	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Major != nil {
		fields["major"] = *req.Major
	}
	if req.Bio != nil {
		fields["bio"] = *req.Bio
	}
	if req.ImageURL != nil {
		fields["image_url"] = *req.ImageURL
	}
	if req.GithubURL != nil {
		fields["github_url"] = *req.GithubURL
	}
	if req.LinkedinURL != nil {
		fields["linkedin_url"] = *req.LinkedinURL
	}
	if len(fields) == 0 {
		return nil, apperr.New(apperr.KindValidation, "MemberService.UpdateProfile", "nothing to update")
	}

	if err := s.profiles.Update(ctx, userID, fields); err != nil {
		return nil, err
	}
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.ApplicationNotes = nil
	return p, nil
}

// ToggleTask sets completion on a task the member owns.
func (s *MemberService) ToggleTask(ctx context.Context, userID, taskID string, completed bool) error {
	return s.records.SetTaskCompleted(ctx, taskID, userID, completed)
}

func (s *MemberService) CreateTask(ctx context.Context, userID, text string) (*models.Task, error) {
	task := &models.Task{UserID: userID, Text: strings.TrimSpace(text)}
	if err := s.records.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *MemberService) DeleteTask(ctx context.Context, taskID string) error {
	return s.records.DeleteTask(ctx, taskID)
}

func (s *MemberService) CreateCertificate(ctx context.Context, userID, name string, issuedAt *time.Time) (*models.Certificate, error) {
	issued := time.Now().UTC()
	if issuedAt != nil {
		issued = issuedAt.UTC()
	}
	cert := &models.Certificate{UserID: userID, Name: strings.TrimSpace(name), IssuedAt: issued}
	if err := s.records.CreateCertificate(ctx, cert); err != nil {
		return nil, err
	}
	return cert, nil
}

func (s *MemberService) DeleteCertificate(ctx context.Context, id string) error {
	return s.records.DeleteCertificate(ctx, id)
}

// SetPresence records attendance for the week. weekDate is YYYY-MM-DD.
func (s *MemberService) SetPresence(ctx context.Context, userID, weekDate string, present bool) (*models.Presence, error) {
	if _, err := time.Parse("2006-01-02", weekDate); err != nil {
		return nil, apperr.New(apperr.KindValidation, "MemberService.SetPresence", "week_date must be YYYY-MM-DD")
	}
	row := &models.Presence{UserID: userID, WeekDate: weekDate, Present: present}
	if err := s.records.UpsertPresence(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// CreateMember registers an account with an accepted profile and the
// member role. Every write shares one transaction, so a failure leaves no
// partial member behind.
func (s *MemberService) CreateMember(ctx context.Context, req requests.CreateMemberRequest) (*models.Profile, error) {
	if err := requests.Validate(req); err != nil {
		return nil, err
	}

	var profile *models.Profile
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.provider.SignUp(ctx, req.Email, req.Password, identity.Metadata{Name: req.Name, Major: req.Major})
		if err != nil {
			return err
		}

		profile = &models.Profile{
			ID:                user.ID,
			Name:              strings.TrimSpace(req.Name),
			Email:             user.Email,
			Major:             req.Major,
			ApplicationStatus: constants.ApplicationAccepted,
		}
		if err := s.profiles.Create(ctx, profile); err != nil {
			return err
		}
		return s.roles.Assign(ctx, user.ID, constants.RoleMember)
	})
	if err != nil {
		return nil, err
	}

	logging.Info("Member created", "user_id", profile.ID)
	return profile, nil
}

// ListMembers returns every profile holding at least one role, ordered by
// name.
func (s *MemberService) ListMembers(ctx context.Context) ([]MemberSummary, error) {
	var (
		profiles []models.Profile
		byUser   map[string][]constants.Role
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		profiles, err = s.profiles.List(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		byUser, err = s.roles.RolesByUser(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]MemberSummary, 0, len(profiles))
	for _, p := range profiles {
		held := byUser[p.ID]
		if len(held) == 0 {
			continue
		}
		out = append(out, MemberSummary{Profile: p, Roles: held, PrimaryRole: roles.PrimaryRole(held)})
	}
	return out, nil
}
