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
	"roboclub/clubhouse/internal/metrics"
	models "roboclub/clubhouse/internal/models/gorm"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("services")

// Transition names used for spans, logs and metrics.
const (
	TransitionSubmit   = "submit"
	TransitionAccept   = "accept"
	TransitionReject   = "reject"
	TransitionRemove   = "remove_member"
	TransitionSchedule = "schedule_interview"
)

// ApplicationInput is what an applicant fills in.
type ApplicationInput struct {
	Name   string
	Email  string
	Major  *string
	Reason string
}

// ApplicationService drives a profile through pending, accepted and
// rejected. Role rows decide access; application_status only records
// where the workflow stands.
type ApplicationService struct {
	tx       db.TransactionManager
	profiles *repositories.ProfileRepository
	roles    *repositories.RoleRepository
	groups   *repositories.GroupRepository
	provider identity.Provider
	notifier Notifier
	metrics  *metrics.MetricsRegistry

	// grantOnSubmit grants the member role right after a submission commits.
	grantOnSubmit bool
	now           func() time.Time
}

func NewApplicationService(
	tx db.TransactionManager,
	profiles *repositories.ProfileRepository,
	roles *repositories.RoleRepository,
	groups *repositories.GroupRepository,
	provider identity.Provider,
	notifier Notifier,
	m *metrics.MetricsRegistry,
	grantOnSubmit bool,
) *ApplicationService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &ApplicationService{
		tx:            tx,
		profiles:      profiles,
		roles:         roles,
		groups:        groups,
		provider:      provider,
		notifier:      notifier,
		metrics:       m,
		grantOnSubmit: grantOnSubmit,
		now:           time.Now,
	}
}

// Submit records an application for an existing identity. An accepted
// member cannot resubmit; pending and rejected applications are
// overwritten.
func (s *ApplicationService) Submit(ctx context.Context, userID string, in ApplicationInput) (profile *models.Profile, err error) {
	const op = "ApplicationService.Submit"
	ctx, span := s.start(ctx, TransitionSubmit, userID)
	defer func() { s.finish(span, TransitionSubmit, userID, err) }()

	reason := strings.TrimSpace(in.Reason)
	submittedAt := s.now().UTC()
	profile = &models.Profile{
		ID:                     userID,
		Name:                   strings.TrimSpace(in.Name),
		Email:                  strings.ToLower(strings.TrimSpace(in.Email)),
		Major:                  in.Major,
		ApplicationStatus:      constants.ApplicationPending,
		ApplicationReason:      &reason,
		ApplicationSubmittedAt: &submittedAt,
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.profiles.GetByID(ctx, userID)
		if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
			return err
		}
		if existing != nil && existing.ApplicationStatus == constants.ApplicationAccepted {
			return apperr.New(apperr.KindInvalidTransition, op, constants.MsgApplicationExists)
		}
		return s.profiles.UpsertApplication(ctx, profile)
	})
	if err != nil {
		return nil, err
	}

	if s.grantOnSubmit {
		if gerr := s.roles.Assign(ctx, userID, constants.RoleMember); gerr != nil {
			logging.Warn("Member role grant on submit failed", "user_id", userID, "error", gerr)
		}
	}

	if nerr := s.notifier.ApplicationSubmitted(ctx, profile); nerr != nil {
		logging.Warn("Application notification failed", "user_id", userID, "error", nerr)
	}

	return profile, nil
}

// Apply creates the identity and submits the application in one call.
// The profile is keyed by the new user id. When the submission fails the
// identity is kept and the applicant can resubmit after signing in.
func (s *ApplicationService) Apply(ctx context.Context, email, password string, in ApplicationInput) (*identity.User, *models.Profile, error) {
	user, err := s.provider.SignUp(ctx, email, password, identity.Metadata{Name: in.Name, Major: in.Major})
	if err != nil {
		return nil, nil, err
	}

	in.Email = user.Email
	profile, err := s.Submit(ctx, user.ID, in)
	if err != nil {
		return user, nil, err
	}
	return user, profile, nil
}

// Accept marks the application accepted and grants member when the user
// holds no role yet. Repeating it changes nothing.
func (s *ApplicationService) Accept(ctx context.Context, userID string) (err error) {
	ctx, span := s.start(ctx, TransitionAccept, userID)
	defer func() { s.finish(span, TransitionAccept, userID, err) }()

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.setStatus(ctx, userID, constants.ApplicationAccepted); err != nil {
			return err
		}

		held, err := s.roles.CountForUser(ctx, userID)
		if err != nil {
			return err
		}
		if held > 0 {
			return nil
		}
		return s.roles.Assign(ctx, userID, constants.RoleMember)
	})
}

// Reject marks the application rejected and revokes every role and group
// membership. The profile stays.
func (s *ApplicationService) Reject(ctx context.Context, userID string) (err error) {
	ctx, span := s.start(ctx, TransitionReject, userID)
	defer func() { s.finish(span, TransitionReject, userID, err) }()

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.setStatus(ctx, userID, constants.ApplicationRejected); err != nil {
			return err
		}
		if err := s.roles.DeleteAllForUser(ctx, userID); err != nil {
			return err
		}
		return s.groups.DeleteMembershipsForUser(ctx, userID)
	})
}

// RemoveMember deletes the user's roles, group memberships and profile.
// The identity account is left alone.
func (s *ApplicationService) RemoveMember(ctx context.Context, userID string) (err error) {
	ctx, span := s.start(ctx, TransitionRemove, userID)
	defer func() { s.finish(span, TransitionRemove, userID, err) }()

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.roles.DeleteAllForUser(ctx, userID); err != nil {
			return err
		}
		if err := s.groups.DeleteMembershipsForUser(ctx, userID); err != nil {
			return err
		}
		return s.profiles.Delete(ctx, userID)
	})
}

// ScheduleInterview stores interview details. Status is unchanged.
func (s *ApplicationService) ScheduleInterview(ctx context.Context, userID string, date *time.Time, location, notes *string) (err error) {
	ctx, span := s.start(ctx, TransitionSchedule, userID)
	defer func() { s.finish(span, TransitionSchedule, userID, err) }()

	fields := map[string]interface{}{}
	if date != nil {
		fields["application_interview_date"] = date.UTC()
	}
	if location != nil {
		fields["application_interview_location"] = *location
	}
	if notes != nil {
		fields["application_notes"] = *notes
	}
	if len(fields) == 0 {
		return apperr.New(apperr.KindValidation, "ApplicationService.ScheduleInterview", "nothing to update")
	}
	return s.profiles.Update(ctx, userID, fields)
}

// List returns submitted applications, optionally filtered by status.
func (s *ApplicationService) List(ctx context.Context, status *constants.ApplicationStatus) ([]models.Profile, error) {
	if status != nil && !status.Valid() {
		return nil, apperr.New(apperr.KindValidation, "ApplicationService.List", "invalid status "+status.String())
	}
	return s.profiles.ListApplications(ctx, status)
}

func (s *ApplicationService) setStatus(ctx context.Context, userID string, status constants.ApplicationStatus) error {
	return s.profiles.Update(ctx, userID, map[string]interface{}{"application_status": status})
}

func (s *ApplicationService) start(ctx context.Context, transition, userID string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "Application."+transition)
	span.SetAttributes(attribute.String("user_id", userID), attribute.String("transition", transition))
	return ctx, span
}

func (s *ApplicationService) finish(span trace.Span, transition, userID string, err error) {
	defer span.End()

	if s.metrics != nil {
		s.metrics.ApplicationTransitionsTotal.WithLabelValues(transition, metrics.Outcome(err)).Inc()
	}
	if err != nil {
		span.RecordError(errors.Wrap(err, transition))
		logging.Warn("Application transition failed", "transition", transition, "user_id", userID, "kind", apperr.KindOf(err), "error", err)
		return
	}
	logging.Info("Application transition", "transition", transition, "user_id", userID)
}
