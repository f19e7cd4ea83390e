package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"roboclub/clubhouse/internal/access"
	"roboclub/clubhouse/internal/apperr"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/identity"
	models "roboclub/clubhouse/internal/models/gorm"
	"roboclub/clubhouse/internal/session"
)

func TestApplicationService_SubmitCreatesPendingProfile(t *testing.T) {
	env := newTestEnv(t)
	notifier := &recordingNotifier{}
	svc := env.applications(notifier, false)
	ctx := context.Background()

	profile, err := svc.Submit(ctx, "user-1", ApplicationInput{Name: " Ada ", Email: "ADA@club.test", Reason: "Love robots"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if profile.ApplicationStatus != constants.ApplicationPending {
		t.Errorf("Expected pending, got %s", profile.ApplicationStatus)
	}

	stored, err := env.profiles.GetByID(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Name != "Ada" || stored.Email != "ada@club.test" {
		t.Errorf("Expected trimmed name and lowercased email, got %q %q", stored.Name, stored.Email)
	}
	if stored.ApplicationSubmittedAt == nil || stored.ApplicationReason == nil || *stored.ApplicationReason != "Love robots" {
		t.Errorf("Expected reason and submitted_at to be stored, got %+v", stored)
	}

	held, _ := env.roles.CountForUser(ctx, "user-1")
	if held != 0 {
		t.Errorf("Expected submission to grant no role, got %d", held)
	}
	if len(notifier.profiles) != 1 {
		t.Errorf("Expected one notification, got %d", len(notifier.profiles))
	}
}

func TestApplicationService_SubmitSurvivesNotifierFailure(t *testing.T) {
	env := newTestEnv(t)
	svc := env.applications(&recordingNotifier{err: errors.New("webhook down")}, false)

	if _, err := svc.Submit(context.Background(), "user-1", ApplicationInput{Name: "Ada", Email: "ada@club.test"}); err != nil {
		t.Fatalf("Expected submission to succeed despite the notifier, got %v", err)
	}
}

func TestApplicationService_GrantOnSubmit(t *testing.T) {
	env := newTestEnv(t)
	svc := env.applications(nil, true)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "user-1", ApplicationInput{Name: "Ada", Email: "ada@club.test"}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	roles, _ := env.roles.ListForUser(ctx, "user-1")
	if len(roles) != 1 || roles[0] != constants.RoleMember {
		t.Errorf("Expected member role granted on submit, got %v", roles)
	}
}

func TestApplicationService_AcceptedCannotResubmit(t *testing.T) {
	env := newTestEnv(t)
	svc := env.applications(nil, false)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "user-1", ApplicationInput{Name: "Ada", Email: "ada@club.test"}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := svc.Accept(ctx, "user-1"); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	_, err := svc.Submit(ctx, "user-1", ApplicationInput{Name: "Ada", Email: "ada@club.test"})
	if !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("Expected invalid_transition, got %v", err)
	}
}

func TestApplicationService_RejectedCanResubmit(t *testing.T) {
	env := newTestEnv(t)
	svc := env.applications(nil, false)
	ctx := context.Background()

	svc.Submit(ctx, "user-1", ApplicationInput{Name: "Ada", Email: "ada@club.test"})
	if err := svc.Reject(ctx, "user-1"); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if _, err := svc.Submit(ctx, "user-1", ApplicationInput{Name: "Ada", Email: "ada@club.test", Reason: "Second try"}); err != nil {
		t.Fatalf("Expected resubmission to succeed, got %v", err)
	}

	stored, _ := env.profiles.GetByID(ctx, "user-1")
	if stored.ApplicationStatus != constants.ApplicationPending {
		t.Errorf("Expected pending after resubmission, got %s", stored.ApplicationStatus)
	}
}

func TestApplicationService_AcceptIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	svc := env.applications(nil, false)
	ctx := context.Background()

	svc.Submit(ctx, "user-1", ApplicationInput{Name: "Ada", Email: "ada@club.test"})
	for i := 0; i < 2; i++ {
		if err := svc.Accept(ctx, "user-1"); err != nil {
			t.Fatalf("Accept %d failed: %v", i, err)
		}
	}

	roles, _ := env.roles.ListForUser(ctx, "user-1")
	if len(roles) != 1 || roles[0] != constants.RoleMember {
		t.Errorf("Expected exactly one member role, got %v", roles)
	}
	stored, _ := env.profiles.GetByID(ctx, "user-1")
	if stored.ApplicationStatus != constants.ApplicationAccepted {
		t.Errorf("Expected accepted, got %s", stored.ApplicationStatus)
	}
}

func TestApplicationService_AcceptKeepsExistingRoles(t *testing.T) {
	env := newTestEnv(t)
	svc := env.applications(nil, false)
	ctx := context.Background()

	env.seedProfile(t, "exec-1", "Grace", constants.RoleExecutive)
	if err := svc.Accept(ctx, "exec-1"); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	roles, _ := env.roles.ListForUser(ctx, "exec-1")
	if len(roles) != 1 || roles[0] != constants.RoleExecutive {
		t.Errorf("Expected only the executive role, got %v", roles)
	}
}

func TestApplicationService_AcceptUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	svc := env.applications(nil, false)

	err := svc.Accept(context.Background(), "ghost")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Expected not_found, got %v", err)
	}
	held, _ := env.roles.CountForUser(context.Background(), "ghost")
	if held != 0 {
		t.Errorf("Expected no role for an unknown user, got %d", held)
	}
}

func TestApplicationService_RejectRevokesRolesAndGroups(t *testing.T) {
	env := newTestEnv(t)
	svc := env.applications(nil, false)
	ctx := context.Background()

	env.seedProfile(t, "admin-1", "Root", constants.RoleAdmin)
	env.seedProfile(t, "user-1", "Ada", constants.RoleMember, constants.RoleExecutive)

	group := &models.Group{Name: "Drivetrain"}
	if err := env.groups.Create(ctx, group); err != nil {
		t.Fatalf("Create group failed: %v", err)
	}
	if err := env.groups.AddMember(ctx, group.ID, "user-1"); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	if err := svc.Reject(ctx, "user-1"); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	held, _ := env.roles.CountForUser(ctx, "user-1")
	if held != 0 {
		t.Errorf("Expected zero roles after reject, got %d", held)
	}
	memberships, _ := env.groups.CountMembershipsForUser(ctx, "user-1")
	if memberships != 0 {
		t.Errorf("Expected zero group memberships after reject, got %d", memberships)
	}
	stored, err := env.profiles.GetByID(ctx, "user-1")
	if err != nil {
		t.Fatalf("Expected the profile to remain, got %v", err)
	}
	if stored.ApplicationStatus != constants.ApplicationRejected {
		t.Errorf("Expected rejected, got %s", stored.ApplicationStatus)
	}
}

func TestApplicationService_RejectLastAdminRollsBack(t *testing.T) {
	env := newTestEnv(t)
	svc := env.applications(nil, false)
	ctx := context.Background()

	env.seedProfile(t, "admin-1", "Root", constants.RoleAdmin)

	err := svc.Reject(ctx, "admin-1")
	if !errors.Is(err, apperr.ErrLastAdmin) {
		t.Fatalf("Expected last_admin, got %v", err)
	}

	stored, _ := env.profiles.GetByID(ctx, "admin-1")
	if stored.ApplicationStatus != constants.ApplicationAccepted {
		t.Errorf("Expected the status change to roll back, got %s", stored.ApplicationStatus)
	}
	roles, _ := env.roles.ListForUser(ctx, "admin-1")
	if len(roles) != 1 {
		t.Errorf("Expected the admin role to remain, got %v", roles)
	}
}

func TestApplicationService_RemoveMember(t *testing.T) {
	env := newTestEnv(t)
	svc := env.applications(nil, false)
	ctx := context.Background()

	user, err := env.provider.SignUp(ctx, "ada@club.test", "secret123", identity.Metadata{Name: "Ada"})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	env.seedProfile(t, user.ID, "Ada", constants.RoleMember)

	if err := svc.RemoveMember(ctx, user.ID); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}

	if _, err := env.profiles.GetByID(ctx, user.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected the profile to be gone, got %v", err)
	}
	held, _ := env.roles.CountForUser(ctx, user.ID)
	if held != 0 {
		t.Errorf("Expected zero roles, got %d", held)
	}
	if _, err := env.accounts.GetByID(ctx, user.ID); err != nil {
		t.Errorf("Expected the account to remain, got %v", err)
	}
}

func TestApplicationService_ScheduleInterviewKeepsStatus(t *testing.T) {
	env := newTestEnv(t)
	svc := env.applications(nil, false)
	ctx := context.Background()

	svc.Submit(ctx, "user-1", ApplicationInput{Name: "Ada", Email: "ada@club.test"})
	location, notes := "Lab 3", "bring a robot"
	date := time.Date(2026, 10, 20, 17, 0, 0, 0, time.UTC)

	if err := svc.ScheduleInterview(ctx, "user-1", &date, &location, &notes); err != nil {
		t.Fatalf("ScheduleInterview failed: %v", err)
	}

	stored, _ := env.profiles.GetByID(ctx, "user-1")
	if stored.ApplicationStatus != constants.ApplicationPending {
		t.Errorf("Expected status to stay pending, got %s", stored.ApplicationStatus)
	}
	if stored.ApplicationInterviewLocation == nil || *stored.ApplicationInterviewLocation != location {
		t.Errorf("Expected interview location %q, got %v", location, stored.ApplicationInterviewLocation)
	}
	if stored.ApplicationInterviewDate == nil || !stored.ApplicationInterviewDate.Equal(date) {
		t.Errorf("Expected interview date %v, got %v", date, stored.ApplicationInterviewDate)
	}
}

func TestApplicationService_ListFiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	svc := env.applications(nil, false)
	ctx := context.Background()

	svc.Submit(ctx, "user-1", ApplicationInput{Name: "Ada", Email: "ada@club.test"})
	svc.Submit(ctx, "user-2", ApplicationInput{Name: "Grace", Email: "grace@club.test"})
	svc.Reject(ctx, "user-2")

	pending := constants.ApplicationPending
	apps, err := svc.List(ctx, &pending)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(apps) != 1 || apps[0].ID != "user-1" {
		t.Errorf("Expected only user-1 pending, got %+v", apps)
	}

	bogus := constants.ApplicationStatus("archived")
	if _, err := svc.List(ctx, &bogus); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected validation error for an unknown status, got %v", err)
	}
}

// Apply, accept, then sign in: the member dashboard opens and the admin
// dashboard does not.
func TestApplicationService_EndToEndApproval(t *testing.T) {
	env := newTestEnv(t)
	svc := env.applications(nil, false)
	ctx := context.Background()

	user, _, err := svc.Apply(ctx, "ada@club.test", "secret123", ApplicationInput{Name: "Ada", Reason: "Love robots"})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	before := session.New(env.provider, env.profiles, env.roles, "")
	defer before.Teardown()
	if _, err := before.SignIn(ctx, "ada@club.test", "secret123"); !errors.Is(err, apperr.ErrPendingApproval) {
		t.Fatalf("Expected pending_approval before acceptance, got %v", err)
	}

	if err := svc.Accept(ctx, user.ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	sc := session.New(env.provider, env.profiles, env.roles, "")
	defer sc.Teardown()
	if _, err := sc.SignIn(ctx, "ada@club.test", "secret123"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	snap := sc.Snapshot()
	if !snap.IsApproved || snap.IsAdmin {
		t.Errorf("Expected approved non-admin, got approved=%v admin=%v", snap.IsApproved, snap.IsAdmin)
	}
	if snap.Profile == nil || snap.Profile.ApplicationReason == nil || *snap.Profile.ApplicationReason != "Love robots" {
		t.Errorf("Expected the profile with the application reason, got %+v", snap.Profile)
	}
	if d := access.Decide(snap.AccessState(), access.RequireApproved); d != access.Allow {
		t.Errorf("Expected member dashboard allowed, got %s", d)
	}
	if d := access.Decide(snap.AccessState(), access.RequireAdmin); d != access.RedirectMember {
		t.Errorf("Expected admin dashboard to redirect to member, got %s", d)
	}
}
