package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"roboclub/clubhouse/internal/apperr"
	"roboclub/clubhouse/internal/chat"
	"roboclub/clubhouse/internal/common"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/db"
	"roboclub/clubhouse/internal/db/repositories"
	"roboclub/clubhouse/internal/models/dtos/requests"
	models "roboclub/clubhouse/internal/models/gorm"
	"roboclub/clubhouse/internal/policy"
)

func TestCompetitionService_TeamFullLeavesCountUnchanged(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCompetitionService(env.tx, env.competition, env.metrics)
	ctx := context.Background()

	robot, err := svc.CreateRobot(ctx, "Sumo Bot", nil, 2)
	if err != nil {
		t.Fatalf("CreateRobot failed: %v", err)
	}
	for _, u := range []string{"u1", "u2"} {
		if err := svc.Signup(ctx, robot.ID, u); err != nil {
			t.Fatalf("Signup %s failed: %v", u, err)
		}
	}

	err = svc.Signup(ctx, robot.ID, "u3")
	if !errors.Is(err, apperr.ErrTeamFull) {
		t.Fatalf("Expected team_full, got %v", err)
	}
	count, _ := env.competition.CountSignups(ctx, robot.ID)
	if count != 2 {
		t.Errorf("Expected the count to stay at 2, got %d", count)
	}
}

func TestCompetitionService_DuplicateSignup(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCompetitionService(env.tx, env.competition, env.metrics)
	ctx := context.Background()

	robot, _ := svc.CreateRobot(ctx, "Line Follower", nil, 5)
	if err := svc.Signup(ctx, robot.ID, "u1"); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if err := svc.Signup(ctx, robot.ID, "u1"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("Expected conflict, got %v", err)
	}
}

func TestCompetitionService_ListAndWithdraw(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCompetitionService(env.tx, env.competition, env.metrics)
	ctx := context.Background()

	robot, _ := svc.CreateRobot(ctx, "Drone", nil, 3)
	svc.Signup(ctx, robot.ID, "u1")

	listing, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listing) != 1 || listing[0].Taken != 1 || listing[0].Remaining != 2 || !listing[0].SignedUp {
		t.Errorf("Unexpected listing: %+v", listing)
	}

	if err := svc.Withdraw(ctx, robot.ID, "u1"); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if err := svc.Withdraw(ctx, robot.ID, "u1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected not_found on a second withdraw, got %v", err)
	}
	if _, err := svc.CreateRobot(ctx, "Empty", nil, 0); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected validation error for zero slots, got %v", err)
	}
}

func TestRoleService_RejectsUnknownRole(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRoleService(env.roles)

	if err := svc.Assign(context.Background(), "u1", "overlord"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if err := svc.Assign(context.Background(), "u1", "executive"); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	rows, _ := svc.List(context.Background(), "u1")
	if len(rows) != 1 || rows[0].Role != constants.RoleExecutive {
		t.Errorf("Expected one executive assignment, got %+v", rows)
	}
}

func TestGroupService_OnlyApprovedMembersJoin(t *testing.T) {
	env := newTestEnv(t)
	svc := NewGroupService(env.tx, env.groups, env.roles)
	ctx := context.Background()

	env.seedProfile(t, "member-1", "Ada", constants.RoleMember)
	group, err := svc.Create(ctx, "Electronics", nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.AddMember(ctx, group.ID, "stranger"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("Expected validation error for an unapproved user, got %v", err)
	}
	if err := svc.AddMember(ctx, group.ID, "member-1"); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := svc.AddMember(ctx, group.ID, "member-1"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("Expected conflict on a duplicate membership, got %v", err)
	}

	mine, _ := svc.ListForUser(ctx, "member-1")
	if len(mine) != 1 {
		t.Errorf("Expected one group for member-1, got %d", len(mine))
	}

	if err := svc.Delete(ctx, group.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	n, _ := env.groups.CountMembershipsForUser(ctx, "member-1")
	if n != 0 {
		t.Errorf("Expected memberships to go with the group, got %d", n)
	}
}

func newMemberService(env *testEnv) *MemberService {
	return NewMemberService(env.tx, env.provider, env.profiles, env.roles, env.records, env.groups, env.competition)
}

func TestMemberService_DashboardHidesNotes(t *testing.T) {
	env := newTestEnv(t)
	svc := newMemberService(env)
	ctx := context.Background()

	env.seedProfile(t, "member-1", "Ada", constants.RoleMember, constants.RoleExecutive)
	env.profiles.Update(ctx, "member-1", map[string]interface{}{"application_notes": "strong candidate"})
	if _, err := svc.CreateTask(ctx, "member-1", "Solder the board"); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if _, err := svc.SetPresence(ctx, "member-1", "2026-10-12", true); err != nil {
		t.Fatalf("SetPresence failed: %v", err)
	}

	dash, err := svc.Dashboard(ctx, "member-1")
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if dash.Profile == nil || dash.Profile.ApplicationNotes != nil {
		t.Errorf("Expected a profile without internal notes, got %+v", dash.Profile)
	}
	if dash.PrimaryRole != constants.RoleExecutive {
		t.Errorf("Expected executive as primary role, got %s", dash.PrimaryRole)
	}
	if len(dash.Tasks) != 1 || len(dash.Presence) != 1 {
		t.Errorf("Expected one task and one presence row, got %d and %d", len(dash.Tasks), len(dash.Presence))
	}
}

func TestMemberService_ToggleOnlyOwnTask(t *testing.T) {
	env := newTestEnv(t)
	svc := newMemberService(env)
	ctx := context.Background()

	task, _ := svc.CreateTask(ctx, "member-1", "Write docs")
	if err := svc.ToggleTask(ctx, "member-2", task.ID, true); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Expected not_found toggling someone else's task, got %v", err)
	}
	if err := svc.ToggleTask(ctx, "member-1", task.ID, true); err != nil {
		t.Fatalf("ToggleTask failed: %v", err)
	}
	tasks, _ := env.records.ListTasks(ctx, "member-1")
	if len(tasks) != 1 || !tasks[0].Completed {
		t.Errorf("Expected the task to be completed, got %+v", tasks)
	}
}

func TestMemberService_SetPresenceValidatesWeek(t *testing.T) {
	env := newTestEnv(t)
	svc := newMemberService(env)

	if _, err := svc.SetPresence(context.Background(), "member-1", "12/10/2026", true); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("Expected validation error, got %v", err)
	}
}

func TestMemberService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	svc := newMemberService(env)
	ctx := context.Background()

	env.seedProfile(t, "member-1", "Ada", constants.RoleMember)
	bio := "Builds rovers"
	p, err := svc.UpdateProfile(ctx, "member-1", requests.UpdateProfileRequest{Bio: &bio})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if p.Bio == nil || *p.Bio != bio || p.Name != "Ada" {
		t.Errorf("Expected only the bio to change, got %+v", p)
	}
	if _, err := svc.UpdateProfile(ctx, "member-1", requests.UpdateProfileRequest{}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected validation error for an empty update, got %v", err)
	}
}

func TestMemberService_CreateMember(t *testing.T) {
	env := newTestEnv(t)
	svc := newMemberService(env)
	ctx := context.Background()

	p, err := svc.CreateMember(ctx, requests.CreateMemberRequest{Email: "new@club.test", Password: "secret123", Name: "Newbie"})
	if err != nil {
		t.Fatalf("CreateMember failed: %v", err)
	}
	if p.ApplicationStatus != constants.ApplicationAccepted {
		t.Errorf("Expected accepted, got %s", p.ApplicationStatus)
	}
	roles, _ := env.roles.ListForUser(ctx, p.ID)
	if len(roles) != 1 || roles[0] != constants.RoleMember {
		t.Errorf("Expected the member role, got %v", roles)
	}

	_, err = svc.CreateMember(ctx, requests.CreateMemberRequest{Email: "not-an-email", Password: "secret123", Name: "X"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}

	// A duplicate email rolls back without leaving a second profile
	_, err = svc.CreateMember(ctx, requests.CreateMemberRequest{Email: "new@club.test", Password: "secret123", Name: "Twin"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("Expected conflict for a duplicate email, got %v", err)
	}
	members, _ := svc.ListMembers(ctx)
	if len(members) != 1 {
		t.Errorf("Expected one member, got %d", len(members))
	}
}

func TestMemberService_ListMembersSkipsUnapproved(t *testing.T) {
	env := newTestEnv(t)
	svc := newMemberService(env)
	ctx := context.Background()

	env.seedProfile(t, "a", "Ada", constants.RoleAdmin, constants.RoleMember)
	env.seedProfile(t, "b", "Babbage")

	members, err := svc.ListMembers(ctx)
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(members) != 1 || members[0].Profile.ID != "a" || members[0].PrimaryRole != constants.RoleAdmin {
		t.Errorf("Unexpected members: %+v", members)
	}
}

func TestChatService_SendPublishesToBothSides(t *testing.T) {
	env := newTestEnv(t)
	broker := chat.NewMemoryBroker()
	svc := NewChatService(env.chat, broker, env.metrics, time.Second)
	ctx := context.Background()

	adminSub, _ := svc.Subscribe(ctx, "", true)
	defer adminSub.Close()
	memberSub, _ := svc.Subscribe(ctx, "member-1", false)
	defer memberSub.Close()

	if _, err := svc.Send(ctx, "member-1", false, "ignored", "Hi there"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	for name, sub := range map[string]chat.Subscription{"admin": adminSub, "member": memberSub} {
		select {
		case payload := <-sub.Messages():
			var msg models.ChatMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				t.Fatalf("Bad payload: %v", err)
			}
			if msg.From != "member-1" || msg.To != constants.AdminChannel {
				t.Errorf("%s got unexpected message %+v", name, msg)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s subscriber got nothing", name)
		}
	}
}

func TestChatService_InboxAndMarkRead(t *testing.T) {
	env := newTestEnv(t)
	svc := NewChatService(env.chat, chat.NewMemoryBroker(), env.metrics, time.Second)
	ctx := context.Background()

	svc.Send(ctx, "member-1", false, "", "first")
	svc.Send(ctx, "member-1", false, "", "second")
	svc.Send(ctx, "admin-user", true, "member-1", "reply")

	if _, err := svc.Send(ctx, "admin-user", true, "", "nobody"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected validation error without recipient, got %v", err)
	}
	if _, err := svc.Send(ctx, "member-1", false, "", "   "); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected validation error for blank content, got %v", err)
	}

	inbox, err := svc.AdminInbox(ctx)
	if err != nil {
		t.Fatalf("AdminInbox failed: %v", err)
	}
	if len(inbox) != 1 || inbox[0].MemberID != "member-1" || inbox[0].Unread != 2 {
		t.Fatalf("Unexpected inbox: %+v", inbox)
	}

	n, err := svc.MarkRead(ctx, "member-1", true)
	if err != nil || n != 2 {
		t.Fatalf("Expected 2 messages marked read, got %d (%v)", n, err)
	}
	inbox, _ = svc.AdminInbox(ctx)
	if inbox[0].Unread != 0 {
		t.Errorf("Expected no unread after MarkRead, got %d", inbox[0].Unread)
	}

	thread, _ := svc.Conversation(ctx, "member-1", time.Time{}, 0)
	if len(thread) != 3 {
		t.Errorf("Expected 3 messages in the thread, got %d", len(thread))
	}
}

// countingCache records the calls that reach the backend.
type countingCache struct {
	*common.CacheService
	mu      sync.Mutex
	deletes int
}

func (c *countingCache) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	c.deletes++
	c.mu.Unlock()
	c.CacheService.Delete(ctx, key)
}

func TestSettingsService_DefaultsAndInvalidation(t *testing.T) {
	env := newTestEnv(t)
	cache := &countingCache{CacheService: common.NewCacheService(time.Minute, time.Minute)}
	svc := NewSettingsService(env.settings, cache, time.Minute, env.metrics)
	ctx := context.Background()

	all, err := svc.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if all[constants.SettingShowApplyButton] != "true" {
		t.Errorf("Expected the default to apply, got %q", all[constants.SettingShowApplyButton])
	}

	if err := svc.Set(ctx, constants.SettingShowApplyButton, "false"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if cache.deletes != 1 {
		t.Errorf("Expected the cache entry to be dropped, got %d deletes", cache.deletes)
	}
	on, _ := svc.Enabled(ctx, constants.SettingShowApplyButton)
	if on {
		t.Error("Expected the stored value to win over the default")
	}

	if err := svc.Set(ctx, "made_up", "x"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected validation error for an unknown key, got %v", err)
	}
	if _, err := svc.Get(ctx, "made_up"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected not_found for an unknown key, got %v", err)
	}
}

func TestSettingsService_DecodedCacheValue(t *testing.T) {
	env := newTestEnv(t)
	cache := common.NewCacheService(time.Minute, time.Minute)
	cache.Set(context.Background(), string(constants.CachePrefixSettings), map[string]interface{}{"show_login_button": "false"}, time.Minute)
	svc := NewSettingsService(env.settings, cache, time.Minute, nil)

	v, err := svc.Get(context.Background(), constants.SettingShowLoginButton)
	if err != nil || v != "false" {
		t.Errorf("Expected the decoded cache value, got %q (%v)", v, err)
	}
}

func TestContentService_TeamGroupsAndMasksEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sqlxDB, err := db.SQLXFromGorm(env.gdb, "sqlite3")
	if err != nil {
		t.Fatalf("SQLXFromGorm failed: %v", err)
	}
	settings := NewSettingsService(env.settings, common.NewCacheService(time.Minute, time.Minute), time.Minute, nil)
	svc := NewContentService(repositories.NewTeamRepository(sqlxDB), env.content, settings)

	env.seedProfile(t, "a", "Ada", constants.RoleMember)
	env.seedProfile(t, "f", "Founder", constants.RoleFounder, constants.RoleAdmin)
	env.seedProfile(t, "p", "Pending")

	sections, err := svc.Team(ctx, policy.Viewer{UserID: "a", Roles: []constants.Role{constants.RoleMember}})
	if err != nil {
		t.Fatalf("Team failed: %v", err)
	}
	if len(sections) != 2 || sections[0].Role != constants.RoleFounder || sections[1].Role != constants.RoleMember {
		t.Fatalf("Unexpected sections: %+v", sections)
	}
	founder := sections[0].Members[0]
	if len(founder.Roles) != 2 || founder.Email != "" {
		t.Errorf("Expected both founder roles and a hidden email, got %+v", founder)
	}
	if self := sections[1].Members[0]; self.Email != "a@club.test" {
		t.Errorf("Expected the viewer to see their own email, got %q", self.Email)
	}

	anon, _ := svc.Team(ctx, policy.Viewer{})
	for _, sec := range anon {
		for _, m := range sec.Members {
			if m.Email != "" {
				t.Errorf("Expected no emails for anonymous viewers, got %q", m.Email)
			}
		}
	}
}

func TestContentService_HomeAndNews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	settings := NewSettingsService(env.settings, common.NewCacheService(time.Minute, time.Minute), time.Minute, nil)
	svc := NewContentService(nil, env.content, settings)

	older := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.CreateNews(ctx, "Old news", "body", &older)
	latest, err := svc.CreateNews(ctx, "Fresh news", "body", nil)
	if err != nil {
		t.Fatalf("CreateNews failed: %v", err)
	}

	home, err := svc.Home(ctx)
	if err != nil {
		t.Fatalf("Home failed: %v", err)
	}
	if len(home.News) != 2 || home.News[0].ID != latest.ID {
		t.Errorf("Expected newest news first, got %+v", home.News)
	}
	if home.Settings[constants.SettingShowLoginButton] != "true" {
		t.Errorf("Expected default settings on the home page, got %v", home.Settings)
	}

	if err := svc.DeleteNews(ctx, latest.ID); err != nil {
		t.Fatalf("DeleteNews failed: %v", err)
	}
	if err := svc.DeleteNews(ctx, latest.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected not_found on a second delete, got %v", err)
	}
}
