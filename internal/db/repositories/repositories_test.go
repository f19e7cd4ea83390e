package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"roboclub/clubhouse/internal/apperr"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/db"
	models "roboclub/clubhouse/internal/models/gorm"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Setup test database
func setupTestDB(t *testing.T) *gorm.DB {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), db.GormConfig())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// One connection keeps every query on the same in-memory database
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return gdb
}

func TestRoleRepository_LastAdminCannotBeRemoved(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewRoleRepository(gdb, db.NewTxManager(gdb))
	ctx := context.Background()

	if err := repo.Assign(ctx, "admin-1", constants.RoleAdmin); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	rows, err := repo.ListAssignments(ctx, "admin-1")
	if err != nil || len(rows) != 1 {
		t.Fatalf("Expected one assignment, got %v (%v)", rows, err)
	}

	err = repo.Delete(ctx, rows[0].ID)
	if !errors.Is(err, apperr.ErrLastAdmin) {
		t.Fatalf("Expected last_admin error, got %v", err)
	}

	err = repo.ChangeRole(ctx, rows[0].ID, constants.RoleMember)
	if !errors.Is(err, apperr.ErrLastAdmin) {
		t.Fatalf("Expected last_admin error on demotion, got %v", err)
	}

	err = repo.DeleteAllForUser(ctx, "admin-1")
	if !errors.Is(err, apperr.ErrLastAdmin) {
		t.Fatalf("Expected last_admin error on delete-all, got %v", err)
	}

	admins, _ := repo.CountAdmins(ctx)
	if admins != 1 {
		t.Errorf("Expected admin count to stay at 1, got %d", admins)
	}
}

func TestRoleRepository_SecondAdminCanBeRemoved(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewRoleRepository(gdb, db.NewTxManager(gdb))
	ctx := context.Background()

	_ = repo.Assign(ctx, "admin-1", constants.RoleAdmin)
	_ = repo.Assign(ctx, "admin-2", constants.RoleAdmin)

	if err := repo.DeleteAllForUser(ctx, "admin-2"); err != nil {
		t.Fatalf("Expected removal of a non-last admin to succeed, got %v", err)
	}
	admins, _ := repo.CountAdmins(ctx)
	if admins != 1 {
		t.Errorf("Expected 1 admin left, got %d", admins)
	}
}

func adminRowID(t *testing.T, repo *RoleRepository, userID string) string {
	t.Helper()
	rows, err := repo.ListAssignments(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListAssignments failed: %v", err)
	}
	for _, row := range rows {
		if row.Role == constants.RoleAdmin {
			return row.ID
		}
	}
	t.Fatalf("No admin assignment for %s in %v", userID, rows)
	return ""
}

func TestRoleRepository_OneOfTwoAdmins(t *testing.T) {
	tests := []struct {
		name        string
		holdsMember bool
		mutate      func(repo *RoleRepository, id string) error
		wantRoles   []constants.Role
	}{
		{
			name:   "delete single assignment",
			mutate: func(repo *RoleRepository, id string) error { return repo.Delete(context.Background(), id) },
		},
		{
			name:        "delete admin row of member+admin",
			holdsMember: true,
			mutate:      func(repo *RoleRepository, id string) error { return repo.Delete(context.Background(), id) },
			wantRoles:   []constants.Role{constants.RoleMember},
		},
		{
			name: "change to member",
			mutate: func(repo *RoleRepository, id string) error {
				return repo.ChangeRole(context.Background(), id, constants.RoleMember)
			},
			wantRoles: []constants.Role{constants.RoleMember},
		},
		{
			name:        "change to member when member is already held",
			holdsMember: true,
			mutate: func(repo *RoleRepository, id string) error {
				return repo.ChangeRole(context.Background(), id, constants.RoleMember)
			},
			wantRoles: []constants.Role{constants.RoleMember},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gdb := setupTestDB(t)
			repo := NewRoleRepository(gdb, db.NewTxManager(gdb))
			ctx := context.Background()

			if err := repo.Assign(ctx, "admin-1", constants.RoleAdmin); err != nil {
				t.Fatalf("Assign failed: %v", err)
			}
			if tt.holdsMember {
				if err := repo.Assign(ctx, "user-2", constants.RoleMember); err != nil {
					t.Fatalf("Assign member failed: %v", err)
				}
			}
			if err := repo.Assign(ctx, "user-2", constants.RoleAdmin); err != nil {
				t.Fatalf("Assign admin failed: %v", err)
			}

			if err := tt.mutate(repo, adminRowID(t, repo, "user-2")); err != nil {
				t.Fatalf("Expected mutation on one of two admins to succeed, got %v", err)
			}

			admins, _ := repo.CountAdmins(ctx)
			if admins != 1 {
				t.Errorf("Expected 1 admin left, got %d", admins)
			}
			roles, err := repo.ListForUser(ctx, "user-2")
			if err != nil {
				t.Fatalf("ListForUser failed: %v", err)
			}
			if len(roles) != len(tt.wantRoles) {
				t.Fatalf("Expected roles %v, got %v", tt.wantRoles, roles)
			}
			for i := range roles {
				if roles[i] != tt.wantRoles[i] {
					t.Errorf("Expected roles %v, got %v", tt.wantRoles, roles)
				}
			}
		})
	}
}

func TestRoleRepository_AssignIsIdempotent(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewRoleRepository(gdb, db.NewTxManager(gdb))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := repo.Assign(ctx, "user-1", constants.RoleMember); err != nil {
			t.Fatalf("Assign #%d failed: %v", i+1, err)
		}
	}
	n, _ := repo.CountForUser(ctx, "user-1")
	if n != 1 {
		t.Errorf("Expected a single member row, got %d", n)
	}

	if err := repo.Assign(ctx, "user-1", constants.Role("wizard")); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected validation error for unknown role, got %v", err)
	}
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	gdb := setupTestDB(t)
	tm := db.NewTxManager(gdb)
	profiles := NewProfileRepository(gdb)
	ctx := context.Background()

	boom := errors.New("boom")
	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		if err := profiles.Create(ctx, &models.Profile{ID: "u1", Name: "Ada", ApplicationStatus: constants.ApplicationPending}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}

	_, err = profiles.GetByID(ctx, "u1")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected the profile insert to be rolled back, got %v", err)
	}
}

func TestProfileRepository_UpsertApplicationKeepsOtherColumns(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewProfileRepository(gdb)
	ctx := context.Background()

	bio := "builds arms"
	if err := repo.Create(ctx, &models.Profile{ID: "u1", Name: "Ada", Bio: &bio, ApplicationStatus: constants.ApplicationRejected}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	reason := "Love robots"
	now := time.Now().UTC()
	err := repo.UpsertApplication(ctx, &models.Profile{
		ID: "u1", Name: "Ada L", Email: "ada@example.com",
		ApplicationStatus:      constants.ApplicationPending,
		ApplicationReason:      &reason,
		ApplicationSubmittedAt: &now,
	})
	if err != nil {
		t.Fatalf("UpsertApplication failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ApplicationStatus != constants.ApplicationPending {
		t.Errorf("Expected pending, got %s", got.ApplicationStatus)
	}
	if got.Bio == nil || *got.Bio != bio {
		t.Errorf("Expected bio to survive the upsert, got %v", got.Bio)
	}
	if got.Name != "Ada L" {
		t.Errorf("Expected name to be updated, got %s", got.Name)
	}
}

func TestMemberRecords_PresenceUpsert(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewMemberRecordsRepository(gdb)
	ctx := context.Background()

	_ = repo.UpsertPresence(ctx, &models.Presence{UserID: "u1", WeekDate: "2024-09-02", Present: false})
	_ = repo.UpsertPresence(ctx, &models.Presence{UserID: "u1", WeekDate: "2024-09-02", Present: true})

	rows, err := repo.ListPresence(ctx, "u1")
	if err != nil {
		t.Fatalf("ListPresence failed: %v", err)
	}
	if len(rows) != 1 || !rows[0].Present {
		t.Errorf("Expected one present row, got %+v", rows)
	}
}

func TestMemberRecords_TaskToggleScopedToOwner(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewMemberRecordsRepository(gdb)
	ctx := context.Background()

	task := &models.Task{UserID: "u1", Text: "solder the board"}
	if err := repo.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if err := repo.SetTaskCompleted(ctx, task.ID, "u2", true); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected not_found when toggling someone else's task, got %v", err)
	}
	if err := repo.SetTaskCompleted(ctx, task.ID, "u1", true); err != nil {
		t.Errorf("Expected owner toggle to succeed, got %v", err)
	}
}

func TestCompetitionRepository_SignupCounts(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewCompetitionRepository(gdb)
	ctx := context.Background()

	robot := &models.CompetitionRobot{Name: "Sumo", Slots: 2}
	if err := repo.CreateRobot(ctx, robot); err != nil {
		t.Fatalf("CreateRobot failed: %v", err)
	}
	_ = repo.CreateSignup(ctx, &models.CompetitionSignup{RobotID: robot.ID, UserID: "u1"})
	_ = repo.CreateSignup(ctx, &models.CompetitionSignup{RobotID: robot.ID, UserID: "u2"})

	counts, err := repo.SignupCounts(ctx)
	if err != nil {
		t.Fatalf("SignupCounts failed: %v", err)
	}
	if counts[robot.ID] != 2 {
		t.Errorf("Expected 2 signups, got %d", counts[robot.ID])
	}

	if err := repo.CreateSignup(ctx, &models.CompetitionSignup{RobotID: robot.ID, UserID: "u1"}); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("Expected duplicate signup to be a conflict, got %v", err)
	}
}

func TestChatRepository_ConversationAndMarkRead(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewChatRepository(gdb)
	ctx := context.Background()

	_ = repo.Create(ctx, &models.ChatMessage{From: "u1", To: constants.AdminChannel, Content: "hello"})
	_ = repo.Create(ctx, &models.ChatMessage{From: constants.AdminChannel, To: "u1", Content: "hi back"})
	_ = repo.Create(ctx, &models.ChatMessage{From: "u2", To: constants.AdminChannel, Content: "other"})

	msgs, err := repo.Conversation(ctx, "u1", constants.AdminChannel, time.Time{}, 0)
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}

	n, err := repo.MarkRead(ctx, constants.AdminChannel, "u1")
	if err != nil || n != 1 {
		t.Errorf("Expected 1 message marked read, got %d (%v)", n, err)
	}
}

func TestChatRepository_ConversationFromIncludesSameTimestamp(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewChatRepository(gdb)
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	_ = repo.Create(ctx, &models.ChatMessage{ID: "m1", From: "u1", To: constants.AdminChannel, Content: "first", CreatedAt: at})
	_ = repo.Create(ctx, &models.ChatMessage{ID: "m2", From: "u1", To: constants.AdminChannel, Content: "same instant", CreatedAt: at})

	strict, err := repo.Conversation(ctx, "u1", constants.AdminChannel, at, 0)
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	if len(strict) != 0 {
		t.Errorf("Expected nothing strictly after %v, got %d", at, len(strict))
	}

	from, err := repo.ConversationFrom(ctx, "u1", constants.AdminChannel, at)
	if err != nil {
		t.Fatalf("ConversationFrom failed: %v", err)
	}
	if len(from) != 2 || from[0].ID != "m1" || from[1].ID != "m2" {
		t.Errorf("Expected m1 and m2 in id order, got %+v", from)
	}
}

func TestSettingsRepository_SetOverwrites(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewSettingsRepository(gdb)
	ctx := context.Background()

	_ = repo.Set(ctx, constants.SettingShowApplyButton, "true")
	_ = repo.Set(ctx, constants.SettingShowApplyButton, "false")

	v, err := repo.Get(ctx, constants.SettingShowApplyButton)
	if err != nil || v != "false" {
		t.Errorf("Expected false, got %q (%v)", v, err)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected not_found for a missing key, got %v", err)
	}
}

func TestTeamRepository_Roster(t *testing.T) {
	gdb := setupTestDB(t)
	ctx := context.Background()
	sqlxDB, err := db.SQLXFromGorm(gdb, "sqlite3")
	if err != nil {
		t.Fatalf("SQLXFromGorm failed: %v", err)
	}

	profiles := NewProfileRepository(gdb)
	roles := NewRoleRepository(gdb, db.NewTxManager(gdb))
	_ = profiles.Create(ctx, &models.Profile{ID: "u1", Name: "Ada", Email: "ada@example.com", ApplicationStatus: constants.ApplicationAccepted})
	_ = profiles.Create(ctx, &models.Profile{ID: "u2", Name: "Babbage", Email: "b@example.com", ApplicationStatus: constants.ApplicationPending})
	_ = roles.Assign(ctx, "u1", constants.RoleFounder)
	_ = roles.Assign(ctx, "u1", constants.RoleMember)

	rows, err := NewTeamRepository(sqlxDB).Roster(ctx)
	if err != nil {
		t.Fatalf("Roster failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows for the single approved profile, got %d", len(rows))
	}
	for _, row := range rows {
		if row.ID != "u1" {
			t.Errorf("Expected only u1 in the roster, got %s", row.ID)
		}
	}
}

func TestTeamRepository_RosterFollowsRolesNotStatus(t *testing.T) {
	gdb := setupTestDB(t)
	ctx := context.Background()
	sqlxDB, err := db.SQLXFromGorm(gdb, "sqlite3")
	if err != nil {
		t.Fatalf("SQLXFromGorm failed: %v", err)
	}

	profiles := NewProfileRepository(gdb)
	roles := NewRoleRepository(gdb, db.NewTxManager(gdb))
	// A pending applicant granted member on submit is on the team
	_ = profiles.Create(ctx, &models.Profile{ID: "u3", Name: "Curie", Email: "c@example.com", ApplicationStatus: constants.ApplicationPending})
	_ = roles.Assign(ctx, "u3", constants.RoleMember)

	rows, err := NewTeamRepository(sqlxDB).Roster(ctx)
	if err != nil {
		t.Fatalf("Roster failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "u3" {
		t.Errorf("Expected the role holder u3 in the roster, got %+v", rows)
	}
}
