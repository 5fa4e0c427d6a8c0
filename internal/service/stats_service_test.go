package service

import (
	"context"
	"errors"
	"testing"

	"wordle/internal/database"
	"wordle/internal/identity"
	"wordle/internal/models"
	"wordle/internal/repository"
)

func newTestStats(t *testing.T) (*StatsService, *repository.UserRepository, *database.DB) {
	t.Helper()
	db := newTestDB(t, database.SchemaUser)
	users := repository.NewUserRepository(db)
	return NewStatsService(users, 3), users, db
}

func TestHandleOutcomeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	stats, users, _ := newTestStats(t)
	user, _ := users.CreateUser(ctx, &models.User{Username: "alice"})

	event := models.OutcomeEvent{UserID: &user.ID, Result: models.ResultWin}
	for i := 0; i < 3; i++ {
		if err := stats.HandleOutcome(ctx, "game:1", event); err != nil {
			t.Fatalf("HandleOutcome() error = %v", err)
		}
	}

	got, _ := users.GetUserByID(ctx, user.ID)
	if got.Wins != 1 || got.Losses != 0 {
		t.Errorf("stats after redelivery = %d/%d, want 1/0", got.Wins, got.Losses)
	}
}

func TestHandleOutcomeDropsUnroutableEvents(t *testing.T) {
	ctx := context.Background()
	stats, _, db := newTestStats(t)

	if err := stats.HandleOutcome(ctx, "game:1", models.OutcomeEvent{Result: models.ResultWin}); err != nil {
		t.Errorf("HandleOutcome(nil user) error = %v, want drop", err)
	}
	ghost := int64(404)
	if err := stats.HandleOutcome(ctx, "game:2", models.OutcomeEvent{UserID: &ghost, Result: models.ResultLose}); err != nil {
		t.Errorf("HandleOutcome(unknown user) error = %v, want drop", err)
	}

	var users int
	db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&users)
	if users != 0 {
		t.Errorf("consumer must not create users, found %d", users)
	}
}

func TestRankCountsStrictlyBetterPlayers(t *testing.T) {
	ctx := context.Background()
	stats, users, db := newTestStats(t)

	wins := []struct {
		name string
		wins int
	}{{"ann", 7}, {"ben", 4}, {"cat", 4}, {"dan", 1}}
	for _, w := range wins {
		u, _ := users.CreateUser(ctx, &models.User{Username: w.name})
		db.ExecContext(ctx, "UPDATE users SET wins = ? WHERE id = ?", w.wins, u.ID)
	}

	want := map[string]int64{"ann": 1, "ben": 2, "cat": 2, "dan": 4}
	for name, rank := range want {
		got, err := stats.RankOf(ctx, name)
		if err != nil || got != rank {
			t.Errorf("RankOf(%s) = %d, %v, want %d", name, got, err, rank)
		}
	}

	if _, err := stats.RankOf(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("RankOf(nobody) error = %v, want ErrUserNotFound", err)
	}
}

func TestTopN(t *testing.T) {
	ctx := context.Background()
	stats, users, db := newTestStats(t)
	for i, name := range []string{"ann", "ben", "cat", "dan"} {
		u, _ := users.CreateUser(ctx, &models.User{Username: name})
		db.ExecContext(ctx, "UPDATE users SET wins = ? WHERE id = ?", i, u.ID)
	}

	tests := []struct {
		n    int
		want int
	}{
		{n: 2, want: 2},
		{n: 0, want: 3},
		{n: 50, want: 3},
	}
	for _, tt := range tests {
		board, err := stats.TopN(ctx, tt.n)
		if err != nil || len(board) != tt.want {
			t.Errorf("TopN(%d) = %d entries, %v, want %d", tt.n, len(board), err, tt.want)
		}
	}

	board, _ := stats.TopN(ctx, 3)
	if board[0].Username != "dan" || board[0].Wins != 3 {
		t.Errorf("TopN()[0] = %+v, want dan with 3 wins", board[0])
	}
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	stats, users, _ := newTestStats(t)
	user, _ := users.CreateUser(ctx, &models.User{Username: "alice", FirstName: "Alice"})

	profile, err := stats.Profile(ctx, &identity.Identity{UserID: user.ID, Username: "alice"})
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if profile.User.Username != "alice" || profile.Rank != 1 {
		t.Errorf("Profile() = %+v", profile)
	}

	if _, err := stats.Profile(ctx, nil); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Profile(nil) error = %v, want ErrUnauthenticated", err)
	}
	if _, err := stats.Profile(ctx, &identity.Identity{UserID: 999, Username: "x"}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Profile(unknown) error = %v, want ErrUserNotFound", err)
	}
}
