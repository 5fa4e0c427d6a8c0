package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"wordle/internal/database"
	"wordle/internal/events"
	"wordle/internal/identity"
	"wordle/internal/models"
	"wordle/internal/repository"
	"wordle/internal/wordle"
)

func newTestDB(t *testing.T, schemas ...string) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	for _, schema := range schemas {
		if err := db.RunMigrations(context.Background(), schema); err != nil {
			t.Fatalf("RunMigrations(%s) error = %v", schema, err)
		}
	}
	return db
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedOutcome
	err    error
}

type publishedOutcome struct {
	key   string
	event models.OutcomeEvent
}

func (p *fakePublisher) PublishOutcome(ctx context.Context, key string, event models.OutcomeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedOutcome{key: key, event: event})
	return p.err
}

type fakeDirectory map[int64]bool

func (d fakeDirectory) UserExists(ctx context.Context, userID int64) (bool, error) {
	return d[userID], nil
}

func newTestGameService(t *testing.T, secret string) (*GameService, *fakePublisher) {
	t.Helper()
	dict, err := wordle.New([]string{"BOBBY", "ABBEY", "CRANE", "SLATE", "BRICK", "FLAME", "INDEX", "PIZZA"})
	if err != nil {
		t.Fatal(err)
	}
	pub := &fakePublisher{}
	svc := NewGameService(repository.NewGameRepository(newTestDB(t, database.SchemaGame)), dict, pub, fakeDirectory{1: true, 2: true})
	svc.pick = func() string { return secret }
	return svc, pub
}

var (
	alice = &identity.Identity{UserID: 1, Username: "alice"}
	bob   = &identity.Identity{UserID: 2, Username: "bob"}
)

func TestCreateGame(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestGameService(t, "CRANE")

	anon, err := svc.Create(ctx, nil)
	if err != nil {
		t.Fatalf("Create(nil) error = %v", err)
	}
	if anon.OwnerID != nil || anon.Status != models.GameInProgress || anon.CurrentTry != 0 {
		t.Errorf("Create(nil) = %+v", anon)
	}

	owned, err := svc.Create(ctx, alice)
	if err != nil {
		t.Fatalf("Create(alice) error = %v", err)
	}
	if owned.OwnerID == nil || *owned.OwnerID != alice.UserID {
		t.Errorf("OwnerID = %v, want %d", owned.OwnerID, alice.UserID)
	}

	_, err = svc.Create(ctx, &identity.Identity{UserID: 99, Username: "ghost"})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Create(unknown user) error = %v, want ErrUserNotFound", err)
	}
}

func TestGuessValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestGameService(t, "CRANE")
	game, _ := svc.Create(ctx, nil)

	tests := []struct {
		name     string
		guess    string
		wantErr  error
		wantKind Kind
	}{
		{name: "too short", guess: "CRAN", wantErr: ErrInvalidGuessLength, wantKind: KindValidation},
		{name: "too long", guess: "CRANES", wantErr: ErrInvalidGuessLength, wantKind: KindValidation},
		{name: "not a word", guess: "ZZZZZ", wantErr: ErrUnknownWord, wantKind: KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Guess(ctx, game.ID, tt.guess, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Guess(%q) error = %v, want %v", tt.guess, err, tt.wantErr)
			}
			if KindOf(err) != tt.wantKind {
				t.Errorf("KindOf() = %v, want %v", KindOf(err), tt.wantKind)
			}
		})
	}

	stored, _ := svc.Get(ctx, game.ID, nil)
	if stored.CurrentTry != 0 || len(stored.Attempts) != 0 {
		t.Errorf("rejected guesses must not be recorded, got %+v", stored)
	}
}

func TestGuessCanonicalisesInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestGameService(t, "BOBBY")
	game, _ := svc.Create(ctx, nil)

	res, err := svc.Guess(ctx, game.ID, " abbey ", nil)
	if err != nil {
		t.Fatalf("Guess() error = %v", err)
	}
	want := []models.LetterStatus{models.LetterIncorrect, models.LetterMisplaced, models.LetterCorrect, models.LetterIncorrect, models.LetterCorrect}
	if res.Attempt.Guess != "ABBEY" {
		t.Errorf("Attempt.Guess = %q, want ABBEY", res.Attempt.Guess)
	}
	for i := range want {
		if res.Attempt.Statuses[i] != want[i] {
			t.Errorf("Statuses = %v, want %v", res.Attempt.Statuses, want)
			break
		}
	}
	if res.Game.CurrentTry != 1 || res.Game.Status != models.GameInProgress {
		t.Errorf("game = %+v", res.Game)
	}
}

func TestGuessWinEmitsOneOutcome(t *testing.T) {
	ctx := context.Background()
	svc, pub := newTestGameService(t, "CRANE")
	game, _ := svc.Create(ctx, alice)

	if _, err := svc.Guess(ctx, game.ID, "SLATE", alice); err != nil {
		t.Fatal(err)
	}
	res, err := svc.Guess(ctx, game.ID, "CRANE", alice)
	if err != nil {
		t.Fatalf("Guess() error = %v", err)
	}
	if res.Game.Status != models.GameWon || res.Game.CurrentTry != 2 {
		t.Errorf("game = %+v", res.Game)
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	got := pub.events[0]
	if got.key != events.OutcomeKey(game.ID, res.Game.CreatedAt) || got.event.Result != models.ResultWin || *got.event.UserID != alice.UserID {
		t.Errorf("published %+v", got)
	}

	_, err = svc.Guess(ctx, game.ID, "SLATE", alice)
	if !errors.Is(err, ErrGameAlreadyFinished) || KindOf(err) != KindState {
		t.Errorf("Guess() after win error = %v, want ErrGameAlreadyFinished", err)
	}
	if len(pub.events) != 1 {
		t.Errorf("finished game published again")
	}
}

func TestGuessLossAfterMaxTries(t *testing.T) {
	ctx := context.Background()
	svc, pub := newTestGameService(t, "CRANE")
	game, _ := svc.Create(ctx, bob)

	var res *GuessResult
	var err error
	for i := 0; i < wordle.MaxTries; i++ {
		res, err = svc.Guess(ctx, game.ID, "SLATE", bob)
		if err != nil {
			t.Fatalf("guess %d error = %v", i+1, err)
		}
		if i < wordle.MaxTries-1 && res.Game.Status != models.GameInProgress {
			t.Fatalf("game finished early after %d guesses", i+1)
		}
	}
	if res.Game.Status != models.GameLost || res.Game.CurrentTry != wordle.MaxTries {
		t.Errorf("game = %+v", res.Game)
	}
	if len(pub.events) != 1 || pub.events[0].event.Result != models.ResultLose {
		t.Errorf("published %+v, want one LOSE", pub.events)
	}

	if _, err := svc.Guess(ctx, game.ID, "CRANE", bob); !errors.Is(err, ErrGameAlreadyFinished) {
		t.Errorf("Guess() after loss error = %v, want ErrGameAlreadyFinished", err)
	}
}

func TestAnonymousGameNeverPublishes(t *testing.T) {
	ctx := context.Background()
	svc, pub := newTestGameService(t, "CRANE")
	game, _ := svc.Create(ctx, nil)

	res, err := svc.Guess(ctx, game.ID, "CRANE", nil)
	if err != nil || res.Game.Status != models.GameWon {
		t.Fatalf("Guess() = %+v, %v", res, err)
	}
	if len(pub.events) != 0 {
		t.Errorf("anonymous game published %d events", len(pub.events))
	}
}

func TestPublishFailureDoesNotFailGuess(t *testing.T) {
	ctx := context.Background()
	svc, pub := newTestGameService(t, "CRANE")
	pub.err = errors.New("broker unavailable")
	game, _ := svc.Create(ctx, alice)

	res, err := svc.Guess(ctx, game.ID, "CRANE", alice)
	if err != nil {
		t.Fatalf("Guess() error = %v, publish failures must be swallowed", err)
	}
	if res.Game.Status != models.GameWon {
		t.Errorf("status = %s, want WON", res.Game.Status)
	}
}

func TestGameAccessControl(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestGameService(t, "CRANE")
	owned, _ := svc.Create(ctx, alice)
	anon, _ := svc.Create(ctx, nil)

	tests := []struct {
		name    string
		gameID  int64
		caller  *identity.Identity
		wantErr error
	}{
		{name: "owner", gameID: owned.ID, caller: alice},
		{name: "other user on owned game", gameID: owned.ID, caller: bob, wantErr: ErrAccessDenied},
		{name: "anonymous on owned game", gameID: owned.ID, caller: nil, wantErr: ErrAccessDenied},
		{name: "anonymous on anonymous game", gameID: anon.ID, caller: nil},
		{name: "identified user on anonymous game", gameID: anon.ID, caller: alice, wantErr: ErrAccessDenied},
		{name: "missing game", gameID: 9999, caller: alice, wantErr: ErrGameNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Get(ctx, tt.gameID, tt.caller)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Get() error = %v, want %v", err, tt.wantErr)
			}
			_, err = svc.Guess(ctx, tt.gameID, "SLATE", tt.caller)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Guess() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccessCheckedBeforeState(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestGameService(t, "CRANE")
	game, _ := svc.Create(ctx, alice)
	if _, err := svc.Guess(ctx, game.ID, "CRANE", alice); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Guess(ctx, game.ID, "X", bob); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Guess() error = %v, want ErrAccessDenied before any other check", err)
	}
}

func TestListMine(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestGameService(t, "CRANE")
	for i := 0; i < 3; i++ {
		svc.Create(ctx, alice)
	}
	svc.Create(ctx, bob)

	games, err := svc.ListMine(ctx, alice, 10)
	if err != nil || len(games) != 3 {
		t.Errorf("ListMine(alice) = %d games, %v", len(games), err)
	}
	if _, err := svc.ListMine(ctx, nil, 10); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("ListMine(nil) error = %v, want ErrUnauthenticated", err)
	}
}

func TestCheckAccess(t *testing.T) {
	owner := int64(1)
	owned := &models.Game{OwnerID: &owner}
	anon := &models.Game{}

	if CheckAccess(owned, alice) != nil {
		t.Error("owner should have access")
	}
	if CheckAccess(owned, bob) != ErrAccessDenied {
		t.Error("non-owner must be denied")
	}
	if CheckAccess(owned, nil) != ErrAccessDenied {
		t.Error("anonymous caller must be denied on owned game")
	}
	if CheckAccess(anon, nil) != nil {
		t.Error("anonymous caller should access anonymous game")
	}
	if CheckAccess(anon, alice) != ErrAccessDenied {
		t.Error("identified caller must be denied on anonymous game")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{ErrUnknownWord, KindValidation},
		{ErrConcurrentGuess, KindState},
		{ErrAccessDenied, KindAccess},
		{ErrUserNotFound, KindNotFound},
		{ErrUsernameTaken, KindConflict},
		{errors.New("disk full"), KindInternal},
		{nil, KindInternal},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
