package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestGameStatusIsFinished(t *testing.T) {
	tests := []struct {
		status GameStatus
		want   bool
	}{
		{GameInProgress, false},
		{GameWon, true},
		{GameLost, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsFinished(); got != tt.want {
				t.Errorf("IsFinished() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGameLastAttempt(t *testing.T) {
	game := Game{}
	if game.LastAttempt() != nil {
		t.Fatal("expected nil last attempt for new game")
	}

	game.Attempts = []Attempt{{TryNumber: 1, Guess: "CRANE"}, {TryNumber: 2, Guess: "SLATE"}}
	if got := game.LastAttempt(); got == nil || got.Guess != "SLATE" {
		t.Errorf("LastAttempt() = %+v, want SLATE", got)
	}
}

func TestLeaderboardJSONKeepsOrder(t *testing.T) {
	board := Leaderboard{
		{Username: "zed", Wins: 9},
		{Username: "amy", Wins: 4},
		{Username: "bob", Wins: 4},
	}

	data, err := json.Marshal(board)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"zed":9,"amy":4,"bob":4}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var decoded Leaderboard
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(decoded) != 3 || decoded[0].Username != "zed" || decoded[2].Username != "bob" {
		t.Errorf("Unmarshal() = %+v", decoded)
	}
}

func TestEmptyLeaderboard(t *testing.T) {
	data, err := json.Marshal(Leaderboard{})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("Marshal() = %s, want {}", data)
	}
}

func TestOutcomeEvent(t *testing.T) {
	t.Run("null user id decodes to nil", func(t *testing.T) {
		var event OutcomeEvent
		if err := json.Unmarshal([]byte(`{"userId":null,"result":"WIN"}`), &event); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if event.UserID != nil {
			t.Errorf("UserID = %v, want nil", *event.UserID)
		}
		if err := event.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("unknown result", func(t *testing.T) {
		event := OutcomeEvent{Result: "DRAW"}
		if err := event.Validate(); !errors.Is(err, ErrInvalidOutcome) {
			t.Errorf("Validate() error = %v, want ErrInvalidOutcome", err)
		}
	})

	t.Run("status mapping", func(t *testing.T) {
		if r, ok := OutcomeFor(GameWon); !ok || r != ResultWin {
			t.Errorf("OutcomeFor(WON) = %v, %v", r, ok)
		}
		if r, ok := OutcomeFor(GameLost); !ok || r != ResultLose {
			t.Errorf("OutcomeFor(LOST) = %v, %v", r, ok)
		}
		if _, ok := OutcomeFor(GameInProgress); ok {
			t.Error("OutcomeFor(IN_PROGRESS) should not map")
		}
	})
}
