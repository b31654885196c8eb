package services

import (
	"errors"
	"testing"
	"time"

	"github.com/Mechmay/dinjure-online/internal/game"
	"github.com/Mechmay/dinjure-online/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := db.AutoMigrate(&models.Player{}, &models.GameSession{}, &models.Guess{}); err != nil {
		t.Fatal(err)
	}
	return db
}

func newTestPlayer(t *testing.T, db *gorm.DB, username string) uint {
	t.Helper()

	player := models.Player{Username: username, PasswordHash: "x"}
	if err := db.Create(&player).Error; err != nil {
		t.Fatal(err)
	}
	return player.ID
}

func TestCreateGame(t *testing.T) {
	db := newTestDB(t)
	svc := NewGameService(db)
	alice := newTestPlayer(t, db, "alice")

	session, err := svc.CreateGame(alice, nil)
	if err != nil {
		t.Fatal(err)
	}
	if session.Status != models.StatusWaitingForPlayer {
		t.Fatalf("status = %q, want waiting_for_player", session.Status)
	}
	if session.CurrentTurn != alice {
		t.Fatalf("current turn = %d, want creator %d", session.CurrentTurn, alice)
	}
	if session.Player1Number != "" {
		t.Fatalf("deferred secret should be unset, got %q", session.Player1Number)
	}

	withSecret, err := svc.CreateGame(alice, game.Code{3, 7, 0, 9})
	if err != nil {
		t.Fatal(err)
	}
	if withSecret.Player1Number != "3709" {
		t.Fatalf("up-front secret = %q, want 3709", withSecret.Player1Number)
	}

	if _, err := svc.CreateGame(alice, game.Code{1, 1, 2, 3}); !errors.Is(err, game.ErrInvalidCode) {
		t.Fatalf("duplicate digits = %v, want ErrInvalidCode", err)
	}
}

func TestJoinGameRace(t *testing.T) {
	db := newTestDB(t)
	svc := NewGameService(db)
	alice := newTestPlayer(t, db, "alice")
	bob := newTestPlayer(t, db, "bob")
	carol := newTestPlayer(t, db, "carol")

	session, err := svc.CreateGame(alice, game.Code{3, 7, 0, 9})
	if err != nil {
		t.Fatal(err)
	}

	joined, err := svc.JoinGame(session.ID, bob, game.Code{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if joined.Status != models.StatusInProgress {
		t.Fatalf("status after join = %q, want in_progress", joined.Status)
	}
	if joined.Player2ID == nil || *joined.Player2ID != bob {
		t.Fatalf("player2 = %v, want %d", joined.Player2ID, bob)
	}

	// The seat is taken: the second joiner loses the race even though a stale
	// read may still have shown the game as waiting.
	if _, err := svc.JoinGame(session.ID, carol, game.Code{5, 6, 7, 8}); !errors.Is(err, ErrGameUnavailable) {
		t.Fatalf("second join = %v, want ErrGameUnavailable", err)
	}

	var count int64
	db.Model(&models.GameSession{}).Where("id = ? AND player2_id = ?", session.ID, bob).Count(&count)
	if count != 1 {
		t.Fatalf("session should keep its first joiner")
	}

	if _, err := svc.JoinGame(9999, carol, nil); !errors.Is(err, ErrGameUnavailable) {
		t.Fatalf("join missing game = %v, want ErrGameUnavailable", err)
	}
}

func TestSetNumbers(t *testing.T) {
	db := newTestDB(t)
	svc := NewGameService(db)
	alice := newTestPlayer(t, db, "alice")
	bob := newTestPlayer(t, db, "bob")
	mallory := newTestPlayer(t, db, "mallory")

	session, err := svc.CreateGame(alice, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.JoinGame(session.ID, bob, nil); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.SetNumbers(session.ID, alice, game.Code{1, 1, 2, 3}); !errors.Is(err, game.ErrInvalidCode) {
		t.Fatalf("invalid secret = %v, want ErrInvalidCode", err)
	}
	if _, err := svc.SetNumbers(session.ID, mallory, game.Code{1, 2, 3, 4}); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("outsider = %v, want ErrNotParticipant", err)
	}

	if _, err := svc.SetNumbers(session.ID, alice, game.Code{3, 7, 0, 9}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SetNumbers(session.ID, alice, game.Code{5, 6, 7, 8}); !errors.Is(err, game.ErrSecretAlreadySet) {
		t.Fatalf("re-set secret = %v, want ErrSecretAlreadySet", err)
	}

	var stored models.GameSession
	if err := db.First(&stored, session.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.Player1Number != "3709" {
		t.Fatalf("stored secret = %q, want 3709", stored.Player1Number)
	}
}

func TestSubmitGuessEndToEnd(t *testing.T) {
	db := newTestDB(t)
	svc := NewGameService(db)
	alice := newTestPlayer(t, db, "alice")
	bob := newTestPlayer(t, db, "bob")

	// A creates with secret 3709, B joins with secret 1234, A guesses first.
	session, err := svc.CreateGame(alice, game.Code{3, 7, 0, 9})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.JoinGame(session.ID, bob, game.Code{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.SubmitGuess(session.ID, bob, game.Code{3, 7, 0, 9}); !errors.Is(err, game.ErrNotYourTurn) {
		t.Fatalf("out-of-turn guess = %v, want ErrNotYourTurn", err)
	}

	guess, updated, err := svc.SubmitGuess(session.ID, alice, game.Code{4, 3, 2, 1})
	if err != nil {
		t.Fatal(err)
	}
	if guess.Dead != 0 || guess.Injured != 4 {
		t.Fatalf("reversed guess scored dead=%d injured=%d, want 0/4", guess.Dead, guess.Injured)
	}
	if updated.CurrentTurn != bob {
		t.Fatalf("turn after miss = %d, want %d", updated.CurrentTurn, bob)
	}
	if updated.Status != models.StatusInProgress {
		t.Fatalf("status after miss = %q, want in_progress", updated.Status)
	}

	guess, updated, err = svc.SubmitGuess(session.ID, bob, game.Code{3, 7, 0, 9})
	if err != nil {
		t.Fatal(err)
	}
	if guess.Dead != 4 || guess.Injured != 0 {
		t.Fatalf("winning guess scored dead=%d injured=%d, want 4/0", guess.Dead, guess.Injured)
	}
	if updated.Status != models.StatusCompleted {
		t.Fatalf("status after win = %q, want completed", updated.Status)
	}
	if updated.WinnerID == nil || *updated.WinnerID != bob {
		t.Fatalf("winner = %v, want %d", updated.WinnerID, bob)
	}

	// Completed games reject further guesses and keep their winner.
	if _, _, err := svc.SubmitGuess(session.ID, alice, game.Code{1, 2, 3, 4}); !errors.Is(err, game.ErrGameAlreadyWon) {
		t.Fatalf("guess after win = %v, want ErrGameAlreadyWon", err)
	}
	var stored models.GameSession
	if err := db.First(&stored, session.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.WinnerID == nil || *stored.WinnerID != bob {
		t.Fatalf("winner changed after rejected guess: %v", stored.WinnerID)
	}
}

func TestSubmitGuessRequiresSecrets(t *testing.T) {
	db := newTestDB(t)
	svc := NewGameService(db)
	alice := newTestPlayer(t, db, "alice")
	bob := newTestPlayer(t, db, "bob")

	session, err := svc.CreateGame(alice, game.Code{3, 7, 0, 9})
	if err != nil {
		t.Fatal(err)
	}

	// Still waiting for an opponent.
	if _, _, err := svc.SubmitGuess(session.ID, alice, game.Code{1, 2, 3, 4}); !errors.Is(err, game.ErrSecretsNotSet) {
		t.Fatalf("guess while waiting = %v, want ErrSecretsNotSet", err)
	}

	// Joined without committing a secret: there is nothing to score against.
	if _, err := svc.JoinGame(session.ID, bob, nil); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.SubmitGuess(session.ID, alice, game.Code{1, 2, 3, 4}); !errors.Is(err, game.ErrSecretsNotSet) {
		t.Fatalf("guess against unset secret = %v, want ErrSecretsNotSet", err)
	}

	if _, err := svc.SetNumbers(session.ID, bob, game.Code{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.SubmitGuess(session.ID, alice, game.Code{5, 6, 7, 8}); err != nil {
		t.Fatalf("guess after late secret = %v", err)
	}
}

func TestGetGame(t *testing.T) {
	db := newTestDB(t)
	svc := NewGameService(db)
	alice := newTestPlayer(t, db, "alice")
	bob := newTestPlayer(t, db, "bob")
	mallory := newTestPlayer(t, db, "mallory")

	session, err := svc.CreateGame(alice, game.Code{3, 7, 0, 9})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.JoinGame(session.ID, bob, game.Code{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}

	base := time.Now().Add(-time.Minute)
	old := models.Guess{GameID: session.ID, PlayerID: alice, Numbers: "4321", Dead: 0, Injured: 4, CreatedAt: base}
	recent := models.Guess{GameID: session.ID, PlayerID: bob, Numbers: "5678", Dead: 0, Injured: 0, CreatedAt: base.Add(30 * time.Second)}
	if err := db.Create(&old).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&recent).Error; err != nil {
		t.Fatal(err)
	}

	state, err := svc.GetGame(session.ID, bob)
	if err != nil {
		t.Fatal(err)
	}
	if state.MyNumbers != "1234" {
		t.Fatalf("my numbers = %q, want own secret", state.MyNumbers)
	}
	if state.NeedsNumbers {
		t.Fatalf("needs_numbers should be false once the secret is set")
	}
	if len(state.Guesses) != 2 {
		t.Fatalf("guesses = %d, want 2", len(state.Guesses))
	}
	if state.Guesses[0].Numbers != "5678" {
		t.Fatalf("guess order: got %q first, want newest first", state.Guesses[0].Numbers)
	}
	if !state.Guesses[0].Mine || state.Guesses[0].Seat != 2 {
		t.Fatalf("bob's guess annotation: %+v", state.Guesses[0])
	}
	if state.Guesses[1].Mine || state.Guesses[1].Seat != 1 {
		t.Fatalf("alice's guess annotation: %+v", state.Guesses[1])
	}

	if _, err := svc.GetGame(session.ID, mallory); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("outsider fetch = %v, want ErrNotParticipant", err)
	}
	if _, err := svc.GetGame(9999, alice); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("missing game = %v, want ErrGameNotFound", err)
	}
}

func TestLobby(t *testing.T) {
	db := newTestDB(t)
	svc := NewGameService(db)
	alice := newTestPlayer(t, db, "alice")
	bob := newTestPlayer(t, db, "bob")

	mine, err := svc.CreateGame(alice, nil)
	if err != nil {
		t.Fatal(err)
	}
	open, err := svc.CreateGame(bob, nil)
	if err != nil {
		t.Fatal(err)
	}

	lobby, err := svc.Lobby(alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(lobby.Available) != 1 || lobby.Available[0].ID != open.ID {
		t.Fatalf("available = %+v, want only bob's game", lobby.Available)
	}
	if len(lobby.MyGames) != 1 || lobby.MyGames[0].ID != mine.ID {
		t.Fatalf("my games = %+v, want only alice's game", lobby.MyGames)
	}
	if lobby.ActiveGameID != 0 {
		t.Fatalf("active game = %d, want none", lobby.ActiveGameID)
	}

	// Joining bob's game makes it the active one and removes it from the
	// joinable list.
	if _, err := svc.JoinGame(open.ID, alice, nil); err != nil {
		t.Fatal(err)
	}
	lobby, err = svc.Lobby(alice)
	if err != nil {
		t.Fatal(err)
	}
	if lobby.ActiveGameID != open.ID {
		t.Fatalf("active game = %d, want %d", lobby.ActiveGameID, open.ID)
	}
	if len(lobby.Available) != 0 {
		t.Fatalf("available = %+v, want empty", lobby.Available)
	}
	if len(lobby.MyGames) != 2 {
		t.Fatalf("my games = %d, want 2", len(lobby.MyGames))
	}
}

func TestDeleteGame(t *testing.T) {
	db := newTestDB(t)
	svc := NewGameService(db)
	alice := newTestPlayer(t, db, "alice")
	bob := newTestPlayer(t, db, "bob")

	session, err := svc.CreateGame(alice, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteGame(session.ID, bob); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("non-owner delete = %v, want ErrNotOwner", err)
	}

	started, err := svc.CreateGame(alice, game.Code{3, 7, 0, 9})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.JoinGame(started.ID, bob, game.Code{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteGame(started.ID, alice); !errors.Is(err, ErrGameNotDeletable) {
		t.Fatalf("delete in-progress game = %v, want ErrGameNotDeletable", err)
	}

	if err := svc.DeleteGame(session.ID, alice); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteGame(session.ID, alice); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("delete twice = %v, want ErrGameNotFound", err)
	}
}
