package client

import (
	"context"
	"errors"
	"testing"

	"github.com/convosphere/convosphere-server/internal/proto"
	"github.com/convosphere/convosphere-server/internal/storage/memory"
)

func TestLoginCreatesAndReusesIdentity(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	user, err := Login(ctx, store, "alice", "Alice")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Name != "alice" || user.DisplayName != "Alice" {
		t.Fatalf("unexpected identity: %+v", user)
	}

	current, err := CurrentUser(ctx, store)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if current.Name != "alice" {
		t.Fatalf("session not stored: %+v", current)
	}

	// A later login under the same name reuses the stored profile.
	again, err := Login(ctx, store, "alice", "ignored")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if again.DisplayName != "Alice" {
		t.Fatalf("stored profile not reused: %+v", again)
	}
}

func TestLoginDefaultsDisplayName(t *testing.T) {
	user, err := Login(context.Background(), memory.NewStore(), "bob", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.DisplayName != "bob" {
		t.Fatalf("display name not defaulted: %+v", user)
	}
}

func TestLogout(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	if _, err := Login(ctx, store, "alice", "Alice"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := Logout(ctx, store); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := CurrentUser(ctx, store); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}

	// The user table survives logout.
	users, err := loadStoredUsers(ctx, store)
	if err != nil || len(users) != 1 {
		t.Fatalf("user table lost on logout: %v %v", users, err)
	}
}

func TestSaveProfileUpdatesTableAndSession(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	if _, err := Login(ctx, store, "alice", "Alice"); err != nil {
		t.Fatalf("login: %v", err)
	}

	updated := proto.User{Name: "alice", DisplayName: "Alice in Wonderland", Avatar: "new"}
	if err := SaveProfile(ctx, store, updated); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	current, err := CurrentUser(ctx, store)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if current.DisplayName != "Alice in Wonderland" || current.Avatar != "new" {
		t.Fatalf("session not updated: %+v", current)
	}

	users, err := loadStoredUsers(ctx, store)
	if err != nil || len(users) != 1 || users[0].Avatar != "new" {
		t.Fatalf("table not updated: %+v %v", users, err)
	}
}

func TestPreferencesDefaultsAndRoundTrip(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	prefs := LoadPreferences(ctx, store)
	if prefs.Theme != "dark" || !prefs.Notifications {
		t.Fatalf("unexpected defaults: %+v", prefs)
	}

	if err := SavePreferences(ctx, store, Preferences{Theme: "light", Notifications: false}); err != nil {
		t.Fatalf("save: %v", err)
	}
	prefs = LoadPreferences(ctx, store)
	if prefs.Theme != "light" || prefs.Notifications {
		t.Fatalf("round trip lost values: %+v", prefs)
	}
}
