package client

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/convosphere/convosphere-server/internal/proto"
	"github.com/convosphere/convosphere-server/internal/storage"
)

// Storage keys, kept identical to the browser client's localStorage
// layout so the two store shapes stay interchangeable.
const (
	usersKey         = "chat_users"
	sessionKey       = "chat_user"
	themeKey         = "chat_theme"
	notificationsKey = "chat_notifications"
)

// ErrNotLoggedIn means no identity is stored locally.
var ErrNotLoggedIn = errors.New("not logged in")

func loadStoredUsers(ctx context.Context, store storage.Store) ([]proto.User, error) {
	raw, err := store.Get(ctx, usersKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var users []proto.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func saveStoredUsers(ctx context.Context, store storage.Store, users []proto.User) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return err
	}
	return store.Put(ctx, usersKey, raw)
}

// upsertStoredUser merges one profile into the durable user table.
func upsertStoredUser(ctx context.Context, store storage.Store, u proto.User) error {
	users, err := loadStoredUsers(ctx, store)
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].Name == u.Name {
			users[i] = u
			return saveStoredUsers(ctx, store, users)
		}
	}
	return saveStoredUsers(ctx, store, append(users, u))
}

// Login resolves the named identity from the local user table,
// creating it on first use. There are no server-side accounts; the
// table in the durable store is the whole registry.
func Login(ctx context.Context, store storage.Store, name, displayName string) (proto.User, error) {
	if name == "" {
		return proto.User{}, errors.New("name is required")
	}

	users, err := loadStoredUsers(ctx, store)
	if err != nil {
		return proto.User{}, err
	}

	var user proto.User
	for _, u := range users {
		if u.Name == name {
			user = u
			break
		}
	}
	if user.Name == "" {
		user = proto.User{Name: name, DisplayName: displayName}
		if user.DisplayName == "" {
			user.DisplayName = name
		}
		if err := upsertStoredUser(ctx, store, user); err != nil {
			return proto.User{}, err
		}
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return proto.User{}, err
	}
	if err := store.Put(ctx, sessionKey, raw); err != nil {
		return proto.User{}, err
	}
	return user, nil
}

// CurrentUser returns the logged-in identity, if any.
func CurrentUser(ctx context.Context, store storage.Store) (proto.User, error) {
	raw, err := store.Get(ctx, sessionKey)
	if errors.Is(err, storage.ErrNotFound) {
		return proto.User{}, ErrNotLoggedIn
	}
	if err != nil {
		return proto.User{}, err
	}

	var user proto.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return proto.User{}, err
	}
	return user, nil
}

// Logout forgets the logged-in identity but keeps the user table.
func Logout(ctx context.Context, store storage.Store) error {
	return store.Delete(ctx, sessionKey)
}

// SaveProfile persists a profile change locally. Broadcasting the
// change to the relay is the caller's concern.
func SaveProfile(ctx context.Context, store storage.Store, u proto.User) error {
	if err := upsertStoredUser(ctx, store, u); err != nil {
		return err
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return store.Put(ctx, sessionKey, raw)
}

// Preferences are the client's durable UI flags.
type Preferences struct {
	Theme         string
	Notifications bool
}

// LoadPreferences reads the stored flags, defaulting to a dark theme
// with notifications on.
func LoadPreferences(ctx context.Context, store storage.Store) Preferences {
	prefs := Preferences{Theme: "dark", Notifications: true}

	if raw, err := store.Get(ctx, themeKey); err == nil && len(raw) > 0 {
		prefs.Theme = string(raw)
	}
	if raw, err := store.Get(ctx, notificationsKey); err == nil {
		prefs.Notifications = string(raw) != "false"
	}
	return prefs
}

// SavePreferences writes the flags back.
func SavePreferences(ctx context.Context, store storage.Store, prefs Preferences) error {
	if err := store.Put(ctx, themeKey, []byte(prefs.Theme)); err != nil {
		return err
	}
	value := "true"
	if !prefs.Notifications {
		value = "false"
	}
	return store.Put(ctx, notificationsKey, []byte(value))
}
