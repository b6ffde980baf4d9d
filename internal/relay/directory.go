package relay

import (
	"sort"
	"sync"

	"github.com/convosphere/convosphere-server/internal/proto"
)

// Directory maps user names to their single active session and keeps
// the last-known profile for presence broadcasts. The hub goroutine is
// the only writer; HTTP handlers read it concurrently, hence the lock.
type Directory struct {
	mx       sync.RWMutex
	sessions map[string]*Session
	profiles map[string]proto.User
}

// NewDirectory constructs an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		sessions: make(map[string]*Session),
		profiles: make(map[string]proto.User),
	}
}

// Bind points the name at the session. A later bind under the same
// name silently supersedes the previous session's entry.
func (d *Directory) Bind(name string, s *Session) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.sessions[name] = s
}

// Lookup returns the active session for a name, or nil.
func (d *Directory) Lookup(name string) *Session {
	d.mx.RLock()
	defer d.mx.RUnlock()
	return d.sessions[name]
}

// Release removes the name only if it is still bound to the given
// session, so a superseded session cannot purge its successor.
// Returns true when the entry was actually removed.
func (d *Directory) Release(name string, s *Session) bool {
	d.mx.Lock()
	defer d.mx.Unlock()

	if d.sessions[name] != s {
		return false
	}
	delete(d.sessions, name)
	delete(d.profiles, name)
	return true
}

// SetProfile stores the last-known profile for a name.
func (d *Directory) SetProfile(u proto.User) {
	if u.Name == "" {
		return
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.profiles[u.Name] = u
}

// Profile returns the last-known profile for a name. When no profile
// was ever registered it degrades to a minimal identity.
func (d *Directory) Profile(name string) proto.User {
	d.mx.RLock()
	defer d.mx.RUnlock()

	if u, ok := d.profiles[name]; ok {
		return u
	}
	return proto.User{Name: name}
}

// Online returns the currently addressable users, sorted by name.
func (d *Directory) Online() []proto.User {
	d.mx.RLock()
	defer d.mx.RUnlock()

	users := make([]proto.User, 0, len(d.sessions))
	for name := range d.sessions {
		if u, ok := d.profiles[name]; ok {
			users = append(users, u)
			continue
		}
		users = append(users, proto.User{Name: name})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users
}
