package proto

import "encoding/json"

// Identity is the register_user payload. Older protocol versions send a
// bare name string, newer ones a full profile object; the variant is
// resolved once here so downstream code never re-inspects the shape.
type Identity struct {
	Name    string
	Profile *User
}

// Full reports whether the registration carried a profile worth
// broadcasting. A bare name registers routing only.
func (id Identity) Full() bool {
	return id.Profile != nil
}

// User returns the best available profile for the identity.
func (id Identity) User() User {
	if id.Profile != nil {
		return *id.Profile
	}
	return User{Name: id.Name}
}

func (id *Identity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		id.Name = name
		id.Profile = nil
		return nil
	}

	var profile User
	if err := json.Unmarshal(data, &profile); err != nil {
		return err
	}
	id.Name = profile.Name
	id.Profile = &profile
	return nil
}

func (id Identity) MarshalJSON() ([]byte, error) {
	if id.Profile != nil {
		return json.Marshal(id.Profile)
	}
	return json.Marshal(id.Name)
}
