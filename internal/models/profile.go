package models

import "time"

type Profile struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Religion  Religion  `json:"religion"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity is the caller on whose behalf an operation runs. A guest has no
// profile and nothing is persisted for it.
type Identity struct {
	ProfileID int64    `json:"profile_id,omitempty"`
	Username  string   `json:"username,omitempty"`
	Religion  Religion `json:"religion,omitempty"`
	Guest     bool     `json:"guest"`
}

// GuestIdentity is the explicit anonymous caller.
func GuestIdentity(religion Religion) Identity {
	if !religion.Valid() {
		religion = Buddhism
	}
	return Identity{Guest: true, Religion: religion, Username: "guest"}
}

// Owns reports whether two identities refer to the same caller. Guest
// resources are addressed by their unguessable id alone, so any guest owns
// any guest resource.
func (i Identity) Owns(other Identity) bool {
	if i.Guest || other.Guest {
		return i.Guest && other.Guest
	}
	return i.ProfileID == other.ProfileID
}
