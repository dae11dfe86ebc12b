package domain

// SessionUser is the authenticated identity carried inside the sealed session
// token. It is created once at the auth callback and read-only afterward; the
// client-held token is the only copy, there is no server-side session store.
type SessionUser struct {
	ID            string   `json:"id"`
	Username      string   `json:"username"`
	Avatar        string   `json:"avatar,omitempty"`
	Discriminator string   `json:"discriminator,omitempty"`
	AccessToken   string   `json:"accessToken"`
	Roles         []string `json:"roles,omitempty"`
}

// HasRole reports whether the user's role set contains roleID.
func (u *SessionUser) HasRole(roleID string) bool {
	for _, r := range u.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}
