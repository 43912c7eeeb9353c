package identity

// Identity is the signed-in user as the app sees it: backend profile
// fields merged over provider-supplied fields, backend winning on
// conflict. It contains facts only, no auth state.
type Identity struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"photoURL,omitempty"`
	Phone     string `json:"phone,omitempty"`
	IsAdmin   bool   `json:"isAdmin,omitempty"`
}

// Merge overlays non-empty backend fields on top of i and returns the
// result. The receiver is not modified.
func (i Identity) Merge(backend Identity) Identity {
	out := i
	if backend.ID != "" {
		out.ID = backend.ID
	}
	if backend.Name != "" {
		out.Name = backend.Name
	}
	if backend.Email != "" {
		out.Email = backend.Email
	}
	if backend.AvatarURL != "" {
		out.AvatarURL = backend.AvatarURL
	}
	if backend.Phone != "" {
		out.Phone = backend.Phone
	}
	if backend.IsAdmin {
		out.IsAdmin = true
	}
	return out
}
