package models

// Identity is the authenticated user as reported by the identity provider.
type Identity struct {
	ID           string
	Email        string
	UserMetadata map[string]interface{}
}

// UserProfile is one row of the profile table.
type UserProfile struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
}
