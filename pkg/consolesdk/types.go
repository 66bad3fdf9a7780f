package consolesdk

// ============================================================================
// Auth Types
// ============================================================================

// TokenResponse is the body returned by GET /v1/auth/token/{kid}.
type TokenResponse struct {
	// Token is the opaque bearer credential
	Token string `json:"token"`
}

// ============================================================================
// User Types
// ============================================================================

// Role names accepted by the sales service.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// UserAccount is a user record as served by the sales service.
type UserAccount struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Department  string   `json:"department,omitempty"`
	Enabled     bool     `json:"enabled"`
	DateCreated string   `json:"dateCreated"`
	DateUpdated string   `json:"dateUpdated"`
}

// NewUser contains the data needed to create a user account.
type NewUser struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Roles           []string `json:"roles"`
	Department      string   `json:"department,omitempty"`
	Password        string   `json:"password"`
	PasswordConfirm string   `json:"passwordConfirm"`
}

// UpdateUser contains the fields to change on a user account. Nil fields are
// left untouched by the sales service.
type UpdateUser struct {
	Name            *string  `json:"name,omitempty"`
	Email           *string  `json:"email,omitempty"`
	Roles           []string `json:"roles,omitempty"`
	Department      *string  `json:"department,omitempty"`
	Password        *string  `json:"password,omitempty"`
	PasswordConfirm *string  `json:"passwordConfirm,omitempty"`
	Enabled         *bool    `json:"enabled,omitempty"`
}
