package models

// Authority is a municipal staff identity allowed to view and update complaints.
// Identities are static reference data loaded from the credentials file.
type Authority struct {
	AuthorityID  string `json:"authority_id"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role,omitempty"`
}

// LoginRequest is the body of POST /authority/login.
type LoginRequest struct {
	AuthorityID string `json:"authority_id" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
