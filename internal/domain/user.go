package domain

// RegisterRequest represents an account registration request
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents an account login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token and the account's participant
type LoginResponse struct {
	Token       string       `json:"token"`
	ExpiresAt   int64        `json:"expires_at"`
	Participant *Participant `json:"participant"`
}

// AuthClaims represents the verified contents of an access token
type AuthClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Iat   int64  `json:"iat"`
	Exp   int64  `json:"exp"`
}

// JoinRequest represents a join-table request
type JoinRequest struct {
	Name string `json:"name"`
}

// JoinResponse is returned after a participant joins a table
type JoinResponse struct {
	Participant  *Participant `json:"participant"`
	Table        *Table       `json:"table"`
	SessionToken string       `json:"session_token,omitempty"`
}

// CreateTableRequest represents a table creation request
type CreateTableRequest struct {
	Name string `json:"name"`
}

// CreateParticipantRequest represents a direct participant creation on a table
type CreateParticipantRequest struct {
	Name string `json:"name"`
}
