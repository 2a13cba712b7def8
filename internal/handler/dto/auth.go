package dto

// CredentialsRequest is the body of POST /api/auth/register and /api/auth/login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token string `json:"token"`
}
