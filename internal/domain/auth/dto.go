package auth

// LoginRequest for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

// ProviderRequest for POST /auth/provider
type ProviderRequest struct {
	ContinueURI string `json:"continueUri" validate:"omitempty,url"`
}

// CompleteRequest completes a provider sign-in without the callback redirect
type CompleteRequest struct {
	RequestURI string `json:"requestUri" validate:"required,url"`
	SessionID  string `json:"sessionId" validate:"required"`
}

// MeResponse for GET /auth/me
type MeResponse struct {
	User      Identity `json:"user"`
	ExpiresAt int64    `json:"expiresAt"`
}
