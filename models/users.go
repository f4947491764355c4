package models

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User - профиль пользователя, как его возвращает /api/users/login
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Image         string    `json:"image,omitempty"`
	Role          Role      `json:"role"`
	Status        string    `json:"status,omitempty"`
	AuthProvider  string    `json:"auth_provider,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     Timestamp `json:"created_at"`
	UpdatedAt     Timestamp `json:"updated_at"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	Token             string `json:"token"`
	User              *User  `json:"user,omitempty"`
	NeedsVerification bool   `json:"needs_verification,omitempty"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// StatusResponse - ответы /api/users/* вида {"success": ..., "message": ...}
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
