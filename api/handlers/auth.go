package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"avocare/api/middleware"
	"avocare/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
)

type account struct {
	user         models.User
	passwordHash string
}

var errEmailTaken = errors.New("email is already registered")

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

func checkPassword(stored, password string) bool {
	parts := strings.SplitN(stored, "$", 2)
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// AddUser заводит пользователя напрямую, минуя регистрацию
func (b *Backend) AddUser(name, email, password string, role models.Role, verified bool) (models.User, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if role == "" {
		role = models.RoleUser
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.byEmail[email]; ok {
		return models.User{}, errEmailTaken
	}
	now := b.now().UTC()
	u := models.User{
		ID:            uuid.NewString(),
		Name:          name,
		Email:         email,
		Role:          role,
		Status:        "active",
		AuthProvider:  "email",
		EmailVerified: verified,
		CreatedAt:     models.NewTimestamp(now),
		UpdatedAt:     models.NewTimestamp(now),
	}
	b.users[u.ID] = &account{user: u, passwordHash: hash}
	b.byEmail[email] = u.ID
	return u, nil
}

// VerifyEmail отмечает почту подтвержденной (в настоящем сервере - переход по ссылке из письма)
func (b *Backend) VerifyEmail(email string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.byEmail[strings.ToLower(email)]
	if !ok {
		return false
	}
	b.users[id].user.EmailVerified = true
	return true
}

// TokenFor выдает токен пользователю с указанным id
func (b *Backend) TokenFor(userID string) (string, error) {
	b.mu.Lock()
	acc, ok := b.users[userID]
	b.mu.Unlock()
	if !ok {
		return "", errors.New("unknown user")
	}
	return middleware.IssueToken(b.secret, userID, string(acc.user.Role), b.now(), b.tokenTTL)
}

func (b *Backend) lookupUser(id string) (models.User, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.users[id]
	if !ok {
		return models.User{}, false
	}
	return acc.user, true
}

func statusError(c *gin.Context, status int, message string) {
	c.JSON(status, models.StatusResponse{Success: false, Message: message})
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (b *Backend) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		statusError(c, http.StatusBadRequest, "No data provided")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	switch {
	case req.Email == "":
		statusError(c, http.StatusBadRequest, "Email is required.")
		return
	case req.Password == "":
		statusError(c, http.StatusBadRequest, "Password is required.")
		return
	case !validEmail(req.Email):
		statusError(c, http.StatusBadRequest, "Invalid email format.")
		return
	case len(req.Password) < 6:
		statusError(c, http.StatusBadRequest, "Password must be at least 6 characters.")
		return
	}

	user, err := b.AddUser(strings.TrimSpace(req.Name), req.Email, req.Password, models.RoleUser, false)
	if errors.Is(err, errEmailTaken) {
		statusError(c, http.StatusConflict, "Email is already registered.")
		return
	}
	if err != nil {
		statusError(c, http.StatusInternalServerError, err.Error())
		return
	}
	b.log.Infow("user registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"user":    user,
		"message": "Registration successful! Please check your email to verify your account.",
	})
}

func (b *Backend) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		statusError(c, http.StatusBadRequest, "No data provided")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		statusError(c, http.StatusBadRequest, "Email is required")
		return
	}
	if req.Password == "" {
		statusError(c, http.StatusBadRequest, "Password is required")
		return
	}

	b.mu.Lock()
	id, ok := b.byEmail[email]
	var acc account
	if ok {
		acc = *b.users[id]
	}
	b.mu.Unlock()

	if !ok {
		statusError(c, http.StatusNotFound, "No account found with this email")
		return
	}
	if !checkPassword(acc.passwordHash, req.Password) {
		statusError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if !acc.user.EmailVerified {
		c.JSON(http.StatusForbidden, models.LoginResponse{
			Success:           false,
			Message:           "Please verify your email before logging in. Check your inbox for the verification link.",
			NeedsVerification: true,
		})
		return
	}
	if acc.user.Status != "active" {
		statusError(c, http.StatusForbidden, "Account is not active. Please contact administrator.")
		return
	}

	token, err := middleware.IssueToken(b.secret, acc.user.ID, string(acc.user.Role), b.now(), b.tokenTTL)
	if err != nil {
		statusError(c, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}
	user := acc.user
	c.JSON(http.StatusOK, models.LoginResponse{
		Success: true,
		Message: "Login successful",
		Token:   token,
		User:    &user,
	})
}

func (b *Backend) ResendVerification(c *gin.Context) {
	var req models.ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		statusError(c, http.StatusBadRequest, "Email is required")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	b.mu.Lock()
	id, ok := b.byEmail[email]
	verified := ok && b.users[id].user.EmailVerified
	b.mu.Unlock()

	switch {
	case !ok:
		statusError(c, http.StatusNotFound, "User not found")
	case verified:
		statusError(c, http.StatusBadRequest, "Email is already verified")
	default:
		c.JSON(http.StatusOK, models.StatusResponse{Success: true, Message: "Verification email sent. Please check your inbox."})
	}
}
