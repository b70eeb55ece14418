package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jaylondental/clinic-api/internal/auth"
	"github.com/jaylondental/clinic-api/pkg/logging"
)

var tracer = otel.Tracer("clinic.internal.users")

const birthdayLayout = "2006-01-02"

// repository is what the handler needs from the account store.
type repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByVerificationToken(ctx context.Context, token string) (*User, error)
	GetByResetToken(ctx context.Context, token string) (*User, error)
	List(ctx context.Context) ([]User, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
	SetResetToken(ctx context.Context, id uuid.UUID, token string, issued time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, p ProfileUpdate) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// mailer sends the account lifecycle emails. Failures here propagate to the
// caller so a signup with an undeliverable verification mail fails loudly.
type mailer interface {
	SendVerification(ctx context.Context, to, name, link string) error
	SendPasswordReset(ctx context.Context, to, name, link string) error
}

// sessions issues and revokes login sessions.
type sessions interface {
	Create(ctx context.Context, userID uuid.UUID, role auth.Role) (*auth.Session, error)
	Delete(ctx context.Context, token string) error
}

// Handler handles HTTP requests for accounts and authentication.
type Handler struct {
	repo     repository
	mailer   mailer
	sessions sessions
	baseURL  string
	logger   *logging.Logger
	now      func() time.Time
}

// NewHandler creates an account handler. baseURL is the public origin used in
// verification and reset links.
func NewHandler(repo repository, mailer mailer, sessions sessions, baseURL string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:     repo,
		mailer:   mailer,
		sessions: sessions,
		baseURL:  baseURL,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register handles POST /register. The account starts unverified and a
// confirmation link is emailed.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "users.Register")
	defer span.End()

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	birthday, err := time.Parse(birthdayLayout, req.Birthday)
	if err != nil {
		http.Error(w, "invalid birthday, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		http.Error(w, "registration failed", http.StatusInternalServerError)
		return
	}

	u := &User{
		FirstName:                req.FirstName,
		LastName:                 req.LastName,
		Email:                    req.Email,
		PasswordHash:             hash,
		PhoneNumber:              req.PhoneNumber,
		Sex:                      req.Sex,
		CurrentAddress:           req.CurrentAddress,
		Birthday:                 birthday,
		Age:                      req.Age,
		VerificationToken:        auth.NewToken(),
		VerificationTokenCreated: h.now(),
	}
	if err := h.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.logger.Error("failed to create user", "error", err)
		http.Error(w, "registration failed", http.StatusInternalServerError)
		return
	}
	span.SetAttributes(attribute.String("user.id", u.ID.String()))

	link := h.baseURL + "/verify-email?token=" + url.QueryEscape(u.VerificationToken)
	if err := h.mailer.SendVerification(ctx, u.Email, u.FullName(), link); err != nil {
		h.logger.Error("failed to send verification email", "error", err, "user_id", u.ID)
		http.Error(w, "failed to send verification email", http.StatusInternalServerError)
		return
	}

	h.logger.Info("user registered", "user_id", u.ID)
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "account created, check your email to verify your address",
	})
}

// VerifyEmail handles GET /verify-email?token=...
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, ErrTokenInvalid.Error(), http.StatusBadRequest)
		return
	}
	u, err := h.repo.GetByVerificationToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, ErrTokenInvalid.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to look up verification token", "error", err)
		http.Error(w, "verification failed", http.StatusInternalServerError)
		return
	}
	if TokenExpired(u.VerificationTokenCreated, h.now()) {
		http.Error(w, ErrTokenExpired.Error(), http.StatusGone)
		return
	}
	if err := h.repo.MarkVerified(r.Context(), u.ID); err != nil {
		h.logger.Error("failed to mark user verified", "error", err, "user_id", u.ID)
		http.Error(w, "verification failed", http.StatusInternalServerError)
		return
	}
	h.logger.Info("email verified", "user_id", u.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "email verified, you can now sign in"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /login and issues a session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "users.Login")
	defer span.End()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	u, err := h.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, ErrBadCredentials.Error(), http.StatusUnauthorized)
			return
		}
		h.logger.Error("failed to load user for login", "error", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		http.Error(w, ErrBadCredentials.Error(), http.StatusUnauthorized)
		return
	}
	if !u.EmailVerified {
		http.Error(w, ErrNotVerified.Error(), http.StatusForbidden)
		return
	}

	role := auth.RoleClient
	if u.IsAdmin {
		role = auth.RoleAdmin
	}
	sess, err := h.sessions.Create(ctx, u.ID, role)
	if err != nil {
		h.logger.Error("failed to create session", "error", err, "user_id", u.ID)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	span.SetAttributes(attribute.String("user.id", u.ID.String()), attribute.String("user.role", string(role)))

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.Info("user logged in", "user_id", u.ID, "role", role)
	writeJSON(w, http.StatusOK, map[string]any{
		"token": sess.Token,
		"role":  role,
		"user":  u,
	})
}

// Logout handles POST /logout, revoking the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromRequest(r)
	if token != "" {
		if err := h.sessions.Delete(r.Context(), token); err != nil {
			h.logger.Warn("failed to delete session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}

type resetRequestBody struct {
	Email string `json:"email"`
}

// RequestPasswordReset handles POST /password-reset. It always answers 200 so
// the endpoint cannot be used to probe which emails have accounts, but a
// delivery failure for a real account still surfaces as an error.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	u, err := h.repo.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]string{
				"message": "if that email has an account, a reset link has been sent",
			})
			return
		}
		h.logger.Error("failed to load user for reset", "error", err)
		http.Error(w, "reset failed", http.StatusInternalServerError)
		return
	}

	token := auth.NewToken()
	if err := h.repo.SetResetToken(r.Context(), u.ID, token, h.now()); err != nil {
		h.logger.Error("failed to store reset token", "error", err, "user_id", u.ID)
		http.Error(w, "reset failed", http.StatusInternalServerError)
		return
	}
	link := h.baseURL + "/reset-password?token=" + url.QueryEscape(token)
	if err := h.mailer.SendPasswordReset(r.Context(), u.Email, u.FullName(), link); err != nil {
		h.logger.Error("failed to send reset email", "error", err, "user_id", u.ID)
		http.Error(w, "failed to send reset email", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "if that email has an account, a reset link has been sent",
	})
}

type resetConfirmBody struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ConfirmPasswordReset handles POST /password-reset/confirm.
func (h *Handler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Password != req.ConfirmPassword {
		http.Error(w, ErrPasswordMismatch.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 {
		http.Error(w, ErrWeakPassword.Error(), http.StatusBadRequest)
		return
	}
	u, err := h.repo.GetByResetToken(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, ErrTokenInvalid.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to look up reset token", "error", err)
		http.Error(w, "reset failed", http.StatusInternalServerError)
		return
	}
	if TokenExpired(u.PasswordResetTokenCreated, h.now()) {
		http.Error(w, ErrTokenExpired.Error(), http.StatusGone)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		http.Error(w, "reset failed", http.StatusInternalServerError)
		return
	}
	if err := h.repo.UpdatePassword(r.Context(), u.ID, hash); err != nil {
		h.logger.Error("failed to update password", "error", err, "user_id", u.ID)
		http.Error(w, "reset failed", http.StatusInternalServerError)
		return
	}
	h.logger.Info("password reset", "user_id", u.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated, you can now sign in"})
}

// Me handles GET /me for the signed-in user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	u, err := h.repo.GetByID(r.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load profile", "error", err, "user_id", sess.UserID)
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateMe handles PUT /me.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	var p ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if p.FirstName == "" || p.LastName == "" {
		http.Error(w, ErrMissingFields.Error(), http.StatusBadRequest)
		return
	}
	if err := h.repo.UpdateProfile(r.Context(), sess.UserID, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update profile", "error", err, "user_id", sess.UserID)
		http.Error(w, "failed to update profile", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /admin/users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		http.Error(w, "failed to list users", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /admin/users/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	u, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load user", "error", err, "user_id", id)
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// CreateUser handles POST /admin/users. Accounts created by staff are
// verified immediately and no confirmation email is sent.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	birthday, err := time.Parse(birthdayLayout, req.Birthday)
	if err != nil {
		http.Error(w, "invalid birthday, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	u := &User{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		PasswordHash:   hash,
		PhoneNumber:    req.PhoneNumber,
		Sex:            req.Sex,
		CurrentAddress: req.CurrentAddress,
		Birthday:       birthday,
		Age:            req.Age,
		EmailVerified:  true,
	}
	if err := h.repo.Create(r.Context(), u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.logger.Error("failed to create user", "error", err)
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	h.logger.Info("user created by admin", "user_id", u.ID)
	writeJSON(w, http.StatusCreated, u)
}

// UpdateUser handles PUT /admin/users/{id}.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	var p ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if p.FirstName == "" || p.LastName == "" {
		http.Error(w, ErrMissingFields.Error(), http.StatusBadRequest)
		return
	}
	if err := h.repo.UpdateProfile(r.Context(), id, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update user", "error", err, "user_id", id)
		http.Error(w, "failed to update user", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /admin/users/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete user", "error", err, "user_id", id)
		http.Error(w, "failed to delete user", http.StatusInternalServerError)
		return
	}
	h.logger.Info("user deleted", "user_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
