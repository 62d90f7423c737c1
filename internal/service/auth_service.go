package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"regexp"
	"time"

	"ischolar/internal/mailer"
	"ischolar/internal/model"
	"ischolar/internal/repository"
	"ischolar/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type SignupRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=6"`
	FirstName     string `json:"first_name" binding:"required"`
	LastName      string `json:"last_name" binding:"required"`
	MiddleInitial string `json:"middle_initial"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token        string          `json:"token"`
	RefreshToken string          `json:"refresh_token"`
	Profile      ProfileResponse `json:"profile"`
}

// Token lifetimes mirrored by the cookie max-ages in the middleware
const (
	accessTokenTTL      = 24 * time.Hour
	refreshTokenTTL     = 7 * 24 * time.Hour
	pendingUserTokenTTL = 24 * time.Hour
)

// --- Interface ---

// AuthService owns sign-up with email confirmation, PendingUser promotion,
// and local-credential login with JWT issuance.
type AuthService interface {
	Signup(ctx context.Context, req SignupRequest) error
	VerifyEmail(ctx context.Context, token string) (*ProfileResponse, error)
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	profiles      repository.ProfileRepository
	pendingUsers  repository.PendingUserRepository
	refreshTokens repository.RefreshTokenRepository
	profileSvc    ProfileService
	mail          mailer.Mailer
	txManager     repository.TransactionManager
}

func NewAuthService(
	profiles repository.ProfileRepository,
	pendingUsers repository.PendingUserRepository,
	refreshTokens repository.RefreshTokenRepository,
	profileSvc ProfileService,
	mail mailer.Mailer,
	txManager repository.TransactionManager,
) AuthService {
	return &authService{
		profiles:      profiles,
		pendingUsers:  pendingUsers,
		refreshTokens: refreshTokens,
		profileSvc:    profileSvc,
		mail:          mail,
		txManager:     txManager,
	}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// --- Implementation ---

// Signup parks the sign-up data as a PendingUser and emails the single-use
// confirmation token. The insert and the email send share one transaction:
// if the mail cannot be delivered the PendingUser is rolled back and the
// whole request fails.
func (s *authService) Signup(ctx context.Context, req SignupRequest) error {
	if !emailRegex.MatchString(req.Email) {
		return apperr.New(apperr.KindValidation, "Invalid email format")
	}
	if len(req.Password) < 6 {
		return apperr.New(apperr.KindValidation, "Password must be at least 6 characters")
	}

	if _, err := s.profiles.GetByEmail(ctx, req.Email); err == nil {
		return apperr.New(apperr.KindConflict, "Email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Wrap(apperr.KindUnknown, "Failed to hash password", err)
	}

	token := randomToken()
	pending := model.PendingUser{
		Email:             req.Email,
		Password:          string(hashed),
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		MiddleInitial:     req.MiddleInitial,
		VerificationToken: token,
		TokenExpiry:       time.Now().Add(pendingUserTokenTTL),
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if upsertErr := s.pendingUsers.Upsert(txCtx, &pending); upsertErr != nil {
			return apperr.Wrap(apperr.KindUnknown, "Failed to create account", upsertErr)
		}
		if mailErr := s.mail.SendVerificationEmail(req.Email, req.FirstName, token); mailErr != nil {
			return apperr.Wrap(apperr.KindExternal, "Failed to send verification email", mailErr)
		}
		return nil
	})
}

// VerifyEmail consumes the token exactly once: it promotes the PendingUser
// to a Profile and deletes the pending row in the same transaction.
func (s *authService) VerifyEmail(ctx context.Context, token string) (*ProfileResponse, error) {
	if token == "" {
		return nil, apperr.New(apperr.KindValidation, "Verification token is required")
	}

	pending, err := s.pendingUsers.GetByToken(ctx, token)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "Invalid verification token")
	}

	if pending.TokenExpiry.Before(time.Now()) {
		return nil, apperr.New(apperr.KindValidation, "Verification token has expired. Please sign up again")
	}

	if _, err := s.profiles.GetByEmail(ctx, pending.Email); err == nil {
		// Stale pending row for an account that already exists
		_ = s.pendingUsers.Delete(ctx, pending.ID)
		return nil, apperr.New(apperr.KindConflict, "An account with this email already exists. Please sign in")
	}

	now := time.Now()
	profile := model.Profile{
		UserID:             randomToken(),
		Email:              pending.Email,
		Password:           pending.Password,
		FirstName:          pending.FirstName,
		LastName:           pending.LastName,
		MiddleInitial:      pending.MiddleInitial,
		Role:               model.RoleStudent,
		VerificationStatus: model.VerificationPending,
		EmailVerifiedAt:    &now,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.profiles.Create(txCtx, &profile); createErr != nil {
			if errors.Is(createErr, gorm.ErrDuplicatedKey) {
				return apperr.New(apperr.KindConflict, "An account with this email already exists. Please sign in")
			}
			return apperr.Wrap(apperr.KindUnknown, "Failed to create account", createErr)
		}
		if delErr := s.pendingUsers.Delete(txCtx, pending.ID); delErr != nil {
			return apperr.Wrap(apperr.KindUnknown, "Failed to finalize account", delErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toProfileResponse(&profile)
	return &resp, nil
}

// ResendVerification reissues the token for an existing pending sign-up
func (s *authService) ResendVerification(ctx context.Context, email string) error {
	pending, err := s.pendingUsers.GetByEmail(ctx, email)
	if err != nil {
		return apperr.New(apperr.KindNotFound, "No pending sign-up found for this email")
	}

	pending.VerificationToken = randomToken()
	pending.TokenExpiry = time.Now().Add(pendingUserTokenTTL)

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if upsertErr := s.pendingUsers.Upsert(txCtx, pending); upsertErr != nil {
			return apperr.Wrap(apperr.KindUnknown, "Failed to reissue verification token", upsertErr)
		}
		if mailErr := s.mail.SendVerificationEmail(pending.Email, pending.FirstName, pending.VerificationToken); mailErr != nil {
			return apperr.Wrap(apperr.KindExternal, "Failed to send verification email", mailErr)
		}
		return nil
	})
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	profile, err := s.profiles.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.New(apperr.KindUnauthorized, "Invalid email or password")
	}

	if profile.Password == "" {
		return nil, apperr.New(apperr.KindUnauthorized, "Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.Password), []byte(req.Password)); err != nil {
		return nil, apperr.New(apperr.KindUnauthorized, "Invalid email or password")
	}

	// Staff accounts are reconciled to VERIFIED on the way in
	if err := s.profileSvc.AutoVerifyStaffAccount(ctx, profile.UserID); err == nil && model.IsStaffRole(profile.Role) {
		profile.VerificationStatus = model.VerificationVerified
	}

	return s.issueTokens(ctx, profile)
}

// Refresh rotates the refresh token and issues a fresh access token
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	stored, err := s.refreshTokens.GetByToken(ctx, refreshToken)
	if err != nil {
		return nil, apperr.New(apperr.KindUnauthorized, "Invalid refresh token")
	}
	if stored.ExpiresAt.Before(time.Now()) {
		_ = s.refreshTokens.DeleteByToken(ctx, refreshToken)
		return nil, apperr.New(apperr.KindUnauthorized, "Refresh token has expired")
	}

	profile, err := s.profiles.GetByID(ctx, stored.ProfileID)
	if err != nil {
		return nil, apperr.New(apperr.KindUnauthorized, "Invalid refresh token")
	}

	if err := s.refreshTokens.DeleteByToken(ctx, refreshToken); err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "Failed to rotate refresh token", err)
	}

	return s.issueTokens(ctx, profile)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.refreshTokens.DeleteByToken(ctx, refreshToken)
}

// --- Helpers ---

func (s *authService) issueTokens(ctx context.Context, profile *model.Profile) (*TokenResponse, error) {
	claims := jwt.MapClaims{
		"sub":  profile.UserID,
		"role": profile.Role,
		"exp":  time.Now().Add(accessTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "Failed to generate token", err)
	}

	refresh := model.RefreshToken{
		ProfileID: profile.ID,
		Token:     randomToken(),
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}
	if err := s.refreshTokens.Create(ctx, &refresh); err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "Failed to store refresh token", err)
	}

	return &TokenResponse{
		Token:        signed,
		RefreshToken: refresh.Token,
		Profile:      toProfileResponse(profile),
	}, nil
}

func randomToken() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
