package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/shopnest/internal/apperror"
	"github.com/mmeshcher/shopnest/internal/mailer"
	"github.com/mmeshcher/shopnest/internal/model"
	"github.com/mmeshcher/shopnest/internal/repository"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72
)

var bcryptCost = bcrypt.DefaultCost

var defaultAvatar = model.Image{
	PublicID: "avatars/default",
	URL:      "/static/avatars/default.png",
}

// RegisterInput содержит данные регистрации.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Avatar   *model.Image
}

// RegisterUser создаёт учётную запись с ролью user.
func (s *Service) RegisterUser(ctx context.Context, in RegisterInput) (*model.User, error) {
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	avatar := defaultAvatar
	if in.Avatar != nil {
		avatar = *in.Avatar
	}

	u := &model.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Avatar:       avatar,
		Role:         model.RoleUser,
		CreatedAt:    s.now(),
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, userStoreError(err)
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID.String()))
	return u, nil
}

// AuthenticateUser проверяет email и пароль и возвращает пользователя.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, apperror.Validation("Please enter email & password")
	}

	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthorized("Invalid Email or Password")
		}
		return nil, apperror.Internal("Failed to load user", err)
	}

	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return nil, apperror.Unauthorized("Invalid Email or Password")
	}

	return u, nil
}

// ForgotPassword выпускает токен восстановления пароля и отправляет ссылку на email.
// В хранилище попадает только sha256 от токена.
func (s *Service) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return mapStoreError(err, "User not found", "Failed to load user")
	}

	raw, err := newResetToken()
	if err != nil {
		return apperror.Internal("Failed to generate reset token", err)
	}

	expire := s.now().Add(s.opts.ResetTokenTTL)
	u.ResetPasswordToken = hashResetToken(raw)
	u.ResetPasswordExpire = &expire

	if err := s.repo.SaveUser(ctx, u, repository.Relaxed); err != nil {
		return mapStoreError(err, "User not found", "Failed to save user")
	}

	resetURL := strings.TrimRight(resetURLBase, "/") + "/" + raw
	msg := mailer.Message{
		To:      u.Email,
		Subject: "ShopNest Password Recovery",
		Text:    fmt.Sprintf("Your password reset token is:\n\n%s\n\nIf you have not requested this email, please ignore it.", resetURL),
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("send reset email", zap.String("user_id", u.ID.String()), zap.Error(err))

		u.ClearResetToken()
		if saveErr := s.repo.SaveUser(ctx, u, repository.Relaxed); saveErr != nil {
			s.logger.Error("clear reset token", zap.String("user_id", u.ID.String()), zap.Error(saveErr))
		}
		return apperror.Internal("Failed to send reset email", err)
	}

	return nil
}

// ResetPassword задаёт новый пароль по действующему токену восстановления.
func (s *Service) ResetPassword(ctx context.Context, rawToken, password, confirm string) (*model.User, error) {
	u, err := s.repo.GetUserByResetToken(ctx, hashResetToken(rawToken), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Validation("Password reset token is invalid or has been expired")
		}
		return nil, apperror.Internal("Failed to load user", err)
	}

	if password != confirm {
		return nil, apperror.Conflict("Password does not match")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	u.PasswordHash = hash
	u.ClearResetToken()

	if err := s.repo.SaveUser(ctx, u, repository.Validated); err != nil {
		return nil, userStoreError(err)
	}
	return u, nil
}

// GetUserDetails возвращает профиль текущего пользователя.
func (s *Service) GetUserDetails(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "User not found", "Failed to load user")
	}
	return u, nil
}

// UpdatePassword меняет пароль после проверки текущего.
func (s *Service) UpdatePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword, confirm string) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "User not found", "Failed to load user")
	}

	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(oldPassword)) != nil {
		return nil, apperror.Conflict("Old password is incorrect")
	}
	if newPassword != confirm {
		return nil, apperror.Conflict("Password does not match")
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash

	if err := s.repo.SaveUser(ctx, u, repository.Validated); err != nil {
		return nil, userStoreError(err)
	}
	return u, nil
}

// ProfileInput содержит изменяемые поля профиля.
type ProfileInput struct {
	Name   string
	Email  string
	Avatar *model.Image
}

// UpdateProfile меняет имя, email и аватар пользователя.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileInput) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "User not found", "Failed to load user")
	}

	u.Name = in.Name
	u.Email = normalizeEmail(in.Email)
	if in.Avatar != nil {
		u.Avatar = *in.Avatar
	}

	if err := s.repo.SaveUser(ctx, u, repository.Validated); err != nil {
		return nil, userStoreError(err)
	}
	return u, nil
}

// ListUsers возвращает всех пользователей.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, apperror.Internal("Failed to load users", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "User not found with id: "+id.String(), "Failed to load user")
	}
	return u, nil
}

// RoleInput содержит изменения пользователя администратором.
type RoleInput struct {
	Name  string
	Email string
	Role  string
}

// UpdateUserRole меняет имя, email и роль пользователя.
func (s *Service) UpdateUserRole(ctx context.Context, id uuid.UUID, in RoleInput) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "User not found with id: "+id.String(), "Failed to load user")
	}

	u.Name = in.Name
	u.Email = normalizeEmail(in.Email)
	u.Role = in.Role

	if err := s.repo.SaveUser(ctx, u, repository.Validated); err != nil {
		return nil, userStoreError(err)
	}
	return u, nil
}

// DeleteUser удаляет пользователя.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.DeleteUser(ctx, id)
	if err != nil {
		return apperror.Internal("Failed to delete user", err)
	}
	if n == 0 {
		return apperror.NotFound("User not found with id: " + id.String())
	}
	return nil
}

// StartResetTokenCleanup периодически стирает просроченные токены восстановления пароля.
// Работает до отмены ctx.
func (s *Service) StartResetTokenCleanup(ctx context.Context) {
	ticker := time.NewTicker(s.opts.ResetCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.clearExpiredResetTokens(ctx)
		}
	}
}

func (s *Service) clearExpiredResetTokens(ctx context.Context) {
	n, err := s.repo.ClearExpiredResetTokens(ctx, s.now())
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("clear expired reset tokens", zap.Error(err))
		}
		return
	}
	if n > 0 {
		resetTokensCleared.Add(float64(n))
		s.logger.Info("expired reset tokens cleared", zap.Int64("count", n))
	}
}

func hashPassword(password string) ([]byte, error) {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return nil, apperror.Validation(fmt.Sprintf("Password should be between %d and %d characters", minPasswordLength, maxPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, apperror.Internal("Failed to hash password", err)
	}
	return hash, nil
}

func newResetToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func userStoreError(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperror.Conflict("Duplicate email entered")
	}
	return mapStoreError(err, "User not found", "Failed to save user")
}
