package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/avc/commerce-backoffice/internal/domain"
	"github.com/avc/commerce-backoffice/internal/utils/jwt"
	"github.com/avc/commerce-backoffice/internal/utils/password"
)

// AuthService аутентифицирует пользователей админ-панели и выдает
// сессионные токены
type AuthService struct {
	userRepo       domain.UserRepository
	passwordHasher password.Hasher
	jwtManager     *jwt.Manager
}

// NewAuthService создает новый AuthService
func NewAuthService(
	userRepo domain.UserRepository,
	passwordHasher password.Hasher,
	jwtManager *jwt.Manager,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		passwordHasher: passwordHasher,
		jwtManager:     jwtManager,
	}
}

// Login аутентифицирует пользователя и возвращает сессионный токен
func (s *AuthService) Login(ctx context.Context, login, userPassword string) (string, *domain.User, error) {
	// Валидация входных данных
	if login == "" || userPassword == "" {
		return "", nil, domain.NewValidationError("login", "login and password are required")
	}

	// Получение пользователя по логину
	user, err := s.userRepo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("auth service: failed to get user %q: %w", login, err)
	}

	// Проверка пароля
	if err := s.passwordHasher.Check(user.PasswordHash, userPassword); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	// Генерация сессионного токена
	token, err := s.jwtManager.Generate(user.ID, string(user.Role))
	if err != nil {
		return "", nil, fmt.Errorf("auth service: failed to generate token for user %d: %w", user.ID, err)
	}

	return token, user, nil
}

// GetUser получает пользователя по ID (для /auth/me)
func (s *AuthService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("auth service: failed to get user %d: %w", id, err)
	}

	return user, nil
}

// EnsureUser создает пользователя, если он не существует.
// Используется для начального администратора при старте приложения.
func (s *AuthService) EnsureUser(ctx context.Context, login, userPassword string, role domain.UserRole) error {
	if login == "" || userPassword == "" {
		return domain.NewValidationError("login", "login and password are required")
	}

	hash, err := s.passwordHasher.Hash(userPassword)
	if err != nil {
		return fmt.Errorf("auth service: failed to hash password for user %q: %w", login, err)
	}

	_, err = s.userRepo.CreateUser(ctx, login, hash, role)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil
		}
		return fmt.Errorf("auth service: failed to create user %q: %w", login, err)
	}

	return nil
}
