package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"musiclib/core/apperr"
	"musiclib/core/validation"
	"musiclib/logger"
	"musiclib/model"
	"musiclib/repository"
)

// Revoker remembers revoked token ids until they would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RegisterInput 注册请求
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=50"`
	Name     string `json:"name" validate:"required,min=2,max=50"`
}

// LoginInput 登录请求
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput 资料更新，字段为空表示不修改
type ProfileInput struct {
	Name   *string `json:"name" validate:"omitempty,min=2,max=50"`
	Avatar *string `json:"avatar" validate:"omitempty,max=1024"`
}

// Session is returned by register and login.
type Session struct {
	AccessToken string      `json:"accessToken"`
	User        *model.User `json:"user"`
}

// Service 认证服务
type Service struct {
	users   repository.UserRepository
	tokens  *TokenManager
	revoker Revoker
}

// NewService wires the auth service. revoker may be nil, in which case
// logout is stateless and tokens stay valid until they expire.
func NewService(users repository.UserRepository, tokens *TokenManager, revoker Revoker) *Service {
	return &Service{users: users, tokens: tokens, revoker: revoker}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and signs the user in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.ValidateStruct(&in); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("User with this email already exists")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Email: in.Email, Password: hash, Name: in.Name}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("User with this email already exists")
		}
		return nil, err
	}
	logger.Info("[Auth] user registered", logger.String("userId", user.ID))
	return s.session(user)
}

// Login checks credentials. Unknown email and wrong password give the same
// error.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.ValidateStruct(&in); err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || !CheckPasswordHash(in.Password, user.Password) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	return s.session(user)
}

func (s *Service) session(user *model.User) (*Session, error) {
	token, _, err := s.tokens.Generate(user)
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: token, User: user}, nil
}

// Authenticate resolves a bearer token to its claims, rejecting revoked
// tokens.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}
	if s.revoker != nil && claims.ID != "" {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			// Redis 不可用时放行
			logger.Warn("[Auth] revocation check failed", logger.ErrorField(err))
		} else if revoked {
			return nil, apperr.Unauthorized("Token has been revoked")
		}
	}
	return claims, nil
}

// Profile returns the current user.
func (s *Service) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Unauthorized("User not found")
	}
	return user, nil
}

// UpdateProfile changes name and/or avatar.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*model.User, error) {
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	if err := validation.ValidateStruct(&in); err != nil {
		return nil, err
	}
	if _, err := s.Profile(ctx, userID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Avatar != nil {
		fields["avatar"] = *in.Avatar
	}
	if err := s.users.UpdateProfile(ctx, userID, fields); err != nil {
		return nil, err
	}
	return s.Profile(ctx, userID)
}

// Logout revokes the token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if s.revoker == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := claims.TTL(time.Now())
	if ttl == 0 {
		return nil
	}
	return s.revoker.Revoke(ctx, claims.ID, ttl)
}
