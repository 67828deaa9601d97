package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"content-eval/internal/config"
	"content-eval/internal/dto"
	"content-eval/internal/models"
	"content-eval/internal/repository"
	"content-eval/internal/utils"
)

// ErrInvalidCredentials login rejected.
var ErrInvalidCredentials = errors.New("invalid username or password")

// AuthService evaluator login.
type AuthService struct {
	userRepo   *repository.UserRepository
	jwtManager *utils.JWTManager
}

func NewAuthService(userRepo *repository.UserRepository, jwtManager *utils.JWTManager) *AuthService {
	return &AuthService{userRepo: userRepo, jwtManager: jwtManager}
}

// Login verifies the password and issues a session token.
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByUsername(req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := utils.CheckPassword(req.Password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User: dto.UserInfo{
			ID:       user.ID,
			Username: user.Username,
			IsActive: user.IsActive,
		},
	}, nil
}

// GetMe loads the current user.
func (s *AuthService) GetMe(userID uint) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	return &dto.UserInfo{ID: user.ID, Username: user.Username, IsActive: user.IsActive}, nil
}

// InitEvaluator creates the configured evaluator account on first start.
// The configured password may be plain text or an existing bcrypt hash.
func (s *AuthService) InitEvaluator(cfg *config.AuthConfig) error {
	exists, err := s.userRepo.ExistsByUsername(cfg.Evaluator.Username)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if exists {
		return nil
	}

	hash := cfg.Evaluator.Password
	if !strings.HasPrefix(hash, "$2a$") && !strings.HasPrefix(hash, "$2b$") {
		hash, err = utils.HashPassword(cfg.Evaluator.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
	}

	user := &models.User{
		Username:     cfg.Evaluator.Username,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	logrus.WithField("username", user.Username).Info("evaluator account created")
	return nil
}
