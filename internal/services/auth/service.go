package auth

import (
	"context"
	"errors"
	"log"

	"payguard/internal/models"
	"payguard/internal/repositories"
	"payguard/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	Login(ctx context.Context, email, password string) (*models.Operator, string, string, error)
	RefreshTokens(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, operatorID uint) error
	GetOperatorTokenVersion(ctx context.Context, operatorID uint) (int, error)
}

type service struct {
	operatorRepo repositories.OperatorRepository
}

func NewService(operatorRepo repositories.OperatorRepository) Service {
	if operatorRepo == nil {
		panic("operator repository is required")
	}
	return &service{operatorRepo: operatorRepo}
}

func (s *service) Login(ctx context.Context, email, password string) (*models.Operator, string, string, error) {
	op, err := s.operatorRepo.GetByEmail(ctx, email)
	if err != nil {
		log.Printf("Login failed: operator not found for %s", email)
		return nil, "", "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.Password), []byte(password)); err != nil {
		log.Printf("Login failed: incorrect password for operator %d", op.ID)
		return nil, "", "", errors.New("invalid credentials")
	}

	accessToken, refreshToken, err := utils.GenerateTokens(&models.OperatorClaims{
		OperatorID:   op.ID,
		Email:        op.Email,
		Role:         op.Role,
		Permissions:  models.GetDefaultPermissions(op.Role),
		TokenVersion: op.TokenVersion,
	})
	if err != nil {
		log.Println("Error generating tokens:", err)
		return nil, "", "", errors.New("error generating tokens")
	}

	return op, accessToken, refreshToken, nil
}

func (s *service) RefreshTokens(ctx context.Context, refreshToken string) (string, string, error) {
	_, claims, err := utils.ParseToken(refreshToken)
	if err != nil {
		return "", "", errors.New("invalid refresh token")
	}

	op, err := s.operatorRepo.GetByID(ctx, claims.OperatorID)
	if err != nil {
		return "", "", errors.New("operator not found")
	}

	if op.TokenVersion != claims.TokenVersion {
		return "", "", errors.New("token version mismatch")
	}

	return utils.GenerateTokens(&models.OperatorClaims{
		OperatorID:   op.ID,
		Email:        op.Email,
		Role:         op.Role,
		Permissions:  models.GetDefaultPermissions(op.Role),
		TokenVersion: op.TokenVersion,
	})
}

func (s *service) Logout(ctx context.Context, operatorID uint) error {
	return s.operatorRepo.IncrementTokenVersion(ctx, operatorID)
}

func (s *service) GetOperatorTokenVersion(ctx context.Context, operatorID uint) (int, error) {
	op, err := s.operatorRepo.GetByID(ctx, operatorID)
	if err != nil {
		return 0, err
	}
	return op.TokenVersion, nil
}
