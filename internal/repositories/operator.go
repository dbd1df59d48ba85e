package repositories

import (
	"context"
	stderrors "errors"
	"fmt"

	"payguard/internal/models"

	"gorm.io/gorm"
)

var ErrOperatorNotFound = stderrors.New("operator not found")

// OperatorRepository persists admin/reviewer identities.
type OperatorRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.Operator, error)
	GetByID(ctx context.Context, id uint) (*models.Operator, error)
	Create(ctx context.Context, op *models.Operator) error
	IncrementTokenVersion(ctx context.Context, id uint) error
}

type operatorRepository struct {
	db *gorm.DB
}

func NewOperatorRepository(db *gorm.DB) OperatorRepository {
	return &operatorRepository{db: db}
}

func (r *operatorRepository) GetByEmail(ctx context.Context, email string) (*models.Operator, error) {
	var op models.Operator
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&op).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOperatorNotFound
		}
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}
	return &op, nil
}

func (r *operatorRepository) GetByID(ctx context.Context, id uint) (*models.Operator, error) {
	var op models.Operator
	err := r.db.WithContext(ctx).First(&op, id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOperatorNotFound
		}
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}
	return &op, nil
}

func (r *operatorRepository) Create(ctx context.Context, op *models.Operator) error {
	return r.db.WithContext(ctx).Create(op).Error
}

// IncrementTokenVersion invalidates every token issued to the operator.
func (r *operatorRepository) IncrementTokenVersion(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Operator{}).
		Where("id = ?", id).
		Update("token_version", gorm.Expr("token_version + 1")).Error
}
