package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
)

var errPendingNotFound = fmt.Errorf("%w: pending signup not found", domain.ErrNotFound)

// AccountRepository implements ports.AccountRepository on the students and
// pending_signups tables.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var m accountModel
	if err := r.db.WithContext(ctx).First(&m, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	return m.toDomain(), nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	var m accountModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return m.toDomain(), nil
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&accountModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"password": passwordHash, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) SaveAdmin(ctx context.Context, email, passwordHash string) (*domain.Account, error) {
	var out accountModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&out, "email = ?", email).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			out = accountModel{
				Email:        email,
				PasswordHash: passwordHash,
				Role:         string(domain.RoleAdmin),
				Verified:     true,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			return tx.Create(&out).Error
		case err != nil:
			return err
		}

		out.PasswordHash = passwordHash
		out.Role = string(domain.RoleAdmin)
		out.Verified = true
		out.UpdatedAt = now
		return tx.Save(&out).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save admin: %w", err)
	}
	return out.toDomain(), nil
}

func (r *AccountRepository) CreatePending(ctx context.Context, p *domain.PendingSignup) error {
	m := pendingSignupModel{
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Token:        p.Token,
		ExpiresAt:    p.ExpiresAt,
		CreatedAt:    p.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrSignupPending
		}
		return fmt.Errorf("create pending signup: %w", err)
	}
	return nil
}

func (r *AccountRepository) FindPendingByEmail(ctx context.Context, email string) (*domain.PendingSignup, error) {
	return r.findPending(ctx, "email = ?", email)
}

func (r *AccountRepository) FindPendingByToken(ctx context.Context, token string) (*domain.PendingSignup, error) {
	return r.findPending(ctx, "token = ?", token)
}

func (r *AccountRepository) findPending(ctx context.Context, query string, arg string) (*domain.PendingSignup, error) {
	var m pendingSignupModel
	if err := r.db.WithContext(ctx).First(&m, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errPendingNotFound
		}
		return nil, fmt.Errorf("find pending signup: %w", err)
	}
	return m.toDomain(), nil
}

func (r *AccountRepository) ReplacePendingToken(ctx context.Context, email, token string, expiresAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&pendingSignupModel{}).
		Where("email = ?", email).
		Updates(map[string]any{"token": token, "expires_at": expiresAt})
	if res.Error != nil {
		return fmt.Errorf("replace pending token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errPendingNotFound
	}
	return nil
}

func (r *AccountRepository) DeletePending(ctx context.Context, email string) error {
	if err := r.db.WithContext(ctx).Where("email = ?", email).Delete(&pendingSignupModel{}).Error; err != nil {
		return fmt.Errorf("delete pending signup: %w", err)
	}
	return nil
}

// ActivatePending deletes the pending row by email and token and creates the
// account in the same transaction. A zero-row delete means another caller
// consumed the token first.
func (r *AccountRepository) ActivatePending(ctx context.Context, p *domain.PendingSignup) (*domain.Account, error) {
	var created accountModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("email = ? AND token = ?", p.Email, p.Token).Delete(&pendingSignupModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrInvalidToken
		}

		now := time.Now().UTC()
		created = accountModel{
			Email:        p.Email,
			PasswordHash: p.PasswordHash,
			Role:         string(domain.RoleUser),
			Verified:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(&created).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrAccountExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) || errors.Is(err, domain.ErrAccountExists) {
			return nil, err
		}
		return nil, fmt.Errorf("activate pending signup: %w", err)
	}
	return created.toDomain(), nil
}
