package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lmring/lmring/internal/domain"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
)

type UserListFilter struct {
	Email  string
	Status domain.UserStatus
	Role   domain.Role
}

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	CreateWithPassword(ctx context.Context, user *domain.User, passwordHash string) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListPaged(ctx context.Context, req PageRequest, filter UserListFilter) (PageResult[domain.User], error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err := observe(ctx, "user", "find_by_id", err, ErrUserNotFound, nil); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error
	if err := observe(ctx, "user", "find_by_email", err, ErrUserNotFound, nil); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	user.Email = NormalizeEmail(user.Email)
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
	return observe(ctx, "user", "create", err, nil, ErrEmailTaken)
}

// CreateWithPassword inserts the user and its local credential atomically.
func (r *GormUserRepository) CreateWithPassword(ctx context.Context, user *domain.User, passwordHash string) error {
	user.Email = NormalizeEmail(user.Email)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return err
		}
		cred := &domain.LocalCredential{UserID: user.ID, PasswordHash: passwordHash}
		return tx.Omit(clause.Associations).Create(cred).Error
	})
	return observe(ctx, "user", "create_with_password", err, nil, ErrEmailTaken)
}

func (r *GormUserRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(updates)
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = gorm.ErrRecordNotFound
	}
	return observe(ctx, "user", "update", err, ErrUserNotFound, ErrUsernameTaken)
}

func (r *GormUserRepository) ListPaged(ctx context.Context, req PageRequest, filter UserListFilter) (PageResult[domain.User], error) {
	normalized := normalizePageRequest(req)
	result := PageResult[domain.User]{Page: normalized.Page, PageSize: normalized.PageSize}

	base := r.db.WithContext(ctx).Model(&domain.User{})
	if email := NormalizeEmail(filter.Email); email != "" {
		base = base.Where("email LIKE ?", "%"+email+"%")
	}
	if filter.Status != "" {
		base = base.Where("status = ?", filter.Status)
	}
	if filter.Role != "" {
		base = base.Where("role = ?", filter.Role)
	}
	if err := base.Count(&result.Total).Error; err != nil {
		return PageResult[domain.User]{}, observe(ctx, "user", "list_paged", err, nil, nil)
	}
	offset := (normalized.Page - 1) * normalized.PageSize
	err := base.Order("created_at desc").Offset(offset).Limit(normalized.PageSize).Find(&result.Items).Error
	if err := observe(ctx, "user", "list_paged", err, nil, nil); err != nil {
		return PageResult[domain.User]{}, err
	}
	result.TotalPages = calcTotalPages(result.Total, normalized.PageSize)
	return result, nil
}

func (r *GormUserRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("role = ?", role).Count(&n).Error
	return n, observe(ctx, "user", "count_by_role", err, nil, nil)
}
