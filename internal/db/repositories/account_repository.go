package repositories

import (
	"context"
	"strings"

	"roboclub/clubhouse/internal/db"
	models "roboclub/clubhouse/internal/models/gorm"

	"gorm.io/gorm"
)

// AccountRepository stores identity accounts for the local identity provider
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(gdb *gorm.DB) *AccountRepository {
	return &AccountRepository{db: gdb}
}

// Create inserts an account. A taken email surfaces as a conflict.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	account.Email = normalizeEmail(account.Email)
	err := db.Conn(ctx, r.db).Create(account).Error
	return storeErr("AccountRepository.Create", "failed to create account", err)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account

	err := db.Conn(ctx, r.db).
		Where("email = ?", normalizeEmail(email)).
		First(&account).Error
	if err != nil {
		return nil, storeErr("AccountRepository.GetByEmail", "failed to fetch account", err)
	}

	return &account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account

	err := db.Conn(ctx, r.db).Where("id = ?", id).First(&account).Error
	if err != nil {
		return nil, storeErr("AccountRepository.GetByID", "failed to fetch account", err)
	}

	return &account, nil
}

// Update writes the given columns of one account.
func (r *AccountRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	if email, ok := fields["email"].(string); ok {
		fields["email"] = normalizeEmail(email)
	}

	res := db.Conn(ctx, r.db).Model(&models.Account{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return storeErr("AccountRepository.Update", "failed to update account", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("AccountRepository.Update", "account")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
