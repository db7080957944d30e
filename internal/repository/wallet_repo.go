package repository

import (
	"errors"

	"github.com/trade-journal/internal/models"
	"gorm.io/gorm"
)

var (
	ErrWalletNotFound = errors.New("wallet not found")
)

// WalletRepository handles wallet data access. Balance mutations must go
// through GetOrCreateForUpdate inside a transaction so concurrent orders
// for the same user/asset serialize on the row lock.
type WalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new WalletRepository
func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *WalletRepository) WithTx(tx *gorm.DB) *WalletRepository {
	return &WalletRepository{db: tx}
}

// Create creates a new wallet
func (r *WalletRepository) Create(wallet *models.Wallet) error {
	return r.db.Create(wallet).Error
}

// GetByUserID retrieves all wallets for a user
func (r *WalletRepository) GetByUserID(userID uint) ([]models.Wallet, error) {
	var wallets []models.Wallet
	result := r.db.Where("user_id = ?", userID).Order("asset").Find(&wallets)
	return wallets, result.Error
}

// GetByUserIDAndAsset retrieves one wallet without locking
func (r *WalletRepository) GetByUserIDAndAsset(userID uint, asset string) (*models.Wallet, error) {
	var wallet models.Wallet
	result := r.db.Where("user_id = ? AND asset = ?", userID, asset).First(&wallet)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, result.Error
	}
	return &wallet, nil
}

// GetOrCreateForUpdate loads the wallet row under SELECT ... FOR UPDATE,
// creating it with the given seed balance on first reference. Must be
// called inside a transaction.
func (r *WalletRepository) GetOrCreateForUpdate(userID uint, asset string, seedBalance float64) (*models.Wallet, error) {
	var wallet models.Wallet
	result := forUpdate(r.db).
		Where("user_id = ? AND asset = ?", userID, asset).
		First(&wallet)
	if result.Error == nil {
		return &wallet, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	wallet = models.Wallet{UserID: userID, Asset: asset, Balance: seedBalance}
	if err := r.db.Create(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Save persists wallet balance changes
func (r *WalletRepository) Save(wallet *models.Wallet) error {
	return r.db.Save(wallet).Error
}

// DeleteByUserID hard deletes all wallets for a user (wallet reset)
func (r *WalletRepository) DeleteByUserID(userID uint) error {
	return r.db.Unscoped().Where("user_id = ?", userID).Delete(&models.Wallet{}).Error
}
