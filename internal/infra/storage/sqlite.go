package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"stock_ledger/internal/domain"
	"stock_ledger/pkg/id"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlite pragmas applied to every connection
const pragmas = "?_pragma=journal_mode(WAL)" +
	"&_pragma=synchronous(FULL)" +
	"&_pragma=busy_timeout(5000)" +
	"&_pragma=foreign_keys(1)"

// Storage is the sqlite-backed ledger store
type Storage struct {
	db *gorm.DB

	// Per-account order serialization
	locks sync.Map // uint -> *sync.Mutex
}

var _ domain.LedgerStore = (*Storage)(nil)

// NewStorage opens (or creates) the ledger database at path and migrates the schema
func NewStorage(path string) (*Storage, error) {
	if path == "" {
		return nil, errors.New("database path is empty")
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(path+pragmas), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// Single connection: writers queue here instead of hitting SQLITE_BUSY
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&domain.Account{}, &domain.Position{}, &domain.Transaction{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close releases the underlying connection
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Account Operations
// ======================================================================================

// CreateAccount registers username with the given opening cash balance
func (s *Storage) CreateAccount(ctx context.Context, username string, cash decimal.Decimal) (*domain.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.NewOrderError(domain.ErrInvalidAccount, "", "username cannot be blank")
	}
	if cash.IsNegative() {
		return nil, domain.NewOrderError(domain.ErrInvalidAccount, "", "opening cash cannot be negative")
	}

	account := &domain.Account{Username: username, Cash: cash}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Account{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.NewOrderError(domain.ErrAccountExists, "", "username %q is taken", username)
		}
		return tx.Create(account).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, domain.NewOrderError(domain.ErrAccountExists, "", "username %q is taken", username)
	}
	if err != nil {
		return nil, wrapStoreError("create_account", err)
	}
	return account, nil
}

// GetAccount retrieves an account by id. Returns ErrNotFound if absent.
func (s *Storage) GetAccount(ctx context.Context, accountID uint) (*domain.Account, error) {
	var account domain.Account
	err := s.db.WithContext(ctx).First(&account, accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, accountNotFound(accountID)
	}
	if err != nil {
		return nil, wrapStoreError("get_account", err)
	}
	return &account, nil
}

// GetAccountByUsername retrieves an account by its unique username
func (s *Storage) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var account domain.Account
	err := s.db.WithContext(ctx).First(&account, "username = ?", strings.TrimSpace(username)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NewOrderError(domain.ErrNotFound, "", "no account for username %q", username)
	}
	if err != nil {
		return nil, wrapStoreError("get_account", err)
	}
	return &account, nil
}

// ======================================================================================
// Position & Transaction Reads
// ======================================================================================

// GetPosition returns the holding of symbol, or nil if none is held
func (s *Storage) GetPosition(ctx context.Context, accountID uint, symbol string) (*domain.Position, error) {
	pos, err := findPosition(s.db.WithContext(ctx), accountID, domain.NormalizeSymbol(symbol))
	if err != nil {
		return nil, wrapStoreError("get_position", err)
	}
	return pos, nil
}

// ListPositions returns all open positions of an account ordered by symbol
func (s *Storage) ListPositions(ctx context.Context, accountID uint) ([]domain.Position, error) {
	var positions []domain.Position
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("symbol ASC").
		Find(&positions).Error
	if err != nil {
		return nil, wrapStoreError("list_positions", err)
	}
	return positions, nil
}

// ListTransactions returns the account's transactions in execution order
func (s *Storage) ListTransactions(ctx context.Context, accountID uint) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id ASC").
		Find(&txs).Error
	if err != nil {
		return nil, wrapStoreError("list_transactions", err)
	}
	return txs, nil
}

// ======================================================================================
// Order Application
// ======================================================================================

// ApplyOrder atomically moves cash and shares for one executed order and appends
// its transaction. Funds and shares are re-checked inside the transaction, so a
// concurrent order that drained the account is rejected here. On any error the
// ledger is unchanged.
func (s *Storage) ApplyOrder(ctx context.Context, accountID uint, side domain.Side, symbol string, shares int64, unitPrice decimal.Decimal) (*domain.Transaction, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" || shares <= 0 {
		return nil, domain.NewOrderError(domain.ErrInvalidOrder, symbol, "order must name a symbol and a positive share count")
	}
	if !unitPrice.IsPositive() {
		return nil, domain.NewOrderError(domain.ErrInvalidOrder, symbol, "unit price must be positive")
	}

	lock := s.lockFor(accountID)
	lock.Lock()
	defer lock.Unlock()

	var record *domain.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account domain.Account
		if err := tx.First(&account, accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return accountNotFound(accountID)
			}
			return err
		}

		pos, err := findPosition(tx, accountID, symbol)
		if err != nil {
			return err
		}

		amount := unitPrice.Mul(decimal.NewFromInt(shares))
		now := time.Now().UTC()

		switch side {
		case domain.SideBuy:
			if err := account.Debit(symbol, amount); err != nil {
				return err
			}
			if pos == nil {
				pos = &domain.Position{AccountID: accountID, Symbol: symbol, Shares: shares}
				if err := tx.Create(pos).Error; err != nil {
					return err
				}
			} else {
				pos.Add(shares)
				if err := updateShares(tx, pos, now); err != nil {
					return err
				}
			}

		case domain.SideSell:
			if err := pos.Remove(shares); err != nil {
				var oe *domain.OrderError
				if errors.As(err, &oe) {
					oe.Symbol = symbol
				}
				return err
			}
			account.Credit(amount)
			if pos.IsClosed() {
				if err := tx.Where("account_id = ? AND symbol = ?", accountID, symbol).
					Delete(&domain.Position{}).Error; err != nil {
					return err
				}
			} else if err := updateShares(tx, pos, now); err != nil {
				return err
			}

		default:
			return domain.NewOrderError(domain.ErrInvalidOrder, symbol, "side must be BUY or SELL")
		}

		account.VerifyInvariant()
		pos.VerifyInvariant()

		if err := tx.Model(&account).Update("cash", account.Cash).Error; err != nil {
			return err
		}

		record = &domain.Transaction{
			OrderID:    id.NewAt(now),
			AccountID:  accountID,
			Side:       side,
			Symbol:     symbol,
			Shares:     shares,
			Price:      unitPrice,
			ExecutedAt: now,
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, wrapStoreError("apply_order", err)
	}
	return record, nil
}

func (s *Storage) lockFor(accountID uint) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(accountID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// findPosition returns nil, nil when the account holds no shares of symbol
func findPosition(db *gorm.DB, accountID uint, symbol string) (*domain.Position, error) {
	var pos domain.Position
	err := db.Where("account_id = ? AND symbol = ?", accountID, symbol).Take(&pos).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not holding is not an error
	}
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

func updateShares(tx *gorm.DB, pos *domain.Position, now time.Time) error {
	return tx.Model(&domain.Position{}).
		Where("account_id = ? AND symbol = ?", pos.AccountID, pos.Symbol).
		Updates(map[string]any{"shares": pos.Shares, "updated_at": now}).Error
}

func accountNotFound(accountID uint) error {
	return domain.NewOrderError(domain.ErrNotFound, "", "account %d does not exist", accountID)
}

// wrapStoreError passes business rejections through and marks everything else
// as a store failure.
func wrapStoreError(op string, err error) error {
	var oe *domain.OrderError
	if errors.As(err, &oe) {
		return err
	}
	return &domain.StoreError{Op: op, Err: err}
}
