// internal/storage/sqlstore.go
//
// 以 gorm 實作的資料庫後端，可替換 JSONStore。
// 支援 sqlite（內嵌）、postgres 與 mysql；資料表為 accounts 與 account_transactions。
// 每次 Save 只處理本次異動觸及的帳戶，並在單一 DB transaction 內完成。
package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type accountRow struct {
	ID                 string `gorm:"primaryKey;size:64"`
	Name               string
	Email              string
	Phone              string
	SSN                string
	DOB                string
	Address            string
	Balance            decimal.Decimal `gorm:"type:decimal(30,10)"`
	Created            string          `gorm:"size:19"`
	EmailNotifications bool
	LowBalanceAlert    bool
	AlertThreshold     decimal.Decimal `gorm:"type:decimal(30,10)"`
}

func (accountRow) TableName() string { return "accounts" }

type transactionRow struct {
	ID          uint            `gorm:"primaryKey"`
	AccountID   string          `gorm:"size:64;uniqueIndex:idx_account_seq"`
	Seq         int             `gorm:"uniqueIndex:idx_account_seq"`
	Type        string          `gorm:"size:16"`
	Amount      decimal.Decimal `gorm:"type:decimal(30,10)"`
	Date        string          `gorm:"size:19"`
	Description string
	Reference   string `gorm:"size:36"`
}

func (transactionRow) TableName() string { return "account_transactions" }

// SQLStore 透過 gorm 存取關聯式資料庫。
type SQLStore struct {
	db *gorm.DB
}

// OpenSQL 依 driver（sqlite / postgres / mysql）開啟連線並自動建立資料表。
func OpenSQL(driver, dsn string) (*SQLStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&accountRow{}, &transactionRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Load 讀出所有帳戶與其交易（依 seq 排序）。
func (s *SQLStore) Load(ctx context.Context) (Snapshot, error) {
	db := s.db.WithContext(ctx)

	var accounts []accountRow
	if err := db.Order("id").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	var txs []transactionRow
	if err := db.Order("account_id, seq").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	snap := make(Snapshot, len(accounts))
	for _, a := range accounts {
		snap[a.ID] = a.record()
	}
	for _, t := range txs {
		rec, ok := snap[t.AccountID]
		if !ok {
			continue
		}
		rec.Transactions = append(rec.Transactions, TxRecord{
			Type:        t.Type,
			Amount:      NewAmount(t.Amount),
			Date:        t.Date,
			Description: t.Description,
			Reference:   t.Reference,
		})
		snap[t.AccountID] = rec
	}
	return snap, nil
}

// Save 在單一 transaction 內 upsert 觸及的帳戶，並補寫尚未存在的交易列。
// touched 為空時視為全部帳戶。
func (s *SQLStore) Save(ctx context.Context, snap Snapshot, touched []string) error {
	if len(touched) == 0 {
		for id := range snap {
			touched = append(touched, id)
		}
		sort.Strings(touched)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range touched {
			rec, ok := snap[id]
			if !ok {
				continue
			}
			row := rowFromRecord(id, rec)
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
				return fmt.Errorf("failed to save account %s: %w", id, err)
			}

			var stored int64
			if err := tx.Model(&transactionRow{}).Where("account_id = ?", id).Count(&stored).Error; err != nil {
				return fmt.Errorf("failed to count transactions of %s: %w", id, err)
			}
			if int(stored) >= len(rec.Transactions) {
				continue
			}
			rows := make([]transactionRow, 0, len(rec.Transactions)-int(stored))
			for i := int(stored); i < len(rec.Transactions); i++ {
				t := rec.Transactions[i]
				rows = append(rows, transactionRow{
					AccountID:   id,
					Seq:         i,
					Type:        t.Type,
					Amount:      t.Amount.Decimal,
					Date:        t.Date,
					Description: t.Description,
					Reference:   t.Reference,
				})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to append transactions of %s: %w", id, err)
			}
		}
		return nil
	})
}

// Close 關閉底層連線池。
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func rowFromRecord(id string, rec Record) accountRow {
	row := accountRow{
		ID:      id,
		Name:    rec.Name,
		Email:   rec.Email,
		Phone:   rec.Phone,
		SSN:     rec.SSN,
		DOB:     rec.DOB,
		Address: rec.Address,
		Balance: rec.Balance.Decimal,
		Created: rec.Created,
	}
	if p := rec.Preferences; p != nil {
		row.EmailNotifications = p.EmailNotifications
		row.LowBalanceAlert = p.LowBalanceAlert
		row.AlertThreshold = p.AlertThreshold.Decimal
	}
	return row
}

func (a accountRow) record() Record {
	return Record{
		Name:         a.Name,
		Email:        a.Email,
		Phone:        a.Phone,
		SSN:          a.SSN,
		DOB:          a.DOB,
		Address:      a.Address,
		Balance:      NewAmount(a.Balance),
		Created:      a.Created,
		Transactions: []TxRecord{},
		Preferences: &PrefRecord{
			EmailNotifications: a.EmailNotifications,
			LowBalanceAlert:    a.LowBalanceAlert,
			AlertThreshold:     NewAmount(a.AlertThreshold),
		},
	}
}
