// internal/bank/record.go
//
// Account 與 storage.Record 之間的轉換。
// 載入時會以交易歷史重算餘額並與快取值比對（見 Open）。

package bank

import (
	"fmt"
	"time"

	"banking/internal/storage"

	"github.com/shopspring/decimal"
)

func (a *Account) record() storage.Record {
	rec := storage.Record{
		Name:         a.Holder.Name,
		Email:        a.Holder.Email,
		Phone:        a.Holder.Phone,
		SSN:          a.Holder.SSN,
		DOB:          a.Holder.DOB,
		Address:      a.Holder.Address,
		Balance:      storage.NewAmount(a.Balance),
		Created:      formatTime(a.Created),
		Transactions: make([]storage.TxRecord, 0, len(a.History)),
		Preferences: &storage.PrefRecord{
			EmailNotifications: a.Preferences.EmailNotifications,
			LowBalanceAlert:    a.Preferences.LowBalanceAlert,
			AlertThreshold:     storage.NewAmount(a.Preferences.AlertThreshold),
		},
	}
	for _, t := range a.History {
		rec.Transactions = append(rec.Transactions, storage.TxRecord{
			Type:        string(t.Kind),
			Amount:      storage.NewAmount(t.Amount),
			Date:        formatTime(t.Time),
			Description: t.Description,
			Reference:   t.Reference,
		})
	}
	return rec
}

// fromRecord 還原帳戶。金額保留原始精度，不在此進位。
// 缺少 preferences 時套用預設值（通知開啟、門檻 defaultThreshold）。
func fromRecord(id string, rec storage.Record, defaultThreshold decimal.Decimal) (*Account, error) {
	a := &Account{
		ID: id,
		Holder: Holder{
			Name:    rec.Name,
			Email:   rec.Email,
			Phone:   rec.Phone,
			SSN:     rec.SSN,
			DOB:     rec.DOB,
			Address: rec.Address,
		},
		Balance: rec.Balance.Decimal,
		Created: parseTime(rec.Created),
		Preferences: Preferences{
			EmailNotifications: true,
			LowBalanceAlert:    true,
			AlertThreshold:     defaultThreshold,
		},
		History: make([]Transaction, 0, len(rec.Transactions)),
	}
	if p := rec.Preferences; p != nil {
		a.Preferences = Preferences{
			EmailNotifications: p.EmailNotifications,
			LowBalanceAlert:    p.LowBalanceAlert,
			AlertThreshold:     p.AlertThreshold.Decimal,
		}
	}
	for i, t := range rec.Transactions {
		k := Kind(t.Type)
		if !k.Valid() {
			return nil, fmt.Errorf("account %s: transaction %d has unknown type %q", id, i, t.Type)
		}
		if t.Amount.Decimal.IsNegative() {
			return nil, fmt.Errorf("account %s: transaction %d has negative amount %s", id, i, t.Amount.StringFixed(2))
		}
		a.History = append(a.History, Transaction{
			Kind:        k,
			Amount:      t.Amount.Decimal,
			Time:        parseTime(t.Date),
			Description: t.Description,
			Reference:   t.Reference,
		})
	}
	return a, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(storage.TimeLayout)
}

// parseTime 無法解析時回傳零值；舊資料可能缺少時間欄位。
func parseTime(s string) time.Time {
	t, err := time.ParseInLocation(storage.TimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
