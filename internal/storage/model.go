// internal/storage/model.go
//
// 定義「資料持久化層 (storage layer)」的結構模型。
// 檔案格式沿用既有資料：最外層是以帳號為 key 的 JSON 物件，
// 每筆帳戶包含持有人欄位、數值餘額、created 字串、交易陣列與通知偏好。
// 既有檔案可直接讀入，不需要版本遷移。
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// TimeLayout 為 created 與交易 date 欄位的固定格式（YYYY-MM-DD HH:MM:SS）。
const TimeLayout = "2006-01-02 15:04:05"

// Amount 為持久化用的金額型別。
// 寫出時是小數點後兩位的 JSON 數字；舊資料中超過兩位的金額（未進位的利息）原樣寫回。
// 讀入時同時接受數字與數字字串，因為舊資料在第一次異動後會把餘額寫成字串。
type Amount struct {
	decimal.Decimal
}

// NewAmount 以 decimal 建立 Amount。
func NewAmount(d decimal.Decimal) Amount { return Amount{Decimal: d} }

// MarshalJSON 輸出不帶引號的數字，至少兩位小數。
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.Decimal.Equal(a.Decimal.Round(2)) {
		return []byte(a.Decimal.StringFixed(2)), nil
	}
	return []byte(a.Decimal.String()), nil
}

// UnmarshalJSON 接受 150.5、"150.5" 與 null（視為 0）。
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("storage: bad amount %q: %w", b, err)
	}
	a.Decimal = d
	return nil
}

// TxRecord 為單筆交易的序列化格式。
type TxRecord struct {
	Type        string `json:"type"`
	Amount      Amount `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Reference   string `json:"reference,omitempty"` // 轉帳雙邊共用的識別碼
}

// PrefRecord 為通知偏好。
type PrefRecord struct {
	EmailNotifications bool   `json:"email_notifications"`
	LowBalanceAlert    bool   `json:"low_balance_alert"`
	AlertThreshold     Amount `json:"alert_threshold"`
}

// Record 為帳戶在儲存層的序列化格式，不含鎖或方法。
type Record struct {
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone,omitempty"`
	SSN          string      `json:"ssn,omitempty"`
	DOB          string      `json:"dob,omitempty"`
	Address      string      `json:"address,omitempty"`
	Balance      Amount      `json:"balance"`
	Created      string      `json:"created"`
	Transactions []TxRecord  `json:"transactions"`
	Preferences  *PrefRecord `json:"preferences,omitempty"`
}

// Snapshot 為整個帳本的完整快照：帳號 → 帳戶。
type Snapshot map[string]Record
