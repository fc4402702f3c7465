// internal/bank/account.go
//
// Package bank 定義核心領域模型與業務規則。
// 本檔定義 Account、Transaction 與摘要結構，不含任何 HTTP 或儲存細節。

package bank

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind 為交易種類；金額一律為正，正負號由種類決定。
type Kind string

const (
	KindDeposit     Kind = "DEPOSIT"
	KindWithdrawal  Kind = "WITHDRAWAL"
	KindTransferOut Kind = "TRANSFER_OUT"
	KindTransferIn  Kind = "TRANSFER_IN"
	KindInterest    Kind = "INTEREST"
)

// Credit 回報此種類是否增加餘額。
func (k Kind) Credit() bool {
	return k == KindDeposit || k == KindTransferIn || k == KindInterest
}

// Valid 回報是否為已知種類。
func (k Kind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindTransferOut, KindTransferIn, KindInterest:
		return true
	}
	return false
}

// Transaction represents one balance-affecting event.
type Transaction struct {
	Kind        Kind
	Amount      decimal.Decimal
	Time        time.Time
	Description string
	Reference   string // 轉帳雙邊共用；其他種類為空
}

// Signed 回傳帶正負號的金額。
func (t Transaction) Signed() decimal.Decimal {
	if t.Kind.Credit() {
		return t.Amount
	}
	return t.Amount.Neg()
}

// Holder 為持有人與聯絡資料，只在輸入時驗證格式。
type Holder struct {
	Name    string
	Email   string
	Phone   string
	SSN     string
	DOB     string
	Address string
}

// Preferences 為持有人可調整的通知設定。
type Preferences struct {
	EmailNotifications bool
	LowBalanceAlert    bool
	AlertThreshold     decimal.Decimal
}

// Account represents a bank account.
// History 只能追加；Balance 是快取值，必須等於 History 的加總。
type Account struct {
	ID          string
	Holder      Holder
	Balance     decimal.Decimal
	Created     time.Time
	Preferences Preferences
	History     []Transaction
}

// clone 回傳深拷貝；History 預留空間給本次要追加的交易。
func (a *Account) clone() *Account {
	cp := *a
	cp.History = make([]Transaction, len(a.History), len(a.History)+2)
	copy(cp.History, a.History)
	return &cp
}

// Tier 依餘額分級。
func (a *Account) Tier() string {
	switch {
	case a.Balance.GreaterThan(decimal.NewFromInt(10000)):
		return "premium"
	case a.Balance.GreaterThan(decimal.NewFromInt(1000)):
		return "standard"
	case a.Balance.GreaterThan(decimal.NewFromInt(100)):
		return "basic"
	default:
		return "low"
	}
}

// AccountRef 為帳戶清單中的一列。
type AccountRef struct {
	ID   string
	Name string
}

// Summary 為對交易歷史做 fold 得到的統計。
type Summary struct {
	AccountID    string
	Balance      decimal.Decimal
	TotalCredits decimal.Decimal
	TotalDebits  decimal.Decimal
	NetFlow      decimal.Decimal
	Count        int
	AgeDays      int
	Created      time.Time
}

// summarize 只依賴交易歷史；Balance 即為 NetFlow。
func summarize(a *Account, now time.Time) Summary {
	s := Summary{
		AccountID:    a.ID,
		TotalCredits: decimal.Zero,
		TotalDebits:  decimal.Zero,
		Count:        len(a.History),
		Created:      a.Created,
	}
	for _, t := range a.History {
		if t.Kind.Credit() {
			s.TotalCredits = s.TotalCredits.Add(t.Amount)
		} else {
			s.TotalDebits = s.TotalDebits.Add(t.Amount)
		}
	}
	s.NetFlow = s.TotalCredits.Sub(s.TotalDebits)
	s.Balance = s.NetFlow
	if !a.Created.IsZero() && now.After(a.Created) {
		s.AgeDays = int(now.Sub(a.Created).Hours() / 24)
	}
	return s
}

// foldBalance 以交易歷史重算餘額。
func foldBalance(history []Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range history {
		sum = sum.Add(t.Signed())
	}
	return sum
}

// TransferReceipt 為轉帳成功後的結果。
type TransferReceipt struct {
	Reference   string
	From        string
	To          string
	Amount      decimal.Decimal
	FromBalance decimal.Decimal
	ToBalance   decimal.Decimal
	Time        time.Time
}

// NewAccount 為開戶輸入。
type NewAccount struct {
	ID             string
	Holder         Holder
	InitialDeposit decimal.Decimal
}

// PreferencesUpdate 為偏好設定的部分更新；nil 欄位保持不變。
type PreferencesUpdate struct {
	Email              *string
	EmailNotifications *bool
	LowBalanceAlert    *bool
	AlertThreshold     *decimal.Decimal
}
