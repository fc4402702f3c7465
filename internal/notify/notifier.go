// internal/notify/notifier.go
//
// Package notify 負責把帳本事件轉成訊息並送出。
// 帳本只把 Message 丟進 Dispatcher；實際寄送（console / SMTP / Discord）
// 失敗只會記錄，不會影響已提交的帳本異動。
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Kind 為通知事件種類。
type Kind string

const (
	Welcome          Kind = "WELCOME"
	Deposit          Kind = "DEPOSIT"
	Withdrawal       Kind = "WITHDRAWAL"
	TransferSent     Kind = "TRANSFER_SENT"
	TransferReceived Kind = "TRANSFER_RECEIVED"
	Interest         Kind = "INTEREST"
	LowBalance       Kind = "LOW_BALANCE"
	Test             Kind = "TEST"
)

// Context 為樣板所需的資料。
type Context struct {
	HolderName   string
	AccountID    string
	Email        string
	Amount       decimal.Decimal
	Balance      decimal.Decimal
	Counterparty string          // 轉帳對方帳號
	Threshold    decimal.Decimal // LOW_BALANCE 門檻
	Rate         decimal.Decimal // INTEREST 利率
	Created      time.Time
	Time         time.Time
}

// Message 為一筆待送出的通知。
type Message struct {
	Address string
	Kind    Kind
	Context Context
}

// Notifier 送出一筆通知；回傳錯誤代表送出失敗，呼叫端只記錄不重試。
type Notifier interface {
	Notify(ctx context.Context, address string, kind Kind, c Context) error
}

// NotifierFunc 讓一般函式滿足 Notifier。
type NotifierFunc func(ctx context.Context, address string, kind Kind, c Context) error

// Notify 呼叫 f。
func (f NotifierFunc) Notify(ctx context.Context, address string, kind Kind, c Context) error {
	return f(ctx, address, kind, c)
}

// Multi 依序呼叫所有 Notifier，錯誤合併回傳。
type Multi []Notifier

// Notify 對每個 Notifier 都送一次，個別失敗不中斷其餘。
func (m Multi) Notify(ctx context.Context, address string, kind Kind, c Context) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, address, kind, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendTest 送出一封測試訊息，用來確認寄送設定是否正確。
func SendTest(ctx context.Context, n Notifier, address string, now time.Time) error {
	return n.Notify(ctx, address, Test, Context{Email: address, Time: now})
}
