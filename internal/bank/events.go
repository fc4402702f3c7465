// internal/bank/events.go
//
// 已提交異動的通知。只在 commit 成功後呼叫；Sink 不得阻塞，也不回傳錯誤。

package bank

import (
	"banking/internal/notify"

	"github.com/shopspring/decimal"
)

func (b *Bank) message(a *Account, kind notify.Kind, amount decimal.Decimal, counterparty string) notify.Message {
	return notify.Message{
		Address: a.Holder.Email,
		Kind:    kind,
		Context: notify.Context{
			HolderName:   a.Holder.Name,
			AccountID:    a.ID,
			Email:        a.Holder.Email,
			Amount:       amount,
			Balance:      a.Balance,
			Counterparty: counterparty,
			Threshold:    a.Preferences.AlertThreshold,
			Created:      a.Created,
			Time:         b.clock(),
		},
	}
}

// emit 送出交易通知；持有人關閉 email 通知或沒有 email 時略過。
func (b *Bank) emit(a *Account, kind notify.Kind, amount decimal.Decimal, counterparty string) {
	if b.sink == nil || !a.Preferences.EmailNotifications || a.Holder.Email == "" {
		return
	}
	b.sink.Enqueue(b.message(a, kind, amount, counterparty))
}

func (b *Bank) emitRate(a *Account, interest, rate decimal.Decimal) {
	if b.sink == nil || !a.Preferences.EmailNotifications || a.Holder.Email == "" {
		return
	}
	msg := b.message(a, notify.Interest, interest, "")
	msg.Context.Rate = rate
	b.sink.Enqueue(msg)
}

// checkLowBalance 只看 low_balance_alert 開關，與 email 通知開關無關。
func (b *Bank) checkLowBalance(a *Account) {
	if b.sink == nil || !a.Preferences.LowBalanceAlert || a.Holder.Email == "" {
		return
	}
	if a.Balance.LessThan(a.Preferences.AlertThreshold) {
		b.sink.Enqueue(b.message(a, notify.LowBalance, decimal.Zero, ""))
	}
}
