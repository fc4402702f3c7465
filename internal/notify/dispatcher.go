// internal/notify/dispatcher.go
//
// 帳本與實際寄送之間的非同步佇列。
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher 以背景 goroutine 依序送出通知。
// Enqueue 永不阻塞：佇列滿了就丟棄並記錄；送出失敗只記錄，不回報給帳本。
type Dispatcher struct {
	n       Notifier
	log     *slog.Logger
	timeout time.Duration
	queue   chan Message

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher 建立並啟動 Dispatcher。size 為佇列容量，timeout 為單筆送出期限。
func NewDispatcher(n Notifier, log *slog.Logger, size int, timeout time.Duration) *Dispatcher {
	if size <= 0 {
		size = 64
	}
	d := &Dispatcher{
		n:       n,
		log:     log,
		timeout: timeout,
		queue:   make(chan Message, size),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Enqueue 將訊息放入佇列。
func (d *Dispatcher) Enqueue(msg Message) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("notification dropped, dispatcher closed", "kind", msg.Kind, "account", msg.Context.AccountID)
		return
	}
	select {
	case d.queue <- msg:
	default:
		d.log.Warn("notification dropped, queue full", "kind", msg.Kind, "account", msg.Context.AccountID)
	}
}

// Close 停止接收新訊息，並等佇列中的訊息送完。
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := d.n.Notify(ctx, msg.Address, msg.Kind, msg.Context); err != nil {
		d.log.Warn("notification failed", "kind", msg.Kind, "account", msg.Context.AccountID, "to", msg.Address, "err", err)
		return
	}
	d.log.Debug("notification sent", "kind", msg.Kind, "account", msg.Context.AccountID)
}
