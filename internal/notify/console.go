// internal/notify/console.go
//
// testing mode 下的 notifier：不寄信，只把完整內容印出。
package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Console 在 testing mode 下取代實際寄送：把完整訊息寫到 w。
type Console struct {
	mu   sync.Mutex
	w    io.Writer
	bank string
}

// NewConsole 建立寫到 w 的 Console notifier。
func NewConsole(w io.Writer, bank string) *Console {
	return &Console{w: w, bank: bank}
}

// Notify 渲染訊息並寫到 w；多個 goroutine 同時呼叫時輸出不會交錯。
func (c *Console) Notify(_ context.Context, address string, kind Kind, data Context) error {
	subject, body, err := Render(c.bank, kind, data)
	if err != nil {
		return err
	}
	sep := strings.Repeat("=", 60)

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = fmt.Fprintf(c.w, "%s\nEMAIL NOTIFICATION (TESTING MODE)\n%s\nTo: %s\nSubject: %s\n%s\n%s%s\n",
		sep, sep, address, subject, strings.Repeat("-", 60), body, sep)
	return err
}
