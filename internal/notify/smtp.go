// internal/notify/smtp.go
//
// 以 SMTP 寄出 email。gomail 本身不吃 context，寄送放在 goroutine 裡，
// ctx 到期就先返回，不讓卡住的郵件伺服器拖住 Dispatcher。
package notify

import (
	"context"
	"fmt"

	"banking/internal/config"

	"gopkg.in/gomail.v2"
)

// SMTP 以 gomail 寄送純文字 email；伺服器支援時自動使用 STARTTLS。
type SMTP struct {
	dialer *gomail.Dialer
	from   string
	bank   string
}

// NewSMTP 依設定建立 SMTP notifier。
func NewSMTP(s config.SMTPSettings, bank string) *SMTP {
	from := s.From
	if from == "" {
		from = s.Username
	}
	return &SMTP{
		dialer: gomail.NewDialer(s.Host, s.Port, s.Username, s.Password),
		from:   from,
		bank:   bank,
	}
}

// Notify 組好訊息後寄出；ctx 取消或逾時時回傳 ctx.Err()。
func (s *SMTP) Notify(ctx context.Context, address string, kind Kind, data Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, body, err := Render(s.bank, kind, data)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", address)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send %s email to %s: %w", kind, address, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send %s email to %s: %w", kind, address, ctx.Err())
	}
}
