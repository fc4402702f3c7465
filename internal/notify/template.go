// internal/notify/template.go
//
// 各種通知的主旨與內文樣板。
package notify

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"
)

const rule = "----------------------------------------------------"

type tmpl struct {
	subject string
	body    string
}

// 每種事件的主旨與內文；{{.Bank}} 為銀行名稱。
var templates = map[Kind]tmpl{
	Welcome: {
		subject: "Welcome to {{.Bank}}! Your Account Has Been Created",
		body: `Dear {{.Name}},

Welcome to {{.Bank}}! Your new account has been created.

` + rule + `
Account Number: {{.AccountID}}
Account Holder: {{.Name}}
Email: {{.Email}}
Initial Deposit: ${{.Amount}}
Current Balance: ${{.Balance}}
Created Date: {{.Created}}
` + rule + `

You can now check your balance, make deposits and withdrawals,
transfer money to other accounts, view your transaction history
and earn interest on your savings.

Best regards,
The {{.Bank}} Team
`,
	},
	Deposit: {
		subject: "Deposit Confirmation - {{.Bank}}",
		body: `Dear {{.Name}},

Your deposit has been processed.

` + rule + `
Account Number: {{.AccountID}}
Transaction Type: DEPOSIT
Amount: +${{.Amount}}
Previous Balance: ${{.Previous}}
New Balance: ${{.Balance}}
Date/Time: {{.Time}}
` + rule + `

Best regards,
The {{.Bank}} Team
`,
	},
	Withdrawal: {
		subject: "Withdrawal Confirmation - {{.Bank}}",
		body: `Dear {{.Name}},

Your withdrawal has been processed.

` + rule + `
Account Number: {{.AccountID}}
Transaction Type: WITHDRAWAL
Amount: -${{.Amount}}
Previous Balance: ${{.Previous}}
New Balance: ${{.Balance}}
Date/Time: {{.Time}}
` + rule + `

If you did not authorize this transaction, please contact us immediately.

Best regards,
The {{.Bank}} Team
`,
	},
	TransferSent: {
		subject: "Transfer Sent Confirmation - {{.Bank}}",
		body: `Dear {{.Name}},

Your transfer has been sent.

` + rule + `
Account Number: {{.AccountID}}
Transaction Type: TRANSFER SENT
To Account: {{.Counterparty}}
Amount: -${{.Amount}}
Previous Balance: ${{.Previous}}
New Balance: ${{.Balance}}
Date/Time: {{.Time}}
` + rule + `

Best regards,
The {{.Bank}} Team
`,
	},
	TransferReceived: {
		subject: "Transfer Received Notification - {{.Bank}}",
		body: `Dear {{.Name}},

You have received a transfer.

` + rule + `
Account Number: {{.AccountID}}
Transaction Type: TRANSFER RECEIVED
From Account: {{.Counterparty}}
Amount: +${{.Amount}}
Previous Balance: ${{.Previous}}
New Balance: ${{.Balance}}
Date/Time: {{.Time}}
` + rule + `

Best regards,
The {{.Bank}} Team
`,
	},
	Interest: {
		subject: "Interest Credited - {{.Bank}}",
		body: `Dear {{.Name}},

Interest has been credited to your account.

` + rule + `
Account Number: {{.AccountID}}
Transaction Type: INTEREST
Amount: +${{.Amount}}
Previous Balance: ${{.Previous}}
New Balance: ${{.Balance}}
Interest Rate: {{.Rate}}%
Date/Time: {{.Time}}
` + rule + `

Best regards,
The {{.Bank}} Team
`,
	},
	LowBalance: {
		subject: "Low Balance Alert - {{.Bank}}",
		body: `Dear {{.Name}},

This is an alert regarding your account balance.

` + rule + `
Account Number: {{.AccountID}}
Current Balance: ${{.Balance}}
Alert Type: LOW BALANCE (below ${{.Threshold}})
Date/Time: {{.Time}}
` + rule + `

Please consider making a deposit to maintain sufficient funds.

Best regards,
The {{.Bank}} Team
`,
	},
	Test: {
		subject: "Test Email from {{.Bank}}",
		body: `This is a test email from the {{.Bank}} banking system.

If you received this, your email configuration is working.

Time sent: {{.Time}}

Best regards,
The {{.Bank}} Team
`,
	},
}

var fallback = tmpl{
	subject: "{{.Bank}} Transaction Notification",
	body: `Dear {{.Name}},

A transaction has occurred on your account.

Account: {{.AccountID}}
Amount: ${{.Amount}}
New Balance: ${{.Balance}}

Thank you for banking with {{.Bank}}.
`,
}

// view 為樣板實際使用的字串欄位。
type view struct {
	Bank, Name, AccountID, Email         string
	Amount, Balance, Previous, Threshold string
	Counterparty, Rate, Created, Time    string
}

const timeLayout = "2006-01-02 15:04:05"

func newView(bank string, kind Kind, c Context) view {
	prev := c.Balance
	switch kind {
	case Deposit, TransferReceived, Interest, Welcome:
		prev = c.Balance.Sub(c.Amount)
	case Withdrawal, TransferSent:
		prev = c.Balance.Add(c.Amount)
	}
	v := view{
		Bank:         bank,
		Name:         c.HolderName,
		AccountID:    c.AccountID,
		Email:        c.Email,
		Amount:       c.Amount.StringFixed(2),
		Balance:      c.Balance.StringFixed(2),
		Previous:     prev.StringFixed(2),
		Threshold:    c.Threshold.StringFixed(2),
		Counterparty: c.Counterparty,
		Rate:         c.Rate.Mul(decimal.NewFromInt(100)).String(),
	}
	if v.Counterparty == "" {
		v.Counterparty = "Unknown"
	}
	if !c.Created.IsZero() {
		v.Created = c.Created.Format(timeLayout)
	}
	if !c.Time.IsZero() {
		v.Time = c.Time.Format(timeLayout)
	}
	return v
}

// Render 依事件種類產生主旨與內文；未知種類使用通用樣板。
func Render(bank string, kind Kind, c Context) (subject, body string, err error) {
	t, ok := templates[kind]
	if !ok {
		t = fallback
	}
	v := newView(bank, kind, c)
	if subject, err = execute(string(kind)+".subject", t.subject, v); err != nil {
		return "", "", err
	}
	if body, err = execute(string(kind)+".body", t.body, v); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(subject), body, nil
}

func execute(name, text string, v view) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}

// Summary 為單行摘要，供聊天頻道與 log 使用。
func Summary(kind Kind, c Context) string {
	switch kind {
	case TransferSent:
		return fmt.Sprintf("%s %s -> %s $%s (balance $%s)", kind, c.AccountID, c.Counterparty, c.Amount.StringFixed(2), c.Balance.StringFixed(2))
	case TransferReceived:
		return fmt.Sprintf("%s %s <- %s $%s (balance $%s)", kind, c.AccountID, c.Counterparty, c.Amount.StringFixed(2), c.Balance.StringFixed(2))
	case LowBalance:
		return fmt.Sprintf("%s %s balance $%s below $%s", kind, c.AccountID, c.Balance.StringFixed(2), c.Threshold.StringFixed(2))
	case Test:
		return fmt.Sprintf("%s to %s", kind, c.Email)
	default:
		return fmt.Sprintf("%s %s $%s (balance $%s)", kind, c.AccountID, c.Amount.StringFixed(2), c.Balance.StringFixed(2))
	}
}
