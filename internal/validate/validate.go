// internal/validate/validate.go
//
// Package validate 提供聯絡欄位的格式檢查（email、電話、SSN、出生日期）。
// 只做格式比對，不含任何帳本邏輯；由 bank 在開戶與修改偏好時呼叫。
// email 與日期格式交給 validator（與 gin binding 同一套規則），電話與 SSN 的號碼規則自行比對。
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrValidation 為所有格式錯誤的共同類別，供 errors.Is 比對。
var ErrValidation = errors.New("validation error")

// Error 描述哪個欄位、為何不合法。
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string { return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason) }

func (e *Error) Unwrap() error { return ErrValidation }

// v 可在多個 goroutine 間共用。
var v = validator.New()

var (
	phoneRe = regexp.MustCompile(`^\+?[0-9][0-9 ().-]{6,18}[0-9]$`)
	ssnRe   = regexp.MustCompile(`^(\d{3})-?(\d{2})-?(\d{4})$`)
)

// DateLayout 為出生日期的輸入格式。
const DateLayout = "2006-01-02"

const dateTag = "datetime=" + DateLayout

// Email 檢查 email 格式，空字串視為缺漏。
func Email(s string) error {
	if strings.TrimSpace(s) == "" {
		return &Error{Field: "email", Reason: "email address cannot be empty"}
	}
	if err := v.Var(s, "required,email"); err != nil {
		return &Error{Field: "email", Reason: "expected a valid email (e.g., name@domain.com)"}
	}
	return nil
}

// Phone 接受國際碼、空白、括號與連字號，實際數字需 8 到 15 位。
func Phone(s string) error {
	if !phoneRe.MatchString(s) {
		return &Error{Field: "phone", Reason: "expected digits with optional +, spaces, dashes or parentheses"}
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 8 || digits > 15 {
		return &Error{Field: "phone", Reason: "expected 8 to 15 digits"}
	}
	return nil
}

// SSN 接受 123-45-6789 或 123456789，並排除 000/666/9xx 區碼與全 0 群組。
func SSN(s string) error {
	m := ssnRe.FindStringSubmatch(s)
	if m == nil {
		return &Error{Field: "ssn", Reason: "expected format 123-45-6789"}
	}
	area, group, serial := m[1], m[2], m[3]
	if area == "000" || area == "666" || area[0] == '9' || group == "00" || serial == "0000" {
		return &Error{Field: "ssn", Reason: "number is not assignable"}
	}
	return nil
}

// DOB 檢查 YYYY-MM-DD 格式的出生日期，不得晚於 now，也不得早於 150 年前。
func DOB(s string, now time.Time) error {
	if err := v.Var(s, "required,"+dateTag); err != nil {
		return &Error{Field: "dob", Reason: "expected format YYYY-MM-DD"}
	}
	d, _ := time.Parse(DateLayout, s)
	if d.After(now) {
		return &Error{Field: "dob", Reason: "date is in the future"}
	}
	if d.Before(now.AddDate(-150, 0, 0)) {
		return &Error{Field: "dob", Reason: "date is too far in the past"}
	}
	return nil
}
