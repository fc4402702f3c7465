// internal/server/response.go
//
// 統一回應格式：金額一律輸出為兩位小數字串，錯誤一律為 {"error": "..."}。
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"banking/internal/bank"
	"banking/internal/validate"
)

const timeLayout = "2006-01-02 15:04:05"

type errorBody struct {
	Error string `json:"error"`
}

// statusOf 將領域錯誤對應到 HTTP 狀態碼。
func statusOf(err error) int {
	switch {
	case errors.Is(err, bank.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, bank.ErrDuplicate), errors.Is(err, bank.ErrInsufficient):
		return http.StatusConflict
	case errors.Is(err, bank.ErrLimitExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, bank.ErrBadAmount), errors.Is(err, bank.ErrBadDeposit),
		errors.Is(err, bank.ErrSameAccount), errors.Is(err, validate.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, bank.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail 輸出錯誤回應；5xx 另外記錄，內部細節不外流。
func (s *Server) fail(c *gin.Context, err error) {
	code := statusOf(err)
	msg := err.Error()
	switch code {
	case http.StatusServiceUnavailable:
		s.log.Error("storage unavailable", "path", c.FullPath(), "request_id", c.GetString(requestIDKey), "err", err)
		msg = bank.ErrStorageUnavailable.Error()
	case http.StatusInternalServerError:
		s.log.Error("unexpected error", "path", c.FullPath(), "request_id", c.GetString(requestIDKey), "err", err)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(code, errorBody{Error: msg})
}

// bind 解析 JSON body；失敗時直接回 400。
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "invalid request: " + err.Error()})
		return false
	}
	return true
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

type accountRefView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type preferencesView struct {
	EmailNotifications bool   `json:"email_notifications"`
	LowBalanceAlert    bool   `json:"low_balance_alert"`
	AlertThreshold     string `json:"alert_threshold"`
}

type accountView struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone,omitempty"`
	Address     string          `json:"address,omitempty"`
	Balance     string          `json:"balance"`
	Tier        string          `json:"tier"`
	Created     string          `json:"created"`
	Preferences preferencesView `json:"preferences"`
}

// newAccountView 不輸出 SSN 與出生日期。
func newAccountView(a *bank.Account) accountView {
	return accountView{
		ID:      a.ID,
		Name:    a.Holder.Name,
		Email:   a.Holder.Email,
		Phone:   a.Holder.Phone,
		Address: a.Holder.Address,
		Balance: money(a.Balance),
		Tier:    a.Tier(),
		Created: stamp(a.Created),
		Preferences: preferencesView{
			EmailNotifications: a.Preferences.EmailNotifications,
			LowBalanceAlert:    a.Preferences.LowBalanceAlert,
			AlertThreshold:     money(a.Preferences.AlertThreshold),
		},
	}
}

type transactionView struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Reference   string `json:"reference,omitempty"`
}

func newTransactionView(t bank.Transaction) transactionView {
	return transactionView{
		Type:        string(t.Kind),
		Amount:      money(t.Amount),
		Date:        stamp(t.Time),
		Description: t.Description,
		Reference:   t.Reference,
	}
}

type summaryView struct {
	AccountID    string `json:"account_id"`
	Balance      string `json:"balance"`
	TotalCredits string `json:"total_credits"`
	TotalDebits  string `json:"total_debits"`
	NetFlow      string `json:"net_flow"`
	Count        int    `json:"transaction_count"`
	AgeDays      int    `json:"account_age_days"`
	Created      string `json:"created"`
}

func newSummaryView(s *bank.Summary) summaryView {
	return summaryView{
		AccountID:    s.AccountID,
		Balance:      money(s.Balance),
		TotalCredits: money(s.TotalCredits),
		TotalDebits:  money(s.TotalDebits),
		NetFlow:      money(s.NetFlow),
		Count:        s.Count,
		AgeDays:      s.AgeDays,
		Created:      stamp(s.Created),
	}
}

type balanceView struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
}

type interestView struct {
	AccountID string `json:"account_id"`
	Interest  string `json:"interest"`
	Balance   string `json:"balance"`
}

type transferView struct {
	Reference   string `json:"reference"`
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      string `json:"amount"`
	FromBalance string `json:"from_balance"`
	ToBalance   string `json:"to_balance"`
	Date        string `json:"date"`
}

func newTransferView(r *bank.TransferReceipt) transferView {
	return transferView{
		Reference:   r.Reference,
		From:        r.From,
		To:          r.To,
		Amount:      money(r.Amount),
		FromBalance: money(r.FromBalance),
		ToBalance:   money(r.ToBalance),
		Date:        stamp(r.Time),
	}
}
