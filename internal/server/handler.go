// internal/server/handler.go
//
// Package server 為帳本的 HTTP 介面（gin）。
// 每個 handler 只負責：
//  1. 解析並檢查請求
//  2. 呼叫 bank 層
//  3. 以統一格式回應
//
// 持久化與通知都由 bank 層在同一次操作內完成，handler 不需要再觸發任何鉤子。
package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"banking/internal/bank"
	"banking/internal/notify"
	"banking/internal/validate"
)

// Server 持有 HTTP 層需要的依賴。
type Server struct {
	bank     *bank.Bank
	notifier notify.Notifier
	log      *slog.Logger
	now      func() time.Time
}

// New 建立 Server；notifier 用於「測試通知設定」端點，可為 nil。
func New(b *bank.Bank, n notify.Notifier, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{bank: b, notifier: n, log: log, now: time.Now}
}

type createRequest struct {
	ID             string          `json:"id" binding:"required"`
	Name           string          `json:"name"`
	Email          string          `json:"email" binding:"required,email"`
	Phone          string          `json:"phone"`
	SSN            string          `json:"ssn"`
	DOB            string          `json:"dob"`
	Address        string          `json:"address"`
	InitialDeposit decimal.Decimal `json:"initial_deposit"`
}

// createAccount: POST /accounts
func (s *Server) createAccount(c *gin.Context) {
	var req createRequest
	if !bind(c, &req) {
		return
	}
	a, err := s.bank.CreateAccount(c.Request.Context(), bank.NewAccount{
		ID: req.ID,
		Holder: bank.Holder{
			Name:    req.Name,
			Email:   req.Email,
			Phone:   req.Phone,
			SSN:     req.SSN,
			DOB:     req.DOB,
			Address: req.Address,
		},
		InitialDeposit: req.InitialDeposit,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newAccountView(a))
}

// listAccounts: GET /accounts
func (s *Server) listAccounts(c *gin.Context) {
	refs := s.bank.ListAccounts()
	out := make([]accountRefView, len(refs))
	for i, r := range refs {
		out[i] = accountRefView{ID: r.ID, Name: r.Name}
	}
	c.JSON(http.StatusOK, out)
}

// getAccount: GET /accounts/:id
func (s *Server) getAccount(c *gin.Context) {
	a, err := s.bank.GetAccount(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newAccountView(a))
}

// history: GET /accounts/:id/transactions
func (s *Server) history(c *gin.Context) {
	txs, err := s.bank.History(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]transactionView, len(txs))
	for i, t := range txs {
		out[i] = newTransactionView(t)
	}
	c.JSON(http.StatusOK, out)
}

// summary: GET /accounts/:id/summary
func (s *Server) summary(c *gin.Context) {
	sum, err := s.bank.Summary(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSummaryView(sum))
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// deposit: POST /accounts/:id/deposit
func (s *Server) deposit(c *gin.Context) {
	var req amountRequest
	if !bind(c, &req) {
		return
	}
	id := c.Param("id")
	bal, err := s.bank.Deposit(c.Request.Context(), id, req.Amount)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, balanceView{AccountID: id, Balance: money(bal)})
}

// withdraw: POST /accounts/:id/withdraw
func (s *Server) withdraw(c *gin.Context) {
	var req amountRequest
	if !bind(c, &req) {
		return
	}
	id := c.Param("id")
	bal, err := s.bank.Withdraw(c.Request.Context(), id, req.Amount)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, balanceView{AccountID: id, Balance: money(bal)})
}

// interest: POST /accounts/:id/interest，body 可省略（使用預設利率）。
func (s *Server) interest(c *gin.Context) {
	var req struct {
		Rate decimal.Decimal `json:"rate"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "invalid request: " + err.Error()})
			return
		}
	}
	id := c.Param("id")
	amt, bal, err := s.bank.ApplyInterest(c.Request.Context(), id, req.Rate)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, interestView{AccountID: id, Interest: money(amt), Balance: money(bal)})
}

type preferencesRequest struct {
	Email              *string          `json:"email"`
	EmailNotifications *bool            `json:"email_notifications"`
	LowBalanceAlert    *bool            `json:"low_balance_alert"`
	AlertThreshold     *decimal.Decimal `json:"alert_threshold"`
}

// preferences: PUT /accounts/:id/preferences，只更新有帶的欄位。
func (s *Server) preferences(c *gin.Context) {
	var req preferencesRequest
	if !bind(c, &req) {
		return
	}
	a, err := s.bank.UpdatePreferences(c.Request.Context(), c.Param("id"), bank.PreferencesUpdate{
		Email:              req.Email,
		EmailNotifications: req.EmailNotifications,
		LowBalanceAlert:    req.LowBalanceAlert,
		AlertThreshold:     req.AlertThreshold,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newAccountView(a))
}

// transfer: POST /transfers
func (s *Server) transfer(c *gin.Context) {
	var req struct {
		From   string          `json:"from" binding:"required"`
		To     string          `json:"to" binding:"required"`
		Amount decimal.Decimal `json:"amount"`
	}
	if !bind(c, &req) {
		return
	}
	r, err := s.bank.Transfer(c.Request.Context(), req.From, req.To, req.Amount)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransferView(r))
}

// testNotification: POST /notifications/test，同步送出一封測試通知。
func (s *Server) testNotification(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if !bind(c, &req) {
		return
	}
	if err := validate.Email(req.Email); err != nil {
		s.fail(c, err)
		return
	}
	if s.notifier == nil {
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "notifications are not configured"})
		return
	}
	if err := notify.SendTest(c.Request.Context(), s.notifier, req.Email, s.now()); err != nil {
		s.log.Warn("test notification failed", "to", req.Email, "err", err)
		c.JSON(http.StatusBadGateway, errorBody{Error: "failed to send test notification: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent", "email": req.Email})
}

// health: GET /health
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
