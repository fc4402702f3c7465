// internal/bank/bank.go

// Package bank 定義核心商業邏輯：開戶、存款、提款、轉帳、利息、交易歷史與摘要。
// 採用單一互斥鎖 (sync.Mutex) 序列化所有操作；每次異動都先在拷貝上修改，
// 整份狀態成功寫入 Store 後才替換記憶體中的帳戶，寫入失敗則完全不變。
// 金額以 decimal 表示，輸入一律四捨五入到分；舊資料中未進位的利息保留原精度。
package bank

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"banking/internal/notify"
	"banking/internal/storage"
	"banking/internal/validate"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store 為帳本的持久化後端（storage.JSONStore 或 storage.SQLStore）。
// Save 收到完整快照與本次觸及的帳號，必須整份成功或整份失敗。
type Store interface {
	Load(ctx context.Context) (storage.Snapshot, error)
	Save(ctx context.Context, snap storage.Snapshot, touched []string) error
}

// Sink 接收已提交異動所產生的通知；不得阻塞。
type Sink interface {
	Enqueue(msg notify.Message)
}

// Rules 為帳本規則參數。
type Rules struct {
	MinInitialDeposit decimal.Decimal // 開戶最低存款
	WithdrawLimit     decimal.Decimal // 單筆提款上限（不跨筆累計）
	InterestRate      decimal.Decimal // ApplyInterest 未指定利率時使用
	LargeDeposit      decimal.Decimal // 超過此金額的存款會記錄警告
	AlertThreshold    decimal.Decimal // 新帳戶的低餘額門檻
}

// DefaultRules 回傳預設規則。
func DefaultRules() Rules {
	return Rules{
		MinInitialDeposit: decimal.NewFromInt(10),
		WithdrawLimit:     decimal.NewFromInt(2000),
		InterestRate:      decimal.RequireFromString("0.01"),
		LargeDeposit:      decimal.NewFromInt(10000),
		AlertThreshold:    decimal.NewFromInt(100),
	}
}

// Option 調整 Bank 的建構參數。
type Option func(*Bank)

// WithRules 覆寫帳本規則。
func WithRules(r Rules) Option { return func(b *Bank) { b.rules = r } }

// WithSink 設定通知出口；未設定時不送通知。
func WithSink(s Sink) Option { return func(b *Bank) { b.sink = s } }

// WithLogger 設定 logger。
func WithLogger(l *slog.Logger) Option { return func(b *Bank) { b.log = l } }

// WithClock 替換時間來源（測試用）。
func WithClock(now func() time.Time) Option { return func(b *Bank) { b.now = now } }

// WithReconcile 為 true 時，載入遇到餘額與歷史不符會以歷史重算並寫回，而非拒絕啟動。
func WithReconcile(on bool) Option { return func(b *Bank) { b.reconcile = on } }

// Bank 為聚合根 (Aggregate Root)：管理全系統帳戶，是帳戶狀態的唯一入口。
type Bank struct {
	mu        sync.Mutex
	store     Store
	sink      Sink
	log       *slog.Logger
	now       func() time.Time
	rules     Rules
	reconcile bool
	accts     map[string]*Account
}

// Open 從 store 載入全部帳戶並逐一驗證餘額 = 交易加總。
func Open(ctx context.Context, store Store, opts ...Option) (*Bank, error) {
	b := &Bank{
		store: store,
		log:   slog.Default(),
		now:   time.Now,
		rules: DefaultRules(),
		accts: make(map[string]*Account),
	}
	for _, opt := range opts {
		opt(b)
	}

	snap, err := store.Load(ctx)
	if err != nil {
		return nil, storageErr("load", err)
	}

	var repaired []string
	for id, rec := range snap {
		a, err := fromRecord(id, rec, b.rules.AlertThreshold)
		if err != nil {
			return nil, err
		}
		// 舊資料的利息是未進位的浮點數，兩邊都以原值加總後再比到分。
		fold := foldBalance(a.History)
		if !fold.Round(2).Equal(a.Balance.Round(2)) {
			if !b.reconcile {
				return nil, fmt.Errorf("%w: account %s stores %s, history sums to %s",
					ErrBalanceDrift, id, a.Balance.String(), fold.String())
			}
			b.log.Warn("reconciled balance from history",
				"account", id, "stored", a.Balance.String(), "derived", fold.String())
			repaired = append(repaired, id)
		}
		a.Balance = fold
		b.accts[id] = a
	}
	if len(repaired) > 0 {
		sort.Strings(repaired)
		if err := b.store.Save(ctx, b.snapshot(), repaired); err != nil {
			return nil, storageErr("save reconciled", err)
		}
	}
	b.log.Info("ledger loaded", "accounts", len(b.accts))
	return b, nil
}

// clock 回傳截到秒的現在時間；持久化格式只有秒。
func (b *Bank) clock() time.Time {
	return b.now().Truncate(time.Second)
}

// snapshot 匯出全部帳戶，changed 中的帳戶覆蓋同名者。呼叫端須持有 mu。
func (b *Bank) snapshot(changed ...*Account) storage.Snapshot {
	snap := make(storage.Snapshot, len(b.accts)+len(changed))
	for id, a := range b.accts {
		snap[id] = a.record()
	}
	for _, a := range changed {
		snap[a.ID] = a.record()
	}
	return snap
}

// commit 寫入含 changed 的完整狀態，成功後才替換記憶體中的帳戶。呼叫端須持有 mu。
func (b *Bank) commit(ctx context.Context, changed ...*Account) error {
	touched := make([]string, 0, len(changed))
	for _, a := range changed {
		touched = append(touched, a.ID)
	}
	if err := b.store.Save(ctx, b.snapshot(changed...), touched); err != nil {
		b.log.Error("ledger commit failed", "accounts", touched, "err", err)
		return storageErr("save", err)
	}
	for _, a := range changed {
		b.accts[a.ID] = a
	}
	return nil
}

// lookup 取得內部帳戶指標。呼叫端須持有 mu。
func (b *Bank) lookup(id string) (*Account, error) {
	a, ok := b.accts[id]
	if !ok {
		return nil, errorf(ErrNotFound, "account %q not found", id)
	}
	return a, nil
}

func positive(amount decimal.Decimal, what string) (decimal.Decimal, error) {
	amt := amount.Round(2)
	if !amt.IsPositive() {
		return amt, errorf(ErrBadAmount, "%s amount must be positive, got %s", what, amount.String())
	}
	return amt, nil
}

// CreateAccount 以持有人指定的帳號開戶，並記錄一筆初始存款。
func (b *Bank) CreateAccount(ctx context.Context, req NewAccount) (*Account, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return nil, &validate.Error{Field: "id", Reason: "account number cannot be empty"}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.accts[id]; ok {
		return nil, errorf(ErrDuplicate, "account %q already exists", id)
	}

	holder := req.Holder
	holder.Name = strings.TrimSpace(holder.Name)
	if holder.Name == "" {
		holder.Name = "Unknown"
	}
	holder.Email = strings.ToLower(strings.TrimSpace(holder.Email))
	if err := validate.Email(holder.Email); err != nil {
		return nil, err
	}
	if holder.Phone != "" {
		if err := validate.Phone(holder.Phone); err != nil {
			return nil, err
		}
	}
	if holder.SSN != "" {
		if err := validate.SSN(holder.SSN); err != nil {
			return nil, err
		}
	}
	if holder.DOB != "" {
		if err := validate.DOB(holder.DOB, b.now()); err != nil {
			return nil, err
		}
	}

	deposit := req.InitialDeposit.Round(2)
	if deposit.LessThan(b.rules.MinInitialDeposit) {
		return nil, errorf(ErrBadDeposit, "initial deposit must be at least %s, got %s",
			b.rules.MinInitialDeposit.StringFixed(2), req.InitialDeposit.String())
	}

	now := b.clock()
	a := &Account{
		ID:      id,
		Holder:  holder,
		Balance: deposit,
		Created: now,
		Preferences: Preferences{
			EmailNotifications: true,
			LowBalanceAlert:    true,
			AlertThreshold:     b.rules.AlertThreshold,
		},
		History: []Transaction{{Kind: KindDeposit, Amount: deposit, Time: now, Description: "Initial deposit"}},
	}
	if err := b.commit(ctx, a); err != nil {
		return nil, err
	}

	b.log.Info("account created", "account", id, "deposit", deposit.StringFixed(2))
	b.emit(a, notify.Welcome, deposit, "")
	return a.clone(), nil
}

// Deposit 存款：金額需 > 0；回傳新餘額。
func (b *Bank) Deposit(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	amt, err := positive(amount, "deposit")
	if err != nil {
		return decimal.Zero, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	a, err := b.lookup(id)
	if err != nil {
		return decimal.Zero, err
	}
	cp := a.clone()
	cp.Balance = cp.Balance.Add(amt)
	cp.History = append(cp.History, Transaction{Kind: KindDeposit, Amount: amt, Time: b.clock(), Description: "Deposit"})
	if err := b.commit(ctx, cp); err != nil {
		return decimal.Zero, err
	}

	if amt.GreaterThan(b.rules.LargeDeposit) {
		b.log.Warn("large deposit, subject to review", "account", id, "amount", amt.StringFixed(2))
	}
	b.emit(cp, notify.Deposit, amt, "")
	return cp.Balance, nil
}

// Withdraw 提款：金額需 > 0、不得超過餘額，也不得超過單筆上限。
// 提款後若餘額低於持有人設定的門檻，會另外送出低餘額通知。
func (b *Bank) Withdraw(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	amt, err := positive(amount, "withdrawal")
	if err != nil {
		return decimal.Zero, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	a, err := b.lookup(id)
	if err != nil {
		return decimal.Zero, err
	}
	if amt.GreaterThan(a.Balance) {
		return decimal.Zero, errorf(ErrInsufficient, "insufficient funds, available balance %s", a.Balance.StringFixed(2))
	}
	if amt.GreaterThan(b.rules.WithdrawLimit) {
		return decimal.Zero, errorf(ErrLimitExceeded, "amount %s exceeds the per-withdrawal limit of %s",
			amt.StringFixed(2), b.rules.WithdrawLimit.StringFixed(2))
	}

	cp := a.clone()
	cp.Balance = cp.Balance.Sub(amt)
	cp.History = append(cp.History, Transaction{Kind: KindWithdrawal, Amount: amt, Time: b.clock(), Description: "Withdrawal"})
	if err := b.commit(ctx, cp); err != nil {
		return decimal.Zero, err
	}

	b.emit(cp, notify.Withdrawal, amt, "")
	b.checkLowBalance(cp)
	return cp.Balance, nil
}

// Transfer 轉帳為「單一臨界區 + 單次 Save」的原子操作：
// 兩邊餘額與兩筆交易（TRANSFER_OUT / TRANSFER_IN）一起寫入，任一步失敗皆不改變狀態。
func (b *Bank) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) (*TransferReceipt, error) {
	amt, err := positive(amount, "transfer")
	if err != nil {
		return nil, err
	}
	if fromID == toID {
		return nil, errorf(ErrSameAccount, "cannot transfer to the same account %q", fromID)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	from, ok := b.accts[fromID]
	if !ok {
		return nil, errorf(ErrNotFound, "source account %q not found", fromID)
	}
	to, ok := b.accts[toID]
	if !ok {
		return nil, errorf(ErrNotFound, "destination account %q not found", toID)
	}
	if amt.GreaterThan(from.Balance) {
		return nil, errorf(ErrInsufficient, "insufficient funds, available balance %s", from.Balance.StringFixed(2))
	}

	now := b.clock()
	ref := uuid.NewString()
	src, dst := from.clone(), to.clone()
	src.Balance = src.Balance.Sub(amt)
	dst.Balance = dst.Balance.Add(amt)
	src.History = append(src.History, Transaction{
		Kind: KindTransferOut, Amount: amt, Time: now, Reference: ref,
		Description: "To account " + toID,
	})
	dst.History = append(dst.History, Transaction{
		Kind: KindTransferIn, Amount: amt, Time: now, Reference: ref,
		Description: "From account " + fromID,
	})
	if err := b.commit(ctx, src, dst); err != nil {
		return nil, err
	}

	b.log.Info("transfer committed", "from", fromID, "to", toID, "amount", amt.StringFixed(2), "reference", ref)
	b.emit(src, notify.TransferSent, amt, toID)
	b.emit(dst, notify.TransferReceived, amt, fromID)
	b.checkLowBalance(src)
	return &TransferReceipt{
		Reference:   ref,
		From:        fromID,
		To:          toID,
		Amount:      amt,
		FromBalance: src.Balance,
		ToBalance:   dst.Balance,
		Time:        now,
	}, nil
}

// ApplyInterest 以 rate 計息（rate 為零值時使用規則中的預設利率），回傳利息金額與計息後餘額。
// 利息 = round(balance × rate, 2)；利息為 0 時不記帳。
func (b *Bank) ApplyInterest(ctx context.Context, id string, rate decimal.Decimal) (interest, balance decimal.Decimal, err error) {
	if rate.IsZero() {
		rate = b.rules.InterestRate
	}
	if !rate.IsPositive() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, decimal.Zero, errorf(ErrBadAmount, "interest rate must be within (0, 1], got %s", rate.String())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	a, err := b.lookup(id)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	interest = a.Balance.Mul(rate).Round(2)
	if !interest.IsPositive() {
		return decimal.Zero, a.Balance, nil
	}

	cp := a.clone()
	cp.Balance = cp.Balance.Add(interest)
	cp.History = append(cp.History, Transaction{
		Kind: KindInterest, Amount: interest, Time: b.clock(),
		Description: fmt.Sprintf("Monthly interest at %s%%", rate.Mul(decimal.NewFromInt(100)).String()),
	})
	if err := b.commit(ctx, cp); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	b.emitRate(cp, interest, rate)
	return interest, cp.Balance, nil
}

// GetAccount 回傳帳戶拷貝，避免外部直接改寫內部狀態。
func (b *Bank) GetAccount(id string) (*Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, err := b.lookup(id)
	if err != nil {
		return nil, err
	}
	return a.clone(), nil
}

// ListAccounts 依帳號排序列出全部帳戶。
func (b *Bank) ListAccounts() []AccountRef {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]AccountRef, 0, len(b.accts))
	for id, a := range b.accts {
		out = append(out, AccountRef{ID: id, Name: a.Holder.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// History 回傳交易歷史（值拷貝），順序即發生順序。
func (b *Bank) History(id string) ([]Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, err := b.lookup(id)
	if err != nil {
		return nil, err
	}
	out := make([]Transaction, len(a.History))
	copy(out, a.History)
	return out, nil
}

// Summary 對交易歷史做 fold 得到統計與帳齡。
func (b *Bank) Summary(id string) (*Summary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, err := b.lookup(id)
	if err != nil {
		return nil, err
	}
	s := summarize(a, b.now())
	return &s, nil
}

// UpdatePreferences 修改通知偏好與 email；門檻需 > 0，email 需通過格式檢查。
func (b *Bank) UpdatePreferences(ctx context.Context, id string, upd PreferencesUpdate) (*Account, error) {
	var email string
	if upd.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*upd.Email))
		if err := validate.Email(email); err != nil {
			return nil, err
		}
	}
	if upd.AlertThreshold != nil && !upd.AlertThreshold.IsPositive() {
		return nil, errorf(ErrBadAmount, "alert threshold must be positive, got %s", upd.AlertThreshold.String())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	a, err := b.lookup(id)
	if err != nil {
		return nil, err
	}
	cp := a.clone()
	if upd.Email != nil {
		cp.Holder.Email = email
	}
	if upd.EmailNotifications != nil {
		cp.Preferences.EmailNotifications = *upd.EmailNotifications
	}
	if upd.LowBalanceAlert != nil {
		cp.Preferences.LowBalanceAlert = *upd.LowBalanceAlert
	}
	if upd.AlertThreshold != nil {
		cp.Preferences.AlertThreshold = upd.AlertThreshold.Round(2)
	}
	if err := b.commit(ctx, cp); err != nil {
		return nil, err
	}
	return cp.clone(), nil
}
