// internal/bank/errors.go
//
// 本檔集中定義「領域錯誤（domain errors）」。
// 這些錯誤屬於商業邏輯層級，由上層 HTTP handler 轉換成適當的 HTTP 狀態碼。
// 呼叫端一律以 errors.Is 比對；實際回傳的錯誤通常包了一層可讀訊息
// （例如「insufficient funds, available balance 150.00」）。

package bank

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 代表帳戶不存在。對應 404。
	ErrNotFound = errors.New("account not found")

	// ErrDuplicate 代表帳號已被使用。對應 409。
	ErrDuplicate = errors.New("account already exists")

	// ErrBadAmount 代表金額非法（<=0 或無法解析）。對應 400。
	ErrBadAmount = errors.New("amount must be > 0")

	// ErrBadDeposit 代表開戶存款低於最低門檻。對應 400。
	ErrBadDeposit = errors.New("initial deposit below minimum")

	// ErrInsufficient 代表餘額不足。對應 409。
	ErrInsufficient = errors.New("insufficient funds")

	// ErrLimitExceeded 代表單筆提款超過上限。對應 422。
	ErrLimitExceeded = errors.New("withdrawal limit exceeded")

	// ErrSameAccount 代表轉帳來源與目標相同。對應 400。
	ErrSameAccount = errors.New("from and to are same")

	// ErrStorageUnavailable 代表讀寫持久層失敗；狀態不會有任何變更。對應 503。
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrBalanceDrift 代表載入時快取餘額與交易歷史加總不一致。
	ErrBalanceDrift = errors.New("balance does not match transaction history")
)

// Error 讓領域錯誤附帶具體訊息，同時保留 errors.Is 的比對能力。
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// storageErr 將底層 I/O 錯誤包成 ErrStorageUnavailable，並保留原始錯誤。
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}
