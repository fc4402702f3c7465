// internal/server/server_test.go
//
// server 層的整合測試：透過 httptest.Server 走完整 HTTP 流程，
// 驗證 REST API 與 bank 層的整合、錯誤碼對應，以及資料確實寫入 JSON 檔。
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"banking/internal/bank"
	"banking/internal/notify"
	"banking/internal/storage"
)

func init() { gin.SetMode(gin.TestMode) }

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func openBank(t *testing.T, store bank.Store) *bank.Bank {
	t.Helper()
	b, err := bank.Open(context.Background(), store,
		bank.WithLogger(quietLogger()),
		bank.WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("Open err=%v", err)
	}
	return b
}

// doJSON 送出 JSON 請求並檢查狀態碼；out 非 nil 時解析回應。
func doJSON(t *testing.T, c *http.Client, method, url string, body any, wantCode int, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantCode {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s code=%d want=%d body=%s", method, url, resp.StatusCode, wantCode, raw)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp
}

func newAccount(id, email, deposit string) map[string]any {
	return map[string]any{"id": id, "name": "Holder " + id, "email": email, "initial_deposit": deposit}
}

// TestHTTPFlowAndPersistence 走過開戶、存提款、轉帳、查詢與計息，最後重新開啟檔案確認已落地。
func TestHTTPFlowAndPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank_accounts.json")
	b := openBank(t, storage.NewJSONStore(path))
	ts := httptest.NewServer(New(b, nil, quietLogger()).Router())
	defer ts.Close()
	cli := ts.Client()

	// 1. 開戶，金額可為字串或數字
	var a1, a2 accountView
	doJSON(t, cli, "POST", ts.URL+"/accounts", newAccount("1001", "ada@example.com", "1000"), 201, &a1)
	doJSON(t, cli, "POST", ts.URL+"/accounts", map[string]any{"id": "1002", "name": "Bob", "email": "bob@example.com", "initial_deposit": 500}, 201, &a2)
	if a1.Balance != "1000.00" || a1.Tier != "basic" || a1.Created != "2026-03-01 09:30:00" {
		t.Fatalf("a1=%+v", a1)
	}
	if !a2.Preferences.EmailNotifications || !a2.Preferences.LowBalanceAlert || a2.Preferences.AlertThreshold != "100.00" {
		t.Fatalf("default preferences=%+v", a2.Preferences)
	}

	// 2. 存款與提款
	var bal balanceView
	doJSON(t, cli, "POST", ts.URL+"/accounts/1001/deposit", map[string]any{"amount": "200"}, 200, &bal)
	if bal.Balance != "1200.00" {
		t.Fatalf("deposit balance=%s", bal.Balance)
	}
	doJSON(t, cli, "POST", ts.URL+"/accounts/1002/withdraw", map[string]any{"amount": 100}, 200, &bal)
	if bal.Balance != "400.00" {
		t.Fatalf("withdraw balance=%s", bal.Balance)
	}

	// 3. 轉帳回傳雙方最新餘額與共用 reference
	var tr transferView
	doJSON(t, cli, "POST", ts.URL+"/transfers", map[string]any{"from": "1001", "to": "1002", "amount": "800"}, 200, &tr)
	if tr.FromBalance != "400.00" || tr.ToBalance != "1200.00" || tr.Reference == "" {
		t.Fatalf("transfer=%+v", tr)
	}

	// 4. 查詢
	var got accountView
	doJSON(t, cli, "GET", ts.URL+"/accounts/1001", nil, 200, &got)
	if got.Balance != "400.00" {
		t.Fatalf("get 1001 balance=%s", got.Balance)
	}

	var txs []transactionView
	doJSON(t, cli, "GET", ts.URL+"/accounts/1002/transactions", nil, 200, &txs)
	if len(txs) != 3 || txs[0].Type != "DEPOSIT" || txs[1].Type != "WITHDRAWAL" || txs[2].Type != "TRANSFER_IN" {
		t.Fatalf("history=%+v", txs)
	}
	if txs[2].Reference != tr.Reference || txs[2].Description != "From account 1001" {
		t.Fatalf("transfer leg=%+v", txs[2])
	}

	var sum summaryView
	doJSON(t, cli, "GET", ts.URL+"/accounts/1002/summary", nil, 200, &sum)
	if sum.TotalCredits != "1300.00" || sum.TotalDebits != "100.00" || sum.NetFlow != "1200.00" || sum.Count != 3 {
		t.Fatalf("summary=%+v", sum)
	}

	// 5. 計息：不帶 body 使用預設 1%
	var iv interestView
	doJSON(t, cli, "POST", ts.URL+"/accounts/1001/interest", nil, 200, &iv)
	if iv.Interest != "4.00" || iv.Balance != "404.00" {
		t.Fatalf("interest=%+v", iv)
	}
	doJSON(t, cli, "POST", ts.URL+"/accounts/1002/interest", map[string]any{"rate": "0.05"}, 200, &iv)
	if iv.Interest != "60.00" || iv.Balance != "1260.00" {
		t.Fatalf("interest 5%%=%+v", iv)
	}

	// 6. 清單與 /api/v1 前綴
	var refs []accountRefView
	doJSON(t, cli, "GET", ts.URL+"/api/v1/accounts", nil, 200, &refs)
	if len(refs) != 2 || refs[0].ID != "1001" || refs[1].Name != "Bob" {
		t.Fatalf("list=%+v", refs)
	}

	// 7. 重新開啟同一個檔案，狀態應一致
	reopened := openBank(t, storage.NewJSONStore(path))
	for id, want := range map[string]string{"1001": "404.00", "1002": "1260.00"} {
		a, err := reopened.GetAccount(id)
		if err != nil || a.Balance.StringFixed(2) != want {
			t.Fatalf("reopened %s=%v err=%v want %s", id, a, err, want)
		}
	}
}

// TestErrorMapping 驗證各種領域錯誤對應到的狀態碼與錯誤格式。
func TestErrorMapping(t *testing.T) {
	b := openBank(t, storage.NewJSONStore(filepath.Join(t.TempDir(), "data.json")))
	ts := httptest.NewServer(New(b, nil, quietLogger()).Router())
	defer ts.Close()
	cli := ts.Client()

	doJSON(t, cli, "POST", ts.URL+"/accounts", newAccount("1001", "ada@example.com", "5000"), 201, nil)
	doJSON(t, cli, "POST", ts.URL+"/accounts", newAccount("1002", "bob@example.com", "50"), 201, nil)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		code   int
	}{
		{"duplicate account", "POST", "/accounts", newAccount("1001", "x@example.com", "100"), 409},
		{"deposit below minimum", "POST", "/accounts", newAccount("1003", "c@example.com", "5"), 400},
		{"bad email", "POST", "/accounts", newAccount("1003", "not-an-email", "100"), 400},
		{"missing id", "POST", "/accounts", map[string]any{"email": "c@example.com", "initial_deposit": 100}, 400},
		{"unknown account", "GET", "/accounts/9999", nil, 404},
		{"unknown account deposit", "POST", "/accounts/9999/deposit", map[string]any{"amount": 10}, 404},
		{"non-numeric amount", "POST", "/accounts/1001/deposit", map[string]any{"amount": "abc"}, 400},
		{"negative amount", "POST", "/accounts/1001/deposit", map[string]any{"amount": -5}, 400},
		{"insufficient funds", "POST", "/accounts/1002/withdraw", map[string]any{"amount": 60}, 409},
		{"over withdrawal limit", "POST", "/accounts/1001/withdraw", map[string]any{"amount": 2500}, 422},
		{"transfer insufficient", "POST", "/transfers", map[string]any{"from": "1002", "to": "1001", "amount": 999999}, 409},
		{"transfer same account", "POST", "/transfers", map[string]any{"from": "1001", "to": "1001", "amount": 1}, 400},
		{"transfer unknown target", "POST", "/transfers", map[string]any{"from": "1001", "to": "9999", "amount": 1}, 404},
		{"interest rate too high", "POST", "/accounts/1001/interest", map[string]any{"rate": 2}, 400},
		{"zero threshold", "PUT", "/accounts/1001/preferences", map[string]any{"alert_threshold": 0}, 400},
		{"unknown route", "GET", "/transfers", nil, 404},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var e errorBody
			doJSON(t, cli, c.method, ts.URL+c.path, c.body, c.code, &e)
			if e.Error == "" {
				t.Fatal("error body is empty")
			}
		})
	}

	// 失敗的操作不得改變餘額
	var got accountView
	doJSON(t, cli, "GET", ts.URL+"/accounts/1002", nil, 200, &got)
	if got.Balance != "50.00" {
		t.Fatalf("balance after failures=%s want 50.00", got.Balance)
	}

	// 錯誤的 JSON
	req, _ := http.NewRequest("POST", ts.URL+"/accounts/1001/deposit", bytes.NewBufferString("{bad json}"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := cli.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 400 {
		t.Fatalf("bad json code=%d want 400", resp.StatusCode)
	}
}

// brokenStore 可以載入，但每次寫入都失敗。
type brokenStore struct{}

func (brokenStore) Load(context.Context) (storage.Snapshot, error) { return storage.Snapshot{}, nil }

func (brokenStore) Save(context.Context, storage.Snapshot, []string) error {
	return errors.New("disk full")
}

func TestStorageUnavailable(t *testing.T) {
	b := openBank(t, brokenStore{})
	ts := httptest.NewServer(New(b, nil, quietLogger()).Router())
	defer ts.Close()

	var e errorBody
	doJSON(t, ts.Client(), "POST", ts.URL+"/accounts", newAccount("1001", "ada@example.com", "100"), 503, &e)
	if e.Error != bank.ErrStorageUnavailable.Error() {
		t.Fatalf("error=%q", e.Error)
	}
	doJSON(t, ts.Client(), "GET", ts.URL+"/accounts/1001", nil, 404, nil)
}

func TestPreferencesUpdate(t *testing.T) {
	b := openBank(t, storage.NewJSONStore(filepath.Join(t.TempDir(), "data.json")))
	ts := httptest.NewServer(New(b, nil, quietLogger()).Router())
	defer ts.Close()
	cli := ts.Client()

	doJSON(t, cli, "POST", ts.URL+"/accounts", newAccount("1001", "ada@example.com", "100"), 201, nil)

	var got accountView
	doJSON(t, cli, "PUT", ts.URL+"/accounts/1001/preferences",
		map[string]any{"low_balance_alert": false, "alert_threshold": "250", "email": "Ada.New@Example.com"}, 200, &got)
	if got.Preferences.LowBalanceAlert || !got.Preferences.EmailNotifications || got.Preferences.AlertThreshold != "250.00" {
		t.Fatalf("preferences=%+v", got.Preferences)
	}
	if got.Email != "ada.new@example.com" {
		t.Fatalf("email=%s", got.Email)
	}
	doJSON(t, cli, "PUT", ts.URL+"/accounts/1001/preferences", map[string]any{"email": "broken"}, 400, nil)
}

func TestTestNotification(t *testing.T) {
	var mu sync.Mutex
	var sent []string
	n := notify.NotifierFunc(func(_ context.Context, address string, kind notify.Kind, _ notify.Context) error {
		mu.Lock()
		defer mu.Unlock()
		if address == "down@example.com" {
			return errors.New("smtp unreachable")
		}
		sent = append(sent, string(kind)+":"+address)
		return nil
	})
	b := openBank(t, brokenStore{})
	ts := httptest.NewServer(New(b, n, quietLogger()).Router())
	defer ts.Close()
	cli := ts.Client()

	doJSON(t, cli, "POST", ts.URL+"/notifications/test", map[string]any{"email": "ops@example.com"}, 200, nil)
	doJSON(t, cli, "POST", ts.URL+"/notifications/test", map[string]any{"email": "nope"}, 400, nil)
	doJSON(t, cli, "POST", ts.URL+"/notifications/test", map[string]any{"email": "down@example.com"}, 502, nil)

	mu.Lock()
	defer mu.Unlock()
	if len(sent) != 1 || sent[0] != "TEST:ops@example.com" {
		t.Fatalf("sent=%v", sent)
	}
}

func TestRequestIDAndHealth(t *testing.T) {
	b := openBank(t, brokenStore{})
	ts := httptest.NewServer(New(b, nil, quietLogger()).Router())
	defer ts.Close()

	resp := doJSON(t, ts.Client(), "GET", ts.URL+"/health", nil, 200, nil)
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("missing generated X-Request-ID")
	}

	req, _ := http.NewRequest("GET", ts.URL+"/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 || resp.Header.Get("X-Request-ID") != "abc-123" {
		t.Fatalf("code=%d request id=%q", resp.StatusCode, resp.Header.Get("X-Request-ID"))
	}
}
