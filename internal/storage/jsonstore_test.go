// internal/storage/jsonstore_test.go
//
// 驗證 JSON 快照的讀寫：檔案格式與既有資料相容、寫入為原子替換、首次啟動沒有檔案也能載入。
package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

var ctx = context.Background()

func amt(s string) Amount { return NewAmount(decimal.RequireFromString(s)) }

func sampleSnapshot() Snapshot {
	return Snapshot{
		"1001": {
			Name:    "Ada",
			Email:   "ada@example.com",
			Phone:   "+1 555 0100",
			Balance: amt("150.5"),
			Created: "2026-03-01 09:30:00",
			Transactions: []TxRecord{
				{Type: "DEPOSIT", Amount: amt("100"), Date: "2026-03-01 09:30:00", Description: "Initial deposit"},
				{Type: "TRANSFER_IN", Amount: amt("50.5"), Date: "2026-03-01 10:00:00", Description: "From account 1002", Reference: "ref-1"},
			},
			Preferences: &PrefRecord{EmailNotifications: true, LowBalanceAlert: false, AlertThreshold: amt("100")},
		},
	}
}

// TestJSONSnapshotRoundTrip 寫入後讀回，欄位與金額一致。
func TestJSONSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bank_accounts.json")
	s := NewJSONStore(path)

	if err := s.Save(ctx, sampleSnapshot(), []string{"1001"}); err != nil {
		t.Fatalf("save err=%v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("tmp file left behind: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load err=%v", err)
	}
	rec, ok := got["1001"]
	if !ok || rec.Name != "Ada" || rec.Phone != "+1 555 0100" || !rec.Balance.Equal(decimal.RequireFromString("150.5")) {
		t.Fatalf("record=%+v", rec)
	}
	if len(rec.Transactions) != 2 || rec.Transactions[1].Reference != "ref-1" || rec.Transactions[1].Amount.StringFixed(2) != "50.50" {
		t.Fatalf("transactions=%+v", rec.Transactions)
	}
	if rec.Preferences == nil || rec.Preferences.LowBalanceAlert || rec.Preferences.AlertThreshold.StringFixed(2) != "100.00" {
		t.Fatalf("preferences=%+v", rec.Preferences)
	}

	// 金額以兩位小數的數字寫出
	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), `"balance": 150.50`) {
		t.Fatalf("balance not written as fixed number:\n%s", raw)
	}
}

// TestLoadMissingOrEmptyFile 首次啟動時沒有資料檔。
func TestLoadMissingOrEmptyFile(t *testing.T) {
	dir := t.TempDir()
	snap, err := NewJSONStore(filepath.Join(dir, "missing.json")).Load(ctx)
	if err != nil || len(snap) != 0 {
		t.Fatalf("missing file snap=%v err=%v", snap, err)
	}

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	snap, err = NewJSONStore(empty).Load(ctx)
	if err != nil || len(snap) != 0 {
		t.Fatalf("empty file snap=%v err=%v", snap, err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewJSONStore(bad).Load(ctx); err == nil {
		t.Fatal("expected decode error")
	}
}

// TestLegacyFile 既有資料：餘額可能是字串、沒有 preferences 與 reference。
func TestLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank_accounts.json")
	legacy := `{
  "12345": {
    "name": "Legacy",
    "email": "legacy@example.com",
    "balance": "90.00",
    "created": "2024-01-02 03:04:05",
    "transactions": [
      {"type": "DEPOSIT", "amount": 100, "date": "2024-01-02 03:04:05", "description": "Initial deposit"},
      {"type": "WITHDRAWAL", "amount": "10", "date": "2024-01-03 03:04:05", "description": "Withdrawal"}
    ]
  }
}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}
	snap, err := NewJSONStore(path).Load(ctx)
	if err != nil {
		t.Fatalf("load err=%v", err)
	}
	rec := snap["12345"]
	if rec.Balance.StringFixed(2) != "90.00" || rec.Preferences != nil || len(rec.Transactions) != 2 {
		t.Fatalf("legacy record=%+v", rec)
	}
	if rec.Transactions[1].Amount.StringFixed(2) != "10.00" {
		t.Fatalf("string amount=%s", rec.Transactions[1].Amount.String())
	}
}

func TestAmountJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`12`, "12.00"},
		{`12.5`, "12.50"},
		{`0.12625`, "0.12625"},
		{`"7.1"`, "7.10"},
		{`null`, "0.00"},
	}
	for _, c := range cases {
		var a Amount
		if err := json.Unmarshal([]byte(c.in), &a); err != nil {
			t.Fatalf("unmarshal %s err=%v", c.in, err)
		}
		out, _ := json.Marshal(a)
		if string(out) != c.want {
			t.Fatalf("%s -> %s want %s", c.in, out, c.want)
		}
	}
	var a Amount
	if err := json.Unmarshal([]byte(`"abc"`), &a); err == nil {
		t.Fatal("expected error for non-numeric amount")
	}
}
