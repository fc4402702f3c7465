// internal/storage/jsonstore.go
//
// 提供 JSON 快照的讀寫實作，是帳本預設的持久化後端。
// 採「原子寫入」策略：先寫入 .tmp 檔並 fsync，再以 rename() 取代原檔，
// 轉帳等跨帳戶異動因此只會整份成功或整份失敗。
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// JSONStore 將整份 Snapshot 存成單一 JSON 檔。
type JSONStore struct {
	path string
}

// NewJSONStore 建立以 path 為資料檔的 JSONStore。
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path 回傳資料檔路徑。
func (s *JSONStore) Path() string { return s.path }

// Load 讀取資料檔；檔案不存在時回傳空快照（首次啟動）。
func (s *JSONStore) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	snap := Snapshot{}
	if len(b) == 0 {
		return snap, nil
	}
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return snap, nil
}

// Save 以原子方式覆寫整份快照。JSON 後端每次都寫全量，touched 不使用。
func (s *JSONStore) Save(ctx context.Context, snap Snapshot, _ []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	// 使用縮排格式輸出，方便人工檢視
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	// 原子替換
	return os.Rename(tmp, s.path)
}

// Close 沒有需要釋放的資源。
func (s *JSONStore) Close() error { return nil }
