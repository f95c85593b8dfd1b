package preferences

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"raton/internal/flight"
	logx "raton/pkg/logx"
)

const fileExt = ".yaml"

type yamlStore struct {
	dir string
	log logx.Logger
}

// NewYAMLStore stores one document per chat under dir. The directory is
// created lazily on the first Save.
func NewYAMLStore(dir string, log logx.Logger) (Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("preferences dir is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &yamlStore{dir: dir, log: log}, nil
}

func (s *yamlStore) path(chatID int64) string {
	return filepath.Join(s.dir, strconv.FormatInt(chatID, 10)+fileExt)
}

func (s *yamlStore) Save(_ context.Context, chatID int64, p flight.Preferences) error {
	b, err := Encode(p)
	if err != nil {
		return storageErr(chatID, "invalid preferences", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return storageErr(chatID, "create dir", err)
	}
	if err := writeFileAtomic(s.path(chatID), b); err != nil {
		return storageErr(chatID, "write", err)
	}
	s.log.Debug("preferences saved", logx.Int64("chat_id", chatID))
	return nil
}

func (s *yamlStore) Update(ctx context.Context, chatID int64, p flight.Preferences) error {
	return s.Save(ctx, chatID, p)
}

func (s *yamlStore) Load(_ context.Context, chatID int64) (flight.Preferences, error) {
	b, err := os.ReadFile(s.path(chatID))
	if errors.Is(err, fs.ErrNotExist) {
		return flight.Preferences{}, notFound(chatID)
	}
	if err != nil {
		return flight.Preferences{}, storageErr(chatID, "read", err)
	}
	p, err := Decode(b)
	if err != nil {
		return flight.Preferences{}, storageErr(chatID, "invalid document", err)
	}
	return p, nil
}

func (s *yamlStore) Delete(_ context.Context, chatID int64) error {
	err := os.Remove(s.path(chatID))
	if errors.Is(err, fs.ErrNotExist) {
		return notFound(chatID)
	}
	if err != nil {
		return storageErr(chatID, "delete", err)
	}
	return nil
}

func (s *yamlStore) ListUsers(context.Context) ([]int64, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []int64{}, nil
	}
	if err != nil {
		return nil, storageErr(0, "list dir", err)
	}
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(name, fileExt), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *yamlStore) Exists(_ context.Context, chatID int64) (bool, error) {
	_, err := os.Stat(s.path(chatID))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, storageErr(chatID, "stat", err)
	}
	return true, nil
}

func (s *yamlStore) Close() error { return nil }

// writeFileAtomic replaces path so readers never see a partial document.
func writeFileAtomic(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer func() { _ = os.Remove(name) }()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	return os.Rename(name, path)
}
