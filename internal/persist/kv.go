package persist

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"firepoz-backend/internal/db"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// ErrTooLarge is returned when an encoded image exceeds the key/value limit.
var ErrTooLarge = stderrors.New("image exceeds key/value size limit")

// KV is a string key/value store.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// KVFallback keeps a base64 copy of the image in a size-limited KV.
type KVFallback struct {
	KV       KV
	MaxBytes int
}

func (f KVFallback) Name() string { return "kv_fallback" }

func (f KVFallback) Save(ctx context.Context, key string, image []byte) error {
	enc := base64.StdEncoding.EncodeToString(image)
	if f.MaxBytes > 0 && len(enc) > f.MaxBytes {
		return errors.Wrapf(ErrTooLarge, "%d encoded bytes, limit %d", len(enc), f.MaxBytes)
	}
	return f.KV.Set(ctx, key, enc)
}

func (f KVFallback) Load(ctx context.Context, key string) ([]byte, error) {
	enc, ok, err := f.KV.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, db.ErrNoImage
	}
	image, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	return image, nil
}

func (f KVFallback) Delete(ctx context.Context, key string) error {
	return f.KV.Delete(ctx, key)
}

// FileKV stores each key as a file in Dir.
type FileKV struct {
	Dir string
}

func (k FileKV) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", errors.Errorf("invalid key %q", key)
	}
	return filepath.Join(k.Dir, key+".b64"), nil
}

func (k FileKV) Get(_ context.Context, key string) (string, bool, error) {
	p, err := k.path(key)
	if err != nil {
		return "", false, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "read kv file")
	}
	return string(b), true, nil
}

func (k FileKV) Set(_ context.Context, key, value string) error {
	p, err := k.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(k.Dir, 0o755); err != nil {
		return errors.Wrap(err, "create kv directory")
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o600); err != nil {
		return errors.Wrap(err, "write kv file")
	}
	return errors.Wrap(os.Rename(tmp, p), "replace kv file")
}

func (k FileKV) Delete(_ context.Context, key string) error {
	p, err := k.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "remove kv file")
	}
	return nil
}

// PostgresKV keeps values in a kv_store table.
type PostgresKV struct {
	DB *db.Postgres
}

func (k PostgresKV) EnsureSchema(ctx context.Context) error {
	_, err := k.DB.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS kv_store (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return errors.Wrap(err, "create kv_store")
}

func (k PostgresKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := k.DB.Pool.QueryRow(ctx, `SELECT value FROM kv_store WHERE key=$1`, key).Scan(&value)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "select kv")
	}
	return value, true, nil
}

func (k PostgresKV) Set(ctx context.Context, key, value string) error {
	_, err := k.DB.Pool.Exec(ctx, `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()
	`, key, value)
	return errors.Wrap(err, "upsert kv")
}

func (k PostgresKV) Delete(ctx context.Context, key string) error {
	_, err := k.DB.Pool.Exec(ctx, `DELETE FROM kv_store WHERE key=$1`, key)
	return errors.Wrap(err, "delete kv")
}
