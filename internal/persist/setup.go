package persist

import (
	"context"
	"log/slog"

	"firepoz-backend/internal/config"
	"firepoz-backend/internal/db"
)

// New builds the layer described by cfg: the vault object store first, then
// the key/value fallback (Postgres when DATABASE_URL is set, files otherwise).
// The returned func releases the backends.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Layer, func(), error) {
	objects, err := OpenObjectStore(cfg.VaultPath)
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){func() { _ = objects.Close() }}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var kv KV = FileKV{Dir: cfg.KVDir}
	if cfg.DatabaseURL != "" {
		pg, err := db.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, pg.Close)
		pkv := PostgresKV{DB: pg}
		if err := pkv.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		kv = pkv
		logger.Info("kv fallback on postgres")
	}

	layer := &Layer{
		Backends: []Backend{objects, KVFallback{KV: kv, MaxBytes: cfg.KVMaxBytes}},
		Key:      cfg.StoreKey,
		Logger:   logger,
	}
	return layer, closeAll, nil
}
