package db

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"sync"

	"firepoz-backend/internal/apperr"
	"github.com/pkg/errors"
)

// ErrNoImage is returned by a Persistence that holds no store image.
var ErrNoImage = stderrors.New("no persisted store image")

// Exporter produces a full store image.
type Exporter interface {
	Export(ctx context.Context) ([]byte, error)
}

// Persistence saves and restores store images.
type Persistence interface {
	Restore(ctx context.Context) ([]byte, error)
	Persist(ctx context.Context, src Exporter) error
	Clear(ctx context.Context) error
}

// Accessor lazily builds the store handle and hands it to callers. It is
// created once by the process and injected wherever a store is needed.
type Accessor struct {
	Persistence   Persistence
	SeedImagePath string
	Logger        *slog.Logger

	mu    sync.Mutex
	store *Store
}

// NewAccessor returns an Accessor that already holds st.
func NewAccessor(st *Store) *Accessor {
	return &Accessor{store: st}
}

// Get returns the current store, building it on first use: persisted image
// first, then the seed image file, then the bundled seed.
func (a *Accessor) Get(ctx context.Context) (*Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store != nil {
		return a.store, nil
	}
	st, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	a.store = st
	return st, nil
}

func (a *Accessor) load(ctx context.Context) (*Store, error) {
	var restoreErr error
	if a.Persistence != nil {
		image, err := a.Persistence.Restore(ctx)
		switch {
		case err == nil:
			st, openErr := OpenImage(ctx, image)
			if openErr == nil {
				a.logger().Info("store restored", "bytes", len(image))
				return st, nil
			}
			restoreErr = openErr
		case stderrors.Is(err, ErrNoImage):
		default:
			restoreErr = err
		}
		if restoreErr != nil {
			a.logger().Warn("store restore failed, falling back to seed", "err", restoreErr)
		}
	}

	st, seedErr := a.seed(ctx)
	if seedErr != nil {
		return nil, apperr.StorageUnavailable(stderrors.Join(restoreErr, seedErr), "store unavailable")
	}
	return st, nil
}

func (a *Accessor) seed(ctx context.Context) (*Store, error) {
	if a.SeedImagePath == "" {
		st, err := OpenSeeded(ctx)
		if err == nil {
			a.logger().Info("store seeded from bundled data")
		}
		return st, err
	}
	image, err := os.ReadFile(a.SeedImagePath)
	if err != nil {
		return nil, errors.Wrap(err, "read seed image")
	}
	st, err := OpenImage(ctx, image)
	if err == nil {
		a.logger().Info("store seeded from image", "path", a.SeedImagePath, "bytes", len(image))
	}
	return st, err
}

// Replace swaps the current store for one built from image and persists it.
// A non-nil error after a successful swap is a persistence warning.
func (a *Accessor) Replace(ctx context.Context, image []byte) error {
	st, err := OpenImage(ctx, image)
	if err != nil {
		return apperr.Validation("invalid store image: %v", err)
	}

	a.mu.Lock()
	old := a.store
	a.store = st
	a.mu.Unlock()
	old.Close()

	if a.Persistence == nil {
		return nil
	}
	return a.Persistence.Persist(ctx, st)
}

// Reset drops the current handle so the next Get rebuilds it.
func (a *Accessor) Reset() {
	a.mu.Lock()
	old := a.store
	a.store = nil
	a.mu.Unlock()
	old.Close()
}

// Clear removes every persisted image and drops the current handle.
func (a *Accessor) Clear(ctx context.Context) error {
	var err error
	if a.Persistence != nil {
		err = a.Persistence.Clear(ctx)
	}
	a.Reset()
	return err
}

func (a *Accessor) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

// Health builds the store if needed and pings it.
func (a *Accessor) Health(ctx context.Context) error {
	st, err := a.Get(ctx)
	if err != nil {
		return err
	}
	return st.Health(ctx)
}
