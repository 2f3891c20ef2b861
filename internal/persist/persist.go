// Package persist writes the store image to redundant durable backends.
package persist

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"firepoz-backend/internal/db"
	"firepoz-backend/internal/metrics"
	"github.com/pkg/errors"
)

// Backend stores one image per key.
type Backend interface {
	Name() string
	Save(ctx context.Context, key string, image []byte) error
	// Load returns db.ErrNoImage when key is absent.
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Warning reports backends that failed to save an image. The data is still
// committed in memory; only durability is affected.
type Warning struct {
	Failures map[string]error
}

func (w *Warning) Error() string {
	parts := make([]string, 0, len(w.Failures))
	for name, err := range w.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", name, err))
	}
	return "store image not persisted (" + strings.Join(parts, "; ") + ")"
}

// IsWarning reports whether err is a persistence Warning.
func IsWarning(err error) bool {
	var w *Warning
	return stderrors.As(err, &w)
}

// Layer fans every image out to all backends, in order. Restore reads them
// in the same order, so the first backend is the primary.
type Layer struct {
	Backends []Backend
	Key      string
	Logger   *slog.Logger
}

// Persist exports src and writes the image to every backend. It returns a
// *Warning when at least one backend failed.
func (l *Layer) Persist(ctx context.Context, src db.Exporter) error {
	image, err := src.Export(ctx)
	if err != nil {
		metrics.PersistFailures.WithLabelValues("export").Inc()
		l.logger().Warn("store export failed", "err", err)
		return &Warning{Failures: map[string]error{"export": err}}
	}
	metrics.PersistBytes.Set(float64(len(image)))

	failures := map[string]error{}
	for _, b := range l.Backends {
		if err := b.Save(ctx, l.Key, image); err != nil {
			metrics.PersistFailures.WithLabelValues(b.Name()).Inc()
			l.logger().Warn("store image save failed", "backend", b.Name(), "err", err)
			failures[b.Name()] = err
		}
	}
	if len(failures) > 0 {
		return &Warning{Failures: failures}
	}
	l.logger().Debug("store image saved", "bytes", len(image), "backends", len(l.Backends))
	return nil
}

// Restore returns the image held by the first backend that has one.
func (l *Layer) Restore(ctx context.Context) ([]byte, error) {
	var errs []error
	for _, b := range l.Backends {
		image, err := b.Load(ctx, l.Key)
		if err == nil {
			return image, nil
		}
		if !stderrors.Is(err, db.ErrNoImage) {
			l.logger().Warn("store image load failed", "backend", b.Name(), "err", err)
			errs = append(errs, errors.Wrap(err, b.Name()))
		}
	}
	if len(errs) > 0 {
		return nil, stderrors.Join(errs...)
	}
	return nil, db.ErrNoImage
}

// Clear deletes the image from every backend.
func (l *Layer) Clear(ctx context.Context) error {
	var errs []error
	for _, b := range l.Backends {
		if err := b.Delete(ctx, l.Key); err != nil {
			errs = append(errs, errors.Wrap(err, b.Name()))
		}
	}
	return stderrors.Join(errs...)
}

func (l *Layer) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}
