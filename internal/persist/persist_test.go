package persist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"firepoz-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBackend struct {
	name    string
	data    map[string][]byte
	saveErr error
	loadErr error
}

func newMem(name string) *memBackend {
	return &memBackend{name: name, data: map[string][]byte{}}
}

func (m *memBackend) Name() string { return m.name }

func (m *memBackend) Save(_ context.Context, key string, image []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[key] = append([]byte(nil), image...)
	return nil
}

func (m *memBackend) Load(_ context.Context, key string) ([]byte, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	img, ok := m.data[key]
	if !ok {
		return nil, db.ErrNoImage
	}
	return img, nil
}

func (m *memBackend) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

type staticExporter []byte

func (s staticExporter) Export(context.Context) ([]byte, error) { return s, nil }

type failingExporter struct{}

func (failingExporter) Export(context.Context) ([]byte, error) { return nil, errors.New("busy") }

func TestPersistWritesEveryBackend(t *testing.T) {
	a, b := newMem("a"), newMem("b")
	l := &Layer{Backends: []Backend{a, b}, Key: "k"}

	require.NoError(t, l.Persist(context.Background(), staticExporter("image-1")))
	assert.Equal(t, []byte("image-1"), a.data["k"])
	assert.Equal(t, []byte("image-1"), b.data["k"])
}

func TestPersistReportsWarning(t *testing.T) {
	a, b := newMem("a"), newMem("b")
	a.saveErr = errors.New("quota")
	l := &Layer{Backends: []Backend{a, b}, Key: "k"}

	err := l.Persist(context.Background(), staticExporter("image-1"))
	require.Error(t, err)
	assert.True(t, IsWarning(err))
	assert.Contains(t, err.Error(), "quota")
	assert.Equal(t, []byte("image-1"), b.data["k"])

	err = l.Persist(context.Background(), failingExporter{})
	assert.True(t, IsWarning(err))
}

func TestRestoreFallsBack(t *testing.T) {
	ctx := context.Background()
	a, b := newMem("a"), newMem("b")
	l := &Layer{Backends: []Backend{a, b}, Key: "k"}

	_, err := l.Restore(ctx)
	assert.ErrorIs(t, err, db.ErrNoImage)

	b.data["k"] = []byte("from-b")
	img, err := l.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("from-b"), img)

	a.data["k"] = []byte("from-a")
	img, err = l.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("from-a"), img)

	delete(a.data, "k")
	delete(b.data, "k")
	a.loadErr = errors.New("corrupt")
	_, err = l.Restore(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, db.ErrNoImage)
}

func TestClearRemovesEverywhere(t *testing.T) {
	a, b := newMem("a"), newMem("b")
	a.data["k"], b.data["k"] = []byte("x"), []byte("x")
	l := &Layer{Backends: []Backend{a, b}, Key: "k"}

	require.NoError(t, l.Clear(context.Background()))
	assert.Empty(t, a.data)
	assert.Empty(t, b.data)
}

func TestObjectStore(t *testing.T) {
	ctx := context.Background()
	o, err := OpenObjectStore(filepath.Join(t.TempDir(), "vault", "vault.db"))
	require.NoError(t, err)
	defer o.Close()

	_, err = o.Load(ctx, "k")
	assert.ErrorIs(t, err, db.ErrNoImage)

	require.NoError(t, o.Save(ctx, "k", []byte("first")))
	require.NoError(t, o.Save(ctx, "k", []byte("second")))
	img, err := o.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), img)

	require.NoError(t, o.Delete(ctx, "k"))
	_, err = o.Load(ctx, "k")
	assert.ErrorIs(t, err, db.ErrNoImage)
}

func TestKVFallbackOnFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f := KVFallback{KV: FileKV{Dir: dir}, MaxBytes: 64}

	_, err := f.Load(ctx, "k")
	assert.ErrorIs(t, err, db.ErrNoImage)

	require.NoError(t, f.Save(ctx, "k", []byte{0, 1, 2, 255}))
	img, err := f.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 255}, img)

	err = f.Save(ctx, "k", make([]byte, 100))
	assert.ErrorIs(t, err, ErrTooLarge)

	require.NoError(t, f.Delete(ctx, "k"))
	require.NoError(t, f.Delete(ctx, "k"))
	_, err = os.Stat(filepath.Join(dir, "k.b64"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileKVRejectsPathKeys(t *testing.T) {
	kv := FileKV{Dir: t.TempDir()}
	assert.Error(t, kv.Set(context.Background(), "../escape", "x"))
	_, _, err := kv.Get(context.Background(), "a/b")
	assert.Error(t, err)
}

func TestPostgresKV(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pg, err := db.NewPostgres(ctx, url)
	require.NoError(t, err)
	defer pg.Close()

	kv := PostgresKV{DB: pg}
	require.NoError(t, kv.EnsureSchema(ctx))
	require.NoError(t, kv.Set(ctx, "persist-test", "v1"))
	v, ok, err := kv.Get(ctx, "persist-test")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", v)
	require.NoError(t, kv.Delete(ctx, "persist-test"))
	_, ok, err = kv.Get(ctx, "persist-test")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLayerAgainstRealStore(t *testing.T) {
	ctx := context.Background()
	st, err := db.Open(ctx)
	require.NoError(t, err)
	defer st.Close()
	_, err = st.DB.ExecContext(ctx, `INSERT INTO categories (description) VALUES ('Glaces')`)
	require.NoError(t, err)

	o, err := OpenObjectStore(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	defer o.Close()
	l := &Layer{Backends: []Backend{o, KVFallback{KV: FileKV{Dir: t.TempDir()}, MaxBytes: 5 << 20}}, Key: "pos"}

	require.NoError(t, l.Persist(ctx, st))
	img, err := l.Restore(ctx)
	require.NoError(t, err)

	restored, err := db.OpenImage(ctx, img)
	require.NoError(t, err)
	defer restored.Close()
	var desc string
	require.NoError(t, restored.DB.QueryRowContext(ctx, `SELECT description FROM categories`).Scan(&desc))
	assert.Equal(t, "Glaces", desc)

	for i := 0; i < 400; i++ {
		_, err := restored.DB.ExecContext(ctx, `INSERT INTO categories (description) VALUES (?)`, strings.Repeat("g", 1024))
		require.NoErrorf(t, err, "insert %d", i+1)
	}
	require.NoError(t, l.Persist(ctx, restored))
	again, err := l.Restore(ctx)
	require.NoError(t, err)
	assert.Greater(t, len(again), len(img)+400*1024)
}
