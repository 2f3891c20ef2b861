package persist

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"os"
	"path/filepath"
	"time"

	"firepoz-backend/internal/db"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type storeImage struct {
	ImageKey string `gorm:"column:image_key;primaryKey"`
	Image    []byte `gorm:"not null"`
	Size     int    `gorm:"not null"`
	Checksum string `gorm:"size:64;not null"`
	SavedAt  time.Time
}

func (storeImage) TableName() string { return "store_images" }

// ObjectStore is the primary backend: a vault SQLite file holding one
// checksummed row per key.
type ObjectStore struct {
	DB *gorm.DB
}

// OpenObjectStore opens (creating if needed) the vault at path.
func OpenObjectStore(path string) (*ObjectStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create vault directory")
		}
	}
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open vault")
	}
	if err := gdb.AutoMigrate(&storeImage{}); err != nil {
		return nil, errors.Wrap(err, "migrate vault")
	}
	return &ObjectStore{DB: gdb}, nil
}

func (o *ObjectStore) Name() string { return "object_store" }

func (o *ObjectStore) Save(ctx context.Context, key string, image []byte) error {
	sum := sha256.Sum256(image)
	rec := storeImage{
		ImageKey: key,
		Image:    image,
		Size:     len(image),
		Checksum: hex.EncodeToString(sum[:]),
		SavedAt:  time.Now(),
	}
	err := o.DB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rec).Error
	return errors.Wrap(err, "save image")
}

func (o *ObjectStore) Load(ctx context.Context, key string) ([]byte, error) {
	var rec storeImage
	err := o.DB.WithContext(ctx).Where("image_key = ?", key).First(&rec).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, db.ErrNoImage
		}
		return nil, errors.Wrap(err, "load image")
	}
	sum := sha256.Sum256(rec.Image)
	if hex.EncodeToString(sum[:]) != rec.Checksum || len(rec.Image) != rec.Size {
		return nil, errors.Errorf("image %q failed checksum verification", key)
	}
	return rec.Image, nil
}

func (o *ObjectStore) Delete(ctx context.Context, key string) error {
	err := o.DB.WithContext(ctx).Where("image_key = ?", key).Delete(&storeImage{}).Error
	return errors.Wrap(err, "delete image")
}

// Close releases the vault connection pool.
func (o *ObjectStore) Close() error {
	sqlDB, err := o.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
