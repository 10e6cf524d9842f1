package storage

import (
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/timescope/timescope/internal/models"
)

// Repository is the append-only sample log. It never reorders or deduplicates
// rows; duplicate timestamps from clock anomalies are kept as distinct
// samples. One writer (the sampler) and one concurrent reader are supported,
// relying on SQLite's own locking.
type Repository struct {
	db *DB
}

// NewRepository creates a repository over an initialized database handle.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Append persists one sample.
func (r *Repository) Append(sample *models.ActivitySample) error {
	return storageErr("append", r.db.Create(sample).Error)
}

// QueryRange returns all samples with start <= timestamp < end, ordered by
// timestamp ascending. A range with no samples yields an empty slice, not an
// error.
func (r *Repository) QueryRange(start, end time.Time) ([]models.ActivitySample, error) {
	var samples []models.ActivitySample
	result := r.db.
		Where("timestamp >= ? AND timestamp < ?", start, end).
		Order("timestamp ASC").
		Find(&samples)
	if result.Error != nil {
		return nil, storageErr("query", result.Error)
	}
	return samples, nil
}

// QueryPage returns the chunkIndex-th window of chunkSize rows within the
// range, ordered ascending. A short (or empty) result signals exhaustion to
// the caller.
func (r *Repository) QueryPage(start, end time.Time, chunkIndex, chunkSize int) ([]models.ActivitySample, error) {
	var samples []models.ActivitySample
	result := r.db.
		Where("timestamp >= ? AND timestamp < ?", start, end).
		Order("timestamp ASC").
		Limit(chunkSize).
		Offset(chunkIndex * chunkSize).
		Find(&samples)
	if result.Error != nil {
		return nil, storageErr("query page", result.Error)
	}
	return samples, nil
}

// Count returns the total number of persisted samples.
func (r *Repository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.ActivitySample{}).Count(&count).Error; err != nil {
		return 0, storageErr("count", err)
	}
	return count, nil
}

// Earliest returns the timestamp of the oldest sample, or nil when the store
// is empty.
func (r *Repository) Earliest() (*time.Time, error) {
	var sample models.ActivitySample
	result := r.db.Order("timestamp ASC").First(&sample)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, storageErr("earliest", result.Error)
	}
	return &sample.Timestamp, nil
}

// SizeOnDisk returns the database file size in bytes.
func (r *Repository) SizeOnDisk() (int64, error) {
	info, err := os.Stat(r.db.Path())
	if err != nil {
		return 0, storageErr("stat", err)
	}
	return info.Size(), nil
}

// Info bundles the introspection values for the storage settings display.
func (r *Repository) Info() (*models.StorageInfo, error) {
	count, err := r.Count()
	if err != nil {
		return nil, err
	}

	earliest, err := r.Earliest()
	if err != nil {
		return nil, err
	}

	size, err := r.SizeOnDisk()
	if err != nil {
		return nil, err
	}

	return &models.StorageInfo{
		SampleCount: count,
		Earliest:    earliest,
		SizeOnDisk:  size,
	}, nil
}

// Clear deletes all samples irreversibly.
func (r *Repository) Clear() error {
	return storageErr("clear", r.db.Exec("DELETE FROM activity_samples").Error)
}
