// Package detectiondb 检测记录的只读存储，连接一律从 data.Pool 借出
package detectiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gowvp/lookout/internal/core/detection"
	"github.com/gowvp/lookout/internal/data"
	"gorm.io/gorm"
)

var _ detection.Storer = DB{}

const findRecentSQL = `SELECT id, device_name, class_name, confidence, timestamp, frame_path FROM detections ORDER BY id DESC LIMIT ?`

// DB Related business namespaces
type DB struct {
	pool *data.Pool
}

// NewDB instance object for business
func NewDB(pool *data.Pool) DB {
	return DB{pool: pool}
}

// FindRecent implements detection.Storer.
func (d DB) FindRecent(ctx context.Context, limit int) ([]detection.DetectionEvent, error) {
	out := make([]detection.DetectionEvent, 0, limit)
	err := d.pool.Acquire(ctx, func(tx *gorm.DB) error {
		rows, err := tx.Raw(findRecentSQL, limit).Rows()
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var r row
			if err := rows.Scan(&r.ID, &r.DeviceName, &r.ClassName, &r.Confidence, &r.Timestamp, &r.FramePath); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			out = append(out, r.toEvent())
		}
		return rows.Err()
	})
	if errors.Is(err, data.ErrStoreUnavailable) {
		return nil, detection.ErrStoreUnavailable
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// row 流水线不保证非空，空值映射为零值
type row struct {
	ID         int64
	DeviceName sql.NullString
	ClassName  sql.NullString
	Confidence sql.NullFloat64
	Timestamp  detection.Timestamp
	FramePath  sql.NullString
}

func (r row) toEvent() detection.DetectionEvent {
	return detection.DetectionEvent{
		ID:         r.ID,
		DeviceName: r.DeviceName.String,
		ClassName:  r.ClassName.String,
		Confidence: r.Confidence.Float64,
		Timestamp:  r.Timestamp,
		FramePath:  r.FramePath.String,
	}
}
