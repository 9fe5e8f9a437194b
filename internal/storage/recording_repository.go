package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chenyang-zz/inputtap/pkg/logger"
	"github.com/chenyang-zz/inputtap/pkg/recorder"
)

// ErrRecordingNotFound 录制不存在
var ErrRecordingNotFound = errors.New("storage: recording not found")

/**
 * RecordingSummary 录制的元信息（不含事件数据）
 */
type RecordingSummary struct {
	// ID 录制唯一标识符
	ID string

	// Description 录制描述
	Description string

	// EventCount 事件数量
	EventCount int

	// DurationMs 录制时长（毫秒）
	DurationMs int64
}

/**
 * RecordingRepository 录制存储接口
 */
type RecordingRepository interface {
	// Save 保存录制
	Save(rec *recorder.Recording) error

	// FindByID 按 ID 查询完整录制
	FindByID(id string) (*recorder.Recording, error)

	// List 列出全部录制的元信息（按创建时间倒序）
	List() ([]RecordingSummary, error)

	// Delete 删除录制
	Delete(id string) error
}

/**
 * SQLiteRecordingRepository SQLite 录制仓储实现
 *
 * 完整录制以 JSON 存入 data 列，元信息单独成列供列表查询。
 */
type SQLiteRecordingRepository struct {
	db *sql.DB
}

/**
 * NewSQLiteRecordingRepository 创建 SQLite 录制仓储
 */
func NewSQLiteRecordingRepository(db *sql.DB) *SQLiteRecordingRepository {
	return &SQLiteRecordingRepository{db: db}
}

/**
 * Save 保存录制
 */
func (r *SQLiteRecordingRepository) Save(rec *recorder.Recording) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("序列化录制失败: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO recordings (uuid, description, event_count, duration_ms, data)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, rec.Description, len(rec.Steps), rec.Duration().Milliseconds(), string(data))
	if err != nil {
		return fmt.Errorf("保存录制失败: %w", err)
	}

	logger.Info("录制已持久化",
		zap.String("id", rec.ID),
		zap.Int("steps", len(rec.Steps)),
	)
	return nil
}

/**
 * FindByID 按 ID 查询完整录制
 */
func (r *SQLiteRecordingRepository) FindByID(id string) (*recorder.Recording, error) {
	var data string
	err := r.db.QueryRow("SELECT data FROM recordings WHERE uuid = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRecordingNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("查询录制失败: %w", err)
	}

	var rec recorder.Recording
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("反序列化录制失败: %w", err)
	}
	return &rec, nil
}

/**
 * List 列出全部录制的元信息
 */
func (r *SQLiteRecordingRepository) List() ([]RecordingSummary, error) {
	rows, err := r.db.Query(`
		SELECT uuid, description, event_count, duration_ms
		FROM recordings
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("列出录制失败: %w", err)
	}
	defer rows.Close()

	var list []RecordingSummary
	for rows.Next() {
		var s RecordingSummary
		if err := rows.Scan(&s.ID, &s.Description, &s.EventCount, &s.DurationMs); err != nil {
			return nil, fmt.Errorf("扫描录制行失败: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历录制行失败: %w", err)
	}
	return list, nil
}

/**
 * Delete 删除录制
 */
func (r *SQLiteRecordingRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM recordings WHERE uuid = ?", id)
	if err != nil {
		return fmt.Errorf("删除录制失败: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("获取删除行数失败: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRecordingNotFound, id)
	}
	return nil
}
