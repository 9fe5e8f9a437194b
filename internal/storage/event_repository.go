package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chenyang-zz/inputtap/pkg/events"
	"github.com/chenyang-zz/inputtap/pkg/logger"
)

/**
 * EventRepository 事件存储接口
 *
 * 定义归一化输入事件持久化的所有操作
 */
type EventRepository interface {
	// Save 保存单个事件
	Save(event events.Event) error

	// SaveBatch 批量保存事件（性能优化）
	SaveBatch(eventList []events.Event) error

	// FindByTimeRange 按时间范围查询
	FindByTimeRange(start, end time.Time) ([]events.Event, error)

	// FindRecent 查询最近的事件
	FindRecent(limit int) ([]events.Event, error)

	// FindByType 按类型查询
	FindByType(eventType events.EventType, limit int) ([]events.Event, error)

	// DeleteOlderThan 删除旧数据
	DeleteOlderThan(cutoff time.Time) (int64, error)

	// GetStats 获取统计信息
	GetStats() (*EventStats, error)
}

/**
 * EventStats 事件存储统计信息
 */
type EventStats struct {
	// TotalCount 总事件数
	TotalCount int64

	// CountByType 按类型统计
	CountByType map[string]int64
}

/**
 * SQLiteEventRepository SQLite 事件仓储实现
 *
 * 事件完整载荷以 JSON 存入 payload 列，type/timestamp/mask
 * 单独成列用于查询过滤。
 */
type SQLiteEventRepository struct {
	db *sql.DB
}

/**
 * NewSQLiteEventRepository 创建 SQLite 事件仓储
 *
 * Parameters:
 *   - db: 数据库连接
 *
 * Returns: *SQLiteEventRepository - 事件仓储实例
 */
func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

const insertEventSQL = `
	INSERT INTO events (uuid, type, timestamp, mask, payload)
	VALUES (?, ?, ?, ?, ?)
`

/**
 * Save 保存单个事件
 */
func (r *SQLiteEventRepository) Save(event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	_, err = r.db.Exec(insertEventSQL,
		event.ID, string(event.Type), event.Time, event.Mask, string(payload))
	if err != nil {
		logger.Error("保存事件失败",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return fmt.Errorf("保存事件失败: %w", err)
	}
	return nil
}

/**
 * SaveBatch 批量保存事件
 *
 * 使用事务和预处理语句优化批量写入性能
 */
func (r *SQLiteEventRepository) SaveBatch(eventList []events.Event) error {
	if len(eventList) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertEventSQL)
	if err != nil {
		return fmt.Errorf("准备语句失败: %w", err)
	}
	defer stmt.Close()

	for _, event := range eventList {
		payload, err := json.Marshal(event)
		if err != nil {
			logger.Error("序列化事件失败",
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}

		if _, err := stmt.Exec(
			event.ID, string(event.Type), event.Time, event.Mask, string(payload),
		); err != nil {
			return fmt.Errorf("插入事件失败: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}

	logger.Debug("批量保存事件成功", zap.Int("count", len(eventList)))
	return nil
}

/**
 * FindByTimeRange 按时间范围查询事件（升序）
 */
func (r *SQLiteEventRepository) FindByTimeRange(start, end time.Time) ([]events.Event, error) {
	rows, err := r.db.Query(`
		SELECT payload FROM events
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC, id ASC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("查询事件失败: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

/**
 * FindRecent 查询最近的事件（升序返回）
 */
func (r *SQLiteEventRepository) FindRecent(limit int) ([]events.Event, error) {
	rows, err := r.db.Query(`
		SELECT payload FROM events
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("查询最近事件失败: %w", err)
	}
	defer rows.Close()

	eventList, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}

	// 反转顺序（从旧到新）
	for i, j := 0, len(eventList)-1; i < j; i, j = i+1, j-1 {
		eventList[i], eventList[j] = eventList[j], eventList[i]
	}
	return eventList, nil
}

/**
 * FindByType 按类型查询事件
 */
func (r *SQLiteEventRepository) FindByType(eventType events.EventType, limit int) ([]events.Event, error) {
	rows, err := r.db.Query(`
		SELECT payload FROM events
		WHERE type = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, string(eventType), limit)
	if err != nil {
		return nil, fmt.Errorf("按类型查询事件失败: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

/**
 * DeleteOlderThan 删除旧于指定时间的事件
 *
 * Returns: int64 - 删除的记录数, error - 错误信息
 */
func (r *SQLiteEventRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM events WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("删除旧事件失败: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("获取删除行数失败: %w", err)
	}

	if count > 0 {
		logger.Info("删除旧事件",
			zap.Int64("count", count),
			zap.Time("cutoff", cutoff),
		)
	}
	return count, nil
}

/**
 * GetStats 获取事件统计信息
 */
func (r *SQLiteEventRepository) GetStats() (*EventStats, error) {
	stats := &EventStats{
		CountByType: make(map[string]int64),
	}

	if err := r.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&stats.TotalCount); err != nil {
		return nil, fmt.Errorf("查询总数失败: %w", err)
	}

	rows, err := r.db.Query("SELECT type, COUNT(*) FROM events GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("按类型统计失败: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventType string
		var count int64
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("扫描类型统计失败: %w", err)
		}
		stats.CountByType[eventType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历类型统计失败: %w", err)
	}

	return stats, nil
}

// scanEvents 从 payload 列恢复事件对象
func scanEvents(rows *sql.Rows) ([]events.Event, error) {
	var eventList []events.Event

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("扫描事件行失败: %w", err)
		}

		var event events.Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			return nil, fmt.Errorf("反序列化事件失败: %w", err)
		}
		eventList = append(eventList, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历事件行失败: %w", err)
	}
	return eventList, nil
}
