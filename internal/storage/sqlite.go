/**
 * Package storage 提供捕获事件的持久化能力
 *
 * 基于 SQLite 存储归一化输入事件，供 capture 模式的批量落盘
 * 和离线统计查询使用。
 */

package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite 驱动
	"go.uber.org/zap"

	"github.com/chenyang-zz/inputtap/pkg/logger"
)

/**
 * SQLiteConfig SQLite 配置
 */
type SQLiteConfig struct {
	// Path 数据库文件路径
	Path string

	// MaxOpenConns 最大打开连接数
	MaxOpenConns int

	// MaxIdleConns 最大空闲连接数
	MaxIdleConns int

	// ConnMaxLifetime 连接最大生命周期
	ConnMaxLifetime time.Duration
}

// DefaultSQLiteConfig 默认配置
func DefaultSQLiteConfig(path string) SQLiteConfig {
	return SQLiteConfig{
		Path:            path,
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	}
}

/**
 * NewSQLiteDB 创建 SQLite 数据库连接
 *
 * 配置 WAL 模式以提升并发性能，优化连接池参数。
 *
 * Parameters:
 *   - config: SQLite 配置
 *
 * Returns: *sql.DB - 数据库连接实例, error - 错误信息
 */
func NewSQLiteDB(config SQLiteConfig) (*sql.DB, error) {
	logger.Info("创建 SQLite 数据库连接",
		zap.String("path", config.Path),
	)

	// 对于内存数据库，使用共享缓存保证多连接可见性
	dataSourceName := config.Path
	if config.Path == ":memory:" {
		dataSourceName = "file::memory:?mode=memory&cache=shared"
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	// 只有非内存数据库才配置 WAL 模式
	if config.Path != ":memory:" {
		// WAL 模式允许并发读写，写入方是捕获回调的批量落盘
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return nil, fmt.Errorf("配置 WAL 模式失败: %w", err)
		}

		// NORMAL 在性能和安全性之间平衡
		if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
			return nil, fmt.Errorf("配置同步模式失败: %w", err)
		}

		if _, err := db.Exec("PRAGMA cache_size=10000"); err != nil {
			return nil, fmt.Errorf("配置缓存大小失败: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接验证失败: %w", err)
	}

	logger.Info("SQLite 数据库连接成功")
	return db, nil
}
