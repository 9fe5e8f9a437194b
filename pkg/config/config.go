/**
 * Package config 提供配置管理功能
 *
 * 负责加载和管理捕获、存储与日志的配置信息
 */

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

/**
 * Config 应用配置结构体
 *
 * 包含捕获库和 CLI 的所有可配置参数
 */
type Config struct {
	// Capture 捕获配置
	Capture CaptureConfig `yaml:"capture"`

	// Storage 存储配置
	Storage StorageConfig `yaml:"storage"`

	// Recording 录制配置
	Recording RecordingConfig `yaml:"recording"`

	// Logging 日志配置
	Logging LoggingConfig `yaml:"logging"`
}

/**
 * CaptureConfig 捕获配置
 */
type CaptureConfig struct {
	/** 事件通道容量 */
	ChannelCapacity int `yaml:"channel_capacity"`

	/** 点击判定的位移容差（像素） */
	ClickTolerance float64 `yaml:"click_tolerance"`

	/** 连击计数的时间窗口（毫秒） */
	MultiClickIntervalMs int `yaml:"multi_click_interval_ms"`
}

/**
 * StorageConfig 存储配置
 */
type StorageConfig struct {
	/** SQLite 数据库文件路径 */
	Path string `yaml:"path"`

	/** 批量写入大小 */
	BatchSize int `yaml:"batch_size"`

	/** 批量刷新间隔（毫秒） */
	FlushIntervalMs int `yaml:"flush_interval_ms"`

	/** 事件保留天数（0 为永久保留） */
	RetentionDays int `yaml:"retention_days"`
}

/**
 * RecordingConfig 录制配置
 */
type RecordingConfig struct {
	/** 录制文件存放目录 */
	Dir string `yaml:"dir"`
}

/**
 * LoggingConfig 日志配置
 */
type LoggingConfig struct {
	/** 日志级别 */
	Level string `yaml:"level"`

	/** 日志文件路径（为空时输出到标准输出） */
	File string `yaml:"file"`
}

/**
 * Load 加载配置文件
 *
 * 从默认路径 ~/.inputtap/config.yaml 加载配置，
 * 文件不存在时返回默认配置。
 *
 * Returns:
 *   - *Config: 加载的配置
 *   - error: 错误信息
 */
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(filepath.Join(homeDir, ".inputtap", "config.yaml"))
}

/**
 * LoadFrom 从指定路径加载配置文件
 *
 * 文件不存在时返回默认配置；缺失的字段用默认值补齐。
 */
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	expandEnvVars(config)
	config.fillDefaults()
	return config, nil
}

/**
 * Default 默认配置
 */
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			ChannelCapacity:      1024,
			ClickTolerance:       0,
			MultiClickIntervalMs: 500,
		},
		Storage: StorageConfig{
			Path:            "~/.inputtap/events.db",
			BatchSize:       200,
			FlushIntervalMs: 2000,
			RetentionDays:   30,
		},
		Recording: RecordingConfig{
			Dir: "~/.inputtap/recordings",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// fillDefaults 把非法或缺失的字段拉回默认值
func (c *Config) fillDefaults() {
	def := Default()
	if c.Capture.ChannelCapacity <= 0 {
		c.Capture.ChannelCapacity = def.Capture.ChannelCapacity
	}
	if c.Capture.MultiClickIntervalMs <= 0 {
		c.Capture.MultiClickIntervalMs = def.Capture.MultiClickIntervalMs
	}
	if c.Storage.BatchSize <= 0 {
		c.Storage.BatchSize = def.Storage.BatchSize
	}
	if c.Storage.FlushIntervalMs <= 0 {
		c.Storage.FlushIntervalMs = def.Storage.FlushIntervalMs
	}
	if c.Storage.Path == "" {
		c.Storage.Path = def.Storage.Path
	}
	if c.Recording.Dir == "" {
		c.Recording.Dir = def.Recording.Dir
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
}

/**
 * expandEnvVars 展开环境变量
 *
 * 替换路径字段中的环境变量占位符（如 ${HOME}）和 ~ 前缀
 *
 * Parameters:
 *   - config: 配置对象
 */
func expandEnvVars(config *Config) {
	config.Storage.Path = expandPath(config.Storage.Path)
	config.Recording.Dir = expandPath(config.Recording.Dir)
	config.Logging.File = expandPath(config.Logging.File)
}

// expandPath 展开单个路径中的 ~ 和环境变量
func expandPath(path string) string {
	if path == "" {
		return path
	}
	path = os.ExpandEnv(path)
	if path == "~" || len(path) >= 2 && path[:2] == "~/" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}
	return path
}

/**
 * ExpandedStoragePath 展开后的存储路径
 *
 * Default() 返回的配置未经过展开，统一经由此方法取用。
 */
func (c *Config) ExpandedStoragePath() string {
	return expandPath(c.Storage.Path)
}

/**
 * ExpandedRecordingDir 展开后的录制目录
 */
func (c *Config) ExpandedRecordingDir() string {
	return expandPath(c.Recording.Dir)
}
