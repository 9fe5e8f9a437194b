/**
 * inputtap 命令行工具
 *
 * 子命令：
 *   listen    监听并打印输入事件
 *   capture   捕获事件并批量写入 SQLite
 *   record    录制输入事件到 JSON 文件
 *   replay    回放录制文件
 *   stats     打印实时或持久化的事件统计
 *   simulate  注入合成输入事件
 */

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/chenyang-zz/inputtap"
	"github.com/chenyang-zz/inputtap/internal/storage"
	"github.com/chenyang-zz/inputtap/pkg/config"
	"github.com/chenyang-zz/inputtap/pkg/events"
	"github.com/chenyang-zz/inputtap/pkg/hook"
	"github.com/chenyang-zz/inputtap/pkg/logger"
	"github.com/chenyang-zz/inputtap/pkg/recorder"
	"github.com/chenyang-zz/inputtap/pkg/statistics"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// Ctrl-C 触发协作式停止
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cmdErr error
	switch os.Args[1] {
	case "listen":
		cmdErr = runListen(ctx, cfg, os.Args[2:])
	case "capture":
		cmdErr = runCapture(ctx, cfg, os.Args[2:])
	case "record":
		cmdErr = runRecord(ctx, cfg, os.Args[2:])
	case "replay":
		cmdErr = runReplay(ctx, os.Args[2:])
	case "stats":
		cmdErr = runStats(ctx, cfg, os.Args[2:])
	case "simulate":
		cmdErr = runSimulate(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "未知子命令: %s\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	_ = logger.Sync()
	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", cmdErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `用法: inputtap <子命令> [选项]

子命令:
  listen    监听并打印输入事件
  capture   捕获事件并批量写入 SQLite
  record    录制输入事件到 JSON 文件
  replay    回放录制文件
  stats     打印事件统计
  simulate  注入合成输入事件

使用 "inputtap <子命令> -h" 查看子命令选项。`)
}

// hookOptions 把配置映射为运行时选项
func hookOptions(cfg *config.Config) []hook.Option {
	return []hook.Option{
		hook.WithClickTolerance(cfg.Capture.ClickTolerance),
		hook.WithMultiClickInterval(time.Duration(cfg.Capture.MultiClickIntervalMs) * time.Millisecond),
	}
}

// parseTypes 解析 --types 的逗号分隔列表
func parseTypes(s string) map[events.EventType]bool {
	if s == "" {
		return nil
	}
	set := make(map[events.EventType]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			set[events.EventType(part)] = true
		}
	}
	return set
}

func runListen(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("listen", flag.ExitOnError)
	types := fs.String("types", "", "只输出指定类型（逗号分隔，如 key_pressed,mouse_clicked）")
	maxPerSec := fs.Int("rate-limit", 0, "对 mouse_moved/mouse_dragged 限速（每秒最大条数，0 不限）")
	duration := fs.Duration("duration", 0, "监听时长（0 表示直到 Ctrl-C）")
	fs.Parse(args)

	wanted := parseTypes(*types)
	filter := events.NewEventFilterManager()
	if *maxPerSec > 0 {
		filter.SetRule(events.EventTypeMouseMoved, &events.FilterRule{MaxPerSecond: *maxPerSec})
		filter.SetRule(events.EventTypeMouseDragged, &events.FilterRule{MaxPerSecond: *maxPerSec})
	}

	handle, ch, err := inputtap.ListenChannel(cfg.Capture.ChannelCapacity, hookOptions(cfg)...)
	if err != nil {
		return err
	}

	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}
	go func() {
		<-ctx.Done()
		_ = handle.Stop()
	}()

	enc := json.NewEncoder(os.Stdout)
	for ev := range ch {
		if wanted != nil && !wanted[ev.Type] {
			continue
		}
		if *maxPerSec > 0 && !filter.ShouldPass(ev) {
			continue
		}
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}

	if dropped := handle.Dropped(); dropped > 0 {
		fmt.Fprintf(os.Stderr, "缓冲溢出丢弃 %d 个事件\n", dropped)
	}
	return handle.Wait()
}

func runCapture(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("capture", flag.ExitOnError)
	dbPath := fs.String("db", cfg.Storage.Path, "SQLite 数据库路径")
	fs.Parse(args)

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		return err
	}

	db, err := storage.NewSQLiteDB(storage.DefaultSQLiteConfig(*dbPath))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		return err
	}

	repo := storage.NewSQLiteEventRepository(db)
	writerCfg := storage.DefaultBatchWriterConfig()
	writerCfg.BatchSize = cfg.Storage.BatchSize
	writerCfg.FlushInterval = time.Duration(cfg.Storage.FlushIntervalMs) * time.Millisecond
	writer := storage.NewBatchWriter(repo, writerCfg)
	writer.Start()
	defer writer.Stop()

	// 按保留策略清理旧数据
	if cfg.Storage.RetentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -cfg.Storage.RetentionDays)
		if _, err := repo.DeleteOlderThan(cutoff); err != nil {
			logger.Warn("清理旧事件失败", zap.Error(err))
		}
	}

	handle, ch, err := inputtap.ListenChannel(cfg.Capture.ChannelCapacity, hookOptions(cfg)...)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = handle.Stop()
	}()

	fmt.Fprintln(os.Stderr, "捕获中，Ctrl-C 停止...")
	for ev := range ch {
		if ev.IsLifecycle() {
			continue
		}
		writer.Write(ev)
	}
	return handle.Wait()
}

func runRecord(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("record", flag.ExitOnError)
	out := fs.String("out", "recording.json", "输出文件路径")
	desc := fs.String("desc", "", "录制描述")
	dbPath := fs.String("db", "", "同时把录制存入 SQLite 数据库（为空时只存文件）")
	duration := fs.Duration("duration", 0, "录制时长（0 表示直到 Ctrl-C）")
	fs.Parse(args)

	rec := recorder.NewRecorder()
	if err := rec.Start(); err != nil {
		return err
	}

	handle, ch, err := inputtap.ListenChannel(cfg.Capture.ChannelCapacity, hookOptions(cfg)...)
	if err != nil {
		return err
	}

	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}
	go func() {
		<-ctx.Done()
		_ = handle.Stop()
	}()

	fmt.Fprintln(os.Stderr, "录制中，Ctrl-C 停止...")
	for ev := range ch {
		rec.Feed(ev)
	}
	if err := handle.Wait(); err != nil {
		return err
	}

	recording, err := rec.Stop(*desc)
	if err != nil {
		return err
	}
	if err := recording.Save(*out); err != nil {
		return err
	}
	if *dbPath != "" {
		if err := saveRecordingToDB(*dbPath, recording); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "已保存 %d 个事件到 %s\n", len(recording.Steps), *out)
	return nil
}

func saveRecordingToDB(dbPath string, recording *recorder.Recording) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return err
	}

	db, err := storage.NewSQLiteDB(storage.DefaultSQLiteConfig(dbPath))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		return err
	}
	return storage.NewSQLiteRecordingRepository(db).Save(recording)
}

func runReplay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	file := fs.String("file", "recording.json", "录制文件路径")
	dbPath := fs.String("db", "", "从 SQLite 数据库加载录制（配合 --id）")
	id := fs.String("id", "", "数据库中的录制 ID")
	speed := fs.Float64("speed", 1.0, "回放速度倍率")
	fs.Parse(args)

	var rec *recorder.Recording
	var err error
	if *dbPath != "" {
		rec, err = loadRecordingFromDB(*dbPath, *id)
	} else {
		rec, err = recorder.Load(*file)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "回放 %d 个事件（%.1fx）...\n", len(rec.Steps), *speed)
	return recorder.PlaybackWithSpeed(ctx, inputtap.NewHook(), rec, *speed)
}

func loadRecordingFromDB(dbPath, id string) (*recorder.Recording, error) {
	db, err := storage.NewSQLiteDB(storage.DefaultSQLiteConfig(dbPath))
	if err != nil {
		return nil, err
	}
	defer db.Close()

	repo := storage.NewSQLiteRecordingRepository(db)
	if id == "" {
		// 未指定 ID 时回放最近一段
		list, err := repo.List()
		if err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("数据库中没有录制")
		}
		id = list[0].ID
	}
	return repo.FindByID(id)
}

func runStats(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	dbPath := fs.String("db", "", "从 SQLite 数据库读取统计（为空时实时采集）")
	duration := fs.Duration("duration", 0, "实时采集时长（0 表示直到 Ctrl-C）")
	fs.Parse(args)

	if *dbPath != "" {
		return printStoredStats(*dbPath)
	}

	collector := statistics.NewCollector()
	handle, ch, err := inputtap.ListenChannel(cfg.Capture.ChannelCapacity, hookOptions(cfg)...)
	if err != nil {
		return err
	}

	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}
	go func() {
		<-ctx.Done()
		_ = handle.Stop()
	}()

	fmt.Fprintln(os.Stderr, "统计采集中，Ctrl-C 停止...")
	for ev := range ch {
		collector.Record(ev)
	}
	if err := handle.Wait(); err != nil {
		return err
	}

	fmt.Print(collector.Snapshot().Summary())
	return nil
}

func printStoredStats(dbPath string) error {
	db, err := storage.NewSQLiteDB(storage.DefaultSQLiteConfig(dbPath))
	if err != nil {
		return err
	}
	defer db.Close()

	repo := storage.NewSQLiteEventRepository(db)
	stats, err := repo.GetStats()
	if err != nil {
		return err
	}

	fmt.Printf("事件总数: %d\n", stats.TotalCount)
	for t, n := range stats.CountByType {
		fmt.Printf("  %-14s %d\n", t, n)
	}
	return nil
}

func runSimulate(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	key := fs.String("key", "", "击键（如 a、enter、f5）")
	click := fs.String("click", "", "点击按键（left/right/middle）")
	x := fs.Float64("x", 0, "屏幕横坐标")
	y := fs.Float64("y", 0, "屏幕纵坐标")
	move := fs.Bool("move", false, "移动鼠标到 (x, y)")
	scroll := fs.String("scroll", "", "滚轮方向（up/down/left/right）")
	delta := fs.Float64("delta", 3, "滚动量")
	fs.Parse(args)

	switch {
	case *key != "":
		return inputtap.KeyTap(events.Key(*key))
	case *click != "":
		return inputtap.MouseClick(events.Button(*click), *x, *y)
	case *move:
		return inputtap.MouseMoveTo(*x, *y)
	case *scroll != "":
		return inputtap.Scroll(events.ScrollDirection(*scroll), *delta, *x, *y)
	}
	return fmt.Errorf("需要指定 --key、--click、--move 或 --scroll 之一")
}
