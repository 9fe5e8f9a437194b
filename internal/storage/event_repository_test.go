package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenyang-zz/inputtap/pkg/events"
)

// keyEventAt 生成指定时刻的按键事件
func keyEventAt(at time.Time, key events.Key) events.Event {
	return events.NewKeyPressed(0, at, key, 0, false)
}

// TestEventRepository_SaveAndFind 保存与查询
func TestEventRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteEventRepository(db)

	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	ev := keyEventAt(base, events.KeyA)
	require.NoError(t, repo.Save(ev))

	found, err := repo.FindRecent(10)
	require.NoError(t, err)
	require.Len(t, found, 1)

	// payload 往返保留完整事件
	assert.Equal(t, ev.ID, found[0].ID)
	assert.Equal(t, events.EventTypeKeyPressed, found[0].Type)
	require.NotNil(t, found[0].Keyboard)
	assert.Equal(t, events.KeyA, found[0].Keyboard.Key)
}

// TestEventRepository_SaveBatch 批量保存
func TestEventRepository_SaveBatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteEventRepository(db)

	base := time.Now()
	var batch []events.Event
	for i := 0; i < 20; i++ {
		batch = append(batch, keyEventAt(base.Add(time.Duration(i)*time.Millisecond), events.KeyA))
	}
	require.NoError(t, repo.SaveBatch(batch))
	require.NoError(t, repo.SaveBatch(nil), "空批量是空操作")

	found, err := repo.FindRecent(100)
	require.NoError(t, err)
	assert.Len(t, found, 20)
}

// TestEventRepository_FindByTimeRange 时间范围查询按升序返回
func TestEventRepository_FindByTimeRange(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteEventRepository(db)

	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(keyEventAt(base.Add(time.Duration(i)*time.Minute), events.KeyA)))
	}

	found, err := repo.FindByTimeRange(base.Add(time.Minute), base.Add(3*time.Minute))
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.True(t, found[0].Time.Before(found[1].Time))
	assert.True(t, found[1].Time.Before(found[2].Time))
}

// TestEventRepository_FindByType 按类型查询
func TestEventRepository_FindByType(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteEventRepository(db)

	base := time.Now()
	require.NoError(t, repo.Save(keyEventAt(base, events.KeyA)))
	require.NoError(t, repo.Save(events.NewMouseClicked(0, base, events.ButtonLeft, 1, 1, 1)))
	require.NoError(t, repo.Save(events.NewMouseClicked(0, base, events.ButtonLeft, 2, 2, 1)))

	found, err := repo.FindByType(events.EventTypeMouseClicked, 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = repo.FindByType(events.EventTypeKeyReleased, 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

// TestEventRepository_DeleteOlderThan 按时间清理
func TestEventRepository_DeleteOlderThan(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteEventRepository(db)

	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		require.NoError(t, repo.Save(keyEventAt(base.Add(time.Duration(i)*time.Hour), events.KeyA)))
	}

	deleted, err := repo.DeleteOlderThan(base.Add(5 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)

	remaining, err := repo.FindRecent(100)
	require.NoError(t, err)
	assert.Len(t, remaining, 5)
}

// TestEventRepository_GetStats 统计信息
func TestEventRepository_GetStats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteEventRepository(db)

	base := time.Now()
	require.NoError(t, repo.Save(keyEventAt(base, events.KeyA)))
	require.NoError(t, repo.Save(keyEventAt(base, events.KeyB)))
	require.NoError(t, repo.Save(events.NewMouseWheel(0, base, events.ScrollUp, 3, 0, 0)))

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalCount)
	assert.Equal(t, int64(2), stats.CountByType[string(events.EventTypeKeyPressed)])
	assert.Equal(t, int64(1), stats.CountByType[string(events.EventTypeMouseWheel)])
}

// TestEventRepository_DuplicateUUID 重复 UUID 被唯一约束拒绝
func TestEventRepository_DuplicateUUID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteEventRepository(db)

	ev := keyEventAt(time.Now(), events.KeyA)
	require.NoError(t, repo.Save(ev))
	assert.Error(t, repo.Save(ev))
}
