package console

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryPutGetRemove(t *testing.T) {
	r := NewRegistry()
	s := NewSession("conn-1", newScripted(), SessionOptions{})

	require.NoError(t, r.Put(s), "首次登记应成功")
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get("conn-1")
	require.True(t, ok, "登记后应能查到")
	assert.Same(t, s, got)

	err := r.Put(NewSession("conn-1", newScripted(), SessionOptions{}))
	assert.Error(t, err, "重复标识应被拒绝")

	removed, ok := r.Remove("conn-1")
	require.True(t, ok)
	assert.Same(t, s, removed)
	assert.Equal(t, 0, r.Len())

	_, ok = r.Get("conn-1")
	assert.False(t, ok, "摘除后不应再查到")
	_, ok = r.Remove("conn-1")
	assert.False(t, ok, "重复摘除返回不存在")
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	// 不同连接标识的并发connect/disconnect/lookup不得相互破坏
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("conn-%d", n)
			s := NewSession(id, newScripted(), SessionOptions{})
			if err := r.Put(s); err != nil {
				t.Errorf("登记失败: %v", err)
				return
			}
			if _, ok := r.Get(id); !ok {
				t.Errorf("查找失败: %s", id)
			}
			if n%2 == 0 {
				r.Remove(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 16, r.Len(), "偶数标识摘除后应剩一半会话")
}

func TestRegistryIdleSessions(t *testing.T) {
	r := NewRegistry()
	s := NewSession("idle-1", newScripted(), SessionOptions{})
	require.NoError(t, r.Put(s))

	assert.Empty(t, r.IdleSessions(1*time.Hour), "新会话不应判为闲置")
	time.Sleep(30 * time.Millisecond)
	ids := r.IdleSessions(10 * time.Millisecond)
	assert.Contains(t, ids, "idle-1", "超过闲置窗口的会话应被列出")
}

func TestRegistryCloseAll(t *testing.T) {
	r := NewRegistry()
	transports := make([]*scriptedTransport, 0, 3)
	for i := 0; i < 3; i++ {
		tr := newScripted()
		transports = append(transports, tr)
		require.NoError(t, r.Put(NewSession(fmt.Sprintf("c-%d", i), tr, SessionOptions{})))
	}

	r.CloseAll()
	assert.Equal(t, 0, r.Len(), "排空后注册表应为空")
	for _, tr := range transports {
		assert.False(t, tr.IsOpen(), "全部传输应被关闭")
	}
}

func TestRegistryStats(t *testing.T) {
	r := NewRegistry()
	s := NewSession("s-1", newScripted(), SessionOptions{})
	s.SetDeviceType(DeviceCiscoIOS)
	require.NoError(t, r.Put(s))

	stats := r.Stats()
	assert.Equal(t, 1, stats["total"])
	byType, ok := stats["by_device_type"].(map[string]int)
	require.True(t, ok)
	assert.Equal(t, 1, byType[DeviceCiscoIOS])
}
