package console

import (
	"fmt"
	"sync"
	"time"
)

// Registry 会话注册表：连接标识到活动会话的共享映射
// 不同连接标识的connect/disconnect/lookup可以并发进行，映射操作彼此原子；
// 同一会话的交互串行化由Session自身保证。
type Registry struct {
	mutex    sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry 创建会话注册表
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Put 登记会话，标识重复时拒绝
func (r *Registry) Put(session *Session) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.sessions[session.ID()]; exists {
		return fmt.Errorf("session %s already registered", session.ID())
	}
	r.sessions[session.ID()] = session
	return nil
}

// Get 按标识查找会话
func (r *Registry) Get(id string) (*Session, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove 摘除并返回会话，调用方负责关闭其传输
func (r *Registry) Remove(id string) (*Session, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return s, ok
}

// List 返回当前全部会话的快照
func (r *Registry) List() []*Session {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Len 返回会话数量
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.sessions)
}

// IdleSessions 返回闲置超过idleFor的会话标识
func (r *Registry) IdleSessions(idleFor time.Duration) []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	cutoff := time.Now().Add(-idleFor)
	var ids []string
	for id, s := range r.sessions {
		if s.LastActivity().Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

// CloseAll 进程退出时排空注册表并关闭全部传输
func (r *Registry) CloseAll() {
	r.mutex.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mutex.Unlock()

	for _, s := range sessions {
		_ = s.Close()
	}
}

// Stats 返回注册表统计信息
func (r *Registry) Stats() map[string]interface{} {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	byMode := make(map[string]int)
	byType := make(map[string]int)
	for _, s := range r.sessions {
		byMode[string(s.Mode())]++
		byType[s.DeviceType()]++
	}
	return map[string]interface{}{
		"total":          len(r.sessions),
		"by_mode":        byMode,
		"by_device_type": byType,
	}
}
