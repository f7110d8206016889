package ws

import "sync"

// Registry 连接注册表
// 维护用户 ID 到当前所有在线连接的映射（同一用户可能有多个会话，
// 例如多个浏览器标签页）。唯一性以 (userID, sessionID) 为准。
//
// 作为可注入的服务对象而非包级单例，测试可以创建相互隔离的实例。
type Registry struct {
	mu       sync.RWMutex
	conns    map[int64][]*Conn // userID -> 在线连接
	count    int               // 当前连接总数
	maxConns int               // 最大连接数（0 表示不限制）
}

// NewRegistry 创建注册表
func NewRegistry(maxConns int) *Registry {
	return &Registry{
		conns:    make(map[int64][]*Conn),
		maxConns: maxConns,
	}
}

// Register 注册连接
// 相同 sessionID 重复注册不做去重，两条连接同时有效直至各自关闭
func (r *Registry) Register(conn *Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxConns > 0 && r.count >= r.maxConns {
		return ErrTooManyConnections
	}

	r.conns[conn.UserID] = append(r.conns[conn.UserID], conn)
	r.count++
	return nil
}

// Deregister 注销指定 (userID, sessionID) 的全部连接
// 幂等：目标不存在时为空操作
func (r *Registry) Deregister(userID int64, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.conns[userID]
	if len(existing) == 0 {
		return
	}

	kept := existing[:0]
	for _, c := range existing {
		if c.SessionID == sessionID {
			r.count--
			continue
		}
		kept = append(kept, c)
	}

	if len(kept) == 0 {
		delete(r.conns, userID)
	} else {
		r.conns[userID] = kept
	}
}

// ConnectionsFor 返回用户当前在线连接的快照
// 用户不在线时返回空切片，调用方对缺失与空集不做区分
func (r *Registry) ConnectionsFor(userID int64) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	existing := r.conns[userID]
	if len(existing) == 0 {
		return nil
	}

	snapshot := make([]*Conn, len(existing))
	copy(snapshot, existing)
	return snapshot
}

// All 返回全部在线连接的快照（全局广播用）
func (r *Registry) All() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]*Conn, 0, r.count)
	for _, conns := range r.conns {
		snapshot = append(snapshot, conns...)
	}
	return snapshot
}

// Count 返回当前连接总数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}
