package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRegistryMultipleConnectionsPerUser 测试同一用户多连接独立寻址
func TestRegistryMultipleConnectionsPerUser(t *testing.T) {
	registry := NewRegistry(100)
	config := DefaultConfig()

	c1 := newTestConn(1, "s1", config)
	c2 := newTestConn(1, "s2", config)
	c3 := newTestConn(2, "s3", config)

	require.NoError(t, registry.Register(c1))
	require.NoError(t, registry.Register(c2))
	require.NoError(t, registry.Register(c3))

	assert.Equal(t, 3, registry.Count())
	assert.Len(t, registry.ConnectionsFor(1), 2)
	assert.Len(t, registry.ConnectionsFor(2), 1)
	assert.Nil(t, registry.ConnectionsFor(99))
}

// TestRegistryDeregister 测试注销只移除匹配的 (用户, 会话) 条目
func TestRegistryDeregister(t *testing.T) {
	registry := NewRegistry(100)
	config := DefaultConfig()

	c1 := newTestConn(1, "s1", config)
	c2 := newTestConn(1, "s2", config)
	require.NoError(t, registry.Register(c1))
	require.NoError(t, registry.Register(c2))

	registry.Deregister(1, "s1")

	conns := registry.ConnectionsFor(1)
	require.Len(t, conns, 1)
	assert.Equal(t, "s2", conns[0].SessionID)
	assert.Equal(t, 1, registry.Count())

	// 最后一条注销后用户键被清理
	registry.Deregister(1, "s2")
	assert.Nil(t, registry.ConnectionsFor(1))
	assert.Equal(t, 0, registry.Count())
}

// TestRegistryDeregisterIdempotent 测试重复注销与注销未知条目是无害的
func TestRegistryDeregisterIdempotent(t *testing.T) {
	registry := NewRegistry(100)
	config := DefaultConfig()

	c := newTestConn(1, "s1", config)
	require.NoError(t, registry.Register(c))

	registry.Deregister(1, "s1")
	registry.Deregister(1, "s1")
	registry.Deregister(42, "unknown")

	assert.Equal(t, 0, registry.Count())
}

// TestRegistryDuplicateSessionID 测试重复会话标识产生两条独立条目，注销一并移除
func TestRegistryDuplicateSessionID(t *testing.T) {
	registry := NewRegistry(100)
	config := DefaultConfig()

	c1 := newTestConn(1, "same", config)
	c2 := newTestConn(1, "same", config)
	require.NoError(t, registry.Register(c1))
	require.NoError(t, registry.Register(c2))

	assert.Len(t, registry.ConnectionsFor(1), 2)

	// 注销移除全部匹配条目
	registry.Deregister(1, "same")
	assert.Nil(t, registry.ConnectionsFor(1))
	assert.Equal(t, 0, registry.Count())
}

// TestRegistryMaxConnections 测试连接数达到上限后拒绝注册
func TestRegistryMaxConnections(t *testing.T) {
	registry := NewRegistry(2)
	config := DefaultConfig()

	require.NoError(t, registry.Register(newTestConn(1, "s1", config)))
	require.NoError(t, registry.Register(newTestConn(2, "s2", config)))

	err := registry.Register(newTestConn(3, "s3", config))
	assert.ErrorIs(t, err, ErrTooManyConnections)
	assert.Equal(t, 2, registry.Count())

	// 释放一个名额后可以再次注册
	registry.Deregister(1, "s1")
	assert.NoError(t, registry.Register(newTestConn(3, "s3", config)))
}

// TestRegistryAll 测试全量快照
func TestRegistryAll(t *testing.T) {
	registry := NewRegistry(100)
	config := DefaultConfig()

	require.NoError(t, registry.Register(newTestConn(1, "s1", config)))
	require.NoError(t, registry.Register(newTestConn(1, "s2", config)))
	require.NoError(t, registry.Register(newTestConn(2, "s3", config)))

	assert.Len(t, registry.All(), 3)
}
