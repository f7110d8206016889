package ws

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRouter 组装路由器与空注册表
func newTestRouter(t *testing.T, store *mockStore) (*Router, *Registry) {
	t.Helper()
	config := DefaultConfig()
	registry := NewRegistry(config.MaxConnections)
	broadcaster := NewBroadcaster(registry, store, testLogger(), config)
	return NewRouter(store, broadcaster, testLogger(), config), registry
}

// TestRouterChatBroadcast 测试聊天落库后向团队全部在线连接扇出
func TestRouterChatBroadcast(t *testing.T) {
	store := newMockStore()
	store.addMember(7, 1)
	store.addMember(7, 2)
	store.addUser(1, "alice")
	store.addUser(2, "bob")
	router, registry := newTestRouter(t, store)

	config := DefaultConfig()
	senderS1 := newTestConn(1, "s1", config)
	senderS2 := newTestConn(1, "s2", config)
	teammate := newTestConn(2, "s3", config)
	outsider := newTestConn(3, "s4", config)
	require.NoError(t, registry.Register(senderS1))
	require.NoError(t, registry.Register(senderS2))
	require.NoError(t, registry.Register(teammate))
	require.NoError(t, registry.Register(outsider))

	router.handle(senderS1, []byte(`{"type":"chat","teamId":7,"content":"gm team"}`))

	require.Equal(t, 1, store.insertedCount())

	// 发送者的两个会话和队友都收到，非成员收不到
	for _, c := range []*Conn{senderS1, senderS2, teammate} {
		var envelope ChatEnvelope
		require.NoError(t, json.Unmarshal(queuedMessage(t, c), &envelope))
		assert.Equal(t, "chat", envelope.Type)
		assert.Equal(t, int64(1), envelope.Message.SenderID)
		assert.Equal(t, int64(7), envelope.Message.TeamID)
		assert.Equal(t, "gm team", envelope.Message.Content)
		assert.Equal(t, "alice", envelope.Message.SenderName)
		assert.NotZero(t, envelope.Message.ID)
	}
	assert.True(t, queueEmpty(outsider))
}

// TestRouterChatFromNonMember 测试非成员发送的聊天被丢弃且不落库
func TestRouterChatFromNonMember(t *testing.T) {
	store := newMockStore()
	store.addMember(7, 2)
	store.addUser(2, "bob")
	router, registry := newTestRouter(t, store)

	config := DefaultConfig()
	intruder := newTestConn(1, "s1", config)
	member := newTestConn(2, "s2", config)
	require.NoError(t, registry.Register(intruder))
	require.NoError(t, registry.Register(member))

	router.handle(intruder, []byte(`{"type":"chat","teamId":7,"content":"let me in"}`))

	assert.Equal(t, 0, store.insertedCount())
	assert.True(t, queueEmpty(member))
}

// TestRouterChatPersistenceFailure 测试落库失败时跳过广播，连接保持打开
func TestRouterChatPersistenceFailure(t *testing.T) {
	store := newMockStore()
	store.addMember(7, 1)
	store.insertErr = errors.New("db down")
	router, registry := newTestRouter(t, store)

	conn := newTestConn(1, "s1", DefaultConfig())
	require.NoError(t, registry.Register(conn))

	router.handle(conn, []byte(`{"type":"chat","teamId":7,"content":"gm"}`))

	assert.True(t, queueEmpty(conn))
	assert.True(t, conn.IsOpen())
}

// TestRouterNotification 测试通知只投递到目标用户的全部连接，且不落库
func TestRouterNotification(t *testing.T) {
	store := newMockStore()
	router, registry := newTestRouter(t, store)

	config := DefaultConfig()
	sender := newTestConn(1, "s1", config)
	targetS2 := newTestConn(2, "s2", config)
	targetS3 := newTestConn(2, "s3", config)
	bystander := newTestConn(3, "s4", config)
	require.NoError(t, registry.Register(sender))
	require.NoError(t, registry.Register(targetS2))
	require.NoError(t, registry.Register(targetS3))
	require.NoError(t, registry.Register(bystander))

	router.handle(sender, []byte(`{"type":"notification","targetUserId":2,"content":"badge unlocked"}`))

	for _, c := range []*Conn{targetS2, targetS3} {
		var envelope NotificationEnvelope
		require.NoError(t, json.Unmarshal(queuedMessage(t, c), &envelope))
		assert.Equal(t, "notification", envelope.Type)
		assert.Equal(t, "badge unlocked", envelope.Content)

		ts, err := time.Parse(time.RFC3339, envelope.Timestamp)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), ts, time.Minute)
	}
	assert.True(t, queueEmpty(sender))
	assert.True(t, queueEmpty(bystander))
	assert.Equal(t, 0, store.insertedCount())
}

// TestRouterNotificationOfflineTarget 测试目标离线时通知静默丢弃
func TestRouterNotificationOfflineTarget(t *testing.T) {
	store := newMockStore()
	router, registry := newTestRouter(t, store)

	sender := newTestConn(1, "s1", DefaultConfig())
	require.NoError(t, registry.Register(sender))

	router.handle(sender, []byte(`{"type":"notification","targetUserId":99,"content":"hi"}`))

	assert.True(t, queueEmpty(sender))
	assert.True(t, sender.IsOpen())
}

// TestRouterMalformedFrame 测试畸形帧被忽略，连接保持打开
func TestRouterMalformedFrame(t *testing.T) {
	store := newMockStore()
	router, registry := newTestRouter(t, store)

	conn := newTestConn(1, "s1", DefaultConfig())
	require.NoError(t, registry.Register(conn))

	router.handle(conn, []byte(`{{{not json`))
	router.handle(conn, []byte(`{"type":"chat","content":"missing team"}`))

	assert.True(t, queueEmpty(conn))
	assert.True(t, conn.IsOpen())
	assert.Equal(t, 0, store.insertedCount())
}

// TestRouterUnknownType 测试未知类型显式忽略
func TestRouterUnknownType(t *testing.T) {
	store := newMockStore()
	router, registry := newTestRouter(t, store)

	conn := newTestConn(1, "s1", DefaultConfig())
	require.NoError(t, registry.Register(conn))

	router.handle(conn, []byte(`{"type":"presence","teamId":7,"content":"x"}`))

	assert.True(t, queueEmpty(conn))
	assert.True(t, conn.IsOpen())
}

// TestRouterMembershipResolvedPerMessage 测试成员关系每次广播实时解析
func TestRouterMembershipResolvedPerMessage(t *testing.T) {
	store := newMockStore()
	store.addMember(7, 1)
	store.addMember(7, 2)
	store.addUser(1, "alice")
	router, registry := newTestRouter(t, store)

	config := DefaultConfig()
	sender := newTestConn(1, "s1", config)
	leaver := newTestConn(2, "s2", config)
	require.NoError(t, registry.Register(sender))
	require.NoError(t, registry.Register(leaver))

	router.handle(sender, []byte(`{"type":"chat","teamId":7,"content":"first"}`))
	queuedMessage(t, sender)
	queuedMessage(t, leaver)

	// 用户 2 退出团队后不再收到广播
	store.mu.Lock()
	store.members[7] = store.members[7][:1]
	store.mu.Unlock()

	router.handle(sender, []byte(`{"type":"chat","teamId":7,"content":"second"}`))
	queuedMessage(t, sender)
	assert.True(t, queueEmpty(leaver))
}
