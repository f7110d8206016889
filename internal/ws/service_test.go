package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestService 启动承载升级入口的 HTTP 测试服务器
func newTestService(t *testing.T, store *mockStore) (*Service, *httptest.Server) {
	t.Helper()
	svc, err := NewService(store, testLogger())
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(svc.HandleUpgrade))
	t.Cleanup(func() {
		svc.Shutdown()
		server.Close()
	})
	return svc, server
}

// dialWS 以给定身份发起 WebSocket 连接
func dialWS(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readFrame 带超时读取一条文本帧
func readFrame(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return data
}

// TestServiceHandshakeRejected 测试身份参数非法时以策略违规关闭且不注册
func TestServiceHandshakeRejected(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"缺少 sessionId", "userId=1"},
		{"缺少 userId", "sessionId=s1"},
		{"userId 非数字", "userId=abc&sessionId=s1"},
		{"userId 非正数", "userId=0&sessionId=s1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			svc, server := newTestService(t, store)

			conn := dialWS(t, server, tt.query)
			require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

			_, _, err := conn.ReadMessage()
			require.Error(t, err)
			var closeErr *websocket.CloseError
			require.ErrorAs(t, err, &closeErr)
			assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)

			assert.Equal(t, 0, svc.Registry().Count())
		})
	}
}

// TestServiceConnectedEnvelope 测试握手成功后收到确认信封
func TestServiceConnectedEnvelope(t *testing.T) {
	store := newMockStore()
	svc, server := newTestService(t, store)

	conn := dialWS(t, server, "userId=5&sessionId=s1")
	assert.JSONEq(t, `{"type":"connected","userId":5}`, string(readFrame(t, conn)))

	assert.Eventually(t, func() bool {
		return svc.Registry().Count() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// 断开后注册表被清理
	conn.Close()
	assert.Eventually(t, func() bool {
		return svc.Registry().Count() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

// TestServiceConnectedEnvelopeFirstFrame 测试握手确认是连接收到的第一帧
// 即使注册瞬间有针对该用户的推送在并发进行
func TestServiceConnectedEnvelopeFirstFrame(t *testing.T) {
	store := newMockStore()
	svc, server := newTestService(t, store)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				_, _ = svc.Broadcaster().SendToUser(9, NotificationEnvelope{
					Type:    "notification",
					Content: "racing push",
				})
			}
		}
	}()

	for i := 0; i < 20; i++ {
		conn := dialWS(t, server, fmt.Sprintf("userId=9&sessionId=s%d", i))
		var envelope ConnectedEnvelope
		require.NoError(t, json.Unmarshal(readFrame(t, conn), &envelope))
		assert.Equal(t, "connected", envelope.Type)
		conn.Close()
	}
}

// TestServiceTeamChatScenario 测试多会话团队聊天端到端流程
// 用户 1 持有两个会话，用户 2 持有一个会话，三方都是团队 7 的成员
func TestServiceTeamChatScenario(t *testing.T) {
	store := newMockStore()
	store.addMember(7, 1)
	store.addMember(7, 2)
	store.addUser(1, "alice")
	store.addUser(2, "bob")
	_, server := newTestService(t, store)

	aliceS1 := dialWS(t, server, "userId=1&sessionId=s1")
	aliceS2 := dialWS(t, server, "userId=1&sessionId=s2")
	bobS3 := dialWS(t, server, "userId=2&sessionId=s3")

	for _, conn := range []*websocket.Conn{aliceS1, aliceS2, bobS3} {
		var envelope ConnectedEnvelope
		require.NoError(t, json.Unmarshal(readFrame(t, conn), &envelope))
		assert.Equal(t, "connected", envelope.Type)
	}

	require.NoError(t, aliceS1.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"chat","teamId":7,"content":"gm team"}`)))

	// 发送者的两个会话和队友都收到同一条已存储的消息
	for _, conn := range []*websocket.Conn{aliceS1, aliceS2, bobS3} {
		var envelope ChatEnvelope
		require.NoError(t, json.Unmarshal(readFrame(t, conn), &envelope))
		assert.Equal(t, "chat", envelope.Type)
		assert.Equal(t, "gm team", envelope.Message.Content)
		assert.Equal(t, int64(1), envelope.Message.SenderID)
		assert.Equal(t, "alice", envelope.Message.SenderName)
		assert.NotZero(t, envelope.Message.ID)
	}
	assert.Equal(t, 1, store.insertedCount())
}

// TestServiceNotificationTargeting 测试通知只送达目标用户
func TestServiceNotificationTargeting(t *testing.T) {
	store := newMockStore()
	_, server := newTestService(t, store)

	sender := dialWS(t, server, "userId=1&sessionId=s1")
	target := dialWS(t, server, "userId=2&sessionId=s2")
	readFrame(t, sender)
	readFrame(t, target)

	require.NoError(t, sender.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"notification","targetUserId":2,"content":"badge unlocked"}`)))

	var envelope NotificationEnvelope
	require.NoError(t, json.Unmarshal(readFrame(t, target), &envelope))
	assert.Equal(t, "notification", envelope.Type)
	assert.Equal(t, "badge unlocked", envelope.Content)

	// 发送者没有收到任何回执
	require.NoError(t, sender.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := sender.ReadMessage()
	assert.Error(t, err)
}

// TestServiceMalformedFrameKeepsConnection 测试畸形帧后连接仍可用
func TestServiceMalformedFrameKeepsConnection(t *testing.T) {
	store := newMockStore()
	store.addMember(7, 1)
	store.addUser(1, "alice")
	_, server := newTestService(t, store)

	conn := dialWS(t, server, "userId=1&sessionId=s1")
	readFrame(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{{{garbage`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"chat","teamId":7,"content":"still here"}`)))

	var envelope ChatEnvelope
	require.NoError(t, json.Unmarshal(readFrame(t, conn), &envelope))
	assert.Equal(t, "still here", envelope.Message.Content)
}

// TestServiceConnectionLimit 测试连接上限拒绝后的准入恢复
func TestServiceConnectionLimit(t *testing.T) {
	store := newMockStore()
	svc, err := NewService(store, testLogger(), WithMaxConnections(1))
	require.NoError(t, err)
	server := httptest.NewServer(http.HandlerFunc(svc.HandleUpgrade))
	t.Cleanup(func() {
		svc.Shutdown()
		server.Close()
	})

	first := dialWS(t, server, "userId=1&sessionId=s1")
	readFrame(t, first)

	second := dialWS(t, server, fmt.Sprintf("userId=%d&sessionId=s2", 2))
	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = second.ReadMessage()
	require.Error(t, err)
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)

	assert.Equal(t, 1, svc.Registry().Count())
}
