package ws

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfigValidate 测试配置校验
func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.MaxConnections = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad = DefaultConfig()
	bad.HeartbeatTimeout = bad.HeartbeatInterval
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad = DefaultConfig()
	bad.BroadcastWorkers = -1
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)
}

// TestCheckOriginWhitelist 测试 Origin 白名单
func TestCheckOriginWhitelist(t *testing.T) {
	config := DefaultConfig()
	WithCheckOriginWhitelist([]string{"https://app.example.com"})(config)

	newRequest := func(origin string) *http.Request {
		r, err := http.NewRequest(http.MethodGet, "http://localhost/ws", nil)
		require.NoError(t, err)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	assert.True(t, config.CheckOrigin(newRequest("https://app.example.com")))
	assert.False(t, config.CheckOrigin(newRequest("https://evil.example.com")))
	// 白名单模式下无 Origin 头一律拒绝
	assert.False(t, config.CheckOrigin(newRequest("")))
}

// TestConnSendAfterClose 测试关闭后的发送返回错误且幂等
func TestConnSendAfterClose(t *testing.T) {
	conn := newTestConn(1, "s1", DefaultConfig())
	require.NoError(t, conn.Send([]byte("before")))

	conn.Close()
	conn.Close()

	assert.ErrorIs(t, conn.Send([]byte("after")), ErrConnectionClosed)
	assert.False(t, conn.IsOpen())
}

// TestConnSendQueueFull 测试发送队列满时非阻塞丢弃
func TestConnSendQueueFull(t *testing.T) {
	config := DefaultConfig()
	config.SendQueueSize = 2
	conn := newTestConn(1, "s1", config)

	require.NoError(t, conn.Send([]byte("a")))
	require.NoError(t, conn.Send([]byte("b")))
	assert.ErrorIs(t, conn.Send([]byte("c")), ErrSendQueueFull)
}
