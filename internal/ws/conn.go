package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// transport 底层传输抽象，*websocket.Conn 天然满足
type transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Conn 一条已注册的 WebSocket 连接
// 生命周期：握手成功时创建，关闭或出错时销毁，从不持久化
type Conn struct {
	ID        string // 连接标识（进程内唯一）
	UserID    int64  // 所属用户
	SessionID string // 会话标识（每个标签页/设备唯一）

	conn transport

	// 发送队列
	send chan []byte

	// 生命周期
	ctx       context.Context
	cancel    context.CancelFunc
	closed    atomic.Bool
	closeOnce sync.Once

	config *Config
}

// newConn 创建连接
func newConn(t transport, userID int64, sessionID string, config *Config) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	return &Conn{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: sessionID,
		conn:      t,
		send:      make(chan []byte, config.SendQueueSize),
		ctx:       ctx,
		cancel:    cancel,
		config:    config,
	}
}

// run 启动读写协程，两者都退出后调用 onClose（恰好一次）
// handle 对入站帧同步调用，保证单连接内消息按发送顺序处理
func (c *Conn) run(handle func(*Conn, []byte), onClose func(*Conn)) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		c.readPump(handle)
	}()

	go func() {
		defer wg.Done()
		c.writePump()
	}()

	wg.Wait()
	c.Close()
	if onClose != nil {
		onClose(c)
	}
}

// readPump 读取入站消息
func (c *Conn) readPump(handle func(*Conn, []byte)) {
	defer c.Close()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.config.HeartbeatTimeout)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.config.HeartbeatTimeout))
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			// 同步处理，下一帧在当前帧处理完成后才会读取
			handle(c, data)
		}
	}
}

// writePump 写出出站消息并维持心跳
func (c *Conn) writePump() {
	ticker := time.NewTicker(c.config.HeartbeatInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			if err := c.writeMessage(message); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeMessage 带超时写出一条文本帧
func (c *Conn) writeMessage(message []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

// Send 发送字节消息（非阻塞）
// 队列满时丢弃并返回 ErrSendQueueFull，不阻塞广播
func (c *Conn) Send(msg []byte) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	select {
	case c.send <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// SendJSON 发送 JSON 消息
func (c *Conn) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(data)
}

// Close 关闭连接（幂等）
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.cancel()
		c.conn.Close()
	})
}

// IsOpen 检查传输是否仍然打开
func (c *Conn) IsOpen() bool {
	return !c.closed.Load()
}
