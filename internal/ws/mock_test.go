package ws

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"questhub/internal/logger"
	"questhub/internal/model"
)

// mockTransport 内存传输，替代真实的 WebSocket 连接
type mockTransport struct {
	done      chan struct{}
	closeOnce sync.Once
}

func newMockTransport() *mockTransport {
	return &mockTransport{done: make(chan struct{})}
}

func (m *mockTransport) ReadMessage() (int, []byte, error) {
	<-m.done
	return 0, nil, errors.New("transport closed")
}

func (m *mockTransport) WriteMessage(messageType int, data []byte) error {
	select {
	case <-m.done:
		return errors.New("transport closed")
	default:
		return nil
	}
}

func (m *mockTransport) SetReadLimit(limit int64)            {}
func (m *mockTransport) SetReadDeadline(t time.Time) error   { return nil }
func (m *mockTransport) SetWriteDeadline(t time.Time) error  { return nil }
func (m *mockTransport) SetPongHandler(h func(string) error) {}

func (m *mockTransport) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}

// newTestConn 创建未启动读写协程的测试连接，出站消息留在发送队列中
func newTestConn(userID int64, sessionID string, config *Config) *Conn {
	return newConn(newMockTransport(), userID, sessionID, config)
}

// queuedMessage 从连接发送队列中取出一条出站消息
func queuedMessage(t *testing.T, c *Conn) []byte {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("连接发送队列中没有消息")
		return nil
	}
}

// queueEmpty 检查连接发送队列是否为空
func queueEmpty(c *Conn) bool {
	select {
	case msg := <-c.send:
		c.send <- msg
		return false
	default:
		return true
	}
}

// mockStore 内存存储，记录落库的消息
type mockStore struct {
	mu        sync.Mutex
	members   map[int64][]model.TeamMember
	users     map[int64]*model.User
	inserted  []*model.ChatMessage
	nextID    int64
	memberErr error
	insertErr error
	userErr   error
}

func newMockStore() *mockStore {
	return &mockStore{
		members: make(map[int64][]model.TeamMember),
		users:   make(map[int64]*model.User),
		nextID:  1,
	}
}

func (m *mockStore) addMember(teamID, userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[teamID] = append(m.members[teamID], model.TeamMember{TeamID: teamID, UserID: userID})
}

func (m *mockStore) addUser(id int64, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = &model.User{ID: id, Username: username}
}

func (m *mockStore) GetTeamMembers(ctx context.Context, teamID int64) ([]model.TeamMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.memberErr != nil {
		return nil, m.memberErr
	}
	return m.members[teamID], nil
}

func (m *mockStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userErr != nil {
		return nil, m.userErr
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

func (m *mockStore) InsertChatMessage(ctx context.Context, senderID, teamID int64, content string) (*model.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	msg := &model.ChatMessage{
		ID:        m.nextID,
		SenderID:  senderID,
		TeamID:    teamID,
		Content:   content,
		Type:      model.MessageTypeText,
		CreatedAt: time.Now(),
	}
	m.nextID++
	m.inserted = append(m.inserted, msg)
	return msg, nil
}

func (m *mockStore) insertedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inserted)
}

func testLogger() logger.Logger {
	return logger.Nop()
}
