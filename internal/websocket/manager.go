package websocket

import (
	"sync"

	"github.com/binhbb2204/nocturne/pkg/metrics"
)

// Manager tracks connected readers grouped into one room per novel.
type Manager struct {
	clients    map[string]*Client
	rooms      map[string]map[*Client]struct{}
	unregister chan *Client
	stop       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[*Client]struct{}),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

// Register adds client to its novel's room. It returns once the client
// can receive messages.
func (m *Manager) Register(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[client.ID] = client
	if _, ok := m.rooms[client.NovelID]; !ok {
		m.rooms[client.NovelID] = make(map[*Client]struct{})
	}
	m.rooms[client.NovelID][client] = struct{}{}
	metrics.SetWebsocketClients(int64(len(m.clients)))
}

// Run processes unregistrations until Stop.
func (m *Manager) Run() {
	for {
		select {
		case client := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[client.ID]; ok {
				delete(m.clients, client.ID)
				close(client.Send)
			}
			if set, ok := m.rooms[client.NovelID]; ok {
				delete(set, client)
				if len(set) == 0 {
					delete(m.rooms, client.NovelID)
				}
			}
			metrics.SetWebsocketClients(int64(len(m.clients)))
			m.mu.Unlock()

		case <-m.stop:
			return
		}
	}
}

func (m *Manager) Stop() { m.stopOnce.Do(func() { close(m.stop) }) }

// Room returns the readers currently on novelID.
func (m *Manager) Room(novelID string) []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.rooms[novelID]
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *Manager) RoomClientCount(novelID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[novelID])
}

// deliver queues data for c unless c has already been unregistered. A full
// buffer drops the message.
func (m *Manager) deliver(c *Client, data []byte) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.clients[c.ID]; !ok {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}
