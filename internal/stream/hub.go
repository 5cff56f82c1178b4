// Package stream pushes participation events to open student pages over
// websockets, fanned out across instances through redis.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"backend-skillpath/internal/events"
)

const (
	channelPrefix  = "participation:"
	channelSuffix  = ":events"
	channelPattern = channelPrefix + "*" + channelSuffix
)

type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	logger  *log.Logger
	cancel  context.CancelFunc
	done    chan struct{}
}

type Client struct {
	StudentID string
	Send      chan []byte
}

type Option func(*Hub)

func WithLogger(logger *log.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// NewHub delivers locally when redisClient is nil. Otherwise every event goes
// through redis, and this hub delivers what its pattern subscription receives.
func NewHub(redisClient *redis.Client, opts ...Option) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
		logger:  log.New(log.Writer(), "[stream] ", log.LstdFlags),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}

	if redisClient == nil {
		close(h.done)
		return h
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	pubsub := redisClient.PSubscribe(ctx, channelPattern)
	waitCtx, stop := context.WithTimeout(ctx, 2*time.Second)
	if _, err := pubsub.Receive(waitCtx); err != nil {
		h.logger.Printf("redis subscribe error: %v", err)
	}
	stop()
	go h.subscribeRedis(ctx, pubsub)
	return h
}

// Close stops the redis subscription.
func (h *Hub) Close() {
	if h.cancel != nil {
		h.cancel()
	}
	<-h.done
}

func (h *Hub) Register(studentID string) *Client {
	client := &Client{
		StudentID: studentID,
		Send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[studentID] == nil {
		h.clients[studentID] = map[*Client]struct{}{}
	}
	h.clients[studentID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if studentClients, ok := h.clients[client.StudentID]; ok {
		if _, registered := studentClients[client]; !registered {
			return
		}
		delete(studentClients, client)
		if len(studentClients) == 0 {
			delete(h.clients, client.StudentID)
		}
		close(client.Send)
	}
}

// Publish implements events.Publisher.
func (h *Hub) Publish(ctx context.Context, ev events.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return h.Broadcast(ctx, ev.StudentID, payload)
}

func (h *Hub) Broadcast(ctx context.Context, studentID string, payload []byte) error {
	if h.redis == nil {
		h.deliver(studentID, payload)
		return nil
	}
	if err := h.redis.Publish(ctx, redisChannel(studentID), payload).Err(); err != nil {
		h.logger.Printf("redis publish error: %v", err)
		h.deliver(studentID, payload)
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (h *Hub) deliver(studentID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[studentID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis(ctx context.Context, pubsub *redis.PubSub) {
	defer close(h.done)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if studentID := studentIDFromChannel(msg.Channel); studentID != "" {
				h.deliver(studentID, []byte(msg.Payload))
			}
		}
	}
}

func redisChannel(studentID string) string {
	return channelPrefix + studentID + channelSuffix
}

func studentIDFromChannel(ch string) string {
	if !strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	if len(ch) <= len(channelPrefix)+len(channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
