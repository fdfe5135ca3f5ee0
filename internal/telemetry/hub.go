package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Event types published on the hub.
const (
	EventReady     = "ready"
	EventHeartbeat = "heartbeat"
	EventRedraw    = "redraw"
	EventStatus    = "status"
)

// globalStream keys the buffer of events that belong to no controller.
const globalStream = "global"

// slowClientTimeout bounds how long Publish waits on one client.
const slowClientTimeout = 100 * time.Millisecond

// Event is one SSE message.
type Event struct {
	ID     int64                  `json:"id,omitempty"`
	Type   string                 `json:"type"`
	Data   map[string]interface{} `json:"data"`
	Stream string                 `json:"stream,omitempty"`
}

// Client is one SSE connection.
type Client struct {
	ID      string
	Writer  http.ResponseWriter
	Request *http.Request
	Context context.Context
	Cancel  context.CancelFunc
	LastID  int64
	Stream  string // empty receives every stream
	Events  chan Event
	once    sync.Once
	mu      sync.Mutex // guards Writer
}

func (c *Client) wants(e Event) bool {
	return c.Stream == "" || e.Stream == "" || e.Stream == c.Stream
}

// Options configures a Hub.
type Options struct {
	HeartbeatInterval time.Duration
	BufferSize        int

	// Snapshot supplies the payload of the ready event. Optional.
	Snapshot func() interface{}
}

// Hub distributes events to SSE clients with per-stream replay buffers.
//
// Lock ordering: h.mu before EventBuffer.mu. Client writers are guarded by Client.mu
// and never taken while h.mu is held.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	buffers map[string]*EventBuffer
	nextID  int64 // atomic

	opts Options

	heartbeatTicker *time.Ticker
	stopHeartbeat   chan struct{}

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// EventBuffer keeps the most recent events of one stream.
type EventBuffer struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
}

// NewHub creates a hub.
func NewHub(opts Options) *Hub {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 50
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = 15 * time.Second
	}
	return &Hub{
		clients: make(map[string]*Client),
		buffers: make(map[string]*EventBuffer),
		opts:    opts,
		done:    make(chan struct{}),
	}
}

// Subscribe serves one SSE client until ctx ends or the client goes away.
// The optional "stream" query parameter restricts delivery to one controller.
func (h *Hub) Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	clientCtx, cancel := context.WithCancel(ctx)

	lastEventID := int64(0)
	if lastIDStr := r.Header.Get("Last-Event-ID"); lastIDStr != "" {
		if id, err := strconv.ParseInt(lastIDStr, 10, 64); err == nil {
			lastEventID = id
		}
	}

	client := &Client{
		ID:      uuid.NewString(),
		Writer:  w,
		Request: r,
		Context: clientCtx,
		Cancel:  cancel,
		LastID:  lastEventID,
		Stream:  r.URL.Query().Get("stream"),
		Events:  make(chan Event, 100),
	}

	h.mu.Lock()
	h.clients[client.ID] = client
	if h.heartbeatTicker == nil {
		h.startHeartbeat()
	}
	h.mu.Unlock()

	if err := h.sendReadyEvent(client); err != nil {
		h.unregisterClient(client.ID)
		return fmt.Errorf("failed to send ready event: %w", err)
	}

	if lastEventID > 0 {
		if err := h.replayEvents(client, lastEventID); err != nil {
			h.unregisterClient(client.ID)
			return fmt.Errorf("failed to replay events: %w", err)
		}
	}

	h.handleClient(client)
	return nil
}

// Publish assigns an id, buffers and sends event to every interested client.
// A client that does not accept the event within 100ms misses it.
func (h *Hub) Publish(event Event) error {
	select {
	case <-h.done:
		return nil
	default:
	}

	if event.ID == 0 {
		event.ID = atomic.AddInt64(&h.nextID, 1)
	}
	if event.Type != EventHeartbeat {
		h.bufferEvent(event)
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		if client.wants(event) {
			clients = append(clients, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range clients {
		timer := time.NewTimer(slowClientTimeout)
		select {
		case <-client.Context.Done():
		case <-h.done:
			timer.Stop()
			return nil
		case client.Events <- event:
		case <-timer.C:
		}
		timer.Stop()
	}

	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) sendReadyEvent(client *Client) error {
	data := map[string]interface{}{}
	if h.opts.Snapshot != nil {
		data["snapshot"] = h.opts.Snapshot()
	}
	return h.sendEventToClient(client, Event{
		ID:   atomic.AddInt64(&h.nextID, 1),
		Type: EventReady,
		Data: data,
	})
}

// replayEvents sends buffered events newer than lastEventID in id order.
func (h *Hub) replayEvents(client *Client, lastEventID int64) error {
	h.mu.RLock()
	var events []Event
	for stream, buffer := range h.buffers {
		if client.Stream != "" && stream != client.Stream && stream != globalStream {
			continue
		}
		events = append(events, buffer.GetEventsAfter(lastEventID)...)
	}
	h.mu.RUnlock()

	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })

	for _, event := range events {
		if err := h.sendEventToClient(client, event); err != nil {
			return err
		}
	}
	return nil
}

// sendEventToClient writes one event in SSE framing and flushes.
func (h *Hub) sendEventToClient(client *Client, event Event) error {
	client.mu.Lock()
	defer client.mu.Unlock()

	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	if event.ID > 0 {
		if _, err := fmt.Fprintf(client.Writer, "id: %d\n", event.ID); err != nil {
			return fmt.Errorf("failed to write event ID: %w", err)
		}
	}
	if _, err := fmt.Fprintf(client.Writer, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	if flusher, ok := client.Writer.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

func (h *Hub) handleClient(client *Client) {
	defer func() {
		client.once.Do(func() {
			close(client.Events)
		})
		h.unregisterClient(client.ID)
	}()

	for {
		select {
		case <-client.Context.Done():
			return
		case <-h.done:
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			if err := h.sendEventToClient(client, event); err != nil {
				return
			}
		}
	}
}

func (h *Hub) unregisterClient(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, exists := h.clients[clientID]
	if !exists {
		return
	}
	client.Cancel()
	delete(h.clients, clientID)

	if len(h.clients) == 0 {
		h.stopHeartbeatLocked()
	}
}

func (h *Hub) bufferEvent(event Event) {
	stream := event.Stream
	if stream == "" {
		stream = globalStream
	}

	h.mu.Lock()
	buffer, exists := h.buffers[stream]
	if !exists {
		buffer = NewEventBuffer(h.opts.BufferSize)
		h.buffers[stream] = buffer
	}
	h.mu.Unlock()

	buffer.AddEvent(event)
}

// startHeartbeat must be called with h.mu held.
func (h *Hub) startHeartbeat() {
	h.heartbeatTicker = time.NewTicker(h.opts.HeartbeatInterval)
	h.stopHeartbeat = make(chan struct{})

	ticker := h.heartbeatTicker
	stop := h.stopHeartbeat

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ticker.C:
				h.Publish(Event{
					Type: EventHeartbeat,
					Data: map[string]interface{}{"ts": time.Now().UTC().Format(time.RFC3339)},
				})
			case <-stop:
				return
			case <-h.done:
				return
			}
		}
	}()
}

// stopHeartbeatLocked must be called with h.mu held.
func (h *Hub) stopHeartbeatLocked() {
	if h.heartbeatTicker != nil {
		h.heartbeatTicker.Stop()
		h.heartbeatTicker = nil
	}
	if h.stopHeartbeat != nil {
		close(h.stopHeartbeat)
		h.stopHeartbeat = nil
	}
}

// Stop disconnects every client and stops the heartbeat. It is safe to call twice.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		for _, client := range h.clients {
			client.Cancel()
		}
		h.stopHeartbeatLocked()
		h.mu.Unlock()

		waited := make(chan struct{})
		go func() {
			h.wg.Wait()
			close(waited)
		}()
		select {
		case <-waited:
		case <-time.After(5 * time.Second):
		}
	})
}

// NewEventBuffer creates a buffer holding at most capacity events.
func NewEventBuffer(capacity int) *EventBuffer {
	return &EventBuffer{
		events:   make([]Event, 0, capacity),
		capacity: capacity,
	}
}

// AddEvent appends event, evicting the oldest beyond capacity.
func (b *EventBuffer) AddEvent(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)
	if len(b.events) > b.capacity {
		b.events = b.events[len(b.events)-b.capacity:]
	}
}

// GetEventsAfter returns the buffered events with an id greater than lastID.
func (b *EventBuffer) GetEventsAfter(lastID int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []Event
	for _, event := range b.events {
		if event.ID > lastID {
			result = append(result, event)
		}
	}
	return result
}

// GetCapacity returns the buffer capacity.
func (b *EventBuffer) GetCapacity() int {
	return b.capacity
}

// GetSize returns the number of buffered events.
func (b *EventBuffer) GetSize() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events)
}
