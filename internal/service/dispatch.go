package service

import (
	"context"
	"log/slog"
	"sync"
)

// Sender is the transport handle for one connected client. Send delivers a
// single protocol line; implementations add their own framing.
type Sender interface {
	Send(line string) error
	Close() error
}

// toAll targets an envelope at every attached client.
const toAll = -1

const (
	queueSize        = 256
	clientBufferSize = 64
)

type envelope struct {
	to   int
	line string
}

type client struct {
	sender Sender
	out    chan string
}

// Dispatcher is the broadcast channel: a single dispatch goroutine drains
// the queue in order into per-client send buffers, and one writer goroutine
// per client performs the network sends. The single queue gives every
// client the same event order; a failed or back-pressured client is pruned
// without touching the others.
type Dispatcher struct {
	logger *slog.Logger

	queue chan envelope

	mu      sync.Mutex
	clients map[int]*client
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		logger:  logger.With("component", "dispatcher"),
		queue:   make(chan envelope, queueSize),
		clients: make(map[int]*client),
	}
}

// Run drains the dispatch queue until the context is canceled.
func (that *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			that.closeAll()
			return
		case env := <-that.queue:
			that.deliver(env)
		}
	}
}

// Attach registers a client's transport handle and starts its writer.
func (that *Dispatcher) Attach(id int, sender Sender) {
	c := &client{
		sender: sender,
		out:    make(chan string, clientBufferSize),
	}

	that.mu.Lock()
	that.clients[id] = c
	that.mu.Unlock()

	go that.writeLoop(id, c)
}

// Detach removes a client from the roster. Safe to call twice.
func (that *Dispatcher) Detach(id int) {
	that.mu.Lock()
	c, ok := that.clients[id]
	if ok {
		delete(that.clients, id)
		close(c.out)
	}
	that.mu.Unlock()
}

// Broadcast queues a line for delivery to every attached client.
func (that *Dispatcher) Broadcast(line string) {
	that.queue <- envelope{to: toAll, line: line}
}

// SendTo queues a line for a single client.
func (that *Dispatcher) SendTo(id int, line string) {
	that.queue <- envelope{to: id, line: line}
}

func (that *Dispatcher) deliver(env envelope) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if env.to != toAll {
		if c, ok := that.clients[env.to]; ok {
			that.enqueue(env.to, c, env.line)
		}
		return
	}

	for id, c := range that.clients {
		that.enqueue(id, c, env.line)
	}
}

// enqueue pushes one line into a client's send buffer. A full buffer means
// the client cannot keep up; it is dropped rather than allowed to stall the
// dispatch loop. Callers must hold the dispatcher lock.
func (that *Dispatcher) enqueue(id int, c *client, line string) {
	select {
	case c.out <- line:
	default:
		that.logger.Warn("client send buffer full, dropping client", "id", id)
		delete(that.clients, id)
		close(c.out)
	}
}

func (that *Dispatcher) writeLoop(id int, c *client) {
	for line := range c.out {
		if err := c.sender.Send(line); err != nil {
			that.logger.Debug("send failed, dropping client", "id", id, "error", err)
			that.Detach(id)
			break
		}
	}

	if err := c.sender.Close(); err != nil {
		that.logger.Debug("failed to close sender", "id", id, "error", err)
	}
}

func (that *Dispatcher) closeAll() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for id, c := range that.clients {
		delete(that.clients, id)
		close(c.out)
	}
}
