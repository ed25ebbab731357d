package publish

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pebbe/zmq4"
	"gocv.io/x/gocv"

	"github.com/ayusman/fingercount/internal/app"
	"github.com/ayusman/fingercount/internal/detector"
)

// Publisher is a pipeline sink that publishes every result on a ZeroMQ PUB
// socket. Subscribers that are not keeping up lose messages instead of
// slowing the pipeline down.
type Publisher struct {
	mu       sync.Mutex
	socket   *zmq4.Socket
	endpoint string
	frames   int
}

// NewPublisher binds a PUB socket to endpoint, for example "tcp://*:5556".
func NewPublisher(endpoint string) (*Publisher, error) {
	socket, err := zmq4.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, err
	}
	if err := socket.SetSndhwm(100); err != nil {
		_ = socket.Close()
		return nil, err
	}
	if err := socket.Bind(endpoint); err != nil {
		_ = socket.Close()
		return nil, fmt.Errorf("bind %s: %w", endpoint, err)
	}

	log.Printf("Publishing results on %s", endpoint)
	return &Publisher{socket: socket, endpoint: endpoint}, nil
}

// Consume encodes res and sends it without blocking.
func (p *Publisher) Consume(_ gocv.Mat, res *detector.Result) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.socket == nil {
		return nil
	}

	p.frames++
	payload, err := Encode(app.NewSummary(p.frames, res, time.Now()))
	if err != nil {
		return err
	}

	// PUB sockets drop messages past the high water mark.
	if _, err := p.socket.SendBytes(payload, zmq4.DONTWAIT); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// EndSession restarts frame numbering for the next Running period.
func (p *Publisher) EndSession() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = 0
	return nil
}

// Endpoint returns the address the socket is bound to.
func (p *Publisher) Endpoint() string {
	return p.endpoint
}

// Close closes the socket.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.socket == nil {
		return nil
	}
	err := p.socket.Close()
	p.socket = nil
	return err
}
