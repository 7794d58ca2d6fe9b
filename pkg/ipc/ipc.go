// Package ipc exposes named operations to a UI process as newline-delimited
// JSON requests and responses. A failed operation answers with the literal
// false; the reason only goes to the log.
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Request asks for one named operation.
type Request struct {
	ID   string            `json:"id"`
	Name string            `json:"name"`
	Args []json.RawMessage `json:"args,omitempty"`
}

// Response answers the request with the same ID. Result is false on failure.
type Response struct {
	ID     string `json:"id"`
	Result any    `json:"result"`
	// Stale is set on the first of two responses to a cached request.
	Stale bool `json:"stale,omitempty"`
}

// HandlerFunc serves one request. Handlers that produce a cached value
// first may call emit with it before returning the fresh result.
type HandlerFunc func(ctx context.Context, args Args, emit func(stale any)) (any, error)

// Dispatcher routes requests to handlers by name.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	logger   *logrus.Entry
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *logrus.Entry) *Dispatcher {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		logger:   logger.WithField("component", "ipc"),
	}
}

// Handle registers fn under name, replacing any previous handler.
func (d *Dispatcher) Handle(name string, fn HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = fn
}

// Names lists the registered operations.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch serves req and returns its final response. Intermediate stale
// responses are passed to partial, which may be nil.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request, partial func(Response)) (resp Response) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	resp = Response{ID: req.ID, Result: false}
	log := d.logger.WithFields(logrus.Fields{"request": req.Name, "id": req.ID})

	d.mu.RLock()
	fn, ok := d.handlers[req.Name]
	d.mu.RUnlock()
	if !ok {
		log.Warn("unknown request")
		return resp
	}

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("handler panicked")
			resp = Response{ID: req.ID, Result: false}
		}
	}()

	emit := func(stale any) {
		if partial != nil {
			partial(Response{ID: req.ID, Result: stale, Stale: true})
		}
	}
	result, err := fn(ctx, Args(req.Args), emit)
	if err != nil {
		log.WithError(err).Debug("request failed")
		return resp
	}
	resp.Result = result
	return resp
}

// Serve reads requests from r until EOF or ctx ends and writes responses to
// w. Every request runs on its own goroutine; writes are serialised.
func (d *Dispatcher) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		enc = json.NewEncoder(w)
	)
	write := func(resp Response) {
		mu.Lock()
		defer mu.Unlock()
		if err := enc.Encode(resp); err != nil {
			d.logger.WithError(err).Error("write response")
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			d.logger.WithError(err).Warn("malformed request")
			write(Response{ID: uuid.NewString(), Result: false})
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			write(d.Dispatch(ctx, req, write))
		}()
	}
	wg.Wait()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read requests: %w", err)
	}
	return ctx.Err()
}

// Args are the positional arguments of a request.
type Args []json.RawMessage

// StringAt decodes argument i as a string.
func (a Args) StringAt(i int) (string, error) {
	var s string
	if err := a.Decode(i, &s); err != nil {
		return "", err
	}
	return s, nil
}

// Decode decodes argument i into v.
func (a Args) Decode(i int, v any) error {
	if i >= len(a) {
		return fmt.Errorf("missing argument %d", i)
	}
	if err := json.Unmarshal(a[i], v); err != nil {
		return fmt.Errorf("argument %d: %w", i, err)
	}
	return nil
}
