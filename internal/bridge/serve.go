package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/Cyclone1070/codeshell/internal/tool/shell"
)

// maxRequestSize bounds a single request line.
const maxRequestSize = 4 * 1024 * 1024

// Request is one line read by Serve.
type Request struct {
	ID   json.RawMessage `json:"id,omitempty"`
	Cmd  string          `json:"cmd"`
	Args map[string]any  `json:"args,omitempty"`
}

// Response answers a Request with the same id.
type Response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Result any             `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Event is pushed to the client without a request.
type Event struct {
	Event   string              `json:"event"`
	Payload shell.CommandOutput `json:"payload"`
}

// lineWriter serialises JSON values onto a shared writer.
type lineWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func (w *lineWriter) write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(v)
}

// Serve reads JSON-lines requests from in, dispatches each in its own
// goroutine and writes responses and forwarded events to out. It returns when
// in is exhausted or ctx is done, after in-flight requests have answered.
func (b *Bridge) Serve(ctx context.Context, in io.Reader, out io.Writer, events <-chan shell.CommandOutput) error {
	w := &lineWriter{enc: json.NewEncoder(out)}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var pump sync.WaitGroup
	if events != nil {
		pump.Add(1)
		go func() {
			defer pump.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-events:
					if !ok {
						return
					}
					if err := w.write(Event{Event: EventCommandOutput, Payload: ev}); err != nil {
						b.logger.Warn("failed to write event", "error", err)
					}
				}
			}
		}()
	}

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), maxRequestSize)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				readErr <- nil
				return
			}
		}
		readErr <- scanner.Err()
	}()

	var inflight sync.WaitGroup
	var err error
loop:
	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break loop
		case err = <-readErr:
			if err != nil {
				err = fmt.Errorf("failed to read request: %w", err)
			}
			break loop
		case line := <-lines:
			if len(line) == 0 {
				continue
			}
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				if werr := w.write(b.handle(ctx, line)); werr != nil {
					b.logger.Warn("failed to write response", "error", werr)
				}
			}()
		}
	}

	inflight.Wait()
	cancel()
	pump.Wait()
	return err
}

func (b *Bridge) handle(ctx context.Context, line []byte) Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Response{Error: fmt.Sprintf("malformed request: %v", err)}
	}
	if req.Cmd == "" {
		return Response{ID: req.ID, Error: "cmd is required"}
	}

	result, err := b.Invoke(ctx, req.Cmd, req.Args)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: result}
}
