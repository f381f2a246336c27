// Package payload reads the job handed to a notifier run.
package payload

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/streamhub/notifier/internal/domain"
)

// Source lists the places a job can come from, in precedence order.
type Source struct {
	Arg          string    // base64 JSON from --payload
	EnvJSON      string    // raw JSON from NOTIFY_ITEMS_JSON
	Stdin        io.Reader // nil when stdin is a terminal
	StdinTimeout time.Duration
}

// Read returns the first job found. An empty Job means nothing to notify.
func Read(ctx context.Context, src Source) (domain.Job, error) {
	if arg := strings.TrimSpace(src.Arg); arg != "" {
		raw, err := decodeBase64(arg)
		if err != nil {
			return domain.Job{}, fmt.Errorf("%w: decode --payload: %v", domain.ErrInvalidPayload, err)
		}
		return decode(raw, "--payload")
	}

	if env := strings.TrimSpace(src.EnvJSON); env != "" {
		return decode([]byte(env), "NOTIFY_ITEMS_JSON")
	}

	if src.Stdin != nil {
		raw := readWithTimeout(ctx, src.Stdin, src.StdinTimeout)
		if len(bytes.TrimSpace(raw)) > 0 {
			return decode(raw, "stdin")
		}
	}

	return domain.Job{}, nil
}

// Encode renders a job as the base64 value expected by --payload.
func Encode(job domain.Job) (string, error) {
	raw, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func decode(raw []byte, origin string) (domain.Job, error) {
	var job domain.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return domain.Job{}, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidPayload, origin, err)
	}
	return job, nil
}

// decodeBase64 accepts both standard and URL-safe alphabets, padded or not.
func decodeBase64(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var firstErr error
	for _, enc := range encodings {
		raw, err := enc.DecodeString(s)
		if err == nil {
			return raw, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// readWithTimeout reads r until EOF or until timeout elapses, returning
// whatever arrived. The reading goroutine may outlive the call when r blocks.
func readWithTimeout(ctx context.Context, r io.Reader, timeout time.Duration) []byte {
	chunks := make(chan []byte, 16)
	go func() {
		defer close(chunks)
		buf := make([]byte, 32*1024)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				chunks <- chunk
			}
			if err != nil {
				return
			}
		}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var out []byte
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return out
			}
			out = append(out, chunk...)
		case <-timer.C:
			return out
		case <-ctx.Done():
			return out
		}
	}
}
