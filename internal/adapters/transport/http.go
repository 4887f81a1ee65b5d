package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"

	"github.com/klauspost/compress/gzip"

	"github.com/bft-labs/syslogship/internal/ports"
)

// HTTPOptions configures an HTTP transmitter.
type HTTPOptions struct {
	URL     string
	AuthKey string
	Gzip    bool
}

// HTTP posts every message as the body of one request.
type HTTP struct {
	client   ports.HTTPClient
	opts     HTTPOptions
	hostname string
}

// NewHTTP creates an HTTP transmitter.
func NewHTTP(client ports.HTTPClient, opts HTTPOptions) *HTTP {
	hostname, _ := os.Hostname()
	return &HTTP{
		client:   client,
		opts:     opts,
		hostname: hostname,
	}
}

// Send posts payload to the configured URL. Any non-2xx status is an error.
func (h *HTTP) Send(ctx context.Context, payload []byte) error {
	body, err := h.encode(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.opts.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/syslog")
	if h.opts.Gzip {
		req.Header.Set("Content-Encoding", "gzip")
	}
	if h.opts.AuthKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.opts.AuthKey)
	}
	req.Header.Set("X-Agent-Hostname", h.hostname)
	req.Header.Set("X-Agent-OSArch", runtime.GOOS+"/"+runtime.GOARCH)

	resp, err := h.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}
	io.Copy(io.Discard, resp.Body)

	return nil
}

func (h *HTTP) encode(payload []byte) ([]byte, error) {
	if !h.opts.Gzip {
		return payload, nil
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return nil, fmt.Errorf("gzip body: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip body: %w", err)
	}
	return buf.Bytes(), nil
}

// Close releases idle connections when the client supports it.
func (h *HTTP) Close() error {
	if c, ok := h.client.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
	return nil
}
