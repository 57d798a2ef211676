// MIT License
//
// Copyright (c) 2024-2026 GoShard Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/tochemey/goshard/errors"
	"github.com/tochemey/goshard/log"
)

const (
	contentTypeCBOR = "application/cbor"
	entityOpPath    = "/v1/entities"
	migrationPath   = "/v1/migrations"

	maxBodyBytes = 32 << 20 // 32 MiB per request
)

// HTTPTransport carries control-plane messages over plain HTTP with CBOR
// bodies. Each registered local node runs its own listener; peers are reached
// through the addresses recorded with AddPeer.
type HTTPTransport struct {
	mu      sync.RWMutex
	servers map[string]*http.Server
	peers   map[string]string // node id -> host:port
	client  *http.Client
	logger  log.Logger
}

// enforce compilation error
var _ Transport = (*HTTPTransport)(nil)

// HTTPOption configures an HTTPTransport.
type HTTPOption func(transport *HTTPTransport)

// WithHTTPClient overrides the HTTP client used for outbound calls.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(transport *HTTPTransport) {
		transport.client = client
	}
}

// WithHTTPLogger sets the logger used by the transport.
func WithHTTPLogger(logger log.Logger) HTTPOption {
	return func(transport *HTTPTransport) {
		transport.logger = logger
	}
}

// NewHTTPTransport creates a transport with no listeners; nodes are added via
// Register and peers via AddPeer.
func NewHTTPTransport(opts ...HTTPOption) *HTTPTransport {
	transport := &HTTPTransport{
		servers: make(map[string]*http.Server),
		peers:   make(map[string]string),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log.DiscardLogger,
	}
	for _, opt := range opts {
		opt(transport)
	}
	return transport
}

// Register starts an HTTP listener on addr serving the node's control plane
// and records the node as a reachable peer.
func (transport *HTTPTransport) Register(node string, addr string, service Service) error {
	transport.mu.Lock()
	defer transport.mu.Unlock()

	if _, ok := transport.servers[node]; ok {
		return fmt.Errorf("%w: node=(%s) already registered", errors.ErrInvalidConfig, node)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("remote: listening on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(entityOpPath, transport.entityOpHandler(service))
	mux.HandleFunc(migrationPath, transport.migrationHandler(service))

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			transport.logger.Errorf("node=(%s) control-plane server: %v", node, err)
		}
	}()

	transport.servers[node] = server
	transport.peers[node] = listener.Addr().String()
	transport.logger.Infof("node=(%s) control plane listening on %s", node, listener.Addr())
	return nil
}

// Deregister stops the node's listener and forgets its address.
func (transport *HTTPTransport) Deregister(node string) {
	transport.mu.Lock()
	server := transport.servers[node]
	delete(transport.servers, node)
	delete(transport.peers, node)
	transport.mu.Unlock()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
}

// AddPeer records the address of a remote node.
func (transport *HTTPTransport) AddPeer(node string, addr string) {
	transport.mu.Lock()
	defer transport.mu.Unlock()
	transport.peers[node] = addr
}

// RemovePeer forgets a remote node's address.
func (transport *HTTPTransport) RemovePeer(node string) {
	transport.mu.Lock()
	defer transport.mu.Unlock()
	delete(transport.peers, node)
}

// SendEntityOp posts the forwarded operation to the owning node.
func (transport *HTTPTransport) SendEntityOp(ctx context.Context, node string, request *EntityRequest) (*EntityResponse, error) {
	response := new(EntityResponse)
	if err := transport.roundTrip(ctx, node, entityOpPath, request, response); err != nil {
		return nil, err
	}
	return response, nil
}

// SendMigration posts the migration batch to the target node.
func (transport *HTTPTransport) SendMigration(ctx context.Context, node string, batch *MigrationBatch) (*MigrationAck, error) {
	ack := new(MigrationAck)
	if err := transport.roundTrip(ctx, node, migrationPath, batch, ack); err != nil {
		return nil, err
	}
	return ack, nil
}

// Close shuts down every listener.
func (transport *HTTPTransport) Close() error {
	transport.mu.Lock()
	servers := transport.servers
	transport.servers = make(map[string]*http.Server)
	transport.peers = make(map[string]string)
	transport.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var err error
	for _, server := range servers {
		err = multierr.Append(err, server.Shutdown(shutdownCtx))
	}
	transport.client.CloseIdleConnections()
	return err
}

func (transport *HTTPTransport) roundTrip(ctx context.Context, node, path string, in, out any) error {
	transport.mu.RLock()
	addr, ok := transport.peers[node]
	transport.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: node=(%s) has no known address", errors.ErrNodeUnreachable, node)
	}

	body, err := Encode(in)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s%s", addr, path)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", contentTypeCBOR)

	response, err := transport.client.Do(request)
	if err != nil {
		return fmt.Errorf("%w: node=(%s): %v", errors.ErrNodeUnreachable, node, err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(response.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: node=(%s): %v", errors.ErrNodeUnreachable, node, err)
	}

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("remote: node=(%s) replied %d: %s", node, response.StatusCode, payload)
	}
	return Decode(payload, out)
}

func (transport *HTTPTransport) entityOpHandler(service Service) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		in := new(EntityRequest)
		if !transport.readBody(writer, request, in) {
			return
		}
		out, err := service.HandleEntityOp(request.Context(), in)
		transport.writeBody(writer, out, err)
	}
}

func (transport *HTTPTransport) migrationHandler(service Service) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		in := new(MigrationBatch)
		if !transport.readBody(writer, request, in) {
			return
		}
		out, err := service.HandleMigration(request.Context(), in)
		transport.writeBody(writer, out, err)
	}
}

func (transport *HTTPTransport) readBody(writer http.ResponseWriter, request *http.Request, out any) bool {
	if request.Method != http.MethodPost {
		http.Error(writer, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	payload, err := io.ReadAll(io.LimitReader(request.Body, maxBodyBytes))
	if err != nil {
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return false
	}
	if err := Decode(payload, out); err != nil {
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (transport *HTTPTransport) writeBody(writer http.ResponseWriter, out any, err error) {
	if err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}
	payload, err := Encode(out)
	if err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}
	writer.Header().Set("Content-Type", contentTypeCBOR)
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write(payload)
}
