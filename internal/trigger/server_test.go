package trigger

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe_ShutsDownOnCancel(t *testing.T) {
	srv := NewServer("127.0.0.1:0", NewFetchHandler(&fakeFetcher{}, nil, fixedDate))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServe_ListenError(t *testing.T) {
	first := NewServer("127.0.0.1:0", http.NotFoundHandler())
	bad := NewServer("256.0.0.1:bad", http.NotFoundHandler())

	err := Serve(context.Background(), first, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen on 256.0.0.1:bad")
}

func TestNewServer(t *testing.T) {
	srv := NewServer(":8081", http.NotFoundHandler())

	assert.Equal(t, ":8081", srv.Addr)
	assert.NotZero(t, srv.ReadHeaderTimeout)
	assert.Zero(t, srv.WriteTimeout)
}
