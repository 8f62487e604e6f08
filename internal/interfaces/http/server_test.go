package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molscore/internal/config"
	"github.com/turtacn/molscore/pkg/errors"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	srv := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 1, ShutdownTimeout: time.Second}, handler, nil)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + ln.Addr().String() + "/")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	require.NoError(t, srv.Shutdown(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_StartListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	srv := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: port}, http.NotFoundHandler(), nil)
	err = srv.Start()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeServiceUnavailable))
}

func TestServer_Handler(t *testing.T) {
	h := http.NotFoundHandler()
	srv := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 8080}, h, nil)
	assert.NotNil(t, srv.Handler())
	assert.Equal(t, "127.0.0.1:8080", srv.httpServer.Addr)
	assert.Equal(t, 30*time.Second, srv.shutdownTimeout)
}

//Personal.AI order the ending
