package main

import (
	"context"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe_StopsOnContextCancel(t *testing.T) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, e, "127.0.0.1:0") }()

	require.Eventually(t, func() bool { return e.ListenerAddr() != nil }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServe_ReportsListenError(t *testing.T) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	err := serve(context.Background(), e, "256.0.0.1:bad")
	assert.Error(t, err)
}
