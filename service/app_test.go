package service

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"yatube/app/config"
	"yatube/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAppServerGracefulShutdown(t *testing.T) {
	setupTestDB(t)
	t.Setenv("STORAGE_DRIVER", config.DriverSQLite)
	t.Setenv("SQLITE_PATH", "")
	cfg := config.Load()

	listener, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	base := fmt.Sprintf("http://%s", listener.Addr().String())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunAppServer(ctx, cfg, listener)
	}()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get(base + "/")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, err = http.Get(base + "/api/v1/posts/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(cfg.Server.ShutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunAppServerStoreError(t *testing.T) {
	setupTestDB(t)
	t.Setenv("STORAGE_DRIVER", "mysql")

	listener, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)

	err = RunAppServer(context.Background(), config.Load(), listener)
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestRunAppServerWarnsOnDefaultJWTSecret(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(nil) })

	t.Run("unset secret", func(t *testing.T) {
		buf.Reset()
		setupTestDB(t)
		t.Setenv("STORAGE_DRIVER", "mysql")
		t.Setenv("JWT_SECRET", "")
		require.NoError(t, os.Unsetenv("JWT_SECRET"))

		listener, err := net.Listen("tcp", "localhost:0")
		require.NoError(t, err)
		cfg := config.Load()
		require.Equal(t, config.DefaultJWTSecret, cfg.JWT.Secret)

		_ = RunAppServer(context.Background(), cfg, listener)
		assert.Contains(t, buf.String(), `"jwt_default_secret"`)
		assert.Contains(t, buf.String(), `"level":"warn"`)
	})

	t.Run("configured secret", func(t *testing.T) {
		buf.Reset()
		setupTestDB(t)
		t.Setenv("STORAGE_DRIVER", "mysql")
		t.Setenv("JWT_SECRET", "a-real-deployment-secret")

		listener, err := net.Listen("tcp", "localhost:0")
		require.NoError(t, err)

		_ = RunAppServer(context.Background(), config.Load(), listener)
		assert.NotContains(t, buf.String(), "jwt_default_secret")
	})
}
