package server

import (
	"net"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoadesk/inbox/config"
	"github.com/hoadesk/inbox/internal/cron"
	cron_config "github.com/hoadesk/inbox/internal/cron/config"
	"github.com/hoadesk/inbox/internal/logger"
)

func newTestServer(addr string) *Server {
	cfg := &config.Config{CronConfig: &cron_config.Config{Enabled: false}}
	log := logger.NewNopLogger()
	return &Server{
		config: cfg,
		log:    log,
		cron:   cron.NewCronManager(cfg, log, nil),
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           http.NotFoundHandler(),
			ReadHeaderTimeout: time.Second,
		},
	}
}

func TestRun_ReturnsListenError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	done := make(chan error, 1)
	go func() { done <- newTestServer(busy.Addr().String()).Run() }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http server failed")
	case <-time.After(5 * time.Second):
		t.Fatal("Run kept waiting after the listener failed")
	}
}

func TestWaitForShutdown_Signal(t *testing.T) {
	s := newTestServer("127.0.0.1:0")
	stop := make(chan os.Signal, 1)
	stop <- syscall.SIGTERM

	assert.NoError(t, s.waitForShutdown(stop, make(chan error)))
}
