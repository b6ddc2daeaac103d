package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/db2fs/db2fs/internal/logger"
)

func TestServerRoutes(t *testing.T) {
	Attachments.WithLabelValues("legacy", "ok").Inc()
	SQLStatements.Inc()

	s := NewServer("127.0.0.1:0", logger.Log{AppName: "db2fs"})

	tests := []struct {
		name     string
		path     string
		status   int
		contains []string
	}{
		{
			name:     "metrics",
			path:     "/metrics",
			status:   fiber.StatusOK,
			contains: []string{"db2fs_attachments_total", `strategy="legacy"`, "db2fs_sql_statements_total"},
		},
		{
			name:     "checkalive",
			path:     "/checkalive",
			status:   fiber.StatusOK,
			contains: []string{"OK"},
		},
		{
			name:   "unknown",
			path:   "/nope",
			status: fiber.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := s.app.Test(httptest.NewRequest(fiber.MethodGet, tt.path, nil), -1)
			require.NoError(t, err)

			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			for _, c := range tt.contains {
				assert.Contains(t, string(body), c)
			}
		})
	}
}

func TestServerStartShutdown(t *testing.T) {
	s := NewServer("127.0.0.1:0", logger.Log{AppName: "db2fs"})
	require.NoError(t, s.Start())
	require.NotEmpty(t, s.Addr())

	resp, err := http.Get("http://" + s.Addr() + checkAliveURI) //nolint:noctx
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Shutdown())
}

func TestServerShutdownRightAfterStart(t *testing.T) {
	for range 5 {
		s := NewServer("127.0.0.1:0", logger.Log{AppName: "db2fs"})
		require.NoError(t, s.Start())

		start := time.Now()
		require.NoError(t, s.Shutdown())
		assert.Less(t, time.Since(start), shutdownTimeout)
	}
}

func TestServerStartBusyPort(t *testing.T) {
	first := NewServer("127.0.0.1:0", logger.Log{AppName: "db2fs"})
	require.NoError(t, first.Start())

	t.Cleanup(func() { _ = first.Shutdown() })

	second := NewServer(first.Addr(), logger.Log{AppName: "db2fs"})
	require.Error(t, second.Start())
	require.NoError(t, second.Shutdown())
}
