package fiber_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/db2fs/db2fs/internal/logger"
	adapter "github.com/db2fs/db2fs/internal/logger/adapter/fiber"
)

// expectedLoggerJSONFormat implements the access log json format.
type expectedLoggerJSONFormat struct {
	IP     string `json:"IP"`
	Status int    `json:"status"`
	URI    string `json:"URI"`
	Method string `json:"method"`
}

func TestNew(t *testing.T) {
	consoleJSON := adapter.Config{
		Config: logger.Log{
			EnableAccessLogToConsole: true,
			Console:                  logger.Console{Enabled: true},
		},
		SkipURIs: []string{"/checkalive"},
	}

	tests := []struct {
		name       string
		config     adapter.Config
		targetPath string
		want       *expectedLoggerJSONFormat
	}{
		{
			name:       "no writer no output",
			targetPath: "/metrics",
		},
		{
			name:       "metrics logged as json",
			config:     consoleJSON,
			targetPath: "/metrics",
			want: &expectedLoggerJSONFormat{
				IP:     "0.0.0.0",
				Status: fiber.StatusOK,
				URI:    "/metrics",
				Method: fiber.MethodGet,
			},
		},
		{
			name:       "unknown path keeps query and status",
			config:     consoleJSON,
			targetPath: "/unknown?x=1",
			want: &expectedLoggerJSONFormat{
				IP:     "0.0.0.0",
				Status: fiber.StatusNotFound,
				URI:    "/unknown?x=1",
				Method: fiber.MethodGet,
			},
		},
		{
			name:       "skipped uri",
			config:     consoleJSON,
			targetPath: "/checkalive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := testMiddlewareHelper(t, tt.targetPath, tt.config)

			if tt.want == nil {
				assert.Empty(t, output)
				return
			}

			var decoded expectedLoggerJSONFormat
			require.NoError(t, json.Unmarshal([]byte(output), &decoded), "output: %s", output)

			assert.Equal(t, *tt.want, decoded)
		})
	}
}

func testMiddlewareHelper(t *testing.T, targetPath string, adapterConfig adapter.Config) string {
	t.Helper()

	stdout := os.Stdout
	stderr := os.Stderr

	// capture stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	os.Stderr = w

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		Immutable:     true,
	})

	app.Use(adapter.New(adapterConfig))

	app.Get("/metrics", func(ctx *fiber.Ctx) error {
		return ctx.SendString("# metrics")
	})

	app.Get("/checkalive", func(ctx *fiber.Ctx) error {
		return ctx.SendString("OK")
	})

	_, err := app.Test(httptest.NewRequest(fiber.MethodGet, targetPath, nil), 100000)

	outC := make(chan string)
	// copy the output in a separate goroutine so printing can't block indefinitely
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	// back to normal state
	_ = w.Close()
	os.Stdout = stdout
	os.Stderr = stderr
	out := <-outC

	require.NoError(t, err)

	return out
}
