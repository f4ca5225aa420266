package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestRequestLoggerLevelsByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var out bytes.Buffer
	logger := zerolog.New(&out).Level(zerolog.WarnLevel)

	r := gin.New()
	r.Use(RequestLogger(logger), RequestMetricsMiddleware("test"))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	for _, path := range []string{"/ok", "/bad", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 warn lines, got %d: %s", len(lines), out.String())
	}
	if !strings.Contains(lines[0], `"path":"/bad"`) || !strings.Contains(lines[1], `"path":"unmatched"`) {
		t.Fatalf("unexpected log lines: %v", lines)
	}
}
