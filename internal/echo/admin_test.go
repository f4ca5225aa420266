package echo

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/misje/genericpacket/internal/protocol/packet"
	"github.com/misje/genericpacket/internal/testutil/testlog"
	. "github.com/onsi/gomega"
)

func newAdminService(t *testing.T) *Service {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testServiceConfig(packet.Format16x8)
	cfg.Name = "packetctl-admin-test"
	cfg.CorsOrigins = []string{"http://localhost:3000"}
	svc, err := NewServiceWithConfig(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestAdminRoutes(t *testing.T) {
	testlog.Start(t)
	g := NewWithT(t)
	router := newAdminService(t).AdminRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	var health map[string]any
	g.Expect(json.Unmarshal(rec.Body.Bytes(), &health)).To(Succeed())
	g.Expect(health).To(HaveKeyWithValue("status", "ok"))
	g.Expect(health).To(HaveKeyWithValue("service", "packetctl-admin-test"))
	g.Expect(health).To(HaveKey("packets_echoed"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile", nil))
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	var profile map[string]any
	g.Expect(json.Unmarshal(rec.Body.Bytes(), &profile)).To(Succeed())
	g.Expect(profile).To(HaveKeyWithValue("profile", "16x8"))
	g.Expect(profile).To(HaveKeyWithValue("header_len", float64(3)))
	g.Expect(profile).To(HaveKeyWithValue("max_size", float64(65535)))
	g.Expect(profile).To(HaveKeyWithValue("max_type", float64(255)))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	g.Expect(rec.Body.String()).To(ContainSubstring("packetctl_http_requests_total"))
}

func TestAdminCORSPreflight(t *testing.T) {
	testlog.Start(t)
	g := NewWithT(t)
	router := newAdminService(t).AdminRouter()

	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	g.Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("http://localhost:3000"))
}

func TestServeAdminStopsOnCancel(t *testing.T) {
	testlog.Start(t)
	g := NewWithT(t)
	svc := newAdminService(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	g.Expect(err).To(BeNil())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.serveAdmin(ctx, ln)
	}()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/ready")
	g.Expect(err).To(BeNil())
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	g.Expect(resp.StatusCode).To(Equal(http.StatusOK))
	g.Expect(string(body)).To(ContainSubstring(`"ready"`))

	cancel()
	select {
	case err := <-done:
		g.Expect(err).To(BeNil())
	case <-time.After(5 * time.Second):
		t.Fatal("admin server did not stop")
	}
}
