package observability

import (
	"testing"
	"time"

	"github.com/misje/genericpacket/internal/protocol/stream"
	"github.com/misje/genericpacket/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var _ stream.Observer = PacketObserver{}

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	logger := testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("echo", "GET", "/health", 200, 12*time.Millisecond)
	RecordPacketEncoded("size=8 type=8", 7)
	RecordStreamError("size=8 type=8", "payload_too_large")

	logger.Info().Msg("observability/metrics: registration idempotent and recording paths executed")
}

func TestPacketObserverCounts(t *testing.T) {
	testlog.Start(t)
	obs := NewPacketObserver("size=16 type=16")
	before := testutil.ToFloat64(packetsDecoded.WithLabelValues("size=16 type=16", "42"))
	obs.FrameDecoded(42, 10)
	obs.FrameDecoded(42, 0)
	obs.AwaitingBytes(3)

	if got := testutil.ToFloat64(packetsDecoded.WithLabelValues("size=16 type=16", "42")); got != before+2 {
		t.Fatalf("decoded counter got=%v want=%v", got, before+2)
	}
	if got := testutil.ToFloat64(partialReads.WithLabelValues("size=16 type=16")); got < 1 {
		t.Fatalf("partial reads counter not incremented: %v", got)
	}
}

func TestTypeLabelsStayBounded(t *testing.T) {
	testlog.Start(t)
	const profile = "64x64-bounded"
	obs := NewPacketObserver(profile)

	before := testutil.CollectAndCount(packetsDecoded)
	for typ := uint64(0); typ < 4096; typ++ {
		obs.FrameDecoded(typ, 1)
	}
	obs.FrameDecoded(1<<63, 1)

	added := testutil.CollectAndCount(packetsDecoded) - before
	if added != maxLabeledType+2 {
		t.Fatalf("decoded series added=%d want=%d", added, maxLabeledType+2)
	}
	if got := testutil.ToFloat64(packetsDecoded.WithLabelValues(profile, "other")); got != 4096-256+1 {
		t.Fatalf("other series got=%v want=%v", got, 4096-256+1)
	}

	before = testutil.CollectAndCount(packetsEncoded)
	for typ := uint64(1000); typ < 2000; typ++ {
		RecordPacketEncoded(profile, typ)
	}
	if added := testutil.CollectAndCount(packetsEncoded) - before; added != 1 {
		t.Fatalf("encoded series added=%d want=1", added)
	}
}
