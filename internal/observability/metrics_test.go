package observability

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsIsIdempotent(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()
}

func TestRecordersCountByResult(t *testing.T) {
	before := testutil.ToFloat64(codecPasses.WithLabelValues(DirectionDecode, "metrics-test", string(tlv.KindMissingField)))

	RecordDecode("metrics-test", 0, fmt.Errorf("wrapped: %w", tlv.ErrMissingField))
	RecordEncode("metrics-test", 11, nil)

	after := testutil.ToFloat64(codecPasses.WithLabelValues(DirectionDecode, "metrics-test", string(tlv.KindMissingField)))
	if after != before+1 {
		t.Fatalf("missing_field counter: before=%v after=%v", before, after)
	}
	if got := testutil.ToFloat64(codecPasses.WithLabelValues(DirectionEncode, "metrics-test", "ok")); got < 1 {
		t.Fatalf("expected ok encode pass recorded, got %v", got)
	}
}

func TestResultLabel(t *testing.T) {
	if ResultLabel(nil) != "ok" {
		t.Fatalf("nil error should be ok")
	}
	if ResultLabel(tlv.ErrTruncatedInput) != "truncated_input" {
		t.Fatalf("unexpected label: %s", ResultLabel(tlv.ErrTruncatedInput))
	}
	if ResultLabel(errors.New("io")) != "error" {
		t.Fatalf("foreign errors should map to error")
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	RecordHTTPRequest("metrics-test", "POST", "/v1/decode", 200, 3*time.Millisecond)
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("metrics-test", "POST", "/v1/decode", "200")); got != 1 {
		t.Fatalf("http counter = %v", got)
	}
}
