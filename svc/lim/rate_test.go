package lim

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/hkauso/pastemd/metrics"
)

func TestGetRealIPNoProxies(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:4444"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	if got := GetRealIP(r, nil); got != "203.0.113.7" {
		t.Errorf("XFF must be ignored without trusted proxies, got %q", got)
	}
}

func TestGetRealIPUntrustedRemote(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:4444"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	if got := GetRealIP(r, []string{"10.0.0.1"}); got != "203.0.113.7" {
		t.Errorf("XFF from untrusted remote must be ignored, got %q", got)
	}
}

func TestGetRealIPTrustedProxy(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:4444"
	r.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.2")
	got := GetRealIP(r, []string{"10.0.0.0/8"})
	if got != "198.51.100.1" {
		t.Errorf("expected first untrusted hop, got %q", got)
	}
}

func TestGetRealIPSkipsGarbageEntries(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:4444"
	r.Header.Set("X-Forwarded-For", "198.51.100.1, not-an-ip")
	got := GetRealIP(r, []string{"10.0.0.1"})
	if got != "198.51.100.1" {
		t.Errorf("garbage hop should be skipped, got %q", got)
	}
}

func TestLocalFallbackExhaustsBurst(t *testing.T) {
	l := New(60, 3, 5, nil, nil)
	defer l.Stop()

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.9:1234"

	allowed := 0
	for i := 0; i < 10; i++ {
		if l.CheckLimit(r, "create").Allowed {
			allowed++
		}
	}
	if allowed != 3 {
		t.Errorf("expected the 3-token burst to be the cap, got %d allowed", allowed)
	}
}

func TestLimitersAreScopedPerIP(t *testing.T) {
	l := New(60, 1, 5, nil, nil)
	defer l.Stop()

	a := httptest.NewRequest("GET", "/", nil)
	a.RemoteAddr = "203.0.113.1:1"
	b := httptest.NewRequest("GET", "/", nil)
	b.RemoteAddr = "203.0.113.2:1"

	if !l.CheckLimit(a, "read").Allowed {
		t.Error("first request from a should pass")
	}
	if l.CheckLimit(a, "read").Allowed {
		t.Error("second request from a should be limited")
	}
	if !l.CheckLimit(b, "read").Allowed {
		t.Error("b must have its own bucket")
	}
}

func TestAdaptiveModeHalvesLimit(t *testing.T) {
	l := New(60, 10, 8, nil, nil)
	defer l.Stop()

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.3:1"

	res := l.CheckLimit(r, "read")
	if res.Limit != 8 {
		t.Fatalf("expected conservative limit 8, got %d", res.Limit)
	}
	l.TriggerAdaptiveMode()
	res = l.CheckLimit(r, "read")
	if res.Limit != 4 {
		t.Errorf("expected halved limit 4 in adaptive mode, got %d", res.Limit)
	}
}

func TestAnomalyDetectorTriggers(t *testing.T) {
	fired := 0
	d := NewAnomalyDetector(func() { fired++ })

	for i := 0; i < 20; i++ {
		d.RecordRequest()
	}
	for i := 0; i < 5; i++ {
		d.RecordError()
	}
	d.AdvanceWindow()
	if fired != 1 {
		t.Errorf("25%% error rate over 20 requests should trigger, fired=%d", fired)
	}

}

func TestAnomalyDetectorIgnoresHealthyTraffic(t *testing.T) {
	fired := 0
	d := NewAnomalyDetector(func() { fired++ })
	for i := 0; i < 20; i++ {
		d.RecordRequest()
	}
	d.RecordError()
	d.AdvanceWindow()
	if fired != 0 {
		t.Errorf("5%% error rate should not trigger, fired=%d", fired)
	}
}

func TestAnomalyDetectorExportsErrorRate(t *testing.T) {
	d := NewAnomalyDetector(nil)
	for i := 0; i < 20; i++ {
		d.RecordRequest()
	}
	for i := 0; i < 5; i++ {
		d.RecordError()
	}
	d.AdvanceWindow()
	if got := testutil.ToFloat64(metrics.RecentErrorRatePercent); got != 25.0 {
		t.Errorf("expected error rate gauge at 25.0, got %v", got)
	}
}

func TestAnomalyDetectorIgnoresLowVolume(t *testing.T) {
	fired := false
	d := NewAnomalyDetector(func() { fired = true })
	for i := 0; i < 5; i++ {
		d.RecordRequest()
		d.RecordError()
	}
	d.AdvanceWindow()
	if fired {
		t.Error("low traffic volume must not trigger adaptive mode")
	}
}
