package expvarom

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIntAndMapExposedViaHandler(t *testing.T) {
	i := NewInt("smtpclient/test/someCount", "a test counter")
	i.Add(3)

	m := NewMap("smtpclient/test/someMap", "label", "a test map")
	m.Add("ok", 2)
	m.Add("fail", 1)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	MetricsHandler(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "smtpclient_test_someCount 3") {
		t.Errorf("missing int counter in output:\n%s", body)
	}
	if !strings.Contains(body, `smtpclient_test_someMap{label="ok"} 2`) {
		t.Errorf("missing map entry in output:\n%s", body)
	}
}
