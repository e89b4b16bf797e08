package codec

import (
	"testing"

	"github.com/ubilab-escape/operator/internal/platform/operr"
)

func TestParseCaseInsensitive(t *testing.T) {
	m, err := Parse([]byte(`{"method": "status", "state": "ACTIVE", "data": null}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Method != MethodStatus || m.State != StateActive {
		t.Fatalf("got %+v", m)
	}
}

func TestParseMissingStateAllowedForMessage(t *testing.T) {
	m, err := Parse([]byte(`{"method": "message", "data": "hello"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Method != MethodMessage || m.State != StateNone || m.Data != "hello" {
		t.Fatalf("got %+v", m)
	}
}

func TestParseMissingStateRejectedForStatus(t *testing.T) {
	_, err := Parse([]byte(`{"method": "status"}`))
	if err == nil {
		t.Fatalf("expected error")
	}
	var opErr *operr.Error
	if !asOperr(err, &opErr) || opErr.Kind != operr.InvalidMessage {
		t.Fatalf("expected InvalidMessage, got %v", err)
	}
}

func TestParseInvalidEnum(t *testing.T) {
	_, err := Parse([]byte(`{"method": "status", "state": "BOGUS"}`))
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseGarbledJSONDegradesToMessage(t *testing.T) {
	raw := `{"method":"STATUS","state":"Invalid}`
	m, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("garbled payload must not error: %v", err)
	}
	if m.Method != MethodMessage || m.Data != raw {
		t.Fatalf("got %+v", m)
	}
}

func TestSerializeFieldOrderAndCase(t *testing.T) {
	m := Message{Method: MethodStatus, State: StateActive}
	got := string(Serialize(m))
	want := `{"method":"status","state":"active","data":null}`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	cases := []Message{
		{Method: MethodTrigger, State: StateOn, Data: nil},
		{Method: MethodTrigger, State: StateOff, Data: "skipped"},
		{Method: MethodStatus, State: StateSolved, Data: map[string]any{"x": float64(1)}},
	}
	for _, m := range cases {
		raw := Serialize(m)
		parsed, err := Parse(raw)
		if err != nil {
			t.Fatalf("parse(serialize(%+v)) failed: %v", m, err)
		}
		if parsed.Method != m.Method || parsed.State != m.State {
			t.Fatalf("round-trip mismatch: got %+v want %+v", parsed, m)
		}
	}
}

func asOperr(err error, target **operr.Error) bool {
	oe, ok := err.(*operr.Error)
	if !ok {
		return false
	}
	*target = oe
	return true
}
