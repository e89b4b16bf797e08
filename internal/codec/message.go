// Package codec implements the wire format shared by every bus participant:
// a strict {method, state, data} envelope with case-insensitive enum
// parsing and a lenient fallback for payloads that aren't valid JSON.
//
// Format: https://github.com/ubilab-escape/operator#communication-format
package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ubilab-escape/operator/internal/platform/operr"
)

type Method string

const (
	MethodMessage Method = "MESSAGE"
	MethodStatus  Method = "STATUS"
	MethodTrigger Method = "TRIGGER"
)

type State string

const (
	StateOff      State = "OFF"
	StateOn       State = "ON"
	StateInactive State = "INACTIVE"
	StateActive   State = "ACTIVE"
	StateSolved   State = "SOLVED"
	StateFailed   State = "FAILED"
	StateNone     State = "NONE"
)

var validMethods = map[Method]bool{
	MethodMessage: true,
	MethodStatus:  true,
	MethodTrigger: true,
}

var validStates = map[State]bool{
	StateOff:      true,
	StateOn:       true,
	StateInactive: true,
	StateActive:   true,
	StateSolved:   true,
	StateFailed:   true,
	StateNone:     true,
}

// Message is the data transfer object exchanged over every bus topic.
type Message struct {
	Method Method
	State  State
	Data   any
}

type wireMessage struct {
	Method string `json:"method"`
	State  string `json:"state"`
	Data   any    `json:"data"`
}

// Parse decodes a raw bus payload. A payload that is not valid JSON degrades
// to a MESSAGE with state NONE and the raw text as data, rather than erroring.
// A payload whose method/state name doesn't match the enumeration raises an
// InvalidMessage error naming the offending field.
func Parse(raw []byte) (Message, error) {
	var wire wireMessage
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Message{Method: MethodMessage, State: StateNone, Data: string(raw)}, nil
	}

	methodStr := strings.ToUpper(strings.TrimSpace(wire.Method))
	if methodStr == "" {
		return Message{}, operr.New(operr.InvalidMessage, "", fmt.Errorf("attribute 'method' is missing"))
	}
	method := Method(methodStr)
	if !validMethods[method] {
		return Message{}, operr.New(operr.InvalidMessage, "", fmt.Errorf("method '%s' is not valid", methodStr))
	}

	stateStr := strings.ToUpper(strings.TrimSpace(wire.State))
	if stateStr == "" {
		if method != MethodMessage {
			return Message{}, operr.New(operr.InvalidMessage, "", fmt.Errorf("attribute 'state' is missing"))
		}
		return Message{Method: method, State: StateNone, Data: wire.Data}, nil
	}
	state := State(stateStr)
	if !validStates[state] {
		return Message{}, operr.New(operr.InvalidMessage, "", fmt.Errorf("state '%s' is not valid", stateStr))
	}

	return Message{Method: method, State: state, Data: wire.Data}, nil
}

// Serialize emits {method, state, data} with lower-case enum names in a
// fixed key order, so snapshots and triggers round-trip byte-for-byte
// against fixtures.
func Serialize(m Message) []byte {
	var b strings.Builder
	b.WriteString(`{"method":`)
	b.Write(mustJSON(strings.ToLower(string(m.Method))))
	b.WriteString(`,"state":`)
	if m.State == "" {
		b.WriteString("null")
	} else {
		b.Write(mustJSON(strings.ToLower(string(m.State))))
	}
	b.WriteString(`,"data":`)
	b.Write(mustJSONAny(m.Data))
	b.WriteString(`}`)
	return []byte(b.String())
}

func mustJSON(s string) []byte {
	out, _ := json.Marshal(s)
	return out
}

func mustJSONAny(v any) []byte {
	if v == nil {
		return []byte("null")
	}
	out, err := json.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return out
}
