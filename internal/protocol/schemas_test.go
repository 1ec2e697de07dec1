package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"tickarena.ai/internal/protocol"
)

func TestSchemas_ValidateMessages(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, msg any) {
		t.Helper()
		b, err := json.Marshal(msg)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var v any
		if err := json.Unmarshal(b, &v); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate %s: %v", b, err)
		}
	}

	getAction := compile("get_action.schema.json")
	action := compile("action.schema.json")
	debug := compile("debug.schema.json")
	control := compile("control.schema.json")
	debugState := compile("debug_state.schema.json")

	view := json.RawMessage(`{"tick":3,"board":"AA=="}`)
	validate(getAction, protocol.NewGetAction(view))
	validate(getAction, protocol.NewDebugUpdate(view))
	validate(action, protocol.NewAction(json.RawMessage(`{"move":"N"}`)))
	validate(debug, protocol.NewDebug(protocol.DebugCommand{Kind: protocol.DebugAdd, Data: json.RawMessage(`{"text":"hi"}`)}))
	validate(debug, protocol.NewDebug(protocol.DebugCommand{Kind: protocol.DebugClear}))
	validate(control, protocol.NewFinish())
	validate(control, protocol.DebugUpdateDoneMsg{Type: protocol.TypeDebugUpdateDone})
	validate(control, protocol.RequestDebugStateMsg{Type: protocol.TypeRequestDebugState})
	validate(debugState, protocol.NewDebugState(nil))
}

func TestSchemas_RejectWrongType(t *testing.T) {
	s, err := jsonschema.Compile(filepath.Join("..", "..", "schemas", "action.schema.json"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	var v any
	_ = json.Unmarshal([]byte(`{"type":"GET_ACTION","action":{}}`), &v)
	if err := s.Validate(v); err == nil {
		t.Fatalf("expected validation error")
	}
}
