package offline

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		in   string
		want MessageKind
	}{
		{`"skipWaiting"`, MsgSkipWaiting},
		{`"CHECK_UPDATE_STATUS"`, MsgCheckUpdateStatus},
		{` {"action":"getVersion"} `, MsgGetVersion},
	}
	for _, tt := range tests {
		got, err := ParseMessage([]byte(tt.in))
		if err != nil {
			t.Fatalf("ParseMessage(%s): %v", tt.in, err)
		}
		if got.Kind != tt.want {
			t.Fatalf("ParseMessage(%s) = %v, want %v", tt.in, got.Kind, tt.want)
		}
		data, err := json.Marshal(got)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		back, err := ParseMessage(data)
		if err != nil || back != got {
			t.Fatalf("wire form %s does not parse back: %v", data, err)
		}
	}
}

func TestParseMessage_Rejects(t *testing.T) {
	for _, in := range []string{`"skip"`, `{"action":"reload"}`, `42`, `{`} {
		if _, err := ParseMessage([]byte(in)); !errors.Is(err, ErrUnknownMessage) {
			t.Fatalf("ParseMessage(%s) err = %v", in, err)
		}
	}
}

func TestReplyWireForm(t *testing.T) {
	data, _ := json.Marshal(Reply{Type: TypeNoUpdateFound})
	if string(data) != `{"type":"NO_UPDATE_FOUND"}` {
		t.Fatalf("got %s", data)
	}
	data, _ = json.Marshal(versionReply("v1.36.2"))
	if string(data) != `{"version":"v1.36.2"}` {
		t.Fatalf("got %s", data)
	}
}
