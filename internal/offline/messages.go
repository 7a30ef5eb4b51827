package offline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MessageKind identifies a page request.
type MessageKind int

const (
	MsgSkipWaiting MessageKind = iota + 1
	MsgCheckUpdateStatus
	MsgGetVersion
)

const (
	skipWaitingText       = "skipWaiting"
	checkUpdateStatusText = "CHECK_UPDATE_STATUS"
	getVersionAction      = "getVersion"

	TypeNewVersionInstalled = "NEW_VERSION_INSTALLED"
	TypeNoUpdateFound       = "NO_UPDATE_FOUND"
)

var ErrUnknownMessage = errors.New("unknown message")

// Message is a request posted by a page.
type Message struct {
	Kind MessageKind
}

// ParseMessage decodes the wire form: a bare JSON string for skipWaiting and
// CHECK_UPDATE_STATUS, an object with an action for getVersion.
func ParseMessage(data []byte) (Message, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Message{}, fmt.Errorf("%w: %v", ErrUnknownMessage, err)
		}
		switch s {
		case skipWaitingText:
			return Message{Kind: MsgSkipWaiting}, nil
		case checkUpdateStatusText:
			return Message{Kind: MsgCheckUpdateStatus}, nil
		}
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownMessage, s)
	}
	var obj struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrUnknownMessage, err)
	}
	if obj.Action == getVersionAction {
		return Message{Kind: MsgGetVersion}, nil
	}
	return Message{}, fmt.Errorf("%w: action %q", ErrUnknownMessage, obj.Action)
}

func (m Message) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case MsgSkipWaiting:
		return json.Marshal(skipWaitingText)
	case MsgCheckUpdateStatus:
		return json.Marshal(checkUpdateStatusText)
	case MsgGetVersion:
		return json.Marshal(map[string]string{"action": getVersionAction})
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrUnknownMessage, int(m.Kind))
	}
}

// Reply is sent to a page, either as an answer or as a broadcast notice.
type Reply struct {
	Type    string  `json:"type,omitempty"`
	Version *string `json:"version,omitempty"`
}

func versionReply(v string) Reply {
	return Reply{Version: &v}
}
