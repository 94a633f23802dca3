package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/qnkhuat/quizterm/pkg/bank"
	"github.com/qnkhuat/quizterm/pkg/game"
)

// MaxFrameSize bounds a single encoded message, newline included.
const MaxFrameSize = 1 << 20

type MessageType int

const (
	TypeMessageUnknown MessageType = iota
	TypeMessageHello
	TypeMessageCommand
	TypeMessageAck
	TypeMessageBye
)

func (m MessageType) String() string {
	switch m {
	case TypeMessageHello:
		return "Hello"
	case TypeMessageCommand:
		return "Command"
	case TypeMessageAck:
		return "Ack"
	case TypeMessageBye:
		return "Bye"
	default:
		return "Unknown"
	}
}

func (m MessageType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MessageType) UnmarshalText(text []byte) error {
	*m = TypeMessageUnknown
	for t := TypeMessageHello; t <= TypeMessageBye; t++ {
		if t.String() == string(text) {
			*m = t
			return nil
		}
	}
	return nil
}

// Error kinds an Ack can carry besides the game and bank error kinds.
const (
	ErrorNoSession  = "NoSession"
	ErrorBadRequest = "BadRequest"
)

type MessageInterface interface {
	Type() MessageType
}

// MessageTransport is the envelope every frame is wrapped in.
type MessageTransport struct {
	MsgType MessageType     `json:"type"`
	Seq     uint64          `json:"seq"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// MessageHello opens a session. The display builds its state from Bank.
type MessageHello struct {
	SessionID   string   `json:"session_id"`
	SessionName string   `json:"session_name"`
	Bank        bank.Raw `json:"bank"`
}

func (m MessageHello) Type() MessageType {
	return TypeMessageHello
}

type MessageCommand struct {
	Command game.Command `json:"command"`
}

func (m MessageCommand) Type() MessageType {
	return TypeMessageCommand
}

// MessageAck answers exactly one message with the same seq.
type MessageAck struct {
	OK      bool          `json:"ok"`
	Error   string        `json:"error,omitempty"`
	Phase   game.Phase    `json:"phase"`
	Message string        `json:"message,omitempty"`
	Outcome *game.Outcome `json:"outcome,omitempty"`
}

func (m MessageAck) Type() MessageType {
	return TypeMessageAck
}

type MessageBye struct {
	Reason string `json:"reason,omitempty"`
}

func (m MessageBye) Type() MessageType {
	return TypeMessageBye
}

// Encode wraps m in an envelope and returns one newline terminated frame.
func Encode(seq uint64, m MessageInterface) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Type(), err)
	}

	b, err := json.Marshal(MessageTransport{MsgType: m.Type(), Seq: seq, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	b = append(b, '\n')

	if len(b) > MaxFrameSize {
		return nil, fmt.Errorf("encode %s: frame of %d bytes exceeds %d", m.Type(), len(b), MaxFrameSize)
	}
	return b, nil
}

// Decode parses one frame. It returns the envelope even when the payload
// cannot be decoded so the caller can still answer with the right seq.
func Decode(frame []byte) (MessageTransport, MessageInterface, error) {
	var t MessageTransport
	if err := json.Unmarshal(bytes.TrimSpace(frame), &t); err != nil {
		return t, nil, fmt.Errorf("decode envelope: %w", err)
	}

	var m MessageInterface
	switch t.MsgType {
	case TypeMessageHello:
		var msg MessageHello
		if err := unmarshalData(t.Data, &msg); err != nil {
			return t, nil, err
		}
		m = msg
	case TypeMessageCommand:
		var msg MessageCommand
		if err := unmarshalData(t.Data, &msg); err != nil {
			return t, nil, err
		}
		m = msg
	case TypeMessageAck:
		var msg MessageAck
		if err := unmarshalData(t.Data, &msg); err != nil {
			return t, nil, err
		}
		m = msg
	case TypeMessageBye:
		var msg MessageBye
		if err := unmarshalData(t.Data, &msg); err != nil {
			return t, nil, err
		}
		m = msg
	default:
		return t, nil, fmt.Errorf("decode: unknown message type")
	}
	return t, m, nil
}

func unmarshalData(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
