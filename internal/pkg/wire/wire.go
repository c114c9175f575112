package wire

import (
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// MessageType discriminates the payload carried by an Envelope.
// The numeric values are part of the wire contract.
type MessageType uint8

// Client to server messages.
const (
	TypeConnect        MessageType = 1
	TypeDisconnect     MessageType = 2
	TypeMakeMove       MessageType = 10
	TypeRequestRematch MessageType = 11
	TypeCreateRoom     MessageType = 12
	TypeListRooms      MessageType = 13
	TypeJoinRoom       MessageType = 14
	TypeRequestSync    MessageType = 15
)

// Server to client messages.
const (
	TypeWelcome        MessageType = 100
	TypeError          MessageType = 101
	TypePlayerJoined   MessageType = 103
	TypePlayerLeft     MessageType = 104
	TypeRoomStarted    MessageType = 105
	TypeGameEnded      MessageType = 106
	TypeRoomCreated    MessageType = 107
	TypeRoomList       MessageType = 108
	TypeRoomJoined     MessageType = 109
	TypeMoveMade       MessageType = 110
	TypeGameWon        MessageType = 111
	TypeGameLost       MessageType = 112
	TypeRematchOffered MessageType = 113
	TypeMoveAccepted   MessageType = 114
	TypeMoveRejected   MessageType = 115
	TypeSyncState      MessageType = 116
)

var typeNames = map[MessageType]string{
	TypeConnect:        "Connect",
	TypeDisconnect:     "Disconnect",
	TypeMakeMove:       "MakeMove",
	TypeRequestRematch: "RequestRematch",
	TypeCreateRoom:     "CreateRoom",
	TypeListRooms:      "ListRooms",
	TypeJoinRoom:       "JoinRoom",
	TypeRequestSync:    "RequestSync",
	TypeWelcome:        "Welcome",
	TypeError:          "Error",
	TypePlayerJoined:   "PlayerJoined",
	TypePlayerLeft:     "PlayerLeft",
	TypeRoomStarted:    "RoomStarted",
	TypeGameEnded:      "GameEnded",
	TypeRoomCreated:    "RoomCreated",
	TypeRoomList:       "RoomList",
	TypeRoomJoined:     "RoomJoined",
	TypeMoveMade:       "MoveMade",
	TypeGameWon:        "GameWon",
	TypeGameLost:       "GameLost",
	TypeRematchOffered: "RematchOffered",
	TypeMoveAccepted:   "MoveAccepted",
	TypeMoveRejected:   "MoveRejected",
	TypeSyncState:      "SyncState",
}

func (t MessageType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// Envelope is the outer wrapper for every protocol exchange.
// Data holds the msgpack encoding of the payload struct implied by Type,
// or nil for types that carry no payload.
type Envelope struct {
	Type      MessageType `msgpack:"type"`
	SenderID  string      `msgpack:"sender_id,omitempty"`
	Timestamp int64       `msgpack:"ts"`
	Data      []byte      `msgpack:"data,omitempty"`
}

// NewEnvelope builds an envelope around the given payload.
// The timestamp is stamped by the sending side just before the frame is written.
func NewEnvelope(t MessageType, senderID string, payload interface{}) (*Envelope, error) {
	env := &Envelope{
		Type:     t,
		SenderID: senderID,
	}
	if payload != nil {
		data, err := msgpack.Marshal(payload)
		if err != nil {
			return nil, errors.Wrapf(err, "marshal %s payload failed", t)
		}
		env.Data = data
	}
	return env, nil
}

// DecodePayload decodes the envelope's data blob into the payload struct
// associated with its type. Types that carry no payload return nil.
// A blob that does not match its declared type returns ErrBadPayload.
func DecodePayload(env *Envelope) (interface{}, error) {
	var payload interface{}
	switch env.Type {
	case TypeConnect:
		payload = &ConnectRequest{}
	case TypeCreateRoom:
		payload = &CreateRoomRequest{}
	case TypeJoinRoom:
		payload = &JoinRoomRequest{}
	case TypeMakeMove:
		payload = &MakeMoveRequest{}
	case TypeDisconnect, TypeListRooms, TypeRequestRematch, TypeRequestSync,
		TypeRoomStarted, TypeRematchOffered:
		return nil, nil
	case TypeWelcome:
		payload = &WelcomeData{}
	case TypeError:
		payload = &ErrorData{}
	case TypeRoomCreated:
		payload = &RoomCreatedData{}
	case TypeRoomList:
		payload = &RoomListData{}
	case TypeRoomJoined:
		payload = &RoomJoinedData{}
	case TypePlayerJoined, TypePlayerLeft:
		payload = &PlayerInfo{}
	case TypeMoveAccepted, TypeMoveMade:
		payload = &MoveData{}
	case TypeMoveRejected:
		payload = &MoveRejectedData{}
	case TypeSyncState:
		payload = &SyncStateData{}
	case TypeGameEnded, TypeGameWon, TypeGameLost:
		payload = &GameResultData{}
	default:
		return nil, errors.Wrapf(ErrUnknownType, "type %d", env.Type)
	}
	if len(env.Data) == 0 {
		return nil, errors.Wrapf(ErrBadPayload, "%s payload missing", env.Type)
	}
	if err := msgpack.Unmarshal(env.Data, payload); err != nil {
		return nil, errors.Wrapf(ErrBadPayload, "decode %s payload: %v", env.Type, err)
	}
	return payload, nil
}
