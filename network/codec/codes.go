package codec

import (
	"fmt"

	"github.com/selendra/selendra-finality/model/messages"
)

const (
	CodeMin uint8 = iota + 1

	// synchronization
	CodeStateBroadcast
	CodeStateBroadcastResponse
	CodeRequest
	CodeRequestResponse

	CodeMax
)

// MessageCodeFromInterface returns the correct Code based on the underlying type of message v.
func MessageCodeFromInterface(v messages.NetworkData) (uint8, string, error) {
	switch v.(type) {
	case *messages.StateBroadcast:
		return CodeStateBroadcast, "messages.StateBroadcast", nil
	case *messages.StateBroadcastResponse:
		return CodeStateBroadcastResponse, "messages.StateBroadcastResponse", nil
	case *messages.Request:
		return CodeRequest, "messages.Request", nil
	case *messages.RequestResponse:
		return CodeRequestResponse, "messages.RequestResponse", nil
	default:
		return 0, "", fmt.Errorf("invalid encode type (%T)", v)
	}
}

// InterfaceFromMessageCode returns an empty wire representation of the
// message the code stands for.
// Expected error returns during normal operations:
//   - UnknownCodeError if the code names no message type
func InterfaceFromMessageCode(code uint8) (interface{}, string, error) {
	switch code {
	case CodeStateBroadcast:
		return &StateBroadcastDTO{}, "messages.StateBroadcast", nil
	case CodeStateBroadcastResponse:
		return &StateBroadcastResponseDTO{}, "messages.StateBroadcastResponse", nil
	case CodeRequest:
		return &RequestDTO{}, "messages.Request", nil
	case CodeRequestResponse:
		return &RequestResponseDTO{}, "messages.RequestResponse", nil
	default:
		return nil, "", NewUnknownCodeError(code)
	}
}
