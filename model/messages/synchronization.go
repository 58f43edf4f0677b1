package messages

import (
	"fmt"

	"github.com/selendra/selendra-finality/model/chain"
)

// State is part of the synchronization protocol and summarizes the chain
// knowledge of a node: its top finalized justification. It never references a
// block the node does not have, and is built fresh for every message.
type State struct {
	TopJustification *chain.Justification
}

// NewState creates a state around the given top justification.
func NewState(top *chain.Justification) State {
	return State{TopJustification: top}
}

// Top returns the identifier of the top finalized block of the state.
func (s State) Top() chain.BlockID {
	return s.TopJustification.ID()
}

// BranchKnowledgeKind tells how BranchKnowledge.ID relates to the requested block.
type BranchKnowledgeKind uint8

const (
	// LowestID means ID is the lowest known ancestor of the requested block,
	// and its parent is unknown to the requester.
	LowestID BranchKnowledgeKind = iota
	// TopImported means ID is the highest imported ancestor of the requested block.
	TopImported
)

func (k BranchKnowledgeKind) String() string {
	switch k {
	case LowestID:
		return "lowest_id"
	case TopImported:
		return "top_imported"
	default:
		return "invalid"
	}
}

// BranchKnowledge encodes how far back along the ancestry of a requested block
// the requester already holds blocks, so the responder can send only the
// missing suffix.
type BranchKnowledge struct {
	Kind BranchKnowledgeKind
	ID   chain.BlockID
}

func (b BranchKnowledge) String() string {
	return fmt.Sprintf("%s(%s)", b.Kind, b.ID)
}

// NetworkData is the sealed union of all synchronization protocol messages.
type NetworkData interface {
	isNetworkData()
}

// StateBroadcast is sent periodically to all peers.
type StateBroadcast struct {
	State State
}

// Request asks a peer for the justifications leading to Target.
type Request struct {
	Target chain.BlockID
	Branch BranchKnowledge
	State  State
}

// NewRequest creates a request for the given target.
func NewRequest(target chain.BlockID, branch BranchKnowledge, state State) *Request {
	return &Request{Target: target, Branch: branch, State: state}
}

// StateBroadcastResponse answers a state broadcast of a peer that is behind.
// Justifications are processed in order: Justification first, then Additional
// if present.
type StateBroadcastResponse struct {
	Justification *chain.Justification
	Additional    *chain.Justification
}

// Justifications returns the carried justifications in processing order.
func (r *StateBroadcastResponse) Justifications() []*chain.Justification {
	if r.Additional == nil {
		return []*chain.Justification{r.Justification}
	}
	return []*chain.Justification{r.Justification, r.Additional}
}

// RequestResponse answers a Request.
type RequestResponse struct {
	State          State
	Justifications []*chain.Justification
}

func (*StateBroadcast) isNetworkData()         {}
func (*Request) isNetworkData()                {}
func (*StateBroadcastResponse) isNetworkData() {}
func (*RequestResponse) isNetworkData()        {}

// MessageType returns a short name of the message, for logs and metrics.
func MessageType(data NetworkData) string {
	switch data.(type) {
	case *StateBroadcast:
		return "state_broadcast"
	case *Request:
		return "request"
	case *StateBroadcastResponse:
		return "state_broadcast_response"
	case *RequestResponse:
		return "request_response"
	default:
		return "unknown"
	}
}
