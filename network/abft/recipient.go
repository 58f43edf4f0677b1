package abft

import "fmt"

// NodeIndex is the position of a node in the committee of a session.
type NodeIndex uint32

// Recipient addresses either the whole committee or a single member of it.
type Recipient struct {
	everyone bool
	node     NodeIndex
}

// Everyone addresses every committee member except ourselves.
func Everyone() Recipient {
	return Recipient{everyone: true}
}

// Node addresses a single committee member.
func Node(index NodeIndex) Recipient {
	return Recipient{node: index}
}

// Target returns the addressed node, and false when everyone is addressed.
func (r Recipient) Target() (NodeIndex, bool) {
	return r.node, !r.everyone
}

func (r Recipient) String() string {
	if r.everyone {
		return "everyone"
	}
	return fmt.Sprintf("node(%d)", r.node)
}

// LegacyRecipient is the recipient type of the legacy BFT engine.
type LegacyRecipient struct {
	Everyone bool
	Node     NodeIndex
}

func (r LegacyRecipient) Recipient() Recipient {
	if r.Everyone {
		return Everyone()
	}
	return Node(r.Node)
}

// CurrentRecipient is the recipient type of the current BFT engine. A nil
// Node addresses everyone.
type CurrentRecipient struct {
	Node *NodeIndex
}

func (r CurrentRecipient) Recipient() Recipient {
	if r.Node == nil {
		return Everyone()
	}
	return Node(*r.Node)
}

// EngineRecipient is satisfied by the recipient types of the supported BFT
// engine versions.
type EngineRecipient interface {
	LegacyRecipient | CurrentRecipient
	Recipient() Recipient
}
