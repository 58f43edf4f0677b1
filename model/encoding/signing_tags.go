package encoding

// List of domain separation tags for signatures.
//
// Signed messages are prefixed with a domain tag that specifies the type of
// the signed object, so a signature over one kind of object can never be
// replayed as a signature over another kind.

func tag(domain string) string {
	return protocolPrefix + domain
}

// protocol version and prefix
const protocolPrefix = "SEL-FINALITY-V1_"

var (
	// JustificationTag is used for signatures over finalized block hashes.
	JustificationTag = tag("Justification")
)
