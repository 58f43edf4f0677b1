package encoding

// Encoder serializes wire structures. The Must variants panic on failure and
// are meant for values whose encoding cannot fail, such as fixed DTO types.
type Encoder interface {
	Encode(interface{}) ([]byte, error)
	Decode([]byte, interface{}) error
	MustEncode(interface{}) []byte
	MustDecode([]byte, interface{})
}
