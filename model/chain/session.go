package chain

// DefaultSessionPeriod is the default number of blocks in a session.
const DefaultSessionPeriod SessionPeriod = 900

// SessionID numbers consecutive sessions, starting from zero.
type SessionID uint32

// SessionPeriod is the number of blocks in a session. Committees only change
// on session boundaries.
type SessionPeriod uint32

// SessionOf returns the session the block with the given number belongs to.
func (p SessionPeriod) SessionOf(number BlockNumber) SessionID {
	return SessionID(uint32(number) / uint32(p))
}

// FirstBlock returns the number of the first block of the session.
func (p SessionPeriod) FirstBlock(session SessionID) BlockNumber {
	return BlockNumber(uint32(session) * uint32(p))
}

// LastBlock returns the number of the last block of the session.
func (p SessionPeriod) LastBlock(session SessionID) BlockNumber {
	return BlockNumber((uint32(session)+1)*uint32(p) - 1)
}
