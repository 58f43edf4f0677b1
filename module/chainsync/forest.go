package chainsync

import (
	"bytes"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/model/messages"
)

type vertex struct {
	id            chain.BlockID
	parent        *chain.BlockID // known once the header is known
	imported      bool
	required      bool
	justification *chain.Justification
	knowMost      map[peer.ID]struct{}
}

func (v *vertex) headerKnown() bool {
	return v.parent != nil
}

// higher orders vertices by number, ties broken by hash.
func (v *vertex) higher(other *vertex) bool {
	if other == nil {
		return true
	}
	if v.id.Number != other.id.Number {
		return v.id.Number > other.id.Number
	}
	return bytes.Compare(v.id.Hash[:], other.id.Hash[:]) > 0
}

// Forest tracks the blocks above the top finalized block that we heard of,
// together with the peers that know them, whether we imported them and their
// justifications. Its root is the top finalized block. Blocks more than
// maxDepth above the root are not tracked.
//
// Forest is not safe for concurrent use.
type Forest struct {
	root     chain.BlockID
	maxDepth chain.BlockNumber
	vertices map[chain.Hash]*vertex
}

// NewForest creates an empty forest rooted at the given block.
func NewForest(root chain.BlockID, maxDepth chain.BlockNumber) *Forest {
	return &Forest{
		root:     root,
		maxDepth: maxDepth,
		vertices: make(map[chain.Hash]*vertex),
	}
}

// Root returns the top finalized block the forest is rooted at.
func (f *Forest) Root() chain.BlockID {
	return f.root
}

// Len returns the number of tracked blocks.
func (f *Forest) Len() int {
	return len(f.vertices)
}

func (f *Forest) checkRange(id chain.BlockID) error {
	if id.Number <= f.root.Number {
		return ErrTooOld
	}
	if uint64(id.Number) > uint64(f.root.Number)+uint64(f.maxDepth) {
		return ErrTooNew
	}
	return nil
}

func (f *Forest) getOrInsert(id chain.BlockID) *vertex {
	v, ok := f.vertices[id.Hash]
	if !ok {
		v = &vertex{id: id, knowMost: make(map[peer.ID]struct{})}
		f.vertices[id.Hash] = v
	}
	return v
}

// parentOf returns the parent vertex, nil if it is unknown or the root.
func (f *Forest) parentOf(v *vertex) *vertex {
	if v.parent == nil {
		return nil
	}
	return f.vertices[v.parent.Hash]
}

// addKnowledge records that the holder knows the vertex, and thus all its ancestors.
func (f *Forest) addKnowledge(v *vertex, holder peer.ID) {
	if holder == "" {
		return
	}
	for w := v; w != nil; w = f.parentOf(w) {
		w.knowMost[holder] = struct{}{}
	}
}

// markRequired marks the vertex and all its ancestors as required.
func (f *Forest) markRequired(v *vertex) {
	for w := v; w != nil; w = f.parentOf(w) {
		w.required = true
	}
}

func (f *Forest) insertHeader(header *chain.Header) (*vertex, error) {
	id := header.ID()
	err := f.checkRange(id)
	if err != nil {
		return nil, err
	}
	// the range check guarantees a positive number
	parentID, _ := header.ParentID()
	if parentID.Number == f.root.Number && parentID.Hash != f.root.Hash {
		return nil, ErrConflictingBranch
	}

	v := f.getOrInsert(id)
	if v.headerKnown() {
		return v, nil
	}
	v.parent = &parentID
	if parentID.Number == f.root.Number {
		return v, nil
	}

	// connecting a new parent hands our knowledge down to the ancestors
	parent := f.getOrInsert(parentID)
	for holder := range v.knowMost {
		f.addKnowledge(parent, holder)
	}
	if v.required || v.justification != nil {
		f.markRequired(parent)
	}
	return v, nil
}

// UpdateBlockID records that the holder knows the block. Required blocks and
// their ancestors become interesting.
// Expected errors during normal operations:
//   - ErrTooOld, ErrTooNew if the block is outside the forest
func (f *Forest) UpdateBlockID(id chain.BlockID, holder peer.ID, required bool) error {
	err := f.checkRange(id)
	if err != nil {
		return err
	}
	v := f.getOrInsert(id)
	f.addKnowledge(v, holder)
	if required && !v.imported {
		f.markRequired(v)
	}
	return nil
}

// UpdateHeader records the header of a block, and that the holder knows it.
// Expected errors during normal operations:
//   - ErrTooOld, ErrTooNew if the block is outside the forest
//   - ErrConflictingBranch if the block conflicts with the root
func (f *Forest) UpdateHeader(header *chain.Header, holder peer.ID, required bool) error {
	v, err := f.insertHeader(header)
	if err != nil {
		return err
	}
	f.addKnowledge(v, holder)
	if required && !v.imported {
		f.markRequired(v)
	}
	return nil
}

// UpdateBody records that the block was imported.
// Expected errors during normal operations:
//   - ErrTooOld, ErrTooNew if the block is outside the forest
//   - ErrConflictingBranch if the block conflicts with the root
func (f *Forest) UpdateBody(header *chain.Header) error {
	v, err := f.insertHeader(header)
	if err != nil {
		return err
	}
	v.imported = true
	return nil
}

// UpdateJustification stores the justification and records that the holder
// knows the block. The ancestors of a justified block become required. It
// returns true if the forest did not have a justification for the block yet.
// Expected errors during normal operations:
//   - ErrTooOld, ErrTooNew if the block is outside the forest
//   - ErrConflictingBranch if the block conflicts with the root
func (f *Forest) UpdateJustification(justification *chain.Justification, holder peer.ID) (bool, error) {
	v, err := f.insertHeader(&justification.Header)
	if err != nil {
		return false, err
	}
	f.addKnowledge(v, holder)
	isNew := v.justification == nil
	if isNew {
		v.justification = justification
	}
	if parent := f.parentOf(v); parent != nil {
		f.markRequired(parent)
	}
	return isNew, nil
}

// Justification returns the stored justification of the block, if any.
func (f *Forest) Justification(id chain.BlockID) (*chain.Justification, bool) {
	v, ok := f.vertices[id.Hash]
	if !ok || v.justification == nil {
		return nil, false
	}
	return v.justification, true
}

// connectedToRoot returns true if the ancestry of the vertex is known all the way down to the root.
func (f *Forest) connectedToRoot(v *vertex) bool {
	for w := v; w != nil; w = f.parentOf(w) {
		if !w.headerKnown() {
			return false
		}
		if w.parent.Hash == f.root.Hash {
			return true
		}
	}
	return false
}

// NextFinalizable returns the justification of the lowest imported block that
// is justified and descends from the root, or nil if there is none.
func (f *Forest) NextFinalizable() *chain.Justification {
	var lowest *vertex
	for _, v := range f.vertices {
		if v.justification == nil || !v.imported {
			continue
		}
		if lowest != nil && v.id.Number >= lowest.id.Number {
			continue
		}
		if f.connectedToRoot(v) {
			lowest = v
		}
	}
	if lowest == nil {
		return nil
	}
	return lowest.justification
}

// SetRoot moves the root to a newly finalized block. Blocks at or below the
// new root are dropped, and so are all blocks on branches conflicting with it.
func (f *Forest) SetRoot(root chain.BlockID) {
	f.root = root

	keep := make(map[chain.Hash]bool, len(f.vertices))
	var compatible func(v *vertex) bool
	compatible = func(v *vertex) bool {
		if kept, ok := keep[v.id.Hash]; ok {
			return kept
		}
		var result bool
		switch {
		case v.id.Number <= root.Number:
			result = false
		case v.parent == nil:
			result = true
		case v.parent.Number == root.Number:
			result = v.parent.Hash == root.Hash
		default:
			parent, ok := f.vertices[v.parent.Hash]
			result = !ok || compatible(parent)
		}
		keep[v.id.Hash] = result
		return result
	}

	for _, v := range f.vertices {
		compatible(v)
	}
	for hash, kept := range keep {
		if !kept {
			delete(f.vertices, hash)
		}
	}
}

// branchKnowledge describes how much of the ancestry of the vertex we hold.
func (f *Forest) branchKnowledge(v *vertex) messages.BranchKnowledge {
	lowest := v
	for w := v; w != nil; w = f.parentOf(w) {
		if w.imported {
			return messages.BranchKnowledge{Kind: messages.TopImported, ID: w.id}
		}
		lowest = w
		if !w.headerKnown() {
			break
		}
		if w.parent.Hash == f.root.Hash {
			return messages.BranchKnowledge{Kind: messages.TopImported, ID: f.root}
		}
	}
	return messages.BranchKnowledge{Kind: messages.LowestID, ID: lowest.id}
}

// highest returns the highest vertex matching the predicate.
func (f *Forest) highest(match func(v *vertex) bool) *vertex {
	var top *vertex
	for _, v := range f.vertices {
		if match(v) && v.higher(top) {
			top = v
		}
	}
	return top
}

// Interest tells whether and how we want to learn more about the block.
func (f *Forest) Interest(id chain.BlockID) Interest {
	uninterested := Interest{Kind: Uninterested, ID: id}
	if id.Number <= f.root.Number {
		return uninterested
	}
	v, ok := f.vertices[id.Hash]
	if !ok || v.imported {
		return uninterested
	}

	var kind InterestKind
	switch {
	case v.justification != nil:
		top := f.highest(func(w *vertex) bool { return w.justification != nil && !w.imported })
		if top != v {
			return uninterested
		}
		kind = HighestJustified
	case v.required:
		top := f.highest(func(w *vertex) bool { return w.required && w.justification == nil && !w.imported })
		if top == v {
			kind = TopRequired
		} else {
			kind = Required
		}
	default:
		return uninterested
	}

	knowMost := make([]peer.ID, 0, len(v.knowMost))
	for holder := range v.knowMost {
		knowMost = append(knowMost, holder)
	}
	return Interest{
		Kind:     kind,
		ID:       v.id,
		KnowMost: knowMost,
		Branch:   f.branchKnowledge(v),
	}
}
