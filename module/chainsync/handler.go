package chainsync

import (
	"errors"
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/rs/zerolog"

	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/model/messages"
	"github.com/selendra/selendra-finality/module"
	"github.com/selendra/selendra-finality/storage"
)

// SyncActionKind enumerates what the service should do after handling a message.
type SyncActionKind int

const (
	ActionNoop SyncActionKind = iota
	ActionResponse
	ActionTask
)

// SyncAction is the outcome of handling a state or request: nothing, a
// response to send back to the peer, or a block to schedule a request for.
type SyncAction struct {
	Kind     SyncActionKind
	Response messages.NetworkData
	Task     chain.BlockID
}

func Noop() SyncAction {
	return SyncAction{Kind: ActionNoop}
}

func Response(data messages.NetworkData) SyncAction {
	return SyncAction{Kind: ActionResponse, Response: data}
}

func Task(id chain.BlockID) SyncAction {
	return SyncAction{Kind: ActionTask, Task: id}
}

// Handler contains the synchronization logic: it decides what to answer to
// peers, which justifications to finalize and which blocks to ask for. All
// state besides the local chain store lives in its Forest.
//
// Handler is not safe for concurrent use, it is owned by the sync service.
type Handler struct {
	log         zerolog.Logger
	config      Config
	chainStatus module.ChainStatus
	verifier    module.Verifier
	finalizer   module.Finalizer
	forest      *Forest
}

// NewHandler creates a handler with a forest built from the chain store.
// Expected errors during normal operations:
//   - ErrInvalidConfig if the configuration is unusable
func NewHandler(
	log zerolog.Logger,
	config Config,
	chainStatus module.ChainStatus,
	verifier module.Verifier,
	finalizer module.Finalizer,
) (*Handler, error) {
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	h := &Handler{
		log:         log.With().Str("component", "sync_handler").Logger(),
		config:      config,
		chainStatus: chainStatus,
		verifier:    verifier,
		finalizer:   finalizer,
	}
	err = h.RefreshForest()
	if err != nil {
		return nil, fmt.Errorf("could not build forest: %w", err)
	}
	return h, nil
}

// RefreshForest rebuilds the forest from the chain store, forgetting all
// knowledge about peers and unimported blocks.
// No errors are expected during normal operations.
func (h *Handler) RefreshForest() error {
	top, err := h.chainStatus.TopFinalized()
	if err != nil {
		return NewChainStatusError(err)
	}
	forest := NewForest(top.ID(), h.config.MaxForestDepth)

	queue := []chain.BlockID{top.ID()}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		children, err := h.chainStatus.Children(id)
		if err != nil {
			return NewChainStatusError(fmt.Errorf("could not get children of %s: %w", id, err))
		}
		for _, child := range children {
			err = forest.UpdateBody(child)
			if errors.Is(err, ErrTooNew) {
				continue
			}
			if err != nil {
				return fmt.Errorf("could not add imported block %s: %w", child.ID(), err)
			}
			queue = append(queue, child.ID())
		}
	}

	h.forest = forest
	h.log.Debug().
		Uint32("root", uint32(forest.Root().Number)).
		Int("blocks", forest.Len()).
		Msg("forest refreshed")
	return nil
}

// State returns the current state of the local node.
// No errors are expected during normal operations.
func (h *Handler) State() (messages.State, error) {
	top, err := h.chainStatus.TopFinalized()
	if err != nil {
		return messages.State{}, NewChainStatusError(err)
	}
	return messages.NewState(top), nil
}

// Interest returns what we want to learn about the block.
func (h *Handler) Interest(id chain.BlockID) Interest {
	return h.forest.Interest(id)
}

// TopFinalized returns the root of the forest.
func (h *Handler) TopFinalized() chain.BlockID {
	return h.forest.Root()
}

// HandleJustification verifies and stores the justification, finalizing
// whatever becomes finalizable. It returns the block identifier if the
// justification was new and the block is still not finalized, in which case
// the block is worth requesting.
// Expected errors during normal operations:
//   - VerificationError if the justification is invalid
//   - FinalizationError if finalizing a block failed
func (h *Handler) HandleJustification(justification *chain.Justification, origin peer.ID) (*chain.BlockID, error) {
	id := justification.ID()
	top, err := h.syncRoot()
	if err != nil {
		return nil, err
	}
	if id.Number <= top.Number {
		return nil, nil
	}

	verified, err := h.verifier.Verify(justification)
	if err != nil {
		return nil, NewVerificationError(err)
	}

	isNew, err := h.forest.UpdateJustification(verified, origin)
	if errors.Is(err, ErrTooOld) || errors.Is(err, ErrTooNew) || errors.Is(err, ErrConflictingBranch) {
		h.log.Debug().Err(err).Str("block", id.String()).Msg("ignoring justification outside of the forest")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not store justification for %s: %w", id, err)
	}

	err = h.tryFinalize()
	if err != nil {
		return nil, err
	}

	if isNew && id.Number > h.forest.Root().Number {
		return &id, nil
	}
	return nil, nil
}

// syncRoot moves the forest root up to blocks finalized by other components,
// and returns the top finalized block.
func (h *Handler) syncRoot() (chain.BlockID, error) {
	top, err := h.chainStatus.TopFinalized()
	if err != nil {
		return chain.BlockID{}, NewChainStatusError(err)
	}
	if top.ID().Number > h.forest.Root().Number {
		h.forest.SetRoot(top.ID())
	}
	return top.ID(), nil
}

// tryFinalize finalizes imported justified blocks in ascending order.
func (h *Handler) tryFinalize() error {
	for {
		justification := h.forest.NextFinalizable()
		if justification == nil {
			return nil
		}
		err := h.finalizer.Finalize(justification)
		if err != nil {
			return NewFinalizationError(err)
		}
		h.forest.SetRoot(justification.ID())
		h.log.Debug().Str("block", justification.ID().String()).Msg("finalized block")
	}
}

// BlockImported records that the block was imported and finalizes it if we
// already hold its justification.
// Expected errors during normal operations:
//   - FinalizationError if finalizing a block failed
func (h *Handler) BlockImported(header *chain.Header) error {
	_, err := h.syncRoot()
	if err != nil {
		return err
	}
	err = h.forest.UpdateBody(header)
	if errors.Is(err, ErrTooOld) || errors.Is(err, ErrTooNew) || errors.Is(err, ErrConflictingBranch) {
		h.log.Trace().Err(err).Str("block", header.ID().String()).Msg("imported block outside of the forest")
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not record imported block: %w", err)
	}
	return h.tryFinalize()
}

// RequestBlock marks the block as required. It returns false if we are not
// interested in the block anyway. A header already in the chain store is
// linked to its parent, so the request can name the imported ancestor.
func (h *Handler) RequestBlock(id chain.BlockID) bool {
	status, err := h.chainStatus.BlockStatus(id)
	if err != nil {
		h.log.Warn().Err(err).Str("block", id.String()).Msg("could not get block status, requesting by identifier")
		status = chain.BlockStatusUnknown
	}

	switch status {
	case chain.BlockStatusImported:
		h.log.Debug().Str("block", id.String()).Msg("ignoring request for an imported block")
		return false
	case chain.BlockStatusHeaderOnly:
		header, ok := h.storedHeader(id)
		if ok {
			err = h.forest.UpdateHeader(header, "", true)
			break
		}
		err = h.forest.UpdateBlockID(id, "", true)
	default:
		err = h.forest.UpdateBlockID(id, "", true)
	}
	if err != nil {
		h.log.Debug().Err(err).Str("block", id.String()).Msg("ignoring block request")
		return false
	}
	return h.forest.Interest(id).Interesting()
}

// storedHeader reads a header from the chain store, if the store serves headers.
func (h *Handler) storedHeader(id chain.BlockID) (*chain.Header, bool) {
	headers, ok := h.chainStatus.(module.HeaderBackend)
	if !ok {
		return nil, false
	}
	header, err := headers.Header(id)
	if err != nil {
		h.log.Debug().Err(err).Str("block", id.String()).Msg("header not available")
		return nil, false
	}
	return header, true
}

// HandleState handles the state of a peer. A peer behind us gets the
// justifications it needs to catch up, a peer ahead of us gets its top block
// requested.
// Expected errors during normal operations:
//   - VerificationError if the remote top justification is invalid
//   - FinalizationError if finalizing a block failed
func (h *Handler) HandleState(state messages.State, origin peer.ID) (SyncAction, error) {
	local, err := h.chainStatus.TopFinalized()
	if err != nil {
		return Noop(), NewChainStatusError(err)
	}
	remote := state.Top()
	localNumber := local.ID().Number

	switch {
	case remote.Number < localNumber:
		response := &messages.StateBroadcastResponse{Justification: local}
		sessionEnd, err := h.sessionEndFor(remote.Number, localNumber)
		if err != nil {
			return Noop(), err
		}
		if sessionEnd != nil {
			response = &messages.StateBroadcastResponse{Justification: sessionEnd, Additional: local}
		}
		return Response(response), nil
	case remote.Number == localNumber:
		return Noop(), nil
	default:
		id, err := h.HandleJustification(state.TopJustification, origin)
		if err != nil {
			return Noop(), err
		}
		if id == nil {
			return Noop(), nil
		}
		return Task(*id), nil
	}
}

// sessionEndFor returns the justification of the last block of the remote's
// session if the remote lags a whole session behind, so that it can follow
// the authority change.
func (h *Handler) sessionEndFor(remote, local chain.BlockNumber) (*chain.Justification, error) {
	period := h.config.SessionPeriod
	session := period.SessionOf(remote)
	if session >= period.SessionOf(local) {
		return nil, nil
	}
	last := period.LastBlock(session)
	if last == remote || last == local {
		return nil, nil
	}
	justification, err := h.chainStatus.FinalizedAt(last)
	if err != nil {
		return nil, NewChainStatusError(fmt.Errorf("could not get justification of session end #%d: %w", last, err))
	}
	return justification, nil
}

// HandleRequest answers a request with the justifications the requester is
// missing on the way to the target.
// Expected errors during normal operations:
//   - ErrRequestBelowHorizon if the requester already finalized the target
func (h *Handler) HandleRequest(request *messages.Request) (SyncAction, error) {
	requesterTop := request.State.Top()
	if request.Target.Number <= requesterTop.Number {
		return Noop(), ErrRequestBelowHorizon
	}

	local, err := h.chainStatus.TopFinalized()
	if err != nil {
		return Noop(), NewChainStatusError(err)
	}

	from := requesterTop.Number
	if request.Branch.Kind == messages.TopImported && request.Branch.ID.Number > from {
		onChain, err := h.isFinalized(request.Branch.ID)
		if err != nil {
			return Noop(), err
		}
		if onChain {
			from = request.Branch.ID.Number
		}
	}

	upTo := request.Target.Number
	if local.ID().Number < upTo {
		upTo = local.ID().Number
	}

	var justifications []*chain.Justification
	for number := from + 1; number <= upTo && len(justifications) < h.config.MaxJustificationBatch; number++ {
		justification, err := h.chainStatus.FinalizedAt(number)
		if err != nil {
			return Noop(), NewChainStatusError(fmt.Errorf("could not get finalized justification #%d: %w", number, err))
		}
		justifications = append(justifications, justification)
	}
	if len(justifications) < h.config.MaxJustificationBatch {
		if justification, ok := h.forest.Justification(request.Target); ok {
			justifications = append(justifications, justification)
		}
	}

	if len(justifications) == 0 {
		return Noop(), nil
	}
	return Response(&messages.RequestResponse{
		State:          messages.NewState(local),
		Justifications: justifications,
	}), nil
}

// isFinalized returns true if the block is on our finalized chain.
func (h *Handler) isFinalized(id chain.BlockID) (bool, error) {
	justification, err := h.chainStatus.FinalizedAt(id.Number)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, NewChainStatusError(err)
	}
	return justification.ID().Equal(id), nil
}
