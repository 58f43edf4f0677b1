package synchronization

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/rs/zerolog"

	"github.com/selendra/selendra-finality/engine/common/fifoqueue"
	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/model/messages"
	"github.com/selendra/selendra-finality/module"
	"github.com/selendra/selendra-finality/module/chainsync"
	"github.com/selendra/selendra-finality/module/component"
	"github.com/selendra/selendra-finality/module/irrecoverable"
	"github.com/selendra/selendra-finality/network"
)

var (
	_ module.JustificationSubmissions = (*Service)(nil)
	_ module.RequestBlocks            = (*Service)(nil)
)

// Service synchronizes the knowledge about the chain between nodes. A single
// worker owns the handler and multiplexes the network, the request tasks, the
// broadcast ticker, chain events, user submissions and the stall check,
// handling one event per iteration.
type Service struct {
	*component.ComponentManager
	log          zerolog.Logger
	metrics      module.SyncMetrics
	blockMetrics module.BlockMetrics
	clock        clock.Clock
	config       *Config

	network         network.Network
	handler         *chainsync.Handler
	tasks           *chainsync.TaskQueue
	broadcastTicker *chainsync.Ticker
	chainEvents     module.ChainStatusNotifier

	justifications           *fifoqueue.Unbounded[*chain.Justification]
	additionalJustifications *fifoqueue.Unbounded[*chain.Justification]
	blockRequests            *fifoqueue.Unbounded[chain.BlockID]

	lastTopNumber chain.BlockNumber
}

// New creates the sync service on top of the gossip network. Justifications
// submitted through Submit and the additional channel, owned by the caller,
// are handled the same way.
// Expected errors during normal operations:
//   - chainsync.ErrInvalidConfig if the options yield an unusable configuration
func New(
	log zerolog.Logger,
	metrics module.SyncMetrics,
	blockMetrics module.BlockMetrics,
	clk clock.Clock,
	gossip network.GossipNetwork,
	chainEvents module.ChainStatusNotifier,
	chainStatus module.ChainStatus,
	verifier module.Verifier,
	finalizer module.Finalizer,
	additionalJustifications *fifoqueue.Unbounded[*chain.Justification],
	opts ...OptionFunc,
) (*Service, error) {
	config := DefaultConfig()
	for _, apply := range opts {
		apply(config)
	}
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	log = log.With().Str("engine", "sync").Logger()
	handler, err := chainsync.NewHandler(log, config.Config, chainStatus, verifier, finalizer)
	if err != nil {
		return nil, fmt.Errorf("could not create sync handler: %w", err)
	}

	s := &Service{
		log:                      log,
		metrics:                  metrics,
		blockMetrics:             blockMetrics,
		clock:                    clk,
		config:                   config,
		network:                  network.NewVersionWrapper(log, gossip, config.Fanout),
		handler:                  handler,
		tasks:                    chainsync.NewTaskQueue(clk),
		broadcastTicker:          chainsync.NewTicker(clk, config.BroadcastPeriod, config.BroadcastCooldown),
		chainEvents:              chainEvents,
		justifications:           fifoqueue.NewUnbounded[*chain.Justification](),
		additionalJustifications: additionalJustifications,
		blockRequests:            fifoqueue.NewUnbounded[chain.BlockID](),
	}
	s.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(s.loop).
		Build()
	return s, nil
}

// Submit queues an unverified justification for handling.
// Expected errors during normal operations:
//   - fifoqueue.ErrClosed once the service shut down
func (s *Service) Submit(justification *chain.Justification) error {
	return s.justifications.Send(justification)
}

// RequestBlock queues a request for the block.
// Expected errors during normal operations:
//   - fifoqueue.ErrClosed once the service shut down
func (s *Service) RequestBlock(id chain.BlockID) error {
	return s.blockRequests.Send(id)
}

func (s *Service) schedule(id chain.BlockID, delay time.Duration) {
	s.tasks.ScheduleIn(id, delay)
	s.metrics.TaskScheduled(delay)
}

func (s *Service) request(id chain.BlockID) {
	s.schedule(id, immediateRequestDelay)
}

func (s *Service) delayedRequest(id chain.BlockID) {
	s.schedule(id, delayedRequestDelay)
}

func (s *Service) backupRequest(id chain.BlockID) {
	s.schedule(id, backupRequestDelay)
}

func (s *Service) broadcast() {
	state, err := s.handler.State()
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to construct own knowledge state")
		return
	}
	s.log.Trace().Str("top", state.Top().String()).Msg("broadcasting state")
	data := &messages.StateBroadcast{State: state}
	err = s.network.Broadcast(data)
	if err != nil {
		s.log.Warn().Err(err).Msg("error sending broadcast")
		return
	}
	s.metrics.MessageSent(messages.MessageType(data))
}

func (s *Service) sendRequestFor(id chain.BlockID, branch messages.BranchKnowledge, knowMost []peer.ID) {
	state, err := s.handler.State()
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to construct own knowledge state")
		return
	}
	request := messages.NewRequest(id, branch, state)
	s.log.Trace().
		Str("target", id.String()).
		Str("branch", branch.String()).
		Int("candidates", len(knowMost)).
		Msg("sending a request")
	err = s.network.SendToRandom(request, knowMost)
	if err != nil {
		s.log.Warn().Err(err).Str("target", id.String()).Msg("error sending request")
		return
	}
	s.metrics.MessageSent(messages.MessageType(request))
}

func (s *Service) sendTo(data messages.NetworkData, target peer.ID) {
	err := s.network.SendTo(data, target)
	if err != nil {
		s.log.Warn().Err(err).Str("peer", target.String()).Msg("error sending response")
		return
	}
	s.metrics.MessageSent(messages.MessageType(data))
}

func (s *Service) performSyncAction(action chainsync.SyncAction, origin peer.ID) {
	switch action.Kind {
	case chainsync.ActionResponse:
		s.sendTo(action.Response, origin)
	case chainsync.ActionTask:
		s.request(action.Task)
	}
}

func (s *Service) handleState(state messages.State, origin peer.ID) {
	s.log.Trace().
		Str("peer", origin.String()).
		Str("top", state.Top().String()).
		Msg("handling state")
	action, err := s.handler.HandleState(state, origin)
	if err != nil {
		s.log.Warn().Err(err).Str("peer", origin.String()).Msg("error handling sync state")
		return
	}
	s.performSyncAction(action, origin)
}

// handleJustifications handles a batch of justifications in order. Only the
// last new block of the batch is requested immediately, the earlier ones get
// a backup request. The first failing justification aborts the batch. An
// empty origin means the justifications were submitted locally.
func (s *Service) handleJustifications(justifications []*chain.Justification, origin peer.ID) {
	s.log.Trace().Int("count", len(justifications)).Msg("handling justifications")
	s.metrics.JustificationsHandled(len(justifications))

	var previous *chain.BlockID
	for _, justification := range justifications {
		id, err := s.handler.HandleJustification(justification, origin)
		if err != nil {
			s.log.Warn().
				Err(err).
				Str("origin", originName(origin)).
				Str("block", justification.ID().String()).
				Msg("error while handling justification")
			return
		}
		if id == nil {
			continue
		}
		if previous != nil {
			s.backupRequest(*previous)
		}
		previous = id
	}
	if previous != nil {
		s.log.Debug().Str("block", previous.String()).Msg("initiating a request")
		s.request(*previous)
	}
}

func originName(origin peer.ID) string {
	if origin == "" {
		return "user"
	}
	return origin.String()
}

func (s *Service) handleRequest(request *messages.Request, origin peer.ID) {
	s.log.Trace().
		Str("peer", origin.String()).
		Str("target", request.Target.String()).
		Msg("handling a request")
	action, err := s.handler.HandleRequest(request)
	if err != nil {
		s.log.Warn().Err(err).Str("peer", origin.String()).Msg("error handling request")
		return
	}
	s.performSyncAction(action, origin)
}

func (s *Service) handleNetworkData(data messages.NetworkData, origin peer.ID) {
	s.metrics.MessageReceived(messages.MessageType(data))
	switch data := data.(type) {
	case *messages.StateBroadcast:
		s.handleState(data.State, origin)
	case *messages.StateBroadcastResponse:
		s.handleJustifications(data.Justifications(), origin)
	case *messages.Request:
		s.handleRequest(data, origin)
		s.handleState(data.State, origin)
	case *messages.RequestResponse:
		s.handleJustifications(data.Justifications, origin)
	default:
		s.log.Warn().Str("peer", origin.String()).Msgf("unexpected network data type %T", data)
	}
}

func (s *Service) handleMessage(msg network.Message) {
	data, err := s.network.Decode(msg)
	if err != nil {
		s.log.Warn().Err(err).Str("peer", msg.Origin.String()).Msg("error receiving data from network")
		s.metrics.MessageDropped("decode")
		return
	}
	s.handleNetworkData(data, msg.Origin)
}

func (s *Service) handleTask(id chain.BlockID) {
	s.log.Trace().Str("block", id.String()).Msg("handling a task")
	interest := s.handler.Interest(id)
	switch interest.Kind {
	case chainsync.HighestJustified, chainsync.TopRequired:
		s.sendRequestFor(id, interest.Branch, interest.KnowMost)
		s.delayedRequest(id)
	case chainsync.Required:
		s.sendRequestFor(id, interest.Branch, interest.KnowMost)
		s.backupRequest(id)
	}
}

func (s *Service) handleBlockRequest(id chain.BlockID) {
	s.log.Debug().Str("block", id.String()).Msg("received a block request from user")
	if s.handler.RequestBlock(id) {
		s.request(id)
	}
}

func (s *Service) handleChainEvent(event module.ChainStatusNotification) {
	switch event.Kind {
	case module.BlockImported:
		s.log.Trace().Str("block", event.Header.ID().String()).Msg("handling a new imported block")
		err := s.handler.BlockImported(event.Header)
		if err != nil {
			s.log.Error().Err(err).Str("block", event.Header.ID().String()).Msg("error marking block as imported")
		}
	case module.BlockFinalized:
		s.log.Trace().Str("block", event.Header.ID().String()).Msg("handling a new finalized block")
		s.blockMetrics.ReportBlock(event.Header.Hash(), s.clock.Now(), module.CheckpointFinalized)
		s.metrics.TopFinalized(event.Header.Number)
		if s.broadcastTicker.TryTick() {
			s.broadcast()
		}
	}
}

// checkStall rebuilds the forest if the top finalized block did not change
// since the previous check.
func (s *Service) checkStall() {
	state, err := s.handler.State()
	if err != nil {
		s.log.Error().Err(err).Msg("error when retrieving handler state")
		return
	}
	top := state.Top().Number
	if top != s.lastTopNumber {
		s.lastTopNumber = top
		return
	}

	s.log.Error().Uint32("top", uint32(top)).Msg("sync stall detected, recreating the forest")
	s.metrics.StallDetected()
	err = s.handler.RefreshForest()
	if err != nil {
		s.log.Error().Err(err).Msg("error when recreating the forest")
		return
	}
	s.metrics.ForestRefreshed()
}

// nextWakeup returns how long until the broadcast ticker or the earliest task is due.
// The loop selects over many sources at once, so it waits on a timer built from
// NextDue and Until instead of the blocking TaskQueue.Pop and Ticker.WaitAndTick,
// which serve consumers waiting on a single source.
func (s *Service) nextWakeup() time.Duration {
	wakeup := s.broadcastTicker.Until()
	if due, ok := s.tasks.NextDue(); ok && due < wakeup {
		wakeup = due
	}
	return wakeup
}

// onWakeup broadcasts if the ticker is due, and otherwise handles a due task.
func (s *Service) onWakeup() {
	if s.broadcastTicker.Until() == 0 {
		s.broadcastTicker.Tick()
		s.broadcast()
		return
	}
	if id, ok := s.tasks.PopDue(); ok {
		s.handleTask(id)
	}
}

func (s *Service) loop(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	defer s.justifications.Close()
	defer s.blockRequests.Close()

	stallTicker := s.clock.Ticker(s.config.StallCheckPeriod)
	defer stallTicker.Stop()

	incoming := s.network.Receive()
	chainEvents := s.chainEvents.Notifications()
	var additional <-chan struct{}
	if s.additionalJustifications != nil {
		additional = s.additionalJustifications.Channel()
	}

	ready()
	for {
		timer := s.clock.Timer(s.nextWakeup())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case msg, ok := <-incoming:
			if !ok {
				s.log.Warn().Msg("network closed, no more messages will be received")
				incoming = nil
				break
			}
			s.handleMessage(msg)
		case <-timer.C:
			s.onWakeup()
		case event, ok := <-chainEvents:
			if !ok {
				s.log.Warn().Msg("chain event channel closed")
				chainEvents = nil
				break
			}
			s.handleChainEvent(event)
		case <-s.justifications.Channel():
			if justification, ok := s.justifications.Pop(); ok {
				s.log.Debug().Str("block", justification.ID().String()).Msg("received new justification from user")
				s.handleJustifications([]*chain.Justification{justification}, "")
			}
		case <-additional:
			if justification, ok := s.additionalJustifications.Pop(); ok {
				s.log.Debug().Str("block", justification.ID().String()).Msg("received new additional justification from user")
				s.handleJustifications([]*chain.Justification{justification}, "")
			}
		case <-s.blockRequests.Channel():
			if id, ok := s.blockRequests.Pop(); ok {
				s.handleBlockRequest(id)
			}
		case <-stallTicker.C:
			s.checkStall()
		}
		timer.Stop()
	}
}
