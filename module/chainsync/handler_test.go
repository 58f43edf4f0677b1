package chainsync

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/model/messages"
	"github.com/selendra/selendra-finality/utils/unittest"
	"github.com/selendra/selendra-finality/utils/unittest/mocks"
)

const testFinalizedTop = 60

type HandlerSuite struct {
	suite.Suite

	config   Config
	chain    *mocks.Chain
	verifier *mocks.Verifier
	blocks   []*chain.Header // finalized blocks, indexed by number
	handler  *Handler
}

func TestHandler(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (ss *HandlerSuite) SetupTest() {
	ss.config = DefaultConfig()
	ss.config.SessionPeriod = 10

	genesis := unittest.GenesisFixture()
	ss.blocks = append([]*chain.Header{genesis}, unittest.BranchFixture(genesis, testFinalizedTop)...)
	ss.chain = mocks.NewChain(genesis)
	ss.Require().NoError(ss.chain.ImportAndFinalize(unittest.JustificationFixture, ss.blocks[1:]...))
	ss.verifier = mocks.NewVerifier()

	ss.handler = ss.newHandler()
}

func (ss *HandlerSuite) newHandler() *Handler {
	handler, err := NewHandler(unittest.Logger(), ss.config, ss.chain, ss.verifier, ss.chain)
	ss.Require().NoError(err)
	return handler
}

func (ss *HandlerSuite) top() *chain.Justification {
	top, err := ss.chain.TopFinalized()
	ss.Require().NoError(err)
	return top
}

func (ss *HandlerSuite) stateAt(number chain.BlockNumber) messages.State {
	justification, err := ss.chain.FinalizedAt(number)
	ss.Require().NoError(err)
	return messages.NewState(justification)
}

func (ss *HandlerSuite) numbers(justifications []*chain.Justification) []chain.BlockNumber {
	numbers := make([]chain.BlockNumber, 0, len(justifications))
	for _, justification := range justifications {
		numbers = append(numbers, justification.ID().Number)
	}
	return numbers
}

func (ss *HandlerSuite) TestState() {
	state, err := ss.handler.State()
	ss.Require().NoError(err)
	ss.Equal(ss.blocks[testFinalizedTop].ID(), state.Top())
}

// TestHandleJustification_New verifies a new justification of an unknown block
// is stored and reported, and a repeated one is not.
func (ss *HandlerSuite) TestHandleJustification_New() {
	branch := unittest.BranchFixture(ss.blocks[testFinalizedTop], 3)
	justification := unittest.JustificationFixture(branch[2])
	origin := unittest.PeerIDFixture(ss.T())

	id, err := ss.handler.HandleJustification(justification, origin)
	ss.Require().NoError(err)
	ss.Require().NotNil(id)
	ss.Equal(branch[2].ID(), *id)

	interest := ss.handler.Interest(*id)
	ss.Equal(HighestJustified, interest.Kind)
	ss.Contains(interest.KnowMost, origin)

	id, err = ss.handler.HandleJustification(justification, origin)
	ss.Require().NoError(err)
	ss.Nil(id)
}

func (ss *HandlerSuite) TestHandleJustification_Ignored() {
	// finalized already
	id, err := ss.handler.HandleJustification(unittest.JustificationFixture(ss.blocks[10]), "")
	ss.Require().NoError(err)
	ss.Nil(id)

	// beyond the forest
	far := unittest.BranchFixture(ss.blocks[testFinalizedTop], int(ss.config.MaxForestDepth)+1)
	id, err = ss.handler.HandleJustification(unittest.JustificationFixture(far[len(far)-1]), "")
	ss.Require().NoError(err)
	ss.Nil(id)
}

func (ss *HandlerSuite) TestHandleJustification_Invalid() {
	header := unittest.HeaderFixture(ss.blocks[testFinalizedTop])
	ss.verifier.Reject(header.ID())

	id, err := ss.handler.HandleJustification(unittest.JustificationFixture(header), "")
	ss.Nil(id)
	ss.True(IsVerificationError(err))
	ss.True(errors.Is(err, mocks.ErrRejected))
}

// TestHandleJustification_FinalizesImported verifies justifications of
// imported blocks get finalized in ascending order, including those waiting
// for their block to be imported.
func (ss *HandlerSuite) TestHandleJustification_FinalizesImported() {
	branch := unittest.BranchFixture(ss.blocks[testFinalizedTop], 4)
	ss.Require().NoError(ss.chain.Import(branch[:2]...))
	ss.Require().NoError(ss.handler.BlockImported(branch[0]))
	ss.Require().NoError(ss.handler.BlockImported(branch[1]))

	id, err := ss.handler.HandleJustification(unittest.JustificationFixture(branch[1]), "")
	ss.Require().NoError(err)
	ss.Nil(id, "finalized right away")
	ss.Equal(branch[1].ID(), ss.top().ID())

	id, err = ss.handler.HandleJustification(unittest.JustificationFixture(branch[3]), "")
	ss.Require().NoError(err)
	ss.Require().NotNil(id)

	ss.Require().NoError(ss.chain.Import(branch[2:]...))
	ss.Require().NoError(ss.handler.BlockImported(branch[2]))
	ss.Equal(branch[1].ID(), ss.top().ID(), "no justification for the imported block")
	ss.Require().NoError(ss.handler.BlockImported(branch[3]))
	ss.Equal(branch[3].ID(), ss.top().ID())
	ss.Equal(branch[3].ID(), ss.handler.TopFinalized())
}

func (ss *HandlerSuite) TestHandleState_Behind() {
	// same session
	action, err := ss.handler.HandleState(ss.stateAt(59), "")
	ss.Require().NoError(err)
	ss.Require().Equal(ActionResponse, action.Kind)
	response := action.Response.(*messages.StateBroadcastResponse)
	ss.Equal([]chain.BlockNumber{testFinalizedTop}, ss.numbers(response.Justifications()))

	// earlier session gets the session end first
	action, err = ss.handler.HandleState(ss.stateAt(25), "")
	ss.Require().NoError(err)
	ss.Require().Equal(ActionResponse, action.Kind)
	response = action.Response.(*messages.StateBroadcastResponse)
	ss.Equal([]chain.BlockNumber{29, testFinalizedTop}, ss.numbers(response.Justifications()))
}

func (ss *HandlerSuite) TestHandleState_Equal() {
	action, err := ss.handler.HandleState(ss.stateAt(testFinalizedTop), "")
	ss.Require().NoError(err)
	ss.Equal(ActionNoop, action.Kind)
}

func (ss *HandlerSuite) TestHandleState_Ahead() {
	remote := unittest.BranchFixture(ss.blocks[testFinalizedTop], 5)
	state := messages.NewState(unittest.JustificationFixture(remote[4]))
	origin := unittest.PeerIDFixture(ss.T())

	action, err := ss.handler.HandleState(state, origin)
	ss.Require().NoError(err)
	ss.Require().Equal(ActionTask, action.Kind)
	ss.Equal(remote[4].ID(), action.Task)

	action, err = ss.handler.HandleState(state, origin)
	ss.Require().NoError(err)
	ss.Equal(ActionNoop, action.Kind, "justification already known")
}

// TestHandleRequest_BranchKnowledge verifies only justifications above the
// requester's branch knowledge are sent.
func (ss *HandlerSuite) TestHandleRequest_BranchKnowledge() {
	request := messages.NewRequest(
		ss.blocks[50].ID(),
		messages.BranchKnowledge{Kind: messages.TopImported, ID: ss.blocks[40].ID()},
		ss.stateAt(30),
	)

	action, err := ss.handler.HandleRequest(request)
	ss.Require().NoError(err)
	ss.Require().Equal(ActionResponse, action.Kind)
	response := action.Response.(*messages.RequestResponse)
	ss.Equal(ss.blocks[testFinalizedTop].ID(), response.State.Top())

	expected := make([]chain.BlockNumber, 0, 10)
	for n := chain.BlockNumber(41); n <= 50; n++ {
		expected = append(expected, n)
	}
	ss.Equal(expected, ss.numbers(response.Justifications))
}

func (ss *HandlerSuite) TestHandleRequest_UnknownBranchKnowledge() {
	request := messages.NewRequest(
		ss.blocks[35].ID(),
		messages.BranchKnowledge{Kind: messages.TopImported, ID: unittest.BlockIDFixture(33)},
		ss.stateAt(30),
	)

	action, err := ss.handler.HandleRequest(request)
	ss.Require().NoError(err)
	response := action.Response.(*messages.RequestResponse)
	ss.Equal([]chain.BlockNumber{31, 32, 33, 34, 35}, ss.numbers(response.Justifications))
}

func (ss *HandlerSuite) TestHandleRequest_BelowHorizon() {
	request := messages.NewRequest(ss.blocks[20].ID(), messages.BranchKnowledge{}, ss.stateAt(30))
	_, err := ss.handler.HandleRequest(request)
	ss.ErrorIs(err, ErrRequestBelowHorizon)
}

func (ss *HandlerSuite) TestHandleRequest_Capped() {
	ss.config.MaxJustificationBatch = 20
	handler := ss.newHandler()

	request := messages.NewRequest(ss.blocks[testFinalizedTop].ID(), messages.BranchKnowledge{}, ss.stateAt(0))
	action, err := handler.HandleRequest(request)
	ss.Require().NoError(err)
	response := action.Response.(*messages.RequestResponse)
	ss.Require().Len(response.Justifications, 20)
	ss.Equal(chain.BlockNumber(1), response.Justifications[0].ID().Number)
}

// TestHandleRequest_UnfinalizedTarget verifies a justified but unfinalized
// target is sent after our finalized justifications.
func (ss *HandlerSuite) TestHandleRequest_UnfinalizedTarget() {
	branch := unittest.BranchFixture(ss.blocks[testFinalizedTop], 3)
	_, err := ss.handler.HandleJustification(unittest.JustificationFixture(branch[2]), "")
	ss.Require().NoError(err)

	request := messages.NewRequest(branch[2].ID(), messages.BranchKnowledge{}, ss.stateAt(58))
	action, err := ss.handler.HandleRequest(request)
	ss.Require().NoError(err)
	response := action.Response.(*messages.RequestResponse)
	ss.Equal([]chain.BlockNumber{59, 60, 63}, ss.numbers(response.Justifications))
}

func (ss *HandlerSuite) TestHandleRequest_NothingToSend() {
	target := unittest.HeaderFixture(ss.blocks[testFinalizedTop])
	request := messages.NewRequest(target.ID(), messages.BranchKnowledge{}, ss.stateAt(testFinalizedTop))
	action, err := ss.handler.HandleRequest(request)
	ss.Require().NoError(err)
	ss.Equal(ActionNoop, action.Kind)
}

func (ss *HandlerSuite) TestRequestBlock() {
	header := unittest.HeaderFixture(ss.blocks[testFinalizedTop])
	ss.True(ss.handler.RequestBlock(header.ID()))
	ss.Equal(TopRequired, ss.handler.Interest(header.ID()).Kind)

	ss.False(ss.handler.RequestBlock(ss.blocks[3].ID()))
}

// TestRequestBlock_StoredStatus verifies a stored header is linked to its
// imported parent, and an imported block is never requested.
func (ss *HandlerSuite) TestRequestBlock_StoredStatus() {
	branch := unittest.BranchFixture(ss.blocks[testFinalizedTop], 2)
	ss.Require().NoError(ss.chain.Import(branch[0]))
	ss.Require().NoError(ss.handler.BlockImported(branch[0]))
	ss.chain.AddHeader(branch[1])

	ss.True(ss.handler.RequestBlock(branch[1].ID()))
	interest := ss.handler.Interest(branch[1].ID())
	ss.Equal(TopRequired, interest.Kind)
	ss.Equal(messages.BranchKnowledge{Kind: messages.TopImported, ID: branch[0].ID()}, interest.Branch)

	ss.False(ss.handler.RequestBlock(branch[0].ID()))
}

// TestRequestBlock_UnknownHeader verifies a block known only by identifier
// is requested by its own identifier.
func (ss *HandlerSuite) TestRequestBlock_UnknownHeader() {
	id := unittest.BlockIDFixture(testFinalizedTop + 2)
	ss.True(ss.handler.RequestBlock(id))
	ss.Equal(messages.BranchKnowledge{Kind: messages.LowestID, ID: id}, ss.handler.Interest(id).Branch)
}

// TestRefreshForest verifies the forest is rebuilt from imported blocks.
func (ss *HandlerSuite) TestRefreshForest() {
	branch := unittest.BranchFixture(ss.blocks[testFinalizedTop], 3)
	ss.Require().NoError(ss.chain.Import(branch...))

	header := unittest.HeaderFixture(branch[2])
	ss.True(ss.handler.RequestBlock(header.ID()))

	ss.Require().NoError(ss.handler.RefreshForest())
	ss.Equal(Uninterested, ss.handler.Interest(header.ID()).Kind, "requirements are forgotten")
	ss.Equal(3, ss.handler.forest.Len())

	// imported blocks are known, so a justification gets finalized right away
	id, err := ss.handler.HandleJustification(unittest.JustificationFixture(branch[2]), "")
	ss.Require().NoError(err)
	ss.Nil(id)
	ss.Equal(branch[2].ID(), ss.top().ID())
}

func TestHandler_ChainStatusFailure(t *testing.T) {
	_, err := NewHandler(unittest.Logger(), DefaultConfig(), failingChain{}, mocks.NewVerifier(), nil)
	require.True(t, IsChainStatusError(err))
}

var errChainUnavailable = errors.New("chain unavailable")

// failingChain is a chain store whose every read fails.
type failingChain struct{}

func (failingChain) TopFinalized() (*chain.Justification, error) {
	return nil, errChainUnavailable
}

func (failingChain) BlockStatus(chain.BlockID) (chain.BlockStatus, error) {
	return chain.BlockStatusUnknown, errChainUnavailable
}

func (failingChain) FinalizedAt(chain.BlockNumber) (*chain.Justification, error) {
	return nil, errChainUnavailable
}

func (failingChain) Children(chain.BlockID) ([]*chain.Header, error) {
	return nil, errChainUnavailable
}
