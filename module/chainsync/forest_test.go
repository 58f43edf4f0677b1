package chainsync

import (
	"testing"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/model/messages"
	"github.com/selendra/selendra-finality/utils/unittest"
)

func TestForest_RangeChecks(t *testing.T) {
	genesis := unittest.GenesisFixture()
	forest := NewForest(genesis.ID(), 10)

	assert.ErrorIs(t, forest.UpdateBlockID(genesis.ID(), "", false), ErrTooOld)
	assert.ErrorIs(t, forest.UpdateBlockID(unittest.BlockIDFixture(11), "", false), ErrTooNew)
	assert.NoError(t, forest.UpdateBlockID(unittest.BlockIDFixture(10), "", false))

	other := unittest.GenesisFixture()
	assert.ErrorIs(t, forest.UpdateHeader(unittest.HeaderFixture(other), "", false), ErrConflictingBranch)
}

// TestForest_HighestJustified verifies only the highest justified block is
// interesting among justified ones, and its ancestors become required.
func TestForest_HighestJustified(t *testing.T) {
	genesis := unittest.GenesisFixture()
	branch := unittest.BranchFixture(genesis, 5)
	forest := NewForest(genesis.ID(), DefaultMaxForestDepth)
	holder := unittest.PeerIDFixture(t)

	isNew, err := forest.UpdateJustification(unittest.JustificationFixture(branch[2]), holder)
	require.NoError(t, err)
	assert.True(t, isNew)
	isNew, err = forest.UpdateJustification(unittest.JustificationFixture(branch[4]), holder)
	require.NoError(t, err)
	assert.True(t, isNew)
	isNew, err = forest.UpdateJustification(unittest.JustificationFixture(branch[4]), holder)
	require.NoError(t, err)
	assert.False(t, isNew)

	interest := forest.Interest(branch[4].ID())
	assert.Equal(t, HighestJustified, interest.Kind)
	assert.Equal(t, []peer.ID{holder}, interest.KnowMost)
	assert.Equal(t, messages.BranchKnowledge{Kind: messages.LowestID, ID: branch[3].ID()}, interest.Branch)

	assert.Equal(t, Uninterested, forest.Interest(branch[2].ID()).Kind)
	assert.Equal(t, TopRequired, forest.Interest(branch[3].ID()).Kind)
	assert.Equal(t, Required, forest.Interest(branch[1].ID()).Kind)
	assert.Equal(t, Uninterested, forest.Interest(unittest.BlockIDFixture(2)).Kind)
}

func TestForest_BranchKnowledgeTopImported(t *testing.T) {
	genesis := unittest.GenesisFixture()
	branch := unittest.BranchFixture(genesis, 4)
	forest := NewForest(genesis.ID(), DefaultMaxForestDepth)

	require.NoError(t, forest.UpdateBody(branch[0]))
	require.NoError(t, forest.UpdateBody(branch[1]))
	require.NoError(t, forest.UpdateHeader(branch[2], "", false))
	_, err := forest.UpdateJustification(unittest.JustificationFixture(branch[3]), "")
	require.NoError(t, err)

	interest := forest.Interest(branch[3].ID())
	assert.Equal(t, HighestJustified, interest.Kind)
	assert.Equal(t, messages.BranchKnowledge{Kind: messages.TopImported, ID: branch[1].ID()}, interest.Branch)
	assert.Empty(t, interest.KnowMost)

	// with nothing imported the root is the top imported ancestor
	forest = NewForest(genesis.ID(), DefaultMaxForestDepth)
	require.NoError(t, forest.UpdateHeader(branch[0], "", true))
	interest = forest.Interest(branch[0].ID())
	assert.Equal(t, TopRequired, interest.Kind)
	assert.Equal(t, messages.BranchKnowledge{Kind: messages.TopImported, ID: genesis.ID()}, interest.Branch)
}

// TestForest_KnowledgePropagatesToAncestors verifies a peer knowing a block
// is assumed to know its ancestors, also those connected later.
func TestForest_KnowledgePropagatesToAncestors(t *testing.T) {
	genesis := unittest.GenesisFixture()
	branch := unittest.BranchFixture(genesis, 3)
	forest := NewForest(genesis.ID(), DefaultMaxForestDepth)
	peers := unittest.PeerIDFixtures(t, 2)

	require.NoError(t, forest.UpdateHeader(branch[2], peers[0], true))
	require.NoError(t, forest.UpdateHeader(branch[1], peers[1], false))

	assert.ElementsMatch(t, peers, forest.Interest(branch[0].ID()).KnowMost)
	assert.Equal(t, []peer.ID{peers[0]}, forest.Interest(branch[2].ID()).KnowMost)
}

func TestForest_FinalizationAndPruning(t *testing.T) {
	genesis := unittest.GenesisFixture()
	branch := unittest.BranchFixture(genesis, 3)
	fork := unittest.BranchFixture(genesis, 3)
	forest := NewForest(genesis.ID(), DefaultMaxForestDepth)

	for _, header := range append(branch, fork...) {
		require.NoError(t, forest.UpdateBody(header))
	}
	assert.Nil(t, forest.NextFinalizable())

	top := unittest.JustificationFixture(branch[1])
	_, err := forest.UpdateJustification(top, "")
	require.NoError(t, err)
	assert.Equal(t, top, forest.NextFinalizable())

	forest.SetRoot(top.ID())
	assert.Equal(t, top.ID(), forest.Root())
	assert.Equal(t, 1, forest.Len(), "only the child of the new root survives")
	assert.Nil(t, forest.NextFinalizable())
	assert.ErrorIs(t, forest.UpdateBody(fork[2]), ErrConflictingBranch)
	assert.ErrorIs(t, forest.UpdateBody(fork[1]), ErrTooOld)
}

// TestForest_Properties checks structural properties over random operation sequences:
// nothing at or below the root is interesting, the root never moves down and
// imported blocks are never interesting.
func TestForest_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		genesis := unittest.GenesisFixture()
		headers := []*chain.Header{genesis}
		forest := NewForest(genesis.ID(), 64)
		root := forest.Root()

		steps := rapid.IntRange(1, 100).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			parent := headers[rapid.IntRange(0, len(headers)-1).Draw(t, "parent")]
			header := unittest.HeaderFixture(parent)
			headers = append(headers, header)

			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				_ = forest.UpdateHeader(header, "", rapid.Bool().Draw(t, "required"))
			case 1:
				_ = forest.UpdateBody(header)
			case 2:
				_, _ = forest.UpdateJustification(unittest.JustificationFixture(header), "")
			case 3:
				_ = forest.UpdateBlockID(header.ID(), "", true)
			}

			if next := forest.NextFinalizable(); next != nil {
				require.Greater(t, next.ID().Number, forest.Root().Number)
				forest.SetRoot(next.ID())
			}
			require.GreaterOrEqual(t, forest.Root().Number, root.Number)
			root = forest.Root()

			for _, h := range headers {
				interest := forest.Interest(h.ID())
				if h.Number <= root.Number {
					require.Equal(t, Uninterested, interest.Kind)
				}
			}
			for _, v := range forest.vertices {
				require.Greater(t, v.id.Number, root.Number)
				if v.imported {
					require.Equal(t, Uninterested, forest.Interest(v.id).Kind)
				}
			}
		}
	})
}
