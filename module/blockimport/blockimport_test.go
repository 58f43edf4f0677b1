package blockimport_test

import (
	"context"
	"errors"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/module"
	"github.com/selendra/selendra-finality/module/blockimport"
	importmock "github.com/selendra/selendra-finality/module/blockimport/mock"
	"github.com/selendra/selendra-finality/module/justification"
	modulemock "github.com/selendra/selendra-finality/module/mock"
	"github.com/selendra/selendra-finality/utils/unittest"
)

func TestTracingBlockImport(t *testing.T) {
	header := unittest.HeaderFixture(unittest.GenesisFixture())
	clk := clock.NewMock()

	t.Run("imported", func(t *testing.T) {
		inner := importmock.NewBlockImporter(t)
		metrics := modulemock.NewBlockMetrics(t)
		tracing := blockimport.NewTracingBlockImport(inner, metrics, clk)

		params := &blockimport.ImportParams{Header: *header}
		inner.On("ImportBlock", mock.Anything, params).Return(blockimport.ImportResult{Kind: blockimport.Imported}, nil).Once()
		metrics.On("ReportBlock", header.Hash(), clk.Now(), module.CheckpointImporting).Once()
		metrics.On("ReportBlock", header.Hash(), clk.Now(), module.CheckpointImported).Once()

		result, err := tracing.ImportBlock(context.Background(), params)
		require.NoError(t, err)
		assert.Equal(t, blockimport.Imported, result.Kind)
	})

	t.Run("not imported", func(t *testing.T) {
		inner := importmock.NewBlockImporter(t)
		metrics := modulemock.NewBlockMetrics(t)
		tracing := blockimport.NewTracingBlockImport(inner, metrics, clk)

		params := &blockimport.ImportParams{Header: *header}
		inner.On("ImportBlock", mock.Anything, params).Return(blockimport.ImportResult{Kind: blockimport.AlreadyInChain}, nil).Once()
		metrics.On("ReportBlock", header.Hash(), clk.Now(), module.CheckpointImporting).Once()

		result, err := tracing.ImportBlock(context.Background(), params)
		require.NoError(t, err)
		assert.Equal(t, blockimport.AlreadyInChain, result.Kind)
	})

	t.Run("check passes through", func(t *testing.T) {
		inner := importmock.NewBlockImporter(t)
		tracing := blockimport.NewTracingBlockImport(inner, modulemock.NewBlockMetrics(t), clk)
		params := blockimport.CheckParams{ID: header.ID()}
		inner.On("CheckBlock", mock.Anything, params).Return(blockimport.ImportResult{Kind: blockimport.UnknownParent}, nil).Once()

		result, err := tracing.CheckBlock(context.Background(), params)
		require.NoError(t, err)
		assert.Equal(t, blockimport.UnknownParent, result.Kind)
	})
}

type JustificationImportSuite struct {
	suite.Suite

	inner       *importmock.BlockImporter
	submissions *modulemock.JustificationSubmissions
	translator  *modulemock.JustificationTranslator
	importer    *blockimport.JustificationBlockImport

	header        *chain.Header
	signatures    *chain.SignatureSet
	justification *chain.Justification
	raw           []byte
}

func TestJustificationBlockImport(t *testing.T) {
	suite.Run(t, new(JustificationImportSuite))
}

func (s *JustificationImportSuite) SetupTest() {
	s.inner = importmock.NewBlockImporter(s.T())
	s.submissions = modulemock.NewJustificationSubmissions(s.T())
	s.translator = modulemock.NewJustificationTranslator(s.T())
	s.importer = blockimport.NewJustificationBlockImport(unittest.Logger(), s.inner, s.submissions, s.translator, blockimport.DefaultEngineID)

	s.header = unittest.HeaderFixture(unittest.GenesisFixture())
	s.signatures = unittest.SignatureSetFixture(unittest.DefaultCommitteeSize)
	s.justification = chain.NewJustification(*s.header, s.signatures)

	var err error
	s.raw, err = justification.Encode(justification.CurrentVersion, s.signatures)
	s.Require().NoError(err)
}

func (s *JustificationImportSuite) params(origin blockimport.Origin, justifications ...blockimport.EncodedJustification) *blockimport.ImportParams {
	return &blockimport.ImportParams{
		Header:         *s.header,
		Origin:         origin,
		Justifications: justifications,
	}
}

func (s *JustificationImportSuite) expectImport(kind blockimport.ImportResultKind, expectedOrigin blockimport.Origin) {
	s.inner.On("ImportBlock", mock.Anything, mock.MatchedBy(func(p *blockimport.ImportParams) bool {
		return p.Origin == expectedOrigin && p.Justifications == nil
	})).Return(blockimport.ImportResult{Kind: kind}, nil).Once()
}

// TestImportBlock_SubmitsJustification verifies the justification of our
// engine is forwarded after a successful import, and initial sync blocks are
// imported as broadcast ones.
func (s *JustificationImportSuite) TestImportBlock_SubmitsJustification() {
	s.expectImport(blockimport.Imported, blockimport.OriginNetworkBroadcast)
	s.translator.On("Translate", s.signatures, s.header.ID()).Return(s.justification, nil).Once()
	s.submissions.On("Submit", s.justification).Return(nil).Once()

	params := s.params(blockimport.OriginNetworkInitialSync,
		blockimport.EncodedJustification{EngineID: blockimport.EngineID{'B', 'A', 'B', 'E'}, Raw: []byte{1}},
		blockimport.EncodedJustification{EngineID: blockimport.DefaultEngineID, Raw: s.raw},
	)
	result, err := s.importer.ImportBlock(context.Background(), params)
	s.Require().NoError(err)
	s.Equal(blockimport.Imported, result.Kind)
}

func (s *JustificationImportSuite) TestImportBlock_OtherEngineOnly() {
	s.expectImport(blockimport.Imported, blockimport.OriginOwn)

	params := s.params(blockimport.OriginOwn, blockimport.EncodedJustification{EngineID: blockimport.EngineID{'B', 'A', 'B', 'E'}, Raw: s.raw})
	_, err := s.importer.ImportBlock(context.Background(), params)
	s.Require().NoError(err)
}

func (s *JustificationImportSuite) TestImportBlock_NotImported() {
	s.expectImport(blockimport.KnownBad, blockimport.OriginNetworkBroadcast)

	params := s.params(blockimport.OriginNetworkBroadcast, blockimport.EncodedJustification{EngineID: blockimport.DefaultEngineID, Raw: s.raw})
	result, err := s.importer.ImportBlock(context.Background(), params)
	s.Require().NoError(err)
	s.Equal(blockimport.KnownBad, result.Kind)
}

// TestImportBlock_BrokenJustification verifies forwarding failures do not fail the import.
func (s *JustificationImportSuite) TestImportBlock_BrokenJustification() {
	s.expectImport(blockimport.Imported, blockimport.OriginNetworkBroadcast)

	params := s.params(blockimport.OriginNetworkBroadcast, blockimport.EncodedJustification{EngineID: blockimport.DefaultEngineID, Raw: []byte{0x00}})
	result, err := s.importer.ImportBlock(context.Background(), params)
	s.Require().NoError(err)
	s.Equal(blockimport.Imported, result.Kind)
}

func (s *JustificationImportSuite) TestImportBlock_InnerError() {
	errFailed := errors.New("import failed")
	s.inner.On("ImportBlock", mock.Anything, mock.Anything).Return(blockimport.ImportResult{}, errFailed).Once()

	params := s.params(blockimport.OriginNetworkBroadcast, blockimport.EncodedJustification{EngineID: blockimport.DefaultEngineID, Raw: s.raw})
	_, err := s.importer.ImportBlock(context.Background(), params)
	s.ErrorIs(err, errFailed)
}

func (s *JustificationImportSuite) TestOnStart() {
	s.Empty(s.importer.OnStart(context.Background()))
}

func (s *JustificationImportSuite) TestImportJustification() {
	s.translator.On("Translate", s.signatures, s.header.ID()).Return(s.justification, nil).Once()
	s.submissions.On("Submit", s.justification).Return(nil).Once()

	err := s.importer.ImportJustification(context.Background(), s.header.ID(), blockimport.EncodedJustification{EngineID: blockimport.DefaultEngineID, Raw: s.raw})
	s.Require().NoError(err)
}

// TestImportJustification_Failures verifies every failure is reported as a ConsensusError.
func (s *JustificationImportSuite) TestImportJustification_Failures() {
	id := s.header.ID()
	ctx := context.Background()

	err := s.importer.ImportJustification(ctx, id, blockimport.EncodedJustification{EngineID: blockimport.EngineID{'B', 'A', 'B', 'E'}, Raw: s.raw})
	s.True(blockimport.IsConsensusError(err))

	err = s.importer.ImportJustification(ctx, id, blockimport.EncodedJustification{EngineID: blockimport.DefaultEngineID, Raw: []byte{0x00, 0x09}})
	s.True(blockimport.IsConsensusError(err))
	s.True(justification.IsDecodeError(err))

	errTranslate := errors.New("no header")
	s.translator.On("Translate", s.signatures, id).Return(nil, errTranslate).Once()
	err = s.importer.ImportJustification(ctx, id, blockimport.EncodedJustification{EngineID: blockimport.DefaultEngineID, Raw: s.raw})
	s.True(blockimport.IsConsensusError(err))
	s.ErrorIs(err, errTranslate)

	errClosed := errors.New("closed")
	s.translator.On("Translate", s.signatures, id).Return(s.justification, nil).Once()
	s.submissions.On("Submit", s.justification).Return(errClosed).Once()
	err = s.importer.ImportJustification(ctx, id, blockimport.EncodedJustification{EngineID: blockimport.DefaultEngineID, Raw: s.raw})
	s.True(blockimport.IsConsensusError(err))
	s.ErrorIs(err, errClosed)
	s.False(blockimport.IsSendJustificationError(err))
}
