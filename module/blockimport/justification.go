package blockimport

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/module"
	"github.com/selendra/selendra-finality/module/justification"
)

var (
	_ BlockImporter         = (*JustificationBlockImport)(nil)
	_ JustificationImporter = (*JustificationBlockImport)(nil)
)

// JustificationBlockImport wraps a block importer. Justifications of our
// engine attached to imported blocks are decoded, translated and submitted to
// the sync service. Blocks from the initial sync are imported as if they came
// from a normal broadcast, so that the sync service gets to finalize them.
type JustificationBlockImport struct {
	log         zerolog.Logger
	inner       BlockImporter
	submissions module.JustificationSubmissions
	translator  module.JustificationTranslator
	engineID    EngineID
}

func NewJustificationBlockImport(
	log zerolog.Logger,
	inner BlockImporter,
	submissions module.JustificationSubmissions,
	translator module.JustificationTranslator,
	engineID EngineID,
) *JustificationBlockImport {
	return &JustificationBlockImport{
		log:         log.With().Str("component", "justification_import").Logger(),
		inner:       inner,
		submissions: submissions,
		translator:  translator,
		engineID:    engineID,
	}
}

func (b *JustificationBlockImport) CheckBlock(ctx context.Context, params CheckParams) (ImportResult, error) {
	return b.inner.CheckBlock(ctx, params)
}

func (b *JustificationBlockImport) ImportBlock(ctx context.Context, params *ImportParams) (ImportResult, error) {
	id := params.Header.ID()
	log := b.log.With().Str("block", id.String()).Logger()

	justifications := params.Justifications
	params.Justifications = nil
	if params.Origin == OriginNetworkInitialSync {
		log.Trace().Msg("treating block from initial sync as from a normal broadcast")
		params.Origin = OriginNetworkBroadcast
	}

	log.Debug().Msg("importing block")
	result, err := b.inner.ImportBlock(ctx, params)
	if err != nil || result.Kind != Imported {
		return result, err
	}

	raw, ok := justifications.Get(b.engineID)
	if !ok {
		return result, nil
	}
	log.Debug().Msg("got justification along imported block")
	err = b.sendJustification(id, EncodedJustification{EngineID: b.engineID, Raw: raw})
	if err != nil {
		log.Warn().Err(err).Msg("could not forward justification of imported block")
	}
	return result, nil
}

// sendJustification decodes, translates and submits the justification.
// Expected errors during normal operations:
//   - SendJustificationError for any failure, its stage telling which step failed
func (b *JustificationBlockImport) sendJustification(id chain.BlockID, encoded EncodedJustification) error {
	b.log.Debug().Str("block", id.String()).Msg("importing justification")
	if encoded.EngineID != b.engineID {
		return NewSendJustificationError(StageConsensus,
			NewClientImportError(fmt.Sprintf("can import only %s justifications, got %s", b.engineID, encoded.EngineID), nil))
	}

	signatures, _, err := justification.Decode(encoded.Raw)
	if err != nil {
		return NewSendJustificationError(StageDecode, err)
	}
	translated, err := b.translator.Translate(signatures, id)
	if err != nil {
		return NewSendJustificationError(StageTranslate, err)
	}
	err = b.submissions.Submit(translated)
	if err != nil {
		return NewSendJustificationError(StageSend, err)
	}
	return nil
}

// OnStart returns no blocks, the sync service requests what it misses itself.
func (b *JustificationBlockImport) OnStart(context.Context) []chain.BlockID {
	b.log.Debug().Msg("on start called")
	return nil
}

// ImportJustification forwards a justification received separately from its block.
// Expected errors during normal operations:
//   - ConsensusError if the justification could not be forwarded
func (b *JustificationBlockImport) ImportJustification(_ context.Context, id chain.BlockID, encoded EncodedJustification) error {
	err := b.sendJustification(id, encoded)
	if err == nil {
		return nil
	}

	var sendErr SendJustificationError
	if !errors.As(err, &sendErr) {
		return NewClientImportError("unexpected justification import failure", err)
	}
	switch sendErr.Stage {
	case StageSend:
		return NewClientImportError("could not send justification to the sync service", sendErr.err)
	case StageConsensus:
		return sendErr.err
	case StageDecode:
		return NewClientImportError(fmt.Sprintf("justification for block #%d decoded incorrectly", id.Number), sendErr.err)
	default:
		return NewClientImportError("could not translate justification", sendErr.err)
	}
}
