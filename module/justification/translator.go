package justification

import (
	"errors"
	"fmt"

	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/module"
	"github.com/selendra/selendra-finality/storage"
)

var _ module.JustificationTranslator = (*Translator)(nil)

// Translator turns certificates of the BFT engine into justifications by
// attaching the header of the certified block.
type Translator struct {
	headers module.HeaderBackend
}

func NewTranslator(headers module.HeaderBackend) *Translator {
	return &Translator{headers: headers}
}

// Translate builds the justification of the given block.
// Expected errors during normal operations:
//   - TranslateError if the header is unknown or does not match, or the certificate is empty
func (t *Translator) Translate(signatures *chain.SignatureSet, id chain.BlockID) (*chain.Justification, error) {
	if signatures == nil || signatures.Count() == 0 {
		return nil, NewTranslateError(EmptyCertificate, fmt.Errorf("no signatures for %s", id))
	}

	header, err := t.headers.Header(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, NewTranslateError(MissingHeader, fmt.Errorf("no header for %s", id))
	}
	if err != nil {
		return nil, fmt.Errorf("could not get header for %s: %w", id, err)
	}
	if header.Number != id.Number || header.Hash() != id.Hash {
		return nil, NewTranslateError(HeaderMismatch, fmt.Errorf("header %s does not match %s", header.ID(), id))
	}

	return chain.NewJustification(*header, signatures), nil
}
