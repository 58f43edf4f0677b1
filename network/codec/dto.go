package codec

import (
	"fmt"

	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/model/messages"
	"github.com/selendra/selendra-finality/module/justification"
)

// Wire representations of the synchronization messages. They carry tags for
// both encodings, the legacy one keyed by name, the current one by integer.

type HeaderDTO struct {
	ParentHash     []byte `cbor:"1,keyasint" msgpack:"parent_hash"`
	Number         uint32 `cbor:"2,keyasint" msgpack:"number"`
	StateRoot      []byte `cbor:"3,keyasint" msgpack:"state_root"`
	ExtrinsicsRoot []byte `cbor:"4,keyasint" msgpack:"extrinsics_root"`
}

// JustificationDTO carries the raw justification proof, empty for genesis.
type JustificationDTO struct {
	Header HeaderDTO `cbor:"1,keyasint" msgpack:"header"`
	Proof  []byte    `cbor:"2,keyasint,omitempty" msgpack:"proof"`
}

type BlockIDDTO struct {
	Hash   []byte `cbor:"1,keyasint" msgpack:"hash"`
	Number uint32 `cbor:"2,keyasint" msgpack:"number"`
}

type StateDTO struct {
	TopJustification JustificationDTO `cbor:"1,keyasint" msgpack:"top_justification"`
}

type StateBroadcastDTO struct {
	State StateDTO `cbor:"1,keyasint" msgpack:"state"`
}

type StateBroadcastResponseDTO struct {
	Justification JustificationDTO  `cbor:"1,keyasint" msgpack:"justification"`
	Additional    *JustificationDTO `cbor:"2,keyasint,omitempty" msgpack:"additional"`
}

type RequestDTO struct {
	Target     BlockIDDTO `cbor:"1,keyasint" msgpack:"target"`
	BranchKind uint8      `cbor:"2,keyasint" msgpack:"branch_kind"`
	BranchID   BlockIDDTO `cbor:"3,keyasint" msgpack:"branch_id"`
	State      StateDTO   `cbor:"4,keyasint" msgpack:"state"`
}

type RequestResponseDTO struct {
	State          StateDTO           `cbor:"1,keyasint" msgpack:"state"`
	Justifications []JustificationDTO `cbor:"2,keyasint" msgpack:"justifications"`
}

func headerToDTO(header *chain.Header) HeaderDTO {
	return HeaderDTO{
		ParentHash:     header.ParentHash[:],
		Number:         uint32(header.Number),
		StateRoot:      header.StateRoot[:],
		ExtrinsicsRoot: header.ExtrinsicsRoot[:],
	}
}

func headerFromDTO(dto HeaderDTO) (chain.Header, error) {
	parent, err := chain.HashFromBytes(dto.ParentHash)
	if err != nil {
		return chain.Header{}, fmt.Errorf("invalid parent hash: %w", err)
	}
	stateRoot, err := chain.HashFromBytes(dto.StateRoot)
	if err != nil {
		return chain.Header{}, fmt.Errorf("invalid state root: %w", err)
	}
	extrinsicsRoot, err := chain.HashFromBytes(dto.ExtrinsicsRoot)
	if err != nil {
		return chain.Header{}, fmt.Errorf("invalid extrinsics root: %w", err)
	}
	return chain.Header{
		ParentHash:     parent,
		Number:         chain.BlockNumber(dto.Number),
		StateRoot:      stateRoot,
		ExtrinsicsRoot: extrinsicsRoot,
	}, nil
}

func blockIDToDTO(id chain.BlockID) BlockIDDTO {
	return BlockIDDTO{Hash: id.Hash[:], Number: uint32(id.Number)}
}

func blockIDFromDTO(dto BlockIDDTO) (chain.BlockID, error) {
	hash, err := chain.HashFromBytes(dto.Hash)
	if err != nil {
		return chain.BlockID{}, err
	}
	return chain.NewBlockID(hash, chain.BlockNumber(dto.Number)), nil
}

func (c *Codec) justificationToDTO(j *chain.Justification) (JustificationDTO, error) {
	dto := JustificationDTO{Header: headerToDTO(&j.Header)}
	if j.IsGenesis() {
		return dto, nil
	}
	proof, err := justification.Encode(c.proofVersion, j.Signatures)
	if err != nil {
		return JustificationDTO{}, err
	}
	dto.Proof = proof
	return dto, nil
}

func (c *Codec) justificationFromDTO(dto JustificationDTO) (*chain.Justification, error) {
	header, err := headerFromDTO(dto.Header)
	if err != nil {
		return nil, err
	}
	if len(dto.Proof) == 0 {
		if header.Number != 0 {
			return nil, fmt.Errorf("justification without proof for non-genesis block #%d", header.Number)
		}
		return chain.GenesisJustification(header), nil
	}
	signatures, _, err := justification.Decode(dto.Proof)
	if err != nil {
		return nil, err
	}
	return chain.NewJustification(header, signatures), nil
}

func (c *Codec) stateToDTO(state messages.State) (StateDTO, error) {
	top, err := c.justificationToDTO(state.TopJustification)
	if err != nil {
		return StateDTO{}, err
	}
	return StateDTO{TopJustification: top}, nil
}

func (c *Codec) stateFromDTO(dto StateDTO) (messages.State, error) {
	top, err := c.justificationFromDTO(dto.TopJustification)
	if err != nil {
		return messages.State{}, err
	}
	return messages.NewState(top), nil
}

func (c *Codec) toDTO(data messages.NetworkData) (interface{}, error) {
	switch msg := data.(type) {
	case *messages.StateBroadcast:
		state, err := c.stateToDTO(msg.State)
		if err != nil {
			return nil, err
		}
		return &StateBroadcastDTO{State: state}, nil

	case *messages.StateBroadcastResponse:
		first, err := c.justificationToDTO(msg.Justification)
		if err != nil {
			return nil, err
		}
		dto := &StateBroadcastResponseDTO{Justification: first}
		if msg.Additional != nil {
			additional, err := c.justificationToDTO(msg.Additional)
			if err != nil {
				return nil, err
			}
			dto.Additional = &additional
		}
		return dto, nil

	case *messages.Request:
		state, err := c.stateToDTO(msg.State)
		if err != nil {
			return nil, err
		}
		return &RequestDTO{
			Target:     blockIDToDTO(msg.Target),
			BranchKind: uint8(msg.Branch.Kind),
			BranchID:   blockIDToDTO(msg.Branch.ID),
			State:      state,
		}, nil

	case *messages.RequestResponse:
		state, err := c.stateToDTO(msg.State)
		if err != nil {
			return nil, err
		}
		dto := &RequestResponseDTO{State: state, Justifications: make([]JustificationDTO, 0, len(msg.Justifications))}
		for _, j := range msg.Justifications {
			jDTO, err := c.justificationToDTO(j)
			if err != nil {
				return nil, err
			}
			dto.Justifications = append(dto.Justifications, jDTO)
		}
		return dto, nil

	default:
		return nil, fmt.Errorf("invalid encode type (%T)", data)
	}
}

func (c *Codec) fromDTO(v interface{}) (messages.NetworkData, error) {
	switch dto := v.(type) {
	case *StateBroadcastDTO:
		state, err := c.stateFromDTO(dto.State)
		if err != nil {
			return nil, err
		}
		return &messages.StateBroadcast{State: state}, nil

	case *StateBroadcastResponseDTO:
		first, err := c.justificationFromDTO(dto.Justification)
		if err != nil {
			return nil, err
		}
		msg := &messages.StateBroadcastResponse{Justification: first}
		if dto.Additional != nil {
			msg.Additional, err = c.justificationFromDTO(*dto.Additional)
			if err != nil {
				return nil, err
			}
		}
		return msg, nil

	case *RequestDTO:
		target, err := blockIDFromDTO(dto.Target)
		if err != nil {
			return nil, fmt.Errorf("invalid target: %w", err)
		}
		kind := messages.BranchKnowledgeKind(dto.BranchKind)
		if kind != messages.LowestID && kind != messages.TopImported {
			return nil, fmt.Errorf("invalid branch knowledge kind %d", dto.BranchKind)
		}
		branchID, err := blockIDFromDTO(dto.BranchID)
		if err != nil {
			return nil, fmt.Errorf("invalid branch knowledge: %w", err)
		}
		state, err := c.stateFromDTO(dto.State)
		if err != nil {
			return nil, err
		}
		return messages.NewRequest(target, messages.BranchKnowledge{Kind: kind, ID: branchID}, state), nil

	case *RequestResponseDTO:
		state, err := c.stateFromDTO(dto.State)
		if err != nil {
			return nil, err
		}
		msg := &messages.RequestResponse{State: state, Justifications: make([]*chain.Justification, 0, len(dto.Justifications))}
		for _, jDTO := range dto.Justifications {
			j, err := c.justificationFromDTO(jDTO)
			if err != nil {
				return nil, err
			}
			msg.Justifications = append(msg.Justifications, j)
		}
		return msg, nil

	default:
		return nil, fmt.Errorf("invalid decode type (%T)", v)
	}
}
