package state

import (
	"errors"

	"google.golang.org/protobuf/encoding/protowire"
)

// StateHeader is persisted under KeyState in protobuf wire format:
//
//	1: chain_id string, 2: height uint64, 3: account_idx uint64,
//	4: root_hash bytes, 5: hash bytes
type StateHeader struct {
	ChainId    string
	Height     uint64
	AccountIdx uint64
	RootHash   []byte
	Hash       []byte
}

var errHeaderMalformed = errors.New("state header malformed")

func (h *StateHeader) GetHash() []byte {
	if h == nil {
		return nil
	}
	return h.Hash
}

func (h *StateHeader) Clone() *StateHeader {
	n := *h
	n.RootHash = append([]byte(nil), h.RootHash...)
	n.Hash = append([]byte(nil), h.Hash...)
	return &n
}

func (h *StateHeader) Marshal() []byte {
	var b []byte
	if h.ChainId != "" {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, h.ChainId)
	}
	if h.Height != 0 {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, h.Height)
	}
	if h.AccountIdx != 0 {
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, h.AccountIdx)
	}
	if len(h.RootHash) != 0 {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, h.RootHash)
	}
	if len(h.Hash) != 0 {
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendBytes(b, h.Hash)
	}
	return b
}

func (h *StateHeader) Unmarshal(b []byte) error {
	*h = StateHeader{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errHeaderMalformed
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return errHeaderMalformed
			}
			h.ChainId = v
			n = m
		case (num == 2 || num == 3) && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return errHeaderMalformed
			}
			if num == 2 {
				h.Height = v
			} else {
				h.AccountIdx = v
			}
			n = m
		case (num == 4 || num == 5) && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return errHeaderMalformed
			}
			if num == 4 {
				h.RootHash = append([]byte(nil), v...)
			} else {
				h.Hash = append([]byte(nil), v...)
			}
			n = m
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return errHeaderMalformed
			}
			n = m
		}
		b = b[n:]
	}
	return nil
}
