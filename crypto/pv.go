package crypto

import (
	"fmt"
	"os"

	"github.com/calehh/council-app/tx"
	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	"github.com/cometbft/cometbft/privval"
)

// PV is an ed25519 key read from a cometbft priv_validator_key.json, used
// to sign council transactions.
type PV struct {
	privateKey crypto.PrivKey
	publicKey  crypto.PubKey
}

func LoadFilePV(keyFilePath string) (*PV, error) {
	keyJSONBytes, err := os.ReadFile(keyFilePath)
	if err != nil {
		return nil, err
	}
	pvKey := privval.FilePVKey{}
	err = cmtjson.Unmarshal(keyJSONBytes, &pvKey)
	if err != nil {
		return nil, fmt.Errorf("error reading key from %v: %w", keyFilePath, err)
	}
	return NewPV(pvKey.PrivKey), nil
}

func NewPV(key crypto.PrivKey) *PV {
	return &PV{
		privateKey: key,
		publicKey:  key.PubKey(),
	}
}

func (k *PV) PublicKey() []byte {
	return k.publicKey.Bytes()
}

func (k *PV) Address() string {
	return k.publicKey.Address().String()
}

func (k *PV) Sign(data []byte) ([]byte, error) {
	return k.privateKey.Sign(data)
}

// SignTx fills btx.Sig with a signature over the envelope bound to chainID.
func (k *PV) SignTx(btx *tx.CouncilTx, chainID string) error {
	dat, err := btx.SigData([]byte(chainID))
	if err != nil {
		return err
	}
	sig, err := k.Sign(dat)
	if err != nil {
		return err
	}
	btx.Sig = [][]byte{sig}
	return nil
}
