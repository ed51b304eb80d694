package agent

import (
	"errors"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

var ErrNoteNotFound = errors.New("note not found")

// NoteArchive keeps candidacy note plaintexts by keccak256 hash, the chain
// only stores the hash.
type NoteArchive struct {
	db *leveldb.DB
}

func OpenNoteArchive(dir string) (*NoteArchive, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{})
	if err != nil {
		return nil, err
	}
	return &NoteArchive{db: db}, nil
}

// NewMemNoteArchive is an archive that lives in memory.
func NewMemNoteArchive() (*NoteArchive, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &NoteArchive{db: db}, nil
}

func (a *NoteArchive) Put(note []byte) (hash []byte, err error) {
	hash = crypto.Keccak256(note)
	err = a.db.Put(hash, note, nil)
	return
}

func (a *NoteArchive) Get(hash []byte) ([]byte, error) {
	note, err := a.db.Get(hash, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNoteNotFound
	}
	return note, err
}

func (a *NoteArchive) Close() error {
	return a.db.Close()
}
