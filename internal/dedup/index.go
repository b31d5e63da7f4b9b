// Package dedup finds byte-identical documents by content hash and moves the
// extra copies aside. A persistent hash index lets repeated scans over a
// growing mailbox download directory recognize files seen in earlier runs.
package dedup

import (
	"encoding/json"
	"time"

	"go.etcd.io/bbolt"
)

const hashBucket = "hashes"

// Entry records the first file observed with a given content hash.
type Entry struct {
	Hash      string    `json:"hash"`
	Path      string    `json:"path"`
	FirstSeen time.Time `json:"first_seen"`
}

// Index is a persistent content-hash index backed by bbolt.
type Index struct {
	db *bbolt.DB
}

// OpenIndex opens (or creates) the index at path.
func OpenIndex(path string) (*Index, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, &DedupError{Op: "OpenIndex", Path: path, Err: err}
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(hashBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, &DedupError{Op: "OpenIndex", Path: path, Err: err}
	}
	return &Index{db: db}, nil
}

// Close closes the underlying database.
func (ix *Index) Close() error { return ix.db.Close() }

// Seen returns the stored entry for a hash, or nil when the hash is new.
func (ix *Index) Seen(hash string) (*Entry, error) {
	var entry *Entry
	err := ix.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(hashBucket)).Get([]byte(hash))
		if data == nil {
			return nil
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		entry = &e
		return nil
	})
	if err != nil {
		return nil, &DedupError{Op: "Seen", Path: hash, Err: err}
	}
	return entry, nil
}

// Record stores the first-seen entry for a hash. An existing entry is left
// untouched so the earliest path stays canonical.
func (ix *Index) Record(hash, path string) error {
	err := ix.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(hashBucket))
		if bucket.Get([]byte(hash)) != nil {
			return nil
		}
		data, err := json.Marshal(Entry{Hash: hash, Path: path, FirstSeen: time.Now().UTC()})
		if err != nil {
			return err
		}
		return bucket.Put([]byte(hash), data)
	})
	if err != nil {
		return &DedupError{Op: "Record", Path: path, Err: err}
	}
	return nil
}
