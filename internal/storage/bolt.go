package storage

import (
	"context"
	"time"

	"go.etcd.io/bbolt"
)

var documentsBucket = []byte("documents")

// BoltBackend stores documents as keys of a single bbolt bucket.
type BoltBackend struct {
	bdb *bbolt.DB
}

// NewBoltBackend opens (or creates) the bolt file at path.
func NewBoltBackend(path string) (*BoltBackend, error) {
	bdb, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	err = bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(documentsBucket)
		return err
	})
	if err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return &BoltBackend{bdb: bdb}, nil
}

// Load returns a copy of the stored value.
func (b *BoltBackend) Load(_ context.Context, name string) ([]byte, error) {
	var data []byte
	err := b.bdb.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(documentsBucket).Get([]byte(name))
		if v == nil {
			return ErrNoDocument
		}
		// v is only valid inside the transaction.
		data = append([]byte(nil), v...)
		return nil
	})
	return data, err
}

// Save puts the value under name.
func (b *BoltBackend) Save(_ context.Context, name string, data []byte) error {
	return b.bdb.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(documentsBucket).Put([]byte(name), data)
	})
}

// Names lists bucket keys; bolt keeps them sorted.
func (b *BoltBackend) Names(_ context.Context) ([]string, error) {
	var names []string
	err := b.bdb.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(documentsBucket).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// Close closes the bolt file.
func (b *BoltBackend) Close() error {
	return b.bdb.Close()
}
