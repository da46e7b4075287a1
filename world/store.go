package world

import (
	"encoding/json"
	"log"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

var (
	fixtureBucket = []byte("fixture")
	objectBucket  = []byte("object")
)

// Store persists the chunk descriptors of a project.
type Store interface {
	PutChunk(d Descriptor) error
	DeleteChunk(identifier string, fixture bool) error
	RangeChunks(f func(d Descriptor) error) error
	Close() error
}

type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(p string) (*BoltStore, error) {
	db, err := bolt.Open(p, 0666, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", p)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(fixtureBucket)
		if err != nil {
			return err
		}
		_, err = tx.CreateBucketIfNotExists(objectBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	db.NoSync = true
	return &BoltStore{
		db: db,
	}, nil
}

func bucketFor(fixture bool) []byte {
	if fixture {
		return fixtureBucket
	}
	return objectBucket
}

func (s *BoltStore) PutChunk(d Descriptor) error {
	if err := ValidateIdentifier(d.Identifier); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		value, err := encodeDescriptor(d)
		if err != nil {
			return err
		}
		// a chunk lives in exactly one bucket
		if err := tx.Bucket(bucketFor(!d.Fixture)).Delete([]byte(d.Identifier)); err != nil {
			return err
		}
		return tx.Bucket(bucketFor(d.Fixture)).Put([]byte(d.Identifier), value)
	})
}

func (s *BoltStore) DeleteChunk(identifier string, fixture bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFor(fixture)).Delete([]byte(identifier))
	})
}

// RangeChunks visits fixtures first, then game objects, each in key order.
func (s *BoltStore) RangeChunks(f func(d Descriptor) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{fixtureBucket, objectBucket} {
			err := tx.Bucket(name).ForEach(func(k, v []byte) error {
				d, err := decodeDescriptor(v)
				if err != nil {
					log.Printf("skip chunk %s: %v", k, err)
					return nil
				}
				return f(d)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	s.db.Sync()
	return s.db.Close()
}

func encodeDescriptor(d Descriptor) ([]byte, error) {
	return json.Marshal(d)
}

func decodeDescriptor(b []byte) (d Descriptor, err error) {
	err = json.Unmarshal(b, &d)
	return d.withDefaults(), err
}
