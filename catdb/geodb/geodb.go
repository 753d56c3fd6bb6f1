// Package geodb persists geology lookups across runs, keyed by S2 cell token.
package geodb

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rotblauer/gneiss/types/trackpoint"
	"go.etcd.io/bbolt"
)

const DBName = "geology.db"

var geologyBucket = []byte("geology")

// nullValue marks a cell known to have no mapped geology.
var nullValue = []byte("null")

var ErrClosed = errors.New("geodb closed")

type DB struct {
	db *bbolt.DB
}

// Open opens or creates the store at path.
// A writable bbolt file is locked for the life of the DB.
func Open(path string) (*DB, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open geodb: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(geologyBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

// Get returns the stored unit for token.
// ok is false when nothing is stored; a stored miss returns (nil, true).
func (d *DB) Get(token string) (unit *trackpoint.GeoUnit, ok bool, err error) {
	if d.db == nil {
		return nil, false, ErrClosed
	}
	err = d.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(geologyBucket).Get([]byte(token))
		if v == nil {
			return nil
		}
		ok = true
		if string(v) == string(nullValue) {
			return nil
		}
		unit = &trackpoint.GeoUnit{}
		return json.Unmarshal(v, unit)
	})
	if err != nil {
		return nil, false, err
	}
	return unit, ok, nil
}

// Put stores unit for token. A nil unit records a miss.
func (d *DB) Put(token string, unit *trackpoint.GeoUnit) error {
	if d.db == nil {
		return ErrClosed
	}
	v := nullValue
	if unit != nil {
		b, err := json.Marshal(unit)
		if err != nil {
			return err
		}
		v = b
	}
	return d.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(geologyBucket).Put([]byte(token), v)
	})
}

// Len returns the number of stored cells.
func (d *DB) Len() (n int, err error) {
	if d.db == nil {
		return 0, ErrClosed
	}
	err = d.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(geologyBucket).Stats().KeyN
		return nil
	})
	return n, err
}

func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}
