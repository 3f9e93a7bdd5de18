package basis

import (
	"sort"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"

	"github.com/YuminosukeSato/saltgo/pkg/errors"
)

const basisBucket = "basis"

// Database stores basis-info records keyed by basis-set name.
type Database struct {
	db *bolt.DB
}

// OpenDatabase opens (creating if needed) the bbolt file at path.
func OpenDatabase(path string) (*Database, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open basis database %q", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(basisBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "init basis bucket")
	}
	return &Database{db: db}, nil
}

// Close releases the database file.
func (d *Database) Close() error {
	return d.db.Close()
}

// Write stores data under name. An existing entry is only replaced when
// force is set; otherwise an OverwriteConflictError is returned and the
// stored record is left as it was.
func (d *Database) Write(name string, data map[string]SpeciesBasis, force bool) error {
	payload, err := msgpack.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encode basis record")
	}

	return d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(basisBucket))
		if b == nil {
			return errors.New("basis bucket missing")
		}
		if b.Get([]byte(name)) != nil && !force {
			return errors.NewOverwriteConflictError("basis database", name)
		}
		return b.Put([]byte(name), payload)
	})
}

// Read returns the record stored under name. ok is false when there is none.
func (d *Database) Read(name string) (data map[string]SpeciesBasis, ok bool, err error) {
	err = d.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(basisBucket))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(name))
		if v == nil {
			return nil
		}
		ok = true
		return msgpack.Unmarshal(v, &data)
	})
	if err != nil {
		return nil, false, errors.Wrapf(err, "read basis record %q", name)
	}
	return data, ok, nil
}

// Names lists stored basis-set names in sorted order.
func (d *Database) Names() ([]string, error) {
	var names []string
	err := d.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(basisBucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "list basis records")
	}
	sort.Strings(names)
	return names, nil
}
