package currency

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const ratesBucket = "rates"

// BoltCache persists rates in a bbolt file so they survive restarts.
type BoltCache struct {
	db *bolt.DB
}

func OpenBoltCache(path string) (*BoltCache, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open rate cache: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(ratesBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", ratesBucket, err)
	}
	return &BoltCache{db: db}, nil
}

func (c *BoltCache) Close() error {
	return c.db.Close()
}

func (c *BoltCache) Get(from, to string) (CachedRate, bool, error) {
	var out CachedRate
	var found bool
	err := c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(ratesBucket)).Get([]byte(pairKey(from, to)))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &out)
	})
	if err != nil {
		return CachedRate{}, false, err
	}
	return out, found, nil
}

func (c *BoltCache) Put(from, to string, rate CachedRate) error {
	data, err := json.Marshal(rate)
	if err != nil {
		return fmt.Errorf("marshal rate: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(ratesBucket)).Put([]byte(pairKey(from, to)), data)
	})
}
