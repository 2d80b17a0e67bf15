package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/boltdb/bolt"
)

type PersistentReportStore struct {
	Db       *bolt.DB
	DbFile   string
	FileMode os.FileMode
	Bucket   string
}

func NewPersistentReportStore(file string, mode os.FileMode, bucket string) (*PersistentReportStore, error) {
	db, err := bolt.Open(file, mode, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to open %v: %w", file, err)
	}
	s := PersistentReportStore{
		DbFile:   file,
		FileMode: mode,
		Db:       db,
		Bucket:   bucket,
	}
	err = s.CreateBucket()
	if err != nil {
		log.Printf("[store.PersistentReportStore] [NewPersistentReportStore] Bucket %s already exists, will use it instead of creating a new one\n", bucket)
	}
	return &s, nil
}

func (s *PersistentReportStore) Close() error {
	return s.Db.Close()
}

func (s *PersistentReportStore) CreateBucket() error {
	return s.Db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucket([]byte(s.Bucket))
		if err != nil {
			return fmt.Errorf("error creating bucket %s: %s", s.Bucket, err)
		}
		return nil
	})
}

func (s *PersistentReportStore) Count() (int, error) {
	count := 0
	err := s.Db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket([]byte(s.Bucket)).Stats().KeyN
		return nil
	})
	if err != nil {
		return -1, err
	}
	return count, nil
}

func (s *PersistentReportStore) Put(key string, r *Report) error {
	return s.Db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(s.Bucket))
		buf, err := json.Marshal(r)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), buf)
	})
}

func (s *PersistentReportStore) Get(key string) (*Report, error) {
	var r Report
	err := s.Db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(s.Bucket))
		raw := b.Get([]byte(key))
		if raw == nil {
			return fmt.Errorf("report %v not found", key)
		}
		return json.Unmarshal(raw, &r)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns every report in key order, which bolt keeps sorted.
func (s *PersistentReportStore) List() ([]*Report, error) {
	var reports []*Report
	err := s.Db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(s.Bucket))
		return b.ForEach(func(k, v []byte) error {
			var r Report
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			reports = append(reports, &r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// Recent walks the bucket backwards so only n reports are decoded.
func (s *PersistentReportStore) Recent(n int) ([]*Report, error) {
	reports := []*Report{}
	err := s.Db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(s.Bucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if n > 0 && len(reports) == n {
				break
			}
			var r Report
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			reports = append(reports, &r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reports, nil
}
