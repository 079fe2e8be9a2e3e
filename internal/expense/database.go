package expense

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "expenses"

// DB defines the interface for database operations
type DB interface {
	// SaveExpense inserts or replaces an expense
	SaveExpense(expense *Expense) error

	// GetExpense retrieves an expense by ID
	GetExpense(id string) (*Expense, error)

	// ListExpenses returns all expenses
	ListExpenses() ([]*Expense, error)

	// DeleteExpense removes an expense from the database
	DeleteExpense(id string) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveExpense saves an expense with its details as one JSON value
func (b *BoltDB) SaveExpense(expense *Expense) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		data, err := json.Marshal(expense)
		if err != nil {
			return fmt.Errorf("marshaling expense: %w", err)
		}
		return bucket.Put([]byte(expense.ID), data)
	})
}

// GetExpense retrieves an expense by ID
func (b *BoltDB) GetExpense(id string) (*Expense, error) {
	var expense *Expense
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return json.Unmarshal(data, &expense)
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpenses returns all expenses in key order
func (b *BoltDB) ListExpenses() ([]*Expense, error) {
	expenses := make([]*Expense, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var expense Expense
			if err := json.Unmarshal(v, &expense); err != nil {
				return fmt.Errorf("unmarshaling expense: %w", err)
			}
			expenses = append(expenses, &expense)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// DeleteExpense removes an expense; deleting a missing key is not an error
func (b *BoltDB) DeleteExpense(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		return bucket.Delete([]byte(id))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
