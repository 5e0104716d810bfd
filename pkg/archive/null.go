package archive

import "context"

// NullStore is a no-op store that never keeps anything.
type NullStore struct{}

// NewNullStore creates a null store.
func NewNullStore() Store {
	return &NullStore{}
}

// Put does nothing.
func (s *NullStore) Put(ctx context.Context, rec Record) error {
	return nil
}

// Get always reports ErrNotFound.
func (s *NullStore) Get(ctx context.Context, id string) (Record, error) {
	return Record{}, ErrNotFound
}

// List always returns no records.
func (s *NullStore) List(ctx context.Context, limit int) ([]Record, error) {
	return nil, nil
}

// Close does nothing.
func (s *NullStore) Close() error {
	return nil
}

// Ensure NullStore implements Store.
var _ Store = (*NullStore)(nil)
