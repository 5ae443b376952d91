package cache

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shanehull/regscraper/internal/types"
)

// EchoStore is used in no-save mode: reads go to the backing store, writes are
// printed to out and never persisted.
type EchoStore struct {
	backing Store
	out     io.Writer
}

func NewEchoStore(backing Store, out io.Writer) *EchoStore {
	return &EchoStore{backing: backing, out: out}
}

func (s *EchoStore) Exists(ctx context.Context, day time.Time) (bool, error) {
	return s.backing.Exists(ctx, day)
}

func (s *EchoStore) Read(ctx context.Context, day time.Time) (*types.DailyRecord, error) {
	return s.backing.Read(ctx, day)
}

func (s *EchoStore) Write(_ context.Context, _ time.Time, rec *types.DailyRecord) error {
	data, err := marshalRecord(rec)
	if err != nil {
		return err
	}
	if _, err := s.out.Write(data); err != nil {
		return fmt.Errorf("failed to echo record for %s: %w", rec.Date, err)
	}
	return nil
}
