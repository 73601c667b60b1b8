package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/dusk/pkg/core"
)

// record is implemented by every persisted type.
type record interface {
	RecordID() string
	Timestamp() time.Time
}

// read decodes a collection. A missing key is an empty collection and
// corrupt JSON is logged and treated as empty so the next write heals it.
// Only a storage fault is returned as an error.
func read[T record](ctx context.Context, s *Store, c core.Collection) ([]T, error) {
	data, err := s.storage.Get(ctx, c.Key())
	if errors.Is(err, core.ErrKeyNotFound) {
		return []T{}, nil
	}
	if err != nil {
		s.fault("get", c, err)
		return nil, fmt.Errorf("%w: read %s: %w", core.ErrStorage, c, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}

	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		s.metrics.StorageFault("decode")
		s.logger.Warn("corrupt collection treated as empty", "key", c.Key(), "error", err)
		return []T{}, nil
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// write encodes and persists the full collection.
func write[T record](ctx context.Context, s *Store, c core.Collection, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		s.fault("encode", c, err)
		return fmt.Errorf("%w: encode %s: %w", core.ErrStorage, c, err)
	}
	if err := s.storage.Set(ctx, c.Key(), data); err != nil {
		s.fault("set", c, err)
		return fmt.Errorf("%w: write %s: %w", core.ErrStorage, c, err)
	}

	now := s.clock.Now()
	s.lastWrite = &now
	return nil
}

// list is read with faults degraded to an empty result.
func list[T record](ctx context.Context, s *Store, c core.Collection) []T {
	records, err := read[T](ctx, s, c)
	if err != nil {
		return []T{}
	}
	return records
}

func removeByID[T record](ctx context.Context, s *Store, c core.Collection, id string) error {
	records, err := read[T](ctx, s, c)
	if err != nil {
		return err
	}

	kept := make([]T, 0, len(records))
	for _, r := range records {
		if r.RecordID() != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(records) {
		s.logger.Debug("remove of unknown id", "key", c.Key(), "id", id)
	}
	return write(ctx, s, c, kept)
}

// pruneBefore keeps records created at or after cutoff.
func pruneBefore[T record](ctx context.Context, s *Store, c core.Collection, cutoff time.Time) (int, error) {
	records, err := read[T](ctx, s, c)
	if err != nil {
		return 0, err
	}

	kept := make([]T, 0, len(records))
	for _, r := range records {
		if !r.Timestamp().Before(cutoff) {
			kept = append(kept, r)
		}
	}

	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := write(ctx, s, c, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *Store) fault(op string, c core.Collection, err error) {
	s.faults++
	s.metrics.StorageFault(op)
	s.logger.Error("storage fault", "op", op, "key", c.Key(), "error", err)
}
