package postgres

import "context"

// Truncate empties the record table between test cases.
func (s *Store) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE vesting_kv RESTART IDENTITY`)
	return err
}
