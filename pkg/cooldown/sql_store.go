// Copyright 2023 Paolo Fabio Zaino
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cooldown

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/privaxis/doublefetch/pkg/common"
)

// SQLStore is a Postgres-backed Store for deployments that need the
// cooldown gate to survive a process restart or be shared across
// multiple job workers. It expects a table shaped like:
//
//	CREATE TABLE cooldown_fingerprint (
//	    fingerprint BIGINT PRIMARY KEY,
//	    expire_at   TIMESTAMPTZ NOT NULL
//	);
//
// Fingerprints are masked to 48 bits (fingerprintMask) specifically so
// they always fit in a signed bigint column.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an already-connected *sqlx.DB.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Connect opens a new Postgres connection and returns a ready SQLStore.
func Connect(ctx context.Context, psqlInfo string) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", psqlInfo)
	if err != nil {
		return nil, common.NewTransientError("cooldown: connecting to postgres: %v", err)
	}
	return NewSQLStore(db), nil
}

// Add implements Store. The insert is conditioned on the row either not
// existing or having already expired, so a stale fingerprint is
// reclaimed rather than permanently blocking the query.
func (s *SQLStore) Add(ctx context.Context, hash uint64, expireAt time.Time) (bool, error) {
	const query = `
		INSERT INTO cooldown_fingerprint (fingerprint, expire_at)
		VALUES ($1, $2)
		ON CONFLICT (fingerprint) DO UPDATE
			SET expire_at = EXCLUDED.expire_at
			WHERE cooldown_fingerprint.expire_at <= now()
		RETURNING fingerprint`

	var returned int64
	err := s.db.QueryRowxContext(ctx, query, int64(hash), expireAt).Scan(&returned)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, common.NewTransientError("cooldown store add: %v", err)
}

// Delete implements Store.
func (s *SQLStore) Delete(ctx context.Context, hash uint64) error {
	const query = `DELETE FROM cooldown_fingerprint WHERE fingerprint = $1`
	if _, err := s.db.ExecContext(ctx, query, int64(hash)); err != nil {
		return common.NewTransientError("cooldown store delete: %v", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
