// Package store persists the bridge ledger's audit outbox and
// processed-transfer set in Postgres. It implements ledger.EventSink, and
// LoadProcessed lets a restarted deployment reseed its in-memory
// processed set so no transfer is ever credited twice across restarts.
package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/brzbridge/ledger-lib/common/types"
)

// BridgeStore is a Postgres-backed store keyed by a connection string.
// Connections are opened per call.
type BridgeStore struct {
	dbConnStr string
}

// NewBridgeStore creates a new BridgeStore with the provided connection
// string.
func NewBridgeStore(connStr string) (*BridgeStore, error) {
	return &BridgeStore{
		dbConnStr: connStr,
	}, nil
}

// SaveEvent appends an event envelope to the bridge_event table. When the
// event is a transfer acceptance, the transfer identifier is also recorded
// in processed_transfer within the same transaction, keeping the replay
// guard durable.
func (s *BridgeStore) SaveEvent(ctx context.Context, event *types.Event) error {
	db, err := sql.Open("postgres", s.dbConnStr)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	defer db.Close()

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event payload")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO bridge_event (
            id,
            seq,
            event_type,
            emitted_at,
            payload
        ) VALUES ($1, $2, $3, $4, $5)`,
		event.ID,
		event.Seq,
		string(event.Type),
		event.EmittedAt,
		payload,
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert event")
	}

	if accepted, ok := event.Payload.(types.CrossAccepted); ok {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO processed_transfer (transaction_id, event_id)
            VALUES ($1, $2)
            ON CONFLICT (transaction_id) DO NOTHING`,
			accepted.TransactionID.Hex(),
			event.ID,
		)
		if err != nil {
			return errors.Wrap(err, "failed to insert processed transfer")
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit event")
}

// IsProcessed reports whether the transfer identifier is recorded as
// credited.
func (s *BridgeStore) IsProcessed(ctx context.Context, id common.Hash) (bool, error) {
	db, err := sql.Open("postgres", s.dbConnStr)
	if err != nil {
		return false, errors.Wrap(err, "failed to connect to database")
	}
	defer db.Close()

	var exists bool
	err = db.QueryRowContext(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM processed_transfer WHERE transaction_id = $1
        )`, id.Hex()).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to query processed transfer")
	}

	return exists, nil
}

// LoadProcessed returns every recorded transfer identifier, for seeding a
// fresh ledger with ledger.WithProcessed.
func (s *BridgeStore) LoadProcessed(ctx context.Context) ([]common.Hash, error) {
	db, err := sql.Open("postgres", s.dbConnStr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT transaction_id FROM processed_transfer`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query processed transfers")
	}
	defer rows.Close()

	var ids []common.Hash
	for rows.Next() {
		var hex string
		if err := rows.Scan(&hex); err != nil {
			return nil, errors.Wrap(err, "failed to scan processed transfer")
		}
		ids = append(ids, common.HexToHash(hex))
	}

	return ids, errors.Wrap(rows.Err(), "failed to iterate processed transfers")
}
