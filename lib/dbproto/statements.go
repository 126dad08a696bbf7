package dbproto

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sindri-systems/jsonreg/lib/errs"
)

// Statements holds the three SQL texts the registry issues, with the
// table/id/json identifiers already interpolated and validated. Building
// one validates all three identifiers; every other value that flows
// through the resulting statements is a bound parameter.
type Statements struct {
	table, idCol, jsonCol string

	lookupSQL      string
	insertSQL      string
	batchInsertSQL string
}

// New validates table, idColumn, and jsonColumn and builds the lookup,
// insert, and batch-insert statement texts.
func New(table, idColumn, jsonColumn string) (*Statements, error) {
	if err := ValidateIdentifier(table, "table name"); err != nil {
		return nil, err
	}
	if err := ValidateIdentifier(idColumn, "id column"); err != nil {
		return nil, err
	}
	if err := ValidateIdentifier(jsonColumn, "json column"); err != nil {
		return nil, err
	}

	s := &Statements{table: table, idCol: idColumn, jsonCol: jsonColumn}

	s.lookupSQL = fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s = $1::jsonb`,
		idColumn, table, jsonColumn,
	)

	s.insertSQL = fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES ($1::jsonb)
		 ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s
		 RETURNING %s`,
		table, jsonColumn, jsonColumn, jsonColumn, jsonColumn, idColumn,
	)

	// Grounded on original_source/src/db.rs's register_batch_query: unnest
	// the input array WITH ORDINALITY, insert every row (ON CONFLICT DO
	// UPDATE, which is safe because the caller has already deduplicated
	// the batch by canonical key, see registry.RegisterBatchObjects),
	// then join the RETURNING set back to each input position.
	s.batchInsertSQL = fmt.Sprintf(
		`WITH input_objects AS (
			SELECT ord AS position, value AS payload
			FROM unnest($1::jsonb[]) WITH ORDINALITY AS t(value, ord)
		),
		inserted AS (
			INSERT INTO %[1]s (%[2]s)
			SELECT payload FROM input_objects
			ON CONFLICT (%[2]s) DO UPDATE SET %[2]s = EXCLUDED.%[2]s
			RETURNING %[3]s, %[2]s
		)
		SELECT io.position, i.%[3]s
		FROM input_objects io
		JOIN inserted i ON i.%[2]s = io.payload
		ORDER BY io.position`,
		table, jsonColumn, idColumn,
	)

	return s, nil
}

// Lookup runs the SELECT statement for one canonical payload and returns
// its id, or (0, false, nil) if no row matches.
func (s *Statements) Lookup(ctx context.Context, q Querier, canonical []byte) (int32, bool, error) {
	var id int32
	err := q.QueryRow(ctx, s.lookupSQL, string(canonical)).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return 0, false, nil
		}
		return 0, false, wrapPgError(err)
	}
	return id, true, nil
}

// Insert runs the upsert statement for one canonical payload and returns
// the id, whether newly inserted or already present.
func (s *Statements) Insert(ctx context.Context, q Querier, canonical []byte) (int32, error) {
	var id int32
	err := q.QueryRow(ctx, s.insertSQL, string(canonical)).Scan(&id)
	if err != nil {
		return 0, wrapPgError(err)
	}
	return id, nil
}

// BatchInsert upserts every distinct canonical payload in one round trip
// and returns each row's (position, id) pair. Positions are the 1-based
// index of each canonical in the canonicals slice, not any position
// in the caller's original, possibly-duplicated batch (the registry core
// is responsible for mapping distinct-key results back onto every
// original position that shared the key).
func (s *Statements) BatchInsert(ctx context.Context, q Querier, canonicals [][]byte) ([]PositionedID, error) {
	if len(canonicals) == 0 {
		return nil, nil
	}
	payloads := make([]string, len(canonicals))
	for i, c := range canonicals {
		payloads[i] = string(c)
	}

	rows, err := q.Query(ctx, s.batchInsertSQL, payloads)
	if err != nil {
		return nil, wrapPgError(err)
	}
	defer rows.Close()

	out := make([]PositionedID, 0, len(canonicals))
	for rows.Next() {
		var pid PositionedID
		if err := rows.Scan(&pid.Position, &pid.ID); err != nil {
			return nil, wrapPgError(err)
		}
		out = append(out, pid)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgError(err)
	}
	return out, nil
}

// PositionedID pairs a batch-insert result row with its 1-based position
// in the deduplicated canonicals slice passed to BatchInsert.
type PositionedID struct {
	Position int64
	ID       int32
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// wrapPgError classifies a driver/database error into the registry's
// Database{SubKind} taxonomy and scrubs any connection-string credentials
// out of its message before it can reach a caller.
func wrapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code[:2] {
		case "08": // connection exception
			return errs.NewDatabase(errs.Connection, err)
		case "23": // integrity constraint violation
			return errs.NewDatabase(errs.Constraint, err)
		case "22": // data exception (e.g. numeric value out of range: id exhaustion)
			return errs.NewDatabase(errs.Constraint, err)
		default:
			return errs.NewDatabase(errs.Query, err)
		}
	}
	return errs.NewDatabase(errs.Other, err)
}
