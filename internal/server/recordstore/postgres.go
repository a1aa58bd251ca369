package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/dbx"
	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/server/migrations"
)

var (
	sqlOpen        = sql.Open
	gooseUpContext = goose.UpContext
)

// PostgresStore keeps every collection in one JSONB table, records, keyed by
// (collection, pk, sk). Insertion order is preserved through the seq column.
type PostgresStore struct {
	db     *sql.DB
	logger logging.Logger
}

// OpenPostgres connects with the pgx driver and applies pending migrations.
func OpenPostgres(ctx context.Context, dsn string, logger logging.Logger) (*PostgresStore, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	s := NewPostgresStore(db, logger)
	if err := s.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return s, nil
}

func NewPostgresStore(db *sql.DB, logger logging.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, s.db, ".")
}

func (s *PostgresStore) encode(c Collection, v any) (Key, string, error) {
	it, err := toItem(v)
	if err != nil {
		return Key{}, "", err
	}
	k, err := it.key(c)
	if err != nil {
		return Key{}, "", err
	}
	b, err := it.encode()
	if err != nil {
		return Key{}, "", fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return k, string(b), nil
}

func (s *PostgresStore) Put(ctx context.Context, c Collection, v any) error {
	k, data, err := s.encode(c, v)
	if err != nil {
		return err
	}
	query :=
		`INSERT INTO records (collection, pk, sk, data)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (collection, pk, sk) DO UPDATE SET data = EXCLUDED.data`

	if _, err := s.db.ExecContext(ctx, query, c.Name, k.Partition, k.Sort, data); err != nil {
		return unavailable("put", c, err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, c Collection, v any) error {
	k, data, err := s.encode(c, v)
	if err != nil {
		return err
	}
	query :=
		`INSERT INTO records (collection, pk, sk, data)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (collection, pk, sk) DO NOTHING`

	res, err := s.db.ExecContext(ctx, query, c.Name, k.Partition, k.Sort, data)
	if err != nil {
		return unavailable("insert", c, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("insert", c, err)
	}
	if n == 0 {
		return fmt.Errorf("insert %s %s: %w", c.Name, k, common.ErrAlreadyExists)
	}
	return nil
}

func selectOne(ctx context.Context, db dbx.DBTX, c Collection, k Key, forUpdate bool) (item, error) {
	query :=
		`SELECT data FROM records
		 WHERE collection = $1 AND pk = $2 AND sk = $3`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var data []byte
	err := db.QueryRowContext(ctx, query, c.Name, k.Partition, k.Sort).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s %s: %w", c.Name, k, common.ErrorNotFound)
	}
	if err != nil {
		return nil, unavailable("get", c, err)
	}
	return parseItem(data)
}

func (s *PostgresStore) Get(ctx context.Context, c Collection, k Key, v any) error {
	it, err := selectOne(ctx, s.db, c, k, false)
	if err != nil {
		return err
	}
	return it.decode(v)
}

// scanQuery compares JSONB values, so a filter on true does not match the
// string "true".
func scanQuery(c Collection, f Filter) (string, []any, error) {
	var b strings.Builder
	b.WriteString("SELECT data FROM records WHERE collection = $1")
	args := []any{c.Name}
	for _, cond := range f {
		v, err := json.Marshal(cond.Value)
		if err != nil {
			return "", nil, fmt.Errorf("%w: filter %s: %v", common.ErrValidation, cond.Field, err)
		}
		fmt.Fprintf(&b, " AND data->$%d = $%d::jsonb", len(args)+1, len(args)+2)
		args = append(args, cond.Field, string(v))
	}
	b.WriteString(" ORDER BY seq")
	return b.String(), args, nil
}

func (s *PostgresStore) Scan(ctx context.Context, c Collection, f Filter, visit func(Decoder) error) error {
	query, args, err := scanQuery(c, f)
	if err != nil {
		return err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return unavailable("scan", c, err)
	}
	defer rows.Close()

	var raw [][]byte
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return unavailable("scan", c, err)
		}
		raw = append(raw, data)
	}
	if err := rows.Err(); err != nil {
		return unavailable("scan", c, err)
	}

	for _, data := range raw {
		dec := func(v any) error {
			it, err := parseItem(data)
			if err != nil {
				return err
			}
			return it.decode(v)
		}
		if err := visitRecord(ctx, s.logger, c, dec, visit); err != nil {
			return err
		}
	}
	return nil
}

// Update locks the row for the duration of a transaction, applies u to the
// decoded record and writes it back.
func (s *PostgresStore) Update(ctx context.Context, c Collection, k Key, u *Update, v any) error {
	if u.empty() {
		return errEmptyUpdate
	}

	var next item
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		cur, err := selectOne(ctx, tx, c, k, true)
		if err != nil {
			return err
		}
		next, err = cur.apply(u)
		if err != nil {
			return fmt.Errorf("update %s %s: %w", c.Name, k, err)
		}
		b, err := next.encode()
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		query :=
			`UPDATE records SET data = $4
			 WHERE collection = $1 AND pk = $2 AND sk = $3`
		if _, err := tx.ExecContext(ctx, query, c.Name, k.Partition, k.Sort, string(b)); err != nil {
			return unavailable("update", c, err)
		}
		return nil
	})
	if err != nil {
		if isDomainErr(err) {
			return err
		}
		return unavailable("update", c, err)
	}
	if v == nil {
		return nil
	}
	return next.decode(v)
}

func isDomainErr(err error) bool {
	for _, target := range []error{
		common.ErrorNotFound, common.ErrConflict, common.ErrCorruptRecord,
		common.ErrValidation, common.ErrStorageUnavailable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *PostgresStore) Delete(ctx context.Context, c Collection, k Key) error {
	query := `DELETE FROM records WHERE collection = $1 AND pk = $2 AND sk = $3`
	if _, err := s.db.ExecContext(ctx, query, c.Name, k.Partition, k.Sort); err != nil {
		return unavailable("delete", c, err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w: %w", common.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
