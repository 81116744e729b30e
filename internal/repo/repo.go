// Package repo contains all database access logic for the smart-agen API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/expiry"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// beginner is a db that can also open a transaction. Both *pgxpool.Pool and
// pgx.Tx qualify; on a pgx.Tx, Begin opens a savepoint.
type beginner interface {
	db
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repos bundles every repository over one connection or transaction.
type Repos struct {
	Areas    AreaRepo
	Regions  RegionRepo
	Agencies AgencyRepo
	Fleets   FleetRepo
	Drivers  DriverRepo
	Users    UserRepo
}

// NewRepos constructs all repositories over db.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewRepos(db db) Repos {
	return Repos{
		Areas:    NewAreaRepo(db),
		Regions:  NewRegionRepo(db),
		Agencies: NewAgencyRepo(db),
		Fleets:   NewFleetRepo(db),
		Drivers:  NewDriverRepo(db),
		Users:    NewUserRepo(db),
	}
}

// Transactor runs a unit of work atomically.
type Transactor interface {
	// WithinTx calls fn with repositories bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(Repos) error) error
}

type pgTransactor struct {
	db beginner
}

// NewTransactor returns a Transactor backed by db.
func NewTransactor(db beginner) Transactor {
	return &pgTransactor{db: db}
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(Repos) error) error {
	return pgx.BeginFunc(ctx, t.db, func(tx pgx.Tx) error {
		return fn(NewRepos(tx))
	})
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scan helpers
// to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// constraintMessages turns constraint names into messages safe to show users.
var constraintMessages = map[string]string{
	"areas_name_key":               "area name already exists",
	"areas_code_key":               "area code already exists",
	"fleets_license_plate_key":     "license plate already registered",
	"users_email_key":              "email already registered",
	"drivers_one_active_per_fleet": "fleet already has an active driver",
}

// mapWriteError translates Postgres constraint violations raised by an
// insert or update into domain sentinels. Other errors pass through.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		return fmt.Errorf("%w: %s", domain.ErrConflict, constraintMessage(pgErr))
	case "23503":
		return fmt.Errorf("%w: referenced record does not exist", domain.ErrValidation)
	case "23514":
		return fmt.Errorf("%w: %s violates a check constraint", domain.ErrValidation, pgErr.ConstraintName)
	}
	return err
}

// mapDeleteError translates a foreign-key violation on delete into
// domain.ErrConflict: the row is still referenced.
func mapDeleteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fmt.Errorf("%w: record is still referenced by %s", domain.ErrConflict, pgErr.TableName)
	}
	return err
}

func constraintMessage(pgErr *pgconn.PgError) string {
	if msg, ok := constraintMessages[pgErr.ConstraintName]; ok {
		return msg
	}
	return pgErr.ConstraintName
}

// execDelete runs a single-row DELETE and reports domain.ErrNotFound when no
// row matched.
func execDelete(ctx context.Context, db db, q string, id uuid.UUID) error {
	tag, err := db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return mapDeleteError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// notFound maps pgx.ErrNoRows to domain.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func dateFromPg(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

func timeFromPg(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// where accumulates the WHERE clauses and named arguments of a list query.
type where struct {
	clauses []string
	args    pgx.NamedArgs
}

func newWhere() *where {
	return &where{args: pgx.NamedArgs{}}
}

// add appends a clause and merges its arguments.
func (w *where) add(clause string, args pgx.NamedArgs) {
	w.clauses = append(w.clauses, clause)
	for k, v := range args {
		w.args[k] = v
	}
}

// search adds a case-insensitive substring match over the given columns.
func (w *where) search(term string, columns ...string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = c + " ILIKE @search"
	}
	w.add("("+strings.Join(parts, " OR ")+")", pgx.NamedArgs{"search": "%" + term + "%"})
}

// active adds an is_active filter when v is set.
func (w *where) active(column string, v *bool) {
	if v != nil {
		w.add(column+" = @is_active", pgx.NamedArgs{"is_active": *v})
	}
}

// scope restricts rows to the caller's areas.
func (w *where) scope(column string, s domain.AreaScope) {
	if s.All {
		return
	}
	ids := s.AreaIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	w.add(column+" = ANY(@scope_area_ids::uuid[])", pgx.NamedArgs{"scope_area_ids": ids})
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.clauses, " AND ")
}

// paged returns a copy of the arguments extended with LIMIT/OFFSET values.
func (w *where) paged(p domain.PaginationParams) pgx.NamedArgs {
	args := pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()}
	for k, v := range w.args {
		args[k] = v
	}
	return args
}

// utcDate is the SQL expression that turns a DATE column into the UTC
// midnight instant the domain layer works with.
func utcDate(column string) string {
	return "(" + column + "::timestamp AT TIME ZONE 'UTC')"
}

// window restricts a DATE column to an expiry range. NULL dates classify as
// not expired, so they are included when includeNull is set. An unreachable
// range matches nothing.
func (w *where) window(column, name string, r expiry.Range, ok, includeNull bool) {
	if !ok {
		w.add("FALSE", nil)
		return
	}
	expr := utcDate(column)
	var conds []string
	args := pgx.NamedArgs{}
	if r.Lower != nil {
		op := ">"
		if r.Lower.Inclusive {
			op = ">="
		}
		conds = append(conds, expr+" "+op+" @"+name+"_from")
		args[name+"_from"] = r.Lower.At
	}
	if r.Upper != nil {
		op := "<"
		if r.Upper.Inclusive {
			op = "<="
		}
		conds = append(conds, expr+" "+op+" @"+name+"_to")
		args[name+"_to"] = r.Upper.At
	}
	clause := column + " IS NOT NULL AND " + strings.Join(conds, " AND ")
	if includeNull {
		clause = column + " IS NULL OR (" + strings.Join(conds, " AND ") + ")"
	}
	w.add("("+clause+")", args)
}

// status adds the window for a derived expiry status on a DATE column.
func (w *where) status(rule expiry.Rule, column string, st *expiry.Status, asOf time.Time) {
	if st == nil {
		return
	}
	r, ok := expiry.Window(rule, *st, asOf)
	w.window(column, string(rule), r, ok, *st == expiry.StatusNotExpired)
}

// vehicleAge adds the manufacture-year window for a vehicle-age status.
func (w *where) vehicleAge(column string, st *expiry.Status, asOf time.Time) {
	if st == nil {
		return
	}
	minYear, maxYear, ok := expiry.YearWindow(*st, asOf)
	if !ok {
		w.add("FALSE", nil)
		return
	}
	if minYear != 0 {
		w.add(column+" >= @min_year", pgx.NamedArgs{"min_year": minYear})
	}
	if maxYear != 0 {
		w.add(column+" <= @max_year", pgx.NamedArgs{"max_year": maxYear})
	}
}
