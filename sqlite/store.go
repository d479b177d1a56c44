// Package sqlite persists a portfolio in a SQLite database.
//
// The schema is managed by embedded migrations. A save replaces the whole
// content of the database in one SQL transaction; a load reads it back and
// replays it with portfolio.Restore, so a database whose derived rows drift
// from the transaction log is reported as corrupt.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	portfolio "github.com/venturetk/VenturePortfolio"
	"github.com/venturetk/VenturePortfolio/date"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open opens the database at dsn (a file path or ":memory:") and applies the
// pending migrations.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite serializes writers and ":memory:" is per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the embedded migrations to db.
func Migrate(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("could not read migrations: %w", err)
	}
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("could not create sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migration instance creation failed: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Store implements portfolio.Persistence over a SQLite database.
type Store struct {
	db     *sql.DB
	opts   []portfolio.Option
	logger *zap.Logger
}

// NewStore returns a store over db. opts are applied to loaded portfolios.
func NewStore(db *sql.DB, logger *zap.Logger, opts ...portfolio.Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, opts: opts, logger: logger}
}

var _ portfolio.Persistence = (*Store)(nil)

var tables = []string{"gain", "fee", "position", "leg", "tx", "wallet", "asset", "portfolio"}

// Save replaces the stored portfolio with p.
func (s *Store) Save(ctx context.Context, p *portfolio.Portfolio) error {
	st := p.State()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s table: %w", table, err)
		}
	}
	if err := insertState(ctx, tx, st); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit portfolio: %w", err)
	}
	s.logger.Debug("portfolio saved",
		zap.String("name", st.Name),
		zap.Int("transactions", len(st.Transactions)))
	return nil
}

func insertState(ctx context.Context, tx *sql.Tx, st portfolio.State) error {
	exec := func(what, query string, args ...any) error {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert %s: %w", what, err)
		}
		return nil
	}

	if err := exec("portfolio", `INSERT INTO portfolio (id, name, quote, withdraw_basis, internal_transfers) VALUES (1, ?, ?, ?, ?)`,
		st.Name, st.Quote, st.WithdrawBasis.String(), st.Transfers.String()); err != nil {
		return err
	}
	for _, a := range st.Assets {
		if err := exec("asset", `INSERT INTO asset (name, price) VALUES (?, ?)`, a.Name, a.Price.String()); err != nil {
			return err
		}
	}
	for i, w := range st.Wallets {
		if err := exec("wallet", `INSERT INTO wallet (seq, name) VALUES (?, ?)`, i, w); err != nil {
			return err
		}
	}
	for i, t := range st.Transactions {
		var realized sql.NullString
		if m, ok := st.Realized[t.ID]; ok {
			realized = sql.NullString{String: m.Decimal().String(), Valid: true}
		}
		if err := exec("transaction",
			`INSERT INTO tx (seq, id, type, at, class, origin, destination, realized) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			i, t.ID.String(), string(t.Type), t.At.String(), t.Class, t.Origin, t.Destination, realized); err != nil {
			return err
		}
		for _, l := range []struct {
			role string
			leg  *portfolio.Leg
		}{{"fee", t.Fee}, {"sent", t.Sent}, {"received", t.Received}} {
			if l.leg == nil {
				continue
			}
			if err := exec("leg",
				`INSERT INTO leg (tx_id, role, asset, quantity, price, total) VALUES (?, ?, ?, ?, ?, ?)`,
				t.ID.String(), l.role, l.leg.Asset, l.leg.Quantity.String(),
				l.leg.Price.Decimal().String(), l.leg.Total.Decimal().String()); err != nil {
				return err
			}
		}
	}
	seq := 0
	for _, w := range st.Wallets {
		for _, pos := range st.Positions[w] {
			if err := exec("position",
				`INSERT INTO position (seq, id, wallet, asset, quantity, cost_basis, open_price, opened) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				seq, pos.ID.String(), w, pos.Asset, pos.Quantity.String(),
				pos.CostBasis.Decimal().String(), pos.OpenPrice.Decimal().String(), pos.Opened.String()); err != nil {
				return err
			}
			seq++
		}
	}
	for i, f := range st.Fees {
		if err := exec("fee",
			`INSERT INTO fee (seq, id, tx_id, at, asset, quantity, amount) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			i, f.ID.String(), f.TxID.String(), f.At.String(), f.Asset, f.Quantity.String(), f.Amount.Decimal().String()); err != nil {
			return err
		}
	}
	for i, g := range st.Gains {
		if err := exec("gain",
			`INSERT INTO gain (seq, id, tx_id, at, wallet, asset, quantity, proceeds, cost_basis, amount) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, g.ID.String(), g.TxID.String(), g.At.String(), g.Wallet, g.Asset, g.Quantity.String(),
			g.Proceeds.Decimal().String(), g.CostBasis.Decimal().String(), g.Amount.Decimal().String()); err != nil {
			return err
		}
	}
	return nil
}

// ErrEmpty is returned by Load when nothing was saved yet.
var ErrEmpty = errors.New("no portfolio stored")

// Load reads the stored portfolio and replays it.
func (s *Store) Load(ctx context.Context) (*portfolio.Portfolio, error) {
	st, err := s.readState(ctx)
	if err != nil {
		return nil, err
	}
	p, err := portfolio.Restore(st, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("could not restore portfolio %q: %w", st.Name, err)
	}
	s.logger.Debug("portfolio loaded",
		zap.String("name", st.Name),
		zap.Int("transactions", len(st.Transactions)))
	return p, nil
}

func (s *Store) readState(ctx context.Context) (portfolio.State, error) {
	st := portfolio.State{
		Realized:  make(map[uuid.UUID]portfolio.Money),
		Positions: make(map[string][]portfolio.Position),
	}
	var basis, transfers string
	err := s.db.QueryRowContext(ctx, `SELECT name, quote, withdraw_basis, internal_transfers FROM portfolio WHERE id = 1`).
		Scan(&st.Name, &st.Quote, &basis, &transfers)
	if errors.Is(err, sql.ErrNoRows) {
		return st, ErrEmpty
	}
	if err != nil {
		return st, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	if st.WithdrawBasis, err = portfolio.ParseDisposalBasis(basis); err != nil {
		return st, fmt.Errorf("failed to read portfolio table: %w", err)
	}
	if st.Transfers, err = portfolio.ParseTransferPolicy(transfers); err != nil {
		return st, fmt.Errorf("failed to read portfolio table: %w", err)
	}

	err = queryRows(ctx, s.db, `SELECT name, price FROM asset ORDER BY name`, func(r *sql.Rows) error {
		var a portfolio.Asset
		var price string
		if err := r.Scan(&a.Name, &price); err != nil {
			return err
		}
		d := decoder{quote: st.Quote}
		a.Price = d.money(price).Decimal()
		st.Assets = append(st.Assets, a)
		return d.err
	})
	if err != nil {
		return st, fmt.Errorf("failed to read asset table: %w", err)
	}

	err = queryRows(ctx, s.db, `SELECT name FROM wallet ORDER BY seq`, func(r *sql.Rows) error {
		var name string
		err := r.Scan(&name)
		st.Wallets = append(st.Wallets, name)
		return err
	})
	if err != nil {
		return st, fmt.Errorf("failed to read wallet table: %w", err)
	}

	legs := make(map[string]map[string]*portfolio.Leg)
	err = queryRows(ctx, s.db, `SELECT tx_id, role, asset, quantity, price, total FROM leg`, func(r *sql.Rows) error {
		var txID, role, asset, quantity, price, total string
		if err := r.Scan(&txID, &role, &asset, &quantity, &price, &total); err != nil {
			return err
		}
		d := decoder{quote: st.Quote}
		l := &portfolio.Leg{
			Asset:    asset,
			Quantity: d.quantity(quantity),
			Price:    d.money(price),
			Total:    d.money(total),
		}
		if d.err != nil {
			return fmt.Errorf("leg %s of %s: %w", role, txID, d.err)
		}
		if legs[txID] == nil {
			legs[txID] = make(map[string]*portfolio.Leg)
		}
		legs[txID][role] = l
		return nil
	})
	if err != nil {
		return st, fmt.Errorf("failed to read leg table: %w", err)
	}

	err = queryRows(ctx, s.db, `SELECT id, type, at, class, origin, destination, realized FROM tx ORDER BY seq`, func(r *sql.Rows) error {
		var id, typ, at string
		var t portfolio.Transaction
		var realized sql.NullString
		if err := r.Scan(&id, &typ, &at, &t.Class, &t.Origin, &t.Destination, &realized); err != nil {
			return err
		}
		d := decoder{quote: st.Quote}
		t.ID = d.uuid(id)
		t.At = d.stamp(at)
		if d.err == nil {
			t.Type, d.err = portfolio.ParseTxType(typ)
		}
		if realized.Valid {
			st.Realized[t.ID] = d.money(realized.String)
		}
		if d.err != nil {
			return fmt.Errorf("transaction %s: %w", id, d.err)
		}
		t.Fee, t.Sent, t.Received = legs[id]["fee"], legs[id]["sent"], legs[id]["received"]
		st.Transactions = append(st.Transactions, t)
		return nil
	})
	if err != nil {
		return st, fmt.Errorf("failed to read tx table: %w", err)
	}

	err = queryRows(ctx, s.db, `SELECT id, wallet, asset, quantity, cost_basis, open_price, opened FROM position ORDER BY seq`, func(r *sql.Rows) error {
		var id, wallet, quantity, cost, open, opened string
		var pos portfolio.Position
		if err := r.Scan(&id, &wallet, &pos.Asset, &quantity, &cost, &open, &opened); err != nil {
			return err
		}
		d := decoder{quote: st.Quote}
		pos.ID = d.uuid(id)
		pos.Quantity = d.quantity(quantity)
		pos.CostBasis = d.money(cost)
		pos.OpenPrice = d.money(open)
		pos.Opened = d.stamp(opened)
		st.Positions[wallet] = append(st.Positions[wallet], pos)
		return d.err
	})
	if err != nil {
		return st, fmt.Errorf("failed to read position table: %w", err)
	}

	err = queryRows(ctx, s.db, `SELECT id, tx_id, at, asset, quantity, amount FROM fee ORDER BY seq`, func(r *sql.Rows) error {
		var id, txID, at, quantity, amount string
		var f portfolio.FeeEntry
		if err := r.Scan(&id, &txID, &at, &f.Asset, &quantity, &amount); err != nil {
			return err
		}
		d := decoder{quote: st.Quote}
		f.ID = d.uuid(id)
		f.TxID = d.uuid(txID)
		f.At = d.stamp(at)
		f.Quantity = d.quantity(quantity)
		f.Amount = d.money(amount)
		st.Fees = append(st.Fees, f)
		return d.err
	})
	if err != nil {
		return st, fmt.Errorf("failed to read fee table: %w", err)
	}

	err = queryRows(ctx, s.db, `SELECT id, tx_id, at, wallet, asset, quantity, proceeds, cost_basis, amount FROM gain ORDER BY seq`, func(r *sql.Rows) error {
		var id, txID, at, quantity, proceeds, cost, amount string
		var g portfolio.GainLossEntry
		if err := r.Scan(&id, &txID, &at, &g.Wallet, &g.Asset, &quantity, &proceeds, &cost, &amount); err != nil {
			return err
		}
		d := decoder{quote: st.Quote}
		g.ID = d.uuid(id)
		g.TxID = d.uuid(txID)
		g.At = d.stamp(at)
		g.Quantity = d.quantity(quantity)
		g.Proceeds = d.money(proceeds)
		g.CostBasis = d.money(cost)
		g.Amount = d.money(amount)
		st.Gains = append(st.Gains, g)
		return d.err
	})
	if err != nil {
		return st, fmt.Errorf("failed to read gain table: %w", err)
	}
	return st, nil
}

func queryRows(ctx context.Context, db *sql.DB, query string, scan func(*sql.Rows) error) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// decoder parses text columns and keeps the first error.
type decoder struct {
	quote string
	err   error
}

func (d *decoder) uuid(s string) uuid.UUID {
	if d.err != nil {
		return uuid.Nil
	}
	var id uuid.UUID
	id, d.err = uuid.Parse(s)
	return id
}

func (d *decoder) stamp(s string) date.Stamp {
	if d.err != nil {
		return date.Stamp{}
	}
	var st date.Stamp
	st, d.err = date.ParseStamp(s)
	return st
}

func (d *decoder) quantity(s string) portfolio.Quantity {
	if d.err != nil {
		return portfolio.Quantity{}
	}
	var q portfolio.Quantity
	q, d.err = portfolio.ParseQuantity(s)
	return q
}

func (d *decoder) money(s string) portfolio.Money {
	if d.err != nil {
		return portfolio.Money{}
	}
	var v decimal.Decimal
	v, d.err = decimal.NewFromString(s)
	return portfolio.M(v, d.quote)
}
