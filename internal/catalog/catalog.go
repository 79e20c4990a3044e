// Package catalog stores the reference objects offered for alignment in a
// sqlite database seeded from YAML.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/skytrack/internal/sky"
)

// ErrNotFound is returned when an object id is not in the catalog
var ErrNotFound = errors.New("object not found")

// SqliteCatalog is a catalog backed by a sqlite file. Connections are opened
// on first use.
type SqliteCatalog struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteCatalog creates a catalog stored at dbPath. The file and schema
// are created when first needed.
func NewSqliteCatalog(dbPath string) *SqliteCatalog {
	return &SqliteCatalog{dbPath: dbPath}
}

func (c *SqliteCatalog) getWriteDB() (*sql.DB, error) {
	c.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", c.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			c.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1)

		if _, err = db.Exec(initSchemaSQL); err != nil {
			_ = db.Close()
			c.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		c.writeDB = db
	})

	return c.writeDB, c.writeDBErr
}

func (c *SqliteCatalog) getReadDB() (*sql.DB, error) {
	c.readDBOnce.Do(func() {
		// the read-only connection cannot create the file or the schema
		if _, err := c.getWriteDB(); err != nil {
			c.readDBErr = err
			return
		}

		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", c.dbPath, "mode=ro"))
		if err != nil {
			c.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		c.readDB = db
	})

	return c.readDB, c.readDBErr
}

// Seed inserts or updates objects in a single transaction
func (c *SqliteCatalog) Seed(ctx context.Context, objects []sky.Object) (err error) {
	if len(objects) == 0 {
		return nil
	}

	db, err := c.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	stmt, err := tx.PrepareContext(ctx, upsertObjectSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	for _, o := range objects {
		if o.ID == "" {
			return errors.New("object without id")
		}
		if _, err = stmt.ExecContext(ctx, o.ID, o.DisplayName(), o.Kind.String(), o.RAHours, o.DecDegrees, o.Magnitude); err != nil {
			return fmt.Errorf("upserting object '%s': %w", o.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Bright returns the stars and deep sky objects no fainter than magCeiling,
// brightest first, along with every planet and the Moon. Moving objects
// carry placeholder coordinates that must be recomputed for the
// observation time.
func (c *SqliteCatalog) Bright(ctx context.Context, magCeiling float64) (objects []sky.Object, err error) {
	db, err := c.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectBrightSQL, magCeiling)
	if err != nil {
		err = fmt.Errorf("querying objects: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var o sky.Object
		if o, err = scanObject(rows); err != nil {
			return nil, err
		}
		objects = append(objects, o)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating objects: %w", err)
	}
	return
}

// Object returns a single object by id
func (c *SqliteCatalog) Object(ctx context.Context, id string) (obj sky.Object, err error) {
	db, err := c.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectObjectSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	obj, err = scanObject(stmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return
}

// Count returns the number of objects in the catalog
func (c *SqliteCatalog) Count(ctx context.Context) (n int, err error) {
	db, err := c.getReadDB()
	if err != nil {
		return 0, fmt.Errorf("getting read connection: %w", err)
	}

	if err = db.QueryRowContext(ctx, countObjectsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting objects: %w", err)
	}
	return n, nil
}

func (c *SqliteCatalog) Close() error {
	c.closeOnce.Do(func() {
		var writeErr, readErr error

		if c.readDB != nil {
			readErr = c.readDB.Close()
			c.readDB = nil
		}

		if c.writeDB != nil {
			writeErr = c.writeDB.Close()
			c.writeDB = nil
		}

		c.closeErr = errors.Join(writeErr, readErr)
	})

	return c.closeErr
}

func scanObject(row interface{ Scan(...any) error }) (sky.Object, error) {
	var (
		o    sky.Object
		kind string
	)

	if err := row.Scan(&o.ID, &o.Name, &kind, &o.RAHours, &o.DecDegrees, &o.Magnitude); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return o, err
		}
		return o, fmt.Errorf("scanning object: %w", err)
	}

	k, err := sky.ParseKind(kind)
	if err != nil {
		return o, fmt.Errorf("object '%s': %w", o.ID, err)
	}
	o.Kind = k

	return o, nil
}
