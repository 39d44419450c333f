package schema

import (
	"context"
	"sync"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
)

// Prober answers structural questions about the live database so the
// tracking pipeline can adapt to legacy schema variants.
type Prober interface {
	// PickTable returns the first candidate table that exists.
	PickTable(ctx context.Context, candidates ...string) (string, bool, error)
	// PickColumn returns the first candidate column present on table.
	PickColumn(ctx context.Context, table string, candidates ...string) (string, bool, error)
	HasTable(ctx context.Context, table string) (bool, error)
	HasColumn(ctx context.Context, table, column string) (bool, error)
	// PrimaryKey returns the single-column primary key of table.
	PrimaryKey(ctx context.Context, table string) (string, bool, error)
}

// DBProber introspects through gorm's migrator and caches every answer
// for the life of the process. Schema changes require a restart.
type DBProber struct {
	client *db.Client

	mu    sync.RWMutex
	cache map[string]probeResult
}

type probeResult struct {
	value string
	ok    bool
}

func NewDBProber(client *db.Client) (*DBProber, error) {
	if client == nil {
		return nil, errors.New(errors.CodeInternal, "schema: db client is required")
	}
	return &DBProber{client: client, cache: make(map[string]probeResult)}, nil
}

func (p *DBProber) cached(key string) (probeResult, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.cache[key]
	return r, ok
}

func (p *DBProber) store(key string, r probeResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache[key] = r
}

func (p *DBProber) HasTable(ctx context.Context, table string) (bool, error) {
	key := "t:" + table
	if r, ok := p.cached(key); ok {
		return r.ok, nil
	}
	exists := p.client.DB().WithContext(ctx).Migrator().HasTable(table)
	p.store(key, probeResult{ok: exists})
	return exists, nil
}

func (p *DBProber) HasColumn(ctx context.Context, table, column string) (bool, error) {
	key := "c:" + table + ":" + column
	if r, ok := p.cached(key); ok {
		return r.ok, nil
	}
	exists := p.client.DB().WithContext(ctx).Migrator().HasColumn(table, column)
	p.store(key, probeResult{ok: exists})
	return exists, nil
}

func (p *DBProber) PickTable(ctx context.Context, candidates ...string) (string, bool, error) {
	for _, t := range candidates {
		ok, err := p.HasTable(ctx, t)
		if err != nil {
			return "", false, err
		}
		if ok {
			return t, true, nil
		}
	}
	return "", false, nil
}

func (p *DBProber) PickColumn(ctx context.Context, table string, candidates ...string) (string, bool, error) {
	for _, c := range candidates {
		ok, err := p.HasColumn(ctx, table, c)
		if err != nil {
			return "", false, err
		}
		if ok {
			return c, true, nil
		}
	}
	return "", false, nil
}

func (p *DBProber) PrimaryKey(ctx context.Context, table string) (string, bool, error) {
	key := "pk:" + table
	if r, ok := p.cached(key); ok {
		return r.value, r.ok, nil
	}
	var col string
	var found bool
	var err error
	switch p.client.DB().Dialector.Name() {
	case "sqlite":
		col, found, err = p.sqlitePrimaryKey(ctx, table)
	default:
		col, found, err = p.pgPrimaryKey(ctx, table)
	}
	if err != nil {
		return "", false, errors.Wrap(errors.CodeDependency, err, "schema: probing primary key")
	}
	p.store(key, probeResult{value: col, ok: found})
	return col, found, nil
}

func (p *DBProber) pgPrimaryKey(ctx context.Context, table string) (string, bool, error) {
	const q = `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_name = tc.constraint_name
		 AND kcu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_name = ?
		ORDER BY kcu.ordinal_position
		LIMIT 1`
	var col string
	err := p.client.DB().WithContext(ctx).Raw(q, table).Scan(&col).Error
	if err != nil {
		return "", false, err
	}
	return col, col != "", nil
}

func (p *DBProber) sqlitePrimaryKey(ctx context.Context, table string) (string, bool, error) {
	type columnInfo struct {
		Name string `gorm:"column:name"`
		PK   int    `gorm:"column:pk"`
	}
	var cols []columnInfo
	err := p.client.DB().WithContext(ctx).Raw("SELECT name, pk FROM pragma_table_info(?)", table).Scan(&cols).Error
	if err != nil {
		return "", false, err
	}
	for _, c := range cols {
		if c.PK == 1 {
			return c.Name, true, nil
		}
	}
	return "", false, nil
}

// Static is a fixed-answer prober for tests and single-schema deployments.
type Static struct {
	Tables      map[string]bool
	Columns     map[string]bool // "table.column"
	PrimaryKeys map[string]string
}

func (s *Static) HasTable(_ context.Context, table string) (bool, error) {
	return s.Tables[table], nil
}

func (s *Static) HasColumn(_ context.Context, table, column string) (bool, error) {
	return s.Columns[table+"."+column], nil
}

func (s *Static) PickTable(ctx context.Context, candidates ...string) (string, bool, error) {
	for _, t := range candidates {
		if ok, _ := s.HasTable(ctx, t); ok {
			return t, true, nil
		}
	}
	return "", false, nil
}

func (s *Static) PickColumn(ctx context.Context, table string, candidates ...string) (string, bool, error) {
	for _, c := range candidates {
		if ok, _ := s.HasColumn(ctx, table, c); ok {
			return c, true, nil
		}
	}
	return "", false, nil
}

func (s *Static) PrimaryKey(_ context.Context, table string) (string, bool, error) {
	pk, ok := s.PrimaryKeys[table]
	return pk, ok, nil
}
