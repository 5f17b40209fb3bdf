package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Serafin06/DeclarationGenerator/internal"
	"github.com/Serafin06/DeclarationGenerator/internal/config"
	"github.com/Serafin06/DeclarationGenerator/internal/util"
)

var (
	ErrNotFound = errors.New("not found")
	ErrDisabled = errors.New("order database not configured")
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Source reads production orders and customers.
type Source interface {
	GetOrder(ctx context.Context, number string) (*internal.Order, error)
	GetClient(ctx context.Context, number string) (*internal.Client, error)
	Ping(ctx context.Context) error
}

// Disabled is the Source used when no order database is configured.
type Disabled struct{}

func (Disabled) GetOrder(context.Context, string) (*internal.Order, error)   { return nil, ErrDisabled }
func (Disabled) GetClient(context.Context, string) (*internal.Client, error) { return nil, ErrDisabled }
func (Disabled) Ping(context.Context) error                                  { return ErrDisabled }

type SQLSource struct {
	db          *sql.DB
	orderQuery  string
	clientQuery string
	timeout     time.Duration
}

// Open connects to the configured order database. It returns ErrDisabled when no DSN is set.
func Open(cfg config.Config) (*SQLSource, error) {
	if !cfg.OrdersEnabled() {
		return nil, ErrDisabled
	}
	db, err := sql.Open(cfg.Orders.Driver, cfg.Orders.DSN)
	if err != nil {
		return nil, fmt.Errorf("open order database: %w", err)
	}
	src, err := NewSQLSource(db, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return src, nil
}

// NewSQLSource builds the order and client queries from the configured table and
// column names. Identifiers are validated since they cannot be bound as parameters.
func NewSQLSource(db *sql.DB, cfg config.Config) (*SQLSource, error) {
	o, c := cfg.Orders, cfg.Clients

	orderCols := []string{o.ColNumber, o.ColArticleIndex, o.ColClientArt, o.ColDescription, o.ColStructure, o.ColClient, o.ColThickness1, o.ColThickness2, o.ColThickness3}
	clientCols := []string{c.ColNumber, c.ColName, c.ColAddress}

	for _, ident := range append([]string{o.Table, c.Table, o.ColNumber, c.ColNumber}, append(orderCols, clientCols...)...) {
		if ident != "" && !identPattern.MatchString(ident) {
			return nil, fmt.Errorf("invalid identifier in order database config: %q", ident)
		}
	}
	if o.Table == "" || o.ColNumber == "" || c.Table == "" || c.ColNumber == "" {
		return nil, errors.New("order and client tables and their number columns are required")
	}

	ph := placeholder(o.Driver)
	timeout := time.Duration(o.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &SQLSource{
		db:          db,
		orderQuery:  fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s", selectList(orderCols), o.Table, o.ColNumber, ph),
		clientQuery: fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s", selectList(clientCols), c.Table, c.ColNumber, ph),
		timeout:     timeout,
	}, nil
}

func (s *SQLSource) Close() error {
	return s.db.Close()
}

func (s *SQLSource) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *SQLSource) GetOrder(ctx context.Context, number string) (*internal.Order, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var cols [9]sql.NullString
	dest := make([]any, len(cols))
	for i := range cols {
		dest[i] = &cols[i]
	}
	err := s.db.QueryRowContext(ctx, s.orderQuery, number).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", number, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query order %s: %w", number, err)
	}

	o := &internal.Order{
		Number:             clean(cols[0]),
		ArticleIndex:       clean(cols[1]),
		ClientArticleIndex: clean(cols[2]),
		Description:        clean(cols[3]),
		Structure:          clean(cols[4]),
		ClientNumber:       clean(cols[5]),
		Thickness:          [3]string{clean(cols[6]), clean(cols[7]), clean(cols[8])},
	}
	o.BatchNumber = o.Number
	return o, nil
}

func (s *SQLSource) GetClient(ctx context.Context, number string) (*internal.Client, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var num, name, address sql.NullString
	err := s.db.QueryRowContext(ctx, s.clientQuery, number).Scan(&num, &name, &address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("client %s: %w", number, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query client %s: %w", number, err)
	}
	return &internal.Client{Number: clean(num), Name: clean(name), Address: clean(address)}, nil
}

// selectList substitutes an empty literal for unconfigured optional columns.
func selectList(cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		if c == "" {
			parts[i] = "''"
			continue
		}
		parts[i] = c
	}
	return strings.Join(parts, ", ")
}

func placeholder(driver string) string {
	switch strings.ToLower(driver) {
	case "pgx", "postgres", "postgresql":
		return "$1"
	case "sqlserver", "mssql":
		return "@p1"
	default:
		return "?"
	}
}

func clean(v sql.NullString) string {
	if !v.Valid {
		return ""
	}
	return util.NormalizeSpaces(v.String)
}
