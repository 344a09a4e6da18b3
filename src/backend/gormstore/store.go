package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/theleywin/love-on-the-pixel/src/backend"
	"github.com/theleywin/love-on-the-pixel/src/errs"
	"github.com/theleywin/love-on-the-pixel/src/models"
)

type Config struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver   string
	DSN      string
	LogLevel logger.LogLevel
	// OnChange, when set, is called after every successful write.
	OnChange func(Change)
}

// Store implements backend.Backend on top of GORM.
type Store struct {
	db *gorm.DB
}

var _ backend.Backend = (*Store)(nil)
var _ backend.Migrator = (*Store)(nil)

// Open connects to the configured database.
func Open(cfg Config) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported gorm driver %q", cfg.Driver)
	}

	level := cfg.LogLevel
	if level == 0 {
		level = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if cfg.OnChange != nil {
		if err := db.Use(&changePlugin{notify: cfg.OnChange}); err != nil {
			return nil, fmt.Errorf("register change plugin: %w", err)
		}
	}

	log.Printf("Connected to %s!", dialector.Name())
	return &Store{db: db}, nil
}

// OpenInMemory returns a migrated store backed by a private in-memory SQLite database.
func OpenInMemory() (*Store, error) {
	s, err := Open(Config{
		DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		LogLevel: logger.Silent,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, err
	}
	// Every connection to a shared in-memory database contends for one lock.
	sqlDB.SetMaxOpenConns(1)

	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// New wraps an already opened *gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate runs all database migrations.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Invitation{},
		&models.Connection{},
		&models.Affirmation{},
		&models.Person{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	log.Println("Database migration completed!")
	return nil
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) QueryRows(ctx context.Context, table string, filter backend.Filter, order *backend.Order, dest any) error {
	q, err := s.scoped(ctx, table, filter)
	if err != nil {
		return err
	}
	if order != nil {
		if !backend.ValidIdentifier(order.Column) {
			return fmt.Errorf("invalid order column %q: %w", order.Column, errs.ErrInvalidInput)
		}
		dir := " ASC"
		if order.Desc {
			dir = " DESC"
		}
		q = q.Order(order.Column + dir)
	}
	return translate(q.Find(dest).Error)
}

func (s *Store) InsertRows(ctx context.Context, table string, rows any) error {
	if !backend.ValidIdentifier(table) {
		return fmt.Errorf("invalid table %q: %w", table, errs.ErrInvalidInput)
	}
	return translate(s.db.WithContext(ctx).Table(table).Create(rows).Error)
}

func (s *Store) UpdateRows(ctx context.Context, table string, filter backend.Filter, patch map[string]any) (int64, error) {
	if filter.Empty() {
		return 0, fmt.Errorf("update on %s without filter: %w", table, errs.ErrInvalidInput)
	}
	q, err := s.scoped(ctx, table, filter)
	if err != nil {
		return 0, err
	}
	res := q.Updates(patch)
	return res.RowsAffected, translate(res.Error)
}

func (s *Store) DeleteRows(ctx context.Context, table string, filter backend.Filter) (int64, error) {
	if filter.Empty() {
		return 0, fmt.Errorf("delete on %s without filter: %w", table, errs.ErrInvalidInput)
	}
	where, args, err := render(filter)
	if err != nil {
		return 0, err
	}
	if !backend.ValidIdentifier(table) {
		return 0, fmt.Errorf("invalid table %q: %w", table, errs.ErrInvalidInput)
	}
	res := s.db.WithContext(ctx).Exec("DELETE FROM "+table+" WHERE "+where, args...)
	return res.RowsAffected, translate(res.Error)
}

func (s *Store) scoped(ctx context.Context, table string, filter backend.Filter) (*gorm.DB, error) {
	if !backend.ValidIdentifier(table) {
		return nil, fmt.Errorf("invalid table %q: %w", table, errs.ErrInvalidInput)
	}
	where, args, err := render(filter)
	if err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Table(table)
	if where != "" {
		q = q.Where(where, args...)
	}
	return q, nil
}

// render turns a filter into a parameterised WHERE clause.
func render(filter backend.Filter) (string, []any, error) {
	if err := filter.Validate(); err != nil {
		return "", nil, fmt.Errorf("%v: %w", err, errs.ErrInvalidInput)
	}

	var parts []string
	var args []any
	for _, p := range filter.All {
		sql, arg := renderPredicate(p)
		parts = append(parts, sql)
		args = append(args, arg...)
	}

	if len(filter.Any) > 0 {
		alternatives := make([]string, 0, len(filter.Any))
		for _, group := range filter.Any {
			conds := make([]string, 0, len(group))
			for _, p := range group {
				sql, arg := renderPredicate(p)
				conds = append(conds, sql)
				args = append(args, arg...)
			}
			alternatives = append(alternatives, "("+strings.Join(conds, " AND ")+")")
		}
		parts = append(parts, "("+strings.Join(alternatives, " OR ")+")")
	}

	return strings.Join(parts, " AND "), args, nil
}

func renderPredicate(p backend.Predicate) (string, []any) {
	switch p.Op {
	case backend.OpNeq:
		return p.Column + " <> ?", []any{p.Value}
	case backend.OpLt:
		return p.Column + " < ?", []any{p.Value}
	case backend.OpIsNull:
		return p.Column + " IS NULL", nil
	default:
		return p.Column + " = ?", []any{p.Value}
	}
}

// translate maps driver errors onto the shared taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errs.ErrInvalidInput), errors.Is(err, errs.ErrNotFound):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "UNIQUE constraint failed"),
		strings.Contains(err.Error(), "duplicate key value"):
		return fmt.Errorf("%w: %v", errs.ErrConstraintViolation, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", errs.ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %v", errs.ErrBackendUnavailable, err)
	}
}
