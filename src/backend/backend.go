// Package backend defines the boundary every service talks to the data store
// through. Adapters live in the gormstore, mongostore and reststore packages.
package backend

import (
	"context"
	"fmt"
	"regexp"
)

// Backend is the row-level surface of the hosted store plus its named procedures.
//
// dest and rows are pointers to a model struct or to a slice of model structs;
// patch keys are column names.
type Backend interface {
	QueryRows(ctx context.Context, table string, filter Filter, order *Order, dest any) error
	InsertRows(ctx context.Context, table string, rows any) error
	UpdateRows(ctx context.Context, table string, filter Filter, patch map[string]any) (int64, error)
	DeleteRows(ctx context.Context, table string, filter Filter) (int64, error)
	CallRemoteProcedure(ctx context.Context, name string, args map[string]any, result any) error
	Close(ctx context.Context) error
}

// Migrator is implemented by adapters that own their schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Procedures understood by every adapter.
const (
	ProcCreateBidirectionalConnection = "create_bidirectional_connection"
	ProcUpdateBidirectionalConnection = "update_bidirectional_connection"
	ProcRemoveBidirectionalConnection = "remove_bidirectional_connection"
)

type Operator string

const (
	OpEq     Operator = "eq"
	OpNeq    Operator = "neq"
	OpLt     Operator = "lt"
	OpIsNull Operator = "is"
)

type Predicate struct {
	Column string
	Op     Operator
	Value  any
}

func Eq(column string, value any) Predicate  { return Predicate{Column: column, Op: OpEq, Value: value} }
func Neq(column string, value any) Predicate { return Predicate{Column: column, Op: OpNeq, Value: value} }
func Lt(column string, value any) Predicate  { return Predicate{Column: column, Op: OpLt, Value: value} }
func IsNull(column string) Predicate         { return Predicate{Column: column, Op: OpIsNull} }

// Filter selects rows matching every predicate in All and, when Any is not
// empty, at least one of the AND-groups in Any.
type Filter struct {
	All []Predicate
	Any [][]Predicate
}

func Where(preds ...Predicate) Filter {
	return Filter{All: preds}
}

// Or adds an AND-group to the alternatives of f.
func (f Filter) Or(group ...Predicate) Filter {
	f.Any = append(f.Any, group)
	return f
}

func (f Filter) Empty() bool {
	return len(f.All) == 0 && len(f.Any) == 0
}

type Order struct {
	Column string
	Desc   bool
}

func OrderBy(column string, desc bool) *Order {
	return &Order{Column: column, Desc: desc}
}

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Validate rejects column names and operators an adapter could not render safely.
func (f Filter) Validate() error {
	check := func(p Predicate) error {
		if !identifier.MatchString(p.Column) {
			return fmt.Errorf("invalid column %q", p.Column)
		}
		switch p.Op {
		case OpEq, OpNeq, OpLt, OpIsNull:
			return nil
		}
		return fmt.Errorf("invalid operator %q", p.Op)
	}
	for _, p := range f.All {
		if err := check(p); err != nil {
			return err
		}
	}
	for _, group := range f.Any {
		if len(group) == 0 {
			return fmt.Errorf("empty alternative in filter")
		}
		for _, p := range group {
			if err := check(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidIdentifier reports whether name is safe to use as a table or column name.
func ValidIdentifier(name string) bool {
	return identifier.MatchString(name)
}

// EitherDirection matches the two directed edges between a and b.
func EitherDirection(a, b string) Filter {
	return Filter{}.
		Or(Eq("user_id", a), Eq("connected_user_id", b)).
		Or(Eq("user_id", b), Eq("connected_user_id", a))
}
