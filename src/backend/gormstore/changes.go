package gormstore

import (
	"strings"

	"gorm.io/gorm"
)

// Change describes one successful write seen by the change plugin.
type Change struct {
	Op           string
	Table        string
	RowsAffected int64
}

// changePlugin is a GORM plugin that reports every write after it committed to the statement.
type changePlugin struct {
	notify func(Change)
}

func (p *changePlugin) Name() string {
	return "lovepixel:changes"
}

func (p *changePlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Create().After("gorm:create").Register("changes:after_create", p.after("INSERT")); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("changes:after_update", p.after("UPDATE")); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("changes:after_delete", p.after("DELETE")); err != nil {
		return err
	}
	// Exec'd statements (bulk deletes) go through the raw chain.
	return db.Callback().Raw().After("gorm:raw").Register("changes:after_raw", p.after(""))
}

func (p *changePlugin) after(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if db.Error != nil || db.Statement == nil {
			return
		}

		change := Change{Op: op, Table: db.Statement.Table, RowsAffected: db.RowsAffected}
		if change.Table == "" && db.Statement.Schema != nil {
			change.Table = db.Statement.Schema.Table
		}
		if op == "" {
			change.Op, change.Table = parseRaw(db.Statement.SQL.String())
			if change.Op == "" {
				return
			}
		}

		p.notify(change)
	}
}

// parseRaw recognises the statements the store issues through Exec.
func parseRaw(sql string) (op, table string) {
	fields := strings.Fields(sql)
	if len(fields) >= 3 && strings.EqualFold(fields[0], "DELETE") && strings.EqualFold(fields[1], "FROM") {
		return "DELETE", strings.Trim(fields[2], `"`+"`")
	}
	return "", ""
}
