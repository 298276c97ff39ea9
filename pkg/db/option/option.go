package option

import "gorm.io/gorm"

// QueryOption mutates a gorm statement before execution.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type optionFunc func(db *gorm.DB) *gorm.DB

func (f optionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

type Operator string

const (
	EQ    Operator = "="
	GTE   Operator = ">="
	LTE   Operator = "<="
	ILIKE Operator = "ILIKE"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds a single WHERE condition. ILIKE degrades to LIKE on
// dialects without it (sqlite LIKE is case-insensitive for ASCII anyway).
func ApplyOperator(c Condition) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		op := c.Operator
		if op == ILIKE && db.Dialector.Name() != "postgres" {
			op = "LIKE"
		}
		return db.Where(c.Field+" "+string(op)+" ?", c.Value)
	})
}

// Or adds a grouped OR of conditions, each applied with its operator.
func Or(conds ...Condition) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		if len(conds) == 0 {
			return db
		}
		grouped := db.Session(&gorm.Session{NewDB: true})
		for i, c := range conds {
			op := c.Operator
			if op == ILIKE && db.Dialector.Name() != "postgres" {
				op = "LIKE"
			}
			expr := c.Field + " " + string(op) + " ?"
			if i == 0 {
				grouped = grouped.Where(expr, c.Value)
			} else {
				grouped = grouped.Or(expr, c.Value)
			}
		}
		return db.Where(grouped)
	})
}

type QuerySortBy struct {
	Field string
	Desc  bool
}

func WithSortBy(sort QuerySortBy) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		if sort.Field == "" {
			return db
		}
		order := sort.Field
		if sort.Desc {
			order += " DESC"
		}
		return db.Order(order)
	})
}

func WithLimit(limit int) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}
