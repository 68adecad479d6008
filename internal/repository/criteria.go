package repository

import (
	"fmt"
	"strings"
)

// Op filter operator
type Op int

const (
	OpEquals Op = iota
	OpContains      // case-insensitive substring (ILIKE %value%)
	OpIn            // member-of a given set
	OpNotEquals
)

// Criterion one field predicate. Criteria in a Filter are AND-combined.
type Criterion struct {
	Field string
	Op    Op
	Value any
}

// Filter criteria set for a record manager query. An empty Criteria
// slice matches all rows. Exclude removes rows matching its predicates
// from the result of the main filter.
type Filter struct {
	Criteria []Criterion
	Exclude  []Criterion
}

// Eq builds an equality criterion
func Eq(field string, value any) Criterion {
	return Criterion{Field: field, Op: OpEquals, Value: value}
}

// Contains builds a case-insensitive substring criterion
func Contains(field string, value string) Criterion {
	return Criterion{Field: field, Op: OpContains, Value: value}
}

// In builds a member-of criterion
func In(field string, values []int64) Criterion {
	return Criterion{Field: field, Op: OpIn, Value: values}
}

// NotEq builds an inequality criterion
func NotEq(field string, value any) Criterion {
	return Criterion{Field: field, Op: OpNotEquals, Value: value}
}

// buildWhere translates criteria into a WHERE clause with $n
// placeholders. Field names are validated against the entity's column
// allow-list before translation; nothing caller-supplied is ever
// interpolated into the SQL text except allow-listed identifiers.
func buildWhere(f Filter, columns map[string]bool) (string, []any, error) {
	var conditions []string
	var params []any
	n := 1

	appendCriterion := func(c Criterion, negate bool) error {
		if !columns[c.Field] {
			return fmt.Errorf("unknown filter field %q", c.Field)
		}
		switch c.Op {
		case OpEquals:
			op := "="
			if negate {
				op = "!="
			}
			conditions = append(conditions, fmt.Sprintf("%s %s $%d", c.Field, op, n))
			params = append(params, c.Value)
			n++
		case OpNotEquals:
			op := "!="
			if negate {
				op = "="
			}
			conditions = append(conditions, fmt.Sprintf("%s %s $%d", c.Field, op, n))
			params = append(params, c.Value)
			n++
		case OpContains:
			expr := fmt.Sprintf("%s ILIKE $%d", c.Field, n)
			if negate {
				expr = fmt.Sprintf("%s NOT ILIKE $%d", c.Field, n)
			}
			conditions = append(conditions, expr)
			params = append(params, "%"+fmt.Sprintf("%v", c.Value)+"%")
			n++
		case OpIn:
			values, ok := c.Value.([]int64)
			if !ok {
				return fmt.Errorf("IN criterion on %q requires []int64", c.Field)
			}
			if len(values) == 0 {
				// empty set matches nothing
				conditions = append(conditions, "FALSE")
				return nil
			}
			placeholders := make([]string, 0, len(values))
			for _, v := range values {
				placeholders = append(placeholders, fmt.Sprintf("$%d", n))
				params = append(params, v)
				n++
			}
			expr := fmt.Sprintf("%s IN (%s)", c.Field, strings.Join(placeholders, ", "))
			if negate {
				expr = fmt.Sprintf("%s NOT IN (%s)", c.Field, strings.Join(placeholders, ", "))
			}
			conditions = append(conditions, expr)
		default:
			return fmt.Errorf("unsupported operator %d on %q", c.Op, c.Field)
		}
		return nil
	}

	for _, c := range f.Criteria {
		if err := appendCriterion(c, false); err != nil {
			return "", nil, err
		}
	}
	for _, c := range f.Exclude {
		if err := appendCriterion(c, true); err != nil {
			return "", nil, err
		}
	}

	if len(conditions) == 0 {
		return "TRUE", nil, nil
	}
	return strings.Join(conditions, " AND "), params, nil
}
