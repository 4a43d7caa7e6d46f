package query

import (
	"strings"

	"gorm.io/gorm"
)

// GormQueryBuilder collects WHERE and ORDER BY fragments and applies them to a base query.
type GormQueryBuilder struct {
	db        *gorm.DB
	filters   []filterCondition
	sorts     []sortCondition
	limit     int
	offset    int
	hasLimits bool
}

type filterCondition struct {
	query string
	args  []interface{}
}

type sortCondition struct {
	field string
	order string
}

func NewGormQueryBuilder(initialQuery *gorm.DB) *GormQueryBuilder {
	return &GormQueryBuilder{
		db:      initialQuery,
		filters: make([]filterCondition, 0),
		sorts:   make([]sortCondition, 0),
	}
}

func (qb *GormQueryBuilder) AddFilter(query string, args ...interface{}) *GormQueryBuilder {
	qb.filters = append(qb.filters, filterCondition{
		query: query,
		args:  args,
	})
	return qb
}

// AddFilterIf adds the condition only when cond holds, for optional filter fields.
func (qb *GormQueryBuilder) AddFilterIf(cond bool, query string, args ...interface{}) *GormQueryBuilder {
	if !cond {
		return qb
	}
	return qb.AddFilter(query, args...)
}

// AddSort adds an ORDER BY term. Anything other than desc sorts ascending.
func (qb *GormQueryBuilder) AddSort(field, order string) *GormQueryBuilder {
	order = strings.ToLower(order)
	if order != "desc" {
		order = "asc"
	}
	qb.sorts = append(qb.sorts, sortCondition{
		field: field,
		order: order,
	})
	return qb
}

func (qb *GormQueryBuilder) SetPagination(limit, offset int) *GormQueryBuilder {
	qb.limit = limit
	qb.offset = offset
	qb.hasLimits = limit > 0
	return qb
}

// BuildForCount applies filters only.
func (qb *GormQueryBuilder) BuildForCount() *gorm.DB {
	query := qb.db
	for _, filter := range qb.filters {
		query = query.Where(filter.query, filter.args...)
	}
	return query
}

func (qb *GormQueryBuilder) Build() *gorm.DB {
	query := qb.BuildForCount()

	for _, sort := range qb.sorts {
		query = query.Order(sort.field + " " + sort.order)
	}

	if qb.hasLimits {
		query = query.Limit(qb.limit).Offset(qb.offset)
	}

	return query
}
