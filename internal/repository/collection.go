package repository

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/prepwise/internal/domain"
	"github.com/cloo-solutions/prepwise/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CollectionRepository is a read-only Postgres store for one collection.
type CollectionRepository[T domain.Record] struct {
	db    dbtx
	table table
	scan  func(row pgx.Row) (T, error)
}

func NewQuestionRepository(pool *pgxpool.Pool) *CollectionRepository[domain.Question] {
	return &CollectionRepository[domain.Question]{db: pool, table: questionsTable, scan: scanQuestion}
}

func NewExperienceRepository(pool *pgxpool.Pool) *CollectionRepository[domain.Experience] {
	return &CollectionRepository[domain.Experience]{db: pool, table: experiencesTable, scan: scanExperience}
}

func NewMaterialRepository(pool *pgxpool.Pool) *CollectionRepository[domain.Material] {
	return &CollectionRepository[domain.Material]{db: pool, table: materialsTable, scan: scanMaterial}
}

func NewCompanyRepository(pool *pgxpool.Pool) *CollectionRepository[domain.Company] {
	return &CollectionRepository[domain.Company]{db: pool, table: companiesTable, scan: scanCompany}
}

func NewUserRepository(pool *pgxpool.Pool) *CollectionRepository[domain.User] {
	return &CollectionRepository[domain.User]{db: pool, table: usersTable, scan: scanUser}
}

// NewStores wires every collection to the pool.
func NewStores(pool *pgxpool.Pool) service.Stores {
	return service.Stores{
		Questions:   NewQuestionRepository(pool),
		Experiences: NewExperienceRepository(pool),
		Materials:   NewMaterialRepository(pool),
		Companies:   NewCompanyRepository(pool),
		Users:       NewUserRepository(pool),
	}
}

// FindByTextAndFilters returns records where any term occurs in a text
// column, newest first. No terms means filter-only.
func (r *CollectionRepository[T]) FindByTextAndFilters(ctx context.Context, terms []string, filters domain.SearchFilters, limit int) ([]T, error) {
	var b queryBuilder
	b.applyTerms(r.table, terms)
	b.applyFilters(r.table, filters)

	order, _ := orderBy(r.table, nil)
	query := fmt.Sprintf("SELECT %s FROM %s%s%s", r.table.selectList(), r.table.name, b.whereClause(), order)
	if limit > 0 {
		query += " LIMIT " + b.arg(limit)
	}
	return r.query(ctx, query, b.args)
}

func (r *CollectionRepository[T]) FindByFieldCriteria(ctx context.Context, criteria domain.Criteria, sort []domain.SortField, limit int) ([]T, error) {
	var b queryBuilder
	if err := b.applyCriteria(r.table, criteria); err != nil {
		return nil, err
	}
	order, err := orderBy(r.table, sort)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s%s", r.table.selectList(), r.table.name, b.whereClause(), order)
	if limit > 0 {
		query += " LIMIT " + b.arg(limit)
	}
	return r.query(ctx, query, b.args)
}

func (r *CollectionRepository[T]) CountMatching(ctx context.Context, criteria domain.Criteria) (int, error) {
	var b queryBuilder
	if err := b.applyCriteria(r.table, criteria); err != nil {
		return 0, err
	}

	var count int
	err := r.db.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s%s", r.table.name, b.whereClause()),
		b.args...,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *CollectionRepository[T]) query(ctx context.Context, query string, args []any) ([]T, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
