package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"mitaict-site/internal/domain"
)

const (
	listServicesQuery = `
		SELECT id, title, description, icon, created_at, updated_at
		FROM services
		ORDER BY created_at, id`
	getServiceQuery = `
		SELECT id, title, description, icon, created_at, updated_at
		FROM services
		WHERE id = $1`
	createServiceQuery = `
		INSERT INTO services (id, title, description, icon)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`
	updateServiceQuery = `
		UPDATE services SET title = $1, description = $2, icon = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING created_at, updated_at`
	deleteServiceQuery = `DELETE FROM services WHERE id = $1`
	countServicesQuery = `SELECT COUNT(*) FROM services`

	listProductsQuery = `
		SELECT id, title, description, link, features, created_at, updated_at
		FROM saas_products
		ORDER BY created_at, id`
	getProductQuery = `
		SELECT id, title, description, link, features, created_at, updated_at
		FROM saas_products
		WHERE id = $1`
	createProductQuery = `
		INSERT INTO saas_products (id, title, description, link, features)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`
	updateProductQuery = `
		UPDATE saas_products SET title = $1, description = $2, link = $3, features = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING created_at, updated_at`
	deleteProductQuery = `DELETE FROM saas_products WHERE id = $1`
	countProductsQuery = `SELECT COUNT(*) FROM saas_products`
)

// ServiceRepository implements domain.ServiceRepository for PostgreSQL
type ServiceRepository struct {
	db *sql.DB
}

func NewServiceRepository(db *sql.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) List(ctx context.Context) ([]*domain.Service, error) {
	rows, err := r.db.QueryContext(ctx, listServicesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	services := []*domain.Service{}
	for rows.Next() {
		s := &domain.Service{}
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.Icon, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate services: %w", err)
	}
	return services, nil
}

func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	s := &domain.Service{}
	err := r.db.QueryRowContext(ctx, getServiceQuery, id).
		Scan(&s.ID, &s.Title, &s.Description, &s.Icon, &s.CreatedAt, &s.UpdatedAt)
	if notFound(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return s, nil
}

func (r *ServiceRepository) Create(ctx context.Context, s *domain.Service) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	err := r.db.QueryRowContext(ctx, createServiceQuery, s.ID, s.Title, s.Description, s.Icon).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

func (r *ServiceRepository) Update(ctx context.Context, s *domain.Service) error {
	err := r.db.QueryRowContext(ctx, updateServiceQuery, s.Title, s.Description, s.Icon, s.ID).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if notFound(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}
	return nil
}

func (r *ServiceRepository) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.db, "service", deleteServiceQuery, id)
}

func (r *ServiceRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "services", countServicesQuery)
}

// SaasProductRepository implements domain.SaasProductRepository for PostgreSQL
type SaasProductRepository struct {
	db *sql.DB
}

func NewSaasProductRepository(db *sql.DB) *SaasProductRepository {
	return &SaasProductRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.SaasProduct, error) {
	p := &domain.SaasProduct{}
	var features []byte
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Link, &features, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Features = []string{}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &p.Features); err != nil {
			return nil, fmt.Errorf("failed to decode features: %w", err)
		}
	}
	return p, nil
}

func encodeFeatures(features []string) ([]byte, error) {
	if features == nil {
		features = []string{}
	}
	raw, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("failed to encode features: %w", err)
	}
	return raw, nil
}

func (r *SaasProductRepository) List(ctx context.Context) ([]*domain.SaasProduct, error) {
	rows, err := r.db.QueryContext(ctx, listProductsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list saas products: %w", err)
	}
	defer rows.Close()

	products := []*domain.SaasProduct{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saas product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate saas products: %w", err)
	}
	return products, nil
}

func (r *SaasProductRepository) GetByID(ctx context.Context, id string) (*domain.SaasProduct, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, getProductQuery, id))
	if notFound(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get saas product: %w", err)
	}
	return p, nil
}

func (r *SaasProductRepository) Create(ctx context.Context, p *domain.SaasProduct) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	features, err := encodeFeatures(p.Features)
	if err != nil {
		return err
	}
	err = r.db.QueryRowContext(ctx, createProductQuery, p.ID, p.Title, p.Description, p.Link, features).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create saas product: %w", err)
	}
	return nil
}

func (r *SaasProductRepository) Update(ctx context.Context, p *domain.SaasProduct) error {
	features, err := encodeFeatures(p.Features)
	if err != nil {
		return err
	}
	err = r.db.QueryRowContext(ctx, updateProductQuery, p.Title, p.Description, p.Link, features, p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if notFound(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update saas product: %w", err)
	}
	return nil
}

func (r *SaasProductRepository) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.db, "saas product", deleteProductQuery, id)
}

func (r *SaasProductRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "saas products", countProductsQuery)
}

// deleteOne runs a single-row delete and maps zero affected rows to
// domain.ErrNotFound.
func deleteOne(ctx context.Context, db *sql.DB, entity, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if IsInvalidText(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", entity, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func count(ctx context.Context, db *sql.DB, entity, query string) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", entity, err)
	}
	return n, nil
}
