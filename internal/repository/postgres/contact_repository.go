package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"mitaict-site/internal/domain"
)

const (
	contactColumns     = `id, name, email, phone, service, comment, status, created_at`
	createContactQuery = `
		INSERT INTO contacts (id, name, email, phone, service, comment, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`
	listContactsQuery  = `SELECT ` + contactColumns + ` FROM contacts ORDER BY created_at DESC, id`
	getContactQuery    = `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	updateContactQuery = `
		UPDATE contacts SET name = $1, email = $2, phone = $3, service = $4, comment = $5, status = $6
		WHERE id = $7
		RETURNING created_at`
	deleteContactQuery = `DELETE FROM contacts WHERE id = $1`
)

// ContactRepository implements domain.ContactRepository for PostgreSQL
type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func scanContact(row rowScanner) (*domain.Contact, error) {
	c := &domain.Contact{}
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Service, &c.Comment, &c.Status, &c.CreatedAt)
	return c, err
}

func (r *ContactRepository) Create(ctx context.Context, c *domain.Contact) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = domain.ContactStatusNew
	}
	err := r.db.QueryRowContext(ctx, createContactQuery,
		c.ID, c.Name, c.Email, c.Phone, c.Service, c.Comment, c.Status,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// List returns contacts newest first.
func (r *ContactRepository) List(ctx context.Context) ([]*domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx, listContactsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []*domain.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contacts: %w", err)
	}
	return contacts, nil
}

func (r *ContactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	c, err := scanContact(r.db.QueryRowContext(ctx, getContactQuery, id))
	if notFound(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return c, nil
}

func (r *ContactRepository) Update(ctx context.Context, c *domain.Contact) error {
	err := r.db.QueryRowContext(ctx, updateContactQuery,
		c.Name, c.Email, c.Phone, c.Service, c.Comment, c.Status, c.ID,
	).Scan(&c.CreatedAt)
	if notFound(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	return nil
}

func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.db, "contact", deleteContactQuery, id)
}
