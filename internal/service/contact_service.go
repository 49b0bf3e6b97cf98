package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"mitaict-site/internal/domain"
	"mitaict-site/internal/observability"
)

// ContactSuccessMessage is returned to visitors after a submission is stored.
const ContactSuccessMessage = "Thank you for contacting us. We will get back to you soon!"

// CaptchaVerifier checks a contact-form reCAPTCHA token.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

type ContactService struct {
	repo      domain.ContactRepository
	publisher domain.EventPublisher
	captcha   CaptchaVerifier
}

// NewContactService wires the contact workflow. captcha and publisher may be
// nil, which skips verification and event publishing.
func NewContactService(repo domain.ContactRepository, publisher domain.EventPublisher, captcha CaptchaVerifier) *ContactService {
	return &ContactService{repo: repo, publisher: publisher, captcha: captcha}
}

// Submit verifies and stores a public contact-form submission and announces
// it on the events bus.
func (s *ContactService) Submit(ctx context.Context, sub *domain.ContactSubmission, remoteIP string) (*domain.Contact, error) {
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Phone = strings.TrimSpace(sub.Phone)
	sub.Service = strings.TrimSpace(sub.Service)
	sub.Comment = strings.TrimSpace(sub.Comment)
	if err := validateStruct(sub); err != nil {
		return nil, err
	}

	if s.captcha != nil {
		if err := s.captcha.Verify(ctx, sub.RecaptchaToken, remoteIP); err != nil {
			observability.FromContext(ctx).Warn("recaptcha verification failed", slog.String("error", err.Error()))
			return nil, domain.ErrRecaptchaFailed
		}
	}

	contact := &domain.Contact{
		Name:    sub.Name,
		Email:   sub.Email,
		Phone:   sub.Phone,
		Service: sub.Service,
		Comment: sub.Comment,
		Status:  domain.ContactStatusNew,
	}
	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, err
	}
	observability.ContactsSubmitted.Inc()

	publish(ctx, s.publisher, domain.EventContactSubmitted, contact)
	return contact, nil
}

func (s *ContactService) List(ctx context.Context) ([]*domain.Contact, error) {
	return s.repo.List(ctx)
}

func (s *ContactService) Get(ctx context.Context, id string) (*domain.Contact, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ContactService) Update(ctx context.Context, contact *domain.Contact) error {
	if contact.Status == "" {
		contact.Status = domain.ContactStatusNew
	}
	if err := validateStruct(contact); err != nil {
		return err
	}
	return s.repo.Update(ctx, contact)
}

func (s *ContactService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

var contactExportHeader = []string{"id", "name", "email", "phone", "service", "comment", "status", "created_at"}

const contactSheet = "Contacts"

// Export formats.
const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
)

// ExportContentType returns the media type of an export format.
func ExportContentType(format string) string {
	if strings.EqualFold(format, ExportXLSX) {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Export writes every contact to w as "csv" or "xlsx".
func (s *ContactService) Export(ctx context.Context, format string, w io.Writer) error {
	format = strings.ToLower(format)
	if format != ExportCSV && format != ExportXLSX {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}

	contacts, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, []string{c.ID, c.Name, c.Email, c.Phone, c.Service, c.Comment, c.Status, c.CreatedAt.UTC().Format(time.RFC3339)})
	}
	if format == ExportXLSX {
		return writeContactsXLSX(w, rows)
	}
	return writeContactsCSV(w, rows)
}

func writeContactsCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(contactExportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv records: %w", err)
	}
	return nil
}

func writeContactsXLSX(w io.Writer, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), contactSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, row := range append([][]string{contactExportHeader}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(contactSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	if err := f.SetRowStyle(contactSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// publish sends a best-effort event. Failures are logged; the originating
// request still succeeds.
func publish(ctx context.Context, publisher domain.EventPublisher, eventType string, payload any) {
	if publisher == nil {
		return
	}
	logger := observability.FromContext(ctx)

	event, err := domain.NewEvent(eventType, payload)
	if err != nil {
		logger.Error("failed to build event", slog.String("type", eventType), slog.String("error", err.Error()))
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Error("failed to publish event", slog.String("type", eventType), slog.String("error", err.Error()))
	}
}
