package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mitaict-site/internal/domain"
	"mitaict-site/internal/service"
	"mitaict-site/internal/testutil"
)

type captchaFunc func(ctx context.Context, token, remoteIP string) error

func (f captchaFunc) Verify(ctx context.Context, token, remoteIP string) error {
	return f(ctx, token, remoteIP)
}

func TestSubmitContact(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(testutil.NewJSONRequest(t, http.MethodPost, "/api/contact", testutil.NewTestContact()))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := testutil.DecodeJSON[ContactResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, service.ContactSuccessMessage, resp.Message)

	contacts, err := env.contacts.List(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, domain.ContactStatusNew, contacts[0].Status)
	assert.Equal(t, []string{domain.EventContactSubmitted}, env.publisher.Types())
}

func TestSubmitContact_Validation(t *testing.T) {
	env := newTestEnv(t)

	sub := testutil.NewTestContact()
	sub.Email = "not-an-email"
	rec := env.serve(testutil.NewJSONRequest(t, http.MethodPost, "/api/contact", sub))
	testutil.AssertJSONError(t, rec, http.StatusBadRequest, "email must be a valid email")
	assert.Empty(t, env.publisher.Types())
}

func TestSubmitContact_Recaptcha(t *testing.T) {
	var gotToken, gotIP string
	env := newTestEnv(t, func(o *envOptions) {
		o.captcha = captchaFunc(func(_ context.Context, token, remoteIP string) error {
			gotToken, gotIP = token, remoteIP
			if token != "good" {
				return errors.New("score too low")
			}
			return nil
		})
	})

	sub := testutil.NewTestContact()
	sub.RecaptchaToken = "bad"
	rec := env.serve(testutil.NewJSONRequest(t, http.MethodPost, "/api/contact", sub))
	testutil.AssertJSONError(t, rec, http.StatusBadRequest, "reCAPTCHA verification failed")

	sub.RecaptchaToken = "good"
	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/contact", sub)
	req.Header.Set("X-Real-IP", "203.0.113.9")
	rec = env.serve(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "good", gotToken)
	assert.Equal(t, "203.0.113.9", gotIP)
}

func TestAdminContacts(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	sub := testutil.NewTestContact()
	rec := env.serve(testutil.NewJSONRequest(t, http.MethodPost, "/api/contact", sub))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.serve(testutil.NewAuthorizedRequest(t, http.MethodGet, "/api/admin/contacts", token, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	contacts := testutil.DecodeJSON[[]domain.Contact](t, rec)
	require.Len(t, contacts, 1)
	id := contacts[0].ID

	rec = env.serve(testutil.NewAuthorizedRequest(t, http.MethodGet, "/api/admin/contacts/"+id, token, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sub.Email, testutil.DecodeJSON[domain.Contact](t, rec).Email)

	update := contacts[0]
	update.Status = domain.ContactStatusContacted
	rec = env.serve(testutil.NewAuthorizedRequest(t, http.MethodPut, "/api/admin/contacts/"+id, token, update))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.ContactStatusContacted, testutil.DecodeJSON[domain.Contact](t, rec).Status)

	update.Status = "archived"
	rec = env.serve(testutil.NewAuthorizedRequest(t, http.MethodPut, "/api/admin/contacts/"+id, token, update))
	testutil.AssertJSONError(t, rec, http.StatusBadRequest, "status must be one of")

	rec = env.serve(testutil.NewAuthorizedRequest(t, http.MethodDelete, "/api/admin/contacts/"+id, token, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.serve(testutil.NewAuthorizedRequest(t, http.MethodGet, "/api/admin/contacts/"+id, token, nil))
	testutil.AssertJSONError(t, rec, http.StatusNotFound, "Not found")
}

func TestExportContacts(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	first := testutil.NewTestContact()
	first.Comment = "Needs a quote, \"urgent\""
	require.Equal(t, http.StatusCreated, env.serve(testutil.NewJSONRequest(t, http.MethodPost, "/api/contact", first)).Code)

	rec := env.serve(testutil.NewAuthorizedRequest(t, http.MethodGet, "/api/admin/contacts/export/CSV", token, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))

	disposition := rec.Header().Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(disposition, `attachment; filename="mita_contacts_`), disposition)
	assert.True(t, strings.HasSuffix(disposition, `.csv"`), disposition)

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "name", records[0][1])
	assert.Equal(t, first.Email, records[1][2])
	assert.Equal(t, first.Comment, records[1][5])
	_, err = time.Parse(time.RFC3339, records[1][7])
	assert.NoError(t, err)

	rec = env.serve(testutil.NewAuthorizedRequest(t, http.MethodGet, "/api/admin/contacts/export/xlsx", token, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, service.ExportContentType("xlsx"), rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasSuffix(rec.Header().Get("Content-Disposition"), `.xlsx"`))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	rec = env.serve(testutil.NewAuthorizedRequest(t, http.MethodGet, "/api/admin/contacts/export/pdf", token, nil))
	testutil.AssertJSONError(t, rec, http.StatusBadRequest, "Unsupported export format")

	rec = env.serve(testutil.NewJSONRequest(t, http.MethodGet, "/api/admin/contacts/export/csv", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
