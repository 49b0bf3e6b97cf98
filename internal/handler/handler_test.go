package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"mitaict-site/internal/domain"
	"mitaict-site/internal/llm"
	"mitaict-site/internal/middleware"
	"mitaict-site/internal/service"
	"mitaict-site/internal/testutil"
	ws "mitaict-site/internal/websocket"
)

const (
	testUsername = "admin"
	testPassword = "admin123"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type identityFunc func(ctx context.Context, code string) (string, error)

func (f identityFunc) VerifiedEmail(ctx context.Context, code string) (string, error) {
	return f(ctx, code)
}

// testEnv is a router over in-memory repositories.
type testEnv struct {
	router    *Router
	admin     *domain.Admin
	admins    *testutil.MockAdminRepository
	sessions  *testutil.MockSessionRepository
	services  *testutil.MockServiceRepository
	products  *testutil.MockSaasProductRepository
	contacts  *testutil.MockContactRepository
	chats     *testutil.MockChatSessionRepository
	meetings  *testutil.MockMeetingRequestRepository
	settings  *testutil.MockSettingsRepository
	publisher *testutil.MockEventPublisher
	model     *llm.ScriptedClient
	hub       *ws.Hub
}

type envOptions struct {
	authOpts []service.AuthOption
	captcha  service.CaptchaVerifier
	openAPI  *middleware.OpenAPIValidatorConfig
	origins  []string
}

func newTestEnv(t *testing.T, opts ...func(*envOptions)) *testEnv {
	t.Helper()
	o := &envOptions{
		openAPI: &middleware.OpenAPIValidatorConfig{Enabled: false},
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(o)
	}

	env := &testEnv{
		admins:    testutil.NewMockAdminRepository(),
		sessions:  testutil.NewMockSessionRepository(),
		services:  testutil.NewMockServiceRepository(),
		products:  testutil.NewMockSaasProductRepository(),
		contacts:  testutil.NewMockContactRepository(),
		chats:     testutil.NewMockChatSessionRepository(),
		meetings:  testutil.NewMockMeetingRequestRepository(),
		settings:  testutil.NewMockSettingsRepository(),
		publisher: testutil.NewMockEventPublisher(),
		model:     llm.NewScriptedClient(),
		hub:       ws.NewHub(),
	}
	env.admins.Sessions = env.sessions
	env.admin = testutil.NewTestAdmin(testutil.WithUsername(testUsername), testutil.WithPassword(testPassword))
	env.admins.Admins[env.admin.ID] = env.admin

	authOpts := append([]service.AuthOption{service.WithHashCost(bcrypt.MinCost)}, o.authOpts...)
	auth := service.NewAuthService(env.admins, env.sessions, authOpts...)
	content := service.NewContentService(env.services, env.products, env.settings)

	var contacts *service.ContactService
	if o.captcha != nil {
		contacts = service.NewContactService(env.contacts, env.publisher, o.captcha)
	} else {
		contacts = service.NewContactService(env.contacts, env.publisher, nil)
	}
	chat := service.NewChatService(env.chats, env.meetings, content, env.model, env.publisher, time.Second)

	env.router = NewRouter(RouterConfig{
		AllowedOrigins: o.origins,
		RateLimitRPS:   100,
		RateLimitBurst: 100,
		OpenAPI:        o.openAPI,
	}, Deps{
		Auth:     auth,
		Content:  content,
		Contacts: contacts,
		Chat:     chat,
		Hub:      env.hub,
		DB:       pingFunc(func(context.Context) error { return nil }),
	})
	t.Cleanup(env.router.Close)
	return env
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// login returns a bearer token for the seeded admin.
func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	rec := e.serve(testutil.NewJSONRequest(t, http.MethodPost, "/api/admin/login",
		LoginRequest{Username: testUsername, Password: testPassword}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return testutil.DecodeJSON[TokenResponse](t, rec).AccessToken
}
