package http

import (
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
)

type testServer struct {
	app   *fiber.App
	store *repository.MemoryStore
}

type serverOption func(*config.Config, *ServerDependencies)

func withCSRF() serverOption {
	return func(cfg *config.Config, _ *ServerDependencies) { cfg.Session.CSRFEnabled = true }
}

func withRedisSessions(t *testing.T) serverOption {
	return func(_ *config.Config, deps *ServerDependencies) {
		mr := miniredis.RunT(t)
		r := &persistence.Redis{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
		t.Cleanup(r.Close)
		deps.Redis = r
		deps.SessionStorage = persistence.NewSessionStorage(r, "test:session:")
	}
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	cfg := &config.Config{
		App:     config.AppConfig{Name: "helpdesk-test", Version: "test", RequestTimeoutSeconds: 5},
		Auth:    config.AuthConfig{BcryptCost: bcrypt.MinCost},
		Session: config.SessionConfig{CookieName: "hd_session", TTLMinutes: 60},
	}

	store := repository.NewMemoryStore().WithClock(minuteClock())
	hasher, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	dispatcher := events.NewInMemoryDispatcher()
	service.NewActivityService(dispatcher, nil, metrics).RegisterHandlers()

	deps := ServerDependencies{
		Config:   cfg,
		Metrics:  metrics,
		Gatherer: reg,
		Users:    store.Users(),
		Auth: service.NewAuthService(service.AuthDependencies{
			UserRepo:   store.Users(),
			Hasher:     hasher,
			Dispatcher: dispatcher,
		}),
		Tickets: service.NewTicketService(service.TicketDependencies{
			TicketRepo: store.Tickets(),
			UserRepo:   store.Users(),
			Dispatcher: dispatcher,
		}),
	}
	for _, opt := range opts {
		opt(cfg, &deps)
	}

	app, err := NewServer(deps)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return &testServer{app: app, store: store}
}

// minuteClock advances one minute per reading so rendered timestamps,
// which are shown to the minute, differ between writes.
func minuteClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Minute)
		return now
	}
}

var lastUpdatedRe = regexp.MustCompile(`Last updated:</strong>\s*([^<]+)</p>`)

func lastUpdated(t *testing.T, p page) string {
	t.Helper()
	m := lastUpdatedRe.FindStringSubmatch(p.body)
	if m == nil {
		t.Fatalf("no last updated line in:\n%s", p.body)
	}
	return strings.TrimSpace(m[1])
}

// browser keeps cookies between requests and never follows redirects.
type browser struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]*nethttp.Cookie
}

func (s *testServer) browser(t *testing.T) *browser {
	return &browser{t: t, app: s.app, cookies: map[string]*nethttp.Cookie{}}
}

type page struct {
	status   int
	location string
	body     string
}

func (b *browser) do(req *nethttp.Request) page {
	b.t.Helper()
	for _, ck := range b.cookies {
		req.AddCookie(ck)
	}
	resp, err := b.app.Test(req, -1)
	if err != nil {
		b.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	for _, ck := range resp.Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(b.cookies, ck.Name)
			continue
		}
		b.cookies[ck.Name] = ck
	}
	body, _ := io.ReadAll(resp.Body)
	return page{status: resp.StatusCode, location: resp.Header.Get("Location"), body: string(body)}
}

func (b *browser) get(path string) page {
	b.t.Helper()
	return b.do(httptest.NewRequest(nethttp.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) page {
	b.t.Helper()
	req := httptest.NewRequest(nethttp.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return b.do(req)
}

func (b *browser) register(username, role string) page {
	b.t.Helper()
	return b.post("/register", url.Values{
		"username": {username},
		"email":    {username + "@example.com"},
		"password": {"secret1"},
		"role":     {role},
	})
}

func (b *browser) login(username, password string) page {
	b.t.Helper()
	return b.post("/login", url.Values{"username": {username}, "password": {password}})
}

func expectRedirect(t *testing.T, p page, location string) {
	t.Helper()
	if p.status != fiber.StatusFound || p.location != location {
		t.Fatalf("status=%d location=%q, want 302 %q", p.status, p.location, location)
	}
}

func expectBody(t *testing.T, p page, fragments ...string) {
	t.Helper()
	for _, f := range fragments {
		if !strings.Contains(p.body, f) {
			t.Fatalf("body missing %q:\n%s", f, p.body)
		}
	}
}

func (s *testServer) onlyTicket(t *testing.T) domain.Ticket {
	t.Helper()
	all, err := s.store.Tickets().ListAll(context.Background())
	if err != nil || len(all) != 1 {
		t.Fatalf("tickets = %+v, err = %v", all, err)
	}
	return all[0]
}

func ticketURL(id int64) string {
	return "/ticket/" + itoa(id)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestHelpdeskFlow(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.browser(t)

	expectRedirect(t, alice.register("alice", "user"), "/login")
	expectBody(t, alice.get("/login"), "Registration successful! Please log in.")

	expectRedirect(t, alice.login("alice", "secret1"), "/user/dashboard")
	dash := alice.get("/user/dashboard")
	expectBody(t, dash, "Welcome back, alice!", "You have not created any tickets yet.")

	expectRedirect(t, alice.post("/create_ticket", url.Values{
		"subject":     {"Printer broken"},
		"description": {"Paper jam on floor 2"},
	}), "/user/dashboard")
	expectBody(t, alice.get("/user/dashboard"), "Ticket created successfully!", "Printer broken", "Open")

	ticket := srv.onlyTicket(t)
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("new ticket status = %s", ticket.Status)
	}
	detail := ticketURL(ticket.ID)

	bob := srv.browser(t)
	expectRedirect(t, bob.register("bob", "agent"), "/login")
	expectRedirect(t, bob.login("bob", "secret1"), "/agent/dashboard")
	expectBody(t, bob.get("/agent/dashboard"), "Welcome back, bob!", "Printer broken", "alice")

	before := lastUpdated(t, bob.get(detail))

	expectRedirect(t, bob.post("/update_ticket_status/"+itoa(ticket.ID), url.Values{"status": {"In Progress"}}), detail)
	after := bob.get(detail)
	expectBody(t, after, "Ticket status updated to In Progress", "status-in-progress")
	if got := lastUpdated(t, after); got == before {
		t.Fatalf("last updated still %q after status change", got)
	}

	updated := srv.onlyTicket(t)
	if updated.Status != domain.TicketStatusInProgress {
		t.Fatalf("status = %s", updated.Status)
	}
	if !updated.UpdatedAt.After(ticket.UpdatedAt) {
		t.Fatalf("updated_at not refreshed: %v, was %v", updated.UpdatedAt, ticket.UpdatedAt)
	}
	if !updated.CreatedAt.Equal(ticket.CreatedAt) {
		t.Fatalf("created_at changed: %v, was %v", updated.CreatedAt, ticket.CreatedAt)
	}

	// The owner sees the change too.
	expectBody(t, alice.get(detail), "Printer broken", "In Progress")
}

func TestStoredUsersSurviveLaterRequests(t *testing.T) {
	srv := newTestServer(t)
	b := srv.browser(t)

	expectRedirect(t, b.register("alice", "user"), "/login")
	expectRedirect(t, b.register("bob", "agent"), "/login")

	u, err := srv.store.Users().GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername(alice) after other traffic: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("email = %q", u.Email)
	}
	expectRedirect(t, b.login("alice", "secret1"), "/user/dashboard")

	expectRedirect(t, b.post("/create_ticket", url.Values{
		"subject":     {"Printer broken"},
		"description": {"Paper jam on floor 2"},
	}), "/user/dashboard")
	b.get("/user/dashboard")
	b.get("/logout")

	agent := srv.browser(t)
	expectRedirect(t, agent.login("bob", "secret1"), "/agent/dashboard")
	expectBody(t, agent.get("/agent/dashboard"), "Printer broken", "alice")

	ticket := srv.onlyTicket(t)
	if ticket.Subject != "Printer broken" || ticket.Description != "Paper jam on floor 2" {
		t.Fatalf("stored ticket = %+v", ticket)
	}
}

func TestTicketAccessControl(t *testing.T) {
	srv := newTestServer(t)

	alice := srv.browser(t)
	alice.register("alice", "user")
	alice.login("alice", "secret1")
	alice.post("/create_ticket", url.Values{"subject": {"Printer broken"}, "description": {"jam"}})
	ticket := srv.onlyTicket(t)

	carol := srv.browser(t)
	carol.register("carol", "user")
	carol.login("carol", "secret1")
	carol.get("/user/dashboard")

	expectRedirect(t, carol.get(ticketURL(ticket.ID)), "/user/dashboard")
	expectBody(t, carol.get("/user/dashboard"), "Access denied")

	// A missing ticket looks the same as someone else's.
	expectRedirect(t, carol.get("/ticket/999"), "/user/dashboard")
	expectBody(t, carol.get("/user/dashboard"), "Access denied")

	// End users cannot reach staff routes.
	expectRedirect(t, carol.get("/agent/dashboard"), "/login")
	expectBody(t, carol.get("/login"), "Access denied")
	expectRedirect(t, carol.post("/update_ticket_status/"+itoa(ticket.ID), url.Values{"status": {"Resolved"}}), "/login")
	if got := srv.onlyTicket(t).Status; got != domain.TicketStatusOpen {
		t.Fatalf("user changed status to %s", got)
	}

	bob := srv.browser(t)
	bob.register("bob", "agent")
	bob.login("bob", "secret1")
	bob.get("/agent/dashboard")

	// Staff cannot file tickets.
	expectRedirect(t, bob.get("/create_ticket"), "/login")
	bob.get("/login")

	expectRedirect(t, bob.get("/ticket/999"), "/agent/dashboard")
	expectBody(t, bob.get("/agent/dashboard"), "Ticket not found")

	expectRedirect(t, bob.post("/update_ticket_status/999", url.Values{"status": {"Resolved"}}), "/agent/dashboard")
	expectBody(t, bob.get("/agent/dashboard"), "Ticket not found")

	detail := ticketURL(ticket.ID)
	expectRedirect(t, bob.post("/update_ticket_status/"+itoa(ticket.ID), url.Values{"status": {"Closed"}}), detail)
	expectBody(t, bob.get(detail), "Invalid status")
	if got := srv.onlyTicket(t).Status; got != domain.TicketStatusOpen {
		t.Fatalf("invalid status changed ticket to %s", got)
	}
}

func TestAnonymousRedirects(t *testing.T) {
	srv := newTestServer(t)
	anon := srv.browser(t)

	for _, path := range []string{"/", "/user/dashboard", "/agent/dashboard", "/create_ticket", "/ticket/1"} {
		p := anon.get(path)
		expectRedirect(t, p, "/login")
	}
	expectRedirect(t, anon.post("/update_ticket_status/1", url.Values{"status": {"Open"}}), "/login")

	login := anon.get("/login")
	if strings.Contains(login.body, "Access denied") {
		t.Fatal("anonymous redirect should not flash a message")
	}
}

func TestRegistrationFailures(t *testing.T) {
	srv := newTestServer(t)
	b := srv.browser(t)

	p := b.register("root", "admin")
	if p.status != fiber.StatusBadRequest {
		t.Fatalf("admin registration status = %d", p.status)
	}
	expectBody(t, p, "Invalid role selected")

	b.register("alice", "user")
	p = b.register("alice", "agent")
	if p.status != fiber.StatusConflict {
		t.Fatalf("duplicate username status = %d", p.status)
	}
	expectBody(t, p, "Username already exists")

	p = b.post("/register", url.Values{
		"username": {"alice2"},
		"email":    {"alice@example.com"},
		"password": {"secret1"},
		"role":     {"user"},
	})
	if p.status != fiber.StatusConflict {
		t.Fatalf("duplicate email status = %d", p.status)
	}
	expectBody(t, p, "Email already exists", `value="alice2"`)
}

func TestLoginFailureAndLogout(t *testing.T) {
	srv := newTestServer(t)
	b := srv.browser(t)
	b.register("alice", "user")

	for _, creds := range [][2]string{{"alice", "wrong"}, {"nobody", "secret1"}} {
		p := b.login(creds[0], creds[1])
		if p.status != fiber.StatusUnauthorized {
			t.Fatalf("login %v status = %d", creds, p.status)
		}
		expectBody(t, p, "Invalid username or password")
	}

	expectRedirect(t, b.login("alice", "secret1"), "/user/dashboard")
	expectRedirect(t, b.get("/"), "/user/dashboard")

	expectRedirect(t, b.get("/logout"), "/login")
	expectBody(t, b.get("/login"), "You have been logged out")
	expectRedirect(t, b.get("/user/dashboard"), "/login")
}

func TestCreateTicketValidation(t *testing.T) {
	srv := newTestServer(t)
	b := srv.browser(t)
	b.register("alice", "user")
	b.login("alice", "secret1")
	b.get("/user/dashboard")

	p := b.post("/create_ticket", url.Values{"subject": {"Printer broken"}, "description": {""}})
	if p.status != fiber.StatusBadRequest {
		t.Fatalf("status = %d", p.status)
	}
	expectBody(t, p, "Subject and description are required", `value="Printer broken"`)

	all, _ := srv.store.Tickets().ListAll(context.Background())
	if len(all) != 0 {
		t.Fatalf("invalid form stored %d tickets", len(all))
	}
}

func TestAdminSeesQueue(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	hasher, _ := auth.NewPasswordHasher(bcrypt.MinCost)
	authSvc := service.NewAuthService(service.AuthDependencies{UserRepo: srv.store.Users(), Hasher: hasher})
	if err := authSvc.EnsureAdmin(ctx, config.AuthConfig{AdminUsername: "root", AdminEmail: "root@example.com", AdminPassword: "toor"}); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}

	admin := srv.browser(t)
	expectRedirect(t, admin.login("root", "toor"), "/agent/dashboard")
	expectBody(t, admin.get("/agent/dashboard"), "All tickets")
}

func TestProbesAndMetrics(t *testing.T) {
	srv := newTestServer(t)
	b := srv.browser(t)

	p := b.get("/health/live")
	if p.status != fiber.StatusOK {
		t.Fatalf("live status = %d", p.status)
	}
	expectBody(t, p, `"status":"alive"`)

	p = b.get("/health/ready")
	if p.status != fiber.StatusOK {
		t.Fatalf("ready status = %d body=%s", p.status, p.body)
	}
	expectBody(t, p, `"store":"memory"`, `"sessions":"memory"`)

	if len(b.cookies) != 0 {
		t.Fatalf("probes set cookies: %v", b.cookies)
	}

	p = b.get("/metrics")
	if p.status != fiber.StatusOK {
		t.Fatalf("metrics status = %d", p.status)
	}
	expectBody(t, p, "helpdesk_http_requests_total")
}

func TestUnknownRouteRendersErrorPage(t *testing.T) {
	srv := newTestServer(t)
	p := srv.browser(t).get("/nope")
	if p.status != fiber.StatusNotFound {
		t.Fatalf("status = %d", p.status)
	}
	expectBody(t, p, "404", "Not Found")
}

func TestCSRFRejectsFormWithoutToken(t *testing.T) {
	srv := newTestServer(t, withCSRF())
	b := srv.browser(t)

	p := b.get("/login")
	expectBody(t, p, `name="csrf_token"`)

	p = b.login("alice", "secret1")
	if p.status != fiber.StatusForbidden {
		t.Fatalf("status = %d, want 403", p.status)
	}
}

func TestRedisBackedSessions(t *testing.T) {
	srv := newTestServer(t, withRedisSessions(t))
	b := srv.browser(t)

	b.register("alice", "user")
	expectRedirect(t, b.login("alice", "secret1"), "/user/dashboard")
	expectBody(t, b.get("/user/dashboard"), "Welcome back, alice!")

	p := b.get("/health/ready")
	expectBody(t, p, `"sessions":"ok"`)
}
