package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/handler"
	"github.com/adityardiansyah/smart-agen/internal/middleware"
	"github.com/adityardiansyah/smart-agen/internal/service"
)

// The mocks below are test doubles for the handler service interfaces.
// Set only the method fields your test needs; calling an unset one panics.

type mockAreaServicer struct {
	create       func(ctx context.Context, scope domain.AreaScope, area domain.Area) (domain.Area, error)
	getByID      func(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Area, error)
	listPaged    func(ctx context.Context, f domain.AreaFilter, p domain.PaginationParams) ([]domain.Area, int, error)
	stats        func(ctx context.Context, f domain.AreaFilter) (domain.StatusCounts, error)
	update       func(ctx context.Context, scope domain.AreaScope, area domain.Area) (domain.Area, error)
	toggleStatus func(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Area, error)
	delete       func(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error
}

func (m *mockAreaServicer) Create(ctx context.Context, scope domain.AreaScope, a domain.Area) (domain.Area, error) {
	return m.create(ctx, scope, a)
}
func (m *mockAreaServicer) GetByID(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Area, error) {
	return m.getByID(ctx, scope, id)
}
func (m *mockAreaServicer) ListPaged(ctx context.Context, f domain.AreaFilter, p domain.PaginationParams) ([]domain.Area, int, error) {
	return m.listPaged(ctx, f, p)
}
func (m *mockAreaServicer) Stats(ctx context.Context, f domain.AreaFilter) (domain.StatusCounts, error) {
	return m.stats(ctx, f)
}
func (m *mockAreaServicer) Update(ctx context.Context, scope domain.AreaScope, a domain.Area) (domain.Area, error) {
	return m.update(ctx, scope, a)
}
func (m *mockAreaServicer) ToggleStatus(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Area, error) {
	return m.toggleStatus(ctx, scope, id)
}
func (m *mockAreaServicer) Delete(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error {
	return m.delete(ctx, scope, id)
}

type mockRegionServicer struct {
	create     func(ctx context.Context, scope domain.AreaScope, region domain.Region) (domain.Region, error)
	listByArea func(ctx context.Context, scope domain.AreaScope, areaID uuid.UUID) ([]domain.Region, error)
	update     func(ctx context.Context, scope domain.AreaScope, region domain.Region) (domain.Region, error)
	delete     func(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error
}

func (m *mockRegionServicer) Create(ctx context.Context, scope domain.AreaScope, r domain.Region) (domain.Region, error) {
	return m.create(ctx, scope, r)
}
func (m *mockRegionServicer) ListByArea(ctx context.Context, scope domain.AreaScope, areaID uuid.UUID) ([]domain.Region, error) {
	return m.listByArea(ctx, scope, areaID)
}
func (m *mockRegionServicer) Update(ctx context.Context, scope domain.AreaScope, r domain.Region) (domain.Region, error) {
	return m.update(ctx, scope, r)
}
func (m *mockRegionServicer) Delete(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error {
	return m.delete(ctx, scope, id)
}

type mockAgencyServicer struct {
	create       func(ctx context.Context, scope domain.AreaScope, agency domain.Agency) (domain.Agency, error)
	getTree      func(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.AgencyTree, error)
	listPaged    func(ctx context.Context, f domain.AgencyFilter, p domain.PaginationParams) ([]domain.Agency, int, error)
	stats        func(ctx context.Context, f domain.AgencyFilter) (domain.StatusCounts, error)
	update       func(ctx context.Context, scope domain.AreaScope, agency domain.Agency) (domain.Agency, error)
	toggleStatus func(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Agency, error)
	delete       func(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error
}

func (m *mockAgencyServicer) Create(ctx context.Context, scope domain.AreaScope, a domain.Agency) (domain.Agency, error) {
	return m.create(ctx, scope, a)
}
func (m *mockAgencyServicer) GetTree(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.AgencyTree, error) {
	return m.getTree(ctx, scope, id)
}
func (m *mockAgencyServicer) ListPaged(ctx context.Context, f domain.AgencyFilter, p domain.PaginationParams) ([]domain.Agency, int, error) {
	return m.listPaged(ctx, f, p)
}
func (m *mockAgencyServicer) Stats(ctx context.Context, f domain.AgencyFilter) (domain.StatusCounts, error) {
	return m.stats(ctx, f)
}
func (m *mockAgencyServicer) Update(ctx context.Context, scope domain.AreaScope, a domain.Agency) (domain.Agency, error) {
	return m.update(ctx, scope, a)
}
func (m *mockAgencyServicer) ToggleStatus(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Agency, error) {
	return m.toggleStatus(ctx, scope, id)
}
func (m *mockAgencyServicer) Delete(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error {
	return m.delete(ctx, scope, id)
}

type mockFleetServicer struct {
	create       func(ctx context.Context, scope domain.AreaScope, fleet domain.Fleet) (domain.Fleet, error)
	register     func(ctx context.Context, scope domain.AreaScope, reg domain.FleetRegistration) (domain.FleetView, error)
	getView      func(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.FleetView, error)
	listPaged    func(ctx context.Context, f domain.FleetFilter, p domain.PaginationParams) ([]domain.FleetView, int, error)
	stats        func(ctx context.Context, f domain.FleetFilter) (domain.FleetStats, error)
	update       func(ctx context.Context, scope domain.AreaScope, fleet domain.Fleet) (domain.Fleet, error)
	toggleStatus func(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Fleet, error)
	delete       func(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error
}

func (m *mockFleetServicer) Create(ctx context.Context, scope domain.AreaScope, f domain.Fleet) (domain.Fleet, error) {
	return m.create(ctx, scope, f)
}
func (m *mockFleetServicer) Register(ctx context.Context, scope domain.AreaScope, reg domain.FleetRegistration) (domain.FleetView, error) {
	return m.register(ctx, scope, reg)
}
func (m *mockFleetServicer) GetView(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.FleetView, error) {
	return m.getView(ctx, scope, id)
}
func (m *mockFleetServicer) ListPaged(ctx context.Context, f domain.FleetFilter, p domain.PaginationParams) ([]domain.FleetView, int, error) {
	return m.listPaged(ctx, f, p)
}
func (m *mockFleetServicer) Stats(ctx context.Context, f domain.FleetFilter) (domain.FleetStats, error) {
	return m.stats(ctx, f)
}
func (m *mockFleetServicer) Update(ctx context.Context, scope domain.AreaScope, f domain.Fleet) (domain.Fleet, error) {
	return m.update(ctx, scope, f)
}
func (m *mockFleetServicer) ToggleStatus(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Fleet, error) {
	return m.toggleStatus(ctx, scope, id)
}
func (m *mockFleetServicer) Delete(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error {
	return m.delete(ctx, scope, id)
}

type mockDriverServicer struct {
	create       func(ctx context.Context, scope domain.AreaScope, driver domain.Driver) (domain.Driver, error)
	getByID      func(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Driver, error)
	listPaged    func(ctx context.Context, f domain.DriverFilter, p domain.PaginationParams) ([]domain.Driver, int, error)
	stats        func(ctx context.Context, f domain.DriverFilter) (domain.DriverStats, error)
	candidates   func(ctx context.Context, scope domain.AreaScope, fleetID uuid.UUID) ([]domain.Driver, error)
	update       func(ctx context.Context, scope domain.AreaScope, driver domain.Driver) (domain.Driver, error)
	toggleStatus func(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Driver, error)
	delete       func(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error
}

func (m *mockDriverServicer) Create(ctx context.Context, scope domain.AreaScope, d domain.Driver) (domain.Driver, error) {
	return m.create(ctx, scope, d)
}
func (m *mockDriverServicer) GetByID(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Driver, error) {
	return m.getByID(ctx, scope, id)
}
func (m *mockDriverServicer) ListPaged(ctx context.Context, f domain.DriverFilter, p domain.PaginationParams) ([]domain.Driver, int, error) {
	return m.listPaged(ctx, f, p)
}
func (m *mockDriverServicer) Stats(ctx context.Context, f domain.DriverFilter) (domain.DriverStats, error) {
	return m.stats(ctx, f)
}
func (m *mockDriverServicer) Candidates(ctx context.Context, scope domain.AreaScope, fleetID uuid.UUID) ([]domain.Driver, error) {
	return m.candidates(ctx, scope, fleetID)
}
func (m *mockDriverServicer) Update(ctx context.Context, scope domain.AreaScope, d domain.Driver) (domain.Driver, error) {
	return m.update(ctx, scope, d)
}
func (m *mockDriverServicer) ToggleStatus(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Driver, error) {
	return m.toggleStatus(ctx, scope, id)
}
func (m *mockDriverServicer) Delete(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error {
	return m.delete(ctx, scope, id)
}

type mockAssignmentServicer struct {
	assignDriver func(ctx context.Context, scope domain.AreaScope, fleetID uuid.UUID, in domain.AssignDriverInput) (domain.FleetDrivers, error)
}

func (m *mockAssignmentServicer) AssignDriver(ctx context.Context, scope domain.AreaScope, fleetID uuid.UUID, in domain.AssignDriverInput) (domain.FleetDrivers, error) {
	return m.assignDriver(ctx, scope, fleetID, in)
}

type mockDocumentServicer struct {
	upload   func(ctx context.Context, scope domain.AreaScope, kind domain.DocumentKind, ownerID uuid.UUID, up service.Upload) (string, error)
	maxBytes int64
}

func (m *mockDocumentServicer) Upload(ctx context.Context, scope domain.AreaScope, kind domain.DocumentKind, ownerID uuid.UUID, up service.Upload) (string, error) {
	return m.upload(ctx, scope, kind, ownerID, up)
}
func (m *mockDocumentServicer) MaxBytes() int64 { return m.maxBytes }

type mockDashboardServicer struct {
	get func(ctx context.Context, scope domain.AreaScope, areaID uuid.UUID) (domain.Dashboard, error)
}

func (m *mockDashboardServicer) Get(ctx context.Context, scope domain.AreaScope, areaID uuid.UUID) (domain.Dashboard, error) {
	return m.get(ctx, scope, areaID)
}

type mockExportServicer struct {
	fleetRows func(ctx context.Context, scope domain.AreaScope, areaID *uuid.UUID) ([]domain.FleetExportRow, error)
	now       time.Time
}

func (m *mockExportServicer) FleetRows(ctx context.Context, scope domain.AreaScope, areaID *uuid.UUID) ([]domain.FleetExportRow, error) {
	return m.fleetRows(ctx, scope, areaID)
}
func (m *mockExportServicer) Now() time.Time { return m.now }

type mockAuthServicer struct {
	login func(ctx context.Context, email, password string) (service.Session, error)
}

func (m *mockAuthServicer) Login(ctx context.Context, email, password string) (service.Session, error) {
	return m.login(ctx, email, password)
}

type mockUserServicer struct {
	create       func(ctx context.Context, actor, user domain.User, password string) (domain.User, error)
	getByID      func(ctx context.Context, actor domain.User, id uuid.UUID) (domain.User, error)
	listPaged    func(ctx context.Context, actor domain.User, f domain.UserFilter, p domain.PaginationParams) ([]domain.User, int, error)
	update       func(ctx context.Context, actor, user domain.User, password string) (domain.User, error)
	toggleStatus func(ctx context.Context, actor domain.User, id uuid.UUID) (domain.User, error)
	delete       func(ctx context.Context, actor domain.User, id uuid.UUID) error
}

func (m *mockUserServicer) Create(ctx context.Context, actor, u domain.User, password string) (domain.User, error) {
	return m.create(ctx, actor, u, password)
}
func (m *mockUserServicer) GetByID(ctx context.Context, actor domain.User, id uuid.UUID) (domain.User, error) {
	return m.getByID(ctx, actor, id)
}
func (m *mockUserServicer) ListPaged(ctx context.Context, actor domain.User, f domain.UserFilter, p domain.PaginationParams) ([]domain.User, int, error) {
	return m.listPaged(ctx, actor, f, p)
}
func (m *mockUserServicer) Update(ctx context.Context, actor, u domain.User, password string) (domain.User, error) {
	return m.update(ctx, actor, u, password)
}
func (m *mockUserServicer) ToggleStatus(ctx context.Context, actor domain.User, id uuid.UUID) (domain.User, error) {
	return m.toggleStatus(ctx, actor, id)
}
func (m *mockUserServicer) Delete(ctx context.Context, actor domain.User, id uuid.UUID) error {
	return m.delete(ctx, actor, id)
}

// compile-time checks: every mock must satisfy its handler interface.
var (
	_ handler.AreaServicer       = (*mockAreaServicer)(nil)
	_ handler.RegionServicer     = (*mockRegionServicer)(nil)
	_ handler.AgencyServicer     = (*mockAgencyServicer)(nil)
	_ handler.FleetServicer      = (*mockFleetServicer)(nil)
	_ handler.DriverServicer     = (*mockDriverServicer)(nil)
	_ handler.AssignmentServicer = (*mockAssignmentServicer)(nil)
	_ handler.DocumentServicer   = (*mockDocumentServicer)(nil)
	_ handler.DashboardServicer  = (*mockDashboardServicer)(nil)
	_ handler.ExportServicer     = (*mockExportServicer)(nil)
	_ handler.AuthServicer       = (*mockAuthServicer)(nil)
	_ handler.UserServicer       = (*mockUserServicer)(nil)
)

// ---- helpers ---------------------------------------------------------------

var (
	fixedNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	superAdmin = domain.User{ID: uuid.New(), Name: "Root", Email: "root@example.com", Role: domain.RoleSuperAdmin, IsActive: true}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newHTTPHandler wires a Server with the given services onto a chi router
// the same way main.go does. When user is non-nil every request is
// authenticated as that user.
func newHTTPHandler(svc handler.Services, user *domain.User) http.Handler {
	srv := handler.NewServer(svc, discardLogger()).WithClock(func() time.Time { return fixedNow })
	var opts handler.RouteOptions
	if user != nil {
		u := *user
		opts.Authenticate = func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), u)))
			})
		}
	}
	return newRouter(srv, opts)
}

func newRouter(srv *handler.Server, opts handler.RouteOptions) http.Handler {
	r := chi.NewRouter()
	srv.Routes(r, opts)
	return r
}

// serve runs one request through h and returns the recorder.
func serve(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

// decode reads a copy of the recorded body so rec.Body stays intact for
// further assertions.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&v))
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[handler.ErrorResponse](t, rec).Error.Code
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
