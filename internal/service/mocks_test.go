package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/repo"
)

// The mocks below are hand-written test doubles. Each method is a function
// field; set only the ones a test needs. The embedded interface makes any
// unexpected call panic.

type mockAreaRepo struct {
	repo.AreaRepo
	create          func(ctx context.Context, a domain.Area) (domain.Area, error)
	getByID         func(ctx context.Context, id uuid.UUID) (domain.Area, error)
	update          func(ctx context.Context, a domain.Area) (domain.Area, error)
	delete          func(ctx context.Context, id uuid.UUID) error
	countDependents func(ctx context.Context, id uuid.UUID) (int, int, error)
}

func (m *mockAreaRepo) Create(ctx context.Context, a domain.Area) (domain.Area, error) {
	return m.create(ctx, a)
}
func (m *mockAreaRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Area, error) {
	return m.getByID(ctx, id)
}
func (m *mockAreaRepo) Update(ctx context.Context, a domain.Area) (domain.Area, error) {
	return m.update(ctx, a)
}
func (m *mockAreaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}
func (m *mockAreaRepo) CountDependents(ctx context.Context, id uuid.UUID) (int, int, error) {
	return m.countDependents(ctx, id)
}

type mockRegionRepo struct {
	repo.RegionRepo
	create        func(ctx context.Context, r domain.Region) (domain.Region, error)
	getByID       func(ctx context.Context, id uuid.UUID) (domain.Region, error)
	update        func(ctx context.Context, r domain.Region) (domain.Region, error)
	delete        func(ctx context.Context, id uuid.UUID) error
	countAgencies func(ctx context.Context, id uuid.UUID) (int, error)
}

func (m *mockRegionRepo) Create(ctx context.Context, r domain.Region) (domain.Region, error) {
	return m.create(ctx, r)
}
func (m *mockRegionRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Region, error) {
	return m.getByID(ctx, id)
}
func (m *mockRegionRepo) Update(ctx context.Context, r domain.Region) (domain.Region, error) {
	return m.update(ctx, r)
}
func (m *mockRegionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}
func (m *mockRegionRepo) CountAgencies(ctx context.Context, id uuid.UUID) (int, error) {
	return m.countAgencies(ctx, id)
}

type mockAgencyRepo struct {
	repo.AgencyRepo
	create      func(ctx context.Context, a domain.Agency) (domain.Agency, error)
	getByID     func(ctx context.Context, id uuid.UUID) (domain.Agency, error)
	list        func(ctx context.Context, f domain.AgencyFilter) ([]domain.Agency, error)
	summary     func(ctx context.Context, areaID uuid.UUID) (domain.AreaSummary, error)
	update      func(ctx context.Context, a domain.Agency) (domain.Agency, error)
	delete      func(ctx context.Context, id uuid.UUID) error
	countFleets func(ctx context.Context, id uuid.UUID) (int, error)
}

func (m *mockAgencyRepo) Create(ctx context.Context, a domain.Agency) (domain.Agency, error) {
	return m.create(ctx, a)
}
func (m *mockAgencyRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Agency, error) {
	return m.getByID(ctx, id)
}
func (m *mockAgencyRepo) List(ctx context.Context, f domain.AgencyFilter) ([]domain.Agency, error) {
	return m.list(ctx, f)
}
func (m *mockAgencyRepo) Summary(ctx context.Context, areaID uuid.UUID) (domain.AreaSummary, error) {
	return m.summary(ctx, areaID)
}
func (m *mockAgencyRepo) Update(ctx context.Context, a domain.Agency) (domain.Agency, error) {
	return m.update(ctx, a)
}
func (m *mockAgencyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}
func (m *mockAgencyRepo) CountFleets(ctx context.Context, id uuid.UUID) (int, error) {
	return m.countFleets(ctx, id)
}

type mockFleetRepo struct {
	repo.FleetRepo
	getByID         func(ctx context.Context, id uuid.UUID) (domain.Fleet, error)
	list            func(ctx context.Context, f domain.FleetFilter) ([]domain.Fleet, error)
	listExpiryFacts func(ctx context.Context, f domain.FleetFilter) ([]domain.ExpiryFacts, error)
	update          func(ctx context.Context, f domain.Fleet) (domain.Fleet, error)
	setDocument     func(ctx context.Context, id uuid.UUID, kind domain.DocumentKind, path string) error
	delete          func(ctx context.Context, id uuid.UUID) error
	countDrivers    func(ctx context.Context, id uuid.UUID) (int, error)
}

func (m *mockFleetRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Fleet, error) {
	return m.getByID(ctx, id)
}
func (m *mockFleetRepo) List(ctx context.Context, f domain.FleetFilter) ([]domain.Fleet, error) {
	return m.list(ctx, f)
}
func (m *mockFleetRepo) ListExpiryFacts(ctx context.Context, f domain.FleetFilter) ([]domain.ExpiryFacts, error) {
	return m.listExpiryFacts(ctx, f)
}
func (m *mockFleetRepo) Update(ctx context.Context, f domain.Fleet) (domain.Fleet, error) {
	return m.update(ctx, f)
}
func (m *mockFleetRepo) SetDocument(ctx context.Context, id uuid.UUID, kind domain.DocumentKind, path string) error {
	return m.setDocument(ctx, id, kind, path)
}
func (m *mockFleetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}
func (m *mockFleetRepo) CountDrivers(ctx context.Context, id uuid.UUID) (int, error) {
	return m.countDrivers(ctx, id)
}

type mockDriverRepo struct {
	repo.DriverRepo
	create           func(ctx context.Context, d domain.Driver) (domain.Driver, error)
	getByID          func(ctx context.Context, id uuid.UUID) (domain.Driver, error)
	getActiveByFleet func(ctx context.Context, fleetID uuid.UUID) (domain.Driver, error)
	listByFleets     func(ctx context.Context, fleetIDs []uuid.UUID) ([]domain.Driver, error)
	listPaged        func(ctx context.Context, f domain.DriverFilter, p domain.PaginationParams) ([]domain.Driver, int, error)
	listExpiryFacts  func(ctx context.Context, f domain.DriverFilter) ([]domain.ExpiryFacts, error)
	update           func(ctx context.Context, d domain.Driver) (domain.Driver, error)
	setDocument      func(ctx context.Context, id uuid.UUID, path string) error
}

func (m *mockDriverRepo) Create(ctx context.Context, d domain.Driver) (domain.Driver, error) {
	return m.create(ctx, d)
}
func (m *mockDriverRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Driver, error) {
	return m.getByID(ctx, id)
}
func (m *mockDriverRepo) GetActiveByFleet(ctx context.Context, fleetID uuid.UUID) (domain.Driver, error) {
	return m.getActiveByFleet(ctx, fleetID)
}
func (m *mockDriverRepo) ListByFleets(ctx context.Context, fleetIDs []uuid.UUID) ([]domain.Driver, error) {
	return m.listByFleets(ctx, fleetIDs)
}
func (m *mockDriverRepo) ListPaged(ctx context.Context, f domain.DriverFilter, p domain.PaginationParams) ([]domain.Driver, int, error) {
	return m.listPaged(ctx, f, p)
}
func (m *mockDriverRepo) ListExpiryFacts(ctx context.Context, f domain.DriverFilter) ([]domain.ExpiryFacts, error) {
	return m.listExpiryFacts(ctx, f)
}
func (m *mockDriverRepo) Update(ctx context.Context, d domain.Driver) (domain.Driver, error) {
	return m.update(ctx, d)
}
func (m *mockDriverRepo) SetDocument(ctx context.Context, id uuid.UUID, path string) error {
	return m.setDocument(ctx, id, path)
}

type mockUserRepo struct {
	repo.UserRepo
	create     func(ctx context.Context, u domain.User) (domain.User, error)
	getByID    func(ctx context.Context, id uuid.UUID) (domain.User, error)
	getByEmail func(ctx context.Context, email string) (domain.User, error)
	update     func(ctx context.Context, u domain.User) (domain.User, error)
	delete     func(ctx context.Context, id uuid.UUID) error
	count      func(ctx context.Context) (int, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	return m.create(ctx, u)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return m.getByID(ctx, id)
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return m.getByEmail(ctx, email)
}
func (m *mockUserRepo) Update(ctx context.Context, u domain.User) (domain.User, error) {
	return m.update(ctx, u)
}
func (m *mockUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}
func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	return m.count(ctx)
}

// reposTx runs fn directly against a fixed Repos. It does not roll back.
type reposTx struct {
	r     repo.Repos
	calls int
}

func (t *reposTx) WithinTx(_ context.Context, fn func(repo.Repos) error) error {
	t.calls++
	return fn(t.r)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

var (
	_ repo.AreaRepo   = (*mockAreaRepo)(nil)
	_ repo.RegionRepo = (*mockRegionRepo)(nil)
	_ repo.AgencyRepo = (*mockAgencyRepo)(nil)
	_ repo.FleetRepo  = (*mockFleetRepo)(nil)
	_ repo.DriverRepo = (*mockDriverRepo)(nil)
	_ repo.UserRepo   = (*mockUserRepo)(nil)
	_ repo.Transactor = (*reposTx)(nil)
)
