package endpoints

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/complyhub/complyd/pkg/authz"
	"github.com/complyhub/complyd/pkg/model"
	"github.com/complyhub/complyd/pkg/provision"
	"github.com/complyhub/complyd/pkg/server"
	"github.com/complyhub/complyd/pkg/server/middleware"
	"github.com/complyhub/complyd/pkg/tenant"
)

type fakeProvStore struct {
	mu      sync.Mutex
	plans   map[string]*model.SubscriptionPlan
	tenants map[string]*model.TenantRecord
}

func newFakeProvStore() *fakeProvStore {
	return &fakeProvStore{
		plans: map[string]*model.SubscriptionPlan{
			"premium": {
				Code: "premium", Name: "Premium",
				MaxFrameworks: 10, MaxControls: 500,
				CanCustomizeControls:      true,
				DefaultCustomizationLevel: model.CustomizationControlLevel,
				TrialDays:                 30,
			},
		},
		tenants: map[string]*model.TenantRecord{},
	}
}

func (f *fakeProvStore) Transaction(fn func(provision.Store) error) error {
	return fn(f)
}

func (f *fakeProvStore) GetPlan(code string) (*model.SubscriptionPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plans[code], nil
}

func (f *fakeProvStore) GetTenant(slug string) (*model.TenantRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.tenants[slug]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

func (f *fakeProvStore) CreateTenant(record *model.TenantRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *record
	f.tenants[record.Slug] = &clone
	return nil
}

func (f *fakeProvStore) SaveTenant(record *model.TenantRecord) error {
	return f.CreateTenant(record)
}

func (f *fakeProvStore) ListTenants() ([]model.TenantRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	records := make([]model.TenantRecord, 0, len(f.tenants))
	for _, record := range f.tenants {
		records = append(records, *record)
	}
	return records, nil
}

type fakePartitionAdmin struct{}

func (fakePartitionAdmin) CreateSchema(context.Context, string, string, string) error { return nil }
func (fakePartitionAdmin) InitializeTables(context.Context, string) error             { return nil }
func (fakePartitionAdmin) InitializeMinimalTables(context.Context, string) error      { return nil }

func provisioningServer(t *testing.T) (*server.Server, *fakeProvStore) {
	t.Helper()

	store := newFakeProvStore()
	partition, _ := mockGorm(t)
	registry := tenant.NewRegistry(func(tenant.Descriptor) (*gorm.DB, error) { return partition, nil })
	provisioner := provision.New(store, fakePartitionAdmin{}, registry, testCipher(t), zap.NewNop(), provision.Options{
		PartitionHost: "localhost",
		PartitionPort: 5432,
		DatabaseName:  "complyd",
	})

	s := server.NewServer(nil, tenant.NewRouter(nil, registry), provisioner, nil, testResolver(t), zap.NewNop(), "127.0.0.1", "0")
	s.Admins = authz.NewPlatformAdmins([]string{"root-1"})
	RegisterTenantEndpoints(s, store)
	return s, store
}

// adminRequest builds a request authenticated as userID; an empty userID
// leaves the request anonymous.
func adminRequest(method, target string, body io.Reader, userID string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	return req
}

func TestCreateTenantProvisions(t *testing.T) {
	s, store := provisioningServer(t)

	body := `{"slug":"acme-co","company_name":"Acme Co","plan_code":"premium"}`
	req := adminRequest("POST", "/tenants", strings.NewReader(body), "root-1")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "acme-co", resp["slug"])
	assert.Equal(t, "acme_co_schema", resp["schema_name"])
	assert.Equal(t, model.ProvisioningActive, resp["provisioning_status"])
	assert.Equal(t, model.SubscriptionTrial, resp["subscription_status"])
	assert.NotEmpty(t, resp["trial_ends_at"])

	record, err := store.GetTenant("acme-co")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, model.ProvisioningActive, record.ProvisioningStatus)
}

func TestCreateTenantWithoutIdentity(t *testing.T) {
	s, store := provisioningServer(t)

	body := `{"slug":"acme-co","plan_code":"premium"}`
	req := adminRequest("POST", "/tenants", strings.NewReader(body), "")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unauthorized")

	record, err := store.GetTenant("acme-co")
	require.NoError(t, err)
	assert.Nil(t, record, "nothing is provisioned for anonymous callers")
}

func TestCreateTenantRejectsNonAdmin(t *testing.T) {
	s, store := provisioningServer(t)

	// admin-1 is a tenant admin in acme but not a platform admin.
	body := `{"slug":"acme-co","plan_code":"premium"}`
	req := adminRequest("POST", "/tenants", strings.NewReader(body), "admin-1")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "NotPlatformAdmin")

	record, err := store.GetTenant("acme-co")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestCreateTenantInvalidSlug(t *testing.T) {
	s, _ := provisioningServer(t)

	req := adminRequest("POST", "/tenants", strings.NewReader(`{"slug":"Bad_Slug","plan_code":"premium"}`), "root-1")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "InvalidSlug")
}

func TestCreateTenantUnknownPlan(t *testing.T) {
	s, _ := provisioningServer(t)

	req := adminRequest("POST", "/tenants", strings.NewReader(`{"slug":"acme-co","plan_code":"platinum"}`), "root-1")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "UnknownPlan")
}

func TestCreateTenantMalformedBody(t *testing.T) {
	s, _ := provisioningServer(t)

	req := adminRequest("POST", "/tenants", strings.NewReader(`{`), "root-1")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "InvalidRequest")
}

func TestGetTenantReturnsRecord(t *testing.T) {
	s, store := provisioningServer(t)
	require.NoError(t, store.CreateTenant(&model.TenantRecord{
		Slug: "acme-co", CompanyName: "Acme Co", SchemaName: "acme_co_schema",
		PlanCode:           "premium",
		ProvisioningStatus: model.ProvisioningActive,
		SubscriptionStatus: model.SubscriptionTrial,
	}))

	req := adminRequest("GET", "/tenants/acme-co", nil, "root-1")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"company_name":"Acme Co"`)
}

func TestGetTenantUnknown(t *testing.T) {
	s, _ := provisioningServer(t)

	req := adminRequest("GET", "/tenants/ghost-co", nil, "root-1")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "UnknownTenant")
}

func TestListTenants(t *testing.T) {
	s, store := provisioningServer(t)
	require.NoError(t, store.CreateTenant(&model.TenantRecord{
		Slug: "acme-co", SchemaName: "acme_co_schema",
		ProvisioningStatus: model.ProvisioningActive,
		SubscriptionStatus: model.SubscriptionActive,
	}))

	req := adminRequest("GET", "/tenants", nil, "root-1")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var listed []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "acme-co", listed[0]["slug"])
}

func TestListTenantsRejectsNonAdmin(t *testing.T) {
	s, _ := provisioningServer(t)

	req := adminRequest("GET", "/tenants", nil, "emp-1")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "NotPlatformAdmin")
}

func TestSuspendTenant(t *testing.T) {
	s, store := provisioningServer(t)
	require.NoError(t, store.CreateTenant(&model.TenantRecord{
		Slug: "acme-co", SchemaName: "acme_co_schema",
		PlanCode:           "premium",
		ProvisioningStatus: model.ProvisioningActive,
		SubscriptionStatus: model.SubscriptionActive,
	}))

	req := adminRequest("POST", "/tenants/acme-co/suspend", nil, "root-1")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	record, err := store.GetTenant("acme-co")
	require.NoError(t, err)
	assert.Equal(t, model.ProvisioningSuspended, record.ProvisioningStatus)
}

func TestSuspendTenantWithoutIdentity(t *testing.T) {
	s, store := provisioningServer(t)
	require.NoError(t, store.CreateTenant(&model.TenantRecord{
		Slug: "acme-co", SchemaName: "acme_co_schema",
		PlanCode:           "premium",
		ProvisioningStatus: model.ProvisioningActive,
		SubscriptionStatus: model.SubscriptionActive,
	}))

	req := adminRequest("POST", "/tenants/acme-co/suspend", nil, "")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	record, err := store.GetTenant("acme-co")
	require.NoError(t, err)
	assert.Equal(t, model.ProvisioningActive, record.ProvisioningStatus,
		"an anonymous caller cannot change the lifecycle")
}

func TestSuspendTenantRejectsNonAdmin(t *testing.T) {
	s, store := provisioningServer(t)
	require.NoError(t, store.CreateTenant(&model.TenantRecord{
		Slug: "acme-co", SchemaName: "acme_co_schema",
		PlanCode:           "premium",
		ProvisioningStatus: model.ProvisioningActive,
		SubscriptionStatus: model.SubscriptionActive,
	}))

	req := adminRequest("POST", "/tenants/acme-co/suspend", nil, "admin-1")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "NotPlatformAdmin")

	record, err := store.GetTenant("acme-co")
	require.NoError(t, err)
	assert.Equal(t, model.ProvisioningActive, record.ProvisioningStatus)
}

func TestSuspendUnknownTenant(t *testing.T) {
	s, _ := provisioningServer(t)

	req := adminRequest("POST", "/tenants/ghost-co/suspend", nil, "root-1")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
