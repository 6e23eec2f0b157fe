package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tenancy/internal/action"
	actiondomain "github.com/smallbiznis/tenancy/internal/action/domain"
	"github.com/smallbiznis/tenancy/internal/activetenant"
	"github.com/smallbiznis/tenancy/internal/authorization"
	"github.com/smallbiznis/tenancy/internal/config"
	"github.com/smallbiznis/tenancy/internal/linkedauthorization"
	"github.com/smallbiznis/tenancy/internal/observability"
	"github.com/smallbiznis/tenancy/internal/permission"
	"github.com/smallbiznis/tenancy/internal/resource"
	"github.com/smallbiznis/tenancy/internal/role"
	"github.com/smallbiznis/tenancy/internal/tenant"
	"github.com/smallbiznis/tenancy/internal/tenantrole"
	"github.com/smallbiznis/tenancy/internal/tenantrolepermission"
	"github.com/smallbiznis/tenancy/internal/tenantroleuser"
	"github.com/smallbiznis/tenancy/internal/testkit"
	"github.com/smallbiznis/tenancy/internal/uniqueness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type testServer struct {
	engine *gin.Engine
	fx     *testkit.Fixture
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	conn := testkit.DB(t)
	cfg := config.Config{
		DBQueryTimeout: 5 * time.Second,
		Session: config.SessionConfig{
			TTL:           time.Hour,
			CacheSize:     100,
			SwitchLockTTL: time.Second,
		},
	}

	var engine *gin.Engine
	app := fxtest.New(t,
		fx.Supply(conn, testkit.Logger(t), testkit.Node(t), cfg, observability.Config{Environment: "test"}),
		uniqueness.Module,
		tenant.Module,
		role.Module,
		action.Module,
		resource.Module,
		permission.Module,
		tenantrole.Module,
		tenantrolepermission.Module,
		tenantroleuser.Module,
		linkedauthorization.Module,
		activetenant.Module,
		authorization.Module,
		fx.Provide(NewEngine),
		fx.Invoke(NewServer),
		fx.Populate(&engine),
	)
	app.RequireStart()
	t.Cleanup(app.RequireStop)

	return testServer{engine: engine, fx: testkit.NewFixture(t, conn)}
}

func (s testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

type errorBody struct {
	Error struct {
		Type   string   `json:"type"`
		Fields []string `json:"fields"`
	} `json:"error"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEntityRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/roles", map[string]any{"name": "admin"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		Data struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}](t, rec)
	assert.Equal(t, "admin", created.Data.Name)

	rec = s.do(t, http.MethodPost, "/api/v1/roles", map[string]any{"name": "admin"})
	require.Equal(t, http.StatusConflict, rec.Code)
	dup := decode[errorBody](t, rec)
	assert.Equal(t, "uniqueness_constraint", dup.Error.Type)
	assert.Equal(t, []string{"name"}, dup.Error.Fields)

	rec = s.do(t, http.MethodGet, "/api/v1/roles/"+created.Data.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodHead, "/api/v1/roles/"+created.Data.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodHead, "/api/v1/roles/42", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/roles/42", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, rec).Error.Type)

	rec = s.do(t, http.MethodGet, "/api/v1/roles/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/roles?search=adm%25&page=1&size=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[struct {
		Data struct {
			TotalResults int64 `json:"totalResults"`
		} `json:"data"`
	}](t, rec)
	assert.EqualValues(t, 1, page.Data.TotalResults)

	rec = s.do(t, http.MethodGet, "/api/v1/roles?page=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/roles", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/roles", map[string]any{"ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/roles/"+created.Data.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSearchWithoutCriteriaUnderOrMatchesNothing(t *testing.T) {
	s := newTestServer(t)
	s.fx.Role("admin")

	rec := s.do(t, http.MethodPost, "/api/v1/roles/search", map[string]any{"logicConjunction": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Data []map[string]any `json:"data"`
	}](t, rec).Data, 0)

	rec = s.do(t, http.MethodPost, "/api/v1/roles/search", map[string]any{"logicConjunction": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Data []map[string]any `json:"data"`
	}](t, rec).Data, 1)
}

func TestRoleDeleteRefusedWhileGranted(t *testing.T) {
	s := newTestServer(t)
	role := s.fx.Role("admin")
	s.fx.TenantRole(s.fx.Tenant("A"), role)

	rec := s.do(t, http.MethodDelete, "/api/v1/roles/"+role.ID.String(), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "referential_integrity", decode[errorBody](t, rec).Error.Type)
}

func TestAuthorizationCheck(t *testing.T) {
	s := newTestServer(t)
	tenant := s.fx.Tenant("A")
	tr := s.fx.TenantRole(tenant, s.fx.Role("admin"))
	read := s.fx.Permission(actiondomain.ActionTypeRead, "tenant")
	s.fx.Attach(tr, read)
	s.fx.Member(tr, 5)

	type checkBody struct {
		Data struct {
			Allowed bool `json:"allowed"`
		} `json:"data"`
	}

	rec := s.do(t, http.MethodGet, "/api/v1/authorization/check?userId=5&tenantId="+tenant.ID.String()+"&action=READ&resource=tenant", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[checkBody](t, rec).Data.Allowed)

	rec = s.do(t, http.MethodGet, "/api/v1/authorization/check?userId=6&tenantId="+tenant.ID.String()+"&action=READ&resource=tenant", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[checkBody](t, rec).Data.Allowed)

	rec = s.do(t, http.MethodGet, "/api/v1/authorization/check?userId=5&tenantId="+tenant.ID.String()+"&action=READ&resource=invoice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/permissions/id?resource=tenant&action=READ", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, read.ID.String(), decode[struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}](t, rec).Data.ID)
}

func TestSessionTenantLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := s.fx.Role("admin")
	s.fx.Member(s.fx.TenantRole(s.fx.Tenant("A"), admin), 5)
	s.fx.Member(s.fx.TenantRole(s.fx.Tenant("B"), admin), 5)

	type stateBody struct {
		Data struct {
			State      string `json:"state"`
			TenantName string `json:"tenantName"`
		} `json:"data"`
	}

	rec := s.do(t, http.MethodPost, "/api/v1/session/tenant/init", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/session/tenant/init", nil, HeaderUserID, "5")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sid := rec.Header().Get(HeaderSessionID)
	require.NotEmpty(t, sid)
	assert.Equal(t, "A", decode[stateBody](t, rec).Data.TenantName)

	headers := []string{HeaderUserID, "5", HeaderSessionID, sid}

	rec = s.do(t, http.MethodPut, "/api/v1/session/tenant", map[string]string{"tenantName": "B"}, headers...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "B", decode[stateBody](t, rec).Data.TenantName)

	rec = s.do(t, http.MethodPut, "/api/v1/session/tenant", map[string]string{"tenantName": "Z"}, headers...)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/session/tenant", nil, headers...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "B", decode[stateBody](t, rec).Data.TenantName)

	rec = s.do(t, http.MethodGet, "/api/v1/session/tenants", nil, headers...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"A", "B"}, decode[struct {
		Data []string `json:"data"`
	}](t, rec).Data)

	rec = s.do(t, http.MethodDelete, "/api/v1/session/tenant", nil, headers...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "NO_TENANT", decode[stateBody](t, rec).Data.State)

	rec = s.do(t, http.MethodGet, "/api/v1/session/tenant", nil, headers...)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionAccessLogCarriesTenant(t *testing.T) {
	s := newTestServer(t)
	tenant := s.fx.Tenant("A")
	s.fx.Member(s.fx.TenantRole(tenant, s.fx.Role("admin")), 5)

	core, logs := observer.New(zap.InfoLevel)
	t.Cleanup(zap.ReplaceGlobals(zap.New(core)))

	rec := s.do(t, http.MethodPost, "/api/v1/session/tenant/init", nil, HeaderUserID, "5")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/session/tenants", nil, HeaderUserID, "5")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	lines := logs.FilterMessage("http_request").All()
	require.Len(t, lines, 2)
	assert.Equal(t, tenant.ID.Int64(), lines[0].ContextMap()["tenant_id"])
	assert.EqualValues(t, 5, lines[0].ContextMap()["user_id"])
	assert.NotContains(t, lines[1].ContextMap(), "tenant_id")
}
