package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/filterql/internal/api/mocks"
	"github.com/roach88/filterql/internal/queryir"
	"github.com/roach88/filterql/internal/store"
	"github.com/roach88/filterql/internal/users"
	"github.com/roach88/filterql/internal/value"
)

func get(t *testing.T, h http.Handler, path string, params url.Values) *httptest.ResponseRecorder {
	t.Helper()
	if params != nil {
		path += "?" + params.Encode()
	}
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func usersResource(repo Repository) []Resource {
	return []Resource{{Name: users.Resource, Registry: users.Schema(), Repo: repo}}
}

func TestList_PassesCompiledQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)

	var got store.ListQuery
	repo.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q store.ListQuery) (store.Page, error) {
			got = q
			return store.Page{
				Records: []value.Record{{"Id": value.Int(5), "Username": value.String("barbara")}},
				Total:   11,
			}, nil
		})

	h := NewServer(usersResource(repo))
	rec := get(t, h, "/api/users", url.Values{
		"filter": {"Id=5"},
		"sort":   {"Created,2"},
		"psize":  {"5"},
		"pnum":   {"3"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 11, resp.Total)
	assert.Equal(t, 3, resp.Page)
	assert.Equal(t, 5, resp.PageSize)
	assert.Equal(t, "barbara", resp.Items[0]["Username"])

	assert.Equal(t, 5, got.Limit)
	assert.Equal(t, 10, got.Offset)
	assert.Equal(t, queryir.Compare{Field: "Id", Op: queryir.OpEq, Value: value.Int(5)}, got.Filter)
	assert.Equal(t, queryir.Ordering{Keys: []queryir.SortKey{{Field: "Created", Descending: true}}}, got.Order)
}

func TestList_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		params   url.Values
		wantCode int
		wantErr  string
	}{
		{"unknown field", "/api/users", url.Values{"filter": {"Nope=1"}}, http.StatusBadRequest, "UNKNOWN_FIELD"},
		{"bad value", "/api/users", url.Values{"filter": {"Age>x"}}, http.StatusBadRequest, "VALUE_FORMAT"},
		{"operator not allowed", "/api/users", url.Values{"filter": {"Created=2024-01-01"}}, http.StatusBadRequest, "OPERATOR_NOT_ALLOWED"},
		{"bad sort suffix", "/api/users", url.Values{"sort": {"Id,3"}}, http.StatusBadRequest, "GRAMMAR"},
		{"filter too long", "/api/users", url.Values{"filter": {strings.Repeat("a", 4097)}}, http.StatusBadRequest, CodeLimit},
		{"sort too long", "/api/users", url.Values{"sort": {strings.Repeat("a", 2049)}}, http.StatusBadRequest, CodeLimit},
		{"page size not a number", "/api/users", url.Values{"psize": {"ten"}}, http.StatusBadRequest, CodeLimit},
		{"page size over max", "/api/users", url.Values{"psize": {"201"}}, http.StatusBadRequest, CodeLimit},
		{"page zero", "/api/users", url.Values{"pnum": {"0"}}, http.StatusBadRequest, CodeLimit},
		{"page number overflows offset", "/api/users", url.Values{"pnum": {"9223372036854775807"}}, http.StatusBadRequest, CodeLimit},
		{"page past addressable offset", "/api/users", url.Values{"psize": {"200"}, "pnum": {"20000000"}}, http.StatusBadRequest, CodeLimit},
		{"unknown resource", "/api/orders", nil, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockRepository(ctrl) // no calls expected

			rec := get(t, NewServer(usersResource(repo)), tt.path, tt.params)
			assert.Equal(t, tt.wantCode, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantErr, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestList_RepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	repo.EXPECT().List(gomock.Any(), gomock.Any()).Return(store.Page{}, errors.New("database is locked"))

	rec := get(t, NewServer(usersResource(repo)), "/api/users", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "locked")
}

func TestList_Limits(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	repo.EXPECT().List(gomock.Any(), gomock.Any()).Return(store.Page{}, nil)

	h := NewServer(usersResource(repo), WithLimits(Limits{
		MaxFilterLength: 4,
		MaxSortLength:   4,
		DefaultPageSize: 2,
		MaxPageSize:     2,
	}))

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/users", url.Values{"filter": {"Id=10"}}).Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/api/users", url.Values{"filter": {"Id=1"}}).Code)
}

func TestList_LogsAndMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	repo.EXPECT().List(gomock.Any(), gomock.Any()).Return(store.Page{}, nil)

	core, logs := observer.New(zapcore.InfoLevel)
	reg := prometheus.NewRegistry()
	h := NewServer(usersResource(repo), WithLogger(zap.New(core)), WithRegistry(reg))

	get(t, h, "/api/users", url.Values{"filter": {"Username=admin"}})
	get(t, h, "/api/users", url.Values{"filter": {"Bogus=1"}})

	listed := logs.FilterMessage("list").All()
	require.Len(t, listed, 1)
	fields := listed[0].ContextMap()
	assert.Equal(t, "users", fields["resource"])
	assert.Len(t, fields["fingerprint"], 64)

	rejected := logs.FilterMessage("query rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, "UNKNOWN_FIELD", rejected[0].ContextMap()["code"])

	body := get(t, h, "/metrics", nil).Body.String()
	assert.Contains(t, body, `filterql_queries_total{resource="users",status="ok"} 1`)
	assert.Contains(t, body, `filterql_queries_rejected_total{code="UNKNOWN_FIELD",resource="users"} 1`)

	m := NewMetrics(prometheus.NewRegistry())
	m.QueriesTotal.WithLabelValues("users", "ok").Add(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("users", "ok")))
}

func TestHealthz(t *testing.T) {
	rec := get(t, NewServer(nil), "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

// End to end against the sample users in SQLite.
func TestList_SQLiteStore(t *testing.T) {
	s, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.SeedUsers(context.Background()))

	h := NewServer(usersResource(s.Users()))

	tests := []struct {
		params url.Values
		want   []float64
		total  int
	}{
		{url.Values{"filter": {"Status=Active"}, "sort": {"Created,2"}}, []float64{5, 4, 2, 1}, 4},
		{url.Values{"filter": {"Username|i=ADMIN"}}, []float64{1}, 1},
		{url.Values{"sort": {"Id,2"}, "psize": {"2"}, "pnum": {"2"}}, []float64{4, 3}, 6},
		{url.Values{"filter": {`Email~example.com;Age|n>30`}}, []float64{1, 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.params.Encode(), func(t *testing.T) {
			rec := get(t, h, "/api/users", tt.params)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp ListResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			ids := make([]float64, len(resp.Items))
			for i, item := range resp.Items {
				ids[i] = item["Id"].(float64)
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, tt.total, resp.Total)
		})
	}
}
