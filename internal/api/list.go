package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/roach88/filterql/internal/compiler"
	"github.com/roach88/filterql/internal/parser"
	"github.com/roach88/filterql/internal/qerrors"
	"github.com/roach88/filterql/internal/query"
	"github.com/roach88/filterql/internal/queryir"
	"github.com/roach88/filterql/internal/store"
	"github.com/roach88/filterql/internal/value"
)

// Query parameter names.
const (
	ParamFilter   = "filter"
	ParamSort     = "sort"
	ParamPageSize = "psize"
	ParamPageNum  = "pnum"
)

// CodeLimit marks requests rejected before parsing (oversized text, bad
// paging parameters).
const CodeLimit = "LIMIT"

// ListResponse is the body of a successful list request.
type ListResponse struct {
	Items    []map[string]any `json:"items"`
	Count    int              `json:"count"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

// Routes holds dependencies for the list handler.
type Routes struct {
	resources map[string]Resource
	limits    Limits
	logger    *zap.Logger
	metrics   *Metrics
}

// listRequest is a decoded, bounds-checked list request.
type listRequest struct {
	filter   string
	sort     string
	pageSize int
	pageNum  int
}

var errLimit = errors.New("request limit exceeded")

// list handles GET /api/{resource}
func (routes *Routes) list(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name := chi.URLParam(r, "resource")
	res, ok := routes.resources[name]
	if !ok {
		writeErrorResponse(w, fmt.Sprintf("unknown resource %q", name), "", http.StatusNotFound)
		return
	}
	log := routes.logger.With(zap.String("resource", name))

	req, err := routes.parseListRequest(r)
	if err != nil {
		routes.reject(w, log, name, CodeLimit, err)
		return
	}

	fc, err := parser.ParseFilter(res.Registry, req.filter)
	if err != nil {
		routes.reject(w, log, name, string(qerrors.CodeOf(err)), err)
		return
	}
	sc, err := parser.ParseSort(res.Registry, req.sort)
	if err != nil {
		routes.reject(w, log, name, string(qerrors.CodeOf(err)), err)
		return
	}

	fingerprint, err := query.Fingerprint(fc, sc)
	if err != nil {
		routes.fail(w, log, name, err)
		return
	}
	log = log.With(zap.String("fingerprint", fingerprint))

	q, err := compiler.Compile(fc, sc)
	if err != nil {
		routes.fail(w, log, name, err)
		return
	}
	if report := queryir.Validate(q.Filter); !report.IsPortable {
		log.Debug("non-portable filter", zap.Strings("warnings", report.Warnings))
	}

	page, err := res.Repo.List(r.Context(), store.ListQuery{
		Filter: q.Filter,
		Order:  q.Order,
		Limit:  req.pageSize,
		Offset: req.offset(),
	})
	if err != nil {
		routes.fail(w, log, name, err)
		return
	}

	elapsed := time.Since(start)
	routes.metrics.QueriesTotal.WithLabelValues(name, "ok").Inc()
	routes.metrics.QueryLatency.WithLabelValues(name).Observe(elapsed.Seconds())
	log.Info("list",
		zap.Int("count", len(page.Records)),
		zap.Int("total", page.Total),
		zap.Duration("duration", elapsed),
	)

	writeJSONResponse(w, ListResponse{
		Items:    plainRecords(page.Records),
		Count:    len(page.Records),
		Total:    page.Total,
		Page:     req.pageNum,
		PageSize: req.pageSize,
	}, http.StatusOK)
}

// reject answers a client error. Rejections log at Info.
func (routes *Routes) reject(w http.ResponseWriter, log *zap.Logger, resource, code string, err error) {
	routes.metrics.QueriesTotal.WithLabelValues(resource, "rejected").Inc()
	routes.metrics.RejectedTotal.WithLabelValues(resource, code).Inc()
	log.Info("query rejected", zap.String("code", code), zap.Error(err))
	writeErrorResponse(w, err.Error(), code, http.StatusBadRequest)
}

func (routes *Routes) fail(w http.ResponseWriter, log *zap.Logger, resource string, err error) {
	routes.metrics.QueriesTotal.WithLabelValues(resource, "error").Inc()
	log.Error("list failed", zap.Error(err))
	writeErrorResponse(w, "internal error", "", qerrors.HTTPStatus(err))
}

func (routes *Routes) parseListRequest(r *http.Request) (listRequest, error) {
	q := r.URL.Query()
	req := listRequest{
		filter:   q.Get(ParamFilter),
		sort:     q.Get(ParamSort),
		pageSize: routes.limits.DefaultPageSize,
		pageNum:  1,
	}

	if utf8.RuneCountInString(req.filter) > routes.limits.MaxFilterLength {
		return req, fmt.Errorf("%w: filter is longer than %d characters", errLimit, routes.limits.MaxFilterLength)
	}
	if utf8.RuneCountInString(req.sort) > routes.limits.MaxSortLength {
		return req, fmt.Errorf("%w: sort is longer than %d characters", errLimit, routes.limits.MaxSortLength)
	}

	if s := q.Get(ParamPageSize); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > routes.limits.MaxPageSize {
			return req, fmt.Errorf("%w: %s must be between 1 and %d", errLimit, ParamPageSize, routes.limits.MaxPageSize)
		}
		req.pageSize = n
	}
	if s := q.Get(ParamPageNum); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return req, fmt.Errorf("%w: %s must be a positive integer", errLimit, ParamPageNum)
		}
		if n-1 > math.MaxInt32/req.pageSize {
			return req, fmt.Errorf("%w: %s %d is past the last addressable page", errLimit, ParamPageNum, n)
		}
		req.pageNum = n
	}
	return req, nil
}

func (req listRequest) offset() int {
	return (req.pageNum - 1) * req.pageSize
}

func plainRecords(records []value.Record) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, r := range records {
		out[i] = r.Plain()
	}
	return out
}
