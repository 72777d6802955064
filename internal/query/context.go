// Package query defines the validated request objects that flow from the
// parser to the compiler.
//
// A FilterContext or SortContext pairs a registry with an ordered list of
// requests. Construction checks every request against the registry, so a
// context that exists is known to be legal. Contexts are immutable: their
// fields are unexported and accessors return copies.
package query

import (
	"fmt"
	"slices"

	"github.com/roach88/filterql/internal/operator"
	"github.com/roach88/filterql/internal/qerrors"
	"github.com/roach88/filterql/internal/schema"
	"github.com/roach88/filterql/internal/value"
)

// FilterRequest is one filter clause: a field, a single operator (one base
// bit plus modifiers) and its operands. The operand count follows the
// operator's arity: none, one, [lo, hi] or one-or-more.
type FilterRequest struct {
	Field  string
	Op     operator.Op
	Values []value.Value
}

func (r FilterRequest) clone() FilterRequest {
	r.Values = slices.Clone(r.Values)
	return r
}

// SortRequest is one sort key. Position in the list is priority.
type SortRequest struct {
	Field     string
	Direction operator.Direction
}

// FilterContext is a validated, AND-combined list of filter requests.
type FilterContext struct {
	registry *schema.Registry
	requests []FilterRequest
}

// NewFilterContext validates requests against reg. It fails on the first
// illegal request.
func NewFilterContext(reg *schema.Registry, requests []FilterRequest) (*FilterContext, error) {
	out := make([]FilterRequest, 0, len(requests))
	for _, req := range requests {
		if err := CheckFilter(reg, req); err != nil {
			return nil, err
		}
		out = append(out, req.clone())
	}
	return &FilterContext{registry: reg, requests: out}, nil
}

// Registry returns the registry the requests were validated against.
func (c *FilterContext) Registry() *schema.Registry { return c.registry }

// Requests returns a copy of the requests in input order.
func (c *FilterContext) Requests() []FilterRequest {
	out := make([]FilterRequest, len(c.requests))
	for i, r := range c.requests {
		out[i] = r.clone()
	}
	return out
}

// Len returns the number of requests.
func (c *FilterContext) Len() int { return len(c.requests) }

// CheckFilter validates a single request against reg.
func CheckFilter(reg *schema.Registry, req FilterRequest) error {
	fd, ok := reg.Filter(req.Field)
	if !ok {
		return qerrors.NewUnknownFieldError(req.Field)
	}
	if err := req.Op.Validate(); err != nil {
		return &qerrors.Error{Code: qerrors.CodeOperatorNotAllowed, Field: req.Field, Message: "invalid operator", Err: err}
	}
	if !fd.Allowed.Contains(req.Op) {
		return qerrors.NewOperatorNotAllowedError(req.Field, req.Op.String())
	}

	n := len(req.Values)
	switch arity := req.Op.Arity(); arity {
	case operator.Arity0:
		if n != 0 {
			return qerrors.NewArityError(req.Field, "0", n)
		}
	case operator.Arity1:
		if n != 1 {
			return qerrors.NewArityError(req.Field, "1", n)
		}
	case operator.Arity2:
		if n != 2 {
			return qerrors.NewArityError(req.Field, "2", n)
		}
	case operator.ArityMany:
		if n == 0 {
			return qerrors.NewArityError(req.Field, "1 or more", n)
		}
	}

	base := req.Op.Base()
	for _, v := range req.Values {
		if value.IsNull(v) {
			if !fd.NullAllowed {
				return qerrors.NewNullabilityError(req.Field)
			}
			if base != operator.Equal && base != operator.NotEqual {
				return &qerrors.Error{
					Code:    qerrors.CodeNullability,
					Field:   req.Field,
					Message: fmt.Sprintf("null literal is not valid with %s", base),
				}
			}
			continue
		}
		if v.Kind() != fd.Kind {
			return qerrors.NewValueFormatError(req.Field,
				fmt.Errorf("expected %s value, got %s", fd.Kind, v.Kind()))
		}
	}
	return nil
}

// SortContext is a validated, prioritized list of sort requests.
type SortContext struct {
	registry *schema.Registry
	requests []SortRequest
}

// NewSortContext validates requests against reg.
func NewSortContext(reg *schema.Registry, requests []SortRequest) (*SortContext, error) {
	for _, req := range requests {
		sd, ok := reg.Sort(req.Field)
		if !ok {
			return nil, qerrors.NewUnknownFieldError(req.Field)
		}
		if !req.Direction.Single() || !sd.Allowed.Contains(req.Direction) {
			return nil, qerrors.NewOperatorNotAllowedError(req.Field, "direction "+req.Direction.String())
		}
	}
	return &SortContext{registry: reg, requests: slices.Clone(requests)}, nil
}

// Registry returns the registry the requests were validated against.
func (c *SortContext) Registry() *schema.Registry { return c.registry }

// Requests returns a copy of the requests in priority order.
func (c *SortContext) Requests() []SortRequest { return slices.Clone(c.requests) }

// Len returns the number of requests.
func (c *SortContext) Len() int { return len(c.requests) }
