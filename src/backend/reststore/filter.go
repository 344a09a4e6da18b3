package reststore

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/theleywin/love-on-the-pixel/src/backend"
	"github.com/theleywin/love-on-the-pixel/src/errs"
)

// encodeFilter renders a filter in PostgREST's query syntax:
// col=op.value for every AND-ed predicate and or=(and(...),...) for the alternatives.
func encodeFilter(filter backend.Filter) (url.Values, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, errs.ErrInvalidInput)
	}

	params := url.Values{}
	for _, p := range filter.All {
		params.Add(p.Column, string(p.Op)+"."+literal(p))
	}

	if len(filter.Any) > 0 {
		groups := make([]string, 0, len(filter.Any))
		for _, group := range filter.Any {
			conds := make([]string, 0, len(group))
			for _, p := range group {
				conds = append(conds, p.Column+"."+string(p.Op)+"."+quote(literal(p)))
			}
			groups = append(groups, "and("+strings.Join(conds, ",")+")")
		}
		params.Set("or", "("+strings.Join(groups, ",")+")")
	}
	return params, nil
}

func literal(p backend.Predicate) string {
	if p.Op == backend.OpIsNull {
		return "null"
	}
	switch v := p.Value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case *string:
		if v == nil {
			return "null"
		}
		return *v
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// quote wraps values holding PostgREST's reserved characters in double quotes
// so they survive inside a logical operator list.
func quote(v string) string {
	if v == "null" || !strings.ContainsAny(v, `,.:()" \`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}
