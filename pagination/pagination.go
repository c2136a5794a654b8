package pagination

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"

	"github.com/ccbrown/hal"
)

// PageInfo represents the information for the current page of results.
type PageInfo[C Cursor[C]] struct {
	HasPreviousPage bool
	HasNextPage     bool
	StartCursor     *C
	EndCursor       *C
}

type Cursor[T any] interface {
	LessThan(T) bool
}

type Edge[C Cursor[C]] interface {
	Cursor() C
}

// Returns a new slice containing only the edges that are within the range specified by the given cursors.
func ApplyCursorsToEdges[E Edge[C], C Cursor[C]](edges []E, after, before *C) (filtered []E, hadEdgesBeforeAfter, hadEdgesAfterBefore bool) {
	if after == nil && before == nil {
		filtered = append([]E(nil), edges...)
	} else {
		for _, edge := range edges {
			c := edge.Cursor()
			if before != nil && !c.LessThan(*before) {
				hadEdgesAfterBefore = true
				continue
			}
			if after != nil && !(*after).LessThan(c) {
				hadEdgesBeforeAfter = true
				continue
			}
			filtered = append(filtered, edge)
		}
	}

	return filtered, hadEdgesBeforeAfter, hadEdgesAfterBefore
}

// Returns the page of edges that should be returned for the given pagination parameters.
func EdgesToReturn[E Edge[C], C Cursor[C]](edges []E, params Params[C]) ([]E, PageInfo[C]) {
	var pageInfo PageInfo[C]
	edges, pageInfo.HasPreviousPage, pageInfo.HasNextPage = ApplyCursorsToEdges(edges, params.After, params.Before)

	sort.Slice(edges, func(i, j int) bool {
		return edges[i].Cursor().LessThan(edges[j].Cursor())
	})

	if params.First != nil {
		if len(edges) > *params.First {
			edges = edges[:*params.First]
			pageInfo.HasNextPage = true
		}
	}

	if params.Last != nil {
		if len(edges) > *params.Last {
			edges = edges[len(edges)-*params.Last:]
			pageInfo.HasPreviousPage = true
		}
	}

	if len(edges) > 0 {
		startCursor := edges[0].Cursor()
		pageInfo.StartCursor = &startCursor
		endCursor := edges[len(edges)-1].Cursor()
		pageInfo.EndCursor = &endCursor
	}

	return edges, pageInfo
}

// Params are the pagination parameters of a collection request.
type Params[C any] struct {
	After  *C
	Before *C
	First  *int
	Last   *int
}

// Encode returns the parameters as query values.
func (p Params[C]) Encode() (url.Values, error) {
	q := url.Values{}
	if p.After != nil {
		s, err := SerializeCursor(*p.After)
		if err != nil {
			return nil, errors.Wrap(err, "error serializing after cursor")
		}
		q.Set("after", s)
	}
	if p.Before != nil {
		s, err := SerializeCursor(*p.Before)
		if err != nil {
			return nil, errors.Wrap(err, "error serializing before cursor")
		}
		q.Set("before", s)
	}
	if p.First != nil {
		q.Set("first", strconv.Itoa(*p.First))
	}
	if p.Last != nil {
		q.Set("last", strconv.Itoa(*p.Last))
	}
	return q, nil
}

// ParseParams reads the "after", "before", "first", and "last" query parameters.
func ParseParams[C any](q url.Values) (Params[C], error) {
	var ret Params[C]

	if s := q.Get("after"); s != "" {
		c, err := DeserializeCursor[C](s)
		if err != nil {
			return ret, fmt.Errorf("Invalid after cursor.")
		}
		ret.After = c
	}

	if s := q.Get("before"); s != "" {
		c, err := DeserializeCursor[C](s)
		if err != nil {
			return ret, fmt.Errorf("Invalid before cursor.")
		}
		ret.Before = c
	}

	if s := q.Get("first"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return ret, fmt.Errorf("The `first` argument must be a non-negative integer.")
		}
		ret.First = &n
	}

	if s := q.Get("last"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return ret, fmt.Errorf("The `last` argument must be a non-negative integer.")
		}
		ret.Last = &n
	}

	if ret.First != nil && ret.Last != nil {
		return ret, fmt.Errorf("You cannot provide both `first` and `last` arguments.")
	}

	return ret, nil
}

// SerializeCursor encodes a cursor as an opaque, URL-safe string.
func SerializeCursor(cursor any) (string, error) {
	b, err := msgpack.Marshal(cursor)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DeserializeCursor decodes a cursor produced by SerializeCursor.
func DeserializeCursor[C any](s string) (*C, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "malformed cursor")
	}
	var ret C
	if err := msgpack.Unmarshal(b, &ret); err != nil {
		return nil, errors.Wrap(err, "malformed cursor")
	}
	return &ret, nil
}

// Config defines a paginated collection resource.
type Config struct {
	// The URI of the collection, e.g. "/orders". Pagination parameters are added to its query.
	URI string

	// The relation the page's resources are embedded under, e.g. "orders".
	Rel string

	// If neither first nor last is requested, this many edges are returned. Zero means all of them.
	DefaultPageSize int

	// Additional properties of the collection resource, as accepted by hal.NewResource.
	Properties any
}

// Collection builds a resource for one page of a collection. The page's edges are rendered and
// embedded under the configured relation, and "next" and "prev" links are added when there are
// more edges in either direction.
func Collection[E Edge[C], C Cursor[C]](config *Config, edges []E, params Params[C], render func(E) (*hal.Resource, error)) (*hal.Resource, error) {
	self, err := pageURI(config.URI, params)
	if err != nil {
		return nil, err
	}

	if params.First == nil && params.Last == nil && config.DefaultPageSize > 0 {
		first := config.DefaultPageSize
		params.First = &first
	}

	page, pageInfo := EdgesToReturn(edges, params)

	collection, err := hal.NewResource(config.Properties, self)
	if err != nil {
		return nil, errors.Wrap(err, "error building collection resource")
	}

	resources := make([]*hal.Resource, 0, len(page))
	for _, edge := range page {
		resource, err := render(edge)
		if err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}
	collection.Embed(config.Rel, resources...)

	pageSize := len(page)
	if params.First != nil {
		pageSize = *params.First
	} else if params.Last != nil {
		pageSize = *params.Last
	}

	if pageInfo.HasNextPage && pageInfo.EndCursor != nil {
		next, err := pageURI(config.URI, Params[C]{After: pageInfo.EndCursor, First: &pageSize})
		if err != nil {
			return nil, err
		}
		if _, err := collection.Link("next", next); err != nil {
			return nil, err
		}
	}

	if pageInfo.HasPreviousPage && pageInfo.StartCursor != nil {
		prev, err := pageURI(config.URI, Params[C]{Before: pageInfo.StartCursor, Last: &pageSize})
		if err != nil {
			return nil, err
		}
		if _, err := collection.Link("prev", prev); err != nil {
			return nil, err
		}
	}

	return collection, nil
}

func pageURI[C any](base string, params Params[C]) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", errors.Wrap(err, "invalid collection uri")
	}
	q, err := params.Encode()
	if err != nil {
		return "", err
	}
	existing := u.Query()
	for k, v := range q {
		existing[k] = v
	}
	u.RawQuery = existing.Encode()
	return u.String(), nil
}
