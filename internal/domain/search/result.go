package search

import (
	"github.com/go-faster/errors"

	"github.com/xenking/zlap-okazje/internal/domain/product"
)

// Kind classifies a search outcome. Every kind other than KindOK is shown to
// the user as "no results".
type Kind int

const (
	// KindOK means at least one product was found.
	KindOK Kind = iota
	// KindEmpty means the query was empty or upstream matched nothing.
	KindEmpty
	// KindTransport means the upstream request could not be completed.
	KindTransport
	// KindStatus means upstream answered with a non-2xx status.
	KindStatus
	// KindFormat means the upstream payload did not have the expected shape.
	KindFormat
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindEmpty:
		return "empty"
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindFormat:
		return "format"
	default:
		return "unknown"
	}
}

// ErrFormat is wrapped by normalization failures.
var ErrFormat = errors.New("unexpected upstream payload")

// Result is the outcome of one search. Products is never nil and is empty for
// every kind except KindOK.
type Result struct {
	Query    Query
	Products []product.Product
	Kind     Kind
	Err      error
}

// Failed reports whether the search ended in an error kind.
func (r Result) Failed() bool {
	return r.Kind != KindOK && r.Kind != KindEmpty
}

// Cacheable reports whether the result may be memoized.
func (r Result) Cacheable() bool {
	return !r.Failed()
}

func okOrEmpty(q Query, products []product.Product) Result {
	if len(products) == 0 {
		return Result{Query: q, Products: []product.Product{}, Kind: KindEmpty}
	}
	return Result{Query: q, Products: products, Kind: KindOK}
}

func failed(q Query, kind Kind, err error) Result {
	return Result{Query: q, Products: []product.Product{}, Kind: kind, Err: err}
}
