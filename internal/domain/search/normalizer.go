package search

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/zlap-okazje/internal/domain/product"
)

// Upstream field names read from each item of data.products.
const (
	fieldID    = "asin"
	fieldTitle = "product_title"
	fieldImage = "product_photo"
	fieldPrice = "product_price"
)

// Normalizer turns a raw upstream search payload into products.
type Normalizer struct {
	affiliateTag string
}

// NewNormalizer creates a Normalizer that tags purchase links with affiliateTag.
func NewNormalizer(affiliateTag string) *Normalizer {
	return &Normalizer{affiliateTag: affiliateTag}
}

// Normalize decodes raw and builds one product per item of data.products, in
// upstream order. It never fails: a payload of the wrong shape yields an empty
// KindFormat result.
func (n *Normalizer) Normalize(q Query, raw []byte) Result {
	products, err := n.decode(raw)
	if err != nil {
		return failed(q, KindFormat, errors.Wrap(ErrFormat, err.Error()))
	}
	return okOrEmpty(q, products)
}

type rawItem struct {
	id, title, image, price string
}

func (n *Normalizer) decode(raw []byte) (products []product.Product, err error) {
	// The decoder does not panic on bad input, but the normalizer is the
	// fail-soft boundary for anything upstream sends.
	defer func() {
		if r := recover(); r != nil {
			products, err = nil, errors.Errorf("panic: %v", r)
		}
	}()

	if !jx.Valid(raw) {
		return nil, errors.New("invalid json")
	}

	d := jx.DecodeBytes(raw)
	var (
		items []rawItem
		found bool
	)
	if err := expectObject(d, "root", func(d *jx.Decoder, key string) error {
		if key != "data" {
			return d.Skip()
		}
		return expectObject(d, "data", func(d *jx.Decoder, key string) error {
			if key != "products" {
				return d.Skip()
			}
			found = true
			var derr error
			items, derr = decodeItems(d)
			return derr
		})
	}); err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New("data.products missing")
	}

	products = make([]product.Product, len(items))
	for i, it := range items {
		products[i] = product.Build(it.id, it.title, it.image, it.price, n.affiliateTag)
	}
	return products, nil
}

func decodeItems(d *jx.Decoder) ([]rawItem, error) {
	if d.Next() != jx.Array {
		return nil, errors.Errorf("data.products: expected array, got %s", d.Next())
	}
	var items []rawItem
	err := d.Arr(func(d *jx.Decoder) error {
		var it rawItem
		if err := expectObject(d, "item", func(d *jx.Decoder, key string) error {
			switch key {
			case fieldID:
				return optString(d, key, &it.id)
			case fieldTitle:
				return optString(d, key, &it.title)
			case fieldImage:
				return optString(d, key, &it.image)
			case fieldPrice:
				return optString(d, key, &it.price)
			default:
				return d.Skip()
			}
		}); err != nil {
			return errors.Wrapf(err, "item %d", len(items))
		}
		items = append(items, it)
		return nil
	})
	return items, err
}

func expectObject(d *jx.Decoder, what string, f func(d *jx.Decoder, key string) error) error {
	if tt := d.Next(); tt != jx.Object {
		return errors.Errorf("%s: expected object, got %s", what, tt)
	}
	return d.Obj(f)
}

// optString reads a string field into dst. Null leaves dst empty.
func optString(d *jx.Decoder, key string, dst *string) error {
	switch tt := d.Next(); tt {
	case jx.Null:
		return d.Null()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return errors.Wrap(err, key)
		}
		*dst = s
		return nil
	default:
		return errors.Errorf("%s: expected string, got %s", key, tt)
	}
}
