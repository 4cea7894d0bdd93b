package product

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Encode writes p as a JSON object.
func (p Product) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		p.encodeFields(e)
	})
}

func (p Product) encodeFields(e *jx.Encoder) {
	e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
	e.Field("title", func(e *jx.Encoder) { e.Str(p.Title) })
	e.Field("image_url", func(e *jx.Encoder) { e.Str(p.ImageURL) })
	e.Field("prices", func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, pe := range p.Prices {
				pe.Encode(e)
			}
		})
	})
}

// EncodeWith writes p as a JSON object followed by extra fields.
func (p Product) EncodeWith(e *jx.Encoder, extra func(e *jx.Encoder)) {
	e.Obj(func(e *jx.Encoder) {
		p.encodeFields(e)
		extra(e)
	})
}

// Encode writes pe as a JSON object.
func (pe PriceEntry) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("region_flag", func(e *jx.Encoder) { e.Str(pe.RegionFlag) })
		e.Field("display_text", func(e *jx.Encoder) { e.Str(pe.DisplayText) })
		e.Field("purchase_link", func(e *jx.Encoder) { e.Str(pe.PurchaseLink) })
		e.Field("is_best", func(e *jx.Encoder) { e.Bool(pe.IsBest) })
	})
}

// Decode reads a Product previously written by Encode. Unknown fields are skipped.
func (p *Product) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Str()
		case "title":
			p.Title, err = d.Str()
		case "image_url":
			p.ImageURL, err = d.Str()
		case "prices":
			p.Prices = p.Prices[:0]
			err = d.Arr(func(d *jx.Decoder) error {
				var pe PriceEntry
				if err := pe.Decode(d); err != nil {
					return err
				}
				p.Prices = append(p.Prices, pe)
				return nil
			})
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode %q", key)
		}
		return nil
	})
}

// Decode reads a PriceEntry previously written by Encode.
func (pe *PriceEntry) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "region_flag":
			pe.RegionFlag, err = d.Str()
		case "display_text":
			pe.DisplayText, err = d.Str()
		case "purchase_link":
			pe.PurchaseLink, err = d.Str()
		case "is_best":
			pe.IsBest, err = d.Bool()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode %q", key)
		}
		return nil
	})
}

// EncodeList writes products as a JSON array.
func EncodeList(e *jx.Encoder, products []Product) {
	e.Arr(func(e *jx.Encoder) {
		for _, p := range products {
			p.Encode(e)
		}
	})
}

// DecodeList reads a JSON array written by EncodeList.
func DecodeList(data []byte) ([]Product, error) {
	products := []Product{}
	d := jx.DecodeBytes(data)
	if err := d.Arr(func(d *jx.Decoder) error {
		var p Product
		if err := p.Decode(d); err != nil {
			return err
		}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}
