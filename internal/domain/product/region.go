package product

import (
	"net/url"
)

// Region is a storefront a purchase link can point to.
type Region struct {
	Code   string
	Flag   string
	Domain string
}

// Primary is the only region for which a real price is fetched.
var Primary = Region{Code: "pl", Flag: "🇵🇱", Domain: "www.amazon.pl"}

// Secondary regions get a placeholder price and a purchase link, in display order.
var Secondary = []Region{
	{Code: "de", Flag: "🇩🇪", Domain: "www.amazon.de"},
	{Code: "it", Flag: "🇮🇹", Domain: "www.amazon.it"},
	{Code: "es", Flag: "🇪🇸", Domain: "www.amazon.es"},
}

// Link returns the affiliate purchase link for the product id in this region:
// https://<domain>/dp/<id>?tag=<affiliateTag>.
func (r Region) Link(id, affiliateTag string) string {
	u := url.URL{
		Scheme:   "https",
		Host:     r.Domain,
		Path:     "/dp/" + id,
		RawQuery: url.Values{"tag": {affiliateTag}}.Encode(),
	}
	return u.String()
}
