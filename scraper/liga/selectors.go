package liga

// Selectors centralizes the site's markup hooks. Swapping the target
// marketplace means swapping this table, not the extraction flow.
type Selectors struct {
	CookieBanner       string
	CookieBannerButton string

	StoreBlock  string
	QualityInfo string
	Quality     string
	LanguageImg string
	BuyButton   string

	CartIcon     string
	ViewCartLink string
	CartItems    string
	CartRow      string
	CartTitle    string
	CartStock    string
	CartUnit     string
	CartTotal    string
	RemoveButton string

	ProductName string
}

// DefaultSelectors matches ligapokemon.com.br.
func DefaultSelectors() Selectors {
	return Selectors{
		CookieBanner:       "#lgpd-cookie",
		CookieBannerButton: "button",

		StoreBlock:  "div.store",
		QualityInfo: "div.infos-quality-and-language",
		Quality:     "div.quality",
		LanguageImg: "img",
		BuyButton:   "div.btn-green.cursor-pointer",

		CartIcon:     "div.cart-icon-container.icon-container",
		ViewCartLink: "a.btn-view-cart",
		CartItems:    "div.itens",
		CartRow:      "div.row",
		CartTitle:    "p.cardtitle a",
		CartStock:    "div.item-estoque",
		CartUnit:     "div.preco.item-subpreco",
		CartTotal:    "div.preco-total.item-total",
		RemoveButton: "div.btn-circle.remove",

		ProductName: "a.pretoG.b",
	}
}
