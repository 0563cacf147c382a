package source

import "github.com/sesgocero/crawler/internal/dateparse"

// El Espectador. Dates read "15 de marzo de 2024 - 10:30 a. m.", so
// everything after " - " is dropped before parsing.
func ElEspectador() *Profile {
	return &Profile{
		ID:        "el_espectador",
		Name:      "El Espectador",
		StartURLs: []string{"https://www.elespectador.com/"},
		Listing: []Strategy{
			CSSAttr("h2.Card-Title a", "href"),
		},
		Fields: map[string][]Strategy{
			FieldTitle: {
				CSS("h1.Title"),
				CSS("h1"),
				Meta("og:title"),
			},
			FieldSubtitle: {
				CSS("h2.ArticleHeader-Hook div"),
				CSS("h2"),
			},
			FieldContent: {
				CSS("p.font--secondary"),
			},
			FieldDate: {
				CSS("div.Datetime"),
				CSS("div.Card-Date span"),
				CSS("div.Card-Date a"),
				CSS("div.Article-Date"),
				CSS("div.Article-Header time"),
				Meta("article:published_time"),
			},
		},
		Required:       []string{FieldTitle, FieldContent},
		DateConvention: dateparse.Convention{TrimAfter: " - "},
	}
}
