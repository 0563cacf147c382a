package source

// El Pais, America/Colombia edition.
func ElPais() *Profile {
	return &Profile{
		ID:        "el_pais",
		Name:      "El Pais",
		StartURLs: []string{"https://elpais.com/america-colombia/actualidad/"},
		Listing: []Strategy{
			CSSAttr("h2.c_t a", "href"),
		},
		Fields: map[string][]Strategy{
			FieldTitle: {
				CSS("h1.a_t"),
				CSS("h1"),
			},
			FieldSubtitle: {
				CSS("h2.a_st"),
				CSS("h2"),
			},
			FieldContent: {
				CSS("div.a_c p, div.a_c h2"),
			},
			FieldDate: {
				CSSAttr("div.a_md_f a time", "datetime"),
				CSSAttr("time", "datetime"),
				CSSAttr("div.a_md_f time", "datetime"),
				CSS("div.a_md_f span"),
				CSS("div.a_md_f"),
			},
		},
		Required: []string{FieldTitle, FieldContent},
	}
}
