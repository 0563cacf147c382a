package source

// El Tiempo politics section. Timestamps are ISO with a time part
// ("2024-03-15T10:00:00"), with a Spanish long form as fallback.
func ElTiempo() *Profile {
	return &Profile{
		ID:        "el_tiempo",
		Name:      "El Tiempo",
		StartURLs: []string{"https://www.eltiempo.com/politica/gobierno/"},
		Listing: []Strategy{
			CSSAttr("h3.c-articulo__titulo a", "href"),
		},
		Fields: map[string][]Strategy{
			FieldTitle: {
				CSS("h1.c-articulo__titulo"),
				CSS("h1"),
			},
			FieldSubtitle: {
				CSS("h2.c-lead__titulo"),
				CSS("h2"),
			},
			FieldContent: {
				CSS("div.paragraph"),
			},
			FieldDate: {
				CSS("div.c-articulo__autor__fecha time"),
				CSS("div.c-articulo__autor__fecha span time"),
				CSS("div.c-articulo__autor__fecha span"),
				CSSAttr("time", "datetime"),
				CSSAttr("div.c-articulo__autor__fecha time", "datetime"),
				Regex(`"datePublished"\s*:\s*"([^"]+)"`),
			},
		},
		Required: []string{FieldTitle, FieldContent},
	}
}
