package source

// La Silla Vacia. WordPress markup; the published timestamp is a
// machine-readable datetime attribute.
func SillaVacia() *Profile {
	return &Profile{
		ID:        "silla_vacia",
		Name:      "La Silla Vacia",
		StartURLs: []string{"https://www.lasillavacia.com/"},
		Listing: []Strategy{
			CSSAttr("h2.entry-title a", "href"),
		},
		Fields: map[string][]Strategy{
			FieldTitle: {
				CSS("h1.entry-title"),
			},
			FieldSubtitle: {
				CSS("h2.entry-title"),
			},
			FieldContent: {
				CSS("div.entry-content p"),
			},
			FieldDate: {
				CSSAttr("span.posted-on time.published", "datetime"),
			},
		},
		Required: []string{FieldTitle, FieldContent, FieldDate},
	}
}
