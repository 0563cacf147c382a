package source

import "github.com/sesgocero/crawler/internal/dateparse"

// El Nuevo Siglo, politics section. The created field reads
// "Viernes , 15 de marzo de 2024": the weekday before " , " is
// dropped before date parsing.
func ElNuevoSiglo() *Profile {
	return &Profile{
		ID:        "el_nuevo_siglo",
		Name:      "El Nuevo Siglo",
		StartURLs: []string{"https://www.elnuevosiglo.com.co/politica-0"},
		Listing: []Strategy{
			CSSAttr("h2 a", "href"),
		},
		Fields: map[string][]Strategy{
			FieldTitle: {
				CSS("h1"),
			},
			FieldSubtitle: {
				CSS("div.views-field-field-summary"),
			},
			FieldContent: {
				CSS("div.paragraph p"),
			},
			FieldDate: {
				CSS("span.field--name-created"),
			},
		},
		Required:       []string{FieldTitle, FieldSubtitle, FieldContent, FieldDate},
		DateConvention: dateparse.Convention{TrimBefore: " , "},
	}
}
