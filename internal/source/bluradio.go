package source

// Blu Radio, nation desk. The strictest policy of the set: an article
// without a subtitle or a parseable date ("15 de marzo, 2024") is
// skipped rather than stored incomplete.
func BluRadio() *Profile {
	return &Profile{
		ID:        "blu_radio",
		Name:      "Blu Radio",
		StartURLs: []string{"https://www.bluradio.com/nacion"},
		Listing: []Strategy{
			CSSAttr("h2 a", "href"),
		},
		Fields: map[string][]Strategy{
			FieldTitle: {
				CSS("h1.ArticlePage-headline"),
			},
			FieldSubtitle: {
				CSS("h2.ArticlePage-subHeadline"),
			},
			FieldContent: {
				CSS("div.RichTextArticleBody div.RichTextBody p"),
			},
			FieldDate: {
				CSS("div time"),
				Meta("article:published_time"),
			},
		},
		Required: []string{FieldTitle, FieldSubtitle, FieldContent, FieldDate},
	}
}
