package source

import (
	"log/slog"
	"os"
	"testing"

	"github.com/sesgocero/crawler/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func makeResp(t *testing.T, url, body string) *types.Response {
	t.Helper()
	req, err := types.NewRequest(url, types.KindArticle, "test")
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	return &types.Response{
		Request:    req,
		StatusCode: 200,
		Body:       []byte(body),
		FinalURL:   url,
	}
}

const articleHTML = `<!DOCTYPE html>
<html>
<head>
	<meta property="og:title" content="Titular OG">
	<meta property="article:published_time" content="2024-03-15T10:00:00-05:00">
	<script type="application/ld+json">
	{"@context":"https://schema.org","@type":"NewsArticle","headline":"Titular JSON","datePublished":"2024-03-15T08:00:00-05:00"}
	</script>
</head>
<body>
	<h1 class="Title">Reforma aprobada en el Congreso</h1>
	<h2 class="ArticleHeader-Hook"><div>La votación terminó de madrugada</div></h2>
	<p class="font--secondary">Primer párrafo del artículo.</p>
	<p class="font--secondary">Segundo párrafo con <b>énfasis</b>.</p>
	<div class="Datetime">15 de marzo de 2024 - 10:30 a. m.</div>
</body>
</html>`

const listingHTML = `<!DOCTYPE html>
<html><body>
	<h2 class="Card-Title"><a href="/politica/articulo-uno/">Uno</a></h2>
	<h2 class="Card-Title"><a href="https://www.elespectador.com/politica/articulo-dos/">Dos</a></h2>
	<h2 class="Card-Title"><a href="/judicial/articulo-tres/">Tres</a></h2>
	<h2 class="Card-Title"><a href="mailto:tips@example.com">Correo</a></h2>
	<h2 class="OtherCard"><a href="/ignorado/">Ignorado</a></h2>
</body></html>`

func TestExtractFields(t *testing.T) {
	e := NewExtractor(testLogger)
	resp := makeResp(t, "https://www.elespectador.com/politica/articulo-uno/", articleHTML)

	fields := e.Extract(resp, ElEspectador())

	if fields.Title != "Reforma aprobada en el Congreso" {
		t.Errorf("title = %q", fields.Title)
	}
	if fields.Subtitle != "La votación terminó de madrugada" {
		t.Errorf("subtitle = %q", fields.Subtitle)
	}
	if len(fields.Content) != 2 {
		t.Fatalf("content blocks = %d, want 2", len(fields.Content))
	}
	if fields.DateRaw != "15 de marzo de 2024 - 10:30 a. m." {
		t.Errorf("date raw = %q", fields.DateRaw)
	}
}

func TestExtractFallbackOrder(t *testing.T) {
	// No h1.Title, so the generic h1 fallback must win; no date
	// markup at all, so the OpenGraph meta fallback must fire.
	body := `<html><head>
		<meta property="article:published_time" content="2024-02-01T07:00:00">
	</head><body>
		<h1>Titular genérico</h1>
		<p class="font--secondary">Texto.</p>
	</body></html>`

	e := NewExtractor(testLogger)
	resp := makeResp(t, "https://www.elespectador.com/x/", body)
	fields := e.Extract(resp, ElEspectador())

	if fields.Title != "Titular genérico" {
		t.Errorf("fallback title = %q", fields.Title)
	}
	if fields.DateRaw != "2024-02-01T07:00:00" {
		t.Errorf("meta date fallback = %q", fields.DateRaw)
	}
}

func TestExtractMissingFieldIsEmpty(t *testing.T) {
	e := NewExtractor(testLogger)
	resp := makeResp(t, "https://www.bluradio.com/x", `<html><body><p>nada</p></body></html>`)
	fields := e.Extract(resp, BluRadio())

	if fields.Title != "" || fields.Subtitle != "" || len(fields.Content) != 0 || fields.DateRaw != "" {
		t.Errorf("expected all-empty fields, got %+v", fields)
	}
}

func TestDiscoverResolvesAbsoluteURLs(t *testing.T) {
	e := NewExtractor(testLogger)
	resp := makeResp(t, "https://www.elespectador.com/", listingHTML)

	links := e.Discover(resp, ElEspectador())
	want := []string{
		"https://www.elespectador.com/politica/articulo-uno/",
		"https://www.elespectador.com/politica/articulo-dos/",
		"https://www.elespectador.com/judicial/articulo-tres/",
	}

	if len(links) != len(want) {
		t.Fatalf("got %d links %v, want %d", len(links), links, len(want))
	}
	for i, w := range want {
		if links[i] != w {
			t.Errorf("link[%d] = %q, want %q", i, links[i], w)
		}
	}
}

func TestDiscoverEmptyListing(t *testing.T) {
	e := NewExtractor(testLogger)
	resp := makeResp(t, "https://www.elespectador.com/", `<html><body><p>sin enlaces</p></body></html>`)

	if links := e.Discover(resp, ElEspectador()); len(links) != 0 {
		t.Errorf("expected no links, got %v", links)
	}
}

func TestRegexStrategy(t *testing.T) {
	body := `<html><body><script>window.__DATA__={"datePublished": "2024-04-02T06:00:00"}</script>
		<h1 class="c-articulo__titulo">Titular</h1>
		<div class="paragraph">Cuerpo</div></body></html>`

	e := NewExtractor(testLogger)
	resp := makeResp(t, "https://www.eltiempo.com/x", body)
	fields := e.Extract(resp, ElTiempo())

	if fields.DateRaw != "2024-04-02T06:00:00" {
		t.Errorf("regex date = %q", fields.DateRaw)
	}
}

func TestXPathStrategy(t *testing.T) {
	p := &Profile{
		ID:   "xpath_test",
		Name: "XPath Test",
		Fields: map[string][]Strategy{
			FieldTitle:   {XPath("//h1[@class='headline']")},
			FieldContent: {XPath("//div[@id='body']/p")},
		},
	}

	body := `<html><body>
		<h1 class="headline">Titular por XPath</h1>
		<div id="body"><p>uno</p><p>dos</p></div>
	</body></html>`

	e := NewExtractor(testLogger)
	fields := e.Extract(makeResp(t, "https://example.com/x", body), p)

	if fields.Title != "Titular por XPath" {
		t.Errorf("xpath title = %q", fields.Title)
	}
	if len(fields.Content) != 2 {
		t.Errorf("xpath content blocks = %d, want 2", len(fields.Content))
	}
}

func TestInvalidStrategyIsMissNotFatal(t *testing.T) {
	p := &Profile{
		ID:   "broken",
		Name: "Broken",
		Fields: map[string][]Strategy{
			FieldTitle: {
				XPath("//h1[unclosed"),  // invalid xpath: miss
				Regex(`(unbalanced`),    // invalid regex: miss
				CSS("h1"),               // valid fallback
			},
		},
	}

	e := NewExtractor(testLogger)
	fields := e.Extract(makeResp(t, "https://example.com/x", `<html><body><h1>Rescatado</h1></body></html>`), p)

	if fields.Title != "Rescatado" {
		t.Errorf("expected fallback past broken strategies, got %q", fields.Title)
	}
}

func TestJSONLDMeta(t *testing.T) {
	p := &Profile{
		ID:   "jsonld",
		Name: "JSONLD",
		Fields: map[string][]Strategy{
			FieldDate: {Meta("jsonld:datePublished")},
		},
	}

	e := NewExtractor(testLogger)
	fields := e.Extract(makeResp(t, "https://example.com/x", articleHTML), p)

	if fields.DateRaw != "2024-03-15T08:00:00-05:00" {
		t.Errorf("jsonld date = %q", fields.DateRaw)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	for _, id := range []string{"el_espectador", "el_tiempo", "el_pais", "blu_radio", "silla_vacia", "el_nuevo_siglo"} {
		p, err := r.Get(id)
		if err != nil {
			t.Errorf("Get(%q): %v", id, err)
			continue
		}
		if len(p.StartURLs) == 0 {
			t.Errorf("%s has no start URLs", id)
		}
		if len(p.Listing) == 0 {
			t.Errorf("%s has no listing strategies", id)
		}
		if len(p.Required) == 0 {
			t.Errorf("%s has no required fields", id)
		}
	}

	if _, err := r.Get("no_such_source"); err == nil {
		t.Error("expected error for unknown source")
	}
}
