package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/zoobzio/mold"
	"github.com/zoobzio/mold/bson"
	"github.com/zoobzio/mold/json"
	"github.com/zoobzio/mold/msgpack"
	moldtest "github.com/zoobzio/mold/testing"
	"github.com/zoobzio/mold/yaml"
)

func codecs() map[string]mold.Codec {
	return map[string]mold.Codec{
		"json":    json.New(),
		"yaml":    yaml.New(),
		"msgpack": msgpack.New(),
		"bson":    bson.New(),
	}
}

func TestDocumentToPage(t *testing.T) {
	for name, c := range codecs() {
		t.Run(name, func(t *testing.T) {
			data, err := c.Marshal(moldtest.PageDocument())
			require.NoError(t, err)

			node, err := mold.DecodeNode(c, data)
			require.NoError(t, err)
			assert.Equal(t, 1100, node.ID())
			assert.Equal(t, "page", node.TypeAlias())

			e := moldtest.NewEngine(t)
			page, err := mold.As[*moldtest.Page](context.Background(), e, node, mold.WithCulture(language.German))
			require.NoError(t, err)
			require.NotNil(t, page)

			assertPage(t, page)
			assert.Equal(t, "Hallo", page.Greeting)
		})
	}
}

func TestNodeToPage(t *testing.T) {
	e := moldtest.NewEngine(t)
	page, err := mold.As[*moldtest.Page](context.Background(), e, moldtest.PageNode(moldtest.SiteNode()))
	require.NoError(t, err)
	assertPage(t, page)
}

func TestEncodeDecodeNode(t *testing.T) {
	for name, c := range codecs() {
		t.Run(name, func(t *testing.T) {
			original := moldtest.PageNode(nil)

			data, err := mold.EncodeNode(c, original)
			require.NoError(t, err)

			restored, err := mold.DecodeNode(c, data)
			require.NoError(t, err)
			assert.Equal(t, original.ID(), restored.ID())

			e := moldtest.NewEngine(t)
			want, err := mold.As[*moldtest.Page](context.Background(), e, original)
			require.NoError(t, err)
			got, err := mold.As[*moldtest.Page](context.Background(), e, restored)
			require.NoError(t, err)

			assert.Equal(t, want.Title, got.Title)
			assert.Equal(t, want.Views, got.Views)
			assert.Equal(t, want.Hero, got.Hero)
			assert.Equal(t, want.Authors, got.Authors)
			assert.Equal(t, pageTitles(want.Related.Value()), pageTitles(got.Related.Value()))
		})
	}
}

func TestCultureFallback(t *testing.T) {
	e := moldtest.NewEngine(t)
	node := moldtest.PageNode(nil)

	tests := map[string]struct {
		culture language.Tag
		want    string
	}{
		"exact":    {language.French, "Bonjour"},
		"regional": {language.MustParse("de-CH"), "Hallo"},
		"fallback": {language.Korean, "Hello"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			page, err := mold.As[*moldtest.Page](context.Background(), e, node, mold.WithCulture(tt.culture))
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.Greeting)
		})
	}
}

func TestCachedPage(t *testing.T) {
	e := moldtest.NewEngine(t)
	node := mold.NewNode(7, "page", map[string]any{"title": "cached", "views": 1})

	first, err := mold.As[*moldtest.CachedPage](context.Background(), e, node)
	require.NoError(t, err)
	second, err := mold.As[*moldtest.CachedPage](context.Background(), e, node)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, e.Cache().Len())

	e.Cache().Purge()
	third, err := mold.As[*moldtest.CachedPage](context.Background(), e, node)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, first, third)
}

func assertPage(t *testing.T, page *moldtest.Page) {
	t.Helper()

	assert.Equal(t, "Welcome", page.Title)
	assert.Equal(t, "A short intro", page.Summary)
	assert.Equal(t, "dark", page.Theme)
	assert.Equal(t, 42, page.Views)
	assert.Equal(t, []string{"go", "content", "mold"}, page.Tags)
	assert.Equal(t, mold.HTML("<p>Hello</p>"), page.Body)

	require.NotNil(t, page.Hero)
	assert.Equal(t, &moldtest.Image{URL: "/hero.png", Alt: "Hero"}, page.Hero)

	require.Len(t, page.Authors, 2)
	assert.Equal(t, "Ada", page.Authors[0].Name)
	assert.Equal(t, "a***@example.com", page.Authors[0].Email)
	assert.Equal(t, "g***@example.com", page.Authors[1].Email)

	assert.False(t, page.Related.Evaluated())
	related, err := page.Related.Get()
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "Next", related[0].Title)
	assert.Empty(t, related[0].Authors)
	assert.NotNil(t, related[0].Authors)
}

// pageTitles reduces pages to comparable values; their Lazy cells hold
// bound computations that never compare equal.
func pageTitles(pages []*moldtest.Page) []string {
	titles := make([]string, 0, len(pages))
	for _, p := range pages {
		titles = append(titles, p.Title)
	}
	return titles
}
