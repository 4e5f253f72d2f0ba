package htmlutil

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const favoriteTable = `
<div class="result-table">
<table>
<thead><tr><th></th><th>Sija</th><th>Joukkue</th></tr></thead>
<tbody>
	<tr>
		<td><form class="favorite-form"><button>*</button></form></td>
		<td>1</td>
		<td>Polkijat
			(12)</td>
	</tr>
	<tr>
		<td>2</td>
		<td><a href="/teams/kulkijat/kilometrikisa-2021/">Kulkijat</a> (3)</td>
	</tr>
</tbody>
</table>
</div>`

func parse(t testing.TB, src string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestExtractTableRemovesConditionalColumns(t *testing.T) {
	doc := parse(t, favoriteTable)

	rows, err := ExtractTable(doc.Find(".result-table"), TableOptions{
		Hooks:              []string{"td > .favorite-form"},
		CollapseWhitespace: true,
		MinColumns:         2,
	})
	require.NoError(t, err)
	require.Equal(t, []Row{
		{Cells: []string{"1", "Polkijat (12)"}},
		{
			Cells: []string{"2", "Kulkijat (3)"},
			Href:  "/teams/kulkijat/kilometrikisa-2021/",
		},
	}, rows)
}

func TestExtractTableErrors(t *testing.T) {
	doc := parse(t, favoriteTable)

	_, err := ExtractTable(doc.Find(".missing"), TableOptions{})
	require.True(t, errors.Is(err, ErrTableNotFound))

	_, err = ExtractTable(doc.Find("thead"), TableOptions{})
	require.True(t, errors.Is(err, ErrTableNotFound))

	// without the hook the favorite column shifts the first row, the second
	// row then fails the column assertion
	_, err = ExtractTable(doc.Find(".result-table"), TableOptions{MinColumns: 3})
	require.True(t, errors.Is(err, ErrShortRow))
}

func TestInlineScripts(t *testing.T) {
	doc := parse(t, `<html><head><script>var head = 1;</script></head><body>
		<script src="/static/app.js"></script>
		<script>
			$('#search').autocomplete({ source: '/contest/json-search/45/' });
		</script>
		<script>   </script>
	</body></html>`)

	scripts := InlineScripts(doc.Find("body"))
	require.Len(t, scripts, 1)
	require.Contains(t, scripts[0], "json-search/45/")
}

func TestCollapseWhitespace(t *testing.T) {
	require.Equal(t, " a b c ", CollapseWhitespace("\n a \t\tb\n\nc  "))
}
