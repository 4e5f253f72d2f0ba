package htmlutil

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	ErrTableNotFound = errors.New("table not found")
	ErrShortRow      = errors.New("table row has too few columns")
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

// CollapseWhitespace replaces every whitespace run with a single space.
func CollapseWhitespace(s string) string {
	return innerWhitespace.ReplaceAllString(s, " ")
}

// InlineScripts returns the text of every <script> under sel that has
// content of its own, in document order. Scripts loaded through src are skipped.
func InlineScripts(sel *goquery.Selection) []string {
	var scripts []string
	for _, node := range sel.Find("script").Nodes {
		text := GetText(node)
		if strings.TrimSpace(text) == "" {
			continue
		}
		scripts = append(scripts, text)
	}
	return scripts
}

type TableOptions struct {
	// Hooks are selectors matched inside each row, the parent of every match
	// is removed before the row's cells are read. This keeps column indices
	// stable when a column only exists for some viewers.
	Hooks []string
	// CollapseWhitespace collapses whitespace runs in the cell text.
	CollapseWhitespace bool
	// MinColumns is the number of cells every row must have after the hooks
	// ran, 0 disables the check.
	MinColumns int
}

type Row struct {
	Cells []string
	// Href of the first link in the row, empty if there is none.
	Href string
}

// ExtractTable reads the rows of the tbody inside container and returns the
// text of each remaining cell per row. The hooks mutate the document.
func ExtractTable(container *goquery.Selection, opts TableOptions) ([]Row, error) {
	if container.Length() == 0 {
		return nil, ErrTableNotFound
	}
	tbody := container.Find("tbody").First()
	if tbody.Length() == 0 {
		return nil, fmt.Errorf("%w: no tbody", ErrTableNotFound)
	}

	var rows []Row
	var rowErr error
	tbody.Children().EachWithBreak(func(i int, row *goquery.Selection) bool {
		for _, hook := range opts.Hooks {
			row.Find(hook).Parent().Remove()
		}

		cells := row.Children()
		columns := make([]string, cells.Length())
		cells.Each(func(j int, cell *goquery.Selection) {
			text := cell.Text()
			if opts.CollapseWhitespace {
				text = CollapseWhitespace(text)
			}
			columns[j] = text
		})

		if len(columns) < opts.MinColumns {
			rowErr = fmt.Errorf("%w: row %d has %d, expected %d", ErrShortRow, i, len(columns), opts.MinColumns)
			return false
		}
		rows = append(rows, Row{
			Cells: columns,
			Href:  row.Find("a").First().AttrOr("href", ""),
		})
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	return rows, nil
}
