package portal

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/teranos/harvest/contract"
	"github.com/teranos/harvest/errors"
)

// rowLink is the menu link of the results row that matched a contract.
type rowLink struct {
	MenuID string
	Title  string
}

// findRowLink looks through the results table HTML for the row with a cell
// whose normalized text equals id, and returns the menu link in that row's
// first cell. No such row, link, or menu id wraps errors.ErrNotFound.
func findRowLink(tableHTML string, id contract.ID, sel Selectors) (rowLink, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tableHTML))
	if err != nil {
		return rowLink{}, errors.Wrap(err, "failed to parse results table")
	}

	var (
		link  rowLink
		found bool
	)
	doc.Find("tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if !rowHasCell(row, string(id)) {
			return true
		}
		a := row.Find("td").First().Find("a." + sel.RowLinkClass).First()
		if a.Length() == 0 {
			return true
		}
		mid, _ := a.Attr(sel.MenuIDAttr)
		if mid == "" {
			return true
		}
		title, _ := a.Attr("title")
		if title == "" {
			title = normalizeSpace(a.Text())
		}
		link = rowLink{MenuID: mid, Title: title}
		found = true
		return false
	})

	if !found {
		return rowLink{}, errors.Wrapf(errors.ErrNotFound, "no result row for contract %s", id)
	}
	return link, nil
}

func rowHasCell(row *goquery.Selection, want string) bool {
	match := false
	row.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		match = normalizeSpace(td.Text()) == want
		return !match
	})
	return match
}

// normalizeSpace trims s and collapses inner whitespace runs to one space,
// like XPath normalize-space().
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// titlePrefix returns the first n runes of title.
func titlePrefix(title string, n int) string {
	r := []rune(title)
	if n > 0 && len(r) > n {
		r = r[:n]
	}
	return string(r)
}

// pageShowsOpened reports whether the page text shows an opened record:
// the title prefix (case-insensitive) or one of the record view labels.
func pageShowsOpened(pageText, title string, sel Selectors) bool {
	lower := strings.ToLower(pageText)
	if prefix := strings.ToLower(strings.TrimSpace(titlePrefix(title, sel.TitlePrefixLen))); prefix != "" &&
		strings.Contains(lower, prefix) {
		return true
	}
	for _, label := range sel.OpenedLabels {
		if strings.Contains(pageText, label) {
			return true
		}
	}
	return false
}
