package portal

import (
	"fmt"
	"strings"
)

// Selectors locate the portal's UI elements. CSS selectors are queried with
// chromedp.ByQuery; labels are matched against whitespace-normalized text.
type Selectors struct {
	// Login
	UserInput          string // CSS
	PasswordInput      string // CSS
	LogonButton        string // CSS
	UserInitials       string // CSS, present on every page once logged in
	InterstitialButton string // CSS, dismissed after login when visible
	HomeMarker         string // CSS, must be visible after login

	// Search and open
	SearchInput    string   // CSS
	ResultsTableID string   // id of the results table
	RowLinkClass   string   // class of the menu link in a row's first cell
	MenuIDAttr     string   // attribute of the row link naming its popup menu
	OpenLabel      string   // popup menu entry that opens the record
	OpenedLabels   []string // any of these on the page means a record is open
	TitlePrefixLen int      // leading runes of the record title looked for after opening

	// Documents
	TabClass            string
	SelectedTabClass    string
	DocumentsLabel      string // tab and actions-menu entry
	ActionsButtonClass  string
	ActionsLabel        string
	MenuClass           string
	MenuID              string
	DocumentsPageLabel  string // heading of the download page
	SelectAll           string // CSS, the select-all checkbox container
	DownloadButtonLabel string
	NoDocumentsLabel    string
}

// DefaultSelectors returns the selectors for the portal's Portuguese UI.
func DefaultSelectors() Selectors {
	return Selectors{
		UserInput:          `input[name="USER"]`,
		PasswordInput:      `input[name="PASSWORD"]`,
		LogonButton:        `input[value="Logon"]`,
		UserInitials:       `span.aw7_user-name-initials`,
		InterstitialButton: `#_bqrtm`,
		HomeMarker:         `#_lg3djd`,

		SearchInput:    `input[name="_3fjlgc"]`,
		ResultsTableID: "_xvn8od",
		RowLinkClass:   "hoverArrow",
		MenuIDAttr:     "_mid",
		OpenLabel:      "Abrir",
		OpenedLabels:   []string{"Documentos", "Visão Geral"},
		TitlePrefixLen: 30,

		TabClass:            "w-tabitem",
		SelectedTabClass:    "w-tabitem-selected",
		DocumentsLabel:      "Documentos",
		ActionsButtonClass:  "w-btn",
		ActionsLabel:        "Ações",
		MenuClass:           "awmenu",
		MenuID:              "MyMenu",
		DocumentsPageLabel:  "Fazer download de documentos",
		SelectAll:           `div.w-chk-container`,
		DownloadButtonLabel: "Fazer download",
		NoDocumentsLabel:    "Nenhum documento disponível",
	}
}

// xpathLiteral quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so a value holding both quote kinds is built with concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, `'`) {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, `'`)
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// hasClass is an XPath predicate matching one class token.
func hasClass(class string) string {
	return fmt.Sprintf(`contains(concat(' ', normalize-space(@class), ' '), %s)`, xpathLiteral(" "+class+" "))
}

func (s Selectors) resultsTable() string {
	return fmt.Sprintf(`//table[@id=%s]`, xpathLiteral(s.ResultsTableID))
}

func (s Selectors) rowLink(menuID string) string {
	return fmt.Sprintf(`//a[@%s=%s]`, s.MenuIDAttr, xpathLiteral(menuID))
}

func (s Selectors) openOption(menuID string) string {
	return fmt.Sprintf(`//div[@id=%s]//a[normalize-space()=%s]`, xpathLiteral(menuID), xpathLiteral(s.OpenLabel))
}

func (s Selectors) tab(class string) string {
	return fmt.Sprintf(`//li[%s][.//text()[normalize-space()=%s]]`, hasClass(class), xpathLiteral(s.DocumentsLabel))
}

func (s Selectors) actionsButton() string {
	return fmt.Sprintf(`//button[%s][normalize-space()=%s]`, hasClass(s.ActionsButtonClass), xpathLiteral(s.ActionsLabel))
}

func (s Selectors) documentsMenuItem() string {
	return fmt.Sprintf(`//div[%s or @id=%s]//*[normalize-space(text())=%s]`,
		hasClass(s.MenuClass), xpathLiteral(s.MenuID), xpathLiteral(s.DocumentsLabel))
}

func (s Selectors) downloadButton() string {
	return fmt.Sprintf(`//button[not(@disabled)][contains(normalize-space(), %s)]`, xpathLiteral(s.DownloadButtonLabel))
}

// text matches any element whose own text is exactly label.
func text(label string) string {
	return fmt.Sprintf(`//*[normalize-space(text())=%s]`, xpathLiteral(label))
}
