package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/harvest/contract"
)

func contractID(s string) contract.ID { return contract.ID(s) }

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, `'Abrir'`, xpathLiteral("Abrir"))
	assert.Equal(t, `"O'Neil"`, xpathLiteral("O'Neil"))
	assert.Equal(t, `concat('say "hi" to ', "'", 'Bob', "'", 's')`, xpathLiteral(`say "hi" to 'Bob's`))
}

func TestSelectorXPaths(t *testing.T) {
	sel := DefaultSelectors()

	assert.Equal(t, `//table[@id='_xvn8od']`, sel.resultsTable())
	assert.Equal(t, `//a[@_mid='_m2']`, sel.rowLink("_m2"))
	assert.Equal(t, `//div[@id='_m2']//a[normalize-space()='Abrir']`, sel.openOption("_m2"))
	assert.Equal(t,
		`//li[contains(concat(' ', normalize-space(@class), ' '), ' w-tabitem-selected ')][.//text()[normalize-space()='Documentos']]`,
		sel.tab(sel.SelectedTabClass))
	assert.Equal(t,
		`//button[contains(concat(' ', normalize-space(@class), ' '), ' w-btn ')][normalize-space()='Ações']`,
		sel.actionsButton())
	assert.Contains(t, sel.documentsMenuItem(), `@id='MyMenu'`)
	assert.Contains(t, sel.documentsMenuItem(), `' awmenu '`)
	assert.Equal(t, `//button[not(@disabled)][contains(normalize-space(), 'Fazer download')]`, sel.downloadButton())
	assert.Equal(t, `//*[normalize-space(text())='Nenhum documento disponível']`, text(sel.NoDocumentsLabel))
}

func TestJSString(t *testing.T) {
	assert.Equal(t, `'div.w-chk-container input'`, jsString("div.w-chk-container input"))
	assert.Equal(t, `'a\'b\\c'`, jsString(`a'b\c`))
}
