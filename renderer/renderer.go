// Package renderer turns portfolio views into markdown documents.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed templates/*.md
var templateFS embed.FS

var templates, _ = fs.Sub(templateFS, "templates")

// RenderAssets renders the asset list.
func RenderAssets(v *AssetList) string {
	return renderTemplate("assets", "assets.md", nil, v)
}

// RenderWallets renders the wallet list.
func RenderWallets(v *WalletList) string {
	return renderTemplate("wallets", "wallets.md", nil, v)
}

// RenderPositions renders the positions of one wallet.
func RenderPositions(v *PositionList) string {
	return renderTemplate("positions", "positions.md", nil, v)
}

// RenderTransactions renders a transaction list, followed by the rejected ones if any.
func RenderTransactions(v *TransactionList) string {
	partials := map[string]string{
		"rejections": "rejections.md",
	}
	return renderTemplate("transactions", "transactions.md", partials, v)
}

// RenderFees renders the fee ledger.
func RenderFees(v *FeeList) string {
	return renderTemplate("fees", "fees.md", nil, v)
}

// RenderGains renders the gain/loss ledger.
func RenderGains(v *GainList) string {
	return renderTemplate("gains", "gains.md", nil, v)
}

// renderTemplate parses mainFile as templateName, adds the partials (name
// to file) and executes it with data. Errors are rendered in place of the
// document.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
