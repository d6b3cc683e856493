package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type assignmentEmailData struct {
	Title              string
	Heading            string
	ContractorName     string
	PropertyID         string
	Category           string
	Description        string
	ContractorPhone    string
	EstimatedFormatted string
	QuoteFormatted     string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatCurrencyUSD(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}
