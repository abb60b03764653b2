package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title   string
	Heading string
}

type alertField struct {
	Name  string
	Value string
}

type transactionAlertEmailData struct {
	baseEmailData
	TransactionID   string
	TransactionType string
	ErrorKind       string
	Message         string
	PolicyNumber    string
	OpportunityID   string
	OccurredAt      string
	Fields          []alertField
	Warnings        []string
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

func renderTransactionAlert(alert TransactionAlert) (string, string, error) {
	data := transactionAlertEmailData{
		baseEmailData: baseEmailData{
			Title:   "Transaction needs follow-up",
			Heading: "A PAS transaction stopped part-way",
		},
		TransactionID:   alert.TransactionID,
		TransactionType: alert.TransactionType,
		ErrorKind:       alert.ErrorKind,
		Message:         alert.Message,
		PolicyNumber:    alert.PolicyNumber,
		OccurredAt:      alert.OccurredAt.UTC().Format(time.RFC3339),
		Fields:          sortedFields(alert.Result),
		Warnings:        alert.Warnings,
	}
	if alert.OpportunityID != nil {
		data.OpportunityID = fmt.Sprintf("%d", *alert.OpportunityID)
	}

	content, err := renderEmailTemplate("transaction_alert.html", data)
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf(subjectTransactionAlertFmt, alert.TransactionType, alert.TransactionID), content, nil
}

func sortedFields(values map[string]any) []alertField {
	fields := make([]alertField, 0, len(values))
	for name, v := range values {
		fields = append(fields, alertField{Name: name, Value: fmt.Sprint(v)})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields
}
