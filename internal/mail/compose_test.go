package mail

import (
	"strings"
	"testing"
)

func testApplication() Application {
	return Application{
		Reference:      "A1B2C3D4",
		Label:          "Crédit Personnel",
		ApplicantName:  "Awa Dossou",
		ApplicantEmail: "awa@example.com",
		Fields: []FieldValue{
			{Label: "Nom complet", Value: "Awa Dossou"},
			{Label: "Montant souhaité", Value: "25000"},
			{Label: "Durée", Value: "40"},
		},
		Attachments: []Attachment{
			{Filename: "cni.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4")},
		},
	}
}

func TestOperator_ListsFieldsAndAttachments(t *testing.T) {
	msg, err := NewComposer("Zofin Finance").Operator(testApplication())
	if err != nil {
		t.Fatalf("operator: %v", err)
	}

	if want := "Nouvelle demande de crédit [A1B2C3D4] - Crédit Personnel"; msg.Subject != want {
		t.Errorf("subject = %q, want %q", msg.Subject, want)
	}
	for _, needle := range []string{"Crédit Personnel", "A1B2C3D4", "Montant souhaité", "25000", "Durée", "40", "cni.pdf"} {
		if !strings.Contains(msg.HTML, needle) {
			t.Errorf("operator html missing %q", needle)
		}
	}
}

func TestApplicant_CarriesReferenceInBothBodies(t *testing.T) {
	msg, err := NewComposer("Zofin Finance").Applicant(testApplication())
	if err != nil {
		t.Fatalf("applicant: %v", err)
	}

	if want := "Votre demande de crédit A1B2C3D4"; msg.Subject != want {
		t.Errorf("subject = %q, want %q", msg.Subject, want)
	}
	for _, body := range []string{msg.HTML, msg.Text} {
		for _, needle := range []string{"Awa Dossou", "Crédit Personnel", "A1B2C3D4", "Zofin Finance"} {
			if !strings.Contains(body, needle) {
				t.Errorf("body missing %q", needle)
			}
		}
	}
	if !strings.Contains(msg.Text, "Bonjour Awa Dossou") {
		t.Error("text body missing greeting")
	}
}

func TestOperator_StripsMarkupFromValues(t *testing.T) {
	app := testApplication()
	app.Fields = []FieldValue{
		{Label: "Nom complet", Value: `<script>alert("x")</script>Awa`},
	}
	app.Attachments = []Attachment{
		{Filename: `<img src=x onerror=alert(1)>.pdf`, ContentType: "application/pdf"},
	}

	msg, err := NewComposer("Zofin Finance").Operator(app)
	if err != nil {
		t.Fatalf("operator: %v", err)
	}
	if strings.Contains(msg.HTML, "<script>") || strings.Contains(msg.HTML, "<img") {
		t.Errorf("markup survived sanitization:\n%s", msg.HTML)
	}
	if !strings.Contains(msg.HTML, "Awa") {
		t.Error("text content stripped along with markup")
	}
}

func TestOperator_NoAttachments(t *testing.T) {
	app := testApplication()
	app.Attachments = nil

	msg, err := NewComposer("Zofin Finance").Operator(app)
	if err != nil {
		t.Fatalf("operator: %v", err)
	}
	if !strings.Contains(msg.HTML, "Aucune pièce jointe") {
		t.Error("operator html missing empty-attachments notice")
	}
}
