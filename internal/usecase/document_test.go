package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
)

func validDocument() NewDocumentInput {
	return NewDocumentInput{
		FileName: "passport.pdf",
		FileURL:  "https://cdn.test/clients/c/passport.pdf",
		FileKey:  "clients/c/passport.pdf",
		FileType: "application/pdf",
		FileSize: 2048,
		Category: domain.CategoryIDDocument,
	}
}

func TestAddDocument(t *testing.T) {
	h := newHarness(t)
	metrics := &countingMetrics{}
	h.documents.WithMetrics(metrics)
	res := h.signup(t, "docs@example.com")

	doc, err := h.documents.AddDocument(context.Background(), res.Client.ID, validDocument())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if doc.VerificationStatus != domain.VerificationPending || doc.ClientID != res.Client.ID || doc.ID == "" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if h.events.count("document.uploaded") != 1 || metrics.uploaded != 1 {
		t.Fatalf("expected upload to be published and counted")
	}
}

func TestAddDocumentValidation(t *testing.T) {
	h := newHarness(t)

	in := validDocument()
	in.FileType = "application/x-msdownload"
	in.FileSize = 11 << 20
	in.Category = "SELFIE"
	in.FileKey = " "

	_, err := h.documents.AddDocument(context.Background(), "c", in)
	requireKind(t, err, domain.KindValidation)

	var de *domain.Error
	if !asDomainError(err, &de) {
		t.Fatalf("expected *domain.Error, got %T", err)
	}
	fields := map[string]bool{}
	for _, f := range de.Details.([]domain.FieldError) {
		fields[f.Field] = true
	}
	for _, want := range []string{"fileKey", "fileType", "fileSize", "category"} {
		if !fields[want] {
			t.Fatalf("expected %s to be reported, got %v", want, fields)
		}
	}
}

func TestListDocumentsFiltersByCategory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.signup(t, "list@example.com")

	if _, err := h.documents.AddDocument(ctx, res.Client.ID, validDocument()); err != nil {
		t.Fatalf("add: %v", err)
	}
	tax := validDocument()
	tax.Category = domain.CategoryTaxDocument
	if _, err := h.documents.AddDocument(ctx, res.Client.ID, tax); err != nil {
		t.Fatalf("add: %v", err)
	}

	all, err := h.documents.ListDocuments(ctx, res.Client.ID, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("expected two documents, got %d (%v)", len(all), err)
	}
	only, err := h.documents.ListDocuments(ctx, res.Client.ID, domain.CategoryTaxDocument)
	if err != nil || len(only) != 1 || only[0].Category != domain.CategoryTaxDocument {
		t.Fatalf("unexpected filtered list: %+v (%v)", only, err)
	}
	_, err = h.documents.ListDocuments(ctx, res.Client.ID, "BOGUS")
	requireKind(t, err, domain.KindValidation)
}

func TestDeleteDocument(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.signup(t, "owner-doc@example.com")
	other := h.signup(t, "other-doc@example.com")
	h.seedDocument(owner.Client.ID, "doc-1", domain.VerificationPending)

	requireKind(t, h.documents.DeleteDocument(ctx, other.Client.ID, "doc-1"), domain.KindNotFound)
	requireKind(t, h.documents.DeleteDocument(ctx, owner.Client.ID, "missing"), domain.KindNotFound)

	h.storage.err = errBoom
	if err := h.documents.DeleteDocument(ctx, owner.Client.ID, "doc-1"); err != nil {
		t.Fatalf("storage failures must not fail the delete: %v", err)
	}
	if len(h.storage.deleted) != 1 || h.storage.deleted[0] != "clients/"+owner.Client.ID+"/doc-1.pdf" {
		t.Fatalf("expected stored object delete, got %v", h.storage.deleted)
	}
	requireKind(t, h.documents.DeleteDocument(ctx, owner.Client.ID, "doc-1"), domain.KindNotFound)
}

func TestCreateUploadURL(t *testing.T) {
	h := newHarness(t)

	ticket, err := h.documents.CreateUploadURL(context.Background(), "client-1", UploadRequest{
		FileName: "../My Scan (1).PNG",
		FileType: "image/png",
		FileSize: 4096,
		Category: domain.CategoryProofOfAddress,
	})
	if err != nil {
		t.Fatalf("upload url: %v", err)
	}
	if !strings.HasPrefix(ticket.FileKey, "clients/client-1/") || !strings.HasSuffix(ticket.FileKey, "-My_Scan__1_.PNG") {
		t.Fatalf("unexpected key %q", ticket.FileKey)
	}
	if ticket.FileURL != "https://cdn.test/"+ticket.FileKey {
		t.Fatalf("unexpected public url %q", ticket.FileURL)
	}
	if ticket.UploadURL == "" || ticket.Headers["Content-Type"] != "image/png" {
		t.Fatalf("unexpected ticket %+v", ticket)
	}

	_, err = h.documents.CreateUploadURL(context.Background(), "client-1", UploadRequest{FileName: "x.exe", FileType: "application/octet-stream", FileSize: 1, Category: domain.CategoryOther})
	requireKind(t, err, domain.KindValidation)
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"report.pdf":          "report.pdf",
		"a b/c d.pdf":         "c_d.pdf",
		`C:\docs\tax.pdf`:     "tax.pdf",
		"..":                  "",
		".hidden":             "hidden",
		"résumé.pdf":          "r_sum_.pdf",
		"":                    "",
		"   spaced name.png ": "spaced_name.png",
	}
	for in, want := range cases {
		if got := sanitizeFileName(in); got != want {
			t.Errorf("sanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
