package email

import (
	"context"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"

	"tipsheet/internal/platform/config"
)

func TestNewDisabledIsNoop(t *testing.T) {
	mailer := New(config.Config{EmailEnabled: false, SMTPHost: "smtp.example.com"})
	if _, ok := mailer.(noopMailer); !ok {
		t.Fatalf("expected noop mailer, got %T", mailer)
	}
	if err := mailer.Send(context.Background(), Message{From: "a@example.com", To: "b@example.com"}); err != nil {
		t.Fatalf("noop send failed: %v", err)
	}
	if _, ok := New(config.Config{EmailEnabled: true, SMTPHost: "smtp.example.com"}).(*smtpMailer); !ok {
		t.Fatal("expected smtp mailer when enabled")
	}
}

func TestEncodePlainStripsHeaderInjection(t *testing.T) {
	raw, err := encode(Message{
		From:    "from@example.com",
		To:      "to@example.com",
		Subject: "Tips for 01/15/2026\r\nBcc: evil@example.com",
		Body:    "body",
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	msg := string(raw)
	if !strings.HasPrefix(msg, "From: from@example.com\r\nTo: to@example.com\r\n") {
		t.Fatalf("unexpected headers: %q", msg)
	}
	if strings.Contains(msg, "\r\nBcc:") {
		t.Fatalf("header injection not stripped: %q", msg)
	}
	if !strings.HasSuffix(msg, "\r\n\r\nbody") {
		t.Fatalf("expected body after blank line: %q", msg)
	}
}

func TestEncodeWithAttachment(t *testing.T) {
	pdf := []byte("%PDF-1.3 " + strings.Repeat("x", 200))
	raw, err := encode(Message{
		From:        "from@example.com",
		To:          "to@example.com",
		Subject:     "Tip payouts",
		Body:        "see attached",
		Attachments: []Attachment{{Filename: "tips-2026-01-15.pdf", ContentType: "application/pdf", Data: pdf}},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	parsed, err := mail.ReadMessage(strings.NewReader(string(raw)))
	if err != nil {
		t.Fatalf("parse message: %v", err)
	}
	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/mixed" {
		t.Fatalf("expected multipart/mixed, got %q (%v)", mediaType, err)
	}

	reader := multipart.NewReader(parsed.Body, params["boundary"])
	textPart, err := reader.NextPart()
	if err != nil {
		t.Fatalf("text part: %v", err)
	}
	text, _ := io.ReadAll(textPart)
	if string(text) != "see attached" {
		t.Fatalf("unexpected text part %q", text)
	}

	filePart, err := reader.NextPart()
	if err != nil {
		t.Fatalf("attachment part: %v", err)
	}
	if filePart.FileName() != "tips-2026-01-15.pdf" {
		t.Fatalf("unexpected filename %q", filePart.FileName())
	}
	encoded, _ := io.ReadAll(filePart)
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(encoded), "\r\n", ""))
	if err != nil {
		t.Fatalf("decode attachment: %v", err)
	}
	if string(decoded) != string(pdf) {
		t.Fatal("attachment content mismatch")
	}
}
