package email

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestBuildMessagePlain(t *testing.T) {
	msg := string(buildMessage("axis@example.com", "ops@example.com", "Test", "hello", nil))

	for _, want := range []string{
		"From: axis@example.com\r\n",
		"To: ops@example.com\r\n",
		"Subject: Test\r\n",
		"Content-Type: text/plain",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
	if strings.Contains(msg, "multipart") {
		t.Error("plain message must not be multipart")
	}
	if !strings.HasSuffix(msg, "hello") {
		t.Errorf("body not terminal: %q", msg)
	}
}

func TestBuildMessageWithAttachment(t *testing.T) {
	content := []byte(strings.Repeat("Ticket ID,Status\n", 20))
	msg := string(buildMessage("axis@example.com", "ops@example.com", "Export", "attached", &Attachment{
		Filename: "tickets.csv",
		Content:  content,
	}))

	if !strings.Contains(msg, "multipart/mixed") {
		t.Fatal("attachment message must be multipart")
	}
	if !strings.Contains(msg, `filename=tickets.csv`) {
		t.Error("attachment filename missing")
	}

	// The base64 payload is wrapped at 76 columns and must decode back to
	// the original content.
	idx := strings.Index(msg, "Content-Disposition: attachment")
	payload := msg[idx:]
	payload = payload[strings.Index(payload, "\r\n\r\n")+4:]
	payload = payload[:strings.Index(payload, "\r\n--")]
	for _, line := range strings.Split(payload, "\r\n") {
		if len(line) > 76 {
			t.Errorf("encoded line exceeds 76 chars: %d", len(line))
		}
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(payload, "\r\n", ""))
	if err != nil {
		t.Fatalf("decode attachment: %v", err)
	}
	if string(decoded) != string(content) {
		t.Error("attachment content does not round-trip")
	}
}
