package services

import (
	"strings"
	"testing"

	"github.com/mithilsmehta/TaskFlow/internal/models"
)

func TestBuildNotificationEmail(t *testing.T) {
	to := models.User{ID: "bob", Name: "Bob", Email: "bob@example.com"}
	n := models.Notification{Title: "New Task Assigned", Message: `Alice assigned you to "<b>Ship</b>"`}

	msg := buildNotificationEmail("TaskFlow", "noreply@taskflow.dev", to, n)

	if msg.Subject != "TaskFlow: New Task Assigned" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if msg.From.Address != "noreply@taskflow.dev" {
		t.Errorf("from = %q", msg.From.Address)
	}
	if len(msg.Personalizations) != 1 || msg.Personalizations[0].To[0].Address != "bob@example.com" {
		t.Fatalf("personalizations = %+v", msg.Personalizations)
	}

	var text, html string
	for _, c := range msg.Content {
		switch c.Type {
		case "text/plain":
			text = c.Value
		case "text/html":
			html = c.Value
		}
	}
	if !strings.Contains(text, n.Message) || !strings.Contains(text, "Hello Bob") {
		t.Errorf("text body = %q", text)
	}
	if strings.Contains(html, "<b>Ship</b>") || !strings.Contains(html, "&lt;b&gt;Ship&lt;/b&gt;") {
		t.Errorf("html body is not escaped: %q", html)
	}
}
