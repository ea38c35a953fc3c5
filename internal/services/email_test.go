package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tripmate/internal/config"
)

func TestBuildMessage(t *testing.T) {
	msg := string(BuildMessage("trips@example.com", []string{"a@example.com", "b@example.com"}, "정산 알림", "line1\nline2"))

	assert.Contains(t, msg, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, msg, "Subject: =?UTF-8?b?")
	assert.Contains(t, msg, "charset=UTF-8")
	assert.Contains(t, msg, "line1\r\nline2\r\n")
}

func TestSendEmailRequiresConfig(t *testing.T) {
	err := NewEmailService(config.SMTPConfig{Host: "smtp.example.com"}).SendEmail([]string{"a@example.com"}, "s", "b")
	assert.ErrorIs(t, err, ErrSMTPNotConfigured)
}
