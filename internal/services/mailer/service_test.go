package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/golfstats/internal/common"
)

func TestEnabled(t *testing.T) {
	logger := common.GetLogger()

	service := NewService(common.SMTPConfig{}, logger)
	assert.False(t, service.Enabled())

	service = NewService(common.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "mailer",
		Password: "secret",
		From:     "reports@example.com",
	}, logger)
	assert.True(t, service.Enabled())

	// Missing From disables the service.
	service = NewService(common.SMTPConfig{
		Host:     "smtp.example.com",
		Username: "mailer",
		Password: "secret",
	}, logger)
	assert.False(t, service.Enabled())
}

func TestSendWhenDisabled(t *testing.T) {
	service := NewService(common.SMTPConfig{}, common.GetLogger())

	err := service.SendPasswordReset(context.Background(), "golfer@example.com", "token")
	assert.Error(t, err)

	err = service.SendReport(context.Background(), "golfer@example.com", "Weekly report", []byte("pdf"), "report.pdf")
	assert.Error(t, err)
}

func TestComposeResetMessage(t *testing.T) {
	service := &Service{
		config: common.SMTPConfig{From: "reports@example.com"},
		logger: common.GetLogger(),
	}

	msg, err := service.compose("golfer@example.com", "GolfStats password reset",
		"Your reset code is abc123.\r\n", nil, "")
	require.NoError(t, err)

	text := string(msg)
	assert.Contains(t, text, "To: <golfer@example.com>")
	assert.Contains(t, text, "Subject: GolfStats password reset")
	assert.Contains(t, text, "reports@example.com")
	assert.NotContains(t, text, "Content-Disposition: attachment")
}

func TestComposeWithAttachment(t *testing.T) {
	service := &Service{
		config: common.SMTPConfig{From: "reports@example.com"},
		logger: common.GetLogger(),
	}

	msg, err := service.compose("golfer@example.com", "Weekly report",
		"Your weekly golf report is attached.\r\n",
		[]byte("%PDF-1.4 fake"), "golfstats_weekly.pdf")
	require.NoError(t, err)

	text := string(msg)
	assert.Contains(t, text, "multipart/mixed")
	assert.Contains(t, strings.ToLower(text), "golfstats_weekly.pdf")
	assert.Contains(t, text, "application/pdf")
}
