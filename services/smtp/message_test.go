package smtp

import (
	"bytes"
	"testing"

	"github.com/jhillyerd/enmime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peopledesk/mailbridge/internal/models"
)

func TestBuildMessage_PlainText(t *testing.T) {
	raw, err := buildMessage(&models.OutboundMessage{
		From:      "user@example.com",
		To:        []string{"dest@example.com"},
		Subject:   "plain",
		BodyText:  "just text",
		MessageID: "<abc@example.com>",
	})
	require.NoError(t, err)

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "plain", env.GetHeader("Subject"))
	assert.Equal(t, "dest@example.com", env.GetHeader("To"))
	assert.Equal(t, "<abc@example.com>", env.GetHeader("Message-ID"))
	assert.Contains(t, env.Text, "just text")
	assert.Empty(t, env.Attachments)
}

func TestBuildMessage_HTMLWithAttachment(t *testing.T) {
	raw, err := buildMessage(&models.OutboundMessage{
		From:     "user@example.com",
		FromName: "Some User",
		To:       []string{"dest@example.com"},
		Cc:       []string{"copy@example.com"},
		Subject:  "rich",
		BodyText: "plain fallback",
		BodyHTML: "<p>hello</p>",
		Attachments: []*models.OutboundAttachment{
			{Filename: "report.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4 fake")},
		},
	})
	require.NoError(t, err)

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Contains(t, env.GetHeader("From"), "user@example.com")
	assert.Equal(t, "copy@example.com", env.GetHeader("Cc"))
	assert.Contains(t, env.HTML, "<p>hello</p>")
	assert.Contains(t, env.Text, "plain fallback")
	require.Len(t, env.Attachments, 1)
	assert.Equal(t, "report.pdf", env.Attachments[0].FileName)
	assert.Equal(t, []byte("%PDF-1.4 fake"), env.Attachments[0].Content)
}
