package smtp

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/peopledesk/mailbridge/internal/models"
)

// buildMessage renders the outbound message into wire-ready MIME bytes.
func buildMessage(message *models.OutboundMessage) ([]byte, error) {
	buffer := bytes.NewBuffer(nil)

	headers := buildHeaders(message)

	var err error
	if message.HasRichContent() {
		err = buildMultipartMessage(message, headers, buffer)
	} else {
		err = buildPlainTextMessage(message, headers, buffer)
	}
	if err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

func buildHeaders(message *models.OutboundMessage) map[string]string {
	from := message.From
	if message.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", message.FromName), message.From)
	}

	headers := map[string]string{
		"From":         from,
		"To":           strings.Join(message.To, ", "),
		"Subject":      mime.QEncoding.Encode("utf-8", message.Subject),
		"Message-ID":   message.MessageID,
		"Date":         time.Now().Format(time.RFC1123Z),
		"MIME-Version": "1.0",
	}

	if len(message.Cc) > 0 {
		headers["Cc"] = strings.Join(message.Cc, ", ")
	}
	if message.ReplyTo != "" {
		headers["Reply-To"] = message.ReplyTo
	}

	return headers
}

// buildMultipartMessage creates a multipart MIME message with text, HTML
// and attachment parts.
func buildMultipartMessage(message *models.OutboundMessage, headers map[string]string, buffer *bytes.Buffer) error {
	writer := multipart.NewWriter(buffer)
	headers["Content-Type"] = "multipart/mixed; boundary=" + writer.Boundary()

	writeHeaders(headers, buffer)

	if message.BodyText != "" {
		if err := addTextPart(writer, "text/plain", message.BodyText); err != nil {
			return err
		}
	}

	if message.BodyHTML != "" {
		if err := addTextPart(writer, "text/html", message.BodyHTML); err != nil {
			return err
		}
	}

	for _, attachment := range message.Attachments {
		if err := addAttachment(writer, attachment); err != nil {
			return err
		}
	}

	return writer.Close()
}

// buildPlainTextMessage creates a simple text-only email.
func buildPlainTextMessage(message *models.OutboundMessage, headers map[string]string, buffer *bytes.Buffer) error {
	headers["Content-Type"] = "text/plain; charset=UTF-8"

	writeHeaders(headers, buffer)

	_, err := buffer.WriteString(message.BodyText)
	return err
}

func writeHeaders(headers map[string]string, buffer *bytes.Buffer) {
	for k, v := range headers {
		buffer.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	buffer.WriteString("\r\n")
}

func addTextPart(writer *multipart.Writer, contentType, content string) error {
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType + "; charset=UTF-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return errors.Wrapf(err, "failed to create %s part", contentType)
	}

	qp := quotedprintable.NewWriter(part)
	if _, err = qp.Write([]byte(content)); err != nil {
		return errors.Wrapf(err, "failed to write %s content", contentType)
	}
	return qp.Close()
}

func addAttachment(writer *multipart.Writer, attachment *models.OutboundAttachment) error {
	if attachment == nil {
		return errors.New("attachment is nil")
	}

	contentType := attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {fmt.Sprintf("%s; name=%q", contentType, attachment.Filename)},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", attachment.Filename)},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create attachment part")
	}

	encoded := base64.StdEncoding.EncodeToString(attachment.Content)
	// wrap base64 at 76 chars per RFC 2045
	for len(encoded) > 0 {
		n := 76
		if n > len(encoded) {
			n = len(encoded)
		}
		if _, err = part.Write([]byte(encoded[:n] + "\r\n")); err != nil {
			return errors.Wrap(err, "failed to write attachment content")
		}
		encoded = encoded[n:]
	}

	return nil
}
