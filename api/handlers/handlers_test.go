package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peopledesk/mailbridge/config"
	mailbridge_errors "github.com/peopledesk/mailbridge/errors"
	"github.com/peopledesk/mailbridge/internal/logger"
	"github.com/peopledesk/mailbridge/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

// fakeMailStore is a scriptable MailStore double.
type fakeMailStore struct {
	testConnectionFn func(ctx context.Context, account *models.MailAccount) (uint32, error)
	fetchFolderFn    func(ctx context.Context, account *models.MailAccount, folder string, limit, offset uint32) ([]models.EmailMessage, error)
	fetchFirstFn     func(ctx context.Context, account *models.MailAccount, candidates []string, limit, offset uint32) ([]models.EmailMessage, error)
	listFoldersFn    func(ctx context.Context, account *models.MailAccount) (map[string]models.FolderInfo, error)
	moveToTrashFn    func(ctx context.Context, account *models.MailAccount, uid uint32, sourceFolder string) error
	deleteFn         func(ctx context.Context, account *models.MailAccount, uid uint32) error
}

func (f *fakeMailStore) TestConnection(ctx context.Context, account *models.MailAccount) (uint32, error) {
	return f.testConnectionFn(ctx, account)
}

func (f *fakeMailStore) FetchFolder(ctx context.Context, account *models.MailAccount, folder string, limit, offset uint32) ([]models.EmailMessage, error) {
	return f.fetchFolderFn(ctx, account, folder, limit, offset)
}

func (f *fakeMailStore) FetchFirstAvailable(ctx context.Context, account *models.MailAccount, candidates []string, limit, offset uint32) ([]models.EmailMessage, error) {
	return f.fetchFirstFn(ctx, account, candidates, limit, offset)
}

func (f *fakeMailStore) ListFolders(ctx context.Context, account *models.MailAccount) (map[string]models.FolderInfo, error) {
	return f.listFoldersFn(ctx, account)
}

func (f *fakeMailStore) MoveToTrash(ctx context.Context, account *models.MailAccount, uid uint32, sourceFolder string) error {
	return f.moveToTrashFn(ctx, account, uid, sourceFolder)
}

func (f *fakeMailStore) DeletePermanently(ctx context.Context, account *models.MailAccount, uid uint32) error {
	return f.deleteFn(ctx, account, uid)
}

func (f *fakeMailStore) AppendToSent(ctx context.Context, account *models.MailAccount, raw []byte) error {
	return nil
}

type fakeDispatcher struct {
	sendFn func(ctx context.Context, account *models.MailAccount, message *models.OutboundMessage, opts models.DispatchOptions) (*models.DispatchResult, error)
	calls  int
}

func (f *fakeDispatcher) Send(ctx context.Context, account *models.MailAccount, message *models.OutboundMessage, opts models.DispatchOptions) (*models.DispatchResult, error) {
	f.calls++
	return f.sendFn(ctx, account, message, opts)
}

func testHandler(store *fakeMailStore, dispatcher *fakeDispatcher) *MailHandler {
	cfg := &config.Config{
		AppConfig: &config.AppConfig{APIPort: "3001"},
		IMAP:      &config.IMAPConfig{TestConnectionTimeout: 30 * time.Second},
		SMTP:      &config.SMTPConfig{},
	}
	return NewMailHandler(cfg, store, dispatcher, getLogger())
}

func performJSON(t *testing.T, handler gin.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler(c)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestTestConnection_MissingCredentials(t *testing.T) {
	h := testHandler(&fakeMailStore{}, &fakeDispatcher{})

	w := performJSON(t, h.TestConnection(), gin.H{"email": "user@example.com"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Email and password are required", body["error"])
}

func TestTestConnection_Timeout(t *testing.T) {
	store := &fakeMailStore{
		testConnectionFn: func(ctx context.Context, account *models.MailAccount) (uint32, error) {
			return 0, mailbridge_errors.ErrConnectionTimeout
		},
	}
	h := testHandler(store, &fakeDispatcher{})

	w := performJSON(t, h.TestConnection(), gin.H{"email": "user@example.com", "password": "secret"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Contains(t, body["error"], "Connection timed out")
	assert.Contains(t, body["error"], "30s")
}

func TestTestConnection_Success(t *testing.T) {
	store := &fakeMailStore{
		testConnectionFn: func(ctx context.Context, account *models.MailAccount) (uint32, error) {
			assert.Equal(t, "user@example.com", account.Email)
			return 42, nil
		},
	}
	h := testHandler(store, &fakeDispatcher{})

	w := performJSON(t, h.TestConnection(), gin.H{"email": "user@example.com", "password": "secret"})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(42), body["totalMessages"])
}

func TestFetch_AppliesDefaults(t *testing.T) {
	store := &fakeMailStore{
		fetchFolderFn: func(ctx context.Context, account *models.MailAccount, folder string, limit, offset uint32) ([]models.EmailMessage, error) {
			assert.Equal(t, "INBOX", folder)
			assert.Equal(t, uint32(10), limit)
			assert.Equal(t, uint32(0), offset)
			return []models.EmailMessage{{SeqNum: 1, Subject: "hi"}}, nil
		},
	}
	h := testHandler(store, &fakeDispatcher{})

	w := performJSON(t, h.Fetch(), gin.H{"email": "user@example.com", "password": "secret"})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	emails := body["emails"].([]any)
	require.Len(t, emails, 1)
}

func TestFetch_PassesThroughPaging(t *testing.T) {
	store := &fakeMailStore{
		fetchFolderFn: func(ctx context.Context, account *models.MailAccount, folder string, limit, offset uint32) ([]models.EmailMessage, error) {
			assert.Equal(t, "Archive", folder)
			assert.Equal(t, uint32(25), limit)
			assert.Equal(t, uint32(50), offset)
			return nil, nil
		},
	}
	h := testHandler(store, &fakeDispatcher{})

	w := performJSON(t, h.Fetch(), gin.H{
		"email": "user@example.com", "password": "secret",
		"folder": "Archive", "limit": 25, "offset": 50,
	})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFetchTrash_CandidatesAndErrorStatus(t *testing.T) {
	store := &fakeMailStore{
		fetchFirstFn: func(ctx context.Context, account *models.MailAccount, candidates []string, limit, offset uint32) ([]models.EmailMessage, error) {
			assert.Equal(t, []string{"INBOX.Trash", "Trash"}, candidates)
			return nil, mailbridge_errors.ErrNoValidFolder
		},
	}
	h := testHandler(store, &fakeDispatcher{})

	w := performJSON(t, h.FetchTrash(), gin.H{"email": "user@example.com", "password": "secret"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestFetchSent_Success(t *testing.T) {
	store := &fakeMailStore{
		fetchFirstFn: func(ctx context.Context, account *models.MailAccount, candidates []string, limit, offset uint32) ([]models.EmailMessage, error) {
			assert.Equal(t, []string{"INBOX.Sent", "Sent"}, candidates)
			return []models.EmailMessage{{SeqNum: 7}}, nil
		},
	}
	h := testHandler(store, &fakeDispatcher{})

	w := performJSON(t, h.FetchSent(), gin.H{"email": "user@example.com", "password": "secret"})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFolders_Success(t *testing.T) {
	store := &fakeMailStore{
		listFoldersFn: func(ctx context.Context, account *models.MailAccount) (map[string]models.FolderInfo, error) {
			return map[string]models.FolderInfo{
				"INBOX": {Name: "INBOX", Attributes: []string{"\\HasChildren"}},
			}, nil
		},
	}
	h := testHandler(store, &fakeDispatcher{})

	w := performJSON(t, h.Folders(), gin.H{"email": "user@example.com", "password": "secret"})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	folders := body["folders"].(map[string]any)
	inbox := folders["INBOX"].(map[string]any)
	assert.Equal(t, []any{"\\HasChildren"}, inbox["attribs"])
}

func TestMoveToTrash_RequiresUID(t *testing.T) {
	h := testHandler(&fakeMailStore{}, &fakeDispatcher{})

	w := performJSON(t, h.MoveToTrash(), gin.H{"email": "user@example.com", "password": "secret", "sourceFolder": "inbox"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Message UID is required", body["error"])
}

func TestMoveToTrash_UnknownSourceFolder(t *testing.T) {
	store := &fakeMailStore{
		moveToTrashFn: func(ctx context.Context, account *models.MailAccount, uid uint32, sourceFolder string) error {
			return errors.Wrap(mailbridge_errors.ErrUnknownSourceFolder, "archive")
		},
	}
	h := testHandler(store, &fakeDispatcher{})

	w := performJSON(t, h.MoveToTrash(), gin.H{
		"email": "user@example.com", "password": "secret",
		"uid": 12, "sourceFolder": "archive",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMoveToTrash_Success(t *testing.T) {
	store := &fakeMailStore{
		moveToTrashFn: func(ctx context.Context, account *models.MailAccount, uid uint32, sourceFolder string) error {
			assert.Equal(t, uint32(12), uid)
			assert.Equal(t, "inbox", sourceFolder)
			return nil
		},
	}
	h := testHandler(store, &fakeDispatcher{})

	w := performJSON(t, h.MoveToTrash(), gin.H{
		"email": "user@example.com", "password": "secret",
		"uid": 12, "sourceFolder": "inbox",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Email moved to trash", body["message"])
}

func TestDeletePermanently_StoreError(t *testing.T) {
	store := &fakeMailStore{
		deleteFn: func(ctx context.Context, account *models.MailAccount, uid uint32) error {
			return errors.New("failed to expunge trash folder")
		},
	}
	h := testHandler(store, &fakeDispatcher{})

	w := performJSON(t, h.DeletePermanently(), gin.H{"email": "user@example.com", "password": "secret", "uid": 3})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDeletePermanently_Success(t *testing.T) {
	store := &fakeMailStore{
		deleteFn: func(ctx context.Context, account *models.MailAccount, uid uint32) error {
			assert.Equal(t, uint32(3), uid)
			return nil
		},
	}
	h := testHandler(store, &fakeDispatcher{})

	w := performJSON(t, h.DeletePermanently(), gin.H{"email": "user@example.com", "password": "secret", "uid": 3})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Email permanently deleted", body["message"])
}

func performForm(t *testing.T, handler gin.HandlerFunc, fields url.Values) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(fields.Encode()))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	handler(c)
	return w
}

func sendFields() url.Values {
	return url.Values{
		"email":    {"user@example.com"},
		"password": {"secret"},
		"to":       {"dest@example.com"},
		"subject":  {"hello"},
		"body":     {"<p>world</p>"},
	}
}

func TestSend_MissingFieldsRejectedBeforeDispatch(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := testHandler(&fakeMailStore{}, dispatcher)

	for _, field := range []string{"email", "to", "subject", "body"} {
		fields := sendFields()
		fields.Del(field)

		w := performForm(t, h.Send(), fields)

		assert.Equal(t, http.StatusBadRequest, w.Code, "missing %s", field)
	}

	assert.Equal(t, 0, dispatcher.calls)
}

func TestSend_InvalidRecipientAddress(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := testHandler(&fakeMailStore{}, dispatcher)

	fields := sendFields()
	fields.Set("to", "not-an-address")

	w := performForm(t, h.Send(), fields)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, dispatcher.calls)
}

func TestSend_Success(t *testing.T) {
	dispatcher := &fakeDispatcher{
		sendFn: func(ctx context.Context, account *models.MailAccount, message *models.OutboundMessage, opts models.DispatchOptions) (*models.DispatchResult, error) {
			assert.Equal(t, "user@example.com", message.From)
			assert.Equal(t, []string{"dest@example.com"}, message.To)
			assert.Equal(t, "<p>world</p>", message.BodyHTML)
			return &models.DispatchResult{MessageID: "<id@example.com>", Response: "ok", Attempts: 1}, nil
		},
	}
	h := testHandler(&fakeMailStore{}, dispatcher)

	w := performForm(t, h.Send(), sendFields())

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "<id@example.com>", body["messageId"])
	assert.Equal(t, "ok", body["response"])
}

func TestSend_MultipleRecipientsAndCopies(t *testing.T) {
	dispatcher := &fakeDispatcher{
		sendFn: func(ctx context.Context, account *models.MailAccount, message *models.OutboundMessage, opts models.DispatchOptions) (*models.DispatchResult, error) {
			assert.Equal(t, []string{"a@example.com", "b@example.com"}, message.To)
			assert.Equal(t, []string{"c@example.com"}, message.Cc)
			assert.Equal(t, []string{"d@example.com"}, message.Bcc)
			return &models.DispatchResult{MessageID: "<id@example.com>"}, nil
		},
	}
	h := testHandler(&fakeMailStore{}, dispatcher)

	fields := sendFields()
	fields.Set("to", "a@example.com, b@example.com")
	fields.Set("cc", "c@example.com")
	fields.Set("bcc", "d@example.com")

	w := performForm(t, h.Send(), fields)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSend_DispatchFailure(t *testing.T) {
	dispatcher := &fakeDispatcher{
		sendFn: func(ctx context.Context, account *models.MailAccount, message *models.OutboundMessage, opts models.DispatchOptions) (*models.DispatchResult, error) {
			return nil, &models.DispatchError{
				Attempts: 3,
				Code:     "550",
				Err:      errors.New("mailbox unavailable"),
			}
		},
	}
	h := testHandler(&fakeMailStore{}, dispatcher)

	w := performForm(t, h.Send(), sendFields())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "550", body["code"])
	assert.Equal(t, float64(3), body["attempts"])
	assert.Equal(t, "mailbox unavailable", body["error"])
}

func TestSend_WithAttachment(t *testing.T) {
	dispatcher := &fakeDispatcher{
		sendFn: func(ctx context.Context, account *models.MailAccount, message *models.OutboundMessage, opts models.DispatchOptions) (*models.DispatchResult, error) {
			require.Len(t, message.Attachments, 1)
			assert.Equal(t, "notes.txt", message.Attachments[0].Filename)
			assert.Equal(t, []byte("attachment payload"), message.Attachments[0].Content)
			return &models.DispatchResult{MessageID: "<id@example.com>"}, nil
		},
	}
	h := testHandler(&fakeMailStore{}, dispatcher)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, values := range sendFields() {
		require.NoError(t, writer.WriteField(key, values[0]))
	}
	part, err := writer.CreateFormFile("attachments", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("attachment payload"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", &buf)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())

	h.Send()(c)

	assert.Equal(t, http.StatusOK, w.Code)
}
