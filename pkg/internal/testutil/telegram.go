package testutil

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	telegram "github.com/go-telegram/bot"
)

const okEmpty = `{"ok":true,"result":{}}`

// RecordedRequest is one Bot API call captured by TelegramClient.
type RecordedRequest struct {
	Method      string
	ContentType string
	Body        []byte
}

// Field returns a multipart form field of the request and, for file parts,
// the file name.
func (r RecordedRequest) Field(t *testing.T, name string) (string, string, bool) {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		t.Fatalf("failed to parse media type: %v", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		t.Fatalf("unexpected media type: %s", mediaType)
	}

	reader := multipart.NewReader(bytes.NewReader(r.Body), params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return "", "", false
		}
		if err != nil {
			t.Fatalf("failed to read multipart part: %v", err)
		}
		if part.FormName() == name {
			data, err := io.ReadAll(part)
			if err != nil {
				t.Fatalf("failed to read multipart field: %v", err)
			}
			return string(data), part.FileName(), true
		}
	}
}

// TelegramClient is an http client for telegram.WithHTTPClient that records
// every request and answers with canned responses per Bot API method.
type TelegramClient struct {
	mu        sync.Mutex
	requests  []RecordedRequest
	responses map[string]string
}

func NewTelegramClient() *TelegramClient {
	return &TelegramClient{responses: make(map[string]string)}
}

// Respond sets the raw JSON answer for a Bot API method such as "getChatMember".
func (c *TelegramClient) Respond(method, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses[method] = body
}

func (c *TelegramClient) Do(req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if err := req.Body.Close(); err != nil {
		return nil, fmt.Errorf("failed to close request body: %w", err)
	}

	method := path.Base(req.URL.Path)
	c.mu.Lock()
	c.requests = append(c.requests, RecordedRequest{
		Method:      method,
		ContentType: req.Header.Get("Content-Type"),
		Body:        body,
	})
	response, ok := c.responses[method]
	c.mu.Unlock()
	if !ok {
		response = okEmpty
	}

	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(response)),
		Header:     make(http.Header),
	}, nil
}

// Requests returns the recorded calls of one method, oldest first.
func (c *TelegramClient) Requests(method string) []RecordedRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []RecordedRequest
	for _, r := range c.requests {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

// SentTexts returns the text of every sendMessage call.
func (c *TelegramClient) SentTexts(t *testing.T) []string {
	t.Helper()
	var texts []string
	for _, r := range c.Requests("sendMessage") {
		text, _, _ := r.Field(t, "text")
		texts = append(texts, text)
	}
	return texts
}

// LastText returns the text of the most recent sendMessage call.
func (c *TelegramClient) LastText(t *testing.T) string {
	t.Helper()
	texts := c.SentTexts(t)
	if len(texts) == 0 {
		t.Fatalf("expected at least one sent message")
	}
	return texts[len(texts)-1]
}

func NewTelegramBot(t *testing.T, client *TelegramClient) *telegram.Bot {
	t.Helper()
	b, err := telegram.New("test-token",
		telegram.WithSkipGetMe(),
		telegram.WithHTTPClient(time.Second, client),
	)
	if err != nil {
		t.Fatalf("failed to create test bot: %v", err)
	}
	return b
}

// ChatMemberResponse is a getChatMember answer with the given status
// ("creator", "administrator", "member", "left", "kicked").
func ChatMemberResponse(userID int64, status string) string {
	return fmt.Sprintf(`{"ok":true,"result":{"status":%q,"user":{"id":%d,"is_bot":false,"first_name":"Test"}}}`, status, userID)
}
