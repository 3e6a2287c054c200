package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plycraft.dev/backend/internal/catalog"
	"plycraft.dev/backend/internal/core"
	"plycraft.dev/backend/internal/mailer"
	"plycraft.dev/backend/internal/store"
)

const testCatalog = `[
  {"id": 1, "title": "Lounge Chair", "category": "seating", "image": "/static/chair.jpg", "price": 249.0},
  {"id": 2, "title": "Side Table", "category": "tables", "image": "/static/table.jpg", "price": 89.0}
]`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	dir := t.TempDir()
	productsFile := filepath.Join(dir, "products.json")
	require.NoError(t, os.WriteFile(productsFile, []byte(testCatalog), 0644))

	dbStore, err := store.NewSQLiteStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbStore.Close() })

	logger := zerolog.Nop()
	h := NewHandler(
		catalog.NewReader(productsFile),
		dbStore,
		mailer.New("", 587, "", "", ""), // unconfigured on purpose
		core.NewChatService("", "", logger),
		filepath.Join(dir, "newsletter_signups.json"),
		logger,
	)
	return NewRouter(h, logger, []string{"http://localhost:3000"}, dir)
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListProducts(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var products []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 2)
	assert.Equal(t, "Lounge Chair", products[0]["title"])
	assert.NotContains(t, products[0], "price")
}

func TestGetProductFullRecord(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/products/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var product map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))
	assert.Equal(t, 249.0, product["price"], "full record keeps fields beyond the summary shape")
}

func TestGetProductNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/products/99", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Product not found")
}

func TestNewsletterSignupAndDuplicate(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/newsletter/signup",
		`{"firstName":"Jane","lastName":"Doe","email":"Jane@Example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		OK bool  `json:"ok"`
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Greater(t, resp.ID, int64(0))

	rec = doJSON(t, router, http.MethodPost, "/newsletter/signup",
		`{"firstName":"Janet","lastName":"Doe","email":" jane@example.COM "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email already signed up")
}

func TestNewsletterSignupMissingFields(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/newsletter/signup", `{"firstName":"Jane"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNewsletterExport(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/newsletter/signup",
		`{"firstName":"Jane","lastName":"Doe","email":"jane@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/newsletter/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Data exported to")
}

func TestContactSendUnconfiguredMailer(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/contact/send",
		`{"firstName":"Jane","lastName":"Doe","email":"jane@example.com","message":"Hello"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "SMTP credentials are not configured")
}

func TestContactSendMissingFields(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/contact/send",
		`{"firstName":"Jane","lastName":"Doe","email":"jane@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatEmptyMessages(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/chat", `{"messages":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "messages cannot be empty")
}

func TestChatInvalidRole(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/chat",
		`{"messages":[{"role":"moderator","content":"hi"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatMockReply(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/chat",
		`{"messages":[{"role":"user","content":"do you ship to Norway?"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp core.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "(Mock) You said: do you ship to Norway?", resp.Reply)
	assert.Equal(t, "mock", resp.Model)
	require.NotNil(t, resp.UsageTokens)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
