package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/shophub-api/app/storage"
)

type fakeUploader struct {
	got  storage.UploadInput
	data []byte
	err  error
}

func (f *fakeUploader) Upload(_ context.Context, in storage.UploadInput) (*storage.Object, error) {
	f.got = in
	f.data, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	key := "shophub-products/2025/01/01/abc.png"
	return &storage.Object{Key: key, URL: "https://cdn.example.com/" + key}, nil
}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// a 1x1 PNG header is enough for content sniffing
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

func multipartRequest(t *testing.T, field, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandler_UploadImage(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		up := &fakeUploader{}
		rr := httptest.NewRecorder()
		NewHandler(up, testLogger()).UploadImage(rr, multipartRequest(t, "image", "shoe.png", "image/png", pngBytes))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var resp Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "shophub-products/2025/01/01/abc.png", resp.PublicID)
		assert.Equal(t, "https://cdn.example.com/shophub-products/2025/01/01/abc.png", resp.URL)
		assert.Equal(t, "shoe.png", up.got.Filename)
		assert.Equal(t, "image/png", up.got.ContentType)
		assert.Equal(t, int64(len(pngBytes)), up.got.Size)
		assert.Equal(t, pngBytes, up.data)
	})

	t.Run("wrong field name", func(t *testing.T) {
		rr := httptest.NewRecorder()
		NewHandler(&fakeUploader{}, testLogger()).UploadImage(rr, multipartRequest(t, "file", "shoe.png", "image/png", pngBytes))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"message":"No file uploaded"}`, rr.Body.String())
	})

	t.Run("not multipart", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		NewHandler(&fakeUploader{}, testLogger()).UploadImage(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"message":"No file uploaded"}`, rr.Body.String())
	})

	t.Run("not an image", func(t *testing.T) {
		rr := httptest.NewRecorder()
		NewHandler(&fakeUploader{}, testLogger()).UploadImage(rr, multipartRequest(t, "image", "notes.png", "image/png", []byte("just some text")))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"message":"Only image files are allowed"}`, rr.Body.String())
	})

	t.Run("too large", func(t *testing.T) {
		big := append(append([]byte{}, pngBytes...), make([]byte, MaxImageBytes)...)
		rr := httptest.NewRecorder()
		NewHandler(&fakeUploader{}, testLogger()).UploadImage(rr, multipartRequest(t, "image", "big.png", "image/png", big))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "File too large")
	})

	t.Run("storage failure", func(t *testing.T) {
		rr := httptest.NewRecorder()
		NewHandler(&fakeUploader{err: errors.New("bucket missing")}, testLogger()).
			UploadImage(rr, multipartRequest(t, "image", "shoe.png", "image/png", pngBytes))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"message":"Error uploading image"}`, rr.Body.String())
	})

	t.Run("storage not configured", func(t *testing.T) {
		rr := httptest.NewRecorder()
		NewHandler(nil, testLogger()).UploadImage(rr, multipartRequest(t, "image", "shoe.png", "image/png", pngBytes))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}
