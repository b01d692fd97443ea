package media

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// headers builds real multipart file headers by round-tripping a form.
func headers(t *testing.T, files map[string]string) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, ctype := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="images"; filename="`+name+`"`)
		h.Set("Content-Type", ctype)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, _ = w.Write([]byte("fake image bytes"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["images"]
}

func TestSaveAndRemove(t *testing.T) {
	s, err := NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)

	urls, err := s.Save(headers(t, map[string]string{"a.PNG": "image/png"}))
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.True(t, strings.HasPrefix(urls[0], URLPrefix))
	assert.True(t, strings.HasSuffix(urls[0], ".png"))

	p, ok := s.Path(urls[0])
	require.True(t, ok)
	_, err = os.Stat(p)
	require.NoError(t, err)

	s.Remove(urls)
	_, err = os.Stat(p)
	assert.True(t, os.IsNotExist(err))
}

func TestSaveRejectsNonImages(t *testing.T) {
	s, err := NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)

	_, err = s.Save(headers(t, map[string]string{"x.exe": "application/octet-stream"}))
	assert.ErrorIs(t, err, ErrNotImage)
	_, err = s.Save(headers(t, map[string]string{"x.png": "text/html"}))
	assert.ErrorIs(t, err, ErrNotImage)

	entries, _ := os.ReadDir(s.Dir)
	assert.Empty(t, entries)
}

func TestSaveRejectsLargeFiles(t *testing.T) {
	s, err := NewStore(t.TempDir(), 4)
	require.NoError(t, err)
	_, err = s.Save(headers(t, map[string]string{"big.jpg": "image/jpeg"}))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestPathRejectsTraversal(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	for _, bad := range []string{"", "../etc/passwd", "/uploads/../x", "a/b.png", `..\x`} {
		_, ok := s.Path(bad)
		assert.False(t, ok, bad)
	}
	_, ok := s.Path("/uploads/ok.png")
	assert.True(t, ok)
}
