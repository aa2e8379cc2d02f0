package controllers

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"go-storefront/utils"
)

func TestParseProductRequest(t *testing.T) {
	body := strings.NewReader(`{"name":"Mug","price":12.5,"category":"kitchen","description":"ceramic"}`)

	product, err := parseProductRequest(body)
	require.NoError(t, err)
	require.Equal(t, "Mug", product.Name)
	require.Equal(t, 12.5, product.Price)
	require.Equal(t, "kitchen", product.Category)
	require.Equal(t, "ceramic", product.Description)
}

func TestParseProductRequestIgnoresClientID(t *testing.T) {
	body := strings.NewReader(`{"id":"64f000000000000000000001","name":"Mug","price":5,"category":"kitchen","image":"/etc/passwd"}`)

	product, err := parseProductRequest(body)
	require.NoError(t, err)
	require.True(t, product.ID.IsZero())
	require.Empty(t, product.Image)
}

func TestParseProductRequestMissingFields(t *testing.T) {
	cases := []string{
		`{"price":5,"category":"kitchen"}`,
		`{"name":"Mug","category":"kitchen"}`,
		`{"name":"Mug","price":-1,"category":"kitchen"}`,
		`{"name":"Mug","price":5}`,
		`not json`,
	}
	for _, payload := range cases {
		_, err := parseProductRequest(strings.NewReader(payload))
		var httpErr *utils.HTTPError
		require.ErrorAs(t, err, &httpErr, payload)
		require.Equal(t, http.StatusBadRequest, httpErr.Status, payload)
	}
}

func TestSaveImageWritesFile(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte{0xAB}, 1024)

	filename, err := saveImage(bytes.NewReader(content), dir, ".png")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(filename, ".png"))

	written, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)
	require.Equal(t, content, written)
}

func TestSaveImageAcceptsExactCap(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte{0x01}, maxImageSize)

	filename, err := saveImage(bytes.NewReader(content), dir, ".jpg")
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, filename))
	require.NoError(t, err)
	require.EqualValues(t, maxImageSize, info.Size())
}

func TestSaveImageRejectsOversizedUpload(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte{0x01}, maxImageSize+1)

	_, err := saveImage(bytes.NewReader(content), dir, ".jpg")
	requireStatus(t, err, http.StatusBadRequest)

	// No truncated file may survive the rejection.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
