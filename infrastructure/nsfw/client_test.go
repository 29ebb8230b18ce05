package nsfw

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleJPEG(t *testing.T) []byte {
	img := imaging.New(8, 8, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, image.Image(img), imaging.JPEG))
	return buf.Bytes()
}

func classifierServer(t *testing.T, response string, got *[]byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("image")
		require.NoError(t, err)
		data, _ := io.ReadAll(file)
		*got = data
		_, _ = w.Write([]byte(response))
	}))
}

func TestClient_ClassifyUsesThreshold(t *testing.T) {
	var got []byte
	srv := classifierServer(t, `{"scores":{"neutral":0.1,"porn":0.85,"sexy":0.05}}`, &got)
	defer srv.Close()

	img := sampleJPEG(t)
	res, err := NewClient(srv.URL, 0.7).Classify(context.Background(), img, "image/jpeg")
	require.NoError(t, err)
	assert.True(t, res.IsNSFW)
	assert.Equal(t, 0.85, res.Scores["porn"])
	assert.Equal(t, img, got)
}

func TestClient_ClassifyBelowThreshold(t *testing.T) {
	var got []byte
	srv := classifierServer(t, `{"scores":{"neutral":0.9,"porn":0.05}}`, &got)
	defer srv.Close()

	res, err := NewClient(srv.URL, 0.7).Classify(context.Background(), sampleJPEG(t), "image/jpeg")
	require.NoError(t, err)
	assert.False(t, res.IsNSFW)
}

func TestClient_ServerVerdictWins(t *testing.T) {
	var got []byte
	srv := classifierServer(t, `{"isNSFW":true,"scores":{"porn":0.1}}`, &got)
	defer srv.Close()

	res, err := NewClient(srv.URL, 0.7).Classify(context.Background(), sampleJPEG(t), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, res.IsNSFW)
}

func TestClient_InvalidWebp(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1", 0.7).Classify(context.Background(), []byte("not a webp"), "image/webp")
	assert.Error(t, err)
}
