package reporter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgqa/pkgqa/feed"
	"github.com/pkgqa/pkgqa/result"
)

func TestHTTPSinkPostsResultAsJSON(t *testing.T) {
	var got result.Result
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewHTTPSink(srv.URL, time.Second)
	r, err := result.New("k", result.Warning, feed.Category, result.Coordinate{Category: "dev-lang"}, "short", "", nil)
	require.NoError(t, err)

	require.NoError(t, s.Write(r))
	assert.Equal(t, "k", got.Kind)
}

func TestHTTPSinkReturnsErrorOnNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewHTTPSink(srv.URL, time.Second)
	r, err := result.New("k", result.Warning, feed.Repo, result.Coordinate{}, "short", "", nil)
	require.NoError(t, err)

	assert.Error(t, s.Write(r))
}
