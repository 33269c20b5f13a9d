package registryapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsr-io/jsr-publish/registryapi"
)

func TestDoJSONDecodesSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "luca"})
	}))
	defer srv.Close()

	c := registryapi.New(srv.URL, srv.URL)
	var out struct {
		Name string `json:"name"`
	}
	err := c.DoJSON(context.Background(), http.MethodGet, srv.URL+"/scopes/luca", nil, nil, &out)
	require.NoError(t, err)
	require.Equal(t, "luca", out.Name)
}

func TestDoJSONDecodesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    "duplicateVersionPublish",
			"message": "already published",
			"data":    map[string]interface{}{"task": map[string]interface{}{"id": "t1", "status": "success"}},
		})
	}))
	defer srv.Close()

	c := registryapi.New(srv.URL, srv.URL)
	err := c.DoJSON(context.Background(), http.MethodPost, srv.URL+"/versions/1.0.0", nil, map[string]string{"x": "y"}, nil)
	require.Error(t, err)

	var serverErr *registryapi.ServerError
	require.ErrorAs(t, err, &serverErr)
	require.Equal(t, "duplicateVersionPublish", serverErr.Code)
	require.Equal(t, http.StatusConflict, serverErr.StatusCode)
}

func TestNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "notFound", "message": "no such scope"})
	}))
	defer srv.Close()

	c := registryapi.New(srv.URL, srv.URL)
	err := c.DoJSON(context.Background(), http.MethodGet, srv.URL+"/scopes/ghost", nil, nil, nil)
	require.True(t, registryapi.NotFound(err))
}
