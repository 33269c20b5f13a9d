package publish_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	jsrpublish "github.com/jsr-io/jsr-publish"
	"github.com/jsr-io/jsr-publish/archive"
	"github.com/jsr-io/jsr-publish/auth"
	"github.com/jsr-io/jsr-publish/publish"
	"github.com/jsr-io/jsr-publish/publishorder"
	"github.com/jsr-io/jsr-publish/registryapi"
)

func TestRunRespectsPublishOrder(t *testing.T) {
	var mu sync.Mutex
	var startOrder []string

	mux := http.NewServeMux()
	mux.HandleFunc("/scopes/luca", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/scopes/luca/packages/a", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/scopes/luca/packages/b", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/scopes/luca/packages/a/versions/1.0.0", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		startOrder = append(startOrder, "a")
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "ta", "status": "success"})
	})
	mux.HandleFunc("/scopes/luca/packages/b/versions/1.0.0", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		startOrder = append(startOrder, "b")
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "tb", "status": "success"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := registryapi.New(srv.URL, srv.URL)

	graph, err := publishorder.New([]string{"a", "b"}, map[string][]string{"a": {"b"}})
	require.NoError(t, err)

	packages := []jsrpublish.PreparedPackage{
		{Scope: "luca", Name: "a", Version: "1.0.0", Tarball: archive.Tarball{Bytes: []byte("x")}},
		{Scope: "luca", Name: "b", Version: "1.0.0", Tarball: archive.Tarball{Bytes: []byte("x")}},
	}

	err = publish.Run(context.Background(), client, graph, packages, publish.Config{
		ManageURL: "https://jsr.io",
		Auth:      auth.Method{Kind: auth.KindToken, Token: "t"},
	})
	require.NoError(t, err)

	require.Equal(t, []string{"b", "a"}, startOrder)
}

func TestRunDryRunDoesNoNetworkIO(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("dry run must not make any network request")
	}))
	defer srv.Close()

	client := registryapi.New(srv.URL, srv.URL)
	graph, err := publishorder.New([]string{"a"}, nil)
	require.NoError(t, err)

	packages := []jsrpublish.PreparedPackage{
		{Scope: "luca", Name: "a", Version: "1.0.0", Tarball: archive.Tarball{
			Files: []archive.File{{PathStr: "mod.ts", Size: 12}},
		}},
	}

	err = publish.Run(context.Background(), client, graph, packages, publish.Config{DryRun: true})
	require.NoError(t, err)
}

func TestRunAbortsOnFirstFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/scopes/luca", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/scopes/luca/packages/a", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/scopes/luca/packages/a/versions/1.0.0", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"internal","message":"boom"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := registryapi.New(srv.URL, srv.URL)
	graph, err := publishorder.New([]string{"a"}, nil)
	require.NoError(t, err)

	packages := []jsrpublish.PreparedPackage{
		{Scope: "luca", Name: "a", Version: "1.0.0", Tarball: archive.Tarball{Bytes: []byte("x")}},
	}

	err = publish.Run(context.Background(), client, graph, packages, publish.Config{
		ManageURL: "https://jsr.io",
		Auth:      auth.Method{Kind: auth.KindToken, Token: "t"},
	})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "boom"))
}
