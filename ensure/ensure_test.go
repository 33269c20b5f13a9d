package ensure_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	jsrpublish "github.com/jsr-io/jsr-publish"
	"github.com/jsr-io/jsr-publish/ensure"
	"github.com/jsr-io/jsr-publish/registryapi"
)

func TestScopesAndPackagesExistNoOp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	client := registryapi.New(srv.URL, srv.URL)
	pkgs := []jsrpublish.PreparedPackage{{Scope: "luca", Name: "flag", Version: "1.0.0"}}

	err := ensure.ScopesAndPackagesExist(context.Background(), client, "https://jsr.io", pkgs)
	require.NoError(t, err)
}

func TestScopesAndPackagesExistNonInteractiveAggregates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"notFound","message":"not found"}`))
	}))
	defer srv.Close()

	client := registryapi.New(srv.URL, srv.URL)
	pkgs := []jsrpublish.PreparedPackage{{Scope: "luca", Name: "flag", Version: "1.0.0"}}

	err := ensure.ScopesAndPackagesExist(context.Background(), client, "https://jsr.io", pkgs)
	require.Error(t, err)
	require.Contains(t, err.Error(), "scope \"luca\" does not exist")
	require.Contains(t, err.Error(), "package \"flag\" does not exist")
}
