package apiclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tix-net/condenser/internal/analyzer"
	"github.com/tix-net/condenser/internal/apiclient"
)

func TestNewRejectsMissingCredentials(t *testing.T) {
	_, err := apiclient.New(apiclient.Config{Host: "example.com", Port: 443})
	var configErr *apiclient.ErrConfiguration
	require.ErrorAs(t, err, &configErr)
}

func clientAgainst(t *testing.T, server *httptest.Server) *apiclient.Client {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	client, err := apiclient.New(apiclient.Config{
		Host:     u.Hostname(),
		Port:     port,
		User:     "user",
		Password: "pass",
	})
	require.NoError(t, err)
	return client
}

func TestPublishSucceedsOn200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := clientAgainst(t, server)
	err := client.Publish(context.Background(), 1, 2, "203.0.113.5", analyzer.AnalysisResult{})
	assert.NoError(t, err)
}

func TestPublishSucceedsOn204(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := clientAgainst(t, server)
	err := client.Publish(context.Background(), 1, 2, "203.0.113.5", analyzer.AnalysisResult{})
	assert.NoError(t, err)
}

func TestPublishReturnsTransientOn503(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := clientAgainst(t, server)
	err := client.Publish(context.Background(), 1, 2, "203.0.113.5", analyzer.AnalysisResult{})
	var transientErr *apiclient.ErrTransient
	require.ErrorAs(t, err, &transientErr)
	assert.Equal(t, http.StatusServiceUnavailable, transientErr.StatusCode)
}

func TestPublishUsesBasicAuthAndPath(t *testing.T) {
	var gotUser, gotPass string
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := clientAgainst(t, server)
	err := client.Publish(context.Background(), 11, 22, "203.0.113.5", analyzer.AnalysisResult{})
	require.NoError(t, err)
	assert.Equal(t, "user", gotUser)
	assert.Equal(t, "pass", gotPass)
	assert.Equal(t, "/api/user/11/installation/22/report", gotPath)
}
