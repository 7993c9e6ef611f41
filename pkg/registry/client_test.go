/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package registry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mweibel/commodore/pkg/errors"
	"github.com/mweibel/commodore/pkg/inventory"
)

func testRegistry(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /clusters/c-test", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(inventory.Cluster{
			ID:     "c-test",
			Tenant: "t-foo",
			Facts:  inventory.Facts{Cloud: "cloudX", Region: "r1"},
		})
	})
	mux.HandleFunc("GET /clusters", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]inventory.Cluster{
			{ID: "c-test", Tenant: "t-foo"},
			{ID: "c-other", Tenant: "t-foo"},
		})
	})
	mux.HandleFunc("GET /tenants/t-foo", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(inventory.Tenant{
			ID:       "t-foo",
			Clusters: []string{"c-test", "c-other"},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetCluster(t *testing.T) {
	srv := testRegistry(t)
	c, err := NewClient(srv.URL, WithToken("s3cret"))
	require.NoError(t, err)

	cluster, err := c.GetCluster(t.Context(), "c-test")
	require.NoError(t, err)
	assert.Equal(t, "c-test", cluster.ID)
	assert.Equal(t, "t-foo", cluster.Tenant)
	assert.Equal(t, "cloudX", cluster.Facts.Cloud)
}

func TestGetCluster_Unauthorized(t *testing.T) {
	srv := testRegistry(t)
	c, err := NewClient(srv.URL, WithToken("wrong"))
	require.NoError(t, err)

	_, err = c.GetCluster(t.Context(), "c-test")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))
}

func TestGetCluster_NotFound(t *testing.T) {
	srv := testRegistry(t)
	c, err := NewClient(srv.URL, WithToken("s3cret"))
	require.NoError(t, err)

	_, err = c.GetCluster(t.Context(), "c-unknown")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestListClusters(t *testing.T) {
	srv := testRegistry(t)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	clusters, err := c.ListClusters(t.Context())
	require.NoError(t, err)
	assert.Len(t, clusters, 2)
}

func TestGetTenant(t *testing.T) {
	srv := testRegistry(t)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	tenant, err := c.GetTenant(t.Context(), "t-foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"c-test", "c-other"}, tenant.Clusters)
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient("not a url")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfig))
}
