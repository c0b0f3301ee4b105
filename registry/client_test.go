package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halstead/image-delivery-backend/interfaces"
)

func TestClientImageMetadata(t *testing.T) {
	want := interfaces.ImageDescriptor{
		ID:       "ubuntu-22.04",
		Name:     "Ubuntu 22.04 server",
		Checksum: "2f1f0cc6f4449082f4fd48c2db81ea35",
		Size:     9600,
		Locations: []interfaces.ImageLocation{
			{URI: "file:///var/lib/imagedepot/ubuntu-22.04.img", Size: 9600},
		},
	}

	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(want))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, nil)

	desc, err := client.ImageMetadata(context.Background(), "ubuntu-22.04")
	require.NoError(t, err)

	assert.Equal(t, "/v1/images/ubuntu-22.04/metadata", gotPath)
	assert.Equal(t, &want, desc)
}

func TestClientImageMetadataNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such image", http.StatusNotFound)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, nil)

	_, err := client.ImageMetadata(context.Background(), "missing")
	assert.ErrorIs(t, err, interfaces.ErrImageNotFound)
}

func TestClientImageMetadataServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database down", http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, nil)

	_, err := client.ImageMetadata(context.Background(), "ubuntu-22.04")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "database down")
}

func TestClientImageMetadataFillsID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"anonymous","locations":[]}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, nil)

	desc, err := client.ImageMetadata(context.Background(), "img-77")
	require.NoError(t, err)
	assert.Equal(t, "img-77", desc.ID)
}

func TestClientEscapesImageID(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"id":"x","locations":[]}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, nil)

	_, err := client.ImageMetadata(context.Background(), "weird/id")
	require.NoError(t, err)
	assert.Equal(t, "/v1/images/weird%2Fid/metadata", gotPath)
}
