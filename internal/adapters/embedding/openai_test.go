package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIAdapter_EmbedBatchOrdersByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"model":  "test-embed",
			"data": []map[string]interface{}{
				{"object": "embedding", "index": 1, "embedding": []float32{0, 1}},
				{"object": "embedding", "index": 0, "embedding": []float32{1, 0}},
			},
		})
	}))
	defer server.Close()

	adapter, err := NewOpenAIAdapter("sk-test", server.URL+"/v1", "test-embed")
	require.NoError(t, err)

	out, err := adapter.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, out)
	assert.Equal(t, "test-embed", adapter.Model())
}

func TestOpenAIAdapter_RequiresKey(t *testing.T) {
	_, err := NewOpenAIAdapter("", "", "")
	assert.ErrorIs(t, err, ErrAPIKeyRequired)
}

func TestOpenAIAdapter_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"down","type":"server_error"}}`))
	}))
	defer server.Close()

	adapter, err := NewOpenAIAdapter("sk-test", server.URL+"/v1", "m")
	require.NoError(t, err)

	_, err = adapter.Embed(context.Background(), "x")
	assert.Error(t, err)
}
