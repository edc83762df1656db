package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CharbelDaher34/stackvec/internal/embedding"
	"github.com/CharbelDaher34/stackvec/internal/indexmanager"
	"github.com/CharbelDaher34/stackvec/internal/model"
	"github.com/CharbelDaher34/stackvec/internal/service"
	"github.com/CharbelDaher34/stackvec/internal/store/memstore"
)

// newTestServer wires a full stack (memstore + deterministic embedder + all
// three index types) behind an httptest.Server, mirroring spec §8's
// end-to-end scenario list.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := memstore.New()
	embedder := embedding.NewDeterministic(4)
	indices := indexmanager.New(4, embedder, st, indexmanager.DefaultFactories(4), 1.5, zerolog.Nop())

	libraries := service.NewLibraryService(st, indices, zerolog.Nop())
	documents := service.NewDocumentService(st, indices, zerolog.Nop())
	chunks := service.NewChunkService(st, st, embedder, indices, zerolog.Nop())

	srv := New(libraries, documents, chunks, indices, zerolog.Nop())
	return httptest.NewServer(srv)
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestServer_CreateLibraryDocumentChunkThenSearch(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	libResp := postJSON(t, ts.URL+"/libraries/", model.LibraryCreate{Name: "Papers", WrittenBy: "me"})
	require.Equal(t, http.StatusCreated, libResp.StatusCode)
	lib := decode[model.Library](t, libResp)

	docResp := postJSON(t, ts.URL+"/documents/", model.DocumentCreate{Name: "Doc1", LibraryID: lib.ID})
	require.Equal(t, http.StatusCreated, docResp.StatusCode)
	doc := decode[model.Document](t, docResp)

	chunkResp := postJSON(t, ts.URL+"/chunks/", model.ChunkCreate{Text: "vector databases are fun", DocumentID: doc.ID})
	require.Equal(t, http.StatusCreated, chunkResp.StatusCode)
	chunk := decode[model.Chunk](t, chunkResp)

	searchResp, err := http.Post(fmt.Sprintf("%s/chunks/search?query=%s&k=5", ts.URL, "vector+databases+are+fun"), "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, searchResp.StatusCode)

	var body struct {
		ListOfChunks map[string][]string `json:"list_of_chunks"`
	}
	require.NoError(t, json.NewDecoder(searchResp.Body).Decode(&body))
	searchResp.Body.Close()

	for indexName, texts := range body.ListOfChunks {
		assert.Contains(t, texts, chunk.Text, "index %s should surface the exact-match chunk", indexName)
	}
}

func TestServer_SearchAgreesAcrossAllIndexTypes(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	lib := decode[model.Library](t, postJSON(t, ts.URL+"/libraries/", model.LibraryCreate{Name: "L", WrittenBy: "a"}))
	doc := decode[model.Document](t, postJSON(t, ts.URL+"/documents/", model.DocumentCreate{Name: "D", LibraryID: lib.ID}))

	texts := []string{"alpha chunk", "beta chunk", "gamma chunk", "delta chunk"}
	for _, text := range texts {
		resp := postJSON(t, ts.URL+"/chunks/", model.ChunkCreate{Text: text, DocumentID: doc.ID})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	searchResp, err := http.Post(ts.URL+"/chunks/search?query=alpha+chunk&k=1", "application/json", nil)
	require.NoError(t, err)
	defer searchResp.Body.Close()
	require.Equal(t, http.StatusOK, searchResp.StatusCode)

	var body struct {
		ListOfChunks map[string][]string `json:"list_of_chunks"`
	}
	require.NoError(t, json.NewDecoder(searchResp.Body).Decode(&body))
	require.Len(t, body.ListOfChunks, 3, "linear, balltree and kdtree should all answer")
	for indexName, hits := range body.ListOfChunks {
		require.Len(t, hits, 1, "index %s", indexName)
		assert.Equal(t, "alpha chunk", hits[0])
	}
}

func TestServer_UpdateChunkThenSearchExcludesStaleText(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	lib := decode[model.Library](t, postJSON(t, ts.URL+"/libraries/", model.LibraryCreate{Name: "L", WrittenBy: "a"}))
	doc := decode[model.Document](t, postJSON(t, ts.URL+"/documents/", model.DocumentCreate{Name: "D", LibraryID: lib.ID}))
	chunk := decode[model.Chunk](t, postJSON(t, ts.URL+"/chunks/", model.ChunkCreate{Text: "original text", DocumentID: doc.ID}))

	req, err := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/chunks/%s", ts.URL, chunk.ID), bytes.NewReader(mustJSON(t, model.ChunkUpdate{Text: "replacement text"})))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	updateResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, updateResp.StatusCode)
	updateResp.Body.Close()

	searchResp, err := http.Post(ts.URL+"/chunks/search?query=original+text&index_types=linear&k=5", "application/json", nil)
	require.NoError(t, err)
	defer searchResp.Body.Close()

	var body struct {
		ListOfChunks map[string][]string `json:"list_of_chunks"`
	}
	require.NoError(t, json.NewDecoder(searchResp.Body).Decode(&body))
	assert.NotContains(t, body.ListOfChunks["linear"], "original text")
}

func TestServer_DeleteDocumentCascadesChunkCount(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	lib := decode[model.Library](t, postJSON(t, ts.URL+"/libraries/", model.LibraryCreate{Name: "L", WrittenBy: "a"}))
	doc := decode[model.Document](t, postJSON(t, ts.URL+"/documents/", model.DocumentCreate{Name: "D", LibraryID: lib.ID}))
	for i := 0; i < 3; i++ {
		resp := postJSON(t, ts.URL+"/chunks/", model.ChunkCreate{Text: fmt.Sprintf("chunk %d", i), DocumentID: doc.ID})
		resp.Body.Close()
	}

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/documents/%s", ts.URL, doc.ID), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		ChunksRemoved int `json:"chunks_removed"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 3, body.ChunksRemoved)
}

func TestServer_DeleteLibraryCascadesAcrossDocumentsAndChunks(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	lib := decode[model.Library](t, postJSON(t, ts.URL+"/libraries/", model.LibraryCreate{Name: "L", WrittenBy: "a"}))
	doc := decode[model.Document](t, postJSON(t, ts.URL+"/documents/", model.DocumentCreate{Name: "D", LibraryID: lib.ID}))
	postJSON(t, ts.URL+"/chunks/", model.ChunkCreate{Text: "x", DocumentID: doc.ID}).Body.Close()

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/libraries/%s", ts.URL, lib.ID), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	getResp, err := http.Get(fmt.Sprintf("%s/documents/%s", ts.URL, doc.ID))
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestServer_ConcurrentRandomChunksAndSearchDoNotRace(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	lib := decode[model.Library](t, postJSON(t, ts.URL+"/libraries/", model.LibraryCreate{Name: "L", WrittenBy: "a"}))
	decode[model.Document](t, postJSON(t, ts.URL+"/documents/", model.DocumentCreate{Name: "D", LibraryID: lib.ID}))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			resp, err := http.Post(ts.URL+"/chunks/random", "application/json", nil)
			if err == nil {
				resp.Body.Close()
			}
		}()
		go func() {
			defer wg.Done()
			resp, err := http.Post(ts.URL+"/chunks/search?query=test&k=3", "application/json", nil)
			if err == nil {
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	buf, err := json.Marshal(v)
	require.NoError(t, err)
	return buf
}
