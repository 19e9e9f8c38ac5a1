package popularity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/moviefinder/internal/catalog"
)

// fakeAppwrite serves the three document endpoints from an in-memory map.
type fakeAppwrite struct {
	t       *testing.T
	mu      sync.Mutex
	docs    map[string]SearchTerm
	creates int
	updates int
	fail    bool
}

type fakeQuery struct {
	Method    string `json:"method"`
	Attribute string `json:"attribute"`
	Values    []any  `json:"values"`
}

func newFakeAppwrite(t *testing.T) (*fakeAppwrite, *AppwriteStore) {
	f := &fakeAppwrite{t: t, docs: map[string]SearchTerm{}}
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)

	st := NewAppwriteStore(AppwriteOptions{
		Endpoint:     server.URL + "/v1",
		Project:      "proj",
		APIKey:       "secret",
		Database:     "db1",
		Collection:   "metrics",
		ImageBaseURL: "https://img.test/w500",
	})
	return f, st
}

func (f *fakeAppwrite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	assert.Equal(f.t, "proj", r.Header.Get("X-Appwrite-Project"))
	assert.Equal(f.t, "secret", r.Header.Get("X-Appwrite-Key"))

	w.Header().Set("Content-Type", "application/json")
	if f.fail {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{"message": "unavailable", "code": 503, "type": "general_unknown"})
		return
	}

	const base = "/v1/databases/db1/collections/metrics/documents"
	switch {
	case r.Method == http.MethodGet && r.URL.Path == base:
		f.list(w, r)
	case r.Method == http.MethodPost && r.URL.Path == base:
		var body struct {
			DocumentID string         `json:"documentId"`
			Data       map[string]any `json:"data"`
		}
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		f.creates++
		doc := SearchTerm{
			ID:        body.DocumentID,
			Term:      body.Data["searchTerm"].(string),
			Count:     int(body.Data["count"].(float64)),
			MovieID:   int(body.Data["movie_id"].(float64)),
			PosterURL: body.Data["poster_url"].(string),
		}
		f.docs[doc.ID] = doc
		json.NewEncoder(w).Encode(doc)
	case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, base+"/"):
		id := strings.TrimPrefix(r.URL.Path, base+"/")
		doc, ok := f.docs[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"message": "document not found", "code": 404})
			return
		}
		var body struct {
			Data map[string]any `json:"data"`
		}
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		f.updates++
		doc.Count = int(body.Data["count"].(float64))
		f.docs[id] = doc
		json.NewEncoder(w).Encode(doc)
	default:
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"message": "unexpected " + r.Method + " " + r.URL.Path, "code": 400})
	}
}

// list applies filters, then ordering, then the limit, whatever order the
// queries arrive in.
func (f *fakeAppwrite) list(w http.ResponseWriter, r *http.Request) {
	var queries []fakeQuery
	for k, raws := range r.URL.Query() {
		if !strings.HasPrefix(k, "queries") {
			continue
		}
		for _, raw := range raws {
			var q fakeQuery
			assert.NoError(f.t, json.Unmarshal([]byte(raw), &q))
			queries = append(queries, q)
		}
	}

	docs := make([]SearchTerm, 0, len(f.docs))
	for _, d := range f.docs {
		docs = append(docs, d)
	}
	limit := len(docs)

	for _, q := range queries {
		if q.Method != "equal" {
			continue
		}
		assert.Equal(f.t, "searchTerm", q.Attribute)
		var kept []SearchTerm
		for _, d := range docs {
			if d.Term == q.Values[0].(string) {
				kept = append(kept, d)
			}
		}
		docs = kept
	}
	for _, q := range queries {
		switch q.Method {
		case "orderDesc":
			assert.Equal(f.t, "count", q.Attribute)
			sort.Slice(docs, func(i, j int) bool { return docs[i].Count > docs[j].Count })
		case "limit":
			limit = int(q.Values[0].(float64))
		}
	}
	if len(docs) > limit {
		docs = docs[:limit]
	}
	if docs == nil {
		docs = []SearchTerm{}
	}
	json.NewEncoder(w).Encode(map[string]any{"total": len(docs), "documents": docs})
}

func TestAppwriteRecordSearchCreatesThenIncrements(t *testing.T) {
	fake, st := newFakeAppwrite(t)
	ctx := context.Background()
	movie := catalog.Movie{ID: 42, PosterPath: "/x.jpg"}

	require.NoError(t, st.RecordSearch(ctx, "batman", movie))
	require.NoError(t, st.RecordSearch(ctx, "batman", movie))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, 1, fake.creates)
	assert.Equal(t, 1, fake.updates)
	require.Len(t, fake.docs, 1)
	for _, doc := range fake.docs {
		assert.Equal(t, "batman", doc.Term)
		assert.Equal(t, 2, doc.Count)
		assert.Equal(t, 42, doc.MovieID)
		assert.Equal(t, "https://img.test/w500/x.jpg", doc.PosterURL)
	}
}

func TestAppwriteTopSearches(t *testing.T) {
	_, st := newFakeAppwrite(t)
	ctx := context.Background()

	for term, n := range map[string]int{"alien": 2, "batman": 3, "casablanca": 1} {
		for i := 0; i < n; i++ {
			require.NoError(t, st.RecordSearch(ctx, term, catalog.Movie{ID: 1}))
		}
	}

	top, err := st.TopSearches(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "batman", top[0].Term)
	assert.Equal(t, 3, top[0].Count)
	assert.Equal(t, "alien", top[1].Term)
}

func TestAppwriteErrorsPropagateToTracker(t *testing.T) {
	fake, st := newFakeAppwrite(t)
	fake.mu.Lock()
	fake.fail = true
	fake.mu.Unlock()

	err := st.RecordSearch(context.Background(), "batman", catalog.Movie{ID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")

	tr := NewTracker(st, nil)
	assert.Empty(t, tr.TopSearches(context.Background(), 5))
}
