package popularity

import (
	"context"
	"fmt"

	"github.com/appwrite/sdk-for-go/appwrite"
	"github.com/appwrite/sdk-for-go/client"
	"github.com/appwrite/sdk-for-go/databases"
	"github.com/appwrite/sdk-for-go/query"
	"github.com/google/uuid"

	"github.com/abelbrown/moviefinder/internal/catalog"
)

// AppwriteOptions locates the collection holding search term documents.
type AppwriteOptions struct {
	Endpoint     string // e.g. https://cloud.appwrite.io/v1
	Project      string
	APIKey       string // optional server key
	Database     string
	Collection   string
	ImageBaseURL string
}

// AppwriteStore keeps search terms as documents in an Appwrite collection.
//
// RecordSearch is a read-modify-write: two clients recording the same term
// at the same moment can lose an increment.
type AppwriteStore struct {
	db         *databases.Databases
	database   string
	collection string
	imageBase  string
}

// NewAppwriteStore creates an AppwriteStore.
func NewAppwriteStore(opts AppwriteOptions) *AppwriteStore {
	setters := []client.ClientOption{
		appwrite.WithEndpoint(opts.Endpoint),
		appwrite.WithProject(opts.Project),
	}
	if opts.APIKey != "" {
		setters = append(setters, appwrite.WithKey(opts.APIKey))
	}
	return &AppwriteStore{
		db:         appwrite.NewDatabases(appwrite.NewClient(setters...)),
		database:   opts.Database,
		collection: opts.Collection,
		imageBase:  opts.ImageBaseURL,
	}
}

type searchTermList struct {
	Total     int          `json:"total"`
	Documents []SearchTerm `json:"documents"`
}

// RecordSearch looks the term up by exact match and either increments the
// existing document or creates a new one.
func (s *AppwriteStore) RecordSearch(ctx context.Context, term string, movie catalog.Movie) error {
	list, err := s.list(ctx, query.Equal("searchTerm", term))
	if err != nil {
		return err
	}

	if len(list.Documents) > 0 {
		doc := list.Documents[0]
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := s.db.UpdateDocument(s.database, s.collection, doc.ID,
			s.db.WithUpdateDocumentData(map[string]any{"count": doc.Count + 1}),
		)
		if err != nil {
			return fmt.Errorf("popularity: update %q: %w", term, err)
		}
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	_, err = s.db.CreateDocument(s.database, s.collection, uuid.NewString(), map[string]any{
		"searchTerm": term,
		"count":      1,
		"movie_id":   movie.ID,
		"poster_url": catalog.PosterURL(s.imageBase, movie.PosterPath),
	})
	if err != nil {
		return fmt.Errorf("popularity: create %q: %w", term, err)
	}
	return nil
}

// TopSearches lists documents ordered by count descending.
func (s *AppwriteStore) TopSearches(ctx context.Context, limit int) ([]SearchTerm, error) {
	list, err := s.list(ctx, query.OrderDesc("count"), query.Limit(limit))
	if err != nil {
		return nil, err
	}
	return list.Documents, nil
}

// list runs ListDocuments. The SDK does not take a context, so ctx is only
// checked before the call.
func (s *AppwriteStore) list(ctx context.Context, queries ...string) (*searchTermList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs, err := s.db.ListDocuments(s.database, s.collection,
		s.db.WithListDocumentsQueries(queries),
	)
	if err != nil {
		return nil, fmt.Errorf("popularity: list documents: %w", err)
	}

	var out searchTermList
	if err := docs.Decode(&out); err != nil {
		return nil, fmt.Errorf("popularity: decode documents: %w", err)
	}
	return &out, nil
}
