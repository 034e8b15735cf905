// Package cms reads and writes business listings held in the headless CMS
// document store.
package cms

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"go-directory-app/internal/config"
	"go-directory-app/internal/data"
	"go-directory-app/internal/slug"
)

// listingDocument is the stored shape of a listing. CategorySlug is derived
// so category lookups can match exactly.
type listingDocument struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty"`
	data.BusinessListing `bson:",inline"`
	CategorySlug         string `bson:"categorySlug"`
}

// Connect opens a client and verifies the deployment is reachable.
func Connect(ctx context.Context, cfg config.CMSConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetTimeout(cfg.Timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// ListingStore is a Mongo-backed collection of business listings.
type ListingStore struct {
	collection *mongo.Collection
}

// NewListingStore creates a store over the named collection.
func NewListingStore(db *mongo.Database, collection string) *ListingStore {
	return &ListingStore{collection: db.Collection(collection)}
}

// EnsureIndexes creates the unique slug index and the lookup indexes.
func (s *ListingStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "categorySlug", Value: 1}, {Key: "updatedAt", Value: -1}}},
	})
	return err
}

// Find returns listings matching q, most recently updated first.
func (s *ListingStore) Find(ctx context.Context, q data.ListingQuery) ([]*data.BusinessListing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "name", Value: 1}})
	cursor, err := s.collection.Find(ctx, BuildFilter(q), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	listings := make([]*data.BusinessListing, 0)
	for cursor.Next(ctx) {
		var doc listingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		l := doc.BusinessListing
		listings = append(listings, &l)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}

// FindBySlug returns the listing with the given slug, or nil if none exists.
func (s *ListingStore) FindBySlug(ctx context.Context, listingSlug string) (*data.BusinessListing, error) {
	var doc listingDocument
	err := s.collection.FindOne(ctx, bson.M{"slug": listingSlug}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc.BusinessListing, nil
}

// Upsert stores l keyed by slug and returns the document id.
func (s *ListingStore) Upsert(ctx context.Context, l *data.BusinessListing) (string, error) {
	if l.Slug == "" {
		return "", errors.New("listing slug is required")
	}
	now := time.Now().UTC()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now

	doc := listingDocument{BusinessListing: *l, CategorySlug: slug.Normalize(l.Category)}
	set, err := bson.Marshal(doc)
	if err != nil {
		return "", err
	}
	var fields bson.M
	if err := bson.Unmarshal(set, &fields); err != nil {
		return "", err
	}
	delete(fields, "_id")
	delete(fields, "createdAt")

	update := bson.M{
		"$set":         fields,
		"$setOnInsert": bson.M{"createdAt": l.CreatedAt},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var stored listingDocument
	if err := s.collection.FindOneAndUpdate(ctx, bson.M{"slug": l.Slug}, update, opts).Decode(&stored); err != nil {
		return "", fmt.Errorf("upsert listing %q: %w", l.Slug, err)
	}
	return stored.ID.Hex(), nil
}

// BuildFilter translates q into a Mongo filter. Each term must prefix a word in
// the name, description, category or city; location is matched as a substring
// of the address fields.
func BuildFilter(q data.ListingQuery) bson.M {
	filter := bson.M{}
	if q.Slug != "" {
		filter["slug"] = q.Slug
	}
	if q.Category != "" {
		filter["categorySlug"] = slug.Normalize(q.Category)
	}

	var and []bson.M
	for _, term := range q.Terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		rx := primitive.Regex{Pattern: `(^|[^\p{L}\p{N}])` + regexp.QuoteMeta(term), Options: "i"}
		and = append(and, bson.M{"$or": []bson.M{
			{"name": rx},
			{"description": rx},
			{"category": rx},
			{"city": rx},
		}})
	}
	if loc := strings.TrimSpace(q.Location); loc != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(loc), Options: "i"}
		and = append(and, bson.M{"$or": []bson.M{
			{"address": rx},
			{"city": rx},
			{"state": rx},
			{"zipCode": rx},
		}})
	}
	if len(and) > 0 {
		filter["$and"] = and
	}
	return filter
}
