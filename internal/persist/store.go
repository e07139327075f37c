package persist

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"novelbind/internal/book"
	"novelbind/internal/clock"
)

// Database and collection names are fixed; only the connection string is
// configurable.
const (
	DatabaseName   = "novelbind"
	CollectionName = "chapters"
)

const storeOpTimeout = 10 * time.Second

// chapterRecord is the persisted shape of one chapter. The published field
// always carries a value: the download timestamp stands in when the source
// page had none.
type chapterRecord struct {
	Number      int          `bson:"chapter"`
	Title       string       `bson:"title"`
	URL         string       `bson:"url"`
	Published   time.Time    `bson:"published"`
	Downloaded  time.Time    `bson:"downloaded"`
	ContentHTML string       `bson:"content_html"`
	Markdown    string       `bson:"markdown"`
	PlainText   string       `bson:"plain_text"`
	Schema      book.Version `bson:"schema"`
	UpdatedAt   time.Time    `bson:"updated_at"`
}

// Store is the chapter store handle. It is constructed once, passed
// explicitly to its consumers, and released at shutdown; a nil *Store means
// the store write path is unavailable.
type Store struct {
	client   *mongo.Client
	chapters *mongo.Collection
	clock    clock.Clock
}

// OpenStore connects to the store, verifies the connection, and ensures the
// unique index on the chapter number. Any failure yields an error so the
// caller can degrade the store write path to a no-op.
func OpenStore(ctx context.Context, uri string, clk clock.Clock) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, storeOpTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to store: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		disconnect(client)
		return nil, fmt.Errorf("ping store: %w", err)
	}

	chapters := client.Database(DatabaseName).Collection(CollectionName)

	indexCtx, cancelIndex := context.WithTimeout(ctx, storeOpTimeout)
	defer cancelIndex()
	_, err = chapters.Indexes().CreateOne(indexCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "chapter", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		disconnect(client)
		return nil, fmt.Errorf("create chapter index: %w", err)
	}

	return &Store{client: client, chapters: chapters, clock: clk}, nil
}

// Available reports whether the store write path can be used.
func (s *Store) Available() bool {
	return s != nil && s.chapters != nil
}

// Upsert inserts or replaces the record for the chapter's number. Re-running
// with the same number overwrites the existing record, never duplicates it.
func (s *Store) Upsert(ctx context.Context, ch book.Chapter) error {
	if !s.Available() {
		return fmt.Errorf("store unavailable")
	}
	opCtx, cancel := context.WithTimeout(ctx, storeOpTimeout)
	defer cancel()

	filter, update := upsertDocument(ch, s.clock.Now())
	_, err := s.chapters.UpdateOne(opCtx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert chapter %d: %w", ch.Number, err)
	}
	return nil
}

// upsertDocument builds the filter and update for one chapter. Split out so
// the idempotence contract is testable without a running store.
func upsertDocument(ch book.Chapter, now time.Time) (bson.M, bson.M) {
	record := chapterRecord{
		Number:      ch.Number,
		Title:       ch.Title,
		URL:         ch.URL,
		Published:   ch.EffectivePublished(),
		Downloaded:  ch.Downloaded.UTC(),
		ContentHTML: ch.ContentHTML,
		Markdown:    ch.Markdown,
		PlainText:   ch.PlainText,
		Schema:      ch.Schema,
		UpdatedAt:   now.UTC(),
	}
	filter := bson.M{"chapter": ch.Number}
	update := bson.M{
		"$set":         record,
		"$setOnInsert": bson.M{"created_at": now.UTC()},
	}
	return filter, update
}

// List returns every stored chapter sorted ascending by number.
func (s *Store) List(ctx context.Context) ([]book.Chapter, error) {
	if !s.Available() {
		return nil, fmt.Errorf("store unavailable")
	}
	opCtx, cancel := context.WithTimeout(ctx, storeOpTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "chapter", Value: 1}})
	cursor, err := s.chapters.Find(opCtx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer cursor.Close(opCtx)

	var chapters []book.Chapter
	for cursor.Next(opCtx) {
		var rec chapterRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode chapter: %w", err)
		}
		published := rec.Published
		chapters = append(chapters, book.Chapter{
			Number:      rec.Number,
			Title:       rec.Title,
			URL:         rec.URL,
			ContentHTML: rec.ContentHTML,
			Markdown:    rec.Markdown,
			PlainText:   rec.PlainText,
			Published:   &published,
			Downloaded:  rec.Downloaded,
			Schema:      rec.Schema,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate chapters: %w", err)
	}
	return chapters, nil
}

// Close releases the store connection.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	opCtx, cancel := context.WithTimeout(ctx, storeOpTimeout)
	defer cancel()
	if err := s.client.Disconnect(opCtx); err != nil {
		return fmt.Errorf("disconnect store: %w", err)
	}
	return nil
}

func disconnect(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), storeOpTimeout)
	defer cancel()
	_ = client.Disconnect(ctx)
}
