package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"novelbind/internal/book"
)

func testChapter(number int) book.Chapter {
	return book.Chapter{
		Number:      number,
		Title:       "A False God",
		URL:         "https://example.org/chapter/986",
		ContentHTML: `<section class="chapter"><h2 class="chapter-title">A False God</h2><p style="text-indent: 0; text-align: justify;"><span class="drop-cap">T</span>he hunt began.</p></section>`,
		Markdown:    "## A False God\n\nThe hunt began.",
		PlainText:   "A False God\n\nThe hunt began.",
		Downloaded:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Schema:      book.DefaultVersion(),
	}
}

func TestFilesSaveUsesZeroPaddedName(t *testing.T) {
	t.Parallel()

	files, err := NewFiles(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	ch := testChapter(7)
	require.NoError(t, files.Save(context.Background(), ch))

	body, err := os.ReadFile(files.Path(7))
	require.NoError(t, err)
	require.Equal(t, ch.ContentHTML, string(body))
	require.Equal(t, "0007.html", filepath.Base(files.Path(7)))
}

func TestFilesSaveOverwrites(t *testing.T) {
	t.Parallel()

	files, err := NewFiles(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	first := testChapter(986)
	require.NoError(t, files.Save(context.Background(), first))

	second := first
	second.ContentHTML = `<section class="chapter"><h2 class="chapter-title">A False God</h2><p>Rewritten.</p></section>`
	require.NoError(t, files.Save(context.Background(), second))

	body, err := os.ReadFile(files.Path(986))
	require.NoError(t, err)
	require.Equal(t, second.ContentHTML, string(body), "the latest write wins; no duplicate files")
}

func TestFilesLoadRoundTrip(t *testing.T) {
	t.Parallel()

	files, err := NewFiles(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	for _, n := range []int{990, 986, 988} {
		ch := testChapter(n)
		require.NoError(t, files.Save(context.Background(), ch))
	}
	// A stray file must not become a chapter.
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(files.Path(1)), "notes.txt"), []byte("x"), 0o600))

	loaded, err := files.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	require.Equal(t, []int{986, 988, 990}, []int{loaded[0].Number, loaded[1].Number, loaded[2].Number})
	require.Equal(t, "A False God", loaded[0].Title)
	require.NotEmpty(t, loaded[0].Markdown)
	require.NotEmpty(t, loaded[0].PlainText)
}

func TestUpsertDocumentKeyedByChapter(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	ch := testChapter(986)

	filter, update := upsertDocument(ch, now)
	require.Equal(t, bson.M{"chapter": 986}, filter)

	record, ok := update["$set"].(chapterRecord)
	require.True(t, ok)
	require.Equal(t, 986, record.Number)
	require.Equal(t, ch.ContentHTML, record.ContentHTML)
	require.True(t, record.UpdatedAt.Equal(now))

	// Upserting again with different content produces the same filter and
	// the replaced record body: one record per identity.
	changed := ch
	changed.ContentHTML = "<section>changed</section>"
	filter2, update2 := upsertDocument(changed, now.Add(time.Minute))
	require.Equal(t, filter, filter2)
	record2 := update2["$set"].(chapterRecord)
	require.Equal(t, "<section>changed</section>", record2.ContentHTML)
}

func TestUpsertDocumentPublishedFallsBackToDownloaded(t *testing.T) {
	t.Parallel()

	ch := testChapter(986)
	require.Nil(t, ch.Published)

	_, update := upsertDocument(ch, time.Now())
	record := update["$set"].(chapterRecord)
	require.True(t, record.Published.Equal(ch.Downloaded))

	published := time.Date(2026, 2, 27, 8, 30, 0, 0, time.UTC)
	ch.Published = &published
	_, update = upsertDocument(ch, time.Now())
	record = update["$set"].(chapterRecord)
	require.True(t, record.Published.Equal(published))
}

func TestSinkWithoutStoreStillWritesFile(t *testing.T) {
	t.Parallel()

	files, err := NewFiles(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	var store *Store
	require.False(t, store.Available())

	sink := NewSink(files, store, zap.NewNop())
	ch := testChapter(42)
	sink.Persist(context.Background(), ch)

	body, err := os.ReadFile(files.Path(42))
	require.NoError(t, err)
	require.Equal(t, ch.ContentHTML, string(body))
}
