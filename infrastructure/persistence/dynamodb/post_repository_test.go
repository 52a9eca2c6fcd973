package dynamodb

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"myblog-backend/domain/core/entities"
	"myblog-backend/domain/core/valueobjects"
	"myblog-backend/domain/policy"
	"myblog-backend/infrastructure/persistence/abstractions"
	"myblog-backend/infrastructure/persistence/memory"
	"myblog-backend/pkg/common"
	pkgerrors "myblog-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testIndex  = "GSI1"
	authorID   = "author-1"
	strangerID = "author-2"
)

var (
	admin     = policy.Caller{UserID: authorID}
	anonymous = policy.Anonymous
)

func newTestRepository() (*PostRepository, *memory.Store) {
	store := memory.NewStore(testIndex)
	return NewPostRepository(store, nil, testIndex, zap.NewNop()), store
}

func sampleInput(status entities.Status, tags ...string) entities.PostInput {
	return entities.PostInput{
		Title:   "Hello",
		Summary: "A first post",
		Status:  status,
		Content: []valueobjects.ContentBlock{
			{Order: 2, Type: valueobjects.BlockTypeCode, Content: "fmt.Println()", Metadata: &valueobjects.BlockMetadata{Language: "go"}},
			{Order: 0, Type: valueobjects.BlockTypeText, Content: "intro"},
			{Order: 1, Type: valueobjects.BlockTypeImage, Content: "https://cdn.example.com/a.png", Layout: valueobjects.LayoutHalfLeft},
		},
		Tags: tags,
	}
}

func blocks(n int) []valueobjects.ContentBlock {
	out := make([]valueobjects.ContentBlock, n)
	for i := range out {
		out[i] = valueobjects.ContentBlock{Order: i, Type: valueobjects.BlockTypeText, Content: fmt.Sprintf("block %d", i)}
	}
	return out
}

func sortKeys(t *testing.T, store *memory.Store, postID string) []string {
	t.Helper()
	items, err := store.QueryPartition(context.Background(), PostPK(postID))
	require.NoError(t, err)
	keys := make([]string, len(items))
	for i, item := range items {
		keys[i] = abstractions.StringAttr(item, abstractions.AttrSK)
	}
	return keys
}

func TestPostRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Should write metadata, status, block and tag records", func(t *testing.T) {
		// Arrange
		repo, store := newTestRepository()

		// Act
		post, err := repo.Create(ctx, sampleInput(entities.StatusDraft, "go", "aws"), authorID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []string{
			"BLOCK#00000", "BLOCK#00001", "BLOCK#00002",
			"METADATA", "STATUS#draft", "TAG#aws", "TAG#go",
		}, sortKeys(t, store, post.ID().String()))
		assert.Equal(t, authorID, post.AuthorID())
		assert.Nil(t, post.PublishedAt())
	})

	t.Run("Should return every violation and write nothing", func(t *testing.T) {
		repo, store := newTestRepository()

		_, err := repo.Create(ctx, entities.PostInput{Status: "bogus"}, authorID)

		appErr := pkgerrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, pkgerrors.ErrorTypeValidation, appErr.Type)
		assert.GreaterOrEqual(t, len(appErr.Violations), 4)
		assert.Zero(t, store.Len())
	})

	t.Run("Should require a caller identity", func(t *testing.T) {
		repo, _ := newTestRepository()

		_, err := repo.Create(ctx, sampleInput(entities.StatusDraft), "")

		assert.True(t, pkgerrors.IsUnauthorized(err))
	})

	t.Run("Should refuse posts that exceed the transaction limit", func(t *testing.T) {
		repo, store := newTestRepository()
		input := sampleInput(entities.StatusDraft)
		input.Content = blocks(99)

		_, err := repo.Create(ctx, input, authorID)

		assert.True(t, pkgerrors.IsTooManyItems(err))
		assert.Zero(t, store.Len())
	})
}

func TestPostRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository()
	draft, err := repo.Create(ctx, sampleInput(entities.StatusDraft), authorID)
	require.NoError(t, err)
	published, err := repo.Create(ctx, sampleInput(entities.StatusPublished), authorID)
	require.NoError(t, err)

	t.Run("Should reassemble blocks in order", func(t *testing.T) {
		post, err := repo.GetByID(ctx, published.ID().String(), anonymous)

		require.NoError(t, err)
		content := post.Content()
		require.Len(t, content, 3)
		assert.Equal(t, "intro", content[0].Content)
		assert.Equal(t, valueobjects.LayoutFull, content[0].Layout)
		assert.Equal(t, valueobjects.LayoutHalfLeft, content[1].Layout)
		require.NotNil(t, content[2].Metadata)
		assert.Equal(t, "go", content[2].Metadata.Language)
		assert.Equal(t, published.CreatedAt(), post.CreatedAt())
		require.NotNil(t, post.PublishedAt())
	})

	t.Run("Should hide drafts from anonymous callers behind the same not found", func(t *testing.T) {
		_, hiddenErr := repo.GetByID(ctx, draft.ID().String(), anonymous)
		_, missingErr := repo.GetByID(ctx, valueobjects.NewPostID().String(), anonymous)

		require.True(t, pkgerrors.IsNotFound(hiddenErr))
		require.True(t, pkgerrors.IsNotFound(missingErr))
		assert.Equal(t, pkgerrors.GetAppError(missingErr).Message, pkgerrors.GetAppError(hiddenErr).Message)
	})

	t.Run("Should show drafts to authenticated callers", func(t *testing.T) {
		post, err := repo.GetByID(ctx, draft.ID().String(), admin)

		require.NoError(t, err)
		assert.Equal(t, entities.StatusDraft, post.Status())
	})

	t.Run("Should treat malformed ids as not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "a#b", admin)

		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("Should treat a partition without metadata as not found", func(t *testing.T) {
		orphanRepo, store := newTestRepository()
		id := valueobjects.NewPostID().String()
		require.NoError(t, store.TransactWrite(ctx, []abstractions.WriteOp{
			abstractions.PutOp(abstractions.Item{
				abstractions.AttrPK: stringAttr(PostPK(id)),
				abstractions.AttrSK: stringAttr(BlockSK(0)),
			}),
		}))

		_, err := orphanRepo.GetByID(ctx, id, admin)

		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestPostRepository_Update(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Should keep exactly one status record", func(t *testing.T) {
		// Arrange
		repo, store := newTestRepository()
		post, err := repo.Create(ctx, sampleInput(entities.StatusDraft), authorID)
		require.NoError(t, err)
		published := entities.StatusPublished

		// Act
		_, err = repo.Update(ctx, post.ID().String(), entities.PostPatch{Status: &published}, authorID)

		// Assert
		require.NoError(t, err)
		keys := sortKeys(t, store, post.ID().String())
		assert.Contains(t, keys, "STATUS#published")
		assert.NotContains(t, keys, "STATUS#draft")

		drafts, err := repo.ListByStatus(ctx, entities.StatusDraft, 10, "", admin)
		require.NoError(t, err)
		assert.Empty(t, drafts.Posts)
	})

	t.Run("Should reconcile tags and blocks", func(t *testing.T) {
		repo, store := newTestRepository()
		post, err := repo.Create(ctx, sampleInput(entities.StatusPublished, "a", "b"), authorID)
		require.NoError(t, err)
		tags := []string{"b", "c"}
		content := blocks(1)

		updated, err := repo.Update(ctx, post.ID().String(), entities.PostPatch{Tags: &tags, Content: &content}, authorID)

		require.NoError(t, err)
		assert.Equal(t, []string{"BLOCK#00000", "METADATA", "STATUS#published", "TAG#b", "TAG#c"},
			sortKeys(t, store, post.ID().String()))
		assert.Equal(t, []string{"b", "c"}, updated.Tags())

		byA, err := repo.ListByTag(ctx, "a", 10, "", anonymous)
		require.NoError(t, err)
		assert.Empty(t, byA.Posts)
		byC, err := repo.ListByTag(ctx, "c", 10, "", anonymous)
		require.NoError(t, err)
		assert.Len(t, byC.Posts, 1)
	})

	t.Run("Should refresh denormalized list fields", func(t *testing.T) {
		repo, _ := newTestRepository()
		post, err := repo.Create(ctx, sampleInput(entities.StatusPublished, "go"), authorID)
		require.NoError(t, err)
		title := "Renamed"

		_, err = repo.Update(ctx, post.ID().String(), entities.PostPatch{Title: &title}, authorID)
		require.NoError(t, err)

		page, err := repo.ListByStatus(ctx, entities.StatusPublished, 10, "", anonymous)
		require.NoError(t, err)
		require.Len(t, page.Posts, 1)
		assert.Equal(t, "Renamed", page.Posts[0].Title)
		byTag, err := repo.ListByTag(ctx, "go", 10, "", anonymous)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", byTag.Posts[0].Title)
	})

	t.Run("Should preserve the first publish time", func(t *testing.T) {
		now := created
		repo, _ := newTestRepository()
		repo.WithClock(func() time.Time { return now })
		post, err := repo.Create(ctx, sampleInput(entities.StatusDraft), authorID)
		require.NoError(t, err)
		id := post.ID().String()
		published, draft := entities.StatusPublished, entities.StatusDraft

		now = created.Add(time.Hour)
		_, err = repo.Update(ctx, id, entities.PostPatch{Status: &published}, authorID)
		require.NoError(t, err)
		now = created.Add(2 * time.Hour)
		_, err = repo.Update(ctx, id, entities.PostPatch{Status: &draft}, authorID)
		require.NoError(t, err)
		now = created.Add(3 * time.Hour)
		final, err := repo.Update(ctx, id, entities.PostPatch{Status: &published}, authorID)
		require.NoError(t, err)

		require.NotNil(t, final.PublishedAt())
		assert.Equal(t, created.Add(time.Hour), *final.PublishedAt())
		assert.Equal(t, created.Add(3*time.Hour), final.UpdatedAt())

		stored, err := repo.GetByID(ctx, id, anonymous)
		require.NoError(t, err)
		assert.Equal(t, created.Add(time.Hour), *stored.PublishedAt())
	})

	t.Run("Should check existence, then ownership, then the patch", func(t *testing.T) {
		repo, _ := newTestRepository()
		post, err := repo.Create(ctx, sampleInput(entities.StatusDraft), authorID)
		require.NoError(t, err)

		_, missingErr := repo.Update(ctx, valueobjects.NewPostID().String(), entities.PostPatch{}, authorID)
		_, forbiddenErr := repo.Update(ctx, post.ID().String(), entities.PostPatch{}, strangerID)
		_, invalidErr := repo.Update(ctx, post.ID().String(), entities.PostPatch{}, authorID)

		assert.True(t, pkgerrors.IsNotFound(missingErr))
		assert.True(t, pkgerrors.IsForbidden(forbiddenErr))
		assert.True(t, pkgerrors.IsValidation(invalidErr))
	})

	t.Run("Should count puts and deletes against the transaction limit", func(t *testing.T) {
		repo, store := newTestRepository()
		input := sampleInput(entities.StatusDraft)
		input.Content = blocks(60)
		post, err := repo.Create(ctx, input, authorID)
		require.NoError(t, err)
		shifted := blocks(60)
		for i := range shifted {
			shifted[i].Order += 1000
		}

		_, err = repo.Update(ctx, post.ID().String(), entities.PostPatch{Content: &shifted}, authorID)

		assert.True(t, pkgerrors.IsTooManyItems(err))
		assert.Contains(t, sortKeys(t, store, post.ID().String()), "BLOCK#00000")
	})

	// Updates carry no version, so two racing updates both succeed and the
	// later write replaces every record the earlier one produced.
	t.Run("Should lose one of two concurrent updates", func(t *testing.T) {
		// Arrange
		repo, store := newTestRepository()
		post, err := repo.Create(ctx, sampleInput(entities.StatusDraft), authorID)
		require.NoError(t, err)

		barrier := &readBarrier{Store: store}
		barrier.wg.Add(2)
		racing := NewPostRepository(barrier, nil, testIndex, zap.NewNop())

		title, summary := "Title from A", "Summary from B"
		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)

		// Act
		go func() {
			defer wg.Done()
			_, errs[0] = racing.Update(ctx, post.ID().String(), entities.PostPatch{Title: &title}, authorID)
		}()
		go func() {
			defer wg.Done()
			_, errs[1] = racing.Update(ctx, post.ID().String(), entities.PostPatch{Summary: &summary}, authorID)
		}()
		wg.Wait()

		// Assert
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		final, err := repo.GetByID(ctx, post.ID().String(), admin)
		require.NoError(t, err)
		bothApplied := final.Title() == title && final.Summary() == summary
		assert.False(t, bothApplied, "one update is expected to be lost")
		assert.True(t, final.Title() == title || final.Summary() == summary)
	})
}

func TestPostRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Should remove every record", func(t *testing.T) {
		repo, store := newTestRepository()
		post, err := repo.Create(ctx, sampleInput(entities.StatusPublished, "go"), authorID)
		require.NoError(t, err)

		result, err := repo.Delete(ctx, post.ID().String(), authorID)

		require.NoError(t, err)
		assert.Equal(t, post.ID().String(), result.PostID)
		assert.False(t, result.DeletedAt.IsZero())
		assert.Zero(t, store.Len())
		_, err = repo.GetByID(ctx, post.ID().String(), admin)
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("Should reject other users", func(t *testing.T) {
		repo, store := newTestRepository()
		post, err := repo.Create(ctx, sampleInput(entities.StatusDraft), authorID)
		require.NoError(t, err)
		before := store.Len()

		_, err = repo.Delete(ctx, post.ID().String(), strangerID)

		assert.True(t, pkgerrors.IsForbidden(err))
		assert.Equal(t, before, store.Len())
	})

	t.Run("Should report missing posts", func(t *testing.T) {
		repo, _ := newTestRepository()

		_, err := repo.Delete(ctx, valueobjects.NewPostID().String(), authorID)

		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("Should refuse partitions over the delete limit without deleting any", func(t *testing.T) {
		repo, store := newTestRepository()
		input := sampleInput(entities.StatusDraft)
		input.Content = blocks(24)
		post, err := repo.Create(ctx, input, authorID)
		require.NoError(t, err)

		_, err = repo.Delete(ctx, post.ID().String(), authorID)

		assert.True(t, pkgerrors.IsTooManyItems(err))
		assert.Equal(t, 26, store.Len())
	})
}

func TestPostRepository_ListByStatus(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository()
	var ids []string
	for i := 0; i < 5; i++ {
		post, err := repo.Create(ctx, sampleInput(entities.StatusPublished), authorID)
		require.NoError(t, err)
		ids = append(ids, post.ID().String())
	}
	_, err := repo.Create(ctx, sampleInput(entities.StatusDraft), authorID)
	require.NoError(t, err)

	t.Run("Should page newest first until exhausted", func(t *testing.T) {
		var seen []string
		token := ""
		pages := 0
		for {
			page, err := repo.ListByStatus(ctx, entities.StatusPublished, 2, token, anonymous)
			require.NoError(t, err)
			pages++
			for _, p := range page.Posts {
				seen = append(seen, p.ID.String())
			}
			if page.NextToken == "" {
				break
			}
			token = page.NextToken
		}

		assert.Equal(t, 3, pages)
		assert.Equal(t, []string{ids[4], ids[3], ids[2], ids[1], ids[0]}, seen)
	})

	t.Run("Should omit the token when the page is exactly full", func(t *testing.T) {
		page, err := repo.ListByStatus(ctx, entities.StatusPublished, 5, "", anonymous)

		require.NoError(t, err)
		assert.Len(t, page.Posts, 5)
		assert.Empty(t, page.NextToken)
	})

	t.Run("Should return an empty page of drafts to anonymous callers", func(t *testing.T) {
		page, err := repo.ListByStatus(ctx, entities.StatusDraft, 10, "", anonymous)

		require.NoError(t, err)
		assert.Empty(t, page.Posts)
		assert.Empty(t, page.NextToken)
	})

	t.Run("Should list drafts for authenticated callers", func(t *testing.T) {
		page, err := repo.ListByStatus(ctx, entities.StatusDraft, 10, "", admin)

		require.NoError(t, err)
		assert.Len(t, page.Posts, 1)
	})

	t.Run("Should validate the limit", func(t *testing.T) {
		for _, limit := range []int{0, 101} {
			_, err := repo.ListByStatus(ctx, entities.StatusPublished, limit, "", anonymous)

			assert.True(t, pkgerrors.IsValidation(err), "limit %d", limit)
		}
	})

	t.Run("Should reject malformed and foreign tokens", func(t *testing.T) {
		foreign, err := common.EncodeToken(map[string]string{"pk": PostPK(ids[0]), "sk": StatusSK(entities.StatusDraft)})
		require.NoError(t, err)
		extra, err := common.EncodeToken(map[string]string{"pk": PostPK(ids[0]), "sk": StatusSK(entities.StatusPublished), "x": "y"})
		require.NoError(t, err)

		for _, token := range []string{"!!not-base64!!", foreign, extra} {
			_, err := repo.ListByStatus(ctx, entities.StatusPublished, 2, token, anonymous)

			assert.True(t, pkgerrors.IsInvalidToken(err), "token %q", token)
		}
	})
}

func TestPostRepository_ListByTag(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository()
	public, err := repo.Create(ctx, sampleInput(entities.StatusPublished, "go"), authorID)
	require.NoError(t, err)
	_, err = repo.Create(ctx, sampleInput(entities.StatusDraft, "go"), authorID)
	require.NoError(t, err)

	t.Run("Should filter hidden posts for anonymous callers", func(t *testing.T) {
		page, err := repo.ListByTag(ctx, "go", 10, "", anonymous)

		require.NoError(t, err)
		require.Len(t, page.Posts, 1)
		assert.Equal(t, public.ID(), page.Posts[0].ID)
	})

	t.Run("Should include drafts for authenticated callers", func(t *testing.T) {
		page, err := repo.ListByTag(ctx, "go", 10, "", admin)

		require.NoError(t, err)
		assert.Len(t, page.Posts, 2)
	})

	t.Run("Should reject a status token on a tag listing", func(t *testing.T) {
		token, err := common.EncodeToken(map[string]string{"pk": PostPK(public.ID().String()), "sk": StatusSK(entities.StatusPublished)})
		require.NoError(t, err)

		_, err = repo.ListByTag(ctx, "go", 10, token, anonymous)

		assert.True(t, pkgerrors.IsInvalidToken(err))
	})

	t.Run("Should validate the tag", func(t *testing.T) {
		_, err := repo.ListByTag(ctx, strings.Repeat("x", 51), 10, "", anonymous)

		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestPostRepository_Ping(t *testing.T) {
	repo, _ := newTestRepository()

	assert.NoError(t, repo.Ping(context.Background()))
}

// readBarrier holds every partition read until two have arrived, forcing
// concurrent updates to merge against the same snapshot
type readBarrier struct {
	abstractions.Store
	wg sync.WaitGroup
}

func (b *readBarrier) QueryPartition(ctx context.Context, pk string) ([]abstractions.Item, error) {
	items, err := b.Store.QueryPartition(ctx, pk)
	b.wg.Done()
	b.wg.Wait()
	return items, err
}
