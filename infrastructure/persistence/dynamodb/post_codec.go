package dynamodb

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"myblog-backend/domain/core/entities"
	"myblog-backend/domain/core/valueobjects"
	"myblog-backend/infrastructure/persistence/abstractions"
	"myblog-backend/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

// Sort key layout of a post partition
const (
	postKeyPrefix   = "POST#"
	metadataSortKey = "METADATA"
	statusKeyPrefix = "STATUS#"
	blockKeyPrefix  = "BLOCK#"
	tagKeyPrefix    = "TAG#"
)

// ErrMetadataMissing reports a record set without its metadata record
var ErrMetadataMissing = errors.New("post metadata record not found")

// PostPK returns the partition key shared by every record of a post
func PostPK(id string) string { return postKeyPrefix + id }

// StatusSK returns the status index sort key, which is also the index partition for listings
func StatusSK(status entities.Status) string { return statusKeyPrefix + string(status) }

// BlockSK returns the zero-padded block sort key so string order matches numeric order
func BlockSK(order int) string { return fmt.Sprintf("%s%05d", blockKeyPrefix, order) }

// TagSK returns the tag sort key, which is also the index partition for tag listings
func TagSK(tag string) string { return tagKeyPrefix + tag }

// listView holds the denormalized fields list queries read from the index
type listView struct {
	PostID       string `dynamodbav:"postId"`
	Title        string `dynamodbav:"title"`
	Summary      string `dynamodbav:"summary"`
	Status       string `dynamodbav:"status"`
	AuthorID     string `dynamodbav:"authorId"`
	CreatedAt    string `dynamodbav:"createdAt"`
	UpdatedAt    string `dynamodbav:"updatedAt"`
	PublishedAt  string `dynamodbav:"publishedAt,omitempty"`
	ThumbnailURL string `dynamodbav:"thumbnailUrl,omitempty"`
}

type metadataRecord struct {
	PK string `dynamodbav:"pk"`
	SK string `dynamodbav:"sk"`
	listView
	Tags []string `dynamodbav:"tags,omitempty"`
}

type statusRecord struct {
	PK string `dynamodbav:"pk"`
	SK string `dynamodbav:"sk"`
	listView
}

type blockRecord struct {
	PK       string                      `dynamodbav:"pk"`
	SK       string                      `dynamodbav:"sk"`
	PostID   string                      `dynamodbav:"postId"`
	Order    int                         `dynamodbav:"order"`
	Type     string                      `dynamodbav:"type"`
	Content  string                      `dynamodbav:"content"`
	Layout   string                      `dynamodbav:"layout,omitempty"`
	Metadata *valueobjects.BlockMetadata `dynamodbav:"metadata,omitempty"`
}

type tagRecord struct {
	PK string `dynamodbav:"pk"`
	SK string `dynamodbav:"sk"`
	listView
	TagName string `dynamodbav:"tagName"`
}

// PostCodec maps a post to the flat record set of its partition and back
type PostCodec struct{}

// NewPostCodec creates a codec
func NewPostCodec() *PostCodec { return &PostCodec{} }

// Encode returns the metadata record, the status record, one record per block
// in order, and one record per tag. The metadata record always comes first.
func (c *PostCodec) Encode(post *entities.Post) ([]abstractions.Item, error) {
	pk := PostPK(post.ID().String())
	view := viewOf(post)
	tags := post.Tags()
	blocks := post.Content()

	records := make([]interface{}, 0, 2+len(blocks)+len(tags))
	records = append(records,
		metadataRecord{PK: pk, SK: metadataSortKey, listView: view, Tags: tags},
		statusRecord{PK: pk, SK: StatusSK(post.Status()), listView: view},
	)
	for _, block := range blocks {
		records = append(records, blockRecord{
			PK:       pk,
			SK:       BlockSK(block.Order),
			PostID:   view.PostID,
			Order:    block.Order,
			Type:     string(block.Type),
			Content:  block.Content,
			Layout:   string(block.Layout),
			Metadata: block.Metadata,
		})
	}
	for _, tag := range tags {
		records = append(records, tagRecord{PK: pk, SK: TagSK(tag), listView: view, TagName: tag})
	}

	items := make([]abstractions.Item, 0, len(records))
	for _, record := range records {
		item, err := attributevalue.MarshalMap(record)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal post record: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Decode reassembles a post from its partition.
// Returns ErrMetadataMissing when the set has no metadata record.
func (c *PostCodec) Decode(items []abstractions.Item) (*entities.Post, error) {
	var (
		meta      *metadataRecord
		blocks    []valueobjects.ContentBlock
		blockKeys []string
		tags      []string
	)

	for _, item := range items {
		sk := abstractions.StringAttr(item, abstractions.AttrSK)
		switch {
		case sk == metadataSortKey:
			var record metadataRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata record: %w", err)
			}
			meta = &record
		case strings.HasPrefix(sk, blockKeyPrefix):
			var record blockRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				return nil, fmt.Errorf("failed to unmarshal block record %s: %w", sk, err)
			}
			blocks = append(blocks, valueobjects.ContentBlock{
				Order:    record.Order,
				Type:     valueobjects.BlockType(record.Type),
				Content:  record.Content,
				Layout:   valueobjects.Layout(record.Layout),
				Metadata: record.Metadata,
			})
			blockKeys = append(blockKeys, sk)
		case strings.HasPrefix(sk, tagKeyPrefix):
			tags = append(tags, strings.TrimPrefix(sk, tagKeyPrefix))
		}
	}

	if meta == nil {
		return nil, ErrMetadataMissing
	}

	id, err := valueobjects.NewPostIDFromString(meta.PostID)
	if err != nil {
		return nil, fmt.Errorf("stored post id is invalid: %w", err)
	}
	summary, err := meta.listView.toSummary(id)
	if err != nil {
		return nil, err
	}

	// Duplicate orders fall back to sort key order, whatever order the records arrived in
	sort.Sort(blocksByKey{blocks: blocks, keys: blockKeys})
	for i := range blocks {
		blocks[i] = blocks[i].Normalized()
	}

	return entities.ReconstructPost(
		id,
		summary.Title,
		summary.Summary,
		summary.Status,
		blocks,
		tags,
		summary.ThumbnailURL,
		summary.AuthorID,
		summary.CreatedAt,
		summary.UpdatedAt,
		summary.PublishedAt,
	), nil
}

type blocksByKey struct {
	blocks []valueobjects.ContentBlock
	keys   []string
}

func (b blocksByKey) Len() int           { return len(b.blocks) }
func (b blocksByKey) Less(i, j int) bool { return b.keys[i] < b.keys[j] }
func (b blocksByKey) Swap(i, j int) {
	b.blocks[i], b.blocks[j] = b.blocks[j], b.blocks[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}

// DecodeSummary reads the list-view fields of a status or tag record
func (c *PostCodec) DecodeSummary(item abstractions.Item) (entities.PostSummary, error) {
	var view listView
	if err := attributevalue.UnmarshalMap(item, &view); err != nil {
		return entities.PostSummary{}, fmt.Errorf("failed to unmarshal list record: %w", err)
	}
	id, err := valueobjects.NewPostIDFromString(view.PostID)
	if err != nil {
		return entities.PostSummary{}, fmt.Errorf("stored post id is invalid: %w", err)
	}
	return view.toSummary(id)
}

func viewOf(post *entities.Post) listView {
	view := listView{
		PostID:       post.ID().String(),
		Title:        post.Title(),
		Summary:      post.Summary(),
		Status:       string(post.Status()),
		AuthorID:     post.AuthorID(),
		CreatedAt:    utils.FormatTimestamp(post.CreatedAt()),
		UpdatedAt:    utils.FormatTimestamp(post.UpdatedAt()),
		ThumbnailURL: post.ThumbnailURL(),
	}
	if published := post.PublishedAt(); published != nil {
		view.PublishedAt = utils.FormatTimestamp(*published)
	}
	return view
}

func (v listView) toSummary(id valueobjects.PostID) (entities.PostSummary, error) {
	createdAt, err := utils.ParseTimestamp(v.CreatedAt)
	if err != nil {
		return entities.PostSummary{}, fmt.Errorf("invalid createdAt on post %s: %w", v.PostID, err)
	}
	updatedAt, err := utils.ParseTimestamp(v.UpdatedAt)
	if err != nil {
		return entities.PostSummary{}, fmt.Errorf("invalid updatedAt on post %s: %w", v.PostID, err)
	}

	var publishedAt *time.Time
	if v.PublishedAt != "" {
		t, err := utils.ParseTimestamp(v.PublishedAt)
		if err != nil {
			return entities.PostSummary{}, fmt.Errorf("invalid publishedAt on post %s: %w", v.PostID, err)
		}
		publishedAt = &t
	}

	return entities.PostSummary{
		ID:           id,
		Title:        v.Title,
		Summary:      v.Summary,
		Status:       entities.Status(v.Status),
		AuthorID:     v.AuthorID,
		ThumbnailURL: v.ThumbnailURL,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
		PublishedAt:  publishedAt,
	}, nil
}

// recordKeys indexes a record set by primary key
func recordKeys(items []abstractions.Item) map[abstractions.Key]struct{} {
	keys := make(map[abstractions.Key]struct{}, len(items))
	for _, item := range items {
		keys[abstractions.KeyOf(item)] = struct{}{}
	}
	return keys
}

// sortedByKey orders keys so transactions are built deterministically
func sortedByKey(keys []abstractions.Key) []abstractions.Key {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].PK != keys[j].PK {
			return keys[i].PK < keys[j].PK
		}
		return keys[i].SK < keys[j].SK
	})
	return keys
}
