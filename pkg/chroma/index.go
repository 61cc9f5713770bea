package chroma

import (
	"context"
	"fmt"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings/gemini"
	"github.com/charmbracelet/log"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

const maxEmbedLen = 10000

// StyleIndex is an optional vector index over the user's sent mail. When
// drafting a reply, the most similar past messages are retrieved so the
// draft can echo how the user actually answered comparable mail.
//
// Embeddings use Gemini's text-embedding-004 and require GEMINI_API_KEY in
// the environment.
type StyleIndex struct {
	client     chroma.Client
	collection chroma.Collection
	logger     *log.Logger
}

// NewStyleIndex connects to a Chroma server and opens (or creates) the
// collection.
func NewStyleIndex(ctx context.Context, baseURL, collectionName string, logger *log.Logger) (*StyleIndex, error) {
	embedFunc, err := gemini.NewGeminiEmbeddingFunction(
		gemini.WithEnvAPIKey(),
		gemini.WithDefaultModel("text-embedding-004"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding function: %w", err)
	}

	client, err := chroma.NewHTTPClient(chroma.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("create chroma client: %w", err)
	}

	collection, err := client.GetOrCreateCollection(
		ctx,
		collectionName,
		chroma.WithEmbeddingFunctionCreate(embedFunc),
	)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", collectionName, err)
	}

	l := logger.WithPrefix("chroma")
	l.Info("style index ready", "collection", collectionName)
	return &StyleIndex{client: client, collection: collection, logger: l}, nil
}

// IndexSentMail upserts sent messages keyed by message id, so re-indexing
// the same window on every run never duplicates.
func (s *StyleIndex) IndexSentMail(ctx context.Context, msgs []domain.Message) error {
	for _, m := range msgs {
		text := fmt.Sprintf("Subject: %s\n\nBody: %s", m.Subject, m.Body)
		if len(text) > maxEmbedLen {
			text = text[:maxEmbedLen]
		}

		recipient := ""
		if len(m.To) > 0 {
			recipient = m.To[0]
		}
		metadata, err := chroma.NewDocumentMetadataFromMap(map[string]interface{}{
			"message_id": m.ID,
			"recipient":  recipient,
			"subject":    m.Subject,
		})
		if err != nil {
			return fmt.Errorf("build metadata for %s: %w", m.ID, err)
		}

		if err := s.collection.Upsert(
			ctx,
			chroma.WithIDs(chroma.DocumentID(m.ID)),
			chroma.WithMetadatas(metadata),
			chroma.WithTexts(text),
		); err != nil {
			return fmt.Errorf("upsert sent message %s: %w", m.ID, err)
		}
	}
	s.logger.Debug("indexed sent mail", "count", len(msgs))
	return nil
}

// SimilarSent returns the ids of indexed sent messages most similar to the
// query text, nearest first.
func (s *StyleIndex) SimilarSent(ctx context.Context, query string, limit int) ([]string, error) {
	if len(query) > maxEmbedLen {
		query = query[:maxEmbedLen]
	}

	results, err := s.collection.Query(
		ctx,
		chroma.WithQueryTexts(query),
		chroma.WithNResults(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query style index: %w", err)
	}
	if results == nil || results.CountGroups() == 0 {
		return nil, nil
	}

	idGroups := results.GetIDGroups()
	if len(idGroups) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(idGroups[0]))
	for _, id := range idGroups[0] {
		ids = append(ids, string(id))
	}
	return ids, nil
}
