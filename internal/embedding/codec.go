package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/pathwise/pathwise-backend/internal/domain"
	"github.com/pathwise/pathwise-backend/internal/logger"
)

// DefaultDimensions matches the deployment-wide embedding width. All vectors
// produced by a Codec share it.
const DefaultDimensions = 1536

// maxEmbedTokens bounds the document handed to the provider. Truncation
// happens at a word boundary.
const maxEmbedTokens = 8000

// Provider is the external embedding API. Calls are network-bound and
// fallible; the codec never lets a provider error escape.
type Provider interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// Codec turns free-form text into fixed-length vectors. With a nil provider
// it runs fallback-only, which is the configuration used in tests and in
// deployments without embedding credentials.
type Codec struct {
	log      *logger.Logger
	provider Provider
	dims     int
	timeout  time.Duration
}

func NewCodec(log *logger.Logger, provider Provider, dims int, timeout time.Duration) *Codec {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Codec{
		log:      log.With("service", "VectorCodec"),
		provider: provider,
		dims:     dims,
		timeout:  timeout,
	}
}

func (c *Codec) Dimensions() int {
	return c.dims
}

// EmbedText encodes text via the provider when one is configured, falling
// back to the deterministic hashing encoder on any provider error.
func (c *Codec) EmbedText(ctx context.Context, text string) domain.Vector {
	if c.provider != nil {
		pctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		vecs, err := c.provider.Embed(pctx, []string{text})
		if err == nil && len(vecs) == 1 && len(vecs[0]) == c.dims {
			return domain.Vector(vecs[0])
		}
		if err != nil {
			c.log.Warn("Embedding provider failed, using fallback encoder", "error", err)
		} else {
			c.log.Warn("Embedding provider returned unexpected shape, using fallback encoder",
				"vectors", len(vecs))
		}
	}
	return c.fallbackEmbed(text)
}

// EmbedContent builds the canonical content document and encodes it. Field
// order is fixed so the document, and therefore the fallback vector, is
// stable for a given item.
func (c *Codec) EmbedContent(ctx context.Context, item *domain.ContentItem) domain.Vector {
	return c.EmbedText(ctx, truncateTokens(BuildContentText(item), maxEmbedTokens))
}

func BuildContentText(item *domain.ContentItem) string {
	if item == nil {
		return ""
	}
	sections := make([]string, 0, 6)
	if s := strings.TrimSpace(item.Title); s != "" {
		sections = append(sections, "Title: "+s)
	}
	if s := strings.TrimSpace(item.Description); s != "" {
		sections = append(sections, "Description: "+s)
	}
	if len(item.Tags) > 0 {
		sections = append(sections, "Tags: "+strings.Join(item.Tags, ", "))
	}
	if len(item.KeyTopics) > 0 {
		sections = append(sections, "Key Topics: "+strings.Join(item.KeyTopics, ", "))
	}
	if s := strings.TrimSpace(item.Summary); s != "" {
		sections = append(sections, "Summary: "+s)
	}
	if len(item.KeyPoints) > 0 {
		sections = append(sections, "Key Points: "+strings.Join(item.KeyPoints, "; "))
	}
	return strings.Join(sections, "\n\n")
}

func truncateTokens(text string, budget int) string {
	words := strings.Fields(text)
	if len(words) <= budget {
		return text
	}
	return strings.Join(words[:budget], " ")
}

// fallbackEmbed is the deterministic, network-free encoder: each whitespace
// token hashes to a bucket, every token contributes 1/sqrt(tokenCount), and
// the result is L2-normalized. Empty input yields the zero vector.
func (c *Codec) fallbackEmbed(text string) domain.Vector {
	vec := make(domain.Vector, c.dims)
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return vec
	}
	contribution := float32(1.0 / math.Sqrt(float64(len(tokens))))
	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		bucket := int(h.Sum32() % uint32(c.dims))
		vec[bucket] += contribution
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	inv := float32(1.0 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
