package embedding

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/pathwise/pathwise-backend/internal/domain"
	"github.com/pathwise/pathwise-backend/internal/logger"
)

type stubProvider struct {
	vecs [][]float32
	err  error
	hits int
}

func (p *stubProvider) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	p.hits++
	if p.err != nil {
		return nil, p.err
	}
	return p.vecs, nil
}

func newTestCodec(dims int) *Codec {
	return NewCodec(logger.NewNop(), nil, dims, 0)
}

func TestFallbackEmbedDeterministic(t *testing.T) {
	codec := newTestCodec(64)
	ctx := context.Background()

	a := codec.EmbedText(ctx, "learn go concurrency patterns")
	b := codec.EmbedText(ctx, "learn go concurrency patterns")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("fallback embedding not deterministic at index %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestFallbackEmbedWhitespaceInvariant(t *testing.T) {
	codec := newTestCodec(64)
	ctx := context.Background()

	a := codec.EmbedText(ctx, "learn go concurrency")
	b := codec.EmbedText(ctx, "  learn \t go\n\nconcurrency ")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding differs under whitespace normalization at index %d", i)
		}
	}
}

func TestFallbackEmbedEmptyInput(t *testing.T) {
	codec := newTestCodec(32)
	ctx := context.Background()

	for _, text := range []string{"", "   ", "\t\n"} {
		vec := codec.EmbedText(ctx, text)
		if len(vec) != 32 {
			t.Fatalf("want zero vector of dims 32, got len %d", len(vec))
		}
		for i, v := range vec {
			if v != 0 {
				t.Fatalf("want zero vector for %q, got %v at index %d", text, v, i)
			}
		}
	}
}

func TestFallbackEmbedUnitNorm(t *testing.T) {
	codec := newTestCodec(128)
	vec := codec.EmbedText(context.Background(), "distributed systems design and operation")

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-4 {
		t.Fatalf("fallback embedding not L2-normalized: |v|=%v", math.Sqrt(norm))
	}
}

func TestProviderErrorFallsBack(t *testing.T) {
	provider := &stubProvider{err: errors.New("quota exceeded")}
	codec := NewCodec(logger.NewNop(), provider, 64, 0)

	vec := codec.EmbedText(context.Background(), "some text")
	if provider.hits != 1 {
		t.Fatalf("provider hits=%d, want 1", provider.hits)
	}
	if len(vec) != 64 {
		t.Fatalf("fallback vector dims=%d, want 64", len(vec))
	}
	want := newTestCodec(64).EmbedText(context.Background(), "some text")
	for i := range vec {
		if vec[i] != want[i] {
			t.Fatal("provider failure did not produce the deterministic fallback vector")
		}
	}
}

func TestProviderSuccessUsed(t *testing.T) {
	want := make([]float32, 8)
	want[0] = 0.25
	provider := &stubProvider{vecs: [][]float32{want}}
	codec := NewCodec(logger.NewNop(), provider, 8, 0)

	vec := codec.EmbedText(context.Background(), "anything")
	if vec[0] != 0.25 {
		t.Fatalf("provider vector not used, got %v", vec[0])
	}
}

func TestProviderWrongShapeFallsBack(t *testing.T) {
	provider := &stubProvider{vecs: [][]float32{make([]float32, 4)}}
	codec := NewCodec(logger.NewNop(), provider, 8, 0)

	vec := codec.EmbedText(context.Background(), "anything")
	if len(vec) != 8 {
		t.Fatalf("want fallback dims 8, got %d", len(vec))
	}
}

func TestBuildContentText(t *testing.T) {
	item := &domain.ContentItem{
		Title:       "Intro to Go",
		Description: "A gentle introduction",
		Tags:        []string{"go", "basics"},
		KeyTopics:   []string{"syntax"},
		Summary:     "Covers the language core",
		KeyPoints:   []string{"variables", "loops"},
	}
	text := BuildContentText(item)

	sections := strings.Split(text, "\n\n")
	wantOrder := []string{"Title:", "Description:", "Tags:", "Key Topics:", "Summary:", "Key Points:"}
	if len(sections) != len(wantOrder) {
		t.Fatalf("got %d sections, want %d: %q", len(sections), len(wantOrder), text)
	}
	for i, prefix := range wantOrder {
		if !strings.HasPrefix(sections[i], prefix) {
			t.Fatalf("section %d = %q, want prefix %q", i, sections[i], prefix)
		}
	}

	sparse := BuildContentText(&domain.ContentItem{Title: "Only title"})
	if sparse != "Title: Only title" {
		t.Fatalf("sparse item text = %q", sparse)
	}
}
