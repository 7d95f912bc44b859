package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/wikipron/pkg/kit"
	"github.com/hazyhaar/wikipron/pkg/lexicon"
	"github.com/hazyhaar/wikipron/pkg/variant"
)

const (
	// MaxGroups bounds the optional groups of one pattern; the result has
	// 2^MaxGroups variants at most.
	MaxGroups = variant.MaxGroups
	// MaxBatch bounds the patterns of one batch request.
	MaxBatch = 100
)

// ErrInvalidRequest is wrapped by every error caused by the caller's input.
var ErrInvalidRequest = errors.New("invalid request")

// Shared request/response types used by both HTTP and MCP transports.

type expandReq struct {
	Pattern string `json:"pattern"`
}

type expandResult struct {
	Pattern  string   `json:"pattern"`
	Groups   int      `json:"groups"`
	Variants []string `json:"variants"`
}

type expandBatchReq struct {
	Patterns []string `json:"patterns"`
}

type batchResponse struct {
	Results []expandResult `json:"results"`
}

type lookupReq struct {
	Word      string   `json:"word"`
	Languages []string `json:"languages"`
	Lexicons  []string `json:"lexicons"`
}

type lexiconsResponse struct {
	Lexicons []lexicon.Info `json:"lexicons"`
}

// endpoints are the kit.Endpoints shared by the HTTP router and the MCP tools.
type endpoints struct {
	expand      kit.Endpoint
	expandBatch kit.Endpoint
	lookup      kit.Endpoint
	listLexicon kit.Endpoint
}

func newEndpoints(reg *lexicon.Registry, logger *slog.Logger) *endpoints {
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.RequestID(), kit.Logging(logger, name))(ep)
	}
	return &endpoints{
		expand:      wrap("expand", expandEndpoint()),
		expandBatch: wrap("expand_batch", expandBatchEndpoint()),
		lookup:      wrap("lookup", lookupEndpoint(reg)),
		listLexicon: wrap("list_lexicons", listLexiconsEndpoint(reg)),
	}
}

func expandPattern(pattern string) (expandResult, error) {
	variants, err := variant.TryExpand(pattern)
	if err != nil {
		return expandResult{}, fmt.Errorf("%w: pattern has %w", ErrInvalidRequest, err)
	}
	return expandResult{Pattern: pattern, Groups: variant.Count(pattern), Variants: variants}, nil
}

func expandEndpoint() kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*expandReq)
		return expandPattern(req.Pattern)
	}
}

func expandBatchEndpoint() kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*expandBatchReq)
		if len(req.Patterns) == 0 {
			return nil, fmt.Errorf("%w: patterns array is empty", ErrInvalidRequest)
		}
		if len(req.Patterns) > MaxBatch {
			return nil, fmt.Errorf("%w: too many patterns (max %d, got %d)", ErrInvalidRequest, MaxBatch, len(req.Patterns))
		}
		results := make([]expandResult, len(req.Patterns))
		for i, p := range req.Patterns {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res, err := expandPattern(p)
			if err != nil {
				return nil, fmt.Errorf("patterns[%d]: %w", i, err)
			}
			results[i] = res
		}
		return batchResponse{Results: results}, nil
	}
}

func lookupEndpoint(reg *lexicon.Registry) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*lookupReq)
		if req.Word == "" {
			return nil, fmt.Errorf("%w: missing word", ErrInvalidRequest)
		}
		return reg.Lookup(req.Word, &lexicon.LookupOptions{
			Languages: req.Languages,
			Lexicons:  req.Lexicons,
		}), nil
	}
}

func listLexiconsEndpoint(reg *lexicon.Registry) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return lexiconsResponse{Lexicons: reg.ListLexicons()}, nil
	}
}
