package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/onboardly/onboardly/internal/vectordb"
)

const (
	// FinancialsSource tags restricted financial documents in the index.
	FinancialsSource = "company-financials"

	// FinancialsDenialMessage replaces the entire result set when a
	// restricted chunk is present and the caller is not entitled.
	FinancialsDenialMessage = "Access to company financial documents is restricted. " +
		"Please contact the finance team if you believe you need this information."
)

// DocumentSearcher is the retrieval collaborator contract.
type DocumentSearcher interface {
	Search(ctx context.Context, query string) ([]vectordb.Chunk, error)
}

// NewDocumentSearch builds the internal-document retrieval tool. Access
// control is all-or-nothing at the call level: one restricted chunk denies
// every chunk in the call.
func NewDocumentSearch(searcher DocumentSearcher, canAccessFinancials bool) Tool {
	return Tool{
		Name: "vectorDatabaseSearch",
		Description: "Search the internal document index (SOPs, handbooks, " +
			"policies) for context relevant to the query.",
		Parameters: queryParams,
		Run: func(ctx context.Context, args string) (string, error) {
			query, err := parseQuery(args)
			if err != nil {
				return "", err
			}
			chunks, err := searcher.Search(ctx, query)
			if err != nil {
				return "", err
			}

			if !canAccessFinancials {
				for _, c := range chunks {
					if c.SourceName == FinancialsSource {
						return FinancialsDenialMessage, nil
					}
				}
			}

			return fmt.Sprintf("<results> %s </results>", contextFromChunks(chunks)), nil
		},
	}
}

// contextFromChunks renders ranked chunks grouped by source, keeping the
// surrounding context the index stored with each chunk.
func contextFromChunks(chunks []vectordb.Chunk) string {
	if len(chunks) == 0 {
		return "no relevant documents found"
	}

	var b strings.Builder
	seen := make(map[string]int)
	for _, c := range chunks {
		n, ok := seen[c.SourceURL]
		if !ok {
			n = len(seen) + 1
			seen[c.SourceURL] = n
			fmt.Fprintf(&b, "\n[Source %d] %s (%s)\n", n, c.SourceDescription, c.SourceURL)
		}
		if c.PreContext != "" {
			b.WriteString(c.PreContext)
			b.WriteString(" ")
		}
		b.WriteString(c.Text)
		if c.PostContext != "" {
			b.WriteString(" ")
			b.WriteString(c.PostContext)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
