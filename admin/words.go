package admin

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SensitiveWord is one entry in the content filter.
type SensitiveWord struct {
	ID       int64  `json:"id"`
	Word     string `json:"word"`
	Category string `json:"category,omitempty"`
}

// WordPage is one page of the sensitive-word list.
type WordPage struct {
	Words []SensitiveWord `json:"words"`
	Meta  ListMeta        `json:"meta"`
}

// NormalizeWord canonicalizes a filter entry: NFKD-decomposed and
// lowercased, so visually equivalent spellings collapse to one entry.
func NormalizeWord(word string) string {
	return strings.ToLower(norm.NFKD.String(strings.TrimSpace(word)))
}

// ListWords returns one page of the sensitive-word list matching q.
func (s *Service) ListWords(ctx context.Context, q ListQuery) (*WordPage, error) {
	return doList[WordPage](ctx, s.c, "/admin/words", q.values())
}

// AddWord adds a normalized entry to the content filter.
func (s *Service) AddWord(ctx context.Context, word, category string) (*SensitiveWord, error) {
	return doBody[SensitiveWord](ctx, s.c, http.MethodPost, "/admin/words", SensitiveWord{
		Word:     NormalizeWord(word),
		Category: category,
	})
}

// DeleteWord removes an entry from the content filter.
func (s *Service) DeleteWord(ctx context.Context, id int64) error {
	return doDelete(ctx, s.c, fmt.Sprintf("/admin/words/%d", id))
}
