package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/provato/provato/internal/model"
)

// registry owns evidence identity for one gathering run: id allocation
// and content-fingerprint deduplication live behind a single mutex so an
// item is either fully registered or not at all.
type registry struct {
	mu           sync.Mutex
	nextID       int
	fingerprints map[string]bool
	items        []model.EvidenceItem
	dropped      int
}

func newRegistry() *registry {
	return &registry{fingerprints: make(map[string]bool)}
}

// add registers an item unless an identical snippet was already seen.
// The fingerprint and id are assigned here, never by callers.
func (r *registry) add(item model.EvidenceItem) bool {
	fp := Fingerprint(item.Snippet)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fingerprints[fp] {
		r.dropped++
		return false
	}
	r.fingerprints[fp] = true
	r.nextID++
	item.ID = fmt.Sprintf("ev-%d", r.nextID)
	item.Fingerprint = fp
	r.items = append(r.items, item)
	return true
}

// snapshot returns the registered items and the duplicate count.
func (r *registry) snapshot() ([]model.EvidenceItem, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EvidenceItem, len(r.items))
	copy(out, r.items)
	return out, r.dropped
}

// Fingerprint hashes a snippet's textual content. Markup is stripped,
// case and whitespace are normalized, so the same sentence arriving from
// two providers collides.
func Fingerprint(snippet string) string {
	hash := sha256.Sum256([]byte(NormalizeSnippet(snippet)))
	return hex.EncodeToString(hash[:])
}

// NormalizeSnippet strips HTML markup and collapses the text to
// lowercase single-spaced words.
func NormalizeSnippet(snippet string) string {
	text := snippet
	if strings.ContainsAny(snippet, "<>") {
		text = stripMarkup(snippet)
	}
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// stripMarkup extracts the text content of an HTML fragment. On a
// tokenizer error the raw input is kept.
func stripMarkup(fragment string) string {
	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if b.Len() == 0 {
				return fragment
			}
			return b.String()
		case html.TextToken:
			b.Write(tokenizer.Text())
			b.WriteByte(' ')
		}
	}
}
