package watch

import (
	"strings"
	"time"

	"github.com/mr-tron/base58"

	"solana-sniper/internal/domain"
)

// LogEvent is one raw log notification from a feed subscription.
type LogEvent struct {
	Signature string
	Logs      []string
	Slot      int64
	Source    domain.FeedSource
}

// Parser turns raw log events into asset descriptors. Real on-chain
// decoding lives behind this boundary; the pipeline only sees the result.
type Parser interface {
	// Parse extracts an asset from a log event. Returns false when the
	// event does not announce a new asset.
	Parse(event LogEvent) (*domain.AssetDescriptor, bool)
}

// MintLogParser extracts mint addresses from program log lines. It scans
// for "mint:"-tagged fields and falls back to the first token that decodes
// as a 32-byte base58 address. Metadata beyond the mint is not recovered
// from logs; downstream checks read it from chain via their own readers.
type MintLogParser struct {
	// Ignore lists addresses that must never be taken for a mint, such as
	// the subscribed program ids themselves.
	Ignore map[string]struct{}
}

// NewMintLogParser creates a parser ignoring the given addresses.
func NewMintLogParser(ignore ...string) *MintLogParser {
	m := make(map[string]struct{}, len(ignore))
	for _, addr := range ignore {
		m[addr] = struct{}{}
	}
	return &MintLogParser{Ignore: m}
}

// Compile-time interface check.
var _ Parser = (*MintLogParser)(nil)

// Parse extracts the first plausible mint address from the event logs.
func (p *MintLogParser) Parse(event LogEvent) (*domain.AssetDescriptor, bool) {
	mint := p.findMint(event.Logs)
	if mint == "" {
		return nil, false
	}

	return &domain.AssetDescriptor{
		Mint:      mint,
		CreatedAt: time.Now().UnixMilli(),
		Source:    event.Source,
	}, true
}

func (p *MintLogParser) findMint(logs []string) string {
	// Tagged fields first: "mint: <addr>" in any casing.
	for _, line := range logs {
		lower := strings.ToLower(line)
		if idx := strings.Index(lower, "mint:"); idx >= 0 {
			rest := strings.Fields(line[idx+len("mint:"):])
			if len(rest) > 0 && p.isMintAddress(rest[0]) {
				return rest[0]
			}
		}
	}

	// Fallback: first token that looks like a mint address.
	for _, line := range logs {
		for _, field := range strings.Fields(line) {
			if p.isMintAddress(field) {
				return field
			}
		}
	}
	return ""
}

// isMintAddress reports whether s decodes as a 32-byte base58 value and is
// not on the ignore list.
func (p *MintLogParser) isMintAddress(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	if _, ignored := p.Ignore[s]; ignored {
		return false
	}
	raw, err := base58.Decode(s)
	return err == nil && len(raw) == 32
}
