package watch

import (
	"testing"

	"solana-sniper/internal/domain"
)

const (
	validMint    = "So11111111111111111111111111111111111111112"
	tokenProgram = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
)

func TestMintLogParser_TaggedField(t *testing.T) {
	parser := NewMintLogParser(tokenProgram)

	asset, ok := parser.Parse(LogEvent{
		Signature: "sig-1",
		Logs: []string{
			"Program log: Instruction: InitializeMint",
			"Program log: mint: " + validMint,
		},
		Source: domain.SourceMintFeed,
	})
	if !ok {
		t.Fatal("Parse() = false, want asset")
	}
	if asset.Mint != validMint {
		t.Errorf("Mint = %s, want %s", asset.Mint, validMint)
	}
	if asset.Source != domain.SourceMintFeed {
		t.Errorf("Source = %s, want MINT_FEED", asset.Source)
	}
}

func TestMintLogParser_FallbackScan(t *testing.T) {
	parser := NewMintLogParser(tokenProgram)

	asset, ok := parser.Parse(LogEvent{
		Logs: []string{
			"Program " + tokenProgram + " invoke [1]",
			"Program log: initialized " + validMint + " decimals 9",
		},
		Source: domain.SourceLiquidityFeed,
	})
	if !ok {
		t.Fatal("Parse() = false, want asset")
	}
	if asset.Mint != validMint {
		t.Errorf("Mint = %s, want %s (program id must be ignored)", asset.Mint, validMint)
	}
}

func TestMintLogParser_NoMint(t *testing.T) {
	parser := NewMintLogParser(tokenProgram)

	_, ok := parser.Parse(LogEvent{
		Logs: []string{
			"Program log: Instruction: Transfer",
			"Program consumed 2000 compute units",
		},
		Source: domain.SourceMintFeed,
	})
	if ok {
		t.Error("Parse() = true for logs without a mint address")
	}
}

func TestMintLogParser_RejectsInvalidBase58(t *testing.T) {
	parser := NewMintLogParser()

	_, ok := parser.Parse(LogEvent{
		Logs: []string{
			// 0, O, I, l are not in the base58 alphabet.
			"Program log: mint: 0OIl111111111111111111111111111111111111111",
		},
		Source: domain.SourceMintFeed,
	})
	if ok {
		t.Error("Parse() = true for a non-base58 token")
	}
}
