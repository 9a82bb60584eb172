// Package watch produces AssetDescriptor events from chain feeds. The
// pipeline consumes a Source without caring whether events come from a
// live websocket subscription or a test channel.
package watch

import "solana-sniper/internal/domain"

// Source emits newly observed assets. The channel is closed when the
// source shuts down.
type Source interface {
	// Assets returns the event channel.
	Assets() <-chan *domain.AssetDescriptor

	// Close stops the source and closes the event channel.
	Close() error
}
