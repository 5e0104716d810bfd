// Package observability provides hooks for progress reporting, metrics and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific backends. Consumers register hooks at startup to
// receive events about benchmark execution, artifact writes and archive
// operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// The CLI uses it to drive its progress display; libraries never import a
// UI package.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetBenchHooks(&progressHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Bench().OnTestStart(ctx, "averages", "mirflickr", len(files))
//	// ... run trials ...
//	observability.Bench().OnTestComplete(ctx, "averages", "mirflickr", elapsed, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Bench Hooks
// =============================================================================

// BenchHooks receives events from the benchmark drivers.
type BenchHooks interface {
	// Test events. files is the number of listed files in the dataset.
	OnTestStart(ctx context.Context, test, dataset string, files int)
	OnTestComplete(ctx context.Context, test, dataset string, duration time.Duration, err error)

	// OnFileDone fires after every algorithm has processed one file.
	// done counts files processed so far across all trials.
	OnFileDone(ctx context.Context, test, dataset, file string, done, total int)

	// OnLoadFailure fires the first time a file cannot be loaded.
	OnLoadFailure(ctx context.Context, dataset, file string, err error)

	// OnMismatch fires the first time an algorithm disagrees with the reference.
	OnMismatch(ctx context.Context, algorithm, dataset, file string)
}

// =============================================================================
// Artifact Hooks
// =============================================================================

// ArtifactHooks receives events from result sinks.
type ArtifactHooks interface {
	// OnArtifactWritten records a successfully written output file.
	OnArtifactWritten(ctx context.Context, path string, size int)

	// OnArtifactError records a failed write.
	OnArtifactError(ctx context.Context, path string, err error)
}

// =============================================================================
// Archive Hooks
// =============================================================================

// ArchiveHooks receives events from run archive operations.
type ArchiveHooks interface {
	// OnArchiveHit records a successful lookup.
	OnArchiveHit(ctx context.Context, backend string)

	// OnArchiveMiss records a lookup for an unknown run.
	OnArchiveMiss(ctx context.Context, backend string)

	// OnArchivePut records a stored run.
	OnArchivePut(ctx context.Context, backend string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopBenchHooks is a no-op implementation of BenchHooks.
type NoopBenchHooks struct{}

func (NoopBenchHooks) OnTestStart(context.Context, string, string, int)                     {}
func (NoopBenchHooks) OnTestComplete(context.Context, string, string, time.Duration, error) {}
func (NoopBenchHooks) OnFileDone(context.Context, string, string, string, int, int)         {}
func (NoopBenchHooks) OnLoadFailure(context.Context, string, string, error)                 {}
func (NoopBenchHooks) OnMismatch(context.Context, string, string, string)                   {}

// NoopArtifactHooks is a no-op implementation of ArtifactHooks.
type NoopArtifactHooks struct{}

func (NoopArtifactHooks) OnArtifactWritten(context.Context, string, int) {}
func (NoopArtifactHooks) OnArtifactError(context.Context, string, error) {}

// NoopArchiveHooks is a no-op implementation of ArchiveHooks.
type NoopArchiveHooks struct{}

func (NoopArchiveHooks) OnArchiveHit(context.Context, string)      {}
func (NoopArchiveHooks) OnArchiveMiss(context.Context, string)     {}
func (NoopArchiveHooks) OnArchivePut(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	benchHooks    BenchHooks    = NoopBenchHooks{}
	artifactHooks ArtifactHooks = NoopArtifactHooks{}
	archiveHooks  ArchiveHooks  = NoopArchiveHooks{}
	hooksMu       sync.RWMutex
)

// SetBenchHooks registers custom benchmark hooks.
// This should be called once at application startup before any test runs.
func SetBenchHooks(h BenchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		benchHooks = h
	}
}

// SetArtifactHooks registers custom artifact hooks.
func SetArtifactHooks(h ArtifactHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		artifactHooks = h
	}
}

// SetArchiveHooks registers custom archive hooks.
func SetArchiveHooks(h ArchiveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		archiveHooks = h
	}
}

// Bench returns the registered benchmark hooks.
func Bench() BenchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return benchHooks
}

// Artifact returns the registered artifact hooks.
func Artifact() ArtifactHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return artifactHooks
}

// Archive returns the registered archive hooks.
func Archive() ArchiveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return archiveHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	benchHooks = NoopBenchHooks{}
	artifactHooks = NoopArtifactHooks{}
	archiveHooks = NoopArchiveHooks{}
}
