package provider

import (
	"errors"

	"github.com/inodb/vibe-tark/internal/assembly"
	"github.com/inodb/vibe-tark/internal/cache"
	"github.com/inodb/vibe-tark/internal/tark"
)

// Errors returned by the provider. Check with errors.Is; messages carry the
// offending accession or method.
var (
	// ErrConfiguration: an unsupported assembly was requested.
	ErrConfiguration = assembly.ErrConfiguration
	// ErrTranscriptNotFound: the archive has no data for the transcript.
	ErrTranscriptNotFound = cache.ErrTranscriptNotFound
	// ErrProtocolMismatch: the archive answered with something other than JSON.
	ErrProtocolMismatch = tark.ErrProtocolMismatch

	ErrUnsupportedContig          = errors.New("unsupported contig")
	ErrUnsupportedAlignmentMethod = errors.New("unsupported alignment method")
	ErrNotImplemented             = errors.New("not implemented by the Tark data provider")
)
