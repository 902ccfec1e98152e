// Package archive implements the extract/extract_all bindings of spec.md
// §4.5: archive extraction with a strip-components option, dispatching on
// file extension to the compression codec the pack actually ships.
package archive

import "strings"

// Format identifies an archive's container and compression codec.
type Format int

const (
	Unknown Format = iota
	Zip
	Tar
	TarGzip
	TarZstd
	TarXz
	TarLzip
)

// DetectFormat infers an archive's Format from its filename.
func DetectFormat(name string) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return Zip
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return TarGzip
	case strings.HasSuffix(lower, ".tar.zst"), strings.HasSuffix(lower, ".tzst"):
		return TarZstd
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return TarXz
	case strings.HasSuffix(lower, ".tar.lz"):
		return TarLzip
	case strings.HasSuffix(lower, ".tar"):
		return Tar
	default:
		return Unknown
	}
}
