// Package config holds process-wide constants shared across the pipeline.
package config

// Version is the current Lumen version.
var Version = "0.1.0"

// SourceFileExt is the canonical source file extension.
const SourceFileExt = ".lum"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".lum", ".lumen"}

// TrimSourceExt removes a recognized source extension from a filename.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt reports whether path ends in a recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// IsTestMode is set by test binaries that want deterministic diagnostic output.
var IsTestMode = false

// Environment variable names consulted by the CLI and module loader.
const (
	EnvModulePath = "LUMEN_MODULE_PATH"
	EnvDebug      = "LUMEN_DEBUG"
)

// Built-in module path prefixes and sentinels.
const (
	ProjectPrefix  = "@/"
	NativePrefix   = "$"
	ExtensionMarker = "_ext_"
)

// Frame and stack capacity limits consulted by the compiler and VM.
const (
	MaxLocals     = 256
	MaxUpvalues   = 256
	MaxFrames     = 256
	MaxJumpDelta  = 1<<16 - 1
	MaxConstants  = 1 << 24
)
