package soundfile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrUnknownFormat = errors.New("unknown output format")
	ErrFileCreate    = errors.New("unable to create output file")
	ErrFileWrite     = errors.New("error writing to output file")
	ErrFileClose     = errors.New("error closing output file")
)

// Format is an output container.
type Format int

const (
	FormatUnknown Format = iota
	FormatWAV
	FormatAIFF
	FormatAIFC
)

func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatAIFF:
		return "aiff"
	case FormatAIFC:
		return "aifc"
	}
	return "unknown"
}

// SupportedExtensions lists the extensions FormatFromPath recognizes.
var SupportedExtensions = []string{".wav", ".aiff", ".aif", ".afc", ".aifc"}

// FormatFromPath infers the container from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return FormatWAV, nil
	case ".aif", ".aiff":
		return FormatAIFF, nil
	case ".afc", ".aifc":
		return FormatAIFC, nil
	}
	return FormatUnknown, fmt.Errorf("%w: %s has unknown format, use any of %s",
		ErrUnknownFormat, path, strings.Join(SupportedExtensions, ", "))
}
