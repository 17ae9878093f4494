package pipeline

import (
	"context"

	"github.com/omni-glass/omniglass/internal/action"
)

// OCRProvider is the capture/OCR collaborator's interface into the
// pipeline (spec §1 Non-goals: "native OCR ... specified only through
// the interfaces the core consumes"). Recognize turns an encoded image
// into text plus a confidence score at the requested fidelity.
type OCRProvider interface {
	Recognize(ctx context.Context, image []byte, level action.RecognitionLevel) (text string, confidence float64, err error)
}

// recognizedOCRErrorPrefixes are the OCR collaborator's own error
// strings, surfaced in-band rather than as a Go error, that the
// orchestrator must still treat as a failed recognition (spec §4.9:
// "on empty text or a recognised error string, go to failed").
var recognizedOCRErrorPrefixes = []string{
	"OCR_ERROR:",
	"ERROR:",
}

func looksLikeOCRError(text string) bool {
	for _, prefix := range recognizedOCRErrorPrefixes {
		if len(text) >= len(prefix) && text[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
