package dispatch

import "github.com/atotto/clipboard"

// CopyToClipboard implements the `copy_to_clipboard` host command (spec
// §6), independent of any Action Result — the UI's plain copy button
// calls this directly rather than routing a fabricated result through
// Dispatch.
func CopyToClipboard(text string) error {
	return clipboard.WriteAll(text)
}
