package prompt

import "runtime"

// DetectShell returns the default shell suggestion for command templates
// (the {detected_shell} placeholder), mirroring original_source's
// hardcoded "zsh" but generalised across the platforms spec §8 lists.
func DetectShell() string {
	switch runtime.GOOS {
	case "windows":
		return "powershell"
	case "darwin":
		return "zsh"
	default:
		return "bash"
	}
}

// DetectPlatform returns the {platform} placeholder value.
func DetectPlatform() string {
	switch runtime.GOOS {
	case "darwin":
		return "macos"
	case "windows":
		return "windows"
	default:
		return "linux"
	}
}
