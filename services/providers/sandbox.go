package providers

import "strings"

// Permissions returns the sandbox allow-list for the provider, or nil when
// the embedding surface is unsandboxed.
func Permissions(desc Descriptor) []string {
	if !desc.Sandboxed {
		return nil
	}
	tokens := make([]string, len(desc.SandboxTokens))
	copy(tokens, desc.SandboxTokens)
	return tokens
}

// SandboxAttribute returns the value for the iframe sandbox attribute, a
// space-separated token list. Empty means the attribute must be omitted.
func SandboxAttribute(desc Descriptor) string {
	return strings.Join(Permissions(desc), " ")
}

// NeedsAdAdvisory reports whether the viewer-facing ad advisory must be
// rendered for this provider: ad-risk and unsandboxed.
func NeedsAdAdvisory(desc Descriptor) bool {
	return desc.AdRisk && !desc.Sandboxed
}
