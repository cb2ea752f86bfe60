package providers

import (
	"errors"
	"net/url"
	"sort"
	"strings"
)

var ErrUnknownProvider = errors.New("unknown embed provider")

// Key identifies an embed provider.
type Key string

const (
	KeyVideasy   Key = "videasy"
	KeyVidSrc    Key = "vidsrc"
	KeyMoviesAPI Key = "moviesapi"
	KeyVidora    Key = "vidora"
)

// Descriptor is the full static description of an embed provider. The
// descriptors are data: path shapes, query sets and sandbox tokens live in
// the table so a new provider is addable without touching control flow.
type Descriptor struct {
	Key  Key
	Name string
	Icon string // capability icon tag rendered next to the provider name

	// AdRisk marks providers known to inject advertising. An ad-risk
	// provider that is also unsandboxed must surface a viewer advisory.
	AdRisk bool

	// Sandboxed providers are restricted to SandboxTokens; unsandboxed
	// providers get no sandbox attribute at all.
	Sandboxed     bool
	SandboxTokens []string

	embed embedSpec
}

// embedSpec describes how a provider's embed addresses are shaped.
type embedSpec struct {
	Base string

	// SeriesDashed providers join id/season/episode with dashes instead
	// of path segments (moviesapi: /tv/{id}-{season}-{episode}).
	SeriesDashed bool

	// Query holds the provider's fixed query parameters, applied to every
	// address. SeriesQuery is merged in for series requests only.
	Query       url.Values
	SeriesQuery url.Values
}

// descriptors is the provider table. Sandbox token subsets and query sets
// are per provider and must not be normalised across entries.
var descriptors = map[Key]Descriptor{
	KeyVideasy: {
		Key:       KeyVideasy,
		Name:      "Videasy",
		Icon:      "film",
		Sandboxed: true,
		SandboxTokens: []string{
			"allow-same-origin",
			"allow-scripts",
			"allow-forms",
			"allow-presentation",
			"allow-modals",
		},
		embed: embedSpec{
			Base: "https://player.videasy.net",
			Query: url.Values{
				"color":               {"3B82F6"},
				"autoplayNextEpisode": {"true"},
				"episodeSelector":     {"true"},
				"adblock":             {"true"},
				"hideAds":             {"true"},
			},
			SeriesQuery: url.Values{
				"nextEpisode": {"true"},
			},
		},
	},
	KeyVidSrc: {
		Key:       KeyVidSrc,
		Name:      "VidSrc",
		Icon:      "film",
		Sandboxed: true,
		SandboxTokens: []string{
			"allow-same-origin",
			"allow-scripts",
			"allow-forms",
			"allow-presentation",
		},
		embed: embedSpec{
			Base: "https://vidsrc.su/embed",
		},
	},
	KeyMoviesAPI: {
		Key:       KeyMoviesAPI,
		Name:      "MoviesAPI",
		Icon:      "tv",
		AdRisk:    true,
		Sandboxed: false,
		embed: embedSpec{
			Base:         "https://moviesapi.club",
			SeriesDashed: true,
		},
	},
	KeyVidora: {
		Key:       KeyVidora,
		Name:      "Vidora",
		Icon:      "film",
		Sandboxed: true,
		SandboxTokens: []string{
			"allow-same-origin",
			"allow-scripts",
			"allow-forms",
			"allow-presentation",
		},
		embed: embedSpec{
			Base: "https://vidora.su",
			Query: url.Values{
				"autoplay":        {"true"},
				"colour":          {"6366f1"},
				"autonextepisode": {"true"},
				"pausescreen":     {"true"},
				"adblock":         {"true"},
			},
		},
	},
}

// Registry answers provider lookups against the static descriptor table.
type Registry struct {
	defaultKey Key
}

// NewRegistry builds a registry whose default provider comes from
// configuration. An empty or unregistered configured default falls back to
// videasy so DefaultKey always resolves to a registered key.
func NewRegistry(defaultProvider string) *Registry {
	key := Key(strings.TrimSpace(strings.ToLower(defaultProvider)))
	if _, ok := descriptors[key]; !ok {
		key = KeyVideasy
	}
	return &Registry{defaultKey: key}
}

// Describe returns the descriptor for the given key.
func (r *Registry) Describe(key Key) (Descriptor, error) {
	desc, ok := descriptors[key]
	if !ok {
		return Descriptor{}, ErrUnknownProvider
	}
	return desc, nil
}

// DefaultKey returns the configured default provider key.
func (r *Registry) DefaultKey() Key {
	return r.defaultKey
}

// Keys returns all registered provider keys in stable order.
func (r *Registry) Keys() []Key {
	keys := make([]Key, 0, len(descriptors))
	for key := range descriptors {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
