package catalog

import "strings"

// PlaceholderImage is returned for items without artwork.
const PlaceholderImage = "/placeholder-movie.svg"

// ImageKind selects which artwork table a size tier maps into.
type ImageKind string

// Image kinds.
const (
	KindPoster   ImageKind = "poster"
	KindBackdrop ImageKind = "backdrop"
)

// ImageSize is an enumerated size tier, not a pixel dimension.
type ImageSize string

// Size tiers.
const (
	SizeSmall    ImageSize = "small"
	SizeMedium   ImageSize = "medium"
	SizeLarge    ImageSize = "large"
	SizeOriginal ImageSize = "original"
)

var sizeTokens = map[ImageKind]map[ImageSize]string{
	KindPoster: {
		SizeSmall:    "w185",
		SizeMedium:   "w342",
		SizeLarge:    "w500",
		SizeOriginal: "original",
	},
	KindBackdrop: {
		SizeSmall:    "w300",
		SizeMedium:   "w780",
		SizeLarge:    "w1280",
		SizeOriginal: "original",
	},
}

// defaultSizes is used when a caller passes an unknown tier.
var defaultSizes = map[ImageKind]ImageSize{
	KindPoster:   SizeMedium,
	KindBackdrop: SizeLarge,
}

// SizeToken returns the upstream token for a kind and tier.
// Unknown kinds are treated as posters, unknown tiers fall back to the kind's default.
func SizeToken(kind ImageKind, size ImageSize) string {
	table, ok := sizeTokens[kind]
	if !ok {
		kind = KindPoster
		table = sizeTokens[KindPoster]
	}
	if tok, ok := table[size]; ok {
		return tok
	}
	return table[defaultSizes[kind]]
}

// ImageURL builds {imageBase}/{token}/{path}. It makes no network call and
// returns PlaceholderImage when path is empty.
func ImageURL(imageBase, path string, kind ImageKind, size ImageSize) string {
	if path == "" {
		return PlaceholderImage
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimSuffix(imageBase, "/") + "/" + SizeToken(kind, size) + path
}

// ResolveImageURL resolves a nullable image path against the client's image host.
func (c *Client) ResolveImageURL(path *string, kind ImageKind, size ImageSize) string {
	if path == nil {
		return PlaceholderImage
	}
	return ImageURL(c.imageBaseURL, *path, kind, size)
}

// PosterURL resolves a movie's poster.
func (c *Client) PosterURL(m Movie, size ImageSize) string {
	return c.ResolveImageURL(m.PosterPath, KindPoster, size)
}

// BackdropURL resolves a movie's backdrop.
func (c *Client) BackdropURL(m Movie, size ImageSize) string {
	return c.ResolveImageURL(m.BackdropPath, KindBackdrop, size)
}
