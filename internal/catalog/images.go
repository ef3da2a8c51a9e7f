package catalog

import (
	"strings"
)

const DefaultPlaceholderImage = "/placeholder.png"

// ImageResolver turns stored image references into URLs a browser can load.
// Absolute URLs pass through; bare object names are served from the public
// product-images bucket.
type ImageResolver struct {
	baseURL     string
	bucket      string
	placeholder string
}

func NewImageResolver(baseURL, bucket, placeholder string) *ImageResolver {
	if placeholder == "" {
		placeholder = DefaultPlaceholderImage
	}
	return &ImageResolver{
		baseURL:     strings.TrimRight(baseURL, "/"),
		bucket:      strings.Trim(bucket, "/"),
		placeholder: placeholder,
	}
}

func (r *ImageResolver) Placeholder() string {
	return r.placeholder
}

func (r *ImageResolver) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return r.placeholder
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return ref
	case r.baseURL == "":
		return "/" + strings.TrimLeft(ref, "/")
	}
	return r.baseURL + "/storage/v1/object/public/" + r.bucket + "/" + strings.TrimLeft(ref, "/")
}
