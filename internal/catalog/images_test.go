package catalog

import "testing"

func TestImageResolver_Resolve(t *testing.T) {
	r := NewImageResolver("https://assets.example.com/", "product-images", "")

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"empty uses placeholder", "", DefaultPlaceholderImage},
		{"absolute passes through", "https://cdn.example.com/a.png", "https://cdn.example.com/a.png"},
		{"object name goes to bucket", "a.png", "https://assets.example.com/storage/v1/object/public/product-images/a.png"},
		{"leading slash trimmed", "/nested/b.png", "https://assets.example.com/storage/v1/object/public/product-images/nested/b.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.ref); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}

	t.Run("without base url serves from root", func(t *testing.T) {
		local := NewImageResolver("", "product-images", "/none.png")
		if got := local.Resolve("a.png"); got != "/a.png" {
			t.Errorf("expected /a.png, got %s", got)
		}
		if got := local.Resolve(""); got != "/none.png" {
			t.Errorf("expected custom placeholder, got %s", got)
		}
	})
}
