package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupabaseResolver_PublicURL(t *testing.T) {
	r := NewSupabaseResolver("https://abc.supabase.co/", "service-key", "marketplace-files", 600)

	assert.Equal(t, "https://abc.supabase.co/storage/v1/object/public/marketplace-files/ideas/7/mesa.png", r.PublicURL("ideas/7/mesa.png"))
	assert.Equal(t, "https://abc.supabase.co/storage/v1/object/public/marketplace-files/ideas/7/mesa.png", r.PublicURL("/ideas/7/mesa.png"))
	assert.Empty(t, r.PublicURL(""))
}

func TestSupabaseResolver_SignedURLEmptyRef(t *testing.T) {
	r := NewSupabaseResolver("https://abc.supabase.co", "service-key", "marketplace-files", 600)

	url, err := r.SignedURL("")
	assert.NoError(t, err)
	assert.Empty(t, url)
}

func TestPassthroughResolver(t *testing.T) {
	var r Resolver = PassthroughResolver{}

	assert.Equal(t, "receipts/1.jpg", r.PublicURL("receipts/1.jpg"))
	url, err := r.SignedURL("receipts/1.jpg")
	assert.NoError(t, err)
	assert.Equal(t, "receipts/1.jpg", url)
}
