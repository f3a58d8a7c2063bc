package storage

import (
	"fmt"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// Resolver transforma referências opacas (imagem, modelo 3D, comprovante) em URLs.
// O núcleo nunca interpreta os bytes dos arquivos.
type Resolver interface {
	PublicURL(ref string) string
	SignedURL(ref string) (string, error)
}

// SupabaseResolver implementa Resolver usando o storage do Supabase
type SupabaseResolver struct {
	client    *storage.Client
	bucket    string
	baseURL   string
	signedTTL int
}

// NewSupabaseResolver cria uma nova instância de SupabaseResolver
func NewSupabaseResolver(supabaseURL, serviceKey, bucket string, signedTTL int) *SupabaseResolver {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	return &SupabaseResolver{
		client:    storage.NewClient(baseURL+"/storage/v1", serviceKey, nil),
		bucket:    bucket,
		baseURL:   baseURL,
		signedTTL: signedTTL,
	}
}

func (s *SupabaseResolver) PublicURL(ref string) string {
	if ref == "" {
		return ""
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, strings.TrimPrefix(ref, "/"))
}

// SignedURL é usado para comprovantes, que não são públicos
func (s *SupabaseResolver) SignedURL(ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	resp, err := s.client.CreateSignedUrl(s.bucket, strings.TrimPrefix(ref, "/"), s.signedTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s: %w", ref, err)
	}
	return resp.SignedURL, nil
}

// PassthroughResolver devolve a própria referência; usado sem storage configurado
type PassthroughResolver struct{}

func (PassthroughResolver) PublicURL(ref string) string { return ref }

func (PassthroughResolver) SignedURL(ref string) (string, error) { return ref, nil }
