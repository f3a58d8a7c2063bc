package clients

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileDisplayName(t *testing.T) {
	assert.Equal(t, "Ana Pérez", (&Profile{Username: "ana", FullName: "Ana Pérez"}).DisplayName())
	assert.Equal(t, "ana", (&Profile{Username: "ana"}).DisplayName())
}

func TestNewProfileRepository(t *testing.T) {
	repo := NewProfileRepository(nil)

	assert.NotNil(t, repo)
	assert.Implements(t, (*Repository)(nil), repo)
}
