package entitytypes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `entity_types:
  - name: STATUTE
    category: citation
    description: Statutory citation
  - name: JUDGE
    category: actor
  - name: HOME_STATE
    category: jurisdiction
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"STATUTE", "JUDGE", "HOME_STATE"}, c.Names())
	assert.True(t, c.Contains("JUDGE"))
	assert.False(t, c.Contains("GHOST"))

	et, ok := c.Get("STATUTE")
	require.True(t, ok)
	assert.Equal(t, "citation", et.Category)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{name: "empty document", data: "", wantErr: ErrEmptyCatalog},
		{name: "empty list", data: "entity_types: []\n", wantErr: ErrEmptyCatalog},
		{name: "lowercase name", data: "entity_types:\n  - name: statute\n", wantErr: ErrInvalidName},
		{name: "duplicate", data: "entity_types:\n  - name: STATUTE\n  - name: STATUTE\n", wantErr: ErrDuplicateName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entity_types.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
