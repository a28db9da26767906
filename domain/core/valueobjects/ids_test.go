package valueobjects

import (
	"testing"

	pkgerrors "catmenu/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMenuID(t *testing.T) {
	tests := []struct {
		name    string
		raw     int64
		wantErr bool
	}{
		{"positive", 7, false},
		{"zero", 0, true},
		{"negative", -3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewMenuID(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, "menu_id", pkgerrors.GetAppError(err).Field())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, MenuID(tt.raw), id)
			assert.True(t, id.Valid())
		})
	}
}

func TestParseMenuID(t *testing.T) {
	id, err := ParseMenuID("12")
	require.NoError(t, err)
	assert.Equal(t, MenuID(12), id)

	_, err = ParseMenuID("twelve")
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = ParseMenuID("0")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestAnchors(t *testing.T) {
	assert.True(t, TopLevel.IsTopLevel())
	assert.False(t, MenuItemID(4).IsTopLevel())
	assert.True(t, NoParent.IsRoot())
	assert.Equal(t, "42", CategoryID(42).String())
}

func TestNewSelection(t *testing.T) {
	t.Run("empty selection fails", func(t *testing.T) {
		_, err := NewSelection(nil)
		require.Error(t, err)
		assert.Equal(t, "category_ids", pkgerrors.GetAppError(err).Field())
	})

	t.Run("duplicates collapse keeping order", func(t *testing.T) {
		sel, err := NewSelection([]int64{5, 3, 5, 9, 3})
		require.NoError(t, err)
		assert.Equal(t, []CategoryID{5, 3, 9}, sel.IDs())
		assert.Equal(t, 3, sel.Len())
	})

	t.Run("ids copy is detached", func(t *testing.T) {
		sel, _ := NewSelection([]int64{1, 2})
		ids := sel.IDs()
		ids[0] = 99
		assert.Equal(t, CategoryID(1), sel.IDs()[0])
	})
}
