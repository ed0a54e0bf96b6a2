package visits

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	input := `,user_id,activity_level,product_id,category,is_rec_visit,rec_rank
0,1,high,p-1,Games,True,1
1,1,high,p-2,Games,False,-1
2,2,low,p-3,Books,1,4.0
`
	ds, err := Read("A", strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	assert.Equal(t, Record{UserID: 1, ProductID: "p-1", Category: "Games", ActivityLevel: "high", IsRecVisit: true, RecRank: 1}, ds.Records[0])
	assert.False(t, ds.Records[1].IsRecVisit)
	assert.Equal(t, -1, ds.Records[1].RecRank)
	assert.Equal(t, 4, ds.Records[2].RecRank)
	assert.True(t, ds.HasColumn(ColCategory))
}

func TestRead_ColumnOrderIndependent(t *testing.T) {
	input := "rec_rank,product_id\n3,x\n2,y\n,z\n"
	ds, err := Read("B", strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, ds.Records, 3)
	assert.Equal(t, UnknownRank, ds.Records[2].RecRank)
	assert.False(t, ds.Records[2].HasRank())
	assert.True(t, ds.Records[0].HasRank())
	assert.Equal(t, "x", ds.Records[0].ProductID)
	assert.Equal(t, 3, ds.Records[0].RecRank)
	assert.False(t, ds.HasColumn(ColIsRecVisit))
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"Empty", "", "empty visit log"},
		{"MissingRank", "product_id,category\nx,Games\n", "rec_rank"},
		{"BadRank", "product_id,rec_rank\nx,top\n", "line 2"},
		{"FractionalRank", "product_id,rec_rank\nx,1.5\n", "invalid integer"},
		{"BadBool", "product_id,rec_rank,is_rec_visit\nx,1,maybe\n", "is_rec_visit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read("bad", strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRead_MissingColumnSentinel(t *testing.T) {
	_, err := Read("bad", strings.NewReader("product_id\nx\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_app_visits_A.csv")
	require.NoError(t, os.WriteFile(path, []byte("product_id,rec_rank\na,1\n"), 0644))

	ds, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "user_app_visits_A", ds.Name)
	assert.Equal(t, path, ds.Path)
	assert.Equal(t, 1, ds.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
