package tabular

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RecordSync/internal/domain"
)

func TestReadInputRecords(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"name,address",
		"つなぐ手ケアマネセンター, 東京都港区芝1-1 ",
		"",
		"onlyname",
		`"ケアプラン ""ひまわり""","大阪府大阪市北区梅田1-1, 2F",extra`,
		"   ",
		"すみれ訪問介護,福島県いわき市平1",
	}, "\n")

	records, err := ReadInputRecords(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []domain.InputRecord{
		{Name: "つなぐ手ケアマネセンター", Address: "東京都港区芝1-1"},
		{Name: `ケアプラン "ひまわり"`, Address: "大阪府大阪市北区梅田1-1, 2F"},
		{Name: "すみれ訪問介護", Address: "福島県いわき市平1"},
	}, records)
}

func TestReadInputRecordsHeaderOnly(t *testing.T) {
	t.Parallel()

	records, err := ReadInputRecords(strings.NewReader("name,address\n"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadInputFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,address\r\na,b\r\n"), 0o644))

	records, err := ReadInputFile(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.InputRecord{{Name: "a", Address: "b"}}, records)

	_, err = ReadInputFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
