package transliteration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsAndExtractChinese(t *testing.T) {
	assert.True(t, ContainsChinese("Mr 王伟"))
	assert.False(t, ContainsChinese("Wang Wei"))
	assert.False(t, ContainsChinese(""))
	assert.Equal(t, "王伟", ExtractChinese("Mr. 王 伟 (Beijing)"))
}

func TestSplitName(t *testing.T) {
	split := SplitName("王伟")
	assert.Equal(t, NameSplit{Surname: "王", GivenName: "伟", IsValid: true}, split)

	compound := SplitName("欧阳修")
	assert.True(t, compound.IsValid)
	assert.True(t, compound.IsCompoundSurname)
	assert.Equal(t, "欧阳", compound.Surname)
	assert.Equal(t, "修", compound.GivenName)

	// an unknown first character is still taken as the surname
	unknown := SplitName("丌伟")
	assert.True(t, unknown.IsValid)
	assert.Equal(t, "丌", unknown.Surname)

	assert.False(t, SplitName("王").IsValid)
	assert.False(t, SplitName("Wang Wei").IsValid)
	assert.Equal(t, "伟", SplitName("John 王伟").GivenName)
}

func TestRomanizations(t *testing.T) {
	assert.Equal(t, []string{"Zhang", "Chang", "Cheung"}, Romanizations("张", true))
	assert.Equal(t, []string{"Wei", "Wai"}, Romanizations("伟", false))
	assert.Empty(t, Romanizations("伟", true))
	assert.Empty(t, Romanizations("王伟", true))
	assert.Empty(t, Romanizations("W", true))
}

func TestGenerateRomanizations(t *testing.T) {
	roms := GenerateRomanizations("王伟")
	assert.Contains(t, roms, "Wang Wei")
	assert.Contains(t, roms, "Wong Wai")
	assert.Contains(t, roms, "Wang, Wei")
	assert.Contains(t, roms, "Wai Wong")
	// 2 surnames x 2 given names x 3 distinct orderings for a one-character given name
	assert.Len(t, roms, 12)
	assert.Equal(t, "Wang Wei", roms[0])
}

func TestGenerateRomanizationsTwoCharacterGivenName(t *testing.T) {
	roms := GenerateRomanizations("李小龙")
	// 小 and 龙 are not in the given-name table and are kept as characters
	assert.Contains(t, roms, "Li 小龙")
	assert.Contains(t, roms, "Lee 小 龙")
	assert.Contains(t, roms, "小 龙 Lee")

	roms = GenerateRomanizations("陈建华")
	assert.Contains(t, roms, "Chen JianHua")
	assert.Contains(t, roms, "Chan Kin Wah")
	assert.Contains(t, roms, "Chan, Kin Wah")
	assert.Contains(t, roms, "KinWah Chan")
	assert.Len(t, roms, 2*2*2*6)
}

func TestGenerateRomanizationsWithoutSurnameEntry(t *testing.T) {
	assert.Empty(t, GenerateRomanizations("欧阳修"))
	assert.Empty(t, GenerateRomanizations("丌伟"))
	assert.Empty(t, GenerateRomanizations("王"))
}

func TestCartesianProduct(t *testing.T) {
	got := cartesianProduct([][]string{{"a", "b"}, {"1", "2"}})
	require.Len(t, got, 4)
	assert.Equal(t, [][]string{{"a", "1"}, {"a", "2"}, {"b", "1"}, {"b", "2"}}, got)
	assert.Equal(t, [][]string{{}}, cartesianProduct(nil))
}
