package catalog

import "strings"

// NamePair is a canonical catalog name and its English alias.
type NamePair struct {
	Native  string
	English string
}

// Catalog categories as they appear in the song data, with the English
// aliases players may type instead.
var categories = []NamePair{
	{"POPS＆アニメ", "pops"},
	{"niconico＆ボーカロイド", "vocaloid"},
	{"東方Project", "touhou"},
	{"ゲーム＆バラエティ", "game"},
	{"maimai", "maimai"},
	{"オンゲキ＆CHUNITHM", "ongeki"},
}

// Game versions in release order, native name first.
var versions = []NamePair{
	{"maimai", "maimai"},
	{"maimai PLUS", "maimai plus"},
	{"GreeN", "green"},
	{"GreeN PLUS", "green plus"},
	{"ORANGE", "orange"},
	{"ORANGE PLUS", "orange plus"},
	{"PiNK", "pink"},
	{"PiNK PLUS", "pink plus"},
	{"MURASAKi", "murasaki"},
	{"MURASAKi PLUS", "murasaki plus"},
	{"MiLK", "milk"},
	{"MiLK PLUS", "milk plus"},
	{"FiNALE", "finale"},
	{"maimaiでらっくす", "deluxe"},
	{"maimaiでらっくす PLUS", "deluxe plus"},
	{"Splash", "splash"},
	{"Splash PLUS", "splash plus"},
	{"UNiVERSE", "universe"},
	{"UNiVERSE PLUS", "universe plus"},
	{"FESTiVAL", "festival"},
	{"FESTiVAL PLUS", "festival plus"},
	{"BUDDiES", "buddies"},
	{"BUDDiES PLUS", "buddies plus"},
	{"PRiSM", "prism"},
	{"PRiSM PLUS", "prism plus"},
	{"CiRCLE", "circle"},
	{"宴会場", "banquet"},
	{"うちゅう", "uchuu"},
}

var (
	categoryLookup = buildLookup(categories)
	versionLookup  = buildLookup(versions)
)

// buildLookup maps both the lowercased native name and the lowercased
// English alias to the canonical native name.
func buildLookup(pairs []NamePair) map[string]string {
	m := make(map[string]string, len(pairs)*2)
	for _, p := range pairs {
		m[strings.ToLower(p.English)] = p.Native
		m[strings.ToLower(p.Native)] = p.Native
	}
	return m
}

// Categories returns the category table in display order.
func Categories() []NamePair {
	return append([]NamePair(nil), categories...)
}

// Versions returns the version table in release order.
func Versions() []NamePair {
	return append([]NamePair(nil), versions...)
}

// ResolveCategories maps user tokens onto canonical category names.
// Tokens that match nothing are returned separately; the caller treats any
// invalid token as a hard configuration error.
func ResolveCategories(tokens []string) (resolved []string, invalid []string) {
	for _, tok := range tokens {
		t := strings.TrimSpace(tok)
		if t == "" {
			continue
		}
		if native, ok := categoryLookup[strings.ToLower(t)]; ok {
			resolved = append(resolved, native)
		} else {
			invalid = append(invalid, t)
		}
	}
	return resolved, invalid
}

// ResolveVersions maps user tokens onto canonical version names. Unknown
// tokens pass through as-is so data updates ahead of this table still work.
func ResolveVersions(tokens []string) []string {
	var resolved []string
	for _, tok := range tokens {
		t := strings.TrimSpace(tok)
		if t == "" {
			continue
		}
		if native, ok := versionLookup[strings.ToLower(t)]; ok {
			resolved = append(resolved, native)
		} else {
			resolved = append(resolved, t)
		}
	}
	return resolved
}
