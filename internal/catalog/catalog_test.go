package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

const testData = `[
  {"song_id": "s1", "title": "Brain Power", "artist": "NOMA", "category": "niconico＆ボーカロイド", "version": "FESTiVAL", "difficulty": "master", "level": 12.4, "image": "s1.png"},
  {"song_id": "s1", "title": "Brain Power", "artist": "NOMA", "category": "niconico＆ボーカロイド", "version": "FESTiVAL", "difficulty": "remaster", "level": 13.7, "image": "s1.png"},
  {"song_id": "s2", "title": "Bad Apple!!", "artist": "Alstroemeria Records", "category": "東方Project", "version": "maimai", "difficulty": "master", "level": 11.0, "image": "s2.png"},
  {"song_id": "s3", "title": "Expert Chart", "artist": "X", "category": "maimai", "version": "PRiSM", "difficulty": "expert", "level": 9.0, "image": "s3.png"},
  {"song_id": "s4", "title": "No Cover", "artist": "Y", "category": "maimai", "version": "PRiSM", "difficulty": "master", "level": 13.0}
]`

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "output.json")
	if err := os.WriteFile(dataPath, []byte(testData), 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	imageDir := filepath.Join(dir, "images")
	audioDir := filepath.Join(dir, "audio")
	for _, d := range []string{imageDir, audioDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	// s1 has both assets, s2 only the cover.
	for _, f := range []string{filepath.Join(imageDir, "s1.png"), filepath.Join(imageDir, "s2.png"), filepath.Join(audioDir, "s1.mp3")} {
		if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
			t.Fatalf("write asset: %v", err)
		}
	}
	return NewStore(dataPath, imageDir, audioDir, nil)
}

func TestLoadDedupeAndTierGate(t *testing.T) {
	store := newTestStore(t)
	songs, err := store.Load(Filter{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(songs) != 3 {
		t.Fatalf("expected 3 songs (expert chart excluded, s1 deduped), got %d", len(songs))
	}
	for _, s := range songs {
		if s.SongID == "s1" && s.Level != 13.7 {
			t.Errorf("dedupe should keep the higher level, got %v", s.Level)
		}
		if s.SongID == "s3" {
			t.Error("expert chart must be excluded")
		}
	}
}

func TestLoadFilters(t *testing.T) {
	store := newTestStore(t)
	songs, err := store.Load(Filter{Categories: []string{"東方Project"}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(songs) != 1 || songs[0].SongID != "s2" {
		t.Fatalf("category filter mismatch: %+v", songs)
	}
	songs, err = store.Load(Filter{Versions: []string{"FESTiVAL"}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(songs) != 1 || songs[0].SongID != "s1" {
		t.Fatalf("version filter mismatch: %+v", songs)
	}
	songs, err = store.Load(Filter{Versions: []string{"NoSuchVersion"}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(songs) != 0 {
		t.Fatalf("unknown version should match nothing, got %d", len(songs))
	}
}

func TestLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.json"), "", "", nil)
	if _, err := store.Load(Filter{}); err == nil {
		t.Fatal("expected error for missing catalog file")
	}
}

func TestAssetPaths(t *testing.T) {
	store := newTestStore(t)
	songs, err := store.Load(Filter{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	byID := map[string]int{}
	for i, s := range songs {
		byID[s.SongID] = i
	}

	if _, ok := store.ImagePath(songs[byID["s1"]]); !ok {
		t.Error("s1 cover should resolve")
	}
	if p, ok := store.AudioPath(songs[byID["s1"]]); !ok || filepath.Base(p) != "s1.mp3" {
		t.Errorf("s1 audio should resolve to s1.mp3, got %q ok=%v", p, ok)
	}
	if _, ok := store.AudioPath(songs[byID["s2"]]); ok {
		t.Error("s2 has no audio asset")
	}
	if _, ok := store.ImagePath(songs[byID["s4"]]); ok {
		t.Error("song without image field must not resolve")
	}

	playable := store.FilterPlayable(songs, "audio")
	if len(playable) != 1 || playable[0].SongID != "s1" {
		t.Fatalf("audio-playable mismatch: %+v", playable)
	}
	playable = store.FilterPlayable(songs, "image")
	if len(playable) != 2 {
		t.Fatalf("image-playable mismatch: %+v", playable)
	}
}

func TestResolveCategories(t *testing.T) {
	resolved, invalid := ResolveCategories([]string{"pops", "東方project", "bogus", " "})
	if len(invalid) != 1 || invalid[0] != "bogus" {
		t.Fatalf("expected one invalid token, got %v", invalid)
	}
	if len(resolved) != 2 || resolved[0] != "POPS＆アニメ" || resolved[1] != "東方Project" {
		t.Fatalf("resolved mismatch: %v", resolved)
	}
}

func TestResolveVersions(t *testing.T) {
	resolved := ResolveVersions([]string{"festival", "BUDDiES", "FutureVersion"})
	want := []string{"FESTiVAL", "BUDDiES", "FutureVersion"}
	if len(resolved) != len(want) {
		t.Fatalf("resolved mismatch: %v", resolved)
	}
	for i := range want {
		if resolved[i] != want[i] {
			t.Errorf("resolved[%d] = %q, want %q", i, resolved[i], want[i])
		}
	}
}
