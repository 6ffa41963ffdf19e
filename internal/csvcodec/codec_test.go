package csvcodec

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"gameradar/internal/core"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}
}

func sampleStore() []core.Category {
	return []core.Category{
		{ID: "def", Name: "Default", Games: []core.Game{}},
		{ID: "rpg", Name: "RPGs, mostly", Games: []core.Game{
			{PlaceID: "222", UniverseID: "20", Name: `The "Best" Game`, URL: "https://www.roblox.com/games/222/x", Thumbnail: "https://tr.rbxcdn.com/a.png", LastUpdated: "2024-06-01T00:00:00.123Z"},
			{PlaceID: "111", UniverseID: "9", Name: "Plain", URL: "https://www.roblox.com/games/111", Thumbnail: "", LastUpdated: "2024-01-01T00:00:00Z"},
		}},
		{ID: "empty", Name: "Later", Games: []core.Game{}},
	}
}

func TestEncode(t *testing.T) {
	got := Encode(sampleStore())
	want := strings.Join([]string{
		"category_id,category_name,placeId,universeId,game_name,game_url,thumbnail,lastUpdated",
		"def,Default,,,,,,",
		`rpg,"RPGs, mostly",222,20,"The ""Best"" Game",https://www.roblox.com/games/222/x,https://tr.rbxcdn.com/a.png,2024-06-01T00:00:00.123Z`,
		`rpg,"RPGs, mostly",111,9,Plain,https://www.roblox.com/games/111,,2024-01-01T00:00:00Z`,
		"empty,Later,,,,,,",
	}, "\n")
	if got != want {
		t.Fatalf("unexpected encoding\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestEscapeMinimalQuoting(t *testing.T) {
	cases := map[string]string{
		"plain":      "plain",
		" leading":   " leading",
		"a,b":        `"a,b"`,
		`say "hi"`:   `"say ""hi"""`,
		"two\nlines": "\"two\nlines\"",
		"":           "",
	}
	for in, want := range cases {
		if got := escape(in); got != want {
			t.Fatalf("escape(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	stores := [][]core.Category{
		sampleStore(),
		{{ID: "only", Name: "Default", Games: []core.Game{}}},
		{
			{ID: "a", Name: "Default", Games: []core.Game{{PlaceID: "1", UniverseID: "2", Name: `"quoted, and comma"`, URL: "u", LastUpdated: "2024-01-01"}}},
			{ID: "b", Name: `B"`, Games: []core.Game{{PlaceID: "3", UniverseID: "4"}}},
		},
	}
	for i, st := range stores {
		got, err := Decode(Encode(st), seqIDs())
		if err != nil {
			t.Fatalf("case %d decode: %v", i, err)
		}
		if !reflect.DeepEqual(got, st) {
			t.Fatalf("case %d round trip mismatch\n got=%+v\nwant=%+v", i, got, st)
		}
	}
}

func TestDecodeImportScenario(t *testing.T) {
	text := "category_id,category_name,placeId,universeId,game_name,game_url,thumbnail,lastUpdated\n,Arcade,55,7,Foo,http://x,,2024-01-01"
	cats, err := Decode(text, seqIDs())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cats) != 1 {
		t.Fatalf("expected one category, got %d", len(cats))
	}
	c := cats[0]
	if c.Name != "Arcade" || c.ID != "gen-1" {
		t.Fatalf("unexpected category %+v", c)
	}
	want := core.Game{PlaceID: "55", UniverseID: "7", Name: "Foo", URL: "http://x", LastUpdated: "2024-01-01"}
	if len(c.Games) != 1 || c.Games[0] != want {
		t.Fatalf("unexpected games %+v", c.Games)
	}
}

func TestDecodeHeaderByName(t *testing.T) {
	text := "\r\n" +
		"lastUpdated, thumbnail ,game_url,game_name,universeId,placeId,category_name,category_id,extra\r\n" +
		"\r\n" +
		"2024-01-01,,http://x,Foo,7,55,Arcade,c1,ignored\r\n" +
		"   \r\n" +
		",,,,,,Empty,c2,\r\n"
	cats, err := Decode(text, seqIDs())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cats) != 2 || cats[0].ID != "c1" || cats[1].ID != "c2" {
		t.Fatalf("unexpected categories %+v", cats)
	}
	if cats[0].Games[0].PlaceID != "55" || cats[0].Games[0].LastUpdated != "2024-01-01" {
		t.Fatalf("columns not resolved by name: %+v", cats[0].Games[0])
	}
	if len(cats[1].Games) != 0 {
		t.Fatalf("category-only row should not add a game")
	}
}

func TestDecodeGroupsByCategoryID(t *testing.T) {
	text := strings.Join([]string{
		strings.Join(Header, ","),
		"x,First,1,1,a,,,",
		"y,,2,2,b,,,",
		"x,Renamed later,3,3,c,,,",
	}, "\n")
	cats, err := Decode(text, seqIDs())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(cats))
	}
	if cats[0].Name != "First" || len(cats[0].Games) != 2 {
		t.Fatalf("first occurrence should fix the name: %+v", cats[0])
	}
	if cats[1].Name != ImportedCategoryName {
		t.Fatalf("blank name should become %q, got %q", ImportedCategoryName, cats[1].Name)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode("", seqIDs()); !errors.Is(err, ErrEmpty) || !errors.Is(err, core.ErrParse) {
		t.Fatalf("expected empty error, got %v", err)
	}
	if _, err := Decode("\r\n  \n", seqIDs()); !errors.Is(err, ErrEmpty) {
		t.Fatalf("blank-only input should be empty, got %v", err)
	}

	noUniverse := "category_id,category_name,placeId,game_name,game_url,thumbnail,lastUpdated\nc,A,1,n,u,t,l"
	_, err := Decode(noUniverse, seqIDs())
	if !errors.Is(err, ErrHeaderMismatch) || !errors.Is(err, core.ErrParse) {
		t.Fatalf("expected header mismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "universeId") {
		t.Fatalf("error should name the missing column: %v", err)
	}
}

func TestSplitLine(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{`"a,b",c`, []string{"a,b", "c"}},
		{`"say ""hi""",x`, []string{`say "hi"`, "x"}},
		{",,", []string{"", "", ""}},
		{"", []string{""}},
	}
	for _, tc := range cases {
		if got := splitLine(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("splitLine(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC)
	if got := FileName(ts); got != "roblox-radar-2024-06-01.csv" {
		t.Fatalf("unexpected file name %q", got)
	}
}
