package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hanush21/anime-recommender/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRatingCSV_Each(t *testing.T) {
	path := writeFile(t, "ratings.csv", "user_id,anime_id,rating\n1,20,8\n1,24,-1\n2,20, 7.5\n")

	var got []models.RatingRecord
	err := NewRatingCSV(path).Each(context.Background(), func(r models.RatingRecord) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Each() error = %v", err)
	}
	want := []models.RatingRecord{
		{UserID: 1, ItemID: 20, Rating: 8},
		{UserID: 1, ItemID: 24, Rating: -1},
		{UserID: 2, ItemID: 20, Rating: 7.5},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRatingCSV_ItemIDColumn(t *testing.T) {
	path := writeFile(t, "ratings.csv", "rating,item_id,user_id\n9,5,3\n")

	var got models.RatingRecord
	err := NewRatingCSV(path).Each(context.Background(), func(r models.RatingRecord) error {
		got = r
		return nil
	})
	if err != nil {
		t.Fatalf("Each() error = %v", err)
	}
	if got != (models.RatingRecord{UserID: 3, ItemID: 5, Rating: 9}) {
		t.Errorf("record = %+v", got)
	}
}

func TestRatingCSV_LoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing rating column", "user_id,anime_id\n1,2\n"},
		{"missing item column", "user_id,rating\n1,2\n"},
		{"bad number", "user_id,anime_id,rating\n1,x,2\n"},
		{"empty file", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "ratings.csv", tt.content)
			err := NewRatingCSV(path).Each(context.Background(), func(models.RatingRecord) error { return nil })
			if !errors.Is(err, models.ErrLoad) {
				t.Errorf("Each() error = %v, want ErrLoad", err)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		err := NewRatingCSV(filepath.Join(t.TempDir(), "nope.csv")).Each(context.Background(), func(models.RatingRecord) error { return nil })
		if !errors.Is(err, models.ErrLoad) {
			t.Errorf("Each() error = %v, want ErrLoad", err)
		}
	})
}

func TestAnimeCSV_Each(t *testing.T) {
	content := "anime_id,name,genre,type,episodes,rating,members\n" +
		"32281,Kimi no Na wa.,\"Drama, Romance, School, Supernatural\",Movie,1,9.37,200630\n" +
		"20,Naruto,,TV,Unknown,7.81,\n"
	path := writeFile(t, "anime.csv", content)

	var got []models.AnimeDoc
	err := NewAnimeCSV(path).Each(context.Background(), func(d models.AnimeDoc) error {
		got = append(got, d)
		return nil
	})
	if err != nil {
		t.Fatalf("Each() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d docs, want 2", len(got))
	}
	if got[0].Genre != "Drama, Romance, School, Supernatural" || got[0].Members != 200630 || got[0].Episodes != 1 {
		t.Errorf("doc[0] = %+v", got[0])
	}
	if got[1].Episodes != 0 || got[1].Members != 0 || got[1].Genre != "" {
		t.Errorf("doc[1] = %+v, want zero optional fields", got[1])
	}
}

func TestAnimeCSV_RequiresNameColumn(t *testing.T) {
	path := writeFile(t, "anime.csv", "anime_id,members\n1,10\n")
	err := NewAnimeCSV(path).Each(context.Background(), func(models.AnimeDoc) error { return nil })
	if !errors.Is(err, models.ErrLoad) {
		t.Errorf("Each() error = %v, want ErrLoad", err)
	}
}
