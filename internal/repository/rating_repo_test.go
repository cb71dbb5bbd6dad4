package repository

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/hanush21/anime-recommender/internal/models"
)

func TestNumericCasts(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		wantInt int
		want64  int64
		wantF   float64
		wantOK  bool
	}{
		{"int32", int32(20), 20, 20, 20, true},
		{"int64", int64(5114), 5114, 5114, 5114, true},
		{"double", 7.5, 7, 7, 7.5, true},
		{"negative", int32(-1), -1, -1, -1, true},
		{"string", "8", 0, 0, 0, false},
		{"nil", nil, 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := asInt(tt.in); got != tt.wantInt {
				t.Errorf("asInt(%v) = %d, want %d", tt.in, got, tt.wantInt)
			}
			if got := asInt64(tt.in); got != tt.want64 {
				t.Errorf("asInt64(%v) = %d, want %d", tt.in, got, tt.want64)
			}
			got, ok := asFloat64(tt.in)
			if ok != tt.wantOK || got != tt.wantF {
				t.Errorf("asFloat64(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.wantF, tt.wantOK)
			}
		})
	}
}

func TestRatingRepository_Each(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("mixed numeric types", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".ratings", mtest.FirstBatch,
			bson.D{{Key: "user_id", Value: int32(1)}, {Key: "anime_id", Value: int32(20)}, {Key: "rating", Value: int32(8)}},
			bson.D{{Key: "user_id", Value: int64(2)}, {Key: "anime_id", Value: int64(20)}, {Key: "rating", Value: 7.5}},
			bson.D{{Key: "user_id", Value: int32(2)}, {Key: "anime_id", Value: 24.0}, {Key: "rating", Value: int32(-1)}},
		))

		var got []models.RatingRecord
		err := NewRatingRepository(mt.DB).Each(context.Background(), func(r models.RatingRecord) error {
			got = append(got, r)
			return nil
		})
		if err != nil {
			mt.Fatalf("Each: %v", err)
		}
		want := []models.RatingRecord{
			{UserID: 1, ItemID: 20, Rating: 8},
			{UserID: 2, ItemID: 20, Rating: 7.5},
			{UserID: 2, ItemID: 24, Rating: -1},
		}
		if len(got) != len(want) {
			mt.Fatalf("got %d records, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				mt.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
			}
		}
	})

	mt.Run("missing rating is a load error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".ratings", mtest.FirstBatch,
			bson.D{{Key: "user_id", Value: int32(1)}, {Key: "anime_id", Value: int32(20)}},
		))

		err := NewRatingRepository(mt.DB).Each(context.Background(), func(models.RatingRecord) error { return nil })
		if !errors.Is(err, models.ErrLoad) {
			mt.Errorf("err = %v, want ErrLoad", err)
		}
	})

	mt.Run("callback error stops iteration", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".ratings", mtest.FirstBatch,
			bson.D{{Key: "user_id", Value: int32(1)}, {Key: "anime_id", Value: int32(20)}, {Key: "rating", Value: int32(8)}},
			bson.D{{Key: "user_id", Value: int32(2)}, {Key: "anime_id", Value: int32(20)}, {Key: "rating", Value: int32(9)}},
		))

		stop := errors.New("stop")
		calls := 0
		err := NewRatingRepository(mt.DB).Each(context.Background(), func(models.RatingRecord) error {
			calls++
			return stop
		})
		if !errors.Is(err, stop) || calls != 1 {
			mt.Errorf("err = %v, calls = %d; want stop after 1", err, calls)
		}
	})
}

func TestAnimeRepository_Each(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes catalog rows", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".anime", mtest.FirstBatch,
			bson.D{
				{Key: "anime_id", Value: int32(5114)},
				{Key: "name", Value: "Fullmetal Alchemist: Brotherhood"},
				{Key: "members", Value: int64(793665)},
				{Key: "genre", Value: "Action, Adventure"},
				{Key: "episodes", Value: int32(64)},
			},
			bson.D{{Key: "anime_id", Value: int32(1)}, {Key: "name", Value: "Sin datos"}},
		))

		var got []models.AnimeDoc
		err := NewAnimeRepository(mt.DB).Each(context.Background(), func(d models.AnimeDoc) error {
			got = append(got, d)
			return nil
		})
		if err != nil {
			mt.Fatalf("Each: %v", err)
		}
		if len(got) != 2 {
			mt.Fatalf("got %d docs, want 2", len(got))
		}
		if got[0].AnimeID != 5114 || got[0].Members != 793665 || got[0].Episodes != 64 || got[0].Genre != "Action, Adventure" {
			mt.Errorf("doc 0 = %+v", got[0])
		}
		if got[1].Members != 0 || got[1].Episodes != 0 {
			mt.Errorf("doc 1 = %+v, want zero members/episodes", got[1])
		}

		ev := mt.GetStartedEvent()
		if ev == nil || ev.Command.Lookup("sort", "_id").AsInt64() != 1 {
			mt.Errorf("find should sort by _id asc")
		}
	})

	mt.Run("missing name is a load error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".anime", mtest.FirstBatch,
			bson.D{{Key: "anime_id", Value: int32(1)}},
		))

		err := NewAnimeRepository(mt.DB).Each(context.Background(), func(models.AnimeDoc) error { return nil })
		if !errors.Is(err, models.ErrLoad) {
			mt.Errorf("err = %v, want ErrLoad", err)
		}
	})
}
