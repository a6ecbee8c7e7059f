package postgres_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"cinebox-recs/internal/domain/entity"
	pg "cinebox-recs/internal/infra/adapter/persistence/postgres"
)

func signalRows(signals ...*entity.InteractionSignal) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"user_id", "movie_id", "kind", "value", "completed", "occurred_at"})
	for _, s := range signals {
		rows.AddRow(s.UserID, s.MovieID, string(s.Kind), s.Value, s.Completed, s.OccurredAt)
	}
	return rows
}

func TestInteractionRepo_ListSignals(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	at := time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)
	want := []*entity.InteractionSignal{
		{UserID: 1, MovieID: 10, Kind: entity.SignalRating, Value: 4.5, OccurredAt: at},
		{UserID: 1, MovieID: 11, Kind: entity.SignalView, Value: 0.9, Completed: true, OccurredAt: at},
		{UserID: 2, MovieID: 10, Kind: entity.SignalFavorite, OccurredAt: at},
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM ratings")).
		WillReturnRows(signalRows(want...))

	repo := pg.NewInteractionRepo(db, 4.0)
	got, err := repo.ListSignals(context.Background())
	if err != nil {
		t.Fatalf("ListSignals err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestInteractionRepo_ListUserSignals(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	at := time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)
	want := []*entity.InteractionSignal{
		{UserID: 5, MovieID: 10, Kind: entity.SignalWatchlist, OccurredAt: at},
	}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(signalRows(want...))

	repo := pg.NewInteractionRepo(db, 4.0)
	got, err := repo.ListUserSignals(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListUserSignals err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestInteractionRepo_ListUserIDs(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"user_id"}).AddRow(int64(1)).AddRow(int64(3)).AddRow(int64(8))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM ratings")).
		WillReturnRows(rows)

	repo := pg.NewInteractionRepo(db, 4.0)
	got, err := repo.ListUserIDs(context.Background())
	if err != nil {
		t.Fatalf("ListUserIDs err=%v", err)
	}
	if diff := cmp.Diff([]int64{1, 3, 8}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestInteractionRepo_SeedMovies(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	touched := time.Date(2026, 2, 25, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"movie_id", "last_touched"}).
		AddRow(int64(42), touched).
		AddRow(int64(7), touched.Add(-48*time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY movie_id")).
		WithArgs(int64(5), 4.0, 0.7, 10).
		WillReturnRows(rows)

	repo := pg.NewInteractionRepo(db, 4.0)
	got, err := repo.SeedMovies(context.Background(), 5, 10)
	if err != nil {
		t.Fatalf("SeedMovies err=%v", err)
	}
	if len(got) != 2 || got[0].MovieID != 42 || got[1].MovieID != 7 {
		t.Fatalf("got %+v", got)
	}
	if !got[0].LastTouched.Equal(touched) {
		t.Fatalf("last touched = %v, want %v", got[0].LastTouched, touched)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestInteractionRepo_ExcludedMovieIDs(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	since := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"movie_id"}).AddRow(int64(10)).AddRow(int64(11))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT movie_id FROM ratings WHERE user_id = $1")).
		WithArgs(int64(5), 0.7, since).
		WillReturnRows(rows)

	repo := pg.NewInteractionRepo(db, 4.0)
	got, err := repo.ExcludedMovieIDs(context.Background(), 5, since)
	if err != nil {
		t.Fatalf("ExcludedMovieIDs err=%v", err)
	}
	if diff := cmp.Diff([]int64{10, 11}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestInteractionRepo_CountSignals(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("(SELECT COUNT(*) FROM ratings)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1234)))

	repo := pg.NewInteractionRepo(db, 4.0)
	count, err := repo.CountSignals(context.Background())
	if err != nil {
		t.Fatalf("CountSignals err=%v", err)
	}
	if count != 1234 {
		t.Fatalf("count = %d, want 1234", count)
	}
}
