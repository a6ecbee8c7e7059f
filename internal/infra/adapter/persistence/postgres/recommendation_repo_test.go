package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"cinebox-recs/internal/domain/entity"
	pg "cinebox-recs/internal/infra/adapter/persistence/postgres"
)

func entryRows(entries ...*entity.RecommendationEntry) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"user_id", "movie_id", "score", "rank", "algorithm", "generated_at", "expires_at"})
	for _, e := range entries {
		rows.AddRow(e.UserID, e.MovieID, e.Score, e.Rank, e.Algorithm, e.GeneratedAt, e.ExpiresAt)
	}
	return rows
}

func sampleEntries(userID int64, generatedAt time.Time) []*entity.RecommendationEntry {
	expiresAt := generatedAt.Add(24 * time.Hour)
	return []*entity.RecommendationEntry{
		{UserID: userID, MovieID: 42, Score: 0.91, Rank: 1, Algorithm: entity.AlgorithmHybrid, GeneratedAt: generatedAt, ExpiresAt: expiresAt},
		{UserID: userID, MovieID: 7, Score: 0.84, Rank: 2, Algorithm: entity.AlgorithmHybrid, GeneratedAt: generatedAt, ExpiresAt: expiresAt},
	}
}

func TestRecommendationRepo_ListForUser(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	generatedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	want := sampleEntries(9, generatedAt)

	mock.ExpectQuery(regexp.QuoteMeta("FROM personal_recommendations")).
		WithArgs(int64(9)).
		WillReturnRows(entryRows(want...))

	repo := pg.NewRecommendationRepo(db)
	got, err := repo.ListForUser(context.Background(), 9)
	if err != nil {
		t.Fatalf("ListForUser err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRecommendationRepo_ReplaceForUser(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	entries := sampleEntries(9, time.Now())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM personal_recommendations WHERE user_id = $1")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO personal_recommendations"))
	for _, e := range entries {
		prep.ExpectExec().
			WithArgs(e.UserID, e.MovieID, e.Score, e.Rank, e.Algorithm, e.GeneratedAt, e.ExpiresAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	repo := pg.NewRecommendationRepo(db)
	if err := repo.ReplaceForUser(context.Background(), 9, entries); err != nil {
		t.Fatalf("ReplaceForUser err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRecommendationRepo_ReplaceForUser_RollsBackOnInsertFailure(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	entries := sampleEntries(9, time.Now())[:1]

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM personal_recommendations WHERE user_id = $1")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO personal_recommendations"))
	prep.ExpectExec().
		WithArgs(entries[0].UserID, entries[0].MovieID, entries[0].Score, entries[0].Rank,
			entries[0].Algorithm, entries[0].GeneratedAt, entries[0].ExpiresAt).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	repo := pg.NewRecommendationRepo(db)
	if err := repo.ReplaceForUser(context.Background(), 9, entries); err == nil {
		t.Fatal("want insert error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRecommendationRepo_DeleteExpired(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	cutoff := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM personal_recommendations WHERE expires_at <= $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 17))

	repo := pg.NewRecommendationRepo(db)
	count, err := repo.DeleteExpired(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("DeleteExpired err=%v", err)
	}
	if count != 17 {
		t.Fatalf("count = %d, want 17", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
