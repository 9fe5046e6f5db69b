//go:build integration
// +build integration

package voting_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/Jaychangani2005/StackIt/internal/database"
	"github.com/Jaychangani2005/StackIt/internal/models"
	"github.com/Jaychangani2005/StackIt/internal/voting"
)

// setupTestDB starts a PostgreSQL container, migrates the schema and
// applies the ledger constraints.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:alpine",
		tcpostgres.WithDatabase("stackit_test"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Connect(connStr)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, database.EnforceLedgerSchema(sqlDB))

	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	u := models.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "irrelevant",
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedQuestion(t *testing.T, db *gorm.DB, author models.User) models.Question {
	t.Helper()
	q := models.Question{
		Title:       fmt.Sprintf("Question by %s", author.Username),
		Description: "How does this work?",
		UserID:      author.ID,
	}
	require.NoError(t, db.Create(&q).Error)
	return q
}

func seedAnswer(t *testing.T, db *gorm.DB, q models.Question, author models.User) models.Answer {
	t.Helper()
	a := models.Answer{
		Body:       fmt.Sprintf("Answer by %s", author.Username),
		QuestionID: q.ID,
		UserID:     author.ID,
	}
	require.NoError(t, db.Create(&a).Error)
	return a
}

// U1 upvotes (0->1), U2 downvotes (1->0), U1 switches to down (0->-2),
// U1 downvotes again retracting the vote (-2->-1).
func TestCastVoteToggleAndSwitch(t *testing.T) {
	db := setupTestDB(t)
	svc := voting.NewService(db)
	ctx := context.Background()

	asker := seedUser(t, db, "asker")
	u1 := seedUser(t, db, "u1")
	u2 := seedUser(t, db, "u2")
	q := seedQuestion(t, db, asker)
	a := seedAnswer(t, db, q, asker)
	target := voting.AnswerTarget(a.ID)

	res, err := svc.CastVote(ctx, u1.ID, target, voting.Up)
	require.NoError(t, err)
	assert.Equal(t, voting.Up, res.Direction)
	assert.Equal(t, 1, res.Score)

	res, err = svc.CastVote(ctx, u2.ID, target, voting.Down)
	require.NoError(t, err)
	assert.Equal(t, voting.Down, res.Direction)
	assert.Equal(t, 0, res.Score)

	res, err = svc.CastVote(ctx, u1.ID, target, voting.Down)
	require.NoError(t, err)
	assert.Equal(t, voting.Down, res.Direction)
	assert.Equal(t, -2, res.Score)

	res, err = svc.CastVote(ctx, u1.ID, target, voting.Down)
	require.NoError(t, err)
	assert.Equal(t, voting.None, res.Direction)
	assert.Equal(t, -1, res.Score)

	// only U2's downvote is left in the ledger
	var votes []models.Vote
	require.NoError(t, db.Where("answer_id = ?", a.ID).Find(&votes).Error)
	require.Len(t, votes, 1)
	assert.Equal(t, u2.ID, votes[0].UserID)
	assert.Equal(t, models.VoteDown, votes[0].VoteType)

	// the recomputed score agrees with the maintained counter
	score, err := svc.Recompute(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, -1, score)
}

func TestCastVoteQuestionTarget(t *testing.T) {
	db := setupTestDB(t)
	svc := voting.NewService(db)
	ctx := context.Background()

	asker := seedUser(t, db, "asker")
	voter := seedUser(t, db, "voter")
	q := seedQuestion(t, db, asker)
	target := voting.QuestionTarget(q.ID)

	res, err := svc.CastVote(ctx, voter.ID, target, voting.Up)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Score)

	var reloaded models.Question
	require.NoError(t, db.First(&reloaded, q.ID).Error)
	assert.Equal(t, 1, reloaded.VoteCount)

	dir, err := svc.UserVote(ctx, voter.ID, target)
	require.NoError(t, err)
	assert.Equal(t, voting.Up, dir)

	// a question vote must not touch any answer ledger
	var n int64
	require.NoError(t, db.Model(&models.Vote{}).Where("answer_id IS NOT NULL").Count(&n).Error)
	assert.Zero(t, n)
}

func TestCastVoteUnknownTarget(t *testing.T) {
	db := setupTestDB(t)
	svc := voting.NewService(db)
	ctx := context.Background()

	voter := seedUser(t, db, "voter")

	_, err := svc.CastVote(ctx, voter.ID, voting.AnswerTarget(9999), voting.Up)
	assert.ErrorIs(t, err, voting.ErrNotFound)

	// no ledger row was created
	var n int64
	require.NoError(t, db.Model(&models.Vote{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCastVoteInvalidDirection(t *testing.T) {
	db := setupTestDB(t)
	svc := voting.NewService(db)

	voter := seedUser(t, db, "voter")

	_, err := svc.CastVote(context.Background(), voter.ID, voting.QuestionTarget(1), voting.Direction("sideways"))
	assert.ErrorIs(t, err, voting.ErrInvalidDirection)
}

func TestLedgerUniqueness(t *testing.T) {
	db := setupTestDB(t)

	asker := seedUser(t, db, "asker")
	voter := seedUser(t, db, "voter")
	q := seedQuestion(t, db, asker)
	a := seedAnswer(t, db, q, asker)

	first := models.Vote{UserID: voter.ID, AnswerID: &a.ID, VoteType: models.VoteUp}
	require.NoError(t, db.Create(&first).Error)

	dup := models.Vote{UserID: voter.ID, AnswerID: &a.ID, VoteType: models.VoteDown}
	assert.Error(t, db.Create(&dup).Error, "second ledger row for the same (voter, target) must be rejected")

	// a row referencing both targets at once must be rejected too
	both := models.Vote{UserID: voter.ID, QuestionID: &q.ID, AnswerID: &a.ID, VoteType: models.VoteUp}
	assert.Error(t, db.Create(&both).Error)
}

func TestRecomputeRepairsDrift(t *testing.T) {
	db := setupTestDB(t)
	svc := voting.NewService(db)
	ctx := context.Background()

	asker := seedUser(t, db, "asker")
	u1 := seedUser(t, db, "u1")
	u2 := seedUser(t, db, "u2")
	q := seedQuestion(t, db, asker)
	target := voting.QuestionTarget(q.ID)

	_, err := svc.CastVote(ctx, u1.ID, target, voting.Up)
	require.NoError(t, err)
	_, err = svc.CastVote(ctx, u2.ID, target, voting.Up)
	require.NoError(t, err)

	// simulate counter drift
	require.NoError(t, db.Model(&models.Question{}).Where("id = ?", q.ID).UpdateColumn("vote_count", 42).Error)

	score, err := svc.Recompute(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, 2, score)

	var reloaded models.Question
	require.NoError(t, db.First(&reloaded, q.ID).Error)
	assert.Equal(t, 2, reloaded.VoteCount)
}

func TestRecomputeUnknownTarget(t *testing.T) {
	db := setupTestDB(t)
	svc := voting.NewService(db)

	_, err := svc.Recompute(context.Background(), voting.QuestionTarget(9999))
	assert.ErrorIs(t, err, voting.ErrNotFound)
}

func TestReconcileScores(t *testing.T) {
	db := setupTestDB(t)
	svc := voting.NewService(db)
	ctx := context.Background()

	asker := seedUser(t, db, "asker")
	voter := seedUser(t, db, "voter")
	q := seedQuestion(t, db, asker)
	a := seedAnswer(t, db, q, asker)

	_, err := svc.CastVote(ctx, voter.ID, voting.QuestionTarget(q.ID), voting.Up)
	require.NoError(t, err)
	_, err = svc.CastVote(ctx, voter.ID, voting.AnswerTarget(a.ID), voting.Down)
	require.NoError(t, err)

	// corrupt both counters
	require.NoError(t, db.Model(&models.Question{}).Where("id = ?", q.ID).UpdateColumn("vote_count", 100).Error)
	require.NoError(t, db.Model(&models.Answer{}).Where("id = ?", a.ID).UpdateColumn("vote_count", -100).Error)

	processed, err := svc.ReconcileScores(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	var reloadedQ models.Question
	require.NoError(t, db.First(&reloadedQ, q.ID).Error)
	assert.Equal(t, 1, reloadedQ.VoteCount)

	var reloadedA models.Answer
	require.NoError(t, db.First(&reloadedA, a.ID).Error)
	assert.Equal(t, -1, reloadedA.VoteCount)
}

// Author accepts A, then accepts B: the flag moves and the question's
// summary flag stays set throughout.
func TestAcceptAnswerMovesFlag(t *testing.T) {
	db := setupTestDB(t)
	svc := voting.NewService(db)
	ctx := context.Background()

	asker := seedUser(t, db, "asker")
	helper := seedUser(t, db, "helper")
	q := seedQuestion(t, db, asker)
	a := seedAnswer(t, db, q, helper)
	b := seedAnswer(t, db, q, helper)

	actor := voting.Actor{ID: asker.ID}

	require.NoError(t, svc.AcceptAnswer(ctx, actor, q.ID, a.ID))
	assertAccepted(t, db, q.ID, a.ID)

	require.NoError(t, svc.AcceptAnswer(ctx, actor, q.ID, b.ID))
	assertAccepted(t, db, q.ID, b.ID)
}

// assertAccepted verifies exactly one answer of the question is
// accepted, that it is the expected one, and that the question's
// summary flag is set.
func assertAccepted(t *testing.T, db *gorm.DB, questionID, answerID int) {
	t.Helper()

	var accepted []models.Answer
	require.NoError(t, db.Where("question_id = ? AND is_accepted", questionID).Find(&accepted).Error)
	require.Len(t, accepted, 1)
	assert.Equal(t, answerID, accepted[0].ID)

	var q models.Question
	require.NoError(t, db.First(&q, questionID).Error)
	assert.True(t, q.HasAcceptedAnswer)
}

// Two accepts of different answers racing on the same question must
// serialize on the question row; whichever commits last wins and the
// other answer's flag is cleared.
func TestAcceptAnswerConcurrent(t *testing.T) {
	db := setupTestDB(t)
	svc := voting.NewService(db)
	ctx := context.Background()

	asker := seedUser(t, db, "asker")
	helper := seedUser(t, db, "helper")
	q := seedQuestion(t, db, asker)
	a := seedAnswer(t, db, q, helper)
	b := seedAnswer(t, db, q, helper)

	actor := voting.Actor{ID: asker.ID}

	for i := 0; i < 10; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		errs := make([]error, 2)
		go func() {
			defer wg.Done()
			errs[0] = svc.AcceptAnswer(ctx, actor, q.ID, a.ID)
		}()
		go func() {
			defer wg.Done()
			errs[1] = svc.AcceptAnswer(ctx, actor, q.ID, b.ID)
		}()
		wg.Wait()
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		var accepted []models.Answer
		require.NoError(t, db.Where("question_id = ? AND is_accepted", q.ID).Find(&accepted).Error)
		require.Len(t, accepted, 1, "exactly one answer may be accepted after racing accepts")
	}
}

func TestAcceptAnswerForbidden(t *testing.T) {
	db := setupTestDB(t)
	svc := voting.NewService(db)
	ctx := context.Background()

	asker := seedUser(t, db, "asker")
	helper := seedUser(t, db, "helper")
	stranger := seedUser(t, db, "stranger")
	q := seedQuestion(t, db, asker)
	a := seedAnswer(t, db, q, helper)

	err := svc.AcceptAnswer(ctx, voting.Actor{ID: stranger.ID}, q.ID, a.ID)
	assert.ErrorIs(t, err, voting.ErrForbidden)

	// no state change
	var reloaded models.Answer
	require.NoError(t, db.First(&reloaded, a.ID).Error)
	assert.False(t, reloaded.IsAccepted)

	// an admin who is not the author may accept
	require.NoError(t, svc.AcceptAnswer(ctx, voting.Actor{ID: stranger.ID, Admin: true}, q.ID, a.ID))
	assertAccepted(t, db, q.ID, a.ID)
}

func TestAcceptAnswerNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := voting.NewService(db)
	ctx := context.Background()

	asker := seedUser(t, db, "asker")
	helper := seedUser(t, db, "helper")
	q := seedQuestion(t, db, asker)
	other := seedQuestion(t, db, asker)
	a := seedAnswer(t, db, q, helper)

	actor := voting.Actor{ID: asker.ID}

	err := svc.AcceptAnswer(ctx, actor, 9999, a.ID)
	assert.ErrorIs(t, err, voting.ErrNotFound)

	err = svc.AcceptAnswer(ctx, actor, q.ID, 9999)
	assert.ErrorIs(t, err, voting.ErrNotFound)

	// an answer of a different question is not found either
	err = svc.AcceptAnswer(ctx, actor, other.ID, a.ID)
	assert.ErrorIs(t, err, voting.ErrNotFound)
}
