package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/chanbara-tournament/db"
	"github.com/Dosada05/chanbara-tournament/db/dbtest"
	"github.com/Dosada05/chanbara-tournament/models"
	"github.com/Dosada05/chanbara-tournament/repositories"
	"github.com/Dosada05/chanbara-tournament/storage"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	mu  sync.Mutex
	day models.Date
}

func (c *fixedClock) Today() models.Date {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.day
}

func (c *fixedClock) advance(days int) {
	c.mu.Lock()
	c.day = c.day.AddDays(days)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(eventType string, _ interface{}) {
	p.mu.Lock()
	p.types = append(p.types, eventType)
	p.mu.Unlock()
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.types...)
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, r io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	u.objects[key] = data
	u.mu.Unlock()
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	delete(u.objects, key)
	u.mu.Unlock()
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type testEnv struct {
	db         *sqlx.DB
	clock      *fixedClock
	publisher  *recordingPublisher
	athletes   repositories.AthleteRepository
	challenges repositories.ChallengeRepository
	tokens     TokenService
	configs    ConfigService
	auth       AuthService
	athleteSvc AthleteService
	challenge  ChallengeService
	reports    ReportService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, uploader storage.FileUploader) *testEnv {
	t.Helper()

	database := dbtest.New(t)
	logger := discardLogger()
	clock := &fixedClock{day: models.NewDate(2025, time.June, 15)}
	publisher := &recordingPublisher{}

	tokens, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	athletes := repositories.NewAthleteRepository(database)
	challenges := repositories.NewChallengeRepository(database)
	specialties := repositories.NewSpecialtyRepository(database)
	configs := NewConfigService(database, repositories.NewTournamentConfigRepository(database), publisher, "Torneo Test", logger)

	return &testEnv{
		db:         database,
		clock:      clock,
		publisher:  publisher,
		athletes:   athletes,
		challenges: challenges,
		tokens:     tokens,
		configs:    configs,
		auth:       NewAuthService(database, athletes, repositories.NewAdminRepository(database), configs, tokens, logger),
		athleteSvc: NewAthleteService(database, athletes, challenges, uploader, clock, logger),
		challenge:  NewChallengeService(database, challenges, athletes, specialties, configs, publisher, clock, logger),
		reports:    NewReportService(repositories.NewReportRepository(database), athletes, challenges, configs, clock),
	}
}

func (e *testEnv) addAthlete(t *testing.T, name string, level int) *models.Athlete {
	t.Helper()
	athlete := &models.Athlete{Name: name, Email: fmt.Sprintf("%s@example.com", name), PasswordHash: "unused", Level: level}
	require.NoError(t, e.athletes.Create(context.Background(), nil, athlete))
	return athlete
}

// addChallenge bypasses the service rules so tests can place challenges in the past.
func (e *testEnv) addChallenge(t *testing.T, a, b int, date models.Date) *models.Challenge {
	t.Helper()
	challenge := &models.Challenge{ChallengerID: a, ChallengedID: b, Date: date, SpecialtyID: 1}
	require.NoError(t, e.challenges.Create(context.Background(), nil, challenge))
	return challenge
}

func (e *testEnv) closeRegistration(t *testing.T) {
	t.Helper()
	_, err := e.configs.CloseRegistration(context.Background())
	require.NoError(t, err)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	registered, err := env.auth.Register(ctx, models.NewAthlete{Name: " Mario ", Email: "mario@example.com", Password: "segreto"})
	require.NoError(t, err)
	assert.Equal(t, "Mario", registered.Athlete.Name)
	assert.Equal(t, 1, registered.Athlete.Level)
	assert.Empty(t, registered.Athlete.PasswordHash)

	loggedIn, err := env.auth.Login(ctx, LoginInput{Email: "mario@example.com", Password: "segreto"})
	require.NoError(t, err)
	claims, err := env.tokens.Verify(loggedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.Athlete.ID, claims.ID)
	assert.Equal(t, "mario@example.com", claims.Email)
	assert.False(t, claims.IsAdmin)

	_, err = env.auth.Login(ctx, LoginInput{Email: "mario@example.com", Password: "sbagliato"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, LoginInput{Email: "nessuno@example.com", Password: "segreto"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, LoginInput{Email: "mario@example.com"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = env.auth.Register(ctx, models.NewAthlete{Name: "Mario Bis", Email: "mario@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrEmailConflict)

	_, err = env.auth.Register(ctx, models.NewAthlete{Name: "  ", Email: "a@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestRegisterAfterClosing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	env.closeRegistration(t)

	_, err := env.auth.Register(ctx, models.NewAthlete{Name: "Late", Email: "late@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrRegistrationClosed)

	_, err = env.auth.BulkCreateAthletes(ctx, []models.NewAthlete{{Name: "Late", Email: "late@example.com", Password: "x"}})
	assert.ErrorIs(t, err, ErrRegistrationClosed)

	assert.Equal(t, []string{"registration.closed"}, env.publisher.published())
}

func TestAdminLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	require.NoError(t, db.Seed(ctx, env.db, db.SeedOptions{AdminUsername: "admin", AdminPassword: "admin-pass", TournamentName: "T"}, discardLogger()))

	auth, err := env.auth.AdminLogin(ctx, AdminLoginInput{Username: "admin", Password: "admin-pass"})
	require.NoError(t, err)
	claims, err := env.tokens.Verify(auth.Token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "admin", claims.Username)

	_, err = env.auth.AdminLogin(ctx, AdminLoginInput{Username: "admin", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestBulkCreateAthletes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	env.addAthlete(t, "anna", 1)

	created, err := env.auth.BulkCreateAthletes(ctx, []models.NewAthlete{
		{Name: "Anna", Email: "anna@example.com", Password: "x"},
		{Name: "Luigi", Email: "luigi@example.com", Password: "x"},
		{Name: "Luigi Again", Email: "luigi@example.com", Password: "y"},
		{Name: "Sara", Email: "sara@example.com", Password: "x"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "Luigi", created[0].Name)
	assert.Equal(t, "Sara", created[1].Name)

	_, err = env.auth.BulkCreateAthletes(ctx, []models.NewAthlete{
		{Name: "Paolo", Email: "paolo@example.com", Password: "x"},
		{Name: "", Email: "blank@example.com", Password: "x"},
	})
	assert.ErrorIs(t, err, ErrValidationFailed)

	total, err := env.athletes.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total, "a failed import leaves nothing behind")

	_, err = env.auth.BulkCreateAthletes(ctx, nil)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestCreateChallengeRules(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	mario := env.addAthlete(t, "mario", 2)
	anna := env.addAthlete(t, "anna", 2)
	sara := env.addAthlete(t, "sara", 1)
	tomorrow := env.clock.Today().AddDays(1)

	_, err := env.challenge.Create(ctx, mario.ID, models.NewChallenge{ChallengedID: anna.ID, Date: tomorrow, SpecialtyID: 1})
	assert.ErrorIs(t, err, ErrRegistrationStillOpen)

	env.closeRegistration(t)

	cases := []struct {
		name  string
		from  int
		input models.NewChallenge
		want  error
	}{
		{"missing fields", mario.ID, models.NewChallenge{ChallengedID: anna.ID}, ErrValidationFailed},
		{"self", mario.ID, models.NewChallenge{ChallengedID: mario.ID, Date: tomorrow, SpecialtyID: 1}, ErrValidationFailed},
		{"today", mario.ID, models.NewChallenge{ChallengedID: anna.ID, Date: env.clock.Today(), SpecialtyID: 1}, ErrValidationFailed},
		{"lower level", mario.ID, models.NewChallenge{ChallengedID: sara.ID, Date: tomorrow, SpecialtyID: 1}, ErrValidationFailed},
		{"unknown opponent", mario.ID, models.NewChallenge{ChallengedID: 999, Date: tomorrow, SpecialtyID: 1}, ErrAthleteNotFound},
		{"unknown specialty", mario.ID, models.NewChallenge{ChallengedID: anna.ID, Date: tomorrow, SpecialtyID: 999}, ErrSpecialtyNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.challenge.Create(ctx, tc.from, tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	detail, err := env.challenge.Create(ctx, mario.ID, models.NewChallenge{ChallengedID: anna.ID, Date: tomorrow, SpecialtyID: 1})
	require.NoError(t, err)
	assert.Equal(t, "mario", detail.ChallengerName)
	assert.Equal(t, "anna", detail.ChallengedName)
	assert.Equal(t, models.ChallengeScheduled, detail.State)

	_, err = env.challenge.Create(ctx, anna.ID, models.NewChallenge{ChallengedID: mario.ID, Date: tomorrow, SpecialtyID: 2})
	assert.ErrorIs(t, err, ErrChallengeConflict)

	// a lower level athlete may challenge upwards
	_, err = env.challenge.Create(ctx, sara.ID, models.NewChallenge{ChallengedID: mario.ID, Date: tomorrow, SpecialtyID: 3})
	require.NoError(t, err)

	assert.Equal(t, []string{"registration.closed", "challenge.created", "challenge.created"}, env.publisher.published())
}

func TestRecordResult(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	mario := env.addAthlete(t, "mario", 1)
	anna := env.addAthlete(t, "anna", 1)
	sara := env.addAthlete(t, "sara", 1)
	env.closeRegistration(t)

	detail, err := env.challenge.Create(ctx, mario.ID, models.NewChallenge{ChallengedID: anna.ID, Date: env.clock.Today().AddDays(2), SpecialtyID: 1})
	require.NoError(t, err)

	_, err = env.challenge.RecordResult(ctx, detail.ID, anna.ID)
	assert.ErrorIs(t, err, ErrValidationFailed, "future challenges cannot be resolved")

	env.clock.advance(2)

	_, err = env.challenge.RecordResult(ctx, detail.ID, sara.ID)
	assert.ErrorIs(t, err, ErrValidationFailed)
	_, err = env.challenge.RecordResult(ctx, detail.ID, 0)
	assert.ErrorIs(t, err, ErrValidationFailed)
	_, err = env.challenge.RecordResult(ctx, 999, anna.ID)
	assert.ErrorIs(t, err, ErrChallengeNotFound)

	result, err := env.challenge.RecordResult(ctx, detail.ID, anna.ID)
	require.NoError(t, err)
	assert.Equal(t, detail.ID, result.ChallengeID)
	assert.Equal(t, anna.ID, result.WinnerID)
	assert.Equal(t, 2, result.WinnerLevel)

	_, err = env.challenge.RecordResult(ctx, detail.ID, mario.ID)
	assert.ErrorIs(t, err, ErrChallengeAlreadyResolved)

	stored, err := env.athletes.GetByID(ctx, nil, anna.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Level)
	stored, err = env.athletes.GetByID(ctx, nil, mario.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Level)

	got, err := env.challenge.Get(ctx, detail.ID)
	require.NoError(t, err)
	require.NotNil(t, got.WinnerName)
	assert.Equal(t, "anna", *got.WinnerName)
	assert.Equal(t, models.ChallengeResolved, got.State)
}

func TestRecordResultConcurrently(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	mario := env.addAthlete(t, "mario", 1)
	anna := env.addAthlete(t, "anna", 1)
	challenge := env.addChallenge(t, mario.ID, anna.ID, env.clock.Today())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, winner := range []int{mario.ID, anna.ID} {
		wg.Add(1)
		go func(i, winner int) {
			defer wg.Done()
			_, errs[i] = env.challenge.RecordResult(ctx, challenge.ID, winner)
		}(i, winner)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrChallengeAlreadyResolved)
		}
	}
	assert.Equal(t, 1, succeeded)

	m, err := env.athletes.GetByID(ctx, nil, mario.ID)
	require.NoError(t, err)
	a, err := env.athletes.GetByID(ctx, nil, anna.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Level+a.Level, "exactly one level point is awarded")
}

func TestListChallenges(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	mario := env.addAthlete(t, "mario", 1)
	anna := env.addAthlete(t, "anna", 1)
	today := env.clock.Today()

	env.addChallenge(t, mario.ID, anna.ID, today.AddDays(-3))
	env.addChallenge(t, mario.ID, anna.ID, today.AddDays(4))
	env.addChallenge(t, mario.ID, anna.ID, today)

	upcoming, err := env.challenge.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, today, upcoming[0].Date)
	assert.Equal(t, today.AddDays(4), upcoming[1].Date)

	day := today.AddDays(-3)
	onDay, err := env.challenge.List(ctx, &day)
	require.NoError(t, err)
	assert.Len(t, onDay, 1)
}

func TestRankingsAndStatistics(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	today := env.clock.Today()

	mario := env.addAthlete(t, "Mario", 3)
	anna := env.addAthlete(t, "Anna", 2)
	env.addAthlete(t, "Luigi", 2)
	sara := env.addAthlete(t, "Sara", 1)

	resolved := env.addChallenge(t, mario.ID, anna.ID, today.AddDays(-1))
	_, err := env.challenge.RecordResult(ctx, resolved.ID, anna.ID)
	require.NoError(t, err)
	env.addChallenge(t, sara.ID, anna.ID, today)
	env.addChallenge(t, sara.ID, mario.ID, today.AddDays(1))
	env.addChallenge(t, sara.ID, mario.ID, today.AddDays(2))

	ranking, err := env.reports.Rankings(ctx)
	require.NoError(t, err)
	names := make([]string, len(ranking))
	for i, r := range ranking {
		names[i] = r.Name
	}
	// Anna won and moved to level 3; ties break by name
	assert.Equal(t, []string{"Anna", "Mario", "Luigi", "Sara"}, names)
	assert.Equal(t, 1, ranking[0].Wins)
	assert.Equal(t, 1, ranking[1].Challenges)
	assert.Equal(t, 0, ranking[1].Wins)

	stats, err := env.reports.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalAthletes)
	assert.Equal(t, 4, stats.TotalChallenges)
	assert.Equal(t, 1, stats.CompletedChallenges)
	assert.Equal(t, 2, stats.FutureChallenges)
	assert.Equal(t, 1, stats.TodayChallenges)
	assert.True(t, stats.RegistrationOpen)
	assert.LessOrEqual(t, stats.CompletedChallenges+stats.FutureChallenges, stats.TotalChallenges)
}

func TestProfileAndOpponents(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	today := env.clock.Today()

	mario := env.addAthlete(t, "mario", 2)
	anna := env.addAthlete(t, "anna", 3)
	env.addAthlete(t, "sara", 1)
	env.addAthlete(t, "luigi", 2)

	for i := 1; i <= 12; i++ {
		env.addChallenge(t, mario.ID, anna.ID, today.AddDays(-i))
	}
	env.addChallenge(t, mario.ID, anna.ID, today)
	env.addChallenge(t, anna.ID, mario.ID, today.AddDays(5))

	profile, err := env.athleteSvc.Profile(ctx, mario.ID)
	require.NoError(t, err)
	assert.Equal(t, mario.ID, profile.Profile.ID)
	require.Len(t, profile.UpcomingChallenges, 2)
	assert.Equal(t, today, profile.UpcomingChallenges[0].Date)
	require.Len(t, profile.PastChallenges, 10)
	assert.Equal(t, today.AddDays(-1), profile.PastChallenges[0].Date)
	assert.Equal(t, today.AddDays(-10), profile.PastChallenges[9].Date)

	_, err = env.athleteSvc.Profile(ctx, 999)
	assert.ErrorIs(t, err, ErrAthleteNotFound)

	opponents, err := env.athleteSvc.PossibleOpponents(ctx, mario.ID)
	require.NoError(t, err)
	require.Len(t, opponents, 2)
	assert.Equal(t, "luigi", opponents[0].Name)
	assert.Equal(t, "anna", opponents[1].Name)
}

func TestUpdateAndDeleteAthlete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	mario := env.addAthlete(t, "mario", 1)
	anna := env.addAthlete(t, "anna", 1)
	env.addChallenge(t, mario.ID, anna.ID, env.clock.Today())

	level := 4
	updated, err := env.athleteSvc.Update(ctx, mario.ID, models.AthleteUpdate{Level: &level})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Level)
	assert.Equal(t, "mario", updated.Name)

	email := "anna@example.com"
	_, err = env.athleteSvc.Update(ctx, mario.ID, models.AthleteUpdate{Email: &email})
	assert.ErrorIs(t, err, ErrEmailConflict)

	zero := 0
	_, err = env.athleteSvc.Update(ctx, mario.ID, models.AthleteUpdate{Level: &zero})
	assert.ErrorIs(t, err, ErrValidationFailed)

	require.NoError(t, env.athleteSvc.Delete(ctx, mario.ID))
	assert.ErrorIs(t, env.athleteSvc.Delete(ctx, mario.ID), ErrAthleteNotFound)

	total, err := env.challenges.Count(ctx, repositories.ChallengeFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestUpdateConfig(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	cfg, err := env.configs.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Torneo Test", cfg.Name)
	assert.True(t, cfg.RegistrationOpen)

	start := models.NewDate(2025, time.July, 1)
	end := models.NewDate(2025, time.July, 3)
	cfg, err = env.configs.Update(ctx, models.TournamentConfigUpdate{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, "Torneo Test", cfg.Name, "omitted fields keep their value")
	assert.Equal(t, start, *cfg.StartDate)

	name := "Torneo Estivo"
	cfg, err = env.configs.Update(ctx, models.TournamentConfigUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, cfg.Name)
	assert.Equal(t, end, *cfg.EndDate)

	early := models.NewDate(2025, time.June, 1)
	_, err = env.configs.Update(ctx, models.TournamentConfigUpdate{EndDate: &early})
	assert.ErrorIs(t, err, ErrValidationFailed)

	cfg, err = env.configs.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, end, *cfg.EndDate, "rejected update is not persisted")
}

func TestUploadAvatar(t *testing.T) {
	ctx := context.Background()

	t.Run("storage disabled", func(t *testing.T) {
		env := newTestEnv(t, nil)
		athlete := env.addAthlete(t, "mario", 1)
		_, err := env.athleteSvc.UploadAvatar(ctx, athlete.ID, "image/png", bytes.NewReader([]byte("x")))
		assert.ErrorIs(t, err, ErrStorageDisabled)
	})

	t.Run("replaces previous avatar", func(t *testing.T) {
		uploader := &fakeUploader{objects: map[string][]byte{}}
		env := newTestEnv(t, uploader)
		athlete := env.addAthlete(t, "mario", 1)

		_, err := env.athleteSvc.UploadAvatar(ctx, athlete.ID, "text/plain", bytes.NewReader([]byte("x")))
		assert.ErrorIs(t, err, ErrValidationFailed)

		first, err := env.athleteSvc.UploadAvatar(ctx, athlete.ID, "image/png", bytes.NewReader([]byte("one")))
		require.NoError(t, err)
		require.NotNil(t, first.AvatarURL)
		assert.Contains(t, *first.AvatarURL, "https://cdn.example.com/atleti/")

		second, err := env.athleteSvc.UploadAvatar(ctx, athlete.ID, "image/jpeg", bytes.NewReader([]byte("two")))
		require.NoError(t, err)
		assert.NotEqual(t, *first.AvatarURL, *second.AvatarURL)

		uploader.mu.Lock()
		assert.Len(t, uploader.objects, 1)
		assert.Equal(t, []byte("two"), uploader.objects[*second.AvatarKey])
		uploader.mu.Unlock()

		athletes, err := env.athleteSvc.List(ctx)
		require.NoError(t, err)
		require.Len(t, athletes, 1)
		assert.Equal(t, second.AvatarURL, athletes[0].AvatarURL)
	})
}
