package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/tournament-platform/models"
	"github.com/Dosada05/tournament-platform/realtime"
	"github.com/Dosada05/tournament-platform/repositories"
	"github.com/Dosada05/tournament-platform/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int { return &v }

type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeDisputeRepo struct {
	mu       sync.Mutex
	disputes map[int]*models.Dispute
	nextID   int
}

func newFakeDisputeRepo() *fakeDisputeRepo {
	return &fakeDisputeRepo{disputes: make(map[int]*models.Dispute), nextID: 1}
}

func (r *fakeDisputeRepo) Create(ctx context.Context, exec repositories.SQLExecutor, d *models.Dispute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.disputes {
		if existing.MatchID == d.MatchID && existing.ReporterID == d.ReporterID && existing.Status == models.DisputeStatusPending {
			return repositories.ErrDisputeDuplicate
		}
	}
	d.ID = r.nextID
	d.CreatedAt = time.Now()
	r.nextID++
	cp := *d
	r.disputes[d.ID] = &cp
	return nil
}

func (r *fakeDisputeRepo) GetByID(ctx context.Context, id int) (*models.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.disputes[id]
	if !ok {
		return nil, repositories.ErrDisputeNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDisputeRepo) ListByUser(ctx context.Context, userID int) ([]*models.Dispute, error) {
	return r.filter(func(d *models.Dispute) bool { return d.ReporterID == userID || d.OpponentID == userID }), nil
}

func (r *fakeDisputeRepo) List(ctx context.Context, filter repositories.ListDisputesFilter) ([]*models.Dispute, error) {
	return r.filter(func(d *models.Dispute) bool { return filter.Status == nil || d.Status == *filter.Status }), nil
}

func (r *fakeDisputeRepo) filter(keep func(*models.Dispute) bool) []*models.Dispute {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Dispute, 0)
	for _, d := range r.disputes {
		if keep(d) {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeDisputeRepo) Resolve(ctx context.Context, exec repositories.SQLExecutor, id int, status models.DisputeStatus, resolverID int, comment string, at time.Time) (*models.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.disputes[id]
	if !ok {
		return nil, repositories.ErrDisputeNotFound
	}
	if d.Status != models.DisputeStatusPending {
		return nil, fmt.Errorf("%w: current status %s", repositories.ErrDisputeAlreadyResolved, d.Status)
	}
	d.Status = status
	d.ResolvedBy = &resolverID
	d.AdminComment = &comment
	d.ResolvedAt = &at
	cp := *d
	return &cp, nil
}

func (r *fakeDisputeRepo) CountOtherMatchResults(ctx context.Context, exec repositories.SQLExecutor, matchID int, status models.DisputeStatus, excludeID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, d := range r.disputes {
		if d.MatchID == matchID && d.Category == models.CategoryMatchResult && d.Status == status && d.ID != excludeID {
			count++
		}
	}
	return count, nil
}

type fakeRewardRepo struct {
	mu      sync.Mutex
	rewards map[int]*models.ValidationReward
	nextID  int
}

func newFakeRewardRepo() *fakeRewardRepo {
	return &fakeRewardRepo{rewards: make(map[int]*models.ValidationReward), nextID: 1}
}

func (r *fakeRewardRepo) Create(ctx context.Context, exec repositories.SQLExecutor, rw *models.ValidationReward) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rewards {
		if existing.DisputeID == rw.DisputeID {
			return repositories.ErrRewardDuplicate
		}
	}
	rw.ID = r.nextID
	rw.CreatedAt = time.Now()
	r.nextID++
	cp := *rw
	r.rewards[rw.ID] = &cp
	return nil
}

func (r *fakeRewardRepo) GetByID(ctx context.Context, id int) (*models.ValidationReward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rw, ok := r.rewards[id]
	if !ok {
		return nil, repositories.ErrRewardNotFound
	}
	cp := *rw
	return &cp, nil
}

func (r *fakeRewardRepo) GetByDispute(ctx context.Context, disputeID int) (*models.ValidationReward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rw := range r.rewards {
		if rw.DisputeID == disputeID {
			cp := *rw
			return &cp, nil
		}
	}
	return nil, repositories.ErrRewardNotFound
}

func (r *fakeRewardRepo) ListByValidator(ctx context.Context, validatorID int) ([]*models.ValidationReward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.ValidationReward, 0)
	for _, rw := range r.rewards {
		if rw.ValidatorID == validatorID {
			cp := *rw
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRewardRepo) MarkCollected(ctx context.Context, id int, validatorID int, at time.Time) (*models.ValidationReward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rw, ok := r.rewards[id]
	switch {
	case !ok:
		return nil, repositories.ErrRewardNotFound
	case rw.ValidatorID != validatorID:
		return nil, repositories.ErrRewardNotOwner
	case rw.Status == models.RewardStatusCollected:
		return nil, repositories.ErrRewardAlreadyCollected
	}
	rw.Status = models.RewardStatusCollected
	rw.CollectedAt = &at
	cp := *rw
	return &cp, nil
}

func (r *fakeRewardRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rewards)
}

type fakeMatchRepo struct {
	mu       sync.Mutex
	matches  map[int]*models.Match
	getCalls int
	listErr  error
}

func newFakeMatchRepo(matches ...*models.Match) *fakeMatchRepo {
	r := &fakeMatchRepo{matches: make(map[int]*models.Match)}
	for _, m := range matches {
		r.matches[m.ID] = m
	}
	return r
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.TournamentID != nil && *m.TournamentID == tournamentID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) ListPlayedByUserSince(ctx context.Context, userID int, since time.Time) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.HasPlayer(userID) && m.Status == models.MatchStatusCompleted && m.PlayedAt != nil && !m.PlayedAt.Before(since) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.MatchStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Status = status
	return nil
}

func (r *fakeMatchRepo) RecordResult(ctx context.Context, exec repositories.SQLExecutor, id int, p1, p2 int, winnerID *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Player1Score, m.Player2Score, m.WinnerID = &p1, &p2, winnerID
	m.Status = models.MatchStatusCompleted
	return nil
}

func (r *fakeMatchRepo) LockForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	return nil
}

func (r *fakeMatchRepo) status(id int) models.MatchStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.matches[id].Status
}

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int]*models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User), nextID: 1}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repositories.ErrUserEmailConflict
		}
		if existing.Nickname == u.Nickname {
			return repositories.ErrUserNicknameConflict
		}
	}
	u.ID = r.nextID
	r.nextID++
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type publishedEvent struct {
	Room string
	Type string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) BroadcastToRoom(roomID string, message interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev := publishedEvent{Room: roomID}
	if msg, ok := message.(realtime.WebSocketMessage); ok {
		ev.Type = msg.Type
	}
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) rooms() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Room)
	}
	return out
}

type fakeUploader struct {
	keys        []string
	contentType string
	size        int64
}

func (u *fakeUploader) Upload(ctx context.Context, key, contentType string, size int64, reader io.Reader) (*storage.UploadResult, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return nil, err
	}
	u.keys = append(u.keys, key)
	u.contentType = contentType
	u.size = size
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error { return nil }

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}
