package services

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/pitchside/efootball-arena/models"
	"github.com/pitchside/efootball-arena/repositories"
)

// fakeTxManager runs the function directly; the in-memory repositories
// ignore the executor argument.
type fakeTxManager struct{}

func (fakeTxManager) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type recordedEvent struct {
	Room    string
	Type    string
	Payload interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) Notify(room string, eventType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{Room: room, Type: eventType, Payload: payload})
}

func (n *recordingNotifier) eventTypes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	types := make([]string, 0, len(n.events))
	for _, e := range n.events {
		types = append(types, e.Type)
	}
	return types
}

func (n *recordingNotifier) hasEvent(eventType string) bool {
	for _, t := range n.eventTypes() {
		if t == eventType {
			return true
		}
	}
	return false
}

func fixedRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func intPtr(v int) *int {
	return &v
}

// --- match repository ---

type fakeMatchRepo struct {
	mu      sync.Mutex
	nextID  int
	matches map[int]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match)}
}

func copyMatch(m *models.Match) *models.Match {
	c := *m
	if m.Result != nil {
		r := *m.Result
		c.Result = &r
	}
	return &c
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = r.nextID
	m.Version = 1
	m.CreatedAt = time.Now()
	r.matches[m.ID] = copyMatch(m)
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return copyMatch(m), nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, round *string, status *models.MatchStatus) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if round != nil && m.Round != *round {
			continue
		}
		if status != nil && m.Status != *status {
			continue
		}
		out = append(out, copyMatch(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchNumber < out[j].MatchNumber })
	return out, nil
}

func (r *fakeMatchRepo) Update(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.matches[m.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if stored.Version != m.Version {
		return repositories.ErrMatchVersionConflict
	}
	m.Version++
	r.matches[m.ID] = copyMatch(m)
	return nil
}

func (r *fakeMatchRepo) UpdateScheduledAt(ctx context.Context, id int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.ScheduledAt = &at
	return nil
}

func (r *fakeMatchRepo) MaxMatchNumber(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, m := range r.matches {
		if m.TournamentID == tournamentID && m.MatchNumber > max {
			max = m.MatchNumber
		}
	}
	return max, nil
}

func (r *fakeMatchRepo) CountByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.matches {
		if m.TournamentID == tournamentID {
			count++
		}
	}
	return count, nil
}

// --- tournament repository ---

type fakeTournamentRepo struct {
	mu          sync.Mutex
	nextID      int
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
}

func copyTournament(t *models.Tournament) *models.Tournament {
	c := *t
	return &c
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tournaments {
		if existing.Name == t.Name {
			return repositories.ErrTournamentNameConflict
		}
	}
	r.nextID++
	t.ID = r.nextID
	t.CreatedAt = time.Now()
	r.tournaments[t.ID] = copyTournament(t)
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return copyTournament(t), nil
}

func (r *fakeTournamentRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeTournamentRepo) Update(ctx context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	r.tournaments[t.ID] = copyTournament(t)
	return nil
}

func (r *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *fakeTournamentRepo) SetWinner(ctx context.Context, exec repositories.SQLExecutor, id int, winnerPlayerID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.WinnerPlayerID = &winnerPlayerID
	t.Status = models.StatusCompleted
	return nil
}

func (r *fakeTournamentRepo) List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Tournament, 0)
	for _, t := range r.tournaments {
		if status != nil && t.Status != *status {
			continue
		}
		out = append(out, copyTournament(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- participant repository ---

type fakeParticipantRepo struct {
	mu           sync.Mutex
	nextID       int
	participants map[int]*models.Participant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{participants: make(map[int]*models.Participant)}
}

func copyParticipant(p *models.Participant) *models.Participant {
	c := *p
	if p.Player != nil {
		pl := *p.Player
		c.Player = &pl
	}
	return &c
}

func (r *fakeParticipantRepo) Create(ctx context.Context, exec repositories.SQLExecutor, p *models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.participants {
		if existing.TournamentID == p.TournamentID && existing.PlayerID == p.PlayerID {
			return repositories.ErrParticipantConflict
		}
	}
	r.nextID++
	p.ID = r.nextID
	p.JoinedAt = time.Now()
	r.participants[p.ID] = copyParticipant(p)
	return nil
}

func (r *fakeParticipantRepo) GetByID(ctx context.Context, id int) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	return copyParticipant(p), nil
}

func (r *fakeParticipantRepo) GetByTournamentAndPlayer(ctx context.Context, tournamentID, playerID int) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.TournamentID == tournamentID && p.PlayerID == playerID {
			return copyParticipant(p), nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, withPlayers bool) ([]*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Participant, 0)
	for _, p := range r.participants {
		if p.TournamentID == tournamentID {
			out = append(out, copyParticipant(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeParticipantRepo) CountByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	list, _ := r.ListByTournament(ctx, exec, tournamentID, false)
	return len(list), nil
}

func (r *fakeParticipantRepo) UpdateStatus(ctx context.Context, id int, status models.ParticipantStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.Status = status
	return nil
}

func (r *fakeParticipantRepo) UpdateStats(ctx context.Context, exec repositories.SQLExecutor, id int, stats models.ParticipantStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.Stats = stats
	return nil
}

// --- leaderboard repository ---

type fakeLeaderboardRepo struct {
	mu      sync.Mutex
	nextID  int
	entries map[int]*models.LeaderboardEntry
}

func newFakeLeaderboardRepo() *fakeLeaderboardRepo {
	return &fakeLeaderboardRepo{entries: make(map[int]*models.LeaderboardEntry)}
}

func copyEntry(e *models.LeaderboardEntry) *models.LeaderboardEntry {
	c := *e
	return &c
}

func (r *fakeLeaderboardRepo) GetOrCreate(ctx context.Context, exec repositories.SQLExecutor, playerID int, scope models.LeaderboardScopeType, period string) (*models.LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.PlayerID == playerID && e.ScopeType == scope && e.Period == period {
			return copyEntry(e), nil
		}
	}
	r.nextID++
	e := &models.LeaderboardEntry{
		ID:        r.nextID,
		PlayerID:  playerID,
		ScopeType: scope,
		Period:    period,
		UpdatedAt: time.Now(),
	}
	r.entries[e.ID] = copyEntry(e)
	return copyEntry(e), nil
}

func (r *fakeLeaderboardRepo) Update(ctx context.Context, exec repositories.SQLExecutor, e *models.LeaderboardEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.entries[e.ID]
	if !ok {
		return repositories.ErrLeaderboardEntryNotFound
	}
	stored.Points = e.Points
	stored.Wins = e.Wins
	stored.Draws = e.Draws
	stored.Losses = e.Losses
	stored.MatchesPlayed = e.MatchesPlayed
	stored.WinRate = e.WinRate
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *fakeLeaderboardRepo) ListByScope(ctx context.Context, exec repositories.SQLExecutor, scope models.LeaderboardScopeType, period string) ([]*models.LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.LeaderboardEntry, 0)
	for _, e := range r.entries {
		if e.ScopeType == scope && e.Period == period {
			out = append(out, copyEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.WinRate != b.WinRate {
			return a.WinRate > b.WinRate
		}
		return a.PlayerID < b.PlayerID
	})
	return out, nil
}

func (r *fakeLeaderboardRepo) UpdateRanks(ctx context.Context, exec repositories.SQLExecutor, entries []*models.LeaderboardEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		stored, ok := r.entries[e.ID]
		if !ok {
			return repositories.ErrLeaderboardEntryNotFound
		}
		stored.Rank = e.Rank
		stored.PreviousRank = e.PreviousRank
		stored.RankDelta = e.RankDelta
	}
	return nil
}

func (r *fakeLeaderboardRepo) ListTop(ctx context.Context, scope models.LeaderboardScopeType, period string, limit int) ([]*models.LeaderboardEntry, error) {
	entries, err := r.ListByScope(ctx, nil, scope, period)
	if err != nil {
		return nil, err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// --- player repository ---

type fakePlayerRepo struct {
	mu      sync.Mutex
	nextID  int
	players map[int]*models.Player
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{players: make(map[int]*models.Player)}
}

func copyPlayer(p *models.Player) *models.Player {
	c := *p
	return &c
}

func (r *fakePlayerRepo) addPlayer(p *models.Player) *models.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		r.nextID++
		p.ID = r.nextID
	} else if p.ID > r.nextID {
		r.nextID = p.ID
	}
	r.players[p.ID] = copyPlayer(p)
	return copyPlayer(p)
}

func (r *fakePlayerRepo) Create(ctx context.Context, player *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.players {
		if existing.Phone == player.Phone {
			return repositories.ErrPlayerPhoneConflict
		}
		if existing.GameID == player.GameID {
			return repositories.ErrPlayerGameIDConflict
		}
	}
	r.nextID++
	player.ID = r.nextID
	player.CreatedAt = time.Now()
	r.players[player.ID] = copyPlayer(player)
	return nil
}

func (r *fakePlayerRepo) GetByID(ctx context.Context, id int) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	return copyPlayer(p), nil
}

func (r *fakePlayerRepo) GetByPhone(ctx context.Context, phone string) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.Phone == phone {
			return copyPlayer(p), nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}

func (r *fakePlayerRepo) Update(ctx context.Context, player *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[player.ID]; !ok {
		return repositories.ErrPlayerNotFound
	}
	r.players[player.ID] = copyPlayer(player)
	return nil
}

func (r *fakePlayerRepo) UpdateStats(ctx context.Context, exec repositories.SQLExecutor, playerID int, stats models.PlayerStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[playerID]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.Stats = stats
	return nil
}

func (r *fakePlayerRepo) UpdateAvatarKey(ctx context.Context, playerID int, key *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[playerID]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.AvatarKey = key
	return nil
}

func (r *fakePlayerRepo) SetActive(ctx context.Context, playerID int, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[playerID]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.Active = active
	return nil
}

func (r *fakePlayerRepo) List(ctx context.Context, limit, offset int) ([]*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, copyPlayer(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- payment repository ---

type fakePaymentRepo struct {
	mu       sync.Mutex
	nextID   int
	payments map[int]*models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[int]*models.Payment)}
}

func copyPayment(p *models.Payment) *models.Payment {
	c := *p
	return &c
}

func (r *fakePaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.payments[p.ID] = copyPayment(p)
	return nil
}

func (r *fakePaymentRepo) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.Reference == reference {
			return copyPayment(p), nil
		}
	}
	return nil, repositories.ErrPaymentNotFound
}

func (r *fakePaymentRepo) UpdateStatus(ctx context.Context, id int, status models.PaymentStatus, callback json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return repositories.ErrPaymentNotFound
	}
	p.Status = status
	p.Callback = callback
	p.UpdatedAt = time.Now()
	return nil
}

func (r *fakePaymentRepo) SetReconcileNote(ctx context.Context, id int, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return repositories.ErrPaymentNotFound
	}
	p.ReconcileNote = &note
	return nil
}

func (r *fakePaymentRepo) ListByPlayer(ctx context.Context, playerID int, limit, offset int) ([]*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Payment, 0)
	for _, p := range r.payments {
		if p.PlayerID == playerID {
			out = append(out, copyPayment(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// --- dispute repository ---

type fakeDisputeRepo struct {
	mu       sync.Mutex
	nextID   int
	disputes map[int]*models.Dispute
}

func newFakeDisputeRepo() *fakeDisputeRepo {
	return &fakeDisputeRepo{disputes: make(map[int]*models.Dispute)}
}

func copyDispute(d *models.Dispute) *models.Dispute {
	c := *d
	return &c
}

func (r *fakeDisputeRepo) Create(ctx context.Context, d *models.Dispute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	d.ID = r.nextID
	d.CreatedAt = time.Now()
	if d.Status == "" {
		d.Status = models.DisputeOpen
	}
	r.disputes[d.ID] = copyDispute(d)
	return nil
}

func (r *fakeDisputeRepo) GetByID(ctx context.Context, id int) (*models.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.disputes[id]
	if !ok {
		return nil, repositories.ErrDisputeNotFound
	}
	return copyDispute(d), nil
}

func (r *fakeDisputeRepo) ListByMatch(ctx context.Context, matchID int) ([]*models.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Dispute, 0)
	for _, d := range r.disputes {
		if d.MatchID == matchID {
			out = append(out, copyDispute(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeDisputeRepo) UpdateStatus(ctx context.Context, id int, status models.DisputeStatus, resolvedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.disputes[id]
	if !ok {
		return repositories.ErrDisputeNotFound
	}
	d.Status = status
	d.ResolvedAt = resolvedAt
	return nil
}
