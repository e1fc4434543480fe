package poll

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"open_poll_bot/internal/db/models"
)

// fakeStore is an in-memory stand-in for the document store. With jitter
// enabled each operation sleeps a little, widening the read-modify-write
// window the guard has to protect.
type fakeStore struct {
	mu     sync.Mutex
	jitter bool

	polls   map[string]*models.Poll
	ledgers map[string]*models.VoteLedger
	closed  map[string]bool
	hidden  map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		polls:   map[string]*models.Poll{},
		ledgers: map[string]*models.VoteLedger{},
		closed:  map[string]bool{},
		hidden:  map[string]bool{},
	}
}

func (s *fakeStore) wait() {
	if s.jitter {
		time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
	}
}

func copyLedger(ledger *models.VoteLedger) *models.VoteLedger {
	copied := &models.VoteLedger{
		Team:    ledger.Team,
		Channel: ledger.Channel,
		TS:      ledger.TS,
		Votes:   map[string][]string{},
	}
	for option, voters := range ledger.Votes {
		copied.Votes[option] = append([]string{}, voters...)
	}
	return copied
}

type fakePollRepo struct{ store *fakeStore }

func (r *fakePollRepo) Create(_ context.Context, poll *models.Poll) error {
	r.store.wait()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *poll
	r.store.polls[poll.ID] = &copied
	return nil
}

func (r *fakePollRepo) GetOne(_ context.Context, pollID string) (*models.Poll, error) {
	r.store.wait()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	poll, ok := r.store.polls[pollID]
	if !ok {
		return nil, nil
	}
	copied := *poll
	copied.Options = append([]string{}, poll.Options...)
	return &copied, nil
}

func (r *fakePollRepo) AppendOption(ctx context.Context, pollID, option string) (*models.Poll, error) {
	r.store.wait()
	r.store.mu.Lock()
	r.store.polls[pollID].Options = append(r.store.polls[pollID].Options, option)
	r.store.mu.Unlock()
	return r.GetOne(ctx, pollID)
}

func (r *fakePollRepo) Delete(_ context.Context, pollID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.polls, pollID)
	return nil
}

type fakeVoteRepo struct{ store *fakeStore }

func (r *fakeVoteRepo) GetOrInit(_ context.Context, instance models.Instance, seed map[int][]string) (*models.VoteLedger, bool, error) {
	r.store.wait()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if ledger, ok := r.store.ledgers[instance.Key()]; ok {
		return copyLedger(ledger), false, nil
	}

	ledger := &models.VoteLedger{
		Team:    instance.Team,
		Channel: instance.Channel,
		TS:      instance.TS,
		Votes:   map[string][]string{},
	}
	for option, voters := range seed {
		ledger.SetVoters(option, append([]string{}, voters...))
	}
	r.store.ledgers[instance.Key()] = copyLedger(ledger)
	return ledger, true, nil
}

func (r *fakeVoteRepo) Save(_ context.Context, ledger *models.VoteLedger) error {
	r.store.wait()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	instance := models.Instance{Team: ledger.Team, Channel: ledger.Channel, TS: ledger.TS}
	r.store.ledgers[instance.Key()] = copyLedger(ledger)
	return nil
}

func (r *fakeVoteRepo) Delete(_ context.Context, instance models.Instance) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.ledgers, instance.Key())
	return nil
}

type fakeClosedRepo struct{ store *fakeStore }

func (r *fakeClosedRepo) Get(_ context.Context, instance models.Instance) (bool, error) {
	r.store.wait()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.closed[instance.Key()], nil
}

func (r *fakeClosedRepo) Set(_ context.Context, instance models.Instance, closed bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.closed[instance.Key()] = closed
	return nil
}

func (r *fakeClosedRepo) Delete(_ context.Context, instance models.Instance) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.closed, instance.Key())
	return nil
}

type fakeHiddenRepo struct{ store *fakeStore }

func (r *fakeHiddenRepo) GetOrInit(_ context.Context, instance models.Instance, initial bool) (bool, bool, error) {
	r.store.wait()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if hidden, ok := r.store.hidden[instance.Key()]; ok {
		return hidden, false, nil
	}
	r.store.hidden[instance.Key()] = initial
	return initial, true, nil
}

func (r *fakeHiddenRepo) Set(_ context.Context, instance models.Instance, hidden bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.hidden[instance.Key()] = hidden
	return nil
}

func (r *fakeHiddenRepo) Delete(_ context.Context, instance models.Instance) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.hidden, instance.Key())
	return nil
}
