// Package poll owns the vote and visibility state transitions for a poll
// instance. Every mutation runs under the instance's guard for its whole
// read-modify-write-rerender sequence: the ledger and flags live in separate
// documents and the store gives no transactions, so the guard is the only
// thing making the sequence atomic to other callers.
package poll

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"open_poll_bot/internal/db/models"
	"open_poll_bot/internal/db/repositories"
	"open_poll_bot/internal/guard"
	"open_poll_bot/internal/platform"
	"open_poll_bot/internal/render"
)

type Engine interface {
	// Create validates and stores a new poll definition and returns the
	// rendered initial view for posting.
	Create(ctx context.Context, poll *models.Poll) (platform.Message, error)

	// ToggleVote flips the user's membership in the option's voter set
	// and returns the fully re-rendered view. seed carries the voter
	// lists embedded in the live message, used only when the ledger
	// document does not exist yet.
	ToggleVote(ctx context.Context, instance models.Instance, pollID string, option int, userID string, seed map[int][]string) (platform.Message, error)

	ToggleClosed(ctx context.Context, instance models.Instance, pollID string, seed map[int][]string) (platform.Message, error)
	ToggleHidden(ctx context.Context, instance models.Instance, pollID string, seed map[int][]string) (platform.Message, error)

	// AddChoice appends an option to the definition and re-renders.
	AddChoice(ctx context.Context, instance models.Instance, pollID, option string, seed map[int][]string) (platform.Message, error)

	// Snapshot returns the authoritative state for the read-only vote
	// listing paths, self-healing the ledger like the mutations do.
	Snapshot(ctx context.Context, instance models.Instance, pollID string, seed map[int][]string) (*models.Poll, *models.VoteLedger, models.Flags, error)

	// Delete removes the definition, ledger and flags of the instance.
	Delete(ctx context.Context, instance models.Instance, pollID string) error
}

type engine struct {
	polls    repositories.PollRepository
	votes    repositories.VoteRepository
	closed   repositories.ClosedRepository
	hidden   repositories.HiddenRepository
	guard    *guard.Guard
	renderer render.Renderer
	logger   *zap.SugaredLogger
}

func NewEngine(
	polls repositories.PollRepository,
	votes repositories.VoteRepository,
	closed repositories.ClosedRepository,
	hidden repositories.HiddenRepository,
	g *guard.Guard,
	renderer render.Renderer,
	logger *zap.SugaredLogger,
) Engine {
	return &engine{
		polls:    polls,
		votes:    votes,
		closed:   closed,
		hidden:   hidden,
		guard:    g,
		renderer: renderer,
		logger:   logger,
	}
}

func (e *engine) Create(ctx context.Context, poll *models.Poll) (platform.Message, error) {
	if len(poll.Options) == 0 {
		return platform.Message{}, ErrNoOptions
	}
	if poll.Limited && poll.Limit < 1 {
		poll.Limit = 1
	}
	if poll.ID == "" {
		poll.ID = uuid.NewString()
	}
	poll.CreatedAt = time.Now().UTC()

	if err := e.polls.Create(ctx, poll); err != nil {
		return platform.Message{}, errors.Wrap(err, "failed to create poll")
	}

	ledger := &models.VoteLedger{Votes: map[string][]string{}}
	return e.renderer.RenderPoll(poll, ledger, models.Flags{Hidden: poll.Hidden}), nil
}

func (e *engine) ToggleVote(ctx context.Context, instance models.Instance, pollID string, option int, userID string, seed map[int][]string) (platform.Message, error) {
	var view platform.Message

	err := e.guard.WithLock(instance, func() error {
		// The closed check happens inside the lock: a poll may close
		// between the click and acquisition, and that race is exactly
		// what the guard exists to settle.
		isClosed, err := e.closed.Get(ctx, instance)
		if err != nil {
			return errors.Wrap(err, "failed to read closed flag")
		}
		if isClosed {
			return ErrPollClosed
		}

		poll, err := e.loadPoll(ctx, pollID)
		if err != nil {
			return err
		}

		ledger, initialized, err := e.votes.GetOrInit(ctx, instance, seed)
		if err != nil {
			return errors.Wrap(err, "failed to load vote ledger")
		}
		if initialized {
			e.logger.Infow("vote ledger seeded from rendered view", "instance", instance.Key())
		}

		// Options added after ledger creation have no entry yet.
		if !ledger.HasOption(option) {
			ledger.SetVoters(option, []string{})
		}

		alreadyVoted := ledger.HasVoted(option, userID)

		if poll.Limited {
			count := ledger.CountVotes(userID)
			if alreadyVoted {
				count--
			}
			// Only additions are gated; removing a vote at the
			// limit always succeeds.
			if count >= poll.Limit {
				return ErrVoteLimitExceeded
			}
		}

		if alreadyVoted {
			voters := ledger.Voters(option)
			next := make([]string, 0, len(voters)-1)
			for _, voter := range voters {
				if voter != userID {
					next = append(next, voter)
				}
			}
			ledger.SetVoters(option, next)
		} else {
			ledger.SetVoters(option, append(ledger.Voters(option), userID))
		}

		if err = e.votes.Save(ctx, ledger); err != nil {
			return errors.Wrap(err, "failed to save vote ledger")
		}

		isHidden, _, err := e.hidden.GetOrInit(ctx, instance, poll.Hidden)
		if err != nil {
			return errors.Wrap(err, "failed to read hidden flag")
		}

		view = e.renderer.RenderPoll(poll, ledger, models.Flags{Closed: isClosed, Hidden: isHidden})
		return nil
	})

	return view, err
}

func (e *engine) ToggleClosed(ctx context.Context, instance models.Instance, pollID string, seed map[int][]string) (platform.Message, error) {
	var view platform.Message

	err := e.guard.WithLock(instance, func() error {
		poll, err := e.loadPoll(ctx, pollID)
		if err != nil {
			return err
		}

		isClosed, err := e.closed.Get(ctx, instance)
		if err != nil {
			return errors.Wrap(err, "failed to read closed flag")
		}

		if err = e.closed.Set(ctx, instance, !isClosed); err != nil {
			return errors.Wrap(err, "failed to save closed flag")
		}

		// Voter sets are untouched; the ledger is loaded only so the
		// view can be rebuilt whole.
		ledger, _, err := e.votes.GetOrInit(ctx, instance, seed)
		if err != nil {
			return errors.Wrap(err, "failed to load vote ledger")
		}

		isHidden, _, err := e.hidden.GetOrInit(ctx, instance, poll.Hidden)
		if err != nil {
			return errors.Wrap(err, "failed to read hidden flag")
		}

		view = e.renderer.RenderPoll(poll, ledger, models.Flags{Closed: !isClosed, Hidden: isHidden})
		return nil
	})

	return view, err
}

func (e *engine) ToggleHidden(ctx context.Context, instance models.Instance, pollID string, seed map[int][]string) (platform.Message, error) {
	var view platform.Message

	err := e.guard.WithLock(instance, func() error {
		poll, err := e.loadPoll(ctx, pollID)
		if err != nil {
			return err
		}

		isHidden, _, err := e.hidden.GetOrInit(ctx, instance, poll.Hidden)
		if err != nil {
			return errors.Wrap(err, "failed to read hidden flag")
		}

		if err = e.hidden.Set(ctx, instance, !isHidden); err != nil {
			return errors.Wrap(err, "failed to save hidden flag")
		}

		ledger, _, err := e.votes.GetOrInit(ctx, instance, seed)
		if err != nil {
			return errors.Wrap(err, "failed to load vote ledger")
		}

		isClosed, err := e.closed.Get(ctx, instance)
		if err != nil {
			return errors.Wrap(err, "failed to read closed flag")
		}

		view = e.renderer.RenderPoll(poll, ledger, models.Flags{Closed: isClosed, Hidden: !isHidden})
		return nil
	})

	return view, err
}

func (e *engine) AddChoice(ctx context.Context, instance models.Instance, pollID, option string, seed map[int][]string) (platform.Message, error) {
	var view platform.Message

	err := e.guard.WithLock(instance, func() error {
		poll, err := e.loadPoll(ctx, pollID)
		if err != nil {
			return err
		}

		for _, existing := range poll.Options {
			if existing == option {
				return ErrDuplicateOption
			}
		}

		poll, err = e.polls.AppendOption(ctx, pollID, option)
		if err != nil {
			return errors.Wrap(err, "failed to append option")
		}

		ledger, _, err := e.votes.GetOrInit(ctx, instance, seed)
		if err != nil {
			return errors.Wrap(err, "failed to load vote ledger")
		}
		ledger.SetVoters(len(poll.Options)-1, []string{})
		if err = e.votes.Save(ctx, ledger); err != nil {
			return errors.Wrap(err, "failed to save vote ledger")
		}

		flags, err := e.loadFlags(ctx, instance, poll)
		if err != nil {
			return err
		}

		view = e.renderer.RenderPoll(poll, ledger, flags)
		return nil
	})

	return view, err
}

func (e *engine) Snapshot(ctx context.Context, instance models.Instance, pollID string, seed map[int][]string) (*models.Poll, *models.VoteLedger, models.Flags, error) {
	var (
		poll   *models.Poll
		ledger *models.VoteLedger
		flags  models.Flags
	)

	err := e.guard.WithLock(instance, func() error {
		var err error
		if poll, err = e.loadPoll(ctx, pollID); err != nil {
			return err
		}
		if ledger, _, err = e.votes.GetOrInit(ctx, instance, seed); err != nil {
			return errors.Wrap(err, "failed to load vote ledger")
		}
		flags, err = e.loadFlags(ctx, instance, poll)
		return err
	})

	return poll, ledger, flags, err
}

func (e *engine) Delete(ctx context.Context, instance models.Instance, pollID string) error {
	return e.guard.WithLock(instance, func() error {
		if err := e.votes.Delete(ctx, instance); err != nil {
			return errors.Wrap(err, "failed to delete vote ledger")
		}
		if err := e.closed.Delete(ctx, instance); err != nil {
			return errors.Wrap(err, "failed to delete closed flag")
		}
		if err := e.hidden.Delete(ctx, instance); err != nil {
			return errors.Wrap(err, "failed to delete hidden flag")
		}
		if err := e.polls.Delete(ctx, pollID); err != nil {
			return errors.Wrap(err, "failed to delete poll")
		}
		return nil
	})
}

func (e *engine) loadPoll(ctx context.Context, pollID string) (*models.Poll, error) {
	poll, err := e.polls.GetOne(ctx, pollID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load poll")
	}
	if poll == nil {
		return nil, ErrPollNotFound
	}
	return poll, nil
}

func (e *engine) loadFlags(ctx context.Context, instance models.Instance, poll *models.Poll) (models.Flags, error) {
	isClosed, err := e.closed.Get(ctx, instance)
	if err != nil {
		return models.Flags{}, errors.Wrap(err, "failed to read closed flag")
	}
	isHidden, _, err := e.hidden.GetOrInit(ctx, instance, poll.Hidden)
	if err != nil {
		return models.Flags{}, errors.Wrap(err, "failed to read hidden flag")
	}
	return models.Flags{Closed: isClosed, Hidden: isHidden}, nil
}
