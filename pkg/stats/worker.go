package stats

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/cfoust/sortie/pkg/mmr"
)

// Worker records finished matches off the game loop. Snapshots are queued
// with Submit and written by Run.
type Worker struct {
	db      *gorm.DB
	archive *Archive
	elo     *mmr.Elo
	queue   chan Snapshot
	logger  zerolog.Logger
}

// NewWorker creates a worker. Either the database or the archive may be nil.
func NewWorker(db *gorm.DB, archive *Archive, buffer int) *Worker {
	return &Worker{
		db:      db,
		archive: archive,
		elo:     mmr.NewElo(),
		queue:   make(chan Snapshot, buffer),
		logger:  log.With().Str("component", "stats").Logger(),
	}
}

// Submit queues a snapshot without blocking. It reports false if the queue
// is full and the match was dropped.
func (w *Worker) Submit(snapshot Snapshot) bool {
	select {
	case w.queue <- snapshot:
		return true
	default:
		w.logger.Warn().Str("level", snapshot.Level).Msg("stats queue full, dropping match")
		return false
	}
}

func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case snapshot := <-w.queue:
			w.handle(ctx, snapshot)
		case <-ctx.Done():
			for {
				select {
				case snapshot := <-w.queue:
					w.handle(context.Background(), snapshot)
				default:
					if w.archive != nil {
						if err := w.archive.Close(); err != nil {
							w.logger.Error().Err(err).Msg("failed to close archive")
						}
					}
					return
				}
			}
		}
	}
}

func (w *Worker) handle(ctx context.Context, snapshot Snapshot) {
	logger := w.logger.With().Str("level", snapshot.Level).Str("mode", snapshot.Mode).Logger()
	if err := w.Record(ctx, snapshot); err != nil {
		logger.Error().Err(err).Msg("failed to record match")
		return
	}
	logger.Info().Msg("recorded match")
}

// Record persists a single match, updates ratings and archives it.
func (w *Worker) Record(ctx context.Context, snapshot Snapshot) error {
	snapshot = snapshot.Clone()
	snapshot.Resolve()

	if w.db != nil {
		err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			match := toMatch(snapshot)
			if err := tx.Create(&match).Error; err != nil {
				return fmt.Errorf("could not save match: %w", err)
			}
			return w.updateRatings(ctx, tx, snapshot)
		})
		if err != nil {
			return err
		}
	}

	if w.archive != nil {
		if err := w.archive.Write(snapshot); err != nil {
			return fmt.Errorf("could not archive match: %w", err)
		}
	}

	return nil
}

func toMatch(snapshot Snapshot) Match {
	match := Match{
		Server:   snapshot.Server,
		Level:    snapshot.Level,
		LevelID:  snapshot.LevelID,
		Mode:     snapshot.Mode,
		TeamGame: snapshot.TeamGame,
		Seconds:  snapshot.Duration.Seconds(),
		Finished: snapshot.Finished,
	}

	for _, team := range snapshot.Teams {
		match.Teams = append(match.Teams, TeamResult{
			Name:   team.Name,
			Color:  team.Color,
			Score:  team.Score,
			Result: string(team.Result),
		})

		for _, player := range team.Players {
			match.Players = append(match.Players, PlayerResult{
				Name:          player.Name,
				Bot:           player.Bot,
				Team:          player.Team,
				Points:        player.Points,
				Kills:         player.Kills,
				Deaths:        player.Deaths,
				Suicides:      player.Suicides,
				Fratricides:   player.Fratricides,
				SwitchedTeams: player.SwitchedTeams,
				Role:          player.Role,
				Result:        string(player.Result),
			})
		}
	}
	return match
}

func rated(player PlayerSnapshot) bool {
	return !player.Bot && player.Active
}

func (r *Rating) record(outcome mmr.Outcome, result Result) {
	r.Value = outcome.Rating
	switch result {
	case Win:
		r.Wins++
	case Tie:
		r.Draws++
	case Loss:
		r.Losses++
	}
}

func (w *Worker) updateRatings(ctx context.Context, tx *gorm.DB, snapshot Snapshot) error {
	type slot struct {
		rating *Rating
		player PlayerSnapshot
	}

	load := func(player PlayerSnapshot) (slot, error) {
		rating, err := getRating(ctx, tx, player.Name, snapshot.Mode)
		return slot{rating, player}, err
	}

	var updated []slot
	if snapshot.TeamGame {
		ratings := make([][]int, len(snapshot.Teams))
		scores := make([]int32, len(snapshot.Teams))
		slots := make([][]slot, len(snapshot.Teams))
		for i, team := range snapshot.Teams {
			scores[i] = team.Score
			for _, player := range team.Players {
				if !rated(player) {
					continue
				}
				s, err := load(player)
				if err != nil {
					return err
				}
				slots[i] = append(slots[i], s)
				ratings[i] = append(ratings[i], s.rating.Value)
			}
		}

		for i, outcomes := range w.elo.Teams(ratings, scores) {
			for k, outcome := range outcomes {
				s := slots[i][k]
				s.rating.record(outcome, s.player.Result)
				updated = append(updated, s)
			}
		}
	} else {
		var ratings []int
		var scores []int32
		for _, player := range snapshot.Players() {
			if !rated(player) {
				continue
			}
			s, err := load(player)
			if err != nil {
				return err
			}
			updated = append(updated, s)
			ratings = append(ratings, s.rating.Value)
			scores = append(scores, player.Points)
		}

		for i, outcome := range w.elo.FreeForAll(ratings, scores) {
			updated[i].rating.record(outcome, updated[i].player.Result)
		}
	}

	// A lone player has nobody to be rated against
	if len(updated) < 2 {
		return nil
	}

	for _, s := range updated {
		if err := tx.Save(s.rating).Error; err != nil {
			return fmt.Errorf("could not save rating for %s: %w", s.player.Name, err)
		}
	}
	return nil
}
