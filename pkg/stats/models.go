package stats

import (
	"context"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const DEFAULT_RATING = 1200

type Entity struct {
	ID uint `gorm:"primaryKey"`
}

type Match struct {
	Entity

	Server   string `gorm:"size:64"`
	Level    string `gorm:"size:64"`
	LevelID  uint32
	Mode     string `gorm:"size:32"`
	TeamGame bool
	Seconds  float64
	Finished time.Time

	Teams   []TeamResult
	Players []PlayerResult
}

type TeamResult struct {
	Entity

	MatchID uint   `gorm:"not null"`
	Name    string `gorm:"size:32"`
	Color   string `gorm:"size:8"`
	Score   int32
	Result  string `gorm:"size:1"`
}

type PlayerResult struct {
	Entity

	MatchID       uint   `gorm:"not null"`
	Name          string `gorm:"size:32"`
	Bot           bool
	Team          int
	Points        int32
	Kills         int
	Deaths        int
	Suicides      int
	Fratricides   int
	SwitchedTeams int
	Role          string `gorm:"size:16"`
	Result        string `gorm:"size:1"`
}

// Rating is a player's Elo in one game mode.
type Rating struct {
	Entity

	Name   string `gorm:"not null;size:32;uniqueIndex:idx_rating_player_mode"`
	Mode   string `gorm:"not null;size:32;uniqueIndex:idx_rating_player_mode"`
	Value  int
	Wins   uint
	Draws  uint
	Losses uint
}

func InitDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&Match{},
		&TeamResult{},
		&PlayerResult{},
		&Rating{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func getRating(ctx context.Context, db *gorm.DB, name, mode string) (*Rating, error) {
	var rating Rating
	err := db.WithContext(ctx).Where(Rating{
		Name: name,
		Mode: mode,
	}).First(&rating).Error
	if err == gorm.ErrRecordNotFound {
		return &Rating{
			Name:  name,
			Mode:  mode,
			Value: DEFAULT_RATING,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// TopRatings lists the best rated players, optionally limited to one mode.
func TopRatings(ctx context.Context, db *gorm.DB, mode string, limit int) ([]Rating, error) {
	var ratings []Rating
	query := db.WithContext(ctx).Order("value desc").Order("name")
	if mode != "" {
		query = query.Where(Rating{Mode: mode})
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&ratings).Error
	return ratings, err
}
