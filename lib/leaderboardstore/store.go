package leaderboardstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"kilometrikisa/lib/leaderboardstore/db"
	"kilometrikisa/lib/scrapers/kilometrikisa"
	"kilometrikisa/lib/timezone"
	"log/slog"
	"time"
)

var ErrNoSnapshot = errors.New("no leaderboard snapshot")

// Snapshot is a leaderboard as it was scraped at TakenAt.
type Snapshot struct {
	ContestLink string
	List        string
	TakenAt     time.Time
	Teams       []kilometrikisa.TeamInfo
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Open opens (creating if needed) the sqlite file at path and applies the
// schema.
func Open(ctx context.Context, path string) (Store, *sql.DB, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, nil, err
	}
	_, err = database.ExecContext(ctx, db.Schema)
	if err != nil {
		database.Close()
		return Store{}, nil, fmt.Errorf("apply schema: %w", err)
	}
	return NewStore(database), database, nil
}

// Push stores a snapshot, replacing any snapshot of the same contest and list
// taken earlier on the same Finnish calendar day.
func (s Store) Push(ctx context.Context, snapshot Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	takenAt := snapshot.TakenAt.In(timezone.Location)
	startOfDay := time.Date(takenAt.Year(), takenAt.Month(), takenAt.Day(), 0, 0, 0, 0, timezone.Location).Unix()
	startOfTomorrow := time.Date(takenAt.Year(), takenAt.Month(), takenAt.Day()+1, 0, 0, 0, 0, timezone.Location).Unix()

	_, err = tx.ExecContext(
		ctx,
		`delete from team_standing where snapshot_id in (
			select id from snapshot
			where contest_link = ? and list = ? and taken_at >= ? and taken_at < ?
		)`,
		snapshot.ContestLink, snapshot.List, startOfDay, startOfTomorrow,
	)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(
		ctx,
		`delete from snapshot
		where contest_link = ? and list = ? and taken_at >= ? and taken_at < ?`,
		snapshot.ContestLink, snapshot.List, startOfDay, startOfTomorrow,
	)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(
		ctx,
		`insert into snapshot(contest_link, list, taken_at) values (?, ?, ?)`,
		snapshot.ContestLink, snapshot.List, snapshot.TakenAt.Unix(),
	)
	if err != nil {
		return err
	}
	snapshotId, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for i, team := range snapshot.Teams {
		_, err := tx.ExecContext(
			ctx,
			`insert into team_standing(snapshot_id, position, rank, name, kmpp, km_total, days)
			values (?, ?, ?, ?, ?, ?, ?)`,
			snapshotId, i, team.Rank, team.Name, team.Kmpp, team.KmTotal, team.Days,
		)
		if err != nil {
			return err
		}
	}

	slog.DebugContext(ctx, "stored leaderboard snapshot", "contest", snapshot.ContestLink, "list", snapshot.List, "teams", len(snapshot.Teams))
	return tx.Commit()
}

// Latest returns the newest snapshot of a contest's list taken before
// `before`, a zero `before` means any time.
func (s Store) Latest(ctx context.Context, contestLink, list string, before time.Time) (Snapshot, error) {
	query := `select id, taken_at from snapshot
		where contest_link = ? and list = ?`
	args := []any{contestLink, list}
	if !before.IsZero() {
		query += " and taken_at < ?"
		args = append(args, before.Unix())
	}
	query += " order by taken_at desc limit 1"

	var snapshotId int64
	var takenAt int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&snapshotId, &takenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w for %s (%s)", ErrNoSnapshot, contestLink, list)
	}
	if err != nil {
		return Snapshot{}, err
	}

	rows, err := s.db.QueryContext(
		ctx,
		`select rank, name, kmpp, km_total, days from team_standing
		where snapshot_id = ? order by position`,
		snapshotId,
	)
	if err != nil {
		return Snapshot{}, err
	}
	defer rows.Close()

	teams := []kilometrikisa.TeamInfo{}
	for rows.Next() {
		var team kilometrikisa.TeamInfo
		err := rows.Scan(&team.Rank, &team.Name, &team.Kmpp, &team.KmTotal, &team.Days)
		if err != nil {
			return Snapshot{}, err
		}
		teams = append(teams, team)
	}
	err = rows.Err()
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		ContestLink: contestLink,
		List:        list,
		TakenAt:     time.Unix(takenAt, 0).In(timezone.Location),
		Teams:       teams,
	}, nil
}

// RankChanges maps team names to how many places they climbed since the
// previous snapshot, teams missing from previous are left out.
func RankChanges(previous, current Snapshot) map[string]int {
	ranks := make(map[string]int, len(previous.Teams))
	for _, team := range previous.Teams {
		ranks[team.Name] = team.Rank
	}
	changes := map[string]int{}
	for _, team := range current.Teams {
		rank, ok := ranks[team.Name]
		if !ok {
			continue
		}
		changes[team.Name] = rank - team.Rank
	}
	return changes
}
