package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jask/bookshelf/internal/database"
)

// ResetStats counts the rows removed by Reset.
type ResetStats struct {
	Authors int64
	Books   int64
	Genres  int64
}

func (r ResetStats) String() string {
	return fmt.Sprintf("%d authors, %d books, %d genre tags", r.Authors, r.Books, r.Genres)
}

// MaintenanceService holds operator actions of the gateway command.
type MaintenanceService struct {
	DB *sql.DB
}

// Reset empties the library. The schema and migration version stay, so a
// running gateway keeps serving and SeedDefaults can refill it.
func (s *MaintenanceService) Reset(ctx context.Context) (ResetStats, error) {
	var stats ResetStats
	if s.DB == nil {
		return stats, errors.New("maintenance: no database")
	}
	// children first, the foreign keys are enforced
	steps := []struct {
		table string
		n     *int64
	}{
		{"book_genres", &stats.Genres},
		{"books", &stats.Books},
		{"authors", &stats.Authors},
	}
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		for _, st := range steps {
			res, err := tx.ExecContext(ctx, "DELETE FROM "+st.table)
			if err != nil {
				return fmt.Errorf("clear %s: %w", st.table, err)
			}
			if *st.n, err = res.RowsAffected(); err != nil {
				return fmt.Errorf("clear %s: %w", st.table, err)
			}
		}
		return nil
	})
	if err != nil {
		return ResetStats{}, err
	}
	if _, err := s.DB.ExecContext(ctx, "VACUUM"); err != nil {
		log.Printf("maintenance: vacuum: %v", err)
	}
	return stats, nil
}
