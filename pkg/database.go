package gaindrift

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

const acceptedRunsQuery = "SELECT RunNumber FROM AcceptedRuns WHERE Channel = ? AND RunNumber >= ? AND RunNumber <= ? ORDER BY ListPosition LIMIT ?"

const geometryQuery = "SELECT Channel, PulserPosition, OvershootPosition FROM PulserGeometry WHERE MinRun <= ? and MaxRun >= ? ORDER BY Channel"

type GeometryEntry struct {
	Channel int `db:"Channel"`
	ChannelGeometry
}

// GetAcceptedRunsFromDB reads the accepted runs of a channel within a run
// range, in list order.
func GetAcceptedRunsFromDB(db *sqlx.DB, channel, startRun, endRun, count int) ([]int, error) {
	source := fmt.Sprintf("AcceptedRuns(channel=%d)", channel)
	runs := make([]int, 0, count)
	if err := db.Select(&runs, acceptedRunsQuery, channel, startRun, endRun, count); err != nil {
		return nil, &InputListError{Filename: source, Err: fmt.Errorf("error querying database: %w", err)}
	}
	if len(runs) < count {
		err := fmt.Errorf("%w: found %d, expected %d", ErrShortRunList, len(runs), count)
		return nil, &InputListError{Filename: source, Err: err}
	}
	logger.Info(fmt.Sprintf("Read %d accepted runs for channel %d from database", len(runs), channel), "database")
	return runs, nil
}

// GetGeometryFromDB reads the pulser geometry valid for a run.
func GetGeometryFromDB(db *sqlx.DB, runNumber int) (GeometryTable, error) {
	rows, err := db.Queryx(geometryQuery, runNumber, runNumber)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	geometry := make(GeometryTable)
	for rows.Next() {
		result := GeometryEntry{}
		if err := rows.StructScan(&result); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		geometry[result.Channel] = result.ChannelGeometry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading DB rows: %w", err)
	}
	if len(geometry) == 0 {
		return nil, fmt.Errorf("no pulser geometry for run %d", runNumber)
	}
	logger.Info(fmt.Sprintf("Pulser geometry for %d channels read from DB", len(geometry)), "database")
	return geometry, nil
}
