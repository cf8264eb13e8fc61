// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rollstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/rollcall/auth"
	"github.com/danielhkuo/rollcall/rollmatch"
)

var (
	ErrMissingIdentifier  = errors.New("roll record needs a voter ID or national ID number")
	ErrUnknownKeyKind     = errors.New("unknown roll key kind")
	ErrIdentifierConflict = errors.New("roll record identifiers conflict with the roll")
)

// Store serves electoral roll lookups from the roll_record table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const recordColumns = `id, voter_id_number, national_id_number, full_name, father_name,
	date_of_birth, age, gender, address_state, address_district, address_city,
	full_address, polling_booth`

// Lookup returns the roll record for key, or rollmatch.ErrNotFound.
// It has the rollmatch.Lookup signature.
func (s *Store) Lookup(ctx context.Context, key rollmatch.Key) (rollmatch.RollRecord, error) {
	rec, _, err := s.Find(ctx, key)
	return rec, err
}

// Find is Lookup that also returns the row ID of the record.
func (s *Store) Find(ctx context.Context, key rollmatch.Key) (rollmatch.RollRecord, string, error) {
	var column string
	switch key.Kind {
	case rollmatch.KeyVoterID:
		column = "voter_id_number"
	case rollmatch.KeyNationalID:
		column = "national_id_number"
	default:
		return rollmatch.RollRecord{}, "", fmt.Errorf("%w: %q", ErrUnknownKeyKind, key.Kind)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM roll_record
		WHERE `+column+` = $1
	`, key.Value)

	id, rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return rollmatch.RollRecord{}, "", fmt.Errorf("%s: %w", key, rollmatch.ErrNotFound)
	}
	if err != nil {
		return rollmatch.RollRecord{}, "", fmt.Errorf("failed to query roll record: %w", err)
	}

	return rec, id, nil
}

// Upsert inserts or refreshes records in a single transaction. A record
// whose voter ID or national ID is already on the roll replaces the stored
// entry; a national-ID-only entry picks up the voter ID it is imported with.
func (s *Store) Upsert(ctx context.Context, records []rollmatch.RollRecord) (int, error) {
	for i, rec := range records {
		if strings.TrimSpace(rec.VoterIDNumber) == "" && strings.TrimSpace(rec.NationalIDNumber) == "" {
			return 0, fmt.Errorf("record %d: %w", i, ErrMissingIdentifier)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for i, rec := range records {
		rec = trimRecord(rec)

		id, err := existingID(ctx, tx, rec)
		if err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}

		if id == "" {
			id, err = auth.GenerateID(16)
			if err != nil {
				return 0, err
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO roll_record (`+recordColumns+`, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			`, id, nullable(rec.VoterIDNumber), nullable(rec.NationalIDNumber),
				nullable(rec.FullName), nullable(rec.FatherName), nullable(rec.DateOfBirth),
				nullable(rec.Age), nullable(rec.Gender), nullable(rec.State),
				nullable(rec.District), nullable(rec.City), nullable(rec.FullAddress),
				nullable(rec.PollingBooth), now)
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE roll_record
				SET voter_id_number = $1, national_id_number = $2, full_name = $3,
				    father_name = $4, date_of_birth = $5, age = $6, gender = $7,
				    address_state = $8, address_district = $9, address_city = $10,
				    full_address = $11, polling_booth = $12, updated_at = $13
				WHERE id = $14
			`, nullable(rec.VoterIDNumber), nullable(rec.NationalIDNumber),
				nullable(rec.FullName), nullable(rec.FatherName), nullable(rec.DateOfBirth),
				nullable(rec.Age), nullable(rec.Gender), nullable(rec.State),
				nullable(rec.District), nullable(rec.City), nullable(rec.FullAddress),
				nullable(rec.PollingBooth), now, id)
		}
		if err != nil {
			return 0, fmt.Errorf("record %d: failed to save roll record: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit roll import: %w", err)
	}

	slog.Info("roll records upserted", "count", len(records))
	return len(records), nil
}

// Count returns the number of entries on the roll.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM roll_record`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count roll records: %w", err)
	}
	return n, nil
}

// existingID finds the row a record refreshes. Both identifiers are
// checked, and a record whose identifiers belong to two different entries
// is refused with ErrIdentifierConflict.
func existingID(ctx context.Context, tx *sql.Tx, rec rollmatch.RollRecord) (string, error) {
	var byVoter, byNational, nationalVoterID string
	if rec.VoterIDNumber != "" {
		err := tx.QueryRowContext(ctx, `SELECT id FROM roll_record WHERE voter_id_number = $1`,
			rec.VoterIDNumber).Scan(&byVoter)
		if err != nil && err != sql.ErrNoRows {
			return "", fmt.Errorf("failed to query roll record: %w", err)
		}
	}
	if rec.NationalIDNumber != "" {
		var voterID sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT id, voter_id_number FROM roll_record WHERE national_id_number = $1`,
			rec.NationalIDNumber).Scan(&byNational, &voterID)
		if err != nil && err != sql.ErrNoRows {
			return "", fmt.Errorf("failed to query roll record: %w", err)
		}
		nationalVoterID = voterID.String
	}

	switch {
	case byVoter != "" && byNational != "" && byVoter != byNational:
		return "", fmt.Errorf("%w: voter ID %s and national ID %s are on different entries",
			ErrIdentifierConflict, rec.VoterIDNumber, rec.NationalIDNumber)
	case byVoter != "":
		return byVoter, nil
	case byNational != "" && rec.VoterIDNumber != "" && nationalVoterID != "":
		return "", fmt.Errorf("%w: national ID %s already belongs to voter ID %s",
			ErrIdentifierConflict, rec.NationalIDNumber, nationalVoterID)
	default:
		return byNational, nil
	}
}

func scanRecord(row *sql.Row) (string, rollmatch.RollRecord, error) {
	var id string
	var f [12]sql.NullString
	err := row.Scan(&id, &f[0], &f[1], &f[2], &f[3], &f[4], &f[5], &f[6], &f[7], &f[8], &f[9], &f[10], &f[11])
	if err != nil {
		return "", rollmatch.RollRecord{}, err
	}

	return id, rollmatch.RollRecord{
		VoterIDNumber:    f[0].String,
		NationalIDNumber: f[1].String,
		FullName:         f[2].String,
		FatherName:       f[3].String,
		DateOfBirth:      f[4].String,
		Age:              f[5].String,
		Gender:           f[6].String,
		State:            f[7].String,
		District:         f[8].String,
		City:             f[9].String,
		FullAddress:      f[10].String,
		PollingBooth:     f[11].String,
	}, nil
}

func trimRecord(rec rollmatch.RollRecord) rollmatch.RollRecord {
	for _, p := range []*string{
		&rec.VoterIDNumber, &rec.NationalIDNumber, &rec.FullName, &rec.FatherName,
		&rec.DateOfBirth, &rec.Age, &rec.Gender, &rec.State, &rec.District,
		&rec.City, &rec.FullAddress, &rec.PollingBooth,
	} {
		*p = strings.TrimSpace(*p)
	}
	return rec
}

// nullable stores empty strings as NULL so the UNIQUE identifier columns
// accept many records without one.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
