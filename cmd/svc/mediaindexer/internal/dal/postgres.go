package dal

import (
	"context"
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sprucehealth/mediaindexer/libs/dbutil"
	"github.com/sprucehealth/mediaindexer/libs/errors"
	"github.com/sprucehealth/mediaindexer/libs/golog"
)

//go:embed migrations/*.sql
var migrations embed.FS

type postgresDAL struct {
	db *sql.DB
}

// NewPostgres returns a DAL backed by the indexing_status table. Call Migrate first.
func NewPostgres(db *sql.DB) DAL {
	return &postgresDAL{db: db}
}

// Migrate brings the schema up to date.
func Migrate(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.Trace(err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return errors.Wrap(err, "failed to create migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return errors.Trace(err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, "failed to apply migrations")
	}
	version, dirty, err := m.Version()
	if err != nil {
		return errors.Trace(err)
	}
	golog.Infof("Postgres schema at version %d (dirty=%t)", version, dirty)
	return nil
}

func (d *postgresDAL) UpsertIndexingStatus(ctx context.Context, mediaID string, update *IndexingStatusUpdate) error {
	if err := validateMediaID(mediaID); err != nil {
		return err
	}
	fs := update.fields()
	if len(fs) == 0 {
		return nil
	}
	args := dbutil.PostgresVarArgs(2)
	for _, f := range fs {
		args.Append(f.name, f.value)
	}
	// Only the supplied columns are in the conflict SET so others keep their stored values.
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO indexing_status (media_id, `+args.Columns()+`)
		VALUES ($1, `+args.Placeholders()+`)
		ON CONFLICT (media_id) DO UPDATE SET `+args.ColumnsForConflictUpdate()+`, modified = now()`,
		append([]interface{}{mediaID}, args.Values()...)...)
	return errors.Wrapf(schemaError(err), "failed to upsert indexing status for %s", mediaID)
}

func (d *postgresDAL) IndexingStatus(ctx context.Context, mediaID string) (*IndexingStatus, error) {
	var s IndexingStatus
	var sourceMediaKey, audioKey, transcriptKey, transcriptionJob sql.NullString
	row := d.db.QueryRowContext(ctx, `
		SELECT media_id, source_media_key, audio_key, transcript_key, transcription_job
		FROM indexing_status
		WHERE media_id = $1`, mediaID)
	if err := row.Scan(&s.MediaID, &sourceMediaKey, &audioKey, &transcriptKey, &transcriptionJob); err == sql.ErrNoRows {
		return nil, errors.Annotatef(ErrNotFound, "media_id=%s", mediaID)
	} else if err != nil {
		return nil, errors.Wrapf(schemaError(err), "failed to get indexing status for %s", mediaID)
	}
	s.SourceMediaKey = sourceMediaKey.String
	s.AudioKey = audioKey.String
	s.TranscriptKey = transcriptKey.String
	s.TranscriptionJob = transcriptionJob.String
	return &s, nil
}

func schemaError(err error) error {
	if dbutil.IsPostgresError(err, dbutil.PostgresUndefinedTable) {
		return errors.Annotate(err, "indexing_status table missing, run migrations")
	}
	return err
}
