package classifiers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/verdict/pkg/storage"
)

const archivePrefix = "archives/"

func archiveDir(id uuid.UUID) string {
	return archivePrefix + id.String() + "/"
}

func (o *orchestrator) Archive(ctx context.Context, id uuid.UUID) (*Archive, error) {
	if !o.archives.Enabled() {
		return nil, ErrStorageDisabled
	}

	c, err := o.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal archive: %w", ErrPersistFault, err)
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("%s%d.json", archiveDir(id), now.UnixNano())

	if err := o.archives.Upload(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return nil, archiveError(err)
	}

	o.logger.Info("classifier archived", "id", id, "key", key)
	return &Archive{
		Key:          key,
		ClassifierID: id,
		CreatedAt:    now,
		Size:         int64(len(data)),
	}, nil
}

func (o *orchestrator) Archives(ctx context.Context, id uuid.UUID) ([]Archive, error) {
	if !o.archives.Enabled() {
		return nil, ErrStorageDisabled
	}

	blobs, err := o.archives.List(ctx, archiveDir(id))
	if err != nil {
		return nil, archiveError(err)
	}

	archives := make([]Archive, 0, len(blobs))
	for _, b := range blobs {
		archives = append(archives, Archive{
			Key:          b.Key,
			ClassifierID: id,
			CreatedAt:    archiveTime(b),
			Size:         b.Size,
		})
	}
	return archives, nil
}

func (o *orchestrator) RestoreArchive(ctx context.Context, id uuid.UUID, cmd RestoreCommand) (*Classifier, error) {
	if !o.archives.Enabled() {
		return nil, ErrStorageDisabled
	}

	if err := ValidateCommand(cmd); err != nil {
		return nil, err
	}

	key := *cmd.Key
	if !strings.HasPrefix(key, archiveDir(id)) {
		return nil, fmt.Errorf("%w: key does not belong to classifier %s", ErrValidation, id)
	}

	archived, err := o.readArchive(ctx, key)
	if err != nil {
		return nil, err
	}

	if archived.ID != id {
		return nil, fmt.Errorf("%w: archive holds classifier %s", ErrValidation, archived.ID)
	}

	eng, err := o.engines.Restore(archived.State)
	if err != nil {
		return nil, fmt.Errorf("restore archive %s: %w", key, err)
	}

	state, err := eng.Snapshot()
	if err != nil {
		return nil, err
	}

	c, err := o.retry(ctx, id, "restore", func() (Classifier, error) {
		current, err := o.store.Find(ctx, id)
		if err != nil {
			return current, err
		}
		current.State = state
		return o.store.Update(ctx, current)
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info("classifier restored from archive", "id", id, "key", key)
	return c, nil
}

func (o *orchestrator) readArchive(ctx context.Context, key string) (Classifier, error) {
	var c Classifier

	rc, err := o.archives.Download(ctx, key)
	if err != nil {
		return c, archiveError(err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return c, fmt.Errorf("%w: read archive %s: %w", ErrPersistFault, key, err)
	}

	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("%w: archive %s: %w", ErrCorruptState, key, err)
	}
	return c, nil
}

// archiveTime recovers the creation time encoded in the key, falling back to
// the blob's modification time.
func archiveTime(b storage.Blob) time.Time {
	name := strings.TrimSuffix(path.Base(b.Key), ".json")
	if nanos, err := strconv.ParseInt(name, 10, 64); err == nil {
		return time.Unix(0, nanos).UTC()
	}
	return b.LastModified
}

func archiveError(err error) error {
	switch {
	case errors.Is(err, storage.ErrDisabled):
		return ErrStorageDisabled
	case errors.Is(err, storage.ErrNotFound):
		return ErrArchiveNotFound
	case errors.Is(err, storage.ErrEmptyKey), errors.Is(err, storage.ErrInvalidKey):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	default:
		return fmt.Errorf("%w: %w", ErrPersistFault, err)
	}
}
