package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yungbote/pao-report-backend/internal/domain/pao"
	"github.com/yungbote/pao-report-backend/internal/platform/logger"
)

type firestoreStore struct {
	log    *logger.Logger
	client *firestore.Client
	names  CollectionNames
}

// NewFirestoreStore reads PAOs/{id}, PAOs/{id}/actividades and usuarios.
func NewFirestoreStore(log *logger.Logger, client *firestore.Client, names CollectionNames) RecordStore {
	return &firestoreStore{
		log:    log.With("service", "FirestoreRecordStore"),
		client: client,
		names:  names.withDefaults("PAOs", "actividades"),
	}
}

func (s *firestoreStore) program(id string) *firestore.DocumentRef {
	return s.client.Collection(s.names.Programs).Doc(id)
}

func (s *firestoreStore) GetProgram(ctx context.Context, id string) (pao.Document, error) {
	snap, err := s.program(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, pao.ErrNotFound
		}
		return nil, fmt.Errorf("firestore get %s/%s: %w", s.names.Programs, id, err)
	}
	if !snap.Exists() {
		return nil, pao.ErrNotFound
	}
	return pao.Document(snap.Data()), nil
}

func (s *firestoreStore) ListActivities(ctx context.Context, id string) ([]pao.Document, error) {
	it := s.program(id).Collection(s.names.Activities).
		OrderBy(string(pao.FieldNumber), firestore.Asc).
		Documents(ctx)
	defer it.Stop()

	out := []pao.Document{}
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore list %s/%s/%s: %w", s.names.Programs, id, s.names.Activities, err)
		}
		out = append(out, pao.Document(snap.Data()))
	}
	return out, nil
}

func (s *firestoreStore) GetActivity(ctx context.Context, id string, number int) (pao.Document, error) {
	docID := s.names.activityID(number)
	snap, err := s.program(id).Collection(s.names.Activities).Doc(docID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, pao.ErrNotFound
		}
		return nil, fmt.Errorf("firestore get activity %s: %w", docID, err)
	}
	if !snap.Exists() {
		return nil, pao.ErrNotFound
	}
	return pao.Document(snap.Data()), nil
}

func (s *firestoreStore) FindTutorName(ctx context.Context, id string) (string, error) {
	snaps, err := s.client.Collection(s.names.Users).
		Where(string(pao.FieldUserTutor), "==", id).
		Where(string(pao.FieldUserRole), "==", pao.RoleTutor).
		Limit(1).
		Documents(ctx).
		GetAll()
	if err != nil {
		return "", fmt.Errorf("firestore tutor query: %w", err)
	}
	if len(snaps) == 0 {
		return "", pao.ErrNotFound
	}
	return strings.TrimSpace(pao.FieldsOf(snaps[0].Data()).String(pao.FieldUserName)), nil
}

func (s *firestoreStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
