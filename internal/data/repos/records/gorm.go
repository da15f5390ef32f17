package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/pao-report-backend/internal/domain/pao"
	"github.com/yungbote/pao-report-backend/internal/platform/logger"
)

// ProgramDocument stores a program's fields as a JSON payload so the SQL
// backends read the same shape as the document databases.
type ProgramDocument struct {
	ID        string         `gorm:"column:id;primaryKey" json:"id"`
	Data      datatypes.JSON `gorm:"column:data" json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (ProgramDocument) TableName() string { return "pao_documents" }

type ActivityDocument struct {
	ID        uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PaoID     string         `gorm:"column:pao_id;not null;uniqueIndex:idx_pao_activity_number" json:"pao_id"`
	Number    int            `gorm:"column:numero;not null;uniqueIndex:idx_pao_activity_number" json:"numero"`
	Data      datatypes.JSON `gorm:"column:data" json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (ActivityDocument) TableName() string { return "pao_activities" }

type UserDocument struct {
	ID       string `gorm:"column:id;primaryKey" json:"id"`
	Name     string `gorm:"column:nombre" json:"nombre"`
	Role     string `gorm:"column:rol;index" json:"rol"`
	PaoTutor string `gorm:"column:pao_tutor;index" json:"paoTutor"`
}

func (UserDocument) TableName() string { return "pao_users" }

// Models lists the tables owned by the gorm store, for AutoMigrate.
func Models() []any {
	return []any{&ProgramDocument{}, &ActivityDocument{}, &UserDocument{}}
}

type gormStore struct {
	log *logger.Logger
	db  *gorm.DB
}

func NewGormStore(log *logger.Logger, db *gorm.DB) RecordStore {
	return &gormStore{log: log.With("service", "GormRecordStore"), db: db}
}

func (s *gormStore) GetProgram(ctx context.Context, id string) (pao.Document, error) {
	var row ProgramDocument
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pao.ErrNotFound
		}
		return nil, fmt.Errorf("load program %s: %w", id, err)
	}
	return decodeJSONDoc(row.Data)
}

func (s *gormStore) ListActivities(ctx context.Context, id string) ([]pao.Document, error) {
	var rows []ActivityDocument
	if err := s.db.WithContext(ctx).Where("pao_id = ?", id).Order("numero ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list activities for %s: %w", id, err)
	}
	out := make([]pao.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := activityDoc(row)
		if err != nil {
			s.log.Warn("Skipping unreadable activity payload", "pao_id", id, "numero", row.Number, "error", err)
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *gormStore) GetActivity(ctx context.Context, id string, number int) (pao.Document, error) {
	var row ActivityDocument
	err := s.db.WithContext(ctx).Where("pao_id = ? AND numero = ?", id, number).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pao.ErrNotFound
		}
		return nil, fmt.Errorf("load activity %d for %s: %w", number, id, err)
	}
	doc, err := activityDoc(row)
	if err != nil {
		// Same policy as ListActivities: an unreadable payload counts as absent.
		s.log.Warn("Skipping unreadable activity payload", "pao_id", id, "numero", number, "error", err)
		return nil, pao.ErrNotFound
	}
	return doc, nil
}

func (s *gormStore) FindTutorName(ctx context.Context, id string) (string, error) {
	var row UserDocument
	err := s.db.WithContext(ctx).
		Where("pao_tutor = ? AND rol = ?", id, pao.RoleTutor).
		Order("id ASC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pao.ErrNotFound
		}
		return "", fmt.Errorf("tutor query: %w", err)
	}
	return strings.TrimSpace(row.Name), nil
}

// Close is a no-op; the *gorm.DB is owned by the caller.
func (s *gormStore) Close() error { return nil }

// activityDoc decodes the payload; the indexed numero column wins over any
// value in the payload.
func activityDoc(row ActivityDocument) (pao.Document, error) {
	doc, err := decodeJSONDoc(row.Data)
	if err != nil {
		return nil, err
	}
	doc[string(pao.FieldNumber)] = row.Number
	return doc, nil
}

func decodeJSONDoc(raw datatypes.JSON) (pao.Document, error) {
	doc := pao.Document{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document payload: %w", err)
	}
	// A JSON null payload leaves the map nil.
	if doc == nil {
		doc = pao.Document{}
	}
	return doc, nil
}
