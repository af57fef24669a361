package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskboard/internal/model"
	"taskboard/internal/store"
)

// listsKey is the configs-table key under which the whole list
// configuration is stored as one JSON document.
const listsKey = "lists"

// configRow is a single key/value row in the configs table.
type configRow struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value string `gorm:"column:value"`
}

func (configRow) TableName() string { return "configs" }

// Store is the relational backend: tasks as rows with subtasks serialized
// into a JSON column, list configuration as one configs row.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListTasks(ctx context.Context, filter store.Filter) ([]model.Task, error) {
	q := s.db.WithContext(ctx).Order("is_done ASC, created_at DESC")
	if filter.GroupID != "" {
		q = q.Where("group_id = ?", filter.GroupID)
	}
	var tasks []model.Task
	if err := q.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	for i := range tasks {
		if tasks[i].Subtasks == nil {
			tasks[i].Subtasks = []model.Subtask{}
		}
	}
	return tasks, nil
}

func (s *Store) CreateTask(ctx context.Context, draft store.Draft) (model.Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return model.Task{}, &store.RejectedError{Status: http.StatusBadRequest, Message: "title is required"}
	}

	task := model.Task{
		ID:       uuid.New().String(),
		Title:    draft.Title,
		IsDone:   draft.IsDone,
		GroupID:  draft.GroupID,
		Subtasks: draft.Subtasks,
		DueDate:  draft.DueDate,
	}
	if task.GroupID == "" {
		task.GroupID = model.FallbackGroupID
	}
	if task.Subtasks == nil {
		task.Subtasks = []model.Subtask{}
	}

	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// UpdateTask applies merge semantics: only the patch's non-nil fields
// change, everything else keeps its stored value.
func (s *Store) UpdateTask(ctx context.Context, id string, patch store.Patch) error {
	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.IsDone != nil {
		updates["is_done"] = *patch.IsDone
	}
	if patch.GroupID != nil {
		updates["group_id"] = *patch.GroupID
	}
	if patch.Subtasks != nil {
		encoded, err := json.Marshal(*patch.Subtasks)
		if err != nil {
			return fmt.Errorf("encode subtasks: %w", err)
		}
		updates["subtasks"] = string(encoded)
	}
	if patch.DueDate != nil {
		updates["due_date"] = *patch.DueDate
	}
	if len(updates) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// DeleteTask removes a task. Deleting an id that no longer exists is a
// no-op: the caller already dropped it optimistically.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Task{}).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// GetLists returns nil (not an empty slice) when no configuration has
// ever been saved, signaling the caller to bootstrap the default.
func (s *Store) GetLists(ctx context.Context) ([]model.List, error) {
	var row configRow
	err := s.db.WithContext(ctx).Where("key = ?", listsKey).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("get lists: %w", err)
	}

	var lists []model.List
	if err := json.Unmarshal([]byte(row.Value), &lists); err != nil {
		return nil, fmt.Errorf("decode lists: %w", err)
	}
	return lists, nil
}

// PutLists replaces the whole stored configuration document.
func (s *Store) PutLists(ctx context.Context, lists []model.List) error {
	encoded, err := json.Marshal(lists)
	if err != nil {
		return fmt.Errorf("encode lists: %w", err)
	}

	row := configRow{Key: listsKey, Value: string(encoded)}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save lists: %w", err)
	}
	return nil
}
