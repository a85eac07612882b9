package repository

import (
	"context"
	"iter"

	"gorm.io/gorm"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// ActivityConfigRepository persists the zone activities configured for each subject unit.
type ActivityConfigRepository interface {
	GetByID(ctx context.Context, id uint) (models.ActivityConfig, error)
	FindByName(ctx context.Context, subjectID uint, unit, name string) (models.ActivityConfig, error)
	List(ctx context.Context, subjectID uint, unit string) ([]models.ActivityConfig, error)
	Stream(ctx context.Context, subjectID uint, unit string) iter.Seq2[models.ActivityConfig, error]
	ReplaceUnit(ctx context.Context, subjectID uint, unit string, items []models.ActivityConfig) ([]models.ActivityConfig, error)
}

type activityConfigRepository struct {
	db *gorm.DB
}

// NewActivityConfigRepository constructs the activity configuration repository.
func NewActivityConfigRepository(db *gorm.DB) ActivityConfigRepository {
	return &activityConfigRepository{db: db}
}

func (r *activityConfigRepository) GetByID(ctx context.Context, id uint) (models.ActivityConfig, error) {
	var config models.ActivityConfig
	if err := conn(ctx, r.db).First(&config, id).Error; err != nil {
		return models.ActivityConfig{}, err
	}
	return config, nil
}

func (r *activityConfigRepository) FindByName(ctx context.Context, subjectID uint, unit, name string) (models.ActivityConfig, error) {
	var config models.ActivityConfig
	if err := conn(ctx, r.db).
		Where("subject_id = ? AND unit = ? AND name = ?", subjectID, unit, name).
		Order("sequence ASC").
		First(&config).Error; err != nil {
		return models.ActivityConfig{}, err
	}
	return config, nil
}

func (r *activityConfigRepository) query(ctx context.Context, subjectID uint, unit string) *gorm.DB {
	query := conn(ctx, r.db).Model(&models.ActivityConfig{}).Where("subject_id = ?", subjectID)
	if unit != "" {
		query = query.Where("unit = ?", unit)
	}
	return query.Order("unit ASC").Order("sequence ASC")
}

func (r *activityConfigRepository) List(ctx context.Context, subjectID uint, unit string) ([]models.ActivityConfig, error) {
	var configs []models.ActivityConfig
	if err := r.query(ctx, subjectID, unit).Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *activityConfigRepository) Stream(ctx context.Context, subjectID uint, unit string) iter.Seq2[models.ActivityConfig, error] {
	return func(yield func(models.ActivityConfig, error) bool) {
		query := r.query(ctx, subjectID, unit)
		rows, err := query.Rows()
		if err != nil {
			yield(models.ActivityConfig{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var config models.ActivityConfig
			if err := query.ScanRows(rows, &config); err != nil {
				yield(models.ActivityConfig{}, err)
				return
			}
			if !yield(config, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.ActivityConfig{}, err)
		}
	}
}

// ReplaceUnit makes items the complete activity set of subject+unit. Items carrying an id
// update that row, the rest are inserted, and rows missing from items are deleted. Sequences
// are renumbered in item order. Grades of deleted activities are detached, grades of renamed
// activities follow the new name.
func (r *activityConfigRepository) ReplaceUnit(ctx context.Context, subjectID uint, unit string, items []models.ActivityConfig) ([]models.ActivityConfig, error) {
	var saved []models.ActivityConfig

	err := NewTransactor(r.db).WithinTransaction(ctx, func(ctx context.Context) error {
		tx := conn(ctx, r.db)

		var existing []models.ActivityConfig
		if err := tx.Where("subject_id = ? AND unit = ?", subjectID, unit).Find(&existing).Error; err != nil {
			return err
		}

		kept := map[uint]struct{}{}
		for _, item := range items {
			if item.ID != 0 {
				kept[item.ID] = struct{}{}
			}
		}

		keptIDs := make([]uint, 0, len(kept))
		for _, config := range existing {
			if _, ok := kept[config.ID]; ok {
				keptIDs = append(keptIDs, config.ID)
				continue
			}
			if err := tx.Model(&models.GradeEntry{}).
				Where("activity_config_id = ?", config.ID).
				Update("activity_config_id", nil).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.ActivityConfig{}, config.ID).Error; err != nil {
				return err
			}
		}

		// Park kept rows on negative sequences so renumbering cannot collide with the unique index.
		if len(keptIDs) > 0 {
			if err := tx.Model(&models.ActivityConfig{}).
				Where("id IN ?", keptIDs).
				UpdateColumn("sequence", gorm.Expr("-id")).Error; err != nil {
				return err
			}
		}

		saved = make([]models.ActivityConfig, 0, len(items))
		for idx, item := range items {
			item.SubjectID = subjectID
			item.Unit = unit
			item.Sequence = idx + 1

			if item.ID == 0 {
				if err := tx.Create(&item).Error; err != nil {
					return err
				}
				saved = append(saved, item)
				continue
			}

			update := tx.Model(&models.ActivityConfig{}).
				Where("id = ? AND subject_id = ? AND unit = ?", item.ID, subjectID, unit).
				Updates(map[string]interface{}{
					"name":      item.Name,
					"max_score": item.MaxScore,
					"sequence":  item.Sequence,
				})
			if update.Error != nil {
				return update.Error
			}
			if update.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}

			if err := tx.Model(&models.GradeEntry{}).
				Where("activity_config_id = ?", item.ID).
				Update("activity_name", item.Name).Error; err != nil {
				return err
			}

			var reloaded models.ActivityConfig
			if err := tx.First(&reloaded, item.ID).Error; err != nil {
				return err
			}
			saved = append(saved, reloaded)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}
