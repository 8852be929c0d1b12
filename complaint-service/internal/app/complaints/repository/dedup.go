package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertIfAbsent вставляет запись, если по естественному ключу ее еще нет
// Возвращает true при вставке и false, если запись уже существовала
func upsertIfAbsent(ctx context.Context, db *gorm.DB, record interface{}, conflictColumns ...string) (bool, error) {
	columns := make([]clause.Column, 0, len(conflictColumns))
	for _, name := range conflictColumns {
		columns = append(columns, clause.Column{Name: name})
	}

	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: columns, DoNothing: true}).
		Create(record)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}
