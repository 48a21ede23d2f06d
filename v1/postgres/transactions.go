package postgres

import (
	"context"

	"gorm.io/gorm"
)

// Transaction executes the given function within a database transaction.
// If the function returns an error, the transaction is rolled back;
// otherwise, it's committed.
//
// This method provides a clean way to execute multiple database operations
// as a single atomic unit.
//
// Example usage:
//
//	err := pg.Transaction(ctx, func(tx *gorm.DB) error {
//		if err := tx.Exec("DROP INDEX IF EXISTS ix_old").Error; err != nil {
//			return err
//		}
//		return tx.Exec("CREATE INDEX ...").Error
//	})
func (p *Postgres) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return p.DB().WithContext(ctx).Transaction(fn)
}
