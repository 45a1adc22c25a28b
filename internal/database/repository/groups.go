package repository

import (
	"context"

	"github.com/jask/moneyvault/internal/database"
	"github.com/jask/moneyvault/internal/models"
)

func (r *Repository) GetGroups(ctx context.Context) ([]*models.Group, error) {
	rows, err := r.h.QueryContext(ctx, `SELECT id, COALESCE(name, ''), COALESCE(description, ''), COALESCE(rgba, '')
	FROM "groups" ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Group
	for rows.Next() {
		var (
			id                      int
			name, description, rgba string
		)
		if err := rows.Scan(&id, &name, &description, &rgba); err != nil {
			return nil, err
		}
		g := models.NewGroup(id)
		g.Name = name
		g.Description = description
		g.Color = models.ParseColor(rgba)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repository) AddGroup(ctx context.Context, g *models.Group) error {
	_, err := r.h.ExecContext(ctx, `INSERT INTO "groups"(id, name, description, rgba) VALUES(?, ?, ?, ?)`,
		g.ID, g.Name, g.Description, g.Color.Hex())
	return err
}

func (r *Repository) UpdateGroup(ctx context.Context, g *models.Group) error {
	res, err := r.h.ExecContext(ctx, `UPDATE "groups" SET name = ?, description = ?, rgba = ? WHERE id = ?`,
		g.Name, g.Description, g.Color.Hex(), g.ID)
	if err != nil {
		return err
	}
	return affected(res)
}

// DeleteGroup removes the group and moves its transactions to ungrouped in
// the same transaction.
func (r *Repository) DeleteGroup(ctx context.Context, id int) error {
	return r.h.WithTx(ctx, func(tx database.DBTX) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM "groups" WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if err := affected(res); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE transactions SET gid = ?, useGroupColor = 0 WHERE gid = ?`,
			models.UngroupedID, id)
		return err
	})
}
