// internal/app/store/sqlstore/catalog.go
package sqlstore

import (
	"context"
	"time"

	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

func (s *Store) CreateOffence(ctx context.Context, o models.Offence) error {
	o.NameCI = text.Fold(o.Name)
	_, err := s.db.NewInsert().Model(offenceToRow(o)).Exec(ctx)
	return mapErr(err, "offence")
}

func (s *Store) GetOffence(ctx context.Context, id string) (models.Offence, error) {
	var row offenceRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return models.Offence{}, mapErr(err, "offence")
	}
	return row.model(), nil
}

func (s *Store) UpdateOffence(ctx context.Context, id string, u models.OffenceUpdate, at time.Time) (models.Offence, error) {
	q := s.db.NewUpdate().Model((*offenceRow)(nil)).
		Set("updated_at = ?", at).
		Where("id = ?", id)
	if u.Name != nil {
		q = q.Set("name = ?", *u.Name).Set("name_ci = ?", text.Fold(*u.Name))
	}
	if u.Description != nil {
		q = q.Set("description = ?", *u.Description)
	}
	if u.PointsToDeduct != nil {
		q = q.Set("points_to_deduct = ?", *u.PointsToDeduct)
	}

	var row offenceRow
	if err := q.Returning("*").Scan(ctx, &row); err != nil {
		return models.Offence{}, mapErr(err, "offence")
	}
	return row.model(), nil
}

// DeleteOffence removes the catalog row. Discipline records hold their own
// copy of the offence and are not touched.
func (s *Store) DeleteOffence(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*offenceRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("offence")
	}
	return nil
}

func (s *Store) ListOffencesBySchool(ctx context.Context, schoolID string) ([]models.Offence, error) {
	var rows []offenceRow
	err := s.db.NewSelect().Model(&rows).
		Where("school_id = ?", schoolID).
		OrderExpr(`name_ci COLLATE "C" ASC, id COLLATE "C" ASC`).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Offence, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}
