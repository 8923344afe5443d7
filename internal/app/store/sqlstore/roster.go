// internal/app/store/sqlstore/roster.go
package sqlstore

import (
	"context"

	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

func (s *Store) CreateSchool(ctx context.Context, sc models.School) error {
	sc.NameCI = text.Fold(sc.Name)
	_, err := s.db.NewInsert().Model(schoolToRow(sc)).Exec(ctx)
	return mapErr(err, "school")
}

func (s *Store) GetSchool(ctx context.Context, id string) (models.School, error) {
	var row schoolRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return models.School{}, mapErr(err, "school")
	}
	return row.model(), nil
}

func (s *Store) CreateStudent(ctx context.Context, st models.Student) error {
	st.NameCI = text.Fold(st.Name)
	_, err := s.db.NewInsert().Model(studentToRow(st)).Exec(ctx)
	return mapErr(err, "student")
}

func (s *Store) GetStudent(ctx context.Context, id string) (models.Student, error) {
	var row studentRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return models.Student{}, mapErr(err, "student")
	}
	return row.model(), nil
}

func (s *Store) ListStudentsBySchool(ctx context.Context, schoolID string) ([]models.Student, error) {
	var rows []studentRow
	err := s.db.NewSelect().Model(&rows).
		Where("school_id = ?", schoolID).
		OrderExpr(`name_ci COLLATE "C" ASC, id COLLATE "C" ASC`).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Student, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, u models.User) error {
	u.NameCI = text.Fold(u.Name)
	_, err := s.db.NewInsert().Model(userToRow(u)).Exec(ctx)
	if err != nil && sqlState(err) == codeUniqueViolation {
		return apperr.Conflict("email already in use", err)
	}
	return mapErr(err, "user")
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	var row userRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return models.User{}, mapErr(err, "user")
	}
	return row.model(), nil
}

func (s *Store) ListUsersBySchool(ctx context.Context, schoolID string) ([]models.User, error) {
	var rows []userRow
	err := s.db.NewSelect().Model(&rows).
		Where("school_id = ?", schoolID).
		OrderExpr(`name_ci COLLATE "C" ASC, id COLLATE "C" ASC`).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}
