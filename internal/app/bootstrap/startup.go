// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/mwanacheck/internal/app/catalog"
	"github.com/dalemusser/mwanacheck/internal/app/roster"
	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/app/system/auth"
	"github.com/dalemusser/mwanacheck/internal/app/system/timeouts"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/text"
	"go.uber.org/zap"
)

// demoSchoolID is fixed so seeding can tell it already ran.
const demoSchoolID = "64d0c0ffee00000000000001"

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built: timeout
// overrides and, when seed_demo is set, the demo school.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n))
	}
	timeouts.Configure(timeouts.Config{Ledger: appCfg.LedgerTimeout})

	if !appCfg.SeedDemo {
		return nil
	}
	actors, err := seedDemo(ctx, deps.Store, logger)
	if err != nil {
		logger.Error("demo seed failed", zap.Error(err))
		return err
	}
	if len(actors) > 0 && appCfg.IdentityJWTSecret != "" && (coreCfg == nil || coreCfg.Env != "prod") {
		logDemoTokens(appCfg, actors, logger)
	}
	return nil
}

// logDemoTokens prints a day-long sign-in token for each seeded user.
func logDemoTokens(appCfg AppConfig, actors []models.Actor, logger *zap.Logger) {
	v, err := auth.NewIdentityVerifier(appCfg.IdentityJWTSecret, appCfg.IdentityIssuer)
	if err != nil {
		logger.Warn("demo tokens not issued", zap.Error(err))
		return
	}
	for _, a := range actors {
		tok, err := v.Issue(a, 24*time.Hour)
		if err != nil {
			logger.Warn("demo token not issued", zap.String("actor_id", a.ID), zap.Error(err))
			continue
		}
		logger.Info("demo sign-in token",
			zap.String("role", a.Role),
			zap.String("name", a.Name),
			zap.String("token", tok))
	}
}

var demoOffences = []struct {
	name   string
	desc   string
	points int
}{
	{"Late to class", "Arrived after the bell", 2},
	{"Incomplete homework", "Homework not handed in", 3},
	{"Disruptive behaviour", "Disrupting the lesson", 5},
	{"Absent without leave", "Missed school without permission", 10},
	{"Fighting", "Physical altercation with another student", 20},
}

// seedDemo creates a demo school with staff, a parent, students and the
// usual offences, returning the seeded users as actors. It does nothing if
// the demo school exists.
func seedDemo(ctx context.Context, store Store, logger *zap.Logger) ([]models.Actor, error) {
	if _, err := store.GetSchool(ctx, demoSchoolID); err == nil {
		logger.Info("demo school present; skipping seed", zap.String("school_id", demoSchoolID))
		return nil, nil
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	name := "Mwana Demo Secondary"
	if err := store.CreateSchool(ctx, models.School{
		ID: demoSchoolID, Name: name, NameCI: text.Fold(name), Type: "secondary",
		Email: "office@demo.mwanacheck.test", CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		return nil, err
	}

	ro := roster.New(store, logger)
	cat := catalog.New(store, logger)

	admin, err := ro.CreateUser(ctx, demoSchoolID, roster.UserInput{Name: "Grace Achieng", Email: "admin@demo.mwanacheck.test", Role: models.RoleAdmin})
	if err != nil {
		return nil, err
	}
	teacher, err := ro.CreateUser(ctx, demoSchoolID, roster.UserInput{Name: "Peter Otieno", Email: "teacher@demo.mwanacheck.test", Role: models.RoleTeacher, Class: "Form 2B", Subject: "Mathematics"})
	if err != nil {
		return nil, err
	}
	parent, err := ro.CreateUser(ctx, demoSchoolID, roster.UserInput{Name: "Mary Wanjiku", Email: "parent@demo.mwanacheck.test", Role: models.RoleParent, Occupation: "Nurse"})
	if err != nil {
		return nil, err
	}

	for _, st := range []roster.StudentInput{
		{Name: "Brian Kamau", Class: "Form 2B", GPA: 3.4, FeeBalance: 1500000, Guardians: []string{parent.ID}},
		{Name: "Aisha Mohamed", Class: "Form 2B", GPA: 3.9, FeeBalance: 0},
		{Name: "Kevin Mutua", Class: "Form 3A", GPA: 2.7, FeeBalance: 800000},
	} {
		if _, err := ro.CreateStudent(ctx, demoSchoolID, st); err != nil {
			return nil, err
		}
	}

	for _, o := range demoOffences {
		if _, err := cat.CreateOffence(ctx, demoSchoolID, o.name, o.desc, o.points); err != nil {
			return nil, err
		}
	}

	logger.Info("demo school seeded",
		zap.String("school_id", demoSchoolID),
		zap.String("admin_id", admin.ID),
		zap.String("teacher_id", teacher.ID),
		zap.String("parent_id", parent.ID))

	var actors []models.Actor
	for _, u := range []models.User{admin, teacher, parent} {
		actors = append(actors, models.Actor{ID: u.ID, Name: u.Name, Role: u.Role, SchoolID: u.SchoolID})
	}
	return actors, nil
}
