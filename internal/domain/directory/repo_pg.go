package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/db"
)

var dialect = goqu.Dialect("postgres")

var specialtyConstraints = db.ConstraintMessages{
	"specialties_name_key": "specialty already exists",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(s)) + "%"
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	query, args, err := dialect.From("specialties").
		Select("id", "name", "created_at").
		Order(goqu.I("name").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build specialty query: %w", err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, db.Translate(err, "list specialties")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Specialty, error) {
		var s Specialty
		err := row.Scan(&s.ID, &s.Name, &s.CreatedAt)
		return s, err
	})
	return out, db.Translate(err, "list specialties")
}

func (r *repoPG) CreateSpecialty(ctx context.Context, s *Specialty) error {
	s.ID = uuid.New()
	query, args, err := dialect.Insert("specialties").
		Rows(goqu.Record{"id": s.ID, "name": s.Name}).
		Returning("created_at").
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build specialty insert: %w", err)
	}
	err = db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&s.CreatedAt)
	return db.Translate(err, "insert specialty", specialtyConstraints)
}

func doctorsDataset(f DoctorFilter) *goqu.SelectDataset {
	ds := dialect.From(goqu.T("doctors").As("d")).
		Join(goqu.T("specialties").As("s"), goqu.On(goqu.I("s.id").Eq(goqu.I("d.specialty_id")))).
		LeftJoin(goqu.T("accounts").As("a"), goqu.On(goqu.I("a.doctor_id").Eq(goqu.I("d.id"))))

	var where []exp.Expression
	if f.Active != nil {
		where = append(where, goqu.I("d.active").Eq(*f.Active))
	}
	if f.SpecialtyID != nil {
		where = append(where, goqu.I("d.specialty_id").Eq(*f.SpecialtyID))
	}
	if strings.TrimSpace(f.Search) != "" {
		p := containsPattern(f.Search)
		where = append(where, goqu.Or(
			goqu.I("d.first_name").ILike(p),
			goqu.I("d.last_name").ILike(p),
			goqu.I("s.name").ILike(p),
		))
	}
	if len(where) > 0 {
		ds = ds.Where(where...)
	}
	return ds
}

func doctorListSQL(f DoctorFilter) (string, []interface{}, error) {
	return doctorsDataset(f).
		Select(
			goqu.I("d.id"), goqu.I("d.first_name"), goqu.I("d.last_name"),
			goqu.I("d.specialty_id"), goqu.I("s.name"), goqu.I("d.active"),
			goqu.I("a.username"), goqu.I("d.created_at"),
		).
		Order(goqu.I("d.last_name").Asc(), goqu.I("d.first_name").Asc(), goqu.I("d.id").Asc()).
		Limit(uint(f.Page.Limit)).
		Offset(uint(f.Page.Offset)).
		Prepared(true).ToSQL()
}

func doctorCountSQL(f DoctorFilter) (string, []interface{}, error) {
	return doctorsDataset(f).Select(goqu.COUNT("*")).Prepared(true).ToSQL()
}

func (r *repoPG) ListDoctors(ctx context.Context, f DoctorFilter) ([]DoctorEntry, int, error) {
	query, args, err := doctorCountSQL(f)
	if err != nil {
		return nil, 0, fmt.Errorf("build doctor count: %w", err)
	}
	total, err := r.countRows(ctx, "count doctors", query, args)
	if err != nil {
		return nil, 0, err
	}
	query, args, err = doctorListSQL(f)
	if err != nil {
		return nil, 0, fmt.Errorf("build doctor query: %w", err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.Translate(err, "list doctors")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (DoctorEntry, error) {
		var d DoctorEntry
		err := row.Scan(&d.ID, &d.FirstName, &d.LastName, &d.SpecialtyID, &d.Specialty, &d.Active, &d.Username, &d.CreatedAt)
		return d, err
	})
	if err != nil {
		return nil, 0, db.Translate(err, "list doctors")
	}
	return out, total, nil
}

func patientsDataset(f PatientFilter) *goqu.SelectDataset {
	ds := dialect.From(goqu.T("patients").As("p"))

	var where []exp.Expression
	if f.Active != nil {
		where = append(where, goqu.I("p.active").Eq(*f.Active))
	}
	if strings.TrimSpace(f.Search) != "" {
		p := containsPattern(f.Search)
		where = append(where, goqu.Or(
			goqu.I("p.first_name").ILike(p),
			goqu.I("p.last_name").ILike(p),
			goqu.I("p.email").ILike(p),
		))
	}
	if len(where) > 0 {
		ds = ds.Where(where...)
	}
	return ds
}

func patientListSQL(f PatientFilter) (string, []interface{}, error) {
	return patientsDataset(f).
		Select(
			goqu.I("p.id"), goqu.I("p.first_name"), goqu.I("p.last_name"), goqu.I("p.email"),
			goqu.I("p.phone"), goqu.I("p.birth_date"), goqu.I("p.active"), goqu.I("p.created_at"),
		).
		Order(goqu.I("p.last_name").Asc(), goqu.I("p.first_name").Asc(), goqu.I("p.id").Asc()).
		Limit(uint(f.Page.Limit)).
		Offset(uint(f.Page.Offset)).
		Prepared(true).ToSQL()
}

func patientCountSQL(f PatientFilter) (string, []interface{}, error) {
	return patientsDataset(f).Select(goqu.COUNT("*")).Prepared(true).ToSQL()
}

func (r *repoPG) ListPatients(ctx context.Context, f PatientFilter) ([]PatientEntry, int, error) {
	query, args, err := patientCountSQL(f)
	if err != nil {
		return nil, 0, fmt.Errorf("build patient count: %w", err)
	}
	total, err := r.countRows(ctx, "count patients", query, args)
	if err != nil {
		return nil, 0, err
	}
	query, args, err = patientListSQL(f)
	if err != nil {
		return nil, 0, fmt.Errorf("build patient query: %w", err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.Translate(err, "list patients")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (PatientEntry, error) {
		var p PatientEntry
		err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.BirthDate, &p.Active, &p.CreatedAt)
		return p, err
	})
	if err != nil {
		return nil, 0, db.Translate(err, "list patients")
	}
	return out, total, nil
}

// dashboardQueries returns one COUNT(*) query per dashboard counter, in
// Dashboard field order.
func dashboardQueries(w DashboardWindow) []*goqu.SelectDataset {
	return []*goqu.SelectDataset{
		dialect.From("appointments").Select(goqu.COUNT("*")).Where(
			goqu.C("appointment_time").Gte(w.DayStart),
			goqu.C("appointment_time").Lt(w.DayEnd),
			goqu.C("status").Neq("Cancelled"),
		),
		dialect.From("patients").Select(goqu.COUNT("*")).Where(goqu.C("created_at").Gte(w.MonthStart)),
		dialect.From("patients").Select(goqu.COUNT("*")),
		dialect.From("doctors").Select(goqu.COUNT("*")).Where(goqu.C("active").IsTrue()),
	}
}

func (r *repoPG) Counts(ctx context.Context, w DashboardWindow) (*Dashboard, error) {
	var d Dashboard
	targets := []*int{&d.AppointmentsToday, &d.NewPatientsThisMonth, &d.TotalPatients, &d.ActiveDoctors}
	for i, ds := range dashboardQueries(w) {
		query, args, err := ds.Prepared(true).ToSQL()
		if err != nil {
			return nil, fmt.Errorf("build dashboard query: %w", err)
		}
		n, err := r.countRows(ctx, "dashboard counts", query, args)
		if err != nil {
			return nil, err
		}
		*targets[i] = n
	}
	return &d, nil
}

func (r *repoPG) countRows(ctx context.Context, op, query string, args []interface{}) (int, error) {
	var n int64
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, db.Translate(err, op)
	}
	return int(n), nil
}
