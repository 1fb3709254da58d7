package availability

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/db"
)

var ruleConstraints = db.ConstraintMessages{
	"availability_rules_weekday_check":  "weekday is out of range",
	"availability_rules_doctor_id_fkey": "unknown doctor",
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) List(ctx context.Context, doctorID uuid.UUID) ([]Weekday, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT weekday FROM availability_rules WHERE doctor_id = $1 ORDER BY weekday`, doctorID)
	if err != nil {
		return nil, db.Translate(err, "list availability")
	}
	days, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Weekday, error) {
		var d int16
		err := row.Scan(&d)
		return Weekday(d), err
	})
	if err != nil {
		return nil, db.Translate(err, "list availability")
	}
	return days, nil
}

func (r *repoPG) Replace(ctx context.Context, doctorID uuid.UUID, days []Weekday) error {
	conn := db.Conn(ctx, r.pool)
	if _, err := conn.Exec(ctx, `DELETE FROM availability_rules WHERE doctor_id = $1`, doctorID); err != nil {
		return db.Translate(err, "clear availability")
	}
	if len(days) == 0 {
		return nil
	}
	ints := make([]int16, len(days))
	for i, d := range days {
		ints[i] = int16(d)
	}
	_, err := conn.Exec(ctx, `
		INSERT INTO availability_rules (doctor_id, weekday)
		SELECT $1, d FROM unnest($2::smallint[]) AS d`, doctorID, ints)
	return db.Translate(err, "insert availability", ruleConstraints)
}

func (r *repoPG) Has(ctx context.Context, doctorID uuid.UUID, day Weekday) (bool, error) {
	var ok bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM availability_rules WHERE doctor_id = $1 AND weekday = $2)`,
		doctorID, int16(day)).Scan(&ok)
	return ok, db.Translate(err, "check availability")
}
