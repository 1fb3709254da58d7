package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/db"
)

var identityConstraints = db.ConstraintMessages{
	"accounts_username_key":     "username is already taken",
	"patients_email_key":        "email is already in use",
	"doctors_specialty_id_fkey": "unknown specialty",
	"accounts_patient_id_key":   "patient already has an account",
	"accounts_doctor_id_key":    "doctor already has an account",
}

// =========== Account Repository ===========

type accountRepoPG struct{ pool *pgxpool.Pool }

func NewAccountRepoPG(pool *pgxpool.Pool) AccountRepository { return &accountRepoPG{pool: pool} }

const accountCols = `id, username, password_hash, role, patient_id, doctor_id, active, created_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var role string
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &role, &a.PatientID, &a.DoctorID, &a.Active, &a.CreatedAt); err != nil {
		return nil, err
	}
	r, err := auth.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", a.ID, err)
	}
	a.Role = r
	return &a, nil
}

func (r *accountRepoPG) Create(ctx context.Context, a *Account) error {
	a.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO accounts (id, username, password_hash, role, patient_id, doctor_id, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		a.ID, a.Username, a.PasswordHash, a.Role.String(), a.PatientID, a.DoctorID, a.Active,
	).Scan(&a.CreatedAt)
	return db.Translate(err, "insert account", identityConstraints)
}

func (r *accountRepoPG) GetByUsername(ctx context.Context, username string) (*Account, error) {
	a, err := scanAccount(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE username = $1`, username))
	if err != nil {
		return nil, db.Translate(err, "account")
	}
	return a, nil
}

func (r *accountRepoPG) setActiveBy(ctx context.Context, column string, id uuid.UUID, active bool) (uuid.UUID, error) {
	var accountID uuid.UUID
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE accounts SET active = $2 WHERE `+column+` = $1 RETURNING id`, id, active,
	).Scan(&accountID)
	return accountID, db.Translate(err, "account")
}

func (r *accountRepoPG) SetActiveByPatient(ctx context.Context, patientID uuid.UUID, active bool) (uuid.UUID, error) {
	return r.setActiveBy(ctx, "patient_id", patientID, active)
}

func (r *accountRepoPG) SetActiveByDoctor(ctx context.Context, doctorID uuid.UUID, active bool) (uuid.UUID, error) {
	return r.setActiveBy(ctx, "doctor_id", doctorID, active)
}

func (r *accountRepoPG) IsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	var active bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT active FROM accounts WHERE id = $1`, id).Scan(&active)
	return active, db.Translate(err, "account")
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

const patientCols = `id, first_name, last_name, email, phone, birth_date, active, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.BirthDate,
		&p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, db.Translate(err, "patient")
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patients (id, first_name, last_name, email, phone, birth_date, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		p.ID, p.FirstName, p.LastName, p.Email, p.Phone, p.BirthDate, p.Active,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.Translate(err, "insert patient", identityConstraints)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE patients SET first_name = $2, last_name = $3, email = $4, phone = $5,
			birth_date = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING active, created_at, updated_at`,
		p.ID, p.FirstName, p.LastName, p.Email, p.Phone, p.BirthDate,
	).Scan(&p.Active, &p.CreatedAt, &p.UpdatedAt)
	return db.Translate(err, "patient", identityConstraints)
}

func (r *patientRepoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) (*Patient, error) {
	return scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE patients SET active = $2, updated_at = NOW() WHERE id = $1
		RETURNING `+patientCols, id, active))
}

func (r *patientRepoPG) PatientActive(ctx context.Context, id uuid.UUID) (bool, error) {
	var active bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT active FROM patients WHERE id = $1`, id).Scan(&active)
	return active, db.Translate(err, "patient")
}

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

const doctorCols = `id, first_name, last_name, specialty_id, active, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.FirstName, &d.LastName, &d.SpecialtyID, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, db.Translate(err, "doctor")
	}
	return &d, nil
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO doctors (id, first_name, last_name, specialty_id, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		d.ID, d.FirstName, d.LastName, d.SpecialtyID, d.Active,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	return db.Translate(err, "insert doctor", identityConstraints)
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (r *doctorRepoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) (*Doctor, error) {
	return scanDoctor(db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE doctors SET active = $2, updated_at = NOW() WHERE id = $1
		RETURNING `+doctorCols, id, active))
}

func (r *doctorRepoPG) LockDoctor(ctx context.Context, id uuid.UUID) (bool, error) {
	var active bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT active FROM doctors WHERE id = $1 FOR UPDATE`, id).Scan(&active)
	return active, db.Translate(err, "doctor")
}

func (r *doctorRepoPG) DoctorActive(ctx context.Context, id uuid.UUID) (bool, error) {
	var active bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT active FROM doctors WHERE id = $1`, id).Scan(&active)
	return active, db.Translate(err, "doctor")
}
