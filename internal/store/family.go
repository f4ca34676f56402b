package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rbfontana/acolhe/internal/model"
)

type FamilyStore struct {
	db *sql.DB
}

func NewFamilyStore(db *sql.DB) *FamilyStore {
	return &FamilyStore{db: db}
}

const familyCols = `id, responsible_name, member_count, phone, email, cep, address, neighborhood, city, state, complement, number, observations, last_donation, created_at`

func scanFamily(scanner interface{ Scan(...any) error }) (*model.Family, error) {
	var f model.Family
	var lastDonation sql.NullTime
	err := scanner.Scan(
		&f.ID, &f.ResponsibleName, &f.MemberCount, &f.Phone, &f.Email,
		&f.CEP, &f.Address, &f.Neighborhood, &f.City, &f.State,
		&f.Complement, &f.Number, &f.Observations, &lastDonation, &f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastDonation.Valid {
		t := lastDonation.Time.UTC()
		f.LastDonation = &t
	}
	return &f, nil
}

// normalizeMembers fills in missing member ids and clamps negative ages.
// The member count is always derived from the list, never trusted from
// the caller.
func normalizeMembers(members []model.FamilyMember) []model.FamilyMember {
	out := make([]model.FamilyMember, len(members))
	for i, m := range members {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.Age < 0 {
			m.Age = 0
		}
		out[i] = m
	}
	return out
}

// Create stores a new family. The id, created_at, and member_count fields
// of f are ignored; last_donation always starts absent.
func (s *FamilyStore) Create(f model.Family) (*model.Family, error) {
	members := normalizeMembers(f.Members)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO families (responsible_name, member_count, phone, email, cep, address, neighborhood, city, state, complement, number, observations)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ResponsibleName, len(members), f.Phone, f.Email, f.CEP, f.Address,
		f.Neighborhood, f.City, f.State, f.Complement, f.Number, f.Observations,
	)
	if err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := replaceMembers(tx, id, members); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return s.GetByID(id)
}

func replaceMembers(tx *sql.Tx, familyID int64, members []model.FamilyMember) error {
	if _, err := tx.Exec(`DELETE FROM family_members WHERE family_id = ?`, familyID); err != nil {
		return fmt.Errorf("clear members: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO family_members (family_id, member_id, age, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare member insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range members {
		if _, err := stmt.Exec(familyID, m.ID, m.Age, i); err != nil {
			return fmt.Errorf("insert member %s: %w", m.ID, err)
		}
	}
	return nil
}

func (s *FamilyStore) GetByID(id int64) (*model.Family, error) {
	row := s.db.QueryRow(`SELECT `+familyCols+` FROM families WHERE id = ?`, id)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	if err := s.loadMembers(f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FamilyStore) loadMembers(f *model.Family) error {
	rows, err := s.db.Query(
		`SELECT member_id, age FROM family_members WHERE family_id = ? ORDER BY position`,
		f.ID,
	)
	if err != nil {
		return fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	f.Members = []model.FamilyMember{}
	for rows.Next() {
		var m model.FamilyMember
		if err := rows.Scan(&m.ID, &m.Age); err != nil {
			return fmt.Errorf("scan member: %w", err)
		}
		f.Members = append(f.Members, m)
	}
	return rows.Err()
}

// List returns all families ordered by creation time, newest first.
func (s *FamilyStore) List() ([]model.Family, error) {
	rows, err := s.db.Query(`SELECT ` + familyCols + ` FROM families ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query families: %w", err)
	}
	defer rows.Close()

	var families []model.Family
	byID := make(map[int64]int)
	for rows.Next() {
		f, err := scanFamily(rows)
		if err != nil {
			return nil, fmt.Errorf("scan family: %w", err)
		}
		f.Members = []model.FamilyMember{}
		byID[f.ID] = len(families)
		families = append(families, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	memberRows, err := s.db.Query(`SELECT family_id, member_id, age FROM family_members ORDER BY family_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var familyID int64
		var m model.FamilyMember
		if err := memberRows.Scan(&familyID, &m.ID, &m.Age); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		if i, ok := byID[familyID]; ok {
			families[i].Members = append(families[i].Members, m)
		}
	}
	return families, memberRows.Err()
}

// FamilyUpdate holds a partial update: nil fields are left untouched.
type FamilyUpdate struct {
	ResponsibleName *string
	Phone           *string
	Email           *string
	CEP             *string
	Address         *string
	Neighborhood    *string
	City            *string
	State           *string
	Complement      *string
	Number          *string
	Observations    *string
	Members         *[]model.FamilyMember
}

// Update merges the supplied fields into the family. When the member list
// is part of the update the member count is re-derived from it. Returns
// ErrNotFound when no family has the given id.
func (s *FamilyStore) Update(id int64, u FamilyUpdate) (*model.Family, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM families WHERE id = ?`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check family: %w", err)
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	set := []string{}
	args := []any{}
	add := func(col string, v *string) {
		if v != nil {
			set = append(set, col+" = ?")
			args = append(args, *v)
		}
	}
	add("responsible_name", u.ResponsibleName)
	add("phone", u.Phone)
	add("email", u.Email)
	add("cep", u.CEP)
	add("address", u.Address)
	add("neighborhood", u.Neighborhood)
	add("city", u.City)
	add("state", u.State)
	add("complement", u.Complement)
	add("number", u.Number)
	add("observations", u.Observations)

	var members []model.FamilyMember
	if u.Members != nil {
		members = normalizeMembers(*u.Members)
		set = append(set, "member_count = ?")
		args = append(args, len(members))
	}

	if len(set) > 0 {
		query := "UPDATE families SET "
		for i, clause := range set {
			if i > 0 {
				query += ", "
			}
			query += clause
		}
		query += " WHERE id = ?"
		args = append(args, id)
		if _, err := tx.Exec(query, args...); err != nil {
			return nil, fmt.Errorf("update family: %w", err)
		}
	}

	if u.Members != nil {
		if err := replaceMembers(tx, id, members); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return s.GetByID(id)
}

// Delete removes the family and its member rows. Donation records that
// reference the family are intentionally left in place.
func (s *FamilyStore) Delete(id int64) error {
	result, err := s.db.Exec(`DELETE FROM families WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete family: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// setLastDonation is the add-path of the last-donation bookkeeping: it
// bumps the stored value only when the new date is not older than the
// current one, so a backdated entry never rolls the field backwards.
func setLastDonation(tx *sql.Tx, familyID int64, date time.Time) error {
	var current sql.NullTime
	err := tx.QueryRow(`SELECT last_donation FROM families WHERE id = ?`, familyID).Scan(&current)
	if err == sql.ErrNoRows {
		return ErrFamilyNotFound
	}
	if err != nil {
		return fmt.Errorf("read last donation: %w", err)
	}
	if current.Valid && date.Before(current.Time) {
		return nil
	}
	if _, err := tx.Exec(`UPDATE families SET last_donation = ? WHERE id = ?`, date.UTC(), familyID); err != nil {
		return fmt.Errorf("set last donation: %w", err)
	}
	return nil
}
