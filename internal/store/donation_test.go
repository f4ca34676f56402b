package store

import (
	"testing"
	"time"

	"github.com/rbfontana/acolhe/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func newTestFamily(t *testing.T, families *FamilyStore, name string) *model.Family {
	t.Helper()
	f, err := families.Create(model.Family{ResponsibleName: name})
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	return f
}

func lastDonationOf(t *testing.T, families *FamilyStore, id int64) *time.Time {
	t.Helper()
	f, err := families.GetByID(id)
	if err != nil {
		t.Fatalf("get family: %v", err)
	}
	if f == nil {
		t.Fatalf("family %d missing", id)
	}
	return f.LastDonation
}

func TestDonationCreateSetsLastDonation(t *testing.T) {
	db := openTestDB(t)
	families := NewFamilyStore(db)
	donations := NewDonationStore(db)

	f := newTestFamily(t, families, "Maria Souza")

	d, err := donations.Create(model.Donation{
		FamilyID:     f.ID,
		DonationType: "Alimentos perecíveis",
		Date:         day("2026-08-10"),
	})
	if err != nil {
		t.Fatalf("create donation: %v", err)
	}
	if d.FamilyName != "Maria Souza" {
		t.Errorf("family name snapshot = %q", d.FamilyName)
	}

	last := lastDonationOf(t, families, f.ID)
	if last == nil || !last.Equal(day("2026-08-10")) {
		t.Errorf("last donation = %v, want 2026-08-10", last)
	}
}

func TestBackdatedDonationDoesNotRegress(t *testing.T) {
	db := openTestDB(t)
	families := NewFamilyStore(db)
	donations := NewDonationStore(db)

	f := newTestFamily(t, families, "João Lima")

	mustCreate := func(date time.Time) {
		t.Helper()
		if _, err := donations.Create(model.Donation{FamilyID: f.ID, DonationType: "Alimentos não perecíveis", Date: date}); err != nil {
			t.Fatalf("create donation: %v", err)
		}
	}

	mustCreate(day("2026-08-20"))
	mustCreate(day("2026-07-01")) // backdated entry

	last := lastDonationOf(t, families, f.ID)
	if last == nil || !last.Equal(day("2026-08-20")) {
		t.Errorf("last donation = %v, want 2026-08-20 after backdated entry", last)
	}

	// Same date as the current maximum still counts as the latest.
	mustCreate(day("2026-08-20"))
	last = lastDonationOf(t, families, f.ID)
	if last == nil || !last.Equal(day("2026-08-20")) {
		t.Errorf("last donation = %v after equal-date entry", last)
	}
}

func TestDeleteMaxRecomputesToNext(t *testing.T) {
	db := openTestDB(t)
	families := NewFamilyStore(db)
	donations := NewDonationStore(db)

	f := newTestFamily(t, families, "Ana Prado")

	if _, err := donations.Create(model.Donation{FamilyID: f.ID, DonationType: "Roupas", Date: day("2026-06-15")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	newest, err := donations.Create(model.Donation{FamilyID: f.ID, DonationType: "Roupas", Date: day("2026-08-01")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := donations.Delete(newest.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	last := lastDonationOf(t, families, f.ID)
	if last == nil || !last.Equal(day("2026-06-15")) {
		t.Errorf("last donation = %v, want 2026-06-15 after deleting the max", last)
	}
}

func TestDeleteLastDonationClearsField(t *testing.T) {
	db := openTestDB(t)
	families := NewFamilyStore(db)
	donations := NewDonationStore(db)

	f := newTestFamily(t, families, "Carlos Dias")

	d, err := donations.Create(model.Donation{FamilyID: f.ID, DonationType: "Medicamentos", Date: day("2026-08-05")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := donations.Delete(d.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if last := lastDonationOf(t, families, f.ID); last != nil {
		t.Errorf("last donation = %v, want nil after removing the only record", last)
	}
}

func TestDeleteNonMaxKeepsLastDonation(t *testing.T) {
	db := openTestDB(t)
	families := NewFamilyStore(db)
	donations := NewDonationStore(db)

	f := newTestFamily(t, families, "Rita Nunes")

	older, err := donations.Create(model.Donation{FamilyID: f.ID, DonationType: "Produtos de higiene", Date: day("2026-05-01")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := donations.Create(model.Donation{FamilyID: f.ID, DonationType: "Produtos de higiene", Date: day("2026-08-01")}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := donations.Delete(older.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	last := lastDonationOf(t, families, f.ID)
	if last == nil || !last.Equal(day("2026-08-01")) {
		t.Errorf("last donation = %v, want 2026-08-01 unchanged", last)
	}
}

func TestRecomputeLastDonationIdempotent(t *testing.T) {
	db := openTestDB(t)
	families := NewFamilyStore(db)
	donations := NewDonationStore(db)

	f := newTestFamily(t, families, "Paula Reis")

	if _, err := donations.Create(model.Donation{FamilyID: f.ID, DonationType: "Outros", Date: day("2026-07-20")}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := donations.RecomputeLastDonation(f.ID); err != nil {
		t.Fatalf("first recompute: %v", err)
	}
	first := lastDonationOf(t, families, f.ID)

	if err := donations.RecomputeLastDonation(f.ID); err != nil {
		t.Fatalf("second recompute: %v", err)
	}
	second := lastDonationOf(t, families, f.ID)

	if first == nil || second == nil || !first.Equal(*second) {
		t.Errorf("recompute not stable: %v then %v", first, second)
	}
}

func TestDonationUnknownFamily(t *testing.T) {
	db := openTestDB(t)
	donations := NewDonationStore(db)

	_, err := donations.Create(model.Donation{FamilyID: 12345, DonationType: "Roupas", Date: day("2026-08-01")})
	if err != ErrFamilyNotFound {
		t.Fatalf("err = %v, want ErrFamilyNotFound", err)
	}

	list, err := donations.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("rejected donation was persisted: %d records", len(list))
	}
}

func TestDonationDeleteNotFound(t *testing.T) {
	db := openTestDB(t)
	donations := NewDonationStore(db)

	if err := donations.Delete(777); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFamilyDeleteKeepsDonationHistory(t *testing.T) {
	db := openTestDB(t)
	families := NewFamilyStore(db)
	donations := NewDonationStore(db)

	f := newTestFamily(t, families, "Sofia Melo")
	if _, err := donations.Create(model.Donation{FamilyID: f.ID, DonationType: "Brinquedos", Date: day("2026-08-10")}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := families.Delete(f.ID); err != nil {
		t.Fatalf("delete family: %v", err)
	}

	kept, err := donations.ListByFamily(f.ID)
	if err != nil {
		t.Fatalf("list by family: %v", err)
	}
	if len(kept) != 1 {
		t.Fatalf("donations after family delete = %d, want 1", len(kept))
	}
	if kept[0].FamilyName != "Sofia Melo" {
		t.Errorf("family name snapshot = %q", kept[0].FamilyName)
	}

	// Recomputing against the gone family is a no-op, not an error.
	if err := donations.RecomputeLastDonation(f.ID); err != nil {
		t.Fatalf("recompute for deleted family: %v", err)
	}
}

func TestDonationListOrder(t *testing.T) {
	db := openTestDB(t)
	families := NewFamilyStore(db)
	donations := NewDonationStore(db)

	f := newTestFamily(t, families, "Marcos Reis")

	mid, err := donations.Create(model.Donation{FamilyID: f.ID, DonationType: "Roupas", Date: day("2026-07-10")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	newest, err := donations.Create(model.Donation{FamilyID: f.ID, DonationType: "Roupas", Date: day("2026-08-10")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	oldest, err := donations.Create(model.Donation{FamilyID: f.ID, DonationType: "Roupas", Date: day("2026-06-10")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := donations.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []int64{newest.ID, mid.ID, oldest.ID}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("list[%d].ID = %d, want %d", i, list[i].ID, id)
		}
	}
}
