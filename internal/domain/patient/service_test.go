package patient

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	patients map[uuid.UUID]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return ErrNotFound
	}
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.patients[id]; !ok {
		return ErrNotFound
	}
	delete(m.patients, id)
	return nil
}

func (m *mockRepo) Search(_ context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	var result []*Patient
	for _, p := range m.patients {
		if name, ok := params["name"]; ok && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
			continue
		}
		result = append(result, p)
	}
	return result, len(result), nil
}

// -- Tests --

func newTestService() *Service {
	return NewService(newMockRepo())
}

func TestCreatePatient(t *testing.T) {
	svc := newTestService()
	p := &Patient{Name: "Ada Verma"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("expected ID to be assigned")
	}
}

func TestCreatePatient_NameRequired(t *testing.T) {
	svc := newTestService()
	if err := svc.CreatePatient(context.Background(), &Patient{}); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestCreatePatient_InvalidGender(t *testing.T) {
	svc := newTestService()
	g := "bogus"
	if err := svc.CreatePatient(context.Background(), &Patient{Name: "Ada", Gender: &g}); err == nil {
		t.Error("expected error for invalid gender")
	}
}

func TestGetPatient_NotFound(t *testing.T) {
	svc := newTestService()
	if _, err := svc.GetPatient(context.Background(), uuid.New()); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePatient(t *testing.T) {
	svc := newTestService()
	p := &Patient{Name: "Ada Verma"}
	svc.CreatePatient(context.Background(), p)
	p.Name = "Ada V. Verma"
	if err := svc.UpdatePatient(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := svc.GetPatient(context.Background(), p.ID)
	if got.Name != "Ada V. Verma" {
		t.Errorf("expected updated name, got %s", got.Name)
	}
}

func TestDeletePatient(t *testing.T) {
	svc := newTestService()
	p := &Patient{Name: "Ada Verma"}
	svc.CreatePatient(context.Background(), p)
	if err := svc.DeletePatient(context.Background(), p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetPatient(context.Background(), p.ID); err != ErrNotFound {
		t.Error("expected patient to be gone")
	}
}

func TestSearchPatients_ByName(t *testing.T) {
	svc := newTestService()
	svc.CreatePatient(context.Background(), &Patient{Name: "Ada Verma"})
	svc.CreatePatient(context.Background(), &Patient{Name: "Benoit Okafor"})

	items, total, err := svc.SearchPatients(context.Background(), map[string]string{"name": "verma"}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 {
		t.Errorf("expected 1, got %d", total)
	}
	if len(items) != 1 || items[0].Name != "Ada Verma" {
		t.Error("expected only the matching patient")
	}
}
