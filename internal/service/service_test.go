package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/aanand-mishra/patients-api/internal/storage"
	"github.com/aanand-mishra/patients-api/internal/storage/memory"
	"github.com/aanand-mishra/patients-api/internal/types"
)

func patient(id string, height, weight float64) types.Patient {
	return types.Patient{ID: id, Record: types.Record{Name: "N" + id, City: "C", Age: 30, Gender: "other", Height: height, Weight: weight}}
}

func newTestService(ps ...types.Patient) (*Service, *memory.Store) {
	c := types.NewCollection()
	for _, p := range ps {
		c.Insert(p.ID, p.Record)
	}
	store := memory.New(c)
	return New(store), store
}

func ids(ps []types.Patient) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

// failingStore fails every call with a storage error.
type failingStore struct{}

func (failingStore) Load(context.Context) (*types.Collection, error) {
	return nil, storage.LoadError("fake", errors.New("disk on fire"))
}

func (failingStore) Save(context.Context, *types.Collection) error {
	return storage.SaveError("fake", errors.New("disk on fire"))
}

// saveFailingStore loads fine but cannot save.
type saveFailingStore struct{ *memory.Store }

func (saveFailingStore) Save(context.Context, *types.Collection) error {
	return storage.SaveError("fake", errors.New("read-only"))
}

func TestCreateThenGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	in := types.Patient{ID: "P010", Record: types.Record{Name: "Alex", City: "Pune", Age: 30, Gender: "male", Height: 1.75, Weight: 80}}
	created, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created != in {
		t.Errorf("Create returned %+v", created)
	}

	got, err := svc.Get(ctx, "P010")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != in {
		t.Errorf("Get = %+v, want %+v", got, in)
	}
	if got.BMI() != 26.12 || got.Verdict() != types.VerdictNormal {
		t.Errorf("derived = %v %q", got.BMI(), got.Verdict())
	}
}

func TestCreate_Conflict(t *testing.T) {
	ctx := context.Background()
	orig := patient("P1", 1.7, 70)
	svc, store := newTestService(orig)

	_, err := svc.Create(ctx, patient("P1", 1.9, 120))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	got, _ := svc.Get(ctx, "P1")
	if got != orig {
		t.Errorf("existing record changed: %+v", got)
	}
	if store.Saves() != 0 {
		t.Errorf("Saves() = %d, want 0", store.Saves())
	}
}

func TestCreate_ValidationBeforeStorage(t *testing.T) {
	svc := New(failingStore{})

	_, err := svc.Create(context.Background(), types.Patient{ID: "P1", Record: types.Record{Name: "A", Age: 0, Gender: "male", Height: 1, Weight: 1}})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestCreate_RejectsNonFiniteBMI(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()

	_, err := svc.Create(ctx, patient("P9", 1e-200, 90))
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields[0].Field != "height" {
		t.Fatalf("err = %v, want height validation error", err)
	}
	if store.Saves() != 0 {
		t.Errorf("Saves() = %d, want 0", store.Saves())
	}
	if _, err := svc.Get(ctx, "P9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after rejected create: err = %v", err)
	}
}

func TestCreate_SaveError(t *testing.T) {
	ctx := context.Background()
	svc := New(saveFailingStore{memory.New(nil)})

	_, err := svc.Create(ctx, patient("P1", 1.7, 70))
	if !errors.Is(err, storage.ErrStorage) {
		t.Fatalf("err = %v, want ErrStorage", err)
	}
	if _, err := svc.Get(ctx, "P1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after failed save: err = %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newTestService(patient("P1", 1.7, 70))

	_, err := svc.Get(context.Background(), "P404")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStorageErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	svc := New(failingStore{})

	if _, err := svc.View(ctx); !errors.Is(err, storage.ErrStorage) {
		t.Errorf("View err = %v", err)
	}
	if _, err := svc.Get(ctx, "P1"); !errors.Is(err, storage.ErrStorage) {
		t.Errorf("Get err = %v", err)
	}
	if _, err := svc.Sort(ctx, "bmi", "asc"); !errors.Is(err, storage.ErrStorage) {
		t.Errorf("Sort err = %v", err)
	}
	if _, err := svc.Create(ctx, patient("P1", 1.7, 70)); !errors.Is(err, storage.ErrStorage) {
		t.Errorf("Create err = %v", err)
	}
}

func TestView_StorageOrder(t *testing.T) {
	svc, _ := newTestService(patient("P3", 1, 1), patient("P1", 1, 1), patient("P2", 1, 1))

	c, err := svc.View(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c.IDs(), []string{"P3", "P1", "P2"}) {
		t.Errorf("IDs = %v", c.IDs())
	}
}

func TestSort_WeightDesc(t *testing.T) {
	svc, _ := newTestService(patient("P1", 1.7, 50), patient("P2", 1.7, 90))

	got, err := svc.Sort(context.Background(), "weight", "desc")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids(got), []string{"P2", "P1"}) {
		t.Errorf("order = %v, want [P2 P1]", ids(got))
	}
}

func TestSort_ByEachField(t *testing.T) {
	// heights: P1 < P2 < P3; weights: P3 < P1 < P2; bmi: P3 (10) < P2 (~22.5) < P1 (~34.6)
	svc, _ := newTestService(patient("P1", 1.5, 78), patient("P2", 2.0, 90), patient("P3", 2.2, 48.4))

	tests := []struct {
		field string
		want  []string
	}{
		{"height", []string{"P1", "P2", "P3"}},
		{"weight", []string{"P3", "P1", "P2"}},
		{"bmi", []string{"P3", "P2", "P1"}},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			asc, err := svc.Sort(context.Background(), tt.field, "asc")
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(ids(asc), tt.want) {
				t.Errorf("asc = %v, want %v", ids(asc), tt.want)
			}

			desc, err := svc.Sort(context.Background(), tt.field, "desc")
			if err != nil {
				t.Fatal(err)
			}
			reversed := make([]string, len(asc))
			for i, p := range asc {
				reversed[len(asc)-1-i] = p.ID
			}
			if !reflect.DeepEqual(ids(desc), reversed) {
				t.Errorf("desc = %v, want reversed asc %v", ids(desc), reversed)
			}
		})
	}
}

func TestSort_StableTies(t *testing.T) {
	svc, _ := newTestService(
		patient("A", 1.7, 70),
		patient("B", 1.8, 60),
		patient("C", 1.6, 70),
		patient("D", 1.9, 60),
	)

	asc, _ := svc.Sort(context.Background(), "weight", "asc")
	if !reflect.DeepEqual(ids(asc), []string{"B", "D", "A", "C"}) {
		t.Errorf("asc = %v", ids(asc))
	}
	desc, _ := svc.Sort(context.Background(), "weight", "desc")
	if !reflect.DeepEqual(ids(desc), []string{"A", "C", "B", "D"}) {
		t.Errorf("desc = %v", ids(desc))
	}
}

func TestSort_MissingValuesSortAsZero(t *testing.T) {
	c := types.NewCollection()
	c.Insert("full", types.Record{Height: 1.7, Weight: 70})
	c.Insert("empty", types.Record{})
	svc := New(memory.New(c))

	for _, field := range []string{"height", "weight", "bmi"} {
		got, err := svc.Sort(context.Background(), field, "asc")
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(ids(got), []string{"empty", "full"}) {
			t.Errorf("%s: order = %v", field, ids(got))
		}
	}
}

func TestSort_InvalidArguments(t *testing.T) {
	svc := New(failingStore{})

	for _, tc := range []struct{ field, order string }{
		{"age", "asc"},
		{"", "asc"},
		{"bmi", "up"},
		{"bmi", ""},
		{"BMI", "asc"},
	} {
		_, err := svc.Sort(context.Background(), tc.field, tc.order)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Sort(%q, %q) err = %v, want ErrInvalidArgument", tc.field, tc.order, err)
		}
	}
}

func TestCreate_ConcurrentDistinctIDs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.Create(ctx, patient(fmt.Sprintf("P%03d", i), 1.7, 70)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Create: %v", err)
	}

	c, err := svc.View(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != n {
		t.Errorf("stored %d patients, want %d (lost update)", c.Len(), n)
	}
}

func TestCreate_ConcurrentSameID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	const n = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Create(ctx, patient("SAME", 1.5+float64(i)/100, 70))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if successes != 1 || conflicts != n-1 {
		t.Errorf("successes=%d conflicts=%d", successes, conflicts)
	}
}
