package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/estimate-engine/estimator"
	"github.com/warp/estimate-engine/store"
	"github.com/warp/estimate-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func kitchenProject(id string) store.Project {
	return store.Project{
		ID:   id,
		Name: "Kitchen remodel",
		Categories: []estimator.Category{
			{
				Name: "Flooring",
				Items: []estimator.WorkItem{
					{
						Name:            "Oak planks",
						MeasurementType: estimator.MeasureSquareFoot,
						Sqft:            estimator.Num(180),
						MaterialCost:    estimator.Num(6.50),
						LaborCost:       estimator.Num(3.25),
					},
				},
			},
		},
		Settings: estimator.Settings{
			TaxRate: estimator.Num(0.08),
			Markup:  estimator.Num(0.15),
		},
	}
}

func TestSaveAndGet_RoundTrip(t *testing.T) {
	// GIVEN: A project with categories and settings
	// WHEN: Saving and loading it back
	// THEN: The record round-trips intact through the JSON columns

	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, kitchenProject("p1")))

	got, err := s.Get(ctx, "p1")
	require.NoError(t, err)

	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "Kitchen remodel", got.Name)
	require.Len(t, got.Categories, 1)
	assert.Equal(t, "Oak planks", got.Categories[0].Items[0].Name)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())

	// The loaded record must price identically to the saved one.
	engine := estimator.NewEngine(got.Categories, &got.Settings, estimator.Options{})
	totals := engine.Totals()
	assert.Equal(t, "1170.00", totals.MaterialCost)
	assert.Equal(t, "585.00", totals.LaborCost)
}

func TestSave_UpsertPreservesCreatedAt(t *testing.T) {
	// GIVEN: A saved project
	// WHEN: Saving the same id again with changes
	// THEN: The row is replaced and the original creation time kept

	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, kitchenProject("p1")))
	first, err := s.Get(ctx, "p1")
	require.NoError(t, err)

	updated := kitchenProject("p1")
	updated.Name = "Kitchen remodel v2"
	updated.CreatedAt = first.CreatedAt
	require.NoError(t, s.Save(ctx, updated))

	got, err := s.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Kitchen remodel v2", got.Name)
	assert.True(t, got.CreatedAt.Equal(first.CreatedAt))

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGet_MissingID(t *testing.T) {
	s := newStore(t)

	_, err := s.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, estimator.ErrProjectNotFound))
}

func TestList_OrderedByName(t *testing.T) {
	// GIVEN: Projects saved out of order
	// WHEN: Listing
	// THEN: Results come back sorted by name

	s := newStore(t)
	ctx := context.Background()

	for _, p := range []store.Project{
		{ID: "a", Name: "Zeta bathroom"},
		{ID: "b", Name: "Attic conversion"},
		{ID: "c", Name: "Master bath"},
	} {
		require.NoError(t, s.Save(ctx, p))
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Attic conversion", list[0].Name)
	assert.Equal(t, "Master bath", list[1].Name)
	assert.Equal(t, "Zeta bathroom", list[2].Name)
}

func TestDelete(t *testing.T) {
	// GIVEN: A saved project
	// WHEN: Deleting it, then deleting a missing id
	// THEN: The record is gone and the second delete is not an error

	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, kitchenProject("p1")))
	require.NoError(t, s.Delete(ctx, "p1"))

	_, err := s.Get(ctx, "p1")
	assert.True(t, errors.Is(err, estimator.ErrProjectNotFound))

	assert.NoError(t, s.Delete(ctx, "ghost"))
}

func TestSave_StringRatesSurviveStorage(t *testing.T) {
	// GIVEN: An item whose rates are decorated strings, as older records
	//        carry them
	// WHEN: Round-tripping through the store
	// THEN: The flexible fields keep their string form and still price

	s := newStore(t)
	ctx := context.Background()

	p := store.Project{
		ID:   "legacy",
		Name: "Legacy import",
		Categories: []estimator.Category{
			{
				Name: "Fixtures",
				Items: []estimator.WorkItem{
					{
						Name:            "Vanity",
						MeasurementType: estimator.MeasureByUnit,
						Units:           estimator.Num(2),
						MaterialCost:    estimator.Str("$1,250.00"),
					},
				},
			},
		},
	}
	require.NoError(t, s.Save(ctx, p))

	got, err := s.Get(ctx, "legacy")
	require.NoError(t, err)

	engine := estimator.NewEngine(got.Categories, &got.Settings, estimator.Options{})
	result := engine.PriceItem(got.Categories[0].Items[0])
	assert.Equal(t, "2500.00", result.MaterialCost)
	assert.Empty(t, result.Errors)
}
