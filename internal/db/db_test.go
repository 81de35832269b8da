//go:build integration

package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/stepgraph"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *Client
var testContainer testcontainers.Container

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	// Start SurrealDB container
	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	// Get container host and port
	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	// Connect to test database
	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Run tests
	code := m.Run()

	// Cleanup
	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

// newRecipe creates a recipe that is removed when the test ends.
func newRecipe(t *testing.T, title string) string {
	t.Helper()
	ctx := context.Background()

	r, err := testDB.CreateRecipe(ctx, models.RecipeInput{Title: title})
	if err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}
	t.Cleanup(func() {
		_, _ = testDB.DeleteRecipe(ctx, r.ID)
	})
	return r.ID
}

func addStep(t *testing.T, recipeID, desc string, uses ...int) *models.RecipeStep {
	t.Helper()
	st, err := testDB.CreateStepWithEdges(context.Background(), models.RecipeStep{
		RecipeID:    recipeID,
		Description: desc,
	}, uses)
	if err != nil {
		t.Fatalf("CreateStepWithEdges(%q) failed: %v", desc, err)
	}
	return st
}

// =============================================================================
// RECIPE TESTS
// =============================================================================

func TestRecipeLifecycle(t *testing.T) {
	ctx := context.Background()

	servings := 4
	created, err := testDB.CreateRecipe(ctx, models.RecipeInput{
		ID:       "lifecycle-bread",
		Title:    "Bread",
		Servings: &servings,
	})
	if err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}
	if created.ID != "lifecycle-bread" {
		t.Errorf("Expected ID 'lifecycle-bread', got %q", created.ID)
	}
	if created.Servings == nil || *created.Servings != 4 {
		t.Errorf("Expected servings 4, got %v", created.Servings)
	}

	// Duplicate ID
	_, err = testDB.CreateRecipe(ctx, models.RecipeInput{ID: "lifecycle-bread", Title: "Again"})
	if !errors.Is(err, ErrRecordAlreadyExists) {
		t.Errorf("Expected ErrRecordAlreadyExists, got %v", err)
	}

	got, err := testDB.GetRecipe(ctx, "lifecycle-bread")
	if err != nil {
		t.Fatalf("GetRecipe failed: %v", err)
	}
	if got == nil || got.Title != "Bread" {
		t.Fatalf("GetRecipe returned %+v", got)
	}

	addStep(t, got.ID, "mix")

	deleted, err := testDB.DeleteRecipe(ctx, got.ID)
	if err != nil {
		t.Fatalf("DeleteRecipe failed: %v", err)
	}
	if !deleted {
		t.Error("DeleteRecipe should return true for existing recipe")
	}

	steps, err := testDB.ListSteps(ctx, got.ID)
	if err != nil {
		t.Fatalf("ListSteps failed: %v", err)
	}
	if len(steps) != 0 {
		t.Errorf("Expected steps to be deleted with recipe, got %d", len(steps))
	}

	// Delete non-existent
	deleted, err = testDB.DeleteRecipe(ctx, got.ID)
	if err != nil {
		t.Errorf("DeleteRecipe with non-existent ID should not error: %v", err)
	}
	if deleted {
		t.Error("DeleteRecipe with non-existent ID should return false")
	}
}

// =============================================================================
// STEP TESTS
// =============================================================================

func TestCreateStepWithEdges(t *testing.T) {
	ctx := context.Background()
	recipeID := newRecipe(t, "Pizza")

	dough := addStep(t, recipeID, "make dough")
	sauce := addStep(t, recipeID, "make sauce")
	title := "Assemble"
	duration := 15
	assemble, err := testDB.CreateStepWithEdges(ctx, models.RecipeStep{
		RecipeID:    recipeID,
		Description: "assemble",
		StepTitle:   &title,
		Duration:    &duration,
	}, []int{1, 2})
	if err != nil {
		t.Fatalf("CreateStepWithEdges failed: %v", err)
	}

	if dough.StepNum != 1 || sauce.StepNum != 2 || assemble.StepNum != 3 {
		t.Errorf("Expected step numbers 1,2,3, got %d,%d,%d", dough.StepNum, sauce.StepNum, assemble.StepNum)
	}
	if assemble.StepTitle == nil || *assemble.StepTitle != "Assemble" {
		t.Errorf("Expected title 'Assemble', got %v", assemble.StepTitle)
	}
	if dough.StepTitle != nil {
		t.Errorf("Expected nil title, got %q", *dough.StepTitle)
	}

	edges, err := testDB.ListEdges(ctx, recipeID)
	if err != nil {
		t.Fatalf("ListEdges failed: %v", err)
	}
	want := []models.StepOutputUse{
		{RecipeID: recipeID, OutputStepNum: 1, InputStepNum: 3},
		{RecipeID: recipeID, OutputStepNum: 2, InputStepNum: 3},
	}
	if len(edges) != len(want) {
		t.Fatalf("Expected %d edges, got %d: %+v", len(want), len(edges), edges)
	}
	for i := range want {
		if edges[i] != want[i] {
			t.Errorf("edge %d: expected %+v, got %+v", i, want[i], edges[i])
		}
	}
}

func TestCreateStepUnknownDependency(t *testing.T) {
	ctx := context.Background()
	recipeID := newRecipe(t, "Soup")
	addStep(t, recipeID, "chop")

	_, err := testDB.CreateStepWithEdges(ctx, models.RecipeStep{
		RecipeID:    recipeID,
		Description: "boil",
	}, []int{1, 7})
	if !errors.Is(err, stepgraph.ErrUnknownStep) {
		t.Fatalf("Expected ErrUnknownStep, got %v", err)
	}

	// The failed transaction left nothing behind
	steps, _ := testDB.ListSteps(ctx, recipeID)
	if len(steps) != 1 {
		t.Errorf("Expected 1 step after failed create, got %d", len(steps))
	}
	edges, _ := testDB.ListEdges(ctx, recipeID)
	if len(edges) != 0 {
		t.Errorf("Expected no edges after failed create, got %d", len(edges))
	}
}

func TestCreateStepMissingRecipe(t *testing.T) {
	_, err := testDB.CreateStepWithEdges(context.Background(), models.RecipeStep{
		RecipeID:    "no-such-recipe",
		Description: "x",
	}, nil)
	if !errors.Is(err, stepgraph.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStepNumbersSkipGaps(t *testing.T) {
	ctx := context.Background()
	recipeID := newRecipe(t, "Gaps")
	addStep(t, recipeID, "one")
	addStep(t, recipeID, "two")
	addStep(t, recipeID, "three")

	if err := testDB.DeleteStepCascade(ctx, recipeID, 2); err != nil {
		t.Fatalf("DeleteStepCascade failed: %v", err)
	}

	next := addStep(t, recipeID, "four")
	if next.StepNum != 4 {
		t.Errorf("Expected step number 4 after a gap, got %d", next.StepNum)
	}
}

func TestDeleteStepCascade(t *testing.T) {
	ctx := context.Background()
	recipeID := newRecipe(t, "Pasta")
	addStep(t, recipeID, "boil water")
	addStep(t, recipeID, "cook pasta", 1)

	// Step 1 is consumed by step 2
	err := testDB.DeleteStepCascade(ctx, recipeID, 1)
	if !errors.Is(err, stepgraph.ErrHasDependents) {
		t.Fatalf("Expected ErrHasDependents, got %v", err)
	}
	steps, _ := testDB.ListSteps(ctx, recipeID)
	if len(steps) != 2 {
		t.Fatalf("Blocked delete must not remove steps, got %d", len(steps))
	}

	qty := 500.0
	if _, err := testDB.AddIngredients(ctx, recipeID, 2, []models.Ingredient{
		{Quantity: &qty, Unit: "g", Name: "pasta"},
	}); err != nil {
		t.Fatalf("AddIngredients failed: %v", err)
	}

	if err := testDB.DeleteStepCascade(ctx, recipeID, 2); err != nil {
		t.Fatalf("DeleteStepCascade failed: %v", err)
	}
	edges, _ := testDB.ListEdges(ctx, recipeID)
	if len(edges) != 0 {
		t.Errorf("Expected edges of step 2 to be removed, got %+v", edges)
	}
	ings, _ := testDB.ListIngredients(ctx, recipeID, 2)
	if len(ings) != 0 {
		t.Errorf("Expected ingredients of step 2 to be removed, got %+v", ings)
	}

	// Now unblocked
	if err := testDB.DeleteStepCascade(ctx, recipeID, 1); err != nil {
		t.Fatalf("DeleteStepCascade after unblock failed: %v", err)
	}
	steps, _ = testDB.ListSteps(ctx, recipeID)
	if len(steps) != 0 {
		t.Errorf("Expected no steps, got %d", len(steps))
	}
}

func TestSwapStepNums(t *testing.T) {
	ctx := context.Background()
	recipeID := newRecipe(t, "Cake")
	batter := addStep(t, recipeID, "batter")
	bake := addStep(t, recipeID, "bake", 1)
	addStep(t, recipeID, "frost", 2)

	if _, err := testDB.AddIngredients(ctx, recipeID, 1, []models.Ingredient{{Name: "flour"}}); err != nil {
		t.Fatalf("AddIngredients failed: %v", err)
	}

	if err := testDB.SwapStepNums(ctx, recipeID, batter.ID, 1, bake.ID, 2); err != nil {
		t.Fatalf("SwapStepNums failed: %v", err)
	}

	gotBatter, _ := testDB.GetStep(ctx, recipeID, batter.ID)
	gotBake, _ := testDB.GetStep(ctx, recipeID, bake.ID)
	if gotBatter.StepNum != 2 || gotBake.StepNum != 1 {
		t.Errorf("Expected batter=2 bake=1, got batter=%d bake=%d", gotBatter.StepNum, gotBake.StepNum)
	}

	// Edges follow their steps: batter->bake becomes 2->1, bake->frost becomes 1->3
	edges, _ := testDB.ListEdges(ctx, recipeID)
	want := []models.StepOutputUse{
		{RecipeID: recipeID, OutputStepNum: 1, InputStepNum: 3},
		{RecipeID: recipeID, OutputStepNum: 2, InputStepNum: 1},
	}
	if len(edges) != len(want) {
		t.Fatalf("Expected %d edges, got %+v", len(want), edges)
	}
	for i := range want {
		if edges[i] != want[i] {
			t.Errorf("edge %d: expected %+v, got %+v", i, want[i], edges[i])
		}
	}

	ings, _ := testDB.ListIngredients(ctx, recipeID, 2)
	if len(ings) != 1 || ings[0].Name != "flour" {
		t.Errorf("Expected flour to follow batter to step 2, got %+v", ings)
	}

	// Unknown step
	err := testDB.SwapStepNums(ctx, recipeID, batter.ID, 2, "missing", 1)
	if !errors.Is(err, stepgraph.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	// Stale numbers: batter is now 2, not 1
	err = testDB.SwapStepNums(ctx, recipeID, batter.ID, 1, bake.ID, 2)
	if !errors.Is(err, stepgraph.ErrStepMoved) {
		t.Errorf("Expected ErrStepMoved, got %v", err)
	}
	gotBatter, _ = testDB.GetStep(ctx, recipeID, batter.ID)
	if gotBatter.StepNum != 2 {
		t.Errorf("Expected refused swap to leave batter at 2, got %d", gotBatter.StepNum)
	}
}

func TestGetStepScopedToRecipe(t *testing.T) {
	ctx := context.Background()
	a := newRecipe(t, "A")
	b := newRecipe(t, "B")
	st := addStep(t, a, "only in a")

	got, err := testDB.GetStep(ctx, b, st.ID)
	if err != nil {
		t.Fatalf("GetStep failed: %v", err)
	}
	if got != nil {
		t.Error("GetStep must not return a step of another recipe")
	}
}

// =============================================================================
// INGREDIENT TESTS
// =============================================================================

func TestIngredients(t *testing.T) {
	ctx := context.Background()
	recipeID := newRecipe(t, "Salad")
	addStep(t, recipeID, "wash")

	qty := 2.0
	added, err := testDB.AddIngredients(ctx, recipeID, 1, []models.Ingredient{
		{Quantity: &qty, Name: "tomatoes", Raw: "2 tomatoes"},
		{Name: "salt", Raw: "salt"},
	})
	if err != nil {
		t.Fatalf("AddIngredients failed: %v", err)
	}
	if len(added) != 2 || added[0].ID == "" {
		t.Fatalf("Expected 2 ingredients with IDs, got %+v", added)
	}

	listed, err := testDB.ListIngredients(ctx, recipeID, 1)
	if err != nil {
		t.Fatalf("ListIngredients failed: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("Expected 2 ingredients, got %d", len(listed))
	}

	_, err = testDB.AddIngredients(ctx, recipeID, 9, []models.Ingredient{{Name: "x"}})
	if !errors.Is(err, stepgraph.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing step, got %v", err)
	}
}

// =============================================================================
// SERVICE INTEGRATION
// =============================================================================

// TestDiamondThroughServices runs the step services against SurrealDB.
func TestDiamondThroughServices(t *testing.T) {
	ctx := context.Background()
	recipeID := newRecipe(t, "Diamond")

	creator := stepgraph.NewCreationService(testDB, nil)
	deleter := stepgraph.NewDeletionService(testDB, nil)

	for _, req := range []stepgraph.CreateStepRequest{
		{Description: "a"},
		{Description: "b", UsesSteps: []int{1}},
		{Description: "c", UsesSteps: []int{1}},
		{Description: "d", UsesSteps: []int{2, 3}},
	} {
		if _, err := creator.CreateStep(ctx, recipeID, req); err != nil {
			t.Fatalf("CreateStep failed: %v", err)
		}
	}

	steps, _ := testDB.ListSteps(ctx, recipeID)
	err := deleter.DeleteStep(ctx, recipeID, steps[0].ID)
	var blocked *stepgraph.DeletionBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("Expected DeletionBlockedError, got %v", err)
	}
	if blocked.Error() != "Cannot delete Step 1 because it is used by Steps 2 and 3" {
		t.Errorf("Unexpected message: %q", blocked.Error())
	}

	if err := deleter.DeleteStep(ctx, recipeID, steps[3].ID); err != nil {
		t.Fatalf("DeleteStep(d) failed: %v", err)
	}
}
