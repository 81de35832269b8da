package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/stepgraph"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// CreateRecipeRequest is the body of POST /recipes.
type CreateRecipeRequest struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Servings    *int   `json:"servings,omitempty"`
}

// CreateStepRequest is the JSON body of POST /recipes/{recipeID}/steps.
// Form submissions carry the same fields, with uses_steps repeated.
type CreateStepRequest struct {
	Description string  `json:"description"`
	StepTitle   *string `json:"step_title,omitempty"`
	Duration    *int    `json:"duration,omitempty"`
	UsesSteps   []int   `json:"uses_steps,omitempty"`
}

// MoveRequest is the body of POST .../move.
type MoveRequest struct {
	Direction string `json:"direction"`
}

// MoveResponse reports whether a move changed anything.
type MoveResponse struct {
	Moved bool `json:"moved"`
}

// IngredientsRequest is the body of the ingredient endpoints.
type IngredientsRequest struct {
	Text string `json:"text"`
}

// ImportRequest is the body of POST /recipes/import. FileName supplies the
// title when the document has none.
type ImportRequest struct {
	FileName string `json:"file_name,omitempty"`
	Content  string `json:"content"`
	DryRun   bool   `json:"dry_run,omitempty"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error            string `json:"error"`
	StepNum          *int   `json:"step_num,omitempty"`
	BlockingStepNums []int  `json:"blocking_step_nums,omitempty"`
}

func decodeCreateRecipe(r *http.Request) (models.RecipeInput, error) {
	var req CreateRecipeRequest
	if err := decodeJSON(r, &req); err != nil {
		return models.RecipeInput{}, err
	}
	return models.RecipeInput{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Servings:    req.Servings,
	}, nil
}

// decodeCreateStep reads a step from JSON or from a form. Form values are
// strings, so numbers are parsed here and rejected when malformed.
func decodeCreateStep(r *http.Request) (stepgraph.CreateStepRequest, error) {
	if !isForm(r) {
		var req CreateStepRequest
		if err := decodeJSON(r, &req); err != nil {
			return stepgraph.CreateStepRequest{}, err
		}
		return stepgraph.CreateStepRequest{
			Description: req.Description,
			StepTitle:   req.StepTitle,
			Duration:    req.Duration,
			UsesSteps:   req.UsesSteps,
		}, nil
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return stepgraph.CreateStepRequest{}, &stepgraph.ValidationError{Field: "body", Message: err.Error()}
	}
	return parseStepForm(r.PostForm)
}

// parseStepForm converts loosely typed form values into a step request.
func parseStepForm(form map[string][]string) (stepgraph.CreateStepRequest, error) {
	get := func(key string) string {
		if vs := form[key]; len(vs) > 0 {
			return strings.TrimSpace(vs[0])
		}
		return ""
	}

	req := stepgraph.CreateStepRequest{Description: get("description")}
	if title := get("step_title"); title != "" {
		req.StepTitle = &title
	}
	if raw := get("duration"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			return req, &stepgraph.ValidationError{Field: "duration", Message: fmt.Sprintf("not an integer: %q", raw)}
		}
		req.Duration = &d
	}

	for _, v := range form["uses_steps"] {
		// Accept "1,2" as well as repeated fields.
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return req, &stepgraph.ValidationError{Field: "uses_steps", Message: fmt.Sprintf("not an integer: %q", part)}
			}
			req.UsesSteps = append(req.UsesSteps, n)
		}
	}
	return req, nil
}

func decodeMove(r *http.Request) (stepgraph.Direction, error) {
	var req MoveRequest
	if isForm(r) {
		req.Direction = r.FormValue("direction")
	} else if err := decodeJSON(r, &req); err != nil {
		return "", err
	}
	return stepgraph.ParseDirection(req.Direction)
}

func decodeIngredientText(r *http.Request) (string, error) {
	var req IngredientsRequest
	if isForm(r) {
		return r.FormValue("text"), nil
	}
	if err := decodeJSON(r, &req); err != nil {
		return "", err
	}
	return req.Text, nil
}

func isForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

// decodeJSON decodes a single JSON object, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &stepgraph.ValidationError{Field: "body", Message: "empty request body"}
		}
		return &stepgraph.ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
